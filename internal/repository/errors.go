// Package repository implements all database access for the expo
// reservation service. Repositories are thin structs over *sql.DB with
// hand-written SQL; methods suffixed Tx run inside a caller-owned
// transaction. Sentinel errors let handlers map failures to HTTP
// statuses without inspecting SQL details.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource owned by someone else. Handlers translate this into 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a transition cannot proceed because of
// conflicting state, such as unpublishing an expo that still has
// confirmed reservations. Handlers translate this into 409.
var ErrConflict = errors.New("conflict")

// ErrExpoNotFound is returned when an expo does not exist or has been
// soft-deleted.
var ErrExpoNotFound = errors.New("expo not found")

// ErrApplicationNotFound is returned when an exhibitor application
// does not exist.
var ErrApplicationNotFound = errors.New("application not found")

// ErrUserExists is returned on registration when the email is taken.
var ErrUserExists = errors.New("user already exists")
