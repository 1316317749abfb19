package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/expohub/expo-reservation/internal/booking"
	"github.com/expohub/expo-reservation/internal/repository"
)

// ExpoHandler owns the organizer surface: expo CRUD, lifecycle
// transitions, booth and session creation, reservation listings and
// the occupancy rollup.
type ExpoHandler struct {
	Expos        *repository.ExpoRepo
	Booths       *repository.BoothRepo
	Sessions     *repository.SessionRepo
	Reservations *repository.ReservationRepo
	Booking      *booking.Service
}

func NewExpoHandler(e *repository.ExpoRepo, b *repository.BoothRepo, s *repository.SessionRepo,
	r *repository.ReservationRepo, svc *booking.Service) *ExpoHandler {
	return &ExpoHandler{Expos: e, Booths: b, Sessions: s, Reservations: r, Booking: svc}
}

type expoReq struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Venue       string `json:"venue"`
	StartsAt    string `json:"starts_at"` // RFC3339 UTC
	EndsAt      string `json:"ends_at"`
}

// validateWindow parses and orders the expo window, returning the
// normalized RFC3339 strings stored in the database.
func validateWindow(startsAt, endsAt string) (string, string, error) {
	start, err := time.Parse(time.RFC3339, startsAt)
	if err != nil {
		return "", "", errors.New("starts_at must be RFC3339")
	}
	end, err := time.Parse(time.RFC3339, endsAt)
	if err != nil {
		return "", "", errors.New("ends_at must be RFC3339")
	}
	if !end.After(start) {
		return "", "", errors.New("ends_at must be after starts_at")
	}
	return start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339), nil
}

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// CreateExpo inserts a DRAFT expo owned by the caller.
func (h *ExpoHandler) CreateExpo(c echo.Context) error {
	var req expoReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title required"})
	}
	startsAt, endsAt, err := validateWindow(req.StartsAt, req.EndsAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	rec := &repository.ExpoRecord{
		OrganizerID: principal(c).ID,
		Title:       req.Title,
		Description: req.Description,
		Venue:       req.Venue,
		StartsAt:    startsAt,
		EndsAt:      endsAt,
	}
	if err := h.Expos.Create(ctx, rec); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create expo failed"})
	}
	return c.JSON(http.StatusCreated, rec)
}

// ListMyExpos returns the caller's expos.
func (h *ExpoHandler) ListMyExpos(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	out, err := h.Expos.ListByOrganizer(ctx, principal(c).ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list expos failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"expos": out})
}

// GetExpo returns one expo. Organizers see only their own; admins see
// any.
func (h *ExpoHandler) GetExpo(c echo.Context) error {
	id := pathID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid expo id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	rec, err := h.Expos.GetByID(ctx, id)
	if err != nil {
		return h.expoErr(c, err, "get expo failed")
	}
	if rec.OrganizerID != principal(c).ID && !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusOK, rec)
}

// UpdateExpo rewrites descriptive fields. Status is untouchable here;
// the lifecycle endpoints own it.
func (h *ExpoHandler) UpdateExpo(c echo.Context) error {
	id := pathID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid expo id"})
	}
	var req expoReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title required"})
	}
	startsAt, endsAt, err := validateWindow(req.StartsAt, req.EndsAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	rec, err := h.Expos.GetByID(ctx, id)
	if err != nil {
		return h.expoErr(c, err, "get expo failed")
	}
	if rec.OrganizerID != principal(c).ID && !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	rec.Title, rec.Description, rec.Venue = req.Title, req.Description, req.Venue
	rec.StartsAt, rec.EndsAt = startsAt, endsAt
	if err := h.Expos.Update(ctx, rec); err != nil {
		return h.expoErr(c, err, "update expo failed")
	}
	return c.JSON(http.StatusOK, rec)
}

// DeleteExpo soft-deletes the expo together with its booths and
// sessions.
func (h *ExpoHandler) DeleteExpo(c echo.Context) error {
	id := pathID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid expo id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if ok := h.requireOwner(ctx, c, id); !ok {
		return nil
	}
	if err := h.Expos.SoftDelete(ctx, id); err != nil {
		return h.expoErr(c, err, "delete expo failed")
	}
	return c.NoContent(http.StatusNoContent)
}

// Publish moves DRAFT -> PUBLISHED, opening the expo for reservations.
func (h *ExpoHandler) Publish(c echo.Context) error {
	return h.lifecycle(c, h.Expos.Publish, "PUBLISHED")
}

// Unpublish moves PUBLISHED -> DRAFT. Blocked with 409 while confirmed
// reservations exist under the expo.
func (h *ExpoHandler) Unpublish(c echo.Context) error {
	return h.lifecycle(c, h.Expos.Unpublish, "DRAFT")
}

// Complete moves PUBLISHED -> COMPLETED, the terminal state.
func (h *ExpoHandler) Complete(c echo.Context) error {
	return h.lifecycle(c, h.Expos.Complete, "COMPLETED")
}

func (h *ExpoHandler) lifecycle(c echo.Context, op func(context.Context, uint64) error, to string) error {
	id := pathID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid expo id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if ok := h.requireOwner(ctx, c, id); !ok {
		return nil
	}
	if err := op(ctx, id); err != nil {
		return h.expoErr(c, err, "transition failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "status": to})
}

type boothReq struct {
	Label     string `json:"label"`
	Capacity  uint32 `json:"capacity"`
	PriceTier string `json:"price_tier"`
}

// CreateBooth adds a booth under the expo. Capacity must be positive;
// the ledger cannot represent a zero-capacity resource usefully.
func (h *ExpoHandler) CreateBooth(c echo.Context) error {
	expoID := pathID(c, "id")
	if expoID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid expo id"})
	}
	var req boothReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Label = strings.TrimSpace(req.Label)
	if req.Label == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "label required"})
	}
	if req.Capacity < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "capacity must be >= 1"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	rec := &repository.BoothRecord{ExpoID: expoID, Label: req.Label, Capacity: req.Capacity, PriceTier: req.PriceTier}
	if err := h.Booths.Create(ctx, rec, principal(c).ID, isAdmin(c)); err != nil {
		return h.expoErr(c, err, "create booth failed")
	}
	return c.JSON(http.StatusCreated, rec)
}

type sessionReq struct {
	Title        string `json:"title"`
	StartsAt     string `json:"starts_at"`
	EndsAt       string `json:"ends_at"`
	MaxAttendees uint32 `json:"max_attendees"`
}

// CreateSession adds a session under the expo.
func (h *ExpoHandler) CreateSession(c echo.Context) error {
	expoID := pathID(c, "id")
	if expoID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid expo id"})
	}
	var req sessionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title required"})
	}
	if req.MaxAttendees < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "max_attendees must be >= 1"})
	}
	startsAt, endsAt, err := validateWindow(req.StartsAt, req.EndsAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	rec := &repository.SessionRecord{
		ExpoID: expoID, Title: req.Title,
		StartsAt: startsAt, EndsAt: endsAt,
		MaxAttendees: req.MaxAttendees,
	}
	if err := h.Sessions.Create(ctx, rec, principal(c).ID, isAdmin(c)); err != nil {
		return h.expoErr(c, err, "create session failed")
	}
	return c.JSON(http.StatusCreated, rec)
}

// ListExpoReservations returns every reservation under the expo for its
// organizer.
func (h *ExpoHandler) ListExpoReservations(c echo.Context) error {
	expoID := pathID(c, "id")
	if expoID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid expo id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	out, err := h.Reservations.ListByExpo(ctx, expoID, principal(c).ID, isAdmin(c))
	if err != nil {
		return h.expoErr(c, err, "list reservations failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": out})
}

// ExpoAnalytics returns the occupancy rollup for the expo.
func (h *ExpoHandler) ExpoAnalytics(c echo.Context) error {
	expoID := pathID(c, "id")
	if expoID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid expo id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if ok := h.requireOwner(ctx, c, expoID); !ok {
		return nil
	}
	rollup, err := h.Booking.ExpoAnalytics(ctx, expoID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "analytics failed"})
	}
	return c.JSON(http.StatusOK, rollup)
}

// requireOwner loads the expo and enforces organizer ownership (admin
// bypasses). It reports false after writing the error response, so a
// caller must stop without touching the response again.
func (h *ExpoHandler) requireOwner(ctx context.Context, c echo.Context, expoID uint64) bool {
	rec, err := h.Expos.GetByID(ctx, expoID)
	if err != nil {
		_ = h.expoErr(c, err, "get expo failed")
		return false
	}
	if rec.OrganizerID != principal(c).ID && !isAdmin(c) {
		_ = c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		return false
	}
	return true
}

func (h *ExpoHandler) expoErr(c echo.Context, err error, fallback string) error {
	switch {
	case errors.Is(err, repository.ErrExpoNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "expo not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflicting lifecycle state"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": fallback})
}
