package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expohub/expo-reservation/internal/booking"
	"github.com/expohub/expo-reservation/internal/middleware"
	"github.com/expohub/expo-reservation/internal/model"
	"github.com/expohub/expo-reservation/internal/utils"
)

const testSecret = "booking-handler-secret"

// newBookingServer wires the reservation routes the way the router does,
// over an in-memory store, so requests exercise the identity gate, the
// role gate and the handler together.
func newBookingServer(t *testing.T, store *booking.MemStore) *echo.Echo {
	t.Helper()
	svc := booking.NewService(store, nil)
	h := NewBookingHandler(svc, nil)

	e := echo.New()
	exhibitor := e.Group("/v1",
		middleware.JWTAuth(testSecret),
		middleware.RequireRole(model.RoleExhibitor),
	)
	exhibitor.POST("/booths/:id/book", h.BookBooth)

	attendee := e.Group("/v1",
		middleware.JWTAuth(testSecret),
		middleware.RequireRole(model.RoleAttendee),
	)
	attendee.POST("/sessions/:id/register", h.RegisterSession)

	any := e.Group("/v1", middleware.JWTAuth(testSecret))
	any.POST("/reservations/:id/cancel", h.Cancel)
	any.GET("/reservations/:id", h.GetReservation)
	return e
}

func publishedBooth(id uint64, capacity uint32) model.ResourceInfo {
	return model.ResourceInfo{
		Ref:        model.ResourceRef{Type: model.ResourceBooth, ID: id},
		ExpoID:     1,
		Label:      "A-1",
		Capacity:   capacity,
		ExpoStatus: model.ExpoPublished,
		ClosesAt:   time.Now().UTC().Add(24 * time.Hour),
	}
}

func publishedSession(id uint64, seats uint32) model.ResourceInfo {
	return model.ResourceInfo{
		Ref:        model.ResourceRef{Type: model.ResourceSession, ID: id},
		ExpoID:     1,
		Label:      "Opening Keynote",
		Capacity:   seats,
		ExpoStatus: model.ExpoPublished,
		ClosesAt:   time.Now().UTC().Add(24 * time.Hour),
	}
}

func tokenFor(t *testing.T, userID uint64, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(testSecret, userID, role, 15)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func send(e *echo.Echo, method, target, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// wireReservation mirrors the JSON shape of a reservation response.
type wireReservation struct {
	ID        uint64 `json:"id"`
	Reference string `json:"reference"`
	UserID    uint64 `json:"user_id"`
	Status    string `json:"status"`
}

func TestBookBoothConfirms(t *testing.T) {
	store := booking.NewMemStore()
	store.AddResource(publishedBooth(10, 2))
	e := newBookingServer(t, store)

	rec := send(e, http.MethodPost, "/v1/booths/10/book", tokenFor(t, 7, model.RoleExhibitor))
	require.Equal(t, http.StatusCreated, rec.Code)

	var res wireReservation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, model.ReservationConfirmed, res.Status)
	assert.Equal(t, uint64(7), res.UserID)
	assert.NotEmpty(t, res.Reference)
}

func TestBookBoothRequiresExhibitorRole(t *testing.T) {
	store := booking.NewMemStore()
	store.AddResource(publishedBooth(10, 2))
	e := newBookingServer(t, store)

	rec := send(e, http.MethodPost, "/v1/booths/10/book", tokenFor(t, 7, model.RoleAttendee))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = send(e, http.MethodPost, "/v1/booths/10/book", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterSessionConfirms(t *testing.T) {
	store := booking.NewMemStore()
	store.AddResource(publishedSession(20, 100))
	e := newBookingServer(t, store)

	rec := send(e, http.MethodPost, "/v1/sessions/20/register", tokenFor(t, 9, model.RoleAttendee))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestBookUnknownBoothIs404(t *testing.T) {
	e := newBookingServer(t, booking.NewMemStore())
	rec := send(e, http.MethodPost, "/v1/booths/999/book", tokenFor(t, 7, model.RoleExhibitor))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBookFullBoothIs409(t *testing.T) {
	store := booking.NewMemStore()
	store.AddResource(publishedBooth(10, 1))
	e := newBookingServer(t, store)

	rec := send(e, http.MethodPost, "/v1/booths/10/book", tokenFor(t, 7, model.RoleExhibitor))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = send(e, http.MethodPost, "/v1/booths/10/book", tokenFor(t, 8, model.RoleExhibitor))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDuplicateBookIs409(t *testing.T) {
	store := booking.NewMemStore()
	store.AddResource(publishedBooth(10, 5))
	e := newBookingServer(t, store)

	auth := tokenFor(t, 7, model.RoleExhibitor)
	rec := send(e, http.MethodPost, "/v1/booths/10/book", auth)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = send(e, http.MethodPost, "/v1/booths/10/book", auth)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestBookDraftExpoIs409(t *testing.T) {
	store := booking.NewMemStore()
	info := publishedBooth(10, 2)
	info.ExpoStatus = model.ExpoDraft
	store.AddResource(info)
	e := newBookingServer(t, store)

	rec := send(e, http.MethodPost, "/v1/booths/10/book", tokenFor(t, 7, model.RoleExhibitor))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCancelIsIdempotentOverHTTP(t *testing.T) {
	store := booking.NewMemStore()
	store.AddResource(publishedBooth(10, 1))
	e := newBookingServer(t, store)

	auth := tokenFor(t, 7, model.RoleExhibitor)
	rec := send(e, http.MethodPost, "/v1/booths/10/book", auth)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = send(e, http.MethodPost, "/v1/reservations/1/cancel", auth)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Repeating the cancel succeeds with the same terminal state.
	rec = send(e, http.MethodPost, "/v1/reservations/1/cancel", auth)
	assert.Equal(t, http.StatusOK, rec.Code)

	var cancelled wireReservation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cancelled))
	assert.Equal(t, model.ReservationCancelled, cancelled.Status)
}

func TestCancelForeignReservationIs403(t *testing.T) {
	store := booking.NewMemStore()
	store.AddResource(publishedBooth(10, 1))
	e := newBookingServer(t, store)

	rec := send(e, http.MethodPost, "/v1/booths/10/book", tokenFor(t, 7, model.RoleExhibitor))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = send(e, http.MethodPost, "/v1/reservations/1/cancel", tokenFor(t, 8, model.RoleAttendee))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Staff may cancel on behalf of the owner.
	rec = send(e, http.MethodPost, "/v1/reservations/1/cancel", tokenFor(t, 9, model.RoleOrganizer))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetReservationHiddenFromStrangers(t *testing.T) {
	store := booking.NewMemStore()
	store.AddResource(publishedBooth(10, 1))
	e := newBookingServer(t, store)

	rec := send(e, http.MethodPost, "/v1/booths/10/book", tokenFor(t, 7, model.RoleExhibitor))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = send(e, http.MethodGet, "/v1/reservations/1", tokenFor(t, 7, model.RoleExhibitor))
	assert.Equal(t, http.StatusOK, rec.Code)

	// Another attendee gets 404, not 403: existence is not leaked.
	rec = send(e, http.MethodGet, "/v1/reservations/1", tokenFor(t, 8, model.RoleAttendee))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
