package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/expohub/expo-reservation/internal/booking"
	"github.com/expohub/expo-reservation/internal/model"
	"github.com/expohub/expo-reservation/internal/repository"
)

// BookingHandler exposes the reservation operations: claiming a booth
// slot, registering for a session, cancellation and lookups.
type BookingHandler struct {
	Booking      *booking.Service
	Reservations *repository.ReservationRepo
}

func NewBookingHandler(svc *booking.Service, r *repository.ReservationRepo) *BookingHandler {
	return &BookingHandler{Booking: svc, Reservations: r}
}

type reservationResp struct {
	ID           uint64    `json:"id"`
	Reference    string    `json:"reference"`
	ResourceType string    `json:"resource_type"`
	ResourceID   uint64    `json:"resource_id"`
	UserID       uint64    `json:"user_id"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toReservationResp(r *model.Reservation) reservationResp {
	return reservationResp{
		ID:           r.ID,
		Reference:    r.Reference,
		ResourceType: string(r.ResourceType),
		ResourceID:   r.ResourceID,
		UserID:       r.UserID,
		Status:       r.Status,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// BookBooth claims one slot on a booth for the caller.
func (h *BookingHandler) BookBooth(c echo.Context) error {
	return h.book(c, model.ResourceBooth)
}

// RegisterSession claims one attendee slot on a session.
func (h *BookingHandler) RegisterSession(c echo.Context) error {
	return h.book(c, model.ResourceSession)
}

func (h *BookingHandler) book(c echo.Context, t model.ResourceType) error {
	id := pathID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid resource id"})
	}
	res, err := h.Booking.Book(c.Request().Context(), model.ResourceRef{Type: t, ID: id}, principal(c))
	if err != nil {
		return bookingErr(c, err)
	}
	return c.JSON(http.StatusCreated, toReservationResp(res))
}

// Cancel transitions the reservation to CANCELLED, releasing its slot.
// Repeats are accepted.
func (h *BookingHandler) Cancel(c echo.Context) error {
	id := pathID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	res, err := h.Booking.Cancel(c.Request().Context(), id, principal(c))
	if err != nil {
		return bookingErr(c, err)
	}
	return c.JSON(http.StatusOK, toReservationResp(res))
}

// GetReservation returns one reservation visible to the caller.
func (h *BookingHandler) GetReservation(c echo.Context) error {
	id := pathID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	res, err := h.Booking.Reservation(c.Request().Context(), id, principal(c))
	if err != nil {
		return bookingErr(c, err)
	}
	return c.JSON(http.StatusOK, toReservationResp(res))
}

// ListMyReservations returns the caller's reservations, newest first.
func (h *BookingHandler) ListMyReservations(c echo.Context) error {
	out, err := h.Reservations.ListByUser(c.Request().Context(), principal(c).ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list reservations failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": out})
}

// bookingErr maps the booking sentinel errors onto status codes. All
// state-machine violations surface as 409 so clients can retry with a
// fresh read.
func bookingErr(c echo.Context, err error) error {
	switch {
	case errors.Is(err, booking.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, booking.ErrNotOwner):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, booking.ErrLifecycleClosed):
		return c.JSON(http.StatusConflict, echo.Map{"error": "resource is not open for reservations"})
	case errors.Is(err, booking.ErrAlreadyReserved):
		return c.JSON(http.StatusConflict, echo.Map{"error": "active reservation already exists"})
	case errors.Is(err, booking.ErrCapacityExceeded):
		return c.JSON(http.StatusConflict, echo.Map{"error": "no slots remaining"})
	case errors.Is(err, booking.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, echo.Map{"error": "invalid reservation state"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reservation operation failed"})
}
