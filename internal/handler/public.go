package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/expohub/expo-reservation/internal/booking"
	"github.com/expohub/expo-reservation/internal/model"
	"github.com/expohub/expo-reservation/internal/repository"
)

// PublicHandler serves the unauthenticated browse surface. Responses
// tolerate short staleness and sit behind the response cache.
type PublicHandler struct {
	Expos    *repository.ExpoRepo
	Booths   *repository.BoothRepo
	Sessions *repository.SessionRepo
	Booking  *booking.Service
}

func NewPublicHandler(e *repository.ExpoRepo, b *repository.BoothRepo, s *repository.SessionRepo,
	svc *booking.Service) *PublicHandler {
	return &PublicHandler{Expos: e, Booths: b, Sessions: s, Booking: svc}
}

// ListPublished returns all published expos.
func (h *PublicHandler) ListPublished(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	out, err := h.Expos.ListPublished(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list expos failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"expos": out})
}

// Available returns the booths and sessions of a published expo that
// currently accept reservations.
func (h *PublicHandler) Available(c echo.Context) error {
	expoID, ok := h.publishedExpo(c)
	if !ok {
		return nil
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	resources, err := h.Booking.Available(ctx, expoID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list availability failed"})
	}
	type availability struct {
		ResourceType string `json:"resource_type"`
		ResourceID   uint64 `json:"resource_id"`
		Label        string `json:"label"`
		Capacity     uint32 `json:"capacity"`
		Remaining    uint32 `json:"remaining"`
	}
	out := make([]availability, 0, len(resources))
	for _, r := range resources {
		out = append(out, availability{
			ResourceType: string(r.Ref.Type),
			ResourceID:   r.Ref.ID,
			Label:        r.Label,
			Capacity:     r.Capacity,
			Remaining:    r.Remaining(),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"expo_id": expoID, "available": out})
}

// ListBooths returns the booths of a published expo.
func (h *PublicHandler) ListBooths(c echo.Context) error {
	expoID, ok := h.publishedExpo(c)
	if !ok {
		return nil
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	out, err := h.Booths.ListByExpo(ctx, expoID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list booths failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"booths": out})
}

// ListSessions returns the sessions of a published expo in schedule
// order.
func (h *PublicHandler) ListSessions(c echo.Context) error {
	expoID, ok := h.publishedExpo(c)
	if !ok {
		return nil
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	out, err := h.Sessions.ListByExpo(ctx, expoID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list sessions failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"sessions": out})
}

// publishedExpo resolves the :id path param to a published expo.
// Unpublished expos are reported as missing so drafts stay invisible.
// It reports false after writing the error response.
func (h *PublicHandler) publishedExpo(c echo.Context) (uint64, bool) {
	id := pathID(c, "id")
	if id == 0 {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid expo id"})
		return 0, false
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	expo, err := h.Expos.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrExpoNotFound) {
			_ = c.JSON(http.StatusNotFound, echo.Map{"error": "expo not found"})
		} else {
			_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "get expo failed"})
		}
		return 0, false
	}
	if expo.Status != model.ExpoPublished {
		_ = c.JSON(http.StatusNotFound, echo.Map{"error": "expo not found"})
		return 0, false
	}
	return id, true
}
