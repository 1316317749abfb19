package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/expohub/expo-reservation/internal/model"
	"github.com/expohub/expo-reservation/internal/repository"
)

// ApplicationHandler owns the exhibitor application workflow. Approval
// grants nothing but the APPROVED status; booth slots are still claimed
// through the reservation path.
type ApplicationHandler struct {
	Applications *repository.ApplicationRepo
	Expos        *repository.ExpoRepo
}

func NewApplicationHandler(a *repository.ApplicationRepo, e *repository.ExpoRepo) *ApplicationHandler {
	return &ApplicationHandler{Applications: a, Expos: e}
}

type applicationReq struct {
	Note string `json:"note"`
}

type decisionReq struct {
	Approve bool `json:"approve"`
}

// Apply submits a PENDING application for the expo. Only published
// expos accept applications; a live pending or approved application
// for the same expo blocks a second one.
func (h *ApplicationHandler) Apply(c echo.Context) error {
	expoID := pathID(c, "id")
	if expoID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid expo id"})
	}
	var req applicationReq
	_ = c.Bind(&req)

	ctx, cancel := reqCtx(c)
	defer cancel()

	expo, err := h.Expos.GetByID(ctx, expoID)
	if err != nil {
		if errors.Is(err, repository.ErrExpoNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "expo not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "get expo failed"})
	}
	if expo.Status != model.ExpoPublished {
		return c.JSON(http.StatusConflict, echo.Map{"error": "expo is not accepting applications"})
	}

	rec := &repository.ApplicationRecord{
		ExpoID:      expoID,
		ExhibitorID: principal(c).ID,
		Note:        strings.TrimSpace(req.Note),
	}
	if err := h.Applications.Create(ctx, rec); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "application already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create application failed"})
	}
	return c.JSON(http.StatusCreated, rec)
}

// GetApplication returns one application. Visible to the applicant,
// the expo's organizer and admins; everyone else gets 404.
func (h *ApplicationHandler) GetApplication(c echo.Context) error {
	id := pathID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid application id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	app, err := h.Applications.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrApplicationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "application not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "get application failed"})
	}

	p := principal(c)
	if app.ExhibitorID != p.ID && !isAdmin(c) {
		expo, err := h.Expos.GetByID(ctx, app.ExpoID)
		if err != nil || expo.OrganizerID != p.ID {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "application not found"})
		}
	}
	return c.JSON(http.StatusOK, app)
}

// ListExpoApplications returns the applications of an expo for its
// organizer, pending first.
func (h *ApplicationHandler) ListExpoApplications(c echo.Context) error {
	expoID := pathID(c, "id")
	if expoID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid expo id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if ok := h.requireOrganizer(c, expoID); !ok {
		return nil
	}
	out, err := h.Applications.ListByExpo(ctx, expoID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list applications failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"applications": out})
}

// Decide approves or rejects a PENDING application. Decisions are
// final; a repeat gets 409.
func (h *ApplicationHandler) Decide(c echo.Context) error {
	id := pathID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid application id"})
	}
	var req decisionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	app, err := h.Applications.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrApplicationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "application not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "get application failed"})
	}
	if ok := h.requireOrganizer(c, app.ExpoID); !ok {
		return nil
	}

	if err := h.Applications.Decide(ctx, id, principal(c).ID, req.Approve); err != nil {
		switch {
		case errors.Is(err, repository.ErrApplicationNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "application not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "application already decided"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "decide application failed"})
	}
	status := model.ApplicationRejected
	if req.Approve {
		status = model.ApplicationApproved
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "status": status})
}

// requireOrganizer reports false after writing the error response when
// the caller does not own the expo.
func (h *ApplicationHandler) requireOrganizer(c echo.Context, expoID uint64) bool {
	ctx, cancel := reqCtx(c)
	defer cancel()
	expo, err := h.Expos.GetByID(ctx, expoID)
	if err != nil {
		if errors.Is(err, repository.ErrExpoNotFound) {
			_ = c.JSON(http.StatusNotFound, echo.Map{"error": "expo not found"})
		} else {
			_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "get expo failed"})
		}
		return false
	}
	if expo.OrganizerID != principal(c).ID && !isAdmin(c) {
		_ = c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		return false
	}
	return true
}
