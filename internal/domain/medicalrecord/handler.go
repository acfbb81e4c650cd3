package medicalrecord

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carelink/carelink/internal/platform/auth"
	"github.com/carelink/carelink/internal/platform/scope"
	"github.com/carelink/carelink/pkg/envelope"
	"github.com/carelink/carelink/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/medical-records")
	g.POST("", h.Create, auth.RequireRole("doctor", "admin"))
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PATCH("/:id", h.Amend, auth.RequireRole("doctor", "admin"))
}

func caller(c echo.Context) scope.Caller {
	ctx := c.Request().Context()
	return scope.NewCaller(auth.UserIDFromContext(ctx), auth.RoleFromContext(ctx))
}

func (h *Handler) Create(c echo.Context) error {
	var rec Record
	if err := c.Bind(&rec); err != nil {
		return envelope.Fail(c, http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.Create(c.Request().Context(), caller(c), &rec); err != nil {
		if errors.Is(err, ErrForbidden) {
			return envelope.Fail(c, http.StatusForbidden, "access denied")
		}
		return envelope.Fail(c, http.StatusBadRequest, err.Error())
	}
	return envelope.OK(c, http.StatusCreated, "medical record created", rec)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)

	var patientID *uuid.UUID
	if raw := c.QueryParam("patient_id"); raw != "" {
		pid, err := uuid.Parse(raw)
		if err != nil {
			return envelope.Fail(c, http.StatusBadRequest, "invalid patient_id")
		}
		patientID = &pid
	}

	items, total, err := h.svc.List(c.Request().Context(), caller(c), patientID, pg.Limit, pg.Offset)
	if err != nil {
		if errors.Is(err, ErrForbidden) {
			return envelope.Fail(c, http.StatusForbidden, "access denied")
		}
		return envelope.Fail(c, http.StatusInternalServerError, "could not list medical records")
	}
	return envelope.OK(c, http.StatusOK, "", pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return envelope.Fail(c, http.StatusBadRequest, "invalid id")
	}
	rec, err := h.svc.Get(c.Request().Context(), caller(c), id)
	if err != nil {
		if errors.Is(err, ErrForbidden) {
			return envelope.Fail(c, http.StatusForbidden, "access denied")
		}
		return envelope.Fail(c, http.StatusNotFound, "medical record not found")
	}
	return envelope.OK(c, http.StatusOK, "", rec)
}

type amendRequest struct {
	Notes            string     `json:"notes"`
	FollowUpDoctorID *uuid.UUID `json:"follow_up_doctor_id"`
}

func (h *Handler) Amend(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return envelope.Fail(c, http.StatusBadRequest, "invalid id")
	}
	var req amendRequest
	if err := c.Bind(&req); err != nil {
		return envelope.Fail(c, http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.Amend(c.Request().Context(), caller(c), id, req.Notes, req.FollowUpDoctorID); err != nil {
		if errors.Is(err, ErrForbidden) {
			return envelope.Fail(c, http.StatusForbidden, "access denied")
		}
		return envelope.Fail(c, http.StatusBadRequest, err.Error())
	}
	return envelope.OK(c, http.StatusOK, "medical record updated", nil)
}
