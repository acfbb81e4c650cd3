package prescription

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
	g := api.Group("/prescriptions")
	g.POST("", h.Create, auth.RequireRole("doctor", "admin"))
	g.GET("", h.List)
	g.GET("/:id", h.Get)
}

func caller(c echo.Context) scope.Caller {
	ctx := c.Request().Context()
	return scope.NewCaller(auth.UserIDFromContext(ctx), auth.RoleFromContext(ctx))
}

func (h *Handler) Create(c echo.Context) error {
	var p Prescription
	if err := c.Bind(&p); err != nil {
		return envelope.Fail(c, http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.Create(c.Request().Context(), caller(c), &p); err != nil {
		if errors.Is(err, ErrForbidden) {
			return envelope.Fail(c, http.StatusForbidden, "access denied")
		}
		return envelope.Fail(c, http.StatusBadRequest, err.Error())
	}
	return envelope.OK(c, http.StatusCreated, "prescription created", p)
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
		return envelope.Fail(c, http.StatusInternalServerError, "could not list prescriptions")
	}
	return envelope.OK(c, http.StatusOK, "", pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return envelope.Fail(c, http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.Get(c.Request().Context(), caller(c), id)
	if err != nil {
		if errors.Is(err, ErrForbidden) {
			return envelope.Fail(c, http.StatusForbidden, "access denied")
		}
		return envelope.Fail(c, http.StatusNotFound, "prescription not found")
	}
	return envelope.OK(c, http.StatusOK, "", p)
}
