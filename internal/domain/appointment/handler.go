package appointment

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
	g := api.Group("/appointments")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PATCH("/:id/status", h.UpdateStatus)
}

func caller(c echo.Context) scope.Caller {
	ctx := c.Request().Context()
	return scope.NewCaller(auth.UserIDFromContext(ctx), auth.RoleFromContext(ctx))
}

func (h *Handler) Create(c echo.Context) error {
	var a Appointment
	if err := c.Bind(&a); err != nil {
		return envelope.StatusError(c, http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.Create(c.Request().Context(), caller(c), &a); err != nil {
		if errors.Is(err, ErrForbidden) {
			return envelope.StatusError(c, http.StatusForbidden, "access denied")
		}
		return envelope.StatusError(c, http.StatusBadRequest, err.Error())
	}
	return envelope.Status(c, http.StatusCreated, a)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), caller(c), c.QueryParam("status"), pg.Limit, pg.Offset)
	if err != nil {
		if errors.Is(err, ErrForbidden) {
			return envelope.StatusError(c, http.StatusForbidden, "access denied")
		}
		return envelope.StatusError(c, http.StatusBadRequest, err.Error())
	}
	return envelope.Status(c, http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return envelope.StatusError(c, http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.Get(c.Request().Context(), caller(c), id)
	if err != nil {
		if errors.Is(err, ErrForbidden) {
			return envelope.StatusError(c, http.StatusForbidden, "access denied")
		}
		return envelope.StatusError(c, http.StatusNotFound, "appointment not found")
	}
	return envelope.Status(c, http.StatusOK, a)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return envelope.StatusError(c, http.StatusBadRequest, "invalid id")
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return envelope.StatusError(c, http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.UpdateStatus(c.Request().Context(), caller(c), id, req.Status); err != nil {
		if errors.Is(err, ErrForbidden) {
			return envelope.StatusError(c, http.StatusForbidden, "access denied")
		}
		return envelope.StatusError(c, http.StatusBadRequest, err.Error())
	}
	return envelope.Status(c, http.StatusOK, map[string]string{"status": req.Status})
}
