package order

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
	g := api.Group("/orders")
	g.POST("", h.Create, auth.RequireRole("patient", "admin"))
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PATCH("/:id/status", h.UpdateStatus, auth.RequireRole("admin", "hospital"))
	g.GET("/:id/status-history", h.History)
}

func caller(c echo.Context) scope.Caller {
	ctx := c.Request().Context()
	return scope.NewCaller(auth.UserIDFromContext(ctx), auth.RoleFromContext(ctx))
}

func (h *Handler) Create(c echo.Context) error {
	var o Order
	if err := c.Bind(&o); err != nil {
		return envelope.StatusError(c, http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.Create(c.Request().Context(), caller(c), &o); err != nil {
		if errors.Is(err, ErrForbidden) {
			return envelope.StatusError(c, http.StatusForbidden, "access denied")
		}
		return envelope.StatusError(c, http.StatusBadRequest, err.Error())
	}
	return envelope.Status(c, http.StatusCreated, o)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), caller(c),
		c.QueryParam("status"), pg.Limit, pg.Offset)
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
	o, err := h.svc.Get(c.Request().Context(), caller(c), id)
	if err != nil {
		if errors.Is(err, ErrForbidden) {
			return envelope.StatusError(c, http.StatusForbidden, "access denied")
		}
		return envelope.StatusError(c, http.StatusNotFound, "order not found")
	}
	return envelope.Status(c, http.StatusOK, o)
}

type statusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
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
	o, err := h.svc.UpdateStatus(c.Request().Context(), caller(c), id, req.Status, req.Note)
	if err != nil {
		if errors.Is(err, ErrForbidden) {
			return envelope.StatusError(c, http.StatusForbidden, "access denied")
		}
		return envelope.StatusError(c, http.StatusBadRequest, err.Error())
	}
	return envelope.Status(c, http.StatusOK, o)
}

func (h *Handler) History(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return envelope.StatusError(c, http.StatusBadRequest, "invalid id")
	}
	history, err := h.svc.History(c.Request().Context(), caller(c), id)
	if err != nil {
		if errors.Is(err, ErrForbidden) {
			return envelope.StatusError(c, http.StatusForbidden, "access denied")
		}
		return envelope.StatusError(c, http.StatusNotFound, "order not found")
	}
	return envelope.Status(c, http.StatusOK, history)
}
