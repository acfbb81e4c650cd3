package doctor

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carelink/carelink/internal/platform/auth"
	"github.com/carelink/carelink/internal/platform/db"
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
	g := api.Group("/doctors")
	g.POST("", h.Create, auth.RequireRole("admin", "hospital"))
	g.GET("", h.List)
	g.GET("/me", h.GetOwn, auth.RequireRole("doctor"))
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update, auth.RequireRole("admin", "hospital", "doctor"))
}

func caller(c echo.Context) scope.Caller {
	ctx := c.Request().Context()
	return scope.NewCaller(auth.UserIDFromContext(ctx), auth.RoleFromContext(ctx))
}

func (h *Handler) Create(c echo.Context) error {
	var d Doctor
	if err := c.Bind(&d); err != nil {
		return envelope.Fail(c, http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.Create(c.Request().Context(), &d); err != nil {
		if field, ok := db.DuplicateField(err); ok {
			return envelope.Fail(c, http.StatusBadRequest,
				fmt.Sprintf("a doctor with this %s already exists", field))
		}
		return envelope.Fail(c, http.StatusBadRequest, err.Error())
	}
	return envelope.OK(c, http.StatusCreated, "doctor created", d)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)

	var hospitalID *uuid.UUID
	if raw := c.QueryParam("hospital_id"); raw != "" {
		hid, err := uuid.Parse(raw)
		if err != nil {
			return envelope.Fail(c, http.StatusBadRequest, "invalid hospital_id")
		}
		hospitalID = &hid
	}

	items, total, err := h.svc.List(c.Request().Context(), caller(c), hospitalID, pg.Limit, pg.Offset)
	if err != nil {
		if errors.Is(err, ErrForbidden) {
			return envelope.Fail(c, http.StatusForbidden, "access denied")
		}
		return envelope.Fail(c, http.StatusInternalServerError, "could not list doctors")
	}
	return envelope.OK(c, http.StatusOK, "", pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return envelope.Fail(c, http.StatusBadRequest, "invalid id")
	}
	d, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return envelope.Fail(c, http.StatusNotFound, "doctor not found")
	}
	return envelope.OK(c, http.StatusOK, "", d)
}

func (h *Handler) GetOwn(c echo.Context) error {
	ctx := c.Request().Context()
	uid, err := uuid.Parse(auth.UserIDFromContext(ctx))
	if err != nil {
		return envelope.Fail(c, http.StatusUnauthorized, "unauthenticated")
	}
	d, err := h.svc.GetByUser(ctx, uid)
	if err != nil {
		return envelope.Fail(c, http.StatusNotFound, "doctor profile not found")
	}
	return envelope.OK(c, http.StatusOK, "", d)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return envelope.Fail(c, http.StatusBadRequest, "invalid id")
	}
	var d Doctor
	if err := c.Bind(&d); err != nil {
		return envelope.Fail(c, http.StatusBadRequest, "invalid request body")
	}
	d.ID = id
	if err := h.svc.Update(c.Request().Context(), &d); err != nil {
		return envelope.Fail(c, http.StatusBadRequest, err.Error())
	}
	return envelope.OK(c, http.StatusOK, "doctor updated", d)
}
