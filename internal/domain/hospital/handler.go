package hospital

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

// RegisterRoutes mounts the approved-hospitals directory on the public
// group and management endpoints on the authenticated group.
func (h *Handler) RegisterRoutes(public, api *echo.Group) {
	public.GET("/hospitals/approved", h.ListApproved)

	g := api.Group("/hospitals")
	g.POST("", h.Create, auth.RequireRole("admin"))
	g.GET("", h.List, auth.RequireRole("admin", "hospital"))
	g.GET("/me", h.GetOwn, auth.RequireRole("hospital"))
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update, auth.RequireRole("admin", "hospital"))
	g.POST("/:id/approve", h.Approve, auth.RequireRole("admin"))
	g.GET("/:id/departments", h.ListDepartments)
	g.POST("/:id/departments", h.AddDepartment, auth.RequireRole("admin", "hospital"))
	g.DELETE("/:id/departments/:deptId", h.DeleteDepartment, auth.RequireRole("admin", "hospital"))
}

func caller(c echo.Context) scope.Caller {
	ctx := c.Request().Context()
	return scope.NewCaller(auth.UserIDFromContext(ctx), auth.RoleFromContext(ctx))
}

func (h *Handler) Create(c echo.Context) error {
	var hosp Hospital
	if err := c.Bind(&hosp); err != nil {
		return envelope.StatusError(c, http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.Create(c.Request().Context(), &hosp); err != nil {
		return envelope.StatusError(c, http.StatusBadRequest, err.Error())
	}
	return envelope.Status(c, http.StatusCreated, hosp)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), caller(c), pg.Limit, pg.Offset)
	if err != nil {
		if errors.Is(err, ErrForbidden) {
			return envelope.StatusError(c, http.StatusForbidden, "access denied")
		}
		return envelope.StatusError(c, http.StatusInternalServerError, "could not list hospitals")
	}
	return envelope.Status(c, http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListApproved(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListApproved(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return envelope.StatusError(c, http.StatusInternalServerError, "could not list hospitals")
	}
	return envelope.Status(c, http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return envelope.StatusError(c, http.StatusBadRequest, "invalid id")
	}
	hosp, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return envelope.StatusError(c, http.StatusNotFound, "hospital not found")
	}
	return envelope.Status(c, http.StatusOK, hosp)
}

func (h *Handler) GetOwn(c echo.Context) error {
	ctx := c.Request().Context()
	uid, err := uuid.Parse(auth.UserIDFromContext(ctx))
	if err != nil {
		return envelope.StatusError(c, http.StatusUnauthorized, "unauthenticated")
	}
	hosp, err := h.svc.GetByAdmin(ctx, uid)
	if err != nil {
		return envelope.StatusError(c, http.StatusNotFound, "hospital profile not found")
	}
	return envelope.Status(c, http.StatusOK, hosp)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return envelope.StatusError(c, http.StatusBadRequest, "invalid id")
	}
	var hosp Hospital
	if err := c.Bind(&hosp); err != nil {
		return envelope.StatusError(c, http.StatusBadRequest, "invalid request body")
	}
	hosp.ID = id
	if err := h.svc.Update(c.Request().Context(), caller(c), &hosp); err != nil {
		if errors.Is(err, ErrForbidden) {
			return envelope.StatusError(c, http.StatusForbidden, "access denied")
		}
		return envelope.StatusError(c, http.StatusBadRequest, err.Error())
	}
	return envelope.Status(c, http.StatusOK, hosp)
}

func (h *Handler) Approve(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return envelope.StatusError(c, http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Approve(c.Request().Context(), id); err != nil {
		return envelope.StatusError(c, http.StatusNotFound, "hospital not found")
	}
	return envelope.Status(c, http.StatusOK, map[string]bool{"approved": true})
}

func (h *Handler) ListDepartments(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return envelope.StatusError(c, http.StatusBadRequest, "invalid id")
	}
	items, err := h.svc.ListDepartments(c.Request().Context(), id)
	if err != nil {
		return envelope.StatusError(c, http.StatusInternalServerError, "could not list departments")
	}
	return envelope.Status(c, http.StatusOK, items)
}

func (h *Handler) AddDepartment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return envelope.StatusError(c, http.StatusBadRequest, "invalid id")
	}
	var d Department
	if err := c.Bind(&d); err != nil {
		return envelope.StatusError(c, http.StatusBadRequest, "invalid request body")
	}
	d.HospitalID = id
	if err := h.svc.AddDepartment(c.Request().Context(), caller(c), &d); err != nil {
		if errors.Is(err, ErrForbidden) {
			return envelope.StatusError(c, http.StatusForbidden, "access denied")
		}
		return envelope.StatusError(c, http.StatusBadRequest, err.Error())
	}
	return envelope.Status(c, http.StatusCreated, d)
}

func (h *Handler) DeleteDepartment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return envelope.StatusError(c, http.StatusBadRequest, "invalid id")
	}
	deptID, err := uuid.Parse(c.Param("deptId"))
	if err != nil {
		return envelope.StatusError(c, http.StatusBadRequest, "invalid department id")
	}
	if err := h.svc.DeleteDepartment(c.Request().Context(), caller(c), id, deptID); err != nil {
		if errors.Is(err, ErrForbidden) {
			return envelope.StatusError(c, http.StatusForbidden, "access denied")
		}
		return envelope.StatusError(c, http.StatusInternalServerError, "could not delete department")
	}
	return c.NoContent(http.StatusNoContent)
}
