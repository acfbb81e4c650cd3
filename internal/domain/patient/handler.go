package patient

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
	g := api.Group("/patients")
	g.POST("", h.Create, auth.RequireRole("admin", "hospital"))
	g.GET("", h.List)
	g.GET("/me", h.GetOwn, auth.RequireRole("patient"))
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.GET("/:id/hospitals", h.VisitedHospitals)
	g.POST("/:id/visits", h.RecordVisit, auth.RequireRole("admin", "hospital"))
}

func caller(c echo.Context) scope.Caller {
	ctx := c.Request().Context()
	return scope.NewCaller(auth.UserIDFromContext(ctx), auth.RoleFromContext(ctx))
}

func (h *Handler) Create(c echo.Context) error {
	var p Patient
	if err := c.Bind(&p); err != nil {
		return envelope.Fail(c, http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.Create(c.Request().Context(), &p); err != nil {
		if field, ok := db.DuplicateField(err); ok {
			return envelope.Fail(c, http.StatusBadRequest,
				fmt.Sprintf("a patient with this %s already exists", field))
		}
		return envelope.Fail(c, http.StatusBadRequest, err.Error())
	}
	return envelope.OK(c, http.StatusCreated, "patient created", p)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), caller(c), pg.Limit, pg.Offset)
	if err != nil {
		if errors.Is(err, ErrForbidden) {
			return envelope.Fail(c, http.StatusForbidden, "access denied")
		}
		return envelope.Fail(c, http.StatusInternalServerError, "could not list patients")
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
		return envelope.Fail(c, http.StatusNotFound, "patient not found")
	}
	return envelope.OK(c, http.StatusOK, "", p)
}

func (h *Handler) GetOwn(c echo.Context) error {
	ctx := c.Request().Context()
	uid, err := uuid.Parse(auth.UserIDFromContext(ctx))
	if err != nil {
		return envelope.Fail(c, http.StatusUnauthorized, "unauthenticated")
	}
	p, err := h.svc.GetByUser(ctx, uid)
	if err != nil {
		return envelope.Fail(c, http.StatusNotFound, "patient profile not found")
	}
	return envelope.OK(c, http.StatusOK, "", p)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return envelope.Fail(c, http.StatusBadRequest, "invalid id")
	}
	var p Patient
	if err := c.Bind(&p); err != nil {
		return envelope.Fail(c, http.StatusBadRequest, "invalid request body")
	}
	p.ID = id
	if err := h.svc.Update(c.Request().Context(), caller(c), &p); err != nil {
		if errors.Is(err, ErrForbidden) {
			return envelope.Fail(c, http.StatusForbidden, "access denied")
		}
		return envelope.Fail(c, http.StatusBadRequest, err.Error())
	}
	return envelope.OK(c, http.StatusOK, "patient updated", p)
}

func (h *Handler) VisitedHospitals(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return envelope.Fail(c, http.StatusBadRequest, "invalid id")
	}
	visits, err := h.svc.VisitedHospitals(c.Request().Context(), caller(c), id)
	if err != nil {
		if errors.Is(err, ErrForbidden) {
			return envelope.Fail(c, http.StatusForbidden, "access denied")
		}
		return envelope.Fail(c, http.StatusInternalServerError, "could not list visits")
	}
	return envelope.OK(c, http.StatusOK, "", visits)
}

type recordVisitRequest struct {
	HospitalID uuid.UUID `json:"hospital_id"`
}

func (h *Handler) RecordVisit(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return envelope.Fail(c, http.StatusBadRequest, "invalid id")
	}
	var req recordVisitRequest
	if err := c.Bind(&req); err != nil {
		return envelope.Fail(c, http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.RecordVisit(c.Request().Context(), id, req.HospitalID); err != nil {
		return envelope.Fail(c, http.StatusBadRequest, err.Error())
	}
	return envelope.OK(c, http.StatusCreated, "visit recorded", nil)
}
