package analytics

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carelink/carelink/internal/platform/auth"
	"github.com/carelink/carelink/internal/platform/scope"
	"github.com/carelink/carelink/pkg/envelope"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/analytics")
	g.GET("/system", h.System, auth.RequireRole("admin"))
	g.GET("/hospital", h.Hospital, auth.RequireRole("hospital"))
	g.GET("/doctor", h.Doctor, auth.RequireRole("doctor"))
	g.GET("/patient", h.Patient, auth.RequireRole("patient"))
}

func caller(c echo.Context) scope.Caller {
	ctx := c.Request().Context()
	return scope.NewCaller(auth.UserIDFromContext(ctx), auth.RoleFromContext(ctx))
}

func respond(c echo.Context, rep interface{}, err error) error {
	if err != nil {
		if errors.Is(err, ErrForbidden) {
			return envelope.StatusError(c, http.StatusForbidden, "access denied")
		}
		return envelope.StatusError(c, http.StatusInternalServerError, "could not build report")
	}
	return envelope.Status(c, http.StatusOK, rep)
}

func (h *Handler) System(c echo.Context) error {
	rep, err := h.svc.System(c.Request().Context(), caller(c))
	return respond(c, rep, err)
}

func (h *Handler) Hospital(c echo.Context) error {
	rep, err := h.svc.Hospital(c.Request().Context(), caller(c))
	return respond(c, rep, err)
}

func (h *Handler) Doctor(c echo.Context) error {
	rep, err := h.svc.Doctor(c.Request().Context(), caller(c))
	return respond(c, rep, err)
}

func (h *Handler) Patient(c echo.Context) error {
	rep, err := h.svc.Patient(c.Request().Context(), caller(c))
	return respond(c, rep, err)
}
