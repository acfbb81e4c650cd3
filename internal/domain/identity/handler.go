package identity

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carelink/carelink/internal/platform/auth"
	"github.com/carelink/carelink/internal/platform/db"
	"github.com/carelink/carelink/pkg/envelope"
	"github.com/carelink/carelink/pkg/pagination"
)

type Handler struct {
	svc        *Service
	signingKey []byte
	tokenTTL   time.Duration
}

func NewHandler(svc *Service, signingKey []byte, tokenTTL time.Duration) *Handler {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Handler{svc: svc, signingKey: signingKey, tokenTTL: tokenTTL}
}

// RegisterRoutes mounts auth endpoints on the public group and user
// administration on the authenticated group.
func (h *Handler) RegisterRoutes(public, api *echo.Group) {
	public.POST("/auth/register", h.Register)
	public.POST("/auth/login", h.Login)

	admin := api.Group("/users", auth.RequireRole("admin"))
	admin.GET("", h.ListUsers)
	admin.GET("/:id", h.GetUser)
	admin.PUT("/:id", h.UpdateUser)
	admin.DELETE("/:id", h.DeactivateUser)
	admin.POST("/:id/reactivate", h.ReactivateUser)
}

func (h *Handler) Register(c echo.Context) error {
	var in RegisterInput
	if err := c.Bind(&in); err != nil {
		return envelope.Fail(c, http.StatusBadRequest, "invalid request body")
	}

	u, err := h.svc.Register(c.Request().Context(), in)
	if err != nil {
		if field, ok := db.DuplicateField(err); ok {
			return envelope.Fail(c, http.StatusBadRequest,
				fmt.Sprintf("an account with this %s already exists", field))
		}
		return envelope.Fail(c, http.StatusBadRequest, err.Error())
	}
	return envelope.OK(c, http.StatusCreated, "account created", u)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return envelope.Fail(c, http.StatusBadRequest, "invalid request body")
	}

	ctx := c.Request().Context()
	u, err := h.svc.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrAccountInactive) {
			return envelope.Fail(c, http.StatusForbidden, "account is deactivated")
		}
		return envelope.Fail(c, http.StatusUnauthorized, "invalid email or password")
	}

	token, err := auth.IssueToken(h.signingKey, u.ID.String(), u.Role, db.TenantFromContext(ctx), h.tokenTTL)
	if err != nil {
		return envelope.Fail(c, http.StatusInternalServerError, "could not issue token")
	}
	return envelope.OK(c, http.StatusOK, "logged in", loginResponse{Token: token, User: u})
}

func (h *Handler) ListUsers(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), c.QueryParam("role"), pg.Limit, pg.Offset)
	if err != nil {
		return envelope.Fail(c, http.StatusBadRequest, err.Error())
	}
	return envelope.OK(c, http.StatusOK, "", pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetUser(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return envelope.Fail(c, http.StatusBadRequest, "invalid id")
	}
	u, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return envelope.Fail(c, http.StatusNotFound, "user not found")
	}
	return envelope.OK(c, http.StatusOK, "", u)
}

func (h *Handler) UpdateUser(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return envelope.Fail(c, http.StatusBadRequest, "invalid id")
	}
	var u User
	if err := c.Bind(&u); err != nil {
		return envelope.Fail(c, http.StatusBadRequest, "invalid request body")
	}
	u.ID = id
	if err := h.svc.Update(c.Request().Context(), &u); err != nil {
		if field, ok := db.DuplicateField(err); ok {
			return envelope.Fail(c, http.StatusBadRequest,
				fmt.Sprintf("an account with this %s already exists", field))
		}
		return envelope.Fail(c, http.StatusBadRequest, err.Error())
	}
	return envelope.OK(c, http.StatusOK, "user updated", u)
}

func (h *Handler) DeactivateUser(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return envelope.Fail(c, http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Deactivate(c.Request().Context(), id); err != nil {
		return envelope.Fail(c, http.StatusNotFound, "user not found")
	}
	return envelope.OK(c, http.StatusOK, "user deactivated", nil)
}

func (h *Handler) ReactivateUser(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return envelope.Fail(c, http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Reactivate(c.Request().Context(), id); err != nil {
		return envelope.Fail(c, http.StatusNotFound, "user not found")
	}
	return envelope.OK(c, http.StatusOK, "user reactivated", nil)
}
