package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/shopnow/auth-agent/internal/api/metrics"
	"github.com/shopnow/auth-agent/internal/core/domain"
	"github.com/shopnow/auth-agent/internal/core/ports"
)

// AuthHandler exposes the session store to the UI layer.
type AuthHandler struct {
	store ports.SessionStore
}

func NewAuthHandler(store ports.SessionStore) *AuthHandler {
	return &AuthHandler{store: store}
}

type signUpRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
	Role            string `json:"role" validate:"required,oneof=buyer seller both"`
}

type signInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type roleRequest struct {
	Role string `json:"role" validate:"required,oneof=buyer seller both"`
}

// SignUp creates a new account and reconciles its profile row.
//
// @Summary      Sign up
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signUpRequest  true  "Credentials and marketplace role"
// @Success      201   {object}  domain.SessionState
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /auth/signup [post]
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req signUpRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	start := time.Now()
	err := h.store.SignUp(c.Request().Context(), req.Email, req.Password, domain.UserRole(req.Role))
	observe("sign_up", start, err)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, h.store.State())
}

// SignIn issues a session for existing credentials.
//
// @Summary      Sign in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signInRequest  true  "Credentials"
// @Success      200   {object}  domain.SessionState
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req signInRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	start := time.Now()
	err := h.store.SignIn(c.Request().Context(), req.Email, req.Password)
	observe("sign_in", start, err)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, h.store.State())
}

// SignOut revokes the session and clears local state.
//
// @Summary      Sign out
// @Tags         auth
// @Produce      json
// @Success      200  {object}  domain.SessionState
// @Router       /auth/logout [post]
func (h *AuthHandler) SignOut(c echo.Context) error {
	start := time.Now()
	h.store.SignOut(c.Request().Context())
	observe("sign_out", start, nil)

	return c.JSON(http.StatusOK, h.store.State())
}

// CheckAuth forces a reconciliation of the cached user with the
// provider's session.
//
// @Summary      Reconcile session
// @Tags         auth
// @Produce      json
// @Success      200  {object}  domain.SessionState
// @Router       /auth/check [post]
func (h *AuthHandler) CheckAuth(c echo.Context) error {
	start := time.Now()
	h.store.CheckAuth(c.Request().Context())
	observe("check_auth", start, nil)

	return c.JSON(http.StatusOK, h.store.State())
}

// UpdateRole changes the current user's marketplace role.
//
// @Summary      Update role
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      roleRequest  true  "New role"
// @Success      200   {object}  domain.SessionState
// @Failure      400   {object}  map[string]string
// @Router       /auth/role [patch]
func (h *AuthHandler) UpdateRole(c echo.Context) error {
	var req roleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	start := time.Now()
	err := h.store.UpdateUserRole(c.Request().Context(), domain.UserRole(req.Role))
	observe("update_role", start, err)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, h.store.State())
}

// Session returns the read-only {user, loading} pair.
//
// @Summary      Current session state
// @Tags         auth
// @Produce      json
// @Success      200  {object}  domain.SessionState
// @Router       /auth/session [get]
func (h *AuthHandler) Session(c echo.Context) error {
	return c.JSON(http.StatusOK, h.store.State())
}

func observe(op string, start time.Time, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	metrics.AuthOperationsTotal.WithLabelValues(op, result).Inc()
	metrics.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
