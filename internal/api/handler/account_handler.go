package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/shopnow/auth-agent/internal/core/domain"
)

// gateUserKey mirrors the key the gate middleware stores the resolved
// user under.
const gateUserKey = "gate.user"

// AccountHandler serves the protected content behind the access gate.
type AccountHandler struct{}

func NewAccountHandler() *AccountHandler {
	return &AccountHandler{}
}

// ctxUser extracts the user injected by the gate middleware. Its
// presence proves the gate ran; a gated route reached without it is a
// wiring bug, answered with 401 rather than a panic.
func ctxUser(c echo.Context) (*domain.User, error) {
	user, ok := c.Get(gateUserKey).(*domain.User)
	if !ok || user == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return user, nil
}

// Account returns the signed-in user's account view.
//
// @Summary      Account details
// @Tags         account
// @Produce      json
// @Success      200  {object}  domain.User
// @Failure      401  {object}  map[string]string
// @Router       /account [get]
func (h *AccountHandler) Account(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Login is the login entry point the gate redirects to. Rendering is
// out of scope; the agent answers with a machine-readable hint.
//
// @Summary      Login entry point
// @Tags         auth
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /login [get]
func (h *AccountHandler) Login(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"message": "sign in via POST /auth/login",
	})
}
