package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shop_catalog/internal/service"
	"github.com/Skotchmaster/shop_catalog/internal/session"
	"github.com/Skotchmaster/shop_catalog/pkg/logging"
	authmw "github.com/Skotchmaster/shop_catalog/pkg/middleware/auth"
)

const (
	msgLoginSuccess    = "Has iniciado sesión correctamente."
	msgRegisterSuccess = "Registro exitoso. Ahora puedes iniciar sesión."
	msgLoggedOut       = "Has cerrado sesión."
	msgInternal        = "Error interno del servidor"
)

type AuthHTTP struct {
	Svc      *service.AuthService
	Sessions session.Store
}

func (h *AuthHTTP) renderLogin(c echo.Context, flashes ...session.Flash) error {
	data := pageData{Flashes: append(session.PopFlashes(c), flashes...)}
	return c.Render(http.StatusOK, "login.html", data)
}

func (h *AuthHTTP) LoginPage(c echo.Context) error {
	return h.renderLogin(c)
}

// Login handles both forms of the login page, told apart by the action field.
func (h *AuthHTTP) Login(c echo.Context) error {
	switch c.FormValue("action") {
	case "login":
		return h.login(c)
	case "register":
		return h.register(c)
	}
	return h.renderLogin(c)
}

func (h *AuthHTTP) login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	user, err := h.Svc.Login(ctx, c.FormValue("username_login"), c.FormValue("password_login"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return h.renderLogin(c, session.Flash{Category: session.FlashDanger, Message: service.UserMessage(err, service.MsgBadCredentials)})
		}
		l.Error("login_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, msgInternal)
	}

	if err := h.Sessions.Establish(c, session.User{ID: user.ID, Username: user.Username}); err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot establish session", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, msgInternal)
	}
	session.SetFlash(c, session.FlashSuccess, msgLoginSuccess)

	l.Info("login_successful", "user_id", user.ID)
	return c.Redirect(http.StatusFound, "/")
}

func (h *AuthHTTP) register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	err := h.Svc.Register(ctx, service.RegisterInput{
		Username: c.FormValue("username_reg"),
		Email:    c.FormValue("email_reg"),
		Password: c.FormValue("password_reg"),
		Confirm:  c.FormValue("confirm_reg"),
	})
	switch {
	case err == nil:
		l.Info("register_successful")
		return h.renderLogin(c, session.Flash{Category: session.FlashSuccess, Message: msgRegisterSuccess})
	case errors.Is(err, service.ErrWeakPassword):
		return h.renderLogin(c, session.Flash{Category: session.FlashWarning, Message: service.UserMessage(err, "")})
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrConflict):
		l.Warn("register_failed", "status", 200, "error", err)
		return h.renderLogin(c, session.Flash{Category: session.FlashDanger, Message: service.UserMessage(err, "")})
	}

	l.Error("register_failed", "status", 500, "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, msgInternal)
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "auth_logout")

	h.Sessions.Clear(c)
	session.SetFlash(c, session.FlashInfo, msgLoggedOut)

	l.Info("successful_logout")
	return c.Redirect(http.StatusFound, "/login")
}

func (h *AuthHTTP) Home(c echo.Context) error {
	return c.Render(http.StatusOK, "index.html", pageData{
		User:    authmw.Username(c),
		Flashes: session.PopFlashes(c),
	})
}
