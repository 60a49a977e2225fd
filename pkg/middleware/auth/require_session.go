package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shop_catalog/internal/session"
)

const (
	ContextUserID   = "userID"
	ContextUsername = "username"
)

type SessionMiddleware struct {
	Sessions  session.Store
	LoginPath string
}

func NewSessionMiddleware(store session.Store, loginPath string) *SessionMiddleware {
	if loginPath == "" {
		loginPath = "/login"
	}
	return &SessionMiddleware{Sessions: store, LoginPath: loginPath}
}

// RequireLogin redirects anonymous visitors to the login page.
func (m *SessionMiddleware) RequireLogin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		u, ok := m.Sessions.Current(c)
		if !ok {
			return c.Redirect(http.StatusFound, m.LoginPath)
		}
		setUserContext(c, u)
		return next(c)
	}
}

// RequireSession rejects anonymous API calls with 401.
func (m *SessionMiddleware) RequireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		u, ok := m.Sessions.Current(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"message": "Sesión requerida"})
		}
		setUserContext(c, u)
		return next(c)
	}
}

func setUserContext(c echo.Context, u session.User) {
	c.Set(ContextUserID, u.ID)
	c.Set(ContextUsername, u.Username)
}

func Username(c echo.Context) string {
	s, _ := c.Get(ContextUsername).(string)
	return s
}
