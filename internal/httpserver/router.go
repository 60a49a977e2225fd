package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	authmw "github.com/Skotchmaster/shop_catalog/pkg/middleware/auth"
)

type Deps struct {
	AuthHandler    *AuthHTTP
	CatalogHandler *CatalogHTTP
	CommentHandler *CommentHTTP
	Sessions       *authmw.SessionMiddleware

	// Ready reports whether backing stores answer.
	Ready func(ctx context.Context) error

	StaticDir          string
	GuardCatalogWrites bool
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return c.NoContent(http.StatusServiceUnavailable)
			}
		}
		return c.NoContent(http.StatusOK)
	})

	if d.StaticDir != "" {
		e.Static("/static", d.StaticDir)
	}

	e.GET("/login", d.AuthHandler.LoginPage)
	e.POST("/login", d.AuthHandler.Login)

	e.GET("/", d.AuthHandler.Home, d.Sessions.RequireLogin)
	e.GET("/logout", d.AuthHandler.Logout, d.Sessions.RequireLogin)

	var guard []echo.MiddlewareFunc
	if d.GuardCatalogWrites {
		guard = append(guard, d.Sessions.RequireSession)
	}

	e.GET("/productos", d.CatalogHandler.List)
	e.GET("/productos/buscar", d.CatalogHandler.Search)
	e.GET("/productos/:id/comentarios", d.CommentHandler.List)

	e.POST("/productos", d.CatalogHandler.Create, guard...)
	e.PUT("/productos/:id", d.CatalogHandler.Update, guard...)
	e.DELETE("/productos/:id", d.CatalogHandler.Delete, guard...)
	e.GET("/productos/:id/habilitar", d.CatalogHandler.Toggle, guard...)
	e.POST("/productos/:id/comentarios", d.CommentHandler.Add, guard...)
}
