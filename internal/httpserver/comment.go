package httpserver

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shop_catalog/internal/service"
	"github.com/Skotchmaster/shop_catalog/pkg/logging"
)

type CommentHTTP struct {
	Svc *service.CommentService
}

func (h *CommentHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "comment.list")

	id, err := parseID(c)
	if err != nil {
		return err
	}
	items, err := h.Svc.List(ctx, id)
	if err != nil {
		return productError(l, "list_comments", id, err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *CommentHTTP) Add(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "comment.add")

	id, err := parseID(c)
	if err != nil {
		return err
	}
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		l.Warn("add_comment_failed", "status", 400, "reason", "cannot read body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, service.MsgInvalidComment)
	}

	comment, err := h.Svc.Add(ctx, id, body)
	if err != nil {
		return productError(l, "add_comment", id, err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message":    "Comentario agregado exitosamente",
		"comentario": comment,
	})
}
