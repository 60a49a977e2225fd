package httpserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shop_catalog/internal/search"
	"github.com/Skotchmaster/shop_catalog/internal/service"
	"github.com/Skotchmaster/shop_catalog/pkg/logging"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

// parseID reads the :id param. A non-integer id names no product.
func parseID(c echo.Context) (int, error) {
	raw := c.Param("id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("Producto con ID %s no encontrado", raw))
	}
	return id, nil
}

func productNotFound(id int) string {
	return fmt.Sprintf("Producto con ID %d no encontrado", id)
}

// productError maps service failures on product id to an HTTP error.
func productError(l *slog.Logger, op string, id int, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		l.Warn(op+"_failed", "status", 404, "reason", "product not found", "product_id", id)
		return echo.NewHTTPError(http.StatusNotFound, productNotFound(id))
	case errors.Is(err, service.ErrValidation):
		l.Warn(op+"_failed", "status", 400, "reason", "invalid input", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, service.UserMessage(err, service.MsgInvalidBody))
	}
	l.Error(op+"_failed", "status", 500, "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, msgInternal)
}

func (h *CatalogHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.list")

	items, err := h.Svc.List(ctx)
	if err != nil {
		l.Error("list_products_failed", "status", 500, "reason", "cannot read document", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, msgInternal)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *CatalogHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create")

	var image *multipart.FileHeader
	if fh, err := c.FormFile("imagen"); err == nil {
		image = fh
	}

	rec, err := h.Svc.Create(ctx, service.CreateInput{
		Name:  c.FormValue("nombre"),
		Price: c.FormValue("precio"),
		Image: image,
	})
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			l.Warn("create_product_failed", "status", 400, "reason", "invalid form", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, service.UserMessage(err, service.MsgMissingProduct))
		}
		l.Error("create_product_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, msgInternal)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message":  "Producto agregado exitosamente",
		"producto": rec,
	})
}

// decodeFields reads a partial product. An empty or null body means no changes.
func decodeFields(body io.Reader) (map[string]json.RawMessage, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	fields := map[string]json.RawMessage{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return fields, nil
	}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func (h *CatalogHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.update")

	id, err := parseID(c)
	if err != nil {
		return err
	}

	fields, err := decodeFields(c.Request().Body)
	if err != nil {
		l.Warn("update_product_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, service.MsgInvalidBody)
	}

	rec, err := h.Svc.Update(ctx, id, fields)
	if err != nil {
		return productError(l, "update_product", id, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message":  fmt.Sprintf("Producto con ID %d actualizado exitosamente", id),
		"producto": rec,
	})
}

func (h *CatalogHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete")

	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(ctx, id); err != nil {
		return productError(l, "delete_product", id, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": fmt.Sprintf("Producto con ID %d eliminado exitosamente", id),
	})
}

func (h *CatalogHTTP) Toggle(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.toggle")

	id, err := parseID(c)
	if err != nil {
		return err
	}
	label, err := h.Svc.ToggleEnabled(ctx, id)
	if err != nil {
		return productError(l, "toggle_product", id, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": fmt.Sprintf("Producto con ID %d %s exitosamente", id, label),
	})
}

func (h *CatalogHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.search")

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), search.DefaultPageSize)

	res, err := h.Svc.Search(ctx, c.QueryParam("q"), page, size)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSearchDisabled):
			l.Warn("search_failed", "status", 503, "reason", "search disabled")
			return echo.NewHTTPError(http.StatusServiceUnavailable, service.MsgSearchUnavailable)
		case errors.Is(err, service.ErrValidation):
			l.Warn("search_failed", "status", 400, "reason", "empty query")
			return echo.NewHTTPError(http.StatusBadRequest, service.UserMessage(err, service.MsgEmptyQuery))
		}
		l.Error("search_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, msgInternal)
	}

	return c.JSON(http.StatusOK, res)
}
