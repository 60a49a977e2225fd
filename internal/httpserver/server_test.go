package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/shop_catalog/internal/document"
	"github.com/Skotchmaster/shop_catalog/internal/repo"
	"github.com/Skotchmaster/shop_catalog/internal/service"
	"github.com/Skotchmaster/shop_catalog/internal/session"
	"github.com/Skotchmaster/shop_catalog/internal/uploads"
	pkgdb "github.com/Skotchmaster/shop_catalog/pkg/db"
	"github.com/Skotchmaster/shop_catalog/pkg/logging"
	authmw "github.com/Skotchmaster/shop_catalog/pkg/middleware/auth"
	loggingmw "github.com/Skotchmaster/shop_catalog/pkg/middleware/logging"
)

func newTestServer(t *testing.T, guard bool) *echo.Echo {
	t.Helper()

	dir := t.TempDir()
	ctx := context.Background()
	db, err := pkgdb.Open(ctx, "sqlite", filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	r := &repo.GormRepo{DB: db}
	require.NoError(t, r.Migrate(ctx))

	doc := document.NewStore(filepath.Join(dir, "data.json"))
	sessions, err := session.NewCookieStore(session.Config{Secret: []byte("test-secret")})
	require.NoError(t, err)

	renderer, err := NewRenderer()
	require.NoError(t, err)

	e := echo.New()
	e.Renderer = renderer
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logging.NewWithWriter(io.Discard, "error")))

	Register(e, &Deps{
		AuthHandler: &AuthHTTP{Svc: &service.AuthService{Repo: r}, Sessions: sessions},
		CatalogHandler: &CatalogHTTP{Svc: &service.CatalogService{
			Repo:     r,
			Document: doc,
			Images:   uploads.Store{Dir: filepath.Join(dir, "static", "uploads")},
		}},
		CommentHandler:     &CommentHTTP{Svc: &service.CommentService{Repo: r, Document: doc}},
		Sessions:           authmw.NewSessionMiddleware(sessions, "/login"),
		Ready:              r.Ping,
		StaticDir:          filepath.Join(dir, "static"),
		GuardCatalogWrites: guard,
	})
	return e
}

func do(e *echo.Echo, req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func productForm(t *testing.T, name, price, file string) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	if name != "" {
		require.NoError(t, w.WriteField("nombre", name))
	}
	if price != "" {
		require.NoError(t, w.WriteField("precio", price))
	}
	if file != "" {
		part, err := w.CreateFormFile("imagen", file)
		require.NoError(t, err)
		_, err = part.Write([]byte("img"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/productos", body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func loginForm(values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(values.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

func listProducts(t *testing.T, e *echo.Echo) []map[string]any {
	t.Helper()
	rec := do(e, httptest.NewRequest(http.MethodGet, "/productos", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var items []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	return items
}

func TestCatalogFlow(t *testing.T) {
	e := newTestServer(t, false)

	assert.Empty(t, listProducts(t, e))

	rec := do(e, productForm(t, "Silla", "49.99", "silla.png"))
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Producto agregado exitosamente", body["message"])
	prod := body["producto"].(map[string]any)
	assert.EqualValues(t, 1, prod["id"])
	assert.Equal(t, true, prod["habilitado"])

	items := listProducts(t, e)
	require.Len(t, items, 1)
	assert.Equal(t, "Silla", items[0]["nombre"])

	rec = do(e, httptest.NewRequest(http.MethodGet, "/productos/1/habilitar", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Producto con ID 1 deshabilitado exitosamente"}`, rec.Body.String())
	assert.Equal(t, false, listProducts(t, e)[0]["habilitado"])

	rec = do(e, jsonRequest(http.MethodPut, "/productos/1", `{"nombre":"Silla azul","color":"azul"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, "Producto con ID 1 actualizado exitosamente", body["message"])
	prod = body["producto"].(map[string]any)
	assert.Equal(t, "Silla azul", prod["nombre"])
	assert.Equal(t, "azul", prod["color"])
	assert.Equal(t, 49.99, prod["precio"])
	assert.Equal(t, false, prod["habilitado"])

	rec = do(e, httptest.NewRequest(http.MethodDelete, "/productos/1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Producto con ID 1 eliminado exitosamente"}`, rec.Body.String())
	assert.Empty(t, listProducts(t, e))

	rec = do(e, httptest.NewRequest(http.MethodDelete, "/productos/1", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"Producto con ID 1 no encontrado"}`, rec.Body.String())
}

func TestCreateProduct_MissingData(t *testing.T) {
	e := newTestServer(t, false)

	rec := do(e, productForm(t, "Silla", "10", ""))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Faltan datos del producto"}`, rec.Body.String())

	rec = do(e, productForm(t, "Silla", "diez", "a.png"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Precio inválido"}`, rec.Body.String())
}

func TestProductRoutes_NotFoundAndBadID(t *testing.T) {
	e := newTestServer(t, false)

	rec := do(e, jsonRequest(http.MethodPut, "/productos/5", `{"nombre":"x"}`))
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"Producto con ID 5 no encontrado"}`, rec.Body.String())

	rec = do(e, httptest.NewRequest(http.MethodGet, "/productos/5/habilitar", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(e, httptest.NewRequest(http.MethodDelete, "/productos/abc", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"Producto con ID abc no encontrado"}`, rec.Body.String())

	rec = do(e, httptest.NewRequest(http.MethodGet, "/productos/1.5/comentarios", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateProduct_NonFinitePrice(t *testing.T) {
	e := newTestServer(t, false)

	rec := do(e, productForm(t, "Silla", "10", "silla.png"))
	require.Equal(t, http.StatusCreated, rec.Code)

	for _, precio := range []string{`"Infinity"`, `"NaN"`, `"-inf"`} {
		rec = do(e, jsonRequest(http.MethodPut, "/productos/1", `{"precio":`+precio+`}`))
		require.Equal(t, http.StatusBadRequest, rec.Code, precio)
		assert.JSONEq(t, `{"message":"Precio inválido"}`, rec.Body.String())
	}

	rec = do(e, productForm(t, "Mesa", "5", "mesa.png"))
	require.Equal(t, http.StatusCreated, rec.Code)

	items := listProducts(t, e)
	require.Len(t, items, 2)
	assert.EqualValues(t, 10, items[0]["precio"])
}

func TestComments(t *testing.T) {
	e := newTestServer(t, false)

	rec := do(e, jsonRequest(http.MethodPost, "/productos/7/comentarios", `{"texto":"hola"}`))
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, listProducts(t, e))

	require.Equal(t, http.StatusCreated, do(e, productForm(t, "Silla", "1", "a.png")).Code)

	rec = do(e, jsonRequest(http.MethodPost, "/productos/1/comentarios", `{"usuario":"ana","texto":"hola"}`))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"message":"Comentario agregado exitosamente","comentario":{"usuario":"ana","texto":"hola"}}`, rec.Body.String())

	rec = do(e, httptest.NewRequest(http.MethodGet, "/productos/1/comentarios", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"usuario":"ana","texto":"hola"}]`, rec.Body.String())

	items := listProducts(t, e)
	require.Len(t, items, 1)
	assert.Len(t, items[0]["comentarios"], 1)
}

func TestSearch_Disabled(t *testing.T) {
	e := newTestServer(t, false)

	rec := do(e, httptest.NewRequest(http.MethodGet, "/productos/buscar?q=silla", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealth(t *testing.T) {
	e := newTestServer(t, false)

	assert.Equal(t, http.StatusOK, do(e, httptest.NewRequest(http.MethodGet, "/health/live", nil)).Code)
	assert.Equal(t, http.StatusOK, do(e, httptest.NewRequest(http.MethodGet, "/health/ready", nil)).Code)
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func TestAuthFlow(t *testing.T) {
	e := newTestServer(t, false)

	rec := do(e, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get(echo.HeaderLocation))

	rec = do(e, loginForm(url.Values{
		"action": {"register"}, "username_reg": {"ana"}, "email_reg": {"ana@x.io"},
		"password_reg": {"clave"}, "confirm_reg": {"otra"},
	}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Las contraseñas no coinciden.")

	rec = do(e, loginForm(url.Values{
		"action": {"register"}, "username_reg": {"ana"}, "email_reg": {"ana@x.io"},
		"password_reg": {"abc"}, "confirm_reg": {"abc"},
	}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alert-warning")

	register := url.Values{
		"action": {"register"}, "username_reg": {"ana"}, "email_reg": {"ana@x.io"},
		"password_reg": {"clave"}, "confirm_reg": {"clave"},
	}
	rec = do(e, loginForm(register))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Registro exitoso. Ahora puedes iniciar sesión.")

	rec = do(e, loginForm(register))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "El usuario o el correo ya están registrados.")

	rec = do(e, loginForm(url.Values{"action": {"login"}, "username_login": {"ana"}, "password_login": {"mala"}}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Usuario o contraseña incorrectos.")

	rec = do(e, loginForm(url.Values{"action": {"login"}, "username_login": {" ana "}, "password_login": {"clave"}}))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))
	sessionCk := cookieNamed(rec, session.DefaultCookieName)
	flashCk := cookieNamed(rec, "flash")
	require.NotNil(t, sessionCk)
	require.NotNil(t, flashCk)

	rec = do(e, httptest.NewRequest(http.MethodGet, "/", nil), sessionCk, flashCk)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<strong>ana</strong>")
	assert.Contains(t, rec.Body.String(), "Has iniciado sesión correctamente.")

	rec = do(e, httptest.NewRequest(http.MethodGet, "/logout", nil), sessionCk)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get(echo.HeaderLocation))
	cleared := cookieNamed(rec, session.DefaultCookieName)
	require.NotNil(t, cleared)
	assert.Equal(t, -1, cleared.MaxAge)

	rec = do(e, httptest.NewRequest(http.MethodGet, "/login", nil), cookieNamed(rec, "flash"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Has cerrado sesión.")
}

func TestGuardedWrites(t *testing.T) {
	e := newTestServer(t, true)

	rec := do(e, productForm(t, "Silla", "1", "a.png"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(e, httptest.NewRequest(http.MethodGet, "/productos", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
