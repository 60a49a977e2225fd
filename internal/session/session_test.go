package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCtx(e *echo.Echo, cookies ...*http.Cookie) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestNewCookieStore_RequiresSecret(t *testing.T) {
	_, err := NewCookieStore(Config{})
	assert.Error(t, err)
}

func TestCookieStore_RoundTrip(t *testing.T) {
	e := echo.New()
	s, err := NewCookieStore(Config{Secret: []byte("k")})
	require.NoError(t, err)

	c, rec := newCtx(e)
	require.NoError(t, s.Establish(c, User{ID: 5, Username: "ana"}))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, DefaultCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	c2, _ := newCtx(e, cookies[0])
	u, ok := s.Current(c2)
	require.True(t, ok)
	assert.Equal(t, User{ID: 5, Username: "ana"}, u)
}

func TestCookieStore_RejectsForeignAndExpired(t *testing.T) {
	e := echo.New()
	mine, err := NewCookieStore(Config{Secret: []byte("mine")})
	require.NoError(t, err)
	other, err := NewCookieStore(Config{Secret: []byte("other")})
	require.NoError(t, err)

	c, rec := newCtx(e)
	require.NoError(t, other.Establish(c, User{ID: 1, Username: "x"}))
	c2, _ := newCtx(e, rec.Result().Cookies()[0])
	_, ok := mine.Current(c2)
	assert.False(t, ok)

	mine.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	c3, rec3 := newCtx(e)
	require.NoError(t, mine.Establish(c3, User{ID: 1, Username: "x"}))
	c4, _ := newCtx(e, rec3.Result().Cookies()[0])
	_, ok = mine.Current(c4)
	assert.False(t, ok)

	c5, _ := newCtx(e)
	_, ok = mine.Current(c5)
	assert.False(t, ok)
}

func TestCookieStore_Clear(t *testing.T) {
	e := echo.New()
	s, err := NewCookieStore(Config{Secret: []byte("k"), CookieName: "sid"})
	require.NoError(t, err)

	c, rec := newCtx(e)
	s.Clear(c)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sid", cookies[0].Name)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestFlash_SetThenPop(t *testing.T) {
	e := echo.New()

	c, rec := newCtx(e)
	SetFlash(c, FlashSuccess, "Has cerrado sesión.")
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	c2, rec2 := newCtx(e, cookies[0])
	flashes := PopFlashes(c2)
	assert.Equal(t, []Flash{{Category: FlashSuccess, Message: "Has cerrado sesión."}}, flashes)

	cleared := rec2.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, -1, cleared[0].MaxAge)

	c3, _ := newCtx(e)
	assert.Empty(t, PopFlashes(c3))
}
