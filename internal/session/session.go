package session

import (
	"errors"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shop_catalog/pkg/tokens"
)

const (
	DefaultCookieName = "session"
	DefaultTTL        = 24 * time.Hour
)

type User struct {
	ID       uint
	Username string
}

// Store keeps the authenticated user across requests.
type Store interface {
	Establish(c echo.Context, u User) error
	Current(c echo.Context) (User, bool)
	Clear(c echo.Context)
}

type Config struct {
	Secret     []byte
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// CookieStore keeps the session in a signed token inside a browser-session cookie.
type CookieStore struct {
	cfg Config
	now func() time.Time
}

func NewCookieStore(cfg Config) (*CookieStore, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("session secret is empty")
	}
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	return &CookieStore{cfg: cfg, now: time.Now}, nil
}

func (s *CookieStore) Establish(c echo.Context, u User) error {
	token, err := tokens.NewSessionToken(u.ID, u.Username, s.now().Add(s.cfg.TTL), s.cfg.Secret)
	if err != nil {
		return err
	}
	c.SetCookie(tokens.CreateCookie(s.cfg.CookieName, token, "/", s.cfg.Secure))
	return nil
}

func (s *CookieStore) Current(c echo.Context) (User, bool) {
	cookie, err := c.Cookie(s.cfg.CookieName)
	if err != nil || cookie.Value == "" {
		return User{}, false
	}
	claims, err := tokens.SessionClaimsFromToken(cookie.Value, s.cfg.Secret)
	if err != nil {
		return User{}, false
	}
	id, err := claims.UserID()
	if err != nil {
		return User{}, false
	}
	return User{ID: id, Username: claims.Username}, true
}

func (s *CookieStore) Clear(c echo.Context) {
	c.SetCookie(tokens.DeleteCookie(s.cfg.CookieName, "/", s.cfg.Secure))
}
