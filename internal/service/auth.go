package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Skotchmaster/shop_catalog/internal/models"
	"github.com/Skotchmaster/shop_catalog/internal/repo"
	pkg_hash "github.com/Skotchmaster/shop_catalog/pkg/hash"
	"github.com/Skotchmaster/shop_catalog/pkg/logging"
)

const minPasswordLen = 4

// ErrWeakPassword is a validation failure shown as a warning rather than an error.
var ErrWeakPassword = fmt.Errorf("%w: weak password", ErrValidation)

type UserRepo interface {
	UserExist(ctx context.Context, username, password string) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
}

type AuthService struct {
	Repo UserRepo
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
	Confirm  string
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) error {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	password := strings.TrimSpace(in.Password)
	confirm := strings.TrimSpace(in.Confirm)

	if username == "" || email == "" || password == "" {
		return newError(ErrValidation, MsgFieldsRequired)
	}
	if password != confirm {
		return newError(ErrValidation, MsgPasswordMismatch)
	}
	if len([]rune(password)) < minPasswordLen {
		return newError(ErrWeakPassword, MsgPasswordTooShort)
	}

	pwHash, err := pkg_hash.HashPassword(password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return err
	}

	user := models.User{Username: username, Email: email, PasswordHash: pwHash}
	if err := s.Repo.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			l.Warn("register_error", "status", 409, "reason", "user already exist", "username", username)
			return newError(ErrConflict, MsgUserTaken)
		}
		l.Error("register_error", "status", 500, "reason", "cannot create user", "error", err)
		return err
	}

	l.Info("register_success", "user_id", user.ID)
	return nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", username)

	user, err := s.Repo.UserExist(ctx, username, strings.TrimSpace(password))
	if err != nil {
		if errors.Is(err, repo.ErrInvalidCredentials) {
			l.Warn("login_failed", "status", 200, "reason", "invalid username or password")
			return nil, newError(ErrInvalidCredentials, MsgBadCredentials)
		}
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}

	l.Info("login_success", "user_id", user.ID)
	return user, nil
}
