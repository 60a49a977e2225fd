package config

import (
	"errors"
	"fmt"
)

var ErrMissing = errors.New("missing required env")

func RequireNonEmpty(value, envName string) error {
	if value == "" {
		return fmt.Errorf("%w %s", ErrMissing, envName)
	}
	return nil
}

func RequireNonEmptyBytes(value []byte, envName string) error {
	if len(value) == 0 {
		return fmt.Errorf("%w %s", ErrMissing, envName)
	}
	return nil
}

// ValidateServe checks the settings the HTTP server cannot start without.
func (c Config) ValidateServe() error {
	return errors.Join(
		RequireNonEmpty(c.DatabaseURL, "DATABASE_URL"),
		RequireNonEmptyBytes(c.SessionSecret, "SESSION_SECRET"),
		RequireNonEmpty(c.DocumentPath, "DOCUMENT_PATH"),
	)
}
