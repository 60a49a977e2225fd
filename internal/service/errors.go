package service

import "errors"

var (
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("conflict")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSearchDisabled     = errors.New("search is not configured")
)

// Messages shown to users.
const (
	MsgFieldsRequired    = "Todos los campos son obligatorios."
	MsgPasswordMismatch  = "Las contraseñas no coinciden."
	MsgPasswordTooShort  = "La contraseña debe tener al menos 4 caracteres."
	MsgUserTaken         = "El usuario o el correo ya están registrados."
	MsgBadCredentials    = "Usuario o contraseña incorrectos."
	MsgMissingProduct    = "Faltan datos del producto"
	MsgInvalidPrice      = "Precio inválido"
	MsgInvalidBody       = "Cuerpo inválido"
	MsgInvalidComment    = "Comentario inválido"
	MsgEmptyQuery        = "Consulta vacía"
	MsgSearchUnavailable = "Búsqueda no disponible"
)

// Error pairs a sentinel kind with the message meant for the user.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Kind.Error() + ": " + e.Message }
func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, msg string) error {
	return &Error{Kind: kind, Message: msg}
}

// UserMessage extracts the user facing message, or def when err carries none.
func UserMessage(err error, def string) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return def
}
