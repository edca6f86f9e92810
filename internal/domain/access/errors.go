package access

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
)

// ValidationError es un campo requerido ausente o mal formado.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func Invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// MaxLen cuenta caracteres, no bytes, igual que VARCHAR(n) en postgres.
func MaxLen(field, value string, limit int) error {
	if utf8.RuneCountInString(value) > limit {
		return Invalid(field, fmt.Sprintf("%s must be at most %d characters", field, limit))
	}
	return nil
}

// AsValidation extrae un *ValidationError de la cadena de errores.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
