package access

import (
	"encoding/json"
	"errors"
	"net/http"

	"geckohub/internal/platform/logger"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// StatusOf traduce un error de dominio a status HTTP (500 si no es conocido).
func StatusOf(err error) int {
	if _, ok := AsValidation(err); ok {
		return http.StatusBadRequest
	}
	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// WriteError responde JSON {"error", "field"}. Los 500 se loguean y no
// exponen el detalle interno.
func WriteError(w http.ResponseWriter, log logger.Logger, err error) {
	status := StatusOf(err)
	body := errorResponse{Error: err.Error()}

	if ve, ok := AsValidation(err); ok {
		body = errorResponse{Error: ve.Message, Field: ve.Field}
	}
	if status == http.StatusInternalServerError {
		if log != nil {
			log.Error("internal error", map[string]any{"err": err})
		}
		body = errorResponse{Error: "internal error"}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
