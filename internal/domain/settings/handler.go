package settings

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"geckohub/internal/domain/access"
	"geckohub/internal/middleware"
	"geckohub/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, log logger.Logger) {
	if log == nil {
		log = logger.NewNop()
	}
	r.Route("/settings", func(sr chi.Router) {
		sr.Get("/", getSettingsHandler(svc, log))
		sr.Post("/", updateSettingsHandler(svc, log))
		sr.Put("/", updateSettingsHandler(svc, log))
	})
}

// settingsRequest: feeding_days se decodifica a mano para distinguir
// "no es lista" (400) de null (lista vacía).
type settingsRequest struct {
	FeedingDays json.RawMessage `json:"feeding_days" swaggertype:"array,string"`
}

type settingsResponse struct {
	ID          int64             `json:"id"`
	UserID      int64             `json:"user"`
	FeedingDays []json.RawMessage `json:"feeding_days" swaggertype:"array,string"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// getSettingsHandler godoc
// @Summary Preferencias del usuario
// @Description Devuelve las preferencias del caller; se crean vacías la primera vez.
// @Tags settings
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Success 200 {object} settingsResponse
// @Failure 401 {object} map[string]string
// @Router /settings [get]
func getSettingsHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := svc.GetOrCreate(r.Context(), middleware.Caller(r))
		if err != nil {
			access.WriteError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, toSettingsResponse(s))
	}
}

// updateSettingsHandler godoc
// @Summary Guardar preferencias
// @Description Reemplaza feeding_days (sin validar rango ni duplicados). También acepta PUT.
// @Tags settings
// @Accept json
// @Produce json
// @Param payload body settingsRequest true "feeding_days"
// @Success 200 {object} settingsResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /settings [post]
func updateSettingsHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := middleware.Caller(r)
		if !caller.Authenticated() {
			access.WriteError(w, log, access.ErrUnauthorized)
			return
		}

		var req settingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			access.WriteError(w, log, access.Invalid("", "invalid json"))
			return
		}

		days, err := decodeFeedingDays(req.FeedingDays)
		if err != nil {
			access.WriteError(w, log, err)
			return
		}

		s, err := svc.Update(r.Context(), caller, days)
		if err != nil {
			access.WriteError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, toSettingsResponse(s))
	}
}

// decodeFeedingDays solo exige una lista; los elementos se guardan tal cual
// (números o etiquetas como "Mon").
func decodeFeedingDays(raw json.RawMessage) ([]json.RawMessage, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return []json.RawMessage{}, nil
	}
	var days []json.RawMessage
	if err := json.Unmarshal(raw, &days); err != nil {
		return nil, access.Invalid("feeding_days", "feeding_days must be a list")
	}
	return days, nil
}

func toSettingsResponse(s UserSettings) settingsResponse {
	return settingsResponse{
		ID:          s.ID,
		UserID:      s.UserID,
		FeedingDays: CloneDays(s.FeedingDays),
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
