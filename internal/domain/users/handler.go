package users

import (
	"encoding/json"
	"net/http"

	"geckohub/internal/domain/access"
	"geckohub/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, log logger.Logger) {
	if log == nil {
		log = logger.NewNop()
	}
	r.Route("/auth", func(ar chi.Router) {
		ar.Post("/social-login", socialLoginHandler(svc, log))
		ar.Post("/refresh", refreshHandler(svc, log))
	})
}

type socialLoginRequest struct {
	Provider string `json:"provider"`
	Email    string `json:"email"`
	Name     string `json:"name"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// sessionResponse mantiene las claves que espera el front-end.
type sessionResponse struct {
	Access   string `json:"access"`
	Refresh  string `json:"refresh"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

// socialLoginHandler godoc
// @Summary Login social
// @Description Registra el usuario la primera vez (un usuario por email) y devuelve tokens de acceso y refresh.
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body socialLoginRequest true "Datos del proveedor"
// @Success 200 {object} sessionResponse
// @Failure 400 {object} map[string]string
// @Router /auth/social-login [post]
func socialLoginHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req socialLoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			access.WriteError(w, log, access.Invalid("", "invalid json"))
			return
		}

		sess, err := svc.SocialLogin(r.Context(), LoginInput{
			Provider: req.Provider,
			Email:    req.Email,
			Name:     req.Name,
		})
		if err != nil {
			access.WriteError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, toSessionResponse(sess))
	}
}

// refreshHandler godoc
// @Summary Renovar tokens
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body refreshRequest true "Refresh token"
// @Success 200 {object} sessionResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /auth/refresh [post]
func refreshHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			access.WriteError(w, log, access.Invalid("", "invalid json"))
			return
		}

		sess, err := svc.Refresh(r.Context(), req.Refresh)
		if err != nil {
			access.WriteError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, toSessionResponse(sess))
	}
}

func toSessionResponse(s Session) sessionResponse {
	return sessionResponse{
		Access:   s.Tokens.Access,
		Refresh:  s.Tokens.Refresh,
		UserID:   s.User.ID,
		Username: s.User.DisplayName,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
