package users

import (
	"context"
	"strings"
	"time"

	"geckohub/internal/domain/access"
	"geckohub/internal/platform/logger"
	"geckohub/internal/ports/auth"
)

type Service struct {
	repo    Repository
	tokens  auth.TokenIssuer
	isAdmin func(email string) bool
	log     logger.Logger
	now     func() time.Time
}

// NewService: isAdmin decide qué emails nacen como administradores (puede ser nil).
func NewService(repo Repository, tokens auth.TokenIssuer, isAdmin func(string) bool, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	if isAdmin == nil {
		isAdmin = func(string) bool { return false }
	}
	return &Service{
		repo:    repo,
		tokens:  tokens,
		isAdmin: isAdmin,
		log:     log.With(map[string]any{"module": "users"}),
		now:     time.Now,
	}
}

// LoginInput es lo que el front-end obtiene del proveedor (Google, Kakao, ...).
type LoginInput struct {
	Provider string
	Email    string
	Name     string
}

type Session struct {
	User   User
	Tokens auth.TokenPair
}

// NormalizeEmail: un usuario por email, sin importar mayúsculas.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SocialLogin resuelve (o registra) el usuario por email y emite tokens.
// El proveedor ya validó la identidad; aquí no se verifica contraseña.
func (s *Service) SocialLogin(ctx context.Context, in LoginInput) (Session, error) {
	email := NormalizeEmail(in.Email)
	if email == "" {
		return Session{}, access.Invalid("email", "email is required")
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = DefaultDisplayName
	}

	u, err := s.repo.GetOrCreateByEmail(ctx, User{
		Email:       email,
		DisplayName: name,
		Provider:    strings.ToLower(strings.TrimSpace(in.Provider)),
		IsAdmin:     s.isAdmin(email),
		CreatedAt:   s.now(),
	})
	if err != nil {
		return Session{}, err
	}

	pair, err := s.tokens.Issue(ctx, claimsFor(u))
	if err != nil {
		return Session{}, err
	}

	s.log.Info("social login", map[string]any{"user_id": u.ID, "provider": u.Provider})
	return Session{User: u, Tokens: pair}, nil
}

// Refresh canjea un refresh token válido por un par nuevo. Se relee el
// usuario para reflejar cambios (p.ej. promoción a admin).
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return Session{}, access.Invalid("refresh", "refresh token is required")
	}

	c, err := s.tokens.VerifyRefresh(ctx, refreshToken)
	if err != nil {
		return Session{}, access.ErrUnauthorized
	}

	u, err := s.repo.GetByID(ctx, c.UserID)
	if err != nil {
		return Session{}, access.ErrUnauthorized
	}

	pair, err := s.tokens.Issue(ctx, claimsFor(u))
	if err != nil {
		return Session{}, err
	}
	return Session{User: u, Tokens: pair}, nil
}

func claimsFor(u User) auth.Claims {
	return auth.Claims{UserID: u.ID, Email: u.Email, IsAdmin: u.IsAdmin}
}
