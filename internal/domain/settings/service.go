package settings

import (
	"context"
	"encoding/json"
	"time"

	"geckohub/internal/domain/access"
	"geckohub/internal/platform/logger"
	"geckohub/internal/ports/auth"
)

type Service struct {
	repo Repository
	log  logger.Logger
	now  func() time.Time
}

func NewService(repo Repository, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		repo: repo,
		log:  log.With(map[string]any{"module": "settings"}),
		now:  time.Now,
	}
}

// GetOrCreate devuelve las preferencias del caller creándolas vacías la primera vez.
func (s *Service) GetOrCreate(ctx context.Context, caller auth.Claims) (UserSettings, error) {
	if !caller.Authenticated() {
		return UserSettings{}, access.ErrUnauthorized
	}
	now := s.now()
	return s.repo.GetOrCreate(ctx, caller.UserID, UserSettings{
		UserID:      caller.UserID,
		FeedingDays: []json.RawMessage{},
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

// Update guarda los días tal cual llegan; nil se guarda como lista vacía.
func (s *Service) Update(ctx context.Context, caller auth.Claims, feedingDays []json.RawMessage) (UserSettings, error) {
	current, err := s.GetOrCreate(ctx, caller)
	if err != nil {
		return UserSettings{}, err
	}

	current.FeedingDays = CloneDays(feedingDays)
	current.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, current); err != nil {
		return UserSettings{}, err
	}
	s.log.Debug("settings updated", map[string]any{"user_id": caller.UserID, "feeding_days": len(feedingDays)})
	return current, nil
}
