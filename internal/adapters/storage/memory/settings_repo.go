package memory

import (
	"context"

	"geckohub/internal/domain/settings"
)

type settingsRepo struct {
	s *Store
}

func (r *settingsRepo) GetOrCreate(ctx context.Context, userID int64, defaults settings.UserSettings) (settings.UserSettings, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if cur, ok := r.s.settings[userID]; ok {
		return cloneSettings(cur), nil
	}

	r.s.settingsSeq++
	defaults.ID = r.s.settingsSeq
	defaults.UserID = userID
	r.s.settings[userID] = cloneSettings(defaults)
	return cloneSettings(defaults), nil
}

func (r *settingsRepo) Update(ctx context.Context, st settings.UserSettings) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.settings[st.UserID]
	if !ok || cur.ID != st.ID {
		return ErrNotFound
	}
	r.s.settings[st.UserID] = cloneSettings(st)
	return nil
}

func cloneSettings(st settings.UserSettings) settings.UserSettings {
	st.FeedingDays = settings.CloneDays(st.FeedingDays)
	return st
}
