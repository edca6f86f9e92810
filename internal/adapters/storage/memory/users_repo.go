package memory

import (
	"context"
	"errors"

	"geckohub/internal/domain/users"
)

type userRepo struct {
	s *Store
}

func (r *userRepo) GetOrCreateByEmail(ctx context.Context, candidate users.User) (users.User, error) {
	if candidate.Email == "" {
		return users.User{}, errors.New("user email required")
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if id, ok := r.s.usersByEmail[candidate.Email]; ok {
		return r.s.users[id], nil
	}

	r.s.userSeq++
	candidate.ID = r.s.userSeq
	r.s.users[candidate.ID] = candidate
	r.s.usersByEmail[candidate.Email] = candidate.ID
	return candidate, nil
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (users.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return users.User{}, ErrNotFound
	}
	return u, nil
}
