package users

import "context"

type Repository interface {
	// GetOrCreateByEmail devuelve el usuario con ese email o inserta candidate.
	// Ante una carrera, el perdedor relee la fila del ganador (unique sobre email).
	GetOrCreateByEmail(ctx context.Context, candidate User) (User, error)
	GetByID(ctx context.Context, id int64) (User, error)
}
