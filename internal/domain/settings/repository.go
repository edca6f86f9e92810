package settings

import "context"

type Repository interface {
	// GetOrCreate inserta defaults si no existe fila para el usuario. Ante una
	// carrera, el perdedor relee la fila del ganador (unique sobre user_id).
	GetOrCreate(ctx context.Context, userID int64, defaults UserSettings) (UserSettings, error)
	Update(ctx context.Context, s UserSettings) error
}
