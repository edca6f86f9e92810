package settings

import (
	"encoding/json"
	"time"
)

// UserSettings: preferencias por usuario (una fila por user_id).
type UserSettings struct {
	ID     int64
	UserID int64
	// Días de alimentación tal como los envía el cliente: enteros o
	// etiquetas, sin validar más allá de que sea una lista.
	FeedingDays []json.RawMessage
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CloneDays copia la lista y cada elemento; nil => lista vacía.
func CloneDays(days []json.RawMessage) []json.RawMessage {
	out := make([]json.RawMessage, 0, len(days))
	for _, d := range days {
		out = append(out, append(json.RawMessage(nil), d...))
	}
	return out
}
