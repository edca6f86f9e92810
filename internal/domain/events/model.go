package events

import "time"

// Event es una entrada del diario asociada a un animal (subject) y,
// opcionalmente, a un segundo animal (partner, p.ej. en un apareamiento).
type Event struct {
	ID        int64
	SubjectID int64
	Type      EventType

	// Fecha calendario (sin hora, UTC).
	Date time.Time

	Weight *float64
	Note   string
	Image  string

	// Partner: referencia anulable (ON DELETE SET NULL) + nombre libre.
	PartnerID   *int64
	PartnerName string

	MatingSuccess bool
	IsFertile     bool
	EggCount      *int
	EggCondition  string

	IncubationTemp    *float64
	ExpectedHatchDate *time.Time
	ExpectedMorph     string

	CreatedAt time.Time
}
