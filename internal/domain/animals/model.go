package animals

import "time"

// Gender define el sexo del animal.
// @Enum Male, Female, Unknown
type Gender string

const (
	GenderMale    Gender = "Male"
	GenderFemale  Gender = "Female"
	GenderUnknown Gender = "Unknown"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderUnknown:
		return true
	}
	return false
}

// AcquisitionType indica cómo llegó el animal a la colección.
// @Enum Purchased, Hatched, Rescue
type AcquisitionType string

const (
	AcquisitionPurchased AcquisitionType = "Purchased"
	AcquisitionHatched   AcquisitionType = "Hatched"
	AcquisitionRescue    AcquisitionType = "Rescue"
)

func (a AcquisitionType) Valid() bool {
	switch a {
	case AcquisitionPurchased, AcquisitionHatched, AcquisitionRescue:
		return true
	}
	return false
}

// Animal es un gecko registrado.
type Animal struct {
	ID int64

	// nil => registro legacy sin dueño (solo admin).
	OwnerUserID *int64

	Name        string
	Morph       string
	Description string
	Gender      Gender

	BirthDate    *time.Time
	AdoptionDate *time.Time
	Weight       *float64

	AcquisitionType   AcquisitionType
	AcquisitionSource string

	IsOvulating bool
	TailLoss    bool
	MBD         bool
	HasSpots    bool

	ProfileImage string

	// Linaje: referencias a otros animales (ON DELETE SET NULL).
	SireID   *int64
	DamID    *int64
	SireName string
	DamName  string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Summary es la vista mínima usada en sire_detail / dam_detail / partner_detail.
type Summary struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	ProfileImage string `json:"profile_image"`
	Gender       Gender `json:"gender"`
}

func (a Animal) Summary() Summary {
	return Summary{
		ID:           a.ID,
		Name:         a.Name,
		ProfileImage: a.ProfileImage,
		Gender:       a.Gender,
	}
}
