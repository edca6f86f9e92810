package events

import (
	"context"
	"time"
)

type Repository interface {
	// Create asigna ID y lo devuelve en el evento persistido.
	Create(ctx context.Context, e Event) (Event, error)
	Update(ctx context.Context, e Event) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (Event, error)

	// List ordena por date DESC, id DESC.
	List(ctx context.Context, filter ListFilter) ([]Event, error)

	// Lookups indexados del historial; el orden lo define el service.
	ListBySubject(ctx context.Context, animalID int64) ([]Event, error)
	ListByPartner(ctx context.Context, animalID int64) ([]Event, error)
}

type ListFilter struct {
	// OwnerUserID: nil => sin filtro de dueño (admin). Se filtra por el dueño del subject.
	OwnerUserID *int64
	SubjectID   *int64
	Types       []EventType
	From        *time.Time
	To          *time.Time
	Query       string
	// Limit 0 => sin límite.
	Limit int
}
