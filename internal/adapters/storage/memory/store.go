package memory

import (
	"sync"

	"geckohub/internal/domain/access"
	"geckohub/internal/domain/animals"
	"geckohub/internal/domain/events"
	"geckohub/internal/domain/settings"
	"geckohub/internal/domain/users"
)

// ErrNotFound es el mismo error de dominio para que los services lo traduzcan a 404.
var ErrNotFound = access.ErrNotFound

// Store es el backend in-memory (modo dev y tests). Todas las tablas comparten
// un único mutex: el borrado de un animal (cascade de eventos + SET NULL en
// crías y partners) y los get-or-create son atómicos.
type Store struct {
	mu sync.RWMutex

	animals  map[int64]animals.Animal
	events   map[int64]events.Event
	users    map[int64]users.User
	settings map[int64]settings.UserSettings // por user_id

	usersByEmail map[string]int64

	animalSeq   int64
	eventSeq    int64
	userSeq     int64
	settingsSeq int64
}

func NewStore() *Store {
	return &Store{
		animals:      make(map[int64]animals.Animal),
		events:       make(map[int64]events.Event),
		users:        make(map[int64]users.User),
		settings:     make(map[int64]settings.UserSettings),
		usersByEmail: make(map[string]int64),
	}
}

func (s *Store) Animals() animals.Repository   { return &animalRepo{s: s} }
func (s *Store) Events() events.Repository     { return &eventRepo{s: s} }
func (s *Store) Users() users.Repository       { return &userRepo{s: s} }
func (s *Store) Settings() settings.Repository { return &settingsRepo{s: s} }

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
