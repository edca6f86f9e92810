package animals

import (
	"context"
	"errors"
	"strings"
	"time"

	"geckohub/internal/domain/access"
	"geckohub/internal/platform/logger"
	"geckohub/internal/platform/optional"
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
		log:  log.With(map[string]any{"module": "animals"}),
		now:  time.Now,
	}
}

// Input son los atributos editables de un animal (create y PUT).
type Input struct {
	// OwnerUserID se ignora siempre: el dueño es el caller.
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

	SireID   *int64
	DamID    *int64
	SireName string
	DamName  string
}

// Patch: nil / Set=false => no tocar.
type Patch struct {
	Name        *string
	Morph       *string
	Description *string
	Gender      *Gender

	BirthDate    optional.Field[time.Time]
	AdoptionDate optional.Field[time.Time]
	Weight       optional.Field[float64]

	AcquisitionType   *AcquisitionType
	AcquisitionSource *string

	IsOvulating *bool
	TailLoss    *bool
	MBD         *bool
	HasSpots    *bool

	SireID   optional.Field[int64]
	DamID    optional.Field[int64]
	SireName *string
	DamName  *string
}

// List devuelve los animales visibles en listados para el caller:
// anónimo => vacío, admin => todos, resto => los propios.
func (s *Service) List(ctx context.Context, caller auth.Claims) ([]Animal, error) {
	var (
		items []Animal
		err   error
	)
	switch {
	case !caller.Authenticated():
		return []Animal{}, nil
	case caller.IsAdmin:
		items, err = s.repo.ListAll(ctx)
	default:
		items, err = s.repo.ListByOwner(ctx, caller.UserID)
	}
	if err != nil {
		return nil, err
	}

	// El repo ya acota por dueño; CanList es la regla que decide.
	out := make([]Animal, 0, len(items))
	for _, a := range items {
		if access.CanList(caller, a.OwnerUserID) {
			out = append(out, a)
		}
	}
	return out, nil
}

// Get no filtra por dueño: cualquier caller (incluso anónimo) puede ver el
// detalle, porque sire/dam suelen apuntar a animales de otra colección.
func (s *Service) Get(ctx context.Context, _ auth.Claims, id int64) (Animal, error) {
	if id <= 0 {
		return Animal{}, access.ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, caller auth.Claims, in Input) (Animal, error) {
	if !caller.Authenticated() {
		return Animal{}, access.ErrUnauthorized
	}

	a := Animal{}
	applyInput(&a, in)
	if err := s.validate(ctx, a); err != nil {
		return Animal{}, err
	}

	owner := caller.UserID
	a.OwnerUserID = &owner
	now := s.now()
	a.CreatedAt = now
	a.UpdatedAt = now

	created, err := s.repo.Create(ctx, a)
	if err != nil {
		return Animal{}, err
	}

	s.log.Info("animal created", map[string]any{"animal_id": created.ID, "owner_user_id": owner})
	return created, nil
}

// Replace es el PUT: reemplaza todos los campos editables (el dueño no cambia).
func (s *Service) Replace(ctx context.Context, caller auth.Claims, id int64, in Input) (Animal, error) {
	current, err := s.loadForMutation(ctx, caller, id)
	if err != nil {
		return Animal{}, err
	}

	next := current
	applyInput(&next, in)
	return s.save(ctx, next)
}

// Update es el PATCH.
func (s *Service) Update(ctx context.Context, caller auth.Claims, id int64, p Patch) (Animal, error) {
	current, err := s.loadForMutation(ctx, caller, id)
	if err != nil {
		return Animal{}, err
	}

	next := current
	applyPatch(&next, p)
	return s.save(ctx, next)
}

func (s *Service) Delete(ctx context.Context, caller auth.Claims, id int64) error {
	if _, err := s.loadForMutation(ctx, caller, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("animal deleted", map[string]any{"animal_id": id, "by_user_id": caller.UserID})
	return nil
}

// SetProfileImage aplica las mismas reglas que una mutación.
func (s *Service) SetProfileImage(ctx context.Context, caller auth.Claims, id int64, url string) (Animal, error) {
	current, err := s.loadForMutation(ctx, caller, id)
	if err != nil {
		return Animal{}, err
	}
	current.ProfileImage = url
	current.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, current); err != nil {
		return Animal{}, err
	}
	return current, nil
}

// CheckMutable valida que el caller pueda modificar el animal (p.ej. antes de subir una imagen).
func (s *Service) CheckMutable(ctx context.Context, caller auth.Claims, id int64) error {
	_, err := s.loadForMutation(ctx, caller, id)
	return err
}

// Children lista las crías (sire o dam == id). Sin filtro de dueño, como el detalle.
func (s *Service) Children(ctx context.Context, id int64) ([]Animal, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.ListChildren(ctx, id)
}

// Summaries resuelve ids a vistas mínimas; ids inexistentes se omiten.
func (s *Service) Summaries(ctx context.Context, ids []int64) (map[int64]Summary, error) {
	seen := map[int64]struct{}{}
	uniq := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		uniq = append(uniq, id)
	}

	out := make(map[int64]Summary, len(uniq))
	if len(uniq) == 0 {
		return out, nil
	}

	items, err := s.repo.GetMany(ctx, uniq)
	if err != nil {
		return nil, err
	}
	for _, a := range items {
		out[a.ID] = a.Summary()
	}
	return out, nil
}

// OwnerOf expone el dueño de un animal para otros módulos (events) sin
// que estos conozcan el repositorio.
func (s *Service) OwnerOf(ctx context.Context, id int64) (*int64, error) {
	a, err := s.Get(ctx, auth.Anonymous, id)
	if err != nil {
		return nil, err
	}
	return a.OwnerUserID, nil
}

func (s *Service) loadForMutation(ctx context.Context, caller auth.Claims, id int64) (Animal, error) {
	if !caller.Authenticated() {
		return Animal{}, access.ErrUnauthorized
	}
	current, err := s.Get(ctx, caller, id)
	if err != nil {
		return Animal{}, err
	}
	if !access.CanMutate(caller, current.OwnerUserID) {
		return Animal{}, access.ErrForbidden
	}
	return current, nil
}

func (s *Service) save(ctx context.Context, next Animal) (Animal, error) {
	if err := s.validate(ctx, next); err != nil {
		return Animal{}, err
	}
	next.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, next); err != nil {
		return Animal{}, err
	}
	return next, nil
}

func (s *Service) validate(ctx context.Context, a Animal) error {
	if a.Name == "" {
		return access.Invalid("name", "name is required")
	}
	for _, f := range []struct {
		field string
		value string
		max   int
	}{
		{"name", a.Name, 50},
		{"morph", a.Morph, 100},
		{"acquisition_source", a.AcquisitionSource, 100},
		{"sire_name", a.SireName, 50},
		{"dam_name", a.DamName, 50},
	} {
		if err := access.MaxLen(f.field, f.value, f.max); err != nil {
			return err
		}
	}
	if !a.Gender.Valid() {
		return access.Invalid("gender", "gender must be one of Male, Female, Unknown")
	}
	if !a.AcquisitionType.Valid() {
		return access.Invalid("acquisition_type", "acquisition_type must be one of Purchased, Hatched, Rescue")
	}
	if a.Weight != nil && *a.Weight < 0 {
		return access.Invalid("weight", "weight must not be negative")
	}
	if err := s.checkParent(ctx, a.ID, a.SireID, "sire"); err != nil {
		return err
	}
	return s.checkParent(ctx, a.ID, a.DamID, "dam")
}

func (s *Service) checkParent(ctx context.Context, selfID int64, parentID *int64, field string) error {
	if parentID == nil {
		return nil
	}
	if selfID != 0 && *parentID == selfID {
		return access.Invalid(field, "an animal cannot be its own parent")
	}
	if _, err := s.repo.GetByID(ctx, *parentID); err != nil {
		if errors.Is(err, access.ErrNotFound) {
			return access.Invalid(field, "referenced animal does not exist")
		}
		return err
	}
	return nil
}

func applyInput(a *Animal, in Input) {
	a.Name = strings.TrimSpace(in.Name)
	a.Morph = strings.TrimSpace(in.Morph)
	a.Description = strings.TrimSpace(in.Description)
	a.Gender = in.Gender
	if a.Gender == "" {
		a.Gender = GenderUnknown
	}
	a.BirthDate = in.BirthDate
	a.AdoptionDate = in.AdoptionDate
	a.Weight = in.Weight
	a.AcquisitionType = in.AcquisitionType
	if a.AcquisitionType == "" {
		a.AcquisitionType = AcquisitionPurchased
	}
	a.AcquisitionSource = strings.TrimSpace(in.AcquisitionSource)
	a.IsOvulating = in.IsOvulating
	a.TailLoss = in.TailLoss
	a.MBD = in.MBD
	a.HasSpots = in.HasSpots
	a.SireID = in.SireID
	a.DamID = in.DamID
	a.SireName = strings.TrimSpace(in.SireName)
	a.DamName = strings.TrimSpace(in.DamName)
}

func applyPatch(a *Animal, p Patch) {
	if p.Name != nil {
		a.Name = strings.TrimSpace(*p.Name)
	}
	if p.Morph != nil {
		a.Morph = strings.TrimSpace(*p.Morph)
	}
	if p.Description != nil {
		a.Description = strings.TrimSpace(*p.Description)
	}
	if p.Gender != nil {
		a.Gender = *p.Gender
	}
	p.BirthDate.Apply(&a.BirthDate)
	p.AdoptionDate.Apply(&a.AdoptionDate)
	p.Weight.Apply(&a.Weight)
	if p.AcquisitionType != nil {
		a.AcquisitionType = *p.AcquisitionType
	}
	if p.AcquisitionSource != nil {
		a.AcquisitionSource = strings.TrimSpace(*p.AcquisitionSource)
	}
	if p.IsOvulating != nil {
		a.IsOvulating = *p.IsOvulating
	}
	if p.TailLoss != nil {
		a.TailLoss = *p.TailLoss
	}
	if p.MBD != nil {
		a.MBD = *p.MBD
	}
	if p.HasSpots != nil {
		a.HasSpots = *p.HasSpots
	}
	p.SireID.Apply(&a.SireID)
	p.DamID.Apply(&a.DamID)
	if p.SireName != nil {
		a.SireName = strings.TrimSpace(*p.SireName)
	}
	if p.DamName != nil {
		a.DamName = strings.TrimSpace(*p.DamName)
	}
}
