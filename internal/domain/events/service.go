package events

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"geckohub/internal/domain/access"
	"geckohub/internal/domain/animals"
	"geckohub/internal/platform/logger"
	"geckohub/internal/platform/optional"
	"geckohub/internal/ports/auth"
)

// Animals es lo que events necesita del módulo animals.
type Animals interface {
	OwnerOf(ctx context.Context, id int64) (*int64, error)
	Summaries(ctx context.Context, ids []int64) (map[int64]animals.Summary, error)
}

type Service struct {
	repo    Repository
	animals Animals
	log     logger.Logger
	now     func() time.Time
}

func NewService(repo Repository, animals Animals, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		repo:    repo,
		animals: animals,
		log:     log.With(map[string]any{"module": "events"}),
		now:     time.Now,
	}
}

type CreateInput struct {
	SubjectID int64
	Type      EventType
	Date      time.Time

	Weight *float64
	Note   string

	PartnerID   *int64
	PartnerName string

	MatingSuccess bool
	IsFertile     bool
	EggCount      *int
	EggCondition  string

	IncubationTemp    *float64
	ExpectedHatchDate *time.Time
	ExpectedMorph     string
}

// Patch: nil / Set=false => no tocar.
type Patch struct {
	SubjectID *int64
	Type      *EventType
	Date      *time.Time

	Weight optional.Field[float64]
	Note   *string

	PartnerID   optional.Field[int64]
	PartnerName *string

	MatingSuccess *bool
	IsFertile     *bool
	EggCount      optional.Field[int]
	EggCondition  *string

	IncubationTemp    optional.Field[float64]
	ExpectedHatchDate optional.Field[time.Time]
	ExpectedMorph     *string
}

// List aplica el mismo alcance que el listado de animales: anónimo => vacío,
// admin => todos, resto => eventos de sus animales.
func (s *Service) List(ctx context.Context, caller auth.Claims, filter ListFilter) ([]Event, error) {
	if !caller.Authenticated() {
		return []Event{}, nil
	}
	filter.OwnerUserID = nil
	if !caller.IsAdmin {
		uid := caller.UserID
		filter.OwnerUserID = &uid
	}
	return s.repo.List(ctx, filter)
}

// Get no filtra por dueño, igual que el detalle de animal.
func (s *Service) Get(ctx context.Context, _ auth.Claims, id int64) (Event, error) {
	if id <= 0 {
		return Event{}, access.ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, caller auth.Claims, in CreateInput) (Event, error) {
	if !caller.Authenticated() {
		return Event{}, access.ErrUnauthorized
	}

	if in.SubjectID <= 0 {
		return Event{}, access.Invalid("subject", "subject is required")
	}
	if err := s.requireSubjectRights(ctx, caller, in.SubjectID); err != nil {
		return Event{}, err
	}

	e := Event{
		SubjectID:         in.SubjectID,
		Type:              in.Type,
		Date:              in.Date,
		Weight:            in.Weight,
		Note:              strings.TrimSpace(in.Note),
		PartnerID:         in.PartnerID,
		PartnerName:       strings.TrimSpace(in.PartnerName),
		MatingSuccess:     in.MatingSuccess,
		IsFertile:         in.IsFertile,
		EggCount:          in.EggCount,
		EggCondition:      strings.TrimSpace(in.EggCondition),
		IncubationTemp:    in.IncubationTemp,
		ExpectedHatchDate: in.ExpectedHatchDate,
		ExpectedMorph:     strings.TrimSpace(in.ExpectedMorph),
		CreatedAt:         s.now(),
	}
	if err := s.prepare(ctx, &e); err != nil {
		return Event{}, err
	}

	created, err := s.repo.Create(ctx, e)
	if err != nil {
		return Event{}, err
	}

	s.log.Info("event created", map[string]any{
		"event_id":   created.ID,
		"subject_id": created.SubjectID,
		"type":       string(created.Type),
	})
	return created, nil
}

// Update aplica un PATCH. Si cambia el subject, el caller necesita
// derechos sobre el subject actual y sobre el nuevo.
func (s *Service) Update(ctx context.Context, caller auth.Claims, id int64, p Patch) (Event, error) {
	current, err := s.loadForMutation(ctx, caller, id)
	if err != nil {
		return Event{}, err
	}

	next := current
	if p.SubjectID != nil && *p.SubjectID != current.SubjectID {
		if *p.SubjectID <= 0 {
			return Event{}, access.Invalid("subject", "subject is required")
		}
		if err := s.requireSubjectRights(ctx, caller, *p.SubjectID); err != nil {
			return Event{}, err
		}
		next.SubjectID = *p.SubjectID
	}
	applyPatch(&next, p)

	if err := s.prepare(ctx, &next); err != nil {
		return Event{}, err
	}
	if err := s.repo.Update(ctx, next); err != nil {
		return Event{}, err
	}
	return next, nil
}

// Replace es el PUT: todos los campos editables vienen en el input.
func (s *Service) Replace(ctx context.Context, caller auth.Claims, id int64, in CreateInput) (Event, error) {
	subject := in.SubjectID
	typ := in.Type
	date := in.Date
	p := Patch{
		SubjectID:         &subject,
		Type:              &typ,
		Date:              &date,
		Weight:            optional.Field[float64]{Set: true, Value: in.Weight},
		Note:              &in.Note,
		PartnerID:         optional.Field[int64]{Set: true, Value: in.PartnerID},
		PartnerName:       &in.PartnerName,
		MatingSuccess:     &in.MatingSuccess,
		IsFertile:         &in.IsFertile,
		EggCount:          optional.Field[int]{Set: true, Value: in.EggCount},
		EggCondition:      &in.EggCondition,
		IncubationTemp:    optional.Field[float64]{Set: true, Value: in.IncubationTemp},
		ExpectedHatchDate: optional.Field[time.Time]{Set: true, Value: in.ExpectedHatchDate},
		ExpectedMorph:     &in.ExpectedMorph,
	}
	return s.Update(ctx, caller, id, p)
}

func (s *Service) Delete(ctx context.Context, caller auth.Claims, id int64) error {
	if _, err := s.loadForMutation(ctx, caller, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("event deleted", map[string]any{"event_id": id, "by_user_id": caller.UserID})
	return nil
}

func (s *Service) SetImage(ctx context.Context, caller auth.Claims, id int64, url string) (Event, error) {
	current, err := s.loadForMutation(ctx, caller, id)
	if err != nil {
		return Event{}, err
	}
	current.Image = url
	if err := s.repo.Update(ctx, current); err != nil {
		return Event{}, err
	}
	return current, nil
}

// CheckMutable valida permisos antes de operaciones con efectos externos (uploads).
func (s *Service) CheckMutable(ctx context.Context, caller auth.Claims, id int64) error {
	_, err := s.loadForMutation(ctx, caller, id)
	return err
}

// Incubating es la vista de incubadora: puestas del caller con fecha
// estimada de eclosión, la más próxima primero.
func (s *Service) Incubating(ctx context.Context, caller auth.Claims) ([]Event, error) {
	items, err := s.List(ctx, caller, ListFilter{Types: []EventType{TypeLaying}})
	if err != nil {
		return nil, err
	}

	out := make([]Event, 0, len(items))
	for _, e := range items {
		if e.ExpectedHatchDate != nil {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := *out[i].ExpectedHatchDate, *out[j].ExpectedHatchDate
		if !a.Equal(b) {
			return a.Before(b)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Summaries resuelve subject/partner de un lote de eventos.
func (s *Service) Summaries(ctx context.Context, items []Event) (map[int64]animals.Summary, error) {
	ids := make([]int64, 0, len(items)*2)
	for _, e := range items {
		ids = append(ids, e.SubjectID)
		if e.PartnerID != nil {
			ids = append(ids, *e.PartnerID)
		}
	}
	return s.animals.Summaries(ctx, ids)
}

func (s *Service) loadForMutation(ctx context.Context, caller auth.Claims, id int64) (Event, error) {
	if !caller.Authenticated() {
		return Event{}, access.ErrUnauthorized
	}
	current, err := s.Get(ctx, caller, id)
	if err != nil {
		return Event{}, err
	}
	owner, err := s.animals.OwnerOf(ctx, current.SubjectID)
	if err != nil {
		return Event{}, err
	}
	if err := access.RequireMutate(caller, owner); err != nil {
		return Event{}, err
	}
	return current, nil
}

// requireSubjectRights: el subject debe existir (si no, error de validación)
// y pertenecer al caller, salvo admin.
func (s *Service) requireSubjectRights(ctx context.Context, caller auth.Claims, subjectID int64) error {
	owner, err := s.animals.OwnerOf(ctx, subjectID)
	if err != nil {
		if errors.Is(err, access.ErrNotFound) {
			return access.Invalid("subject", "referenced animal does not exist")
		}
		return err
	}
	return access.RequireMutate(caller, owner)
}

// prepare valida y normaliza un evento antes de persistirlo.
func (s *Service) prepare(ctx context.Context, e *Event) error {
	t, ok := ParseType(string(e.Type))
	if !ok {
		return access.Invalid("type", "type must be one of Feeding, Weight, Shedding, Cleaning, Mating, Laying, Other")
	}
	e.Type = t

	if e.Date.IsZero() {
		return access.Invalid("date", "date is required")
	}
	y, m, d := e.Date.Date()
	e.Date = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	if e.Weight != nil && *e.Weight < 0 {
		return access.Invalid("weight", "weight must not be negative")
	}
	for _, f := range []struct {
		field string
		value string
		max   int
	}{
		{"partner_name", e.PartnerName, 50},
		{"egg_condition", e.EggCondition, 100},
		{"expected_morph", e.ExpectedMorph, 200},
	} {
		if err := access.MaxLen(f.field, f.value, f.max); err != nil {
			return err
		}
	}
	if e.EggCount != nil && *e.EggCount < 0 {
		return access.Invalid("egg_count", "egg_count must not be negative")
	}

	if e.PartnerID != nil {
		if *e.PartnerID == e.SubjectID {
			return access.Invalid("partner", "partner must be a different animal than subject")
		}
		if _, err := s.animals.OwnerOf(ctx, *e.PartnerID); err != nil {
			if errors.Is(err, access.ErrNotFound) {
				return access.Invalid("partner", "referenced animal does not exist")
			}
			return err
		}
	}

	fillExpectedHatch(e)
	return nil
}

func applyPatch(e *Event, p Patch) {
	if p.Type != nil {
		e.Type = *p.Type
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	p.Weight.Apply(&e.Weight)
	if p.Note != nil {
		e.Note = strings.TrimSpace(*p.Note)
	}
	p.PartnerID.Apply(&e.PartnerID)
	if p.PartnerName != nil {
		e.PartnerName = strings.TrimSpace(*p.PartnerName)
	}
	if p.MatingSuccess != nil {
		e.MatingSuccess = *p.MatingSuccess
	}
	if p.IsFertile != nil {
		e.IsFertile = *p.IsFertile
	}
	p.EggCount.Apply(&e.EggCount)
	if p.EggCondition != nil {
		e.EggCondition = strings.TrimSpace(*p.EggCondition)
	}
	p.IncubationTemp.Apply(&e.IncubationTemp)
	p.ExpectedHatchDate.Apply(&e.ExpectedHatchDate)
	if p.ExpectedMorph != nil {
		e.ExpectedMorph = strings.TrimSpace(*p.ExpectedMorph)
	}
}
