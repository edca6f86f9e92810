package memory

import (
	"context"
	"strings"

	"geckohub/internal/domain/events"
)

type eventRepo struct {
	s *Store
}

func (r *eventRepo) Create(ctx context.Context, e events.Event) (events.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.checkRefsLocked(e); err != nil {
		return events.Event{}, err
	}

	r.s.eventSeq++
	e.ID = r.s.eventSeq
	r.s.events[e.ID] = cloneEvent(e)
	return cloneEvent(e), nil
}

func (r *eventRepo) Update(ctx context.Context, e events.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.events[e.ID]; !ok {
		return ErrNotFound
	}
	if err := r.checkRefsLocked(e); err != nil {
		return err
	}
	r.s.events[e.ID] = cloneEvent(e)
	return nil
}

func (r *eventRepo) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.events[id]; !ok {
		return ErrNotFound
	}
	delete(r.s.events, id)
	return nil
}

func (r *eventRepo) GetByID(ctx context.Context, id int64) (events.Event, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	e, ok := r.s.events[id]
	if !ok {
		return events.Event{}, ErrNotFound
	}
	return cloneEvent(e), nil
}

func (r *eventRepo) List(ctx context.Context, f events.ListFilter) ([]events.Event, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var types map[events.EventType]struct{}
	if len(f.Types) > 0 {
		types = make(map[events.EventType]struct{}, len(f.Types))
		for _, t := range f.Types {
			types[t] = struct{}{}
		}
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))

	out := make([]events.Event, 0)
	for _, e := range r.s.events {
		if f.OwnerUserID != nil {
			subject, ok := r.s.animals[e.SubjectID]
			if !ok || subject.OwnerUserID == nil || *subject.OwnerUserID != *f.OwnerUserID {
				continue
			}
		}
		if f.SubjectID != nil && e.SubjectID != *f.SubjectID {
			continue
		}
		if types != nil {
			if _, ok := types[e.Type]; !ok {
				continue
			}
		}
		if f.From != nil && e.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && e.Date.After(*f.To) {
			continue
		}
		if q != "" && !matchesQuery(e, q) {
			continue
		}
		out = append(out, cloneEvent(e))
	}

	events.SortRecentFirst(out)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *eventRepo) ListBySubject(ctx context.Context, animalID int64) ([]events.Event, error) {
	return r.collect(func(e events.Event) bool { return e.SubjectID == animalID }), nil
}

func (r *eventRepo) ListByPartner(ctx context.Context, animalID int64) ([]events.Event, error) {
	return r.collect(func(e events.Event) bool { return e.PartnerID != nil && *e.PartnerID == animalID }), nil
}

func (r *eventRepo) collect(keep func(events.Event) bool) []events.Event {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]events.Event, 0)
	for _, e := range r.s.events {
		if keep(e) {
			out = append(out, cloneEvent(e))
		}
	}
	return out
}

// checkRefsLocked emula las FK de subject y partner.
func (r *eventRepo) checkRefsLocked(e events.Event) error {
	if _, ok := r.s.animals[e.SubjectID]; !ok {
		return ErrNotFound
	}
	if e.PartnerID != nil {
		if _, ok := r.s.animals[*e.PartnerID]; !ok {
			return ErrNotFound
		}
	}
	return nil
}

func matchesQuery(e events.Event, q string) bool {
	for _, field := range []string{e.Note, e.PartnerName, e.ExpectedMorph, e.EggCondition} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

func cloneEvent(e events.Event) events.Event {
	e.Weight = clonePtr(e.Weight)
	e.PartnerID = clonePtr(e.PartnerID)
	e.EggCount = clonePtr(e.EggCount)
	e.IncubationTemp = clonePtr(e.IncubationTemp)
	e.ExpectedHatchDate = clonePtr(e.ExpectedHatchDate)
	return e
}
