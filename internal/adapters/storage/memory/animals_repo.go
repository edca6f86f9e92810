package memory

import (
	"context"
	"errors"
	"sort"

	"geckohub/internal/domain/animals"
)

type animalRepo struct {
	s *Store
}

func (r *animalRepo) Create(ctx context.Context, a animals.Animal) (animals.Animal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.checkParentsLocked(a); err != nil {
		return animals.Animal{}, err
	}

	r.s.animalSeq++
	a.ID = r.s.animalSeq
	r.s.animals[a.ID] = cloneAnimal(a)
	return cloneAnimal(a), nil
}

func (r *animalRepo) Update(ctx context.Context, a animals.Animal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.animals[a.ID]; !ok {
		return ErrNotFound
	}
	if err := r.checkParentsLocked(a); err != nil {
		return err
	}
	r.s.animals[a.ID] = cloneAnimal(a)
	return nil
}

// Delete replica las reglas de FK del esquema postgres:
// events.subject_id ON DELETE CASCADE, events.partner_id / animals.sire_id /
// animals.dam_id ON DELETE SET NULL.
func (r *animalRepo) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.animals[id]; !ok {
		return ErrNotFound
	}
	delete(r.s.animals, id)

	for eid, e := range r.s.events {
		switch {
		case e.SubjectID == id:
			delete(r.s.events, eid)
		case e.PartnerID != nil && *e.PartnerID == id:
			e.PartnerID = nil
			r.s.events[eid] = e
		}
	}

	for aid, a := range r.s.animals {
		changed := false
		if a.SireID != nil && *a.SireID == id {
			a.SireID = nil
			changed = true
		}
		if a.DamID != nil && *a.DamID == id {
			a.DamID = nil
			changed = true
		}
		if changed {
			r.s.animals[aid] = a
		}
	}
	return nil
}

func (r *animalRepo) GetByID(ctx context.Context, id int64) (animals.Animal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.animals[id]
	if !ok {
		return animals.Animal{}, ErrNotFound
	}
	return cloneAnimal(a), nil
}

// GetMany omite ids inexistentes.
func (r *animalRepo) GetMany(ctx context.Context, ids []int64) ([]animals.Animal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]animals.Animal, 0, len(ids))
	for _, id := range ids {
		if a, ok := r.s.animals[id]; ok {
			out = append(out, cloneAnimal(a))
		}
	}
	return out, nil
}

func (r *animalRepo) ListAll(ctx context.Context) ([]animals.Animal, error) {
	return r.list(func(animals.Animal) bool { return true }), nil
}

func (r *animalRepo) ListByOwner(ctx context.Context, ownerUserID int64) ([]animals.Animal, error) {
	return r.list(func(a animals.Animal) bool {
		return a.OwnerUserID != nil && *a.OwnerUserID == ownerUserID
	}), nil
}

func (r *animalRepo) ListChildren(ctx context.Context, parentID int64) ([]animals.Animal, error) {
	return r.list(func(a animals.Animal) bool {
		return (a.SireID != nil && *a.SireID == parentID) || (a.DamID != nil && *a.DamID == parentID)
	}), nil
}

func (r *animalRepo) list(keep func(animals.Animal) bool) []animals.Animal {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]animals.Animal, 0)
	for _, a := range r.s.animals {
		if keep(a) {
			out = append(out, cloneAnimal(a))
		}
	}

	// created_at DESC, id DESC
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (r *animalRepo) checkParentsLocked(a animals.Animal) error {
	for _, p := range []*int64{a.SireID, a.DamID} {
		if p == nil {
			continue
		}
		if _, ok := r.s.animals[*p]; !ok {
			return errors.New("parent animal does not exist")
		}
	}
	return nil
}

func cloneAnimal(a animals.Animal) animals.Animal {
	a.OwnerUserID = clonePtr(a.OwnerUserID)
	a.BirthDate = clonePtr(a.BirthDate)
	a.AdoptionDate = clonePtr(a.AdoptionDate)
	a.Weight = clonePtr(a.Weight)
	a.SireID = clonePtr(a.SireID)
	a.DamID = clonePtr(a.DamID)
	return a
}
