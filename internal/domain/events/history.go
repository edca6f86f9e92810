package events

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"
)

// SortRecentFirst ordena por fecha DESC y, a igual fecha, por id DESC
// (lo último cargado primero).
func SortRecentFirst(items []Event) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].Date.Equal(items[j].Date) {
			return items[i].Date.After(items[j].Date)
		}
		return items[i].ID > items[j].ID
	})
}

// History une los eventos donde el animal es subject con los que lo tienen
// como partner. Son conjuntos disjuntos (subject != partner), así que no se
// deduplica. No filtra por caller: el historial acompaña al detalle.
func (s *Service) History(ctx context.Context, animalID int64) ([]Event, error) {
	var direct, asPartner []Event

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := s.repo.ListBySubject(gctx, animalID)
		direct = items
		return err
	})
	g.Go(func() error {
		items, err := s.repo.ListByPartner(gctx, animalID)
		asPartner = items
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Event, 0, len(direct)+len(asPartner))
	out = append(out, direct...)
	out = append(out, asPartner...)
	SortRecentFirst(out)
	return out, nil
}
