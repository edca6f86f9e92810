package postgres

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"geckohub/internal/domain/events"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

const eventColumns = `
	e.id, e.subject_id, e.type, e.date, e.weight, e.note, e.image,
	e.partner_id, e.partner_name, e.mating_success, e.is_fertile,
	e.egg_count, e.egg_condition, e.incubation_temp,
	e.expected_hatch_date, e.expected_morph, e.created_at`

type eventRow struct {
	ID                int64      `db:"id"`
	SubjectID         int64      `db:"subject_id"`
	Type              string     `db:"type"`
	Date              time.Time  `db:"date"`
	Weight            *float64   `db:"weight"`
	Note              string     `db:"note"`
	Image             string     `db:"image"`
	PartnerID         *int64     `db:"partner_id"`
	PartnerName       string     `db:"partner_name"`
	MatingSuccess     bool       `db:"mating_success"`
	IsFertile         bool       `db:"is_fertile"`
	EggCount          *int64     `db:"egg_count"`
	EggCondition      string     `db:"egg_condition"`
	IncubationTemp    *float64   `db:"incubation_temp"`
	ExpectedHatchDate *time.Time `db:"expected_hatch_date"`
	ExpectedMorph     string     `db:"expected_morph"`
	CreatedAt         time.Time  `db:"created_at"`
}

func (r eventRow) toDomain() events.Event {
	var eggs *int
	if r.EggCount != nil {
		n := int(*r.EggCount)
		eggs = &n
	}
	return events.Event{
		ID:                r.ID,
		SubjectID:         r.SubjectID,
		Type:              events.EventType(r.Type),
		Date:              r.Date.UTC(),
		Weight:            r.Weight,
		Note:              r.Note,
		Image:             r.Image,
		PartnerID:         r.PartnerID,
		PartnerName:       r.PartnerName,
		MatingSuccess:     r.MatingSuccess,
		IsFertile:         r.IsFertile,
		EggCount:          eggs,
		EggCondition:      r.EggCondition,
		IncubationTemp:    r.IncubationTemp,
		ExpectedHatchDate: r.ExpectedHatchDate,
		ExpectedMorph:     r.ExpectedMorph,
		CreatedAt:         r.CreatedAt,
	}
}

type EventsRepo struct {
	db *sqlx.DB
}

func NewEventsRepo(db *sqlx.DB) *EventsRepo {
	return &EventsRepo{db: db}
}

func (r *EventsRepo) Create(ctx context.Context, ev events.Event) (events.Event, error) {
	var row eventRow
	err := r.db.GetContext(ctx, &row, `
		INSERT INTO events AS e (
			subject_id, type, date, weight, note, image,
			partner_id, partner_name, mating_success, is_fertile,
			egg_count, egg_condition, incubation_temp,
			expected_hatch_date, expected_morph, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		RETURNING `+eventColumns,
		ev.SubjectID, string(ev.Type), ev.Date.Format("2006-01-02"), nullFloat(ev.Weight), ev.Note, ev.Image,
		nullInt64(ev.PartnerID), ev.PartnerName, ev.MatingSuccess, ev.IsFertile,
		nullInt(ev.EggCount), ev.EggCondition, nullFloat(ev.IncubationTemp),
		nullDate(ev.ExpectedHatchDate), ev.ExpectedMorph, ev.CreatedAt,
	)
	if err != nil {
		return events.Event{}, mapWriteErr(err, "insert event")
	}
	return row.toDomain(), nil
}

func (r *EventsRepo) Update(ctx context.Context, ev events.Event) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE events
		SET
			subject_id = $2,
			type = $3,
			date = $4,
			weight = $5,
			note = $6,
			image = $7,
			partner_id = $8,
			partner_name = $9,
			mating_success = $10,
			is_fertile = $11,
			egg_count = $12,
			egg_condition = $13,
			incubation_temp = $14,
			expected_hatch_date = $15,
			expected_morph = $16
		WHERE id = $1
	`,
		ev.ID, ev.SubjectID, string(ev.Type), ev.Date.Format("2006-01-02"), nullFloat(ev.Weight), ev.Note, ev.Image,
		nullInt64(ev.PartnerID), ev.PartnerName, ev.MatingSuccess, ev.IsFertile,
		nullInt(ev.EggCount), ev.EggCondition, nullFloat(ev.IncubationTemp),
		nullDate(ev.ExpectedHatchDate), ev.ExpectedMorph,
	)
	if err != nil {
		return mapWriteErr(err, "update event")
	}
	return requireAffected(res)
}

func (r *EventsRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "delete event")
	}
	return requireAffected(res)
}

func (r *EventsRepo) GetByID(ctx context.Context, id int64) (events.Event, error) {
	var row eventRow
	err := r.db.GetContext(ctx, &row, `SELECT `+eventColumns+` FROM events e WHERE e.id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return events.Event{}, ErrNotFound
	}
	if err != nil {
		return events.Event{}, errors.Wrap(err, "get event")
	}
	return row.toDomain(), nil
}

func (r *EventsRepo) List(ctx context.Context, f events.ListFilter) ([]events.Event, error) {
	var (
		sb    strings.Builder
		args  []any
		where []string
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	sb.WriteString(`SELECT ` + eventColumns + ` FROM events e`)
	if f.OwnerUserID != nil {
		sb.WriteString(` JOIN animals a ON a.id = e.subject_id`)
		where = append(where, "a.owner_user_id = "+arg(*f.OwnerUserID))
	}
	if f.SubjectID != nil {
		where = append(where, "e.subject_id = "+arg(*f.SubjectID))
	}
	if len(f.Types) > 0 {
		types := make([]string, 0, len(f.Types))
		for _, t := range f.Types {
			types = append(types, string(t))
		}
		where = append(where, "e.type = ANY("+arg(pq.StringArray(types))+"::text[])")
	}
	if f.From != nil {
		where = append(where, "e.date >= "+arg(f.From.Format("2006-01-02"))+"::date")
	}
	if f.To != nil {
		where = append(where, "e.date <= "+arg(f.To.Format("2006-01-02"))+"::date")
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		p := arg("%" + escapeLike(q) + "%")
		where = append(where, "(e.note ILIKE "+p+" OR e.partner_name ILIKE "+p+" OR e.expected_morph ILIKE "+p+" OR e.egg_condition ILIKE "+p+")")
	}

	if len(where) > 0 {
		sb.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	sb.WriteString(" ORDER BY e.date DESC, e.id DESC")
	if f.Limit > 0 {
		sb.WriteString(" LIMIT " + arg(f.Limit))
	}

	return r.selectMany(ctx, sb.String(), args...)
}

func (r *EventsRepo) ListBySubject(ctx context.Context, animalID int64) ([]events.Event, error) {
	return r.selectMany(ctx, `SELECT `+eventColumns+` FROM events e WHERE e.subject_id = $1`, animalID)
}

func (r *EventsRepo) ListByPartner(ctx context.Context, animalID int64) ([]events.Event, error) {
	return r.selectMany(ctx, `SELECT `+eventColumns+` FROM events e WHERE e.partner_id = $1`, animalID)
}

func (r *EventsRepo) selectMany(ctx context.Context, query string, args ...any) ([]events.Event, error) {
	var rows []eventRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "list events")
	}
	out := make([]events.Event, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
