package postgres

import (
	"context"
	"database/sql"
	"time"

	"geckohub/internal/domain/animals"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

const animalColumns = `
	id, owner_user_id, name, morph, description, gender,
	birth_date, adoption_date, weight,
	acquisition_type, acquisition_source,
	is_ovulating, tail_loss, mbd, has_spots,
	profile_image, sire_id, dam_id, sire_name, dam_name,
	created_at, updated_at`

type animalRow struct {
	ID                int64      `db:"id"`
	OwnerUserID       *int64     `db:"owner_user_id"`
	Name              string     `db:"name"`
	Morph             string     `db:"morph"`
	Description       string     `db:"description"`
	Gender            string     `db:"gender"`
	BirthDate         *time.Time `db:"birth_date"`
	AdoptionDate      *time.Time `db:"adoption_date"`
	Weight            *float64   `db:"weight"`
	AcquisitionType   string     `db:"acquisition_type"`
	AcquisitionSource string     `db:"acquisition_source"`
	IsOvulating       bool       `db:"is_ovulating"`
	TailLoss          bool       `db:"tail_loss"`
	MBD               bool       `db:"mbd"`
	HasSpots          bool       `db:"has_spots"`
	ProfileImage      string     `db:"profile_image"`
	SireID            *int64     `db:"sire_id"`
	DamID             *int64     `db:"dam_id"`
	SireName          string     `db:"sire_name"`
	DamName           string     `db:"dam_name"`
	CreatedAt         time.Time  `db:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at"`
}

func (r animalRow) toDomain() animals.Animal {
	return animals.Animal{
		ID:                r.ID,
		OwnerUserID:       r.OwnerUserID,
		Name:              r.Name,
		Morph:             r.Morph,
		Description:       r.Description,
		Gender:            animals.Gender(r.Gender),
		BirthDate:         r.BirthDate,
		AdoptionDate:      r.AdoptionDate,
		Weight:            r.Weight,
		AcquisitionType:   animals.AcquisitionType(r.AcquisitionType),
		AcquisitionSource: r.AcquisitionSource,
		IsOvulating:       r.IsOvulating,
		TailLoss:          r.TailLoss,
		MBD:               r.MBD,
		HasSpots:          r.HasSpots,
		ProfileImage:      r.ProfileImage,
		SireID:            r.SireID,
		DamID:             r.DamID,
		SireName:          r.SireName,
		DamName:           r.DamName,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

type AnimalsRepo struct {
	db *sqlx.DB
}

func NewAnimalsRepo(db *sqlx.DB) *AnimalsRepo {
	return &AnimalsRepo{db: db}
}

func (r *AnimalsRepo) Create(ctx context.Context, a animals.Animal) (animals.Animal, error) {
	var row animalRow
	err := r.db.GetContext(ctx, &row, `
		INSERT INTO animals (
			owner_user_id, name, morph, description, gender,
			birth_date, adoption_date, weight,
			acquisition_type, acquisition_source,
			is_ovulating, tail_loss, mbd, has_spots,
			profile_image, sire_id, dam_id, sire_name, dam_name,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
		RETURNING `+animalColumns,
		nullInt64(a.OwnerUserID), a.Name, a.Morph, a.Description, string(a.Gender),
		nullDate(a.BirthDate), nullDate(a.AdoptionDate), nullFloat(a.Weight),
		string(a.AcquisitionType), a.AcquisitionSource,
		a.IsOvulating, a.TailLoss, a.MBD, a.HasSpots,
		a.ProfileImage, nullInt64(a.SireID), nullInt64(a.DamID), a.SireName, a.DamName,
		a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return animals.Animal{}, mapWriteErr(err, "insert animal")
	}
	return row.toDomain(), nil
}

// Update no toca owner_user_id ni created_at.
func (r *AnimalsRepo) Update(ctx context.Context, a animals.Animal) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE animals
		SET
			name = $2,
			morph = $3,
			description = $4,
			gender = $5,
			birth_date = $6,
			adoption_date = $7,
			weight = $8,
			acquisition_type = $9,
			acquisition_source = $10,
			is_ovulating = $11,
			tail_loss = $12,
			mbd = $13,
			has_spots = $14,
			profile_image = $15,
			sire_id = $16,
			dam_id = $17,
			sire_name = $18,
			dam_name = $19,
			updated_at = $20
		WHERE id = $1
	`,
		a.ID, a.Name, a.Morph, a.Description, string(a.Gender),
		nullDate(a.BirthDate), nullDate(a.AdoptionDate), nullFloat(a.Weight),
		string(a.AcquisitionType), a.AcquisitionSource,
		a.IsOvulating, a.TailLoss, a.MBD, a.HasSpots,
		a.ProfileImage, nullInt64(a.SireID), nullInt64(a.DamID), a.SireName, a.DamName,
		a.UpdatedAt,
	)
	if err != nil {
		return mapWriteErr(err, "update animal")
	}
	return requireAffected(res)
}

// Delete: las FK aplican cascade sobre events.subject_id y SET NULL sobre
// events.partner_id, animals.sire_id y animals.dam_id.
func (r *AnimalsRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM animals WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "delete animal")
	}
	return requireAffected(res)
}

func (r *AnimalsRepo) GetByID(ctx context.Context, id int64) (animals.Animal, error) {
	var row animalRow
	err := r.db.GetContext(ctx, &row, `SELECT `+animalColumns+` FROM animals WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return animals.Animal{}, ErrNotFound
	}
	if err != nil {
		return animals.Animal{}, errors.Wrap(err, "get animal")
	}
	return row.toDomain(), nil
}

func (r *AnimalsRepo) GetMany(ctx context.Context, ids []int64) ([]animals.Animal, error) {
	if len(ids) == 0 {
		return []animals.Animal{}, nil
	}
	return r.selectMany(ctx, `SELECT `+animalColumns+` FROM animals WHERE id = ANY($1::bigint[])`, pq.Int64Array(ids))
}

func (r *AnimalsRepo) ListAll(ctx context.Context) ([]animals.Animal, error) {
	return r.selectMany(ctx, `SELECT `+animalColumns+` FROM animals ORDER BY created_at DESC, id DESC`)
}

func (r *AnimalsRepo) ListByOwner(ctx context.Context, ownerUserID int64) ([]animals.Animal, error) {
	return r.selectMany(ctx, `
		SELECT `+animalColumns+`
		FROM animals
		WHERE owner_user_id = $1
		ORDER BY created_at DESC, id DESC
	`, ownerUserID)
}

func (r *AnimalsRepo) ListChildren(ctx context.Context, parentID int64) ([]animals.Animal, error) {
	return r.selectMany(ctx, `
		SELECT `+animalColumns+`
		FROM animals
		WHERE sire_id = $1 OR dam_id = $1
		ORDER BY created_at DESC, id DESC
	`, parentID)
}

func (r *AnimalsRepo) selectMany(ctx context.Context, query string, args ...any) ([]animals.Animal, error) {
	var rows []animalRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "list animals")
	}
	out := make([]animals.Animal, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
