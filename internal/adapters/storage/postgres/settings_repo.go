package postgres

import (
	"context"
	"encoding/json"
	"time"

	"geckohub/internal/domain/settings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// feeding_days es JSONB: se lee como texto y se decodifica elemento a elemento.
type settingsRow struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`
	FeedingDays []byte    `db:"feeding_days"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r settingsRow) toDomain() (settings.UserSettings, error) {
	var days []json.RawMessage
	if len(r.FeedingDays) > 0 {
		if err := json.Unmarshal(r.FeedingDays, &days); err != nil {
			return settings.UserSettings{}, errors.Wrap(err, "decode feeding_days")
		}
	}
	return settings.UserSettings{
		ID:          r.ID,
		UserID:      r.UserID,
		FeedingDays: settings.CloneDays(days),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}, nil
}

type SettingsRepo struct {
	db *sqlx.DB
}

func NewSettingsRepo(db *sqlx.DB) *SettingsRepo {
	return &SettingsRepo{db: db}
}

func (r *SettingsRepo) GetOrCreate(ctx context.Context, userID int64, defaults settings.UserSettings) (settings.UserSettings, error) {
	days, err := encodeDays(defaults.FeedingDays)
	if err != nil {
		return settings.UserSettings{}, err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO user_settings (user_id, feeding_days, created_at, updated_at)
		VALUES ($1, $2::jsonb, $3, $4)
		ON CONFLICT (user_id) DO NOTHING
	`, userID, days, defaults.CreatedAt, defaults.UpdatedAt)
	if err != nil {
		return settings.UserSettings{}, mapWriteErr(err, "insert settings")
	}

	var row settingsRow
	err = r.db.GetContext(ctx, &row, `
		SELECT id, user_id, feeding_days::text AS feeding_days, created_at, updated_at
		FROM user_settings WHERE user_id = $1
	`, userID)
	if err != nil {
		return settings.UserSettings{}, errors.Wrap(err, "get settings")
	}
	return row.toDomain()
}

func (r *SettingsRepo) Update(ctx context.Context, s settings.UserSettings) error {
	days, err := encodeDays(s.FeedingDays)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE user_settings
		SET feeding_days = $2::jsonb, updated_at = $3
		WHERE id = $1
	`, s.ID, days, s.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "update settings")
	}
	return requireAffected(res)
}

func encodeDays(days []json.RawMessage) (string, error) {
	b, err := json.Marshal(settings.CloneDays(days))
	if err != nil {
		return "", errors.Wrap(err, "encode feeding_days")
	}
	return string(b), nil
}
