package postgres

import (
	"context"
	"strconv"
	"time"

	"geckohub/internal/domain/access"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// ErrNotFound es el mismo error de dominio para que los services lo traduzcan a 404.
var ErrNotFound = access.ErrNotFound

const (
	pgForeignKeyViolation = "23503"
	pgStringTooLong       = "22001"
)

type Options struct {
	DSN              string
	MaxOpenConns     int
	StatementTimeout time.Duration
}

// Open abre un pool sqlx sobre el driver pgx (database/sql) y verifica la conexión.
func Open(ctx context.Context, opts Options) (*sqlx.DB, error) {
	cfg, err := pgx.ParseConfig(opts.DSN)
	if err != nil {
		return nil, errors.Wrap(err, "parse postgres dsn")
	}
	if opts.StatementTimeout > 0 {
		cfg.RuntimeParams["statement_timeout"] = strconv.FormatInt(opts.StatementTimeout.Milliseconds(), 10)
	}

	db := sqlx.NewDb(stdlib.OpenDB(*cfg), "pgx")

	maxOpen := opts.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 10
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen / 2)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "ping postgres")
	}

	return db, nil
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// mapWriteErr: FK rota (animal inexistente) => NotFound; texto más largo
// que la columna => ValidationError (los services ya validan, esto cubre el resto).
func mapWriteErr(err error, op string) error {
	if err == nil {
		return nil
	}
	switch pgCode(err) {
	case pgForeignKeyViolation:
		return ErrNotFound
	case pgStringTooLong:
		return access.Invalid("", "value too long for field")
	}
	return errors.Wrap(err, op)
}

func nullInt64(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullDate(p *time.Time) any {
	if p == nil {
		return nil
	}
	return p.UTC().Format("2006-01-02")
}
