package postgres

import (
	"context"
	"embed"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"

	"geckohub/internal/platform/logger"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type migration struct {
	Version int64
	Name    string
	Content string
}

// RunMigrations aplica en orden las migraciones embebidas pendientes y las
// registra en schema_migrations (con flag dirty mientras se aplican).
func RunMigrations(ctx context.Context, db *sqlx.DB, log logger.Logger) error {
	if log == nil {
		log = logger.NewNop()
	}
	log.Info("starting database migrations", nil)

	if err := createMigrationsTable(ctx, db); err != nil {
		return err
	}

	migrations, err := loadMigrations()
	if err != nil {
		return err
	}

	current, err := currentVersion(ctx, db)
	if err != nil {
		return err
	}

	applied := 0
	for _, m := range migrations {
		if m.Version <= current {
			log.Debug("migration already applied", map[string]any{"version": m.Version, "name": m.Name})
			continue
		}

		log.Info("applying migration", map[string]any{"version": m.Version, "name": m.Name})
		if err := applyMigration(ctx, db, m); err != nil {
			return errors.Wrapf(err, "apply migration %d (%s)", m.Version, m.Name)
		}
		applied++
	}

	log.Info("database migrations completed", map[string]any{"applied": applied, "version": lastVersion(migrations, current)})
	return nil
}

func loadMigrations() ([]migration, error) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return nil, errors.Wrap(err, "read migrations dir")
	}

	var out []migration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, name, err := parseMigrationName(entry.Name())
		if err != nil {
			return nil, errors.Wrapf(err, "invalid migration name %s", entry.Name())
		}

		content, err := migrationsFS.ReadFile(path.Join("migrations", entry.Name()))
		if err != nil {
			return nil, errors.Wrapf(err, "read migration %s", entry.Name())
		}

		out = append(out, migration{Version: version, Name: name, Content: string(content)})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// parseMigrationName: formato NNNN_nombre.sql
func parseMigrationName(filename string) (int64, string, error) {
	name := strings.TrimSuffix(filename, ".sql")
	parts := strings.SplitN(name, "_", 2)
	if len(parts) != 2 {
		return 0, "", fmt.Errorf("expected NNNN_name.sql")
	}
	version, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, "", errors.Wrap(err, "invalid version number")
	}
	return version, parts[1], nil
}

// applyMigration ejecuta el SQL y registra la versión en la misma transacción.
func applyMigration(ctx context.Context, db *sqlx.DB, m migration) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if err := markVersion(ctx, tx, m.Version, true); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, m.Content); err != nil {
		return errors.Wrap(err, "execute migration")
	}
	if err := markVersion(ctx, tx, m.Version, false); err != nil {
		return err
	}

	return errors.Wrap(tx.Commit(), "commit migration")
}

func currentVersion(ctx context.Context, db *sqlx.DB) (int64, error) {
	var dirty []int64
	if err := db.SelectContext(ctx, &dirty, `SELECT version FROM schema_migrations WHERE dirty = TRUE`); err != nil {
		return 0, errors.Wrap(err, "check dirty migrations")
	}
	if len(dirty) > 0 {
		return 0, fmt.Errorf("database has dirty migrations %v; fix manually", dirty)
	}

	var version int64
	if err := db.GetContext(ctx, &version, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`); err != nil {
		return 0, errors.Wrap(err, "get current version")
	}
	return version, nil
}

func markVersion(ctx context.Context, tx *sqlx.Tx, version int64, dirty bool) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO schema_migrations (version, dirty, applied_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (version) DO UPDATE SET dirty = EXCLUDED.dirty, applied_at = NOW()
	`, version, dirty)
	return errors.Wrap(err, "record migration")
}

func createMigrationsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version BIGINT NOT NULL PRIMARY KEY,
			dirty BOOLEAN NOT NULL DEFAULT FALSE,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	return errors.Wrap(err, "create schema_migrations table")
}

func lastVersion(ms []migration, current int64) int64 {
	if len(ms) == 0 {
		return current
	}
	if v := ms[len(ms)-1].Version; v > current {
		return v
	}
	return current
}
