package db

import (
	"database/sql"
	"embed"
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/chronicle/errors"
	"github.com/teranos/chronicle/logger"
)

//go:embed sqlite/migrations/*.sql
var migrations embed.FS

const migrationsDir = "sqlite/migrations"

// migration is one embedded schema file; version is its numeric prefix
type migration struct {
	version string
	file    string
}

// pending lists the embedded migrations in version order
func pending() ([]migration, error) {
	entries, err := migrations.ReadDir(migrationsDir)
	if err != nil {
		return nil, errors.Wrap(err, "read migrations")
	}
	var list []migration
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		version, _, _ := strings.Cut(e.Name(), "_")
		list = append(list, migration{version: version, file: e.Name()})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].version < list[j].version })
	return list, nil
}

// applied reports whether m has run. Before 000 creates schema_migrations
// the lookup fails, which only migration 000 may tolerate.
func applied(conn *sql.DB, m migration) (bool, error) {
	var exists bool
	err := conn.QueryRow("SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = ?)", m.version).Scan(&exists)
	switch {
	case err == nil:
		return exists, nil
	case IsDatabaseClosed(err):
		return false, errors.Mark(errors.Wrap(err, "check migrations"), ErrDatabaseClosed)
	case m.version == "000":
		return false, nil
	default:
		return false, errors.Newf("schema_migrations table missing, but migration is not 000: %s", m.file)
	}
}

// apply runs m and records it in one transaction
func apply(conn *sql.DB, m migration) error {
	body, err := migrations.ReadFile(path.Join(migrationsDir, m.file))
	if err != nil {
		return errors.Wrapf(err, "read %s", m.file)
	}
	tx, err := conn.Begin()
	if err != nil {
		return errors.Wrapf(err, "begin tx for %s", m.file)
	}
	if _, err := tx.Exec(string(body)); err != nil {
		_ = tx.Rollback()
		return errors.Wrapf(err, "execute %s", m.file)
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", m.version); err != nil {
		_ = tx.Rollback()
		return errors.Wrapf(err, "record %s", m.file)
	}
	return errors.Wrapf(tx.Commit(), "commit %s", m.file)
}

// Migrate brings the cache schema up to date. A nil log runs silently.
func Migrate(conn *sql.DB, log *zap.SugaredLogger) error {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	list, err := pending()
	if err != nil {
		return err
	}

	ran := 0
	for _, m := range list {
		done, err := applied(conn, m)
		if err != nil {
			return err
		}
		if done {
			continue
		}
		log.Debugw("Applying migration", logger.FieldFile, m.file)
		if err := apply(conn, m); err != nil {
			return err
		}
		ran++
	}

	logger.AddDBSymbol(log).Debugw("Cache schema ready", logger.FieldCount, len(list), "applied", ran)
	return nil
}
