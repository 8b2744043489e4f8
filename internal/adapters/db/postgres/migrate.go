package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// migrationLockKey is the advisory lock held while migrations run
const migrationLockKey = 42

// migration is one numbered *.sql file
type migration struct {
	version int
	name    string
	path    string
}

// RunMigrations applies *.sql files in dir in numeric order (prefix before first underscore) using schema_migrations table.
func RunMigrations(ctx context.Context, db *sql.DB, dir string) error {
	if _, err := db.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, migrationLockKey); err != nil {
		return fmt.Errorf("acquire migration lock: %w", err)
	}
	defer func() {
		_, _ = db.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, migrationLockKey)
	}()

	applied, err := appliedVersions(ctx, db)
	if err != nil {
		return err
	}

	migrations, err := listMigrations(dir)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if applied[m.version] {
			continue
		}
		if err := apply(ctx, db, m); err != nil {
			return err
		}
		log.Info().Int("version", m.version).Str("file", m.name).Msg("migration applied")
	}
	return nil
}

// appliedVersions reads schema_migrations. A missing table means nothing was applied yet.
func appliedVersions(ctx context.Context, db *sql.DB) (map[int]bool, error) {
	applied := map[int]bool{}
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return applied, nil
	}
	defer func() {
		_ = rows.Close()
	}()
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan migration version: %w", err)
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

func listMigrations(dir string) ([]migration, error) {
	var out []migration
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".sql") {
			return nil
		}
		version, ok := parseVersion(d.Name())
		if !ok {
			log.Warn().Str("file", d.Name()).Msg("skipping migration without numeric prefix")
			return nil
		}
		out = append(out, migration{version: version, name: d.Name(), path: path})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
}

// parseVersion reads the numeric prefix of names like 001_init.sql
func parseVersion(name string) (int, bool) {
	v, err := strconv.Atoi(strings.SplitN(name, "_", 2)[0])
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

func apply(ctx context.Context, db *sql.DB, m migration) error {
	sqlBytes, err := os.ReadFile(m.path)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", m.name, err)
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, string(sqlBytes)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("exec migration %s: %w", m.name, err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, m.version); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("record migration %s: %w", m.name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", m.name, err)
	}
	return nil
}
