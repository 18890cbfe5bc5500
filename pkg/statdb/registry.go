// Package statdb is the global stat-definition registry. Definitions live
// in a SQLite table and are mirrored in memory for lookups on the command
// path.
package statdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/crystal-mush/rpkit/pkg/gamedb"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS stat_defs (
	category      TEXT NOT NULL,
	stat_type     TEXT NOT NULL,
	name          TEXT NOT NULL,
	default_value INTEGER NOT NULL DEFAULT 0,
	perm_values   TEXT NOT NULL DEFAULT '',
	temp_values   TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (category, stat_type, name)
)`

const upsert = `INSERT INTO stat_defs (category, stat_type, name, default_value, perm_values, temp_values)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (category, stat_type, name) DO UPDATE SET
	default_value = excluded.default_value,
	perm_values   = excluded.perm_values,
	temp_values   = excluded.temp_values`

// Registry manages the stat_defs table.
type Registry struct {
	db     *sql.DB
	path   string
	logger *zap.Logger

	mu    sync.RWMutex
	cache map[gamedb.StatKey]gamedb.StatDef
}

// Open opens (or creates) the registry database at path.
func Open(path string, logger *zap.Logger) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("statdb: open %s: %w", path, err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("statdb: setting WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("statdb: setting busy timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("statdb: create schema: %w", err)
	}
	r := &Registry{
		db:     db,
		path:   path,
		logger: logger.Named("statdb"),
	}
	if err := r.reload(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

// Close closes the database connection.
func (r *Registry) Close() error {
	return r.db.Close()
}

// Path returns the filesystem path of the registry database.
func (r *Registry) Path() string { return r.path }

// Put inserts or replaces a definition.
func (r *Registry) Put(ctx context.Context, defs ...gamedb.StatDef) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("statdb: begin: %w", err)
	}
	for _, def := range defs {
		if def.Name == "" || def.Category == "" || def.Type == "" {
			tx.Rollback()
			return fmt.Errorf("statdb: definition %q: category, type and name are required", def.Key())
		}
		if _, err := tx.ExecContext(ctx, upsert,
			def.Category, def.Type, def.Name, def.Default,
			joinInts(def.PermValues), joinInts(def.TempValues)); err != nil {
			tx.Rollback()
			return fmt.Errorf("statdb: put %s: %w", def.Key(), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("statdb: commit: %w", err)
	}
	return r.reload(ctx)
}

// Lookup reads one definition from the database.
func (r *Registry) Lookup(ctx context.Context, key gamedb.StatKey) (gamedb.StatDef, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT category, stat_type, name, default_value, perm_values, temp_values
		 FROM stat_defs WHERE category = ? AND stat_type = ? AND name = ?`,
		key.Category, key.Type, key.Name)
	def, err := scanDef(row)
	if errors.Is(err, sql.ErrNoRows) {
		return gamedb.StatDef{}, gamedb.ErrNotFound
	}
	if err != nil {
		return gamedb.StatDef{}, fmt.Errorf("statdb: lookup %s: %w", key, err)
	}
	return def, nil
}

// StatDef returns the cached definition for (category, type, name).
func (r *Registry) StatDef(category, statType, name string) (gamedb.StatDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.cache[gamedb.StatKey{Category: category, Type: statType, Name: name}]
	return def, ok
}

// Snapshot writes a consistent copy of the database to dest, which must
// not exist.
func (r *Registry) Snapshot(ctx context.Context, dest string) error {
	if _, err := r.db.ExecContext(ctx, "VACUUM INTO ?", dest); err != nil {
		return fmt.Errorf("statdb: snapshot to %s: %w", dest, err)
	}
	return nil
}

// Len returns the number of cached definitions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cache)
}

func (r *Registry) reload(ctx context.Context) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT category, stat_type, name, default_value, perm_values, temp_values FROM stat_defs`)
	if err != nil {
		return fmt.Errorf("statdb: load: %w", err)
	}
	defer rows.Close()

	cache := make(map[gamedb.StatKey]gamedb.StatDef)
	for rows.Next() {
		def, err := scanDef(rows)
		if err != nil {
			return fmt.Errorf("statdb: load: %w", err)
		}
		cache[def.Key()] = def
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("statdb: load: %w", err)
	}

	r.mu.Lock()
	r.cache = cache
	r.mu.Unlock()
	r.logger.Debug("definitions loaded", zap.Int("count", len(cache)))
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDef(s scanner) (gamedb.StatDef, error) {
	var def gamedb.StatDef
	var perm, temp string
	if err := s.Scan(&def.Category, &def.Type, &def.Name, &def.Default, &perm, &temp); err != nil {
		return def, err
	}
	var err error
	if def.PermValues, err = splitInts(perm); err != nil {
		return def, fmt.Errorf("perm_values of %s: %w", def.Key(), err)
	}
	if def.TempValues, err = splitInts(temp); err != nil {
		return def, fmt.Errorf("temp_values of %s: %w", def.Key(), err)
	}
	return def, nil
}

func joinInts(vals []int) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func splitInts(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
