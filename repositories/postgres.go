// Package repositories implements the engine's storage interface on
// PostgreSQL. Slots, settings and user-defined extra fields are stored as
// JSONB, so unknown keys survive every round-trip.
package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Dosada05/bracket-engine/storage"
)

type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// PostgresStorage implements storage.Storage on a PostgreSQL database.
type PostgresStorage struct {
	db *sql.DB
}

var _ storage.Storage = (*PostgresStorage)(nil)

func NewPostgresStorage(db *sql.DB) *PostgresStorage {
	return &PostgresStorage{db: db}
}

// Schema is the DDL the storage expects. The demo server applies it on
// startup; production deployments run it as a migration.
const Schema = `
CREATE TABLE IF NOT EXISTS participants (
	id            SERIAL PRIMARY KEY,
	tournament_id INTEGER NOT NULL,
	name          TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS stages (
	id            SERIAL PRIMARY KEY,
	tournament_id INTEGER NOT NULL,
	name          TEXT NOT NULL,
	type          TEXT NOT NULL,
	number        INTEGER NOT NULL,
	settings      JSONB NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS stage_groups (
	id       SERIAL PRIMARY KEY,
	stage_id INTEGER NOT NULL REFERENCES stages (id) ON DELETE CASCADE,
	number   INTEGER NOT NULL,
	UNIQUE (stage_id, number)
);

CREATE TABLE IF NOT EXISTS rounds (
	id       SERIAL PRIMARY KEY,
	stage_id INTEGER NOT NULL REFERENCES stages (id) ON DELETE CASCADE,
	group_id INTEGER NOT NULL REFERENCES stage_groups (id) ON DELETE CASCADE,
	number   INTEGER NOT NULL,
	UNIQUE (group_id, number)
);

CREATE TABLE IF NOT EXISTS matches (
	id          SERIAL PRIMARY KEY,
	stage_id    INTEGER NOT NULL REFERENCES stages (id) ON DELETE CASCADE,
	group_id    INTEGER NOT NULL REFERENCES stage_groups (id) ON DELETE CASCADE,
	round_id    INTEGER NOT NULL REFERENCES rounds (id) ON DELETE CASCADE,
	number      INTEGER NOT NULL,
	child_count INTEGER NOT NULL DEFAULT 0,
	status      INTEGER NOT NULL,
	opponent1   JSONB,
	opponent2   JSONB,
	extras      JSONB NOT NULL DEFAULT '{}',
	UNIQUE (round_id, number)
);

CREATE TABLE IF NOT EXISTS match_games (
	id        SERIAL PRIMARY KEY,
	stage_id  INTEGER NOT NULL REFERENCES stages (id) ON DELETE CASCADE,
	parent_id INTEGER NOT NULL REFERENCES matches (id) ON DELETE CASCADE,
	number    INTEGER NOT NULL,
	status    INTEGER NOT NULL,
	opponent1 JSONB,
	opponent2 JSONB,
	extras    JSONB NOT NULL DEFAULT '{}',
	UNIQUE (parent_id, number)
);
`

// ApplySchema creates the tables when they do not exist yet.
func (r *PostgresStorage) ApplySchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// filterClause builds a WHERE clause from (column, value) pairs where the
// value pointer may be nil.
type filterClause struct {
	conditions []string
	args       []interface{}
}

func (f *filterClause) add(column string, value *int) {
	if value == nil {
		return
	}
	f.args = append(f.args, *value)
	f.conditions = append(f.conditions, column+" = $"+strconv.Itoa(len(f.args)))
}

func (f *filterClause) addString(column string, value *string) {
	if value == nil {
		return
	}
	f.args = append(f.args, *value)
	f.conditions = append(f.conditions, column+" = $"+strconv.Itoa(len(f.args)))
}

func (f *filterClause) where() string {
	if len(f.conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(f.conditions, " AND ")
}

// syncSequence realigns a table's id sequence after rows were inserted
// with explicit ids (the dataset import does that).
func (r *PostgresStorage) syncSequence(ctx context.Context, table string) error {
	query := fmt.Sprintf(
		"SELECT setval(pg_get_serial_sequence('%s', 'id'), (SELECT COALESCE(MAX(id), 1) FROM %s))",
		table, table,
	)
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to sync sequence of %s: %w", table, err)
	}
	return nil
}

func checkAffectedRows(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}

// jsonColumn marshals a nullable value to a JSONB column.
func jsonColumn(v interface{}, isNil bool) (interface{}, error) {
	if isNil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func scanJSON(raw []byte, target interface{}) error {
	if raw == nil {
		return nil
	}
	return json.Unmarshal(raw, target)
}
