// Package sqlstore is a CounterStore backed by a table in a SQL database.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"go.hackfix.me/scriptomate/db"
	"go.hackfix.me/scriptomate/db/types"
	"go.hackfix.me/scriptomate/sequence"
)

// DefaultTable is the default name of the counters table.
const DefaultTable = "SequenceNumbers"

// Store keeps one row per sequence key, with a version column used for
// conditional updates.
type Store struct {
	db    *db.DB
	table string
}

var _ sequence.CounterStore = (*Store)(nil)

// New returns a new Store that uses the given table, or DefaultTable if empty.
func New(d *db.DB, table string) *Store {
	if table == "" {
		table = DefaultTable
	}
	return &Store{db: d, table: table}
}

func (s *Store) ph(n int) string {
	return s.db.Driver().Placeholder(n)
}

// EnsureTable creates the counters table if it doesn't exist.
func (s *Store) EnsureTable(ctx context.Context) error {
	var stmt string
	switch s.db.Driver() {
	case db.DriverSQLServer:
		stmt = fmt.Sprintf(`IF OBJECT_ID(N'%[1]s', N'U') IS NULL
CREATE TABLE %[1]s (
  SequenceKey NVARCHAR(255) NOT NULL PRIMARY KEY,
  Number      NVARCHAR(50)  NOT NULL,
  Version     BIGINT        NOT NULL
)`, s.table)
	default:
		stmt = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  SequenceKey VARCHAR(255) NOT NULL PRIMARY KEY,
  Number      VARCHAR(50)  NOT NULL,
  Version     BIGINT       NOT NULL
)`, s.table)
	}

	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed creating table %s: %w", s.table, err)
	}

	return nil
}

// Load implements sequence.CounterStore.
func (s *Store) Load(ctx context.Context, key string) (sequence.Counter, error) {
	var (
		number  string
		version int64
	)
	//nolint:gosec // The table name comes from configuration.
	query := fmt.Sprintf(`SELECT Number, Version FROM %s WHERE SequenceKey = %s`, s.table, s.ph(1))
	err := s.db.QueryRowContext(ctx, query, key).Scan(&number, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return sequence.Counter{Key: key}, nil
	}
	if err != nil {
		return sequence.Counter{}, &types.LoadError{ModelName: "sequence counter", Err: err}
	}

	return sequence.Counter{
		Key:    key,
		Number: number,
		Tag:    strconv.FormatInt(version, 10),
		Exists: true,
	}, nil
}

// Save implements sequence.CounterStore.
func (s *Store) Save(ctx context.Context, c sequence.Counter, next string) error {
	if !c.Exists {
		//nolint:gosec // The table name comes from configuration.
		stmt := fmt.Sprintf(`INSERT INTO %s (SequenceKey, Number, Version) VALUES (%s, %s, 1)`,
			s.table, s.ph(1), s.ph(2))
		_, err := s.db.ExecContext(ctx, stmt, c.Key, next)
		if err != nil {
			if types.IsUniqueViolation(err) {
				return sequence.ErrConcurrencyConflict
			}
			return fmt.Errorf("failed inserting counter: %w", err)
		}
		return nil
	}

	version, err := strconv.ParseInt(c.Tag, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid counter version '%s': %w", c.Tag, err)
	}

	//nolint:gosec // The table name comes from configuration.
	stmt := fmt.Sprintf(`UPDATE %s SET Number = %s, Version = %s WHERE SequenceKey = %s AND Version = %s`,
		s.table, s.ph(1), s.ph(2), s.ph(3), s.ph(4))
	res, err := s.db.ExecContext(ctx, stmt, next, version+1, c.Key, version)
	if err != nil {
		return fmt.Errorf("failed updating counter: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed updating counter: %w", err)
	}
	if n == 0 {
		return sequence.ErrConcurrencyConflict
	}

	return nil
}
