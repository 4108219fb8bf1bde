package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// NoLimit makes List return every row.
const NoLimit = -1

// Standing is one driver's cumulative league record.
type Standing struct {
	DriverID      string
	FullName      string
	ShortName     string
	Points        int
	PolePositions int
	FastestLaps   int
}

// Store persists driver standings in a single SQL table.
type Store struct {
	db      *sql.DB
	dialect dialect
}

// Open connects to the database, verifies the connection and migrates the
// schema. driver is "sqlite" or "postgres".
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("store: unsupported driver %q", driver)
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	if d.name == "sqlite" {
		// One connection serializes transactions and keeps a :memory:
		// database alive for the lifetime of the Store.
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: set busy timeout: %w", err)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping database: %w", err)
	}

	if err := d.migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}

	return &Store{db: db, dialect: d}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// List returns standings ordered by points, highest first, truncated to limit
// rows unless limit is NoLimit. Rows with equal points come back in whatever
// order the database produces.
func (s *Store) List(ctx context.Context, limit int) ([]Standing, error) {
	query := `SELECT ` + columns + ` FROM standings ORDER BY points DESC`
	args := []interface{}{}
	if limit >= 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("store: query standings: %w", err)
	}
	defer rows.Close()

	out := make([]Standing, 0)
	for rows.Next() {
		st, err := scanStanding(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate standings: %w", err)
	}
	return out, nil
}

// Count returns the number of drivers in the table.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM standings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count standings: %w", err)
	}
	return n, nil
}

// Update runs fn against every current row inside one transaction and then
// upserts the rows fn touched. If fn or any write fails nothing is committed.
//
// Concurrent Update calls serialize: SQLite through its single connection,
// PostgreSQL through a table lock taken before the rows are read.
func (s *Store) Update(ctx context.Context, fn func(*Batch) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				slog.Error("store: rollback failed", "err", rbErr)
			}
		}
	}()

	if s.dialect.lockSQL != "" {
		if _, err := tx.ExecContext(ctx, s.dialect.lockSQL); err != nil {
			return fmt.Errorf("store: lock standings: %w", err)
		}
	}

	existing, err := s.loadAll(ctx, tx)
	if err != nil {
		return err
	}

	b := newBatch(existing)
	if err := fn(b); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, s.dialect.rebind(upsertSQL))
	if err != nil {
		return fmt.Errorf("store: prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, st := range b.Touched() {
		if _, err := stmt.ExecContext(ctx,
			st.DriverID, st.FullName, st.ShortName,
			st.Points, st.PolePositions, st.FastestLaps,
		); err != nil {
			return fmt.Errorf("store: upsert %s: %w", st.DriverID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

func (s *Store) loadAll(ctx context.Context, tx *sql.Tx) ([]Standing, error) {
	rows, err := tx.QueryContext(ctx, `SELECT `+columns+` FROM standings`)
	if err != nil {
		return nil, fmt.Errorf("store: load standings: %w", err)
	}
	defer rows.Close()

	var out []Standing
	for rows.Next() {
		st, err := scanStanding(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: load standings: %w", err)
	}
	return out, nil
}

func scanStanding(rows *sql.Rows) (Standing, error) {
	var st Standing
	if err := rows.Scan(&st.DriverID, &st.FullName, &st.ShortName,
		&st.Points, &st.PolePositions, &st.FastestLaps); err != nil {
		return Standing{}, fmt.Errorf("store: scan standing: %w", err)
	}
	return st, nil
}
