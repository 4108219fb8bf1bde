package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// schema creates the standings table. The statement is portable between
// SQLite and PostgreSQL.
const schema = `
CREATE TABLE IF NOT EXISTS standings (
    steam_id       TEXT PRIMARY KEY,
    name           TEXT NOT NULL,
    short_name     TEXT NOT NULL,
    points         INTEGER NOT NULL DEFAULT 0,
    pole_positions INTEGER NOT NULL DEFAULT 0,
    fastest_laps   INTEGER NOT NULL DEFAULT 0
)`

// counterColumns were added after the first release; tables created by it
// only carry steam_id, name, short_name and points.
var counterColumns = []string{"pole_positions", "fastest_laps"}

const columns = "steam_id, name, short_name, points, pole_positions, fastest_laps"

const upsertSQL = `
INSERT INTO standings (` + columns + `)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (steam_id) DO UPDATE SET
    name           = excluded.name,
    short_name     = excluded.short_name,
    points         = excluded.points,
    pole_positions = excluded.pole_positions,
    fastest_laps   = excluded.fastest_laps`

// dialect captures the differences between the supported drivers.
type dialect struct {
	name string
	// driver is the database/sql driver name.
	driver string
	// numbered reports whether placeholders are $1, $2, ... instead of ?.
	numbered bool
	// lockSQL serializes ingestions; empty when the connection pool does.
	lockSQL string
}

var dialects = map[string]dialect{
	"sqlite": {
		name:   "sqlite",
		driver: "sqlite",
	},
	"postgres": {
		name:     "postgres",
		driver:   "postgres",
		numbered: true,
		lockSQL:  "LOCK TABLE standings IN SHARE ROW EXCLUSIVE MODE",
	},
}

// rebind rewrites ? placeholders for drivers that use numbered parameters.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// migrate creates the table and adds any counter column missing from a
// table created by an older release.
func (d dialect) migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	if d.name == "postgres" {
		for _, col := range counterColumns {
			stmt := fmt.Sprintf("ALTER TABLE standings ADD COLUMN IF NOT EXISTS %s INTEGER NOT NULL DEFAULT 0", col)
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("add column %s: %w", col, err)
			}
		}
		return nil
	}

	existing, err := sqliteColumns(ctx, db)
	if err != nil {
		return err
	}
	for _, col := range counterColumns {
		if existing[col] {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE standings ADD COLUMN %s INTEGER NOT NULL DEFAULT 0", col)
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("add column %s: %w", col, err)
		}
	}
	return nil
}

func sqliteColumns(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, `SELECT name FROM pragma_table_info('standings')`)
	if err != nil {
		return nil, fmt.Errorf("table info: %w", err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table info: %w", err)
		}
		cols[name] = true
	}
	return cols, rows.Err()
}
