package db

import (
	"fmt"
	"strings"
)

// migrations is an ordered list of SQL statements to run. The {{pk}},
// {{bool}} and {{timestamp}} markers are expanded per dialect.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS sites (
		id     INTEGER PRIMARY KEY,
		domain TEXT    NOT NULL,
		name   TEXT    NOT NULL
	)`,
	`INSERT INTO sites (id, domain, name) VALUES (1, 'example.com', 'example.com')
		ON CONFLICT (id) DO NOTHING`,
	`CREATE TABLE IF NOT EXISTS comments (
		id           {{pk}},
		content_type TEXT        NOT NULL,
		object_id    TEXT        NOT NULL,
		site_id      INTEGER     NOT NULL REFERENCES sites(id),
		free         {{bool}}    NOT NULL,
		user_id      INTEGER,
		person_name  TEXT        NOT NULL DEFAULT '',
		comment      TEXT        NOT NULL,
		ip_address   TEXT        NOT NULL DEFAULT '',
		submit_date  {{timestamp}} NOT NULL,
		is_public    {{bool}}    NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS comments_object_idx ON comments (content_type, object_id)`,
	`CREATE INDEX IF NOT EXISTS comments_public_date_idx ON comments (is_public, submit_date)`,
}

// expand replaces dialect markers in a migration statement.
func (d Dialect) expand(stmt string) string {
	pk, boolean, timestamp := "INTEGER PRIMARY KEY AUTOINCREMENT", "INTEGER", "DATETIME"
	if d == Postgres {
		pk, boolean, timestamp = "BIGSERIAL PRIMARY KEY", "BOOLEAN", "TIMESTAMPTZ"
	}
	return strings.NewReplacer(
		"{{pk}}", pk,
		"{{bool}}", boolean,
		"{{timestamp}}", timestamp,
	).Replace(stmt)
}

// migrate runs all migrations in order.
func migrate(d *DB) error {
	for i, m := range migrations {
		if _, err := d.DB.Exec(d.Dialect.expand(m)); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}

	// Column additions (idempotent, checks if column exists first)
	columnMigrations := []struct {
		table, column, definition string
	}{
		{"comments", "user_agent", "TEXT NOT NULL DEFAULT ''"},
		{"comments", "referrer", "TEXT NOT NULL DEFAULT ''"},
	}

	for _, cm := range columnMigrations {
		if err := addColumnIfNotExists(d, cm.table, cm.column, cm.definition); err != nil {
			return fmt.Errorf("adding %s.%s: %w", cm.table, cm.column, err)
		}
	}

	return nil
}

// addColumnIfNotExists adds a column to a table if it doesn't already exist.
func addColumnIfNotExists(d *DB, table, column, definition string) error {
	if d.Dialect == Postgres {
		_, err := d.DB.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s %s",
			d.Dialect.Quote(table), d.Dialect.Quote(column), definition))
		return err
	}

	rows, err := d.DB.Query(fmt.Sprintf("PRAGMA table_info(%s)", d.Dialect.Quote(table)))
	if err != nil {
		return fmt.Errorf("checking table info: %w", err)
	}

	exists := false
	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scanning column info: %w", err)
		}
		if name == column {
			exists = true
		}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("iterating columns: %w", err)
	}
	if err := rows.Close(); err != nil {
		return fmt.Errorf("closing rows: %w", err)
	}
	if exists {
		return nil
	}

	_, err = d.DB.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s",
		d.Dialect.Quote(table), d.Dialect.Quote(column), definition))
	return err
}
