// Package schema inspects the live customers table. Duplicate detection
// relies on the unique index over anydesk_id, so deployments that skipped
// migrations can be checked here.
package schema

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
)

// Index is one row of pg_indexes.
type Index struct {
	Name       string
	Definition string
}

var uniqueIdentifierRe = regexp.MustCompile(`(?i)^CREATE UNIQUE INDEX .* \(anydesk_id\)$`)

// Open connects with the pgx database/sql driver.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("dsn is required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return db, nil
}

// Indexes lists the indexes of table in the public schema.
func Indexes(ctx context.Context, db *sql.DB, table string) ([]Index, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT indexname, indexdef
		FROM pg_indexes
		WHERE schemaname = 'public' AND tablename = $1
		ORDER BY indexname`, table)
	if err != nil {
		return nil, fmt.Errorf("query indexes: %w", err)
	}
	defer rows.Close()

	var out []Index
	for rows.Next() {
		var ix Index
		if err := rows.Scan(&ix.Name, &ix.Definition); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, ix)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// HasUniqueIdentifier reports whether one of indexes enforces uniqueness on
// anydesk_id alone.
func HasUniqueIdentifier(indexes []Index) bool {
	for _, ix := range indexes {
		if uniqueIdentifierRe.MatchString(ix.Definition) {
			return true
		}
	}
	return false
}
