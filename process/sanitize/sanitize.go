// Package sanitize empties application tables. It refuses to do anything
// destructive unless dry-run is off and the caller confirmed.
package sanitize

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultTables are the tables owned by the application.
var DefaultTables = []string{"customers"}

// ErrNotConfirmed is returned when a destructive run lacks confirmation.
var ErrNotConfirmed = errors.New("destructive operation: pass --yes to confirm")

var tableNameRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Options controls Run.
type Options struct {
	DryRun bool
	Yes    bool
	Tables []string
}

// ValidTables trims names and drops anything that is not a plain SQL
// identifier. Rejected names are returned separately.
func ValidTables(names []string) (valid, rejected []string) {
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if !tableNameRe.MatchString(n) {
			rejected = append(rejected, n)
			continue
		}
		valid = append(valid, n)
	}
	return valid, rejected
}

// TruncateStatement builds the TRUNCATE for already validated names.
func TruncateStatement(tables []string) string {
	quoted := make([]string, len(tables))
	for i, t := range tables {
		quoted[i] = `"` + t + `"`
	}
	return fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", strings.Join(quoted, ", "))
}

// Run truncates the requested tables that exist in the public schema and
// reports its plan to out.
func Run(ctx context.Context, db *gorm.DB, opts Options, out io.Writer, log *zap.SugaredLogger) error {
	tables := opts.Tables
	if len(tables) == 0 {
		tables = DefaultTables
	}
	wanted, rejected := ValidTables(tables)
	for _, r := range rejected {
		log.Warnw("skipping invalid table name", "table", r)
	}

	var existing []string
	for _, t := range wanted {
		var cnt int64
		if err := db.WithContext(ctx).Raw("SELECT count(*) FROM pg_tables WHERE schemaname = 'public' AND tablename = ?", t).Scan(&cnt).Error; err != nil {
			return fmt.Errorf("query pg_tables for %s: %w", t, err)
		}
		if cnt == 0 {
			log.Infow("table not found, skipping", "table", t)
			continue
		}
		existing = append(existing, t)
	}
	if len(existing) == 0 {
		fmt.Fprintln(out, "no requested tables present in the database; nothing to do")
		return nil
	}

	fmt.Fprintln(out, "Tables considered for truncation:")
	for _, t := range existing {
		fmt.Fprintf(out, " - %s\n", t)
	}
	if opts.DryRun {
		fmt.Fprintln(out, "dry-run enabled; no changes will be made. Use --dry-run=false --yes to execute.")
		return nil
	}
	if !opts.Yes {
		return ErrNotConfirmed
	}

	stmt := TruncateStatement(existing)
	log.Infow("executing", "statement", stmt)
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := db.WithContext(ctx).Exec(stmt).Error; err != nil {
		return fmt.Errorf("truncate: %w", err)
	}
	fmt.Fprintln(out, "Truncate completed.")
	return nil
}
