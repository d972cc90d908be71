package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/peterbourgon/ff/v4"

	"deskdir/pkg/config"
	"deskdir/pkg/customers"
	"deskdir/pkg/logging"
	"deskdir/process/sanitize"
)

func main() {
	var (
		dryRun *string
		yes    *bool
		tables *string
	)
	cfg, err := config.Load("cmd_sanitize", os.Args[1:], func(fs *ff.FlagSet) {
		dryRun = fs.StringLong("dry-run", "true", "don't perform destructive actions; show what would be done")
		yes = fs.BoolLong("yes", "confirm destructive action (required to actually truncate)")
		tables = fs.StringLong("tables", strings.Join(sanitize.DefaultTables, ","), "comma-separated list of tables to truncate")
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log := logging.New(cfg.LogLevel)
	if err := cfg.RequireDSN(); err != nil {
		log.Fatalw("configuration", "error", err)
	}
	db, err := customers.Open(cfg.DBDSN, false, log)
	if err != nil {
		log.Fatalw("open db", "error", err)
	}
	dry, err := strconv.ParseBool(*dryRun)
	if err != nil {
		log.Fatalw("invalid --dry-run", "value", *dryRun, "error", err)
	}
	opts := sanitize.Options{DryRun: dry, Yes: *yes, Tables: strings.Split(*tables, ",")}
	if err := sanitize.Run(context.Background(), db, opts, os.Stdout, log); err != nil {
		log.Fatalw("sanitize failed", "error", err)
	}
}
