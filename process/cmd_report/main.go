package main

import (
	"context"
	"fmt"
	"os"

	"github.com/peterbourgon/ff/v4"

	"deskdir/pkg/config"
	"deskdir/pkg/customers"
	"deskdir/pkg/logging"
	"deskdir/process/report"
)

func main() {
	var (
		category, search *string
		list             *bool
	)
	cfg, err := config.Load("cmd_report", os.Args[1:], func(fs *ff.FlagSet) {
		category = fs.StringLong("category", "", "only report this category")
		search = fs.StringLong("search", "", "only report customers whose name or AnyDesk ID contains this")
		list = fs.BoolLong("list", "list matching rows")
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

	r, err := report.Build(context.Background(), customers.NewStore(db), customers.Filter{Category: *category, Search: *search}, *list)
	if err != nil {
		log.Fatalw("report failed", "error", err)
	}
	report.Write(os.Stdout, r)
}
