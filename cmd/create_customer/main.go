package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/peterbourgon/ff/v4"

	"deskdir/pkg/config"
	"deskdir/pkg/customers"
	"deskdir/pkg/logging"
)

func main() {
	var category, notes *string
	cfg, err := config.Load("create_customer", os.Args[1:], func(fs *ff.FlagSet) {
		category = fs.StringLong("category", "", "customer category (default Uncategorized)")
		notes = fs.StringLong("notes", "", "free-form notes")
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if len(cfg.Args) < 2 {
		fmt.Println("usage: go run ./cmd/create_customer [--category C] [--notes N] <name> <anydesk-id>")
		os.Exit(2)
	}
	log := logging.New(cfg.LogLevel)
	if err := cfg.RequireDSN(); err != nil {
		log.Fatalw("configuration", "error", err)
	}
	db, err := customers.Open(cfg.DBDSN, cfg.AutoMigrate, log)
	if err != nil {
		log.Fatalw("open db", "error", err)
	}

	in := customers.Input{Name: cfg.Args[0], AnydeskID: cfg.Args[1], Category: *category}
	if *notes != "" {
		in.Notes = notes
	}
	ctx := context.Background()
	store := customers.NewStore(db)
	c, err := store.Create(ctx, in)
	if errors.Is(err, customers.ErrDuplicateIdentifier) {
		existing, ferr := store.FindByIdentifier(ctx, in.AnydeskID)
		if ferr == nil {
			fmt.Printf("AnyDesk ID %s already belongs to %q (id=%s)\n", existing.AnydeskID, existing.Name, existing.ID)
			os.Exit(0)
		}
	}
	if err != nil {
		log.Fatalw("failed to create customer", "error", err)
	}
	fmt.Printf("created customer %q anydesk=%s id=%s\n", c.Name, c.AnydeskID, c.ID)
}
