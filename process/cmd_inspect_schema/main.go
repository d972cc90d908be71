package main

import (
	"context"
	"fmt"
	"os"

	"deskdir/pkg/config"
	"deskdir/process/schema"
)

func main() {
	cfg, err := config.Load("cmd_inspect_schema", os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := cfg.RequireDSN(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	db, err := schema.Open(cfg.DBDSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	indexes, err := schema.Indexes(context.Background(), db, "customers")
	if err != nil {
		fmt.Fprintf(os.Stderr, "inspect: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Indexes on customers:")
	for _, ix := range indexes {
		fmt.Printf("- %s\n    def: %s\n", ix.Name, ix.Definition)
	}
	if !schema.HasUniqueIdentifier(indexes) {
		fmt.Println("MISSING unique index on anydesk_id; run `deskdir migrate`")
		os.Exit(1)
	}
	fmt.Println("ok: anydesk_id is unique")
}
