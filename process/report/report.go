// Package report summarizes the customer directory per category.
package report

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"deskdir/models"
	"deskdir/pkg/customers"
)

// CategoryCount is one line of the report.
type CategoryCount struct {
	Category  string
	Customers int
}

// Report is the customer directory at a point in time.
type Report struct {
	Total      int
	Categories []CategoryCount
	// Rows is filled only when the caller asked for a listing.
	Rows []models.Customer
}

// Build counts customers per category, optionally restricted by f.
func Build(ctx context.Context, repo customers.Repository, f customers.Filter, list bool) (Report, error) {
	rows, err := repo.List(ctx, f)
	if err != nil {
		return Report{}, err
	}
	counts := map[string]int{}
	for _, c := range rows {
		counts[c.Category]++
	}
	r := Report{Total: len(rows)}
	for cat, n := range counts {
		r.Categories = append(r.Categories, CategoryCount{Category: cat, Customers: n})
	}
	sort.Slice(r.Categories, func(i, j int) bool {
		if r.Categories[i].Customers != r.Categories[j].Customers {
			return r.Categories[i].Customers > r.Categories[j].Customers
		}
		return r.Categories[i].Category < r.Categories[j].Category
	})
	if list {
		r.Rows = rows
	}
	return r, nil
}

// Write prints r in the plain text format used by the CLI.
func Write(w io.Writer, r Report) {
	fmt.Fprintf(w, "Customer report: total=%d categories=%d\n", r.Total, len(r.Categories))
	for _, c := range r.Categories {
		fmt.Fprintf(w, "  %-24s %d\n", c.Category, c.Customers)
	}
	for _, c := range r.Rows {
		fmt.Fprintf(w, "%s|%s|%s|%s|%s\n", c.ID, c.Name, c.AnydeskID, c.Category, c.CreatedAt.Format(time.RFC3339))
	}
}
