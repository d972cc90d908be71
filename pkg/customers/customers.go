// Package customers persists customer records and enforces identifier
// uniqueness.
package customers

import (
	"context"
	"strings"

	"deskdir/models"
	"deskdir/pkg/ocr"
)

// DefaultCategory is used when a customer is created without one.
const DefaultCategory = "Uncategorized"

// Filter narrows List. Search matches name or AnydeskID case-insensitively;
// Category must match exactly.
type Filter struct {
	Search   string
	Category string
}

// Input describes a new customer. Name and AnydeskID are required.
type Input struct {
	Name      string
	AnydeskID string
	Category  string
	Notes     *string
}

// Patch describes a partial update. Empty strings and a nil Notes leave the
// field unchanged.
type Patch struct {
	Name      string
	AnydeskID string
	Category  string
	Notes     *string
}

// Repository is the persistence boundary used by the HTTP layer and tools.
type Repository interface {
	List(ctx context.Context, f Filter) ([]models.Customer, error)
	Get(ctx context.Context, id string) (models.Customer, error)
	Create(ctx context.Context, in Input) (models.Customer, error)
	Update(ctx context.Context, id string, p Patch) (models.Customer, error)
	Delete(ctx context.Context, id string) error
	Categories(ctx context.Context) ([]string, error)
	FindByIdentifier(ctx context.Context, anydeskID string) (models.Customer, error)
	Count(ctx context.Context) (int64, error)
}

// CanonicalIdentifier trims s and, when it carries 9-11 digits, returns the
// grouped form so "123456789" and "123 456 789" collide on the unique index.
func CanonicalIdentifier(s string) string {
	s = strings.TrimSpace(s)
	digits := ocr.NormalizeIdentifier(s)
	if n := len(digits); n >= ocr.MinIdentifierDigits && n <= ocr.MaxIdentifierDigits {
		return ocr.FormatIdentifier(digits)
	}
	return s
}

func (in Input) normalize() (Input, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.AnydeskID = CanonicalIdentifier(in.AnydeskID)
	in.Category = strings.TrimSpace(in.Category)
	if in.Name == "" || in.AnydeskID == "" {
		return Input{}, errRequiredFields
	}
	if in.Category == "" {
		in.Category = DefaultCategory
	}
	return in, nil
}

func (p Patch) normalize() Patch {
	p.Name = strings.TrimSpace(p.Name)
	p.AnydeskID = CanonicalIdentifier(p.AnydeskID)
	p.Category = strings.TrimSpace(p.Category)
	return p
}

func (p Patch) empty() bool {
	return p.Name == "" && p.AnydeskID == "" && p.Category == "" && p.Notes == nil
}
