package customers

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"deskdir/models"
)

// Memory is an in-process Repository. It backs dry runs and tests and
// mirrors Store semantics, including the unique identifier constraint.
type Memory struct {
	mu   sync.RWMutex
	byID map[string]models.Customer
	now  func() time.Time
}

// NewMemory returns an empty Memory repository.
func NewMemory() *Memory {
	return &Memory{byID: make(map[string]models.Customer), now: time.Now}
}

func (m *Memory) List(_ context.Context, f Filter) ([]models.Customer, error) {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	compact := strings.Join(strings.Fields(search), "")

	m.mu.RLock()
	out := make([]models.Customer, 0, len(m.byID))
	for _, c := range m.byID {
		if f.Category != "" && c.Category != f.Category {
			continue
		}
		if search != "" && !matches(c, search, compact) {
			continue
		}
		out = append(out, c)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func matches(c models.Customer, search, compact string) bool {
	id := strings.ToLower(c.AnydeskID)
	return strings.Contains(strings.ToLower(c.Name), search) ||
		strings.Contains(id, search) ||
		strings.Contains(strings.ReplaceAll(id, " ", ""), compact)
}

func (m *Memory) Get(_ context.Context, id string) (models.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.byID[id]
	if !ok {
		return models.Customer{}, ErrNotFound
	}
	return c, nil
}

func (m *Memory) Create(_ context.Context, in Input) (models.Customer, error) {
	in, err := in.normalize()
	if err != nil {
		return models.Customer{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.identifierTaken(in.AnydeskID, "") {
		return models.Customer{}, ErrDuplicateIdentifier
	}
	now := m.now()
	c := models.Customer{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
		Name:      in.Name,
		AnydeskID: in.AnydeskID,
		Category:  in.Category,
		Notes:     in.Notes,
	}
	m.byID[c.ID] = c
	return c, nil
}

func (m *Memory) Update(_ context.Context, id string, p Patch) (models.Customer, error) {
	p = p.normalize()
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byID[id]
	if !ok {
		return models.Customer{}, ErrNotFound
	}
	if p.empty() {
		return c, nil
	}
	if p.AnydeskID != "" && m.identifierTaken(p.AnydeskID, id) {
		return models.Customer{}, ErrDuplicateIdentifier
	}
	if p.Name != "" {
		c.Name = p.Name
	}
	if p.AnydeskID != "" {
		c.AnydeskID = p.AnydeskID
	}
	if p.Category != "" {
		c.Category = p.Category
	}
	if p.Notes != nil {
		notes := *p.Notes
		c.Notes = &notes
	}
	c.UpdatedAt = m.now()
	m.byID[id] = c
	return c, nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *Memory) Categories(_ context.Context) ([]string, error) {
	m.mu.RLock()
	set := make(map[string]struct{})
	for _, c := range m.byID {
		set[c.Category] = struct{}{}
	}
	m.mu.RUnlock()
	cats := make([]string, 0, len(set))
	for c := range set {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	return cats, nil
}

func (m *Memory) FindByIdentifier(_ context.Context, anydeskID string) (models.Customer, error) {
	want := CanonicalIdentifier(anydeskID)
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.byID {
		if c.AnydeskID == want {
			return c, nil
		}
	}
	return models.Customer{}, ErrNotFound
}

// Count returns the number of stored customers.
func (m *Memory) Count(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.byID)), nil
}

// identifierTaken reports whether another customer than except uses id.
// Callers hold m.mu.
func (m *Memory) identifierTaken(id, except string) bool {
	for _, c := range m.byID {
		if c.AnydeskID == id && c.ID != except {
			return true
		}
	}
	return false
}
