package customers

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deskdir/models"
)

func newTestMemory() *Memory {
	m := NewMemory()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	m.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	return m
}

func strPtr(s string) *string { return &s }

func TestCanonicalIdentifier(t *testing.T) {
	cases := map[string]string{
		"123456789":       "123 456 789",
		" 123 456 789 ":   "123 456 789",
		"1234567890":      "1 234 567 890",
		"12-345-678-901":  "12 345 678 901",
		"12345":           "12345",
		"  alias@host  ":  "alias@host",
		"123456789012345": "123456789012345",
	}
	for in, want := range cases {
		assert.Equal(t, want, CanonicalIdentifier(in), "input %q", in)
	}
}

func TestMemoryCreate(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory()

	c, err := m.Create(ctx, Input{Name: "  Acme  ", AnydeskID: "123456789"})
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "Acme", c.Name)
	assert.Equal(t, "123 456 789", c.AnydeskID)
	assert.Equal(t, DefaultCategory, c.Category)
	assert.Nil(t, c.Notes)

	_, err = m.Create(ctx, Input{Name: "Other", AnydeskID: "123 456 789"})
	assert.ErrorIs(t, err, ErrDuplicateIdentifier)

	_, err = m.Create(ctx, Input{Name: "", AnydeskID: "987654321"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = m.Create(ctx, Input{Name: "NoID", AnydeskID: "   "})
	assert.ErrorIs(t, err, ErrValidation)

	n, err := m.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestMemoryListFilters(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory()
	first, err := m.Create(ctx, Input{Name: "Bakery North", AnydeskID: "111222333", Category: "Retail"})
	require.NoError(t, err)
	second, err := m.Create(ctx, Input{Name: "Dental Office", AnydeskID: "444555666", Category: "Health"})
	require.NoError(t, err)
	third, err := m.Create(ctx, Input{Name: "bakery south", AnydeskID: "777888999", Category: "Retail"})
	require.NoError(t, err)

	all, err := m.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{third.ID, second.ID, first.ID}, ids(all), "newest first")

	got, err := m.List(ctx, Filter{Search: "BAKERY"})
	require.NoError(t, err)
	assert.Equal(t, []string{third.ID, first.ID}, ids(got))

	got, err = m.List(ctx, Filter{Search: "555666"})
	require.NoError(t, err)
	assert.Equal(t, []string{second.ID}, ids(got), "compact digits match grouped id")

	got, err = m.List(ctx, Filter{Search: "444 555"})
	require.NoError(t, err)
	assert.Equal(t, []string{second.ID}, ids(got))

	got, err = m.List(ctx, Filter{Category: "Retail", Search: "north"})
	require.NoError(t, err)
	assert.Equal(t, []string{first.ID}, ids(got))

	got, err = m.List(ctx, Filter{Category: "retail"})
	require.NoError(t, err)
	assert.Empty(t, got, "category match is exact")
	assert.NotNil(t, got)
}

func TestMemoryListSameTimestampOrder(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return at }

	var want []string
	for i := 0; i < 8; i++ {
		c, err := m.Create(ctx, Input{Name: fmt.Sprintf("c%d", i), AnydeskID: fmt.Sprintf("%09d", 100000000+i)})
		require.NoError(t, err)
		want = append(want, c.ID)
	}
	sort.Strings(want)

	for i := 0; i < 5; i++ {
		got, err := m.List(ctx, Filter{})
		require.NoError(t, err)
		assert.Equal(t, want, ids(got))
	}
}

func TestMemoryUpdate(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory()
	a, err := m.Create(ctx, Input{Name: "A", AnydeskID: "111222333"})
	require.NoError(t, err)
	b, err := m.Create(ctx, Input{Name: "B", AnydeskID: "444555666", Notes: strPtr("keep")})
	require.NoError(t, err)

	got, err := m.Update(ctx, a.ID, Patch{Category: "VIP", Notes: strPtr("")})
	require.NoError(t, err)
	assert.Equal(t, "A", got.Name)
	assert.Equal(t, "VIP", got.Category)
	require.NotNil(t, got.Notes)
	assert.Equal(t, "", *got.Notes)
	assert.True(t, got.UpdatedAt.After(a.UpdatedAt))

	_, err = m.Update(ctx, a.ID, Patch{AnydeskID: "444 555 666"})
	assert.ErrorIs(t, err, ErrDuplicateIdentifier)

	got, err = m.Update(ctx, b.ID, Patch{AnydeskID: "444555666"})
	require.NoError(t, err, "re-saving own identifier is not a conflict")
	assert.Equal(t, "keep", *got.Notes)

	unchanged, err := m.Update(ctx, b.ID, Patch{})
	require.NoError(t, err)
	assert.Equal(t, got, unchanged)

	_, err = m.Update(ctx, "missing", Patch{Name: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryDeleteAndFind(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory()
	c, err := m.Create(ctx, Input{Name: "A", AnydeskID: "1234567890"})
	require.NoError(t, err)

	found, err := m.FindByIdentifier(ctx, "1 234 567 890")
	require.NoError(t, err)
	assert.Equal(t, c.ID, found.ID)

	require.NoError(t, m.Delete(ctx, c.ID))
	assert.ErrorIs(t, m.Delete(ctx, c.ID), ErrNotFound)

	_, err = m.Get(ctx, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.FindByIdentifier(ctx, "1234567890")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryCategories(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory()
	cats, err := m.Categories(ctx)
	require.NoError(t, err)
	assert.Empty(t, cats)

	for i, cat := range []string{"Retail", "", "Health", "Retail"} {
		_, err := m.Create(ctx, Input{Name: "c", AnydeskID: testIdentifier(i), Category: cat})
		require.NoError(t, err)
	}
	cats, err = m.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Health", "Retail", DefaultCategory}, cats)
}

func TestIsUniqueConstraintError(t *testing.T) {
	assert.False(t, isUniqueConstraintError(nil))
	assert.True(t, isUniqueConstraintError(errString(`ERROR: duplicate key value violates unique constraint "idx_customers_anydesk_id"`)))
	assert.False(t, isUniqueConstraintError(errString("connection refused")))
	assert.ErrorIs(t, translate(errString("duplicate key")), ErrDuplicateIdentifier)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\%\_off\\`, escapeLike(`50%_off\`))
}

type errString string

func (e errString) Error() string { return string(e) }

func testIdentifier(i int) string {
	return fmt.Sprintf("%09d", 100000000+i)
}

func ids(cs []models.Customer) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}
