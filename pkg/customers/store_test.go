package customers

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Store tests are opt-in. Set DB_DSN_TEST=1 and DB_DSN to run them against a
// disposable database; the customers table is truncated first.
func setupStore(t *testing.T) *Store {
	t.Helper()
	if os.Getenv("DB_DSN_TEST") != "1" {
		t.Skip("integration tests are disabled; set DB_DSN_TEST=1 to enable")
	}
	db, err := Open(os.Getenv("DB_DSN"), true, zap.NewNop().Sugar())
	require.NoError(t, err)
	require.NoError(t, db.Exec("TRUNCATE TABLE customers").Error)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return NewStore(db)
}

func TestStoreFullFlow(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	a, err := s.Create(ctx, Input{Name: "Bakery", AnydeskID: "111222333", Category: "Retail"})
	require.NoError(t, err)
	assert.Equal(t, "111 222 333", a.AnydeskID)
	b, err := s.Create(ctx, Input{Name: "Dentist", AnydeskID: "444 555 666"})
	require.NoError(t, err)
	assert.Equal(t, DefaultCategory, b.Category)

	_, err = s.Create(ctx, Input{Name: "Copy", AnydeskID: "111 222 333"})
	assert.ErrorIs(t, err, ErrDuplicateIdentifier)
	_, err = s.Create(ctx, Input{AnydeskID: "999888777"})
	assert.ErrorIs(t, err, ErrValidation)

	got, err := s.List(ctx, Filter{Search: "bak"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, a.ID, got[0].ID)

	got, err = s.List(ctx, Filter{Search: "555666"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, b.ID, got[0].ID)

	got, err = s.List(ctx, Filter{Search: "100%"})
	require.NoError(t, err)
	assert.Empty(t, got)

	cats, err := s.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Retail", DefaultCategory}, cats)

	notes := "front desk PC"
	upd, err := s.Update(ctx, b.ID, Patch{Notes: &notes, Category: "Health"})
	require.NoError(t, err)
	assert.Equal(t, "Dentist", upd.Name)
	assert.Equal(t, "Health", upd.Category)
	require.NotNil(t, upd.Notes)
	assert.Equal(t, notes, *upd.Notes)

	_, err = s.Update(ctx, b.ID, Patch{AnydeskID: "111222333"})
	assert.ErrorIs(t, err, ErrDuplicateIdentifier)

	found, err := s.FindByIdentifier(ctx, "444555666")
	require.NoError(t, err)
	assert.Equal(t, b.ID, found.ID)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	require.NoError(t, s.Delete(ctx, a.ID))
	assert.ErrorIs(t, s.Delete(ctx, a.ID), ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "not-a-uuid"), ErrNotFound)
	_, err = s.Update(ctx, a.ID, Patch{Name: "gone"})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(ctx, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

var (
	_ Repository = (*Store)(nil)
	_ Repository = (*Memory)(nil)
)
