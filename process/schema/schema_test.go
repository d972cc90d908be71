package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasUniqueIdentifier(t *testing.T) {
	migrated := []Index{
		{Name: "customers_pkey", Definition: "CREATE UNIQUE INDEX customers_pkey ON public.customers USING btree (id)"},
		{Name: "idx_customers_anydesk_id", Definition: "CREATE UNIQUE INDEX idx_customers_anydesk_id ON public.customers USING btree (anydesk_id)"},
	}
	assert.True(t, HasUniqueIdentifier(migrated))

	plain := []Index{
		{Name: "customers_pkey", Definition: "CREATE UNIQUE INDEX customers_pkey ON public.customers USING btree (id)"},
		{Name: "idx_anydesk", Definition: "CREATE INDEX idx_anydesk ON public.customers USING btree (anydesk_id)"},
	}
	assert.False(t, HasUniqueIdentifier(plain))

	composite := []Index{
		{Name: "ux", Definition: "CREATE UNIQUE INDEX ux ON public.customers USING btree (category, anydesk_id)"},
	}
	assert.False(t, HasUniqueIdentifier(composite))
	assert.False(t, HasUniqueIdentifier(nil))
}

func TestOpenRequiresDSN(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}
