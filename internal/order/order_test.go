package order

import (
	"testing"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Favouriteg2/kms-analytics/internal/table"
)

// TestAttributes_UniqueNames tests that the registry has no duplicate names.
func TestAttributes_UniqueNames(t *testing.T) {
	seen := make(map[string]bool)
	for _, a := range Attributes {
		assert.False(t, seen[a.Name], "duplicate attribute %s", a.Name)
		seen[a.Name] = true
		assert.NotNil(t, a.Get, "attribute %s has no accessor", a.Name)
	}
}

// TestLookup tests registry resolution.
func TestLookup(t *testing.T) {
	a, ok := Lookup("product_sub_category")
	require.True(t, ok)
	assert.Equal(t, table.KindText, a.Kind)

	_, ok = Lookup("warehouse")
	assert.False(t, ok)
}

// TestField_NullHandling tests that missing decimals and zero dates read as
// NULL while present values read typed.
func TestField_NullHandling(t *testing.T) {
	sales, _, err := apd.NewFromString("120.50")
	require.NoError(t, err)

	o := &Order{
		RowID:     7,
		Sales:     sales,
		OrderDate: time.Date(2011, time.March, 1, 0, 0, 0, 0, time.UTC),
	}

	v, ok := Field(o, "sales")
	require.True(t, ok)
	assert.Equal(t, "120.50", table.Format(v))

	v, ok = Field(o, "profit")
	require.True(t, ok)
	assert.True(t, table.IsNull(v), "nil decimal reads as NULL")

	v, ok = Field(o, "ship_date")
	require.True(t, ok)
	assert.True(t, table.IsNull(v), "zero date reads as NULL")

	v, ok = Field(o, "order_date")
	require.True(t, ok)
	assert.Equal(t, "2011-03-01", table.Format(v))

	_, ok = Field(o, "warehouse")
	assert.False(t, ok)
}
