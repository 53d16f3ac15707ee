package table

import (
	"testing"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDecimal(t *testing.T, s string) Decimal {
	t.Helper()
	d, err := ParseDecimal(s)
	require.NoError(t, err)
	return d
}

// TestCompare_NullSortsFirst tests that NULL orders before every other value.
func TestCompare_NullSortsFirst(t *testing.T) {
	values := []Value{
		Text("a"),
		Int(-100),
		mustDecimal(t, "-999999.99"),
		NewDate(1900, time.January, 1),
	}
	for _, v := range values {
		assert.Equal(t, -1, Compare(Null{}, v))
		assert.Equal(t, 1, Compare(v, Null{}))
	}
	assert.Equal(t, 0, Compare(Null{}, Null{}))
}

// TestCompare_IntDecimalCross tests numeric comparison across Int and Decimal.
func TestCompare_IntDecimalCross(t *testing.T) {
	assert.Equal(t, 0, Compare(Int(5), mustDecimal(t, "5.00")))
	assert.Equal(t, -1, Compare(Int(5), mustDecimal(t, "5.01")))
	assert.Equal(t, 1, Compare(mustDecimal(t, "5.01"), Int(5)))
}

// TestCompare_SameType tests natural ordering within each type.
func TestCompare_SameType(t *testing.T) {
	assert.Equal(t, -1, Compare(Text("Alberta"), Text("Ontario")))
	assert.Equal(t, -1, Compare(Int(1), Int(2)))
	assert.Equal(t, -1, Compare(mustDecimal(t, "-10.00"), mustDecimal(t, "-9.99")))
	assert.Equal(t, -1, Compare(NewDate(2011, time.March, 1), NewDate(2011, time.March, 2)))
	assert.Equal(t, 0, Compare(NewDate(2011, time.March, 1), NewDate(2011, time.March, 1)))
}

// TestFormat tests display rendering for every cell type.
func TestFormat(t *testing.T) {
	assert.Equal(t, "NULL", Format(Null{}))
	assert.Equal(t, "Furniture", Format(Text("Furniture")))
	assert.Equal(t, "-42", Format(Int(-42)))
	assert.Equal(t, "150.75", Format(mustDecimal(t, "150.75")))
	assert.Equal(t, "2011-03-01", Format(NewDate(2011, time.March, 1)))
}

// TestCanonical_DecimalNormalization tests that numerically equal decimals
// share one canonical form while the typed prefixes keep types apart.
func TestCanonical_DecimalNormalization(t *testing.T) {
	assert.Equal(t, Canonical(mustDecimal(t, "1.0")), Canonical(mustDecimal(t, "1.00")))
	assert.NotEqual(t, Canonical(Int(1)), Canonical(mustDecimal(t, "1")))
	assert.NotEqual(t, Canonical(Text("1")), Canonical(Int(1)))
	assert.NotEqual(t, Canonical(Null{}), Canonical(Text("")))
}

// TestRoundMoney_HalfAwayFromZero tests the monetary rounding rule on both
// sides of zero.
func TestRoundMoney_HalfAwayFromZero(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"2.675", "2.68"},
		{"2.674", "2.67"},
		{"-0.005", "-0.01"},
		{"0.005", "0.01"},
		{"-2.675", "-2.68"},
		{"10", "10.00"},
	}
	for _, tc := range cases {
		d, _, err := apd.NewFromString(tc.in)
		require.NoError(t, err)
		out, err := RoundMoney(d)
		require.NoError(t, err)
		assert.Equal(t, tc.want, out.Text('f'), "rounding %s", tc.in)
	}
}

// TestRound2_PassThrough tests that non-decimal values are untouched.
func TestRound2_PassThrough(t *testing.T) {
	assert.Equal(t, Value(Int(3)), Round2(Int(3)))
	assert.Equal(t, Value(Null{}), Round2(Null{}))
	assert.Equal(t, "5.01", Format(Round2(mustDecimal(t, "5.005"))))
}
