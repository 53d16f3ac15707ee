package table

import (
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
)

// Value is a sealed interface representing the cell types a result table can
// hold. Only Null, Text, Int, Decimal, and Date implement it.
//
// Monetary and ratio values are always Decimal (exact base-10 arithmetic via
// apd), never float64. Floats would reintroduce the cross-query drift the
// rounding rules exist to prevent.
type Value interface {
	value() // Sealed - only types in this package implement it
}

// Null represents a missing or undefined cell (e.g. avg over zero rows,
// division by zero in a derived column).
type Null struct{}

func (Null) value() {}

// Text represents a string cell.
type Text string

func (Text) value() {}

// Int represents an integer cell. Always int64.
type Int int64

func (Int) value() {}

// Decimal represents an exact decimal cell.
// The embedded *apd.Decimal must be non-nil; use NewDecimal or ParseDecimal.
type Decimal struct {
	*apd.Decimal
}

func (Decimal) value() {}

// Date represents a calendar date cell. The time-of-day part is always
// midnight UTC; loaders are responsible for truncation.
type Date time.Time

func (Date) value() {}

// NewDecimal wraps an apd.Decimal as a Value.
func NewDecimal(d *apd.Decimal) Decimal {
	return Decimal{Decimal: d}
}

// DecimalFromInt creates a Decimal cell from an integer.
func DecimalFromInt(n int64) Decimal {
	return Decimal{Decimal: apd.New(n, 0)}
}

// ParseDecimal parses a decimal literal like "-10.25".
func ParseDecimal(s string) (Decimal, error) {
	d, _, err := apd.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Decimal{}, fmt.Errorf("parse decimal %q: %w", s, err)
	}
	return Decimal{Decimal: d}, nil
}

// NewDate builds a Date cell at midnight UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// IsNull reports whether a value is the Null cell.
func IsNull(v Value) bool {
	_, ok := v.(Null)
	return ok
}

// Compare orders two values. Null sorts before everything; values of the
// same type compare naturally; Int and Decimal compare numerically.
// Comparing other mixed types falls back to the rendered form so sorting
// stays total and deterministic.
func Compare(a, b Value) int {
	an, bn := IsNull(a), IsNull(b)
	switch {
	case an && bn:
		return 0
	case an:
		return -1
	case bn:
		return 1
	}

	switch av := a.(type) {
	case Text:
		if bv, ok := b.(Text); ok {
			return strings.Compare(string(av), string(bv))
		}
	case Int:
		switch bv := b.(type) {
		case Int:
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		case Decimal:
			return apd.New(int64(av), 0).Cmp(bv.Decimal)
		}
	case Decimal:
		switch bv := b.(type) {
		case Decimal:
			return av.Cmp(bv.Decimal)
		case Int:
			return av.Cmp(apd.New(int64(bv), 0))
		}
	case Date:
		if bv, ok := b.(Date); ok {
			at, bt := time.Time(av), time.Time(bv)
			switch {
			case at.Before(bt):
				return -1
			case at.After(bt):
				return 1
			}
			return 0
		}
	}

	return strings.Compare(Format(a), Format(b))
}

// Format renders a value for display and for canonical key construction.
// Decimals render in plain (non-exponent) notation.
func Format(v Value) string {
	switch val := v.(type) {
	case Null:
		return "NULL"
	case Text:
		return string(val)
	case Int:
		return fmt.Sprintf("%d", int64(val))
	case Decimal:
		return val.Text('f')
	case Date:
		return time.Time(val).Format("2006-01-02")
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Canonical returns a type-tagged canonical form used for distinct counting
// and group keys. Numerically equal decimals ("1.0", "1.00") canonicalize
// identically.
func Canonical(v Value) string {
	switch val := v.(type) {
	case Null:
		return "n:"
	case Text:
		return "s:" + string(val)
	case Int:
		return "i:" + fmt.Sprintf("%d", int64(val))
	case Decimal:
		var reduced apd.Decimal
		reduced.Reduce(val.Decimal)
		return "d:" + reduced.Text('f')
	case Date:
		return "t:" + time.Time(val).Format("2006-01-02")
	default:
		return "?:" + fmt.Sprintf("%v", v)
	}
}
