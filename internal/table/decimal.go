package table

import "github.com/cockroachdb/apd/v3"

// DecimalContext is the arithmetic context for all aggregate math.
//
// Precision 34 comfortably exceeds anything a monetary sum over this
// workload can need. Rounding is half-up, which in GDA terms rounds halves
// away from zero - the behaviour the reports require so that -0.005 rounds
// to -0.01, not 0.00.
var DecimalContext = func() *apd.Context {
	ctx := apd.BaseContext.WithPrecision(34)
	ctx.Rounding = apd.RoundHalfUp
	return ctx
}()

// RoundMoney quantizes a decimal to 2 places, half away from zero.
//
// Every monetary aggregate passes through this exactly once, at result
// materialization. Rounding anywhere else (or twice) breaks the invariant
// that re-summing rounded subtotals matches the rounded grand total.
func RoundMoney(d *apd.Decimal) (*apd.Decimal, error) {
	var out apd.Decimal
	if _, err := DecimalContext.Quantize(&out, d, -2); err != nil {
		return nil, err
	}
	return &out, nil
}

// Round2 quantizes any decimal value to 2 places for display. Non-decimal
// values pass through unchanged.
func Round2(v Value) Value {
	d, ok := v.(Decimal)
	if !ok {
		return v
	}
	out, err := RoundMoney(d.Decimal)
	if err != nil {
		return v
	}
	return NewDecimal(out)
}
