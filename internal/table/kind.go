package table

// Kind classifies what a column holds. The attribute registry assigns kinds
// to source attributes; the engine assigns kinds to output columns. Kinds
// drive validation (no sum over text) and presentation (money renders at
// 2 decimal places everywhere).
type Kind string

const (
	KindText   Kind = "text"
	KindInt    Kind = "int"
	KindMoney  Kind = "money"
	KindNumber Kind = "number"
	KindDate   Kind = "date"
)

// Numeric reports whether values of this kind participate in arithmetic
// aggregates (sum, avg, min, max).
func (k Kind) Numeric() bool {
	switch k {
	case KindInt, KindMoney, KindNumber:
		return true
	}
	return false
}

// Column describes one named, typed column of a result table.
type Column struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}
