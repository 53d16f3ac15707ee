package query

import (
	"github.com/Favouriteg2/kms-analytics/internal/table"
)

// FieldFunc resolves a field name to a value on the row being tested.
// The second return is false for unknown fields, which validation rules out
// before execution; evaluation treats it as a non-match.
type FieldFunc func(name string) (table.Value, bool)

// Eval tests a predicate against one row. A nil predicate is always true.
//
// Eval is a pure function: same predicate, same row, same answer.
func Eval(p Predicate, field FieldFunc) bool {
	if p == nil {
		return true
	}

	switch pred := p.(type) {
	case And:
		return evalAnd(pred, field)
	case *And:
		return evalAnd(*pred, field)
	case Compare:
		return evalCompare(pred, field)
	case *Compare:
		return evalCompare(*pred, field)
	case CompareFields:
		return evalCompareFields(pred, field)
	case *CompareFields:
		return evalCompareFields(*pred, field)
	case In:
		return evalIn(pred, field)
	case *In:
		return evalIn(*pred, field)
	case IsNull:
		return evalIsNull(pred, field)
	case *IsNull:
		return evalIsNull(*pred, field)
	default:
		// Sealed interface - unreachable for well-formed predicates.
		return false
	}
}

func evalAnd(and And, field FieldFunc) bool {
	for _, sub := range and.Predicates {
		if !Eval(sub, field) {
			return false
		}
	}
	return true
}

func evalCompare(cmp Compare, field FieldFunc) bool {
	v, ok := field(cmp.Field)
	if !ok || table.IsNull(v) || table.IsNull(cmp.Value) {
		return false
	}
	return applyOp(cmp.Op, table.Compare(v, cmp.Value))
}

func evalCompareFields(cmp CompareFields, field FieldFunc) bool {
	left, ok := field(cmp.Left)
	if !ok || table.IsNull(left) {
		return false
	}
	right, ok := field(cmp.Right)
	if !ok || table.IsNull(right) {
		return false
	}
	return applyOp(cmp.Op, table.Compare(left, right))
}

func evalIn(in In, field FieldFunc) bool {
	v, ok := field(in.Field)
	if !ok || table.IsNull(v) {
		return false
	}
	s := table.Format(v)
	for _, allowed := range in.Values {
		if s == allowed {
			return true
		}
	}
	return false
}

func evalIsNull(p IsNull, field FieldFunc) bool {
	v, ok := field(p.Field)
	if !ok {
		return false
	}
	if p.Negate {
		return !table.IsNull(v)
	}
	return table.IsNull(v)
}

func applyOp(op CmpOp, cmp int) bool {
	switch op {
	case OpEq:
		return cmp == 0
	case OpNe:
		return cmp != 0
	case OpLt:
		return cmp < 0
	case OpLe:
		return cmp <= 0
	case OpGt:
		return cmp > 0
	case OpGe:
		return cmp >= 0
	}
	return false
}
