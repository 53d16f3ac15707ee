package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Favouriteg2/kms-analytics/internal/table"
)

func rowOf(cells map[string]table.Value) FieldFunc {
	return func(name string) (table.Value, bool) {
		v, ok := cells[name]
		return v, ok
	}
}

// TestEval_NilPredicate tests that the absent filter matches everything.
func TestEval_NilPredicate(t *testing.T) {
	assert.True(t, Eval(nil, rowOf(nil)))
}

// TestEval_NullNeverCompares tests the SQL rule: a NULL field satisfies no
// comparison, not even ne.
func TestEval_NullNeverCompares(t *testing.T) {
	row := rowOf(map[string]table.Value{"profit": table.Null{}})
	zero, err := table.ParseDecimal("0")
	require.NoError(t, err)

	for _, op := range []CmpOp{OpEq, OpNe, OpLt, OpLe, OpGt, OpGe} {
		assert.False(t, Eval(Compare{Field: "profit", Op: op, Value: zero}, row), "op %s", op)
	}
	assert.True(t, Eval(IsNull{Field: "profit"}, row))
	assert.False(t, Eval(IsNull{Field: "profit", Negate: true}, row))
}

// TestEval_Compare tests literal comparisons over each direction.
func TestEval_Compare(t *testing.T) {
	loss, err := table.ParseDecimal("-10.25")
	require.NoError(t, err)
	zero, err := table.ParseDecimal("0")
	require.NoError(t, err)
	row := rowOf(map[string]table.Value{"profit": loss, "region": table.Text("Ontario")})

	assert.True(t, Eval(Compare{Field: "profit", Op: OpLt, Value: zero}, row))
	assert.False(t, Eval(Compare{Field: "profit", Op: OpGe, Value: zero}, row))
	assert.True(t, Eval(Compare{Field: "region", Op: OpEq, Value: table.Text("Ontario")}, row))
	assert.False(t, Eval(Compare{Field: "region", Op: OpNe, Value: table.Text("Ontario")}, row))
}

// TestEval_CompareFields tests row-local field comparison with NULL on
// either side failing the match.
func TestEval_CompareFields(t *testing.T) {
	early := table.NewDate(2011, 3, 1)
	late := table.NewDate(2011, 3, 5)

	row := rowOf(map[string]table.Value{"ship_date": early, "order_date": late})
	assert.True(t, Eval(CompareFields{Left: "ship_date", Op: OpLt, Right: "order_date"}, row))

	row = rowOf(map[string]table.Value{"ship_date": table.Null{}, "order_date": late})
	assert.False(t, Eval(CompareFields{Left: "ship_date", Op: OpLt, Right: "order_date"}, row))
}

// TestEval_In tests set membership, including the empty set and NULL field.
func TestEval_In(t *testing.T) {
	row := rowOf(map[string]table.Value{"customer_name": table.Text("Alice")})

	assert.True(t, Eval(In{Field: "customer_name", Values: []string{"Bob", "Alice"}}, row))
	assert.False(t, Eval(In{Field: "customer_name", Values: []string{"Bob"}}, row))
	assert.False(t, Eval(In{Field: "customer_name", Values: nil}, row), "empty set matches nothing")

	row = rowOf(map[string]table.Value{"customer_name": table.Null{}})
	assert.False(t, Eval(In{Field: "customer_name", Values: []string{"Alice"}}, row))
}

// TestEval_And tests conjunction, including the vacuous empty AND.
func TestEval_And(t *testing.T) {
	row := rowOf(map[string]table.Value{"region": table.Text("West"), "segment": table.Text("Consumer")})

	assert.True(t, Eval(And{}, row))
	assert.True(t, Eval(And{Predicates: []Predicate{
		Compare{Field: "region", Op: OpEq, Value: table.Text("West")},
		Compare{Field: "segment", Op: OpEq, Value: table.Text("Consumer")},
	}}, row))
	assert.False(t, Eval(And{Predicates: []Predicate{
		Compare{Field: "region", Op: OpEq, Value: table.Text("West")},
		Compare{Field: "segment", Op: OpEq, Value: table.Text("Corporate")},
	}}, row))
}
