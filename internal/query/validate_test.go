package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Favouriteg2/kms-analytics/internal/table"
)

func validSpec() *Spec {
	return &Spec{
		GroupBy: []string{"product_category"},
		Aggregates: []Aggregate{
			{Name: "total_sales", Func: FuncSum, Of: "sales"},
			{Name: "orders", Func: FuncCount},
		},
		OrderBy: []SortKey{{Column: "total_sales", Desc: true}},
	}
}

func requireConfigError(t *testing.T, err error, code ConfigErrorCode) *ConfigError {
	t.Helper()
	require.Error(t, err)
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, code, ce.Code)
	return ce
}

// TestValidate_OK tests a well-formed spec.
func TestValidate_OK(t *testing.T) {
	require.NoError(t, Validate(validSpec()))
}

// TestValidate_UnknownGroupColumn tests that a bad group_by name fails with
// UNKNOWN_COLUMN.
func TestValidate_UnknownGroupColumn(t *testing.T) {
	s := validSpec()
	s.GroupBy = []string{"warehouse"}
	ce := requireConfigError(t, Validate(s), ErrCodeUnknownColumn)
	assert.Equal(t, "warehouse", ce.Column)
}

// TestValidate_SumOverText tests that sum over a text attribute fails with
// TYPE_MISMATCH.
func TestValidate_SumOverText(t *testing.T) {
	s := validSpec()
	s.Aggregates[0] = Aggregate{Name: "total", Func: FuncSum, Of: "customer_name"}
	requireConfigError(t, Validate(s), ErrCodeTypeMismatch)
}

// TestValidate_DuplicateOutput tests duplicate output column rejection, both
// aggregate/aggregate and group/aggregate collisions.
func TestValidate_DuplicateOutput(t *testing.T) {
	s := validSpec()
	s.Aggregates[1] = Aggregate{Name: "total_sales", Func: FuncCount}
	requireConfigError(t, Validate(s), ErrCodeBadSpec)

	s = validSpec()
	s.Aggregates[1] = Aggregate{Name: "product_category", Func: FuncCount}
	requireConfigError(t, Validate(s), ErrCodeBadSpec)
}

// TestValidate_NoAggregates tests that a spec must declare an aggregate.
func TestValidate_NoAggregates(t *testing.T) {
	s := validSpec()
	s.Aggregates = nil
	requireConfigError(t, Validate(s), ErrCodeBadSpec)
}

// TestValidate_NegativeLimit tests negative limit rejection.
func TestValidate_NegativeLimit(t *testing.T) {
	s := validSpec()
	s.Limit = -1
	requireConfigError(t, Validate(s), ErrCodeBadSpec)
}

// TestValidate_FilterLiteralKind tests that filter literals must match the
// attribute kind.
func TestValidate_FilterLiteralKind(t *testing.T) {
	s := validSpec()
	s.Filter = Compare{Field: "sales", Op: OpGt, Value: table.Text("expensive")}
	requireConfigError(t, Validate(s), ErrCodeTypeMismatch)

	s.Filter = Compare{Field: "region", Op: OpEq, Value: table.Text("Ontario")}
	require.NoError(t, Validate(s))
}

// TestValidate_OrderByUnknown tests order_by must name an output column, not
// an arbitrary attribute.
func TestValidate_OrderByUnknown(t *testing.T) {
	s := validSpec()
	s.OrderBy = []SortKey{{Column: "profit"}}
	requireConfigError(t, Validate(s), ErrCodeUnknownColumn)
}

// TestValidate_Rank tests rank window validation: the By column must be a
// numeric output, partition keys must be group keys, and the appended rank
// columns are sortable.
func TestValidate_Rank(t *testing.T) {
	s := validSpec()
	s.Rank = &RankWindow{By: "total_sales", Keep: 3}
	s.OrderBy = []SortKey{{Column: RankAscColumn}}
	require.NoError(t, Validate(s))

	s.Rank = &RankWindow{By: "product_category"}
	requireConfigError(t, Validate(s), ErrCodeTypeMismatch)

	s.Rank = &RankWindow{By: "missing"}
	requireConfigError(t, Validate(s), ErrCodeUnknownColumn)

	s.Rank = &RankWindow{By: "total_sales", Keep: -1}
	requireConfigError(t, Validate(s), ErrCodeBadSpec)

	s.Rank = &RankWindow{By: "total_sales", PartitionBy: []string{"region"}}
	requireConfigError(t, Validate(s), ErrCodeBadSpec)
}

// TestValidate_Derived tests derived expression validation.
func TestValidate_Derived(t *testing.T) {
	s := validSpec()
	s.Derived = []Derived{{Name: "pct", Expr: Percent("total_sales", "orders")}}
	require.NoError(t, Validate(s))

	s.Derived = []Derived{{Name: "pct", Expr: Percent("total_sales", "missing")}}
	requireConfigError(t, Validate(s), ErrCodeUnknownColumn)

	s.Derived = []Derived{{Name: "pct", Expr: Percent("total_sales", "product_category")}}
	requireConfigError(t, Validate(s), ErrCodeTypeMismatch)

	s.Derived = []Derived{{Name: "pct"}}
	requireConfigError(t, Validate(s), ErrCodeBadSpec)
}

// TestValidate_Having tests that having resolves against output columns.
func TestValidate_Having(t *testing.T) {
	s := validSpec()
	s.Having = Compare{Field: "orders", Op: OpGt, Value: table.Int(1)}
	require.NoError(t, Validate(s))

	s.Having = Compare{Field: "sales", Op: OpGt, Value: table.Int(1)}
	requireConfigError(t, Validate(s), ErrCodeUnknownColumn)
}

// TestSpec_Columns tests output column composition and kinds.
func TestSpec_Columns(t *testing.T) {
	s := validSpec()
	s.Derived = []Derived{{Name: "pct", Expr: Percent("total_sales", "orders")}}
	s.Rank = &RankWindow{By: "total_sales"}
	require.NoError(t, Validate(s))

	cols := s.Columns()
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	assert.Equal(t, []string{"product_category", "total_sales", "orders", "pct", "rank_asc", "rank_desc"}, names)
	assert.Equal(t, table.KindText, cols[0].Kind)
	assert.Equal(t, table.KindMoney, cols[1].Kind)
	assert.Equal(t, table.KindInt, cols[2].Kind)
	assert.Equal(t, table.KindNumber, cols[3].Kind)
	assert.Equal(t, table.KindInt, cols[4].Kind)
}

// TestAggregateKind tests the money/number result kind rules: averages of
// money stay money, averages of other numerics widen to number.
func TestAggregateKind(t *testing.T) {
	assert.Equal(t, table.KindMoney, aggregateKind(Aggregate{Func: FuncAvg, Of: "sales"}))
	assert.Equal(t, table.KindNumber, aggregateKind(Aggregate{Func: FuncAvg, Of: "discount"}))
	assert.Equal(t, table.KindInt, aggregateKind(Aggregate{Func: FuncCountDistinct, Of: "order_id"}))
	assert.Equal(t, table.KindInt, aggregateKind(Aggregate{Func: FuncMax, Of: "order_quantity"}))
}
