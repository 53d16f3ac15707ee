// Package query defines the declarative query specification the engine
// executes: pre-aggregate filter, group-by keys, aggregates, derived
// columns, optional rank window, post-aggregate having, ordering and limit.
//
// Predicate and Expr are sealed interfaces - only types in this package
// implement them. The marker method pattern keeps type switches in the
// engine exhaustive.
package query

import (
	"github.com/Favouriteg2/kms-analytics/internal/table"
)

// Spec is one complete query over the order table.
//
// Filter is the pre-aggregate gate: it is applied to base rows before
// grouping. Having filters aggregated output rows; the report catalog uses
// pre-aggregate filters exclusively, Having exists for ad-hoc specs.
type Spec struct {
	Filter     Predicate
	GroupBy    []string
	Aggregates []Aggregate
	Derived    []Derived
	Rank       *RankWindow
	Having     Predicate
	OrderBy    []SortKey
	Limit      int
}

// Func identifies an aggregate function.
type Func string

const (
	FuncSum           Func = "sum"
	FuncAvg           Func = "avg"
	FuncCount         Func = "count"
	FuncCountDistinct Func = "count_distinct"
	FuncMin           Func = "min"
	FuncMax           Func = "max"
)

// ValidFuncs defines the allowed aggregate functions.
var ValidFuncs = map[Func]bool{
	FuncSum:           true,
	FuncAvg:           true,
	FuncCount:         true,
	FuncCountDistinct: true,
	FuncMin:           true,
	FuncMax:           true,
}

// Aggregate maps an output column name to (function, source attribute).
// Of is ignored for count, which counts all rows in the group.
type Aggregate struct {
	Name string
	Func Func
	Of   string
}

// Derived is a post-aggregate computed column. The expression may reference
// aggregate columns and derived columns declared earlier in the slice.
type Derived struct {
	Name string
	Expr Expr
}

// SortKey orders result rows by one output column.
type SortKey struct {
	Column string
	Desc   bool
}

// RankWindow assigns both-direction dense ranks within each partition,
// ordered by the By column. Two extra Int columns appear on the result:
// RankAscColumn and RankDescColumn.
//
// Ties on the By value break by group key tuple in lexicographic order, so
// within a partition of N rows each direction's ranks are exactly 1..N and
// the descending rank is the mirror of the ascending one. Keep > 0 retains
// only rows ranked <= Keep from either end - top-N and bottom-N in one pass.
type RankWindow struct {
	PartitionBy []string
	By          string
	Keep        int
}

// Names of the columns a RankWindow appends to the result.
const (
	RankAscColumn  = "rank_asc"
	RankDescColumn = "rank_desc"
)

// Expr represents post-aggregate arithmetic.
//
// This is a sealed interface - only Col, Const, and Binary implement it.
type Expr interface {
	exprNode() // Marker method - seals interface to this package
}

// Col references an output column of the same spec by name.
type Col string

func (Col) exprNode() {}

// Const is a decimal literal, kept as text so no float ever enters the
// arithmetic path.
type Const string

func (Const) exprNode() {}

// BinOp identifies a binary arithmetic operator.
type BinOp string

const (
	OpAdd BinOp = "add"
	OpSub BinOp = "sub"
	OpMul BinOp = "mul"
	OpDiv BinOp = "div"
)

// Binary applies Op to two sub-expressions. Division by zero yields a Null
// cell, never an error.
type Binary struct {
	Op    BinOp
	Left  Expr
	Right Expr
}

func (Binary) exprNode() {}

// Percent builds the num/den*100 expression the ratio reports share
// (profit margin, shipping cost percentage).
func Percent(num, den string) Expr {
	return Binary{
		Op:    OpMul,
		Left:  Binary{Op: OpDiv, Left: Col(num), Right: Col(den)},
		Right: Const("100"),
	}
}

// Predicate represents a filter condition.
//
// This is a sealed interface - only And, Compare, CompareFields, In, and
// IsNull implement it. OR is deliberately absent; no report needs it.
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// And requires every sub-predicate to hold. Empty means always true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// CmpOp identifies a comparison operator.
type CmpOp string

const (
	OpEq CmpOp = "eq"
	OpNe CmpOp = "ne"
	OpLt CmpOp = "lt"
	OpLe CmpOp = "le"
	OpGt CmpOp = "gt"
	OpGe CmpOp = "ge"
)

// Compare tests a field against a literal value. A NULL field never
// satisfies any comparison, matching SQL semantics.
type Compare struct {
	Field string
	Op    CmpOp
	Value table.Value
}

func (Compare) predicateNode() {}

// CompareFields tests one field against another on the same row. Used by
// the data-quality reports (ship_date < order_date). NULL on either side
// never satisfies the comparison.
type CompareFields struct {
	Left  string
	Op    CmpOp
	Right string
}

func (CompareFields) predicateNode() {}

// In tests a text field for membership in a value set. This is the phase-2
// half of a two-phase chain: the set is the key column of a prior result.
type In struct {
	Field  string
	Values []string
}

func (In) predicateNode() {}

// IsNull tests a field for NULL (or NOT NULL when Negate is set).
type IsNull struct {
	Field  string
	Negate bool
}

func (IsNull) predicateNode() {}
