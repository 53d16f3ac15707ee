package engine

import (
	"github.com/cockroachdb/apd/v3"

	"github.com/Favouriteg2/kms-analytics/internal/query"
	"github.com/Favouriteg2/kms-analytics/internal/table"
)

// accumulator folds one aggregate over the rows of a single group.
//
// NULL semantics follow the underlying attribute's numeric semantics:
// sum/avg/min/max skip NULLs, count counts every row in the group, and
// count_distinct counts distinct non-NULL values. Over zero rows: count=0,
// sum=0, avg/min/max=NULL.
type accumulator interface {
	add(v table.Value)
	result() table.Value
}

// newAccumulator builds the accumulator for one aggregate spec. kind is the
// validated output column kind, used to fold integer sums back to Int.
func newAccumulator(agg query.Aggregate, kind table.Kind) accumulator {
	switch agg.Func {
	case query.FuncCount:
		return &countAcc{}
	case query.FuncCountDistinct:
		return &countDistinctAcc{seen: make(map[string]bool)}
	case query.FuncSum:
		return &sumAcc{kind: kind}
	case query.FuncAvg:
		return &avgAcc{}
	case query.FuncMin:
		return &extremeAcc{min: true}
	case query.FuncMax:
		return &extremeAcc{min: false}
	}
	// Unreachable after validation.
	return &countAcc{}
}

type countAcc struct {
	n int64
}

func (a *countAcc) add(table.Value) { a.n++ }

func (a *countAcc) result() table.Value { return table.Int(a.n) }

type countDistinctAcc struct {
	seen map[string]bool
}

func (a *countDistinctAcc) add(v table.Value) {
	if table.IsNull(v) {
		return
	}
	a.seen[table.Canonical(v)] = true
}

func (a *countDistinctAcc) result() table.Value { return table.Int(int64(len(a.seen))) }

type sumAcc struct {
	kind  table.Kind
	total apd.Decimal
}

func (a *sumAcc) add(v table.Value) {
	d, ok := asDecimal(v)
	if !ok {
		return
	}
	table.DecimalContext.Add(&a.total, &a.total, d)
}

func (a *sumAcc) result() table.Value {
	// Sum over zero rows is 0, not NULL.
	if a.kind == table.KindInt {
		n, err := a.total.Int64()
		if err == nil {
			return table.Int(n)
		}
	}
	var out apd.Decimal
	out.Set(&a.total)
	return table.NewDecimal(&out)
}

type avgAcc struct {
	total apd.Decimal
	n     int64
}

func (a *avgAcc) add(v table.Value) {
	d, ok := asDecimal(v)
	if !ok {
		return
	}
	table.DecimalContext.Add(&a.total, &a.total, d)
	a.n++
}

func (a *avgAcc) result() table.Value {
	if a.n == 0 {
		return table.Null{}
	}
	var out apd.Decimal
	if _, err := table.DecimalContext.Quo(&out, &a.total, apd.New(a.n, 0)); err != nil {
		return table.Null{}
	}
	return table.NewDecimal(&out)
}

type extremeAcc struct {
	min  bool
	best table.Value
}

func (a *extremeAcc) add(v table.Value) {
	if table.IsNull(v) {
		return
	}
	if a.best == nil {
		a.best = v
		return
	}
	cmp := table.Compare(v, a.best)
	if (a.min && cmp < 0) || (!a.min && cmp > 0) {
		a.best = v
	}
}

func (a *extremeAcc) result() table.Value {
	if a.best == nil {
		return table.Null{}
	}
	return a.best
}

// asDecimal converts numeric cells to apd for folding. NULL and non-numeric
// cells report false and are skipped by the caller.
func asDecimal(v table.Value) (*apd.Decimal, bool) {
	switch val := v.(type) {
	case table.Decimal:
		return val.Decimal, true
	case table.Int:
		return apd.New(int64(val), 0), true
	}
	return nil, false
}
