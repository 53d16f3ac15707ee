// Package engine executes query specs against an in-memory slice of order
// rows: filter, group, aggregate, derived columns, monetary rounding, rank
// window, having, order, limit.
//
// Execute is a pure function of the rows and the spec. It never mutates
// source rows and holds no state between calls, so independent queries are
// safe to run concurrently; a batch run stays correct without any locking.
package engine

import (
	"context"
	"log/slog"
	"sort"

	"github.com/cockroachdb/apd/v3"

	"github.com/Favouriteg2/kms-analytics/internal/order"
	"github.com/Favouriteg2/kms-analytics/internal/query"
	"github.com/Favouriteg2/kms-analytics/internal/table"
)

// Execute runs one query spec over the base rows and returns the result
// table. The spec is validated up front: configuration errors surface
// before any row is scanned.
//
// The context deadline is honoured between pipeline stages. A deadline hit
// returns a TIMEOUT ExecError, never a partial result.
func Execute(ctx context.Context, rows []order.Order, spec *query.Spec) (*Result, error) {
	if err := query.Validate(spec); err != nil {
		return nil, err
	}

	// 1. Pre-aggregate filter. Order is irrelevant at this stage.
	filtered := filterRows(rows, spec.Filter)
	if err := stageDeadline(ctx, "filter"); err != nil {
		return nil, err
	}

	// 2+3. Partition by group key and fold aggregates.
	groups := groupAndAggregate(filtered, spec)
	if err := stageDeadline(ctx, "aggregate"); err != nil {
		return nil, err
	}

	// 4+5. Materialize rows: derived columns, then monetary rounding.
	res := materialize(groups, spec)
	if err := stageDeadline(ctx, "materialize"); err != nil {
		return nil, err
	}

	// 6. Rank window.
	if spec.Rank != nil {
		applyRank(res, spec)
	}

	// 7. Having, order, limit.
	if spec.Having != nil {
		res.Rows = filterResultRows(res, spec.Having)
	}
	sortRows(res, spec)
	if spec.Limit > 0 && len(res.Rows) > spec.Limit {
		res.Rows = res.Rows[:spec.Limit]
	}

	return res, nil
}

func filterRows(rows []order.Order, pred query.Predicate) []*order.Order {
	out := make([]*order.Order, 0, len(rows))
	for i := range rows {
		o := &rows[i]
		if pred == nil || query.Eval(pred, func(name string) (table.Value, bool) {
			return order.Field(o, name)
		}) {
			out = append(out, o)
		}
	}
	return out
}

// group carries one aggregation bucket: its key tuple and accumulators.
type group struct {
	sortKey string
	keyVals []table.Value
	accs    []accumulator
}

func groupAndAggregate(rows []*order.Order, spec *query.Spec) []*group {
	cols := spec.Columns()
	aggKinds := make([]table.Kind, len(spec.Aggregates))
	for i := range spec.Aggregates {
		aggKinds[i] = cols[len(spec.GroupBy)+i].Kind
	}

	newGroup := func(keyVals []table.Value, sortKey string) *group {
		g := &group{sortKey: sortKey, keyVals: keyVals, accs: make([]accumulator, len(spec.Aggregates))}
		for i, agg := range spec.Aggregates {
			g.accs[i] = newAccumulator(agg, aggKinds[i])
		}
		return g
	}

	byKey := make(map[string]*group)
	var groups []*group

	// Zero group-by keys means a single implicit group over all rows, which
	// exists even when the filtered set is empty (count=0, sum=0, avg=NULL).
	if len(spec.GroupBy) == 0 {
		g := newGroup(nil, "")
		groups = append(groups, g)
		byKey[""] = g
	}

	for _, o := range rows {
		keyVals := make([]table.Value, len(spec.GroupBy))
		sortKey := ""
		for i, name := range spec.GroupBy {
			v, _ := order.Field(o, name)
			keyVals[i] = v
			sortKey += table.Canonical(v) + "\x1f"
		}
		g, ok := byKey[sortKey]
		if !ok {
			g = newGroup(keyVals, sortKey)
			byKey[sortKey] = g
			groups = append(groups, g)
		}
		for i, agg := range spec.Aggregates {
			var v table.Value = table.Null{}
			if agg.Func != query.FuncCount {
				v, _ = order.Field(o, agg.Of)
			}
			g.accs[i].add(v)
		}
	}

	// Map iteration order is discarded: groups sort by key tuple so results
	// are deterministic before any explicit order_by applies.
	sort.Slice(groups, func(i, j int) bool { return groups[i].sortKey < groups[j].sortKey })
	return groups
}

func materialize(groups []*group, spec *query.Spec) *Result {
	cols := spec.Columns()
	if spec.Rank != nil {
		// Rank columns are appended by applyRank after materialization.
		cols = cols[:len(cols)-2]
	}
	res := &Result{Columns: cols}

	colIndex := make(map[string]int, len(res.Columns))
	for i, c := range res.Columns {
		colIndex[c.Name] = i
	}

	for _, g := range groups {
		row := make([]table.Value, len(res.Columns))
		copy(row, g.keyVals)
		for i, acc := range g.accs {
			row[len(spec.GroupBy)+i] = acc.result()
		}
		for i, d := range spec.Derived {
			row[len(spec.GroupBy)+len(spec.Aggregates)+i] = evalExpr(d.Expr, d.Name, row, colIndex)
		}
		// Monetary columns round exactly once, here. Rounding again at
		// presentation would let the same total drift between reports.
		for i, c := range res.Columns {
			if c.Kind == table.KindMoney && row[i] != nil {
				row[i] = table.Round2(row[i])
			}
		}
		res.Rows = append(res.Rows, row)
	}
	return res
}

// evalExpr computes a derived column from already-aggregated cells. NULL
// operands propagate; division by zero yields NULL and a warning, never an
// error.
func evalExpr(e query.Expr, name string, row []table.Value, colIndex map[string]int) table.Value {
	switch expr := e.(type) {
	case query.Col:
		idx, ok := colIndex[string(expr)]
		if !ok {
			return table.Null{}
		}
		return row[idx]
	case query.Const:
		d, err := table.ParseDecimal(string(expr))
		if err != nil {
			return table.Null{}
		}
		return d
	case query.Binary:
		left := evalExpr(expr.Left, name, row, colIndex)
		right := evalExpr(expr.Right, name, row, colIndex)
		return applyBinary(expr.Op, name, left, right)
	}
	return table.Null{}
}

func applyBinary(op query.BinOp, name string, left, right table.Value) table.Value {
	l, ok := asDecimal(left)
	if !ok {
		return table.Null{}
	}
	r, ok := asDecimal(right)
	if !ok {
		return table.Null{}
	}

	out := new(apd.Decimal)
	var err error
	switch op {
	case query.OpAdd:
		_, err = table.DecimalContext.Add(out, l, r)
	case query.OpSub:
		_, err = table.DecimalContext.Sub(out, l, r)
	case query.OpMul:
		_, err = table.DecimalContext.Mul(out, l, r)
	case query.OpDiv:
		if r.IsZero() {
			slog.Warn("derived column division by zero", "column", name)
			return table.Null{}
		}
		_, err = table.DecimalContext.Quo(out, l, r)
	default:
		return table.Null{}
	}
	if err != nil {
		slog.Warn("derived column arithmetic failed", "column", name, "error", err)
		return table.Null{}
	}
	return table.NewDecimal(out)
}

func filterResultRows(res *Result, having query.Predicate) [][]table.Value {
	colIndex := make(map[string]int, len(res.Columns))
	for i, c := range res.Columns {
		colIndex[c.Name] = i
	}
	kept := res.Rows[:0:0]
	for _, row := range res.Rows {
		r := row
		if query.Eval(having, func(name string) (table.Value, bool) {
			idx, ok := colIndex[name]
			if !ok {
				return table.Null{}, false
			}
			return r[idx], true
		}) {
			kept = append(kept, row)
		}
	}
	return kept
}

// sortRows applies order_by keys. Rows arrive sorted by group key tuple and
// the sort is stable, so equal order_by values keep a deterministic
// key-lexicographic order without an explicit tie-break column.
func sortRows(res *Result, spec *query.Spec) {
	if len(spec.OrderBy) == 0 {
		return
	}
	idx := make([]int, len(spec.OrderBy))
	for i, key := range spec.OrderBy {
		idx[i] = res.ColumnIndex(key.Column)
	}
	sort.SliceStable(res.Rows, func(a, b int) bool {
		for i, key := range spec.OrderBy {
			cmp := table.Compare(res.Rows[a][idx[i]], res.Rows[b][idx[i]])
			if cmp == 0 {
				continue
			}
			if key.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

func stageDeadline(ctx context.Context, stage string) error {
	select {
	case <-ctx.Done():
		return &ExecError{
			Code:    ErrCodeTimeout,
			Message: "query deadline exceeded during " + stage,
			Err:     ctx.Err(),
		}
	default:
		return nil
	}
}
