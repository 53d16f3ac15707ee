package query

import (
	"github.com/Favouriteg2/kms-analytics/internal/order"
	"github.com/Favouriteg2/kms-analytics/internal/table"
)

// Validate checks a spec against the order attribute registry. It fails
// fast: every problem surfaces as a ConfigError before a single row is
// scanned, never mid-scan.
//
// Validate is a pure function with no side effects.
func Validate(s *Spec) error {
	if s == nil {
		return badSpec("nil spec")
	}
	if s.Limit < 0 {
		return badSpec("negative limit %d", s.Limit)
	}
	if len(s.Aggregates) == 0 {
		return badSpec("spec declares no aggregates")
	}

	if err := validatePredicate(s.Filter, attributeField, "filter"); err != nil {
		return err
	}

	for _, g := range s.GroupBy {
		if _, ok := order.Lookup(g); !ok {
			return unknownColumn(g, "group_by")
		}
	}

	outputs, err := outputColumns(s)
	if err != nil {
		return err
	}

	outputField := func(name string) (table.Kind, bool) {
		k, ok := outputs[name]
		return k, ok
	}

	if s.Rank != nil {
		if err := validateRank(s, outputs); err != nil {
			return err
		}
		outputs[RankAscColumn] = table.KindInt
		outputs[RankDescColumn] = table.KindInt
	}

	if err := validatePredicate(s.Having, outputField, "having"); err != nil {
		return err
	}

	for _, key := range s.OrderBy {
		if _, ok := outputs[key.Column]; !ok {
			return unknownColumn(key.Column, "order_by")
		}
	}

	return nil
}

// Columns returns the typed output columns of a validated spec, in order:
// group-by keys, aggregates, derived columns, then rank columns if a rank
// window is set.
func (s *Spec) Columns() []table.Column {
	cols := make([]table.Column, 0, len(s.GroupBy)+len(s.Aggregates)+len(s.Derived)+2)
	for _, g := range s.GroupBy {
		a, _ := order.Lookup(g)
		cols = append(cols, table.Column{Name: g, Kind: a.Kind})
	}
	for _, agg := range s.Aggregates {
		cols = append(cols, table.Column{Name: agg.Name, Kind: aggregateKind(agg)})
	}
	for _, d := range s.Derived {
		cols = append(cols, table.Column{Name: d.Name, Kind: table.KindNumber})
	}
	if s.Rank != nil {
		cols = append(cols,
			table.Column{Name: RankAscColumn, Kind: table.KindInt},
			table.Column{Name: RankDescColumn, Kind: table.KindInt},
		)
	}
	return cols
}

// outputColumns builds the name -> kind map for aggregate and derived
// output, validating uniqueness, function applicability, and derived
// expression references along the way.
func outputColumns(s *Spec) (map[string]table.Kind, error) {
	outputs := make(map[string]table.Kind, len(s.GroupBy)+len(s.Aggregates)+len(s.Derived))
	for _, g := range s.GroupBy {
		a, _ := order.Lookup(g)
		outputs[g] = a.Kind
	}

	for _, agg := range s.Aggregates {
		if agg.Name == "" {
			return nil, badSpec("aggregate with empty output name")
		}
		if _, dup := outputs[agg.Name]; dup {
			return nil, badSpec("duplicate output column %q", agg.Name)
		}
		if !ValidFuncs[agg.Func] {
			return nil, badSpec("unknown aggregate function %q", agg.Func)
		}
		if agg.Func == FuncCount {
			outputs[agg.Name] = table.KindInt
			continue
		}
		attr, ok := order.Lookup(agg.Of)
		if !ok {
			return nil, unknownColumn(agg.Of, "aggregate "+agg.Name)
		}
		if agg.Func == FuncCountDistinct {
			outputs[agg.Name] = table.KindInt
			continue
		}
		if !attr.Kind.Numeric() {
			return nil, typeMismatch(agg.Of, string(agg.Func)+" requires a numeric attribute")
		}
		outputs[agg.Name] = aggregateKind(agg)
	}

	for _, d := range s.Derived {
		if d.Name == "" {
			return nil, badSpec("derived column with empty name")
		}
		if _, dup := outputs[d.Name]; dup {
			return nil, badSpec("duplicate output column %q", d.Name)
		}
		if err := validateExpr(d.Expr, outputs, d.Name); err != nil {
			return nil, err
		}
		outputs[d.Name] = table.KindNumber
	}

	return outputs, nil
}

func aggregateKind(agg Aggregate) table.Kind {
	switch agg.Func {
	case FuncCount, FuncCountDistinct:
		return table.KindInt
	}
	attr, ok := order.Lookup(agg.Of)
	if !ok {
		return table.KindNumber
	}
	if attr.Kind == table.KindMoney {
		return table.KindMoney
	}
	if agg.Func == FuncAvg {
		return table.KindNumber
	}
	return attr.Kind
}

func validateRank(s *Spec, outputs map[string]table.Kind) error {
	r := s.Rank
	if r.Keep < 0 {
		return badSpec("negative rank keep %d", r.Keep)
	}
	kind, ok := outputs[r.By]
	if !ok {
		return unknownColumn(r.By, "rank window")
	}
	if !kind.Numeric() {
		return typeMismatch(r.By, "rank window requires a numeric column")
	}
	inGroup := make(map[string]bool, len(s.GroupBy))
	for _, g := range s.GroupBy {
		inGroup[g] = true
	}
	for _, p := range r.PartitionBy {
		if !inGroup[p] {
			return badSpec("rank partition key %q is not a group_by key", p)
		}
	}
	return nil
}

func validateExpr(e Expr, outputs map[string]table.Kind, derivedName string) error {
	switch expr := e.(type) {
	case nil:
		return badSpec("derived column %q has no expression", derivedName)
	case Col:
		kind, ok := outputs[string(expr)]
		if !ok {
			return unknownColumn(string(expr), "derived "+derivedName)
		}
		if !kind.Numeric() {
			return typeMismatch(string(expr), "derived arithmetic requires numeric columns")
		}
		return nil
	case Const:
		if _, err := table.ParseDecimal(string(expr)); err != nil {
			return badSpec("derived %q: bad constant %q", derivedName, string(expr))
		}
		return nil
	case Binary:
		if err := validateExpr(expr.Left, outputs, derivedName); err != nil {
			return err
		}
		return validateExpr(expr.Right, outputs, derivedName)
	default:
		return badSpec("derived %q: unsupported expression %T", derivedName, e)
	}
}

// validatePredicate walks a predicate checking that every referenced field
// exists and that literal values are comparable with the field's kind.
// kindOf resolves names either against the attribute registry (filter) or
// against output columns (having).
func validatePredicate(p Predicate, kindOf func(string) (table.Kind, bool), context string) error {
	if p == nil {
		return nil
	}

	switch pred := p.(type) {
	case And:
		for _, sub := range pred.Predicates {
			if err := validatePredicate(sub, kindOf, context); err != nil {
				return err
			}
		}
		return nil
	case *And:
		return validatePredicate(*pred, kindOf, context)
	case Compare:
		kind, ok := kindOf(pred.Field)
		if !ok {
			return unknownColumn(pred.Field, context)
		}
		if !literalComparable(kind, pred.Value) {
			return typeMismatch(pred.Field, "literal not comparable with "+string(kind)+" column")
		}
		return nil
	case *Compare:
		return validatePredicate(*pred, kindOf, context)
	case CompareFields:
		lk, ok := kindOf(pred.Left)
		if !ok {
			return unknownColumn(pred.Left, context)
		}
		rk, ok := kindOf(pred.Right)
		if !ok {
			return unknownColumn(pred.Right, context)
		}
		if !kindsComparable(lk, rk) {
			return typeMismatch(pred.Left, "cannot compare "+string(lk)+" with "+string(rk))
		}
		return nil
	case *CompareFields:
		return validatePredicate(*pred, kindOf, context)
	case In:
		kind, ok := kindOf(pred.Field)
		if !ok {
			return unknownColumn(pred.Field, context)
		}
		if kind != table.KindText {
			return typeMismatch(pred.Field, "in-set membership requires a text column")
		}
		return nil
	case *In:
		return validatePredicate(*pred, kindOf, context)
	case IsNull:
		if _, ok := kindOf(pred.Field); !ok {
			return unknownColumn(pred.Field, context)
		}
		return nil
	case *IsNull:
		return validatePredicate(*pred, kindOf, context)
	default:
		return badSpec("%s: unsupported predicate %T", context, p)
	}
}

func attributeField(name string) (table.Kind, bool) {
	a, ok := order.Lookup(name)
	return a.Kind, ok
}

func literalComparable(kind table.Kind, v table.Value) bool {
	switch v.(type) {
	case table.Text:
		return kind == table.KindText
	case table.Int, table.Decimal:
		return kind.Numeric()
	case table.Date:
		return kind == table.KindDate
	case table.Null:
		return false
	}
	return false
}

func kindsComparable(a, b table.Kind) bool {
	if a == b {
		return true
	}
	return a.Numeric() && b.Numeric()
}
