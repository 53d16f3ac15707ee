// Package catalog holds the fixed report catalog: the business questions,
// the argmax summary facts, and the data-quality checks, all expressed as
// declarative definitions compiled into query specs. The embedded CUE file
// is the catalog source of truth; ad-hoc report files load from YAML in
// the same flat shape.
package catalog

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Favouriteg2/kms-analytics/internal/order"
	"github.com/Favouriteg2/kms-analytics/internal/query"
	"github.com/Favouriteg2/kms-analytics/internal/table"
)

// Catalog sections, in presentation order.
const (
	SectionQuestions = "questions"
	SectionSummary   = "summary"
	SectionQuality   = "quality"
)

// ReportDef is the flat, serialization-friendly form of one report. CUE
// decodes via the json tags, YAML via the yaml tags; ToSpec translates the
// flat form into a typed query.Spec against the attribute registry.
type ReportDef struct {
	ID       string `json:"id" yaml:"id"`
	Title    string `json:"title" yaml:"title"`
	Question string `json:"question,omitempty" yaml:"question,omitempty"`
	Section  string `json:"section" yaml:"section"`

	Filters    []FilterDef  `json:"filters,omitempty" yaml:"filters,omitempty"`
	GroupBy    []string     `json:"group_by,omitempty" yaml:"group_by,omitempty"`
	Aggregates []AggDef     `json:"aggregates" yaml:"aggregates"`
	Derived    []DerivedDef `json:"derived,omitempty" yaml:"derived,omitempty"`
	Rank       *RankDef     `json:"rank,omitempty" yaml:"rank,omitempty"`
	OrderBy    []OrderDef   `json:"order_by,omitempty" yaml:"order_by,omitempty"`
	Limit      int          `json:"limit,omitempty" yaml:"limit,omitempty"`

	// Chain makes this report phase 2 of a two-phase query: the distinct
	// values of Column in the From report's result become an in-set filter
	// on Into.
	Chain *ChainDef `json:"chain,omitempty" yaml:"chain,omitempty"`
}

// FilterDef is one AND-combined pre-aggregate condition. Exactly one of
// Value, Values, or Right applies, depending on Op.
type FilterDef struct {
	Field  string   `json:"field" yaml:"field"`
	Op     string   `json:"op" yaml:"op"`
	Value  string   `json:"value,omitempty" yaml:"value,omitempty"`
	Values []string `json:"values,omitempty" yaml:"values,omitempty"`
	Right  string   `json:"right,omitempty" yaml:"right,omitempty"`
}

// AggDef names one aggregate output column.
type AggDef struct {
	Name string `json:"name" yaml:"name"`
	Fn   string `json:"fn" yaml:"fn"`
	Of   string `json:"of,omitempty" yaml:"of,omitempty"`
}

// DerivedDef declares a percentage column: PercentOf[0]/PercentOf[1]*100.
// The only derived arithmetic the catalog needs is the ratio-of-totals
// percentage; ad-hoc Go callers can build richer query.Expr trees directly.
type DerivedDef struct {
	Name      string   `json:"name" yaml:"name"`
	PercentOf []string `json:"percent_of" yaml:"percent_of"`
}

// RankDef declares a both-direction rank window.
type RankDef struct {
	PartitionBy []string `json:"partition_by,omitempty" yaml:"partition_by,omitempty"`
	By          string   `json:"by" yaml:"by"`
	Keep        int      `json:"keep,omitempty" yaml:"keep,omitempty"`
}

// OrderDef is one sort key.
type OrderDef struct {
	Column string `json:"column" yaml:"column"`
	Desc   bool   `json:"desc,omitempty" yaml:"desc,omitempty"`
}

// ChainDef links a phase-2 report to its phase-1 key set.
type ChainDef struct {
	From   string `json:"from" yaml:"from"`
	Column string `json:"column" yaml:"column"`
	Into   string `json:"into" yaml:"into"`
}

// Report is a compiled catalog entry: the definition plus its validated
// spec.
type Report struct {
	Def  ReportDef
	Spec *query.Spec
}

// ToSpec translates the flat definition into a typed spec and validates it
// against the attribute registry.
func (d ReportDef) ToSpec() (*query.Spec, error) {
	spec := &query.Spec{
		GroupBy: d.GroupBy,
		Limit:   d.Limit,
	}

	if len(d.Filters) > 0 {
		preds := make([]query.Predicate, 0, len(d.Filters))
		for _, f := range d.Filters {
			p, err := f.toPredicate()
			if err != nil {
				return nil, fmt.Errorf("report %s: %w", d.ID, err)
			}
			preds = append(preds, p)
		}
		if len(preds) == 1 {
			spec.Filter = preds[0]
		} else {
			spec.Filter = query.And{Predicates: preds}
		}
	}

	for _, a := range d.Aggregates {
		spec.Aggregates = append(spec.Aggregates, query.Aggregate{
			Name: a.Name,
			Func: query.Func(a.Fn),
			Of:   a.Of,
		})
	}

	for _, der := range d.Derived {
		if len(der.PercentOf) != 2 {
			return nil, fmt.Errorf("report %s: derived %q needs percent_of [numerator, denominator]", d.ID, der.Name)
		}
		spec.Derived = append(spec.Derived, query.Derived{
			Name: der.Name,
			Expr: query.Percent(der.PercentOf[0], der.PercentOf[1]),
		})
	}

	if d.Rank != nil {
		spec.Rank = &query.RankWindow{
			PartitionBy: d.Rank.PartitionBy,
			By:          d.Rank.By,
			Keep:        d.Rank.Keep,
		}
	}

	for _, o := range d.OrderBy {
		spec.OrderBy = append(spec.OrderBy, query.SortKey{Column: o.Column, Desc: o.Desc})
	}

	if err := query.Validate(spec); err != nil {
		return nil, fmt.Errorf("report %s: %w", d.ID, err)
	}
	return spec, nil
}

func (f FilterDef) toPredicate() (query.Predicate, error) {
	switch f.Op {
	case "in":
		return query.In{Field: f.Field, Values: f.Values}, nil
	case "is_null":
		return query.IsNull{Field: f.Field}, nil
	case "not_null":
		return query.IsNull{Field: f.Field, Negate: true}, nil
	}

	op, ok := cmpOp(f.Op)
	if !ok {
		return nil, fmt.Errorf("filter on %q: unknown op %q", f.Field, f.Op)
	}
	if f.Right != "" {
		return query.CompareFields{Left: f.Field, Op: op, Right: f.Right}, nil
	}

	v, err := literalFor(f.Field, f.Value)
	if err != nil {
		return nil, err
	}
	return query.Compare{Field: f.Field, Op: op, Value: v}, nil
}

func cmpOp(op string) (query.CmpOp, bool) {
	switch op {
	case "eq", "ne", "lt", "le", "gt", "ge":
		return query.CmpOp(op), true
	}
	return "", false
}

// literalFor parses a filter literal according to the attribute's kind, so
// "2009-01-01" against order_date is a date and "0" against profit is a
// decimal. Unknown attributes are left to spec validation to report with a
// proper ConfigError.
func literalFor(field, raw string) (table.Value, error) {
	attr, ok := order.Lookup(field)
	if !ok {
		return table.Text(raw), nil
	}
	switch attr.Kind {
	case table.KindText:
		return table.Text(raw), nil
	case table.KindInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("filter on %q: bad integer %q", field, raw)
		}
		return table.Int(n), nil
	case table.KindMoney, table.KindNumber:
		d, err := table.ParseDecimal(raw)
		if err != nil {
			return nil, fmt.Errorf("filter on %q: bad decimal %q", field, raw)
		}
		return d, nil
	case table.KindDate:
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, fmt.Errorf("filter on %q: bad date %q (want YYYY-MM-DD)", field, raw)
		}
		return table.Date(t.UTC()), nil
	}
	return table.Text(raw), nil
}

// LoadReportFile reads ad-hoc report definitions from a YAML file with a
// top-level `reports` list and compiles them like catalog entries.
func LoadReportFile(path string) ([]Report, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report file: %w", err)
	}

	var file struct {
		Reports []ReportDef `yaml:"reports"`
	}
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse report file %s: %w", path, err)
	}
	if len(file.Reports) == 0 {
		return nil, fmt.Errorf("report file %s declares no reports", path)
	}

	return compileDefs(file.Reports)
}

// compileDefs turns definitions into validated reports, checking ID
// uniqueness and that chains reference an earlier report.
func compileDefs(defs []ReportDef) ([]Report, error) {
	seen := make(map[string]bool, len(defs))
	reports := make([]Report, 0, len(defs))
	for _, def := range defs {
		if def.ID == "" {
			return nil, fmt.Errorf("report with empty id")
		}
		if seen[def.ID] {
			return nil, fmt.Errorf("duplicate report id %q", def.ID)
		}
		if def.Chain != nil && !seen[def.Chain.From] {
			return nil, fmt.Errorf("report %s: chain references %q, which is not an earlier report", def.ID, def.Chain.From)
		}
		seen[def.ID] = true

		spec, err := def.ToSpec()
		if err != nil {
			return nil, err
		}
		reports = append(reports, Report{Def: def, Spec: spec})
	}
	return reports, nil
}
