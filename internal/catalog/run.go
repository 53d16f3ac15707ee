package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Favouriteg2/kms-analytics/internal/engine"
	"github.com/Favouriteg2/kms-analytics/internal/order"
	"github.com/Favouriteg2/kms-analytics/internal/query"
)

// Outcome is one report's result in a batch run. Exactly one of Result and
// Err is set: a failed report never carries a partial table.
type Outcome struct {
	Report Report
	Result *engine.Result
	Err    error
}

// Runner executes a slice of reports over one loaded order book. Reports
// are isolated: one failing leaves the rest of the batch intact, and a
// chained report whose source failed fails with that source's error.
type Runner struct {
	Rows   []order.Order
	Logger *slog.Logger
}

// All returns the full built-in catalog in presentation order: questions,
// then the generated summary facts, then the quality checks.
func All() ([]Report, error) {
	compiled, err := Compile()
	if err != nil {
		return nil, err
	}
	summary, err := SummaryReports()
	if err != nil {
		return nil, err
	}

	var out []Report
	for _, section := range []string{SectionQuestions, SectionSummary, SectionQuality} {
		if section == SectionSummary {
			out = append(out, summary...)
			continue
		}
		for _, r := range compiled {
			if r.Def.Section == section {
				out = append(out, r)
			}
		}
	}
	return out, nil
}

// Run executes the reports in order, resolving chains against earlier
// results in the same batch. Every run gets a fresh correlation id; results
// never leak between runs.
func (r *Runner) Run(ctx context.Context, reports []Report) []Outcome {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	runID := uuid.NewString()
	logger = logger.With("run_id", runID)
	logger.Info("batch run started", "reports", len(reports), "rows", len(r.Rows))

	byID := make(map[string]Outcome, len(reports))
	outcomes := make([]Outcome, 0, len(reports))
	for _, rep := range reports {
		started := time.Now()
		res, err := r.runOne(ctx, rep, byID)

		out := Outcome{Report: rep, Result: res, Err: err}
		byID[rep.Def.ID] = out
		outcomes = append(outcomes, out)

		if err != nil {
			logger.Error("report failed", "report", rep.Def.ID, "error", err)
			continue
		}
		logger.Info("report complete",
			"report", rep.Def.ID,
			"groups", len(res.Rows),
			"elapsed", time.Since(started))
	}
	return outcomes
}

func (r *Runner) runOne(ctx context.Context, rep Report, byID map[string]Outcome) (*engine.Result, error) {
	spec := rep.Spec
	if rep.Def.Chain != nil {
		chained, err := chainSpec(spec, rep.Def.Chain, byID)
		if err != nil {
			return nil, err
		}
		spec = chained
	}
	return engine.Execute(ctx, r.Rows, spec)
}

// chainSpec materializes phase 2 of a two-phase query: the distinct values
// of the source report's key column become an in-set condition ANDed onto
// this report's filter. An empty key set is a valid chain and selects no
// rows.
func chainSpec(spec *query.Spec, chain *ChainDef, byID map[string]Outcome) (*query.Spec, error) {
	src, ok := byID[chain.From]
	if !ok {
		return nil, fmt.Errorf("chain source %q has not run in this batch", chain.From)
	}
	if src.Err != nil {
		return nil, fmt.Errorf("chain source %q failed: %w", chain.From, src.Err)
	}

	keys, err := src.Result.Distinct(chain.Column)
	if err != nil {
		return nil, fmt.Errorf("chain source %q: %w", chain.From, err)
	}

	in := query.In{Field: chain.Into, Values: keys}
	out := *spec
	if out.Filter == nil {
		out.Filter = in
	} else {
		out.Filter = query.And{Predicates: []query.Predicate{out.Filter, in}}
	}
	return &out, nil
}
