package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Favouriteg2/kms-analytics/internal/catalog"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Source   SourceOptions
	SpecFile string
	Timeout  time.Duration
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run [report-id...]",
		Short: "Run catalog or ad-hoc reports over an order source",
		Long: `Run reports over the Kultra Mega Stores order book.

With no arguments the full built-in catalog runs: the business questions,
the summary facts, and the data-quality checks. Naming report ids runs only
those reports; a chained report pulls in its source report automatically.
--spec replaces the built-in catalog with report definitions from a YAML
file.

Example:
  kms run --csv orders.csv
  kms run --db orders.db top_ten_customers top_ten_patterns
  kms run --csv orders.csv --spec adhoc.yaml --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReports(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.Source.CSV, "csv", "", "path to CSV order export")
	cmd.Flags().StringVar(&opts.Source.Database, "db", "", "path to SQLite database with an orders table")
	cmd.Flags().StringVar(&opts.SpecFile, "spec", "", "YAML report file replacing the built-in catalog")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 30*time.Second, "deadline for the whole batch")

	return cmd
}

func runReports(cmd *cobra.Command, opts *RunOptions, args []string) error {
	configureLogging(opts.Verbose)
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	reports, err := resolveReports(opts.SpecFile, args)
	if err != nil {
		formatter.Error("BAD_SPEC", err.Error(), nil)
		return WrapExitError(ExitCommandError, "resolve reports", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
	defer cancel()

	rows, err := loadRows(ctx, opts.Source)
	if err != nil {
		formatter.Error("LOAD_FAILED", err.Error(), nil)
		return err
	}

	runner := &catalog.Runner{Rows: rows}
	outcomes := runner.Run(ctx, reports)

	failed := 0
	for _, out := range outcomes {
		if out.Err != nil {
			failed++
		}
	}

	if opts.Format == "json" {
		payload := make([]reportJSON, len(outcomes))
		for i, out := range outcomes {
			payload[i] = outcomeJSON(out)
		}
		if err := formatter.SuccessJSON(payload); err != nil {
			return err
		}
	} else {
		for _, out := range outcomes {
			renderText(formatter.Writer, out)
		}
	}

	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d reports failed", failed, len(outcomes)))
	}
	return nil
}

// resolveReports picks the reports to run: the built-in catalog or a YAML
// file, optionally narrowed to named ids. Selection keeps catalog order and
// pulls in chain sources a selected report depends on.
func resolveReports(specFile string, ids []string) ([]catalog.Report, error) {
	var (
		reports []catalog.Report
		err     error
	)
	if specFile != "" {
		reports, err = catalog.LoadReportFile(specFile)
	} else {
		reports, err = catalog.All()
	}
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return reports, nil
	}

	byID := make(map[string]catalog.Report, len(reports))
	for _, r := range reports {
		byID[r.Def.ID] = r
	}

	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		r, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("unknown report %q", id)
		}
		want[id] = true
		for r.Def.Chain != nil {
			r = byID[r.Def.Chain.From]
			want[r.Def.ID] = true
		}
	}

	selected := make([]catalog.Report, 0, len(want))
	for _, r := range reports {
		if want[r.Def.ID] {
			selected = append(selected, r)
		}
	}
	return selected, nil
}
