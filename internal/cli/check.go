package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Favouriteg2/kms-analytics/internal/catalog"
	"github.com/Favouriteg2/kms-analytics/internal/table"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	Source  SourceOptions
	Timeout time.Duration
}

// NewCheckCommand creates the check command: run only the data-quality
// section and exit non-zero when any check finds rows. Findings are advice,
// not rejection - the exit code lets a pipeline decide, the data still
// loads and reports still run.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "check",
		Short:         "Run the data-quality checks",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChecks(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Source.CSV, "csv", "", "path to CSV order export")
	cmd.Flags().StringVar(&opts.Source.Database, "db", "", "path to SQLite database with an orders table")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 30*time.Second, "deadline for all checks")

	return cmd
}

func runChecks(cmd *cobra.Command, opts *CheckOptions) error {
	configureLogging(opts.Verbose)
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	all, err := catalog.All()
	if err != nil {
		formatter.Error("BAD_CATALOG", err.Error(), nil)
		return WrapExitError(ExitCommandError, "compile catalog", err)
	}
	var checks []catalog.Report
	for _, r := range all {
		if r.Def.Section == catalog.SectionQuality {
			checks = append(checks, r)
		}
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
	defer cancel()

	rows, err := loadRows(ctx, opts.Source)
	if err != nil {
		formatter.Error("LOAD_FAILED", err.Error(), nil)
		return err
	}

	runner := &catalog.Runner{Rows: rows}
	outcomes := runner.Run(ctx, checks)

	findings := 0
	failed := 0
	for _, out := range outcomes {
		if out.Err != nil {
			failed++
			continue
		}
		if checkRows(out) > 0 {
			findings++
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
		fmt.Fprintf(formatter.Writer, "%d of %d checks found rows\n", findings, len(outcomes))
	}

	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d checks failed to run", failed))
	}
	if findings > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d quality checks found rows", findings))
	}
	return nil
}

// checkRows reads the matched-row count from a quality check result. The
// quality checks all aggregate over the whole table, so the count sits in
// the single row's `rows` column.
func checkRows(out catalog.Outcome) int64 {
	v, err := out.Result.Value(0, "rows")
	if err != nil {
		return 0
	}
	if n, ok := v.(table.Int); ok {
		return int64(n)
	}
	return 0
}
