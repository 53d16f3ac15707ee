package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/Favouriteg2/kms-analytics/internal/loader"
	"github.com/Favouriteg2/kms-analytics/internal/order"
)

// SourceOptions selects where the order book loads from. Exactly one of the
// two sources must be set.
type SourceOptions struct {
	CSV      string
	Database string
}

// loadRows reads the full order table from the configured source. Batch
// runs share one load: every report in the run answers against the same
// snapshot.
func loadRows(ctx context.Context, src SourceOptions) ([]order.Order, error) {
	switch {
	case src.CSV != "" && src.Database != "":
		return nil, NewExitError(ExitCommandError, "set --csv or --db, not both")
	case src.CSV != "":
		f, err := os.Open(src.CSV)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "open csv", err)
		}
		defer f.Close()
		rows, err := loader.ReadCSV(f)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "load csv", err)
		}
		slog.Info("orders loaded", "source", src.CSV, "rows", len(rows))
		return rows, nil
	case src.Database != "":
		db, err := loader.OpenSQLite(src.Database)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "open database", err)
		}
		defer db.Close()
		rows, err := db.Load(ctx, nil)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "load database", err)
		}
		slog.Info("orders loaded", "source", src.Database, "rows", len(rows))
		return rows, nil
	default:
		return nil, NewExitError(ExitCommandError, "an order source is required: --csv <file> or --db <file>")
	}
}

// configureLogging installs the process logger. Diagnostics always go to
// stderr so JSON output on stdout stays parseable.
func configureLogging(verbose bool) {
	level := slog.LevelInfo
	if !verbose {
		level = slog.LevelWarn
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
