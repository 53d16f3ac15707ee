package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Favouriteg2/kms-analytics/internal/catalog"
)

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List the built-in report catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listReports(cmd, rootOpts)
		},
	}
	return cmd
}

type listEntryJSON struct {
	ID        string `json:"id"`
	Section   string `json:"section"`
	Title     string `json:"title"`
	Question  string `json:"question,omitempty"`
	ChainFrom string `json:"chain_from,omitempty"`
}

func listReports(cmd *cobra.Command, opts *RootOptions) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	reports, err := catalog.All()
	if err != nil {
		formatter.Error("BAD_CATALOG", err.Error(), nil)
		return WrapExitError(ExitCommandError, "compile catalog", err)
	}

	if opts.Format == "json" {
		entries := make([]listEntryJSON, len(reports))
		for i, r := range reports {
			entries[i] = listEntryJSON{
				ID:       r.Def.ID,
				Section:  r.Def.Section,
				Title:    r.Def.Title,
				Question: r.Def.Question,
			}
			if r.Def.Chain != nil {
				entries[i].ChainFrom = r.Def.Chain.From
			}
		}
		return formatter.SuccessJSON(entries)
	}

	tw := tabwriter.NewWriter(formatter.Writer, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSECTION\tTITLE")
	for _, r := range reports {
		title := r.Def.Title
		if r.Def.Chain != nil {
			title += fmt.Sprintf(" (chained from %s)", r.Def.Chain.From)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Def.ID, r.Def.Section, title)
	}
	return tw.Flush()
}
