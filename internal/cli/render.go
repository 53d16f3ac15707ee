package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/Favouriteg2/kms-analytics/internal/catalog"
	"github.com/Favouriteg2/kms-analytics/internal/engine"
	"github.com/Favouriteg2/kms-analytics/internal/table"
)

// reportJSON is the JSON shape of one report outcome. Cells are rendered
// strings so monetary values survive serialization without float drift.
type reportJSON struct {
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	Question string     `json:"question,omitempty"`
	Section  string     `json:"section"`
	Columns  []string   `json:"columns,omitempty"`
	Rows     [][]string `json:"rows,omitempty"`
	Error    string     `json:"error,omitempty"`
}

func outcomeJSON(out catalog.Outcome) reportJSON {
	r := reportJSON{
		ID:       out.Report.Def.ID,
		Title:    out.Report.Def.Title,
		Question: out.Report.Def.Question,
		Section:  out.Report.Def.Section,
	}
	if out.Err != nil {
		r.Error = out.Err.Error()
		return r
	}
	for _, c := range out.Result.Columns {
		r.Columns = append(r.Columns, c.Name)
	}
	for i := range out.Result.Rows {
		r.Rows = append(r.Rows, renderRow(out.Result, i))
	}
	return r
}

// renderRow renders one result row to display strings. Monetary cells are
// already rounded by the engine; averages and percentages quantize to two
// places here, at presentation only.
func renderRow(res *engine.Result, row int) []string {
	cells := make([]string, len(res.Columns))
	for i, col := range res.Columns {
		cells[i] = renderCell(col.Kind, res.Rows[row][i])
	}
	return cells
}

func renderCell(kind table.Kind, v table.Value) string {
	if table.IsNull(v) {
		return "NULL"
	}
	if kind == table.KindMoney || kind == table.KindNumber {
		return table.Format(table.Round2(v))
	}
	return table.Format(v)
}

// renderText writes one report outcome as an aligned text table.
func renderText(w io.Writer, out catalog.Outcome) {
	def := out.Report.Def
	fmt.Fprintf(w, "== %s (%s)\n", def.Title, def.ID)
	if def.Question != "" {
		fmt.Fprintf(w, "   %s\n", def.Question)
	}
	if out.Err != nil {
		fmt.Fprintf(w, "   FAILED: %v\n\n", out.Err)
		return
	}

	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', tabwriter.AlignRight)
	for i, c := range out.Result.Columns {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, c.Name)
	}
	fmt.Fprintln(tw)
	for i := range out.Result.Rows {
		for j, cell := range renderRow(out.Result, i) {
			if j > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, cell)
		}
		fmt.Fprintln(tw)
	}
	tw.Flush()
	fmt.Fprintf(w, "(%d rows)\n\n", len(out.Result.Rows))
}
