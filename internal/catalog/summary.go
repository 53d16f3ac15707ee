package catalog

// The summary section is five argmax facts over the whole order book. Each
// is the same shape - group by one dimension, total one measure, keep the
// largest group - so the reports are generated here instead of being spelled
// out five times in the CUE source.

type argmaxFact struct {
	id        string
	title     string
	dimension string
	measure   string
	total     string
}

var summaryFacts = []argmaxFact{
	{"summary_top_category", "Category with the highest sales", "product_category", "sales", "total_sales"},
	{"summary_top_region", "Region with the highest sales", "region", "sales", "total_sales"},
	{"summary_top_segment", "Customer segment with the highest sales", "customer_segment", "sales", "total_sales"},
	{"summary_top_ship_mode", "Ship mode with the highest shipping cost", "ship_mode", "shipping_cost", "total_shipping_cost"},
	{"summary_top_province", "Province with the highest sales", "province", "sales", "total_sales"},
}

// argMax builds the report that answers "which <dimension> has the largest
// total <measure>": group, sum, sort descending, keep one row. Ties resolve
// to the lexicographically first dimension value by the engine's stable
// group-key ordering.
func argMax(f argmaxFact) (Report, error) {
	def := ReportDef{
		ID:      f.id,
		Title:   f.title,
		Section: SectionSummary,
		GroupBy: []string{f.dimension},
		Aggregates: []AggDef{
			{Name: f.total, Fn: "sum", Of: f.measure},
		},
		OrderBy: []OrderDef{{Column: f.total, Desc: true}},
		Limit:   1,
	}
	spec, err := def.ToSpec()
	if err != nil {
		return Report{}, err
	}
	return Report{Def: def, Spec: spec}, nil
}

// SummaryReports compiles the generated summary facts.
func SummaryReports() ([]Report, error) {
	reports := make([]Report, 0, len(summaryFacts))
	for _, f := range summaryFacts {
		r, err := argMax(f)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, nil
}
