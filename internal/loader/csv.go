// Package loader ingests the flat order table from its two supported
// sources: a delimited export file and an existing SQLite table. Loaders
// produce the in-memory []order.Order slice the engine consumes; they
// normalize, they do not reject - null or negative values are data-quality
// findings for the catalog's validation reports, not load errors.
package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
	"golang.org/x/text/unicode/norm"

	"github.com/Favouriteg2/kms-analytics/internal/order"
)

// Date layouts the export files are known to use, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"1/2/2006",
	"2006/01/02",
	"02-Jan-2006",
}

// ReadCSV parses a header-driven CSV export into order rows.
//
// Header names map to attribute names after snake_case folding, so
// "Product Sub-Category" and "product_sub_category" both resolve. Columns
// that match no attribute are skipped. Unparseable numeric or date cells
// load as NULL / zero rather than failing the file; the quality reports
// count them.
func ReadCSV(r io.Reader) ([]order.Order, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	setters := make([]func(*order.Order, string), len(header))
	for i, h := range header {
		setters[i] = setterFor(snakeCase(h))
	}

	var rows []order.Order
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		var o order.Order
		for i, raw := range record {
			if i >= len(setters) || setters[i] == nil {
				continue
			}
			setters[i](&o, raw)
		}
		rows = append(rows, o)
	}
	return rows, nil
}

// setterFor returns the field setter for an attribute name, or nil for
// columns the schema does not know.
func setterFor(name string) func(*order.Order, string) {
	switch name {
	case "row_id":
		return func(o *order.Order, s string) { o.RowID = parseInt(s) }
	case "order_id":
		return func(o *order.Order, s string) { o.OrderID = parseInt(s) }
	case "order_date":
		return func(o *order.Order, s string) { o.OrderDate = parseDate(s) }
	case "order_priority":
		return func(o *order.Order, s string) { o.OrderPriority = cleanText(s) }
	case "order_quantity":
		return func(o *order.Order, s string) { o.OrderQuantity = parseInt(s) }
	case "sales":
		return func(o *order.Order, s string) { o.Sales = parseDecimal(s) }
	case "discount":
		return func(o *order.Order, s string) { o.Discount = parseDecimal(s) }
	case "ship_mode":
		return func(o *order.Order, s string) { o.ShipMode = cleanText(s) }
	case "profit":
		return func(o *order.Order, s string) { o.Profit = parseDecimal(s) }
	case "unit_price":
		return func(o *order.Order, s string) { o.UnitPrice = parseDecimal(s) }
	case "shipping_cost":
		return func(o *order.Order, s string) { o.ShippingCost = parseDecimal(s) }
	case "customer_name":
		return func(o *order.Order, s string) { o.CustomerName = cleanText(s) }
	case "province":
		return func(o *order.Order, s string) { o.Province = cleanText(s) }
	case "region":
		return func(o *order.Order, s string) { o.Region = cleanText(s) }
	case "customer_segment":
		return func(o *order.Order, s string) { o.CustomerSegment = cleanText(s) }
	case "product_category":
		return func(o *order.Order, s string) { o.ProductCategory = cleanText(s) }
	case "product_sub_category":
		return func(o *order.Order, s string) { o.ProductSubCategory = cleanText(s) }
	case "product_name":
		return func(o *order.Order, s string) { o.ProductName = cleanText(s) }
	case "product_container":
		return func(o *order.Order, s string) { o.ProductContainer = cleanText(s) }
	case "product_base_margin":
		return func(o *order.Order, s string) { o.BaseMargin = parseDecimal(s) }
	case "ship_date":
		return func(o *order.Order, s string) { o.ShipDate = parseDate(s) }
	}
	return nil
}

// snakeCase folds a header like "Product Sub-Category" to
// "product_sub_category".
func snakeCase(h string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(strings.TrimSpace(h)) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.TrimRight(b.String(), "_")
}

// cleanText trims and NFC-normalizes a text dimension so that group keys
// with different Unicode compositions of the same name land in one bucket.
func cleanText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func parseInt(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// parseDecimal parses a monetary or numeric cell. Currency symbols and
// thousands separators are stripped. Empty or unparseable cells load as
// NULL.
func parseDecimal(s string) *apd.Decimal {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return nil
	}
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return nil
	}
	return d
}

func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		}
	}
	return time.Time{}
}
