// Package order defines the sales-transaction row and its attribute
// registry. The registry is the single source of truth for attribute names
// and kinds: query validation, the engine, and the loaders all resolve
// attributes through it, so an unknown or mistyped column fails before any
// row is scanned.
package order

import (
	"time"

	"github.com/cockroachdb/apd/v3"

	"github.com/Favouriteg2/kms-analytics/internal/table"
)

// Customer segments as they appear in the source data.
const (
	SegmentConsumer      = "Consumer"
	SegmentCorporate     = "Corporate"
	SegmentHomeOffice    = "Home Office"
	SegmentSmallBusiness = "Small Business"
)

// Order is one row of the flat transaction table. Rows are immutable once
// loaded; the engine never mutates them.
//
// Monetary and numeric columns are *apd.Decimal with nil meaning NULL in
// the source. NULLs are data-quality findings, not load errors: the quality
// reports count them, everything else skips them per aggregate semantics.
// A zero time.Time likewise means a missing date.
type Order struct {
	RowID              int64
	OrderID            int64
	OrderDate          time.Time
	OrderPriority      string
	OrderQuantity      int64
	Sales              *apd.Decimal
	Discount           *apd.Decimal
	ShipMode           string
	Profit             *apd.Decimal
	UnitPrice          *apd.Decimal
	ShippingCost       *apd.Decimal
	CustomerName       string
	Province           string
	Region             string
	CustomerSegment    string
	ProductCategory    string
	ProductSubCategory string
	ProductName        string
	ProductContainer   string
	BaseMargin         *apd.Decimal
	ShipDate           time.Time
}

// Attribute describes one named, typed attribute of an Order together with
// its accessor. Accessors return table.Null for missing values.
type Attribute struct {
	Name string
	Kind table.Kind
	Get  func(*Order) table.Value
}

// Attributes lists every attribute in schema order. The slice order is the
// column order loaders expect and the deterministic iteration order for
// everything that walks the schema.
var Attributes = []Attribute{
	{"row_id", table.KindInt, func(o *Order) table.Value { return table.Int(o.RowID) }},
	{"order_id", table.KindInt, func(o *Order) table.Value { return table.Int(o.OrderID) }},
	{"order_date", table.KindDate, func(o *Order) table.Value { return dateValue(o.OrderDate) }},
	{"order_priority", table.KindText, func(o *Order) table.Value { return table.Text(o.OrderPriority) }},
	{"order_quantity", table.KindInt, func(o *Order) table.Value { return table.Int(o.OrderQuantity) }},
	{"sales", table.KindMoney, func(o *Order) table.Value { return decimalValue(o.Sales) }},
	{"discount", table.KindNumber, func(o *Order) table.Value { return decimalValue(o.Discount) }},
	{"ship_mode", table.KindText, func(o *Order) table.Value { return table.Text(o.ShipMode) }},
	{"profit", table.KindMoney, func(o *Order) table.Value { return decimalValue(o.Profit) }},
	{"unit_price", table.KindMoney, func(o *Order) table.Value { return decimalValue(o.UnitPrice) }},
	{"shipping_cost", table.KindMoney, func(o *Order) table.Value { return decimalValue(o.ShippingCost) }},
	{"customer_name", table.KindText, func(o *Order) table.Value { return table.Text(o.CustomerName) }},
	{"province", table.KindText, func(o *Order) table.Value { return table.Text(o.Province) }},
	{"region", table.KindText, func(o *Order) table.Value { return table.Text(o.Region) }},
	{"customer_segment", table.KindText, func(o *Order) table.Value { return table.Text(o.CustomerSegment) }},
	{"product_category", table.KindText, func(o *Order) table.Value { return table.Text(o.ProductCategory) }},
	{"product_sub_category", table.KindText, func(o *Order) table.Value { return table.Text(o.ProductSubCategory) }},
	{"product_name", table.KindText, func(o *Order) table.Value { return table.Text(o.ProductName) }},
	{"product_container", table.KindText, func(o *Order) table.Value { return table.Text(o.ProductContainer) }},
	{"product_base_margin", table.KindNumber, func(o *Order) table.Value { return decimalValue(o.BaseMargin) }},
	{"ship_date", table.KindDate, func(o *Order) table.Value { return dateValue(o.ShipDate) }},
}

var byName = func() map[string]Attribute {
	m := make(map[string]Attribute, len(Attributes))
	for _, a := range Attributes {
		m[a.Name] = a
	}
	return m
}()

// Lookup resolves an attribute by name.
func Lookup(name string) (Attribute, bool) {
	a, ok := byName[name]
	return a, ok
}

// Field returns the named attribute of o, or (Null, false) if the attribute
// does not exist. Callers validating against the registry never see false.
func Field(o *Order, name string) (table.Value, bool) {
	a, ok := byName[name]
	if !ok {
		return table.Null{}, false
	}
	return a.Get(o), true
}

func decimalValue(d *apd.Decimal) table.Value {
	if d == nil {
		return table.Null{}
	}
	return table.NewDecimal(d)
}

func dateValue(t time.Time) table.Value {
	if t.IsZero() {
		return table.Null{}
	}
	return table.Date(t)
}
