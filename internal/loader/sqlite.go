package loader

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Favouriteg2/kms-analytics/internal/order"
	"github.com/Favouriteg2/kms-analytics/internal/query"
	"github.com/Favouriteg2/kms-analytics/internal/table"
)

// DB wraps a read-only SQLite connection to an existing orders table.
type DB struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database holding an `orders` table with the
// schema attribute names as columns. Dates are ISO text; monetary columns
// may be TEXT or REAL.
func OpenSQLite(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// The loader only reads; a single connection keeps scans deterministic
	// and avoids SQLITE_BUSY on files another process is writing.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("execute %q: %w", pragma, err)
		}
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

// Load reads order rows, optionally pushing a pre-aggregate filter down to
// SQL. The scan always orders by row_id so repeated loads of an unchanged
// table produce an identical slice.
//
// Pushdown is an optimization only: the engine re-applies the same
// predicate in memory, so a filter the compiler cannot express simply
// loads more rows.
func (d *DB) Load(ctx context.Context, filter query.Predicate) ([]order.Order, error) {
	cols := make([]string, len(order.Attributes))
	for i, a := range order.Attributes {
		cols[i] = a.Name
	}

	sqlStr := "SELECT " + strings.Join(cols, ", ") + " FROM orders"
	var params []any
	if filter != nil {
		if where, p, ok := compileWhere(filter); ok {
			sqlStr += " WHERE " + where
			params = p
		}
	}
	sqlStr += " ORDER BY row_id ASC"

	rows, err := d.db.QueryContext(ctx, sqlStr, params...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var out []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

func scanOrder(rows *sql.Rows) (order.Order, error) {
	var (
		o                             order.Order
		quantity                      sql.NullInt64
		orderDate, shipDate           sql.NullString
		priority, shipMode            sql.NullString
		customer, province, region    sql.NullString
		segment, category, subCat     sql.NullString
		product, container            sql.NullString
		sales, discount, profit       sql.NullString
		unitPrice, shipCost, baseMrgn sql.NullString
	)

	err := rows.Scan(
		&o.RowID, &o.OrderID, &orderDate, &priority, &quantity,
		&sales, &discount, &shipMode, &profit, &unitPrice, &shipCost,
		&customer, &province, &region, &segment, &category, &subCat,
		&product, &container, &baseMrgn, &shipDate,
	)
	if err != nil {
		return order.Order{}, err
	}

	// NULL quantity folds to zero, same as an empty CSV cell.
	o.OrderQuantity = quantity.Int64

	o.OrderDate = parseDate(orderDate.String)
	o.ShipDate = parseDate(shipDate.String)
	o.OrderPriority = cleanText(priority.String)
	o.ShipMode = cleanText(shipMode.String)
	o.CustomerName = cleanText(customer.String)
	o.Province = cleanText(province.String)
	o.Region = cleanText(region.String)
	o.CustomerSegment = cleanText(segment.String)
	o.ProductCategory = cleanText(category.String)
	o.ProductSubCategory = cleanText(subCat.String)
	o.ProductName = cleanText(product.String)
	o.ProductContainer = cleanText(container.String)
	if sales.Valid {
		o.Sales = parseDecimal(sales.String)
	}
	if discount.Valid {
		o.Discount = parseDecimal(discount.String)
	}
	if profit.Valid {
		o.Profit = parseDecimal(profit.String)
	}
	if unitPrice.Valid {
		o.UnitPrice = parseDecimal(unitPrice.String)
	}
	if shipCost.Valid {
		o.ShippingCost = parseDecimal(shipCost.String)
	}
	if baseMrgn.Valid {
		o.BaseMargin = parseDecimal(baseMrgn.String)
	}
	return o, nil
}

// compileWhere compiles a predicate to a parameterized WHERE fragment.
// Values are never interpolated. Returns ok=false for predicates outside
// the fragment SQL can express here; the caller then loads unfiltered.
func compileWhere(p query.Predicate) (string, []any, bool) {
	switch pred := p.(type) {
	case query.And:
		if len(pred.Predicates) == 0 {
			return "1 = 1", nil, true
		}
		var parts []string
		var params []any
		for _, sub := range pred.Predicates {
			sqlPart, subParams, ok := compileWhere(sub)
			if !ok {
				return "", nil, false
			}
			parts = append(parts, sqlPart)
			params = append(params, subParams...)
		}
		return strings.Join(parts, " AND "), params, true
	case *query.And:
		return compileWhere(*pred)
	case query.Compare:
		op, ok := sqlOp(pred.Op)
		if !ok {
			return "", nil, false
		}
		param, ok := sqlParam(pred.Value)
		if !ok {
			return "", nil, false
		}
		return fmt.Sprintf("%s %s ?", pred.Field, op), []any{param}, true
	case *query.Compare:
		return compileWhere(*pred)
	case query.CompareFields:
		op, ok := sqlOp(pred.Op)
		if !ok {
			return "", nil, false
		}
		return fmt.Sprintf("%s %s %s", pred.Left, op, pred.Right), nil, true
	case *query.CompareFields:
		return compileWhere(*pred)
	case query.In:
		if len(pred.Values) == 0 {
			return "1 = 0", nil, true
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(pred.Values)), ", ")
		params := make([]any, len(pred.Values))
		for i, v := range pred.Values {
			params[i] = v
		}
		return fmt.Sprintf("%s IN (%s)", pred.Field, placeholders), params, true
	case *query.In:
		return compileWhere(*pred)
	case query.IsNull:
		if pred.Negate {
			return pred.Field + " IS NOT NULL", nil, true
		}
		return pred.Field + " IS NULL", nil, true
	case *query.IsNull:
		return compileWhere(*pred)
	default:
		return "", nil, false
	}
}

func sqlOp(op query.CmpOp) (string, bool) {
	switch op {
	case query.OpEq:
		return "=", true
	case query.OpNe:
		return "<>", true
	case query.OpLt:
		return "<", true
	case query.OpLe:
		return "<=", true
	case query.OpGt:
		return ">", true
	case query.OpGe:
		return ">=", true
	}
	return "", false
}

func sqlParam(v table.Value) (any, bool) {
	switch val := v.(type) {
	case table.Text:
		return string(val), true
	case table.Int:
		return int64(val), true
	case table.Decimal:
		// SQLite's numeric affinity converts the text form for comparison
		// against REAL or NUMERIC columns.
		return val.Text('f'), true
	case table.Date:
		return time.Time(val).Format("2006-01-02"), true
	}
	return nil, false
}
