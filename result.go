package hefestos

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/brunoggdev/hefestos-go/collection"
)

// Record is a row keyed by column name. When several columns share a name
// (e.g. "id" in a join) the rightmost one wins.
type Record map[string]interface{}

// First fetches the first row of the built query, shaped by the fetch mode
// and format:
//
//	FetchAssoc  → Record, or *collection.Collection keyed by column
//	FetchNum    → []interface{}, or *collection.Collection keyed "0", "1", …
//	FetchColumn → the first column's value
//
// It returns nil without error when there are no rows. After Query, the
// rows it left pending are used instead of executing again.
func (d *Database) First() (interface{}, error) {
	row, err := d.firstRow()
	if err != nil || row == nil {
		return nil, err
	}
	return d.shapeRow(row, d.fetchMode), nil
}

// FirstColumn fetches the first row and returns the value of column, or nil
// when there are no rows or the row has no such column.
func (d *Database) FirstColumn(column string) (interface{}, error) {
	row, err := d.firstRow()
	if err != nil || row == nil {
		return nil, err
	}
	return row.get(column), nil
}

// FirstRecord is First in FetchAssoc mode, typed.
func (d *Database) FirstRecord() (Record, error) {
	row, err := d.firstRow()
	if err != nil || row == nil {
		return nil, err
	}
	return row.record(), nil
}

// All fetches every row of the built query, each shaped as in First,
// returned as a slice ([]Record, [][]interface{} or []interface{}) or, in
// collection format, a collection of rows keyed "0", "1", …
// No rows yields an empty, non-nil result.
func (d *Database) All() (interface{}, error) {
	return d.all(d.fetchMode)
}

// AllColumn fetches the first column of every row, whatever the fetch
// mode.
func (d *Database) AllColumn() (interface{}, error) {
	return d.all(FetchColumn)
}

// AllRecords is All in FetchAssoc mode, typed.
func (d *Database) AllRecords() ([]Record, error) {
	rows, err := d.fetchRows(-1)
	if err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.record())
	}
	return records, nil
}

func (d *Database) all(mode FetchMode) (interface{}, error) {
	rows, err := d.fetchRows(-1)
	if err != nil {
		return nil, err
	}

	if d.format == FormatCollection {
		items := make([]interface{}, 0, len(rows))
		for _, row := range rows {
			items = append(items, d.shapeRow(row, mode))
		}
		return collection.FromList(items), nil
	}

	switch mode {
	case FetchColumn:
		values := make([]interface{}, 0, len(rows))
		for _, row := range rows {
			values = append(values, row.first())
		}
		return values, nil
	case FetchNum:
		lists := make([][]interface{}, 0, len(rows))
		for _, row := range rows {
			lists = append(lists, row.values)
		}
		return lists, nil
	default:
		records := make([]Record, 0, len(rows))
		for _, row := range rows {
			records = append(records, row.record())
		}
		return records, nil
	}
}

// AffectedRows returns the number of rows changed by the last write
// statement of this builder.
func (d *Database) AffectedRows() int64 {
	return d.last.RowsAffected()
}

// LastInsertID returns the id the driver reported for the most recently
// inserted row, as a string. It's empty when nothing was inserted yet or
// the driver doesn't report ids (PostgreSQL: use RETURNING).
func (d *Database) LastInsertID() string {
	return d.lastID
}

// Errors describes the outcome of the last execution. Its SQLState is
// SQLStateOK after a success or before any execution.
func (d *Database) Errors() ErrorInfo {
	if d.last == nil || d.last.Err == nil {
		return ErrorInfo{SQLState: SQLStateOK}
	}
	var qe *QueryError
	if errors.As(d.last.Err, &qe) {
		return qe.Info
	}
	return errorInfo(d.last.Err)
}

// Err returns the error of the last execution, if any.
func (d *Database) Err() error {
	if d.last == nil {
		return nil
	}
	return d.last.Err
}

// LastResult returns the result of the last execution, nil before any.
func (d *Database) LastResult() *Result {
	return d.last
}

// row is a fetched row with its column names.
type row struct {
	columns []string
	values  []interface{}
}

func (r *row) get(column string) interface{} {
	for i := len(r.columns) - 1; i >= 0; i-- {
		if r.columns[i] == column {
			return r.values[i]
		}
	}
	return nil
}

func (r *row) first() interface{} {
	if len(r.values) == 0 {
		return nil
	}
	return r.values[0]
}

func (r *row) record() Record {
	rec := make(Record, len(r.columns))
	for i, col := range r.columns {
		rec[col] = r.values[i]
	}
	return rec
}

func (d *Database) shapeRow(r *row, mode FetchMode) interface{} {
	switch mode {
	case FetchColumn:
		return r.first()
	case FetchNum:
		if d.format == FormatCollection {
			return collection.FromList(r.values)
		}
		return r.values
	default:
		if d.format == FormatCollection {
			return collection.FromRow(r.columns, r.values)
		}
		return r.record()
	}
}

func (d *Database) firstRow() (*row, error) {
	rows, err := d.fetchRows(1)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// fetchRows reads up to limit rows (all when limit < 0) of the pending
// result, or of a fresh execution of the built query, and closes the cursor.
func (d *Database) fetchRows(limit int) ([]*row, error) {
	var (
		res *Result
		err error
	)
	if d.pending {
		d.pending = false
		res, err = d.last, d.last.Err
		if err == nil && d.conn.Driver() == "" {
			_, err = d.failed(res, "fetch", ErrConnectionClosed)
		}
	} else {
		res, err = d.execute(true)
	}
	if err != nil {
		return nil, err
	}

	out := []*row{}
	if res.rows == nil {
		return out, nil
	}
	defer func() {
		if closeErr := res.Close(); closeErr != nil {
			d.logger.Warn("closing rows", "error", closeErr)
		}
	}()

	columns, err := res.rows.Columns()
	if err != nil {
		_, err = d.failed(res, "fetch", err)
		return nil, err
	}
	var textual []bool
	if d.conn.Driver() == DriverMySQL {
		textual = textColumns(res.rows.ColumnTypes())
	}

	for (limit < 0 || len(out) < limit) && res.rows.Next() {
		values, err := res.rows.SliceScan()
		if err != nil {
			_, err = d.failed(res, "fetch", err)
			return nil, err
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok && i < len(textual) && textual[i] {
				values[i] = string(b)
			}
		}
		out = append(out, &row{columns: columns, values: values})
	}

	if err := res.rows.Err(); err != nil {
		_, err = d.failed(res, "fetch", err)
		return nil, err
	}

	return out, nil
}

// textColumns flags the columns whose []byte values are text. The MySQL
// driver returns CHAR, TEXT, DECIMAL and temporal columns as bytes; the
// other drivers already return strings and keep []byte for binary data.
func textColumns(types []*sql.ColumnType, err error) []bool {
	if err != nil {
		return nil
	}
	flags := make([]bool, len(types))
	for i, ct := range types {
		name := strings.ToUpper(ct.DatabaseTypeName())
		flags[i] = !strings.Contains(name, "BLOB") && !strings.Contains(name, "BINARY") && name != "BIT" && name != "GEOMETRY"
	}
	return flags
}
