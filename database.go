package hefestos

import (
	"context"
	"log/slog"
	"strings"
)

// FetchMode controls how a fetched row is shaped.
type FetchMode int

const (
	// FetchAssoc shapes a row as column name → value
	FetchAssoc FetchMode = iota
	// FetchNum shapes a row as a list of values in column order
	FetchNum
	// FetchColumn shapes a row as the value of its first column
	FetchColumn
)

// String returns the name of the fetch mode
func (m FetchMode) String() string {
	switch m {
	case FetchAssoc:
		return "assoc"
	case FetchNum:
		return "num"
	case FetchColumn:
		return "column"
	default:
		return "unknown"
	}
}

// Format selects between plain records and collection-wrapped results.
type Format int

const (
	// FormatRecord returns Record, []Record, []interface{} and friends
	FormatRecord Format = iota
	// FormatCollection wraps results in *collection.Collection
	FormatCollection
)

// params holds the values bound at execution. WHERE conditions append to
// positional, INSERT/UPDATE fill named.
type params struct {
	positional []interface{}
	named      map[string]interface{}
}

// Database is the fluent query builder. It accumulates SQL text and bound
// values across chained calls, executes them on its connection and shapes
// the results.
//
// Select, Where, OrWhere, Join and OrderBy only build; Insert, Update,
// Delete, Query and Execute run the statement immediately; First, All and
// their column variants execute the built query and fetch its rows.
//
// A Database is NOT safe for concurrent use. Create one per logical query
// (they are cheap); many builders may share one connection.
type Database struct {
	*Statement

	conn      *DB
	query     string
	params    params
	fetchMode FetchMode
	format    Format
	ctx       context.Context
	logger    *slog.Logger

	last    *Result
	lastID  string
	pending bool
	err     error
}

// NewDatabase creates a builder on the provided connection.
func NewDatabase(conn *DB) *Database {
	d := &Database{
		Statement: &Statement{},
		conn:      conn,
		fetchMode: FetchAssoc,
		format:    FormatRecord,
		ctx:       context.Background(),
	}
	if conn != nil {
		d.Statement.ErrHandlers = append([]func(error){}, conn.ErrHandlers...)
		d.logger = conn.logger
	}
	if d.logger == nil {
		d.logger = slog.New(discardHandler{})
	}
	return d
}

// Database creates a new builder on this connection.
func (db *DB) Database() *Database {
	return NewDatabase(db)
}

// WithContext sets the context used by subsequent executions.
func (d *Database) WithContext(ctx context.Context) *Database {
	if ctx != nil {
		d.ctx = ctx
	}
	return d
}

// SetLogger replaces the logger of this builder.
func (d *Database) SetLogger(logger *slog.Logger) *Database {
	if logger != nil {
		d.logger = logger
	}
	return d
}

// Select replaces any SQL built so far with a SELECT of the provided
// columns (all columns by default) from table.
func (d *Database) Select(table string, columns ...string) *Database {
	d.reset()

	cols := "*"
	if len(columns) > 0 {
		cols = strings.Join(columns, ", ")
	}

	if table == "" {
		d.fail(ErrNoTable)
	}

	d.query = "SELECT " + cols + " FROM " + table
	return d
}

// JoinType is the type of a JOIN clause. Any SQL join keyword can be used,
// e.g. JoinType("LEFT OUTER").
type JoinType string

// Common join types
const (
	InnerJoin JoinType = "INNER"
	LeftJoin  JoinType = "LEFT"
	RightJoin JoinType = "RIGHT"
	FullJoin  JoinType = "FULL"
	CrossJoin JoinType = "CROSS"
)

// String returns the string representation of the
// join type (e.g. "FULL JOIN")
func (j JoinType) String() string {
	return string(j) + " JOIN"
}

// Join appends a JOIN on table with the provided condition, an INNER JOIN
// unless another type is passed. The condition is trusted SQL.
func (d *Database) Join(table, condition string, joinType ...JoinType) *Database {
	jt := InnerJoin
	if len(joinType) > 0 && joinType[0] != "" {
		jt = joinType[0]
	}
	d.query += " " + jt.String() + " " + table + " ON " + condition
	return d
}

// LeftJoin is a wrapper of Join for creating a LEFT JOIN
func (d *Database) LeftJoin(table, condition string) *Database {
	return d.Join(table, condition, LeftJoin)
}

// OrderBy appends an ORDER BY clause for column, ascending unless another
// direction is passed.
func (d *Database) OrderBy(column string, direction ...string) *Database {
	dir := "ASC"
	if len(direction) > 0 && direction[0] != "" {
		dir = strings.ToUpper(direction[0])
	}
	if d.query != "" && !strings.HasSuffix(d.query, " ") {
		d.query += " "
	}
	d.query += "ORDER BY " + column + " " + dir + " "
	return d
}

// AsRecord makes subsequent fetches return plain records.
func (d *Database) AsRecord() *Database {
	d.format = FormatRecord
	return d
}

// AsCollection makes subsequent fetches return *collection.Collection
// values.
func (d *Database) AsCollection() *Database {
	d.format = FormatCollection
	return d
}

// SetFetchMode overrides the row shape used by subsequent fetches.
func (d *Database) SetFetchMode(mode FetchMode) *Database {
	d.fetchMode = mode
	return d
}

// SQL returns the SQL text accumulated so far.
func (d *Database) SQL() string {
	return d.query
}

// Args returns the positional values bound so far, in placeholder order.
func (d *Database) Args() []interface{} {
	return append([]interface{}{}, d.params.positional...)
}

// NamedArgs returns the named values bound so far.
func (d *Database) NamedArgs() map[string]interface{} {
	out := make(map[string]interface{}, len(d.params.named))
	for k, v := range d.params.named {
		out[k] = v
	}
	return out
}

// reset starts a new statement: it drops the SQL, the bound values, any
// unread rows and any deferred error.
func (d *Database) reset() {
	d.closePending()
	d.query = ""
	d.params = params{}
	d.err = nil
}

// fail records the first builder error; it is returned by the next
// execution.
func (d *Database) fail(err error) {
	if d.err == nil {
		d.err = err
	}
}
