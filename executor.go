package hefestos

import (
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Result is the outcome of a builder's most recent execution. It is
// replaced (and its rows closed) by the next execution of the same builder.
type Result struct {
	// SQL is the statement as sent to the driver
	SQL string
	// Args are the values bound to it, in placeholder order
	Args []interface{}
	// Err is the failure of the execution, if any
	Err error

	stmt *sqlx.Stmt
	rows *sqlx.Rows
	res  sql.Result
}

// Rows returns the open cursor of a row-returning execution, or nil.
func (r *Result) Rows() *sqlx.Rows {
	if r == nil {
		return nil
	}
	return r.rows
}

// RowsAffected returns the number of rows changed by a write statement, or
// 0 when the driver doesn't report it.
func (r *Result) RowsAffected() int64 {
	if r == nil || r.res == nil {
		return 0
	}
	n, err := r.res.RowsAffected()
	if err != nil {
		return 0
	}
	return n
}

// Close releases the cursor and the prepared statement of the result.
func (r *Result) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	if r.rows != nil {
		errs = append(errs, r.rows.Close())
		r.rows = nil
	}
	if r.stmt != nil {
		errs = append(errs, r.stmt.Close())
		r.stmt = nil
	}
	return errors.Join(errs...)
}

// Execute runs the statement built so far and reports whether it
// succeeded. The bound values are cleared whatever the outcome.
func (d *Database) Execute() (bool, error) {
	if _, err := d.execute(false); err != nil {
		return false, err
	}
	return true, nil
}

// ExecuteRows runs the statement built so far as a query and returns the
// result holding its open rows. The rows are closed by the builder's next
// execution, or by calling Close on the result.
func (d *Database) ExecuteRows() (*Result, error) {
	return d.execute(true)
}

// Query replaces the statement with raw SQL and executes it immediately.
// A single P, Pairs or map argument is bound by name (":id"), any other
// arguments positionally ("?"). Rows of a row-returning statement are kept
// for the next First/All call; check Err or Errors for failures.
//
//	user, err := db.Query("SELECT * FROM users WHERE id >= :id", hefestos.P{"id": 1}).First()
func (d *Database) Query(query string, args ...interface{}) *Database {
	d.reset()
	d.query = query

	named := false
	if len(args) == 1 {
		if fields, ok := toFields(args[0]); ok {
			d.params.named = namedArgs(fields.Pairs())
			named = true
		}
	}
	if !named {
		d.params.positional = append([]interface{}{}, args...)
	}

	d.execute(returnsRows(query)) //nolint:errcheck // recorded on the result
	d.pending = true

	return d
}

// execute prepares, binds and runs the statement. With returnRows the
// statement is run as a query and its rows stay open on the result.
func (d *Database) execute(returnRows bool) (*Result, error) {
	d.closePending()

	p := d.params
	d.params = params{}
	buildErr := d.err
	d.err = nil

	result := &Result{SQL: d.query}
	d.last = result

	if buildErr != nil {
		return d.failed(result, "build", buildErr)
	}
	if d.conn == nil || d.conn.DB == nil {
		return d.failed(result, "connect", ErrConnectionClosed)
	}

	asSQL, args, err := d.bind(d.query, p)
	result.SQL, result.Args = asSQL, args
	if err != nil {
		return d.failed(result, "bind", err)
	}

	stmt, err := d.conn.PreparexContext(d.ctx, asSQL)
	if err != nil {
		return d.failed(result, "prepare", err)
	}
	result.stmt = stmt

	if returnRows {
		rows, err := stmt.QueryxContext(d.ctx, args...)
		if err != nil {
			return d.failed(result, "query", err)
		}
		result.rows = rows
	} else {
		res, err := stmt.ExecContext(d.ctx, args...)
		if err != nil {
			return d.failed(result, "execute", err)
		}
		result.res = res
		if id, err := res.LastInsertId(); err == nil {
			d.lastID = strconv.FormatInt(id, 10)
		}
		result.stmt = nil
		if err := stmt.Close(); err != nil {
			d.logger.Warn("closing statement", "error", err)
		}
	}

	d.logger.Debug("statement executed", "sql", asSQL, "args", len(args))
	return result, nil
}

// failed records err on the result as a *QueryError, passes it to the
// error handlers and logs it.
func (d *Database) failed(result *Result, op string, err error) (*Result, error) {
	var qe *QueryError
	if !errors.As(err, &qe) {
		qe = newQueryError(op, result.SQL, result.Args, err)
	}

	result.Err = qe
	if closeErr := result.Close(); closeErr != nil {
		d.logger.Warn("closing statement", "error", closeErr)
	}

	d.logger.Warn("statement failed",
		"op", qe.Op,
		"sql", qe.SQL,
		"sqlstate", qe.Info.SQLState,
		"error", qe.Err,
	)
	d.HandleError(qe)

	return result, qe
}

// closePending closes the rows left open by the previous execution.
func (d *Database) closePending() {
	d.pending = false
	if d.last == nil {
		return
	}
	if err := d.last.Close(); err != nil {
		d.logger.Warn("closing previous result", "error", err)
	}
}

// rowKeywords start statements that return rows.
var rowKeywords = []string{"SELECT", "WITH", "SHOW", "PRAGMA", "EXPLAIN", "DESCRIBE", "DESC", "VALUES", "TABLE"}

// returnsRows guesses whether a raw statement produces a result set.
func returnsRows(query string) bool {
	upper := strings.ToUpper(skipPrefix(query))
	if strings.Contains(upper, "RETURNING ") {
		return true
	}
	first := upper
	if i := strings.IndexAny(upper, " \t\r\n("); i >= 0 {
		first = upper[:i]
	}
	for _, keyword := range rowKeywords {
		if first == keyword {
			return true
		}
	}
	return false
}

// skipPrefix drops the whitespace, comments and opening parentheses that
// may precede the first keyword of a statement.
func skipPrefix(query string) string {
	for {
		query = strings.TrimSpace(query)
		switch {
		case strings.HasPrefix(query, "("):
			query = query[1:]
		case strings.HasPrefix(query, "--"):
			i := strings.IndexByte(query, '\n')
			if i < 0 {
				return ""
			}
			query = query[i+1:]
		case strings.HasPrefix(query, "/*"):
			i := strings.Index(query, "*/")
			if i < 0 {
				return ""
			}
			query = query[i+2:]
		default:
			return query
		}
	}
}
