package hefestos

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// Sentinel errors, comparable with errors.Is
var (
	ErrConnection           = errors.New("hefestos: connection failed")
	ErrConnectionClosed     = errors.New("hefestos: connection closed")
	ErrUnsupportedDriver    = errors.New("hefestos: unsupported driver address")
	ErrQuery                = errors.New("hefestos: query failed")
	ErrBindingMismatch      = errors.New("hefestos: placeholders do not match bound parameters")
	ErrUnsupportedCondition = errors.New("hefestos: unsupported condition type")
	ErrNoTable              = errors.New("hefestos: no table specified")
	ErrNoColumns            = errors.New("hefestos: no columns specified")
)

// SQLStateOK is the SQLSTATE reported when the last statement succeeded
const SQLStateOK = "00000"

const (
	sqlStateGeneral      = "HY000"
	sqlStateInvalidParam = "HY093"
)

// ConnectionError is returned when a connection cannot be established or
// verified. It is never retried.
type ConnectionError struct {
	Driver  string
	Address string
	Err     error
}

func (e *ConnectionError) Error() string {
	msg := "hefestos: connecting"
	if e.Driver != "" {
		msg += " to " + e.Driver
	}
	return msg + ": " + e.Err.Error()
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Is reports every ConnectionError as ErrConnection.
func (e *ConnectionError) Is(target error) bool {
	return target == ErrConnection
}

// ErrorInfo is the structured description of the last execution's outcome:
// the SQLSTATE, the driver-specific error code and the driver message.
type ErrorInfo struct {
	SQLState string
	Code     int
	Message  string
}

// OK reports whether the info describes a successful execution.
func (info ErrorInfo) OK() bool {
	return info.SQLState == "" || info.SQLState == SQLStateOK
}

// QueryError wraps a prepare, bind or execute failure with the statement
// that caused it.
type QueryError struct {
	Op   string
	SQL  string
	Args []interface{}
	Info ErrorInfo
	Err  error
}

func (e *QueryError) Error() string {
	return "hefestos: " + e.Op + ": " + e.Err.Error()
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Is reports every QueryError as ErrQuery.
func (e *QueryError) Is(target error) bool {
	return target == ErrQuery
}

func newQueryError(op, asSQL string, args []interface{}, err error) *QueryError {
	return &QueryError{
		Op:   op,
		SQL:  asSQL,
		Args: args,
		Info: errorInfo(err),
		Err:  err,
	}
}

// errorInfo extracts SQLSTATE and driver codes from the errors of the
// drivers hefestos knows how to open.
func errorInfo(err error) ErrorInfo {
	if err == nil {
		return ErrorInfo{SQLState: SQLStateOK}
	}

	if errors.Is(err, ErrBindingMismatch) {
		return ErrorInfo{SQLState: sqlStateInvalidParam, Message: err.Error()}
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		state := strings.TrimRight(string(myErr.SQLState[:]), "\x00")
		if state == "" {
			state = sqlStateGeneral
		}
		return ErrorInfo{SQLState: state, Code: int(myErr.Number), Message: myErr.Message}
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return ErrorInfo{SQLState: string(pqErr.Code), Message: pqErr.Message}
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return ErrorInfo{SQLState: sqlStateGeneral, Code: int(liteErr.Code), Message: liteErr.Error()}
	}

	return ErrorInfo{SQLState: sqlStateGeneral, Message: err.Error()}
}
