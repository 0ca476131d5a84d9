package hefestos

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

func TestErrorInfo(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		state    string
		code     int
		messaged bool
	}{
		{"success", nil, SQLStateOK, 0, false},
		{
			"mysql duplicate key",
			&mysql.MySQLError{Number: 1062, SQLState: [5]byte{'2', '3', '0', '0', '0'}, Message: "Duplicate entry"},
			"23000", 1062, true,
		},
		{"mysql without state", &mysql.MySQLError{Number: 1045, Message: "Access denied"}, "HY000", 1045, true},
		{"postgres unique violation", &pq.Error{Code: "23505", Message: "duplicate key value"}, "23505", 0, true},
		{"sqlite constraint", sqlite3.Error{Code: sqlite3.ErrConstraint}, "HY000", int(sqlite3.ErrConstraint), true},
		{"binding mismatch", fmt.Errorf("%w: 2 placeholders, 1 values", ErrBindingMismatch), "HY093", 0, true},
		{"wrapped driver error", fmt.Errorf("exec: %w", &pq.Error{Code: "42P01"}), "42P01", 0, false},
		{"unknown error", errors.New("boom"), "HY000", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := errorInfo(tt.err)
			if info.SQLState != tt.state {
				t.Errorf("expected SQLSTATE %q, got %q", tt.state, info.SQLState)
			}
			if info.Code != tt.code {
				t.Errorf("expected code %d, got %d", tt.code, info.Code)
			}
			if tt.messaged && info.Message == "" {
				t.Errorf("expected a message")
			}
			if info.OK() != (tt.err == nil) {
				t.Errorf("expected OK() to be %v", tt.err == nil)
			}
		})
	}
}

func TestQueryError(t *testing.T) {
	cause := &pq.Error{Code: "42601", Message: "syntax error"}
	err := newQueryError("prepare", "SELEC 1", nil, cause)

	if err.Error() != "hefestos: prepare: pq: syntax error" {
		t.Errorf("unexpected message: %q", err.Error())
	}
	if !errors.Is(err, ErrQuery) {
		t.Errorf("expected error to match ErrQuery")
	}
	if errors.Is(err, ErrConnection) {
		t.Errorf("expected error not to match ErrConnection")
	}

	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr != cause {
		t.Errorf("expected the driver error to be reachable")
	}
	if err.Info.SQLState != "42601" {
		t.Errorf("expected SQLSTATE 42601, got %q", err.Info.SQLState)
	}
}

func TestConnectionError(t *testing.T) {
	err := &ConnectionError{Driver: DriverMySQL, Address: "mysql:host=db", Err: errors.New("refused")}

	if err.Error() != "hefestos: connecting to mysql: refused" {
		t.Errorf("unexpected message: %q", err.Error())
	}
	if !errors.Is(err, ErrConnection) {
		t.Errorf("expected error to match ErrConnection")
	}

	wrapped := &ConnectionError{Err: fmt.Errorf("%w: %q", ErrUnsupportedDriver, "oracle")}
	if !errors.Is(wrapped, ErrUnsupportedDriver) || !errors.Is(wrapped, ErrConnection) {
		t.Errorf("expected error to match ErrUnsupportedDriver and ErrConnection")
	}
}

func TestStatementHandleError(t *testing.T) {
	var calls []string
	stmt := &Statement{ErrHandlers: []func(error){
		func(err error) { calls = append(calls, "first: "+err.Error()) },
	}}
	stmt.OnError(func(err error) { calls = append(calls, "second: "+err.Error()) })

	stmt.HandleError(nil)
	stmt.HandleError(errors.New("boom"))

	if len(calls) != 2 || calls[0] != "first: boom" || calls[1] != "second: boom" {
		t.Errorf("unexpected handler calls: %v", calls)
	}
}
