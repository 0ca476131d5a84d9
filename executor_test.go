package hefestos

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMock(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("Failed creating mock database: %s", err)
	}
	t.Cleanup(func() { db.Close() })

	return New(db, "sqlmock"), mock
}

func assertExpectations(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %s", err)
	}
}

func TestInsert(t *testing.T) {
	dbz, mock := newMock(t)

	mock.ExpectPrepare("INSERT INTO users (name, age) VALUES(?, ?)").
		ExpectExec().
		WithArgs("Ada", 36).
		WillReturnResult(sqlmock.NewResult(7, 1))

	d := dbz.Database()
	id, err := d.Insert("users", KV("name", "Ada", "age", 36))
	if err != nil {
		t.Fatalf("Insert failed: %s", err)
	}

	if id != "7" {
		t.Errorf("expected inserted id 7, got %q", id)
	}
	if d.SQL() != "INSERT INTO users (name, age) VALUES(:name, :age)" {
		t.Errorf("unexpected statement: %q", d.SQL())
	}
	if d.AffectedRows() != 1 {
		t.Errorf("expected 1 affected row, got %d", d.AffectedRows())
	}
	if info := d.Errors(); !info.OK() || info.SQLState != SQLStateOK {
		t.Errorf("expected successful error info, got %+v", info)
	}
	if len(d.NamedArgs()) != 0 || len(d.Args()) != 0 {
		t.Errorf("expected bindings to be cleared after execution")
	}

	assertExpectations(t, mock)
}

func TestInsertExec(t *testing.T) {
	dbz, mock := newMock(t)

	mock.ExpectPrepare("INSERT INTO users (age, name) VALUES(?, ?)").
		ExpectExec().
		WithArgs(36, "Ada").
		WillReturnResult(sqlmock.NewResult(8, 1))

	d := dbz.Database()
	ok, err := d.InsertExec("users", P{"name": "Ada", "age": 36})
	if err != nil || !ok {
		t.Fatalf("InsertExec failed: %v, %s", ok, err)
	}
	if d.LastInsertID() != "8" {
		t.Errorf("expected last insert id 8, got %q", d.LastInsertID())
	}

	assertExpectations(t, mock)
}

func TestUpdate(t *testing.T) {
	dbz, mock := newMock(t)

	mock.ExpectPrepare("UPDATE users SET age = ?, name = ? WHERE id = ? ").
		ExpectExec().
		WithArgs(37, "Ada", 5).
		WillReturnResult(sqlmock.NewResult(0, 1))

	d := dbz.Database()
	ok, err := d.Update("users", P{"name": "Ada", "age": 37}, P{"id": 5})
	if err != nil || !ok {
		t.Fatalf("Update failed: %v, %s", ok, err)
	}
	if d.AffectedRows() != 1 {
		t.Errorf("expected 1 affected row, got %d", d.AffectedRows())
	}

	assertExpectations(t, mock)
}

func TestUpdateWithRawCondition(t *testing.T) {
	dbz, mock := newMock(t)

	mock.ExpectPrepare("UPDATE users SET active = ? WHERE last_login IS NULL").
		ExpectExec().
		WithArgs(false).
		WillReturnResult(sqlmock.NewResult(0, 3))

	d := dbz.Database()
	if _, err := d.Update("users", P{"active": false}, "last_login IS NULL"); err != nil {
		t.Fatalf("Update failed: %s", err)
	}
	if d.AffectedRows() != 3 {
		t.Errorf("expected 3 affected rows, got %d", d.AffectedRows())
	}

	assertExpectations(t, mock)
}

func TestDelete(t *testing.T) {
	dbz, mock := newMock(t)

	mock.ExpectPrepare("DELETE FROM users WHERE id = ? ").
		ExpectExec().
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectPrepare("DELETE FROM sessions").
		ExpectExec().
		WillReturnResult(sqlmock.NewResult(0, 12))

	d := dbz.Database()
	if ok, err := d.Delete("users", P{"id": 5}); err != nil || !ok {
		t.Fatalf("Delete failed: %v, %s", ok, err)
	}
	if ok, err := d.Delete("sessions", nil); err != nil || !ok {
		t.Fatalf("Delete without conditions failed: %v, %s", ok, err)
	}
	if d.AffectedRows() != 12 {
		t.Errorf("expected 12 affected rows, got %d", d.AffectedRows())
	}

	assertExpectations(t, mock)
}

func TestExecuteFailure(t *testing.T) {
	dbz, mock := newMock(t)

	var handled []error
	dbz.ErrHandlers = append(dbz.ErrHandlers, func(err error) {
		handled = append(handled, err)
	})

	mock.ExpectPrepare("DELETE FROM users WHERE id = ? ").
		ExpectExec().
		WithArgs(1).
		WillReturnError(errors.New("disk I/O error"))

	d := dbz.Database()
	ok, err := d.Delete("users", P{"id": 1})
	if ok || err == nil {
		t.Fatalf("expected Delete to fail, got %v, %v", ok, err)
	}

	var qe *QueryError
	if !errors.As(err, &qe) {
		t.Fatalf("expected a *QueryError, got %T", err)
	}
	if qe.Op != "execute" {
		t.Errorf("expected op execute, got %q", qe.Op)
	}
	if qe.SQL != "DELETE FROM users WHERE id = ? " {
		t.Errorf("unexpected SQL on error: %q", qe.SQL)
	}
	if !errors.Is(err, ErrQuery) {
		t.Errorf("expected error to match ErrQuery")
	}

	if len(handled) != 1 || handled[0] != err {
		t.Errorf("expected error handlers to be called once with the error, got %v", handled)
	}

	info := d.Errors()
	if info.OK() || info.SQLState != "HY000" || info.Message != "disk I/O error" {
		t.Errorf("unexpected error info: %+v", info)
	}
	if d.Err() != err || d.LastResult().Err != err {
		t.Errorf("expected the error to be kept on the result")
	}
	if len(d.Args()) != 0 {
		t.Errorf("expected bindings to be cleared after a failed execution")
	}

	assertExpectations(t, mock)
}

func TestPrepareFailure(t *testing.T) {
	dbz, mock := newMock(t)

	mock.ExpectPrepare("SELECT * FROM missing").
		WillReturnError(errors.New("no such table: missing"))

	_, err := dbz.Database().Select("missing").All()

	var qe *QueryError
	if !errors.As(err, &qe) || qe.Op != "prepare" {
		t.Fatalf("expected a prepare *QueryError, got %v", err)
	}

	assertExpectations(t, mock)
}

func TestBuilderErrors(t *testing.T) {
	dbz, mock := newMock(t)

	tests := []struct {
		name string
		run  func(d *Database) error
		want error
	}{
		{
			"insert without table",
			func(d *Database) error {
				_, err := d.Insert("", P{"a": 1})
				return err
			},
			ErrNoTable,
		},
		{
			"insert without fields",
			func(d *Database) error {
				_, err := d.Insert("t", P{})
				return err
			},
			ErrNoColumns,
		},
		{
			"update without fields",
			func(d *Database) error {
				_, err := d.Update("t", nil, P{"id": 1})
				return err
			},
			ErrNoColumns,
		},
		{
			"delete without table",
			func(d *Database) error {
				_, err := d.Delete("", P{"id": 1})
				return err
			},
			ErrNoTable,
		},
		{
			"select without table",
			func(d *Database) error {
				_, err := d.Select("").All()
				return err
			},
			ErrNoTable,
		},
		{
			"unsupported condition",
			func(d *Database) error {
				_, err := d.Select("t").Where(42).First()
				return err
			},
			ErrUnsupportedCondition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run(dbz.Database())
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			var qe *QueryError
			if !errors.As(err, &qe) || qe.Op != "build" {
				t.Errorf("expected a build *QueryError, got %v", err)
			}
		})
	}

	// nothing reached the driver
	assertExpectations(t, mock)
}

func TestBuilderErrorIsClearedByNextStatement(t *testing.T) {
	dbz, mock := newMock(t)

	mock.ExpectPrepare("SELECT * FROM t").
		ExpectQuery().
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	d := dbz.Database()
	d.Select("t").Where(42)
	if _, err := d.Select("t").All(); err != nil {
		t.Errorf("expected the new statement to succeed, got %s", err)
	}

	assertExpectations(t, mock)
}

func TestQuery(t *testing.T) {
	t.Run("positional", func(t *testing.T) {
		dbz, mock := newMock(t)

		mock.ExpectPrepare("SELECT name FROM users WHERE id = ?").
			ExpectQuery().
			WithArgs(3).
			WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Ada"))

		name, err := dbz.Database().Query("SELECT name FROM users WHERE id = ?", 3).FirstColumn("name")
		if err != nil {
			t.Fatalf("Query failed: %s", err)
		}
		if name != "Ada" {
			t.Errorf("expected Ada, got %v", name)
		}

		assertExpectations(t, mock)
	})

	t.Run("named", func(t *testing.T) {
		dbz, mock := newMock(t)

		mock.ExpectPrepare("SELECT * FROM users WHERE id >= ? AND role = ?").
			ExpectQuery().
			WithArgs(1, "admin").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)).AddRow(int64(2)))

		d := dbz.Database().Query("SELECT * FROM users WHERE id >= :id AND role = :role", P{"role": "admin", "id": 1})
		if err := d.Err(); err != nil {
			t.Fatalf("Query failed: %s", err)
		}

		ids, err := d.AllColumn()
		if err != nil {
			t.Fatalf("AllColumn failed: %s", err)
		}
		if got := ids.([]interface{}); len(got) != 2 || got[1] != int64(2) {
			t.Errorf("unexpected ids: %v", got)
		}

		assertExpectations(t, mock)
	})

	t.Run("write statement", func(t *testing.T) {
		dbz, mock := newMock(t)

		mock.ExpectPrepare("DELETE FROM sessions WHERE expires < ?").
			ExpectExec().
			WithArgs(100).
			WillReturnResult(sqlmock.NewResult(0, 4))

		d := dbz.Database().Query("DELETE FROM sessions WHERE expires < ?", 100)
		if err := d.Err(); err != nil {
			t.Fatalf("Query failed: %s", err)
		}
		if d.AffectedRows() != 4 {
			t.Errorf("expected 4 affected rows, got %d", d.AffectedRows())
		}

		row, err := d.First()
		if err != nil || row != nil {
			t.Errorf("expected no row from a write statement, got %v, %v", row, err)
		}

		assertExpectations(t, mock)
	})

	t.Run("failure is returned by the next fetch", func(t *testing.T) {
		dbz, mock := newMock(t)

		mock.ExpectPrepare("SELECT * FROM nope").
			WillReturnError(errors.New("no such table: nope"))

		d := dbz.Database().Query("SELECT * FROM nope")
		if d.Err() == nil {
			t.Fatal("expected Query to record the failure")
		}
		if _, err := d.First(); err != d.Err() {
			t.Errorf("expected First to return the recorded error, got %v", err)
		}

		assertExpectations(t, mock)
	})
}

func TestBindingMismatch(t *testing.T) {
	tests := []struct {
		name  string
		query string
		args  []interface{}
	}{
		{"too few positional values", "SELECT * FROM t WHERE a = ? AND b = ?", []interface{}{1}},
		{"too many positional values", "SELECT * FROM t WHERE a = ?", []interface{}{1, 2}},
		{"missing named value", "SELECT * FROM t WHERE a = :a", []interface{}{P{"b": 1}}},
		{"unused named value", "SELECT * FROM t WHERE a = :a", []interface{}{P{"a": 1, "b": 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dbz, mock := newMock(t)

			d := dbz.Database().Query(tt.query, tt.args...)
			if !errors.Is(d.Err(), ErrBindingMismatch) {
				t.Errorf("expected ErrBindingMismatch, got %v", d.Err())
			}
			if info := d.Errors(); info.SQLState != "HY093" {
				t.Errorf("expected SQLSTATE HY093, got %+v", info)
			}

			// the driver was never called
			assertExpectations(t, mock)
		})
	}
}

func TestClosedConnection(t *testing.T) {
	for name, d := range map[string]*Database{
		"nil connection":    NewDatabase(nil),
		"closed connection": (&DB{}).Database(),
	} {
		t.Run(name, func(t *testing.T) {
			ok, err := d.Delete("users", P{"id": 1})
			if ok || !errors.Is(err, ErrConnectionClosed) {
				t.Errorf("expected ErrConnectionClosed, got %v, %v", ok, err)
			}
		})
	}
}

func TestWithContext(t *testing.T) {
	dbz, _ := newMock(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := dbz.Database().WithContext(ctx).Select("users").All()
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestReturnsRows(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"SELECT 1", true},
		{"  select * from t", true},
		{"WITH x AS (SELECT 1) SELECT * FROM x", true},
		{"PRAGMA table_info(users)", true},
		{"SHOW TABLES", true},
		{"INSERT INTO t (a) VALUES (1) RETURNING id", true},
		{"INSERT INTO t (a) VALUES (1)", false},
		{"UPDATE t SET a = 1", false},
		{"DELETE FROM t", false},
		{"CREATE TABLE t (id INTEGER)", false},
		{"SELECTED", false},
		{"(SELECT 1) UNION (SELECT 2)", true},
		{"-- active users\nSELECT * FROM users", true},
		{"/* report */ SELECT 1", true},
		{"-- cleanup\nDELETE FROM t", false},
		{"-- only a comment", false},
	}

	for _, tt := range tests {
		if got := returnsRows(tt.query); got != tt.want {
			t.Errorf("returnsRows(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}
