package hefestos

// Model binds CRUD shortcuts to one table. Rows are identified by an "id"
// column unless explicit conditions are passed.
//
//	users := hefestos.NewModel("users")
//	user, err := users.Find(5)
//	id, err := users.Insert(hefestos.KV("name", "Ada"))
//
// A Model uses the builder it was given with WithDatabase, or a builder on
// the process-wide connection created on first use. Like Database, it is
// not safe for concurrent use.
type Model struct {
	// Table is the table the model works on
	Table string

	format  Format
	db      *Database
	connErr error
}

// ModelOption configures a Model.
type ModelOption func(*Model)

// WithDatabase makes the model use db instead of the process-wide
// connection.
func WithDatabase(db *Database) ModelOption {
	return func(m *Model) {
		m.db = db
	}
}

// WithFormat sets the format of the results returned by the model.
func WithFormat(format Format) ModelOption {
	return func(m *Model) {
		m.format = format
	}
}

// NewModel creates a model for table.
func NewModel(table string, opts ...ModelOption) *Model {
	m := &Model{Table: table, format: FormatRecord}
	for _, opt := range opts {
		opt(m)
	}
	if m.db != nil {
		m.applyFormat()
	}
	return m
}

// DB returns the builder of the model, connecting on first use.
func (m *Model) DB() (*Database, error) {
	if m.db != nil {
		return m.db, nil
	}
	db, err := Default()
	if err != nil {
		m.connErr = err
		return nil, err
	}
	m.db, m.connErr = db, nil
	m.applyFormat()
	return m.db, nil
}

// All returns every row of the table with the provided columns (all by
// default).
func (m *Model) All(columns ...string) (interface{}, error) {
	db, err := m.DB()
	if err != nil {
		return nil, err
	}
	return db.Select(m.Table, columns...).All()
}

// Find returns the first row matching idOrConds, either a value of the id
// column or conditions as accepted by Where. With a column name, only that
// column's value is returned.
func (m *Model) Find(idOrConds interface{}, column ...string) (interface{}, error) {
	db, err := m.DB()
	if err != nil {
		return nil, err
	}

	db.Select(m.Table).Where(byID(idOrConds))
	if len(column) > 0 && column[0] != "" {
		return db.FirstColumn(column[0])
	}
	return db.First()
}

// Select starts a SELECT on the table. If the model can't connect, the
// returned builder fails on execution with the connection error.
func (m *Model) Select(columns ...string) *Database {
	db, err := m.DB()
	if err != nil {
		d := NewDatabase(nil).Select(m.Table, columns...)
		d.fail(err)
		return d
	}
	return db.Select(m.Table, columns...)
}

// Where starts a SELECT of every column of the table filtered by cond.
func (m *Model) Where(cond interface{}) *Database {
	return m.Select().Where(cond)
}

// Insert inserts a row and returns its id.
func (m *Model) Insert(fields Fields) (string, error) {
	db, err := m.DB()
	if err != nil {
		return "", err
	}
	return db.Insert(m.Table, fields)
}

// InsertExec inserts a row and reports whether it succeeded.
func (m *Model) InsertExec(fields Fields) (bool, error) {
	db, err := m.DB()
	if err != nil {
		return false, err
	}
	return db.InsertExec(m.Table, fields)
}

// Update sets fields on the rows matching idOrConds, either a value of the
// id column or conditions as accepted by Where.
func (m *Model) Update(idOrConds interface{}, fields Fields) (bool, error) {
	db, err := m.DB()
	if err != nil {
		return false, err
	}
	return db.Update(m.Table, fields, byID(idOrConds))
}

// Delete deletes the row with the provided id.
func (m *Model) Delete(id interface{}) (bool, error) {
	db, err := m.DB()
	if err != nil {
		return false, err
	}
	return db.Delete(m.Table, P{"id": id})
}

// InsertedID returns the id of the last row inserted through the model.
func (m *Model) InsertedID() string {
	if m.db == nil {
		return ""
	}
	return m.db.LastInsertID()
}

// Errors describes the outcome of the model's last statement, or of its
// last failed attempt to connect. It never connects by itself.
func (m *Model) Errors() ErrorInfo {
	if m.db == nil {
		if m.connErr != nil {
			return errorInfo(m.connErr)
		}
		return ErrorInfo{SQLState: SQLStateOK}
	}
	return m.db.Errors()
}

// AsRecord makes the model return plain records.
func (m *Model) AsRecord() *Model {
	m.format = FormatRecord
	if m.db != nil {
		m.applyFormat()
	}
	return m
}

// AsCollection makes the model return collections.
func (m *Model) AsCollection() *Model {
	m.format = FormatCollection
	if m.db != nil {
		m.applyFormat()
	}
	return m
}

func (m *Model) applyFormat() {
	if m.format == FormatCollection {
		m.db.AsCollection()
	} else {
		m.db.AsRecord()
	}
}

// byID turns anything that isn't a mapping or Raw into an id match, so
// string ids are compared rather than used as SQL.
func byID(idOrConds interface{}) interface{} {
	if _, ok := idOrConds.(Raw); ok {
		return idOrConds
	}
	if fields, ok := toFields(idOrConds); ok {
		return fields
	}
	return P{"id": idOrConds}
}
