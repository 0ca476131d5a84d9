package hefestos

import (
	"strings"
)

// Insert builds an INSERT INTO table with one named placeholder per field,
// executes it immediately and returns the id the driver reports for the new
// row (empty when the driver doesn't report one).
//
//	id, err := db.Insert("users", hefestos.KV("name", "Ada", "age", 30))
//	// INSERT INTO users (name, age) VALUES(:name, :age)
func (d *Database) Insert(table string, fields Fields) (string, error) {
	if _, err := d.insert(table, fields); err != nil {
		return "", err
	}
	return d.LastInsertID(), nil
}

// InsertExec is like Insert but returns the success flag of the execution
// instead of the inserted id.
func (d *Database) InsertExec(table string, fields Fields) (bool, error) {
	return d.insert(table, fields)
}

func (d *Database) insert(table string, fields Fields) (bool, error) {
	d.reset()

	pairs := pairsOf(fields)
	switch {
	case table == "":
		d.fail(ErrNoTable)
	case len(pairs) == 0:
		d.fail(ErrNoColumns)
	}

	cols := make([]string, 0, len(pairs))
	placeholders := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		cols = append(cols, pair.Key)
		placeholders = append(placeholders, ":"+pair.Key)
	}

	d.query = "INSERT INTO " + table + " (" + strings.Join(cols, ", ") + ") VALUES(" + strings.Join(placeholders, ", ") + ")"
	d.params.named = namedArgs(pairs)

	return d.Execute()
}

func pairsOf(fields Fields) []Pair {
	if fields == nil {
		return nil
	}
	return fields.Pairs()
}
