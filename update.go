package hefestos

import (
	"strings"
)

// Update builds an UPDATE of table setting every field through a named
// placeholder, restricted by the where conditions (anything Where accepts),
// and executes it immediately.
//
//	ok, err := db.Update("users", hefestos.P{"age": 31}, hefestos.P{"id": 5})
//	// UPDATE users SET age = :age WHERE id = ?
//
// An empty where updates every row of the table.
func (d *Database) Update(table string, fields Fields, where interface{}) (bool, error) {
	d.reset()

	pairs := pairsOf(fields)
	switch {
	case table == "":
		d.fail(ErrNoTable)
	case len(pairs) == 0:
		d.fail(ErrNoColumns)
	}

	updates := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		updates = append(updates, pair.Key+" = :"+pair.Key)
	}

	d.query = "UPDATE " + table + " SET " + strings.Join(updates, ", ")
	d.params.named = namedArgs(pairs)
	d.Where(where)

	return d.Execute()
}
