package hefestos

// Delete builds a DELETE FROM table restricted by the where conditions
// (anything Where accepts) and executes it immediately. An empty where
// deletes every row.
func (d *Database) Delete(table string, where interface{}) (bool, error) {
	d.reset()

	if table == "" {
		d.fail(ErrNoTable)
	}

	d.query = "DELETE FROM " + table
	d.Where(where)

	return d.Execute()
}
