// Package hefestos is a small fluent SQL query builder and executor for Go
// projects, based on github.com/jmoiron/sqlx.
//
// hefestos does not try to hide SQL. A builder (*Database) accumulates SQL
// text and bound values across chained calls, executes the statement through
// a prepared statement on its connection, and shapes the rows it returns
// into plain records or ordered collections (see the collection package).
// Values supplied through mappings are always bound as parameters; raw
// string conditions, join conditions, table and column names are trusted
// SQL and are never escaped.
//
// Connections are opened from an address template (mysql:, pgsql:,
// postgres:// or sqlite:) plus user and password. Most programs use the
// process-wide connection returned by Connection, configured from a YAML
// file (see the config package), but any existing *sql.DB or *sqlx.DB can be
// wrapped with New or Newx.
//
// Select, Where, OrWhere, Join and OrderBy only build; Insert, Update,
// Delete, Query and Execute run the statement immediately; First, All and
// their variants execute the built query and fetch its rows. Execution
// failures are returned as *QueryError values, passed to the builder's
// error handlers and kept for Errors.
//
//		import (
//			"fmt"
//			"github.com/brunoggdev/hefestos-go"
//		)
//
//		func main() {
//			db, err := hefestos.Default() // or conn.Database()
//			if err != nil {
//				panic(err)
//			}
//
//			id, err := db.Insert("users", hefestos.KV("name", "Ada", "age", 36))
//			if err != nil {
//				panic(err)
//			}
//
//			// find one row in the database and load it into a record
//			user, err := db.
//				Select("users", "id", "name").
//				Where(hefestos.P{"id": id}).
//				FirstRecord()
//			if err != nil {
//				panic(err)
//			}
//
//			fmt.Printf("%+v\n", user)
//
//			// conditions may carry their operator
//			adults, err := db.
//				Select("users").
//				Where(hefestos.P{"age >=": 18}).
//				OrderBy("name").
//				AsCollection().
//				All()
//		}
package hefestos
