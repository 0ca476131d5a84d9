package hefestos

import (
	"fmt"
	"regexp"
	"strings"
)

// trailingOperator matches keys that already end in a comparison operator,
// e.g. "age >=", "price<", "name LIKE". Any key ending in "like" counts,
// whatever precedes it.
var trailingOperator = regexp.MustCompile(`(?i)(?:[=<>]|like)$`)

// condition represents one WHERE comparison, where a left-value (a column,
// possibly with its operator) is compared with a bound right-value.
type condition struct {
	Left     string
	Operator string
	Right    interface{}
}

// newCondition builds the condition for a key/value pair. Keys without a
// trailing operator are compared for equality. Dots are ignored when
// looking for the operator, so qualified names such as "u.id" work as keys.
func newCondition(pair Pair) condition {
	key := strings.TrimSpace(pair.Key)
	if trailingOperator.MatchString(strings.ReplaceAll(key, ".", "")) {
		return condition{Left: key, Right: pair.Value}
	}
	return condition{Left: key, Operator: "=", Right: pair.Value}
}

// Parse generates the SQL of the condition, with a positional placeholder,
// and the value bound to it.
func (c condition) Parse() (asSQL string, bindings []interface{}) {
	asSQL = c.Left
	if c.Operator != "" {
		asSQL += " " + c.Operator
	}
	return asSQL + " ? ", []interface{}{c.Right}
}

// Where adds conditions to the statement. It accepts:
//   - P, map[string]interface{}, Pairs or any other Fields: one condition
//     per pair, joined with AND, each value bound to a "?" placeholder
//   - string or Raw: an SQL fragment appended verbatim, without binding
//
// Keys may end with an operator ("age >=", "name LIKE"); otherwise "=" is
// used. An empty or nil condition is a no-op, so optional filters can be
// passed unconditionally. WHERE is only added if the statement doesn't
// have one yet: consecutive calls are concatenated as-is, so conjunctions
// between them are the caller's business (see OrWhere).
//
// Raw fragments are never escaped; never build them from user input.
func (d *Database) Where(cond interface{}) *Database {
	switch c := cond.(type) {
	case nil:
		return d
	case string:
		return d.whereRaw(c)
	case Raw:
		return d.whereRaw(string(c))
	}

	fields, ok := toFields(cond)
	if !ok {
		d.fail(fmt.Errorf("%w: %T", ErrUnsupportedCondition, cond))
		return d
	}

	pairs := fields.Pairs()
	if len(pairs) == 0 {
		return d
	}

	d.openWhere()

	clauses := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		asSQL, bindings := newCondition(pair).Parse()
		clauses = append(clauses, asSQL)
		d.params.positional = append(d.params.positional, bindings...)
	}
	d.query += strings.Join(clauses, "AND ")

	return d
}

// OrWhere appends OR followed by the provided conditions (see Where).
func (d *Database) OrWhere(cond interface{}) *Database {
	if isEmptyCondition(cond) {
		return d
	}
	d.query += " OR "
	return d.Where(cond)
}

func (d *Database) whereRaw(fragment string) *Database {
	if fragment == "" {
		return d
	}
	d.openWhere()
	d.query += fragment
	return d
}

func (d *Database) openWhere() {
	if !strings.Contains(d.query, "WHERE") {
		d.query += " WHERE "
	}
}

func isEmptyCondition(cond interface{}) bool {
	switch c := cond.(type) {
	case nil:
		return true
	case string:
		return c == ""
	case Raw:
		return c == ""
	}
	if fields, ok := toFields(cond); ok {
		return len(fields.Pairs()) == 0
	}
	return false
}
