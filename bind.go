package hefestos

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
)

// namedPlaceholder matches :name placeholders, skipping "::" casts.
var namedPlaceholder = regexp.MustCompile(`(?:^|[^:]):([A-Za-z_][A-Za-z0-9_.]*)`)

// bind resolves the statement's placeholders into the driver's bindvar
// style and returns the values in placeholder order.
//
// Named values (INSERT/UPDATE fields) are compiled to "?" with sqlx.Named.
// They may be combined with positional values only when every named
// placeholder comes before the first "?", which is the layout Update
// produces (SET ... WHERE ...). Any other mix, a name without value, a value
// without placeholder or a "?" count that doesn't match the positional
// values fails with ErrBindingMismatch before the driver sees the query.
func (d *Database) bind(asSQL string, p params) (string, []interface{}, error) {
	args := append([]interface{}{}, p.positional...)

	if len(p.named) > 0 {
		if err := matchNames(asSQL, p.named); err != nil {
			return asSQL, args, err
		}
		if len(args) > 0 && !namedBeforePositional(asSQL) {
			return asSQL, args, fmt.Errorf("%w: named placeholders must precede positional ones", ErrBindingMismatch)
		}

		compiled, namedValues, err := sqlx.Named(asSQL, p.named)
		if err != nil {
			return asSQL, args, fmt.Errorf("%w: %v", ErrBindingMismatch, err)
		}
		asSQL = compiled
		args = append(namedValues, args...)
	}

	if n := strings.Count(asSQL, "?"); n != len(args) {
		return asSQL, args, fmt.Errorf("%w: %d placeholders, %d values", ErrBindingMismatch, n, len(args))
	}

	if d.conn != nil && d.conn.DB != nil {
		asSQL = d.conn.Rebind(asSQL)
	}

	return asSQL, args, nil
}

// placeholderNames returns the distinct :name placeholders of asSQL.
func placeholderNames(asSQL string) map[string]bool {
	names := make(map[string]bool)
	for _, m := range namedPlaceholder.FindAllStringSubmatch(asSQL, -1) {
		names[m[1]] = true
	}
	return names
}

// matchNames checks that the placeholders and the named values have the
// same key set.
func matchNames(asSQL string, named map[string]interface{}) error {
	names := placeholderNames(asSQL)

	var missing, unused []string
	for name := range names {
		if _, ok := named[name]; !ok {
			missing = append(missing, name)
		}
	}
	for key := range named {
		if !names[key] {
			unused = append(unused, key)
		}
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("%w: no value for :%s", ErrBindingMismatch, strings.Join(missing, ", :"))
	}
	if len(unused) > 0 {
		sort.Strings(unused)
		return fmt.Errorf("%w: no placeholder for %s", ErrBindingMismatch, strings.Join(unused, ", "))
	}
	return nil
}

func namedBeforePositional(asSQL string) bool {
	idx := strings.Index(asSQL, "?")
	if idx < 0 {
		return true
	}
	return !namedPlaceholder.MatchString(asSQL[idx:])
}
