package hefestos

import (
	"fmt"
	"sort"
)

// Pair is a single column/value entry.
type Pair struct {
	Key   string
	Value interface{}
}

// Fields is an ordered set of column/value pairs, used for INSERT and UPDATE
// values and for WHERE conditions.
type Fields interface {
	Pairs() []Pair
}

// P is a convenient map of columns to values. Its pairs are iterated in
// sorted key order; use KV when the order matters.
type P map[string]interface{}

// Pairs implements Fields.
func (p P) Pairs() []Pair {
	keys := sortKeys(p)
	out := make([]Pair, 0, len(keys))
	for _, key := range keys {
		out = append(out, Pair{key, p[key]})
	}
	return out
}

// Pairs is a list of column/value pairs kept in insertion order.
type Pairs []Pair

// Pairs implements Fields.
func (p Pairs) Pairs() []Pair {
	return p
}

// KV builds ordered Pairs from alternating keys and values, e.g.
// KV("name", "Ada", "age", 30). It panics on an odd number of arguments or
// a non-string key, as these are programming errors.
func KV(kv ...interface{}) Pairs {
	if len(kv)%2 != 0 {
		panic(fmt.Sprintf("hefestos: KV expects an even number of args (key,value,...), got %d", len(kv)))
	}
	out := make(Pairs, 0, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("hefestos: KV key at position %d must be a string (got %T)", i, kv[i]))
		}
		out = append(out, Pair{key, kv[i+1]})
	}
	return out
}

// Raw is an SQL fragment appended verbatim to a WHERE clause. It is never
// escaped or parameterized: never build one from user-supplied input.
type Raw string

func sortKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// toFields normalizes the mapping forms accepted by the builder.
func toFields(v interface{}) (Fields, bool) {
	switch f := v.(type) {
	case Fields:
		return f, true
	case map[string]interface{}:
		return P(f), true
	default:
		return nil, false
	}
}

// namedArgs turns ordered pairs into the map sqlx binds named placeholders
// from.
func namedArgs(pairs []Pair) map[string]interface{} {
	out := make(map[string]interface{}, len(pairs))
	for _, pair := range pairs {
		out[pair.Key] = pair.Value
	}
	return out
}
