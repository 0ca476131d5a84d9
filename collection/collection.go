// Package collection implements the ordered key/value wrapper returned by
// the query builder when it is switched to collection output.
package collection

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
)

// Collection is an ordered set of key/value items. Rows are keyed by
// column name, lists by their position ("0", "1", ...).
type Collection struct {
	keys  []string
	items map[string]interface{}
}

// New creates an empty collection.
func New() *Collection {
	return &Collection{items: make(map[string]interface{})}
}

// FromRow creates a collection from a row, keeping the column order.
func FromRow(columns []string, values []interface{}) *Collection {
	c := New()
	for i, col := range columns {
		var v interface{}
		if i < len(values) {
			v = values[i]
		}
		c.Set(col, v)
	}
	return c
}

// FromList creates a collection keyed by the position of each value.
func FromList(values []interface{}) *Collection {
	c := New()
	for i, v := range values {
		c.Set(strconv.Itoa(i), v)
	}
	return c
}

// FromMap creates a collection from a map, with keys in sorted order.
func FromMap(m map[string]interface{}) *Collection {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	c := New()
	for _, k := range keys {
		c.Set(k, m[k])
	}
	return c
}

// Set adds or replaces an item. New keys are appended at the end.
func (c *Collection) Set(key string, value interface{}) *Collection {
	if _, exists := c.items[key]; !exists {
		c.keys = append(c.keys, key)
	}
	c.items[key] = value
	return c
}

// Get returns the item stored under key and whether it exists.
func (c *Collection) Get(key string) (interface{}, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c.items[key]
	return v, ok
}

// Value returns the item stored under key, or nil.
func (c *Collection) Value(key string) interface{} {
	v, _ := c.Get(key)
	return v
}

// Index returns the item at position i, or nil.
func (c *Collection) Index(i int) interface{} {
	if c == nil || i < 0 || i >= len(c.keys) {
		return nil
	}
	return c.items[c.keys[i]]
}

// Has reports whether key exists.
func (c *Collection) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Len returns the number of items.
func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.keys)
}

// Keys returns the keys in order.
func (c *Collection) Keys() []string {
	if c == nil {
		return nil
	}
	return append([]string{}, c.keys...)
}

// Values returns the items in order.
func (c *Collection) Values() []interface{} {
	if c == nil {
		return nil
	}
	out := make([]interface{}, 0, len(c.keys))
	for _, k := range c.keys {
		out = append(out, c.items[k])
	}
	return out
}

// Each calls fn for every item in order until fn returns false.
func (c *Collection) Each(fn func(key string, value interface{}) bool) {
	if c == nil {
		return
	}
	for _, k := range c.keys {
		if !fn(k, c.items[k]) {
			return
		}
	}
}

// Map returns a copy of the items as a plain map.
func (c *Collection) Map() map[string]interface{} {
	out := make(map[string]interface{}, c.Len())
	c.Each(func(key string, value interface{}) bool {
		out[key] = value
		return true
	})
	return out
}

// MarshalJSON encodes the collection as a JSON object, keeping key order.
func (c *Collection) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	var err error
	c.Each(func(key string, value interface{}) bool {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		var k, v []byte
		if k, err = json.Marshal(key); err != nil {
			return false
		}
		if v, err = json.Marshal(value); err != nil {
			return false
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
		return true
	})
	if err != nil {
		return nil, err
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}
