package query

import (
	"bytes"
	"encoding/json"

	"github.com/teranos/chronicle/temporal"
)

// TermValues maps a time sub-term name ("value", "min", "start", ...) to the
// value read for it. Sub-terms that matched nothing are absent.
type TermValues map[string]temporal.Value

// EntityValues maps an entity id to the best statement values found for it
type EntityValues map[string]OneOrMany[TermValues]

// Node is one row of an item-generating query
type Node struct {
	Entity string `json:"entity"`
	Label  string `json:"label"`
}

// OneOrMany holds a single result or several equally good ones.
// It encodes as a bare value when there is one and as an array otherwise.
type OneOrMany[T any] struct {
	items []T
}

// One wraps a single value
func One[T any](v T) OneOrMany[T] {
	return OneOrMany[T]{items: []T{v}}
}

// Many wraps several values
func Many[T any](vs []T) OneOrMany[T] {
	cp := make([]T, len(vs))
	copy(cp, vs)
	return OneOrMany[T]{items: cp}
}

// Len returns the number of values
func (o OneOrMany[T]) Len() int {
	return len(o.items)
}

// IsMany reports whether more than one value is held
func (o OneOrMany[T]) IsMany() bool {
	return len(o.items) > 1
}

// First returns the first value, the deterministic choice when several tie
func (o OneOrMany[T]) First() (T, bool) {
	if len(o.items) == 0 {
		var zero T
		return zero, false
	}
	return o.items[0], true
}

// All returns every value
func (o OneOrMany[T]) All() []T {
	return o.items
}

// MarshalJSON writes one value bare and several as an array
func (o OneOrMany[T]) MarshalJSON() ([]byte, error) {
	if len(o.items) == 1 {
		return json.Marshal(o.items[0])
	}
	if o.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(o.items)
}

// UnmarshalJSON accepts a bare value or an array
func (o *OneOrMany[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		o.items = items
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.items = []T{v}
	return nil
}
