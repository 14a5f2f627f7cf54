// Package query models statement query terms and assembles them into SPARQL.
//
// A Term is either a single graph pattern (possibly a "#name" reference to a
// template) or a composite of named sub-patterns. Terms are bound against an
// item's parameters, failing closed on any placeholder left unresolved, and
// the builder turns bound terms into the point-time and item-generating query
// shapes chronicle runs.
package query

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"

	"github.com/teranos/chronicle/errors"
)

// Term is a tagged variant: Simple(text) or Composite(name -> text).
// The zero Term is absent.
type Term struct {
	text  string
	parts map[string]string
}

// Simple returns a single-pattern term
func Simple(text string) Term {
	return Term{text: text}
}

// Composite returns a term of named sub-patterns
func Composite(parts map[string]string) Term {
	cp := make(map[string]string, len(parts))
	for k, v := range parts {
		cp[k] = v
	}
	return Term{parts: cp}
}

// IsZero reports whether the term is absent
func (t Term) IsZero() bool {
	return t.text == "" && len(t.parts) == 0
}

// IsComposite reports whether the term has named sub-patterns
func (t Term) IsComposite() bool {
	return len(t.parts) > 0
}

// Text returns the pattern of a simple term
func (t Term) Text() string {
	return t.text
}

// Part returns one named sub-pattern of a composite term
func (t Term) Part(name string) (string, bool) {
	p, ok := t.parts[name]
	return p, ok
}

// Keys returns the composite's part names in sorted order
func (t Term) Keys() []string {
	keys := make([]string, 0, len(t.parts))
	for k := range t.parts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Equal reports whether two terms are the same variant with the same patterns
func (t Term) Equal(o Term) bool {
	if t.IsComposite() != o.IsComposite() {
		return false
	}
	if !t.IsComposite() {
		return t.text == o.text
	}
	if len(t.parts) != len(o.parts) {
		return false
	}
	for k, v := range t.parts {
		if ov, ok := o.parts[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// TemplateRef returns the template name when the term is a "#name" reference
func (t Term) TemplateRef() (string, bool) {
	if t.IsComposite() || !strings.HasPrefix(t.text, "#") {
		return "", false
	}
	return strings.TrimSpace(t.text[1:]), true
}

// String renders the term for logs and bundle keys
func (t Term) String() string {
	if !t.IsComposite() {
		return t.text
	}
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range t.Keys() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(t.parts[k])
	}
	b.WriteByte('}')
	return b.String()
}

// MarshalJSON writes a string for simple terms and an object for composites
func (t Term) MarshalJSON() ([]byte, error) {
	if t.IsComposite() {
		return json.Marshal(t.parts)
	}
	return json.Marshal(t.text)
}

// UnmarshalJSON accepts a string or an object of strings
func (t *Term) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = Term{}
		return nil
	}
	if data[0] == '{' {
		var parts map[string]string
		if err := json.Unmarshal(data, &parts); err != nil {
			return errors.WrapConfiguration(err, "query term object must map names to strings")
		}
		*t = Composite(parts)
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return errors.WrapConfiguration(err, "query term must be a string or an object")
	}
	*t = Simple(text)
	return nil
}
