// Package spec loads timeline documents: the items to resolve, the vis.js
// groups and options to pass through, and the query templates and duration
// expectations that extend the built-in tables.
package spec

import (
	_ "embed"
	"encoding/json"

	"github.com/teranos/chronicle/query"
	"github.com/teranos/chronicle/timeline"
)

// Document is a parsed timeline spec
type Document struct {
	Items   []*timeline.Item `json:"items"`
	Groups  json.RawMessage  `json:"groups,omitempty"`
	Options json.RawMessage  `json:"options,omitempty"`

	QueryTemplates     map[string]query.Term `json:"queryTemplates,omitempty"`
	ItemQueryTemplates map[string]string     `json:"itemQueryTemplates,omitempty"`
	// ExpectedDurations are searched before the built-in table
	ExpectedDurations timeline.Expectations `json:"expectedDurations,omitempty"`
	// Requires is a semver constraint on the chronicle version, e.g. ">= 0.3"
	Requires string `json:"requires,omitempty"`

	// Source is where the document was read from
	Source string `json:"-"`
}

// Builtins are the tables every document extends
type Builtins struct {
	query.Templates
	ExpectedDurations timeline.Expectations `json:"expectedDurations"`
}

//go:embed global.json
var globalJSON []byte

var builtins = mustParseBuiltins(globalJSON)

func mustParseBuiltins(data []byte) Builtins {
	var b Builtins
	if err := json.Unmarshal(data, &b); err != nil {
		panic("spec: invalid built-in global.json: " + err.Error())
	}
	return b
}

// Global returns the built-in tables
func Global() Builtins {
	return builtins
}

// Templates returns the document's own template tables
func (d *Document) Templates() query.Templates {
	return query.Templates{Query: d.QueryTemplates, Item: d.ItemQueryTemplates}
}

// Registry resolves "#name" references against the document, then the built-ins
func (d *Document) Registry() *query.Registry {
	return query.NewRegistry(d.Templates(), builtins.Templates)
}

// Expectations returns the document's expectations followed by the built-in table
func (d *Document) Expectations() timeline.Expectations {
	out := make(timeline.Expectations, 0, len(d.ExpectedDurations)+len(builtins.ExpectedDurations))
	out = append(out, d.ExpectedDurations...)
	return append(out, builtins.ExpectedDurations...)
}
