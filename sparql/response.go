// Package sparql talks to a SPARQL 1.1 endpoint such as the Wikidata Query Service.
package sparql

import (
	"strings"
)

// Term is one bound value in a result row
type Term struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Datatype string `json:"datatype,omitempty"`
	Lang     string `json:"xml:lang,omitempty"`
}

// Binding is one result row keyed by variable name without the leading '?'
type Binding map[string]Term

// Value returns the value bound to a variable, with or without its '?'
func (b Binding) Value(variable string) (string, bool) {
	t, ok := b[strings.TrimPrefix(variable, "?")]
	if !ok {
		return "", false
	}
	return t.Value, true
}

// Response is the application/sparql-results+json document
type Response struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results struct {
		Bindings []Binding `json:"bindings"`
	} `json:"results"`
}

// Rows returns the result rows
func (r *Response) Rows() []Binding {
	if r == nil {
		return nil
	}
	return r.Results.Bindings
}

// EntityID reduces an entity IRI such as http://www.wikidata.org/entity/Q42 to Q42
func EntityID(iri string) string {
	if i := strings.LastIndex(iri, "/"); i >= 0 {
		return iri[i+1:]
	}
	return iri
}
