package query

import (
	"github.com/teranos/chronicle/errors"
)

// Templates is one table of named query patterns
type Templates struct {
	// Statement templates referenced by startQuery/endQuery/startEndQuery
	Query map[string]Term `json:"queryTemplates,omitempty"`
	// Item-generating templates referenced by itemQuery
	Item map[string]string `json:"itemQueryTemplates,omitempty"`
}

// Registry looks templates up across layered tables, first match wins.
// The spec document's own tables come first, the built-in table last.
type Registry struct {
	layers []Templates
}

// NewRegistry returns a registry searching layers in order
func NewRegistry(layers ...Templates) *Registry {
	return &Registry{layers: layers}
}

// Lookup returns the named statement template
func (r *Registry) Lookup(name string) (Term, bool) {
	for _, l := range r.layers {
		if t, ok := l.Query[name]; ok {
			return t, true
		}
	}
	return Term{}, false
}

// LookupItem returns the named item-generating template
func (r *Registry) LookupItem(name string) (string, bool) {
	for _, l := range r.layers {
		if t, ok := l.Item[name]; ok {
			return t, true
		}
	}
	return "", false
}

// Resolve dereferences a "#name" term; other terms are returned unchanged.
// owner names the item for the error message.
func (r *Registry) Resolve(t Term, owner string) (Term, error) {
	name, ok := t.TemplateRef()
	if !ok {
		return t, nil
	}
	tmpl, ok := r.Lookup(name)
	if !ok {
		return Term{}, errors.NewConfigurationError("query template %q not found (on item %s)", name, owner)
	}
	return tmpl, nil
}

// ResolveItem dereferences a "#name" item-generating reference
func (r *Registry) ResolveItem(ref, owner string) (string, error) {
	name, ok := Simple(ref).TemplateRef()
	if !ok {
		return ref, nil
	}
	tmpl, ok := r.LookupItem(name)
	if !ok {
		return "", errors.NewConfigurationError("item query template %q not found (on item %s)", name, owner)
	}
	return tmpl, nil
}
