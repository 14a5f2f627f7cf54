package query

import (
	"regexp"
	"strings"

	"github.com/teranos/chronicle/errors"
)

// Variables shared by every generated query
const (
	EntityVar = "?_entity"
	NodeVar   = "?_node"
	PropVar   = "?_prop"
	RankVar   = "?_rank"
)

// Default qualifier patterns for the bounds of a simple value term
// (P1319 earliest date, P1326 latest date)
const (
	DefaultMinTerm = "?_prop pqv:P1319 ?_min_value."
	DefaultMaxTerm = "?_prop pqv:P1326 ?_max_value."
)

// Composite part names with special meaning
const (
	// PartGeneral is a plain pattern shared by all time sub-terms
	PartGeneral = "general"
	// PartValue is the one required time sub-term
	PartValue = "value"
)

// Builder assembles a SELECT query from output variables and patterns
type Builder struct {
	out   []string
	terms []string
}

// OutParam adds an output variable once
func (b *Builder) OutParam(name string) {
	for _, o := range b.out {
		if o == name {
			return
		}
	}
	b.out = append(b.out, name)
}

// Term adds a required pattern
func (b *Builder) Term(term string) {
	b.terms = append(b.terms, term)
}

// Optional adds an OPTIONAL pattern
func (b *Builder) Optional(term string) {
	b.terms = append(b.terms, "OPTIONAL{"+term+"}")
}

// TimeTerm adds a pattern binding a time value plus its precision
func (b *Builder) TimeTerm(term string, vars TimeVars, optional bool) {
	b.OutParam(vars.Time)
	b.OutParam(vars.Precision)
	full := term + " " + vars.Value + " wikibase:timeValue " + vars.Time + ". " +
		vars.Value + " wikibase:timePrecision " + vars.Precision + "."
	if optional {
		b.Optional(full)
		return
	}
	b.Term(full)
}

// WikibaseLabel adds the label service for the given languages
func (b *Builder) WikibaseLabel(lang string) {
	if lang == "" {
		lang = "mul"
	}
	b.Term(`SERVICE wikibase:label{bd:serviceParam wikibase:language "` + lang + `".}`)
}

// Build renders the query
func (b *Builder) Build() (string, error) {
	if len(b.out) == 0 || len(b.terms) == 0 {
		return "", errors.AssertionFailedf("query needs output variables and patterns")
	}
	return "SELECT " + strings.Join(b.out, " ") + " WHERE{" + strings.Join(b.terms, " ") + "}", nil
}

// TimeVars are the variables one time sub-term binds
type TimeVars struct {
	Value     string
	Time      string
	Precision string
}

var partName = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// VarsFor returns the variables for a time sub-term. The "value" part binds
// ?_value; any other part k binds ?_k_value.
func VarsFor(key string) TimeVars {
	if key == PartValue {
		return TimeVars{Value: "?_value", Time: "?_value_ti", Precision: "?_value_pr"}
	}
	return TimeVars{Value: "?_" + key + "_value", Time: "?_" + key + "_ti", Precision: "?_" + key + "_pr"}
}

// ValueTerms expands a bound term into its named sub-patterns. A simple term
// becomes value plus the default min/max qualifier patterns.
func ValueTerms(t Term) map[string]string {
	if !t.IsComposite() {
		return map[string]string{
			PartValue: t.Text(),
			"min":     DefaultMinTerm,
			"max":     DefaultMaxTerm,
		}
	}
	out := make(map[string]string, len(t.parts))
	for k, v := range t.parts {
		out[k] = v
	}
	return out
}

// TimeKeys returns the time sub-term names of a bound term, sorted, without "general"
func TimeKeys(t Term) []string {
	terms := ValueTerms(t)
	keys := Composite(terms).Keys()
	out := keys[:0]
	for _, k := range keys {
		if k != PartGeneral {
			out = append(out, k)
		}
	}
	return out
}

// TimeQuery builds the point-time query for a term already bound with the
// entity as EntityVar. Every entity is listed in one VALUES clause.
func TimeQuery(t Term, entities []string) (string, error) {
	if len(entities) == 0 {
		return "", errors.AssertionFailedf("time query without entities")
	}
	terms := ValueTerms(t)
	for k := range terms {
		if !partName.MatchString(k) {
			return "", errors.NewConfigurationError("query term part %q is not a valid name", k)
		}
	}

	values := make([]string, len(entities))
	for i, e := range entities {
		values[i] = ParamFor(e).Render()
	}

	var b Builder
	b.Term("VALUES " + EntityVar + "{" + strings.Join(values, " ") + "}")
	b.OutParam(EntityVar)
	b.OutParam(RankVar)

	if general, ok := terms[PartGeneral]; ok && general != "" {
		b.Term(general)
	}
	if value, ok := terms[PartValue]; ok && value != "" {
		b.TimeTerm(value, VarsFor(PartValue), false)
	}
	for _, k := range TimeKeys(t) {
		if k == PartValue || terms[k] == "" {
			continue
		}
		b.TimeTerm(terms[k], VarsFor(k), true)
	}
	b.Optional(PropVar + " wikibase:rank " + RankVar + ".")

	return b.Build()
}

// ItemQuery builds the item-generating query for a pattern already bound
// with the entity as NodeVar
func ItemQuery(pattern, lang string) (string, error) {
	if strings.TrimSpace(pattern) == "" {
		return "", errors.NewConfigurationError("empty item query")
	}
	var b Builder
	b.OutParam(NodeVar)
	b.OutParam(NodeVar + "Label")
	b.Term(pattern)
	b.WikibaseLabel(lang)
	return b.Build()
}
