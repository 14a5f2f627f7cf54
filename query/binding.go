package query

import (
	"regexp"
	"sort"
	"strings"

	"github.com/teranos/chronicle/errors"
)

// ParamKind says how a bound value is rendered into a pattern
type ParamKind int

const (
	// Literal values are inserted verbatim
	Literal ParamKind = iota
	// Entity values are graph node ids rendered with the wd: prefix
	Entity
	// Variable values are SPARQL variables such as ?_entity
	Variable
)

// Param is one typed template parameter
type Param struct {
	Kind  ParamKind
	Value string
}

// Render returns the text inserted for the parameter
func (p Param) Render() string {
	switch p.Kind {
	case Entity:
		if strings.HasPrefix(p.Value, "wd:") {
			return p.Value
		}
		return "wd:" + p.Value
	case Variable:
		if strings.HasPrefix(p.Value, "?") {
			return p.Value
		}
		return "?" + p.Value
	default:
		return p.Value
	}
}

// Params maps placeholder names to typed values
type Params map[string]Param

var entityID = regexp.MustCompile(`^Q[0-9]+$`)

// ParamFor infers the kind of a plain string value: item ids like Q42 are
// entities, everything else is literal
func ParamFor(value string) Param {
	if entityID.MatchString(value) {
		return Param{Kind: Entity, Value: value}
	}
	return Param{Kind: Literal, Value: value}
}

var placeholder = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Placeholders returns the distinct placeholder names in a pattern, sorted
func Placeholders(pattern string) []string {
	seen := map[string]bool{}
	var names []string
	for _, m := range placeholder.FindAllStringSubmatch(pattern, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	sort.Strings(names)
	return names
}

// Bind substitutes every {name} placeholder in pattern and terminates the
// result with a period. A placeholder with no parameter is a configuration error.
func Bind(pattern string, params Params) (string, error) {
	if strings.TrimSpace(pattern) == "" {
		return "", nil
	}

	var missing []string
	bound := placeholder.ReplaceAllStringFunc(pattern, func(m string) string {
		name := m[1 : len(m)-1]
		p, ok := params[name]
		if !ok {
			missing = append(missing, name)
			return m
		}
		return p.Render()
	})
	if len(missing) > 0 {
		return "", errors.WithHint(
			errors.NewConfigurationError("unresolved placeholder(s) %s in %q", braceList(missing), pattern),
			"set the field on the item or remove it from the template")
	}

	if !strings.HasSuffix(strings.TrimSpace(bound), ".") {
		bound += "."
	}
	return bound, nil
}

// BindTerm binds every pattern of a term
func BindTerm(t Term, params Params) (Term, error) {
	if !t.IsComposite() {
		text, err := Bind(t.text, params)
		if err != nil {
			return Term{}, err
		}
		return Simple(text), nil
	}
	parts := make(map[string]string, len(t.parts))
	for _, k := range t.Keys() {
		text, err := Bind(t.parts[k], params)
		if err != nil {
			return Term{}, errors.Wrapf(err, "part %q", k)
		}
		parts[k] = text
	}
	return Composite(parts), nil
}

func braceList(names []string) string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = "{" + n + "}"
	}
	return strings.Join(out, ", ")
}
