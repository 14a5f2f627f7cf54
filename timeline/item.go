// Package timeline holds the items a run resolves and the segments it emits.
package timeline

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/teranos/chronicle/errors"
	"github.com/teranos/chronicle/query"
	"github.com/teranos/chronicle/temporal"
)

// Type is the vis.js rendering type of an item
type Type string

const (
	TypeRange      Type = "range"
	TypeBackground Type = "background"
	TypePoint      Type = "point"
	TypeBox        Type = "box"
)

// IsRange reports whether the item is drawn as a range. Absent means range.
func (t Type) IsRange() bool {
	return t == "" || t == TypeRange
}

// GroupID is a vis.js group reference, kept as its raw JSON string or number
type GroupID []byte

// NewGroupID returns a string group reference
func NewGroupID(s string) GroupID {
	if s == "" {
		return nil
	}
	b, _ := json.Marshal(s)
	return GroupID(b)
}

// String returns the reference as text
func (g GroupID) String() string {
	if len(g) > 0 && g[0] == '"' {
		var s string
		if err := json.Unmarshal(g, &s); err == nil {
			return s
		}
	}
	return string(g)
}

// MarshalJSON writes the reference as it was read
func (g GroupID) MarshalJSON() ([]byte, error) {
	if len(g) == 0 {
		return []byte("null"), nil
	}
	return g, nil
}

// UnmarshalJSON accepts a string, a number or null
func (g *GroupID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*g = nil
		return nil
	}
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch v.(type) {
	case string, float64:
		*g = append((*g)[:0], data...)
		return nil
	default:
		return errors.NewConfigurationError("group must be a string or a number, got %s", data)
	}
}

// Item describes one thing to place on the timeline. Items are owned by the
// run and filled in place as queries resolve.
type Item struct {
	ID        string  `json:"id,omitempty"`
	Entity    string  `json:"entity,omitempty"`
	Label     string  `json:"label,omitempty"`
	Title     string  `json:"title,omitempty"`
	Comment   string  `json:"comment,omitempty"`
	Group     GroupID `json:"group,omitempty"`
	Subgroup  GroupID `json:"subgroup,omitempty"`
	ClassName string  `json:"className,omitempty"`
	Type      Type    `json:"type,omitempty"`

	StartQuery    query.Term `json:"startQuery,omitempty"`
	EndQuery      query.Term `json:"endQuery,omitempty"`
	StartEndQuery query.Term `json:"startEndQuery,omitempty"`
	ItemQuery     string     `json:"itemQuery,omitempty"`

	Start    *temporal.Value `json:"start,omitempty"`
	End      *temporal.Value `json:"end,omitempty"`
	StartMin *temporal.Value `json:"startMin,omitempty"`
	StartMax *temporal.Value `json:"startMax,omitempty"`
	EndMin   *temporal.Value `json:"endMin,omitempty"`
	EndMax   *temporal.Value `json:"endMax,omitempty"`

	ExpectedDuration *Duration `json:"expectedDuration,omitempty"`

	Finished  bool `json:"finished,omitempty"`
	SkipCache bool `json:"skipCache,omitempty"`
	Multiple  bool `json:"multiple,omitempty"`

	// Params holds every other scalar field, available to query templates as {name}
	Params map[string]string `json:"-"`
}

// itemFields is Item without its JSON methods
type itemFields Item

var knownFields = map[string]bool{
	"id": true, "entity": true, "label": true, "content": true, "title": true, "comment": true,
	"group": true, "subgroup": true, "className": true, "type": true,
	"startQuery": true, "endQuery": true, "startEndQuery": true, "itemQuery": true,
	"start": true, "end": true, "startMin": true, "startMax": true, "endMin": true, "endMax": true,
	"expectedDuration": true, "finished": true, "skipCache": true, "multiple": true,
}

// UnmarshalJSON reads the known fields and keeps other scalars as Params.
// "content" is accepted as a synonym for "label".
func (it *Item) UnmarshalJSON(data []byte) error {
	var f itemFields
	if err := json.Unmarshal(data, &f); err != nil {
		return errors.WrapConfiguration(err, "invalid item")
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.WrapConfiguration(err, "invalid item")
	}
	if f.Label == "" {
		if c, ok := raw["content"]; ok {
			_ = json.Unmarshal(c, &f.Label)
		}
	}
	for k, v := range raw {
		if knownFields[k] {
			continue
		}
		if s, ok := scalarText(v); ok {
			if f.Params == nil {
				f.Params = make(map[string]string)
			}
			f.Params[k] = s
		}
	}

	*it = Item(f)
	return nil
}

// MarshalJSON writes the known fields plus Params
func (it Item) MarshalJSON() ([]byte, error) {
	b, err := json.Marshal(itemFields(it))
	if err != nil || len(it.Params) == 0 {
		return b, err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	for k, v := range it.Params {
		if _, taken := m[k]; taken {
			continue
		}
		m[k], _ = json.Marshal(v)
	}
	return json.Marshal(m)
}

func scalarText(raw json.RawMessage) (string, bool) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", false
	}
	switch x := v.(type) {
	case string:
		return x, true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(x), true
	default:
		return "", false
	}
}

// Name identifies the item in messages, falling back to its entity
func (it *Item) Name() string {
	switch {
	case it.ID != "":
		return it.ID
	case it.Entity != "":
		return it.Entity
	default:
		return "(anonymous)"
	}
}

// Clone returns a copy that shares no mutable state with it
func (it *Item) Clone() *Item {
	c := *it
	if it.Params != nil {
		c.Params = make(map[string]string, len(it.Params))
		for k, v := range it.Params {
			c.Params[k] = v
		}
	}
	c.Group = append(GroupID(nil), it.Group...)
	c.Subgroup = append(GroupID(nil), it.Subgroup...)
	return &c
}

// HasTemporalData reports whether any point or bound is known
func (it *Item) HasTemporalData() bool {
	for _, v := range []*temporal.Value{it.Start, it.End, it.StartMin, it.StartMax, it.EndMin, it.EndMax} {
		if v != nil && !v.IsZero() {
			return true
		}
	}
	return false
}

// TemplateParams returns the parameters query templates bind against.
// entity is what {entity} renders as: the item's own entity, or a SPARQL
// variable when the query is shared by a bundle.
func (it *Item) TemplateParams(entity query.Param) query.Params {
	p := make(query.Params, len(it.Params)+6)
	for k, v := range it.Params {
		p[k] = query.ParamFor(v)
	}
	for k, v := range map[string]string{
		"id":        it.ID,
		"label":     it.Label,
		"group":     it.Group.String(),
		"subgroup":  it.Subgroup.String(),
		"className": it.ClassName,
	} {
		if v != "" {
			p[k] = query.Param{Kind: query.Literal, Value: v}
		}
	}
	p["entity"] = entity
	return p
}
