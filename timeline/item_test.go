package timeline

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/chronicle/errors"
	"github.com/teranos/chronicle/query"
	"github.com/teranos/chronicle/temporal"
)

func TestItemUnmarshal(t *testing.T) {
	var it Item
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": "ada",
		"entity": "Q7259",
		"content": "Ada Lovelace",
		"group": 3,
		"type": "range",
		"startQuery": "#birth",
		"endQuery": {"general": "{entity} p:P570 ?_prop.", "value": "?_prop psv:P570 ?_value."},
		"start": {"value": "+1815-12-10T00:00:00Z", "precision": 11},
		"expectedDuration": "P36Y",
		"multiple": true,
		"org": "Q1",
		"rank": 2,
		"notable": true,
		"tags": ["ignored"]
	}`), &it))

	assert.Equal(t, "ada", it.ID)
	assert.Equal(t, "Ada Lovelace", it.Label, "content is a synonym for label")
	assert.Equal(t, "3", it.Group.String())
	assert.True(t, it.Type.IsRange())
	assert.Equal(t, query.Simple("#birth"), it.StartQuery)
	assert.True(t, it.EndQuery.IsComposite())
	require.NotNil(t, it.Start)
	assert.Equal(t, temporal.PrecisionDay, it.Start.Precision)
	require.NotNil(t, it.ExpectedDuration)
	assert.InDelta(t, 36, it.ExpectedDuration.Avg.Years(), 1e-9)
	assert.True(t, it.Multiple)
	assert.Equal(t, map[string]string{"org": "Q1", "rank": "2", "notable": "true"}, it.Params)
}

func TestItemUnmarshalRejectsBadFields(t *testing.T) {
	var it Item
	err := json.Unmarshal([]byte(`{"startQuery": 5}`), &it)
	require.Error(t, err)
	assert.True(t, errors.IsConfigurationError(err))

	err = json.Unmarshal([]byte(`{"group": {"id": 1}}`), &it)
	require.Error(t, err)
}

func TestItemMarshalKeepsParams(t *testing.T) {
	it := Item{ID: "x", Entity: "Q1", Params: map[string]string{"org": "Q2", "id": "shadowed"}}
	b, err := json.Marshal(it)
	require.NoError(t, err)

	var back Item
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, "x", back.ID)
	assert.Equal(t, map[string]string{"org": "Q2"}, back.Params)
}

func TestItemClone(t *testing.T) {
	it := &Item{ID: "a", Params: map[string]string{"k": "v"}, Group: NewGroupID("people")}
	c := it.Clone()
	c.Params["k"] = "changed"
	c.Group[1] = 'X'
	c.ID = "b"

	assert.Equal(t, "v", it.Params["k"])
	assert.Equal(t, "people", it.Group.String())
	assert.Equal(t, "a", it.ID)
}

func TestTemplateParams(t *testing.T) {
	it := &Item{ID: "ada", Entity: "Q7259", Group: NewGroupID("people"), Params: map[string]string{"org": "Q1", "year": "1815"}}

	p := it.TemplateParams(query.Param{Kind: query.Variable, Value: query.EntityVar})
	assert.Equal(t, "?_entity", p["entity"].Render())
	assert.Equal(t, "wd:Q1", p["org"].Render())
	assert.Equal(t, "1815", p["year"].Render())
	assert.Equal(t, "people", p["group"].Render())
	assert.Equal(t, "ada", p["id"].Render())
	_, ok := p["className"]
	assert.False(t, ok, "empty fields are not bound")
}

func TestHasTemporalData(t *testing.T) {
	assert.False(t, (&Item{}).HasTemporalData())
	assert.False(t, (&Item{Start: &temporal.Value{}}).HasTemporalData())
	assert.True(t, (&Item{EndMax: &temporal.Value{Value: "+2000-01-01T00:00:00Z", Precision: 9}}).HasTemporalData())
}

func TestGroupID(t *testing.T) {
	var g GroupID
	require.NoError(t, json.Unmarshal([]byte(`"rulers"`), &g))
	assert.Equal(t, "rulers", g.String())
	b, err := json.Marshal(g)
	require.NoError(t, err)
	assert.Equal(t, `"rulers"`, string(b))

	require.NoError(t, json.Unmarshal([]byte(`12`), &g))
	b, _ = json.Marshal(g)
	assert.Equal(t, `12`, string(b))

	assert.Nil(t, NewGroupID(""))
}
