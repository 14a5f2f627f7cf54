package spec

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/chronicle/errors"
	"github.com/teranos/chronicle/query"
	"github.com/teranos/chronicle/timeline"
)

const jsonDoc = `{
	"requires": ">= 0.0.1",
	"items": [
		{"id": "ada", "entity": "Q7259", "label": "Ada Lovelace", "startQuery": "#birth", "endQuery": "#death"},
		{"id": "ww1", "group": "wars",
		 "start": {"value": "+1914-07-28T00:00:00Z", "precision": 11},
		 "end": {"value": "+1918-11-11T00:00:00Z", "precision": 11}}
	],
	"groups": [{"id": "wars", "content": "Wars"}],
	"options": {"stack": false}
}`

const yamlDoc = `
requires: ">= 0.0.1"
items:
  - id: ada
    entity: Q7259
    label: Ada Lovelace
    startQuery: "#birth"
    endQuery: "#death"
  - id: ww1
    group: wars
    start: {value: "+1914-07-28T00:00:00Z", precision: 11}
    end: {value: "+1918-11-11T00:00:00Z", precision: 11}
groups:
  - id: wars
    content: Wars
options:
  stack: false
`

const tomlDoc = `
requires = ">= 0.0.1"

[[items]]
id = "ada"
entity = "Q7259"
label = "Ada Lovelace"
startQuery = "#birth"
endQuery = "#death"

[[items]]
id = "ww1"
group = "wars"
start = { value = "+1914-07-28T00:00:00Z", precision = 11 }
end = { value = "+1918-11-11T00:00:00Z", precision = 11 }

[[groups]]
id = "wars"
content = "Wars"

[options]
stack = false
`

func TestParseFormatsAgree(t *testing.T) {
	for _, tc := range []struct {
		format Format
		data   string
	}{
		{FormatJSON, jsonDoc},
		{FormatYAML, yamlDoc},
		{FormatTOML, tomlDoc},
	} {
		t.Run(string(tc.format), func(t *testing.T) {
			doc, err := Parse([]byte(tc.data), tc.format)
			require.NoError(t, err)

			assert.Equal(t, ">= 0.0.1", doc.Requires)
			require.Len(t, doc.Items, 2)
			ada := doc.Items[0]
			assert.Equal(t, "Q7259", ada.Entity)
			assert.Equal(t, "Ada Lovelace", ada.Label)
			assert.True(t, ada.StartQuery.Equal(query.Simple("#birth")))

			ww1 := doc.Items[1]
			assert.Equal(t, "wars", ww1.Group.String())
			require.NotNil(t, ww1.End)
			assert.Equal(t, "+1918-11-11T00:00:00Z", ww1.End.Value)
			assert.EqualValues(t, 11, ww1.End.Precision)

			assert.JSONEq(t, `[{"id":"wars","content":"Wars"}]`, string(doc.Groups))
			assert.JSONEq(t, `{"stack":false}`, string(doc.Options))
			assert.NoError(t, doc.Validate())
		})
	}
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte(`{"items": [`), FormatJSON)
	assert.True(t, errors.IsConfigurationError(err))

	_, err = Parse([]byte("items: [\n  - ]:"), FormatYAML)
	assert.True(t, errors.IsConfigurationError(err))

	_, err = Parse([]byte(`items = [`), FormatTOML)
	assert.True(t, errors.IsConfigurationError(err))

	_, err = Parse([]byte(`{"items": [null]}`), FormatJSON)
	assert.True(t, errors.IsConfigurationError(err))
}

func TestFormatOf(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatOf("timeline.yml"))
	assert.Equal(t, FormatYAML, FormatOf("specs/Timeline.YAML"))
	assert.Equal(t, FormatTOML, FormatOf("https://example.org/t.toml?ref=main"))
	assert.Equal(t, FormatJSON, FormatOf("timeline.json"))
	assert.Equal(t, FormatJSON, FormatOf("timeline"))
}

func TestLoadLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "people.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0644))

	assert.False(t, IsRemote(path))
	doc, err := Load(context.Background(), path, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	assert.Equal(t, path, doc.Source)
	assert.Len(t, doc.Items, 2)

	_, err = Load(context.Background(), filepath.Join(t.TempDir(), "missing.json"), nil)
	assert.True(t, errors.IsConfigurationError(err))
}

func TestCheckRequires(t *testing.T) {
	assert.NoError(t, CheckRequires("", "1.0.0"))
	assert.NoError(t, CheckRequires(">= 0.3", "0.4.1"))
	assert.NoError(t, CheckRequires(">= 9", "dev"), "untagged builds satisfy everything")

	err := CheckRequires(">= 2.0", "1.0.0")
	require.Error(t, err)
	assert.True(t, errors.IsConfigurationError(err))
	assert.Contains(t, err.Error(), "requires chronicle >= 2.0")

	assert.True(t, errors.IsConfigurationError(CheckRequires("not a constraint", "1.0.0")))
}

func TestBuiltins(t *testing.T) {
	g := Global()
	require.NoError(t, g.ExpectedDurations.Validate())
	assert.True(t, g.ExpectedDurations[len(g.ExpectedDurations)-1].Universal())

	for _, name := range []string{"birth", "death", "inception", "dissolved", "positionHeld"} {
		_, ok := g.Query[name]
		assert.True(t, ok, name)
	}
	_, ok := g.Item["instancesOf"]
	assert.True(t, ok)
}

func TestDocumentLayersOverBuiltins(t *testing.T) {
	doc, err := Parse([]byte(`{
		"items": [{"id": "a", "entity": "Q1", "startQuery": "#birth"}],
		"queryTemplates": {"birth": "{entity} wdt:P569 ?_value."},
		"expectedDurations": [{"startQuery": "#birth", "duration": "P30Y"}]
	}`), FormatJSON)
	require.NoError(t, err)

	term, ok := doc.Registry().Lookup("birth")
	require.True(t, ok)
	assert.Equal(t, "{entity} wdt:P569 ?_value.", term.Text())
	_, ok = doc.Registry().Lookup("death")
	assert.True(t, ok, "built-ins still resolve")

	d, err := doc.Expectations().For(doc.Items[0])
	require.NoError(t, err)
	assert.Equal(t, "PT946708560S", d.Avg.String(), "document entry wins over the built-in birth row")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr []string
	}{
		{
			name:    "duplicate ids abort before any query",
			doc:     `{"items": [{"id": "X", "entity": "Q1", "startQuery": "#birth"}, {"id": "X", "entity": "Q2"}]}`,
			wantErr: []string{`item id "X" appears multiple times`},
		},
		{
			name:    "unknown template",
			doc:     `{"items": [{"id": "a", "entity": "Q1", "startQuery": "#nope"}]}`,
			wantErr: []string{`query template "nope" not found (on item a)`},
		},
		{
			name:    "unbound placeholder",
			doc:     `{"items": [{"id": "a", "entity": "Q1", "startEndQuery": "#positionHeld"}]}`,
			wantErr: []string{"{position}"},
		},
		{
			name: "placeholder from item field",
			doc:  `{"items": [{"id": "a", "entity": "Q1", "startEndQuery": "#positionHeld", "position": "Q11696"}]}`,
		},
		{
			name:    "item query placeholder",
			doc:     `{"items": [{"id": "t", "itemQuery": "#instancesOf"}]}`,
			wantErr: []string{"{class}"},
		},
		{
			name: "item query bound",
			doc:  `{"items": [{"id": "t", "itemQuery": "#instancesOf", "class": "Q5", "startQuery": "#birth"}]}`,
		},
		{
			name:    "bad override",
			doc:     `{"items": [{"id": "a", "start": {"value": "+1900-01-01T00:00:00Z", "precision": 9}, "expectedDuration": {"avg": "P0Y"}}]}`,
			wantErr: []string{"positive avg"},
		},
		{
			name:    "all problems reported",
			doc:     `{"items": [{"id": "X", "startQuery": "#nope"}, {"id": "X", "itemQuery": "#missing"}]}`,
			wantErr: []string{`"X"`, `"nope"`, `"missing"`},
		},
		{
			name:    "literal date with unknown precision",
			doc:     `{"items": [{"id": "b", "start": {"value": "+001999-01-01T00:00:00Z", "precision": 42}, "end": {"value": "+002001-00-00T00:00:00Z", "precision": 9}}]}`,
			wantErr: []string{"start of item b", "42"},
		},
		{
			name:    "literal date that does not parse",
			doc:     `{"items": [{"id": "c", "start": {"value": "not-a-date", "precision": 9}}]}`,
			wantErr: []string{"start of item c", "not-a-date"},
		},
		{
			name:    "finished items still have their dates checked",
			doc:     `{"items": [{"id": "f", "finished": true, "endMax": {"value": "1950-13-45", "precision": 11}}]}`,
			wantErr: []string{"endMax of item f"},
		},
		{
			name: "finished items are not checked",
			doc:  `{"items": [{"id": "a", "finished": true, "startQuery": "#nope"}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse([]byte(tt.doc), FormatJSON)
			require.NoError(t, err)

			err = doc.Validate()
			if len(tt.wantErr) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.IsConfigurationError(err))
			for _, want := range tt.wantErr {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestExpectationsAlwaysEndUniversal(t *testing.T) {
	doc := &Document{ExpectedDurations: timeline.Expectations{{
		StartQuery: ptrTerm(query.Simple("#inception")),
		Duration:   timeline.Duration{Avg: 100},
	}}}
	table := doc.Expectations()
	assert.True(t, table[len(table)-1].Universal())
	assert.False(t, table[0].Universal())
}

func ptrTerm(t query.Term) *query.Term { return &t }
