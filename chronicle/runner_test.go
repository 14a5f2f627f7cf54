package chronicle

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/chronicle/cache"
	"github.com/teranos/chronicle/errors"
	"github.com/teranos/chronicle/metrics"
	"github.com/teranos/chronicle/sparql"
	"github.com/teranos/chronicle/spec"
	"github.com/teranos/chronicle/temporal"
)

const entityIRI = "http://www.wikidata.org/entity/"

// wdqs answers queries by the first matching substring
type wdqs struct {
	answers map[string][]sparql.Binding
	calls   int
	failOn  string
}

func (w *wdqs) Query(_ context.Context, q string) (*sparql.Response, error) {
	w.calls++
	if w.failOn != "" && strings.Contains(q, w.failOn) {
		return nil, errors.Mark(errors.WithStack(&sparql.TransportError{StatusCode: 503, Status: "503 Service Unavailable"}), errors.ErrTransport)
	}
	var resp sparql.Response
	for needle, rows := range w.answers {
		if strings.Contains(q, needle) {
			resp.Results.Bindings = append(resp.Results.Bindings, rows...)
		}
	}
	return &resp, nil
}

func lit(v string) sparql.Term { return sparql.Term{Type: "literal", Value: v} }

func node(qid, label string) sparql.Binding {
	return sparql.Binding{"_node": {Type: "uri", Value: entityIRI + qid}, "_nodeLabel": lit(label)}
}

func date(qid, value string) sparql.Binding {
	return sparql.Binding{"_entity": {Type: "uri", Value: entityIRI + qid}, "_value_ti": lit(value), "_value_pr": lit("11")}
}

func newWDQS() *wdqs {
	return &wdqs{answers: map[string][]sparql.Binding{
		"wdt:P463": {node("Q7259", "Ada Lovelace"), node("Q46633", "Charles Babbage")},
		"P569":     {date("Q7259", "1815-12-10T00:00:00Z"), date("Q46633", "1791-12-26T00:00:00Z")},
		"P570":     {date("Q7259", "1852-11-27T00:00:00Z"), date("Q46633", "1871-10-18T00:00:00Z")},
	}}
}

const society = `{
	"items": [
		{"id": "society", "itemQuery": "#membersOf", "organization": "Q123", "label": "{_LABEL}",
		 "group": "people", "startQuery": "#birth", "endQuery": "#death"},
		{"id": "exhibition", "start": {"value": "+1851-05-01T00:00:00Z", "precision": 11},
		 "end": {"value": "+1851-10-15T00:00:00Z", "precision": 11}}
	],
	"groups": [{"id": "people", "content": "People"}]
}`

type recordingStore struct {
	*cache.Memory
	flushes  int
	flushErr error
}

func (s *recordingStore) Flush() error {
	s.flushes++
	return s.flushErr
}

func parse(t *testing.T, doc string) *spec.Document {
	t.Helper()
	d, err := spec.Parse([]byte(doc), spec.FormatJSON)
	require.NoError(t, err)
	return d
}

func newRunner(t *testing.T, q sparql.Querier, store cache.Store, m *metrics.Metrics) *Runner {
	return New(Config{
		Querier: q,
		Store:   store,
		Now:     func() time.Time { return time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC) },
		Logger:  zaptest.NewLogger(t).Sugar(),
		Metrics: m,
	})
}

func TestRun(t *testing.T) {
	q := newWDQS()
	store := &recordingStore{Memory: cache.NewMemory()}
	m := metrics.New()

	out, rep, err := newRunner(t, q, store, m).Run(context.Background(), parse(t, society))
	require.NoError(t, err)

	assert.Equal(t, 3, q.calls, "one item query plus one query per bundle")
	assert.Equal(t, 3, rep.Queries[cache.SourceNetwork])
	assert.Equal(t, 1, rep.Templates)
	assert.Equal(t, 2, rep.Created)
	assert.Equal(t, 2, rep.Bundles)
	assert.Equal(t, 3, rep.Items)
	assert.Equal(t, 3, rep.Segments)
	assert.Empty(t, rep.Dropped)
	assert.NotEmpty(t, rep.RunID)
	assert.Equal(t, 1, store.flushes)

	require.Len(t, out.Items, 3)
	byID := map[string]int{}
	for i, s := range out.Items {
		byID[s.ID] = i
	}
	require.Contains(t, byID, "society-Q7259")
	ada := out.Items[byID["society-Q7259"]]
	assert.Equal(t, "Ada Lovelace", ada.Content)
	assert.Equal(t, "people", ada.Group.String())
	assert.Equal(t, "Q7259", ada.Subgroup.String())
	assert.Equal(t, "+001815-12-10T00:00:00", temporal.Format(ada.Start))
	assert.Equal(t, "+001852-11-27T00:00:00", temporal.Format(*ada.End))
	assert.Contains(t, byID, "society-Q46633")
	assert.Contains(t, byID, "exhibition")
	assert.JSONEq(t, `[{"id":"people","content":"People"}]`, string(out.Groups))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Queries.WithLabelValues(StageBundle, string(cache.SourceNetwork))))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Segments.WithLabelValues("main")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.LastRunFailed))
	assert.Equal(t, 2, testutil.CollectAndCount(m.QuerySeconds), "one histogram per stage")
}

func TestSecondRunIsServedFromStore(t *testing.T) {
	q := newWDQS()
	store := cache.NewMemory()

	_, _, err := newRunner(t, q, store, nil).Run(context.Background(), parse(t, society))
	require.NoError(t, err)
	require.Equal(t, 3, q.calls)

	out, rep, err := newRunner(t, q, store, nil).Run(context.Background(), parse(t, society))
	require.NoError(t, err)
	assert.Equal(t, 3, q.calls, "no new network queries")
	assert.Equal(t, 3, rep.Queries[cache.SourceStore])
	assert.Len(t, out.Items, 3)
}

func TestSkipCacheStillQueries(t *testing.T) {
	q := newWDQS()
	store := cache.NewMemory()
	_, _, err := newRunner(t, q, store, nil).Run(context.Background(), parse(t, society))
	require.NoError(t, err)

	r := New(Config{Querier: q, Store: store, SkipCache: true})
	_, rep, err := r.Run(context.Background(), parse(t, society))
	require.NoError(t, err)
	assert.Equal(t, 6, q.calls)
	assert.Equal(t, 3, rep.Queries[cache.SourceNetwork])
}

func TestDuplicateIDsAbortBeforeAnyQuery(t *testing.T) {
	q := newWDQS()
	store := &recordingStore{Memory: cache.NewMemory()}
	doc := parse(t, `{"items": [
		{"id": "X", "entity": "Q7259", "startQuery": "#birth"},
		{"id": "X", "entity": "Q46633", "startQuery": "#birth"}
	]}`)

	_, _, err := newRunner(t, q, store, nil).Run(context.Background(), doc)
	require.Error(t, err)
	assert.True(t, errors.IsConfigurationError(err))
	assert.Contains(t, err.Error(), `"X"`)
	assert.Zero(t, q.calls)
	assert.Equal(t, 1, store.flushes)
}

func TestBadLiteralDateAbortsBeforeAnyQuery(t *testing.T) {
	q := newWDQS()
	doc := parse(t, `{"items": [
		{"id": "A", "entity": "Q7259", "startQuery": "#birth"},
		{"id": "B", "start": {"value": "+001999-01-01T00:00:00Z", "precision": 42}, "end": {"value": "+002001-00-00T00:00:00Z", "precision": 9}}
	]}`)

	_, _, err := newRunner(t, q, cache.NewMemory(), nil).Run(context.Background(), doc)
	require.Error(t, err)
	assert.True(t, errors.IsConfigurationError(err))
	assert.Contains(t, err.Error(), "start of item B")
	assert.Zero(t, q.calls)
}

func TestTransportErrorStillFlushes(t *testing.T) {
	q := newWDQS()
	q.failOn = "P570"
	store := &recordingStore{Memory: cache.NewMemory()}
	m := metrics.New()

	_, _, err := newRunner(t, q, store, m).Run(context.Background(), parse(t, society))
	require.Error(t, err)
	assert.True(t, errors.IsTransportError(err))
	assert.Equal(t, 1, store.flushes)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LastRunFailed))

	assert.Equal(t, 2, store.Len(), "results before the failure are kept for the next run")
}

func TestFlushFailure(t *testing.T) {
	q := newWDQS()
	store := &recordingStore{Memory: cache.NewMemory(), flushErr: errors.New("disk full")}
	_, _, err := newRunner(t, q, store, nil).Run(context.Background(), parse(t, society))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	q.failOn = "P569"
	_, _, err = newRunner(t, q, store, nil).Run(context.Background(), parse(t, `{"items": [{"id": "a", "entity": "Q1", "startQuery": "#birth", "skipCache": true}]}`))
	require.Error(t, err)
	assert.True(t, errors.IsTransportError(err), "the primary error wins")
	assert.Contains(t, fmt.Sprintf("%+v", err), "disk full")
}
