// Package chronicle runs the whole pipeline for one timeline document:
// validate, expand templates, assign ids, bundle and execute statement
// queries, resolve ranges and build the output document.
package chronicle

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/chronicle/bundle"
	"github.com/teranos/chronicle/cache"
	"github.com/teranos/chronicle/errors"
	"github.com/teranos/chronicle/expand"
	"github.com/teranos/chronicle/logger"
	"github.com/teranos/chronicle/metrics"
	"github.com/teranos/chronicle/output"
	"github.com/teranos/chronicle/resolve"
	"github.com/teranos/chronicle/sparql"
	"github.com/teranos/chronicle/spec"
	"github.com/teranos/chronicle/timeline"
)

// Stage labels for query metrics
const (
	StageExpand = "expand"
	StageBundle = "bundle"
)

// Config is everything a run depends on. Nothing is read from globals.
type Config struct {
	Querier sparql.Querier
	// Store persists query results across runs; the caller owns and closes it
	Store cache.Store
	// SkipCache bypasses cache lookups for every item; results are still stored
	SkipCache     bool
	Lang          string
	EntityBaseURL string
	// Now is the clock for open-ended items; defaults to time.Now
	Now     func() time.Time
	Logger  *zap.SugaredLogger
	Metrics *metrics.Metrics
}

// Runner executes runs against one configuration
type Runner struct {
	cfg Config
}

// Report summarizes a run
type Report struct {
	RunID      string
	Items      int
	Templates  int
	Created    int
	Bundles    int
	Segments   int
	ByClass    map[string]int
	Dropped    []string
	Ambiguous  int
	Cloned     int
	Unanswered int
	// Queries counts answered queries by where the answer came from
	Queries  map[cache.Source]int
	Duration time.Duration
}

// New creates a Runner
func New(cfg Config) *Runner {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Store == nil {
		cfg.Store = cache.NewMemory()
	}
	return &Runner{cfg: cfg}
}

// Run resolves doc into a timeline document. Configuration errors are
// reported before any query runs. The cache is flushed exactly once on every
// path; a flush failure after another error is attached as a secondary error.
func (r *Runner) Run(ctx context.Context, doc *spec.Document) (out *output.Document, rep Report, err error) {
	started := time.Now()
	rep = Report{
		RunID:   uuid.New().String(),
		Queries: make(map[cache.Source]int),
		ByClass: make(map[string]int),
	}
	ctx = logger.WithRunID(ctx, rep.RunID)
	log := r.cfg.Logger.With(logger.FieldRunID, rep.RunID)

	logger.RunOpenInfow(log, "Run started", "source", doc.Source, logger.FieldCount, len(doc.Items))

	c := cache.New(r.cfg.Store, r.cfg.SkipCache, log)
	defer func() {
		if ferr := c.Flush(); ferr != nil {
			if err == nil {
				err = ferr
			} else {
				err = errors.WithSecondaryError(err, ferr)
			}
		}
		rep.Duration = time.Since(started)
		if r.cfg.Metrics != nil {
			r.cfg.Metrics.Finish(err)
		}
		if err != nil {
			log.Errorw("Run failed", logger.FieldError, err, logger.FieldDurationMS, rep.Duration.Milliseconds())
			return
		}
		logger.RunCloseInfow(log, "Run finished",
			logger.FieldSegments, rep.Segments,
			logger.FieldDurationMS, rep.Duration.Milliseconds())
	}()

	if err := doc.Validate(); err != nil {
		return nil, rep, err
	}
	ids, err := timeline.NewIDs(doc.Items)
	if err != nil {
		return nil, rep, err
	}
	registry := doc.Registry()

	expander := expand.New(expand.Config{
		Registry:      registry,
		Querier:       r.instrument(StageExpand),
		Cache:         c,
		IDs:           ids,
		Lang:          r.cfg.Lang,
		EntityBaseURL: r.cfg.EntityBaseURL,
		Logger:        log,
	})
	expanded, err := expander.Expand(ctx, doc.Items)
	r.countQueries(StageExpand, expanded.Sources, &rep)
	if err != nil {
		return nil, rep, errors.Wrap(err, "expanding item templates")
	}
	rep.Templates, rep.Created = expanded.Templates, expanded.Created
	items := expanded.Items
	ids.Assign(items)

	bundles, err := bundle.NewBundler(registry, log).Partition(items)
	if err != nil {
		return nil, rep, err
	}
	executed, err := bundle.NewExecutor(bundle.Config{
		Querier: r.instrument(StageBundle),
		Cache:   c,
		IDs:     ids,
		Logger:  log,
	}).Run(ctx, items, bundles)
	r.countQueries(StageBundle, executed.Sources, &rep)
	if err != nil {
		return nil, rep, errors.Wrap(err, "running statement queries")
	}
	rep.Bundles = executed.Bundles
	rep.Ambiguous = executed.Ambiguous
	rep.Cloned = executed.Cloned
	rep.Unanswered = executed.Unanswered
	rep.Items = len(executed.Items)

	resolved, err := resolve.New(resolve.Config{
		Expectations: doc.Expectations(),
		IDs:          ids,
		Now:          r.cfg.Now,
		Logger:       log,
	}).Resolve(executed.Items)
	if err != nil {
		return nil, rep, errors.Wrap(err, "resolving ranges")
	}
	rep.Segments = len(resolved.Segments)
	rep.Dropped = resolved.Dropped
	rep.ByClass = resolved.ByClass
	r.recordResolution(&rep)

	return output.New(resolved.Segments, doc.Groups, doc.Options), rep, nil
}

func (r *Runner) countQueries(stage string, sources map[cache.Source]int, rep *Report) {
	for src, n := range sources {
		rep.Queries[src] += n
		if r.cfg.Metrics != nil {
			r.cfg.Metrics.Queries.WithLabelValues(stage, string(src)).Add(float64(n))
		}
	}
}

func (r *Runner) recordResolution(rep *Report) {
	m := r.cfg.Metrics
	if m == nil {
		return
	}
	for class, n := range rep.ByClass {
		m.Segments.WithLabelValues(class).Add(float64(n))
	}
	m.DroppedItems.Add(float64(len(rep.Dropped)))
	m.Ambiguous.Add(float64(rep.Ambiguous))
	m.ClonedItems.Add(float64(rep.Cloned))
	m.Items.Set(float64(rep.Items))
}

// instrument times network queries per stage
func (r *Runner) instrument(stage string) sparql.Querier {
	if r.cfg.Metrics == nil {
		return r.cfg.Querier
	}
	return timedQuerier{next: r.cfg.Querier, observe: r.cfg.Metrics.QuerySeconds.WithLabelValues(stage).Observe}
}

type timedQuerier struct {
	next    sparql.Querier
	observe func(float64)
}

func (q timedQuerier) Query(ctx context.Context, text string) (*sparql.Response, error) {
	started := time.Now()
	resp, err := q.next.Query(ctx, text)
	q.observe(time.Since(started).Seconds())
	return resp, err
}
