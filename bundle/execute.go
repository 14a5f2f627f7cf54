package bundle

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/chronicle/cache"
	"github.com/teranos/chronicle/errors"
	"github.com/teranos/chronicle/expand"
	"github.com/teranos/chronicle/logger"
	"github.com/teranos/chronicle/query"
	"github.com/teranos/chronicle/sparql"
	"github.com/teranos/chronicle/temporal"
	"github.com/teranos/chronicle/timeline"
)

// Config wires an Executor
type Config struct {
	Querier sparql.Querier
	Cache   *cache.Cache
	IDs     *timeline.IDs
	Logger  *zap.SugaredLogger
}

// Executor runs bundles one at a time and writes results into their items
type Executor struct {
	querier sparql.Querier
	cache   *cache.Cache
	ids     *timeline.IDs
	logger  *zap.SugaredLogger
}

// Result reports one execution pass
type Result struct {
	// Items is the input with value clones inserted after their originals
	Items     []*timeline.Item
	Bundles   int
	Sources   map[cache.Source]int
	Ambiguous int
	Cloned    int
	// Unanswered counts item/kind pairs whose entity had no statement
	Unanswered int
}

// NewExecutor creates an Executor
func NewExecutor(cfg Config) *Executor {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Executor{
		querier: cfg.Querier,
		cache:   cfg.Cache,
		ids:     cfg.IDs,
		logger:  logger.AddAxSymbol(log),
	}
}

// Run executes every bundle in order. A failing query aborts the run; the
// items already filled keep their values.
func (x *Executor) Run(ctx context.Context, items []*timeline.Item, bundles []*Bundle) (Result, error) {
	res := Result{Bundles: len(bundles), Sources: make(map[cache.Source]int)}

	// Bundles each item belongs to, so value clones can join the later ones
	member := make(map[*timeline.Item][]int)
	for i, b := range bundles {
		for _, it := range b.Items {
			member[it] = append(member[it], i)
		}
	}
	clonesOf := make(map[*timeline.Item][]*timeline.Item)

	for i, b := range bundles {
		if err := ctx.Err(); err != nil {
			return res, errors.Wrap(err, "bundle execution cancelled")
		}

		values, src, err := x.fetch(ctx, b)
		if err != nil {
			return res, errors.Wrapf(err, "bundle %s", b.Name())
		}
		res.Sources[src]++

		members := b.Items
		for _, it := range members {
			ov := values[it.Entity]
			best, ok := ov.First()
			if !ok {
				res.Unanswered++
				x.logger.Debugw("No statement found",
					logger.FieldItemID, it.Name(), logger.FieldEntity, it.Entity, logger.FieldQueryKind, string(b.Key.Kind))
				continue
			}
			if ov.IsMany() {
				vals := ov.All()
				if it.Multiple {
					clones := expand.CloneForValues(it, len(vals), x.ids)
					for k, c := range clones {
						apply(c, b.Key.Kind, vals[k+1])
						for _, later := range member[it] {
							if later > i {
								bundles[later].Items = append(bundles[later].Items, c)
								member[c] = append(member[c], later)
							}
						}
					}
					clonesOf[it] = append(clonesOf[it], clones...)
					res.Cloned += len(clones)
				} else {
					res.Ambiguous++
					x.logger.Warnw("Ambiguous statement, using the first",
						logger.FieldItemID, it.Name(),
						logger.FieldEntity, it.Entity,
						logger.FieldQueryKind, string(b.Key.Kind),
						logger.FieldError, errors.NewAmbiguity(it.Entity, len(vals)))
				}
			}
			apply(it, b.Key.Kind, best)
		}
	}

	for _, it := range items {
		res.Items = append(res.Items, it)
		res.Items = append(res.Items, descendants(it, clonesOf)...)
	}
	for _, it := range res.Items {
		it.Finished = true
	}
	return res, nil
}

// descendants lists the clones of it depth first, clones of clones included
func descendants(it *timeline.Item, clonesOf map[*timeline.Item][]*timeline.Item) []*timeline.Item {
	var out []*timeline.Item
	for _, c := range clonesOf[it] {
		out = append(out, c)
		out = append(out, descendants(c, clonesOf)...)
	}
	return out
}

func (x *Executor) fetch(ctx context.Context, b *Bundle) (query.EntityValues, cache.Source, error) {
	q, err := b.Query()
	if err != nil {
		return nil, "", err
	}
	keys := query.TimeKeys(b.Term)
	values, src, err := cache.Fetch(ctx, x.cache, q, b.Key.SkipCache, func(ctx context.Context) (query.EntityValues, error) {
		started := time.Now()
		resp, err := x.querier.Query(ctx, q)
		if err != nil {
			return nil, err
		}
		x.logger.Infow("Bundle queried",
			logger.FieldBundle, b.Name(),
			logger.FieldCount, len(b.Items),
			"rows", len(resp.Rows()),
			logger.FieldDurationMS, time.Since(started).Milliseconds())
		return Collect(resp, keys, x.logger), nil
	})
	if err != nil {
		return nil, src, err
	}
	if src != cache.SourceNetwork {
		x.logger.Debugw("Bundle answered from cache",
			logger.FieldBundle, b.Name(), logger.FieldSource, string(src))
	}
	return values, src, nil
}

// resultFields maps time sub-term names to item fields per kind
var resultFields = map[Kind]map[string]func(*timeline.Item) **temporal.Value{
	KindStart: {
		query.PartValue: func(it *timeline.Item) **temporal.Value { return &it.Start },
		"min":           func(it *timeline.Item) **temporal.Value { return &it.StartMin },
		"max":           func(it *timeline.Item) **temporal.Value { return &it.StartMax },
	},
	KindEnd: {
		query.PartValue: func(it *timeline.Item) **temporal.Value { return &it.End },
		"min":           func(it *timeline.Item) **temporal.Value { return &it.EndMin },
		"max":           func(it *timeline.Item) **temporal.Value { return &it.EndMax },
	},
	KindStartEnd: {
		"start":     func(it *timeline.Item) **temporal.Value { return &it.Start },
		"end":       func(it *timeline.Item) **temporal.Value { return &it.End },
		"start_min": func(it *timeline.Item) **temporal.Value { return &it.StartMin },
		"start_max": func(it *timeline.Item) **temporal.Value { return &it.StartMax },
		"end_min":   func(it *timeline.Item) **temporal.Value { return &it.EndMin },
		"end_max":   func(it *timeline.Item) **temporal.Value { return &it.EndMax },
	},
}

// apply writes the returned sub-terms into the item; fields the query left
// unbound keep whatever the item already had
func apply(it *timeline.Item, k Kind, tv query.TermValues) {
	for name, v := range tv {
		field, ok := resultFields[k][name]
		if !ok || v.IsZero() {
			continue
		}
		val := v
		*field(it) = &val
	}
}
