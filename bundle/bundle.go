// Package bundle groups items that share a query shape so that one SPARQL
// request answers all of them.
package bundle

import (
	"sort"

	"go.uber.org/zap"

	"github.com/teranos/chronicle/errors"
	"github.com/teranos/chronicle/logger"
	"github.com/teranos/chronicle/query"
	"github.com/teranos/chronicle/timeline"
)

// Kind is the statement query an item field feeds
type Kind string

const (
	KindStart    Kind = "start"
	KindEnd      Kind = "end"
	KindStartEnd Kind = "startEnd"
)

// Kinds lists every kind in execution order
var Kinds = []Kind{KindStart, KindEnd, KindStartEnd}

// TermOf returns the item's query term for a kind
func TermOf(it *timeline.Item, k Kind) query.Term {
	switch k {
	case KindStart:
		return it.StartQuery
	case KindEnd:
		return it.EndQuery
	default:
		return it.StartEndQuery
	}
}

// Key is a bundle signature: the query kind, the term bound with the entity
// as a variable, and the cache bypass flag. Items differing only by entity
// share a key.
type Key struct {
	Kind      Kind
	Query     string
	SkipCache bool
}

// Bundle is the set of items answered by one query
type Bundle struct {
	Key   Key
	Term  query.Term
	Items []*timeline.Item
}

// Entities returns the distinct member entities, sorted
func (b *Bundle) Entities() []string {
	seen := make(map[string]bool, len(b.Items))
	var out []string
	for _, it := range b.Items {
		if !seen[it.Entity] {
			seen[it.Entity] = true
			out = append(out, it.Entity)
		}
	}
	sort.Strings(out)
	return out
}

// Query renders the SPARQL text for every member entity
func (b *Bundle) Query() (string, error) {
	return query.TimeQuery(b.Term, b.Entities())
}

// Name is a short label for logs
func (b *Bundle) Name() string {
	return string(b.Key.Kind) + "#" + b.Items[0].Name()
}

// Bundler partitions items into bundles
type Bundler struct {
	registry *query.Registry
	logger   *zap.SugaredLogger
}

// NewBundler creates a Bundler resolving "#name" terms through registry
func NewBundler(registry *query.Registry, log *zap.SugaredLogger) *Bundler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Bundler{registry: registry, logger: logger.AddAxSymbol(log)}
}

// Bind resolves and binds one of an item's terms with the entity as ?_entity.
// It touches no network, so callers can validate every item up front.
func (b *Bundler) Bind(it *timeline.Item, k Kind) (query.Term, error) {
	term := TermOf(it, k)
	if term.IsZero() {
		return query.Term{}, nil
	}
	resolved, err := b.registry.Resolve(term, it.Name())
	if err != nil {
		return query.Term{}, err
	}
	bound, err := query.BindTerm(resolved, it.TemplateParams(query.Param{Kind: query.Variable, Value: query.EntityVar}))
	if err != nil {
		return query.Term{}, errors.Wrapf(err, "%sQuery of item %s", k, it.Name())
	}
	return bound, nil
}

// Partition groups the unfinished items by signature, keeping first-seen
// order. Items without an entity cannot be queried and are skipped.
func (b *Bundler) Partition(items []*timeline.Item) ([]*Bundle, error) {
	index := make(map[Key]*Bundle)
	var out []*Bundle

	for _, it := range items {
		if it.Finished {
			continue
		}
		for _, k := range Kinds {
			if TermOf(it, k).IsZero() {
				continue
			}
			if it.Entity == "" {
				b.logger.Warnw("Item has a query but no entity, skipping query",
					logger.FieldItemID, it.Name(), logger.FieldQueryKind, string(k))
				continue
			}
			bound, err := b.Bind(it, k)
			if err != nil {
				return nil, err
			}
			key := Key{Kind: k, Query: bound.String(), SkipCache: it.SkipCache}
			bundle, ok := index[key]
			if !ok {
				bundle = &Bundle{Key: key, Term: bound}
				index[key] = bundle
				out = append(out, bundle)
			}
			bundle.Items = append(bundle.Items, it)
		}
	}

	b.logger.Debugw("Items bundled", logger.FieldCount, len(out))
	return out, nil
}
