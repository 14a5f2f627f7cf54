// Package expand materializes items from item-generating queries.
package expand

import (
	"context"
	"html"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/chronicle/am"
	"github.com/teranos/chronicle/cache"
	"github.com/teranos/chronicle/errors"
	"github.com/teranos/chronicle/logger"
	"github.com/teranos/chronicle/query"
	"github.com/teranos/chronicle/sparql"
	"github.com/teranos/chronicle/timeline"
)

// Label placeholders in a template's label
const (
	LabelPlaceholder = "{_LABEL}"
	QIDPlaceholder   = "{_QID}"
)

// Config wires an Expander
type Config struct {
	Registry      *query.Registry
	Querier       sparql.Querier
	Cache         *cache.Cache
	IDs           *timeline.IDs
	Lang          string
	EntityBaseURL string
	Logger        *zap.SugaredLogger
}

// Expander replaces template items by one clone per generated entity
type Expander struct {
	registry      *query.Registry
	querier       sparql.Querier
	cache         *cache.Cache
	ids           *timeline.IDs
	lang          string
	entityBaseURL string
	logger        *zap.SugaredLogger
}

// Result reports one expansion pass
type Result struct {
	Items     []*timeline.Item
	Templates int
	Created   int
	Sources   map[cache.Source]int
}

// New creates an Expander
func New(cfg Config) *Expander {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	base := cfg.EntityBaseURL
	if base == "" {
		base = am.DefaultEntityBaseURL
	}
	lang := cfg.Lang
	if lang == "" {
		lang = am.DefaultLang
	}
	return &Expander{
		registry:      cfg.Registry,
		querier:       cfg.Querier,
		cache:         cfg.Cache,
		ids:           cfg.IDs,
		lang:          lang,
		entityBaseURL: base,
		logger:        logger.AddIXSymbol(log),
	}
}

// Query returns the item-generating query text for a template item.
// It touches no network, so callers can validate templates up front.
func (e *Expander) Query(tmpl *timeline.Item) (string, error) {
	pattern, err := e.registry.ResolveItem(tmpl.ItemQuery, tmpl.Name())
	if err != nil {
		return "", err
	}
	bound, err := query.Bind(pattern, tmpl.TemplateParams(query.Param{Kind: query.Variable, Value: query.NodeVar}))
	if err != nil {
		return "", errors.Wrapf(err, "item query of %s", tmpl.Name())
	}
	return query.ItemQuery(bound, e.lang)
}

// Expand runs every item-generating query. Templates are marked finished and
// dropped; their clones are appended after the plain items, in template order.
func (e *Expander) Expand(ctx context.Context, items []*timeline.Item) (Result, error) {
	res := Result{Sources: make(map[cache.Source]int)}
	var clones []*timeline.Item

	for _, it := range items {
		if it.ItemQuery == "" || it.Finished {
			if it.ItemQuery == "" {
				res.Items = append(res.Items, it)
			}
			continue
		}
		res.Templates++

		q, err := e.Query(it)
		if err != nil {
			return res, err
		}

		nodes, src, err := cache.Fetch(ctx, e.cache, q, it.SkipCache, func(ctx context.Context) ([]query.Node, error) {
			return e.run(ctx, q)
		})
		if err != nil {
			return res, errors.Wrapf(err, "item query of %s", it.Name())
		}
		res.Sources[src]++

		created := e.materialize(it, nodes)
		clones = append(clones, created...)
		it.Finished = true

		e.logger.Infow("Item-generating query expanded",
			logger.FieldItemID, it.Name(),
			logger.FieldSource, string(src),
			logger.FieldCount, len(created))
	}

	res.Created = len(clones)
	res.Items = append(res.Items, clones...)
	return res, nil
}

func (e *Expander) run(ctx context.Context, q string) ([]query.Node, error) {
	resp, err := e.querier.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	nodeVar := strings.TrimPrefix(query.NodeVar, "?")
	var nodes []query.Node
	for _, row := range resp.Rows() {
		iri, ok := row.Value(nodeVar)
		if !ok {
			continue
		}
		n := query.Node{Entity: sparql.EntityID(iri)}
		n.Label, _ = row.Value(nodeVar + "Label")
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// materialize clones the template once per distinct entity
func (e *Expander) materialize(tmpl *timeline.Item, nodes []query.Node) []*timeline.Item {
	seen := make(map[string]bool, len(nodes))
	var out []*timeline.Item
	for _, n := range nodes {
		if n.Entity == "" || seen[n.Entity] {
			continue
		}
		seen[n.Entity] = true

		c := tmpl.Clone()
		c.ItemQuery = ""
		c.Comment = ""
		c.Finished = false
		c.Entity = n.Entity
		c.Label = e.label(tmpl.Label, n)
		c.ID = ""
		if tmpl.ID != "" {
			c.ID = e.ids.Claim(tmpl.ID + "-" + n.Entity)
		}
		out = append(out, c)
	}
	return out
}

func (e *Expander) label(tmpl string, n query.Node) string {
	text := n.Label
	if text == "" {
		text = n.Entity
	}
	if tmpl != "" {
		return strings.NewReplacer(LabelPlaceholder, text, QIDPlaceholder, n.Entity).Replace(tmpl)
	}
	return `<a target="_blank" href="` + html.EscapeString(e.entityBaseURL+n.Entity) + `">` + html.EscapeString(text) + `</a>`
}

// CloneForValues returns n-1 clones of it for the second and later of n
// equally good values. Clone k gets the id "<id>-<k>", or the next free one.
func CloneForValues(it *timeline.Item, n int, ids *timeline.IDs) []*timeline.Item {
	var out []*timeline.Item
	for k := 2; k <= n; k++ {
		c := it.Clone()
		c.ID = ids.Claim(it.ID + "-" + strconv.Itoa(k))
		out = append(out, c)
	}
	return out
}
