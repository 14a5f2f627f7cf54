package bundle

import (
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/chronicle/query"
	"github.com/teranos/chronicle/rank"
	"github.com/teranos/chronicle/sparql"
	"github.com/teranos/chronicle/temporal"
)

// row is one result binding reduced to what ranking and distribution need
type row struct {
	rank   rank.Rank
	values query.TermValues
}

var ranker = rank.NewResolver(func(r row) rank.Rank { return r.rank })

// Collect groups result rows by entity and keeps each entity's best
// statements. keys are the time sub-term names the query asked for.
func Collect(resp *sparql.Response, keys []string, log *zap.SugaredLogger) query.EntityValues {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	entityVar := strings.TrimPrefix(query.EntityVar, "?")
	rankVar := strings.TrimPrefix(query.RankVar, "?")

	byEntity := make(map[string][]row)
	var order []string
	for _, b := range resp.Rows() {
		iri, ok := b.Value(entityVar)
		if !ok {
			continue
		}
		entity := sparql.EntityID(iri)
		r := row{values: make(query.TermValues)}
		if rk, ok := b.Value(rankVar); ok {
			r.rank = rank.Parse(rk)
		}
		for _, k := range keys {
			vars := query.VarsFor(k)
			ti, ok := b.Value(vars.Time)
			if !ok {
				continue
			}
			prText, _ := b.Value(vars.Precision)
			pr, err := temporal.ParsePrecision(prText)
			if err != nil {
				log.Warnw("Ignoring value with bad precision", "entity", entity, "term", k, "error", err)
				continue
			}
			r.values[k] = temporal.Value{Value: ti, Precision: pr}
		}
		if _, seen := byEntity[entity]; !seen {
			order = append(order, entity)
		}
		byEntity[entity] = append(byEntity[entity], r)
	}

	out := make(query.EntityValues, len(byEntity))
	for _, entity := range order {
		var vals []query.TermValues
		for _, r := range ranker.Best(byEntity[entity]) {
			if !containsValues(vals, r.values) {
				vals = append(vals, r.values)
			}
		}
		if len(vals) == 1 {
			out[entity] = query.One(vals[0])
		} else {
			out[entity] = query.Many(vals)
		}
	}
	return out
}

// containsValues reports whether an identical row is already kept. Rows
// repeat when a statement has several qualifiers the query did not select.
func containsValues(list []query.TermValues, v query.TermValues) bool {
	for _, have := range list {
		if len(have) != len(v) {
			continue
		}
		same := true
		for k, x := range v {
			if y, ok := have[k]; !ok || y != x {
				same = false
				break
			}
		}
		if same {
			return true
		}
	}
	return false
}
