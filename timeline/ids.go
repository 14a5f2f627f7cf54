package timeline

import (
	"sort"
	"strconv"
	"strings"

	"github.com/teranos/chronicle/errors"
)

// IDs hands out item ids that are unique across the run
type IDs struct {
	taken map[string]bool
}

// NewIDs reserves every explicit id. Duplicate explicit ids are a
// configuration error, reported all at once.
func NewIDs(items []*Item) (*IDs, error) {
	ids := &IDs{taken: make(map[string]bool, len(items))}
	var dups []string
	seen := make(map[string]bool)
	for _, it := range items {
		if it.ID == "" {
			continue
		}
		if ids.taken[it.ID] && !seen[it.ID] {
			dups = append(dups, it.ID)
			seen[it.ID] = true
		}
		ids.taken[it.ID] = true
	}
	if len(dups) > 0 {
		sort.Strings(dups)
		quoted := make([]string, len(dups))
		for i, d := range dups {
			quoted[i] = strconv.Quote(d)
		}
		return nil, errors.WithHint(
			errors.NewConfigurationError("item id %s appears multiple times", strings.Join(quoted, ", ")),
			"item ids must be unique; remove the id to have one generated")
	}
	return ids, nil
}

// Taken reports whether id is in use
func (ids *IDs) Taken(id string) bool {
	return ids.taken[id]
}

// Claim reserves id if free, else the first free "<id>-<n>" from n = 2
func (ids *IDs) Claim(id string) string {
	if !ids.Taken(id) {
		ids.taken[id] = true
		return id
	}
	return ids.nextFrom(id, 2)
}

// Next reserves and returns the first free "<base>-<n>" from n = 1
func (ids *IDs) Next(base string) string {
	return ids.nextFrom(base, 1)
}

func (ids *IDs) nextFrom(base string, n int) string {
	for ; ; n++ {
		id := base + "-" + strconv.Itoa(n)
		if !ids.Taken(id) {
			ids.taken[id] = true
			return id
		}
	}
}

// Assign gives every item without an id "<entity|anonymous>-<n>"
func (ids *IDs) Assign(items []*Item) {
	for _, it := range items {
		if it.ID != "" {
			ids.taken[it.ID] = true
			continue
		}
		base := it.Entity
		if base == "" {
			base = "anonymous"
		}
		it.ID = ids.Next(base)
	}
}
