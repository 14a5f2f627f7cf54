package timeline

import (
	"bytes"
	"encoding/json"

	"github.com/teranos/chronicle/errors"
	"github.com/teranos/chronicle/query"
	"github.com/teranos/chronicle/temporal"
)

// Duration is how long an item of some kind is expected to last
type Duration struct {
	Min *temporal.Span `json:"min,omitempty"`
	Max *temporal.Span `json:"max,omitempty"`
	Avg temporal.Span  `json:"avg"`
}

// UnmarshalJSON accepts {"min","max","avg"} or a bare ISO string meaning avg
func (d *Duration) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var avg temporal.Span
		if err := json.Unmarshal(data, &avg); err != nil {
			return err
		}
		*d = Duration{Avg: avg}
		return nil
	}
	type plain Duration
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return errors.WrapConfiguration(err, "invalid duration")
	}
	*d = Duration(p)
	return nil
}

// Validate checks the average is positive and lies within the bounds
func (d Duration) Validate() error {
	if d.Avg <= 0 {
		return errors.NewConfigurationError("expected duration needs a positive avg")
	}
	if d.Min != nil && *d.Min > d.Avg {
		return errors.NewConfigurationError("expected duration min %s exceeds avg %s", *d.Min, d.Avg)
	}
	if d.Max != nil && *d.Max < d.Avg {
		return errors.NewConfigurationError("expected duration max %s is below avg %s", *d.Max, d.Avg)
	}
	return nil
}

// Expectation is one row of the expectation table. The query fields it
// declares must all equal the item's for the row to apply; a row declaring
// none is universal.
type Expectation struct {
	StartQuery    *query.Term `json:"startQuery,omitempty"`
	EndQuery      *query.Term `json:"endQuery,omitempty"`
	StartEndQuery *query.Term `json:"startEndQuery,omitempty"`
	Duration      Duration    `json:"duration"`
}

// Universal reports whether the row matches every item
func (e Expectation) Universal() bool {
	return e.StartQuery == nil && e.EndQuery == nil && e.StartEndQuery == nil
}

// Matches reports whether every declared query field equals the item's
func (e Expectation) Matches(it *Item) bool {
	return termMatches(e.StartQuery, it.StartQuery) &&
		termMatches(e.EndQuery, it.EndQuery) &&
		termMatches(e.StartEndQuery, it.StartEndQuery)
}

func termMatches(want *query.Term, got query.Term) bool {
	return want == nil || want.Equal(got)
}

// Expectations is an ordered table, first match wins
type Expectations []Expectation

// Validate checks every row and that the last row is universal, so a lookup
// can never fail
func (t Expectations) Validate() error {
	if len(t) == 0 || !t[len(t)-1].Universal() {
		return errors.WithHint(
			errors.NewConfigurationError("expected durations must end with a universal entry"),
			`add a last entry without query fields, e.g. {"duration": {"avg": "P1Y"}}`)
	}
	for i, e := range t {
		if err := e.Duration.Validate(); err != nil {
			return errors.Wrapf(err, "expected duration #%d", i)
		}
	}
	return nil
}

// For returns the item's override, or the first row that matches it
func (t Expectations) For(it *Item) (Duration, error) {
	if it.ExpectedDuration != nil {
		return *it.ExpectedDuration, nil
	}
	for _, e := range t {
		if e.Matches(it) {
			return e.Duration, nil
		}
	}
	return Duration{}, errors.AssertionFailedf("no expected duration matches item %s", it.Name())
}
