package temporal

import (
	"encoding/json"
	"math"
	"strconv"
	"time"

	"github.com/sosodev/duration"
	"github.com/teranos/chronicle/errors"
)

// Span is a signed length of time in whole seconds.
// time.Duration saturates at about 292 years, far short of the spans a
// timeline of geologic or cosmological items needs.
type Span int64

// Calendar approximations used when converting ISO-8601 designators to seconds
const (
	secondsPerDay   = 86400
	secondsPerYear  = 365.2425 * secondsPerDay
	secondsPerMonth = secondsPerYear / 12
)

// ParseSpan parses an ISO-8601 duration such as "P75Y", "P6M" or "P1Y2M3DT4H".
// Years and months use their mean Gregorian lengths.
func ParseSpan(iso string) (Span, error) {
	d, err := duration.Parse(iso)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid ISO-8601 duration %q", iso)
	}
	secs := d.Years*secondsPerYear +
		d.Months*secondsPerMonth +
		d.Weeks*7*secondsPerDay +
		d.Days*secondsPerDay +
		d.Hours*3600 +
		d.Minutes*60 +
		d.Seconds
	if d.Negative {
		secs = -secs
	}
	return Span(math.Round(secs)), nil
}

// String renders the span as an ISO-8601 duration in seconds
func (s Span) String() string {
	if s < 0 {
		return "-PT" + strconv.FormatInt(-int64(s), 10) + "S"
	}
	return "PT" + strconv.FormatInt(int64(s), 10) + "S"
}

// MarshalJSON writes the span as an ISO-8601 string
func (s Span) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON reads an ISO-8601 string
func (s *Span) UnmarshalJSON(data []byte) error {
	var iso string
	if err := json.Unmarshal(data, &iso); err != nil {
		return errors.WrapConfiguration(err, "duration must be an ISO-8601 string")
	}
	parsed, err := ParseSpan(iso)
	if err != nil {
		return errors.Mark(err, errors.ErrConfiguration)
	}
	*s = parsed
	return nil
}

// Scale multiplies the span by f, rounding to the nearest second
func (s Span) Scale(f float64) Span {
	return Span(math.Round(float64(s) * f))
}

// Years returns the span as fractional mean Gregorian years
func (s Span) Years() float64 {
	return float64(s) / secondsPerYear
}

// Add returns t moved by s
func Add(t time.Time, s Span) time.Time {
	return time.Unix(t.Unix()+int64(s), 0).UTC()
}

// Between returns b - a
func Between(a, b time.Time) Span {
	return Span(b.Unix() - a.Unix())
}

// Earlier returns the earlier of a and b
func Earlier(a, b time.Time) time.Time {
	if b.Before(a) {
		return b
	}
	return a
}

// Later returns the later of a and b
func Later(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
