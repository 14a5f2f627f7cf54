package temporal

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/teranos/chronicle/errors"
)

// Value is a raw temporal statement value: an extended-year date-time string
// plus its precision. The zero Value is "absent".
type Value struct {
	Value     string    `json:"value"`
	Precision Precision `json:"precision"`
}

// IsZero reports whether the value is absent
func (v Value) IsZero() bool {
	return v.Value == ""
}

// Parse reads an extended-year date-time such as "+001999-01-01T00:00:00Z",
// "-0500-00-00T00:00:00Z", "1999-05-01" or "-13800000000-01-01T00:00:00Z".
// A month or day of 00 is read as 01. The result is in UTC.
func Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty date-time")
	}

	neg := false
	rest := s
	switch rest[0] {
	case '+':
		rest = rest[1:]
	case '-':
		neg = true
		rest = rest[1:]
	}

	yearEnd := strings.IndexByte(rest, '-')
	if yearEnd <= 0 {
		return time.Time{}, errors.Newf("invalid date-time %q: missing year", s)
	}
	year, err := strconv.ParseInt(rest[:yearEnd], 10, 64)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "invalid year in %q", s)
	}
	if neg {
		year = -year
	}
	rest = rest[yearEnd+1:]

	datePart, timePart, _ := strings.Cut(rest, "T")
	fields := strings.Split(datePart, "-")
	if len(fields) != 2 {
		return time.Time{}, errors.Newf("invalid date-time %q: expected year-month-day", s)
	}
	month, err := atoiRange(fields[0], 0, 12)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "invalid month in %q", s)
	}
	day, err := atoiRange(fields[1], 0, 31)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "invalid day in %q", s)
	}
	month = max(month, 1)
	day = max(day, 1)

	var hour, minute, second int
	if timePart != "" {
		timePart = strings.TrimSuffix(timePart, "Z")
		if dot := strings.IndexByte(timePart, '.'); dot >= 0 {
			timePart = timePart[:dot]
		}
		clock := strings.Split(timePart, ":")
		if len(clock) != 3 {
			return time.Time{}, errors.Newf("invalid time of day in %q", s)
		}
		if hour, err = atoiRange(clock[0], 0, 24); err != nil {
			return time.Time{}, errors.Wrapf(err, "invalid hour in %q", s)
		}
		if minute, err = atoiRange(clock[1], 0, 59); err != nil {
			return time.Time{}, errors.Wrapf(err, "invalid minute in %q", s)
		}
		if second, err = atoiRange(clock[2], 0, 60); err != nil {
			return time.Time{}, errors.Wrapf(err, "invalid second in %q", s)
		}
	}

	return time.Date(int(year), time.Month(month), day, hour, minute, second, 0, time.UTC), nil
}

func atoiRange(s string, lo, hi int) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < lo || n > hi {
		return 0, errors.Newf("%d out of range %d-%d", n, lo, hi)
	}
	return n, nil
}

// Truncate reduces t to precision p. Precisions 0-9 round the year to the
// nearest multiple of 10^(9-p), halves rounding up, and reset to 1 January.
// Finer precisions truncate to the start of the month, day, hour, minute or second.
func Truncate(t time.Time, p Precision) (time.Time, error) {
	t = t.UTC()
	year, month, day := t.Date()
	hour, minute, second := t.Clock()

	switch {
	case p >= PrecisionBillionYears && p <= PrecisionYear:
		unit := float64(p.YearUnit())
		rounded := int(math.Floor(float64(year)/unit+0.5) * unit)
		return time.Date(rounded, time.January, 1, 0, 0, 0, 0, time.UTC), nil
	case p == PrecisionMonth:
		return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC), nil
	case p == PrecisionDay:
		return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), nil
	case p == PrecisionHour:
		return time.Date(year, month, day, hour, 0, 0, 0, time.UTC), nil
	case p == PrecisionMinute:
		return time.Date(year, month, day, hour, minute, 0, 0, time.UTC), nil
	case p == PrecisionSecond:
		return time.Date(year, month, day, hour, minute, second, 0, time.UTC), nil
	}
	return time.Time{}, errors.Newf("unrecognized precision %d", int(p))
}

// Normalize parses and truncates a statement value. An absent value yields
// ok == false rather than a zero time.
func Normalize(v Value) (t time.Time, ok bool, err error) {
	if v.IsZero() {
		return time.Time{}, false, nil
	}
	parsed, err := Parse(v.Value)
	if err != nil {
		return time.Time{}, false, err
	}
	t, err = Truncate(parsed, v.Precision)
	if err != nil {
		return time.Time{}, false, errors.Wrapf(err, "normalizing %q", v.Value)
	}
	return t, true, nil
}

// Format renders t as ±YYYYYY-MM-DDTHH:MM:SS with at least six year digits
func Format(t time.Time) string {
	t = t.UTC()
	year, month, day := t.Date()
	hour, minute, second := t.Clock()

	var b strings.Builder
	if year < 0 {
		b.WriteByte('-')
		year = -year
	} else {
		b.WriteByte('+')
	}
	digits := strconv.Itoa(year)
	for i := len(digits); i < 6; i++ {
		b.WriteByte('0')
	}
	b.WriteString(digits)
	b.WriteByte('-')
	writeTwo(&b, int(month))
	b.WriteByte('-')
	writeTwo(&b, day)
	b.WriteByte('T')
	writeTwo(&b, hour)
	b.WriteByte(':')
	writeTwo(&b, minute)
	b.WriteByte(':')
	writeTwo(&b, second)
	return b.String()
}

func writeTwo(b *strings.Builder, n int) {
	if n < 10 {
		b.WriteByte('0')
	}
	b.WriteString(strconv.Itoa(n))
}
