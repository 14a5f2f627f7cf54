// Package temporal normalizes imprecise statement dates.
//
// Values come from the query endpoint as extended-year date-time strings with
// a precision code. Normalization rounds or truncates them to that precision
// and renders a fixed-width form the timeline renderer accepts for any year,
// including geologic ones like -13800000000.
package temporal

import (
	"strconv"

	"github.com/teranos/chronicle/errors"
)

// Precision is the granularity code attached to a statement value.
// 0-9 are year buckets of 10^(9-p) years; 10-14 are month through second.
type Precision int

const (
	PrecisionBillionYears Precision = 0
	PrecisionMillennium   Precision = 6
	PrecisionCentury      Precision = 7
	PrecisionDecade       Precision = 8
	PrecisionYear         Precision = 9
	PrecisionMonth        Precision = 10
	PrecisionDay          Precision = 11
	PrecisionHour         Precision = 12
	PrecisionMinute       Precision = 13
	PrecisionSecond       Precision = 14
)

const maxPrecision = PrecisionSecond

// Valid reports whether p is a known precision code
func (p Precision) Valid() bool {
	return p >= PrecisionBillionYears && p <= maxPrecision
}

// YearUnit returns the rounding bucket in years for precisions 0-9, or 1 for finer ones
func (p Precision) YearUnit() int64 {
	if p >= PrecisionYear {
		return 1
	}
	unit := int64(1)
	for i := p; i < PrecisionYear; i++ {
		unit *= 10
	}
	return unit
}

func (p Precision) String() string {
	switch p {
	case PrecisionYear:
		return "year"
	case PrecisionMonth:
		return "month"
	case PrecisionDay:
		return "day"
	case PrecisionHour:
		return "hour"
	case PrecisionMinute:
		return "minute"
	case PrecisionSecond:
		return "second"
	}
	if p.Valid() {
		return strconv.FormatInt(p.YearUnit(), 10) + " years"
	}
	return "precision(" + strconv.Itoa(int(p)) + ")"
}

// ParsePrecision parses a precision code as returned in query bindings
func ParsePrecision(s string) (Precision, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid precision %q", s)
	}
	p := Precision(n)
	if !p.Valid() {
		return 0, errors.Newf("precision %d out of range 0-14", n)
	}
	return p, nil
}
