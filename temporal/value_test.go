package temporal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"+1999-05-12T00:00:00Z", time.Date(1999, 5, 12, 0, 0, 0, 0, time.UTC)},
		{"1999-05-12T13:45:10Z", time.Date(1999, 5, 12, 13, 45, 10, 0, time.UTC)},
		{"+001999-05-12T00:00:00", time.Date(1999, 5, 12, 0, 0, 0, 0, time.UTC)},
		{"-0500-00-00T00:00:00Z", time.Date(-500, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"1815-12-10", time.Date(1815, 12, 10, 0, 0, 0, 0, time.UTC)},
		{"2001-01-01T00:00:00.000Z", time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"-13800000000-01-01T00:00:00Z", time.Date(-13800000000, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", Format(got))
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{"", "yesterday", "1999", "1999-13-01", "1999-01-01T25:00", "+x-01-01"} {
		_, err := Parse(in)
		assert.Error(t, err, in)
	}
}

func TestTruncate(t *testing.T) {
	base := time.Date(1987, 6, 17, 14, 33, 59, 0, time.UTC)
	tests := []struct {
		precision Precision
		want      string
	}{
		{PrecisionSecond, "+001987-06-17T14:33:59"},
		{PrecisionMinute, "+001987-06-17T14:33:00"},
		{PrecisionHour, "+001987-06-17T14:00:00"},
		{PrecisionDay, "+001987-06-17T00:00:00"},
		{PrecisionMonth, "+001987-06-01T00:00:00"},
		{PrecisionYear, "+001987-01-01T00:00:00"},
		{PrecisionDecade, "+001990-01-01T00:00:00"},
		{PrecisionCentury, "+002000-01-01T00:00:00"},
		{PrecisionMillennium, "+002000-01-01T00:00:00"},
		{Precision(5), "+000000-01-01T00:00:00"},
	}
	for _, tt := range tests {
		t.Run(tt.precision.String(), func(t *testing.T) {
			got, err := Truncate(base, tt.precision)
			require.NoError(t, err)
			assert.Equal(t, tt.want, Format(got))
		})
	}
}

func TestTruncateRoundsHalfUp(t *testing.T) {
	at := func(y int) time.Time { return time.Date(y, 3, 1, 0, 0, 0, 0, time.UTC) }

	got, _ := Truncate(at(1985), PrecisionDecade)
	assert.Equal(t, 1990, got.Year())
	got, _ = Truncate(at(1984), PrecisionDecade)
	assert.Equal(t, 1980, got.Year())
	got, _ = Truncate(at(-1985), PrecisionDecade)
	assert.Equal(t, -1980, got.Year())
	got, _ = Truncate(at(-13798000000), PrecisionBillionYears)
	assert.Equal(t, -14000000000, got.Year())
}

func TestTruncateIdempotent(t *testing.T) {
	years := []int{-13800000000, -65000000, -2500, -1, 0, 1, 476, 1492, 1985, 2024, 123456}
	for p := PrecisionBillionYears; p <= PrecisionYear; p++ {
		for _, y := range years {
			once, err := Truncate(time.Date(y, 7, 4, 0, 0, 0, 0, time.UTC), p)
			require.NoError(t, err)
			twice, err := Truncate(once, p)
			require.NoError(t, err)
			assert.True(t, once.Equal(twice), "precision %d year %d: %s != %s", p, y, Format(once), Format(twice))
		}
	}
}

func TestTruncateUnknownPrecision(t *testing.T) {
	_, err := Truncate(time.Now(), Precision(15))
	assert.Error(t, err)
	_, err = Truncate(time.Now(), Precision(-1))
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	got, ok, err := Normalize(Value{Value: "+1912-06-23T00:00:00Z", Precision: PrecisionDay})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "+001912-06-23T00:00:00", Format(got))

	// Absent is not zero
	_, ok, err = Normalize(Value{})
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = Normalize(Value{Value: "+1912-06-23T00:00:00Z", Precision: 99})
	assert.Error(t, err)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "+000000-01-01T00:00:00", Format(time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "-000500-01-01T00:00:00", Format(time.Date(-500, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "-13800000000-01-01T00:00:00", Format(time.Date(-13800000000, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "+002024-12-31T23:59:09", Format(time.Date(2024, 12, 31, 23, 59, 9, 0, time.UTC)))
}

func TestParsePrecision(t *testing.T) {
	p, err := ParsePrecision("11")
	require.NoError(t, err)
	assert.Equal(t, PrecisionDay, p)

	_, err = ParsePrecision("15")
	assert.Error(t, err)
	_, err = ParsePrecision("day")
	assert.Error(t, err)
}
