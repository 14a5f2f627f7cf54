package logger

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teranos/chronicle/sym"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// stripANSI removes ANSI color codes from a string for testing
func stripANSI(str string) string {
	ansiRegex := regexp.MustCompile(`\x1b\[[0-9;]*m`)
	return ansiRegex.ReplaceAllString(str, "")
}

// The minimal encoder must never silently discard log fields.
func TestMinimalEncoderNeverDiscardsFields(t *testing.T) {
	encoder := newMinimalEncoder()

	entry := zapcore.Entry{
		Level:      zapcore.InfoLevel,
		Time:       time.Now(),
		LoggerName: "bundle",
		Message:    "Bundle resolved",
	}

	testFields := []struct {
		field    zapcore.Field
		mustFind string
	}{
		{zap.String(FieldItemID, "ada-lovelace"), "item_id=ada-lovelace"},
		{zap.String(FieldEntity, "Q7259"), "entity=Q7259"},
		{zap.String(FieldBundle, "start#1"), "bundle=start#1"},
		{zap.String(FieldQueryKind, "start"), "query_kind=start"},
		{zap.Int(FieldCount, 14), "count=14"},
		{zap.Int64(FieldDurationMS, 312), "duration_ms=312"},
		{zap.Bool("skip_cache", true), "skip_cache=true"},
		{zap.Float64("ratio", 0.25), "ratio=0.25"},
		{zap.Strings("classes", []string{"tail", "uncertain"}), "classes=[tail uncertain]"},
		{zap.String("random_field_xyz", "important_data"), "random_field_xyz=important_data"},
		{zap.Error(nil), ""}, // nil error shouldn't crash
		{zap.String(FieldError, "status 503"), "error=status 503"},
	}

	var allFields []zapcore.Field
	for _, tf := range testFields {
		allFields = append(allFields, tf.field)
	}

	buf, err := encoder.EncodeEntry(entry, allFields)
	require.NoError(t, err)

	cleanOutput := stripANSI(buf.String())
	for _, tf := range testFields {
		if tf.mustFind != "" {
			assert.Contains(t, cleanOutput, tf.mustFind, "field silently discarded")
		}
	}
}

func TestMinimalEncoderLayout(t *testing.T) {
	encoder := newMinimalEncoder()

	entry := zapcore.Entry{
		Level:      zapcore.WarnLevel,
		Time:       time.Date(2026, 1, 2, 13, 4, 35, 0, time.UTC),
		LoggerName: "resolve.range",
		Message:    "Item dropped",
	}

	buf, err := encoder.EncodeEntry(entry, []zapcore.Field{
		zap.String("zeta", "last"),
		zap.String(FieldSymbol, sym.AT),
		zap.String(FieldItemID, "x"),
	})
	require.NoError(t, err)

	out := stripANSI(buf.String())
	assert.True(t, strings.HasPrefix(out, "13:04:35  WARN  r.range  Item dropped  "+sym.AT+" item_id=x zeta=last"), out)
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestUnknownFieldTypes(t *testing.T) {
	encoder := newMinimalEncoder()

	entry := zapcore.Entry{
		Level:   zapcore.DebugLevel,
		Time:    time.Now(),
		Message: "Testing unusual field types",
	}

	fields := []zapcore.Field{
		zap.Duration("duration", 5*time.Second),
		zap.Time("timestamp", time.Now()),
		zap.Uint64("uint64", 5000000000),
		zap.ByteString("bytes", []byte("hello world")),
		zap.Binary("binary", []byte{0x01, 0x02, 0x03}),
	}

	buf, err := encoder.EncodeEntry(entry, fields)
	require.NoError(t, err)

	cleanOutput := stripANSI(buf.String())
	for _, expected := range []string{"duration=", "timestamp=", "uint64=5000000000", "bytes=", "binary="} {
		assert.Contains(t, cleanOutput, expected)
	}
}

func TestAbbreviateName(t *testing.T) {
	assert.Equal(t, "bundle", abbreviateName("bundle"))
	assert.Equal(t, "b.exec", abbreviateName("bundle.exec"))
	assert.Equal(t, "c.json.load", abbreviateName("cache.json.load"))
}

func TestSetTheme(t *testing.T) {
	defer SetTheme("everforest")

	SetTheme("gruvbox")
	assert.Equal(t, "gruvbox", currentTheme)

	SetTheme("no-such-theme")
	assert.Equal(t, "gruvbox", currentTheme)
}
