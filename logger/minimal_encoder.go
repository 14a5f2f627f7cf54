package logger

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const (
	colorReset = "\x1b[0m"
	colorBold  = "\x1b[1m"
)

// palette is one console color theme
type palette struct {
	fg     string
	time   string
	id     string
	number string
	symbol string
	comps  []string
	warn   string
	warnBg string
	err    string
	errBg  string
}

var themes = map[string]palette{
	// Everforest Dark (natural forest greens)
	"everforest": {
		fg:     "\x1b[38;5;223m",
		time:   "\x1b[38;5;107m",
		id:     "\x1b[38;5;109m",
		number: "\x1b[38;5;108m",
		symbol: "\x1b[38;5;108m",
		comps:  []string{"\x1b[38;5;108m", "\x1b[38;5;65m", "\x1b[38;5;208m"},
		warn:   "\x1b[38;5;179m",
		warnBg: "\x1b[48;5;58m",
		err:    "\x1b[38;5;167m",
		errBg:  "\x1b[48;5;52m",
	},
	// Gruvbox Dark (warm, muted)
	"gruvbox": {
		fg:     "\x1b[38;5;223m",
		time:   "\x1b[38;5;108m",
		id:     "\x1b[38;5;109m",
		number: "\x1b[38;5;175m",
		symbol: "\x1b[38;5;142m",
		comps:  []string{"\x1b[38;5;208m", "\x1b[38;5;214m"},
		warn:   "\x1b[38;5;214m",
		warnBg: "\x1b[48;5;58m",
		err:    "\x1b[38;5;167m",
		errBg:  "\x1b[48;5;88m",
	},
}

// Current active theme
var currentTheme = "everforest"

// SetTheme configures the color scheme for log output. Unknown names are ignored.
func SetTheme(theme string) {
	if _, ok := themes[theme]; ok {
		currentTheme = theme
	}
}

func colors() palette {
	return themes[currentTheme]
}

// idFields are rendered first and colored as identifiers
var idFields = map[string]bool{
	FieldRunID:  true,
	FieldItemID: true,
	FieldEntity: true,
	FieldBundle: true,
}

// minimalEncoder implements a calm, compact console encoder with theme support
// Format: "13:04:35  bundle  Bundle resolved  ⋈ start#2 count=14"
type minimalEncoder struct {
	zapcore.Encoder // Embedded for field accumulation via With()
	pool            buffer.Pool
}

func newMinimalEncoder() *minimalEncoder {
	return &minimalEncoder{
		Encoder: zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		pool:    buffer.NewPool(),
	}
}

func (enc *minimalEncoder) Clone() zapcore.Encoder {
	return &minimalEncoder{
		Encoder: enc.Encoder.Clone(),
		pool:    enc.pool,
	}
}

func (enc *minimalEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	c := colors()
	final := enc.pool.Get()

	final.AppendString(c.time)
	final.AppendString(ent.Time.Format("15:04:05"))
	final.AppendString(colorReset)

	// Level: only show for non-info with bold + background
	if ent.Level != zapcore.InfoLevel {
		final.AppendString("  ")
		final.AppendString(levelColorString(ent.Level))
	}

	if ent.LoggerName != "" {
		final.AppendString("  ")
		final.AppendString(colorComponent(ent.LoggerName))
		final.AppendString(abbreviateName(ent.LoggerName))
		final.AppendString(colorReset)
	}

	final.AppendString("  ")
	final.AppendString(c.fg)
	final.AppendString(ent.Message)
	final.AppendString(colorReset)

	if rendered := renderFields(fields); rendered != "" {
		final.AppendString("  ")
		final.AppendString(rendered)
	}

	final.AppendString("\n")
	return final, nil
}

// levelColorString returns bold + colored + background for non-info levels
func levelColorString(level zapcore.Level) string {
	c := colors()
	switch level {
	case zapcore.DebugLevel:
		return c.id + "DEBUG" + colorReset
	case zapcore.WarnLevel:
		return colorBold + c.warnBg + c.warn + "WARN" + colorReset
	default:
		return colorBold + c.errBg + c.err + level.CapitalString() + colorReset
	}
}

func colorComponent(name string) string {
	comps := colors().comps
	hash := 0
	for _, r := range name {
		hash += int(r)
	}
	return comps[hash%len(comps)]
}

// abbreviateName shortens component names: bundle.exec -> b.exec
func abbreviateName(name string) string {
	parts := strings.Split(name, ".")
	if len(parts) > 1 && parts[0] != "" {
		return string(parts[0][0]) + "." + strings.Join(parts[1:], ".")
	}
	return name
}

// renderFields prints every field; nothing is ever discarded.
// The stage symbol leads, identifiers follow, the rest is key=value sorted by key.
func renderFields(fields []zapcore.Field) string {
	if len(fields) == 0 {
		return ""
	}
	c := colors()

	m := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		f.AddTo(m)
	}

	var out []string
	if s, ok := m.Fields[FieldSymbol]; ok {
		out = append(out, c.symbol+fmt.Sprint(s)+colorReset)
		delete(m.Fields, FieldSymbol)
	}

	keys := make([]string, 0, len(m.Fields))
	for k := range m.Fields {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if idFields[keys[i]] != idFields[keys[j]] {
			return idFields[keys[i]]
		}
		return keys[i] < keys[j]
	})

	for _, k := range keys {
		v := fmt.Sprint(m.Fields[k])
		switch {
		case idFields[k]:
			out = append(out, c.id+k+"="+v+colorReset)
		case isNumeric(m.Fields[k]):
			out = append(out, k+"="+c.number+v+colorReset)
		default:
			out = append(out, k+"="+v)
		}
	}
	return strings.Join(out, " ")
}

func isNumeric(v interface{}) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	}
	return false
}
