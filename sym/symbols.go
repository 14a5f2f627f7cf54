// Package sym defines the symbols chronicle attaches to log lines and CLI output.
// Each pipeline stage has one glyph so runs can be filtered by stage.
package sym

// Pipeline stage glyphs.
const (
	AM = "≡" // am: configuration and system settings
	IX = "⨳" // ix: item expansion from generating queries
	AX = "⋈" // ax: bundled statement queries
	AT = "✦" // at: temporal normalization and range resolution
	DB = "⊔" // db: term cache storage
)

// Run lifecycle glyphs.
const (
	RunOpen  = "✿" // run started
	RunClose = "❀" // run finished, cache flushed
)

// stageNames maps each glyph to the stage it stands for.
var stageNames = map[string]string{
	AM:       "am",
	IX:       "ix",
	AX:       "ax",
	AT:       "at",
	DB:       "db",
	RunOpen:  "open",
	RunClose: "close",
}

// Name returns the short stage name for a glyph, or "" if unknown.
func Name(glyph string) string {
	return stageNames[glyph]
}
