package logger

import (
	"github.com/teranos/chronicle/sym"
	"go.uber.org/zap"
)

// Symbol-aware logging helpers.
// The stage symbol goes in a structured field, not in the message, so logs
// stay queryable by stage.
//
// Usage:
//
//	log := logger.AddAxSymbol(logger.ComponentLogger("bundle"))
//	log.Infow("Bundle resolved", logger.FieldBundle, key, logger.FieldCount, n)

// WithSymbol returns a logger with the given symbol as a field.
func WithSymbol(symbol string) *zap.SugaredLogger {
	return Logger.With(FieldSymbol, symbol)
}

// AddAxSymbol wraps a logger with the Ax symbol (⋈), used for bundled queries
func AddAxSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.AX)
}

// AddIXSymbol wraps a logger with the IX symbol (⨳), used for item expansion
func AddIXSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.IX)
}

// AddAtSymbol wraps a logger with the At symbol (✦), used for range resolution
func AddAtSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.AT)
}

// AddDBSymbol wraps a logger with the DB symbol (⊔), used for cache storage
func AddDBSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.DB)
}

// RunOpenInfow logs the start of a run with the RunOpen symbol (✿)
func RunOpenInfow(l *zap.SugaredLogger, msg string, keysAndValues ...interface{}) {
	fields := append([]interface{}{FieldSymbol, sym.RunOpen}, keysAndValues...)
	l.Infow(msg, fields...)
}

// RunCloseInfow logs the end of a run with the RunClose symbol (❀)
func RunCloseInfow(l *zap.SugaredLogger, msg string, keysAndValues ...interface{}) {
	fields := append([]interface{}{FieldSymbol, sym.RunClose}, keysAndValues...)
	l.Infow(msg, fields...)
}
