package logger

import (
	"context"

	"go.uber.org/zap"
)

// Standard field names for consistent structured logging across chronicle.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Identity and context
	FieldRunID     = "run_id"
	FieldComponent = "component"
	FieldSymbol    = "symbol"

	// Timeline
	FieldItemID    = "item_id"
	FieldEntity    = "entity"
	FieldBundle    = "bundle"
	FieldQueryKind = "query_kind"
	FieldTemplate  = "template"
	FieldQuery     = "query"
	FieldSegments  = "segments"
	FieldAvgYears  = "avg_years"

	// Cache
	FieldCacheKey     = "cache_key"
	FieldCacheBackend = "cache_backend"
	FieldSource       = "source"

	// Timing
	FieldDurationMS = "duration_ms"

	// Errors
	FieldError = "error"

	// Counts and sizes
	FieldCount  = "count"
	FieldSize   = "size"
	FieldStatus = "status"

	// Files and endpoints
	FieldFile     = "file"
	FieldEndpoint = "endpoint"
)

// Context keys for propagating logging context
type contextKey string

const (
	runIDKey     contextKey = "logger_run_id"
	componentKey contextKey = "logger_component"
)

// WithRunID adds a run ID to the context for logging
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// RunIDFromContext returns the run ID stored by WithRunID, or ""
func RunIDFromContext(ctx context.Context) string {
	runID, _ := ctx.Value(runIDKey).(string)
	return runID
}

// WithComponent adds a component name to the context for logging
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, componentKey, component)
}

// FieldsFromContext extracts logging fields from context.
// Returns key-value pairs suitable for use with Infow/Errorw/etc.
func FieldsFromContext(ctx context.Context) []interface{} {
	var fields []interface{}

	if runID, ok := ctx.Value(runIDKey).(string); ok && runID != "" {
		fields = append(fields, FieldRunID, runID)
	}
	if component, ok := ctx.Value(componentKey).(string); ok && component != "" {
		fields = append(fields, FieldComponent, component)
	}

	return fields
}

// LoggerFromContext returns a logger with fields extracted from context.
func LoggerFromContext(ctx context.Context) *zap.SugaredLogger {
	fields := FieldsFromContext(ctx)
	if len(fields) == 0 {
		return Logger
	}
	return Logger.With(fields...)
}

// ComponentLogger returns a named logger for a specific component.
// This is the preferred way to get a logger for dependency injection.
//
// Example:
//
//	type Bundler struct {
//	    logger *zap.SugaredLogger
//	}
//
//	func NewBundler() *Bundler {
//	    return &Bundler{logger: logger.ComponentLogger("bundle")}
//	}
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}

// ChildLogger creates a child logger with additional context.
//
// Example:
//
//	itemLogger := logger.ChildLogger(baseLogger, logger.FieldItemID, item.ID)
func ChildLogger(parent *zap.SugaredLogger, keysAndValues ...interface{}) *zap.SugaredLogger {
	return parent.With(keysAndValues...)
}
