// Package errors provides error handling for chronicle.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - User-facing hints
//   - Error marks for classification across wrapping layers
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := doSomething(); err != nil {
//	    return errors.Wrap(err, "failed to do something")
//	}
//
//	// Add hints for users
//	return errors.WithHint(err, "declare a universal expectation last")
//
//	// Classify
//	if errors.IsConfigurationError(err) {
//	    // fix the spec file, nothing was queried
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
)

// User-facing messages and details
var (
	WithHint           = crdb.WithHint
	WithHintf          = crdb.WithHintf
	WithDetail         = crdb.WithDetail
	WithDetailf        = crdb.WithDetailf
	WithSecondaryError = crdb.WithSecondaryError
	CombineErrors      = crdb.CombineErrors
	Join               = crdb.Join
)

// Error inspection
var (
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// GetStack returns the reportable stack trace attached to an error, if any.
var GetStack = crdb.GetReportableStackTrace

// Assertions
var (
	AssertionFailedf = crdb.AssertionFailedf
)

// Sentinel errors for the chronicle error taxonomy.
// Use these with errors.Is(); wrap them to add context while preserving the class.
var (
	// ErrConfiguration indicates a malformed spec or configuration.
	// Fatal, and detected before any network query where possible.
	ErrConfiguration = New("configuration error")

	// ErrTransport indicates the query endpoint failed or answered with a non-success status.
	// Fatal for the run; the cache flush still happens.
	ErrTransport = New("transport error")

	// ErrDataGap marks an item that had no temporal data at all and was dropped.
	ErrDataGap = New("no temporal data")

	// ErrAmbiguous marks an entity whose rank filtering left several candidates.
	ErrAmbiguous = New("ambiguous statement")
)

// NewConfigurationError creates a configuration error with a formatted message
func NewConfigurationError(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrConfiguration)
}

// WrapConfiguration marks an existing error as a configuration error
func WrapConfiguration(err error, context string) error {
	if err == nil {
		return nil
	}
	return Mark(Wrap(err, context), ErrConfiguration)
}

// IsConfigurationError checks if an error is or wraps ErrConfiguration
func IsConfigurationError(err error) bool {
	return err != nil && Is(err, ErrConfiguration)
}

// IsTransportError checks if an error is or wraps ErrTransport
func IsTransportError(err error) bool {
	return err != nil && Is(err, ErrTransport)
}

// NewDataGap creates a data-gap warning for an item
func NewDataGap(itemID string) error {
	return Mark(Newf("item %s has no start, end or bounds", itemID), ErrDataGap)
}

// NewAmbiguity creates an ambiguity warning for an entity
func NewAmbiguity(entity string, candidates int) error {
	return Mark(Newf("%d equally ranked statements for %s", candidates, entity), ErrAmbiguous)
}
