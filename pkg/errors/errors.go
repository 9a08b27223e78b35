// Package errors provides common domain error types for the lead-agent application.
//
// This package defines sentinel errors for the conditions the review pipeline
// distinguishes between: unparsable records, collaborator failures, bad operator
// input, and persistence failures. Using typed errors enables consistent error
// handling patterns with errors.Is() checks.
//
// Usage:
//
//	import laerrors "github.com/bishwajitSingh123/lead-agent/pkg/errors"
//
//	// Return a domain error
//	return fmt.Errorf("row %d: %w", n, laerrors.ErrMalformedRecord)
//
//	// Check for domain errors
//	if laerrors.IsPersistence(err) {
//	    // abort the run
//	}
package errors

import "errors"

// Domain errors - common sentinel errors for pipeline conditions.
var (
	// ErrMalformedRecord indicates a single lead or state row could not be
	// parsed. The row is skipped; loading continues.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrGeneration indicates the classification/drafting collaborator failed
	// or timed out. The affected lead is deferred to a later run.
	ErrGeneration = errors.New("generation failed")

	// ErrDelivery indicates the email-send collaborator failed. The lead's
	// draft remains saved and the send is eligible for retry.
	ErrDelivery = errors.New("delivery failed")

	// ErrInvalidInput indicates the operator entered an unrecognized menu
	// choice. No state change occurs.
	ErrInvalidInput = errors.New("invalid input")

	// ErrPersistence indicates state could not be written to durable storage.
	// This is fatal to the run.
	ErrPersistence = errors.New("persistence failed")

	// ErrInvalidState indicates a state transition is not valid for the
	// lead's current status.
	ErrInvalidState = errors.New("invalid state")
)

// IsMalformedRecord reports whether any error in err's chain is ErrMalformedRecord.
func IsMalformedRecord(err error) bool {
	return errors.Is(err, ErrMalformedRecord)
}

// IsGeneration reports whether any error in err's chain is ErrGeneration.
func IsGeneration(err error) bool {
	return errors.Is(err, ErrGeneration)
}

// IsDelivery reports whether any error in err's chain is ErrDelivery.
func IsDelivery(err error) bool {
	return errors.Is(err, ErrDelivery)
}

// IsInvalidInput reports whether any error in err's chain is ErrInvalidInput.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsPersistence reports whether any error in err's chain is ErrPersistence.
func IsPersistence(err error) bool {
	return errors.Is(err, ErrPersistence)
}

// IsInvalidState reports whether any error in err's chain is ErrInvalidState.
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrInvalidState)
}
