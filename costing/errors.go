// errors.go - Failure modes of the costing lifecycle.
//
// Sentinels work with errors.Is(); ImmutableVersionError carries the
// status that blocked the edit and unwraps to ErrImmutableVersion.
package costing

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrImmutableVersion is returned when an edit targets an Approved or
	// Rejected version. The caller should Revise instead.
	ErrImmutableVersion = errors.New("version is immutable; revise to create a new draft")

	// ErrEmptyCosting is returned when approving a version whose component
	// subtotals are all zero.
	ErrEmptyCosting = errors.New("cannot approve a costing with all-zero components")

	// ErrConcurrentModification is returned when the optimistic revision
	// check fails. The caller must reload and retry; the engine never
	// retries on its own.
	ErrConcurrentModification = errors.New("version modified concurrently; reload and retry")

	// ErrNotApproved is returned when revising a version that is not Approved.
	ErrNotApproved = errors.New("only approved versions can be revised")

	// ErrNotDraft is returned when rejecting or approving a non-Draft version.
	ErrNotDraft = errors.New("transition allowed only from draft")

	// ErrSheetNotFound / ErrVersionNotFound report missing resources.
	ErrSheetNotFound   = errors.New("costing sheet not found")
	ErrVersionNotFound = errors.New("costing version not found")

	// ErrInvalidSection is returned for an unknown line-item section.
	ErrInvalidSection = errors.New("invalid line-item section")

	// ErrInvalidLine is returned for malformed line-item input.
	ErrInvalidLine = errors.New("invalid line item")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// ImmutableVersionError details an edit rejected by version status.
type ImmutableVersionError struct {
	VersionID VersionID
	Number    int
	Status    Status
}

func (e *ImmutableVersionError) Error() string {
	return fmt.Sprintf("version %d (%s) is %s: edits require a new revision",
		e.Number, e.VersionID, e.Status)
}

func (e *ImmutableVersionError) Unwrap() error { return ErrImmutableVersion }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input
// or a state the caller can resolve.
func IsClientError(err error) bool {
	return errors.Is(err, ErrImmutableVersion) ||
		errors.Is(err, ErrEmptyCosting) ||
		errors.Is(err, ErrNotApproved) ||
		errors.Is(err, ErrNotDraft) ||
		errors.Is(err, ErrInvalidSection) ||
		errors.Is(err, ErrInvalidLine)
}

// IsConflict returns true for optimistic-concurrency failures, which are
// retryable after a reload.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSheetNotFound) || errors.Is(err, ErrVersionNotFound)
}
