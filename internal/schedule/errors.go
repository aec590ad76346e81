// Package schedule implements the shift scheduling core: expanding
// shift templates into dated instances across the planning window,
// and the claim/release coordinator that guards the assignment
// ledger's staffing and overlap invariants.
package schedule

import "errors"

// Sentinel errors shared by the scheduling core and its callers.
// Repositories and the coordinator wrap these with context via
// fmt.Errorf("%w: ...") so that handlers can classify failures with
// errors.Is and translate them into HTTP status codes: ErrValidation
// maps to 400, ErrForbidden to 403, ErrNotFound to 404 and
// ErrConflict to 409.
var (
	// ErrValidation indicates malformed input, such as min_staff
	// exceeding max_staff or an unparseable date.  Invalid input is
	// always rejected, never silently corrected.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates an unknown template or assignment, or a
	// (template, date) pair that is not a valid instance at claim time.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a state collision: capacity exhausted, an
	// overlapping assignment, or an illegal status transition.  Callers
	// are expected to recompute availability and retry rather than
	// resubmit the same request.
	ErrConflict = errors.New("conflict")

	// ErrForbidden indicates a role or ownership violation, such as a
	// non-manager releasing someone else's shift.
	ErrForbidden = errors.New("forbidden")
)
