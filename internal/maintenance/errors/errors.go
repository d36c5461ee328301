// Package errors defines the failure taxonomy of the maintenance core.
// Callers classify failures with errors.Is; services wrap these
// sentinels with context via fmt.Errorf("%w: ...").
package errors

import (
	"fmt"
)

var (
	// ErrNotFound covers absent entities and cross-tenant access,
	// which must be indistinguishable to avoid existence leakage.
	ErrNotFound = fmt.Errorf("not found")
	// ErrInvalidStateTransition reports a status precondition violation.
	ErrInvalidStateTransition = fmt.Errorf("invalid state transition")
	// ErrInvalidInput reports a missing or out-of-range field.
	ErrInvalidInput = fmt.Errorf("invalid input")
	// ErrInsufficientInventory reports a part consumption that would
	// drive the stock quantity negative.
	ErrInsufficientInventory = fmt.Errorf("insufficient inventory")
	// ErrConcurrencyConflict reports a lost update detected by
	// retry-based concurrency control.
	ErrConcurrencyConflict = fmt.Errorf("concurrency conflict")
	// ErrDuplicateName reports a uniqueness violation on a name field.
	ErrDuplicateName = fmt.Errorf("duplicate name")
)
