package rental

import (
	"fmt"
	"strings"
)

// ValidationError reports malformed input; nothing was mutated.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// AvailabilityError reports items that are not in stock; the whole operation
// was aborted and nothing was mutated.
type AvailabilityError struct {
	Items []string
}

func (e *AvailabilityError) Error() string {
	return fmt.Sprintf("not available for rental: %s", strings.Join(e.Items, ", "))
}

// AuthorizationError reports a caller lacking the required capability.
type AuthorizationError struct {
	Capability string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("caller lacks %s capability", e.Capability)
}

// InUseError reports a delete blocked by existing references.
type InUseError struct {
	Entity string
	Count  int64
}

func (e *InUseError) Error() string {
	return fmt.Sprintf("%s is referenced by %d records and cannot be deleted", e.Entity, e.Count)
}

// ConflictError reports a state transition rejected because the record is no
// longer in the expected state (lost race or invalid transition).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// NotFoundError reports a missing record by entity name.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return e.Entity + " not found"
}
