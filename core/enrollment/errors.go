package enrollment

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	ErrSectionNotFound = errors.New("section not found")
	ErrStudentNotFound = errors.New("student not found")
)

// CapacityExceededError is returned when a batch does not fit the free seats of its destination.
// Nothing was moved.
type CapacityExceededError struct {
	SectionID   uuid.UUID
	SectionName string
	Unit        Unit
	FreeSeats   int
	Requested   int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf(
		"section %q (%s) has %d free seat(s), %d student(s) requested",
		e.SectionName, e.Unit, e.FreeSeats, e.Requested,
	)
}

// InvalidBatchError is returned for empty batches or batches naming unknown students.
type InvalidBatchError struct {
	Reason     string
	UnknownIDs []uuid.UUID
}

func (e *InvalidBatchError) Error() string {
	if len(e.UnknownIDs) == 0 {
		return "invalid batch: " + e.Reason
	}
	ids := make([]string, len(e.UnknownIDs))
	for i, id := range e.UnknownIDs {
		ids[i] = id.String()
	}
	return fmt.Sprintf("invalid batch: %s: %s", e.Reason, strings.Join(ids, ", "))
}

// IsCapacityExceeded unwraps err looking for a *CapacityExceededError.
func IsCapacityExceeded(err error) (*CapacityExceededError, bool) {
	var ce *CapacityExceededError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// IsInvalidBatch unwraps err looking for an *InvalidBatchError.
func IsInvalidBatch(err error) (*InvalidBatchError, bool) {
	var ib *InvalidBatchError
	if errors.As(err, &ib) {
		return ib, true
	}
	return nil, false
}
