package enrollment

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/placement/core"
)

// AllocationResult describes a committed batch move.
type AllocationResult struct {
	Destination uuid.UUID   `json:"destination"`
	Moved       []uuid.UUID `json:"moved"`
	Skipped     []uuid.UUID `json:"skipped"` // already in the destination
}

// Allocator is the single writer of section rosters.
// A batch is moved entirely or not at all, and never beyond the destination's seats.
type Allocator struct {
	mu     sync.Mutex
	repo   Repository
	logger core.Logger
}

func NewAllocator(repo Repository, logger core.Logger) *Allocator {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()

	return &Allocator{repo: repo, logger: logger}
}

// Allocate moves ids into destination, Unassigned sends them back to staging.
//
// Possible errors: *InvalidBatchError (empty batch, unknown students), ErrSectionNotFound,
// *CapacityExceededError. On error no student was moved.
func (a *Allocator) Allocate(ctx context.Context, ids []uuid.UUID, destination uuid.UUID) (AllocationResult, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		err := &InvalidBatchError{Reason: "no students selected"}
		a.logger.Warn(err.Error(), core.OperatorFrom(ctx))
		return AllocationResult{}, err
	}

	// one allocation at a time, whatever the store
	a.mu.Lock()
	defer a.mu.Unlock()

	var result AllocationResult
	err := a.repo.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		var dest Section
		if destination != Unassigned {
			var err error
			if dest, err = tx.GetSection(ctx, destination); err != nil {
				return err
			}
		}

		records, err := tx.GetStudents(ctx, ids...)
		if err != nil {
			return errors.Wrap(err, "getting students")
		}
		records, unknown := inIDOrder(ids, records)
		if len(unknown) > 0 {
			return &InvalidBatchError{Reason: "unknown students", UnknownIDs: unknown}
		}

		placements := make([]Placement, 0, len(records))
		var skipped []uuid.UUID
		for _, rec := range records {
			unit := rec.Unit
			if destination != Unassigned {
				unit = dest.Unit
			}
			p, moved, err := newPlacementPlan(rec, destination, unit).run(ctx)
			if err != nil {
				return err
			}
			if moved {
				placements = append(placements, p)
			} else {
				skipped = append(skipped, rec.ID)
			}
		}

		if destination != Unassigned {
			if free := dest.FreeSeats(); len(placements) > free {
				return &CapacityExceededError{
					SectionID:   dest.ID,
					SectionName: dest.Name,
					Unit:        dest.Unit,
					FreeSeats:   free,
					Requested:   len(placements),
				}
			}
		}
		if len(placements) > 0 {
			if err := tx.SavePlacements(ctx, placements...); err != nil {
				return errors.Wrap(err, "saving placements")
			}
		}

		result = AllocationResult{
			Destination: destination,
			Moved:       placementIDs(placements),
			Skipped:     skipped,
		}
		return nil
	})
	if err != nil {
		a.logRejection(ctx, err, destination)
		return AllocationResult{}, err
	}

	a.logger.Info("students allocated", core.OperatorFrom(ctx), map[string]interface{}{
		"destination": destination.String(),
		"moved":       len(result.Moved),
		"skipped":     len(result.Skipped),
	})
	return result, nil
}

func (a *Allocator) logRejection(ctx context.Context, err error, destination uuid.UUID) {
	extras := map[string]interface{}{"destination": destination.String()}
	switch cause := errors.Cause(err).(type) {
	case *InvalidBatchError:
		a.logger.Warn(cause.Error(), core.OperatorFrom(ctx), extras)
	case *CapacityExceededError:
		extras["free_seats"] = cause.FreeSeats
		extras["requested"] = cause.Requested
		a.logger.Info("allocation rejected: capacity exceeded", core.OperatorFrom(ctx), extras)
	default:
		if cause != ErrSectionNotFound {
			a.logger.Error("allocation failed", err, core.OperatorFrom(ctx), extras)
		}
	}
}

// uniqueIDs drops duplicates, keeping first occurrences in order.
func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	unique := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	return unique
}

// inIDOrder lines records up with ids and reports the ids no record was found for.
func inIDOrder(ids []uuid.UUID, records []StudentRecord) (ordered []StudentRecord, missing []uuid.UUID) {
	byID := make(map[uuid.UUID]StudentRecord, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
	}
	ordered = make([]StudentRecord, 0, len(ids))
	for _, id := range ids {
		if rec, ok := byID[id]; ok {
			ordered = append(ordered, rec)
		} else {
			missing = append(missing, id)
		}
	}
	return ordered, missing
}

func placementIDs(placements []Placement) []uuid.UUID {
	ids := make([]uuid.UUID, len(placements))
	for i, p := range placements {
		ids[i] = p.StudentID
	}
	return ids
}

func recordIDs(records []StudentRecord) []uuid.UUID {
	ids := make([]uuid.UUID, len(records))
	for i, rec := range records {
		ids[i] = rec.ID
	}
	return ids
}
