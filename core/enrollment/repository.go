package enrollment

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/placement/core"
)

// Repository is the persistent store of sections and student records.
// Section rosters are derived from the students' SectionID.
type Repository interface {
	CreateSection(ctx context.Context, sec Section) (Section, error)
	UpdateSection(ctx context.Context, sec Section) (Section, error)
	GetSection(ctx context.Context, id uuid.UUID) (Section, error)
	QuerySections(ctx context.Context, orderings ...core.DBOrdering) ([]Section, error)

	CreateStudents(ctx context.Context, records ...StudentRecord) ([]StudentRecord, error)
	QueryStudents(ctx context.Context, filter StudentFilter) ([]StudentRecord, error)

	// WithTx runs fn in a transaction, committed when fn returns nil.
	// The error returned by fn is returned as is.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the transactional view used by the Allocator.
type Tx interface {
	// GetSection locks the section until the transaction ends.
	GetSection(ctx context.Context, id uuid.UUID) (Section, error)
	GetStudents(ctx context.Context, ids ...uuid.UUID) ([]StudentRecord, error)
	SavePlacements(ctx context.Context, placements ...Placement) error
}
