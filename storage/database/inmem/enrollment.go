package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/placement/core"
	"github.com/trezcool/placement/core/enrollment"
)

type enrollmentRepository struct {
	db *DB
}

var _ enrollment.Repository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(db *DB) *enrollmentRepository {
	return &enrollmentRepository{db: db}
}

// helpers below expect the caller to hold db.mu

func (repo *enrollmentRepository) section(id uuid.UUID) (enrollment.Section, error) {
	stored, ok := repo.db.sections[id]
	if !ok {
		return enrollment.Section{}, enrollment.ErrSectionNotFound
	}
	sec := *stored
	sec.Capacity = copyCapacity(stored.Capacity)
	sec.Roster = []uuid.UUID{}
	for _, rec := range repo.db.students {
		if rec.SectionID == id {
			sec.Roster = append(sec.Roster, rec.ID)
		}
	}
	sort.Slice(sec.Roster, func(i, j int) bool { return sec.Roster[i].String() < sec.Roster[j].String() })
	return sec, nil
}

func (repo *enrollmentRepository) student(rec enrollment.StudentRecord) enrollment.StudentRecord {
	rec.SectionName = ""
	if sec, ok := repo.db.sections[rec.SectionID]; ok && !rec.IsStaged() {
		rec.SectionName = sec.Name
	}
	return rec
}

func (repo *enrollmentRepository) CreateSection(ctx context.Context, sec enrollment.Section) (enrollment.Section, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if sec.ID == uuid.Nil {
		sec.ID = uuid.New()
	}
	stored := sec
	stored.Capacity = copyCapacity(sec.Capacity)
	stored.Roster = nil
	repo.db.sections[sec.ID] = &stored
	return repo.section(sec.ID)
}

func (repo *enrollmentRepository) UpdateSection(ctx context.Context, sec enrollment.Section) (enrollment.Section, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.sections[sec.ID]
	if !ok {
		return enrollment.Section{}, enrollment.ErrSectionNotFound
	}
	orig.Name = sec.Name
	orig.Grade = sec.Grade
	orig.Unit = sec.Unit
	orig.Period = sec.Period
	orig.Room = sec.Room
	orig.Capacity = copyCapacity(sec.Capacity)
	orig.UpdatedAt = sec.UpdatedAt
	return repo.section(sec.ID)
}

func (repo *enrollmentRepository) GetSection(ctx context.Context, id uuid.UUID) (enrollment.Section, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.section(id)
}

func (repo *enrollmentRepository) QuerySections(ctx context.Context, orderings ...core.DBOrdering) ([]enrollment.Section, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	sections := make([]enrollment.Section, 0, len(repo.db.sections))
	for id := range repo.db.sections {
		sec, _ := repo.section(id)
		sections = append(sections, sec)
	}
	if len(orderings) == 0 {
		orderings = []core.DBOrdering{{Field: "name", Ascending: true}}
	}
	enrollment.SortSections(sections, orderings...)
	return sections, nil
}

func (repo *enrollmentRepository) CreateStudents(ctx context.Context, records ...enrollment.StudentRecord) ([]enrollment.StudentRecord, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	created := make([]enrollment.StudentRecord, 0, len(records))
	for _, rec := range records {
		if rec.ID == uuid.Nil {
			rec.ID = uuid.New()
		}
		if _, ok := repo.db.sections[rec.SectionID]; !ok {
			rec.SectionID = enrollment.Unassigned
		}
		stored := rec
		repo.db.students[rec.ID] = &stored
		created = append(created, repo.student(stored))
	}
	return created, nil
}

func (repo *enrollmentRepository) QueryStudents(ctx context.Context, filter enrollment.StudentFilter) ([]enrollment.StudentRecord, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var wanted map[uuid.UUID]bool
	if len(filter.IDs) > 0 {
		wanted = make(map[uuid.UUID]bool, len(filter.IDs))
		for _, id := range filter.IDs {
			wanted[id] = true
		}
	}

	records := make([]enrollment.StudentRecord, 0)
	for _, rec := range repo.db.students {
		if wanted != nil && !wanted[rec.ID] {
			continue
		}
		if filter.Staged != nil && rec.IsStaged() != *filter.Staged {
			continue
		}
		if filter.SectionID != uuid.Nil && rec.SectionID != filter.SectionID {
			continue
		}
		records = append(records, repo.student(*rec))
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Name != records[j].Name {
			return records[i].Name < records[j].Name
		}
		return records[i].ID.String() < records[j].ID.String()
	})
	return records, nil
}

// WithTx holds the write lock for the whole of fn. Placements are applied when fn succeeds.
func (repo *enrollmentRepository) WithTx(ctx context.Context, fn func(ctx context.Context, tx enrollment.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	tx := &enrollmentTx{repo: repo}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	for _, p := range tx.pending {
		rec := repo.db.students[p.StudentID]
		rec.SectionID = p.SectionID
		rec.Unit = p.Unit
		rec.UpdatedAt = p.at
	}
	return nil
}

type pendingPlacement struct {
	enrollment.Placement
	at time.Time
}

type enrollmentTx struct {
	repo    *enrollmentRepository
	pending []pendingPlacement
}

func (tx *enrollmentTx) GetSection(ctx context.Context, id uuid.UUID) (enrollment.Section, error) {
	return tx.repo.section(id)
}

func (tx *enrollmentTx) GetStudents(ctx context.Context, ids ...uuid.UUID) ([]enrollment.StudentRecord, error) {
	records := make([]enrollment.StudentRecord, 0, len(ids))
	for _, id := range ids {
		if rec, ok := tx.repo.db.students[id]; ok {
			records = append(records, tx.repo.student(*rec))
		}
	}
	return records, nil
}

func (tx *enrollmentTx) SavePlacements(ctx context.Context, placements ...enrollment.Placement) error {
	now := time.Now().UTC()
	for _, p := range placements {
		if _, ok := tx.repo.db.students[p.StudentID]; !ok {
			return enrollment.ErrStudentNotFound
		}
		if p.SectionID != enrollment.Unassigned {
			if _, ok := tx.repo.db.sections[p.SectionID]; !ok {
				return enrollment.ErrSectionNotFound
			}
		}
		tx.pending = append(tx.pending, pendingPlacement{Placement: p, at: now})
	}
	return nil
}

func copyCapacity(capacity map[enrollment.Unit]int) map[enrollment.Unit]int {
	cp := make(map[enrollment.Unit]int, len(capacity))
	for unit, seats := range capacity {
		cp[unit] = seats
	}
	return cp
}
