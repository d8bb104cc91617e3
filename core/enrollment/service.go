package enrollment

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/placement/core"
)

type (
	// RowResolution is the outcome of resolving one ExternalRosterRow.
	RowResolution struct {
		Row            ExternalRosterRow `json:"row"`
		Unit           Unit              `json:"unit"`
		UnitRecognized bool              `json:"unit_recognized"`
		Result         ResolutionResult  `json:"result"`
		SectionID      *uuid.UUID        `json:"section_id"`
	}

	// ImportReport summarizes a committed import.
	ImportReport struct {
		Records        []StudentRecord          `json:"records"`
		Placed         int                      `json:"placed"`
		Staged         int                      `json:"staged"`
		Overflows      []*CapacityExceededError `json:"-"`
		MissingOrigins []string                 `json:"missing_origins"`
	}

	Service struct {
		repo      Repository
		resolver  *Resolver
		allocator *Allocator
		validate  *validator.Validate
		logger    core.Logger
		conf      *core.Config
	}
)

func NewService(repo Repository, validate *validator.Validate, logger core.Logger, conf *core.Config) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(validate, "validate"),
		vala.IsNotNil(logger, "logger"),
		vala.IsNotNil(conf, "conf"),
	).CheckAndPanic()

	return &Service{
		repo:      repo,
		resolver:  NewResolver(),
		allocator: NewAllocator(repo, logger),
		validate:  validate,
		logger:    logger,
		conf:      conf,
	}
}

// Sections

func (svc *Service) CreateSection(ctx context.Context, ns NewSection) (Section, error) {
	if err := ns.Validate(svc.validate); err != nil {
		return Section{}, err
	}
	now := time.Now().UTC()
	sec := Section{
		ID:        uuid.New(),
		Name:      ns.Name,
		Grade:     ns.Grade,
		Unit:      ns.Unit,
		Period:    ns.Period,
		Room:      ns.Room,
		Capacity:  ns.Capacity,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateSection(ctx, sec)
}

// UpdateSection edits section attributes. The roster is left as is, even when the new capacity is lower.
func (svc *Service) UpdateSection(ctx context.Context, id uuid.UUID, us UpdateSection) (Section, error) {
	orig, err := svc.repo.GetSection(ctx, id)
	if err != nil {
		return Section{}, err
	}
	if err := us.Validate(orig, svc.validate); err != nil {
		return Section{}, err
	}
	sec := orig
	sec.Name = us.Name
	sec.Grade = us.Grade
	sec.Unit = us.Unit
	sec.Period = us.Period
	sec.Room = us.Room
	sec.Capacity = us.Capacity
	sec.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateSection(ctx, sec)
}

func (svc *Service) GetSection(ctx context.Context, id uuid.UUID) (Section, error) {
	return svc.repo.GetSection(ctx, id)
}

func (svc *Service) QuerySections(ctx context.Context, orderings ...core.DBOrdering) ([]Section, error) {
	return svc.repo.QuerySections(ctx, orderings...)
}

// Students

// AddStudent creates a record by hand. With a ClassID the new record is routed through the Allocator;
// when that allocation fails the record is returned along with the error and stays staged.
func (svc *Service) AddStudent(ctx context.Context, ns NewStudent) (StudentRecord, error) {
	if err := ns.Validate(svc.validate); err != nil {
		return StudentRecord{}, err
	}

	var dest *Section
	if ns.ClassID != nil && *ns.ClassID != Unassigned {
		sec, err := svc.repo.GetSection(ctx, *ns.ClassID)
		if err != nil {
			return StudentRecord{}, err
		}
		dest = &sec
	}

	unit := ns.Unit
	if unit == "" {
		unit = PrimaryUnit
		if dest != nil {
			unit = dest.Unit
		}
	}
	now := time.Now().UTC()
	created, err := svc.repo.CreateStudents(ctx, StudentRecord{
		ID:           uuid.New(),
		Name:         ns.Name,
		SectionID:    Unassigned,
		OriginGrade:  ns.OriginGrade,
		OriginSuffix: ns.OriginSuffix,
		Unit:         unit,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return StudentRecord{}, errors.Wrap(err, "creating student")
	}
	rec := created[0]
	if dest == nil {
		return rec, nil
	}

	if _, err := svc.allocator.Allocate(ctx, []uuid.UUID{rec.ID}, dest.ID); err != nil {
		return rec, err
	}
	return svc.getStudent(ctx, rec.ID)
}

func (svc *Service) QueryStudents(ctx context.Context, filter StudentFilter) ([]StudentRecord, error) {
	return svc.repo.QueryStudents(ctx, filter)
}

func (svc *Service) getStudent(ctx context.Context, id uuid.UUID) (StudentRecord, error) {
	records, err := svc.repo.QueryStudents(ctx, StudentFilter{IDs: []uuid.UUID{id}})
	if err != nil {
		return StudentRecord{}, err
	}
	if len(records) == 0 {
		return StudentRecord{}, ErrStudentNotFound
	}
	return records[0], nil
}

// Import

// ResolveRows maps rows against the current sections without writing anything.
// It stops with ctx.Err() when ctx is done.
func (svc *Service) ResolveRows(ctx context.Context, rows []ExternalRosterRow) ([]RowResolution, error) {
	sections, err := svc.repo.QuerySections(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying sections")
	}
	return svc.resolveRows(ctx, rows, sections)
}

func (svc *Service) resolveRows(ctx context.Context, rows []ExternalRosterRow, sections []Section) ([]RowResolution, error) {
	resolutions := make([]RowResolution, 0, len(rows))
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		unit, recognized := ParseUnit(row.Unit)
		in := ResolveInput{Grade: row.Grade, Suffix: row.Suffix, Unit: unit}

		var res ResolutionResult
		switch {
		case !recognized && svc.conf.Import.StrictUnits:
			res = unresolved(in.Label())
		default:
			if !recognized {
				svc.logger.Warn("unknown unit label, using primary unit", core.OperatorFrom(ctx), map[string]interface{}{
					"row":   i,
					"label": row.Unit,
					"unit":  string(PrimaryUnit),
				})
			}
			res = svc.resolver.Resolve(in, sections)
		}

		rr := RowResolution{Row: row, Unit: unit, UnitRecognized: recognized, Result: res}
		if res.Resolved {
			sid := res.Section.ID
			rr.SectionID = &sid
		}
		resolutions = append(resolutions, rr)
	}
	return resolutions, nil
}

// Import resolves rows against a single sections snapshot, creates one staged record per row,
// then allocates resolved records section by section. A section that cannot take its whole
// group leaves it staged and is reported in ImportReport.Overflows.
//
// Nothing is written when ctx is done before resolution completes.
func (svc *Service) Import(ctx context.Context, rows []ExternalRosterRow) (ImportReport, error) {
	sections, err := svc.repo.QuerySections(ctx)
	if err != nil {
		return ImportReport{}, errors.Wrap(err, "querying sections")
	}
	resolutions, err := svc.resolveRows(ctx, rows, sections)
	if err != nil {
		return ImportReport{}, err
	}
	if err := ctx.Err(); err != nil {
		return ImportReport{}, err
	}

	// resolution is complete, from here on the import runs to the end
	ctx = context.WithoutCancel(ctx)

	now := time.Now().UTC()
	records := make([]StudentRecord, 0, len(resolutions))
	for _, rr := range resolutions {
		records = append(records, StudentRecord{
			ID:           uuid.New(),
			Name:         core.CleanString(rr.Row.Name),
			SectionID:    Unassigned,
			OriginGrade:  core.CleanString(rr.Row.Grade),
			OriginSuffix: core.CleanString(rr.Row.Suffix),
			Unit:         rr.Unit,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}
	if len(records) == 0 {
		return ImportReport{Records: []StudentRecord{}, MissingOrigins: []string{}}, nil
	}
	if _, err := svc.repo.CreateStudents(ctx, records...); err != nil {
		return ImportReport{}, errors.Wrap(err, "creating students")
	}

	var (
		report ImportReport
		order  []uuid.UUID
		groups = make(map[uuid.UUID][]uuid.UUID)
	)
	for i, rr := range resolutions {
		if !rr.Result.Resolved {
			continue
		}
		sid := rr.Result.Section.ID
		if _, ok := groups[sid]; !ok {
			order = append(order, sid)
		}
		groups[sid] = append(groups[sid], records[i].ID)
	}
	for _, sid := range order {
		if _, err := svc.allocator.Allocate(ctx, groups[sid], sid); err != nil {
			if ce, ok := IsCapacityExceeded(err); ok {
				report.Overflows = append(report.Overflows, ce)
				continue
			}
			return ImportReport{}, errors.Wrap(err, "allocating imported students")
		}
	}

	ids := recordIDs(records)
	stored, err := svc.repo.QueryStudents(ctx, StudentFilter{IDs: ids})
	if err != nil {
		return ImportReport{}, errors.Wrap(err, "querying imported students")
	}
	report.Records, _ = inIDOrder(ids, stored)
	for _, rec := range report.Records {
		if rec.IsStaged() {
			report.Staged++
		} else {
			report.Placed++
		}
	}
	report.MissingOrigins = NewStagingPool(report.Records).ListMissingOrigins(sections)
	if report.MissingOrigins == nil {
		report.MissingOrigins = []string{}
	}

	svc.logger.Info("roster imported", core.OperatorFrom(ctx), map[string]interface{}{
		"rows":     len(rows),
		"placed":   report.Placed,
		"staged":   report.Staged,
		"overflow": len(report.Overflows),
	})
	return report, nil
}

// Staging

func (svc *Service) Staging(ctx context.Context) (*StagingPool, error) {
	staged := true
	records, err := svc.repo.QueryStudents(ctx, StudentFilter{Staged: &staged})
	if err != nil {
		return nil, errors.Wrap(err, "querying staged students")
	}
	return NewStagingPool(records), nil
}

func (svc *Service) MissingOrigins(ctx context.Context) ([]string, error) {
	pool, err := svc.Staging(ctx)
	if err != nil {
		return nil, err
	}
	sections, err := svc.repo.QuerySections(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying sections")
	}
	return pool.ListMissingOrigins(sections), nil
}

func (svc *Service) ToggleSelection(ctx context.Context, clicked uuid.UUID, current Selection) (Selection, error) {
	pool, err := svc.Staging(ctx)
	if err != nil {
		return nil, err
	}
	return pool.Toggle(clicked, current), nil
}

// Allocation

func (svc *Service) Allocate(ctx context.Context, ids []uuid.UUID, destination uuid.UUID) (AllocationResult, error) {
	return svc.allocator.Allocate(ctx, ids, destination)
}

// AllocateByDrag moves the whole selection when the dragged student is part of it, the dragged student alone otherwise.
// It returns what is left of the selection.
func (svc *Service) AllocateByDrag(
	ctx context.Context,
	dragged uuid.UUID,
	selection Selection,
	destination uuid.UUID,
) (AllocationResult, Selection, error) {
	ids := []uuid.UUID{dragged}
	if selection.Has(dragged) {
		ids = selection.IDs()
	}
	res, err := svc.allocator.Allocate(ctx, ids, destination)
	if err != nil {
		return AllocationResult{}, selection, err
	}
	return res, selection.Without(res.Moved...), nil
}

// AllocateByPicker moves the current selection to destination and returns what is left of it.
func (svc *Service) AllocateByPicker(
	ctx context.Context,
	destination uuid.UUID,
	selection Selection,
) (AllocationResult, Selection, error) {
	res, err := svc.allocator.Allocate(ctx, selection.IDs(), destination)
	if err != nil {
		return AllocationResult{}, selection, err
	}
	return res, selection.Without(res.Moved...), nil
}
