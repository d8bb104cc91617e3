package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/placement/core"
	"github.com/trezcool/placement/core/enrollment"
)

type (
	sectionRow struct {
		ID        string    `db:"id"`
		Name      string    `db:"name"`
		Grade     string    `db:"grade"`
		Unit      string    `db:"unit"`
		Period    string    `db:"period"`
		Room      string    `db:"room"`
		CreatedAt time.Time `db:"created_at"`
		UpdatedAt time.Time `db:"updated_at"`
	}

	capacityRow struct {
		SectionID string `db:"section_id"`
		Unit      string `db:"unit"`
		Seats     int    `db:"seats"`
	}

	studentRow struct {
		ID           string      `db:"id"`
		Name         string      `db:"name"`
		SectionID    null.String `db:"section_id"`
		SectionName  null.String `db:"section_name"`
		OriginGrade  string      `db:"origin_grade"`
		OriginSuffix string      `db:"origin_suffix"`
		Unit         string      `db:"unit"`
		CreatedAt    time.Time   `db:"created_at"`
		UpdatedAt    time.Time   `db:"updated_at"`
	}
)

const (
	sectionColumns = `id, name, grade, unit, period, room, created_at, updated_at`
	studentSelect  = `SELECT st.id, st.name, st.section_id, sec.name AS section_name,
       st.origin_grade, st.origin_suffix, st.unit, st.created_at, st.updated_at
FROM students st LEFT JOIN sections sec ON sec.id = st.section_id`
)

type enrollmentRepository struct {
	db *sqlx.DB
}

var _ enrollment.Repository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(db *sqlx.DB) *enrollmentRepository {
	return &enrollmentRepository{db: db}
}

func sectionIDValue(id uuid.UUID) null.String {
	return null.NewString(id.String(), id != enrollment.Unassigned)
}

func (row sectionRow) unmarshal() enrollment.Section {
	id, _ := uuid.Parse(row.ID)
	return enrollment.Section{
		ID:        id,
		Name:      row.Name,
		Grade:     row.Grade,
		Unit:      enrollment.Unit(row.Unit),
		Period:    row.Period,
		Room:      row.Room,
		Capacity:  map[enrollment.Unit]int{},
		Roster:    []uuid.UUID{},
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
}

func (row studentRow) unmarshal() enrollment.StudentRecord {
	id, _ := uuid.Parse(row.ID)
	sectionID := enrollment.Unassigned
	if row.SectionID.Valid {
		sectionID, _ = uuid.Parse(row.SectionID.String)
	}
	return enrollment.StudentRecord{
		ID:           id,
		Name:         row.Name,
		SectionID:    sectionID,
		SectionName:  row.SectionName.String,
		OriginGrade:  row.OriginGrade,
		OriginSuffix: row.OriginSuffix,
		Unit:         enrollment.Unit(row.Unit),
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
}

// loadSections fills capacities and rosters of rows.
func loadSections(ctx context.Context, q sqlx.ExtContext, rows []sectionRow) ([]enrollment.Section, error) {
	sections := make([]enrollment.Section, 0, len(rows))
	if len(rows) == 0 {
		return sections, nil
	}

	ids := make([]string, 0, len(rows))
	index := make(map[string]int, len(rows))
	for i, row := range rows {
		ids = append(ids, row.ID)
		index[row.ID] = i
		sections = append(sections, row.unmarshal())
	}

	query, args, err := sqlx.In(`SELECT section_id, unit, seats FROM section_capacities WHERE section_id IN (?)`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "building capacities query")
	}
	var capacities []capacityRow
	if err = sqlx.SelectContext(ctx, q, &capacities, q.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying capacities")
	}
	for _, c := range capacities {
		sections[index[c.SectionID]].Capacity[enrollment.Unit(c.Unit)] = c.Seats
	}

	query, args, err = sqlx.In(`SELECT id, section_id FROM students WHERE section_id IN (?) ORDER BY id`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "building roster query")
	}
	var roster []struct {
		ID        string `db:"id"`
		SectionID string `db:"section_id"`
	}
	if err = sqlx.SelectContext(ctx, q, &roster, q.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying rosters")
	}
	for _, r := range roster {
		id, _ := uuid.Parse(r.ID)
		i := index[r.SectionID]
		sections[i].Roster = append(sections[i].Roster, id)
	}
	return sections, nil
}

func getSection(ctx context.Context, q sqlx.ExtContext, id uuid.UUID, forUpdate bool) (enrollment.Section, error) {
	query := `SELECT ` + sectionColumns + ` FROM sections WHERE id = ?`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var row sectionRow
	if err := sqlx.GetContext(ctx, q, &row, q.Rebind(query), id.String()); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return enrollment.Section{}, enrollment.ErrSectionNotFound
		}
		return enrollment.Section{}, errors.Wrap(err, "getting section")
	}
	sections, err := loadSections(ctx, q, []sectionRow{row})
	if err != nil {
		return enrollment.Section{}, err
	}
	return sections[0], nil
}

func saveCapacity(ctx context.Context, tx *sqlx.Tx, sec enrollment.Section) error {
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM section_capacities WHERE section_id = ?`), sec.ID.String()); err != nil {
		return errors.Wrap(err, "clearing capacities")
	}
	for unit, seats := range sec.Capacity {
		if _, err := tx.NamedExecContext(
			ctx,
			`INSERT INTO section_capacities (section_id, unit, seats) VALUES (:section_id, :unit, :seats)`,
			capacityRow{SectionID: sec.ID.String(), Unit: string(unit), Seats: seats},
		); err != nil {
			return errors.Wrap(err, "inserting capacity")
		}
	}
	return nil
}

func (repo *enrollmentRepository) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "committing transaction")
	}
	return nil
}

func (repo *enrollmentRepository) CreateSection(ctx context.Context, sec enrollment.Section) (enrollment.Section, error) {
	if sec.ID == uuid.Nil {
		sec.ID = uuid.New()
	}
	row := sectionRow{
		ID:        sec.ID.String(),
		Name:      sec.Name,
		Grade:     sec.Grade,
		Unit:      string(sec.Unit),
		Period:    sec.Period,
		Room:      sec.Room,
		CreatedAt: sec.CreatedAt.UTC(),
		UpdatedAt: sec.UpdatedAt.UTC(),
	}
	err := repo.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(
			ctx,
			`INSERT INTO sections (`+sectionColumns+`)
VALUES (:id, :name, :grade, :unit, :period, :room, :created_at, :updated_at)`,
			row,
		); err != nil {
			return errors.Wrap(err, "inserting section")
		}
		return saveCapacity(ctx, tx, sec)
	})
	if err != nil {
		return enrollment.Section{}, err
	}
	return repo.GetSection(ctx, sec.ID)
}

func (repo *enrollmentRepository) UpdateSection(ctx context.Context, sec enrollment.Section) (enrollment.Section, error) {
	err := repo.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.NamedExecContext(
			ctx,
			`UPDATE sections SET name = :name, grade = :grade, unit = :unit, period = :period,
    room = :room, updated_at = :updated_at
WHERE id = :id`,
			sectionRow{
				ID:        sec.ID.String(),
				Name:      sec.Name,
				Grade:     sec.Grade,
				Unit:      string(sec.Unit),
				Period:    sec.Period,
				Room:      sec.Room,
				UpdatedAt: sec.UpdatedAt.UTC(),
			},
		)
		if err != nil {
			return errors.Wrap(err, "updating section")
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return enrollment.ErrSectionNotFound
		}
		return saveCapacity(ctx, tx, sec)
	})
	if err != nil {
		return enrollment.Section{}, err
	}
	return repo.GetSection(ctx, sec.ID)
}

func (repo *enrollmentRepository) GetSection(ctx context.Context, id uuid.UUID) (enrollment.Section, error) {
	return getSection(ctx, repo.db, id, false)
}

func (repo *enrollmentRepository) QuerySections(ctx context.Context, orderings ...core.DBOrdering) ([]enrollment.Section, error) {
	orderList := make([]string, 0, len(orderings)+1)
	for _, ord := range orderings {
		if isOrderingField(ord.Field) {
			orderList = append(orderList, ord.String())
		}
	}
	if len(orderList) == 0 {
		orderList = append(orderList, "name ASC")
	}
	orderList = append(orderList, "id ASC")

	var rows []sectionRow
	query := `SELECT ` + sectionColumns + ` FROM sections ORDER BY ` + strings.Join(orderList, ", ")
	if err := repo.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.Wrap(err, "querying sections")
	}
	return loadSections(ctx, repo.db, rows)
}

func isOrderingField(field string) bool {
	for _, f := range enrollment.SectionOrderingFields {
		if f == field {
			return true
		}
	}
	return false
}

func (repo *enrollmentRepository) CreateStudents(ctx context.Context, records ...enrollment.StudentRecord) ([]enrollment.StudentRecord, error) {
	ids := make([]uuid.UUID, 0, len(records))
	err := repo.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, rec := range records {
			if rec.ID == uuid.Nil {
				rec.ID = uuid.New()
			}
			ids = append(ids, rec.ID)
			if _, err := tx.NamedExecContext(
				ctx,
				`INSERT INTO students (id, name, section_id, origin_grade, origin_suffix, unit, created_at, updated_at)
VALUES (:id, :name, :section_id, :origin_grade, :origin_suffix, :unit, :created_at, :updated_at)`,
				studentRow{
					ID:           rec.ID.String(),
					Name:         rec.Name,
					SectionID:    sectionIDValue(rec.SectionID),
					OriginGrade:  rec.OriginGrade,
					OriginSuffix: rec.OriginSuffix,
					Unit:         string(rec.Unit),
					CreatedAt:    rec.CreatedAt.UTC(),
					UpdatedAt:    rec.UpdatedAt.UTC(),
				},
			); err != nil {
				return errors.Wrap(err, "inserting student")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	created, err := repo.QueryStudents(ctx, enrollment.StudentFilter{IDs: ids})
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]enrollment.StudentRecord, len(created))
	for _, rec := range created {
		byID[rec.ID] = rec
	}
	ordered := make([]enrollment.StudentRecord, 0, len(ids))
	for _, id := range ids {
		ordered = append(ordered, byID[id])
	}
	return ordered, nil
}

func queryStudents(ctx context.Context, q sqlx.ExtContext, filter enrollment.StudentFilter) ([]enrollment.StudentRecord, error) {
	var (
		where []string
		args  []interface{}
	)
	if len(filter.IDs) > 0 {
		ids := make([]string, 0, len(filter.IDs))
		for _, id := range filter.IDs {
			ids = append(ids, id.String())
		}
		where = append(where, "st.id IN (?)")
		args = append(args, ids)
	}
	if filter.Staged != nil {
		if *filter.Staged {
			where = append(where, "st.section_id IS NULL")
		} else {
			where = append(where, "st.section_id IS NOT NULL")
		}
	}
	if filter.SectionID != uuid.Nil {
		where = append(where, "st.section_id = ?")
		args = append(args, filter.SectionID.String())
	}

	query := studentSelect
	if len(where) > 0 {
		query += "\nWHERE " + strings.Join(where, " AND ")
	}
	query += "\nORDER BY st.name, st.id"

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "building students query")
	}
	var rows []studentRow
	if err = sqlx.SelectContext(ctx, q, &rows, q.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	records := make([]enrollment.StudentRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.unmarshal())
	}
	return records, nil
}

func (repo *enrollmentRepository) QueryStudents(ctx context.Context, filter enrollment.StudentFilter) ([]enrollment.StudentRecord, error) {
	return queryStudents(ctx, repo.db, filter)
}

// WithTx runs fn in a database transaction. Under postgres, GetSection takes a row lock.
func (repo *enrollmentRepository) WithTx(ctx context.Context, fn func(ctx context.Context, tx enrollment.Tx) error) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return errors.Wrap(err, "beginning transaction")
	}
	if err = fn(ctx, &enrollmentTx{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "committing transaction")
	}
	return nil
}

type enrollmentTx struct {
	tx *sqlx.Tx
}

func (t *enrollmentTx) GetSection(ctx context.Context, id uuid.UUID) (enrollment.Section, error) {
	return getSection(ctx, t.tx, id, t.tx.DriverName() == "postgres")
}

func (t *enrollmentTx) GetStudents(ctx context.Context, ids ...uuid.UUID) ([]enrollment.StudentRecord, error) {
	if len(ids) == 0 {
		return []enrollment.StudentRecord{}, nil
	}
	return queryStudents(ctx, t.tx, enrollment.StudentFilter{IDs: ids})
}

func (t *enrollmentTx) SavePlacements(ctx context.Context, placements ...enrollment.Placement) error {
	now := time.Now().UTC()
	query := t.tx.Rebind(`UPDATE students SET section_id = ?, unit = ?, updated_at = ? WHERE id = ?`)
	for _, p := range placements {
		res, err := t.tx.ExecContext(ctx, query, sectionIDValue(p.SectionID), string(p.Unit), now, p.StudentID.String())
		if err != nil {
			return errors.Wrap(err, "updating student placement")
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return enrollment.ErrStudentNotFound
		}
	}
	return nil
}
