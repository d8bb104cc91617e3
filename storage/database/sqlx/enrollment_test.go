package sqlxrepos_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/placement/core"
	"github.com/trezcool/placement/core/enrollment"
	"github.com/trezcool/placement/storage/database"
	"github.com/trezcool/placement/storage/database/sqlx"
	"github.com/trezcool/placement/tests"
)

func openDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.OpenSqlite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openDB(t)
	require.NoError(t, database.Migrate(context.Background(), db))

	var versions []string
	require.NoError(t, db.Select(&versions, "SELECT version FROM schema_migrations ORDER BY version"))
	assert.Equal(t, []string{"0001_sections", "0002_students"}, versions)
}

func TestEnrollmentRepository_Sections(t *testing.T) {
	ctx := context.Background()
	repo := sqlxrepos.NewEnrollmentRepository(openDB(t))

	b := testutil.CreateSection(t, repo, "1º Ano B", "1º Ano", enrollment.UnitMatriz, 25)
	a := testutil.CreateSection(t, repo, "1º Ano A", "1º Ano", enrollment.UnitAnexo, 30)
	placed := testutil.CreateStudent(t, repo, "Ana", "1º Ano", "A", enrollment.UnitAnexo, a.ID)

	got, err := repo.GetSection(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "1º Ano A", got.Name)
	assert.Equal(t, map[enrollment.Unit]int{enrollment.UnitAnexo: 30}, got.Capacity)
	assert.Equal(t, []uuid.UUID{placed.ID}, got.Roster)
	assert.Equal(t, 29, got.FreeSeats())

	sections, err := repo.QuerySections(ctx)
	require.NoError(t, err)
	require.Len(t, sections, 2)
	assert.Equal(t, a.ID, sections[0].ID)
	assert.Equal(t, b.ID, sections[1].ID)

	sections, err = repo.QuerySections(ctx, core.DBOrdering{Field: "name", Ascending: false})
	require.NoError(t, err)
	assert.Equal(t, b.ID, sections[0].ID)

	got.Room = "Sala 3"
	got.Capacity = map[enrollment.Unit]int{enrollment.UnitAnexo: 31, enrollment.UnitMatriz: 10}
	got, err = repo.UpdateSection(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, "Sala 3", got.Room)
	assert.Equal(t, 31, got.Seats())
	assert.Len(t, got.Capacity, 2)
	assert.Equal(t, []uuid.UUID{placed.ID}, got.Roster)

	_, err = repo.GetSection(ctx, uuid.New())
	assert.Equal(t, enrollment.ErrSectionNotFound, err)
	_, err = repo.UpdateSection(ctx, enrollment.Section{ID: uuid.New(), Name: "x"})
	assert.Equal(t, enrollment.ErrSectionNotFound, err)
}

func TestEnrollmentRepository_Students(t *testing.T) {
	ctx := context.Background()
	repo := sqlxrepos.NewEnrollmentRepository(openDB(t))

	sec := testutil.CreateSection(t, repo, "2º Ano A", "2º Ano", enrollment.UnitMatriz, 25)
	bia := testutil.CreateStudent(t, repo, "Bia", "2º Ano", "A", enrollment.UnitMatriz, sec.ID)
	ana := testutil.CreateStudent(t, repo, "Ana", "9º Ano", "C", enrollment.UnitAnexo)

	assert.True(t, ana.IsStaged())
	assert.Equal(t, "", ana.SectionName)
	assert.Equal(t, "9º Ano", ana.OriginGrade)
	assert.Equal(t, "C", ana.OriginSuffix)
	assert.Equal(t, sec.ID, bia.SectionID)
	assert.Equal(t, "2º Ano A", bia.SectionName)

	bTrue, bFalse := true, false
	tests := []struct {
		name   string
		filter enrollment.StudentFilter
		want   []uuid.UUID
	}{
		{name: "all", filter: enrollment.StudentFilter{}, want: []uuid.UUID{ana.ID, bia.ID}},
		{name: "staged", filter: enrollment.StudentFilter{Staged: &bTrue}, want: []uuid.UUID{ana.ID}},
		{name: "placed", filter: enrollment.StudentFilter{Staged: &bFalse}, want: []uuid.UUID{bia.ID}},
		{name: "by section", filter: enrollment.StudentFilter{SectionID: sec.ID}, want: []uuid.UUID{bia.ID}},
		{name: "by ids", filter: enrollment.StudentFilter{IDs: []uuid.UUID{bia.ID, uuid.New()}}, want: []uuid.UUID{bia.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.QueryStudents(ctx, tt.filter)
			require.NoError(t, err)
			ids := make([]uuid.UUID, 0, len(got))
			for _, rec := range got {
				ids = append(ids, rec.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestEnrollmentRepository_WithTx(t *testing.T) {
	ctx := context.Background()
	repo := sqlxrepos.NewEnrollmentRepository(openDB(t))
	sec := testutil.CreateSection(t, repo, "3º Ano A", "3º Ano", enrollment.UnitAnexo, 25)
	rec := testutil.CreateStudent(t, repo, "Caio", "", "", enrollment.UnitMatriz)

	t.Run("rollback", func(t *testing.T) {
		errBoom := assert.AnError
		err := repo.WithTx(ctx, func(ctx context.Context, tx enrollment.Tx) error {
			if err := tx.SavePlacements(ctx, enrollment.Placement{StudentID: rec.ID, SectionID: sec.ID, Unit: sec.Unit}); err != nil {
				return err
			}
			return errBoom
		})
		assert.Equal(t, errBoom, err)
		assert.True(t, testutil.GetStudent(t, repo, rec.ID).IsStaged())
	})

	t.Run("commit", func(t *testing.T) {
		err := repo.WithTx(ctx, func(ctx context.Context, tx enrollment.Tx) error {
			got, err := tx.GetSection(ctx, sec.ID)
			require.NoError(t, err)
			assert.Empty(t, got.Roster)
			return tx.SavePlacements(ctx, enrollment.Placement{StudentID: rec.ID, SectionID: sec.ID, Unit: sec.Unit})
		})
		require.NoError(t, err)
		got := testutil.GetStudent(t, repo, rec.ID)
		assert.Equal(t, sec.ID, got.SectionID)
		assert.Equal(t, enrollment.UnitAnexo, got.Unit)
	})

	t.Run("unknown student", func(t *testing.T) {
		err := repo.WithTx(ctx, func(ctx context.Context, tx enrollment.Tx) error {
			return tx.SavePlacements(ctx, enrollment.Placement{StudentID: uuid.New(), SectionID: enrollment.Unassigned, Unit: enrollment.UnitMatriz})
		})
		assert.Equal(t, enrollment.ErrStudentNotFound, err)
	})
}

func TestAllocator_Sqlite(t *testing.T) {
	ctx := context.Background()
	repo := sqlxrepos.NewEnrollmentRepository(openDB(t))
	alloc := enrollment.NewAllocator(repo, testutil.NewLogger())

	sec := testutil.CreateSection(t, repo, "4º Ano A", "4º Ano", enrollment.UnitMatriz, 3)
	var ids []uuid.UUID
	for _, name := range []string{"A", "B", "C", "D", "E"} {
		ids = append(ids, testutil.CreateStudent(t, repo, name, "", "", enrollment.UnitMatriz).ID)
	}

	_, err := alloc.Allocate(ctx, ids, sec.ID)
	ce, ok := enrollment.IsCapacityExceeded(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, 3, ce.FreeSeats)
	assert.Equal(t, 5, ce.Requested)
	assert.Empty(t, testutil.GetSection(t, repo, sec.ID).Roster)

	res, err := alloc.Allocate(ctx, ids[:3], sec.ID)
	require.NoError(t, err)
	assert.Equal(t, ids[:3], res.Moved)
	assert.Len(t, testutil.GetSection(t, repo, sec.ID).Roster, 3)
}
