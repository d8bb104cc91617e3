package enrollment

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStaged(name, grade, suffix string) StudentRecord {
	return StudentRecord{ID: uuid.New(), Name: name, SectionID: Unassigned, OriginGrade: grade, OriginSuffix: suffix, Unit: PrimaryUnit}
}

func TestToggleSelection(t *testing.T) {
	ana := newStaged("Ana", "1º Ano", "A")
	bia := newStaged("Bia", "1 ano", "a")
	caio := newStaged("Caio", "1º Ano", "A")
	davi := newStaged("Davi", "2º Ano", "B")
	eva := newStaged("Eva", "", "")
	staged := []StudentRecord{ana, bia, caio, davi, eva}

	t.Run("selects the whole origin group", func(t *testing.T) {
		got := ToggleSelection(ana.ID, nil, staged)
		assert.ElementsMatch(t, []uuid.UUID{ana.ID, bia.ID, caio.ID}, got.IDs())
	})

	t.Run("deselects the whole origin group", func(t *testing.T) {
		current := NewSelection(ana.ID, bia.ID, caio.ID, davi.ID)
		got := ToggleSelection(bia.ID, current, staged)
		assert.Equal(t, []uuid.UUID{davi.ID}, got.IDs())
		assert.Equal(t, 4, current.Len(), "current selection must not change")
	})

	t.Run("completes a partially selected group", func(t *testing.T) {
		got := ToggleSelection(caio.ID, NewSelection(ana.ID), staged)
		assert.ElementsMatch(t, []uuid.UUID{ana.ID, bia.ID, caio.ID}, got.IDs())
	})

	t.Run("record without origin toggles alone", func(t *testing.T) {
		got := ToggleSelection(eva.ID, NewSelection(davi.ID), staged)
		assert.ElementsMatch(t, []uuid.UUID{davi.ID, eva.ID}, got.IDs())

		got = ToggleSelection(eva.ID, got, staged)
		assert.Equal(t, []uuid.UUID{davi.ID}, got.IDs())
	})

	t.Run("unknown record toggles alone", func(t *testing.T) {
		stranger := uuid.New()
		got := ToggleSelection(stranger, nil, staged)
		assert.Equal(t, []uuid.UUID{stranger}, got.IDs())
	})
}

func TestSelection_Without(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	sel := NewSelection(a, b, c)

	rest := sel.Without(a, c, uuid.New())
	assert.Equal(t, []uuid.UUID{b}, rest.IDs())
	assert.Equal(t, 3, sel.Len())
	assert.Empty(t, Selection(nil).Without(a))
}

func TestOriginGroup(t *testing.T) {
	assert.Equal(t, OriginGroup(newStaged("x", "1º Ano", "A")), OriginGroup(newStaged("y", "1ANO", "a")))
	assert.NotEqual(t, OriginGroup(newStaged("x", "1º Ano", "A")), OriginGroup(newStaged("y", "1º Ano", "B")))
	assert.Equal(t, OriginGroup(newStaged("x", "Jardim", "")), OriginGroup(newStaged("y", "Jardim", "jardim")))
	assert.Empty(t, OriginGroup(newStaged("x", " ", "")))
}

func TestStagingPool(t *testing.T) {
	placed := newStaged("Zeca", "1º Ano", "A")
	placed.SectionID = uuid.New()
	caio := newStaged("Caio", "1º Ano", "A")
	ana := newStaged("Ana", "1º Ano", "A")
	bruno := newStaged("Bruno", "Jardim II", "")
	eva := newStaged("Eva", "", "")
	gil := newStaged("Gil", "8º Ano", "C")

	pool := NewStagingPool([]StudentRecord{placed, caio, ana, bruno, eva, gil})
	require.Equal(t, 5, pool.Len())
	assert.Equal(t, "Ana", pool.Records()[0].Name)

	groups := pool.Groups()
	require.Len(t, groups, 3)
	assert.Equal(t, StagingGroup{Label: "1º Ano A", StudentIDs: []uuid.UUID{ana.ID, caio.ID}}, groups[0])
	assert.Equal(t, "Jardim II", groups[1].Label)
	assert.Equal(t, "8º Ano C", groups[2].Label)

	got := pool.Toggle(caio.ID, nil)
	assert.ElementsMatch(t, []uuid.UUID{ana.ID, caio.ID}, got.IDs(), "placed records are not part of the pool")
}

func TestStagingPool_ListMissingOrigins(t *testing.T) {
	sections := []Section{
		newSection("1º Ano A", "1º Ano", UnitMatriz, 30),
		newSection("Jardim II - Tarde", "Jardim II", UnitAnexo, 20),
	}
	pool := NewStagingPool([]StudentRecord{
		newStaged("Ana", "1º Ano", "A"),     // by name
		newStaged("Bia", "Jardim II", "B"),  // by grade, other unit
		newStaged("Caio", "9º Ano", "A"),    // missing
		newStaged("Davi", "9 ano", "a"),     // same missing group
		newStaged("Eva", "", ""),            // no origin
		newStaged("Fabi", "Berçário", "II"), // missing
	})

	before := len(pool.Records())
	assert.Equal(t, []string{"9º Ano A", "Berçário II"}, pool.ListMissingOrigins(sections))
	assert.Len(t, pool.Records(), before)
	assert.Empty(t, NewStagingPool(nil).ListMissingOrigins(sections))
}

func TestStagingPool_ListMissingOrigins_ambiguousGrade(t *testing.T) {
	sections := []Section{
		newSection("1º Ano A", "1º Ano", UnitMatriz, 30),
		newSection("1º Ano B", "1º Ano", UnitAnexo, 30),
		newSection("2º Ano A", "2º Ano", UnitMatriz, 30),
		newSection("2º Ano B", "2º Ano", UnitMatriz, 30),
	}
	unknownUnit := newStaged("Caio", "1º Ano", "D")
	unknownUnit.Unit = ""
	pool := NewStagingPool([]StudentRecord{
		newStaged("Ana", "1º Ano", "C"), // one 1º Ano in matriz
		newStaged("Bia", "2º Ano", "C"), // two 2º Ano in matriz
		unknownUnit,                     // one 1º Ano per unit
	})

	assert.Equal(t, []string{"1º Ano D", "2º Ano C"}, pool.ListMissingOrigins(sections))
}
