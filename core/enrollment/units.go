package enrollment

import (
	"strings"

	"github.com/trezcool/placement/core"
)

// Unit is a physical campus of the school.
type Unit string

const (
	UnitMatriz Unit = "matriz"
	UnitAnexo  Unit = "anexo"

	// PrimaryUnit is assumed when a source does not say which campus a row belongs to.
	PrimaryUnit = UnitMatriz
)

// Units lists every known campus.
var Units = []Unit{UnitMatriz, UnitAnexo}

// keywords are matched against normalized labels, first hit wins
var unitKeywords = []struct {
	unit     Unit
	keywords []string
}{
	{unit: UnitAnexo, keywords: []string{"anexo"}},
	{unit: UnitMatriz, keywords: []string{"matriz", "sede"}},
}

func (u Unit) Valid() bool {
	for _, known := range Units {
		if u == known {
			return true
		}
	}
	return false
}

// ParseUnit maps a free-text campus label ("Unidade Anexo", "SEDE", "") to a Unit.
// An empty label is the PrimaryUnit. ok is false when the label names no known campus.
func ParseUnit(label string) (unit Unit, ok bool) {
	key := core.NormalizeLabel(label)
	if key == "" {
		return PrimaryUnit, true
	}
	for _, entry := range unitKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(key, kw) {
				return entry.unit, true
			}
		}
	}
	return PrimaryUnit, false
}
