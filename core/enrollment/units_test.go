package enrollment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseUnit(t *testing.T) {
	tests := []struct {
		label  string
		want   Unit
		wantOk bool
	}{
		{label: "", want: PrimaryUnit, wantOk: true},
		{label: "   ", want: PrimaryUnit, wantOk: true},
		{label: "Matriz", want: UnitMatriz, wantOk: true},
		{label: "SEDE", want: UnitMatriz, wantOk: true},
		{label: "Unidade Anexo", want: UnitAnexo, wantOk: true},
		{label: "ANEXO II", want: UnitAnexo, wantOk: true},
		{label: "anéxo", want: UnitAnexo, wantOk: true},
		{label: "Polo Norte", want: PrimaryUnit, wantOk: false},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, ok := ParseUnit(tt.label)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOk, ok)
		})
	}
}

func TestUnit_Valid(t *testing.T) {
	assert.True(t, UnitMatriz.Valid())
	assert.True(t, UnitAnexo.Valid())
	assert.False(t, Unit("").Valid())
	assert.False(t, Unit("Matriz").Valid())
}
