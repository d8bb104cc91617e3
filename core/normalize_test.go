package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLabel(t *testing.T) {
	tests := []struct {
		name  string
		label string
		want  string
	}{
		{name: "empty", label: "", want: ""},
		{name: "blank", label: " \t ", want: ""},
		{name: "ordinal and hyphen", label: "1º Ano - A", want: "1anoa"},
		{name: "plain lower", label: "1 ano a", want: "1anoa"},
		{name: "upper", label: "1ANO A", want: "1anoa"},
		{name: "feminine ordinal", label: "2ª Série", want: "2serie"},
		{name: "degree sign", label: "3° ano", want: "3ano"},
		{name: "diacritics", label: "Educação Infantil", want: "educacaoinfantil"},
		{name: "periods and colons", label: "Turma: 5.B", want: "turma5b"},
		{name: "non-breaking space", label: "9\u00a0Ano", want: "9ano"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeLabel(tt.label))
		})
	}
}

func TestNormalizeLabel_Idempotent(t *testing.T) {
	labels := []string{"1º Ano - A", "Jardim II: Tarde", "ÂNEXO", "  6.º ano  B ", "İstanbul", "Ⅱ"}
	for _, label := range labels {
		once := NormalizeLabel(label)
		assert.Equal(t, once, NormalizeLabel(once), "label %q", label)
	}
}

func TestNormalizeLabel_Equivalence(t *testing.T) {
	a := NormalizeLabel("1º Ano - A")
	assert.Equal(t, a, NormalizeLabel("1 ano a"))
	assert.Equal(t, a, NormalizeLabel("1ANO A"))
}

func TestParseOrderings(t *testing.T) {
	got := ParseOrderings(" name, -grade,unknown,,-", "name", "grade")
	assert.Equal(t, []DBOrdering{{Field: "name", Ascending: true}, {Field: "grade", Ascending: false}}, got)
	assert.Equal(t, "grade DESC", got[1].String())
}
