package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validMeta() PaperMeta {
	return PaperMeta{Title: "Thermodynamics Final", Course: "PHY201", Year: 2023, Term: TermFall}
}

func TestParseTerm(t *testing.T) {
	term, err := ParseTerm(" spring ")
	require.NoError(t, err)
	assert.Equal(t, TermSpring, term)

	_, err = ParseTerm("autumn")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAllTerms_AreValid(t *testing.T) {
	terms := AllTerms()
	assert.Len(t, terms, 6)
	for _, term := range terms {
		assert.True(t, term.IsValid(), term.String())
	}
}

func TestPaperMeta_Validate(t *testing.T) {
	require.NoError(t, validMeta().Validate())

	tests := []struct {
		name    string
		mutate  func(*PaperMeta)
		missing string
	}{
		{name: "no title", mutate: func(m *PaperMeta) { m.Title = " " }, missing: "title"},
		{name: "no course", mutate: func(m *PaperMeta) { m.Course = "" }, missing: "course"},
		{name: "zero year", mutate: func(m *PaperMeta) { m.Year = 0 }, missing: "year"},
		{name: "no term", mutate: func(m *PaperMeta) { m.Term = "" }, missing: "term"},
		{name: "bad term", mutate: func(m *PaperMeta) { m.Term = "AUTUMN" }, missing: "AUTUMN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validMeta()
			tt.mutate(&m)
			err := m.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.missing)
		})
	}
}

func TestPaper_Summary(t *testing.T) {
	p := &Paper{ID: "p1", Title: "Final", Course: "CS101", Year: 2022, Term: TermWinter, TotalCount: 9}

	assert.Equal(t, PaperSummary{ID: "p1", Title: "Final", Course: "CS101", Year: 2022, Term: TermWinter}, p.Summary())
}
