package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDifficulty_IsValid(t *testing.T) {
	for _, d := range []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyUnknown} {
		assert.True(t, d.IsValid(), d.String())
	}
	assert.False(t, Difficulty("").IsValid())
	assert.False(t, Difficulty("easy").IsValid())
}

func TestCountWords(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{in: "", want: 0},
		{in: "   ", want: 0},
		{in: "Define entropy.", want: 2},
		{in: "State\tthe\nsecond  law", want: 4},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CountWords(tt.in), "%q", tt.in)
	}
}

func TestResolution_ZeroValue(t *testing.T) {
	var r Resolution

	assert.False(t, r.Merged)
	assert.Nil(t, r.Target)
	assert.Nil(t, r.Nearest)
	assert.Zero(t, r.Similarity)
}
