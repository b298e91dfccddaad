package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario(t *testing.T) {
	s, err := LoadScenario("")
	require.NoError(t, err)
	assert.Equal(t, DefaultScenario(), s)

	path := filepath.Join(t.TempDir(), "scenario.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
season = "JJA"
points = 3
centers = [[1.0, 2.0], [-1.0, -2.0]]
`), 0o600))
	s, err = LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "JJA", s.Season)
	assert.Equal(t, 3, s.Points)
	assert.Equal(t, [][]float64{{1, 2}, {-1, -2}}, s.Centers)
	assert.Equal(t, DefaultScenario().LearningDays, s.LearningDays)

	require.NoError(t, os.WriteFile(path, []byte(`centers = [[1.0, 2.0], [1.0]]`), 0o600))
	_, err = LoadScenario(path)
	assert.Error(t, err)
}

func TestScenario_Generate(t *testing.T) {
	s := DefaultScenario()
	s.LearningDays, s.ControlDays, s.ProjectionDays, s.Points = 50, 40, 30, 2

	a := s.Generate()
	b := s.Generate()
	assert.Equal(t, a, b)

	assert.Len(t, a.Learning.PCs, 50)
	assert.Len(t, a.Learning.Control, 40)
	assert.Len(t, a.Projection.PCs, 30)
	require.Len(t, a.Learning.Observed, 2)
	assert.Len(t, a.Learning.Observed[0], 50)
	require.Len(t, a.Truth, 2)
	assert.Len(t, a.Truth[1], 30)
	for _, v := range a.Learning.Variance {
		assert.Greater(t, v, 0.0)
	}
}
