package regression

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconstruct_MatchesFit(t *testing.T) {
	t.Parallel()
	r := rand.New(rand.NewSource(10))
	dist := randomPredictors(11, 80, 3)
	extra := make([]float64, len(dist))
	y := make([]float64, len(dist))
	for i := range dist {
		extra[i] = r.NormFloat64()
		y[i] = 2 - dist[i][0] + 0.7*dist[i][1] + 0.1*dist[i][2] + 1.5*extra[i] + 0.2*r.NormFloat64()
	}

	tests := []struct {
		name  string
		extra []float64
	}{
		{name: "distances_only"},
		{name: "with_extra_predictor", extra: extra},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			x := make([][]float64, len(dist))
			for i := range dist {
				x[i] = append([]float64(nil), dist[i]...)
				if test.extra != nil {
					x[i] = append(x[i], test.extra[i])
				}
			}
			res, err := Fit(x, y)
			require.NoError(t, err)

			got, err := res.Model.Reconstruct(dist, test.extra)
			require.NoError(t, err)
			assert.Equal(t, res.YReg, got)
		})
	}
}

func TestReconstruct(t *testing.T) {
	t.Parallel()
	m := Model{Coef: []float64{2, -1, 0.5}, Constant: 10}
	got, err := m.Reconstruct([][]float64{{1, 1}, {0, 2}}, []float64{4, -2})
	require.NoError(t, err)
	assert.Equal(t, []float64{13, 7}, got)

	m = Model{Coef: []float64{2, -1}, Constant: 1}
	got, err = m.Reconstruct([][]float64{{1, 1}, {3, 0}}, nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 7}, got)
}

func TestReconstruct_Errors(t *testing.T) {
	t.Parallel()
	m := Model{Coef: []float64{1, 2}, Constant: 0}
	tests := []struct {
		name  string
		m     Model
		dist  [][]float64
		extra []float64
	}{
		{name: "clusters", m: m, dist: [][]float64{{1, 2, 3}}},
		{name: "extra_length", m: m, dist: [][]float64{{1}}, extra: []float64{1, 2}},
		{name: "no_extra_coef", m: Model{}, dist: [][]float64{{}}, extra: []float64{1}},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			_, err := test.m.Reconstruct(test.dist, test.extra)
			assert.ErrorIs(t, err, ErrDimension)
		})
	}
}

func TestReconstructField(t *testing.T) {
	t.Parallel()
	dist := [][]float64{{1, 0}, {0, 1}, {1, 1}}
	models := []*Model{
		{Coef: []float64{1, 1}, Constant: 0},
		nil,
		{Coef: []float64{2, 0}, Constant: 1},
		{Coef: []float64{1}, Constant: 0},
	}

	field, err := ReconstructField(context.Background(), models, dist, nil, 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoModel)
	assert.ElementsMatch(t, []int{1, 3}, FailedPoints(err))

	require.Len(t, field, 4)
	assert.Equal(t, []float64{1, 1, 2}, field[0])
	assert.Nil(t, field[1])
	assert.Equal(t, []float64{3, 1, 3}, field[2])
	assert.Nil(t, field[3])
}

func TestFailedPoints(t *testing.T) {
	t.Parallel()
	assert.Nil(t, FailedPoints(nil))
	assert.Equal(t, []int{4}, FailedPoints(&PointError{Point: 4, Stage: StageFit, Err: ErrSingular}))
}
