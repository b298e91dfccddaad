package regime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-sod/regime/internal/geom"
)

func TestGenerator_Converges(t *testing.T) {
	t.Parallel()
	pcs := clusteredPCs(7, testCenters, 40, 1)
	for seed := uint32(1); seed <= 5; seed++ {
		gen, err := NewGenerator(3, 100, geom.DistanceTypeEuclidean, NewRng(seed))
		require.NoError(t, err)

		partition, iter, err := gen.Generate(pcs)
		require.NoError(t, err)
		require.Len(t, partition, 3)
		assert.Less(t, iter, 100, "seed %d did not reach the no-change stop", seed)

		// classify, update, classify again is a fixed point
		first, err := ClassifyDays(pcs, partition, geom.DistanceTypeEuclidean)
		require.NoError(t, err)
		updated, err := Centroids(pcs, first, 3)
		require.NoError(t, err)
		assert.True(t, updated.Equal(partition))
		second, err := ClassifyDays(pcs, updated, geom.DistanceTypeEuclidean)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	}
}

func TestGenerator_Reproducible(t *testing.T) {
	t.Parallel()
	pcs := clusteredPCs(3, testCenters, 30, 6)
	run := func(seed uint32) (Partition, int) {
		gen, err := NewGenerator(4, 50, geom.DistanceTypeEuclidean, NewRng(seed))
		require.NoError(t, err)
		p, n, err := gen.Generate(pcs)
		require.NoError(t, err)
		return p, n
	}
	p1, n1 := run(42)
	p2, n2 := run(42)
	assert.True(t, p1.Equal(p2))
	assert.Equal(t, n1, n2)
}

func TestGenerator_IterationCap(t *testing.T) {
	t.Parallel()
	pcs := clusteredPCs(5, testCenters, 30, 20)
	gen, err := NewGenerator(5, 1, geom.DistanceTypeEuclidean, NewRng(9))
	require.NoError(t, err)
	_, iter, err := gen.Generate(pcs)
	require.NoError(t, err)
	assert.Equal(t, 1, iter)
}

func TestNewGenerator_Errors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		ncluster int
		nclassif int
		distType geom.DistanceType
		rng      *Rng
	}{
		{name: "distance", ncluster: 2, nclassif: 10, distType: "cosine", rng: NewRng(1)},
		{name: "ncluster", ncluster: 0, nclassif: 10, distType: geom.DistanceTypeEuclidean, rng: NewRng(1)},
		{name: "nclassif", ncluster: 2, nclassif: 0, distType: geom.DistanceTypeEuclidean, rng: NewRng(1)},
		{name: "rng", ncluster: 2, nclassif: 10, distType: geom.DistanceTypeEuclidean},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewGenerator(test.ncluster, test.nclassif, test.distType, test.rng)
			assert.ErrorIs(t, err, ErrConfig)
		})
	}
}

func TestGenerator_EmptyData(t *testing.T) {
	t.Parallel()
	gen, err := NewGenerator(2, 10, geom.DistanceTypeEuclidean, NewRng(1))
	require.NoError(t, err)
	_, _, err = gen.Generate(nil)
	assert.ErrorIs(t, err, ErrEmptyData)
}

func TestCentroids_EmptyCluster(t *testing.T) {
	t.Parallel()
	pcs := geom.Points{{1, 2}, {3, 4}, {10, 10}}
	assignment := Assignment{0, 0, 2}

	assert.NotPanics(t, func() {
		got, err := Centroids(pcs, assignment, 3)
		require.NoError(t, err)
		assert.True(t, got[0].Equal(geom.Point{2, 3}))
		assert.True(t, got[1].Equal(geom.Point{0, 0}))
		assert.True(t, got[2].Equal(geom.Point{10, 10}))
	})
}

func TestCentroids_InvalidInput(t *testing.T) {
	t.Parallel()
	pcs := geom.Points{{1, 2}, {3, 4}, {10, 10}}
	tests := []struct {
		name       string
		pcs        geom.Points
		assignment Assignment
		ncluster   int
		err        error
	}{
		{name: "cluster_too_large", pcs: pcs, assignment: Assignment{0, 3, 1}, ncluster: 3, err: ErrAssignment},
		{name: "negative_cluster", pcs: pcs, assignment: Assignment{0, -1, 1}, ncluster: 3, err: ErrAssignment},
		{name: "more_assignments_than_days", pcs: pcs, assignment: Assignment{0, 1, 2, 0}, ncluster: 3, err: ErrAssignment},
		{name: "fewer_assignments_than_days", pcs: pcs, assignment: Assignment{0}, ncluster: 3, err: ErrAssignment},
		{name: "no_clusters", pcs: pcs, assignment: Assignment{0, 0, 0}, ncluster: 0, err: ErrConfig},
		{name: "no_days", pcs: nil, assignment: nil, ncluster: 2, err: ErrEmptyData},
		{name: "ragged", pcs: geom.Points{{1, 2}, {3}}, assignment: Assignment{0, 0}, ncluster: 1, err: geom.ErrNotRectangular},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			assert.NotPanics(t, func() {
				_, err := Centroids(test.pcs, test.assignment, test.ncluster)
				assert.ErrorIs(t, err, test.err)
			})
		})
	}
}

func TestGenerator_DuplicateSeedsKeepZeroCluster(t *testing.T) {
	t.Parallel()
	// a single distinct day: every seed coincides, all days go to cluster 0
	pcs := geom.Points{{4, 4}, {4, 4}, {4, 4}}
	gen, err := NewGenerator(2, 10, geom.DistanceTypeEuclidean, NewRng(3))
	require.NoError(t, err)
	partition, _, err := gen.Generate(pcs)
	require.NoError(t, err)
	assert.True(t, partition[0].Equal(geom.Point{4, 4}))
	assert.True(t, partition[1].Equal(geom.Point{0, 0}))
}

func TestRng(t *testing.T) {
	t.Parallel()
	a, b := NewRng(11), NewRng(11)
	for i := 0; i < 100; i++ {
		x := a.Intn(7)
		assert.Equal(t, x, b.Intn(7))
		assert.GreaterOrEqual(t, x, 0)
		assert.Less(t, x, 7)
	}
	z1, z2 := NewRng(0), NewRng(0)
	assert.Equal(t, z1.Intn(1000), z2.Intn(1000))
}

func TestRng_ConsecutiveSeedsSpread(t *testing.T) {
	t.Parallel()
	const (
		base  uint32 = 1234
		tasks        = 30
		n            = 1000
	)
	seen := make(map[int]struct{}, tasks)
	lo, hi := n, -1
	for i := uint32(0); i < tasks; i++ {
		x := NewRng(base + i).Intn(n)
		seen[x] = struct{}{}
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	assert.GreaterOrEqual(t, len(seen), 25)
	assert.Greater(t, hi-lo, n/2)
}

func TestMix32(t *testing.T) {
	t.Parallel()
	seen := make(map[uint32]uint32, 1<<12)
	for x := uint32(0); x < 1<<12; x++ {
		y := mix32(x)
		prev, ok := seen[y]
		require.False(t, ok, "mix32(%d) == mix32(%d)", x, prev)
		seen[y] = x
	}
}
