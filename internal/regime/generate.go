package regime

import (
	"fmt"
	"math"

	"github.com/go-sod/regime/internal/geom"
)

// Generator runs one randomized clustering attempt (Michelangeli et al. 1995).
type Generator struct {
	ncluster int
	nclassif int
	distFn   geom.DistanceFn
	rng      *Rng
}

func NewGenerator(ncluster, nclassif int, distType geom.DistanceType, rng *Rng) (*Generator, error) {
	distFn, err := geom.DistanceFuncFor(distType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if ncluster < 1 || nclassif < 1 {
		return nil, fmt.Errorf("%w: ncluster=%d nclassif=%d", ErrConfig, ncluster, nclassif)
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: nil random source", ErrConfig)
	}
	return &Generator{ncluster: ncluster, nclassif: nclassif, distFn: distFn, rng: rng}, nil
}

// Generate clusters pcs and returns the final centroids together with the
// number of iterations consumed. It stops early once no centroid coordinate
// moved at all during an update.
func (g *Generator) Generate(pcs geom.Points) (Partition, int, error) {
	ndays, err := validatePCs(pcs, 0)
	if err != nil {
		return nil, 0, err
	}

	// seeds are drawn with replacement, two regimes may start on the same day
	part := make(Partition, g.ncluster)
	for c := range part {
		part[c] = pcs[g.rng.Intn(ndays)].Copy()
	}

	iter := 0
	for iter < g.nclassif {
		iter++
		assignment, err := classify(pcs, part, g.distFn)
		if err != nil {
			return nil, iter, fmt.Errorf("iteration %d: %w", iter, err)
		}
		next := centroids(pcs, assignment, g.ncluster)
		change := maxChange(part, next)
		part = next
		if change == 0 {
			break
		}
	}
	return part, iter, nil
}

// Centroids averages the PCs of the days assigned to each cluster. A cluster
// without days gets the zero vector.
func Centroids(pcs geom.Points, assignment Assignment, ncluster int) (Partition, error) {
	if ncluster < 1 {
		return nil, fmt.Errorf("%w: ncluster=%d", ErrConfig, ncluster)
	}
	if _, err := validatePCs(pcs, 0); err != nil {
		return nil, err
	}
	if len(assignment) != len(pcs) {
		return nil, fmt.Errorf("%w: %d assignments for %d days", ErrAssignment, len(assignment), len(pcs))
	}
	for t, c := range assignment {
		if c < 0 || c >= ncluster {
			return nil, fmt.Errorf("%w: day %d in cluster %d, expected [0, %d)", ErrAssignment, t, c, ncluster)
		}
	}
	return centroids(pcs, assignment, ncluster), nil
}

// centroids expects an assignment produced by classify over pcs.
func centroids(pcs geom.Points, assignment Assignment, ncluster int) Partition {
	neof := 0
	if len(pcs) > 0 {
		neof = len(pcs[0])
	}
	sums := make(Partition, ncluster)
	for c := range sums {
		sums[c] = make(geom.Point, neof)
	}
	counts := make([]int, ncluster)
	for t, c := range assignment {
		counts[c]++
		for e := 0; e < neof; e++ {
			sums[c][e] += pcs[t][e]
		}
	}
	for c := range sums {
		if counts[c] == 0 {
			sums[c].Zero()
			continue
		}
		for e := 0; e < neof; e++ {
			sums[c][e] /= float64(counts[c])
		}
	}
	return sums
}

// maxChange is the largest absolute coordinate change between two centroid
// snapshots.
func maxChange(prev, next Partition) float64 {
	var max float64
	for c := range next {
		for e := range next[c] {
			d := math.Abs(next[c][e] - prev[c][e])
			if d > max {
				max = d
			}
		}
	}
	return max
}
