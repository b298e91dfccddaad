package regime

import (
	"fmt"
	"math"

	"github.com/go-sod/regime/internal/geom"
)

// ClassifyDays assigns every day to its nearest centroid. Ties go to the
// lowest cluster index.
func ClassifyDays(pcs geom.Points, partition Partition, distType geom.DistanceType) (Assignment, error) {
	distFn, err := geom.DistanceFuncFor(distType)
	if err != nil {
		return nil, err
	}
	if len(partition) == 0 {
		return nil, ErrNoCentroid
	}
	_, neof, err := partition.Dims()
	if err != nil {
		return nil, fmt.Errorf("partition: %w", err)
	}
	if _, err := validatePCs(pcs, neof); err != nil {
		return nil, err
	}
	return classify(pcs, partition, distFn)
}

func classify(pcs geom.Points, partition Partition, distFn geom.DistanceFn) (Assignment, error) {
	assignment := make(Assignment, len(pcs))
	for t, day := range pcs {
		best, err := nearest(day, partition, distFn)
		if err != nil {
			return nil, fmt.Errorf("day %d: %w", t, err)
		}
		assignment[t] = best
	}
	return assignment, nil
}

func nearest(p geom.Point, partition Partition, distFn geom.DistanceFn) (int, error) {
	best := -1
	minDist := math.MaxFloat64
	for c, centroid := range partition {
		d, err := distFn(p, centroid)
		if err != nil {
			return -1, err
		}
		if d < minDist {
			minDist = d
			best = c
		}
	}
	if best < 0 {
		return -1, ErrNoCentroid
	}
	return best, nil
}

// Frequency counts the days assigned to each of the ncluster regimes.
func Frequency(assignment Assignment, ncluster int) []int {
	freq := make([]int, ncluster)
	for _, c := range assignment {
		if c >= 0 && c < ncluster {
			freq[c]++
		}
	}
	return freq
}
