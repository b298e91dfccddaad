// Package normalize turns PC-to-centroid distances into standardized
// predictors comparable across learning, control and projection periods.
package normalize

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-sod/regime/internal/geom"
	"github.com/go-sod/regime/internal/regime"
	"github.com/go-sod/regime/pkg/math/vector"
)

// MinVariance is the smallest control-period distance variance accepted as
// a divisor.
const MinVariance = 1e-12

var (
	ErrNonPositiveVariance = errors.New("EOF variance must be positive")
	ErrDegenerateVariance  = errors.New("control distance variance is zero")
	ErrStatsMismatch       = errors.New("statistics do not match the partition")
)

// Stats are the per-cluster mean and variance of distances over the control period.
type Stats struct {
	Mean     []float64 `json:"mean"`
	Variance []float64 `json:"variance"`
}

// Variances holds per-EOF variances: PC scales the period's principal
// components, Centroid scales the regime centroids (learning period).
type Variances struct {
	PC       []float64
	Centroid []float64
}

// Distances returns the [ntime][ncluster] Euclidean distances between the
// variance-scaled PCs and the variance-scaled centroids.
func Distances(pcs geom.Points, partition regime.Partition, v Variances) ([][]float64, error) {
	ncluster, neof, err := partition.Dims()
	if err != nil {
		return nil, fmt.Errorf("partition: %w", err)
	}
	if ncluster == 0 {
		return nil, regime.ErrNoCentroid
	}
	_, dim, err := pcs.Dims()
	if err != nil {
		return nil, fmt.Errorf("principal components: %w", err)
	}
	if len(pcs) > 0 && dim != neof {
		return nil, fmt.Errorf("principal components have %d EOFs, partition has %d: %w", dim, neof, geom.ErrDimNotEqual)
	}

	pcScale, err := sqrtScale(v.PC, neof, "period")
	if err != nil {
		return nil, err
	}
	centroidScale, err := sqrtScale(v.Centroid, neof, "learning")
	if err != nil {
		return nil, err
	}

	centroids := make(geom.Points, ncluster)
	for c := range partition {
		centroids[c] = partition[c].Scaled(centroidScale)
	}

	dist := make([][]float64, len(pcs))
	for t := range pcs {
		scaled := pcs[t].Scaled(pcScale)
		row := make([]float64, ncluster)
		for c := range centroids {
			d, err := geom.EuclideanDistance(scaled, centroids[c])
			if err != nil {
				return nil, fmt.Errorf("day %d cluster %d: %w", t, c, err)
			}
			row[c] = d
		}
		dist[t] = row
	}
	return dist, nil
}

// ComputeControlStatistics calibrates the distance statistics over the
// control period.
func ComputeControlStatistics(pcs geom.Points, partition regime.Partition, learningVar, controlVar []float64) (Stats, error) {
	if len(pcs) < 2 {
		return Stats{}, fmt.Errorf("control period needs at least 2 days, got %d: %w", len(pcs), regime.ErrEmptyData)
	}
	dist, err := Distances(pcs, partition, Variances{PC: controlVar, Centroid: learningVar})
	if err != nil {
		return Stats{}, err
	}

	ncluster := len(partition)
	stats := Stats{Mean: make([]float64, ncluster), Variance: make([]float64, ncluster)}
	series := make(vector.V, len(dist))
	for c := 0; c < ncluster; c++ {
		for t := range dist {
			series[t] = dist[t][c]
		}
		stats.Mean[c], stats.Variance[c] = series.MeanVariance()
	}
	if err := stats.Validate(ncluster); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

// Validate checks the shape of s and that every variance can divide.
func (s Stats) Validate(ncluster int) error {
	if len(s.Mean) != ncluster || len(s.Variance) != ncluster {
		return fmt.Errorf("%w: %d means, %d variances, %d clusters",
			ErrStatsMismatch, len(s.Mean), len(s.Variance), ncluster)
	}
	for c, v := range s.Variance {
		if !(v > MinVariance) {
			return fmt.Errorf("cluster %d: variance %g: %w", c, v, ErrDegenerateVariance)
		}
	}
	return nil
}

// NormalizeDistances z-scores the period's distances against the control
// statistics, yielding the [ntime][ncluster] regression predictors.
func NormalizeDistances(pcs geom.Points, partition regime.Partition, v Variances, stats Stats) ([][]float64, error) {
	if err := stats.Validate(len(partition)); err != nil {
		return nil, err
	}
	dist, err := Distances(pcs, partition, v)
	if err != nil {
		return nil, err
	}
	sd := make([]float64, len(stats.Variance))
	for c := range sd {
		sd[c] = math.Sqrt(stats.Variance[c])
	}
	for t := range dist {
		for c := range dist[t] {
			dist[t][c] = (dist[t][c] - stats.Mean[c]) / sd[c]
		}
	}
	return dist, nil
}

func sqrtScale(variance []float64, neof int, period string) ([]float64, error) {
	if len(variance) != neof {
		return nil, fmt.Errorf("%s variances: got %d, expected %d: %w", period, len(variance), neof, geom.ErrDimNotEqual)
	}
	scale := make([]float64, neof)
	for e, v := range variance {
		if !(v > 0) {
			return nil, fmt.Errorf("%s variance of EOF %d is %g: %w", period, e, v, ErrNonPositiveVariance)
		}
		scale[e] = math.Sqrt(v)
	}
	return scale, nil
}
