package geom

import (
	"fmt"
	"math"
	"strings"
)

var (
	ErrDimNotEqual     = fmt.Errorf("vectors dimension is not equal")
	ErrUnknownDistance = fmt.Errorf("unknown distance type")
)

type DistanceType string

// DistanceTypeEuclidean is the only metric regimes are defined for.
const DistanceTypeEuclidean DistanceType = "euclidean"

type DistanceFn func(vec, vec1 []float64) (float64, error)

func EuclideanDistance(vec, vec1 []float64) (float64, error) {
	var d float64
	if len(vec) != len(vec1) {
		return 0.0, ErrDimNotEqual
	}

	for i := 0; i < len(vec); i++ {
		diff := vec[i] - vec1[i]
		d += diff * diff
	}
	return math.Sqrt(d), nil
}

func DistanceFuncFor(d DistanceType) (DistanceFn, error) {
	switch DistanceType(strings.ToLower(string(d))) {
	case DistanceTypeEuclidean:
		return EuclideanDistance, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDistance, d)
	}
}
