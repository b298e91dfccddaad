// Package regime partitions principal-component time series into weather
// regimes: randomized Lloyd-style clustering, ensemble selection of the most
// representative partition and nearest-centroid classification of days.
package regime

import (
	"errors"
	"fmt"

	"github.com/go-sod/regime/internal/geom"
)

var (
	ErrConfig           = errors.New("invalid regime configuration")
	ErrEmptyData        = errors.New("no days to cluster")
	ErrNoCentroid       = errors.New("no centroid could be selected")
	ErrNoRepresentative = errors.New("no representative partition could be selected")
	ErrAssignment       = errors.New("assignment does not match the days")
)

// Partition is one complete set of regime centroids in PC space.
type Partition []geom.Point

// Clone returns a deep copy that shares no backing arrays with p.
func (p Partition) Clone() Partition {
	return Partition(geom.Points(p).Copy())
}

// Dims returns the number of clusters and the EOF dimension.
func (p Partition) Dims() (int, int, error) {
	return geom.Points(p).Dims()
}

func (p Partition) Equal(p1 Partition) bool {
	if len(p) != len(p1) {
		return false
	}
	for i := range p {
		if !p[i].Equal(p1[i]) {
			return false
		}
	}
	return true
}

// less orders partitions lexicographically by centroid coordinates.
func (p Partition) less(p1 Partition) bool {
	for c := 0; c < len(p) && c < len(p1); c++ {
		for e := 0; e < len(p[c]) && e < len(p1[c]); e++ {
			if p[c][e] != p1[c][e] {
				return p[c][e] < p1[c][e]
			}
		}
		if len(p[c]) != len(p1[c]) {
			return len(p[c]) < len(p1[c])
		}
	}
	return len(p) < len(p1)
}

// Assignment maps each day to the index of its regime.
type Assignment []int

func validatePCs(pcs geom.Points, neof int) (int, error) {
	ndays, dim, err := pcs.Dims()
	if err != nil {
		return 0, fmt.Errorf("principal components: %w", err)
	}
	if ndays == 0 {
		return 0, ErrEmptyData
	}
	if neof > 0 && dim != neof {
		return 0, fmt.Errorf("principal components have %d EOFs, partition has %d: %w", dim, neof, geom.ErrDimNotEqual)
	}
	return ndays, nil
}
