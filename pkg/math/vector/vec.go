// Package vector holds summary statistics over one-dimensional series such as
// a cluster's distance series or a regression residual series.
package vector

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

type V []float64

func (v V) Mean() float64 {
	if len(v) == 0 {
		return math.NaN()
	}
	return stat.Mean(v, nil)
}

// MeanVariance returns the mean and the unbiased (n-1) variance.
func (v V) MeanVariance() (float64, float64) {
	if len(v) < 2 {
		return v.Mean(), math.NaN()
	}
	return stat.MeanVariance(v, nil)
}

// SumSquaredDev is the total sum of squared deviations from the mean.
func (v V) SumSquaredDev() float64 {
	if len(v) == 0 {
		return 0
	}
	mean := v.Mean()
	var s float64
	for i := range v {
		d := v[i] - mean
		s += d * d
	}
	return s
}

// Lag1Autocorrelation returns sum((x[i]-m)(x[i-1]-m)) / sum((x[i]-m)^2).
// A constant series has no defined autocorrelation and yields NaN.
func (v V) Lag1Autocorrelation() float64 {
	if len(v) < 2 {
		return math.NaN()
	}
	mean := v.Mean()
	q := v.SumSquaredDev()
	if q == 0 {
		return math.NaN()
	}
	var r float64
	for i := 1; i < len(v); i++ {
		r += (v[i] - mean) * (v[i-1] - mean)
	}
	return r / q
}
