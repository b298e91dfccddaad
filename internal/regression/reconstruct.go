package regression

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

const (
	StageFit         = "fit"
	StageReconstruct = "reconstruct"
)

var ErrNoModel = errors.New("no fitted model")

// PointError attributes a failure to one spatial point.
type PointError struct {
	Point int
	Stage string
	Err   error
}

func (e *PointError) Error() string {
	return fmt.Sprintf("point %d (%s): %v", e.Point, e.Stage, e.Err)
}

func (e *PointError) Unwrap() error {
	return e.Err
}

// predict accumulates at(k)*coef[k] over the first n coefficients, then adds
// the constant. Fit and Reconstruct share it so both yield identical sums.
func (m Model) predict(n int, at func(k int) float64) float64 {
	var v float64
	for k := 0; k < n; k++ {
		v += at(k) * m.Coef[k]
	}
	return v + m.Constant
}

// Reconstruct applies the model to a [ntime][ncluster] normalized distance
// matrix. With extra non-nil the last coefficient weights it.
func (m Model) Reconstruct(dist [][]float64, extra []float64) ([]float64, error) {
	ncluster := len(m.Coef)
	if extra != nil {
		ncluster--
		if len(extra) != len(dist) {
			return nil, fmt.Errorf("%w: %d extra values, %d times", ErrDimension, len(extra), len(dist))
		}
	}
	if ncluster < 0 {
		return nil, fmt.Errorf("%w: model has no coefficient for the extra predictor", ErrDimension)
	}

	out := make([]float64, len(dist))
	for t := range dist {
		if len(dist[t]) != ncluster {
			return nil, fmt.Errorf("%w: time %d has %d distances, model expects %d", ErrDimension, t, len(dist[t]), ncluster)
		}
		row := dist[t]
		var e float64
		if extra != nil {
			e = extra[t]
		}
		out[t] = m.predict(len(m.Coef), func(k int) float64 {
			if k < ncluster {
				return row[k]
			}
			return e
		})
	}
	return out, nil
}

// ReconstructField reconstructs every point in parallel into a
// [npoints][ntime] field. Rows of failed points stay nil and their errors are
// joined into the returned error.
func ReconstructField(ctx context.Context, models []*Model, dist [][]float64, extra []float64, workers int) ([][]float64, error) {
	if workers < 1 {
		workers = 1
	}
	field := make([][]float64, len(models))
	errs := make([]error, len(models))
	var g errgroup.Group
	g.SetLimit(workers)
	for p := range models {
		p := p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[p] = &PointError{Point: p, Stage: StageReconstruct, Err: err}
				return nil
			}
			if models[p] == nil {
				errs[p] = &PointError{Point: p, Stage: StageReconstruct, Err: ErrNoModel}
				return nil
			}
			row, err := models[p].Reconstruct(dist, extra)
			if err != nil {
				errs[p] = &PointError{Point: p, Stage: StageReconstruct, Err: err}
				return nil
			}
			field[p] = row
			return nil
		})
	}
	_ = g.Wait()
	return field, errors.Join(errs...)
}

// FailedPoints lists the points carried by the PointErrors inside err.
func FailedPoints(err error) []int {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var points []int
		for _, inner := range joined.Unwrap() {
			points = append(points, FailedPoints(inner)...)
		}
		return points
	}
	var pe *PointError
	if errors.As(err, &pe) {
		return []int{pe.Point}
	}
	return nil
}
