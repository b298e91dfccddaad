// Package regression fits, at every spatial point, an ordinary least-squares
// model from normalized regime distances to an observed local field, and
// applies fitted models to reconstruct the field for other periods.
package regression

import (
	"context"
	"errors"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/go-sod/regime/pkg/math/vector"
)

// MaxCondition is the largest design-matrix condition number accepted
// before the system is treated as singular.
const MaxCondition = 1e12

var (
	ErrSingular         = errors.New("singular design matrix")
	ErrInsufficientData = errors.New("not enough samples for the number of predictors")
	ErrDimension        = errors.New("predictor and response dimensions do not match")
	ErrNonFinite        = errors.New("non-finite value in regression input")
)

// Model is what reconstruction needs from a fitted regression.
type Model struct {
	Coef     []float64 `json:"coef"`
	Constant float64   `json:"constant"`
}

// Result is a fitted model together with its diagnostics.
type Result struct {
	Model
	ChiSq    float64
	RSquared float64
	// fitted response over the learning samples
	YReg      []float64
	Residuals []float64
	// variance inflation factor per predictor
	VIF []float64
	// lag-1 autocorrelation of the residuals
	Autocorrelation float64
}

// Fit solves y ≈ constant + Σ coef[k]·x[t][k] for x of shape [npts][nterm].
func Fit(x [][]float64, y []float64) (*Result, error) {
	nterm, err := checkInput(x, y)
	if err != nil {
		return nil, err
	}

	constant, coef, err := solve(x, y, nterm)
	if err != nil {
		return nil, err
	}
	res := &Result{
		Model:     Model{Coef: coef, Constant: constant},
		YReg:      make([]float64, len(y)),
		Residuals: make([]float64, len(y)),
	}
	for t := range y {
		row := x[t]
		res.YReg[t] = res.Model.predict(nterm, func(k int) float64 { return row[k] })
		res.Residuals[t] = y[t] - res.YReg[t]
		res.ChiSq += res.Residuals[t] * res.Residuals[t]
	}

	if tss := vector.V(y).SumSquaredDev(); tss > 0 {
		res.RSquared = 1 - res.ChiSq/tss
	} else {
		res.RSquared = math.NaN()
	}
	res.VIF = vif(x, nterm)
	res.Autocorrelation = vector.V(res.Residuals).Lag1Autocorrelation()
	return res, nil
}

func checkInput(x [][]float64, y []float64) (int, error) {
	if len(x) != len(y) {
		return 0, fmt.Errorf("%w: %d predictor rows, %d responses", ErrDimension, len(x), len(y))
	}
	if len(x) == 0 || len(x[0]) == 0 {
		return 0, fmt.Errorf("%w: empty predictor matrix", ErrInsufficientData)
	}
	nterm := len(x[0])
	if len(y) < nterm+1 {
		return 0, fmt.Errorf("%w: %d samples, %d predictors plus constant", ErrInsufficientData, len(y), nterm)
	}
	for t := range x {
		if len(x[t]) != nterm {
			return 0, fmt.Errorf("%w: row %d has %d predictors, expected %d", ErrDimension, t, len(x[t]), nterm)
		}
		for k := range x[t] {
			if math.IsNaN(x[t][k]) || math.IsInf(x[t][k], 0) {
				return 0, fmt.Errorf("%w: predictor %d at sample %d", ErrNonFinite, k, t)
			}
		}
		if math.IsNaN(y[t]) || math.IsInf(y[t], 0) {
			return 0, fmt.Errorf("%w: response at sample %d", ErrNonFinite, t)
		}
	}
	return nterm, nil
}

// solve runs a QR least-squares solve of [1 | x] β = y over the first
// nterm columns of x.
func solve(x [][]float64, y []float64, nterm int) (float64, []float64, error) {
	npts := len(y)
	a := mat.NewDense(npts, nterm+1, nil)
	for t := 0; t < npts; t++ {
		a.Set(t, 0, 1)
		for k := 0; k < nterm; k++ {
			a.Set(t, k+1, x[t][k])
		}
	}

	var qr mat.QR
	qr.Factorize(a)
	if c := qr.Cond(); math.IsNaN(c) || c > MaxCondition {
		return 0, nil, fmt.Errorf("%w: condition number %g", ErrSingular, c)
	}

	var beta mat.VecDense
	if err := qr.SolveVecTo(&beta, false, mat.NewVecDense(npts, append([]float64(nil), y...))); err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}
	coef := make([]float64, nterm)
	for k := range coef {
		coef[k] = beta.AtVec(k + 1)
	}
	return beta.AtVec(0), coef, nil
}

// vif regresses each predictor on all the others. A predictor that the
// others explain exactly gets +Inf.
func vif(x [][]float64, nterm int) []float64 {
	out := make([]float64, nterm)
	if nterm == 1 {
		out[0] = 1
		return out
	}
	others := make([][]float64, len(x))
	target := make([]float64, len(x))
	for k := 0; k < nterm; k++ {
		for t := range x {
			row := make([]float64, 0, nterm-1)
			row = append(row, x[t][:k]...)
			row = append(row, x[t][k+1:]...)
			others[t] = row
			target[t] = x[t][k]
		}
		out[k] = auxVIF(others, target, nterm-1)
	}
	return out
}

func auxVIF(x [][]float64, y []float64, nterm int) float64 {
	tss := vector.V(y).SumSquaredDev()
	if tss == 0 {
		return math.Inf(1)
	}
	constant, coef, err := solve(x, y, nterm)
	if err != nil {
		return math.Inf(1)
	}
	m := Model{Coef: coef, Constant: constant}
	var chisq float64
	for t := range y {
		row := x[t]
		r := y[t] - m.predict(nterm, func(k int) float64 { return row[k] })
		chisq += r * r
	}
	r2 := 1 - chisq/tss
	if r2 >= 1 {
		return math.Inf(1)
	}
	return 1 / (1 - r2)
}

// PointResult is the outcome of fitting one spatial point.
type PointResult struct {
	Point  int
	Result *Result
	Err    error
}

// FitPoints fits every response series in ys against the shared predictors
// x. A failing point only records its own error.
func FitPoints(ctx context.Context, x [][]float64, ys [][]float64, workers int) []PointResult {
	if workers < 1 {
		workers = 1
	}
	results := make([]PointResult, len(ys))
	var g errgroup.Group
	g.SetLimit(workers)
	for p := range ys {
		p := p
		g.Go(func() error {
			results[p].Point = p
			if err := ctx.Err(); err != nil {
				results[p].Err = &PointError{Point: p, Stage: StageFit, Err: err}
				return nil
			}
			res, err := Fit(x, ys[p])
			if err != nil {
				results[p].Err = &PointError{Point: p, Stage: StageFit, Err: err}
				return nil
			}
			results[p].Result = res
			return nil
		})
	}
	_ = g.Wait()
	return results
}
