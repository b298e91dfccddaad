// Package downscale chains the regime engine into a learning step, which fits
// per-point regressions on regime distances, and a projection step, which
// reconstructs the local field for any other period.
package downscale

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/go-sod/regime/internal/geom"
	"github.com/go-sod/regime/internal/logging"
	"github.com/go-sod/regime/internal/normalize"
	"github.com/go-sod/regime/internal/observability"
	"github.com/go-sod/regime/internal/regime"
	regimeDb "github.com/go-sod/regime/internal/regime/database"
	"github.com/go-sod/regime/internal/regression"
)

var (
	ErrInput        = errors.New("invalid downscaling input")
	ErrAllFailed    = errors.New("regression failed at every point")
	ErrNotPersisted = errors.New("no store configured")
)

type PartitionStore interface {
	SavePartition(ctx context.Context, rec regimeDb.Record) error
	LoadPartition(ctx context.Context, id uuid.UUID, season string) (*regimeDb.Record, error)
}

type ModelStore interface {
	SaveModels(ctx context.Context, id uuid.UUID, season string, models []*regression.Model) error
	LoadModels(ctx context.Context, id uuid.UUID, season string) ([]*regression.Model, error)
}

// LearningInput is everything needed to learn one season.
type LearningInput struct {
	Season string
	// learning-period PCs [ndays][neof] and their per-EOF variances
	PCs      geom.Points
	Variance []float64
	// control-period PCs and variances used to calibrate distances
	Control         geom.Points
	ControlVariance []float64
	// observed local field [npoints][ndays]
	Observed [][]float64
	// supplemental predictor [ndays], required when configured
	Extra []float64
}

// Learned is the fitted state of one season.
type Learned struct {
	ID               uuid.UUID
	Season           string
	CreatedAt        time.Time
	Partition        regime.Partition
	BaseSeed         uint32
	Iterations       int
	Assignment       regime.Assignment
	Frequency        []int
	Stats            normalize.Stats
	LearningVariance []float64
	Extra            bool
	// per point, nil where the fit failed
	Models []*regression.Model
	// per point diagnostics, empty for a restored run
	Fits []regression.PointResult
}

// FailedPoints lists the points without a model.
func (l *Learned) FailedPoints() []int {
	var points []int
	for p, m := range l.Models {
		if m == nil {
			points = append(points, p)
		}
	}
	return points
}

// ProjectionInput is a period to downscale.
type ProjectionInput struct {
	PCs      geom.Points
	Variance []float64
	Extra    []float64
}

// Projection is the downscaled field of one period.
type Projection struct {
	// [npoints][ntime], nil rows for failed points
	Field      [][]float64
	Distances  [][]float64
	Assignment regime.Assignment
	Failed     []int
}

type Option func(*Engine)

func WithClock(clock clockwork.Clock) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

func WithPartitionStore(s PartitionStore) Option {
	return func(e *Engine) {
		e.partitions = s
	}
}

func WithModelStore(s ModelStore) Option {
	return func(e *Engine) {
		e.models = s
	}
}

type Engine struct {
	cfg        Config
	clock      clockwork.Clock
	metrics    *observability.Metrics
	selector   *regime.Selector
	partitions PartitionStore
	models     ModelStore
}

func NewEngine(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{cfg: cfg, clock: clockwork.NewRealClock()}
	for _, f := range opts {
		f(e)
	}
	if e.metrics == nil {
		e.metrics = observability.NewMetricsForTesting()
	}
	selector, err := regime.NewSelector(cfg.Regime, regime.WithClock(e.clock), regime.WithMetrics(e.metrics))
	if err != nil {
		return nil, err
	}
	e.selector = selector
	return e, nil
}

// Learn selects the regimes of the learning period, calibrates distances on
// the control period and fits every point.
func (e *Engine) Learn(ctx context.Context, in LearningInput) (*Learned, error) {
	logger := logging.FromContext(ctx).With("season", in.Season)
	if err := e.checkLearningInput(in); err != nil {
		return nil, err
	}

	selection, err := e.selector.Select(ctx, in.PCs)
	if err != nil {
		return nil, fmt.Errorf("select partition: %w", err)
	}
	partition := selection.Partition

	assignment, err := regime.ClassifyDays(in.PCs, partition, e.cfg.Regime.DistanceType)
	if err != nil {
		return nil, fmt.Errorf("classify learning days: %w", err)
	}
	freq := regime.Frequency(assignment, len(partition))
	for c, n := range freq {
		if n == 0 {
			logger.Warnw("regime has no learning days, its centroid is the zero vector", "cluster", c)
		}
	}

	stats, err := normalize.ComputeControlStatistics(in.Control, partition, in.Variance, in.ControlVariance)
	if err != nil {
		return nil, fmt.Errorf("control statistics: %w", err)
	}
	dist, err := normalize.NormalizeDistances(in.PCs, partition,
		normalize.Variances{PC: in.Variance, Centroid: in.Variance}, stats)
	if err != nil {
		return nil, fmt.Errorf("normalize learning distances: %w", err)
	}

	fits := regression.FitPoints(ctx, predictors(dist, in.Extra), in.Observed, e.cfg.workers())
	learned := &Learned{
		ID:               uuid.New(),
		Season:           in.Season,
		CreatedAt:        e.clock.Now(),
		Partition:        partition,
		BaseSeed:         selection.BaseSeed,
		Iterations:       selection.Iterations,
		Assignment:       assignment,
		Frequency:        freq,
		Stats:            stats,
		LearningVariance: append([]float64(nil), in.Variance...),
		Extra:            e.cfg.ExtraPredictor,
		Models:           make([]*regression.Model, len(fits)),
		Fits:             fits,
	}
	e.report(ctx, learned)
	if len(fits) > 0 && len(learned.FailedPoints()) == len(fits) {
		return nil, fmt.Errorf("%w: first error: %v", ErrAllFailed, fits[0].Err)
	}

	if err := e.save(ctx, learned); err != nil && !errors.Is(err, ErrNotPersisted) {
		return nil, err
	}
	logger.Infow("season learned",
		"run", learned.ID,
		"points", len(fits),
		"failed", len(learned.FailedPoints()),
		"frequency", freq,
	)
	return learned, nil
}

// report copies fitted models into learned and logs per-point failures and
// diagnostics.
func (e *Engine) report(ctx context.Context, learned *Learned) {
	logger := logging.FromContext(ctx).With("season", learned.Season)
	for p, fit := range learned.Fits {
		if fit.Err != nil {
			e.metrics.PointFailures.WithLabelValues(regression.StageFit).Inc()
			logger.Errorw("regression failed", "point", p, "error", fit.Err)
			continue
		}
		e.metrics.PointsFitted.Inc()
		model := fit.Result.Model
		learned.Models[p] = &model
		for k, v := range fit.Result.VIF {
			if v > e.cfg.VIFWarning {
				e.metrics.HighVIF.Inc()
				logger.Debugw("collinear predictor", "point", p, "predictor", k, "vif", v)
			}
		}
	}
}

func (e *Engine) save(ctx context.Context, learned *Learned) error {
	if e.partitions == nil || e.models == nil {
		return ErrNotPersisted
	}
	if err := e.partitions.SavePartition(ctx, regimeDb.Record{
		ID:               learned.ID,
		Season:           learned.Season,
		Partition:        learned.Partition,
		LearningVariance: learned.LearningVariance,
		Stats:            learned.Stats,
		BaseSeed:         learned.BaseSeed,
		Iterations:       learned.Iterations,
		Extra:            learned.Extra,
	}); err != nil {
		return fmt.Errorf("save partition: %w", err)
	}
	if err := e.models.SaveModels(ctx, learned.ID, learned.Season, learned.Models); err != nil {
		return fmt.Errorf("save models: %w", err)
	}
	return nil
}

// Restore loads a previously learned season from the stores.
func (e *Engine) Restore(ctx context.Context, id uuid.UUID, season string) (*Learned, error) {
	if e.partitions == nil || e.models == nil {
		return nil, ErrNotPersisted
	}
	rec, err := e.partitions.LoadPartition(ctx, id, season)
	if err != nil {
		return nil, err
	}
	models, err := e.models.LoadModels(ctx, id, season)
	if err != nil {
		return nil, err
	}
	return &Learned{
		ID:               id,
		Season:           season,
		Partition:        rec.Partition,
		BaseSeed:         rec.BaseSeed,
		Iterations:       rec.Iterations,
		Stats:            rec.Stats,
		LearningVariance: rec.LearningVariance,
		Extra:            rec.Extra,
		Models:           models,
	}, nil
}

// Project downscales a period with a learned season. Points without a model
// or whose reconstruction fails are listed in Failed.
func (e *Engine) Project(ctx context.Context, learned *Learned, in ProjectionInput) (*Projection, error) {
	logger := logging.FromContext(ctx).With("season", learned.Season)
	if learned.Extra != (in.Extra != nil) {
		return nil, fmt.Errorf("%w: model extra predictor=%v, input extra predictor=%v", ErrInput, learned.Extra, in.Extra != nil)
	}

	dist, err := normalize.NormalizeDistances(in.PCs, learned.Partition,
		normalize.Variances{PC: in.Variance, Centroid: learned.LearningVariance}, learned.Stats)
	if err != nil {
		return nil, fmt.Errorf("normalize projection distances: %w", err)
	}
	assignment, err := regime.ClassifyDays(in.PCs, learned.Partition, e.cfg.Regime.DistanceType)
	if err != nil {
		return nil, fmt.Errorf("classify projection days: %w", err)
	}

	field, err := regression.ReconstructField(ctx, learned.Models, dist, in.Extra, e.cfg.workers())
	failed := regression.FailedPoints(err)
	if len(failed) > 0 {
		e.metrics.PointFailures.WithLabelValues(regression.StageReconstruct).Add(float64(len(failed)))
		logger.Warnw("reconstruction failed", "points", failed, "error", err)
	}
	return &Projection{Field: field, Distances: dist, Assignment: assignment, Failed: failed}, nil
}

func (e *Engine) checkLearningInput(in LearningInput) error {
	ndays := len(in.PCs)
	if ndays == 0 {
		return fmt.Errorf("%w: no learning days", ErrInput)
	}
	if e.cfg.ExtraPredictor != (in.Extra != nil) {
		return fmt.Errorf("%w: extra predictor configured=%v, supplied=%v", ErrInput, e.cfg.ExtraPredictor, in.Extra != nil)
	}
	if in.Extra != nil && len(in.Extra) != ndays {
		return fmt.Errorf("%w: %d extra values for %d days", ErrInput, len(in.Extra), ndays)
	}
	if len(in.Observed) == 0 {
		return fmt.Errorf("%w: no observation points", ErrInput)
	}
	for p := range in.Observed {
		if len(in.Observed[p]) != ndays {
			return fmt.Errorf("%w: point %d has %d observations for %d days", ErrInput, p, len(in.Observed[p]), ndays)
		}
	}
	return nil
}

// predictors appends the extra index, when present, as the last column.
func predictors(dist [][]float64, extra []float64) [][]float64 {
	if extra == nil {
		return dist
	}
	x := make([][]float64, len(dist))
	for t := range dist {
		row := make([]float64, len(dist[t])+1)
		copy(row, dist[t])
		row[len(dist[t])] = extra[t]
		x[t] = row
	}
	return x
}
