package regime

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/go-sod/regime/internal/geom"
	"github.com/go-sod/regime/internal/logging"
	"github.com/go-sod/regime/internal/observability"
	"github.com/go-sod/regime/pkg/rworker"
)

// Selection is the representative partition of an ensemble of attempts.
type Selection struct {
	Partition Partition
	// index of the chosen attempt
	Index int
	// mean bottleneck distance of every attempt to all the others
	Scores []float64
	// fewest iterations any attempt needed
	Iterations int
	// attempts that hit the iteration cap
	Unconverged int
	BaseSeed    uint32
}

type Option func(*Selector)

func WithClock(clock clockwork.Clock) Option {
	return func(s *Selector) {
		s.clock = clock
	}
}

func WithMetrics(m *observability.Metrics) Option {
	return func(s *Selector) {
		s.metrics = m
	}
}

// Selector runs npart clustering attempts and keeps the one closest to all
// the others.
type Selector struct {
	cfg     Config
	clock   clockwork.Clock
	metrics *observability.Metrics
}

func NewSelector(cfg Config, opts ...Option) (*Selector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Selector{cfg: cfg, clock: clockwork.NewRealClock()}
	for _, f := range opts {
		f(s)
	}
	if s.metrics == nil {
		s.metrics = observability.NewMetricsForTesting()
	}
	return s, nil
}

// BaseSeed is the configured seed, or one derived from the clock when the
// configuration leaves it at zero.
func (s *Selector) BaseSeed() uint32 {
	if s.cfg.Seed != 0 {
		return s.cfg.Seed
	}
	now := uint64(s.clock.Now().UnixNano())
	return uint32(now ^ (now >> 32))
}

func (s *Selector) Select(ctx context.Context, pcs geom.Points) (*Selection, error) {
	logger := logging.FromContext(ctx)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := validatePCs(pcs, 0); err != nil {
		return nil, err
	}

	start := s.clock.Now()
	defer func() {
		s.metrics.SelectionDuration.Observe(s.clock.Since(start).Seconds())
	}()

	base := s.BaseSeed()
	candidates, iterations, err := s.generate(pcs, base)
	if err != nil {
		return nil, err
	}

	selection := &Selection{BaseSeed: base, Iterations: math.MaxInt}
	for i, n := range iterations {
		if n < selection.Iterations {
			selection.Iterations = n
		}
		if n >= s.cfg.NClassif {
			selection.Unconverged++
			logger.Debugw("clustering attempt did not converge", "attempt", i, "iterations", n)
		}
	}
	if selection.Unconverged > 0 {
		s.metrics.UnconvergedRuns.Add(float64(selection.Unconverged))
		logger.Warnf("%d of %d clustering attempts reached %d iterations without converging",
			selection.Unconverged, s.cfg.NPart, s.cfg.NClassif)
	}

	idx, scores, err := SelectRepresentative(candidates, s.cfg.workers())
	if err != nil {
		return nil, err
	}
	selection.Index = idx
	selection.Scores = scores
	selection.Partition = candidates[idx].Clone()

	logger.Infow("representative partition selected",
		"attempt", idx,
		"score", scores[idx],
		"minIterations", selection.Iterations,
		"baseSeed", base,
	)
	return selection, nil
}

// generate runs the attempts concurrently. Attempt i is seeded with base+i
// so the ensemble does not depend on the worker count.
func (s *Selector) generate(pcs geom.Points, base uint32) ([]Partition, []int, error) {
	var wg sync.WaitGroup
	candidates := make([]Partition, s.cfg.NPart)
	iterations := make([]int, s.cfg.NPart)
	rate := make(chan struct{}, s.cfg.workers())
	errCh := make(chan error, s.cfg.NPart)

	for i := 0; i < s.cfg.NPart; i++ {
		rworker.Job(&wg, i, func(idx int) error {
			gen, err := NewGenerator(s.cfg.NCluster, s.cfg.NClassif, s.cfg.DistanceType, NewRng(base+uint32(idx)))
			if err != nil {
				return err
			}
			partition, n, err := gen.Generate(pcs)
			if err != nil {
				return err
			}
			candidates[idx] = partition
			iterations[idx] = n
			s.metrics.GeneratorRuns.Inc()
			s.metrics.GeneratorIterations.Observe(float64(n))
			return nil
		}, rate, errCh)
	}
	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		var taskErr *rworker.TaskError
		if errors.As(err, &taskErr) {
			err = fmt.Errorf("partition attempt %d: %w", taskErr.Index, taskErr.Err)
		}
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return nil, nil, errors.Join(errs...)
	}
	return candidates, iterations, nil
}

// SelectRepresentative returns the index of the candidate with the smallest
// mean bottleneck distance to every other candidate, along with all scores.
// Equal scores go to the lexicographically smallest partition, then to the
// lowest index.
func SelectRepresentative(candidates []Partition, workers int) (int, []float64, error) {
	n := len(candidates)
	if n < 2 {
		return -1, nil, fmt.Errorf("%w: at least 2 partitions are needed, got %d", ErrConfig, n)
	}
	if workers < 1 {
		workers = 1
	}

	scores := make([]float64, n)
	var g errgroup.Group
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			dists := make([]float64, 0, n-1)
			for j := 0; j < n; j++ {
				if j == i {
					continue
				}
				d, err := Bottleneck(candidates[i], candidates[j])
				if err != nil {
					return fmt.Errorf("partitions %d and %d: %w", i, j, err)
				}
				dists = append(dists, d)
			}
			// summed in sorted order so the score does not depend on
			// where the other candidates sit in the slice
			sort.Float64s(dists)
			var sum float64
			for _, d := range dists {
				sum += d
			}
			scores[i] = sum / float64(n-1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return -1, nil, err
	}

	best := -1
	minScore := math.Inf(1)
	for i, score := range scores {
		if score < minScore || (score == minScore && best >= 0 && candidates[i].less(candidates[best])) {
			minScore = score
			best = i
		}
	}
	if best < 0 {
		return -1, scores, ErrNoRepresentative
	}
	return best, scores, nil
}

// Bottleneck is the largest distance from a centroid of a to its closest
// centroid in b.
func Bottleneck(a, b Partition) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, ErrNoCentroid
	}
	var worst float64
	for _, ca := range a {
		closest := math.Inf(1)
		for _, cb := range b {
			d, err := geom.EuclideanDistance(ca, cb)
			if err != nil {
				return 0, err
			}
			if d < closest {
				closest = d
			}
		}
		if closest > worst {
			worst = closest
		}
	}
	return worst, nil
}
