package main

import (
	"fmt"
	"math/rand/v2"

	"github.com/BurntSushi/toml"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/go-sod/regime/internal/downscale"
	"github.com/go-sod/regime/internal/geom"
	"github.com/go-sod/regime/pkg/math/vector"
)

// Scenario describes a synthetic climate: days scattered around a few
// regime centers in EOF space and a local field linear in the first two PCs.
type Scenario struct {
	Season         string      `toml:"season"`
	Seed           uint64      `toml:"seed"`
	LearningDays   int         `toml:"learning_days"`
	ControlDays    int         `toml:"control_days"`
	ProjectionDays int         `toml:"projection_days"`
	Points         int         `toml:"points"`
	Spread         float64     `toml:"spread"`
	Noise          float64     `toml:"noise"`
	Shift          float64     `toml:"shift"`
	Centers        [][]float64 `toml:"centers"`
}

func DefaultScenario() Scenario {
	return Scenario{
		Season:         "DJF",
		Seed:           1,
		LearningDays:   720,
		ControlDays:    720,
		ProjectionDays: 360,
		Points:         16,
		Spread:         1,
		Noise:          0.3,
		Shift:          0.5,
		Centers: [][]float64{
			{4, 0, 0, 0},
			{-4, 2, 0, 0},
			{0, -3, 3, 0},
			{0, 0, -3, 2},
		},
	}
}

// LoadScenario overlays the TOML file at path on the default scenario.
func LoadScenario(path string) (Scenario, error) {
	s := DefaultScenario()
	if path == "" {
		return s, nil
	}
	if _, err := toml.DecodeFile(path, &s); err != nil {
		return Scenario{}, fmt.Errorf("decode scenario %s: %w", path, err)
	}
	return s, s.validate()
}

func (s Scenario) validate() error {
	if len(s.Centers) == 0 {
		return fmt.Errorf("scenario: no regime centers")
	}
	neof := len(s.Centers[0])
	if neof < 2 {
		return fmt.Errorf("scenario: centers need at least 2 EOFs, got %d", neof)
	}
	for i, c := range s.Centers {
		if len(c) != neof {
			return fmt.Errorf("scenario: center %d has %d EOFs, want %d", i, len(c), neof)
		}
	}
	if s.LearningDays < 2 || s.ControlDays < 2 || s.ProjectionDays < 1 || s.Points < 1 {
		return fmt.Errorf("scenario: not enough days or points")
	}
	return nil
}

// Synthetic is one generated scenario with the true projection field.
type Synthetic struct {
	Learning   downscale.LearningInput
	Projection downscale.ProjectionInput
	Truth      [][]float64
}

type generator struct {
	s     Scenario
	r     *rand.Rand
	noise distuv.Normal
	// per point: constant, PC1 and PC2 weights
	weights [][3]float64
}

func (s Scenario) Generate() Synthetic {
	src := rand.NewPCG(s.Seed, s.Seed^0x9e3779b97f4a7c15)
	g := &generator{
		s:     s,
		r:     rand.New(src),
		noise: distuv.Normal{Mu: 0, Sigma: 1, Src: src},
	}
	g.weights = make([][3]float64, s.Points)
	for p := range g.weights {
		g.weights[p] = [3]float64{10 * g.r.Float64(), 2*g.r.Float64() - 1, 2*g.r.Float64() - 1}
	}

	learning := g.pcs(s.LearningDays, 0)
	control := g.pcs(s.ControlDays, 0)
	projection := g.pcs(s.ProjectionDays, s.Shift)
	return Synthetic{
		Learning: downscale.LearningInput{
			Season:          s.Season,
			PCs:             learning,
			Variance:        variances(learning),
			Control:         control,
			ControlVariance: variances(control),
			Observed:        g.field(learning, s.Noise),
		},
		Projection: downscale.ProjectionInput{
			PCs:      projection,
			Variance: variances(projection),
		},
		Truth: g.field(projection, 0),
	}
}

func (g *generator) pcs(ndays int, shift float64) geom.Points {
	pcs := make(geom.Points, ndays)
	for t := range pcs {
		c := g.s.Centers[g.r.IntN(len(g.s.Centers))]
		p := make(geom.Point, len(c))
		for e := range c {
			p[e] = c[e] + shift + g.s.Spread*g.noise.Rand()
		}
		pcs[t] = p
	}
	return pcs
}

func (g *generator) field(pcs geom.Points, noise float64) [][]float64 {
	out := make([][]float64, len(g.weights))
	for p, w := range g.weights {
		out[p] = make([]float64, len(pcs))
		for t, pc := range pcs {
			out[p][t] = w[0] + w[1]*pc[0] + w[2]*pc[1] + noise*g.noise.Rand()
		}
	}
	return out
}

func variances(pcs geom.Points) []float64 {
	_, neof, _ := pcs.Dims()
	out := make([]float64, neof)
	for e := range out {
		_, out[e] = vector.V(pcs.Column(e)).MeanVariance()
	}
	return out
}
