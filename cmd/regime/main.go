package main

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/prometheus/common/expfmt"

	"github.com/go-sod/regime/internal/buildinfo"
	"github.com/go-sod/regime/internal/config"
	"github.com/go-sod/regime/internal/logging"
	"github.com/go-sod/regime/internal/setup"
	"github.com/go-sod/regime/internal/shutdown"
	"github.com/go-sod/regime/internal/srvenv"
)

type Config struct {
	config.Config
	Scenario    string `envconfig:"REGIME_SCENARIO"`
	DumpMetrics bool   `envconfig:"REGIME_DUMP_METRICS" default:"false"`
}

func main() {
	_, _ = fmt.Fprint(os.Stdout, buildinfo.Graffiti)
	_, _ = fmt.Fprintf(
		os.Stdout,
		"%s: %s, %s\n",
		buildinfo.Info.Name(),
		buildinfo.Info.Time(),
		buildinfo.Info.Tag(),
	)

	ctx, done := shutdown.New()
	defer done()
	logger := logging.FromContext(ctx)
	if err := run(ctx); err != nil {
		logger.Fatal(err)
	}
}

func run(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	cfg := Config{}
	env, err := setup.Setup(ctx, &cfg)
	if err != nil {
		return fmt.Errorf("setup.Setup: %w", err)
	}
	defer func() {
		if err := env.Close(ctx); err != nil {
			logger.Errorf("env.Close: %v", err)
		}
	}()

	scenario, err := LoadScenario(cfg.Scenario)
	if err != nil {
		return err
	}
	synthetic := scenario.Generate()

	engine := env.Engine()
	learned, err := engine.Learn(ctx, synthetic.Learning)
	if err != nil {
		return fmt.Errorf("engine.Learn: %w", err)
	}
	if models := env.Models(); models != nil {
		n, err := models.CountByRun(ctx, learned.ID, learned.Season)
		if err != nil {
			return fmt.Errorf("models.CountByRun: %w", err)
		}
		logger.Infow("models stored", "run", learned.ID, "season", learned.Season, "count", n)
		if learned, err = engine.Restore(ctx, learned.ID, learned.Season); err != nil {
			return fmt.Errorf("engine.Restore: %w", err)
		}
	}

	projection, err := engine.Project(ctx, learned, synthetic.Projection)
	if err != nil {
		return fmt.Errorf("engine.Project: %w", err)
	}
	for p, row := range projection.Field {
		if row == nil {
			continue
		}
		logger.Infow("point projected", "point", p, "rmse", rmse(row, synthetic.Truth[p]))
	}

	if cfg.DumpMetrics {
		return dumpMetrics(env)
	}
	return nil
}

func rmse(got, want []float64) float64 {
	var sum float64
	for t := range got {
		d := got[t] - want[t]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(got)))
}

func dumpMetrics(env *srvenv.SrvEnv) error {
	families, err := env.Registry().Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(os.Stdout, mf); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}
