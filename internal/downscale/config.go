package downscale

import (
	"fmt"

	"github.com/go-sod/regime/internal/regime"
)

type Config struct {
	Regime regime.Config
	// workers for per-point regression and reconstruction
	Workers int `envconfig:"DOWNSCALE_WORKERS" default:"4"`
	// VIF above which a predictor is reported as collinear
	VIFWarning float64 `envconfig:"DOWNSCALE_VIF_WARNING" default:"10"`
	// append one supplemental large-scale index as the last predictor
	ExtraPredictor bool `envconfig:"DOWNSCALE_EXTRA_PREDICTOR" default:"false"`
}

func (c Config) Validate() error {
	if err := c.Regime.Validate(); err != nil {
		return err
	}
	if c.VIFWarning < 0 {
		return fmt.Errorf("%w: negative VIF warning threshold %g", regime.ErrConfig, c.VIFWarning)
	}
	return nil
}

func (c Config) workers() int {
	if c.Workers < 1 {
		return 1
	}
	return c.Workers
}
