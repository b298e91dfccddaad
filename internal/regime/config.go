package regime

import (
	"fmt"

	"github.com/go-sod/regime/internal/geom"
)

type Config struct {
	// number of weather regimes
	NCluster int `envconfig:"REGIME_NCLUSTER" default:"9"`
	// maximum Lloyd iterations of one clustering attempt
	NClassif int `envconfig:"REGIME_NCLASSIF" default:"1000"`
	// number of clustering attempts the representative partition is chosen from
	NPart        int               `envconfig:"REGIME_NPART" default:"30"`
	DistanceType geom.DistanceType `envconfig:"REGIME_DISTANCE" default:"euclidean"`
	// base seed, attempt i uses Seed+i. Zero derives the seed from the clock.
	Seed    uint32 `envconfig:"REGIME_SEED"`
	Workers int    `envconfig:"REGIME_WORKERS" default:"4"`
}

// Validate rejects configurations before any computation starts.
func (c Config) Validate() error {
	if c.NCluster < 1 {
		return fmt.Errorf("%w: cluster count must be positive, got %d", ErrConfig, c.NCluster)
	}
	if c.NClassif < 1 {
		return fmt.Errorf("%w: iteration count must be positive, got %d", ErrConfig, c.NClassif)
	}
	if c.NPart < 2 {
		return fmt.Errorf("%w: at least 2 partitions are needed, got %d", ErrConfig, c.NPart)
	}
	if _, err := geom.DistanceFuncFor(c.DistanceType); err != nil {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}
	return nil
}

func (c Config) workers() int {
	if c.Workers < 1 {
		return 1
	}
	return c.Workers
}
