package config

import (
	"github.com/go-sod/regime/internal/database"
	"github.com/go-sod/regime/internal/downscale"
	"github.com/go-sod/regime/internal/setup"
)

var (
	_ setup.DownscaleConfigProvider = (*Config)(nil)
	_ setup.DatabaseConfigProvider  = (*Config)(nil)
)

type Config struct {
	Persist   bool `envconfig:"REGIME_PERSIST" default:"true"`
	Downscale downscale.Config
	Database  database.Config
}

func (c *Config) DownscaleConfig() *downscale.Config {
	return &c.Downscale
}

func (c *Config) DatabaseConfig() *database.Config {
	return &c.Database
}

func (c *Config) PersistEnabled() bool {
	return c.Persist
}
