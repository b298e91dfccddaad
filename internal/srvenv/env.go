package srvenv

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/go-sod/regime/internal/database"
	"github.com/go-sod/regime/internal/downscale"
	modelDb "github.com/go-sod/regime/internal/regression/database"
)

type Option func(*SrvEnv) *SrvEnv

func New(opts ...Option) *SrvEnv {
	env := &SrvEnv{}
	for _, f := range opts {
		env = f(env)
	}

	return env
}

type SrvEnv struct {
	database *database.DB
	engine   *downscale.Engine
	models   *modelDb.DB
	registry *prometheus.Registry
}

func (s *SrvEnv) Engine() *downscale.Engine {
	return s.engine
}

func (s *SrvEnv) Database() *database.DB {
	return s.database
}

// Models is nil when persistence is disabled.
func (s *SrvEnv) Models() *modelDb.DB {
	return s.models
}

func (s *SrvEnv) Registry() *prometheus.Registry {
	return s.registry
}

func WithEngine(e *downscale.Engine) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.engine = e
		return s
	}
}

func WithDatabase(db *database.DB) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.database = db
		return s
	}
}

func WithModels(m *modelDb.DB) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.models = m
		return s
	}
}

func WithRegistry(r *prometheus.Registry) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.registry = r
		return s
	}
}

func (s *SrvEnv) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}

	if s.database != nil {
		return s.database.Close(ctx)
	}
	return nil
}
