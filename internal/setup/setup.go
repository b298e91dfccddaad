package setup

import (
	"context"
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/go-sod/regime/internal/database"
	"github.com/go-sod/regime/internal/downscale"
	"github.com/go-sod/regime/internal/logging"
	"github.com/go-sod/regime/internal/observability"
	regimeDb "github.com/go-sod/regime/internal/regime/database"
	modelDb "github.com/go-sod/regime/internal/regression/database"
	"github.com/go-sod/regime/internal/srvenv"
)

type DownscaleConfigProvider interface {
	DownscaleConfig() *downscale.Config
}

type DatabaseConfigProvider interface {
	DatabaseConfig() *database.Config
	PersistEnabled() bool
}

// Setup reads config from the environment and builds the engine with its
// collaborators.
func Setup(ctx context.Context, config interface{}) (*srvenv.SrvEnv, error) {
	logger := logging.FromContext(ctx)
	if err := envconfig.Process("", config); err != nil {
		return nil, fmt.Errorf("error loading environment variables: %w", err)
	}

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetricsWithRegistry(registry)
	serverEnvOpts := []srvenv.Option{srvenv.WithRegistry(registry)}
	engineOpts := []downscale.Option{downscale.WithMetrics(metrics)}

	var db *database.DB
	if dbConfigProvider, ok := config.(DatabaseConfigProvider); ok && dbConfigProvider.PersistEnabled() {
		logger.Info("Configuring db")
		dbFromEnv, err := database.NewFromEnv(ctx, dbConfigProvider.DatabaseConfig())
		if err != nil {
			return nil, fmt.Errorf("unable to open database: %w", err)
		}
		db = dbFromEnv
		partitions := regimeDb.New(db)
		models := modelDb.New(db)
		serverEnvOpts = append(serverEnvOpts,
			srvenv.WithDatabase(db),
			srvenv.WithModels(models),
		)
		engineOpts = append(engineOpts,
			downscale.WithPartitionStore(partitions),
			downscale.WithModelStore(models),
		)
	}

	provider, ok := config.(DownscaleConfigProvider)
	if !ok {
		closeOnErr(ctx, db)
		return nil, fmt.Errorf("config does not provide downscale settings")
	}
	logger.Info("Configuring engine")
	engine, err := downscale.NewEngine(*provider.DownscaleConfig(), engineOpts...)
	if err != nil {
		closeOnErr(ctx, db)
		return nil, fmt.Errorf("unable to create engine: %w", err)
	}
	serverEnvOpts = append(serverEnvOpts, srvenv.WithEngine(engine))

	return srvenv.New(serverEnvOpts...), nil
}

func closeOnErr(ctx context.Context, db *database.DB) {
	if db == nil {
		return
	}
	if err := db.Close(ctx); err != nil {
		logging.FromContext(ctx).Errorf("close db: %v", err)
	}
}
