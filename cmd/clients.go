package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/vnbizdata/collector-cli/internal/collector"
	"github.com/vnbizdata/collector-cli/internal/profile"
	"github.com/vnbizdata/collector-cli/internal/reconcile"
	"github.com/vnbizdata/collector-cli/internal/registry"
	"github.com/vnbizdata/collector-cli/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "collector.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initOrchestrator(st store.Store) *collector.Orchestrator {
	regClient := registry.NewClient(
		registry.WithBaseURL(cfg.Registry.BaseURL),
		registry.WithUserAgent(cfg.Registry.UserAgent),
		registry.WithTimeout(cfg.Registry.Timeout()),
		registry.WithRateLimit(cfg.Registry.RatePerSec),
		registry.WithPageSize(cfg.Registry.PageSize),
		registry.WithMaxRetries(cfg.Registry.MaxRetries),
	)

	markers := profile.DefaultMarkers()
	if cfg.Profile.MarkersPath != "" {
		m, err := profile.LoadMarkers(cfg.Profile.MarkersPath)
		if err != nil {
			zap.L().Warn("loading extraction markers failed, using defaults", zap.Error(err))
		} else {
			markers = m
		}
	}
	profClient := profile.NewClient(
		profile.WithBaseURL(cfg.Profile.BaseURL),
		profile.WithUserAgent(cfg.Profile.UserAgent),
		profile.WithTimeout(cfg.Profile.Timeout()),
		profile.WithMinInterval(cfg.Profile.MinInterval()),
		profile.WithMarkers(markers),
	)

	strategy := reconcile.DefaultStrategy()
	if cfg.Collect.RepresentativePrecedence == string(reconcile.PrecedencePrimary) {
		strategy.RepresentativePrecedence = reconcile.PrecedencePrimary
	}

	orch := collector.New(regClient, profClient, st).WithStrategy(strategy)
	orch.Concurrency = cfg.Collect.Concurrency
	orch.LookupAttempts = cfg.Collect.LookupAttempts
	return orch
}
