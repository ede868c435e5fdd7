package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/prospecta/leadgen-cli/internal/dedup"
	"github.com/prospecta/leadgen-cli/internal/enrich"
	"github.com/prospecta/leadgen-cli/internal/identity"
	"github.com/prospecta/leadgen-cli/internal/search"
	"github.com/prospecta/leadgen-cli/internal/store"
	"github.com/prospecta/leadgen-cli/pkg/apify"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "leadgen.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initMarkers() identity.Markers {
	if len(cfg.Search.GenericNames) == 0 {
		return identity.DefaultMarkers()
	}
	return identity.NewMarkers(cfg.Search.GenericNames...)
}

func initGate(st store.Store) *dedup.Gate {
	return dedup.NewGate(st, initMarkers())
}

func initOrchestrator() *search.Orchestrator {
	client := apify.NewClient(cfg.Apify.Token,
		apify.WithBaseURL(cfg.Apify.BaseURL),
		apify.WithActor(cfg.Apify.Actor),
	)
	resolver := enrich.NewResolver(enrich.Options{
		Timeout:            time.Duration(cfg.Enrich.TimeoutMs) * time.Millisecond,
		UserAgent:          cfg.Enrich.UserAgent,
		PlaceholderDomains: cfg.Enrich.PlaceholderDomains,
		RatePerSec:         cfg.Enrich.RatePerSec,
	})
	return search.NewOrchestrator(client, resolver, search.Options{
		Credential:        cfg.Apify.Token,
		Region:            cfg.Search.Region,
		Keywords:          cfg.Search.Keywords,
		EnrichConcurrency: cfg.Search.EnrichConcurrency,
		PollInterval:      time.Duration(cfg.Search.PollIntervalSecs) * time.Second,
		PollTimeout:       time.Duration(cfg.Search.PollTimeoutSecs) * time.Second,
	})
}
