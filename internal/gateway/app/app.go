package app

import (
	"context"
	"errors"
	"fmt"

	"repo2pipe/internal/analyzer"
	"repo2pipe/internal/config"
	"repo2pipe/internal/gateway/handler"
	"repo2pipe/internal/gateway/server"
	"repo2pipe/internal/repo"
	"repo2pipe/internal/results"
)

type App struct {
	server      *server.Server
	closeStores func() error
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Dependencies
	store, closeStores, err := results.Open(ctx, cfg.Results)
	if err != nil {
		return nil, fmt.Errorf("failed to open result store: %w", err)
	}
	resultSvc := results.NewService(store)

	provider := repo.NewProvider(cfg.WorkDir, cfg.DefaultBranch, cfg.CloneDepth)
	provider.RemoteOnly = !cfg.GatewayAllowLocal
	orch := analyzer.New(analyzer.RepoProvider{Provider: provider})
	orch.Store = resultSvc

	svc := handler.NewService(orch, resultSvc, cfg.MaxConcurrentRuns)

	// Routing & Server
	srv := server.New(cfg.Port, svc.Routes())

	return &App{
		server:      srv,
		closeStores: closeStores,
	}, nil
}

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	return errors.Join(a.server.Shutdown(ctx), a.closeStores())
}
