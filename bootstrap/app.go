package bootstrap

import (
	"context"
	"insightai_backend/config"
	"insightai_backend/pkg/logging"
)

type App struct {
	Cfg            *config.Config
	Infrastructure *Infrastructure
	Repositories   *Repositories
	Services       *Services
	Handlers       *Handlers

	workerCancel context.CancelFunc
}

func NewApp(cfg *config.Config) (*App, error) {
	app := &App{Cfg: cfg}
	infra, err := NewInfrastructure(cfg)
	if err != nil {
		logging.Logger.Error("fail NewInfrastructure", "error", err)
		return nil, err
	}
	app.Infrastructure = infra

	// repos
	repos := NewRepositories(infra.DB)
	app.Repositories = repos

	// services
	services := NewServices(cfg, repos, infra)
	app.Services = services

	handlers := NewHandlers(services, infra)
	app.Handlers = handlers

	return app, nil
}

// StartWorkers launches the transcription continuation worker and the
// upload-session janitor. Both stop when Shutdown is called.
func (a *App) StartWorkers() {
	ctx, cancel := context.WithCancel(context.Background())
	a.workerCancel = cancel
	go a.Services.Worker.Run(ctx)
	go a.Services.Worker.RunSessionJanitor(ctx)
}

// Shutdown stops workers and closes infra
func (a *App) Shutdown() error {
	if a == nil {
		return nil
	}
	if a.workerCancel != nil {
		a.workerCancel()
	}
	if a.Infrastructure != nil {
		if err := a.Infrastructure.Shutdown(); err != nil {
			return err
		}
	}
	return nil
}
