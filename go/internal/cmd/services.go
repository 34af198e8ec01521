package main

import (
	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/snakedraft/go/internal/draft"
	"github.com/mcdev12/snakedraft/go/internal/draft/gateway"
	"github.com/mcdev12/snakedraft/go/internal/draft/orchestrator"
	"github.com/mcdev12/snakedraft/go/internal/draft/repository"
	"github.com/mcdev12/snakedraft/go/internal/player"
)

type Services struct {
	Draft        *draft.Service
	Gateway      *gateway.Service
	Orchestrator *orchestrator.Orchestrator
}

func setupServices(repo repository.Repository, catalog *player.Catalog, config *Config) *Services {
	// Repository → App → Service, with the gateway and orchestrator
	// listening on the App's committed events.
	clk := clockwork.NewRealClock()
	draftApp := draft.NewApp(repo, catalog, clk)

	gatewayService := gateway.NewService(gateway.DefaultConfig(), draftApp)
	draftApp.AddNotifier(gatewayService.Manager())

	orch := orchestrator.New(draftApp, repo, clk, config.orchestratorConfig())
	draftApp.AddNotifier(orch)

	return &Services{
		Draft:        draft.NewService(draftApp, config.Server.CommissionerKey),
		Gateway:      gatewayService,
		Orchestrator: orch,
	}
}
