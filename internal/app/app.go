package app

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/vk/probegrid/internal/collab"
	"github.com/vk/probegrid/internal/collab/incidentapi"
	"github.com/vk/probegrid/internal/collab/membus"
	"github.com/vk/probegrid/internal/collab/redisbus"
	"github.com/vk/probegrid/internal/collab/webhookhub"
	"github.com/vk/probegrid/internal/executor"
	"github.com/vk/probegrid/internal/metrics"
	"github.com/vk/probegrid/internal/registry"
	"github.com/vk/probegrid/modules/comparator"
	"github.com/vk/probegrid/modules/flowctl"
	"github.com/vk/probegrid/modules/incident"
	"github.com/vk/probegrid/modules/pubsub"
	"github.com/vk/probegrid/modules/restcheck"
	"github.com/vk/probegrid/modules/webhook"
)

// App encapsulates one application instance: its logger, configuration,
// collaborator adapters, registry, and executor.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	env      *Env
	registry *registry.Registry
	executor *executor.Executor
	hub      *webhookhub.Hub
}

// NewApp constructs a fully wired App: collaborators are chosen from the
// environment (Redis bus when PROBEGRID_REDIS_ADDR is set, in-memory bus
// otherwise; incident API only when its URL is set), and all node-handler
// modules are registered.
func NewApp(outW io.Writer, config *Config) (*App, error) {
	logger := newLogger(config.LogLevel, config.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	envCfg, err := ParseEnv()
	if err != nil {
		return nil, fmt.Errorf("parsing environment configuration: %w", err)
	}

	var bus collab.MessageBus
	if envCfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     envCfg.RedisAddr,
			Password: envCfg.RedisPassword,
			DB:       envCfg.RedisDB,
		})
		bus = redisbus.NewBus(client)
		logger.Debug("Using Redis message bus.", "addr", envCfg.RedisAddr)
	} else {
		bus = membus.NewBus()
		logger.Debug("Using in-memory message bus.")
	}

	hub := webhookhub.NewHub(logger)

	var incidents collab.IncidentService
	if envCfg.IncidentAPIURL != "" {
		incidents = incidentapi.NewClient(envCfg.IncidentAPIURL, nil)
		logger.Debug("Incident pipeline enabled.", "url", envCfg.IncidentAPIURL)
	} else {
		logger.Warn("No incident API configured; failures will not open incidents.")
	}

	reg := registry.New()
	coreModules := []registry.Module{
		&pubsub.Module{Bus: bus},
		&restcheck.Module{},
		&webhook.Module{Hub: hub},
		&comparator.Module{},
		&incident.Module{Service: incidents},
		&flowctl.Module{},
	}
	for _, mod := range coreModules {
		mod.Register(reg)
	}
	logger.Debug("All node-handler modules registered.", "count", len(coreModules), "types", len(reg.Types()))

	collector := metrics.NewCollector(prometheus.DefaultRegisterer)

	return &App{
		outW:     outW,
		logger:   logger,
		config:   config,
		env:      envCfg,
		registry: reg,
		executor: executor.New(reg, incidents, collector),
		hub:      hub,
	}, nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}
