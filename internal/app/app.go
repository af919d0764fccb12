// Package app wires the process-wide dependencies: the graph client, the LLM
// provider, the ingestion engine, and the QA pipeline. Initialization is
// once-guarded so calling Init twice performs work exactly once, and Close
// tears down in reverse order on every exit path.
package app

import (
	"context"
	"log/slog"
	"sync"

	"github.com/teakb/teakb/internal/config"
	"github.com/teakb/teakb/internal/graph"
	"github.com/teakb/teakb/internal/ingest"
	"github.com/teakb/teakb/internal/llm"
	"github.com/teakb/teakb/internal/llm/providers"
	"github.com/teakb/teakb/internal/qa"
	"github.com/teakb/teakb/internal/schema"
	"github.com/teakb/teakb/internal/server"
	"github.com/teakb/teakb/internal/types"
)

// App holds the wired application components.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	mu          sync.Mutex
	initialized bool
	closed      bool

	graphClient graph.Client
	provider    llm.Provider
	engine      *ingest.Engine
	pipeline    *qa.Pipeline
}

// New creates an unwired App. Call Init before using any component.
func New(cfg *config.Config, logger *slog.Logger) *App {
	if logger == nil {
		logger = config.NewLogger(cfg.Logging)
	}
	return &App{cfg: cfg, logger: logger}
}

// Init connects the graph store and constructs the LLM provider, the
// ingestion engine, and the QA pipeline. Safe to call multiple times; only
// the first call does work.
func (a *App) Init(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.initialized {
		return nil
	}

	client, err := graph.NewNeo4jClient(a.cfg.GraphConfig())
	if err != nil {
		return types.WrapError(types.ErrCodeInitGraphFailed,
			"failed to create graph client", err)
	}
	if err := client.Connect(ctx); err != nil {
		return types.WrapError(types.ErrCodeInitGraphFailed,
			"failed to connect to graph store", err)
	}
	a.graphClient = client

	provider, err := providers.NewProvider(a.cfg.ProviderConfig())
	if err != nil {
		closeErr := client.Close(ctx)
		if closeErr != nil {
			a.logger.Warn("graph client close failed during init rollback", "error", closeErr)
		}
		return types.WrapError(types.ErrCodeInitLLMFailed,
			"failed to create LLM provider", err)
	}
	a.provider = provider

	a.engine = ingest.NewEngine(a.graphClient, a.logger)
	a.pipeline = a.buildPipeline()

	a.initialized = true
	a.logger.Info("application initialized",
		"provider", provider.Name(), "model", a.cfg.LLM.Model)
	return nil
}

func (a *App) buildPipeline() *qa.Pipeline {
	schemaText := a.cfg.QA.SchemaDescription
	if schemaText == "" {
		schemaText = schema.Describe()
	}

	translator := qa.NewTranslator(a.provider, a.cfg.LLM.Model, schemaText, a.logger)
	executor := qa.NewExecutor(a.graphClient, a.logger)
	composer := qa.NewComposer(a.provider, a.cfg.LLM.Model, a.cfg.LLM.Temperature, a.logger)
	return qa.NewPipeline(translator, executor, composer, a.cfg.QA.Denylist, a.logger)
}

// Close releases the graph connection. Safe to call multiple times.
func (a *App) Close(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.initialized || a.closed {
		return nil
	}
	a.closed = true

	if err := a.graphClient.Close(ctx); err != nil {
		return err
	}
	a.logger.Info("application closed")
	return nil
}

// GraphClient returns the connected graph client.
func (a *App) GraphClient() graph.Client { return a.graphClient }

// Engine returns the batch ingestion engine.
func (a *App) Engine() *ingest.Engine { return a.engine }

// Pipeline returns the QA pipeline.
func (a *App) Pipeline() *qa.Pipeline { return a.pipeline }

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger { return a.logger }

// IngestOptions returns the configured batch engine options.
func (a *App) IngestOptions() ingest.Options { return a.cfg.IngestOptions() }

// ServerConfig returns the HTTP server configuration.
func (a *App) ServerConfig() server.Config {
	return server.Config{
		Address:         a.cfg.Server.Address,
		AllowedOrigins:  a.cfg.Server.AllowedOrigins,
		ReadTimeout:     a.cfg.Server.ReadTimeout,
		ShutdownTimeout: a.cfg.Server.ShutdownTimeout,
	}
}

// Health reports the health of the wired components.
func (a *App) Health(ctx context.Context) map[string]types.HealthStatus {
	a.mu.Lock()
	initialized := a.initialized
	a.mu.Unlock()

	if !initialized {
		return map[string]types.HealthStatus{
			"app": types.Unhealthy("not initialized"),
		}
	}

	return map[string]types.HealthStatus{
		"graph": a.graphClient.Health(ctx),
		"llm":   a.provider.Health(ctx),
	}
}
