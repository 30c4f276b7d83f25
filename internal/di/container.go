package di

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/nhle/neuralmail/internal/app"
	"github.com/nhle/neuralmail/internal/assistant"
	"github.com/nhle/neuralmail/internal/bridge"
	"github.com/nhle/neuralmail/internal/categorize"
	"github.com/nhle/neuralmail/internal/credential"
	"github.com/nhle/neuralmail/internal/inference"
	"github.com/nhle/neuralmail/internal/logging"
	"github.com/nhle/neuralmail/internal/model"
	"github.com/nhle/neuralmail/internal/store"
)

// Providers supported by ai.provider.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// BuildContainer creates and configures a dependency injection container.
// configPath may be empty to use the default config location.
func BuildContainer(configPath string) (*dig.Container, error) {
	if configPath == "" {
		configPath = model.DefaultConfigPath()
	}
	container := dig.New()

	// Register configuration
	if err := container.Provide(func() (*model.AppConfig, error) {
		return model.LoadConfig(configPath)
	}); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.FromConfig); err != nil {
		return nil, err
	}

	// Register mail store
	if err := container.Provide(NewStore); err != nil {
		return nil, err
	}

	// Register password vault
	if err := container.Provide(func() app.Vault {
		return credential.NewVault()
	}); err != nil {
		return nil, err
	}

	// Register inference transport and gateway
	if err := container.Provide(NewTransport); err != nil {
		return nil, err
	}
	if err := container.Provide(NewGateway); err != nil {
		return nil, err
	}

	// Register orchestrators and the categorization worker
	if err := container.Provide(func(
		gw *inference.Gateway,
		s store.Store,
		cfg *model.AppConfig,
		logger *zap.Logger,
	) *assistant.Assistant {
		return assistant.New(gw, s, assistant.Config{
			Model:           cfg.AI.Model,
			ChatContext:     cfg.AI.ChatContext,
			ContextMessages: cfg.Chat.ContextMessages,
		}, logger)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(
		gw *inference.Gateway,
		s store.Store,
		cfg *model.AppConfig,
		logger *zap.Logger,
	) *categorize.Worker {
		return categorize.NewWorker(s, gw, categorize.Config{
			Model:     cfg.AI.Model,
			BatchSize: cfg.Worker.BatchSize,
			BodyChars: cfg.Worker.BodyChars,
		}, logger)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func() *assistant.Conversation {
		return assistant.NewConversation(0)
	}); err != nil {
		return nil, err
	}

	// Register result bridge. The relay stands in for the program, which
	// can only be created once the root model exists.
	if err := container.Provide(bridge.NewRelay); err != nil {
		return nil, err
	}
	if err := container.Provide(func(r *bridge.Relay, cfg *model.AppConfig, logger *zap.Logger) *bridge.Bridge {
		return bridge.New(r, cfg.Bridge.Workers, logger)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(bridge.NewSession); err != nil {
		return nil, err
	}

	// Register mailbox (fetch source and outbound sender)
	if err := container.Provide(func(
		s store.Store,
		v app.Vault,
		cfg *model.AppConfig,
		logger *zap.Logger,
	) *app.Mailbox {
		return app.NewMailbox(s, v, cfg, logger)
	}); err != nil {
		return nil, err
	}

	// Register root model
	if err := container.Provide(NewApp); err != nil {
		return nil, err
	}

	return container, nil
}

// NewStore opens the SQLite mail store, creating its directory first.
func NewStore(cfg *model.AppConfig, logger *zap.Logger) (store.Store, error) {
	path := cfg.Store.Path
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}
	return store.NewSQLiteStore(path, logger)
}

// NewTransport selects the inference wire protocol from ai.provider.
func NewTransport(cfg *model.AppConfig) (inference.Transport, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.AI.Provider)) {
	case "", ProviderOllama:
		return inference.NewOllamaTransport(nil), nil
	case ProviderOpenAI:
		return inference.NewOpenAITransport(cfg.AI.APIKey), nil
	default:
		return nil, fmt.Errorf("unsupported ai.provider %q", cfg.AI.Provider)
	}
}

// NewGateway builds the gateway from the ai section, keeping stock limits
// for anything left unset.
func NewGateway(t inference.Transport, cfg *model.AppConfig, logger *zap.Logger) *inference.Gateway {
	gc := inference.DefaultConfig()
	ai := cfg.AI
	if ai.Model != "" {
		gc.Model = ai.Model
	}
	if ai.Timeout > 0 {
		gc.Timeout = ai.Timeout
	}
	if ai.MaxAttempts > 0 {
		gc.MaxAttempts = ai.MaxAttempts
	}
	if ai.BackoffStep > 0 {
		gc.BackoffStep = ai.BackoffStep
	}
	if ai.BreakerFailures >= 0 {
		gc.BreakerFailures = ai.BreakerFailures
	}
	if ai.BreakerTimeout > 0 {
		gc.BreakerTimeout = ai.BreakerTimeout
	}
	gc.Endpoint = ai.ResolveEndpoint

	return inference.NewGateway(t, gc, inference.WithLogger(logger))
}

// AppParams are the collaborators of the root model.
type AppParams struct {
	dig.In

	Store     store.Store
	Assistant *assistant.Assistant
	Worker    *categorize.Worker
	Bridge    *bridge.Bridge
	Session   *bridge.Session
	Mailbox   *app.Mailbox
	History   *assistant.Conversation
	Config    *model.AppConfig
	Logger    *zap.Logger
}

// NewApp builds the root Bubble Tea model.
func NewApp(p AppParams) app.Model {
	return app.New(app.Deps{
		Store:     p.Store,
		Assistant: p.Assistant,
		Worker:    p.Worker,
		Bridge:    p.Bridge,
		Session:   p.Session,
		Mailbox:   p.Mailbox,
		History:   p.History,
		Config:    p.Config,
		Logger:    p.Logger,
	})
}
