package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// NEURALMAIL_AI_ENDPOINT overrides ai.endpoint.
const EnvPrefix = "NEURALMAIL"

// DefaultEndpoint is the local generation endpoint used when nothing else is
// configured.
const DefaultEndpoint = "http://localhost:11434/api/generate"

// AIConfig holds settings for the local inference service.
type AIConfig struct {
	// Provider selects the wire protocol: "ollama" or "openai".
	Provider string `mapstructure:"provider" yaml:"provider"`

	// Endpoint is the generation URL. For the openai provider it is the
	// API base URL (e.g. http://localhost:11434/v1).
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Model is the model identifier sent with every request.
	Model string `mapstructure:"model" yaml:"model"`

	// APIKey is only sent by the openai provider.
	APIKey string `mapstructure:"api_key" yaml:"api_key"`

	// ChatContext is the context-window hint used for chat requests.
	ChatContext int `mapstructure:"chat_context" yaml:"chat_context"`

	Timeout         time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxAttempts     int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	BackoffStep     time.Duration `mapstructure:"backoff_step" yaml:"backoff_step"`
	BreakerFailures int           `mapstructure:"breaker_failures" yaml:"breaker_failures"`
	BreakerTimeout  time.Duration `mapstructure:"breaker_timeout" yaml:"breaker_timeout"`
}

// ResolveEndpoint returns the endpoint to use for the next request. The
// environment is consulted on every call so a running process picks up a
// changed override.
func (c AIConfig) ResolveEndpoint() string {
	if v := strings.TrimSpace(os.Getenv(EnvPrefix + "_AI_ENDPOINT")); v != "" {
		return v
	}
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return DefaultEndpoint
}

// StoreConfig locates the local database.
type StoreConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// WorkerConfig tunes the background categorization worker.
type WorkerConfig struct {
	BatchSize int `mapstructure:"batch_size" yaml:"batch_size"`
	BodyChars int `mapstructure:"body_chars" yaml:"body_chars"`
}

// ChatConfig tunes the inbox chat assistant.
type ChatConfig struct {
	ContextMessages int `mapstructure:"context_messages" yaml:"context_messages"`
}

// BridgeConfig sizes the background executor.
type BridgeConfig struct {
	Workers int `mapstructure:"workers" yaml:"workers"`
}

// Mail source selectors.
const (
	MailSourceAuto = "auto"
	MailSourceMock = "mock"
	MailSourceIMAP = "imap"
)

// MailConfig selects where messages are fetched from.
type MailConfig struct {
	// Source is MailSourceAuto, MailSourceMock or MailSourceIMAP.
	Source     string `mapstructure:"source" yaml:"source"`
	Account    string `mapstructure:"account" yaml:"account"`
	FetchLimit int    `mapstructure:"fetch_limit" yaml:"fetch_limit"`
}

// LoggingConfig controls the structured log output.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	File   string `mapstructure:"file" yaml:"file"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	AI      AIConfig      `mapstructure:"ai" yaml:"ai"`
	Store   StoreConfig   `mapstructure:"store" yaml:"store"`
	Worker  WorkerConfig  `mapstructure:"worker" yaml:"worker"`
	Chat    ChatConfig    `mapstructure:"chat" yaml:"chat"`
	Bridge  BridgeConfig  `mapstructure:"bridge" yaml:"bridge"`
	Mail    MailConfig    `mapstructure:"mail" yaml:"mail"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// DevMode swaps the SMTP sender for a log-only sender.
	DevMode bool `mapstructure:"dev_mode" yaml:"dev_mode"`
}

// DefaultConfigPath returns ~/.config/neuralmail/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "neuralmail", "config.yaml")
}

func defaultDataPath(parts ...string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(append([]string{"."}, parts[len(parts)-1])...)
	}
	return filepath.Join(append([]string{home}, parts...)...)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ai.provider", "ollama")
	v.SetDefault("ai.endpoint", DefaultEndpoint)
	v.SetDefault("ai.model", "llama3.1:latest")
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.chat_context", 32768)
	v.SetDefault("ai.timeout", 60*time.Second)
	v.SetDefault("ai.max_attempts", 3)
	v.SetDefault("ai.backoff_step", 500*time.Millisecond)
	v.SetDefault("ai.breaker_failures", 5)
	v.SetDefault("ai.breaker_timeout", 30*time.Second)

	v.SetDefault("store.path", defaultDataPath(".local", "share", "neuralmail", "neural-mail.db"))

	v.SetDefault("worker.batch_size", 20)
	v.SetDefault("worker.body_chars", 200)
	v.SetDefault("chat.context_messages", 100)
	v.SetDefault("bridge.workers", 4)

	v.SetDefault("mail.source", MailSourceAuto)
	v.SetDefault("mail.account", "")
	v.SetDefault("mail.fetch_limit", 50)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file", defaultDataPath(".local", "state", "neuralmail", "neuralmail.log"))

	v.SetDefault("dev_mode", false)
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfig reads configuration from the given YAML file path using Viper,
// layering NEURALMAIL_* environment overrides on top. A missing file yields
// the defaults.
func LoadConfig(path string) (*AppConfig, error) {
	v := newViper(path)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, os.ErrNotExist) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.AI.MaxAttempts < 1 {
		cfg.AI.MaxAttempts = 1
	}
	if cfg.Worker.BatchSize < 1 {
		cfg.Worker.BatchSize = 20
	}
	if cfg.Bridge.Workers < 1 {
		cfg.Bridge.Workers = 1
	}

	return cfg, nil
}
