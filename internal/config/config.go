package config

import (
	"fmt"
	"time"

	"github.com/teakb/teakb/internal/graph"
	"github.com/teakb/teakb/internal/ingest"
	"github.com/teakb/teakb/internal/llm"
	"github.com/teakb/teakb/internal/types"
)

// Config is the root configuration for the teakb service.
type Config struct {
	Neo4j   Neo4jConfig   `mapstructure:"neo4j" yaml:"neo4j"`
	LLM     LLMConfig     `mapstructure:"llm" yaml:"llm"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Ingest  IngestConfig  `mapstructure:"ingest" yaml:"ingest"`
	QA      QAConfig      `mapstructure:"qa" yaml:"qa"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// Neo4jConfig contains graph store connection settings.
type Neo4jConfig struct {
	URI                     string        `mapstructure:"uri" yaml:"uri"`
	Username                string        `mapstructure:"username" yaml:"username"`
	Password                string        `mapstructure:"password" yaml:"password"`
	Database                string        `mapstructure:"database" yaml:"database,omitempty"`
	MaxConnectionPoolSize   int           `mapstructure:"max_connection_pool_size" yaml:"max_connection_pool_size"`
	ConnectionTimeout       time.Duration `mapstructure:"connection_timeout" yaml:"connection_timeout"`
	MaxTransactionRetryTime time.Duration `mapstructure:"max_transaction_retry_time" yaml:"max_transaction_retry_time"`
}

// LLMConfig contains language-model provider settings.
type LLMConfig struct {
	Provider    string  `mapstructure:"provider" yaml:"provider"`
	Model       string  `mapstructure:"model" yaml:"model"`
	APIKey      string  `mapstructure:"api_key" yaml:"api_key,omitempty"`
	BaseURL     string  `mapstructure:"base_url" yaml:"base_url,omitempty"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
}

// ServerConfig contains HTTP gateway settings.
type ServerConfig struct {
	Address         string        `mapstructure:"address" yaml:"address"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// IngestConfig contains batch ingestion settings.
type IngestConfig struct {
	BatchSize             int           `mapstructure:"batch_size" yaml:"batch_size"`
	MaxRetries            int           `mapstructure:"max_retries" yaml:"max_retries"`
	RetryBackoff          time.Duration `mapstructure:"retry_backoff" yaml:"retry_backoff"`
	FilterEmptyProperties bool          `mapstructure:"filter_empty_properties" yaml:"filter_empty_properties"`
}

// QAConfig contains question-answering pipeline settings.
type QAConfig struct {
	// Denylist rejects questions containing any listed term.
	Denylist []string `mapstructure:"denylist" yaml:"denylist,omitempty"`

	// SchemaDescription overrides the built-in schema text fed to the
	// translator prompt. Leave empty to use the compiled vocabulary.
	SchemaDescription string `mapstructure:"schema_description" yaml:"schema_description,omitempty"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Neo4j: Neo4jConfig{
			URI:                     "bolt://localhost:7687",
			Username:                "neo4j",
			Password:                "${NEO4J_PASSWORD}",
			MaxConnectionPoolSize:   50,
			ConnectionTimeout:       30 * time.Second,
			MaxTransactionRetryTime: 30 * time.Second,
		},
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-3.5-turbo",
			APIKey:      "${OPENAI_API_KEY}",
			Temperature: 0.7,
		},
		Server: ServerConfig{
			Address:         ":8001",
			AllowedOrigins:  []string{"*"},
			ReadTimeout:     15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Ingest: IngestConfig{
			BatchSize:             15,
			MaxRetries:            3,
			RetryBackoff:          2 * time.Second,
			FilterEmptyProperties: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.Neo4j.URI == "" {
		return types.NewError(ErrCodeConfigValidation, "neo4j.uri is required")
	}
	if c.Neo4j.Username == "" {
		return types.NewError(ErrCodeConfigValidation, "neo4j.username is required")
	}

	switch c.LLM.Provider {
	case "openai", "ollama", "mock":
	default:
		return types.NewError(ErrCodeConfigValidation,
			fmt.Sprintf("llm.provider %q is not supported", c.LLM.Provider))
	}
	if c.LLM.Model == "" {
		return types.NewError(ErrCodeConfigValidation, "llm.model is required")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return types.NewError(ErrCodeConfigValidation,
			"llm.temperature must be between 0 and 2")
	}

	if c.Server.Address == "" {
		return types.NewError(ErrCodeConfigValidation, "server.address is required")
	}

	if c.Ingest.BatchSize <= 0 {
		return types.NewError(ErrCodeConfigValidation, "ingest.batch_size must be positive")
	}
	if c.Ingest.MaxRetries <= 0 {
		return types.NewError(ErrCodeConfigValidation, "ingest.max_retries must be positive")
	}
	if c.Ingest.RetryBackoff < 0 {
		return types.NewError(ErrCodeConfigValidation, "ingest.retry_backoff must not be negative")
	}

	return nil
}

// GraphConfig converts the neo4j section into the graph client's config.
func (c *Config) GraphConfig() graph.Config {
	return graph.Config{
		URI:                     c.Neo4j.URI,
		Username:                c.Neo4j.Username,
		Password:                c.Neo4j.Password,
		Database:                c.Neo4j.Database,
		MaxConnectionPoolSize:   c.Neo4j.MaxConnectionPoolSize,
		ConnectionTimeout:       c.Neo4j.ConnectionTimeout,
		MaxTransactionRetryTime: c.Neo4j.MaxTransactionRetryTime,
	}
}

// ProviderConfig converts the llm section into a provider config.
func (c *Config) ProviderConfig() llm.ProviderConfig {
	return llm.ProviderConfig{
		Provider: c.LLM.Provider,
		APIKey:   c.LLM.APIKey,
		BaseURL:  c.LLM.BaseURL,
		Model:    c.LLM.Model,
	}
}

// IngestOptions converts the ingest section into engine options.
func (c *Config) IngestOptions() ingest.Options {
	return ingest.Options{
		BatchSize:             c.Ingest.BatchSize,
		MaxRetries:            c.Ingest.MaxRetries,
		RetryBackoff:          c.Ingest.RetryBackoff,
		FilterEmptyProperties: c.Ingest.FilterEmptyProperties,
	}
}
