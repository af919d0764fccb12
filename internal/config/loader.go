package config

import (
	"bytes"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"

	"github.com/teakb/teakb/internal/types"
)

// envVarPattern matches ${VAR_NAME} placeholders.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads a YAML configuration file, interpolates ${VAR} placeholders from
// the environment, and validates the result.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, types.WrapError(ErrCodeConfigLoad,
			"failed to read config file "+path, err)
	}

	// Interpolate the raw document before parsing so every string field,
	// including list entries, picks up environment values.
	interpolated := interpolateString(string(raw))

	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader([]byte(interpolated))); err != nil {
		return nil, types.WrapError(ErrCodeConfigParse,
			"failed to parse config file "+path, err)
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, types.WrapError(ErrCodeConfigParse,
			"failed to unmarshal config file "+path, err)
	}

	cfg.interpolate()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadWithDefaults loads configuration from path, or returns defaults when
// the file does not exist.
func LoadWithDefaults(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.interpolate()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return Load(path)
}

// interpolate resolves ${VAR} placeholders left in string fields, which
// covers defaults that never passed through a file.
func (c *Config) interpolate() {
	c.Neo4j.URI = interpolateString(c.Neo4j.URI)
	c.Neo4j.Username = interpolateString(c.Neo4j.Username)
	c.Neo4j.Password = interpolateString(c.Neo4j.Password)
	c.Neo4j.Database = interpolateString(c.Neo4j.Database)
	c.LLM.APIKey = interpolateString(c.LLM.APIKey)
	c.LLM.BaseURL = interpolateString(c.LLM.BaseURL)
	c.Server.Address = interpolateString(c.Server.Address)
	c.Logging.Level = interpolateString(c.Logging.Level)
	c.Logging.Format = interpolateString(c.Logging.Format)
}

// interpolateString replaces ${VAR_NAME} with environment variable values.
// Unset variables resolve to the empty string so placeholder text never
// leaks into credentials.
func interpolateString(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		return os.Getenv(varName)
	})
}
