package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the process-wide configuration, assembled from environment
// variables per spec.md §6 plus the logging/runtime ambient additions.
type Config struct {
	Agent    AgentConfig    `mapstructure:"agent"`
	API      APIConfig      `mapstructure:"api"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Runtime  RuntimeConfig  `mapstructure:"runtime"`
}

// AgentConfig carries the §6 agent identity env vars.
type AgentConfig struct {
	Callsign string `mapstructure:"callsign" validate:"required"`
	Faction  string `mapstructure:"faction"`
	Email    string `mapstructure:"email"`
}

// RuntimeConfig carries the §4.G scheduler's tunable bound.
type RuntimeConfig struct {
	Concurrency int `mapstructure:"concurrency" validate:"min=1"`
}

// LoadConfig loads configuration from environment variables (bare names for
// the five spec.md §6 vars, ST_-prefixed for the ambient additions), falling
// back to defaults, then validates the result. Matches the teacher's
// viper+godotenv+validator pipeline.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("ST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("agent.callsign", "AGENT_CALLSIGN")
	_ = v.BindEnv("agent.faction", "AGENT_FACTION")
	_ = v.BindEnv("agent.email", "AGENT_EMAIL")
	_ = v.BindEnv("api.base_url", "SPACETRADERS_API_URL")
	_ = v.BindEnv("database.url", "DATABASE_URL")
	_ = v.BindEnv("logging.level", "ST_LOG_LEVEL")
	_ = v.BindEnv("logging.format", "ST_LOG_FORMAT")
	_ = v.BindEnv("runtime.concurrency", "ST_RUNTIME_CONCURRENCY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	SetDefaults(&cfg)

	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// MustLoadConfig loads configuration and panics on error (for use in main.go,
// matching the teacher's fail-fast bootstrap).
func MustLoadConfig() *Config {
	cfg, err := LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}
