package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for csvscope.
// Values come from config.yaml when present, with environment variable
// overrides. When no config file exists, environment variables alone
// are used.
type Config struct {
	Env      string `yaml:"env" env:"CSVSCOPE_ENV" env-default:"local"`
	LogLevel string `yaml:"log_level" env:"CSVSCOPE_LOG_LEVEL" env-default:""`

	Engine EngineConfig `yaml:"engine"`
	Client ClientConfig `yaml:"client"`
}

// EngineConfig configures the embedded DuckDB engine.
type EngineConfig struct {
	// Threads is the DuckDB worker thread count.
	Threads int `yaml:"threads" env:"CSVSCOPE_ENGINE_THREADS" env-default:"4"`
	// MemoryLimit is passed to DuckDB verbatim (e.g. "4GB").
	MemoryLimit string `yaml:"memory_limit" env:"CSVSCOPE_ENGINE_MEMORY_LIMIT" env-default:"4GB"`
	// DefaultLimit bounds query pages when the caller passes no limit.
	DefaultLimit int `yaml:"default_limit" env:"CSVSCOPE_ENGINE_DEFAULT_LIMIT" env-default:"1000"`
}

// ClientConfig configures the RPC client.
type ClientConfig struct {
	// CallTimeout bounds each blocking Call.
	CallTimeout time.Duration `yaml:"call_timeout" env:"CSVSCOPE_CALL_TIMEOUT" env-default:"30s"`
	// ShutdownWait bounds how long Stop waits for the worker to drain.
	ShutdownWait time.Duration `yaml:"shutdown_wait" env:"CSVSCOPE_SHUTDOWN_WAIT" env-default:"5s"`
	// QueueSize is the capacity of the request and response channels.
	QueueSize int `yaml:"queue_size" env:"CSVSCOPE_QUEUE_SIZE" env-default:"64"`
}

// Load reads configuration from path with environment overrides.
// A missing config file is not an error; env vars and defaults apply.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration produced by defaults alone.
func Default() *Config {
	cfg := &Config{}
	// ReadEnv cannot fail for this struct shape; defaults always parse.
	_ = cleanenv.ReadEnv(cfg)
	return cfg
}

func (c *Config) validate() error {
	if c.Engine.Threads <= 0 {
		return fmt.Errorf("engine.threads must be positive, got %d", c.Engine.Threads)
	}
	if c.Engine.DefaultLimit <= 0 {
		return fmt.Errorf("engine.default_limit must be positive, got %d", c.Engine.DefaultLimit)
	}
	if c.Client.CallTimeout <= 0 {
		return fmt.Errorf("client.call_timeout must be positive, got %s", c.Client.CallTimeout)
	}
	if c.Client.QueueSize <= 0 {
		return fmt.Errorf("client.queue_size must be positive, got %d", c.Client.QueueSize)
	}
	return nil
}
