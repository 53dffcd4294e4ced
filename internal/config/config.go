package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BerylCAtieno/market-sim-agent/internal/gateway"
	"github.com/BerylCAtieno/market-sim-agent/internal/retry"
	"github.com/BerylCAtieno/market-sim-agent/internal/simulation"
	"github.com/BerylCAtieno/market-sim-agent/internal/throttle"
	"gopkg.in/yaml.v3"
)

// Model backends selectable with MODEL_BACKEND.
const (
	BackendGenerativeAI = "generative-ai"
	BackendGenAI        = "genai"
)

// Config holds all simulator configuration.
type Config struct {
	Model      ModelConfig      `yaml:"model"`
	Throttle   ThrottleConfig   `yaml:"throttle"`
	Retry      RetryConfig      `yaml:"retry"`
	Simulation SimulationConfig `yaml:"simulation"`
	Server     ServerConfig     `yaml:"server"`
	History    HistoryConfig    `yaml:"history"`
	Log        LogConfig        `yaml:"log"`
}

// ModelConfig configures the hosted generation API.
type ModelConfig struct {
	APIKey          string  `yaml:"api_key"`
	Backend         string  `yaml:"backend"`
	Name            string  `yaml:"name"`
	Temperature     float32 `yaml:"temperature"`
	TopP            float32 `yaml:"top_p"`
	MaxOutputTokens int32   `yaml:"max_output_tokens"`
}

type ThrottleConfig struct {
	Gap        string `yaml:"gap"`
	MaxRetries int    `yaml:"max_retries"`
}

type RetryConfig struct {
	MaxRetries int    `yaml:"max_retries"`
	BaseDelay  string `yaml:"base_delay"`
}

type SimulationConfig struct {
	MaxPersonas int    `yaml:"max_personas"`
	CallTimeout string `yaml:"call_timeout"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

// HistoryConfig enables the SQLite run log when DBPath is set.
type HistoryConfig struct {
	DBPath string `yaml:"db_path"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// DefaultConfig returns the default configuration, taken from the defaults of
// the packages it configures.
func DefaultConfig() *Config {
	model := gateway.DefaultGeminiConfig("")
	queue := throttle.DefaultConfig()
	sim := simulation.DefaultConfig()

	return &Config{
		Model: ModelConfig{
			Backend:         BackendGenerativeAI,
			Name:            model.Model,
			Temperature:     model.Temperature,
			TopP:            model.TopP,
			MaxOutputTokens: model.MaxOutputTokens,
		},
		Throttle: ThrottleConfig{
			Gap:        queue.Gap.String(),
			MaxRetries: queue.Retry.MaxRetries,
		},
		Retry: RetryConfig{
			MaxRetries: sim.Retry.MaxRetries,
			BaseDelay:  sim.Retry.BaseDelay.String(),
		},
		Simulation: SimulationConfig{
			MaxPersonas: sim.MaxPersonas,
			CallTimeout: sim.CallTimeout.String(),
		},
		Server: ServerConfig{
			Port: "8080",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from a YAML file and applies environment
// overrides. An empty path or a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Model.APIKey = key
	}
	if model := os.Getenv("GEMINI_MODEL"); model != "" {
		c.Model.Name = model
	}
	if backend := os.Getenv("MODEL_BACKEND"); backend != "" {
		c.Model.Backend = backend
	}
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Port = port
	}
	if path := os.Getenv("SIM_DB_PATH"); path != "" {
		c.History.DBPath = path
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
}

// GetThrottleGap returns the minimum spacing between queued model calls.
func (c *Config) GetThrottleGap() time.Duration {
	return parseDuration(c.Throttle.Gap, throttle.DefaultGap)
}

// GetRetryBaseDelay returns the first backoff step.
func (c *Config) GetRetryBaseDelay() time.Duration {
	return parseDuration(c.Retry.BaseDelay, retry.DefaultBaseDelay)
}

// GetCallTimeout returns the per-attempt model call timeout.
func (c *Config) GetCallTimeout() time.Duration {
	return parseDuration(c.Simulation.CallTimeout, simulation.DefaultCallTimeout)
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

// ValidBackends lists all supported model backends.
var ValidBackends = []string{BackendGenerativeAI, BackendGenAI}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Model.APIKey == "" {
		return fmt.Errorf("model API key not configured (set GEMINI_API_KEY)")
	}

	validBackend := false
	for _, b := range ValidBackends {
		if c.Model.Backend == b {
			validBackend = true
			break
		}
	}
	if !validBackend {
		return fmt.Errorf("invalid model backend: %s (valid: %v)", c.Model.Backend, ValidBackends)
	}

	for name, s := range map[string]string{
		"throttle.gap":            c.Throttle.Gap,
		"retry.base_delay":        c.Retry.BaseDelay,
		"simulation.call_timeout": c.Simulation.CallTimeout,
	} {
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, s, err)
		}
		if d < 0 {
			return fmt.Errorf("%s must not be negative, got %s", name, s)
		}
	}

	if c.Throttle.MaxRetries < 0 || c.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry counts must not be negative")
	}
	if c.Simulation.MaxPersonas < 1 {
		return fmt.Errorf("simulation.max_personas must be at least 1, got %d", c.Simulation.MaxPersonas)
	}
	if c.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	return nil
}

// GeminiConfig returns the gateway settings for either backend.
func (c *Config) GeminiConfig() gateway.GeminiConfig {
	gcfg := gateway.DefaultGeminiConfig(c.Model.APIKey)
	gcfg.Model = c.Model.Name
	gcfg.Temperature = c.Model.Temperature
	gcfg.TopP = c.Model.TopP
	gcfg.MaxOutputTokens = c.Model.MaxOutputTokens
	return gcfg
}

// SimulationConfig returns the orchestrator settings. Its retry policy is the
// direct-call policy.
func (c *Config) SimulationConfig() simulation.Config {
	cfg := simulation.DefaultConfig()
	cfg.MaxPersonas = c.Simulation.MaxPersonas
	cfg.CallTimeout = c.GetCallTimeout()
	cfg.Retry.MaxRetries = c.Retry.MaxRetries
	cfg.Retry.BaseDelay = c.GetRetryBaseDelay()
	return cfg
}

// ThrottleConfig returns the queue settings. Queued calls share the direct
// policy's base delay with their own retry count.
func (c *Config) ThrottleConfig() throttle.Config {
	cfg := throttle.DefaultConfig()
	cfg.Gap = c.GetThrottleGap()
	cfg.Retry.MaxRetries = c.Throttle.MaxRetries
	cfg.Retry.BaseDelay = c.GetRetryBaseDelay()
	return cfg
}
