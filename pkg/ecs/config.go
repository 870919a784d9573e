package ecs

import (
	"runtime"

	"github.com/JeremyLoy/config"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// WorldConfig carries the tunables of a world. Values are loaded from the environment;
// functional options take precedence over both the environment and the fallbacks.
type WorldConfig struct {
	// Workers is the size of the worker pool. Zero or negative means one worker per
	// available CPU.
	Workers int `config:"CHARCOAL_WORKERS"`
	// LogLevel is the zerolog level for the world's logger.
	LogLevel string `config:"CHARCOAL_LOG_LEVEL"`
	// StatsdAddress is the address of a statsd agent for frame timing metrics.
	// Metrics are disabled when empty.
	StatsdAddress string `config:"CHARCOAL_STATSD_ADDRESS"`
}

func defaultWorldConfig() WorldConfig {
	return WorldConfig{
		Workers:       0,
		LogLevel:      "info",
		StatsdAddress: "",
	}
}

// loadWorldConfig loads the config from the environment on top of the fallback values.
func loadWorldConfig() (WorldConfig, error) {
	cfg := defaultWorldConfig()
	if err := config.FromEnv().To(&cfg); err != nil {
		return WorldConfig{}, eris.Wrap(err, "failed to load world config from environment")
	}
	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		return WorldConfig{}, eris.Wrapf(err, "invalid log level %q", cfg.LogLevel)
	}
	return cfg, nil
}

// workerCount resolves the configured worker count, defaulting to the available
// hardware parallelism.
func (c WorldConfig) workerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}
