package ecs

import "github.com/rs/zerolog"

// WorldOption configures a World during NewWorld.
type WorldOption func(*World)

// WithLogger replaces the world's default logger.
func WithLogger(logger zerolog.Logger) WorldOption {
	return func(w *World) {
		w.logger = logger
	}
}

// WithWorkers overrides the worker pool size, taking precedence over the environment.
func WithWorkers(n int) WorldOption {
	return func(w *World) {
		w.cfg.Workers = n
	}
}

// WithStatsdAddress overrides the statsd agent address, taking precedence over the
// environment.
func WithStatsdAddress(addr string) WorldOption {
	return func(w *World) {
		w.cfg.StatsdAddress = addr
	}
}
