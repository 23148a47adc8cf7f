package taskqueue

import (
	"runtime"

	"github.com/ygrebnov/errorc"
	"go.uber.org/zap"

	"github.com/ygrebnov/taskqueue/metrics"
)

// config holds Queue configuration.
type config struct {
	// Concurrency defines the number of worker slots, fixed for the lifetime
	// of the queue.
	// Zero (default) means the host concurrency hint (runtime.NumCPU) is used.
	Concurrency uint

	// ErrorsBufferSize defines the size of the errors channel buffer carrying
	// recovered task panics.
	// Default: 1024.
	ErrorsBufferSize uint

	// Logger receives lifecycle and task-panic events.
	// Default: zap.NewNop().
	Logger *zap.Logger

	// Metrics constructs the instruments the queue records into.
	// Default: metrics.NewNoopProvider().
	Metrics metrics.Provider
}

// defaultConfig centralizes default values for config.
// It is the options builder base used by New.
func defaultConfig() config {
	return config{
		Concurrency:      0, // host concurrency hint
		ErrorsBufferSize: 1024,
		Logger:           zap.NewNop(),
		Metrics:          metrics.NewNoopProvider(),
	}
}

// validateConfig resolves the host concurrency hint and checks invariants.
func validateConfig(cfg *config) error {
	if cfg.Concurrency == 0 {
		n := runtime.NumCPU()
		if n < 1 {
			n = 1
		}
		cfg.Concurrency = uint(n)
	}
	return nil
}

// Option configures a Queue. Use New(opts...) to construct a Queue via options.
// Options return an error on invalid input instead of panicking.
type Option func(*config) error

// WithConcurrency fixes the number of worker slots (must be > 0).
// Without this option the queue uses the host concurrency hint.
func WithConcurrency(n uint) Option {
	return func(cfg *config) error {
		if n == 0 {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithConcurrency requires n > 0"))
		}
		cfg.Concurrency = n
		return nil
	}
}

// WithErrorsBuffer sets the size of the errors channel buffer (default 1024).
func WithErrorsBuffer(size uint) Option {
	return func(cfg *config) error { cfg.ErrorsBufferSize = size; return nil }
}

// WithLogger sets the logger receiving lifecycle and task-panic events.
func WithLogger(l *zap.Logger) Option {
	return func(cfg *config) error {
		if l == nil {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithLogger requires a non-nil logger"))
		}
		cfg.Logger = l
		return nil
	}
}

// WithMetrics sets the provider constructing the queue's instruments.
func WithMetrics(p metrics.Provider) Option {
	return func(cfg *config) error {
		if p == nil {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithMetrics requires a non-nil provider"))
		}
		cfg.Metrics = p
		return nil
	}
}
