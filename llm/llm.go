// Package llm provides model endpoint clients implementing loom.Client.
// Clients are synchronous, perform no retries, and propagate transport and
// rate-limit failures unchanged to the pipeline.
package llm

import "log/slog"

// DefaultMaxTokens bounds response length when the caller does not choose.
const DefaultMaxTokens int64 = 4096

// Option configures a client.
type Option func(*options)

type options struct {
	logger      *slog.Logger
	temperature float64
	hasTemp     bool
	cacheSystem bool
}

// WithLogger attaches a structured logger for per-call instrumentation.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithTemperature sets the sampling temperature. Pipelines that feed one
// stage's output into the next generally want 0 for deterministic output.
func WithTemperature(t float64) Option {
	return func(o *options) {
		o.temperature = t
		o.hasTemp = true
	}
}

// WithPromptCaching marks the system prompt as cacheable on the provider
// side. Worthwhile when the same stage runs repeatedly with a static
// system prompt; the provider ignores the marker for prompts below its
// minimum cacheable size.
func WithPromptCaching() Option {
	return func(o *options) {
		o.cacheSystem = true
	}
}
