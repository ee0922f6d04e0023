// Package accord provides a top-level convenience entry point for creating
// a negotiation engine with minimal boilerplate.
//
// Usage:
//
//	import "github.com/BaSui01/accord"
//
//	engine := accord.New(accord.WithStrategy("nash_bargaining"))
//	engine := accord.New(accord.WithLogger(logger), accord.WithMaxRounds(5))
//
// For full control over the registry, persistence, and defaults, construct
// [negotiation.Engine] directly via [negotiation.NewEngine].
package accord

import (
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/accord/negotiation"
	"github.com/BaSui01/accord/persistence"
)

// Option configures the engine created by [New].
type Option func(*negotiation.Options)

// New creates a negotiation engine with a fresh participant registry.
func New(opts ...Option) *negotiation.Engine {
	var o negotiation.Options
	for _, opt := range opts {
		opt(&o)
	}
	return negotiation.NewEngine(negotiation.NewRegistry(o.Logger), o)
}

// WithLogger sets a custom zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *negotiation.Options) { o.Logger = logger }
}

// WithLog attaches a durable negotiation log.
func WithLog(log persistence.Log) Option {
	return func(o *negotiation.Options) { o.Log = log }
}

// WithStrategy sets the default conflict resolution strategy name.
func WithStrategy(name string) Option {
	return func(o *negotiation.Options) { o.DefaultStrategy = name }
}

// WithMaxRounds sets the default round budget per negotiation.
func WithMaxRounds(n int) Option {
	return func(o *negotiation.Options) { o.DefaultMaxRounds = n }
}

// WithTimeout sets the default wall-clock budget per negotiation.
func WithTimeout(d time.Duration) Option {
	return func(o *negotiation.Options) { o.DefaultTimeout = d }
}

// WithMetricsNamespace enables prometheus metrics under the namespace.
func WithMetricsNamespace(namespace string) Option {
	return func(o *negotiation.Options) { o.MetricsNamespace = namespace }
}
