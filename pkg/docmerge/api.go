package docmerge

import (
	"github.com/halcyondocs/docmerge/pkg/docmerge/dom"
)

// Engine provides the main API for merging data into document trees.
// Use New() to create a new engine instance.
type Engine struct {
	config *Config
	types  TypeTable
	logger *Logger
}

// New creates a new merge engine with the global configuration.
func New() *Engine {
	return &Engine{
		config: GetGlobalConfig(),
		types:  TypeTable{},
		logger: GetLogger(),
	}
}

// NewWithConfig creates a new merge engine with a custom configuration.
func NewWithConfig(config *Config) *Engine {
	return &Engine{
		config: config,
		types:  TypeTable{},
		logger: GetLogger(),
	}
}

// Merge rewrites the document tree in place against the supplied context.
// On success the tree holds the merged output and the result lists any
// warnings recorded during processing. On failure the tree may be
// partially rewritten and must be discarded.
func (e *Engine) Merge(body *dom.Node, ctx Context) (*Result, error) {
	state := newMergeState(e.config, e.types, e.logger)
	return state.run(body, ctx)
}

// Config returns the engine's configuration.
func (e *Engine) Config() *Config {
	return e.config
}

// SetConfig updates the engine's configuration.
func (e *Engine) SetConfig(config *Config) {
	e.config = config
}

// RegisterType maps a field path (or trailing path segment) to a format
// name, so fields without an explicit format are rendered per the table.
func (e *Engine) RegisterType(path, format string) {
	e.types[path] = format
}

// Types returns the engine's type table.
func (e *Engine) Types() TypeTable {
	return e.types
}

// Option represents a configuration option for the engine.
type Option func(*Engine)

// WithConfig returns an option that sets the engine configuration.
func WithConfig(config *Config) Option {
	return func(e *Engine) {
		e.config = config
	}
}

// WithTypes returns an option that sets the engine's type table.
func WithTypes(types TypeTable) Option {
	return func(e *Engine) {
		e.types = types
	}
}

// WithLogger returns an option that sets the engine's logger.
func WithLogger(logger *Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewWithOptions creates a new engine with the specified options.
func NewWithOptions(opts ...Option) *Engine {
	engine := New()
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// DefaultEngine is the global default engine instance.
var DefaultEngine = New()

// Merge rewrites the document tree in place using the default engine.
func Merge(body *dom.Node, ctx Context) (*Result, error) {
	return DefaultEngine.Merge(body, ctx)
}
