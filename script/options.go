package script

import "go.uber.org/zap"

// DefaultModuleName is the wasm import module the host functions are
// exported under.
const DefaultModuleName = "scriptref"

// Config holds configuration for a script context.
type Config struct {
	// ModuleName is the import module name guests use. Empty means
	// DefaultModuleName.
	ModuleName string

	// MaxHandles caps the number of live handles. 0 means no cap beyond
	// the handle encoding.
	MaxHandles int
}

type options struct {
	logger *zap.Logger
	cfg    Config
}

// Option configures a Context.
type Option func(*options)

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.cfg = cfg
	}
}

// WithLogger sets the logger for one context instead of the package logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithModuleName sets the wasm import module name.
func WithModuleName(name string) Option {
	return func(o *options) {
		o.cfg.ModuleName = name
	}
}

func newOptions(opts []Option) options {
	o := options{logger: Logger()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.cfg.ModuleName == "" {
		o.cfg.ModuleName = DefaultModuleName
	}
	return o
}
