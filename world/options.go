package world

import "go.uber.org/zap"

type config struct {
	logger *zap.Logger
}

// Option configures a World.
type Option func(*config)

// WithLogger sets the logger used by one world instead of the package logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

type typeConfig struct {
	name     string
	readOnly bool
}

// TypeOption configures a registered component or resource type.
type TypeOption func(*typeConfig)

// WithName registers the type under name instead of its Go type name.
func WithName(name string) TypeOption {
	return func(c *typeConfig) {
		c.name = name
	}
}

// ReadOnly registers a type that scripts may read but never write.
func ReadOnly() TypeOption {
	return func(c *typeConfig) {
		c.readOnly = true
	}
}

func newTypeConfig(def string, opts []TypeOption) typeConfig {
	c := typeConfig{name: def}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
