package bvh

import (
	"fmt"

	"github.com/achilleasa/widebvh/log"
)

const (
	defaultInitialLeafCapacity = 4096
	defaultInitialTreeDepth    = 8
)

// Config holds the tunables recognized by NewTree. Construct it through
// Option functions rather than directly.
type Config struct {
	InitialLeafCapacity int
	InitialTreeDepth    int

	logger    log.Logger
	loggerSet bool
}

// Option mutates a Config during NewTree construction.
type Option func(*Config)

// WithInitialLeafCapacity sets the starting capacity of the leaf record
// array and of per-level node arenas (clamped by K^depth). Must be positive.
func WithInitialLeafCapacity(n int) Option {
	return func(c *Config) { c.InitialLeafCapacity = n }
}

// WithInitialTreeDepth sets the number of levels preallocated. Must be
// positive.
func WithInitialTreeDepth(n int) Option {
	return func(c *Config) { c.InitialTreeDepth = n }
}

// WithLogger overrides the tree's logger, used to report level growth,
// integrity violations and treelet collection stats at Debug level. Passing
// nil disables logging entirely; the tree calls it through a nil-safe
// helper rather than a no-op logger, so a nil logger is the cheapest way to
// silence it.
func WithLogger(logger log.Logger) Option {
	return func(c *Config) {
		c.logger = logger
		c.loggerSet = true
	}
}

func newConfig(opts ...Option) Config {
	cfg := Config{
		InitialLeafCapacity: defaultInitialLeafCapacity,
		InitialTreeDepth:    defaultInitialTreeDepth,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func (c Config) validate() {
	if c.InitialLeafCapacity <= 0 {
		panic(fmt.Sprintf("bvh: initialLeafCapacity must be positive, got %d", c.InitialLeafCapacity))
	}
	if c.InitialTreeDepth <= 0 {
		panic(fmt.Sprintf("bvh: initialTreeDepth must be positive, got %d", c.InitialTreeDepth))
	}
}

func validFanOut(k int) bool {
	switch k {
	case 2, 4, 8, 16, 32:
		return true
	default:
		return false
	}
}
