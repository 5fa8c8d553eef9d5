package normalize

import (
	"runtime"

	"github.com/npillmayer/schuko/gconf"
)

const (
	defaultHashLength = 7
	maxHashLength     = 32 // hex digits of an MD5 sum
)

// config holds the settings of a pipeline run.
type config struct {
	workers    int
	hashLength int
}

// Option configures a pipeline run.
type Option func(c *config)

// Workers sets the number of grammars normalized concurrently by
// NormalizeAll. Values < 1 are ignored.
func Workers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.workers = n
		}
	}
}

// HashLength sets the number of hex digits used for disambiguating
// inferred names. Values are clipped to [4…32].
func HashLength(n int) Option {
	return func(c *config) {
		c.hashLength = clipHashLength(n)
	}
}

func clipHashLength(n int) int {
	if n < 4 {
		return 4
	} else if n > maxHashLength {
		return maxHashLength
	}
	return n
}

// configure creates a configuration from global settings and options.
func configure(opts []Option) *config {
	c := &config{
		workers:    runtime.NumCPU(),
		hashLength: defaultHashLength,
	}
	if gconf.IsSet("normalize-workers") && gconf.GetInt("normalize-workers") > 0 {
		c.workers = gconf.GetInt("normalize-workers")
	}
	if gconf.IsSet("pattern-hash-length") && gconf.GetInt("pattern-hash-length") > 0 {
		c.hashLength = clipHashLength(gconf.GetInt("pattern-hash-length"))
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
