package schema

import (
	"regexp"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type compiledPattern struct {
	re  *regexp.Regexp
	err error
}

// PatternCache memoizes compiled validation patterns, including the ones
// that fail to compile.
type PatternCache struct {
	cache *expirable.LRU[string, compiledPattern]
}

// NewPatternCache creates a cache holding at most maxSize patterns for ttl
func NewPatternCache(maxSize int, ttl time.Duration) *PatternCache {
	if maxSize <= 0 {
		maxSize = 128
	}
	return &PatternCache{
		cache: expirable.NewLRU[string, compiledPattern](maxSize, nil, ttl),
	}
}

// Compile returns the compiled form of pattern
func (c *PatternCache) Compile(pattern string) (*regexp.Regexp, error) {
	if cp, ok := c.cache.Get(pattern); ok {
		return cp.re, cp.err
	}
	re, err := regexp.Compile(pattern)
	c.cache.Add(pattern, compiledPattern{re: re, err: err})
	return re, err
}

// Len returns the number of cached patterns
func (c *PatternCache) Len() int {
	return c.cache.Len()
}
