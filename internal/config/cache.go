package config

import (
	"strings"
	"time"
)

// CacheConfig defines settings for the response cache middleware.
// When Enabled is false or no Redis client is configured, caching is
// disabled.  Methods lists the HTTP methods to cache.  KeyStrategy picks
// which parts of the request contribute to the cache key.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool
	TTL          time.Duration
	KeyStrategy  string
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads environment variables to build a CacheConfig.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		Methods:      parseMethods(envStr("CACHE_METHODS", "GET")),
		TTL:          envDur("CACHE_TTL", 30*time.Second),
		KeyStrategy:  envStr("CACHE_KEY_STRATEGY", "route_query"),
		Prefix:       envStr("CACHE_PREFIX", "cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}

// SpaceCacheConfig controls the read-through cache of space records used
// by the booking engine and the space detail endpoint.
type SpaceCacheConfig struct {
	Enabled bool
	TTL     time.Duration
	Prefix  string
}

// LoadSpaceCacheConfig mirrors the 5 minute space:{id} cache of the spaces
// service.
func LoadSpaceCacheConfig() SpaceCacheConfig {
	c := SpaceCacheConfig{
		Enabled: envBool("SPACE_CACHE_ENABLED", true),
		TTL:     envDur("SPACE_CACHE_TTL", 5*time.Minute),
		Prefix:  envStr("SPACE_CACHE_PREFIX", "space"),
	}
	if c.TTL <= 0 {
		c.Enabled = false
	}
	return c
}

func parseMethods(s string) map[string]bool {
	m := map[string]bool{}
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(strings.ToUpper(p))
		if p != "" {
			m[p] = true
		}
	}
	return m
}
