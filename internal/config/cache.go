package config

import (
	"strconv"
	"strings"
	"time"
)

// CacheConfig defines settings for the response cache middleware used
// on the public browse endpoints. Availability listings tolerate
// slightly stale reads, so a short TTL is the default.
type CacheConfig struct {
	Enabled      bool
	TTL          time.Duration
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads environment variables to build a CacheConfig.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      strings.EqualFold(envStr("CACHE_ENABLED", "true"), "true"),
		TTL:          envDur("CACHE_TTL", 15*time.Second),
		Prefix:       envStr("CACHE_PREFIX", "cache"),
		MaxBodyBytes: atoi(envStr("CACHE_MAX_BODY_BYTES", "1048576")),
	}
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
