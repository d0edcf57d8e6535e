package cache

import (
	"github.com/goliatone/go-generic-dao/internal/cacheinfra"
)

// Config configures the default sturdyc-backed CacheService.
type Config = cacheinfra.Config

// EarlyRefreshConfig configures background refreshes of hot entries.
type EarlyRefreshConfig = cacheinfra.EarlyRefreshConfig

// DefaultConfig returns a Config suited to caching DAO reads: bounded
// capacity, a five minute TTL, missing record storage and no early refresh.
func DefaultConfig() Config {
	return cacheinfra.DefaultConfig()
}

// NewCacheService constructs the default CacheService. It fails with a
// configuration error when cfg is invalid.
func NewCacheService(cfg Config) (CacheService, error) {
	return cacheinfra.NewSturdycService(cfg)
}
