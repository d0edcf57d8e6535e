package cacheinfra

import (
	"context"
	"reflect"
	"strings"
	"time"

	daoerrors "github.com/goliatone/go-generic-dao/errors"
	"github.com/viccon/sturdyc"
)

// Config holds the sturdyc options used to build the cache client.
type Config struct {
	// Capacity is the maximum number of entries. Must be greater than 0.
	Capacity int

	// NumShards is the number of independently locked shards. Must be greater than 0.
	NumShards int

	// TTL is the lifetime of an entry. Must be greater than 0.
	TTL time.Duration

	// EvictionPercentage is the share of entries evicted when the cache is
	// full. Must be between 1 and 100.
	EvictionPercentage int

	// EarlyRefresh refreshes hot entries in the background before they
	// expire. Refreshes call the fetch function with the context of the read
	// that stored the entry, so it must not depend on a request scoped
	// session. Nil disables it.
	EarlyRefresh *EarlyRefreshConfig

	// MissingRecordStorage lets sturdyc remember keys whose fetch returned
	// sturdyc.ErrNotFound.
	MissingRecordStorage bool

	// EvictionInterval is how often expired entries are swept. Zero keeps
	// the sturdyc default.
	EvictionInterval time.Duration
}

// EarlyRefreshConfig mirrors sturdyc.WithEarlyRefreshes.
type EarlyRefreshConfig struct {
	MinAsyncRefreshTime time.Duration
	MaxAsyncRefreshTime time.Duration
	SyncRefreshTime     time.Duration
	RetryBaseDelay      time.Duration
}

// DefaultConfig returns the configuration used when none is provided.
func DefaultConfig() Config {
	return Config{
		Capacity:             10000,
		NumShards:            256,
		TTL:                  5 * time.Minute,
		EvictionPercentage:   10,
		MissingRecordStorage: true,
	}
}

func (c Config) sturdycOptions() []sturdyc.Option {
	var options []sturdyc.Option
	if c.EarlyRefresh != nil {
		options = append(options, sturdyc.WithEarlyRefreshes(
			c.EarlyRefresh.MinAsyncRefreshTime,
			c.EarlyRefresh.MaxAsyncRefreshTime,
			c.EarlyRefresh.SyncRefreshTime,
			c.EarlyRefresh.RetryBaseDelay,
		))
	}
	if c.MissingRecordStorage {
		options = append(options, sturdyc.WithMissingRecordStorage())
	}
	if c.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(c.EvictionInterval))
	}
	return options
}

// Validate checks the configuration. Failures are *ConfigError values that
// match errors.ErrConfiguration.
func (c Config) Validate() error {
	switch {
	case c.Capacity <= 0:
		return &ConfigError{Field: "Capacity", Message: "must be greater than 0"}
	case c.NumShards <= 0:
		return &ConfigError{Field: "NumShards", Message: "must be greater than 0"}
	case c.TTL <= 0:
		return &ConfigError{Field: "TTL", Message: "must be greater than 0"}
	case c.EvictionPercentage < 1 || c.EvictionPercentage > 100:
		return &ConfigError{Field: "EvictionPercentage", Message: "must be between 1 and 100"}
	}

	if er := c.EarlyRefresh; er != nil {
		durations := []struct {
			field string
			value time.Duration
		}{
			{"EarlyRefresh.MinAsyncRefreshTime", er.MinAsyncRefreshTime},
			{"EarlyRefresh.MaxAsyncRefreshTime", er.MaxAsyncRefreshTime},
			{"EarlyRefresh.SyncRefreshTime", er.SyncRefreshTime},
			{"EarlyRefresh.RetryBaseDelay", er.RetryBaseDelay},
		}
		for _, d := range durations {
			if d.value < 0 {
				return &ConfigError{Field: d.field, Message: "must be non-negative"}
			}
		}
		if er.MinAsyncRefreshTime > er.MaxAsyncRefreshTime {
			return &ConfigError{Field: "EarlyRefresh.MinAsyncRefreshTime", Message: "must not exceed MaxAsyncRefreshTime"}
		}
	}
	return nil
}

// ConfigError reports an invalid cache setting or fetch function.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}

// Is makes ConfigError match errors.ErrConfiguration.
func (e *ConfigError) Is(target error) bool {
	return target == daoerrors.ErrConfiguration
}

// SturdycService is the sturdyc-backed cache service.
type SturdycService struct {
	client *sturdyc.Client[any]
}

// NewSturdycService validates cfg and builds the sturdyc client.
func NewSturdycService(cfg Config) (*SturdycService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := sturdyc.New[any](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
		cfg.sturdycOptions()...,
	)
	return &SturdycService{client: client}, nil
}

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// validateFetchFn checks that fetchFn has the shape func(context.Context) (T, error).
func validateFetchFn(fetchFn any) error {
	if fetchFn == nil {
		return &ConfigError{Field: "fetchFn", Message: "cannot be nil"}
	}

	fnType := reflect.TypeOf(fetchFn)
	if fnType.Kind() != reflect.Func {
		return &ConfigError{Field: "fetchFn", Message: "must be a function"}
	}
	if fnType.NumIn() != 1 || fnType.NumOut() != 2 {
		return &ConfigError{Field: "fetchFn", Message: "must have signature func(context.Context) (T, error)"}
	}
	if fnType.In(0) != contextType {
		return &ConfigError{Field: "fetchFn", Message: "first parameter must be context.Context"}
	}
	if !fnType.Out(1).Implements(errorType) {
		return &ConfigError{Field: "fetchFn", Message: "second return value must be error"}
	}
	return nil
}

// GetOrFetch returns the cached value for key, calling fetchFn on a miss.
// Concurrent misses for the same key share one fetchFn call.
func (s *SturdycService) GetOrFetch(ctx context.Context, key string, fetchFn any) (any, error) {
	if err := validateFetchFn(fetchFn); err != nil {
		return nil, err
	}

	return s.client.GetOrFetch(ctx, key, func(ctx context.Context) (any, error) {
		return callFetchFn(ctx, fetchFn)
	})
}

func callFetchFn(ctx context.Context, fetchFn any) (any, error) {
	if fn, ok := fetchFn.(func(context.Context) (any, error)); ok {
		return fn(ctx)
	}

	results := reflect.ValueOf(fetchFn).Call([]reflect.Value{reflect.ValueOf(&ctx).Elem()})

	var result any
	if v := results[0]; v.IsValid() && v.CanInterface() {
		result = v.Interface()
	}
	var err error
	if e := results[1]; !e.IsNil() {
		err = e.Interface().(error)
	}
	return result, err
}

// Delete removes a single key.
func (s *SturdycService) Delete(_ context.Context, key string) error {
	s.client.Delete(key)
	return nil
}

// DeleteByPrefix removes every key starting with prefix.
func (s *SturdycService) DeleteByPrefix(_ context.Context, prefix string) error {
	for _, key := range s.client.ScanKeys() {
		if strings.HasPrefix(key, prefix) {
			s.client.Delete(key)
		}
	}
	return nil
}

// InvalidateKeys removes every key in keys.
func (s *SturdycService) InvalidateKeys(_ context.Context, keys []string) error {
	for _, key := range keys {
		s.client.Delete(key)
	}
	return nil
}

// Size returns the number of entries, including ones that have expired but
// were not swept yet.
func (s *SturdycService) Size() int {
	return s.client.Size()
}
