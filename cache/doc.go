// Package cache provides the caching interfaces and key serialization used by
// the cached DAO decorator.
//
// # Overview
//
// The package exports two interfaces and their default implementations:
//
//   - CacheService: read-through get-or-fetch plus key and prefix invalidation,
//     backed by sturdyc (see NewCacheService)
//   - KeySerializer: builds stable cache keys from a method name and arguments
//
// # Basic Usage
//
//	svc, err := cache.NewCacheService(cache.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	serializer := cache.NewDefaultKeySerializer()
//
//	key := serializer.SerializeKey("user::find_by_id", int64(42))
//	user, err := cache.GetOrFetch(ctx, svc, key, func(ctx context.Context) (*User, error) {
//		return users.FindByID(ctx, 42)
//	})
//
// Concurrent misses for the same key share a single fetch.
//
// # Key Serialization
//
// The default serializer renders each argument deterministically:
//
//   - fmt.Stringer values: their String() output
//   - Basic types: fmt %v
//   - Pointers: the pointed-to value, or "nil"
//   - Slices/arrays: recursive serialization of elements
//   - Maps: entries sorted by rendered key
//   - Structs: exported fields as name:value pairs
//   - Functions and channels: their address, stable only within a process
//
// Every key starts with the method name, which is what prefix invalidation
// (CacheService.DeleteByPrefix) relies on. NewHashedKeySerializer keeps that
// prefix and replaces the argument segments with an xxhash digest, which
// bounds key length for query-by-example and paging keys.
//
// # Custom Key Serializers
//
// A custom KeySerializer must keep the method name as the leading segment:
//
//	type tenantKeys struct {
//		tenant string
//		inner  cache.KeySerializer
//	}
//
//	func (s tenantKeys) SerializeKey(method string, args ...any) string {
//		return s.inner.SerializeKey(method, append([]any{s.tenant}, args...)...)
//	}
package cache
