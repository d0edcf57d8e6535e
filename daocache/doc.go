// Package daocache decorates generic DAOs with read-through caching.
//
// A CachedDAO wraps any dao.DAO and serves CountAll, FindAll, FindByID,
// FindByIDs, FindByExample and FindPage from a cache.CacheService. Keys are
// built by a cache.KeySerializer from a method string made of the entity
// namespace and the operation name, plus the call arguments:
//
//	dummy::find_by_id::42
//	dummy::find_page::0::10::slice[1]:{String ASC}
//
// # Detached results
//
// Cache fills run in a session of their own, so the cache holds storage state
// and the instances tracked by the caller's session are left alone. Values
// stored in the cache are copies and every call returns fresh copies, so a
// cached entity is never shared between callers or sessions. Reattach a
// cached copy before updating it through the session-aware DAO if identity
// matters.
//
// # Invalidation
//
// Writes go to the base DAO. When they succeed the decorator drops the
// find_by_id key of the written entity and every query key (count, lists and
// pages) of its namespace. Keys are discovered through a KeyRegistry, which
// also records the tags supplied with WithCacheTags:
//
//	ctx = daocache.WithCacheTags(ctx, "tenant:7")
//	rows, err := cached.FindAll(ctx)
//	...
//	err = cached.InvalidateTags(ctx, "tenant:7")
//
// Share one registry between decorators with WithKeyRegistry to make tag
// invalidation reach every namespace.
//
// # Transactions
//
// Reads issued while the current session has an open transaction bypass the
// cache and return the base DAO's results, tracked instances included.
// Writes made inside a transaction invalidate when they run and again when
// the transaction commits or rolls back.
package daocache
