package daocache

import (
	"context"
	"log/slog"

	"github.com/goliatone/go-generic-dao/cache"
	"github.com/goliatone/go-generic-dao/dao"
	"github.com/goliatone/go-generic-dao/mapping"
	"github.com/goliatone/go-generic-dao/session"
)

var _ dao.DAO[struct{}, int] = (*CachedDAO[struct{}, int])(nil)

const (
	opCountAll      = "count_all"
	opFindAll       = "find_all"
	opFindByID      = "find_by_id"
	opFindByIDs     = "find_by_ids"
	opFindByExample = "find_by_example"
	opFindPage      = "find_page"
)

// queryOps are the reads whose results depend on more than one row.
var queryOps = []string{opCountAll, opFindAll, opFindByIDs, opFindByExample, opFindPage}

// sessionSource is implemented by DAOs that resolve a session per context,
// such as dao.GenericDAO.
type sessionSource interface {
	CurrentSession(ctx context.Context) (*session.Session, error)
}

// CachedDAO decorates a DAO with read-through caching. Cached results are
// copies detached from the session; writes pass through and invalidate the
// affected keys. Reads inside a transaction bypass the cache.
type CachedDAO[T any, K comparable] struct {
	base          dao.DAO[T, K]
	sessions      sessionSource
	cache         cache.CacheService
	keySerializer cache.KeySerializer
	registry      *KeyRegistry
	namespace     string
	meta          *mapping.EntityMetadata
	logger        *slog.Logger
}

// Option configures a CachedDAO.
type Option func(*options)

type options struct {
	registry  *KeyRegistry
	namespace string
	logger    *slog.Logger
}

// WithKeyRegistry shares a key registry between cached DAOs.
func WithKeyRegistry(registry *KeyRegistry) Option {
	return func(o *options) {
		if registry != nil {
			o.registry = registry
		}
	}
}

// WithNamespace overrides the key namespace, which defaults to the snake_case
// entity type name.
func WithNamespace(namespace string) Option {
	return func(o *options) {
		if namespace != "" {
			o.namespace = namespace
		}
	}
}

// WithLogger sets the logger used to report failed invalidations.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// New wraps base. A nil keySerializer selects the default serializer.
func New[T any, K comparable](base dao.DAO[T, K], cacheService cache.CacheService, keySerializer cache.KeySerializer, opts ...Option) *CachedDAO[T, K] {
	o := options{
		namespace: toSnake(mapping.TypeOf[T]().Name()),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = NewKeyRegistry()
	}
	if keySerializer == nil {
		keySerializer = cache.NewDefaultKeySerializer()
	}

	c := &CachedDAO[T, K]{
		base:          base,
		cache:         cacheService,
		keySerializer: keySerializer,
		registry:      o.registry,
		namespace:     o.namespace,
		logger:        o.logger,
	}
	if src, ok := base.(interface {
		Metadata() *mapping.EntityMetadata
	}); ok {
		c.meta = src.Metadata()
	}
	if src, ok := base.(sessionSource); ok {
		c.sessions = src
	}
	return c
}

// Base returns the decorated DAO.
func (c *CachedDAO[T, K]) Base() dao.DAO[T, K] {
	return c.base
}

// Namespace returns the key prefix of this DAO.
func (c *CachedDAO[T, K]) Namespace() string {
	return c.namespace
}

// CountAll returns the cached row count.
func (c *CachedDAO[T, K]) CountAll(ctx context.Context) (int, error) {
	if c.transaction(ctx) != nil {
		return c.base.CountAll(ctx)
	}
	key := c.key(ctx, opCountAll)
	return cache.GetOrFetch(ctx, c.cache, key, func(ctx context.Context) (int, error) {
		var count int
		err := c.isolated(ctx, func(ctx context.Context) (err error) {
			count, err = c.base.CountAll(ctx)
			return err
		})
		return count, err
	})
}

// FindAll returns copies of the cached result of the base FindAll.
func (c *CachedDAO[T, K]) FindAll(ctx context.Context) ([]*T, error) {
	if c.transaction(ctx) != nil {
		return c.base.FindAll(ctx)
	}
	key := c.key(ctx, opFindAll)
	return c.list(ctx, key, func(ctx context.Context) ([]*T, error) {
		return c.base.FindAll(ctx)
	})
}

// FindByID returns a copy of the cached entity, or nil when there is none.
func (c *CachedDAO[T, K]) FindByID(ctx context.Context, id K) (*T, error) {
	if c.transaction(ctx) != nil {
		return c.base.FindByID(ctx, id)
	}
	key := c.key(ctx, opFindByID, id)
	found, err := cache.GetOrFetch(ctx, c.cache, key, func(ctx context.Context) (*T, error) {
		var entity *T
		err := c.isolated(ctx, func(ctx context.Context) (err error) {
			entity, err = c.base.FindByID(ctx, id)
			return err
		})
		if err != nil {
			return nil, err
		}
		return clone(entity), nil
	})
	if err != nil {
		return nil, err
	}
	return clone(found), nil
}

// FindByIDs caches per distinct id list.
func (c *CachedDAO[T, K]) FindByIDs(ctx context.Context, ids ...K) ([]*T, error) {
	if c.transaction(ctx) != nil {
		return c.base.FindByIDs(ctx, ids...)
	}
	key := c.key(ctx, opFindByIDs, ids)
	return c.list(ctx, key, func(ctx context.Context) ([]*T, error) {
		return c.base.FindByIDs(ctx, ids...)
	})
}

// FindByExample caches per example state.
func (c *CachedDAO[T, K]) FindByExample(ctx context.Context, example *T) ([]*T, error) {
	if c.transaction(ctx) != nil {
		return c.base.FindByExample(ctx, example)
	}
	key := c.key(ctx, opFindByExample, example)
	return c.list(ctx, key, func(ctx context.Context) ([]*T, error) {
		return c.base.FindByExample(ctx, example)
	})
}

// FindPage caches per window and ordering. Invalid arguments are rejected by
// the base DAO and never cached.
func (c *CachedDAO[T, K]) FindPage(ctx context.Context, firstResult, maxResults int, sortCriteria ...dao.SortCriterion) ([]*T, error) {
	if c.transaction(ctx) != nil {
		return c.base.FindPage(ctx, firstResult, maxResults, sortCriteria...)
	}
	key := c.key(ctx, opFindPage, firstResult, maxResults, sortCriteria)
	return c.list(ctx, key, func(ctx context.Context) ([]*T, error) {
		return c.base.FindPage(ctx, firstResult, maxResults, sortCriteria...)
	})
}

// Reattach passes through.
func (c *CachedDAO[T, K]) Reattach(ctx context.Context, obj *T) (*T, error) {
	return c.base.Reattach(ctx, obj)
}

// DefaultSortCriteria passes through.
func (c *CachedDAO[T, K]) DefaultSortCriteria() []dao.SortCriterion {
	return c.base.DefaultSortCriteria()
}

// Save stores obj and invalidates query results and any cached miss for its id.
func (c *CachedDAO[T, K]) Save(ctx context.Context, obj *T) error {
	if err := c.base.Save(ctx, obj); err != nil {
		return err
	}
	id, known := c.identifier(obj)
	c.invalidate(ctx, func(ctx context.Context) { c.invalidateEntity(ctx, id, known) })
	return nil
}

// Update writes obj and invalidates its id key and query results.
func (c *CachedDAO[T, K]) Update(ctx context.Context, obj *T) (*T, error) {
	updated, err := c.base.Update(ctx, obj)
	if err != nil {
		return nil, err
	}
	id, known := c.identifier(updated)
	c.invalidate(ctx, func(ctx context.Context) { c.invalidateEntity(ctx, id, known) })
	return updated, nil
}

// Merge writes the state of obj and invalidates its id key and query results.
func (c *CachedDAO[T, K]) Merge(ctx context.Context, obj *T) (*T, error) {
	merged, err := c.base.Merge(ctx, obj)
	if err != nil {
		return nil, err
	}
	id, known := c.identifier(merged)
	c.invalidate(ctx, func(ctx context.Context) { c.invalidateEntity(ctx, id, known) })
	return merged, nil
}

// DeleteByID deletes and invalidates the id key and query results.
func (c *CachedDAO[T, K]) DeleteByID(ctx context.Context, id K) error {
	if err := c.base.DeleteByID(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx, func(ctx context.Context) { c.invalidateEntity(ctx, id, true) })
	return nil
}

// Delete deletes obj and invalidates its id key and query results.
func (c *CachedDAO[T, K]) Delete(ctx context.Context, obj *T) error {
	id, known := c.identifier(obj)
	if err := c.base.Delete(ctx, obj); err != nil {
		return err
	}
	c.invalidate(ctx, func(ctx context.Context) { c.invalidateEntity(ctx, id, known) })
	return nil
}

// Evict passes through.
func (c *CachedDAO[T, K]) Evict(ctx context.Context, obj *T) error {
	return c.base.Evict(ctx, obj)
}

// Refresh passes through; it reads storage, not the cache.
func (c *CachedDAO[T, K]) Refresh(ctx context.Context, obj *T) error {
	return c.base.Refresh(ctx, obj)
}

// IsPersistent passes through.
func (c *CachedDAO[T, K]) IsPersistent(obj *T) (bool, error) {
	return c.base.IsPersistent(obj)
}

// InvalidateTags evicts every key read under any of tags, across all DAOs
// sharing the key registry.
func (c *CachedDAO[T, K]) InvalidateTags(ctx context.Context, tags ...string) error {
	var keys []string
	for _, tag := range dedupeStrings(append([]string(nil), tags...)) {
		keys = append(keys, c.registry.takeTag(tag)...)
	}
	if len(keys) == 0 {
		return nil
	}
	c.registry.forget(keys...)
	return c.cache.InvalidateKeys(ctx, keys)
}

// InvalidateAll evicts every key of this DAO's namespace.
func (c *CachedDAO[T, K]) InvalidateAll(ctx context.Context) error {
	return c.invalidatePrefix(ctx, c.namespace+cache.KeySeparator)
}

func (c *CachedDAO[T, K]) method(op string) string {
	return c.namespace + cache.KeySeparator + op
}

// key serializes the read and registers it under the context's tags.
func (c *CachedDAO[T, K]) key(ctx context.Context, op string, args ...any) string {
	key := c.keySerializer.SerializeKey(c.method(op), args...)
	c.registry.track(key, cacheTagsFromContext(ctx))
	return key
}

func (c *CachedDAO[T, K]) list(ctx context.Context, key string, fetch func(ctx context.Context) ([]*T, error)) ([]*T, error) {
	rows, err := cache.GetOrFetch(ctx, c.cache, key, func(ctx context.Context) ([]*T, error) {
		var rows []*T
		err := c.isolated(ctx, func(ctx context.Context) (err error) {
			rows, err = fetch(ctx)
			return err
		})
		if err != nil {
			return nil, err
		}
		return cloneAll(rows), nil
	})
	if err != nil {
		return nil, err
	}
	return cloneAll(rows), nil
}

func (c *CachedDAO[T, K]) identifier(obj *T) (any, bool) {
	if c.meta == nil || obj == nil {
		return nil, false
	}
	return c.meta.Identifier(obj)
}

// transaction returns the current session when it has an open transaction.
func (c *CachedDAO[T, K]) transaction(ctx context.Context) *session.Session {
	if c.sessions == nil {
		return nil
	}
	s, err := c.sessions.CurrentSession(ctx)
	if err != nil || !s.InTransaction() {
		return nil
	}
	return s
}

// isolated runs a cache fill in a session of its own. Instances tracked by
// the caller's session are neither detached nor read back into the cache.
func (c *CachedDAO[T, K]) isolated(ctx context.Context, fn func(ctx context.Context) error) error {
	if c.sessions == nil {
		return fn(ctx)
	}
	current, err := c.sessions.CurrentSession(ctx)
	if err != nil {
		return fn(ctx)
	}
	fill := current.Factory().OpenSession()
	defer fill.Close()
	return fn(session.Bind(ctx, fill))
}

// invalidate runs fn now and, inside a transaction, again once the
// transaction completes.
func (c *CachedDAO[T, K]) invalidate(ctx context.Context, fn func(ctx context.Context)) {
	fn(ctx)
	if s := c.transaction(ctx); s != nil {
		detached := context.WithoutCancel(ctx)
		s.AfterCompletion(func(bool) { fn(detached) })
	}
}

func (c *CachedDAO[T, K]) invalidateEntity(ctx context.Context, id any, known bool) {
	if known {
		c.invalidateID(ctx, id)
	} else {
		c.invalidatePrefix(ctx, c.method(opFindByID)+cache.KeySeparator)
	}
	c.invalidateQueries(ctx)
}

func (c *CachedDAO[T, K]) invalidateID(ctx context.Context, id any) {
	key := c.keySerializer.SerializeKey(c.method(opFindByID), id)
	if err := c.cache.Delete(ctx, key); err != nil {
		c.logger.Warn("cache invalidation failed", "key", key, "error", err)
	}
	c.registry.forget(key)
}

func (c *CachedDAO[T, K]) invalidateQueries(ctx context.Context) {
	for _, op := range queryOps {
		c.invalidatePrefix(ctx, c.method(op))
	}
}

func (c *CachedDAO[T, K]) invalidatePrefix(ctx context.Context, prefix string) error {
	keys := c.registry.withPrefix(prefix)
	if len(keys) == 0 {
		return nil
	}
	c.registry.forget(keys...)
	if err := c.cache.InvalidateKeys(ctx, keys); err != nil {
		c.logger.Warn("cache invalidation failed", "prefix", prefix, "keys", len(keys), "error", err)
		return err
	}
	return nil
}

func clone[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := new(T)
	*c = *v
	return c
}

func cloneAll[T any](rows []*T) []*T {
	out := make([]*T, len(rows))
	for i, row := range rows {
		out[i] = clone(row)
	}
	return out
}
