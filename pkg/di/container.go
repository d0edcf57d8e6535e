package di

import (
	"context"
	"log/slog"

	"github.com/goliatone/go-generic-dao/cache"
	"github.com/goliatone/go-generic-dao/dao"
	"github.com/goliatone/go-generic-dao/daocache"
	daoerrors "github.com/goliatone/go-generic-dao/errors"
	"github.com/goliatone/go-generic-dao/internal/cacheinfra"
	"github.com/goliatone/go-generic-dao/mapping"
	"github.com/goliatone/go-generic-dao/persistence"
	"github.com/goliatone/go-generic-dao/session"
	pkgerrors "github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// Config groups the settings the container wires from.
type Config struct {
	Database persistence.Config
	Cache    cache.Config
}

// DefaultConfig returns the persistence and cache defaults.
func DefaultConfig() Config {
	return Config{
		Database: persistence.DefaultConfig(),
		Cache:    cache.DefaultConfig(),
	}
}

// Container owns the database, the mapping registry, the session factory,
// the transaction manager and the cache shared by the DAOs it creates.
type Container struct {
	config        Config
	db            *bun.DB
	ownsDB        bool
	registry      *mapping.Registry
	factory       *session.Factory
	txManager     *session.TransactionManager
	cacheService  cache.CacheService
	keySerializer cache.KeySerializer
	keyRegistry   *daocache.KeyRegistry
	logger        *slog.Logger
}

// Option configures a Container.
type Option func(*containerOptions)

type containerOptions struct {
	models        []any
	createTables  bool
	keySerializer cache.KeySerializer
	logger        *slog.Logger
}

// WithModels registers entity models with the mapping registry.
func WithModels(models ...any) Option {
	return func(o *containerOptions) {
		o.models = append(o.models, models...)
	}
}

// WithCreateTables creates the tables of the registered models when the
// container is built.
func WithCreateTables() Option {
	return func(o *containerOptions) {
		o.createTables = true
	}
}

// WithKeySerializer replaces the default cache key serializer.
func WithKeySerializer(serializer cache.KeySerializer) Option {
	return func(o *containerOptions) {
		if serializer != nil {
			o.keySerializer = serializer
		}
	}
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *containerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewContainer opens the database described by cfg.Database and wires the
// rest on top of it. Close releases the database.
func NewContainer(ctx context.Context, cfg Config, opts ...Option) (*Container, error) {
	o := applyOptions(opts)

	if err := cfg.Cache.Validate(); err != nil {
		return nil, err
	}
	db, err := persistence.Open(ctx, cfg.Database, o.logger)
	if err != nil {
		return nil, err
	}

	c, err := build(ctx, cfg, db, o)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	c.ownsDB = true
	return c, nil
}

// NewContainerWithDefaults builds a container over DefaultConfig.
func NewContainerWithDefaults(ctx context.Context, opts ...Option) (*Container, error) {
	return NewContainer(ctx, DefaultConfig(), opts...)
}

// NewContainerFromDB wires a container over an existing database. The
// caller keeps ownership of db.
func NewContainerFromDB(ctx context.Context, db *bun.DB, cacheConfig cache.Config, opts ...Option) (*Container, error) {
	if db == nil {
		return nil, daoerrors.NewNilArgumentError("db")
	}
	return build(ctx, Config{Cache: cacheConfig}, db, applyOptions(opts))
}

func applyOptions(opts []Option) containerOptions {
	o := containerOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.keySerializer == nil {
		o.keySerializer = cache.NewDefaultKeySerializer()
	}
	return o
}

func build(ctx context.Context, cfg Config, db *bun.DB, o containerOptions) (*Container, error) {
	cacheService, err := cacheinfra.NewSturdycService(cfg.Cache)
	if err != nil {
		return nil, err
	}

	registry, err := mapping.NewRegistry(db, o.models...)
	if err != nil {
		return nil, err
	}
	if o.createTables {
		if err := registry.CreateTables(ctx); err != nil {
			return nil, pkgerrors.Wrap(err, "could not create tables")
		}
	}

	factory, err := session.NewFactory(db, registry, session.WithLogger(o.logger))
	if err != nil {
		return nil, err
	}
	txManager, err := session.NewTransactionManager(factory)
	if err != nil {
		return nil, err
	}

	o.logger.Debug("container configured", "entities", len(registry.Entities()))
	return &Container{
		config:        cfg,
		db:            db,
		registry:      registry,
		factory:       factory,
		txManager:     txManager,
		cacheService:  cacheService,
		keySerializer: o.keySerializer,
		keyRegistry:   daocache.NewKeyRegistry(),
		logger:        o.logger,
	}, nil
}

// Config returns the configuration the container was built from.
func (c *Container) Config() Config {
	return c.config
}

// DB returns the bun database.
func (c *Container) DB() *bun.DB {
	return c.db
}

// Registry returns the mapping registry.
func (c *Container) Registry() *mapping.Registry {
	return c.registry
}

// SessionFactory returns the session factory every DAO of the container uses.
func (c *Container) SessionFactory() *session.Factory {
	return c.factory
}

// TransactionManager returns the transaction manager over SessionFactory.
func (c *Container) TransactionManager() *session.TransactionManager {
	return c.txManager
}

// CacheService returns the singleton cache service instance.
func (c *Container) CacheService() cache.CacheService {
	return c.cacheService
}

// KeySerializer returns the singleton key serializer instance.
func (c *Container) KeySerializer() cache.KeySerializer {
	return c.keySerializer
}

// KeyRegistry returns the key registry shared by every cached DAO.
func (c *Container) KeyRegistry() *daocache.KeyRegistry {
	return c.keyRegistry
}

// Logger returns the container logger.
func (c *Container) Logger() *slog.Logger {
	return c.logger
}

// Ping checks that the database is reachable.
func (c *Container) Ping(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return pkgerrors.Wrap(err, "database ping failed")
	}
	return nil
}

// Close closes the database when the container opened it.
func (c *Container) Close() error {
	if !c.ownsDB {
		return nil
	}
	return c.db.Close()
}

// NewDAO creates a DAO for T bound to the container's session factory.
//
// Go methods cannot have type parameters, so this is a package-level
// function: NewDAO[User, int64](container).
func NewDAO[T any, K comparable](c *Container, opts ...dao.Option) (*dao.GenericDAO[T, K], error) {
	opts = append([]dao.Option{dao.WithLogger(c.logger)}, opts...)
	return dao.New[T, K](c.factory, opts...)
}

// NewCachedDAO creates a DAO for T decorated with the container's cache,
// key serializer and shared key registry.
func NewCachedDAO[T any, K comparable](c *Container, opts ...dao.Option) (*daocache.CachedDAO[T, K], error) {
	base, err := NewDAO[T, K](c, opts...)
	if err != nil {
		return nil, err
	}
	return daocache.New[T, K](base, c.cacheService, c.keySerializer,
		daocache.WithKeyRegistry(c.keyRegistry),
		daocache.WithLogger(c.logger),
	), nil
}
