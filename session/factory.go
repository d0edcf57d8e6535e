package session

import (
	"context"
	"log/slog"
	"reflect"

	daoerrors "github.com/goliatone/go-generic-dao/errors"
	"github.com/goliatone/go-generic-dao/mapping"
	"github.com/uptrace/bun"
)

// Factory opens sessions over one database and answers mapping lookups for
// the entity types registered with it.
type Factory struct {
	db       *bun.DB
	registry *mapping.Registry
	logger   *slog.Logger
}

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

// WithLogger sets the logger used for session lifecycle events.
func WithLogger(logger *slog.Logger) FactoryOption {
	return func(f *Factory) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFactory creates a session factory. Both db and registry are required.
func NewFactory(db *bun.DB, registry *mapping.Registry, opts ...FactoryOption) (*Factory, error) {
	if db == nil {
		return nil, daoerrors.NewNilArgumentError("db")
	}
	if registry == nil {
		return nil, daoerrors.NewNilArgumentError("registry")
	}

	f := &Factory{
		db:       db,
		registry: registry,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// OpenSession opens a new session. The caller owns it and must Close it.
func (f *Factory) OpenSession() *Session {
	s := newSession(f)
	f.logger.Debug("session opened", "session", s.id)
	return s
}

// CurrentSession returns the session bound to ctx for this factory. It fails
// with errors.ErrNoCurrentSession when none is bound and ErrSessionClosed
// when the bound session was closed.
func (f *Factory) CurrentSession(ctx context.Context) (*Session, error) {
	s, ok := f.fromContext(ctx)
	if !ok {
		return nil, daoerrors.ErrNoCurrentSession
	}
	if s.Closed() {
		return nil, ErrSessionClosed
	}
	return s, nil
}

// WithSession runs fn with a session bound to its context. An already bound
// session is reused; otherwise a new one is opened and closed after fn returns.
func (f *Factory) WithSession(ctx context.Context, fn func(ctx context.Context) error) error {
	if s, ok := f.fromContext(ctx); ok && !s.Closed() {
		return fn(ctx)
	}

	s := f.OpenSession()
	defer s.Close()
	return fn(Bind(ctx, s))
}

// Metadata implements mapping.MetadataLookup over the factory's registry.
func (f *Factory) Metadata(typ reflect.Type) (*mapping.EntityMetadata, bool) {
	return f.registry.Metadata(typ)
}

// Registry returns the mapping registry.
func (f *Factory) Registry() *mapping.Registry {
	return f.registry
}

// DB returns the underlying database.
func (f *Factory) DB() *bun.DB {
	return f.db
}

// Logger returns the factory logger.
func (f *Factory) Logger() *slog.Logger {
	return f.logger
}

func (f *Factory) fromContext(ctx context.Context) (*Session, bool) {
	if ctx == nil {
		return nil, false
	}
	s, ok := ctx.Value(sessionContextKey{factory: f}).(*Session)
	return s, ok && s != nil
}
