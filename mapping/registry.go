package mapping

import (
	"context"
	"log/slog"
	"reflect"
	"sync"

	daoerrors "github.com/goliatone/go-generic-dao/errors"
	"github.com/uptrace/bun"
)

// MetadataLookup resolves the persistence metadata of an entity type.
// The boolean is false when the type is not mapped.
type MetadataLookup interface {
	Metadata(typ reflect.Type) (*EntityMetadata, bool)
}

// Registry holds the entity types that are mapped for a database. Only
// registered types can back a DAO.
type Registry struct {
	db       *bun.DB
	mu       sync.RWMutex
	entities map[reflect.Type]*EntityMetadata
	order    []reflect.Type
}

var _ MetadataLookup = (*Registry)(nil)

// NewRegistry creates a registry bound to db and registers the given models.
func NewRegistry(db *bun.DB, models ...any) (*Registry, error) {
	if db == nil {
		return nil, daoerrors.NewNilArgumentError("db")
	}

	r := &Registry{
		db:       db,
		entities: make(map[reflect.Type]*EntityMetadata),
	}
	if err := r.Register(models...); err != nil {
		return nil, err
	}
	return r, nil
}

// Register maps the given models. A model is either a nil pointer such as
// (*User)(nil) or a struct value. Registering the same type twice is a no-op.
func (r *Registry) Register(models ...any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, model := range models {
		typ, err := structType(model)
		if err != nil {
			return err
		}
		if _, exists := r.entities[typ]; exists {
			continue
		}

		meta, err := newEntityMetadata(typ, r.db.Table(typ))
		if err != nil {
			return err
		}
		r.entities[typ] = meta
		r.order = append(r.order, typ)

		slog.Debug("entity mapped", "entity", meta.EntityName, "table", meta.TableName, "pk", meta.PrimaryKeyPropertyName())
	}
	return nil
}

// Metadata returns the metadata of a registered type. Pointer types are
// dereferenced before the lookup.
func (r *Registry) Metadata(typ reflect.Type) (*EntityMetadata, bool) {
	if typ == nil {
		return nil, false
	}
	for typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	meta, ok := r.entities[typ]
	return meta, ok
}

// Entities returns the registered metadata in registration order.
func (r *Registry) Entities() []*EntityMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*EntityMetadata, 0, len(r.order))
	for _, typ := range r.order {
		out = append(out, r.entities[typ])
	}
	return out
}

// DB returns the database the registry resolves table metadata from.
func (r *Registry) DB() *bun.DB {
	return r.db
}

// CreateTables creates the table of every registered entity if it does not
// exist yet.
func (r *Registry) CreateTables(ctx context.Context) error {
	for _, meta := range r.Entities() {
		model := reflect.New(meta.Type).Interface()
		if _, err := r.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Resolve returns the metadata of T from lookup. It fails with
// ErrInvalidArgument when lookup is nil and with ErrConfiguration when T is
// not mapped.
func Resolve[T any](lookup MetadataLookup) (*EntityMetadata, error) {
	if isNil(lookup) {
		return nil, daoerrors.NewNilArgumentError("lookup")
	}

	typ := TypeOf[T]()
	meta, ok := lookup.Metadata(typ)
	if !ok {
		return nil, daoerrors.NewConfigurationError(typ.String(), "type is not mapped")
	}
	return meta, nil
}

// TypeOf returns the struct type for T, dereferencing pointer types.
func TypeOf[T any]() reflect.Type {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	for typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	return typ
}

func structType(model any) (reflect.Type, error) {
	if model == nil {
		return nil, daoerrors.NewNilArgumentError("model")
	}
	typ := reflect.TypeOf(model)
	for typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil, daoerrors.NewConfigurationError(typ.String(), "only struct types can be mapped")
	}
	return typ, nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Interface, reflect.Func, reflect.Slice, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
