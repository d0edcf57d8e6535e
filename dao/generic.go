package dao

import (
	"context"
	"reflect"

	"github.com/goliatone/go-generic-dao/mapping"
	"github.com/goliatone/go-generic-dao/session"
)

// GenericDAO combines a Readable and a Writeable that share one resolved
// entity metadata and one default ordering.
type GenericDAO[T any, K comparable] struct {
	readable  *Readable[T, K]
	writeable *Writeable[T, K]
}

// New creates a GenericDAO for T, identified by K, using provider for the
// current session and the mapping metadata.
func New[T any, K comparable](provider SessionProvider, opts ...Option) (*GenericDAO[T, K], error) {
	b, err := newBase[T, K](provider, opts...)
	if err != nil {
		return nil, err
	}
	return &GenericDAO[T, K]{
		readable:  &Readable[T, K]{base: b},
		writeable: newWriteable(b),
	}, nil
}

// CurrentSession returns the session bound to ctx.
func (d *GenericDAO[T, K]) CurrentSession(ctx context.Context) (*session.Session, error) {
	return d.readable.session(ctx)
}

// Readable returns the read half of the DAO.
func (d *GenericDAO[T, K]) Readable() *Readable[T, K] {
	return d.readable
}

// Writeable returns the write half of the DAO.
func (d *GenericDAO[T, K]) Writeable() *Writeable[T, K] {
	return d.writeable
}

// EntityType returns the entity struct type handled by the DAO.
func (d *GenericDAO[T, K]) EntityType() reflect.Type {
	return d.readable.EntityType()
}

// Metadata returns the mapping metadata of T.
func (d *GenericDAO[T, K]) Metadata() *mapping.EntityMetadata {
	return d.readable.Metadata()
}

// DefaultSortCriteria returns a copy of the default ordering.
func (d *GenericDAO[T, K]) DefaultSortCriteria() []SortCriterion {
	return d.readable.DefaultSortCriteria()
}

// DefaultOrderBy returns the ORDER BY clause of the default ordering.
func (d *GenericDAO[T, K]) DefaultOrderBy() string {
	return d.readable.DefaultOrderBy()
}

// DeleteStatement returns the statement used by DeleteByID.
func (d *GenericDAO[T, K]) DeleteStatement() string {
	return d.writeable.DeleteStatement()
}

// IsPersistent reports whether obj has an identifier.
func (d *GenericDAO[T, K]) IsPersistent(obj *T) (bool, error) {
	return d.writeable.IsPersistent(obj)
}

// CountAll returns the number of stored entities.
func (d *GenericDAO[T, K]) CountAll(ctx context.Context) (int, error) {
	return d.readable.CountAll(ctx)
}

// FindAll returns every entity in the default order.
func (d *GenericDAO[T, K]) FindAll(ctx context.Context) ([]*T, error) {
	return d.readable.FindAll(ctx)
}

// FindByID returns the entity with id, or nil when there is none.
func (d *GenericDAO[T, K]) FindByID(ctx context.Context, id K) (*T, error) {
	return d.readable.FindByID(ctx, id)
}

// FindByIDs returns the entities whose identifier is in ids.
func (d *GenericDAO[T, K]) FindByIDs(ctx context.Context, ids ...K) ([]*T, error) {
	return d.readable.FindByIDs(ctx, ids...)
}

// FindByExample returns the entities matching the non-zero fields of example.
func (d *GenericDAO[T, K]) FindByExample(ctx context.Context, example *T) ([]*T, error) {
	return d.readable.FindByExample(ctx, example)
}

// FindPage returns maxResults entities starting at firstResult.
func (d *GenericDAO[T, K]) FindPage(ctx context.Context, firstResult, maxResults int, sortCriteria ...SortCriterion) ([]*T, error) {
	return d.readable.FindPage(ctx, firstResult, maxResults, sortCriteria...)
}

// Reattach tracks a detached instance in the current session.
func (d *GenericDAO[T, K]) Reattach(ctx context.Context, obj *T) (*T, error) {
	return d.readable.Reattach(ctx, obj)
}

// Save inserts obj.
func (d *GenericDAO[T, K]) Save(ctx context.Context, obj *T) error {
	return d.writeable.Save(ctx, obj)
}

// Update writes obj, which must already be persistent.
func (d *GenericDAO[T, K]) Update(ctx context.Context, obj *T) (*T, error) {
	return d.writeable.Update(ctx, obj)
}

// DeleteByID deletes the entity with id.
func (d *GenericDAO[T, K]) DeleteByID(ctx context.Context, id K) error {
	return d.writeable.DeleteByID(ctx, id)
}

// Delete deletes obj.
func (d *GenericDAO[T, K]) Delete(ctx context.Context, obj *T) error {
	return d.writeable.Delete(ctx, obj)
}

// Evict detaches obj from the current session.
func (d *GenericDAO[T, K]) Evict(ctx context.Context, obj *T) error {
	return d.writeable.Evict(ctx, obj)
}

// Merge copies obj onto the managed instance and writes it.
func (d *GenericDAO[T, K]) Merge(ctx context.Context, obj *T) (*T, error) {
	return d.writeable.Merge(ctx, obj)
}

// Refresh reloads obj from storage.
func (d *GenericDAO[T, K]) Refresh(ctx context.Context, obj *T) error {
	return d.writeable.Refresh(ctx, obj)
}
