package dao

import (
	"context"
	"database/sql"
	"errors"

	daoerrors "github.com/goliatone/go-generic-dao/errors"
	"github.com/goliatone/go-generic-dao/session"
)

// Writeable implements WriteableDAO on top of a SessionProvider.
type Writeable[T any, K comparable] struct {
	*base[T, K]
	deleteStatement string
}

// NewWriteable resolves the metadata of T and prepares the delete-by-id
// statement.
func NewWriteable[T any, K comparable](provider SessionProvider, opts ...Option) (*Writeable[T, K], error) {
	b, err := newBase[T, K](provider, opts...)
	if err != nil {
		return nil, err
	}
	return newWriteable(b), nil
}

func newWriteable[T any, K comparable](b *base[T, K]) *Writeable[T, K] {
	return &Writeable[T, K]{
		base:            b,
		deleteStatement: "DELETE FROM " + string(b.meta.Table.SQLName) + " WHERE " + string(b.meta.PrimaryKey.SQLName) + " = ?",
	}
}

// DeleteStatement returns the statement DeleteByID executes.
func (w *Writeable[T, K]) DeleteStatement() string {
	return w.deleteStatement
}

// Save inserts obj. A generated identifier is written back to obj, which is
// then tracked by the current session.
func (w *Writeable[T, K]) Save(ctx context.Context, obj *T) error {
	if obj == nil {
		return daoerrors.NewNilArgumentError("object")
	}
	s, err := w.session(ctx)
	if err != nil {
		return err
	}
	if _, err := s.IDB().NewInsert().Model(obj).Exec(ctx); err != nil {
		return err
	}
	if w.meta.IsPersistent(obj) {
		return s.Track(w.meta, obj)
	}
	return nil
}

// Update writes the state of obj and tracks it. obj must be persistent and no
// other instance with the same identifier may be tracked.
func (w *Writeable[T, K]) Update(ctx context.Context, obj *T) (*T, error) {
	if err := w.requirePersistent(obj); err != nil {
		return nil, err
	}
	s, err := w.session(ctx)
	if err != nil {
		return nil, err
	}
	id, _ := w.meta.Identifier(obj)
	if tracked, ok := s.Lookup(w.meta, id); ok && tracked != any(obj) {
		return nil, daoerrors.NewNonUniqueObjectError(w.meta.EntityName, id)
	}
	if _, err := s.IDB().NewUpdate().Model(obj).WherePK().Exec(ctx); err != nil {
		return nil, err
	}
	if err := s.Track(w.meta, obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// DeleteByID deletes by identifier without loading the entity. Deleting a
// missing identifier is not an error.
func (w *Writeable[T, K]) DeleteByID(ctx context.Context, id K) error {
	key, err := w.normalizeID(id)
	if err != nil {
		return err
	}
	s, err := w.session(ctx)
	if err != nil {
		return err
	}
	res, err := s.IDB().ExecContext(ctx, w.deleteStatement, key)
	if err != nil {
		return err
	}
	s.UntrackID(w.meta, key)

	if n, err := res.RowsAffected(); err == nil {
		w.logger.Debug("deleted by id", "id", key, "rows", n)
	}
	return nil
}

// Delete removes obj from storage and from the current session.
func (w *Writeable[T, K]) Delete(ctx context.Context, obj *T) error {
	if err := w.requirePersistent(obj); err != nil {
		return err
	}
	s, err := w.session(ctx)
	if err != nil {
		return err
	}
	if _, err := s.IDB().NewDelete().Model(obj).WherePK().Exec(ctx); err != nil {
		return err
	}
	id, _ := w.meta.Identifier(obj)
	s.UntrackID(w.meta, id)
	return nil
}

// Evict detaches obj from the current session. Later changes to obj are not
// written unless it is updated, merged or reattached.
func (w *Writeable[T, K]) Evict(ctx context.Context, obj *T) error {
	if obj == nil {
		return daoerrors.NewNilArgumentError("object")
	}
	s, err := w.session(ctx)
	if err != nil {
		return err
	}
	s.Untrack(w.meta, obj)
	return nil
}

// Merge copies the state of obj onto the instance managed by the current
// session and writes it. A transient obj is saved as a new copy. obj itself
// never becomes tracked unless it already was.
func (w *Writeable[T, K]) Merge(ctx context.Context, obj *T) (*T, error) {
	if obj == nil {
		return nil, daoerrors.NewNilArgumentError("object")
	}
	s, err := w.session(ctx)
	if err != nil {
		return nil, err
	}

	id, persistent := w.meta.Identifier(obj)
	if !persistent {
		return w.saveCopy(ctx, obj)
	}

	if tracked, ok := s.Lookup(w.meta, id); ok {
		managed := tracked.(*T)
		if managed != obj {
			*managed = *obj
		}
		return w.write(ctx, s, managed)
	}

	loaded := new(T)
	err = w.pkWhere(s.IDB().NewSelect().Model(loaded), id).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return w.saveCopy(ctx, obj)
	}
	if err != nil {
		return nil, err
	}
	*loaded = *obj
	if err := s.Track(w.meta, loaded); err != nil {
		return nil, err
	}
	return w.write(ctx, s, loaded)
}

func (w *Writeable[T, K]) saveCopy(ctx context.Context, obj *T) (*T, error) {
	clone := new(T)
	*clone = *obj
	if err := w.Save(ctx, clone); err != nil {
		return nil, err
	}
	return clone, nil
}

func (w *Writeable[T, K]) write(ctx context.Context, s *session.Session, managed *T) (*T, error) {
	if _, err := s.IDB().NewUpdate().Model(managed).WherePK().Exec(ctx); err != nil {
		return nil, err
	}
	return managed, nil
}

// Refresh overwrites the state of obj with the stored row. It returns
// sql.ErrNoRows when the row no longer exists.
func (w *Writeable[T, K]) Refresh(ctx context.Context, obj *T) error {
	if err := w.requirePersistent(obj); err != nil {
		return err
	}
	s, err := w.session(ctx)
	if err != nil {
		return err
	}
	return s.IDB().NewSelect().Model(obj).WherePK().Scan(ctx)
}

// IsPersistent reports whether obj carries an identifier.
func (w *Writeable[T, K]) IsPersistent(obj *T) (bool, error) {
	if obj == nil {
		return false, daoerrors.NewNilArgumentError("object")
	}
	return w.meta.IsPersistent(obj), nil
}
