package dao

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"reflect"
	"strings"
	"time"

	daoerrors "github.com/goliatone/go-generic-dao/errors"
	"github.com/uptrace/bun"
)

var timeType = reflect.TypeOf(time.Time{})

// Readable implements ReadableDAO on top of a SessionProvider.
type Readable[T any, K comparable] struct {
	*base[T, K]
}

// NewReadable resolves the metadata of T and validates the default sort
// criteria. It fails when T is not mapped or a sort property is unknown.
func NewReadable[T any, K comparable](provider SessionProvider, opts ...Option) (*Readable[T, K], error) {
	b, err := newBase[T, K](provider, opts...)
	if err != nil {
		return nil, err
	}
	return &Readable[T, K]{base: b}, nil
}

// CountAll returns the number of stored T.
func (r *Readable[T, K]) CountAll(ctx context.Context) (int, error) {
	s, err := r.session(ctx)
	if err != nil {
		return 0, err
	}
	return s.IDB().NewSelect().Model((*T)(nil)).Count(ctx)
}

// FindAll returns every T in default order.
func (r *Readable[T, K]) FindAll(ctx context.Context) ([]*T, error) {
	s, err := r.session(ctx)
	if err != nil {
		return nil, err
	}

	var rows []*T
	q := applyOrder(s.IDB().NewSelect().Model(&rows), r.defaultOrder)
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return r.adoptAll(s, rows), nil
}

// FindByID returns the instance tracked by the session for id, or loads it.
// It returns nil, nil when no row has that identifier.
func (r *Readable[T, K]) FindByID(ctx context.Context, id K) (*T, error) {
	key, err := r.normalizeID(id)
	if err != nil {
		return nil, err
	}
	s, err := r.session(ctx)
	if err != nil {
		return nil, err
	}
	if tracked, ok := s.Lookup(r.meta, key); ok {
		return tracked.(*T), nil
	}

	entity := new(T)
	err = r.pkWhere(s.IDB().NewSelect().Model(entity), key).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.Adopt(r.meta, entity).(*T), nil
}

// FindByIDs loads every T whose identifier is in ids. Missing identifiers are
// skipped; no order is guaranteed.
func (r *Readable[T, K]) FindByIDs(ctx context.Context, ids ...K) ([]*T, error) {
	keys := make([]any, 0, len(ids))
	for _, id := range ids {
		key, err := r.normalizeID(id)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	s, err := r.session(ctx)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return []*T{}, nil
	}

	var rows []*T
	err = s.IDB().NewSelect().
		Model(&rows).
		Where("? IN (?)", bun.Ident(r.meta.PrimaryKeyColumn()), bun.In(keys)).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return r.adoptAll(s, rows), nil
}

// FindByExample matches every non-zero scalar field of example. Strings match
// as case-insensitive substrings, other values by equality. Collections,
// relations and the identifier are ignored. A nil example behaves like FindAll.
func (r *Readable[T, K]) FindByExample(ctx context.Context, example *T) ([]*T, error) {
	if example == nil {
		return r.FindAll(ctx)
	}
	s, err := r.session(ctx)
	if err != nil {
		return nil, err
	}

	var rows []*T
	q := s.IDB().NewSelect().Model(&rows)
	q = applyOrder(r.applyExample(q, example), r.defaultOrder)
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return r.adoptAll(s, rows), nil
}

func (r *Readable[T, K]) applyExample(q *bun.SelectQuery, example *T) *bun.SelectQuery {
	v := reflect.ValueOf(example).Elem()
	for _, f := range r.meta.Table.DataFields {
		fv, err := v.FieldByIndexErr(f.Index)
		if err != nil {
			continue
		}
		value, ok := exampleValue(fv)
		if !ok {
			continue
		}
		if str, isString := value.(string); isString {
			q = q.Where("LOWER(?) LIKE ?", bun.Ident(f.Name), "%"+strings.ToLower(str)+"%")
			continue
		}
		q = q.Where("? = ?", bun.Ident(f.Name), value)
	}
	return q
}

// exampleValue returns the value a field contributes to an example query.
// Plain fields count when non-zero. Pointer fields count when non-nil, except
// numeric zeros, so an explicit false or empty string still filters.
func exampleValue(fv reflect.Value) (any, bool) {
	explicit := false
	for fv.Kind() == reflect.Ptr {
		if fv.IsNil() {
			return nil, false
		}
		fv = fv.Elem()
		explicit = true
	}
	if fv.IsZero() && (!explicit || isNumeric(fv.Kind())) {
		return nil, false
	}
	switch fv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array, reflect.Interface, reflect.Func, reflect.Chan:
		return nil, false
	case reflect.Struct:
		if fv.Type() != timeType {
			return nil, false
		}
		return fv.Interface(), true
	case reflect.String:
		return fv.String(), true
	default:
		return fv.Interface(), true
	}
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	}
	return false
}

// FindPage returns up to maxResults T starting at firstResult. A maxResults of
// zero means no limit. sortCriteria replace the default ordering when given.
func (r *Readable[T, K]) FindPage(ctx context.Context, firstResult, maxResults int, sortCriteria ...SortCriterion) ([]*T, error) {
	if firstResult < 0 {
		return nil, daoerrors.NewArgumentError("firstResult", "cannot be negative")
	}
	if maxResults < 0 {
		return nil, daoerrors.NewArgumentError("maxResults", "cannot be negative")
	}

	order := r.defaultOrder
	if len(sortCriteria) > 0 {
		clauses, property, ok := orderClauses(r.meta, sortCriteria)
		if !ok {
			return nil, daoerrors.NewArgumentError("sortCriteria", "unknown property "+property)
		}
		order = clauses
	}

	s, err := r.session(ctx)
	if err != nil {
		return nil, err
	}

	var rows []*T
	q := applyOrder(s.IDB().NewSelect().Model(&rows), order)
	switch {
	case maxResults > 0:
		q = q.Limit(maxResults)
	case firstResult > 0:
		// sqlite rejects OFFSET without LIMIT
		q = q.Limit(math.MaxInt32)
	}
	if firstResult > 0 {
		q = q.Offset(firstResult)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return r.adoptAll(s, rows), nil
}

// Reattach tracks obj in the current session without reading or writing it.
// The state of obj is not checked against storage.
func (r *Readable[T, K]) Reattach(ctx context.Context, obj *T) (*T, error) {
	if err := r.requirePersistent(obj); err != nil {
		return nil, err
	}
	s, err := r.session(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.Track(r.meta, obj); err != nil {
		return nil, err
	}
	return obj, nil
}
