package dao

import (
	"context"
	"log/slog"
	"reflect"

	daoerrors "github.com/goliatone/go-generic-dao/errors"
	"github.com/goliatone/go-generic-dao/mapping"
	"github.com/goliatone/go-generic-dao/session"
	"github.com/uptrace/bun"
)

// base holds what readable and writeable DAOs share: the provider, the
// resolved metadata and the validated default ordering.
type base[T any, K comparable] struct {
	provider     SessionProvider
	meta         *mapping.EntityMetadata
	defaultSort  []SortCriterion
	defaultOrder []string
	logger       *slog.Logger
}

func newBase[T any, K comparable](provider SessionProvider, opts ...Option) (*base[T, K], error) {
	if provider == nil || reflect.ValueOf(provider).Kind() == reflect.Ptr && reflect.ValueOf(provider).IsNil() {
		return nil, daoerrors.NewNilArgumentError("provider")
	}

	meta, err := mapping.Resolve[T](provider)
	if err != nil {
		return nil, err
	}

	o := applyOptions(opts)
	clauses, property, ok := orderClauses(meta, o.defaultSort)
	if !ok {
		return nil, daoerrors.NewConfigurationError(meta.EntityName, "default sort property "+property+" is not mapped")
	}

	b := &base[T, K]{
		provider:     provider,
		meta:         meta,
		defaultSort:  o.defaultSort,
		defaultOrder: clauses,
		logger:       o.logger.With("entity", meta.EntityName),
	}
	b.logger.Debug("dao configured", "table", meta.TableName, "default_order", orderBy(clauses))
	return b, nil
}

// EntityType returns the entity struct type handled by the DAO.
func (b *base[T, K]) EntityType() reflect.Type {
	return b.meta.Type
}

// Metadata returns the mapping metadata of T.
func (b *base[T, K]) Metadata() *mapping.EntityMetadata {
	return b.meta
}

// DefaultSortCriteria returns a copy of the configured default ordering.
func (b *base[T, K]) DefaultSortCriteria() []SortCriterion {
	return append([]SortCriterion(nil), b.defaultSort...)
}

// DefaultOrderBy returns the ORDER BY clause built from the default sort
// criteria, or an empty string when there are none.
func (b *base[T, K]) DefaultOrderBy() string {
	return orderBy(b.defaultOrder)
}

func (b *base[T, K]) session(ctx context.Context) (*session.Session, error) {
	return b.provider.CurrentSession(ctx)
}

func (b *base[T, K]) normalizeID(id K) (any, error) {
	return b.meta.NormalizeID(id)
}

func (b *base[T, K]) requirePersistent(obj *T) error {
	if obj == nil {
		return daoerrors.NewNilArgumentError("object")
	}
	if !b.meta.IsPersistent(obj) {
		return daoerrors.NewArgumentError("object", "object not persistent")
	}
	return nil
}

func (b *base[T, K]) pkWhere(q *bun.SelectQuery, id any) *bun.SelectQuery {
	return q.Where("? = ?", bun.Ident(b.meta.PrimaryKeyColumn()), id)
}

// adoptAll replaces each row by the instance the session already tracks for
// its identifier, tracking the rest.
func (b *base[T, K]) adoptAll(s *session.Session, rows []*T) []*T {
	if rows == nil {
		return []*T{}
	}
	for i, row := range rows {
		rows[i] = s.Adopt(b.meta, row).(*T)
	}
	return rows
}

func applyOrder(q *bun.SelectQuery, clauses []string) *bun.SelectQuery {
	for _, clause := range clauses {
		q = q.OrderExpr(clause)
	}
	return q
}
