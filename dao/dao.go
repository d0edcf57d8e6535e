package dao

import (
	"context"

	"github.com/goliatone/go-generic-dao/mapping"
	"github.com/goliatone/go-generic-dao/session"
)

// SessionProvider supplies the current session and the mapping metadata of
// entity types. *session.Factory implements it.
type SessionProvider interface {
	mapping.MetadataLookup
	CurrentSession(ctx context.Context) (*session.Session, error)
}

var _ SessionProvider = (*session.Factory)(nil)

// ReadableDAO groups the query operations of a DAO.
type ReadableDAO[T any, K comparable] interface {
	// CountAll returns the number of stored T.
	CountAll(ctx context.Context) (int, error)
	// FindAll returns every T ordered by the default sort criteria.
	FindAll(ctx context.Context) ([]*T, error)
	// FindByID returns the T with the given id, or nil when there is none.
	FindByID(ctx context.Context, id K) (*T, error)
	// FindByIDs returns the T whose id is in ids, in no particular order.
	FindByIDs(ctx context.Context, ids ...K) ([]*T, error)
	// FindByExample returns the T matching the non-zero fields of example.
	FindByExample(ctx context.Context, example *T) ([]*T, error)
	// FindPage returns at most maxResults T starting at firstResult.
	FindPage(ctx context.Context, firstResult, maxResults int, sortCriteria ...SortCriterion) ([]*T, error)
	// Reattach tracks a detached instance in the current session without reloading it.
	Reattach(ctx context.Context, obj *T) (*T, error)
	// DefaultSortCriteria returns the ordering used when none is given.
	DefaultSortCriteria() []SortCriterion
}

// WriteableDAO groups the mutation operations of a DAO.
type WriteableDAO[T any, K comparable] interface {
	// Save inserts obj and writes back a generated identifier.
	Save(ctx context.Context, obj *T) error
	// Update stores the state of a persistent obj and returns it.
	Update(ctx context.Context, obj *T) (*T, error)
	// DeleteByID deletes the row with the given id without loading it.
	DeleteByID(ctx context.Context, id K) error
	// Delete deletes a loaded instance.
	Delete(ctx context.Context, obj *T) error
	// Evict detaches obj from the current session.
	Evict(ctx context.Context, obj *T) error
	// Merge copies the state of obj onto the managed instance and returns it.
	Merge(ctx context.Context, obj *T) (*T, error)
	// Refresh reloads the state of obj from storage.
	Refresh(ctx context.Context, obj *T) error
	// IsPersistent reports whether obj has an identifier.
	IsPersistent(obj *T) (bool, error)
}

// DAO is the full read/write contract for entity type T with identifier type K.
type DAO[T any, K comparable] interface {
	ReadableDAO[T, K]
	WriteableDAO[T, K]
}
