package session

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"sync"

	daoerrors "github.com/goliatone/go-generic-dao/errors"
	"github.com/goliatone/go-generic-dao/mapping"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var (
	// ErrSessionClosed is returned when a closed session is used.
	ErrSessionClosed = errors.New("session is closed")
	// ErrTransactionActive is returned by Begin when a transaction is already open.
	ErrTransactionActive = errors.New("transaction already active")
	// ErrNoTransaction is returned by Commit and Rollback without an open transaction.
	ErrNoTransaction = errors.New("no active transaction")
)

type entityKey struct {
	typ reflect.Type
	id  any
}

// Session is a unit of work: it routes queries through an optional
// transaction and tracks the instances loaded or stored through it, so that
// one identifier maps to one instance for the session's lifetime.
//
// A Session is meant for a single logical request and must not be shared
// between concurrent requests.
type Session struct {
	id      uuid.UUID
	factory *Factory

	mu      sync.Mutex
	tx          *bun.Tx
	tracked     map[entityKey]any
	completions []func(committed bool)
	closed      bool
}

func newSession(factory *Factory) *Session {
	return &Session{
		id:      uuid.New(),
		factory: factory,
		tracked: make(map[entityKey]any),
	}
}

// ID returns the session identifier, mostly useful for log correlation.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Factory returns the factory that opened the session.
func (s *Session) Factory() *Factory {
	return s.factory
}

// IDB returns the active transaction, or the database when no transaction is open.
func (s *Session) IDB() bun.IDB {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx != nil {
		return s.tx
	}
	return s.factory.db
}

// Begin opens a transaction. Subsequent queries run inside it until Commit or Rollback.
func (s *Session) Begin(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.tx != nil {
		return ErrTransactionActive
	}

	tx, err := s.factory.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	s.tx = &tx
	s.factory.logger.Debug("transaction started", "session", s.id)
	return nil
}

// InTransaction reports whether a transaction is open.
func (s *Session) InTransaction() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tx != nil
}

// Commit commits the open transaction and then runs the callbacks
// registered with AfterCompletion.
func (s *Session) Commit() error {
	s.mu.Lock()
	if s.tx == nil {
		s.mu.Unlock()
		return ErrNoTransaction
	}
	err := s.tx.Commit()
	s.tx = nil
	completions := s.takeCompletions()
	s.mu.Unlock()

	runCompletions(completions, err == nil)
	if err != nil {
		return err
	}
	s.factory.logger.Debug("transaction committed", "session", s.id)
	return nil
}

// Rollback rolls back the open transaction and clears the identity map,
// since tracked instances may hold state that was never stored.
func (s *Session) Rollback() error {
	s.mu.Lock()
	if s.tx == nil {
		s.mu.Unlock()
		return ErrNoTransaction
	}
	err := s.tx.Rollback()
	s.tx = nil
	clear(s.tracked)
	completions := s.takeCompletions()
	s.mu.Unlock()

	runCompletions(completions, false)
	if err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	s.factory.logger.Debug("transaction rolled back", "session", s.id)
	return nil
}

// Close rolls back any open transaction and releases tracked instances.
// Closing twice is a no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true

	var err error
	if s.tx != nil {
		err = s.tx.Rollback()
		s.tx = nil
		if errors.Is(err, sql.ErrTxDone) {
			err = nil
		}
	}
	clear(s.tracked)
	completions := s.takeCompletions()
	s.mu.Unlock()

	runCompletions(completions, false)
	s.factory.logger.Debug("session closed", "session", s.id)
	return err
}

// AfterCompletion registers fn to run once the open transaction commits or
// rolls back. committed is true only for a successful commit. Without an open
// transaction fn runs immediately with committed set to true.
func (s *Session) AfterCompletion(fn func(committed bool)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	if s.tx == nil {
		s.mu.Unlock()
		fn(true)
		return
	}
	s.completions = append(s.completions, fn)
	s.mu.Unlock()
}

func (s *Session) takeCompletions() []func(bool) {
	completions := s.completions
	s.completions = nil
	return completions
}

func runCompletions(completions []func(bool), committed bool) {
	for _, fn := range completions {
		fn(committed)
	}
}

// Closed reports whether Close was called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Lookup returns the tracked instance for a normalized identifier.
func (s *Session) Lookup(meta *mapping.EntityMetadata, id any) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entity, ok := s.tracked[entityKey{typ: meta.Type, id: id}]
	return entity, ok
}

// Track starts tracking entity. Tracking an instance twice is a no-op;
// tracking a different instance with the same identifier fails with
// errors.ErrNonUniqueObject.
func (s *Session) Track(meta *mapping.EntityMetadata, entity any) error {
	id, ok := meta.Identifier(entity)
	if !ok {
		return daoerrors.NewArgumentError("entity", "cannot track an object without identifier")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := entityKey{typ: meta.Type, id: id}
	if existing, found := s.tracked[key]; found && existing != entity {
		return daoerrors.NewNonUniqueObjectError(meta.EntityName, id)
	}
	s.tracked[key] = entity
	return nil
}

// Adopt returns the tracked instance sharing entity's identifier, or starts
// tracking entity when there is none. Query results go through Adopt so that
// already loaded instances win over freshly scanned rows.
func (s *Session) Adopt(meta *mapping.EntityMetadata, entity any) any {
	id, ok := meta.Identifier(entity)
	if !ok {
		return entity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := entityKey{typ: meta.Type, id: id}
	if existing, found := s.tracked[key]; found {
		return existing
	}
	s.tracked[key] = entity
	return entity
}

// Untrack stops tracking entity. It returns false when entity itself was not
// the tracked instance for its identifier.
func (s *Session) Untrack(meta *mapping.EntityMetadata, entity any) bool {
	id, ok := meta.Identifier(entity)
	if !ok {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := entityKey{typ: meta.Type, id: id}
	if existing, found := s.tracked[key]; found && existing == entity {
		delete(s.tracked, key)
		return true
	}
	return false
}

// UntrackID stops tracking whatever instance holds the normalized identifier.
func (s *Session) UntrackID(meta *mapping.EntityMetadata, id any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tracked, entityKey{typ: meta.Type, id: id})
}

// Contains reports whether entity is the tracked instance for its identifier.
func (s *Session) Contains(meta *mapping.EntityMetadata, entity any) bool {
	id, ok := meta.Identifier(entity)
	if !ok {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	existing, found := s.tracked[entityKey{typ: meta.Type, id: id}]
	return found && existing == entity
}

// Clear stops tracking every instance.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.tracked)
}

// Size returns the number of tracked instances.
func (s *Session) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tracked)
}
