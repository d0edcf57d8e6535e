package session

import (
	"context"
	"errors"

	daoerrors "github.com/goliatone/go-generic-dao/errors"
)

// TransactionManager demarcates transactions on the current session.
type TransactionManager struct {
	factory *Factory
}

// NewTransactionManager creates a transaction manager for factory.
func NewTransactionManager(factory *Factory) (*TransactionManager, error) {
	if factory == nil {
		return nil, daoerrors.NewNilArgumentError("factory")
	}
	return &TransactionManager{factory: factory}, nil
}

// RunInTransaction runs fn inside a transaction.
//
// When the current session already has an open transaction, fn joins it and
// the outer caller keeps control of commit and rollback. Otherwise a
// transaction is started on the current session (a session is opened, bound
// and closed around fn when none is bound), committed when fn returns nil and
// rolled back when fn returns an error or panics.
func (m *TransactionManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s, err := m.factory.CurrentSession(ctx)
	if err != nil {
		if !errors.Is(err, daoerrors.ErrNoCurrentSession) {
			return err
		}
		s = m.factory.OpenSession()
		defer s.Close()
		ctx = Bind(ctx, s)
	}

	if s.InTransaction() {
		return fn(ctx)
	}

	if err := s.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = s.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx); err != nil {
		if rbErr := s.Rollback(); rbErr != nil {
			m.factory.logger.Warn("rollback failed", "session", s.ID(), "error", rbErr)
		}
		return err
	}
	return s.Commit()
}

// Factory returns the session factory the manager works on.
func (m *TransactionManager) Factory() *Factory {
	return m.factory
}
