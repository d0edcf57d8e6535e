// Package session provides the unit of work the DAO layer runs against.
//
// bun executes queries but keeps no state between them. A Session adds the
// two things a DAO contract relies on: an optional transaction that all
// queries of the session go through, and an identity map that guarantees one
// instance per identifier for the session's lifetime. Evicting an instance
// detaches it; reattaching tracks it again without reloading.
//
// # Current session
//
// Sessions are bound to a context.Context, one per logical request:
//
//	s := factory.OpenSession()
//	defer s.Close()
//	ctx = session.Bind(ctx, s)
//
//	user, err := users.FindByID(ctx, 42) // uses s
//
// Factory.WithSession does the same around a callback, and
// TransactionManager.RunInTransaction additionally wraps the callback in a
// transaction, joining an already open one.
//
// # Concurrency
//
// A Factory is safe for concurrent use. A Session is not meant to be shared
// between requests; its methods are synchronized only so that accidental
// sharing does not corrupt the identity map.
package session
