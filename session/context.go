package session

import "context"

// sessionContextKey is scoped by factory so several databases can each have
// a current session in the same context.
type sessionContextKey struct {
	factory *Factory
}

// Bind returns a context in which s is the current session of its factory.
func Bind(ctx context.Context, s *Session) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if s == nil {
		return ctx
	}
	return context.WithValue(ctx, sessionContextKey{factory: s.factory}, s)
}

// FromContext returns the current session of factory f, if any.
func FromContext(ctx context.Context, f *Factory) (*Session, bool) {
	if f == nil {
		return nil, false
	}
	return f.fromContext(ctx)
}
