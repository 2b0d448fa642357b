package observability

import "context"

type contextKey struct{}

var observerKey = contextKey{}

// WithObserver returns a copy of ctx carrying the given Observer.
func WithObserver(ctx context.Context, observer Observer) context.Context {
	return context.WithValue(ctx, observerKey, observer)
}

// ObserverFromContext returns the Observer stored in ctx, or nil when none is
// present. Callers must nil-check before use; absence of an observer means
// the component runs silently.
func ObserverFromContext(ctx context.Context) Observer {
	observer, ok := ctx.Value(observerKey).(Observer)
	if !ok {
		return nil
	}
	return observer
}
