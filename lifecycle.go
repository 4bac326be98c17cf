package eventstate

// Session is the opaque handle to the enclosing unit of work. The library
// never inspects it; it is stored when a cycle begins and handed unchanged
// to every Create and Finish call.
type Session any

// Lifecycle governs creation and teardown of one state type. Create runs at
// most once per cycle, on first access. Finish runs exactly once for every
// instance Create produced, when the cycle ends.
type Lifecycle[T any] interface {
	Create(session Session) (T, error)
	Finish(state T, session Session) error
}

// LifecycleFuncs adapts plain functions to Lifecycle.
type LifecycleFuncs[T any] struct {
	OnCreate func(session Session) (T, error)
	OnFinish func(state T, session Session) error
}

// Create implements Lifecycle.
func (l LifecycleFuncs[T]) Create(session Session) (T, error) {
	if l.OnCreate == nil {
		var zero T
		return zero, nil
	}
	return l.OnCreate(session)
}

// Finish implements Lifecycle.
func (l LifecycleFuncs[T]) Finish(state T, session Session) error {
	if l.OnFinish == nil {
		return nil
	}
	return l.OnFinish(state, session)
}

// provider is the type-erased form a Lifecycle takes inside the registry.
// It is only ever built by Register, which wraps a Lifecycle[T] for the
// key's own T, so the value create yields always matches the key's type.
type provider struct {
	name   string
	create func(session Session) (any, error)
	finish func(state any, session Session) error
}

func eraseLifecycle[T any](name string, lifecycle Lifecycle[T]) provider {
	return provider{
		name: name,
		create: func(session Session) (any, error) {
			return lifecycle.Create(session)
		},
		finish: func(state any, session Session) error {
			return lifecycle.Finish(state.(T), session)
		},
	}
}
