package eventstate

import (
	"context"
	"errors"
	"fmt"
)

type cycleContextKey struct{}

// FromContext returns the cycle carried by ctx, if any. The second return
// is false when no cycle was bound.
func FromContext(ctx context.Context) (*Context, bool) {
	if ctx == nil {
		return nil, false
	}
	cycle, ok := ctx.Value(cycleContextKey{}).(*Context)
	if !ok || cycle == nil {
		return nil, false
	}
	return cycle, true
}

// BeginContext begins a fresh cycle and binds it to the returned
// context.Context so collaborators downstream can reach it without extra
// parameters. Beginning a second cycle on a context that already carries an
// active one fails with ErrReentrantBegin: the prior cycle was never
// finished, and silently replacing it would discard its uncommitted state
// without running any finalizer.
func (m *Manager) BeginContext(ctx context.Context, session Session) (context.Context, *Context, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if existing, ok := FromContext(ctx); ok && existing.Active() {
		return ctx, nil, fmt.Errorf("%w: cycle %s", ErrReentrantBegin, existing.ID())
	}
	cycle, err := m.Begin(session)
	if err != nil {
		return ctx, nil, err
	}
	return context.WithValue(ctx, cycleContextKey{}, cycle), cycle, nil
}

// Scoped runs fn inside a fresh cycle bound to ctx and guarantees the cycle
// finishes on every exit path, panics included. Hosts that reuse execution
// paths (worker pools, request handlers) should prefer Scoped over manual
// Begin/Finish pairs: a skipped Finish leaks cycle state into unrelated
// work.
func (m *Manager) Scoped(ctx context.Context, session Session, fn func(ctx context.Context, cycle *Context) error) error {
	bound, cycle, err := m.BeginContext(ctx, session)
	if err != nil {
		return err
	}

	finished := false
	defer func() {
		// Panic path: finalize before the panic continues unwinding.
		if !finished {
			_ = m.Finish(cycle)
		}
	}()

	fnErr := fn(bound, cycle)
	finished = true
	finishErr := m.Finish(cycle)

	if fnErr != nil && finishErr != nil {
		return errors.Join(fnErr, finishErr)
	}
	if fnErr != nil {
		return fnErr
	}
	return finishErr
}
