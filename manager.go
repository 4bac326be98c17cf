package eventstate

import (
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-eventstate/pkg/activity"
	"github.com/google/uuid"
)

// Option configures a Manager.
type Option func(*managerConfig)

type managerConfig struct {
	logger        CycleLogger
	activityHooks activity.Hooks
	channel       string
}

func applyOptions(opts []Option) managerConfig {
	cfg := managerConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// Manager orchestrates event cycles against a frozen lifecycle registry.
// One Manager serves any number of cycles, sequential or concurrent; all
// per-cycle state lives on the Context values it hands out, so the Manager
// itself stays read-only after construction.
type Manager struct {
	registry *Registry
	logger   CycleLogger
	emitter  *activity.Emitter
}

// New constructs a Manager around a frozen registry.
func New(registry *Registry, opts ...Option) (*Manager, error) {
	if registry == nil {
		return nil, ErrRegistryRequired
	}
	cfg := applyOptions(opts)
	logger := cfg.logger
	if logger == nil {
		logger = noopCycleLogger{}
	}
	return &Manager{
		registry: registry,
		logger:   logger,
		emitter:  newEmitter(cfg),
	}, nil
}

// Registry returns the frozen registry the manager was built with.
func (m *Manager) Registry() *Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Begin starts a fresh event cycle for session and returns its Context.
// Every call yields an independent cycle with an empty state mapping; no
// state carries over from any prior cycle. The caller owns the returned
// Context and must guarantee a matching Finish on every exit path before
// reusing the execution path for unrelated work (see Scoped).
func (m *Manager) Begin(session Session) (*Context, error) {
	if m == nil || m.registry == nil {
		return nil, fmt.Errorf("eventstate: manager is not initialised")
	}
	ctx := &Context{
		id:      uuid.NewString(),
		session: session,
		manager: m,
		states:  make(map[string]stateEntry),
		active:  true,
	}
	m.logger.LogCycle(CycleLogEvent{CycleID: ctx.id, Op: OpBegin})
	m.emitCycleBegan(ctx)
	return ctx, nil
}

// Get returns the cycle state for key, creating it on first access via the
// registered lifecycle. Repeated calls with the same key within one cycle
// return the identical instance; collaborators rely on that to accumulate
// state across call sites. Get fails with ErrInactiveContext outside a
// cycle and with ErrUnregisteredState when no lifecycle covers the key.
func Get[T any](c *Context, key Key[T]) (T, error) {
	var zero T
	if !c.Active() || c.manager == nil {
		return zero, ErrInactiveContext
	}
	if existing, ok := c.get(key.Name()); ok {
		return existing.(T), nil
	}

	p, ok := c.manager.registry.lookup(key.Name())
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrUnregisteredState, key.Name())
	}

	start := time.Now()
	state, err := p.create(c.session)
	duration := time.Since(start)
	if err != nil {
		err = fmt.Errorf("eventstate: create state %q: %w", key.Name(), err)
	}
	c.manager.logger.LogCycle(CycleLogEvent{
		CycleID:  c.id,
		Op:       OpCreate,
		State:    key.Name(),
		Duration: duration,
		Err:      err,
	})
	if err != nil {
		return zero, err
	}

	c.put(key.Name(), stateEntry{state: state, finish: p.finish})
	c.manager.emitStateCreated(c, key.Name())
	return state.(T), nil
}

// Finish ends the cycle: it drains every created instance from the context
// and invokes each one's finalizer exactly once, in creation order, with
// the session supplied at Begin. A failing finalizer never stops the rest;
// failures are collected and returned joined. Finishing a context that is
// already inactive is a no-op, so Finish is safe to call on paths where
// Begin may not have run.
func (m *Manager) Finish(c *Context) error {
	if m == nil || c == nil || !c.active {
		return nil
	}

	start := time.Now()
	entries := c.drain()

	var errs []error
	for _, entry := range entries {
		if err := entry.finish(entry.state, c.session); err != nil {
			errs = append(errs, &FinishError{State: entry.name, CycleID: c.id, Err: err})
		}
	}

	err := errors.Join(errs...)
	m.logger.LogCycle(CycleLogEvent{
		CycleID:  c.id,
		Op:       OpFinish,
		Duration: time.Since(start),
		Err:      err,
	})
	m.emitCycleFinished(c, entries, err)
	return err
}
