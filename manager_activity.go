package eventstate

import (
	"context"

	"github.com/goliatone/go-eventstate/pkg/activity"
)

// WithActivityHooks attaches activity hooks to the manager. Hooks are
// cloned and nil entries dropped to preserve immutability. Begin, first
// access of each state, and Finish emit cycle audit events when at least
// one hook is configured.
func WithActivityHooks(hooks activity.Hooks) Option {
	return func(cfg *managerConfig) {
		cfg.activityHooks = hooks
	}
}

// WithActivityChannel overrides the channel stamped on emitted cycle
// events.
func WithActivityChannel(channel string) Option {
	return func(cfg *managerConfig) {
		cfg.channel = channel
	}
}

func newEmitter(cfg managerConfig) *activity.Emitter {
	if len(cfg.activityHooks) == 0 {
		return nil
	}
	return activity.NewEmitter(cfg.activityHooks, activity.Config{
		Enabled: true,
		Channel: cfg.channel,
	})
}

// Emission failures are deliberately dropped: audit hooks observe cycles,
// they must never alter cycle outcomes.

func (m *Manager) emitCycleBegan(c *Context) {
	if !m.emitter.Enabled() {
		return
	}
	_ = m.emitter.Emit(context.Background(), activity.BuildCycleBeganEvent(activity.CycleEventInput{
		CycleID: c.id,
	}))
}

func (m *Manager) emitStateCreated(c *Context, name string) {
	if !m.emitter.Enabled() {
		return
	}
	_ = m.emitter.Emit(context.Background(), activity.BuildStateCreatedEvent(activity.CycleEventInput{
		CycleID:   c.id,
		StateName: name,
	}))
}

func (m *Manager) emitCycleFinished(c *Context, entries []drainedEntry, err error) {
	if !m.emitter.Enabled() {
		return
	}
	states := make([]string, 0, len(entries))
	for _, entry := range entries {
		states = append(states, entry.name)
	}
	_ = m.emitter.Emit(context.Background(), activity.BuildCycleFinishedEvent(activity.CycleEventInput{
		CycleID: c.id,
		States:  states,
		Err:     err,
	}))
}
