package eventstate

// Context is the live state collection for one event cycle. It is an
// explicit value: the code path that begins a cycle owns its Context and
// threads it through collaborators for the cycle's duration. A Context must
// not be shared across goroutines; confinement to one logical unit of work
// is what makes the per-cycle map safe without locking.
type Context struct {
	id      string
	session Session
	manager *Manager
	states  map[string]stateEntry
	order   []string
	active  bool
}

// stateEntry pairs a created instance with the finalizer captured at
// creation time, so drain never has to consult the registry again.
type stateEntry struct {
	state  any
	finish func(state any, session Session) error
}

// ID returns the cycle identifier assigned at Begin.
func (c *Context) ID() string {
	if c == nil {
		return ""
	}
	return c.id
}

// Session returns the opaque session handle supplied at Begin. The handle
// stays valid until Finish; it is never passed to any state finalizer as a
// managed entry.
func (c *Context) Session() Session {
	if c == nil {
		return nil
	}
	return c.session
}

// Active reports whether the cycle is still in progress. Side-effect free,
// callable in any state.
func (c *Context) Active() bool {
	return c != nil && c.active
}

// Finish ends the cycle. See Manager.Finish.
func (c *Context) Finish() error {
	if c == nil || c.manager == nil {
		return nil
	}
	return c.manager.Finish(c)
}

func (c *Context) get(name string) (any, bool) {
	entry, ok := c.states[name]
	return entry.state, ok
}

func (c *Context) put(name string, entry stateEntry) {
	if _, exists := c.states[name]; exists {
		return
	}
	c.states[name] = entry
	c.order = append(c.order, name)
}

// drain detaches every created entry from the live map in creation order
// and deactivates the context. A finalizer running afterwards cannot
// observe or mutate the set being drained.
func (c *Context) drain() []drainedEntry {
	states := c.states
	order := c.order
	c.states = nil
	c.order = nil
	c.active = false

	if len(order) == 0 {
		return nil
	}
	drained := make([]drainedEntry, 0, len(order))
	for _, name := range order {
		entry, ok := states[name]
		if !ok {
			continue
		}
		drained = append(drained, drainedEntry{
			name:   name,
			state:  entry.state,
			finish: entry.finish,
		})
	}
	return drained
}

type drainedEntry struct {
	name   string
	state  any
	finish func(state any, session Session) error
}
