package resume

// Manager owns the insertion-ordered subscription edges of exactly one
// reactive scope (a store or a signal). All mutation is single-threaded per
// container; managers do no locking of their own.
type Manager struct {
	c    *Container
	subs []Subscription
}

// CreateManager builds a manager registered with the container, seeding it
// with any initial (typically deserialized) edges.
func (c *Container) CreateManager(initial ...Subscription) *Manager {
	m := &Manager{c: c}
	if len(initial) > 0 {
		m.AddEdges(initial...)
	}
	return m
}

// Edges exposes the current edge sequence in insertion order.
func (m *Manager) Edges() []Subscription { return m.subs }

// AddEdges appends edges in bulk without duplicate checks. Bulk add is used
// for trusted deserialized data.
func (m *Manager) AddEdges(subs ...Subscription) {
	for _, sub := range subs {
		m.subs = append(m.subs, sub)
		m.c.addToGroup(GroupOf(sub), m)
	}
}

// AddEdge appends one edge recorded by a tracked read, scoped to key. Host
// edges are deduplicated by (group, key); an equal edge makes this a no-op.
func (m *Manager) AddEdge(sub Subscription, key *string) {
	if host, ok := sub.(HostSubscription); ok {
		for _, existing := range m.subs {
			e, ok := existing.(HostSubscription)
			if ok && e.Group == host.Group && keyEq(e.Key, key) {
				return
			}
		}
	}
	m.subs = append(m.subs, withKey(sub, key))
	m.c.addToGroup(GroupOf(sub), m)
}

// RemoveGroup removes every edge owned by group in place, preserving the
// relative order of the rest. Clearing the group's index entry is the
// container's responsibility, done once across all managers.
func (m *Manager) RemoveGroup(group any) {
	kept := m.subs[:0]
	for _, sub := range m.subs {
		if GroupOf(sub) != group {
			kept = append(kept, sub)
		}
	}
	for i := len(kept); i < len(m.subs); i++ {
		m.subs[i] = nil
	}
	m.subs = kept
}

// RemoveSignalEdge removes every edge matching sub on
// (kind, group, signal, target). The bound property participates in the
// match for attribute/property edges only. All structural matches go.
func (m *Manager) RemoveSignalEdge(sub Subscription) {
	kept := m.subs[:0]
	for _, existing := range m.subs {
		if !signalEdgeMatches(existing, sub) {
			kept = append(kept, existing)
		}
	}
	for i := len(kept); i < len(m.subs); i++ {
		m.subs[i] = nil
	}
	m.subs = kept
}

func signalEdgeMatches(candidate, sub Subscription) bool {
	switch e := sub.(type) {
	case PropSubscription:
		c, ok := candidate.(PropSubscription)
		return ok &&
			c.Binding == e.Binding &&
			c.Host == e.Host &&
			c.Signal == e.Signal &&
			c.Target == e.Target &&
			c.Prop == e.Prop
	case NodeSubscription:
		c, ok := candidate.(NodeSubscription)
		return ok &&
			c.Binding == e.Binding &&
			c.Host == e.Host &&
			c.Signal == e.Signal &&
			c.Node == e.Node
	default:
		panic("resume: not a signal subscription")
	}
}

// Notify hands every matching edge to the container's schedule callback, in
// insertion order. An edge matches when its key is absent, equals key, or
// when key itself is absent. Edges are not consumed; notification is
// repeatable.
func (m *Manager) Notify(key *string) {
	if m.c.schedule == nil {
		return
	}
	for _, sub := range m.subs {
		k := keyOf(sub)
		if k == nil || key == nil || *k == *key {
			m.c.schedule(sub, m.c.state)
		}
	}
}
