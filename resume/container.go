package resume

import (
	"reflect"

	mapset "github.com/deckarep/golang-set/v2"
)

// ScheduleFunc enqueues re-execution of the computation implied by an edge.
// Coalescing duplicate runs across edges is the scheduler's business, not
// this core's.
type ScheduleFunc func(sub Subscription, containerState any)

// GetObjectIDFunc resolves a value already included in the current
// serialization pass to its stable textual identity.
type GetObjectIDFunc func(v any) (string, bool)

// GetObjectByIDFunc is the inverse lookup used during deserialization.
type GetObjectByIDFunc func(id string) (any, bool)

// Container is the top-level runtime instance being serialized and resumed.
// It owns the group index and the identity side tables, and has final
// authority over manager lifetime.
type Container struct {
	schedule      ScheduleFunc
	getObjectID   GetObjectIDFunc
	getObjectByID GetObjectByIDFunc
	state         any

	// group index: subscriber group -> managers holding at least one edge
	// for it. Pointer-to-slice so truncation on teardown is visible through
	// aliased references to the same list.
	groups map[any]*[]*Manager

	noSerialize   mapset.Set[uintptr]
	weakSerialize mapset.Set[uintptr]
	types         *typeRegistry

	activeSub any

	droppedEdges  int
	onDroppedEdge func(record string)
}

// Option configures a Container.
type Option func(*Container)

// WithSchedule wires the external re-run callback invoked by Notify.
func WithSchedule(fn ScheduleFunc) Option {
	return func(c *Container) { c.schedule = fn }
}

// WithResolvers wires the object-identity callbacks used by the edge codec.
func WithResolvers(byValue GetObjectIDFunc, byID GetObjectByIDFunc) Option {
	return func(c *Container) {
		c.getObjectID = byValue
		c.getObjectByID = byID
	}
}

// WithState attaches the container state handed to the schedule callback.
func WithState(state any) Option {
	return func(c *Container) { c.state = state }
}

// WithDroppedEdgeHook observes edge records dropped as stale during decode.
func WithDroppedEdgeHook(fn func(record string)) Option {
	return func(c *Container) { c.onDroppedEdge = fn }
}

func CreateContainer(opts ...Option) *Container {
	c := &Container{
		groups:        map[any]*[]*Manager{},
		noSerialize:   mapset.NewThreadUnsafeSet[uintptr](),
		weakSerialize: mapset.NewThreadUnsafeSet[uintptr](),
		types:         newTypeRegistry(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Container) addToGroup(group any, m *Manager) {
	if group == nil {
		panic("resume: subscription with nil group")
	}
	list, ok := c.groups[group]
	if !ok {
		list = &[]*Manager{}
		c.groups[group] = list
	}
	for _, existing := range *list {
		if existing == m {
			return
		}
	}
	*list = append(*list, m)
}

// ClearGroup tears down every edge owned by group across the managers that
// reference it, in O(managers for the group) rather than O(all edges in the
// container). The shared manager list is emptied in place so any aliased
// reference observes the teardown.
func (c *Container) ClearGroup(group any) {
	list, ok := c.groups[group]
	if !ok {
		return
	}
	for _, m := range *list {
		m.RemoveGroup(group)
	}
	for i := range *list {
		(*list)[i] = nil
	}
	*list = (*list)[:0]
	delete(c.groups, group)
}

// ClearSignalEdge removes one signal binding from every manager referencing
// the edge's group.
func (c *Container) ClearSignalEdge(sub Subscription) {
	list, ok := c.groups[GroupOf(sub)]
	if !ok {
		return
	}
	for _, m := range *list {
		m.RemoveSignalEdge(sub)
	}
}

// RunSubscriber runs fn with group as the ambient subscriber, so tracked
// reads inside fn register host edges against it.
func (c *Container) RunSubscriber(group any, fn func()) {
	prev := c.activeSub
	c.activeSub = group
	defer func() { c.activeSub = prev }()
	fn()
}

// MarkNoSerialize marks v so the verifier accepts it without descending.
// The marked value will not survive a persist/restore cycle. Membership is
// by identity; the side table retains no reference to v.
func (c *Container) MarkNoSerialize(v any) any {
	id, ok := identityOf(v)
	if !ok {
		panic("resume: value has no identity to mark")
	}
	c.noSerialize.Add(id)
	return v
}

// MarkWeakSerialize marks v to persist by reference identity only; the
// verifier accepts it without descending into its contents.
func (c *Container) MarkWeakSerialize(v any) any {
	id, ok := identityOf(v)
	if !ok {
		panic("resume: value has no identity to mark")
	}
	c.weakSerialize.Add(id)
	return v
}

func (c *Container) isMarked(v any) bool {
	id, ok := identityOf(v)
	if !ok {
		return false
	}
	return c.noSerialize.Contains(id) || c.weakSerialize.Contains(id)
}

// RegisterSerializableType declares that values of t have a custom codec and
// are accepted by the verifier without descending.
func (c *Container) RegisterSerializableType(t reflect.Type, name string) {
	c.types.register(t, name)
}

// DroppedEdges reports how many persisted edge records were dropped as stale
// during decode since the container was created.
func (c *Container) DroppedEdges() int { return c.droppedEdges }

func (c *Container) dropEdge(record string) {
	c.droppedEdges++
	if c.onDroppedEdge != nil {
		c.onDroppedEdge(record)
	}
}

// identityOf reports a stable identity for pointer-shaped values. Values
// without one (plain primitives and structs) cannot be marked or cycle.
func identityOf(v any) (uintptr, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Pointer, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return rv.Pointer(), true
	default:
		return 0, false
	}
}

// typeRegistry is a reflection-free-at-callsite lookup of types with custom
// codecs. Registrations are idempotent; conflicting re-registration panics.
type typeRegistry struct {
	names map[reflect.Type]string
}

func newTypeRegistry() *typeRegistry {
	return &typeRegistry{names: map[reflect.Type]string{}}
}

func (r *typeRegistry) register(t reflect.Type, name string) {
	if existing, ok := r.names[t]; ok {
		if existing != name {
			panic("resume: conflicting codec registration for " + t.String())
		}
		return
	}
	r.names[t] = name
}

func (r *typeRegistry) lookup(t reflect.Type) (string, bool) {
	name, ok := r.names[t]
	return name, ok
}
