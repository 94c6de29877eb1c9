package resume

// WrapFlags are capability flags attached to a wrapped target.
type WrapFlags uint8

const (
	// FlagRecursive: the target has already been verified recursively
	// serializable; the verifier may accept it without descending again.
	FlagRecursive WrapFlags = 1 << iota
	// FlagImmutable: the target may not be mutated through the wrapper.
	FlagImmutable
)

// Wrapped is the explicit indirection layer around a plain mutable target.
// It replaces transparent interception: every read and write goes through
// accessor functions and callers unwrap to reach the raw target.
type Wrapped struct {
	target  any
	manager *Manager
	flags   WrapFlags
}

// Wrap attaches a fresh manager and capability flags to target.
func (c *Container) Wrap(target any, flags WrapFlags) *Wrapped {
	return &Wrapped{target: target, manager: c.CreateManager(), flags: flags}
}

func (w *Wrapped) Target() any       { return w.target }
func (w *Wrapped) Manager() *Manager { return w.manager }
func (w *Wrapped) Flags() WrapFlags  { return w.flags }

// wrapperOf resolves the indirection wrapper behind v, if any. ok is true
// for all of the package's wrapper types, even when the pointer is nil.
func wrapperOf(v any) (w *Wrapped, ok bool) {
	switch x := v.(type) {
	case *Wrapped:
		return x, true
	case *Store:
		if x == nil {
			return nil, true
		}
		return x.w, true
	case *Signal:
		if x == nil {
			return nil, true
		}
		return x.w, true
	default:
		return nil, false
	}
}

// Unwrap resolves v to its raw target, through a Wrapped, Store or Signal;
// non-wrapped values pass through.
func Unwrap(v any) any {
	if w, ok := wrapperOf(v); ok {
		if w == nil {
			return nil
		}
		return w.target
	}
	return v
}

// ManagerOf resolves the subscription manager attached to v, or nil when v
// is not wrapped.
func ManagerOf(v any) *Manager {
	if w, ok := wrapperOf(v); ok && w != nil {
		return w.manager
	}
	return nil
}

// Store wraps a string-keyed map target. Reads register key-scoped host
// edges against the ambient subscriber; writes notify scoped to the written
// key.
type Store struct {
	c *Container
	w *Wrapped
}

func (c *Container) CreateStore(target map[string]any, flags WrapFlags) *Store {
	if target == nil {
		target = map[string]any{}
	}
	return &Store{c: c, w: c.Wrap(target, flags)}
}

func (s *Store) Wrapped() *Wrapped { return s.w }
func (s *Store) Manager() *Manager { return s.w.manager }

func (s *Store) Target() map[string]any {
	return s.w.target.(map[string]any)
}

func (s *Store) Get(key string) any {
	if sub := s.c.activeSub; sub != nil {
		s.w.manager.AddEdge(HostSubscription{Group: sub}, &key)
	}
	return s.Target()[key]
}

func (s *Store) Set(key string, value any) {
	if s.w.flags&FlagImmutable != 0 {
		panic("resume: write through immutable store")
	}
	s.Target()[key] = value
	s.w.manager.Notify(&key)
}

// Signal wraps a single value; replacing the value notifies without a key,
// so key-scoped and unscoped edges all match.
type Signal struct {
	c *Container
	w *Wrapped
}

func (c *Container) CreateSignal(initial any) *Signal {
	return &Signal{c: c, w: c.Wrap(initial, 0)}
}

func (s *Signal) Wrapped() *Wrapped { return s.w }
func (s *Signal) Manager() *Manager { return s.w.manager }

func (s *Signal) Value() any {
	if sub := s.c.activeSub; sub != nil {
		s.w.manager.AddEdge(HostSubscription{Group: sub}, nil)
	}
	return s.w.target
}

func (s *Signal) SetValue(v any) {
	s.w.target = v
	s.w.manager.Notify(nil)
}
