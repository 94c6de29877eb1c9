package resume

// Kind discriminates the subscription shapes. The tag fully determines the
// arity and the semantic role of every field; it doubles as the leading token
// of the persisted record grammar.
type Kind int

const (
	// KindHost: the subscriber group re-runs whenever the owning store
	// changes, optionally scoped to a property key.
	KindHost Kind = iota
	// KindAttr: the host's rendered output depends on a signal's value being
	// reflected onto an attribute of a target element.
	KindAttr
	// KindProp: same shape as KindAttr, property binding instead of attribute.
	KindProp
	// KindNode: a host node depends on a signal.
	KindNode
	// KindText: a text node depends on a signal. Same shape as KindNode.
	KindText
)

// Subscription is one dependency edge owned by a Manager. The union is
// sealed; the concrete shapes are HostSubscription, PropSubscription and
// NodeSubscription.
type Subscription interface {
	isSubscription()
}

// HostSubscription is the KindHost shape.
type HostSubscription struct {
	// Group is the subscriber identity torn down as a unit, never nil.
	Group any
	// Key, when set, scopes notification to mutations of that property.
	Key *string
}

// PropSubscription is the KindAttr/KindProp shape.
type PropSubscription struct {
	// Binding is KindAttr or KindProp.
	Binding Kind
	Host    any
	Signal  any
	Target  any
	Prop    string
	Key     *string
}

// NodeSubscription is the KindNode/KindText shape.
type NodeSubscription struct {
	// Binding is KindNode or KindText.
	Binding Kind
	Host    any
	Signal  any
	// Node is the dependent host node, or its string identifier when the
	// node has not been materialized yet.
	Node any
	Key  *string
}

func (HostSubscription) isSubscription() {}
func (PropSubscription) isSubscription() {}
func (NodeSubscription) isSubscription() {}

// KindOf returns the discriminant tag of sub.
func KindOf(sub Subscription) Kind {
	switch e := sub.(type) {
	case HostSubscription:
		return KindHost
	case PropSubscription:
		if e.Binding != KindAttr && e.Binding != KindProp {
			panic("resume: prop subscription with foreign binding kind")
		}
		return e.Binding
	case NodeSubscription:
		if e.Binding != KindNode && e.Binding != KindText {
			panic("resume: node subscription with foreign binding kind")
		}
		return e.Binding
	default:
		panic("resume: unknown subscription shape")
	}
}

// GroupOf returns the subscriber group that owns sub.
func GroupOf(sub Subscription) any {
	switch e := sub.(type) {
	case HostSubscription:
		return e.Group
	case PropSubscription:
		return e.Host
	case NodeSubscription:
		return e.Host
	default:
		panic("resume: unknown subscription shape")
	}
}

func keyOf(sub Subscription) *string {
	switch e := sub.(type) {
	case HostSubscription:
		return e.Key
	case PropSubscription:
		return e.Key
	case NodeSubscription:
		return e.Key
	default:
		panic("resume: unknown subscription shape")
	}
}

func withKey(sub Subscription, key *string) Subscription {
	switch e := sub.(type) {
	case HostSubscription:
		e.Key = key
		return e
	case PropSubscription:
		e.Key = key
		return e
	case NodeSubscription:
		e.Key = key
		return e
	default:
		panic("resume: unknown subscription shape")
	}
}

func keyEq(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Key builds the optional key form used by AddEdge and Notify.
func Key(k string) *string { return &k }

// Task describes a reactive effect owned by a host element. A persisted edge
// whose group resolves to a Task with a nil Host references a torn-down host
// and is treated as stale.
type Task struct {
	Host any
	ID   string
	Ref  *Lazy
}

// Lazy is a serializable reference to code loaded on demand, the persistable
// stand-in for raw function values.
type Lazy struct {
	ChunkID string
	Symbol  string
}

func (l *Lazy) String() string { return l.ChunkID + "#" + l.Symbol }

// HostNode is an externally rendered node referenced by a stable identifier.
// The verifier accepts host nodes opaquely.
type HostNode interface {
	NodeID() string
}

// Promise is an opaque pending-value handle. It persists as-is, so the
// verifier accepts it without descending.
type Promise struct {
	value   any
	settled bool
}

func (p *Promise) Resolve(v any) {
	if p.settled {
		panic("resume: promise resolved twice")
	}
	p.value = v
	p.settled = true
}

func (p *Promise) Value() (any, bool) { return p.value, p.settled }

// Missing marks an array index that was never assigned. A sparse array
// cannot round-trip, so the verifier rejects any array containing it.
var Missing = missing{}

type missing struct{}
