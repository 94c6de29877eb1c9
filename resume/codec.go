package resume

import (
	"net/url"
	"strconv"
	"strings"
)

// Edge record grammar, one edge per record, ASCII tokens joined by spaces:
//
//	<tag:int> <groupRef> [ <signalRef> <targetRef> <property> ] [ <key> ]
//
// References are the opaque identifiers handed out by the container's
// resolver; keys and property names are percent-encoded so embedded spaces
// stay inside one token.

// EncodeEdge renders sub in the persisted record grammar. ok is false when a
// required reference is not part of the serialization graph; such edges are
// dropped whole rather than written partially.
func (c *Container) EncodeEdge(sub Subscription) (record string, ok bool) {
	if c.getObjectID == nil {
		panic("resume: container has no object id resolver")
	}
	var tokens []string
	switch e := sub.(type) {
	case HostSubscription:
		group, ok := c.getObjectID(e.Group)
		if !ok {
			return "", false
		}
		tokens = appendKey([]string{"0", group}, e.Key)

	case PropSubscription:
		group, okG := c.getObjectID(e.Host)
		signal, okS := c.getObjectID(e.Signal)
		target, okT := c.getObjectID(e.Target)
		if !okG || !okS || !okT {
			return "", false
		}
		tokens = appendKey([]string{
			strconv.Itoa(int(KindOf(e))), group, signal, target, url.PathEscape(e.Prop),
		}, e.Key)

	case NodeSubscription:
		group, okG := c.getObjectID(e.Host)
		signal, okS := c.getObjectID(e.Signal)
		if !okG || !okS {
			return "", false
		}
		// A not-yet-materialized node is already a string identifier and is
		// emitted verbatim instead of being resolved as a reference.
		node, isLiteral := e.Node.(string)
		if !isLiteral {
			var okN bool
			node, okN = c.getObjectID(e.Node)
			if !okN {
				return "", false
			}
		}
		tokens = appendKey([]string{
			strconv.Itoa(int(KindOf(e))), group, signal, node,
		}, e.Key)

	default:
		panic("resume: unknown subscription shape")
	}
	return strings.Join(tokens, " "), true
}

func appendKey(tokens []string, key *string) []string {
	if key == nil {
		return tokens
	}
	return append(tokens, url.PathEscape(*key))
}

// DecodeEdge parses one persisted record. A nil, nil return means the record
// referenced an object no longer reachable (ordinary staleness); the edge is
// dropped and counted. A MalformedRecordError means the record's shape does
// not match its tag and the whole load should fail.
func (c *Container) DecodeEdge(record string) (Subscription, error) {
	if c.getObjectByID == nil {
		panic("resume: container has no object id resolver")
	}
	tokens := strings.Split(record, " ")
	tag, err := strconv.Atoi(tokens[0])
	if err != nil {
		return nil, &MalformedRecordError{Record: record, Reason: "tag is not an integer"}
	}

	kind := Kind(tag)
	var minArity, maxArity int
	switch kind {
	case KindHost:
		minArity, maxArity = 2, 3
	case KindAttr, KindProp:
		minArity, maxArity = 5, 6
	case KindNode, KindText:
		minArity, maxArity = 4, 5
	default:
		return nil, &MalformedRecordError{Record: record, Reason: "unknown tag"}
	}
	if len(tokens) < minArity || len(tokens) > maxArity {
		return nil, &MalformedRecordError{
			Record: record,
			Reason: "token count does not match tag arity",
		}
	}

	var key *string
	if len(tokens) == maxArity {
		decoded, err := url.PathUnescape(tokens[maxArity-1])
		if err != nil {
			return nil, &MalformedRecordError{Record: record, Reason: "bad key encoding"}
		}
		key = &decoded
	}

	group, ok := c.getObjectByID(tokens[1])
	if !ok {
		c.dropEdge(record)
		return nil, nil
	}
	// An effect descriptor whose host element is gone is a stale edge
	// referencing a torn-down host.
	if task, isTask := group.(*Task); isTask && task.Host == nil {
		c.dropEdge(record)
		return nil, nil
	}

	if kind == KindHost {
		return HostSubscription{Group: group, Key: key}, nil
	}

	signal, ok := c.getObjectByID(tokens[2])
	if !ok {
		c.dropEdge(record)
		return nil, nil
	}

	switch kind {
	case KindAttr, KindProp:
		target, ok := c.getObjectByID(tokens[3])
		if !ok {
			c.dropEdge(record)
			return nil, nil
		}
		prop, err := url.PathUnescape(tokens[4])
		if err != nil {
			return nil, &MalformedRecordError{Record: record, Reason: "bad property encoding"}
		}
		return PropSubscription{
			Binding: kind,
			Host:    group,
			Signal:  signal,
			Target:  target,
			Prop:    prop,
			Key:     key,
		}, nil

	default: // KindNode, KindText
		// The node token resolves when the node has been materialized;
		// otherwise it stays the literal identifier.
		var node any = tokens[3]
		if resolved, ok := c.getObjectByID(tokens[3]); ok {
			node = resolved
		}
		return NodeSubscription{
			Binding: kind,
			Host:    group,
			Signal:  signal,
			Node:    node,
			Key:     key,
		}, nil
	}
}
