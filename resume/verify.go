package resume

import (
	"fmt"
	"reflect"
	"runtime"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
)

// valueKind is the closed classification the verifier switches over.
type valueKind int

const (
	vkNull valueKind = iota
	vkPrimitive
	vkPromise
	vkHostNode
	vkLazy
	vkArray
	vkObject
	vkFunction
	vkForeign
)

func classify(v any) valueKind {
	switch v.(type) {
	case nil:
		return vkNull
	case bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return vkPrimitive
	case *Promise:
		return vkPromise
	case *Lazy:
		return vkLazy
	case []any:
		return vkArray
	case map[string]any:
		return vkObject
	}
	if _, ok := v.(HostNode); ok {
		return vkHostNode
	}
	if reflect.TypeOf(v).Kind() == reflect.Func {
		return vkFunction
	}
	return vkForeign
}

// Verify walks every value reachable from v and reports the first one that
// cannot be persisted. label names the root in diagnostics. The walk is
// cycle-safe: a value already visited in this pass is accepted without
// re-descending.
func (c *Container) Verify(v any, label ...string) error {
	root := "value"
	if len(label) > 0 {
		root = label[0]
	}
	seen := mapset.NewThreadUnsafeSet[uintptr]()
	return c.verifyAt(v, root, seen)
}

func (c *Container) verifyAt(v any, path string, seen mapset.Set[uintptr]) error {
	if w, ok := wrapperOf(v); ok {
		// a nil wrapper pointer is the trivially-null case
		if w == nil {
			return nil
		}
		if w.flags&FlagRecursive != 0 {
			return nil
		}
		v = w.target
	}
	if v == nil {
		return nil
	}
	if id, ok := identityOf(v); ok {
		if seen.Contains(id) {
			return nil
		}
		seen.Add(id)
	}
	if c.isMarked(v) {
		return nil
	}
	if _, ok := c.types.lookup(reflect.TypeOf(v)); ok {
		return nil
	}

	switch classify(v) {
	case vkNull, vkPrimitive, vkPromise, vkHostNode, vkLazy:
		return nil

	case vkArray:
		arr := v.([]any)
		// A gap fails before any recursion; a sparse array cannot
		// round-trip regardless of what the assigned elements hold.
		for i, el := range arr {
			if _, gap := el.(missing); gap {
				return &NotSerializableError{
					Path: fmt.Sprintf("%s[%d]", path, i),
					Type: "sparse array",
					Hint: "assign every index before persisting",
				}
			}
		}
		for i, el := range arr {
			if err := c.verifyAt(el, fmt.Sprintf("%s[%d]", path, i), seen); err != nil {
				return err
			}
		}
		return nil

	case vkObject:
		obj := v.(map[string]any)
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := c.verifyAt(obj[k], path+"."+k, seen); err != nil {
				return err
			}
		}
		return nil

	case vkFunction:
		name := "func"
		if pc := reflect.ValueOf(v).Pointer(); pc != 0 {
			if fn := runtime.FuncForPC(pc); fn != nil {
				file, line := fn.FileLine(pc)
				name = fmt.Sprintf("%s (%s:%d)", fn.Name(), file, line)
			}
		}
		return &NotSerializableError{
			Path: path,
			Type: name,
			Hint: "functions cannot persist; reference code through a Lazy chunk/symbol pair",
		}

	default:
		return &NotSerializableError{
			Path: path,
			Type: reflect.TypeOf(v).String(),
			Hint: "register a codec with RegisterSerializableType or mark the value with MarkNoSerialize",
		}
	}
}
