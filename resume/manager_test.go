package resume_test

import (
	"testing"

	"github.com/delaneyj/resumeparty/resume"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type host struct{ name string }

func newScheduled() (*resume.Container, *[]resume.Subscription) {
	scheduled := &[]resume.Subscription{}
	container := resume.CreateContainer(
		resume.WithSchedule(func(sub resume.Subscription, state any) {
			*scheduled = append(*scheduled, sub)
		}),
	)
	return container, scheduled
}

// should store exactly one edge for equal (group, key) host subscriptions
func TestAddEdgeDedupsHostEdges(t *testing.T) {
	c, _ := newScheduled()
	m := c.CreateManager()
	a := &host{"a"}

	m.AddEdge(resume.HostSubscription{Group: a}, resume.Key("k1"))
	m.AddEdge(resume.HostSubscription{Group: a}, resume.Key("k1"))
	assert.Len(t, m.Edges(), 1)

	// a different key is a distinct edge
	m.AddEdge(resume.HostSubscription{Group: a}, resume.Key("k2"))
	m.AddEdge(resume.HostSubscription{Group: a}, nil)
	assert.Len(t, m.Edges(), 3)
}

// should not dedup signal edges even for the same group
func TestAddEdgeKeepsDistinctSignalEdges(t *testing.T) {
	c, _ := newScheduled()
	m := c.CreateManager()
	a, signal, el := &host{"a"}, &host{"sig"}, &host{"el"}

	m.AddEdge(resume.PropSubscription{
		Binding: resume.KindProp, Host: a, Signal: signal, Target: el, Prop: "value",
	}, nil)
	m.AddEdge(resume.PropSubscription{
		Binding: resume.KindProp, Host: a, Signal: signal, Target: el, Prop: "value",
	}, nil)
	assert.Len(t, m.Edges(), 2)
}

// should skip duplicate checks on bulk add of trusted edges
func TestAddEdgesTrustsBulkInput(t *testing.T) {
	c, _ := newScheduled()
	a := &host{"a"}
	m := c.CreateManager(
		resume.HostSubscription{Group: a, Key: resume.Key("k")},
		resume.HostSubscription{Group: a, Key: resume.Key("k")},
	)
	assert.Len(t, m.Edges(), 2)
}

// should notify edges whose key is absent or equal to the mutation key
func TestNotifyFiltersByKey(t *testing.T) {
	c, scheduled := newScheduled()
	m := c.CreateManager()
	a, b, anyKey := &host{"a"}, &host{"b"}, &host{"any"}

	m.AddEdge(resume.HostSubscription{Group: a}, resume.Key("k1"))
	m.AddEdge(resume.HostSubscription{Group: b}, resume.Key("k2"))
	m.AddEdge(resume.HostSubscription{Group: anyKey}, nil)

	m.Notify(resume.Key("k1"))
	require.Len(t, *scheduled, 2)
	assert.Equal(t, a, resume.GroupOf((*scheduled)[0]))
	assert.Equal(t, anyKey, resume.GroupOf((*scheduled)[1]))
}

// should notify every edge when the mutation has no key
func TestNotifyWithoutKeyMatchesAll(t *testing.T) {
	c, scheduled := newScheduled()
	m := c.CreateManager()
	m.AddEdge(resume.HostSubscription{Group: &host{"a"}}, resume.Key("k1"))
	m.AddEdge(resume.HostSubscription{Group: &host{"b"}}, nil)

	m.Notify(nil)
	assert.Len(t, *scheduled, 2)
}

// should leave edges in place after notification
func TestNotifyIsRepeatable(t *testing.T) {
	c, scheduled := newScheduled()
	m := c.CreateManager()
	m.AddEdge(resume.HostSubscription{Group: &host{"a"}}, nil)

	m.Notify(nil)
	m.Notify(nil)
	assert.Len(t, *scheduled, 2)
	assert.Len(t, m.Edges(), 1)
}

// should remove a group's edges preserving the relative order of the rest
func TestRemoveGroupPreservesOrder(t *testing.T) {
	c, _ := newScheduled()
	m := c.CreateManager()
	a, b, d := &host{"a"}, &host{"b"}, &host{"d"}

	m.AddEdge(resume.HostSubscription{Group: a}, nil)
	m.AddEdge(resume.HostSubscription{Group: b}, resume.Key("x"))
	m.AddEdge(resume.HostSubscription{Group: a}, resume.Key("y"))
	m.AddEdge(resume.HostSubscription{Group: d}, nil)

	m.RemoveGroup(a)
	edges := m.Edges()
	require.Len(t, edges, 2)
	assert.Equal(t, b, resume.GroupOf(edges[0]))
	assert.Equal(t, d, resume.GroupOf(edges[1]))
}

// should match the bound property when removing attribute/property edges
func TestRemoveSignalEdgeChecksProp(t *testing.T) {
	c, _ := newScheduled()
	m := c.CreateManager()
	a, signal, el := &host{"a"}, &host{"sig"}, &host{"el"}

	m.AddEdge(resume.PropSubscription{
		Binding: resume.KindAttr, Host: a, Signal: signal, Target: el, Prop: "title",
	}, nil)
	m.AddEdge(resume.PropSubscription{
		Binding: resume.KindAttr, Host: a, Signal: signal, Target: el, Prop: "href",
	}, nil)

	m.RemoveSignalEdge(resume.PropSubscription{
		Binding: resume.KindAttr, Host: a, Signal: signal, Target: el, Prop: "title",
	})
	require.Len(t, m.Edges(), 1)
	assert.Equal(t, "href", m.Edges()[0].(resume.PropSubscription).Prop)
}

// should remove every structurally identical signal edge
func TestRemoveSignalEdgeRemovesAllMatches(t *testing.T) {
	c, _ := newScheduled()
	m := c.CreateManager()
	a, signal := &host{"a"}, &host{"sig"}

	edge := resume.NodeSubscription{
		Binding: resume.KindText, Host: a, Signal: signal, Node: "node-1",
	}
	m.AddEdge(edge, nil)
	m.AddEdge(edge, nil)
	m.RemoveSignalEdge(edge)
	assert.Empty(t, m.Edges())
}

// should schedule nothing for a group cleared before notification
func TestClearGroupCancelsPendingNotifications(t *testing.T) {
	c, scheduled := newScheduled()
	m1 := c.CreateManager()
	m2 := c.CreateManager()
	a, b := &host{"a"}, &host{"b"}

	m1.AddEdge(resume.HostSubscription{Group: a}, nil)
	m2.AddEdge(resume.HostSubscription{Group: a}, resume.Key("k"))
	m2.AddEdge(resume.HostSubscription{Group: b}, nil)

	c.ClearGroup(a)
	m1.Notify(nil)
	m2.Notify(nil)

	require.Len(t, *scheduled, 1)
	assert.Equal(t, b, resume.GroupOf((*scheduled)[0]))
}

// should clear one signal binding across every manager referencing the group
func TestClearSignalEdgeSpansManagers(t *testing.T) {
	c, _ := newScheduled()
	m1 := c.CreateManager()
	m2 := c.CreateManager()
	a, signal, el := &host{"a"}, &host{"sig"}, &host{"el"}

	edge := resume.PropSubscription{
		Binding: resume.KindProp, Host: a, Signal: signal, Target: el, Prop: "value",
	}
	m1.AddEdge(edge, nil)
	m2.AddEdge(edge, nil)
	m2.AddEdge(resume.HostSubscription{Group: a}, nil)

	c.ClearSignalEdge(edge)
	assert.Empty(t, m1.Edges())
	require.Len(t, m2.Edges(), 1)
	assert.IsType(t, resume.HostSubscription{}, m2.Edges()[0])
}
