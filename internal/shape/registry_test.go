package shape

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEntities(n int) []*Entity {
	out := make([]*Entity, n)
	for i := range out {
		out[i] = &Entity{
			ID:     fmt.Sprintf("e%d", i),
			BodyID: BodyID(i + 1),
			Class:  Class{Color: Red, Kind: Circle},
			Size:   1,
		}
	}
	return out
}

func TestRegistry_RegisterFind(t *testing.T) {
	r := NewRegistry()
	es := newEntities(3)
	for _, e := range es {
		r.Register(e)
	}
	require.Equal(t, 3, r.Len())

	got, ok := r.FindByBodyID(2)
	require.True(t, ok)
	assert.Same(t, es[1], got)

	_, ok = r.FindByBodyID(99)
	assert.False(t, ok)
}

func TestRegistry_RegisterTwiceIgnored(t *testing.T) {
	r := NewRegistry()
	e := newEntities(1)[0]
	r.Register(e)
	r.Register(e)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_RemoveSwapsLast(t *testing.T) {
	r := NewRegistry()
	es := newEntities(4)
	for _, e := range es {
		r.Register(e)
	}

	r.Remove(es[0])
	assert.Equal(t, 3, r.Len())
	assert.False(t, r.Contains(es[0]))
	_, ok := r.FindByBodyID(es[0].BodyID)
	assert.False(t, ok)

	// Every survivor is still reachable after the swap.
	for _, e := range es[1:] {
		got, ok := r.FindByBodyID(e.BodyID)
		require.True(t, ok, e.ID)
		assert.Same(t, e, got)
	}
	assert.ElementsMatch(t, es[1:], r.Snapshot())

	// Removing twice is a no-op.
	r.Remove(es[0])
	assert.Equal(t, 3, r.Len())
}

func TestRegistry_RemoveDuringEachIsDeferred(t *testing.T) {
	r := NewRegistry()
	es := newEntities(5)
	for _, e := range es {
		r.Register(e)
	}

	var visited []string
	r.Each(func(e *Entity) bool {
		visited = append(visited, e.ID)
		if e.ID == "e1" || e.ID == "e2" {
			r.Remove(e)
			assert.True(t, r.Contains(e), "removal must wait for iteration to finish")
		}
		return true
	})

	assert.Equal(t, []string{"e0", "e1", "e2", "e3", "e4"}, visited)
	assert.Equal(t, 3, r.Len())
	assert.False(t, r.Contains(es[1]))
	assert.False(t, r.Contains(es[2]))
}

func TestRegistry_NestedEachAppliesOnOutermostExit(t *testing.T) {
	r := NewRegistry()
	es := newEntities(2)
	for _, e := range es {
		r.Register(e)
	}

	r.Each(func(outer *Entity) bool {
		r.Each(func(inner *Entity) bool {
			r.Remove(inner)
			return true
		})
		assert.Equal(t, 2, r.Len())
		return false
	})
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_NilSafe(t *testing.T) {
	r := NewRegistry()
	r.Register(nil)
	r.Remove(nil)
	assert.False(t, r.Contains(nil))
	assert.Equal(t, 0, r.Len())
}
