package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type position struct{ X, Y float32 }
type velocity struct{ VX, VY float32 }

func TestEntityPoolReusesIndicesLIFO(t *testing.T) {
	pool := NewEntityPool()
	a := pool.Create()
	b := pool.Create()
	c := pool.Create()
	require.True(t, pool.Alive(a))
	require.True(t, pool.Alive(b))
	require.True(t, pool.Alive(c))

	pool.Destroy(b)
	pool.Destroy(c)
	require.False(t, pool.Alive(b))
	require.False(t, pool.Alive(c))

	// LIFO: the most recently freed index (c's) is handed out first.
	d := pool.Create()
	assert.Equal(t, c.Index(), d.Index())
	assert.NotEqual(t, c.Generation(), d.Generation())
	assert.True(t, pool.Alive(d))

	e := pool.Create()
	assert.Equal(t, b.Index(), e.Index())
}

func TestEntityPoolStaleIDNotAliveAfterReuse(t *testing.T) {
	pool := NewEntityPool()
	a := pool.Create()
	pool.Destroy(a)
	reused := pool.Create()
	require.Equal(t, a.Index(), reused.Index())
	assert.False(t, pool.Alive(a), "stale id with old generation must not alias the reused slot")
	assert.True(t, pool.Alive(reused))
}

func TestComponentStoreDenseByIndex(t *testing.T) {
	store := NewComponentStore[position]()
	pool := NewEntityPool()

	e1 := pool.Create()
	e2 := pool.Create()
	store.Set(e1, position{X: 1})
	store.Set(e2, position{X: 2})
	assert.Equal(t, 2, store.Len())

	got, ok := store.Get(e1)
	require.True(t, ok)
	assert.Equal(t, float32(1), got.X)

	store.Remove(e1)
	assert.Equal(t, 1, store.Len())
	_, ok = store.Get(e1)
	assert.False(t, ok)

	// Removing twice is a no-op, not a crash.
	store.Remove(e1)
	assert.Equal(t, 1, store.Len())
}

func TestWorldDestroyIsDeferredUntilFlush(t *testing.T) {
	w := NewWorld()
	positions := NewComponentStore[position]()
	w.Registry().Register(positions)

	id := w.CreateEntity()
	positions.Set(id, position{X: 5})

	w.MarkForDestruction(id)
	// Destruction is deferred: the entity and its components still exist
	// until FlushDestroyQueue runs at end of tick (Cleanup phase).
	assert.True(t, w.Alive(id))
	_, ok := positions.Get(id)
	assert.True(t, ok)

	w.FlushDestroyQueue()
	assert.False(t, w.Alive(id))
	_, ok = positions.Get(id)
	assert.False(t, ok)
}

func TestEach2IteratesIntersectionInIndexOrder(t *testing.T) {
	w := NewWorld()
	positions := NewComponentStore[position]()
	velocities := NewComponentStore[velocity]()
	w.Registry().Register(positions)
	w.Registry().Register(velocities)

	moving := w.CreateEntity()
	positions.Set(moving, position{X: 1})
	velocities.Set(moving, velocity{VX: 1})

	stillOnly := w.CreateEntity()
	positions.Set(stillOnly, position{X: 2})

	var seen []EntityID
	Each2(positions, velocities, func(id EntityID, p *position, v *velocity) {
		seen = append(seen, id)
		p.X += v.VX
	})

	require.Len(t, seen, 1)
	assert.Equal(t, moving, seen[0])
	got, _ := positions.Get(moving)
	assert.Equal(t, float32(2), got.X)
}
