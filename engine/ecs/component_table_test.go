package ecs_test

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-core/engine/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComponentTableSwapRemove(t *testing.T) {
	tbl := ecs.NewComponentTable[Position](4)
	a, b, c := ecs.NewEntity(0, 1), ecs.NewEntity(1, 1), ecs.NewEntity(2, 1)
	tbl.Add(a, Position{X: 1})
	tbl.Add(b, Position{X: 2})
	tbl.Add(c, Position{X: 3})

	require.True(t, tbl.Remove(a))
	assert.Equal(t, 2, tbl.Len())
	assert.False(t, tbl.Has(a))

	slot, ok := tbl.Slot(c)
	require.True(t, ok)
	assert.Equal(t, 0, slot)

	got, ok := tbl.Get(c)
	require.True(t, ok)
	assert.Equal(t, float32(3), got.X)

	got, ok = tbl.Get(b)
	require.True(t, ok)
	assert.Equal(t, float32(2), got.X)

	assert.False(t, tbl.Remove(a))
}

func TestComponentTableSlotsStayInRange(t *testing.T) {
	tbl := ecs.NewComponentTable[Mesh](0)
	entities := make([]ecs.Entity, 50)
	for i := range entities {
		entities[i] = ecs.NewEntity(uint32(i), 1)
		tbl.Add(entities[i], Mesh{Verts: i})
	}
	for i := 0; i < len(entities); i += 3 {
		tbl.Remove(entities[i])
	}

	used := make(map[int]ecs.Entity)
	tbl.Each(func(e ecs.Entity, m *Mesh) bool {
		slot, ok := tbl.Slot(e)
		require.True(t, ok)
		assert.Less(t, slot, tbl.Len())
		_, dup := used[slot]
		assert.False(t, dup)
		used[slot] = e
		assert.Equal(t, int(e.Index()), m.Verts)
		return true
	})
	assert.Len(t, used, tbl.Len())
}
