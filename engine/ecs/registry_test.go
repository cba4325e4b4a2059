package ecs_test

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/Carmen-Shannon/oxy-core/engine/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type Position struct{ X, Y, Z float32 }
type Mesh struct{ Verts int }
type Material struct{ Name string }

func TestEntityEncoding(t *testing.T) {
	tests := []struct {
		index, generation uint32
	}{
		{0, 1},
		{1, 0},
		{0xFFFFFFFF, 0xFFFFFFFF},
		{0x12345678, 0x9ABCDEF0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("index=%d,gen=%d", tt.index, tt.generation), func(t *testing.T) {
			e := ecs.NewEntity(tt.index, tt.generation)
			assert.Equal(t, tt.index, e.Index())
			assert.Equal(t, tt.generation, e.Generation())
		})
	}
}

func TestCreateEntityUnique(t *testing.T) {
	r := ecs.NewRegistry()
	seen := make(map[ecs.Entity]bool)
	for range 1000 {
		e := r.CreateEntity()
		assert.False(t, e.IsZero())
		assert.False(t, seen[e], "entity %d issued twice", e)
		seen[e] = true
	}
	assert.Equal(t, 1000, r.Len())
}

func TestAddGetHas(t *testing.T) {
	r := ecs.NewRegistry()
	e := r.CreateEntity()

	_, ok := ecs.Get[Position](r, e)
	assert.False(t, ok)
	assert.False(t, ecs.Has[Position](r, e))

	p, err := ecs.Add(r, e, Position{X: 1})
	require.NoError(t, err)
	assert.Equal(t, float32(1), p.X)

	got, ok := ecs.Get[Position](r, e)
	require.True(t, ok)
	assert.Equal(t, Position{X: 1}, *got)
	assert.True(t, ecs.Has[Position](r, e))
	assert.False(t, ecs.Has[Mesh](r, e))
}

func TestAddComponentReturnsExisting(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	r := ecs.NewRegistry(ecs.WithLogger(zap.New(core)))
	e := r.CreateEntity()

	first, err := ecs.Add(r, e, Position{X: 1})
	require.NoError(t, err)
	second, err := ecs.Add(r, e, Position{X: 2})
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, float32(1), second.X)
	assert.Equal(t, 1, ecs.Table[Position](r).Len())
	assert.Equal(t, 1, logs.FilterMessage("component already present, keeping existing instance").Len())
	assert.Len(t, r.ComponentTypes(e), 1)
}

func TestAddComponentUntyped(t *testing.T) {
	r := ecs.NewRegistry()
	ecs.RegisterComponent[Mesh](r)
	e := r.CreateEntity()

	row, err := r.AddComponent(e, Mesh{Verts: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, row.(*Mesh).Verts)

	row, err = r.AddComponent(e, &Mesh{Verts: 9})
	require.NoError(t, err)
	assert.Equal(t, 3, row.(*Mesh).Verts)

	_, err = r.AddComponent(e, Material{})
	assert.ErrorIs(t, err, ecs.ErrUnregisteredComponent)

	_, err = r.AddComponent(ecs.NewEntity(42, 1), Mesh{})
	assert.ErrorIs(t, err, ecs.ErrEntityNotFound)
}

func TestRelationConsistency(t *testing.T) {
	r := ecs.NewRegistry()
	types := []reflect.Type{reflect.TypeFor[Position](), reflect.TypeFor[Mesh](), reflect.TypeFor[Material]()}
	entities := make([]ecs.Entity, 20)
	for i := range entities {
		entities[i] = r.CreateEntity()
		if i%2 == 0 {
			_, _ = ecs.Add(r, entities[i], Position{X: float32(i)})
		}
		if i%3 == 0 {
			_, _ = ecs.Add(r, entities[i], Mesh{Verts: i})
		}
		if i%5 == 0 {
			_, _ = ecs.Add(r, entities[i], Material{Name: "m"})
		}
	}
	require.NoError(t, r.DestroyEntity(entities[6]))
	ecs.Remove[Position](r, entities[4])

	for _, e := range entities {
		for _, typ := range types {
			_, got := r.GetComponent(e, typ)
			assert.Equal(t, r.HasComponent(e, typ), got, "entity %d type %s", e, typ)
		}
	}
}

func TestDestroyEntityInvalidatesHandle(t *testing.T) {
	r := ecs.NewRegistry()
	a := r.CreateEntity()
	b := r.CreateEntity()
	_, _ = ecs.Add(r, a, Position{X: 1})
	_, _ = ecs.Add(r, b, Position{X: 2})

	require.NoError(t, r.DestroyEntity(a))
	assert.False(t, r.IsAlive(a))
	assert.False(t, ecs.Has[Position](r, a))
	assert.ErrorIs(t, r.DestroyEntity(a), ecs.ErrEntityNotFound)

	got, ok := ecs.Get[Position](r, b)
	require.True(t, ok)
	assert.Equal(t, float32(2), got.X)

	reused := r.CreateEntity()
	assert.Equal(t, a.Index(), reused.Index())
	assert.NotEqual(t, a, reused)
	assert.False(t, ecs.Has[Position](r, reused))
	_, err := ecs.Add(r, a, Position{})
	assert.ErrorIs(t, err, ecs.ErrEntityNotFound)
}

func TestEntitiesCreationOrder(t *testing.T) {
	r := ecs.NewRegistry()
	a, b, c := r.CreateEntity(), r.CreateEntity(), r.CreateEntity()
	assert.Equal(t, []ecs.Entity{a, b, c}, r.Entities())

	require.NoError(t, r.DestroyEntity(b))
	assert.Equal(t, []ecs.Entity{a, c}, r.Entities())
}
