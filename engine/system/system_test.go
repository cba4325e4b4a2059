package system_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/Carmen-Shannon/oxy-core/engine/ecs"
	"github.com/Carmen-Shannon/oxy-core/engine/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Transform struct{ T [3]float32 }
type Mesh struct{ Verts int }
type Material struct{ Name string }
type Tag struct{ Visible bool }

func TestFilterScenario(t *testing.T) {
	reg := ecs.NewRegistry()
	e := reg.CreateEntity()
	_, _ = ecs.Add(reg, e, Transform{T: [3]float32{1, 0, 0}})
	_, _ = ecs.Add(reg, e, Mesh{Verts: 3})

	withMesh := system.NewBase("mesh", system.Require[Transform](), system.Require[Mesh]())
	withMaterial := system.NewBase("material", system.Require[Transform](), system.Require[Material]())

	assert.Equal(t, []ecs.Entity{e}, withMesh.FilterEntities(reg, reg.Entities()))
	assert.Empty(t, withMaterial.FilterEntities(reg, reg.Entities()))
}

func TestFilterCorrectness(t *testing.T) {
	reg := ecs.NewRegistry()
	var want []ecs.Entity
	for i := range 30 {
		e := reg.CreateEntity()
		hasA, hasB := i%2 == 0, i%3 == 0
		if hasA {
			_, _ = ecs.Add(reg, e, Transform{})
		}
		if hasB {
			_, _ = ecs.Add(reg, e, Mesh{})
		}
		if i%5 == 0 {
			_, _ = ecs.Add(reg, e, Material{})
		}
		if hasA && hasB {
			want = append(want, e)
		}
	}

	s := system.NewBase("ab", system.Require[Transform](), system.Require[Mesh]())
	assert.Equal(t, want, s.FilterEntities(reg, reg.Entities()))
	assert.Equal(t, []reflect.Type{reflect.TypeFor[Transform](), reflect.TypeFor[Mesh]()}, s.Filter())
}

func TestExtractComponentsOrderAndSingle(t *testing.T) {
	reg := ecs.NewRegistry()
	e := reg.CreateEntity()
	_, _ = ecs.Add(reg, e, Mesh{Verts: 3})
	_, _ = ecs.Add(reg, e, Transform{T: [3]float32{1, 2, 3}})

	pair := system.NewBase("pair", system.Require[Transform](), system.Require[Mesh]())
	c, ok := pair.ExtractComponents(reg, e)
	require.True(t, ok)
	require.Len(t, c, 2)
	assert.Equal(t, float32(2), system.At[Transform](c, 0).T[1])
	assert.Equal(t, 3, system.At[Mesh](c, 1).Verts)

	single := system.NewBase("single", system.Require[Mesh]())
	c, ok = single.ExtractComponents(reg, e)
	require.True(t, ok)
	require.Len(t, c, 1)
	assert.Equal(t, 3, system.At[Mesh](c, 0).Verts)

	assert.Panics(t, func() { system.At[Transform](c, 0) })

	missing := system.NewBase("missing", system.Require[Material]())
	_, ok = missing.ExtractComponents(reg, e)
	assert.False(t, ok)
}

func TestPredicate(t *testing.T) {
	reg := ecs.NewRegistry()
	a, b := reg.CreateEntity(), reg.CreateEntity()
	_, _ = ecs.Add(reg, a, Tag{Visible: true})
	_, _ = ecs.Add(reg, b, Tag{Visible: false})

	s := system.NewBase("visible", system.Require[Tag](), system.WithPredicate(func(reg *ecs.Registry, e ecs.Entity) bool {
		tag, _ := ecs.Get[Tag](reg, e)
		return tag.Visible
	}))
	assert.Equal(t, []ecs.Entity{a}, s.FilterEntities(reg, reg.Entities()))
}

func TestEmptyFilterPanics(t *testing.T) {
	assert.Panics(t, func() { system.NewBase("empty") })
}

func TestLifecycleReentry(t *testing.T) {
	l := system.NewLifecycle()
	a, b := ecs.NewEntity(0, 1), ecs.NewEntity(1, 1)

	pending, dropped := l.Sync([]ecs.Entity{a, b})
	assert.Equal(t, []ecs.Entity{a, b}, pending)
	assert.Empty(t, dropped)
	l.Set(a, system.StateCreated)
	l.Set(b, system.StateCreated)
	pending, _ = l.Sync([]ecs.Entity{a, b})
	assert.Empty(t, pending)

	l.Set(a, system.StatePrepared)
	assert.Equal(t, system.StatePrepared, l.State(a))

	pending, dropped = l.Sync([]ecs.Entity{a})
	assert.Empty(t, pending)
	assert.Equal(t, []ecs.Entity{b}, dropped)
	assert.Equal(t, system.StateUnseen, l.State(b))

	pending, dropped = l.Sync([]ecs.Entity{a, b})
	assert.Equal(t, []ecs.Entity{b}, pending)
	assert.Empty(t, dropped)
}

func TestLifecycleDropsInEntityOrder(t *testing.T) {
	l := system.NewLifecycle()
	a, b, c := ecs.NewEntity(0, 1), ecs.NewEntity(1, 1), ecs.NewEntity(2, 1)
	for _, e := range []ecs.Entity{c, a, b} {
		l.Set(e, system.StateCreated)
	}

	_, dropped := l.Sync(nil)
	assert.Equal(t, []ecs.Entity{a, b, c}, dropped)
	assert.Zero(t, l.Len())
}

type countingSystem struct {
	system.Base
	created []ecs.Entity
	updates int
	failOn  ecs.Entity
}

func (s *countingSystem) OnCreate(_ *ecs.Registry, e ecs.Entity, _ system.Tuple) error {
	if e == s.failOn {
		return errors.New("boom")
	}
	s.created = append(s.created, e)
	return nil
}

func (s *countingSystem) OnUpdate(_ *ecs.Registry, dt float32, _ ecs.Entity, c system.Tuple) error {
	system.At[Transform](c, 0).T[0] += dt
	s.updates++
	return nil
}

func TestRunner(t *testing.T) {
	reg := ecs.NewRegistry()
	e := reg.CreateEntity()
	_, _ = ecs.Add(reg, e, Transform{})

	s := &countingSystem{Base: system.NewBase("move", system.Require[Transform]())}
	r := system.NewRunner(reg)
	r.Register(s)

	require.NoError(t, r.Update(0.5))
	require.NoError(t, r.Update(0.5))

	assert.Equal(t, []ecs.Entity{e}, s.created)
	assert.Equal(t, 2, s.updates)
	tr, _ := ecs.Get[Transform](reg, e)
	assert.Equal(t, float32(1), tr.T[0])

	stats := r.Stats()
	require.Len(t, stats, 1)
	assert.Equal(t, "move", stats[0].Name)
	assert.Equal(t, int64(2), stats[0].ExecutionCount)
	assert.Equal(t, 1, stats[0].Entities)
}

func TestRunnerCreateError(t *testing.T) {
	reg := ecs.NewRegistry()
	e := reg.CreateEntity()
	_, _ = ecs.Add(reg, e, Transform{})

	r := system.NewRunner(reg)
	r.Register(&countingSystem{Base: system.NewBase("move", system.Require[Transform]()), failOn: e})

	err := r.Update(1)
	var createErr *system.CreateError
	require.ErrorAs(t, err, &createErr)
	assert.Equal(t, "move", createErr.System)
	assert.Equal(t, e, createErr.Entity)
}
