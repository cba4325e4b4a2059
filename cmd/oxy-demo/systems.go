package main

import (
	"github.com/Carmen-Shannon/oxy-core/engine/component"
	"github.com/Carmen-Shannon/oxy-core/engine/ecs"
	"github.com/Carmen-Shannon/oxy-core/engine/system"
	"github.com/go-gl/mathgl/mgl32"
)

// spinTag marks scene entities the spinner rotates.
const spinTag = "spin"

// spinner rotates every tagged Transform around the world Y axis.
//
// Tuple layout: Transform, Info.
type spinner struct {
	system.Base
	speed float32 // radians per second
}

var _ system.LogicSystem = &spinner{}

func newSpinner(speed float32) *spinner {
	return &spinner{
		Base: system.NewBase("spinner",
			system.Require[component.Transform](),
			system.Require[component.Info](),
			system.WithPredicate(func(reg *ecs.Registry, e ecs.Entity) bool {
				info, ok := ecs.Get[component.Info](reg, e)
				return ok && info.HasTag(spinTag)
			}),
		),
		speed: speed,
	}
}

func (s *spinner) OnCreate(*ecs.Registry, ecs.Entity, system.Tuple) error {
	return nil
}

func (s *spinner) OnUpdate(_ *ecs.Registry, dt float32, _ ecs.Entity, c system.Tuple) error {
	system.At[component.Transform](c, 0).Rotate(s.speed*dt, mgl32.Vec3{0, 1, 0})
	return nil
}
