package pass

import (
	"github.com/Carmen-Shannon/oxy-core/engine/component"
	"github.com/Carmen-Shannon/oxy-core/engine/ecs"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/pipeline"
)

// entityResources are the GPU objects a pass holds for one entity. The binding set belongs to the
// pass. The mesh buffers and the pipeline belong to the entity's Mesh and Material components.
type entityResources struct {
	set      *bind_group_provider.Set
	pipeline pipeline.Pipeline
	vertex   gpu.Buffer
	index    gpu.Buffer
}

// tracked maps entities to the resources a pass holds for them.
type tracked map[ecs.Entity]*entityResources

func (t tracked) get(e ecs.Entity) *entityResources {
	r, ok := t[e]
	if !ok {
		r = &entityResources{}
		t[e] = r
	}
	return r
}

// setMesh records the buffers of an uploaded mesh.
func (r *entityResources) setMesh(mesh *component.Mesh) {
	r.vertex, r.index = mesh.VertexBuffer, mesh.IndexBuffer
}

// forget releases what the pass held for e and stops tracking it. The binding set is always
// released. Component owned objects are released once e is destroyed or no longer carries the
// component they were created for; otherwise another pass may still draw with them, so they move
// to retained and are released with the pass.
//
// Parameters:
//   - reg: the registry e lived in
//   - e: the forgotten entity
//   - retained: the pass lifetime objects
//
// Returns:
//   - int: the number of objects released now
func (t tracked) forget(reg *ecs.Registry, e ecs.Entity, retained *owned) int {
	r, ok := t[e]
	if !ok {
		return 0
	}
	delete(t, e)

	released := 0
	if r.set != nil {
		r.set.Release()
		released++
	}
	alive := reg != nil && reg.IsAlive(e)

	meshKept := false
	if alive {
		if mesh, ok := ecs.Get[component.Mesh](reg, e); ok && r.vertex != nil && mesh.VertexBuffer == r.vertex {
			meshKept = true
		}
	}
	for _, b := range []gpu.Buffer{r.vertex, r.index} {
		switch {
		case b == nil:
		case meshKept:
			retained.add(b)
		default:
			b.Release()
			released++
		}
	}

	if r.pipeline != nil {
		pipelineKept := false
		if alive {
			if mat, ok := ecs.Get[component.Material](reg, e); ok && mat.Pipeline == r.pipeline {
				pipelineKept = true
			}
		}
		if pipelineKept {
			retained.add(r.pipeline)
		} else {
			r.pipeline.Release()
			released++
		}
	}
	return released
}

// release frees every tracked object. Objects shared with other passes tolerate the repeated
// Release.
func (t tracked) release() {
	for e, r := range t {
		if r.set != nil {
			r.set.Release()
		}
		if r.pipeline != nil {
			r.pipeline.Release()
		}
		for _, b := range []gpu.Buffer{r.vertex, r.index} {
			if b != nil {
				b.Release()
			}
		}
		delete(t, e)
	}
}
