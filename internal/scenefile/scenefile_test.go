package scenefile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-core/engine/component"
	"github.com/Carmen-Shannon/oxy-core/engine/ecs"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-core/internal/scenefile"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const demo = `
entities:
  - name: camera
    camera:
      position: [0, 3, 8]
      target: [0, 1, 0]
      fov_degrees: 45
  - name: sun
    light:
      type: directional
      color: [1, 0.9, 0.8]
      intensity: 3
      direction: [-1, -2, -1]
      casts_shadows: true
  - name: lamp
    transform:
      position: [2, 1, 0]
    light:
      type: point
      color: [1, 0.5, 0]
      intensity: 2
      range: 6
  - name: ground
    tags: [static]
    transform:
      scale: [20, 1, 20]
    mesh:
      shape: plane
    material:
      color: [0.6, 0.6, 0.6, 1]
    shader:
      key: gbuffer
    shadows:
      receive: true
  - name: glass
    transform:
      position: [0, 1, 0]
      rotation: {axis: [0, 1, 0], degrees: 90}
    mesh:
      shape: cube
      size: 2
    material:
      name: glass
      blend: true
      cull: none
      textures: {albedo: checker}
      samplers: {albedoSampler: linear}
    shader:
      mode: forward
      key: forward
    passes: [forward]
  - name: sky
    skybox:
      shader: sky
      texture: sky
      intensity: 0.5
`

func TestSpawn(t *testing.T) {
	s, err := scenefile.Parse([]byte(demo))
	require.NoError(t, err)
	require.Len(t, s.Entities, 6)

	reg := ecs.NewRegistry()
	entities, err := s.Spawn(reg, 2)
	require.NoError(t, err)
	require.Len(t, entities, 6)
	assert.Equal(t, entities, reg.Entities())

	t.Run("camera", func(t *testing.T) {
		cam, ok := ecs.Get[component.Camera](reg, entities[0])
		require.True(t, ok)
		assert.Equal(t, mgl32.Vec3{0, 3, 8}, cam.Position)
		assert.Equal(t, mgl32.Vec3{0, 1, 0}, cam.Target)
		assert.InDelta(t, mgl32.DegToRad(45), cam.FovY, 1e-6)
		assert.Equal(t, float32(2), cam.Aspect)
		assert.True(t, cam.Active)
		assert.False(t, ecs.Has[component.Transform](reg, entities[0]))
	})

	t.Run("lights", func(t *testing.T) {
		sun, ok := ecs.Get[component.Light](reg, entities[1])
		require.True(t, ok)
		assert.Equal(t, component.LightTypeDirectional, sun.Type)
		assert.True(t, sun.CastsShadows)

		lamp, ok := ecs.Get[component.Light](reg, entities[2])
		require.True(t, ok)
		assert.Equal(t, component.LightTypePoint, lamp.Type)
		assert.Equal(t, float32(6), lamp.Range)
		tr, ok := ecs.Get[component.Transform](reg, entities[2])
		require.True(t, ok)
		assert.Equal(t, mgl32.Vec3{2, 1, 0}, tr.Position)
	})

	t.Run("deferred mesh", func(t *testing.T) {
		info, ok := ecs.Get[component.Info](reg, entities[3])
		require.True(t, ok)
		assert.True(t, info.HasTag("static"))

		tr, _ := ecs.Get[component.Transform](reg, entities[3])
		assert.Equal(t, mgl32.Vec3{20, 1, 20}, tr.Scale)
		mesh, ok := ecs.Get[component.Mesh](reg, entities[3])
		require.True(t, ok)
		assert.Equal(t, "ground", mesh.Name)
		mat, _ := ecs.Get[component.Material](reg, entities[3])
		assert.Equal(t, "ground", mat.Name)
		assert.Equal(t, mgl32.Vec4{0.6, 0.6, 0.6, 1}, mat.Color)
		assert.Equal(t, gpu.CullModeBack, mat.State.CullMode)

		ds, ok := ecs.Get[component.DeferredShader](reg, entities[3])
		require.True(t, ok)
		assert.Equal(t, "gbuffer", ds.Key)
		assert.False(t, ecs.Has[component.ForwardShader](reg, entities[3]))
		sa, _ := ecs.Get[component.ShadowAffection](reg, entities[3])
		assert.Equal(t, component.ShadowAffection{Receive: true}, *sa)
	})

	t.Run("forward mesh", func(t *testing.T) {
		tr, _ := ecs.Get[component.Transform](reg, entities[4])
		rotated := tr.Rotation.Rotate(mgl32.Vec3{1, 0, 0})
		assert.InDelta(t, -1, rotated.Z(), 1e-5)

		mat, _ := ecs.Get[component.Material](reg, entities[4])
		assert.True(t, mat.Transparent)
		assert.True(t, mat.State.BlendEnabled)
		assert.Equal(t, gpu.CullModeNone, mat.State.CullMode)
		assert.Equal(t, map[string]string{"albedo": "checker"}, mat.Textures)
		assert.Equal(t, map[string]string{"albedoSampler": "linear"}, mat.Samplers)

		fs, ok := ecs.Get[component.ForwardShader](reg, entities[4])
		require.True(t, ok)
		assert.Equal(t, "forward", fs.Key)
		ex, ok := ecs.Get[component.RenderExclusive](reg, entities[4])
		require.True(t, ok)
		assert.True(t, ex.Allows("forward"))
		assert.False(t, ex.Allows("geometry"))
	})

	t.Run("skybox", func(t *testing.T) {
		sky, ok := ecs.Get[component.Skybox](reg, entities[5])
		require.True(t, ok)
		assert.Equal(t, "sky", sky.Key)
		assert.Equal(t, "sky", sky.Texture)
		assert.Equal(t, float32(0.5), sky.Intensity)
	})
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"shape", "entities:\n  - name: a\n    mesh: {shape: torus}\n", `entity 0 (a): unknown mesh shape "torus"`},
		{"mesh without material", "entities:\n  - mesh: {shape: cube}\n    shader: {key: x}\n", "entity 0 (unnamed): a mesh needs a material and a shader"},
		{"cull", "entities:\n  - material: {cull: sideways}\n", `unknown cull mode "sideways"`},
		{"shader key", "entities:\n  - shader: {mode: forward}\n", "shader key is empty"},
		{"shader mode", "entities:\n  - shader: {key: x, mode: raytraced}\n", `unknown shader mode "raytraced"`},
		{"light", "entities:\n  - light: {type: area}\n", `unknown light type "area"`},
		{"skybox", "entities:\n  - skybox: {shader: sky}\n", "skybox needs a shader and a texture"},
		{"yaml", "entities: [\n", "yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := scenefile.Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.yaml")
	require.NoError(t, os.WriteFile(path, []byte(demo), 0o644))
	s, err := scenefile.Load(path)
	require.NoError(t, err)
	assert.Len(t, s.Entities, 6)

	_, err = scenefile.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
