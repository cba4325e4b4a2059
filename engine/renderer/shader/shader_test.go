package shader_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-core/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cameraSnippet = "struct Camera { viewProj: mat4x4f, position: vec4f }"

const forwardSource = `#include "camera"
@group(0) @binding(0) var<uniform> camera: Camera;

@vertex
fn vs_main(@location(0) position: vec3f) -> @builtin(position) vec4f {
	return camera.viewProj * vec4f(position, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4f {
	return vec4f(1.0);
}
`

func TestNewShaderWithIncludes(t *testing.T) {
	pp := shader.NewPreProcessor()
	pp.Register("camera", cameraSnippet)

	s, err := shader.NewShader("forward", forwardSource, shader.WithPreProcessor(pp))
	require.NoError(t, err)

	assert.Equal(t, "forward", s.Key())
	assert.Contains(t, s.Source(), "struct Camera")
	assert.NotContains(t, s.Source(), "#include")
	assert.Equal(t, "vs_main", s.EntryPoint(gpu.ShaderStageVertex))
	assert.Equal(t, "fs_main", s.EntryPoint(gpu.ShaderStageFragment))
	assert.Empty(t, s.EntryPoint(gpu.ShaderStageCompute))
	assert.Equal(t, gpu.ShaderStageVertex|gpu.ShaderStageFragment, s.Stages())
	assert.Equal(t, [3]uint32{1, 1, 1}, s.WorkgroupSize())

	cam, ok := s.Descriptor().Binding("camera")
	require.True(t, ok)
	assert.Equal(t, uint64(80), cam.Size)
}

func TestNewShaderErrorsNameTheShader(t *testing.T) {
	_, err := shader.NewShader("broken", "@group(0) @binding(0) var<uniform> u: Nope;")
	var re *shader.ReflectionError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "broken", re.Shader)
	assert.Equal(t, "u", re.Binding)
	assert.ErrorIs(t, err, shader.ErrMissingStruct)
	assert.Contains(t, err.Error(), `shader "broken"`)

	_, err = shader.NewShader("unknown-include", `#include "nope"`, shader.WithPreProcessor(shader.NewPreProcessor()))
	require.ErrorAs(t, err, &re)
	assert.Contains(t, err.Error(), "unknown include")

	assert.Panics(t, func() { _, _ = shader.NewShader("", "") })
}

func TestValidationRejectsInvalidSource(t *testing.T) {
	_, err := shader.NewShader("bad", "fn main( {", shader.WithValidation(true))
	assert.ErrorIs(t, err, shader.ErrValidation)
}

func TestPreProcessor(t *testing.T) {
	pp := shader.NewPreProcessor()
	pp.Register("a", "struct A { x: f32 }")
	pp.Register("b", "#include \"a\"\nstruct B { a: A }")

	out, err := pp.Process("#include \"b\"\n#include \"a\"\nfn f() {}")
	require.NoError(t, err)
	assert.Equal(t, "struct A { x: f32 }\nstruct B { a: A }\nfn f() {}", out)

	pp.Register("loop", "#include \"loop\"")
	_, err = pp.Process("#include \"loop\"")
	assert.ErrorContains(t, err, "include cycle")
}

func TestModuleIsCachedPerDevice(t *testing.T) {
	s, err := shader.NewShader("plain", "@fragment fn main() -> @location(0) vec4f { return vec4f(1.0); }")
	require.NoError(t, err)

	device := gpu.NewRecordingDevice()
	m1, err := s.Module(device)
	require.NoError(t, err)
	m2, err := s.Module(device)
	require.NoError(t, err)
	assert.Same(t, m1, m2)
	assert.Equal(t, 1, device.Count(gpu.OpCreateShaderModule))

	_, err = s.Module(gpu.NewRecordingDevice())
	assert.Error(t, err)

	s.Release()
	assert.True(t, m1.(*gpu.RecordedObject).Released)
}

func TestLibraryPreload(t *testing.T) {
	lib := shader.NewLibrary(shader.WithWorkers(3))
	lib.PreProcessor().Register("camera", cameraSnippet)

	var sources []shader.Source
	for i := range 6 {
		sources = append(sources, shader.Source{Key: fmt.Sprintf("forward-%d", i), Code: forwardSource})
	}
	sources = append(sources, shader.Source{Key: "broken", Code: "@group(0) @binding(0) var<uniform> u: Nope;"})

	err := lib.Preload(sources)
	require.ErrorIs(t, err, shader.ErrMissingStruct)

	keys := lib.Keys()
	assert.Len(t, keys, 6)
	assert.NotContains(t, keys, "broken")

	s, ok := lib.Get("forward-3")
	require.True(t, ok)
	again, err := lib.Load("forward-3", "ignored")
	require.NoError(t, err)
	assert.Same(t, s, again)

	assert.Panics(t, func() { lib.MustGet("missing") })
}

func TestLoadShaderFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blit.wgsl")
	require.NoError(t, os.WriteFile(path, []byte(`
@group(0) @binding(0) var src: texture_2d<f32>;
@group(0) @binding(1) var srcSampler: sampler;
@fragment fn fs(@location(0) uv: vec2f) -> @location(0) vec4f { return textureSample(src, srcSampler, uv); }
`), 0o644))

	s, err := shader.LoadShader("blit", path)
	require.NoError(t, err)
	assert.Len(t, s.Descriptor().Bindings, 2)

	_, err = shader.LoadShader("missing", filepath.Join(t.TempDir(), "nope.wgsl"))
	assert.Error(t, err)
}
