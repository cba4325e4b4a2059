package texture_library_test

import (
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-core/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/texture_library"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPixels(t *testing.T) {
	dev := gpu.NewRecordingDevice()
	lib := texture_library.NewLibrary(dev)

	name, err := lib.LoadPixels("white", 2, 2, gpu.TextureFormatRGBA8Unorm, make([]byte, 16))
	require.NoError(t, err)
	assert.Equal(t, "white", name)
	assert.Equal(t, 1, dev.Count(gpu.OpWriteTexture))

	view, version, err := lib.View("white")
	require.NoError(t, err)
	assert.NotNil(t, view)
	assert.NotZero(t, version)

	_, err = lib.LoadPixels("bad", 2, 2, gpu.TextureFormatRGBA8Unorm, make([]byte, 3))
	assert.Error(t, err)
}

func TestGeneratedName(t *testing.T) {
	lib := texture_library.NewLibrary(gpu.NewRecordingDevice())
	name, err := lib.LoadPixels("", 1, 1, gpu.TextureFormatRGBA8Unorm, make([]byte, 4))
	require.NoError(t, err)
	assert.NotEmpty(t, name)
	assert.True(t, lib.Has(name))
}

func TestMissingNames(t *testing.T) {
	lib := texture_library.NewLibrary(gpu.NewRecordingDevice())

	_, _, err := lib.View("nope")
	assert.ErrorIs(t, err, texture_library.ErrNotRegistered)
	_, err = lib.Texture("nope")
	assert.ErrorIs(t, err, texture_library.ErrNotRegistered)
	_, err = lib.Sampler("nope")
	assert.ErrorIs(t, err, texture_library.ErrNotRegistered)
}

func TestRenderTargetResizeBumpsVersion(t *testing.T) {
	dev := gpu.NewRecordingDevice()
	lib := texture_library.NewLibrary(dev)

	require.NoError(t, lib.CreateRenderTarget("gbuffer.albedo", gpu.TextureFormatRGBA8Unorm, 640, 480, true))
	require.NoError(t, lib.CreateRenderTarget("shadow", gpu.TextureFormatDepth32Float, 1024, 1024, false))
	_, before, err := lib.View("gbuffer.albedo")
	require.NoError(t, err)
	_, shadowBefore, err := lib.View("shadow")
	require.NoError(t, err)

	require.NoError(t, lib.Resize(800, 600))

	_, after, err := lib.View("gbuffer.albedo")
	require.NoError(t, err)
	assert.Greater(t, after, before)
	_, shadowAfter, err := lib.View("shadow")
	require.NoError(t, err)
	assert.Equal(t, shadowBefore, shadowAfter)

	tex, err := lib.Texture("gbuffer.albedo")
	require.NoError(t, err)
	assert.Equal(t, uint32(800), tex.Width())
	assert.True(t, strings.HasPrefix(tex.Label(), "gbuffer.albedo-"))
}

func TestSamplers(t *testing.T) {
	dev := gpu.NewRecordingDevice()
	lib := texture_library.NewLibrary(dev)

	require.NoError(t, lib.AddSampler("linear", gpu.SamplerDescriptor{MagFilter: gpu.FilterModeLinear}))
	s, err := lib.Sampler("linear")
	require.NoError(t, err)
	assert.NotNil(t, s)
	assert.Equal(t, gpu.CompareFunctionUndefined, s.CompareFunction())
	assert.Equal(t, 1, dev.Count(gpu.OpCreateSampler))
}
