// Package texture_library holds the textures and samplers that several passes read by name.
// Passes never own these resources; they look them up each time they rebuild a bind group.
package texture_library

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/Carmen-Shannon/oxy-core/engine/renderer/gpu"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNotRegistered is returned when a texture or sampler name is unknown.
var ErrNotRegistered = errors.New("texture_library: name not registered")

// textureEntry is one named texture and its default view.
type textureEntry struct {
	texture gpu.Texture
	view    gpu.TextureView
	version uint64
	// screenSized targets follow the surface size on Resize.
	screenSized bool
	format      gpu.TextureFormat
	usage       gpu.TextureUsage
}

// Library maps names to textures and samplers.
type Library struct {
	device   gpu.Device
	logger   *zap.Logger
	textures map[string]*textureEntry
	samplers map[string]gpu.Sampler
	version  uint64
}

// LibraryOption configures a Library.
type LibraryOption func(*Library)

// WithLogger sets the library logger.
func WithLogger(logger *zap.Logger) LibraryOption {
	return func(l *Library) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLibrary creates an empty Library that allocates through device.
func NewLibrary(device gpu.Device, opts ...LibraryOption) *Library {
	if device == nil {
		panic("texture_library: device is required")
	}
	l := &Library{
		device:   device,
		logger:   zap.NewNop(),
		textures: make(map[string]*textureEntry),
		samplers: make(map[string]gpu.Sampler),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadPixels creates a sampled texture from tightly packed pixels and registers it under name.
// An empty name gets a generated one. Loading over an existing name replaces it.
//
// Parameters:
//   - name: the lookup name, or "" to generate one
//   - width: texture width in texels
//   - height: texture height in texels
//   - format: texel format of pixels
//   - pixels: texel data, width*height*bytesPerTexel bytes
//
// Returns:
//   - string: the registered name
//   - error: error if the size does not match or the device fails
func (l *Library) LoadPixels(name string, width, height uint32, format gpu.TextureFormat, pixels []byte) (string, error) {
	if name == "" {
		name = uuid.NewString()
	}
	bpp := format.BytesPerTexel()
	if bpp == 0 {
		return "", fmt.Errorf("texture %q: unsupported upload format %d", name, format)
	}
	if want := int(width * height * bpp); len(pixels) != want {
		return "", fmt.Errorf("texture %q: got %d bytes, want %d", name, len(pixels), want)
	}
	usage := gpu.TextureUsageTextureBinding | gpu.TextureUsageCopyDst
	tex, err := l.device.CreateTexture(&gpu.TextureDescriptor{
		Label:              name,
		Width:              width,
		Height:             height,
		DepthOrArrayLayers: 1,
		Format:             format,
		Usage:              usage,
		SampleCount:        1,
		MipLevelCount:      1,
	})
	if err != nil {
		return "", fmt.Errorf("texture %q: %w", name, err)
	}
	if err := l.device.Queue().WriteTexture(tex, pixels, width*bpp); err != nil {
		tex.Release()
		return "", fmt.Errorf("texture %q upload: %w", name, err)
	}
	if err := l.put(name, tex, false, usage); err != nil {
		return "", err
	}
	return name, nil
}

// CreateRenderTarget allocates a texture a pass can render into and later passes can sample.
// Screen-sized targets are reallocated by Resize.
//
// Parameters:
//   - name: the lookup name
//   - format: texel format, a depth format for depth targets
//   - width: width in pixels
//   - height: height in pixels
//   - screenSized: whether Resize should follow the surface size
//
// Returns:
//   - error: error if the device fails
func (l *Library) CreateRenderTarget(name string, format gpu.TextureFormat, width, height uint32, screenSized bool) error {
	usage := gpu.TextureUsageRenderAttachment | gpu.TextureUsageTextureBinding
	tex, err := l.device.CreateTexture(&gpu.TextureDescriptor{
		Label:              name + "-" + uuid.NewString(),
		Width:              max(width, 1),
		Height:             max(height, 1),
		DepthOrArrayLayers: 1,
		Format:             format,
		Usage:              usage,
		SampleCount:        1,
		MipLevelCount:      1,
	})
	if err != nil {
		return fmt.Errorf("render target %q: %w", name, err)
	}
	return l.put(name, tex, screenSized, usage)
}

// Register adds an externally created texture under name.
func (l *Library) Register(name string, tex gpu.Texture) error {
	return l.put(name, tex, false, gpu.TextureUsageTextureBinding)
}

func (l *Library) put(name string, tex gpu.Texture, screenSized bool, usage gpu.TextureUsage) error {
	view, err := tex.CreateView()
	if err != nil {
		tex.Release()
		return fmt.Errorf("texture %q view: %w", name, err)
	}
	if old, ok := l.textures[name]; ok {
		old.view.Release()
		old.texture.Release()
	}
	l.version++
	l.textures[name] = &textureEntry{
		texture:     tex,
		view:        view,
		version:     l.version,
		screenSized: screenSized,
		format:      tex.Format(),
		usage:       usage,
	}
	l.logger.Debug("texture registered",
		zap.String("name", name),
		zap.Uint32("width", tex.Width()),
		zap.Uint32("height", tex.Height()),
	)
	return nil
}

// View returns the default view of name and the version it was registered at. The version
// changes whenever the name is rebound to a new texture.
func (l *Library) View(name string) (gpu.TextureView, uint64, error) {
	e, ok := l.textures[name]
	if !ok {
		return nil, 0, fmt.Errorf("texture %q: %w", name, ErrNotRegistered)
	}
	return e.view, e.version, nil
}

// Texture returns the texture registered as name.
func (l *Library) Texture(name string) (gpu.Texture, error) {
	e, ok := l.textures[name]
	if !ok {
		return nil, fmt.Errorf("texture %q: %w", name, ErrNotRegistered)
	}
	return e.texture, nil
}

// Has reports whether a texture is registered under name.
func (l *Library) Has(name string) bool {
	_, ok := l.textures[name]
	return ok
}

// AddSampler creates and registers a sampler. Re-adding a name replaces the sampler.
func (l *Library) AddSampler(name string, desc gpu.SamplerDescriptor) error {
	if desc.Label == "" {
		desc.Label = name
	}
	s, err := l.device.CreateSampler(&desc)
	if err != nil {
		return fmt.Errorf("sampler %q: %w", name, err)
	}
	if old, ok := l.samplers[name]; ok {
		old.Release()
	}
	l.samplers[name] = s
	return nil
}

// Sampler returns the sampler registered as name.
func (l *Library) Sampler(name string) (gpu.Sampler, error) {
	s, ok := l.samplers[name]
	if !ok {
		return nil, fmt.Errorf("sampler %q: %w", name, ErrNotRegistered)
	}
	return s, nil
}

// Resize reallocates every screen-sized render target at the new size.
func (l *Library) Resize(width, height uint32) error {
	for _, name := range l.Names() {
		e := l.textures[name]
		if !e.screenSized {
			continue
		}
		if err := l.CreateRenderTarget(name, e.format, width, height, true); err != nil {
			return err
		}
	}
	return nil
}

// Names returns the registered texture names sorted.
func (l *Library) Names() []string {
	return slices.Sorted(maps.Keys(l.textures))
}

// Release frees every texture and sampler.
func (l *Library) Release() {
	for name, e := range l.textures {
		e.view.Release()
		e.texture.Release()
		delete(l.textures, name)
	}
	for name, s := range l.samplers {
		s.Release()
		delete(l.samplers, name)
	}
}
