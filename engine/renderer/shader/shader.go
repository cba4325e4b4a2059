package shader

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/Carmen-Shannon/oxy-core/engine/renderer/gpu"
)

// shader is the implementation of the Shader interface.
// It holds the processed source, its reflection and the lazily created module.
type shader struct {
	key    string
	source string
	desc   *Descriptor

	mu           sync.Mutex
	module       gpu.ShaderModule
	moduleDevice gpu.Device
}

// Shader is a loaded and reflected WGSL shader asset. The Descriptor is computed once at
// construction and never recomputed; a changed source is a new Shader.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used for caching and lookups.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the WGSL source after include expansion.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// Descriptor retrieves the reflected bindings, groups, attributes and entry points.
	//
	// Returns:
	//   - *Descriptor: the reflection result
	Descriptor() *Descriptor

	// EntryPoint returns the entry point function for stage.
	//
	// Parameters:
	//   - stage: one of the vertex, fragment or compute stage bits
	//
	// Returns:
	//   - string: the function name, empty when the shader has no entry point for stage
	EntryPoint(stage gpu.ShaderStage) string

	// Stages returns the union of stages the shader has entry points for.
	//
	// Returns:
	//   - gpu.ShaderStage: the stage bit set
	Stages() gpu.ShaderStage

	// WorkgroupSize returns the @workgroup_size of the compute entry point, [1,1,1] when absent.
	//
	// Returns:
	//   - [3]uint32: the workgroup size as [x, y, z]
	WorkgroupSize() [3]uint32

	// Module returns the GPU shader module, creating it on first use. Calling Module with a
	// different device than the first call is an error.
	//
	// Parameters:
	//   - device: the device that owns the module
	//
	// Returns:
	//   - gpu.ShaderModule: the compiled module
	//   - error: error if the device rejected the source
	Module(device gpu.Device) (gpu.ShaderModule, error)

	// Release releases the GPU module if one was created.
	Release()
}

var _ Shader = &shader{}

// ShaderBuilderOption configures NewShader.
type ShaderBuilderOption func(*shaderConfig)

type shaderConfig struct {
	validate bool
	pp       PreProcessor
}

// WithValidation compiles the source with naga before reflecting it.
func WithValidation(enabled bool) ShaderBuilderOption {
	return func(c *shaderConfig) {
		c.validate = enabled
	}
}

// WithPreProcessor expands #include directives with pp before reflecting.
func WithPreProcessor(pp PreProcessor) ShaderBuilderOption {
	return func(c *shaderConfig) {
		c.pp = pp
	}
}

// NewShader processes, optionally validates, and reflects source.
//
// Parameters:
//   - key: a unique identifier for the shader, used for caching and lookups
//   - source: the WGSL source text
//   - opts: builder options
//
// Returns:
//   - Shader: the reflected shader
//   - error: a *ReflectionError naming key, or an error wrapping ErrValidation
func NewShader(key string, source string, opts ...ShaderBuilderOption) (Shader, error) {
	if key == "" {
		panic("shader: key must not be empty")
	}
	cfg := &shaderConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.pp != nil {
		processed, err := cfg.pp.Process(source)
		if err != nil {
			return nil, &ReflectionError{Shader: key, Err: err}
		}
		source = processed
	}
	if cfg.validate {
		if err := Validate(key, source); err != nil {
			return nil, err
		}
	}

	desc, err := Reflect(source)
	if err != nil {
		var re *ReflectionError
		if errors.As(err, &re) {
			re.Shader = key
			return nil, re
		}
		return nil, &ReflectionError{Shader: key, Err: err}
	}

	return &shader{key: key, source: source, desc: desc}, nil
}

// LoadShader reads a WGSL file and builds a Shader from it.
//
// Parameters:
//   - key: a unique identifier for the shader
//   - path: the file path to read WGSL source from
//   - opts: builder options
//
// Returns:
//   - Shader: the reflected shader
//   - error: error if the file could not be read or the source failed to reflect
func LoadShader(key, path string, opts ...ShaderBuilderOption) (Shader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("shader: read %q: %w", path, err)
	}
	return NewShader(key, string(data), opts...)
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) Descriptor() *Descriptor {
	return s.desc
}

func (s *shader) EntryPoint(stage gpu.ShaderStage) string {
	return s.desc.EntryPoints[stage]
}

func (s *shader) Stages() gpu.ShaderStage {
	return s.desc.Stages()
}

func (s *shader) WorkgroupSize() [3]uint32 {
	return s.desc.WorkgroupSize
}

func (s *shader) Module(device gpu.Device) (gpu.ShaderModule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.module != nil {
		if s.moduleDevice != device {
			return nil, fmt.Errorf("shader %q: module already created on another device", s.key)
		}
		return s.module, nil
	}
	module, err := device.CreateShaderModule(&gpu.ShaderModuleDescriptor{Label: s.key, Code: s.source})
	if err != nil {
		return nil, fmt.Errorf("shader %q: create module: %w", s.key, err)
	}
	s.module = module
	s.moduleDevice = device
	return module, nil
}

func (s *shader) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.module != nil {
		s.module.Release()
		s.module = nil
		s.moduleDevice = nil
	}
}
