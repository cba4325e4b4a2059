package pipeline

import "github.com/Carmen-Shannon/oxy-core/engine/renderer/gpu"

// State is the fixed-function configuration of a render pipeline. Compute pipelines ignore it.
type State struct {
	DepthTestEnabled    bool
	DepthWriteEnabled   bool
	DepthCompare        gpu.CompareFunction
	DepthBias           int32
	DepthBiasSlopeScale float32
	BlendEnabled        bool
	BlendState          gpu.BlendState
	CullMode            gpu.CullMode
	Topology            gpu.PrimitiveTopology
	FrontFace           gpu.FrontFace
	WriteMask           gpu.ColorWriteMask
}

// StateOption is a functional option used to configure a pipeline State.
type StateOption func(*State)

// DefaultState returns depth tested and written triangle lists, no culling, counter-clockwise
// front faces and standard alpha blending prepared but disabled.
func DefaultState() State {
	return State{
		DepthTestEnabled:  true,
		DepthWriteEnabled: true,
		DepthCompare:      gpu.CompareFunctionLess,
		CullMode:          gpu.CullModeNone,
		Topology:          gpu.PrimitiveTopologyTriangleList,
		FrontFace:         gpu.FrontFaceCCW,
		WriteMask:         gpu.ColorWriteMaskAll,
		BlendState: gpu.BlendState{
			Color: gpu.BlendComponent{
				SrcFactor: gpu.BlendFactorSrcAlpha,
				DstFactor: gpu.BlendFactorOneMinusSrcAlpha,
				Operation: gpu.BlendOperationAdd,
			},
			Alpha: gpu.BlendComponent{
				SrcFactor: gpu.BlendFactorOne,
				DstFactor: gpu.BlendFactorOneMinusSrcAlpha,
				Operation: gpu.BlendOperationAdd,
			},
		},
	}
}

// NewState applies options on top of DefaultState.
//
// Parameters:
//   - options: the state options
//
// Returns:
//   - State: the configured state
func NewState(options ...StateOption) State {
	s := DefaultState()
	for _, opt := range options {
		opt(&s)
	}
	return s
}

// WithDepthTestEnabled toggles depth testing. Without it fragments always pass.
//
// Parameters:
//   - enabled: whether depth testing is enabled
//
// Returns:
//   - StateOption: a function that sets the depth test flag
func WithDepthTestEnabled(enabled bool) StateOption {
	return func(s *State) {
		s.DepthTestEnabled = enabled
	}
}

// WithDepthWriteEnabled toggles depth writes.
//
// Parameters:
//   - enabled: whether passing fragments write depth
//
// Returns:
//   - StateOption: a function that sets the depth write flag
func WithDepthWriteEnabled(enabled bool) StateOption {
	return func(s *State) {
		s.DepthWriteEnabled = enabled
	}
}

// WithDepthCompare sets the depth comparison used while depth testing is enabled.
//
// Parameters:
//   - compare: the comparison function
//
// Returns:
//   - StateOption: a function that sets the depth comparison
func WithDepthCompare(compare gpu.CompareFunction) StateOption {
	return func(s *State) {
		s.DepthCompare = compare
	}
}

// WithDepthBias sets a constant and slope scaled depth bias, typically for shadow casters.
//
// Parameters:
//   - bias: the constant bias
//   - slopeScale: the slope scaled bias
//
// Returns:
//   - StateOption: a function that sets the depth bias
func WithDepthBias(bias int32, slopeScale float32) StateOption {
	return func(s *State) {
		s.DepthBias = bias
		s.DepthBiasSlopeScale = slopeScale
	}
}

// WithBlendEnabled toggles blending of every color target with BlendState.
//
// Parameters:
//   - enabled: whether blending is enabled
//
// Returns:
//   - StateOption: a function that sets the blend flag
func WithBlendEnabled(enabled bool) StateOption {
	return func(s *State) {
		s.BlendEnabled = enabled
	}
}

// WithBlendState replaces the blend equation and enables blending.
//
// Parameters:
//   - state: the blend equation
//
// Returns:
//   - StateOption: a function that sets the blend state
func WithBlendState(state gpu.BlendState) StateOption {
	return func(s *State) {
		s.BlendState = state
		s.BlendEnabled = true
	}
}

// WithCullMode sets which faces are culled.
//
// Parameters:
//   - mode: the cull mode
//
// Returns:
//   - StateOption: a function that sets the cull mode
func WithCullMode(mode gpu.CullMode) StateOption {
	return func(s *State) {
		s.CullMode = mode
	}
}

// WithTopology sets the primitive topology.
//
// Parameters:
//   - topology: the primitive topology
//
// Returns:
//   - StateOption: a function that sets the topology
func WithTopology(topology gpu.PrimitiveTopology) StateOption {
	return func(s *State) {
		s.Topology = topology
	}
}

// WithFrontFace sets the winding considered front facing.
//
// Parameters:
//   - face: the front face winding
//
// Returns:
//   - StateOption: a function that sets the front face
func WithFrontFace(face gpu.FrontFace) StateOption {
	return func(s *State) {
		s.FrontFace = face
	}
}

// WithWriteMask sets the channels written to every color target.
//
// Parameters:
//   - mask: the write mask
//
// Returns:
//   - StateOption: a function that sets the write mask
func WithWriteMask(mask gpu.ColorWriteMask) StateOption {
	return func(s *State) {
		s.WriteMask = mask
	}
}

// Targets describes the attachments a render pipeline draws into.
type Targets struct {
	// Colors holds one format per color attachment, in attachment order.
	Colors []gpu.TextureFormat
	// Depth is TextureFormatUndefined when the pass has no depth attachment.
	Depth       gpu.TextureFormat
	SampleCount uint32
}

func (s State) primitive() gpu.PrimitiveState {
	return gpu.PrimitiveState{
		Topology:  s.Topology,
		FrontFace: s.FrontFace,
		CullMode:  s.CullMode,
	}
}

func (s State) colorTargets(formats []gpu.TextureFormat) []gpu.ColorTargetState {
	targets := make([]gpu.ColorTargetState, 0, len(formats))
	for _, f := range formats {
		t := gpu.ColorTargetState{Format: f, WriteMask: s.WriteMask}
		if s.BlendEnabled {
			blend := s.BlendState
			t.Blend = &blend
		}
		targets = append(targets, t)
	}
	return targets
}

func (s State) depthStencil(format gpu.TextureFormat) *gpu.DepthStencilState {
	if format == gpu.TextureFormatUndefined {
		return nil
	}
	ds := &gpu.DepthStencilState{
		Format:              format,
		DepthWriteEnabled:   s.DepthTestEnabled && s.DepthWriteEnabled,
		DepthCompare:        gpu.CompareFunctionAlways,
		DepthBias:           s.DepthBias,
		DepthBiasSlopeScale: s.DepthBiasSlopeScale,
	}
	if s.DepthTestEnabled {
		ds.DepthCompare = s.DepthCompare
		if ds.DepthCompare == gpu.CompareFunctionUndefined {
			ds.DepthCompare = gpu.CompareFunctionLess
		}
	}
	return ds
}
