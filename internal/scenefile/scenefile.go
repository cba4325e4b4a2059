// Package scenefile loads YAML scene descriptions into a registry.
package scenefile

import (
	"errors"
	"fmt"
	"os"

	"github.com/Carmen-Shannon/oxy-core/engine/component"
	"github.com/Carmen-Shannon/oxy-core/engine/ecs"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/pipeline"
	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

// Scene is a parsed scene file.
type Scene struct {
	Entities []EntitySpec `yaml:"entities"`
}

// EntitySpec describes one entity. Every section is optional; each present section adds one
// component.
type EntitySpec struct {
	Name      string         `yaml:"name"`
	Tags      []string       `yaml:"tags"`
	Transform *TransformSpec `yaml:"transform"`
	Mesh      *MeshSpec      `yaml:"mesh"`
	Material  *MaterialSpec  `yaml:"material"`
	Shader    *ShaderSpec    `yaml:"shader"`
	Shadows   *ShadowSpec    `yaml:"shadows"`
	Light     *LightSpec     `yaml:"light"`
	Camera    *CameraSpec    `yaml:"camera"`
	Skybox    *SkyboxSpec    `yaml:"skybox"`
	Passes    []string       `yaml:"passes"` // restricts the entity to these passes
}

type TransformSpec struct {
	Position [3]float32 `yaml:"position"`
	// Rotation is an axis and an angle in degrees.
	Rotation *RotationSpec `yaml:"rotation"`
	Scale    *[3]float32   `yaml:"scale"`
}

type RotationSpec struct {
	Axis    [3]float32 `yaml:"axis"`
	Degrees float32    `yaml:"degrees"`
}

type MeshSpec struct {
	Shape string  `yaml:"shape"` // cube, plane or triangle
	Size  float32 `yaml:"size"`
}

type MaterialSpec struct {
	Name     string            `yaml:"name"`
	Color    *[4]float32       `yaml:"color"`
	Blend    bool              `yaml:"blend"`
	Cull     string            `yaml:"cull"` // back (default), front or none
	Textures map[string]string `yaml:"textures"`
	Samplers map[string]string `yaml:"samplers"`
}

type ShaderSpec struct {
	Mode string `yaml:"mode"` // deferred (default) or forward
	Key  string `yaml:"key"`
}

type ShadowSpec struct {
	Cast    bool `yaml:"cast"`
	Receive bool `yaml:"receive"`
}

type LightSpec struct {
	Type         string     `yaml:"type"` // directional, point or spot
	Color        [3]float32 `yaml:"color"`
	Intensity    float32    `yaml:"intensity"`
	Range        float32    `yaml:"range"`
	Direction    [3]float32 `yaml:"direction"`
	InnerDegrees float32    `yaml:"inner_degrees"`
	OuterDegrees float32    `yaml:"outer_degrees"`
	CastsShadows bool       `yaml:"casts_shadows"`
}

type CameraSpec struct {
	Position [3]float32 `yaml:"position"`
	Target   [3]float32 `yaml:"target"`
	FovY     float32    `yaml:"fov_degrees"`
	Near     float32    `yaml:"near"`
	Far      float32    `yaml:"far"`
	Inactive bool       `yaml:"inactive"`
}

type SkyboxSpec struct {
	Shader    string  `yaml:"shader"`
	Texture   string  `yaml:"texture"`
	Sampler   string  `yaml:"sampler"`
	Intensity float32 `yaml:"intensity"`
}

// Load reads and parses the scene file at path.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene %s: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse scene %s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and validates a scene description.
func Parse(data []byte) (*Scene, error) {
	var s Scene
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Scene) validate() error {
	var errs []error
	for i, e := range s.Entities {
		if err := e.validate(); err != nil {
			errs = append(errs, fmt.Errorf("entity %d (%s): %w", i, e.label(), err))
		}
	}
	return errors.Join(errs...)
}

func (e EntitySpec) label() string {
	if e.Name == "" {
		return "unnamed"
	}
	return e.Name
}

func (e EntitySpec) validate() error {
	if e.Mesh != nil {
		switch e.Mesh.Shape {
		case "cube", "plane", "triangle":
		default:
			return fmt.Errorf("unknown mesh shape %q", e.Mesh.Shape)
		}
		if e.Material == nil || e.Shader == nil {
			return fmt.Errorf("a mesh needs a material and a shader")
		}
	}
	if e.Material != nil {
		if _, err := cullMode(e.Material.Cull); err != nil {
			return err
		}
	}
	if e.Shader != nil {
		if e.Shader.Key == "" {
			return fmt.Errorf("shader key is empty")
		}
		switch e.Shader.Mode {
		case "", "deferred", "forward":
		default:
			return fmt.Errorf("unknown shader mode %q", e.Shader.Mode)
		}
	}
	if e.Light != nil {
		if _, err := lightType(e.Light.Type); err != nil {
			return err
		}
	}
	if e.Skybox != nil && (e.Skybox.Shader == "" || e.Skybox.Texture == "") {
		return fmt.Errorf("skybox needs a shader and a texture")
	}
	return nil
}

// Spawn creates one entity per description in order and returns them.
//
// Parameters:
//   - reg: the registry to populate
//   - aspect: the aspect ratio given to cameras
//
// Returns:
//   - []ecs.Entity: the created entities
//   - error: error if a component could not be added
func (s *Scene) Spawn(reg *ecs.Registry, aspect float32) ([]ecs.Entity, error) {
	out := make([]ecs.Entity, 0, len(s.Entities))
	for i, spec := range s.Entities {
		e := reg.CreateEntity()
		if err := spec.spawn(reg, e, aspect); err != nil {
			return out, fmt.Errorf("entity %d (%s): %w", i, spec.label(), err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (e EntitySpec) spawn(reg *ecs.Registry, ent ecs.Entity, aspect float32) error {
	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	if e.Name != "" || len(e.Tags) > 0 {
		add(put(reg, ent, component.Info{Name: e.Name, Tags: e.Tags}))
	}
	if e.Transform != nil {
		add(put(reg, ent, e.Transform.component()))
	}
	if e.Mesh != nil {
		add(put(reg, ent, e.Mesh.component(e.label())))
	}
	if e.Material != nil {
		add(put(reg, ent, e.Material.component(e.label())))
	}
	if e.Shader != nil {
		binding := component.ShaderBinding{Key: e.Shader.Key}
		if e.Shader.Mode == "forward" {
			add(put(reg, ent, component.ForwardShader{ShaderBinding: binding}))
		} else {
			add(put(reg, ent, component.DeferredShader{ShaderBinding: binding}))
		}
	}
	if e.Shadows != nil {
		add(put(reg, ent, component.ShadowAffection{Cast: e.Shadows.Cast, Receive: e.Shadows.Receive}))
	}
	if e.Light != nil {
		add(put(reg, ent, e.Light.component()))
	}
	if e.Camera != nil {
		add(put(reg, ent, e.Camera.component(aspect)))
	}
	if e.Skybox != nil {
		add(put(reg, ent, component.Skybox{
			ShaderBinding: component.ShaderBinding{Key: e.Skybox.Shader},
			Texture:       e.Skybox.Texture,
			Sampler:       e.Skybox.Sampler,
			Intensity:     e.Skybox.Intensity,
		}))
	}
	if len(e.Passes) > 0 {
		add(put(reg, ent, component.RenderExclusive{Passes: e.Passes}))
	}
	return errors.Join(errs...)
}

func put[T any](reg *ecs.Registry, e ecs.Entity, c T) error {
	_, err := ecs.Add(reg, e, c)
	return err
}

func (t TransformSpec) component() component.Transform {
	out := component.NewTransform(mgl32.Vec3(t.Position))
	if t.Scale != nil {
		out.Scale = mgl32.Vec3(*t.Scale)
	}
	if r := t.Rotation; r != nil && mgl32.Vec3(r.Axis).Len() > 0 {
		out.Rotate(mgl32.DegToRad(r.Degrees), mgl32.Vec3(r.Axis))
	}
	return out
}

func (m MeshSpec) component(name string) component.Mesh {
	size := m.Size
	if size == 0 {
		size = 1
	}
	switch m.Shape {
	case "plane":
		return component.NewPlane(name, size)
	case "triangle":
		return component.NewTriangle(name)
	}
	return component.NewCube(name, size)
}

func (m MaterialSpec) component(fallback string) component.Material {
	name := m.Name
	if name == "" {
		name = fallback
	}
	cull, _ := cullMode(m.Cull)
	mat := component.NewMaterial(name,
		pipeline.WithBlendEnabled(m.Blend),
		pipeline.WithCullMode(cull),
	)
	if m.Color != nil {
		mat.Color = mgl32.Vec4(*m.Color)
	}
	mat.Transparent = m.Blend
	for v, tex := range m.Textures {
		mat.Textures[v] = tex
	}
	for v, s := range m.Samplers {
		mat.Samplers[v] = s
	}
	return mat
}

func (l LightSpec) component() component.Light {
	typ, _ := lightType(l.Type)
	return component.Light{
		Type:         typ,
		Color:        mgl32.Vec3(l.Color),
		Intensity:    l.Intensity,
		Range:        l.Range,
		Direction:    mgl32.Vec3(l.Direction),
		InnerCone:    mgl32.DegToRad(l.InnerDegrees),
		OuterCone:    mgl32.DegToRad(l.OuterDegrees),
		CastsShadows: l.CastsShadows,
	}
}

func (c CameraSpec) component(aspect float32) component.Camera {
	cam := component.NewCamera(mgl32.Vec3(c.Position), aspect)
	cam.Target = mgl32.Vec3(c.Target)
	if c.FovY > 0 {
		cam.FovY = mgl32.DegToRad(c.FovY)
	}
	if c.Near > 0 {
		cam.Near = c.Near
	}
	if c.Far > 0 {
		cam.Far = c.Far
	}
	cam.Active = !c.Inactive
	return cam
}

func cullMode(s string) (gpu.CullMode, error) {
	switch s {
	case "", "back":
		return gpu.CullModeBack, nil
	case "front":
		return gpu.CullModeFront, nil
	case "none":
		return gpu.CullModeNone, nil
	}
	return gpu.CullModeNone, fmt.Errorf("unknown cull mode %q", s)
}

func lightType(s string) (component.LightType, error) {
	switch s {
	case "", "directional":
		return component.LightTypeDirectional, nil
	case "point":
		return component.LightTypePoint, nil
	case "spot":
		return component.LightTypeSpot, nil
	}
	return 0, fmt.Errorf("unknown light type %q", s)
}
