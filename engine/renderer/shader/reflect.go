package shader

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-core/engine/renderer/gpu"
)

var (
	// ErrMissingStruct is returned when a buffer declaration references a type that is never defined.
	ErrMissingStruct = errors.New("shader: struct not defined")

	// ErrDuplicateBinding is returned when two declarations share a group and binding or a name.
	ErrDuplicateBinding = errors.New("shader: duplicate binding")

	// ErrBindingConflict is returned by Merge when stages declare one slot differently.
	ErrBindingConflict = errors.New("shader: conflicting binding")

	// ErrValidation is returned when a WGSL source fails to compile.
	ErrValidation = errors.New("shader: validation failed")
)

// ReflectionError names the shader and binding a reflection failure belongs to.
type ReflectionError struct {
	Shader  string
	Binding string
	Err     error
}

func (e *ReflectionError) Error() string {
	switch {
	case e.Shader != "" && e.Binding != "":
		return fmt.Sprintf("shader %q: binding %q: %v", e.Shader, e.Binding, e.Err)
	case e.Binding != "":
		return fmt.Sprintf("binding %q: %v", e.Binding, e.Err)
	case e.Shader != "":
		return fmt.Sprintf("shader %q: %v", e.Shader, e.Err)
	}
	return e.Err.Error()
}

func (e *ReflectionError) Unwrap() error { return e.Err }

// Reflect parses WGSL source into a Descriptor. A shader without declarations of some resource
// class yields no bindings of that class. A buffer whose type is never defined fails with
// ErrMissingStruct wrapped in a *ReflectionError.
//
// Parameters:
//   - source: the WGSL source
//
// Returns:
//   - *Descriptor: the reflected bindings, groups, vertex attributes and entry points
//   - error: a *ReflectionError when a declaration cannot be reflected
func Reflect(source string) (*Descriptor, error) {
	cleaned := stripComments(source)

	desc := &Descriptor{
		Bindings:      make(map[string]Binding),
		EntryPoints:   make(map[gpu.ShaderStage]string),
		WorkgroupSize: parseWorkgroupSize(cleaned),
	}
	for _, stage := range []gpu.ShaderStage{gpu.ShaderStageVertex, gpu.ShaderStageFragment, gpu.ShaderStageCompute} {
		if name := parseEntryPoint(cleaned, stage); name != "" {
			desc.EntryPoints[stage] = name
		}
	}
	stages := desc.Stages()
	if stages == gpu.ShaderStageNone {
		stages = gpu.ShaderStageVertex | gpu.ShaderStageFragment
	}

	structs := parseStructBlocks(cleaned)
	layouts, unresolved := computeStructLayouts(structs)

	slots := make(map[[2]uint32]string)
	for _, decl := range parseDecls(cleaned) {
		b := Binding{
			Name:     decl.name,
			Group:    decl.group,
			Binding:  decl.binding,
			TypeName: decl.typeName,
		}

		var err error
		if decl.addressSpace != "" {
			err = classifyBuffer(&b, decl.addressSpace, layouts, unresolved)
		} else {
			err = classifyHandle(&b)
		}
		if err != nil {
			return nil, &ReflectionError{Binding: decl.name, Err: err}
		}

		slot := [2]uint32{decl.group, decl.binding}
		if other, ok := slots[slot]; ok {
			return nil, &ReflectionError{
				Binding: decl.name,
				Err:     fmt.Errorf("%w: @group(%d) @binding(%d) already used by %q", ErrDuplicateBinding, decl.group, decl.binding, other),
			}
		}
		if _, ok := desc.Bindings[decl.name]; ok {
			return nil, &ReflectionError{Binding: decl.name, Err: fmt.Errorf("%w: name declared twice", ErrDuplicateBinding)}
		}
		slots[slot] = decl.name

		b.Visibility = bindingVisibility(b, stages)
		desc.Bindings[b.Name] = b
	}
	desc.Groups = groupBindings(desc.Bindings)

	if vs, ok := desc.EntryPoints[gpu.ShaderStageVertex]; ok {
		attrs, stride, err := buildAttributes(parseEntryParams(cleaned, vs), structs)
		if err != nil {
			return nil, &ReflectionError{Err: err}
		}
		desc.Attributes = attrs
		desc.VertexStride = stride
	}

	return desc, nil
}
