package shader

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-core/engine/renderer/gpu"
)

// wgslPrimitiveLayoutMap maps WGSL primitive, vector, matrix, and atomic type names
// to their byte size and alignment per the WGSL specification.
//
// Reference: https://www.w3.org/TR/WGSL/#alignment-and-size
var wgslPrimitiveLayoutMap = map[string]wgslTypeLayout{
	// Scalars
	"f32":  {4, 4},
	"i32":  {4, 4},
	"u32":  {4, 4},
	"f16":  {2, 2},
	"bool": {4, 4},

	// Atomic types
	"atomic<u32>": {4, 4},
	"atomic<i32>": {4, 4},
}

// scalarSuffixes maps the WGSL shorthand suffix of a vector or matrix alias to its scalar type.
var scalarSuffixes = map[string]string{"f": "f32", "i": "i32", "u": "u32", "h": "f16"}

func init() {
	for suffix, scalar := range scalarSuffixes {
		sl := wgslPrimitiveLayoutMap[scalar]
		for n := uint64(2); n <= 4; n++ {
			// vec3 aligns like vec4
			align := sl.align * n
			if n == 3 {
				align = sl.align * 4
			}
			vec := wgslTypeLayout{size: sl.size * n, align: align}
			wgslPrimitiveLayoutMap[fmt.Sprintf("vec%d<%s>", n, scalar)] = vec
			wgslPrimitiveLayoutMap[fmt.Sprintf("vec%d%s", n, suffix)] = vec
		}

		if scalar != "f32" && scalar != "f16" {
			continue
		}
		// matCxR: C columns of vecR, column stride = roundUp(align(vecR), size(vecR))
		for c := 2; c <= 4; c++ {
			for r := 2; r <= 4; r++ {
				col := wgslPrimitiveLayoutMap[fmt.Sprintf("vec%d<%s>", r, scalar)]
				mat := wgslTypeLayout{
					size:  uint64(c) * roundUpAlign(col.align, col.size),
					align: col.align,
				}
				wgslPrimitiveLayoutMap[fmt.Sprintf("mat%dx%d<%s>", c, r, scalar)] = mat
				wgslPrimitiveLayoutMap[fmt.Sprintf("mat%dx%d%s", c, r, suffix)] = mat
			}
		}
	}
}

// structLayout is the computed host-shareable layout of a struct.
type structLayout struct {
	wgslTypeLayout
	members []Member
	// runtimeStride is the element stride of a trailing runtime-sized array, 0 when there is none.
	runtimeStride uint64
}

// roundUpAlign rounds value up to the next multiple of alignment.
// Alignment must be a power of two.
//
// Parameters:
//   - alignment: the required alignment (must be a power of two)
//   - value: the value to align
//
// Returns:
//   - uint64: value rounded up to the next multiple of alignment
func roundUpAlign(alignment, value uint64) uint64 {
	if alignment == 0 {
		return value
	}
	return (value + alignment - 1) &^ (alignment - 1)
}

// splitArrayType splits "array<T,N>" or "array<T>" into the element type and count. count is 0 for
// runtime-sized arrays. ok is false when typeName is not an array.
func splitArrayType(typeName string) (elem string, count uint64, ok bool) {
	inner, found := strings.CutPrefix(typeName, "array<")
	if !found || !strings.HasSuffix(inner, ">") {
		return "", 0, false
	}
	inner = inner[:len(inner)-1]

	parts := splitAtTopLevelCommas(inner)
	elem = strings.TrimSpace(parts[0])
	if len(parts) == 2 {
		n, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 64)
		if err != nil {
			return "", 0, false
		}
		return elem, n, true
	}
	return elem, 0, true
}

// resolveTypeLayout resolves a WGSL type name to its size and alignment using primitives
// and previously-computed struct layouts. Runtime-sized arrays resolve to one element stride.
//
// Parameters:
//   - typeName: the WGSL type name to resolve, e.g. "f32", "CameraUniform", "array<FrustumPlane,6>"
//   - knownTypes: already-resolved struct layouts
//
// Returns:
//   - wgslTypeLayout: the resolved layout
//   - bool: false for unknown types
func resolveTypeLayout(typeName string, knownTypes map[string]structLayout) (wgslTypeLayout, bool) {
	if layout, ok := wgslPrimitiveLayoutMap[typeName]; ok {
		return layout, true
	}
	if sl, ok := knownTypes[typeName]; ok {
		return sl.wgslTypeLayout, true
	}

	elemType, count, ok := splitArrayType(typeName)
	if !ok {
		return wgslTypeLayout{}, false
	}
	elemLayout, ok := resolveTypeLayout(elemType, knownTypes)
	if !ok {
		return wgslTypeLayout{}, false
	}
	stride := roundUpAlign(elemLayout.align, elemLayout.size)
	if count == 0 {
		return wgslTypeLayout{stride, elemLayout.align}, true
	}
	return wgslTypeLayout{count * stride, elemLayout.align}, true
}

// computeStructLayout computes the byte size, alignment and member offsets of a single WGSL struct
// using WGSL struct layout rules: each member is placed at the next offset aligned to its
// alignment, and the total size is rounded up to the struct's alignment.
//
// A trailing runtime-sized array contributes one element to the size, which is the smallest
// binding size a buffer of this struct can have. Fields with @builtin attributes are skipped.
//
// Parameters:
//   - ps: the parsed struct whose layout to compute
//   - knownTypes: already-resolved struct layouts
//
// Returns:
//   - structLayout: the computed layout
//   - string: the first member type that could not be resolved, empty on success
func computeStructLayout(ps parsedStruct, knownTypes map[string]structLayout) (structLayout, string) {
	var out structLayout
	offset := uint64(0)
	maxAlign := uint64(1)

	for _, field := range ps.fields {
		if field.isBuiltin {
			continue
		}

		fieldLayout, ok := resolveTypeLayout(field.typeName, knownTypes)
		if !ok {
			return structLayout{}, field.typeName
		}
		if field.alignAttr > 0 {
			fieldLayout.align = field.alignAttr
		}
		if field.sizeAttr > 0 {
			fieldLayout.size = field.sizeAttr
		}

		offset = roundUpAlign(fieldLayout.align, offset)
		out.members = append(out.members, Member{
			Name:   field.name,
			Type:   field.typeName,
			Offset: offset,
			Size:   fieldLayout.size,
			Align:  fieldLayout.align,
		})
		if _, count, isArray := splitArrayType(field.typeName); isArray && count == 0 {
			out.runtimeStride = fieldLayout.size
		}
		offset += fieldLayout.size
		maxAlign = max(maxAlign, fieldLayout.align)
	}

	out.size = roundUpAlign(maxAlign, offset)
	out.align = maxAlign
	return out, ""
}

// computeStructLayouts computes the layout of every parsed struct. Dependencies between structs are
// resolved iteratively so declaration order does not matter. Structs that reference an undefined
// type are reported in unresolved, keyed by struct name with the missing type as value.
//
// Parameters:
//   - structs: all parsed struct blocks from the WGSL source
//
// Returns:
//   - map[string]structLayout: resolved layouts by struct name
//   - map[string]string: unresolved struct name to the type it could not resolve
func computeStructLayouts(structs []parsedStruct) (map[string]structLayout, map[string]string) {
	resolved := make(map[string]structLayout, len(structs))
	remaining := make([]parsedStruct, len(structs))
	copy(remaining, structs)

	unresolved := make(map[string]string)
	for {
		progress := false
		next := remaining[:0]
		clear(unresolved)

		for _, ps := range remaining {
			if layout, missing := computeStructLayout(ps, resolved); missing == "" {
				resolved[ps.name] = layout
				progress = true
			} else {
				unresolved[ps.name] = missing
				next = append(next, ps)
			}
		}

		remaining = next
		if !progress || len(remaining) == 0 {
			break
		}
	}

	return resolved, unresolved
}

// missingTypeOf walks typeName down through arrays and unresolved structs and returns the innermost
// type name that has no definition.
func missingTypeOf(typeName string, unresolved map[string]string) string {
	seen := make(map[string]bool)
	for !seen[typeName] {
		seen[typeName] = true
		if elem, _, ok := splitArrayType(typeName); ok {
			typeName = elem
			continue
		}
		next, ok := unresolved[typeName]
		if !ok {
			return typeName
		}
		typeName = next
	}
	return typeName
}

// classifyBuffer fills the buffer related fields of b from its declaration.
//
// Parameters:
//   - b: the binding to populate, Name and TypeName already set
//   - addressSpace: the address space with whitespace removed, e.g. "uniform" or "storage,read_write"
//   - structs: resolved struct layouts
//   - unresolved: structs that reference undefined types
//
// Returns:
//   - error: ErrMissingStruct when the buffer type does not resolve
func classifyBuffer(b *Binding, addressSpace string, structs map[string]structLayout, unresolved map[string]string) error {
	switch {
	case addressSpace == "uniform":
		b.Type = gpu.BindingTypeUniformBuffer
	case strings.HasPrefix(addressSpace, "storage"):
		if strings.Contains(addressSpace, "read_write") {
			b.Type = gpu.BindingTypeStorageBuffer
		} else {
			b.Type = gpu.BindingTypeReadOnlyStorageBuffer
		}
	default:
		return fmt.Errorf("unsupported address space %q", addressSpace)
	}

	if sl, ok := structs[b.TypeName]; ok {
		b.Size = sl.size
		b.Members = sl.members
		b.ElementStride = sl.runtimeStride
		return nil
	}

	layout, ok := resolveTypeLayout(b.TypeName, structs)
	if !ok {
		return fmt.Errorf("%w: type %q", ErrMissingStruct, missingTypeOf(b.TypeName, unresolved))
	}
	b.Size = layout.size
	if elem, count, isArray := splitArrayType(b.TypeName); isArray {
		b.ElementStride = layout.size
		if count > 0 {
			b.ElementStride = layout.size / count
		}
		if sl, ok := structs[elem]; ok {
			b.Members = sl.members
		}
	}
	return nil
}

// classifyHandle fills the texture or sampler fields of b from its WGSL type.
//
// Parameters:
//   - b: the binding to populate, TypeName already set
//
// Returns:
//   - error: error when the type is not a texture or sampler type
func classifyHandle(b *Binding) error {
	typeName := b.TypeName
	switch {
	case typeName == "sampler":
		b.Type = gpu.BindingTypeSampler
	case typeName == "sampler_comparison":
		b.Type = gpu.BindingTypeComparisonSampler
	case strings.HasPrefix(typeName, "texture_storage_"):
		b.Type = gpu.BindingTypeStorageTexture
		classifyStorageTexture(b)
	case strings.HasPrefix(typeName, "texture_depth_"):
		b.Type = gpu.BindingTypeDepthTexture
		b.SampleType = gpu.TextureSampleTypeDepth
		if info, ok := wgslSampledTextureMap[typeName]; ok {
			b.ViewDimension = info.viewDimension
			b.Multisampled = info.multisampled
		}
	case strings.HasPrefix(typeName, "texture_"):
		b.Type = gpu.BindingTypeTexture
		base, param := splitTypeParams(typeName)
		info, ok := wgslSampledTextureMap[base]
		if !ok {
			return fmt.Errorf("unsupported texture type %q", typeName)
		}
		b.ViewDimension = info.viewDimension
		b.Multisampled = info.multisampled
		b.SampleType = gpu.TextureSampleTypeFloat
		if st, ok := wgslSampleTypeMap[param]; ok {
			b.SampleType = st
		}
		if b.Multisampled && b.SampleType == gpu.TextureSampleTypeFloat {
			b.SampleType = gpu.TextureSampleTypeUnfilterableFloat
		}
	default:
		return fmt.Errorf("unsupported handle type %q", typeName)
	}
	return nil
}

// classifyStorageTexture parses a storage texture type (e.g. "texture_storage_2d<rgba8unorm,write>")
// and populates the storage texture fields on b
func classifyStorageTexture(b *Binding) {
	base, params := splitTypeParams(b.TypeName)

	if dim, ok := wgslStorageTextureDimMap[base]; ok {
		b.ViewDimension = dim
	}

	parts := strings.SplitN(params, ",", 2)
	if format, ok := wgslTexelFormatMap[strings.TrimSpace(parts[0])]; ok {
		b.StorageFormat = format
	}
	if len(parts) == 2 {
		if access, ok := wgslStorageAccessMap[strings.TrimSpace(parts[1])]; ok {
			b.StorageAccess = access
		}
	}
}

// bindingVisibility returns the stages b is visible to. Vertex shaders cannot write storage
// resources, so writable storage bindings drop the vertex bit.
func bindingVisibility(b Binding, stages gpu.ShaderStage) gpu.ShaderStage {
	writable := b.Type == gpu.BindingTypeStorageBuffer ||
		(b.Type == gpu.BindingTypeStorageTexture && b.StorageAccess != gpu.StorageTextureAccessReadOnly)
	if writable {
		stages &^= gpu.ShaderStageVertex
	}
	return stages
}

// buildAttributes reflects the vertex inputs of the vertex entry point. Inputs are either
// @location parameters or struct-typed parameters whose members carry @location.
//
// Parameters:
//   - params: the vertex entry point parameters
//   - structs: all parsed structs
//
// Returns:
//   - []Attribute: attributes sorted by location with packed offsets
//   - uint64: the packed vertex stride
//   - error: error when an input type has no vertex format
func buildAttributes(params []parsedField, structs []parsedStruct) ([]Attribute, uint64, error) {
	byName := make(map[string]parsedStruct, len(structs))
	for _, ps := range structs {
		byName[ps.name] = ps
	}

	var inputs []parsedField
	for _, p := range params {
		if p.isBuiltin {
			continue
		}
		if p.location >= 0 {
			inputs = append(inputs, p)
			continue
		}
		if ps, ok := byName[p.typeName]; ok {
			for _, f := range ps.fields {
				if !f.isBuiltin && f.location >= 0 {
					inputs = append(inputs, f)
				}
			}
		}
	}
	sort.SliceStable(inputs, func(i, j int) bool { return inputs[i].location < inputs[j].location })

	attrs := make([]Attribute, 0, len(inputs))
	var offset uint64
	for _, in := range inputs {
		info, ok := wgslVertexFormatMap[in.typeName]
		if !ok {
			return nil, 0, fmt.Errorf("vertex input %q: unsupported type %q", in.name, in.typeName)
		}
		attrs = append(attrs, Attribute{
			Name:     in.name,
			Type:     in.typeName,
			Location: uint32(in.location),
			Format:   info.format,
			Offset:   offset,
			Size:     info.size,
		})
		offset += info.size
	}
	return attrs, offset, nil
}

// splitTypeParams splits a WGSL parameterized type into its base name and parameter string.
// For "texture_2d<f32>" returns ("texture_2d", "f32").
// For "texture_depth_2d" (no params) returns ("texture_depth_2d", "").
//
// Parameters:
//   - typeName: the WGSL type string to split
//
// Returns:
//   - base: the type name before the first angle bracket
//   - params: the content between angle brackets, or empty if none
func splitTypeParams(typeName string) (base string, params string) {
	before, after, ok := strings.Cut(typeName, "<")
	if !ok {
		return typeName, ""
	}
	base = before
	params = strings.TrimSuffix(after, ">")
	params = strings.TrimSpace(params)
	return base, params
}

// stripComments removes both single-line (//) and block (/* */) comments from WGSL source.
// Block comments may be nested per the WGSL specification.
//
// Parameters:
//   - source: raw WGSL source string
//
// Returns:
//   - string: source with all comments removed
func stripComments(source string) string {
	return stripLineComments(stripBlockComments(source))
}

// stripLineComments removes single-line // comments from WGSL source so they
// do not interfere with struct and field parsing
func stripLineComments(source string) string {
	var sb strings.Builder
	for line := range strings.SplitSeq(source, "\n") {
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = line[:idx]
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// stripBlockComments removes block comments (/* ... */) from WGSL source,
// handling nested block comments per the WGSL specification
func stripBlockComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	depth := 0
	i := 0
	for i < len(source) {
		if i+1 < len(source) {
			if source[i] == '/' && source[i+1] == '*' {
				depth++
				i += 2
				continue
			}
			if source[i] == '*' && source[i+1] == '/' {
				if depth > 0 {
					depth--
				}
				i += 2
				continue
			}
		}
		if depth == 0 {
			sb.WriteByte(source[i])
		}
		i++
	}
	return sb.String()
}

// splitAtTopLevelCommas splits a string at commas that are not nested inside angle brackets or
// parentheses. This correctly handles WGSL types like array<FrustumPlane, 6> and attributes like
// @workgroup_size(8, 8) where the comma is not a field separator.
//
// Parameters:
//   - s: the string to split (typically the body of a WGSL struct)
//
// Returns:
//   - []string: substrings between top-level commas
func splitAtTopLevelCommas(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<', '(':
			depth++
		case '>', ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}
