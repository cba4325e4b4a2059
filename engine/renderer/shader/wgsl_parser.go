package shader

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-core/engine/renderer/gpu"
)

// wgslVertexFormatMap maps WGSL type names to their vertex format and byte size
var wgslVertexFormatMap = map[string]vertexFormatInfo{
	"f32":       {gpu.VertexFormatFloat32, 4},
	"vec2f":     {gpu.VertexFormatFloat32x2, 8},
	"vec2<f32>": {gpu.VertexFormatFloat32x2, 8},
	"vec3f":     {gpu.VertexFormatFloat32x3, 12},
	"vec3<f32>": {gpu.VertexFormatFloat32x3, 12},
	"vec4f":     {gpu.VertexFormatFloat32x4, 16},
	"vec4<f32>": {gpu.VertexFormatFloat32x4, 16},
	"i32":       {gpu.VertexFormatSint32, 4},
	"vec2i":     {gpu.VertexFormatSint32x2, 8},
	"vec2<i32>": {gpu.VertexFormatSint32x2, 8},
	"vec3i":     {gpu.VertexFormatSint32x3, 12},
	"vec3<i32>": {gpu.VertexFormatSint32x3, 12},
	"vec4i":     {gpu.VertexFormatSint32x4, 16},
	"vec4<i32>": {gpu.VertexFormatSint32x4, 16},
	"u32":       {gpu.VertexFormatUint32, 4},
	"vec2u":     {gpu.VertexFormatUint32x2, 8},
	"vec2<u32>": {gpu.VertexFormatUint32x2, 8},
	"vec3u":     {gpu.VertexFormatUint32x3, 12},
	"vec3<u32>": {gpu.VertexFormatUint32x3, 12},
	"vec4u":     {gpu.VertexFormatUint32x4, 16},
	"vec4<u32>": {gpu.VertexFormatUint32x4, 16},
	"vec2<f16>": {gpu.VertexFormatFloat16x2, 4},
	"vec2h":     {gpu.VertexFormatFloat16x2, 4},
	"vec4<f16>": {gpu.VertexFormatFloat16x4, 8},
	"vec4h":     {gpu.VertexFormatFloat16x4, 8},
}

// wgslSampledTextureMap maps WGSL sampled texture base names to their view dimension and multisampled flag
var wgslSampledTextureMap = map[string]sampledTextureInfo{
	"texture_1d":                    {gpu.TextureViewDimension1D, false},
	"texture_2d":                    {gpu.TextureViewDimension2D, false},
	"texture_2d_array":              {gpu.TextureViewDimension2DArray, false},
	"texture_3d":                    {gpu.TextureViewDimension3D, false},
	"texture_cube":                  {gpu.TextureViewDimensionCube, false},
	"texture_cube_array":            {gpu.TextureViewDimensionCubeArray, false},
	"texture_multisampled_2d":       {gpu.TextureViewDimension2D, true},
	"texture_depth_2d":              {gpu.TextureViewDimension2D, false},
	"texture_depth_2d_array":        {gpu.TextureViewDimension2DArray, false},
	"texture_depth_cube":            {gpu.TextureViewDimensionCube, false},
	"texture_depth_cube_array":      {gpu.TextureViewDimensionCubeArray, false},
	"texture_depth_multisampled_2d": {gpu.TextureViewDimension2D, true},
}

// wgslStorageTextureDimMap maps WGSL storage texture base names to their view dimension
var wgslStorageTextureDimMap = map[string]gpu.TextureViewDimension{
	"texture_storage_1d":       gpu.TextureViewDimension1D,
	"texture_storage_2d":       gpu.TextureViewDimension2D,
	"texture_storage_2d_array": gpu.TextureViewDimension2DArray,
	"texture_storage_3d":       gpu.TextureViewDimension3D,
}

// wgslSampleTypeMap maps WGSL scalar type parameters to their texture sample type
var wgslSampleTypeMap = map[string]gpu.TextureSampleType{
	"f32": gpu.TextureSampleTypeFloat,
	"i32": gpu.TextureSampleTypeSint,
	"u32": gpu.TextureSampleTypeUint,
}

// wgslStorageAccessMap maps WGSL access mode keywords to their storage texture access
var wgslStorageAccessMap = map[string]gpu.StorageTextureAccess{
	"write":      gpu.StorageTextureAccessWriteOnly,
	"read":       gpu.StorageTextureAccessReadOnly,
	"read_write": gpu.StorageTextureAccessReadWrite,
}

// wgslTexelFormatMap maps WGSL texel format strings to texture formats valid for storage textures.
var wgslTexelFormatMap = map[string]gpu.TextureFormat{
	"rgba8unorm":  gpu.TextureFormatRGBA8Unorm,
	"rgba8snorm":  gpu.TextureFormatRGBA8Snorm,
	"rgba8uint":   gpu.TextureFormatRGBA8Uint,
	"rgba8sint":   gpu.TextureFormatRGBA8Sint,
	"rgba16uint":  gpu.TextureFormatRGBA16Uint,
	"rgba16sint":  gpu.TextureFormatRGBA16Sint,
	"rgba16float": gpu.TextureFormatRGBA16Float,
	"r32uint":     gpu.TextureFormatR32Uint,
	"r32sint":     gpu.TextureFormatR32Sint,
	"r32float":    gpu.TextureFormatR32Float,
	"rg32uint":    gpu.TextureFormatRG32Uint,
	"rg32sint":    gpu.TextureFormatRG32Sint,
	"rg32float":   gpu.TextureFormatRG32Float,
	"rgba32uint":  gpu.TextureFormatRGBA32Uint,
	"rgba32sint":  gpu.TextureFormatRGBA32Sint,
	"rgba32float": gpu.TextureFormatRGBA32Float,
	"bgra8unorm":  gpu.TextureFormatBGRA8Unorm,
}

var (
	// structBlockRegex matches struct declarations and captures the name and body
	structBlockRegex = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)

	// locationRegex matches @location(N) attributes
	locationRegex = regexp.MustCompile(`@location\(\s*(\d+)\s*\)`)

	// builtinRegex matches @builtin(...) attributes
	builtinRegex = regexp.MustCompile(`@builtin\(\s*\w+\s*\)`)

	// sizeAttrRegex and alignAttrRegex match explicit member layout attributes
	sizeAttrRegex  = regexp.MustCompile(`@size\(\s*(\d+)\s*\)`)
	alignAttrRegex = regexp.MustCompile(`@align\(\s*(\d+)\s*\)`)

	// fieldRegex matches a field: optional attributes, name, colon, type.
	// The type capture (.+) is greedy to handle parameterized types like array<T, N>.
	fieldRegex = regexp.MustCompile(`^(?:@\w+(?:\([^)]*\))?\s*)*(\w+)\s*:\s*(.+)$`)

	vertexEntryRegex   = regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`)
	fragmentEntryRegex = regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`)
	computeEntryRegex  = regexp.MustCompile(`(?s)@compute\b.*?\bfn\s+(\w+)`)

	// workgroupSizeRegex captures 1-3 integer dimensions from @workgroup_size(x[, y[, z]])
	workgroupSizeRegex = regexp.MustCompile(`@workgroup_size\(\s*(\d+)\s*(?:,\s*(\d+)\s*(?:,\s*(\d+)\s*)?)?\)`)

	// bindGroupDeclRegex captures group, binding, optional address space, variable name, and type
	// from declarations like: @group(0) @binding(0) var<uniform> camera: CameraUniform;
	// or handle types: @group(2) @binding(0) var diffuseTexture: texture_2d<f32>;
	bindGroupDeclRegex = regexp.MustCompile(`@group\(\s*(\d+)\s*\)\s*@binding\(\s*(\d+)\s*\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)

	// bindingGroupDeclRegex is bindGroupDeclRegex with the attributes in the other order.
	bindingGroupDeclRegex = regexp.MustCompile(`@binding\(\s*(\d+)\s*\)\s*@group\(\s*(\d+)\s*\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
)

// parseDecls extracts every resource declaration from comment-free WGSL source.
//
// Parameters:
//   - source: WGSL source with comments stripped
//
// Returns:
//   - []parsedDecl: declarations in source order
func parseDecls(source string) []parsedDecl {
	var decls []parsedDecl
	for _, match := range bindGroupDeclRegex.FindAllStringSubmatchIndex(source, -1) {
		decls = append(decls, declFromMatch(source, match, 2, 4))
	}
	for _, match := range bindingGroupDeclRegex.FindAllStringSubmatchIndex(source, -1) {
		decls = append(decls, declFromMatch(source, match, 4, 2))
	}
	return decls
}

// declFromMatch builds a parsedDecl from a submatch index slice. groupAt and bindingAt are the
// index offsets of the group and binding captures.
func declFromMatch(source string, m []int, groupAt, bindingAt int) parsedDecl {
	sub := func(i int) string {
		if m[i] < 0 {
			return ""
		}
		return strings.TrimSpace(source[m[i]:m[i+1]])
	}
	group, _ := strconv.ParseUint(sub(groupAt), 10, 32)
	binding, _ := strconv.ParseUint(sub(bindingAt), 10, 32)
	return parsedDecl{
		group:        uint32(group),
		binding:      uint32(binding),
		addressSpace: strings.Join(strings.Fields(sub(6)), ""),
		name:         sub(8),
		typeName:     normalizeType(sub(10)),
	}
}

// normalizeType removes whitespace so "array< Light, 4 >" and "array<Light,4>" compare equal.
func normalizeType(t string) string {
	return strings.Join(strings.Fields(t), "")
}

// parseWorkgroupSize extracts the @workgroup_size(x, y, z) dimensions from WGSL source.
// Omitted dimensions default to 1. Returns [1, 1, 1] if no @workgroup_size is present.
//
// Parameters:
//   - source: WGSL source with comments stripped
//
// Returns:
//   - [3]uint32: the workgroup size as [x, y, z]
func parseWorkgroupSize(source string) [3]uint32 {
	result := [3]uint32{1, 1, 1}

	match := workgroupSizeRegex.FindStringSubmatch(source)
	if match == nil {
		return result
	}
	for i := range 3 {
		if match[i+1] == "" {
			continue
		}
		if v, err := strconv.ParseUint(match[i+1], 10, 32); err == nil {
			result[i] = uint32(v)
		}
	}
	return result
}

// parseEntryPoint returns the entry point function name for stage, or "" when absent.
//
// Parameters:
//   - source: WGSL source with comments stripped
//   - stage: exactly one of the vertex, fragment or compute stage bits
//
// Returns:
//   - string: the entry point function name
func parseEntryPoint(source string, stage gpu.ShaderStage) string {
	var re *regexp.Regexp
	switch stage {
	case gpu.ShaderStageVertex:
		re = vertexEntryRegex
	case gpu.ShaderStageFragment:
		re = fragmentEntryRegex
	case gpu.ShaderStageCompute:
		re = computeEntryRegex
	default:
		return ""
	}

	if match := re.FindStringSubmatch(source); match != nil {
		return match[1]
	}
	return ""
}

// parseStructBlocks finds all struct { ... } blocks in the cleaned WGSL source
// and parses their fields including @location and @builtin attributes
//
// Parameters:
//   - source: WGSL source with comments already stripped
//
// Returns:
//   - []parsedStruct: all struct blocks found in the source
func parseStructBlocks(source string) []parsedStruct {
	matches := structBlockRegex.FindAllStringSubmatch(source, -1)
	structs := make([]parsedStruct, 0, len(matches))

	for _, match := range matches {
		structs = append(structs, parsedStruct{
			name:   match[1],
			fields: parseFields(match[2]),
		})
	}

	return structs
}

// parseFields parses a comma separated list of struct members or function parameters,
// extracting @location, @builtin, @size and @align attributes with the name and type.
//
// Parameters:
//   - body: the text between the braces of a struct or the parentheses of a function
//
// Returns:
//   - []parsedField: the fields in declaration order
func parseFields(body string) []parsedField {
	parts := splitAtTopLevelCommas(body)
	fields := make([]parsedField, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		fm := fieldRegex.FindStringSubmatch(part)
		if fm == nil {
			continue
		}
		field := parsedField{
			name:      fm[1],
			typeName:  normalizeType(fm[2]),
			location:  -1,
			isBuiltin: builtinRegex.MatchString(part),
		}
		if m := locationRegex.FindStringSubmatch(part); m != nil {
			if loc, err := strconv.Atoi(m[1]); err == nil {
				field.location = loc
			}
		}
		if m := sizeAttrRegex.FindStringSubmatch(part); m != nil {
			field.sizeAttr, _ = strconv.ParseUint(m[1], 10, 64)
		}
		if m := alignAttrRegex.FindStringSubmatch(part); m != nil {
			field.alignAttr, _ = strconv.ParseUint(m[1], 10, 64)
		}
		fields = append(fields, field)
	}

	return fields
}

// parseEntryParams returns the parameter list of function fn.
//
// Parameters:
//   - source: WGSL source with comments stripped
//   - fn: the function name
//
// Returns:
//   - []parsedField: the parameters, nil when fn is not found
func parseEntryParams(source, fn string) []parsedField {
	re := regexp.MustCompile(`\bfn\s+` + regexp.QuoteMeta(fn) + `\s*\(`)
	loc := re.FindStringIndex(source)
	if loc == nil {
		return nil
	}
	start := loc[1]
	depth := 1
	for i := start; i < len(source); i++ {
		switch source[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return parseFields(source[start:i])
			}
		}
	}
	return nil
}
