package shader

import "github.com/Carmen-Shannon/oxy-core/engine/renderer/gpu"

// vertexFormatInfo holds the vertex format and its byte size for offset calculation
type vertexFormatInfo struct {
	format gpu.VertexFormat
	size   uint64
}

// sampledTextureInfo holds the view dimension and multisampled flag for a sampled texture type
type sampledTextureInfo struct {
	viewDimension gpu.TextureViewDimension
	multisampled  bool
}

// wgslTypeLayout holds the byte size and alignment for a WGSL type per the WGSL specification.
type wgslTypeLayout struct {
	size  uint64
	align uint64
}

// parsedField represents a single field extracted from a WGSL struct or parameter list
type parsedField struct {
	name      string
	typeName  string
	location  int
	isBuiltin bool
	// sizeAttr and alignAttr hold explicit @size/@align values, 0 when absent.
	sizeAttr  uint64
	alignAttr uint64
}

// parsedStruct represents a WGSL struct block extracted during parsing
type parsedStruct struct {
	name   string
	fields []parsedField
}

// parsedDecl is one @group/@binding resource declaration.
type parsedDecl struct {
	group        uint32
	binding      uint32
	addressSpace string
	name         string
	typeName     string
}
