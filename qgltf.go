package gltfio

import (
	"encoding/json"
	"strconv"

	"github.com/qmuntal/gltf"
)

func indexID(i uint32) string {
	return strconv.FormatUint(uint64(i), 10)
}

func optIndexID(i *uint32) string {
	if i == nil {
		return ""
	}
	return indexID(*i)
}

func widenBounds(v []float32) []float64 {
	if v == nil {
		return nil
	}
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

func fromComponentType(c gltf.ComponentType) ComponentType {
	switch c {
	case gltf.ComponentByte:
		return BYTE
	case gltf.ComponentUbyte:
		return UNSIGNED_BYTE
	case gltf.ComponentShort:
		return SHORT
	case gltf.ComponentUshort:
		return UNSIGNED_SHORT
	case gltf.ComponentUint:
		return UNSIGNED_INT
	case gltf.ComponentFloat:
		return FLOAT
	}
	return ComponentUnknown
}

func fromAccessorType(t gltf.AccessorType) AccessorType {
	switch t {
	case gltf.AccessorScalar:
		return SCALAR
	case gltf.AccessorVec2:
		return VEC2
	case gltf.AccessorVec3:
		return VEC3
	case gltf.AccessorVec4:
		return VEC4
	case gltf.AccessorMat2:
		return MAT2
	case gltf.AccessorMat3:
		return MAT3
	case gltf.AccessorMat4:
		return MAT4
	}
	return TypeUnknown
}

func fromPrimitiveMode(m gltf.PrimitiveMode) MeshMode {
	switch m {
	case gltf.PrimitivePoints:
		return POINTS
	case gltf.PrimitiveLines:
		return LINES
	case gltf.PrimitiveLineLoop:
		return LINE_LOOP
	case gltf.PrimitiveLineStrip:
		return LINE_STRIP
	case gltf.PrimitiveTriangleStrip:
		return TRIANGLE_STRIP
	case gltf.PrimitiveTriangleFan:
		return TRIANGLE_FAN
	}
	return TRIANGLES
}

func fromTarget(t gltf.Target) BufferViewTarget {
	switch t {
	case gltf.TargetArrayBuffer:
		return ARRAY_BUFFER
	case gltf.TargetElementArrayBuffer:
		return ELEMENT_ARRAY_BUFFER
	}
	return TargetNone
}

// FromDocument converts the records this package works on out of a
// qmuntal/gltf document. Array indices become decimal ids.
func FromDocument(src *gltf.Document) (*Document, error) {
	doc := new(Document)
	for i, b := range src.Buffers {
		if _, err := doc.Buffers.Append(Buffer{ID: indexID(uint32(i)), URI: b.URI, ByteLength: uint64(b.ByteLength)}); err != nil {
			return nil, err
		}
	}
	for i, v := range src.BufferViews {
		bv := BufferView{
			ID:         indexID(uint32(i)),
			BufferID:   indexID(v.Buffer),
			ByteOffset: uint64(v.ByteOffset),
			ByteLength: uint64(v.ByteLength),
			ByteStride: v.ByteStride,
			Target:     fromTarget(v.Target),
		}
		if _, err := doc.BufferViews.Append(bv); err != nil {
			return nil, err
		}
	}
	for i, a := range src.Accessors {
		acc := Accessor{
			ID:            indexID(uint32(i)),
			BufferViewID:  optIndexID(a.BufferView),
			ByteOffset:    uint64(a.ByteOffset),
			ComponentType: fromComponentType(a.ComponentType),
			Type:          fromAccessorType(a.Type),
			Normalized:    a.Normalized,
			Count:         uint64(a.Count),
			Min:           widenBounds(a.Min),
			Max:           widenBounds(a.Max),
		}
		if s := a.Sparse; s != nil {
			acc.Sparse = &Sparse{
				Count:                uint64(s.Count),
				IndicesBufferViewID:  indexID(s.Indices.BufferView),
				IndicesComponentType: fromComponentType(s.Indices.ComponentType),
				IndicesByteOffset:    uint64(s.Indices.ByteOffset),
				ValuesBufferViewID:   indexID(s.Values.BufferView),
				ValuesByteOffset:     uint64(s.Values.ByteOffset),
			}
		}
		if _, err := doc.Accessors.Append(acc); err != nil {
			return nil, err
		}
	}
	for i, img := range src.Images {
		if _, err := doc.Images.Append(Image{
			ID:           indexID(uint32(i)),
			URI:          img.URI,
			BufferViewID: optIndexID(img.BufferView),
			MimeType:     img.MimeType,
		}); err != nil {
			return nil, err
		}
	}
	for i, m := range src.Meshes {
		mesh := Mesh{ID: indexID(uint32(i))}
		for _, p := range m.Primitives {
			prim := MeshPrimitive{
				Attributes: make(map[string]string, len(p.Attributes)),
				IndicesID:  optIndexID(p.Indices),
				Mode:       fromPrimitiveMode(p.Mode),
			}
			for name, idx := range p.Attributes {
				prim.Attributes[name] = indexID(idx)
			}
			mesh.Primitives = append(mesh.Primitives, prim)
		}
		if _, err := doc.Meshes.Append(mesh); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// ParseManifest decodes a glTF JSON manifest, such as the JSON chunk of a
// GLB, and converts it with FromDocument.
func ParseManifest(manifest string) (*Document, error) {
	var src gltf.Document
	if err := json.Unmarshal([]byte(manifest), &src); err != nil {
		return nil, wrapDataErr("manifest.json", err, "cannot parse glTF JSON")
	}
	return FromDocument(&src)
}
