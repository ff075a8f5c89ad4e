// Package gltfio reads and writes the binary payload of glTF 2.0 assets:
// typed accessor data, images, base64 data URIs and the GLB container.
// It also provides the buffer/bufferView/accessor layout engine used when
// authoring new documents.
//
// The JSON manifest itself is handled by github.com/qmuntal/gltf; see
// FromDocument and ParseManifest.
package gltfio

import (
	"fmt"
	"strconv"
)

const (
	ChunkJSON = 0x4E4F534A
	ChunkBIN  = 0x004E4942
)

type ComponentType uint32

const (
	ComponentUnknown ComponentType = 0
	BYTE             ComponentType = 5120
	UNSIGNED_BYTE    ComponentType = 5121
	SHORT            ComponentType = 5122
	UNSIGNED_SHORT   ComponentType = 5123
	UNSIGNED_INT     ComponentType = 5125
	FLOAT            ComponentType = 5126
)

// Size returns the number of bytes of one component, 0 if unknown.
func (t ComponentType) Size() uint64 {
	switch t {
	case BYTE, UNSIGNED_BYTE:
		return 1
	case SHORT, UNSIGNED_SHORT:
		return 2
	case UNSIGNED_INT, FLOAT:
		return 4
	default:
		return 0
	}
}

func (t ComponentType) String() string {
	switch t {
	case BYTE:
		return "BYTE"
	case UNSIGNED_BYTE:
		return "UNSIGNED_BYTE"
	case SHORT:
		return "SHORT"
	case UNSIGNED_SHORT:
		return "UNSIGNED_SHORT"
	case UNSIGNED_INT:
		return "UNSIGNED_INT"
	case FLOAT:
		return "FLOAT"
	default:
		return fmt.Sprint(uint32(t))
	}
}

type AccessorType uint32

const (
	TypeUnknown AccessorType = iota
	SCALAR
	VEC2
	VEC3
	VEC4
	MAT2
	MAT3
	MAT4
)

// ParseAccessorType maps the glTF type name to an AccessorType.
func ParseAccessorType(s string) (AccessorType, error) {
	switch s {
	case "SCALAR":
		return SCALAR, nil
	case "VEC2":
		return VEC2, nil
	case "VEC3":
		return VEC3, nil
	case "VEC4":
		return VEC4, nil
	case "MAT2":
		return MAT2, nil
	case "MAT3":
		return MAT3, nil
	case "MAT4":
		return MAT4, nil
	default:
		return TypeUnknown, dataErr("accessor.type", "bad accessorType %q", s)
	}
}

func (a AccessorType) String() string {
	switch a {
	case SCALAR:
		return "SCALAR"
	case VEC2:
		return "VEC2"
	case VEC3:
		return "VEC3"
	case VEC4:
		return "VEC4"
	case MAT2:
		return "MAT2"
	case MAT3:
		return "MAT3"
	case MAT4:
		return "MAT4"
	default:
		return ""
	}
}

// ComponentCount returns the number of components per element, 0 if unknown.
func (a AccessorType) ComponentCount() uint64 {
	switch a {
	case SCALAR:
		return 1
	case VEC2:
		return 2
	case VEC3:
		return 3
	case VEC4:
		return 4
	case MAT2:
		return 4
	case MAT3:
		return 9
	case MAT4:
		return 16
	default:
		return 0
	}
}

type BufferViewTarget uint32

const (
	TargetNone           BufferViewTarget = 0
	ARRAY_BUFFER         BufferViewTarget = 34962
	ELEMENT_ARRAY_BUFFER BufferViewTarget = 34963
)

type MeshMode uint32

const (
	POINTS         MeshMode = 0
	LINES          MeshMode = 1
	LINE_LOOP      MeshMode = 2
	LINE_STRIP     MeshMode = 3
	TRIANGLES      MeshMode = 4
	TRIANGLE_STRIP MeshMode = 5
	TRIANGLE_FAN   MeshMode = 6
)

func (m MeshMode) String() string {
	switch m {
	case POINTS:
		return "POINTS"
	case LINES:
		return "LINES"
	case LINE_LOOP:
		return "LINE_LOOP"
	case LINE_STRIP:
		return "LINE_STRIP"
	case TRIANGLES:
		return "TRIANGLES"
	case TRIANGLE_STRIP:
		return "TRIANGLE_STRIP"
	case TRIANGLE_FAN:
		return "TRIANGLE_FAN"
	default:
		return strconv.FormatUint(uint64(m), 10)
	}
}

type Buffer struct {
	ID         string
	URI        string
	ByteLength uint64
}

func (b Buffer) IsExternal() bool {
	// glTF Buffer referring to GLB-stored BIN chunk, must have buffer.uri property undefined
	return b.URI != ""
}

type BufferView struct {
	ID         string
	BufferID   string
	ByteOffset uint64
	ByteLength uint64
	ByteStride uint32 // 0 when tightly packed, otherwise 4 to 252
	Target     BufferViewTarget
}

type Sparse struct {
	Count uint64

	IndicesBufferViewID  string
	IndicesComponentType ComponentType
	IndicesByteOffset    uint64

	ValuesBufferViewID string
	ValuesByteOffset   uint64
}

type Accessor struct {
	ID            string
	BufferViewID  string // empty for a sparse accessor with an implicit zero base
	ByteOffset    uint64
	ComponentType ComponentType
	Type          AccessorType
	Normalized    bool
	Count         uint64
	Min           []float64
	Max           []float64
	Sparse        *Sparse
}

// ElementSize is the tightly packed size of one element in bytes.
func (a Accessor) ElementSize() uint64 {
	return a.ComponentType.Size() * a.Type.ComponentCount()
}

// HasBufferView reports whether the accessor points at real data rather
// than an implicit zero-filled base.
func (a Accessor) HasBufferView() bool {
	return a.BufferViewID != ""
}

type Image struct {
	ID           string
	URI          string
	BufferViewID string
	MimeType     string
}

// 几何图元
type MeshPrimitive struct {
	Attributes map[string]string // 顶点属性 -> accessor id
	IndicesID  string            // 顶点索引, 可为空
	Mode       MeshMode
}

type Mesh struct {
	ID         string
	Primitives []MeshPrimitive
}

func (b Buffer) entityID() string     { return b.ID }
func (v BufferView) entityID() string { return v.ID }
func (a Accessor) entityID() string   { return a.ID }
func (i Image) entityID() string      { return i.ID }
func (m Mesh) entityID() string       { return m.ID }

func (b *Buffer) setEntityID(id string)     { b.ID = id }
func (v *BufferView) setEntityID(id string) { v.ID = id }
func (a *Accessor) setEntityID(id string)   { a.ID = id }
func (i *Image) setEntityID(id string)      { i.ID = id }
func (m *Mesh) setEntityID(id string)       { m.ID = id }
