package gltfio

import (
	"os"
	"slices"
	"testing"

	"github.com/qmuntal/gltf"
)

func TestParseManifest(t *testing.T) {
	j, err := os.ReadFile("./testdata/triangle.gltf")
	if err != nil {
		t.Fatal(err)
	}
	doc, err := ParseManifest(string(j))
	if err != nil {
		t.Fatal(err)
	}
	if doc.Buffers.Len() != 1 || doc.BufferViews.Len() != 2 || doc.Accessors.Len() != 2 || doc.Meshes.Len() != 1 {
		t.Fatal("unexpected record counts")
	}
	if bv := doc.BufferViews.At(0); bv.Target != ELEMENT_ARRAY_BUFFER {
		t.Fatalf("target %d", bv.Target)
	}
	pos := doc.Accessors.At(1)
	if pos.Type != VEC3 || pos.ComponentType != FLOAT || pos.BufferViewID != "1" || pos.Count != 3 {
		t.Fatalf("accessor %+v", pos)
	}
	prim := doc.Meshes.At(0).Primitives[0]
	if prim.Mode != TRIANGLES || prim.Attributes["POSITION"] != "1" || prim.IndicesID != "0" {
		t.Fatalf("primitive %+v", prim)
	}
	if err = ValidateResources(doc); err != nil {
		t.Fatal(err)
	}

	r, err := NewResourceReader(FileStreamProvider{Dir: "testdata"})
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	indices, err := ReadAccessor[uint16](r, doc, doc.Accessors.At(0))
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(indices, []uint16{0, 1, 2}) {
		t.Fatalf("indices %v", indices)
	}
	positions, err := ReadAccessor[float32](r, doc, pos)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(positions, []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}) {
		t.Fatalf("positions %v", positions)
	}
	lo, hi, err := CalculateMinMax(pos, positions)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(lo, pos.Min) || !slices.Equal(hi, pos.Max) {
		t.Fatalf("bounds %v %v, manifest says %v %v", lo, hi, pos.Min, pos.Max)
	}
}

func TestParseManifestErrors(t *testing.T) {
	_, err := ParseManifest("{")
	expectRule(t, err, ErrData, "manifest.json")
}

func TestFromDocument(t *testing.T) {
	view := uint32(0)
	src := &gltf.Document{
		Buffers:     []*gltf.Buffer{{URI: "a.bin", ByteLength: 8}},
		BufferViews: []*gltf.BufferView{{Buffer: 0, ByteLength: 8}},
		Accessors: []*gltf.Accessor{{
			ComponentType: gltf.ComponentUbyte,
			Type:          gltf.AccessorVec2,
			Count:         4,
			Min:           []float32{0, 0.5},
			Max:           []float32{255, 1.25},
			Sparse: &gltf.Sparse{
				Count:   1,
				Indices: gltf.SparseIndices{BufferView: 0, ComponentType: gltf.ComponentUshort},
				Values:  gltf.SparseValues{BufferView: 0, ByteOffset: 2},
			},
		}},
		Images: []*gltf.Image{{BufferView: &view, MimeType: "image/png"}},
		Meshes: []*gltf.Mesh{{Primitives: []*gltf.Primitive{{
			Attributes: map[string]uint32{"POSITION": 0},
			Mode:       gltf.PrimitiveLineStrip,
		}}}},
	}
	doc, err := FromDocument(src)
	if err != nil {
		t.Fatal(err)
	}
	acc := doc.Accessors.At(0)
	if acc.HasBufferView() || acc.Sparse == nil || acc.Sparse.IndicesComponentType != UNSIGNED_SHORT || acc.Sparse.ValuesByteOffset != 2 {
		t.Fatalf("accessor %+v", acc)
	}
	if !slices.Equal(acc.Min, []float64{0, 0.5}) || !slices.Equal(acc.Max, []float64{255, 1.25}) {
		t.Fatalf("bounds %v %v", acc.Min, acc.Max)
	}
	if img := doc.Images.At(0); img.BufferViewID != "0" || img.URI != "" {
		t.Fatalf("image %+v", img)
	}
	if m := doc.Meshes.At(0).Primitives[0].Mode; m != LINE_STRIP {
		t.Fatalf("mode %s", m)
	}
	if bv := doc.BufferViews.At(0); bv.BufferID != "0" || bv.ByteLength != 8 {
		t.Fatalf("bufferView %+v", bv)
	}
}
