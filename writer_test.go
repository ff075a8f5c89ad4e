package gltfio

import (
	"bytes"
	"testing"
)

func TestResourceWriterSequential(t *testing.T) {
	p := newMemProvider(nil)
	w := NewResourceWriter(p)
	buf := Buffer{ID: "0", URI: "out.bin"}

	if err := w.WriteBufferView(buf, BufferView{ID: "0", BufferID: "0", ByteLength: 3}, []byte{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	// gap
	err := w.WriteBufferView(buf, BufferView{ID: "1", BufferID: "0", ByteOffset: 8, ByteLength: 2}, []byte{4, 5})
	expectRule(t, err, ErrContract, "write.offset")
	// overlap
	err = w.WriteBufferView(buf, BufferView{ID: "1", BufferID: "0", ByteOffset: 2, ByteLength: 2}, []byte{4, 5})
	expectRule(t, err, ErrContract, "write.offset")

	if err = w.WritePadding(buf, 4); err != nil {
		t.Fatal(err)
	}
	err = w.WritePadding(buf, 2)
	expectRule(t, err, ErrContract, "write.offset")

	bv := BufferView{ID: "1", BufferID: "0", ByteOffset: 4, ByteLength: 8}
	acc := Accessor{ID: "0", BufferViewID: "1", ByteOffset: 0, ComponentType: UNSIGNED_SHORT, Type: VEC2, Count: 1}
	if err = w.WriteAccessor(buf, bv, acc, EncodeComponents([]uint16{0x0102, 0x0304})); err != nil {
		t.Fatal(err)
	}
	acc.ByteOffset = 4
	acc.Count = 2
	err = w.WriteAccessor(buf, bv, acc, make([]byte, 8))
	expectRule(t, err, ErrContract, "write.range")
	acc.Count = 1
	err = w.WriteAccessor(buf, bv, acc, make([]byte, 3))
	expectRule(t, err, ErrContract, "write.length")

	if w.Cursor("0") != 8 {
		t.Fatalf("cursor %d", w.Cursor("0"))
	}
	if err = w.Close(); err != nil {
		t.Fatal(err)
	}
	out := p.outputs["out.bin"]
	if !out.closed {
		t.Fatal("output stream left open")
	}
	if want := []byte{1, 2, 3, 0, 2, 1, 4, 3}; !bytes.Equal(out.Bytes(), want) {
		t.Fatalf("got %v, want %v", out.Bytes(), want)
	}
}

func TestResourceWriterContract(t *testing.T) {
	w := NewResourceWriter(newMemProvider(nil))
	buf := Buffer{ID: "0", URI: "out.bin"}

	err := w.WriteBufferView(buf, BufferView{ID: "0", BufferID: "1", ByteLength: 1}, []byte{1})
	expectRule(t, err, ErrContract, "write.buffer")
	err = w.WriteBufferView(buf, BufferView{ID: "0", BufferID: "0", ByteLength: 2}, []byte{1})
	expectRule(t, err, ErrContract, "write.length")
	err = w.WriteAccessor(buf, BufferView{ID: "0", BufferID: "0", ByteLength: 1}, Accessor{BufferViewID: "9"}, []byte{1})
	expectRule(t, err, ErrContract, "write.buffer_view")

	embedded := Buffer{ID: "1", URI: EncodeDataURI("", nil)}
	err = w.WriteBufferView(embedded, BufferView{ID: "0", BufferID: "1", ByteLength: 1}, []byte{1})
	expectRule(t, err, ErrContract, "write.uri")
}

func TestWriteExternal(t *testing.T) {
	p := newMemProvider(nil)
	w := NewResourceWriter(p)
	if err := w.WriteExternal("tex.png", []byte("png")); err != nil {
		t.Fatal(err)
	}
	if f := p.outputs["tex.png"]; f.String() != "png" || !f.closed {
		t.Fatalf("got %q closed=%v", f.String(), f.closed)
	}
}

func TestGLBResourceWriter(t *testing.T) {
	p := newMemProvider(nil)
	w := NewGLBResourceWriter(p)
	bin := Buffer{ID: "0"}
	ext := Buffer{ID: "1", URI: "ext.bin"}

	if err := w.WriteBufferView(bin, BufferView{ID: "0", BufferID: "0", ByteLength: 5}, []byte{1, 2, 3, 4, 5}); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteBufferView(ext, BufferView{ID: "1", BufferID: "1", ByteLength: 2}, []byte{6, 7}); err != nil {
		t.Fatal(err)
	}
	err := w.WriteBufferView(Buffer{ID: "2"}, BufferView{ID: "2", BufferID: "2", ByteLength: 1}, []byte{8})
	expectRule(t, err, ErrContract, "glb.buffer")

	if err = w.Flush(testManifest, "out.glb"); err != nil {
		t.Fatal(err)
	}
	if err = w.Close(); err != nil {
		t.Fatal(err)
	}
	if got := p.outputs["ext.bin"].Bytes(); !bytes.Equal(got, []byte{6, 7}) {
		t.Fatalf("external buffer %v", got)
	}
	out := p.outputs["out.glb"]
	if !out.closed {
		t.Fatal("GLB stream left open")
	}
	json, gotBin, err := ReadGLB(bytes.NewReader(out.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if string(json) != testManifest+"  " {
		t.Fatalf("json %q", json)
	}
	if !bytes.Equal(gotBin, []byte{1, 2, 3, 4, 5, 0, 0, 0}) {
		t.Fatalf("bin %v", gotBin)
	}
}

func TestEncodeComponents(t *testing.T) {
	if got := EncodeComponents([]uint16{0x0102}); !bytes.Equal(got, []byte{2, 1}) {
		t.Fatalf("got %v", got)
	}
	if got := EncodeComponents([]float32{1}); !bytes.Equal(got, []byte{0, 0, 0x80, 0x3f}) {
		t.Fatalf("got %v", got)
	}
	if got := EncodeComponents([]uint32{0x01020304, 5}); !bytes.Equal(got, []byte{4, 3, 2, 1, 5, 0, 0, 0}) {
		t.Fatalf("got %v", got)
	}
	if got := EncodeComponents([]int8{}); len(got) != 0 {
		t.Fatalf("got %v", got)
	}
}
