package gltfio

import (
	"testing"
)

func TestCollection(t *testing.T) {
	var c Collection[Buffer, *Buffer]
	a, err := c.Append(Buffer{URI: "a.bin"})
	if err != nil {
		t.Fatal(err)
	}
	if a.ID != "0" {
		t.Fatalf("auto id %q", a.ID)
	}
	if _, err = c.Append(Buffer{ID: "named", URI: "b.bin"}); err != nil {
		t.Fatal(err)
	}
	c2, err := c.Append(Buffer{URI: "c.bin"})
	if err != nil {
		t.Fatal(err)
	}
	if c2.ID != "2" {
		t.Fatalf("auto id %q", c2.ID)
	}
	_, err = c.Append(Buffer{ID: "named"})
	expectRule(t, err, ErrContract, "document.duplicate_id")

	if c.Len() != 3 || !c.Has("named") || c.Has("1") {
		t.Fatalf("len %d", c.Len())
	}
	got, err := c.Get("named")
	if err != nil {
		t.Fatal(err)
	}
	if got.URI != "b.bin" || c.At(2).URI != "c.bin" {
		t.Fatalf("got %+v", got)
	}
	_, err = c.Get("missing")
	expectRule(t, err, ErrData, "document.missing_id")

	var uris []string
	for _, b := range c.Elements() {
		uris = append(uris, b.URI)
	}
	if len(uris) != 3 || uris[0] != "a.bin" || uris[1] != "b.bin" {
		t.Fatalf("order %v", uris)
	}
}

func TestErrorFormat(t *testing.T) {
	err := dataErr("glb.magic", "not a glTF file")
	if err.Error() != "gltfio: glb.magic: not a glTF file" {
		t.Fatalf("got %q", err.Error())
	}
	if RuleOf(ErrData) != "" {
		t.Fatal("sentinel has no rule")
	}
}
