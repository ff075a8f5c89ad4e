package gltfio

import (
	"bytes"
	"encoding/base64"
	"testing"
)

func TestDecodeBase64Range(t *testing.T) {
	for n := 0; n <= 10; n++ {
		data := make([]byte, n)
		for i := range data {
			data[i] = byte(i*37 + 11)
		}
		enc := base64.StdEncoding.EncodeToString(data)
		for off := 0; off <= n; off++ {
			for length := 0; off+length <= n; length++ {
				got, err := DecodeBase64Range(enc, uint64(off), uint64(length))
				if err != nil {
					t.Fatalf("n=%d [%d,+%d): %v", n, off, length, err)
				}
				if !bytes.Equal(got, data[off:off+length]) {
					t.Fatalf("n=%d [%d,+%d): got %v, want %v", n, off, length, got, data[off:off+length])
				}
			}
		}
	}
}

func TestDecodeBase64RangeUnpadded(t *testing.T) {
	data := []byte("glTF!")
	enc := base64.RawStdEncoding.EncodeToString(data)
	got, err := DecodeBase64Range(enc, 1, 4)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "lTF!" {
		t.Fatalf("got %q", got)
	}
}

func TestDecodeBase64RangeErrors(t *testing.T) {
	enc := base64.StdEncoding.EncodeToString([]byte("abcd"))
	_, err := DecodeBase64Range(enc, 2, 3)
	expectRule(t, err, ErrData, "base64.range")

	_, err = DecodeBase64Range("A===", 0, 0)
	expectRule(t, err, ErrData, "base64.padding")

	_, err = DecodeBase64Range("AB=C", 0, 1)
	expectRule(t, err, ErrData, "base64.padding")

	_, err = DecodeBase64Range("ABCDE", 0, 1)
	expectRule(t, err, ErrData, "base64.length")

	_, err = DecodeBase64Range("AA!A", 0, 3)
	expectRule(t, err, ErrData, "base64.decode")
}

func TestDataURIRoundTrip(t *testing.T) {
	data := []byte{0x89, 'P', 'N', 'G', 0, 1, 2}
	uri := EncodeDataURI("image/png", data)
	if !IsDataURI(uri) {
		t.Fatalf("not a data uri: %s", uri)
	}
	got, mime, err := DecodeDataURI(uri)
	if err != nil {
		t.Fatal(err)
	}
	if mime != "image/png" || !bytes.Equal(got, data) {
		t.Fatalf("got %q %v", mime, got)
	}

	got, mime, err = DecodeDataURI(EncodeDataURI("", data))
	if err != nil {
		t.Fatal(err)
	}
	if mime != "application/octet-stream" || !bytes.Equal(got, data) {
		t.Fatalf("got %q %v", mime, got)
	}
}

func TestDataURIPlain(t *testing.T) {
	got, mime, err := DecodeDataURI("data:,hello")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello" || mime != "text/plain;charset=US-ASCII" {
		t.Fatalf("got %q %q", mime, got)
	}
	part, err := decodeDataURIRange("data:,hello", 1, 3)
	if err != nil {
		t.Fatal(err)
	}
	if string(part) != "ell" {
		t.Fatalf("got %q", part)
	}
	_, err = decodeDataURIRange("data:,hello", 3, 3)
	expectRule(t, err, ErrData, "datauri.range")

	_, _, err = DecodeDataURI("data:application/octet-stream;base64")
	expectRule(t, err, ErrData, "datauri.syntax")
}
