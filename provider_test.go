package gltfio

import (
	"bytes"
	"errors"
	"io"
	"os"
	"testing"
)

// memStream is an in-memory input stream that records Close.
type memStream struct {
	*bytes.Reader
	closed bool
}

func (s *memStream) Close() error {
	s.closed = true
	return nil
}

// memFile is an in-memory output stream that records Close.
type memFile struct {
	bytes.Buffer
	closed bool
}

func (f *memFile) Close() error {
	f.closed = true
	return nil
}

// memProvider serves files from a map and counts how often each uri is
// opened.
type memProvider struct {
	files   map[string][]byte
	opens   map[string]int
	streams map[string][]*memStream
	outputs map[string]*memFile
}

func newMemProvider(files map[string][]byte) *memProvider {
	if files == nil {
		files = make(map[string][]byte)
	}
	return &memProvider{
		files:   files,
		opens:   make(map[string]int),
		streams: make(map[string][]*memStream),
		outputs: make(map[string]*memFile),
	}
}

func (p *memProvider) InputStream(uri string) (io.ReadSeeker, error) {
	data, ok := p.files[uri]
	if !ok {
		return nil, os.ErrNotExist
	}
	p.opens[uri]++
	s := &memStream{Reader: bytes.NewReader(data)}
	p.streams[uri] = append(p.streams[uri], s)
	return s, nil
}

func (p *memProvider) OutputStream(uri string) (io.Writer, error) {
	f := &memFile{}
	p.outputs[uri] = f
	return f, nil
}

// lastStream returns the most recently opened stream for uri.
func (p *memProvider) lastStream(t *testing.T, uri string) *memStream {
	t.Helper()
	s := p.streams[uri]
	if len(s) == 0 {
		t.Fatalf("%q was never opened", uri)
	}
	return s[len(s)-1]
}

// expectRule fails unless err has the given kind and rule.
func expectRule(t *testing.T, err error, kind error, rule string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", rule)
	}
	if !errors.Is(err, kind) {
		t.Fatalf("expected kind %v, got %v", kind, err)
	}
	if got := RuleOf(err); got != rule {
		t.Fatalf("expected rule %s, got %s (%v)", rule, got, err)
	}
}

// mustAppend adds records to doc, failing the test on a duplicate id.
func mustAppend[T any, P entity[T]](t *testing.T, c *Collection[T, P], items ...T) {
	t.Helper()
	for _, v := range items {
		if _, err := c.Append(v); err != nil {
			t.Fatal(err)
		}
	}
}
