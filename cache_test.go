package gltfio

import (
	"bytes"
	"testing"
)

func testFiles() map[string][]byte {
	return map[string][]byte{
		"a.bin": []byte("aaaa"),
		"b.bin": []byte("bbbb"),
		"c.bin": []byte("cccc"),
	}
}

func TestStreamCacheLRUSize(t *testing.T) {
	_, err := NewStreamCacheLRU(newMemProvider(nil), 0, nil)
	expectRule(t, err, ErrContract, "cache.size")
}

func TestStreamCacheLRUEvict(t *testing.T) {
	p := newMemProvider(testFiles())
	c, err := NewStreamCacheLRU(p, 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	for _, uri := range []string{"a.bin", "b.bin", "a.bin", "c.bin"} {
		if _, err := c.Get(uri); err != nil {
			t.Fatal(err)
		}
	}
	// b.bin was the least recently accessed when c.bin came in.
	if !p.lastStream(t, "b.bin").closed {
		t.Fatal("evicted stream was not closed")
	}
	if p.lastStream(t, "a.bin").closed {
		t.Fatal("a.bin should still be cached")
	}
	if _, err = c.Get("a.bin"); err != nil {
		t.Fatal(err)
	}
	if _, err = c.Get("b.bin"); err != nil {
		t.Fatal(err)
	}
	if p.opens["a.bin"] != 1 || p.opens["b.bin"] != 2 || p.opens["c.bin"] != 1 {
		t.Fatalf("unexpected open counts %v", p.opens)
	}
}

func TestStreamCache(t *testing.T) {
	caches := map[string]func(p StreamProvider) StreamCache{
		"map": func(p StreamProvider) StreamCache { return NewStreamCache(p, nil) },
		"lru": func(p StreamProvider) StreamCache {
			c, err := NewStreamCacheLRU(p, 8, nil)
			if err != nil {
				t.Fatal(err)
			}
			return c
		},
	}
	for name, newCache := range caches {
		t.Run(name, func(t *testing.T) {
			p := newMemProvider(testFiles())
			c := newCache(p)

			s1, err := c.Get("a.bin")
			if err != nil {
				t.Fatal(err)
			}
			s2, err := c.Get("a.bin")
			if err != nil {
				t.Fatal(err)
			}
			if s1 != s2 || p.opens["a.bin"] != 1 {
				t.Fatal("second Get should hit the cache")
			}

			_, err = c.Get("missing.bin")
			expectRule(t, err, ErrData, "stream.open")

			err = c.Erase("b.bin")
			expectRule(t, err, ErrContract, "cache.erase")

			replacement := &memStream{Reader: bytes.NewReader([]byte("zz"))}
			c.Set("a.bin", replacement)
			if !p.lastStream(t, "a.bin").closed {
				t.Fatal("replaced stream was not closed")
			}
			got, err := c.Get("a.bin")
			if err != nil {
				t.Fatal(err)
			}
			if got != replacement || p.opens["a.bin"] != 1 {
				t.Fatal("Set did not replace the cached stream")
			}

			if err = c.Erase("a.bin"); err != nil {
				t.Fatal(err)
			}
			if !replacement.closed {
				t.Fatal("erased stream was not closed")
			}

			if _, err = c.Get("c.bin"); err != nil {
				t.Fatal(err)
			}
			if err = c.Close(); err != nil {
				t.Fatal(err)
			}
			if !p.lastStream(t, "c.bin").closed {
				t.Fatal("Close left a stream open")
			}
		})
	}
}
