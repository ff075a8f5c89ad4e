package gltfio

import (
	"io"
	"os"
	"path/filepath"
)

// StreamProvider opens the byte streams referenced by buffer and image URIs.
// It is supplied and owned by the caller and must outlive any reader,
// writer or cache built on it.
type StreamProvider interface {
	InputStream(uri string) (io.ReadSeeker, error)
	OutputStream(uri string) (io.Writer, error)
}

// FileStreamProvider resolves URIs as paths relative to Dir.
type FileStreamProvider struct {
	Dir string
}

func (p FileStreamProvider) path(uri string) string {
	if filepath.IsAbs(uri) {
		return uri
	}
	return filepath.Join(p.Dir, filepath.FromSlash(uri))
}

// InputStream returns an *os.File; the caller (usually a StreamCache)
// closes it.
func (p FileStreamProvider) InputStream(uri string) (io.ReadSeeker, error) {
	return os.Open(p.path(uri))
}

func (p FileStreamProvider) OutputStream(uri string) (io.Writer, error) {
	return os.Create(p.path(uri))
}

// streamSize measures s by seeking to its end, then rewinds to where it was.
func streamSize(s io.Seeker) (int64, error) {
	cur, err := s.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	size, err := s.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if _, err = s.Seek(cur, io.SeekStart); err != nil {
		return 0, err
	}
	return size, nil
}

func closeIfCloser(v any) error {
	if c, ok := v.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
