package gltfio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"log/slog"
)

// Writer appends buffer data strictly sequentially. It is implemented by
// ResourceWriter and GLBResourceWriter and used by BufferBuilder.
type Writer interface {
	// WriteBufferView writes all of bv; bv.ByteOffset must equal the
	// buffer's cursor.
	WriteBufferView(buf Buffer, bv BufferView, data []byte) error
	// WriteAccessor writes acc's bytes at bv.ByteOffset+acc.ByteOffset,
	// which must equal the buffer's cursor.
	WriteAccessor(buf Buffer, bv BufferView, acc Accessor, data []byte) error
	// WritePadding zero-fills buf from its cursor up to toOffset.
	WritePadding(buf Buffer, toOffset uint64) error
	// Cursor returns the next write offset of a buffer.
	Cursor(bufferID string) uint64
}

// binarySink returns the stream a buffer's bytes are appended to.
type binarySink interface {
	writer(buf Buffer) (io.Writer, error)
}

// providerSink opens one output stream per buffer uri.
type providerSink struct {
	provider StreamProvider
	streams  map[string]io.Writer
}

func (s *providerSink) writer(buf Buffer) (io.Writer, error) {
	if buf.URI == "" || IsDataURI(buf.URI) {
		return nil, contractErr("write.uri", "buffer %q needs an external uri, got %q", buf.ID, buf.URI)
	}
	if w, ok := s.streams[buf.URI]; ok {
		return w, nil
	}
	w, err := s.provider.OutputStream(buf.URI)
	if err != nil {
		return nil, wrapDataErr("stream.open", err, "cannot create %q", buf.URI)
	}
	s.streams[buf.URI] = w
	return w, nil
}

func (s *providerSink) close() error {
	var errs []error
	for uri, w := range s.streams {
		errs = append(errs, closeIfCloser(w))
		delete(s.streams, uri)
	}
	return errors.Join(errs...)
}

// ResourceWriter writes buffer data to external streams. It never pads
// implicitly: callers compute offsets and call WritePadding themselves.
type ResourceWriter struct {
	provider StreamProvider
	external *providerSink
	sink     binarySink
	cursors  map[string]uint64
	logger   *slog.Logger
}

// NewResourceWriter returns a writer creating output streams through
// provider. The provider is borrowed, not owned.
func NewResourceWriter(provider StreamProvider, opts ...Option) *ResourceWriter {
	o := buildOptions(opts)
	external := &providerSink{provider: provider, streams: make(map[string]io.Writer)}
	return &ResourceWriter{
		provider: provider,
		external: external,
		sink:     external,
		cursors:  make(map[string]uint64),
		logger:   o.logger,
	}
}

func (w *ResourceWriter) Cursor(bufferID string) uint64 {
	return w.cursors[bufferID]
}

func (w *ResourceWriter) write(buf Buffer, offset uint64, data []byte) error {
	if cur := w.cursors[buf.ID]; offset != cur {
		return contractErr("write.offset", "buffer %q: write at offset %d, cursor is at %d", buf.ID, offset, cur)
	}
	end, ok := SafeAddition(offset, uint64(len(data)))
	if !ok {
		return dataErr("write.overflow", "buffer %q length overflows", buf.ID)
	}
	out, err := w.sink.writer(buf)
	if err != nil {
		return err
	}
	if _, err = out.Write(data); err != nil {
		return wrapDataErr("stream.write", err, "buffer %q", buf.ID)
	}
	w.cursors[buf.ID] = end
	return nil
}

func (w *ResourceWriter) WriteBufferView(buf Buffer, bv BufferView, data []byte) error {
	if bv.BufferID != buf.ID {
		return contractErr("write.buffer", "bufferView %q belongs to buffer %q, not %q", bv.ID, bv.BufferID, buf.ID)
	}
	if uint64(len(data)) != bv.ByteLength {
		return contractErr("write.length", "bufferView %q is %d bytes, got %d", bv.ID, bv.ByteLength, len(data))
	}
	return w.write(buf, bv.ByteOffset, data)
}

func (w *ResourceWriter) WriteAccessor(buf Buffer, bv BufferView, acc Accessor, data []byte) error {
	if bv.BufferID != buf.ID {
		return contractErr("write.buffer", "bufferView %q belongs to buffer %q, not %q", bv.ID, bv.BufferID, buf.ID)
	}
	if acc.BufferViewID != bv.ID {
		return contractErr("write.buffer_view", "accessor %q belongs to bufferView %q, not %q", acc.ID, acc.BufferViewID, bv.ID)
	}
	want, ok := SafeMultiplication(acc.Count, acc.ElementSize())
	if !ok || want != uint64(len(data)) {
		return contractErr("write.length", "accessor %q needs %d bytes, got %d", acc.ID, want, len(data))
	}
	end, ok := SafeAddition(acc.ByteOffset, want)
	if !ok || end > bv.ByteLength {
		return contractErr("write.range", "accessor %q ends past bufferView %q length %d", acc.ID, bv.ID, bv.ByteLength)
	}
	return w.write(buf, bv.ByteOffset+acc.ByteOffset, data)
}

func (w *ResourceWriter) WritePadding(buf Buffer, toOffset uint64) error {
	cur := w.cursors[buf.ID]
	if toOffset < cur {
		return contractErr("write.offset", "buffer %q: cannot pad back to %d, cursor is at %d", buf.ID, toOffset, cur)
	}
	if toOffset == cur {
		return nil
	}
	return w.write(buf, cur, make([]byte, toOffset-cur))
}

// WriteExternal writes data to its own stream, e.g. an image file.
func (w *ResourceWriter) WriteExternal(uri string, data []byte) error {
	out, err := w.provider.OutputStream(uri)
	if err != nil {
		return wrapDataErr("stream.open", err, "cannot create %q", uri)
	}
	if _, err = out.Write(data); err != nil {
		closeIfCloser(out)
		return wrapDataErr("stream.write", err, "%q", uri)
	}
	return closeIfCloser(out)
}

// Close closes every buffer stream the writer opened.
func (w *ResourceWriter) Close() error {
	return w.external.close()
}

// EncodeComponents packs values little-endian, the byte order of glTF
// buffers.
func EncodeComponents[T Component](data []T) []byte {
	out, err := binary.Append(make([]byte, 0, binary.Size(data)), binary.LittleEndian, data)
	if err != nil {
		// every Component is fixed-size
		panic(err)
	}
	return out
}

// glbSink keeps empty-uri buffers in memory until the container is
// flushed.
type glbSink struct {
	bin      bytes.Buffer
	owner    string // id of the buffer stored in the BIN chunk
	fallback binarySink
}

func (s *glbSink) writer(buf Buffer) (io.Writer, error) {
	if buf.URI != "" {
		return s.fallback.writer(buf)
	}
	if s.owner == "" {
		s.owner = buf.ID
	} else if s.owner != buf.ID {
		return nil, contractErr("glb.buffer", "GLB holds one embedded buffer (%q), got %q", s.owner, buf.ID)
	}
	return &s.bin, nil
}

// GLBResourceWriter collects the embedded buffer (empty uri) in memory and
// emits the GLB container on Flush. Buffers with a uri are written to
// external streams as ResourceWriter does.
type GLBResourceWriter struct {
	*ResourceWriter
	glb *glbSink
}

func NewGLBResourceWriter(provider StreamProvider, opts ...Option) *GLBResourceWriter {
	w := NewResourceWriter(provider, opts...)
	sink := &glbSink{fallback: w.sink}
	w.sink = sink
	return &GLBResourceWriter{ResourceWriter: w, glb: sink}
}

// FlushTo writes the GLB container holding manifest and the embedded
// buffer to out.
func (w *GLBResourceWriter) FlushTo(out io.Writer, manifest string) error {
	if err := WriteGLB(out, []byte(manifest), w.glb.bin.Bytes()); err != nil {
		return err
	}
	w.logger.Debug("glb flushed", "json", len(manifest), "bin", w.glb.bin.Len())
	return nil
}

// Flush writes the GLB container to the stream the provider opens for uri.
func (w *GLBResourceWriter) Flush(manifest, uri string) error {
	out, err := w.provider.OutputStream(uri)
	if err != nil {
		return wrapDataErr("stream.open", err, "cannot create %q", uri)
	}
	if err = w.FlushTo(out, manifest); err != nil {
		closeIfCloser(out)
		return err
	}
	return closeIfCloser(out)
}
