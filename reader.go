package gltfio

import (
	"bytes"
	"encoding/binary"
	"io"
	"log/slog"
	"math"
)

// Component is the set of native types an accessor can be read into. Each
// one corresponds to exactly one glTF componentType.
type Component interface {
	int8 | uint8 | int16 | uint16 | uint32 | float32
}

// componentTypeOf returns the glTF componentType matching T.
func componentTypeOf[T Component]() ComponentType {
	var zero T
	switch any(zero).(type) {
	case int8:
		return BYTE
	case uint8:
		return UNSIGNED_BYTE
	case int16:
		return SHORT
	case uint16:
		return UNSIGNED_SHORT
	case uint32:
		return UNSIGNED_INT
	case float32:
		return FLOAT
	}
	return ComponentUnknown
}

// Option configures a ResourceReader or ResourceWriter.
type Option func(*options)

type options struct {
	cache     StreamCache
	cacheSize int
	logger    *slog.Logger
}

// WithStreamCache makes the reader use c instead of creating its own. The
// reader takes ownership of c.
func WithStreamCache(c StreamCache) Option {
	return func(o *options) { o.cache = c }
}

// WithCacheSize bounds the reader's stream cache to n open streams (LRU).
func WithCacheSize(n int) Option {
	return func(o *options) { o.cacheSize = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = orDiscard(o.logger)
	return o
}

// binarySource locates the bytes of a buffer: a stream, the offset of the
// buffer's first byte inside it and the number of bytes available from
// there.
type binarySource interface {
	stream(buf Buffer) (s io.ReadSeeker, base, avail int64, err error)
}

type measuredStream struct {
	s    io.ReadSeeker
	size int64
}

// cacheSource opens buffers by uri through a StreamCache and remembers the
// size of each stream it hands out.
type cacheSource struct {
	cache StreamCache
	sizes map[string]measuredStream
}

func (c *cacheSource) stream(buf Buffer) (io.ReadSeeker, int64, int64, error) {
	if buf.URI == "" {
		return nil, 0, 0, dataErr("buffer.uri", "buffer %q has no uri", buf.ID)
	}
	st, err := c.cache.Get(buf.URI)
	if err != nil {
		return nil, 0, 0, err
	}
	// a reopened or replaced stream is measured again
	if m, ok := c.sizes[buf.URI]; ok && m.s == st {
		return st, 0, m.size, nil
	}
	size, err := streamSize(st)
	if err != nil {
		return nil, 0, 0, wrapDataErr("stream.seek", err, "cannot measure %q", buf.URI)
	}
	c.sizes[buf.URI] = measuredStream{s: st, size: size}
	return st, 0, size, nil
}

// ResourceReader decodes accessor, bufferView and image payloads.
// It is not safe for concurrent use.
type ResourceReader struct {
	cache  StreamCache
	source binarySource
	logger *slog.Logger
}

// NewResourceReader returns a reader resolving external uris through
// provider. The provider is borrowed, not owned.
func NewResourceReader(provider StreamProvider, opts ...Option) (*ResourceReader, error) {
	o := buildOptions(opts)
	cache := o.cache
	if cache == nil {
		if o.cacheSize > 0 {
			var err error
			if cache, err = NewStreamCacheLRU(provider, o.cacheSize, o.logger); err != nil {
				return nil, err
			}
		} else {
			cache = NewStreamCache(provider, o.logger)
		}
	}
	return &ResourceReader{
		cache:  cache,
		source: &cacheSource{cache: cache, sizes: make(map[string]measuredStream)},
		logger: o.logger,
	}, nil
}

// Close releases every stream opened by the reader's cache.
func (r *ResourceReader) Close() error {
	return r.cache.Close()
}

// readRange reads length bytes at offset inside buffer bufferID.
func (r *ResourceReader) readRange(doc *Document, bufferID string, offset, length uint64) ([]byte, error) {
	buf, err := doc.Buffers.Get(bufferID)
	if err != nil {
		return nil, err
	}
	if IsDataURI(buf.URI) {
		return decodeDataURIRange(buf.URI, offset, length)
	}
	s, base, avail, err := r.source.stream(buf)
	if err != nil {
		return nil, err
	}
	end, ok := SafeAddition(offset, length)
	if !ok || end > uint64(avail) {
		return nil, dataErr("stream.range", "range [%d, +%d) of buffer %q exceeds the %d bytes of its stream", offset, length, buf.ID, avail)
	}
	if length > math.MaxInt {
		return nil, dataErr("stream.range", "range [%d, +%d) of buffer %q is not addressable", offset, length, buf.ID)
	}
	if _, err = s.Seek(base+int64(offset), io.SeekStart); err != nil {
		return nil, wrapDataErr("stream.seek", err, "buffer %q offset %d", buf.ID, offset)
	}
	data := make([]byte, length)
	if _, err = io.ReadFull(s, data); err != nil {
		return nil, wrapDataErr("stream.read", err, "buffer %q: %d bytes at offset %d", buf.ID, length, offset)
	}
	return data, nil
}

// readRegion reads count elements of typ/ct starting offset bytes into
// bufferView viewID, following the view's stride. The result is tightly
// packed.
func (r *ResourceReader) readRegion(doc *Document, viewID string, offset, count uint64, typ AccessorType, ct ComponentType) ([]byte, error) {
	bv, err := doc.BufferViews.Get(viewID)
	if err != nil {
		return nil, err
	}
	elem := ct.Size() * typ.ComponentCount()
	start, ok := SafeAddition(bv.ByteOffset, offset)
	if !ok {
		return nil, dataErr("accessor.overflow", "bufferView %q offset overflows", bv.ID)
	}
	total, ok := SafeMultiplication(count, elem)
	if !ok {
		return nil, dataErr("accessor.overflow", "%d elements of %d bytes overflow", count, elem)
	}

	stride := uint64(bv.ByteStride)
	if stride == 0 || stride == elem {
		return r.readRange(doc, bv.BufferID, start, total)
	}

	// one read covers every element, the gaps are dropped
	span, err := regionByteLength(bv, count, typ, ct)
	if err != nil {
		return nil, err
	}
	raw, err := r.readRange(doc, bv.BufferID, start, span)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, total)
	for i := uint64(0); i < count; i++ {
		out = append(out, raw[i*stride:i*stride+elem]...)
	}
	return out, nil
}

func decodeComponents[T Component](raw []byte) ([]T, error) {
	var zero T
	out := make([]T, len(raw)/binary.Size(zero))
	if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, out); err != nil {
		return nil, wrapDataErr("read.decode", err, "cannot decode %d bytes", len(raw))
	}
	return out, nil
}

// ReadAccessor returns the raw component values of acc, count *
// componentCount of them. T must match acc.ComponentType exactly; sparse
// substitution is applied.
func ReadAccessor[T Component](r *ResourceReader, doc *Document, acc Accessor) ([]T, error) {
	if want := componentTypeOf[T](); want != acc.ComponentType {
		return nil, contractErr("read.type_mismatch", "accessor %q is %s, requested %s", acc.ID, acc.ComponentType, want)
	}
	if err := ValidateAccessor(doc, acc); err != nil {
		return nil, err
	}
	cc := acc.Type.ComponentCount()

	var base []T
	if acc.HasBufferView() {
		raw, err := r.readRegion(doc, acc.BufferViewID, acc.ByteOffset, acc.Count, acc.Type, acc.ComponentType)
		if err != nil {
			return nil, err
		}
		if base, err = decodeComponents[T](raw); err != nil {
			return nil, err
		}
	} else {
		n, ok := SafeMultiplication(acc.Count, cc)
		if !ok {
			return nil, dataErr("accessor.overflow", "accessor %q element count overflows", acc.ID)
		}
		base = make([]T, n)
	}

	s := acc.Sparse
	if s == nil {
		return base, nil
	}
	indices, err := r.readSparseIndices(doc, *s)
	if err != nil {
		return nil, err
	}
	raw, err := r.readRegion(doc, s.ValuesBufferViewID, s.ValuesByteOffset, s.Count, acc.Type, acc.ComponentType)
	if err != nil {
		return nil, err
	}
	values, err := decodeComponents[T](raw)
	if err != nil {
		return nil, err
	}
	return applySparse(acc, base, indices, values)
}

// applySparse overwrites the elements of base named by indices. Indices
// are applied in source order, so a repeated index keeps the last value.
func applySparse[T Component](acc Accessor, base []T, indices []uint64, values []T) ([]T, error) {
	cc := acc.Type.ComponentCount()
	for i, idx := range indices {
		if idx >= acc.Count {
			return nil, dataErr("sparse.index", "accessor %q sparse index %d out of range [0, %d)", acc.ID, idx, acc.Count)
		}
		copy(base[idx*cc:(idx+1)*cc], values[uint64(i)*cc:(uint64(i)+1)*cc])
	}
	return base, nil
}

func (r *ResourceReader) readSparseIndices(doc *Document, s Sparse) ([]uint64, error) {
	raw, err := r.readRegion(doc, s.IndicesBufferViewID, s.IndicesByteOffset, s.Count, SCALAR, s.IndicesComponentType)
	if err != nil {
		return nil, err
	}
	out := make([]uint64, s.Count)
	switch s.IndicesComponentType {
	case UNSIGNED_BYTE:
		for i := range out {
			out[i] = uint64(raw[i])
		}
	case UNSIGNED_SHORT:
		for i := range out {
			out[i] = uint64(binary.LittleEndian.Uint16(raw[i*2:]))
		}
	case UNSIGNED_INT:
		for i := range out {
			out[i] = uint64(binary.LittleEndian.Uint32(raw[i*4:]))
		}
	default:
		return nil, dataErr("sparse.indices_component_type", "sparse indices componentType %s", s.IndicesComponentType)
	}
	return out, nil
}

// ReadBufferView returns the bytes of bv reinterpreted as T, ignoring any
// stride.
func ReadBufferView[T Component](r *ResourceReader, doc *Document, bv BufferView) ([]T, error) {
	if err := ValidateBufferView(doc, bv); err != nil {
		return nil, err
	}
	var zero T
	if bv.ByteLength%uint64(binary.Size(zero)) != 0 {
		return nil, contractErr("read.type_mismatch", "bufferView %q length %d is not a multiple of %T", bv.ID, bv.ByteLength, zero)
	}
	raw, err := r.readRange(doc, bv.BufferID, bv.ByteOffset, bv.ByteLength)
	if err != nil {
		return nil, err
	}
	return decodeComponents[T](raw)
}

// ReadImage returns the encoded image bytes. A bufferView wins over a data
// URI, which wins over an external uri.
func (r *ResourceReader) ReadImage(doc *Document, img Image) ([]byte, error) {
	if img.BufferViewID != "" {
		bv, err := doc.BufferViews.Get(img.BufferViewID)
		if err != nil {
			return nil, err
		}
		if err := ValidateBufferView(doc, bv); err != nil {
			return nil, err
		}
		return r.readRange(doc, bv.BufferID, bv.ByteOffset, bv.ByteLength)
	}
	if IsDataURI(img.URI) {
		data, _, err := DecodeDataURI(img.URI)
		return data, err
	}
	if img.URI == "" {
		return nil, dataErr("image.source", "image %q has neither uri nor bufferView", img.ID)
	}
	s, err := r.cache.Get(img.URI)
	if err != nil {
		return nil, err
	}
	if _, err = s.Seek(0, io.SeekStart); err != nil {
		return nil, wrapDataErr("stream.seek", err, "image %q", img.ID)
	}
	data, err := io.ReadAll(s)
	if err != nil {
		return nil, wrapDataErr("stream.read", err, "image %q", img.ID)
	}
	return data, nil
}

// ReadFloats reads any accessor as float32, applying the glTF
// normalization rules when acc.Normalized is set.
func ReadFloats(r *ResourceReader, doc *Document, acc Accessor) ([]float32, error) {
	switch acc.ComponentType {
	case FLOAT:
		return ReadAccessor[float32](r, doc, acc)
	case BYTE:
		return readAsFloats[int8](r, doc, acc)
	case UNSIGNED_BYTE:
		return readAsFloats[uint8](r, doc, acc)
	case SHORT:
		return readAsFloats[int16](r, doc, acc)
	case UNSIGNED_SHORT:
		return readAsFloats[uint16](r, doc, acc)
	case UNSIGNED_INT:
		return readAsFloats[uint32](r, doc, acc)
	}
	return nil, dataErr("accessor.component_type", "accessor %q has unknown componentType %s", acc.ID, acc.ComponentType)
}

func readAsFloats[T Component](r *ResourceReader, doc *Document, acc Accessor) ([]float32, error) {
	values, err := ReadAccessor[T](r, doc, acc)
	if err != nil {
		return nil, err
	}
	out := make([]float32, len(values))
	for i, v := range values {
		out[i] = ComponentToFloat(v, acc.Normalized)
	}
	return out, nil
}
