package gltfio

import (
	"slices"
	"strconv"
)

type EntityKind int

const (
	KindBuffer EntityKind = iota
	KindBufferView
	KindAccessor
)

func (k EntityKind) String() string {
	switch k {
	case KindBuffer:
		return "buffer"
	case KindBufferView:
		return "bufferView"
	case KindAccessor:
		return "accessor"
	default:
		return strconv.Itoa(int(k))
	}
}

// IDAllocator names the records a BufferBuilder creates. count is the
// number of records of that kind the builder currently holds, i.e. not yet
// moved out by Output.
type IDAllocator interface {
	NextID(kind EntityKind, count int) string
}

type IDAllocatorFunc func(kind EntityKind, count int) string

func (f IDAllocatorFunc) NextID(kind EntityKind, count int) string {
	return f(kind, count)
}

// DocumentIDAllocator continues the index-style id space of doc, so that
// the builder's output can be merged into it.
func DocumentIDAllocator(doc *Document) IDAllocator {
	return IDAllocatorFunc(func(kind EntityKind, count int) string {
		switch kind {
		case KindBuffer:
			count += doc.Buffers.Len()
		case KindBufferView:
			count += doc.BufferViews.Len()
		case KindAccessor:
			count += doc.Accessors.Len()
		}
		return strconv.Itoa(count)
	})
}

// sequentialIDs numbers each kind from 0 for the lifetime of a builder.
type sequentialIDs struct {
	next [3]int
}

func (s *sequentialIDs) NextID(kind EntityKind, _ int) string {
	id := strconv.Itoa(s.next[kind])
	s.next[kind]++
	return id
}

// AccessorDesc describes an accessor to add. ByteOffset is only used by
// AddAccessors, where it is the offset inside each interleaved element.
type AccessorDesc struct {
	Type          AccessorType
	ComponentType ComponentType
	Normalized    bool
	ByteOffset    uint64
	Min, Max      []float64

	// ComputeBounds fills Min and Max from the data when both are nil.
	ComputeBounds bool
}

func (d AccessorDesc) elementSize() uint64 {
	return d.ComponentType.Size() * d.Type.ComponentCount()
}

func (d AccessorDesc) validate(requirePair bool) error {
	n := d.Type.ComponentCount()
	if n == 0 {
		return contractErr("builder.type", "accessor type is unknown")
	}
	if d.ComponentType.Size() == 0 {
		return contractErr("builder.component_type", "componentType %s is unknown", d.ComponentType)
	}
	if requirePair && (d.Min == nil) != (d.Max == nil) {
		return contractErr("builder.min_max", "min and max must be given together")
	}
	if d.Min != nil && uint64(len(d.Min)) != n {
		return contractErr("builder.min_max", "min has %d values, %s needs %d", len(d.Min), d.Type, n)
	}
	if d.Max != nil && uint64(len(d.Max)) != n {
		return contractErr("builder.min_max", "max has %d values, %s needs %d", len(d.Max), d.Type, n)
	}
	return nil
}

// BufferBuilder lays out buffers, bufferViews and accessors for a new
// document, writing the data through its Writer as it goes. It owns the
// writer and is not safe for concurrent use.
type BufferBuilder struct {
	w   Writer
	ids IDAllocator

	buffers   []Buffer
	views     []BufferView
	accessors []Accessor
}

// NewBufferBuilder takes ownership of w. With a nil alloc, ids are decimal
// sequence numbers per kind.
func NewBufferBuilder(w Writer, alloc IDAllocator) *BufferBuilder {
	if alloc == nil {
		alloc = &sequentialIDs{}
	}
	return &BufferBuilder{w: w, ids: alloc}
}

func (b *BufferBuilder) Writer() Writer {
	return b.w
}

// AddBuffer starts a new buffer; following bufferViews go into it. An
// empty uri selects the embedded GLB buffer of a GLBResourceWriter.
func (b *BufferBuilder) AddBuffer(uri string) (Buffer, error) {
	buf := Buffer{
		ID:  b.ids.NextID(KindBuffer, len(b.buffers)),
		URI: uri,
	}
	for _, other := range b.buffers {
		if other.ID == buf.ID {
			return Buffer{}, contractErr("builder.duplicate_id", "buffer id %q already in use", buf.ID)
		}
	}
	buf.ByteLength = b.w.Cursor(buf.ID)
	b.buffers = append(b.buffers, buf)
	return buf, nil
}

func (b *BufferBuilder) currentBuffer() (*Buffer, error) {
	if len(b.buffers) == 0 {
		return nil, contractErr("builder.no_buffer", "AddBuffer must be called first")
	}
	return &b.buffers[len(b.buffers)-1], nil
}

func (b *BufferBuilder) currentView() (*BufferView, *Buffer, error) {
	if len(b.views) == 0 {
		return nil, nil, contractErr("builder.no_buffer_view", "AddBufferView must be called first")
	}
	bv := &b.views[len(b.views)-1]
	for i := range b.buffers {
		if b.buffers[i].ID == bv.BufferID {
			return bv, &b.buffers[i], nil
		}
	}
	return nil, nil, contractErr("builder.no_buffer", "buffer %q of bufferView %q is gone", bv.BufferID, bv.ID)
}

// AddBufferView starts an empty bufferView in the current buffer, to be
// filled by AddAccessor or AddAccessors.
func (b *BufferBuilder) AddBufferView(target BufferViewTarget) (BufferView, error) {
	buf, err := b.currentBuffer()
	if err != nil {
		return BufferView{}, err
	}
	bv := BufferView{
		ID:         b.ids.NextID(KindBufferView, len(b.views)),
		BufferID:   buf.ID,
		ByteOffset: b.w.Cursor(buf.ID),
		Target:     target,
	}
	b.views = append(b.views, bv)
	return bv, nil
}

// AddBufferViewData adds a bufferView holding data, written immediately.
func (b *BufferBuilder) AddBufferViewData(data []byte, byteStride uint32, target BufferViewTarget) (BufferView, error) {
	if len(data) == 0 {
		return BufferView{}, contractErr("builder.empty", "bufferView data is empty")
	}
	if _, err := b.AddBufferView(target); err != nil {
		return BufferView{}, err
	}
	bv, buf, err := b.currentView()
	if err != nil {
		return BufferView{}, err
	}
	bv.ByteLength = uint64(len(data))
	bv.ByteStride = byteStride
	if err = b.w.WriteBufferView(*buf, *bv, data); err != nil {
		b.views = b.views[:len(b.views)-1]
		return BufferView{}, err
	}
	buf.ByteLength = b.w.Cursor(buf.ID)
	return *bv, nil
}

// viewStart is where the current bufferView starts once written: an
// unwritten view moves forward to the next multiple of align.
func (b *BufferBuilder) viewStart(bv *BufferView, buf *Buffer, align uint64) uint64 {
	if bv.ByteLength != 0 {
		return bv.ByteOffset
	}
	cur := b.w.Cursor(buf.ID)
	return (cur + align - 1) / align * align
}

// placeView zero-fills the buffer up to start and moves the unwritten
// bufferView there.
func (b *BufferBuilder) placeView(bv *BufferView, buf *Buffer, start uint64) error {
	if bv.ByteLength != 0 {
		return nil
	}
	if err := b.w.WritePadding(*buf, start); err != nil {
		return err
	}
	bv.ByteOffset = start
	buf.ByteLength = b.w.Cursor(buf.ID)
	return nil
}

func checkAlignment(viewOffset, offset uint64, ct ComponentType) error {
	size := ct.Size()
	if offset%size != 0 {
		return contractErr("builder.alignment", "offset %d in bufferView is not a multiple of %s size %d", offset, ct, size)
	}
	abs, ok := SafeAddition(viewOffset, offset)
	if !ok {
		return contractErr("builder.extent", "offset %d in bufferView overflows", offset)
	}
	if abs%size != 0 {
		return contractErr("builder.alignment", "offset %d in buffer is not a multiple of %s size %d", abs, ct, size)
	}
	return nil
}

// AddAccessor appends data, tightly packed desc elements, to the current
// bufferView and creates an accessor for it.
func (b *BufferBuilder) AddAccessor(data []byte, desc AccessorDesc) (Accessor, error) {
	if err := desc.validate(false); err != nil {
		return Accessor{}, err
	}
	elem := desc.elementSize()
	if len(data) == 0 {
		return Accessor{}, contractErr("builder.count", "accessor count is 0")
	}
	if uint64(len(data))%elem != 0 {
		return Accessor{}, contractErr("builder.data_size", "%d bytes are not whole %d-byte elements", len(data), elem)
	}
	bv, buf, err := b.currentView()
	if err != nil {
		return Accessor{}, err
	}
	start := b.viewStart(bv, buf, desc.ComponentType.Size())
	if err = checkAlignment(start, bv.ByteLength, desc.ComponentType); err != nil {
		return Accessor{}, err
	}

	acc := Accessor{
		BufferViewID:  bv.ID,
		ByteOffset:    bv.ByteLength,
		ComponentType: desc.ComponentType,
		Type:          desc.Type,
		Normalized:    desc.Normalized,
		Count:         uint64(len(data)) / elem,
		Min:           slices.Clone(desc.Min),
		Max:           slices.Clone(desc.Max),
	}
	if desc.ComputeBounds && acc.Min == nil && acc.Max == nil {
		if acc.Min, acc.Max, err = minMaxOfBytes(acc, data); err != nil {
			return Accessor{}, err
		}
	}

	// nothing is written or allocated until every check has passed
	if err = b.placeView(bv, buf, start); err != nil {
		return Accessor{}, err
	}
	acc.ID = b.ids.NextID(KindAccessor, len(b.accessors))
	grown := *bv
	grown.ByteLength += uint64(len(data))
	if err = b.w.WriteAccessor(*buf, grown, acc, data); err != nil {
		return Accessor{}, err
	}
	*bv = grown
	buf.ByteLength = b.w.Cursor(buf.ID)
	b.accessors = append(b.accessors, acc)
	return acc, nil
}

// AddAccessorOf is AddAccessor for typed data. T must match
// desc.ComponentType.
func AddAccessorOf[T Component](b *BufferBuilder, data []T, desc AccessorDesc) (Accessor, error) {
	if ct := componentTypeOf[T](); ct != desc.ComponentType {
		return Accessor{}, contractErr("builder.type_mismatch", "data is %s, descriptor says %s", ct, desc.ComponentType)
	}
	return b.AddAccessor(EncodeComponents(data), desc)
}

// AddAccessors fills the current, still empty bufferView with count
// interleaved elements of byteStride bytes and creates one accessor per
// descriptor. Several descriptors need an explicit stride; a single one
// with stride 0 is tightly packed.
func (b *BufferBuilder) AddAccessors(data []byte, count uint64, byteStride uint32, descs []AccessorDesc) ([]Accessor, error) {
	if count == 0 {
		return nil, contractErr("builder.count", "accessor count is 0")
	}
	if len(descs) == 0 {
		return nil, contractErr("builder.descriptors", "no accessor descriptors")
	}
	for _, d := range descs {
		if err := d.validate(true); err != nil {
			return nil, err
		}
	}
	bv, buf, err := b.currentView()
	if err != nil {
		return nil, err
	}
	if bv.ByteLength != 0 {
		return nil, contractErr("builder.view_written", "bufferView %q already holds data", bv.ID)
	}

	stride := uint64(byteStride)
	if stride == 0 {
		if len(descs) > 1 {
			return nil, contractErr("builder.stride", "%d interleaved accessors need a byteStride", len(descs))
		}
		stride = descs[0].elementSize()
	}
	var align uint64
	for _, d := range descs {
		end, ok := SafeAddition(d.ByteOffset, d.elementSize())
		if !ok || end > stride {
			return nil, contractErr("builder.extent", "%s %s at offset %d does not fit a %d-byte element", d.Type, d.ComponentType, d.ByteOffset, stride)
		}
		if stride%d.ComponentType.Size() != 0 {
			return nil, contractErr("builder.alignment", "stride %d is not a multiple of %s size", stride, d.ComponentType)
		}
		align = max(align, d.ComponentType.Size())
	}
	extent, ok := SafeMultiplication(count, stride)
	if !ok {
		return nil, contractErr("builder.extent", "%d elements of %d bytes overflow", count, stride)
	}
	if uint64(len(data)) != extent {
		return nil, contractErr("builder.data_size", "expected %d bytes, got %d", extent, len(data))
	}
	start := b.viewStart(bv, buf, align)

	out := make([]Accessor, 0, len(descs))
	for _, d := range descs {
		if err = checkAlignment(start, d.ByteOffset, d.ComponentType); err != nil {
			return nil, err
		}
		acc := Accessor{
			BufferViewID:  bv.ID,
			ByteOffset:    d.ByteOffset,
			ComponentType: d.ComponentType,
			Type:          d.Type,
			Normalized:    d.Normalized,
			Count:         count,
			Min:           slices.Clone(d.Min),
			Max:           slices.Clone(d.Max),
		}
		if d.ComputeBounds && acc.Min == nil {
			// d.ByteOffset+elem <= stride, so every element lies inside data
			elem := d.elementSize()
			packed := make([]byte, 0, count*elem)
			for j := uint64(0); j < count; j++ {
				at := j*stride + d.ByteOffset
				packed = append(packed, data[at:at+elem]...)
			}
			if acc.Min, acc.Max, err = minMaxOfBytes(acc, packed); err != nil {
				return nil, err
			}
		}
		out = append(out, acc)
	}

	if err = b.placeView(bv, buf, start); err != nil {
		return nil, err
	}
	grown := *bv
	grown.ByteLength = extent
	if len(descs) > 1 || byteStride != 0 {
		grown.ByteStride = uint32(stride)
	}
	for i := range out {
		out[i].ID = b.ids.NextID(KindAccessor, len(b.accessors)+i)
	}
	if err = b.w.WriteBufferView(*buf, grown, data); err != nil {
		return nil, err
	}
	*bv = grown
	buf.ByteLength = b.w.Cursor(buf.ID)
	b.accessors = append(b.accessors, out...)
	return out, nil
}

// minMaxOfBytes decodes tightly packed accessor data and computes its
// bounds.
func minMaxOfBytes(acc Accessor, data []byte) ([]float64, []float64, error) {
	switch acc.ComponentType {
	case BYTE:
		return minMaxOf[int8](acc, data)
	case UNSIGNED_BYTE:
		return minMaxOf[uint8](acc, data)
	case SHORT:
		return minMaxOf[int16](acc, data)
	case UNSIGNED_SHORT:
		return minMaxOf[uint16](acc, data)
	case UNSIGNED_INT:
		return minMaxOf[uint32](acc, data)
	case FLOAT:
		return minMaxOf[float32](acc, data)
	}
	return nil, nil, contractErr("builder.component_type", "componentType %s is unknown", acc.ComponentType)
}

func minMaxOf[T Component](acc Accessor, data []byte) ([]float64, []float64, error) {
	values, err := decodeComponents[T](data)
	if err != nil {
		return nil, nil, err
	}
	return CalculateMinMax(acc, values)
}

// Output moves every buffer, bufferView and accessor built so far into doc
// and resets the builder. Nothing is moved if any id is already taken.
func (b *BufferBuilder) Output(doc *Document) error {
	for _, buf := range b.buffers {
		if doc.Buffers.Has(buf.ID) {
			return contractErr("document.duplicate_id", "buffer id %q already in use", buf.ID)
		}
	}
	for _, bv := range b.views {
		if doc.BufferViews.Has(bv.ID) {
			return contractErr("document.duplicate_id", "bufferView id %q already in use", bv.ID)
		}
	}
	for _, acc := range b.accessors {
		if doc.Accessors.Has(acc.ID) {
			return contractErr("document.duplicate_id", "accessor id %q already in use", acc.ID)
		}
	}
	for _, buf := range b.buffers {
		if _, err := doc.Buffers.Append(buf); err != nil {
			return err
		}
	}
	for _, bv := range b.views {
		if _, err := doc.BufferViews.Append(bv); err != nil {
			return err
		}
	}
	for _, acc := range b.accessors {
		if _, err := doc.Accessors.Append(acc); err != nil {
			return err
		}
	}
	b.buffers, b.views, b.accessors = nil, nil, nil
	return nil
}
