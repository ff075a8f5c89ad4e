package gltfio

import (
	"math/bits"
)

// SafeAddition returns a+b and false if the sum does not fit in 64 bits.
func SafeAddition(a, b uint64) (uint64, bool) {
	sum, carry := bits.Add64(a, b, 0)
	return sum, carry == 0
}

// SafeMultiplication returns a*b and false if the product does not fit in
// 64 bits.
func SafeMultiplication(a, b uint64) (uint64, bool) {
	hi, lo := bits.Mul64(a, b)
	return lo, hi == 0
}

// ValidateBufferView checks that bv lies inside its buffer.
func ValidateBufferView(doc *Document, bv BufferView) error {
	buf, err := doc.Buffers.Get(bv.BufferID)
	if err != nil {
		return err
	}
	end, ok := SafeAddition(bv.ByteOffset, bv.ByteLength)
	if !ok {
		return dataErr("bufferview.overflow", "bufferView %q offset %d + length %d overflows", bv.ID, bv.ByteOffset, bv.ByteLength)
	}
	if end > buf.ByteLength {
		return dataErr("bufferview.range", "bufferView %q ends at %d, past buffer %q length %d", bv.ID, end, buf.ID, buf.ByteLength)
	}
	return nil
}

// ValidateAccessorTypes checks the type, the component type and the arity
// of min/max.
func ValidateAccessorTypes(acc Accessor) error {
	if acc.ComponentType.Size() == 0 {
		return dataErr("accessor.component_type", "accessor %q has unknown componentType %s", acc.ID, acc.ComponentType)
	}
	n := acc.Type.ComponentCount()
	if n == 0 {
		return dataErr("accessor.type", "accessor %q has unknown type %d", acc.ID, uint32(acc.Type))
	}
	if acc.Min != nil && uint64(len(acc.Min)) != n {
		return dataErr("accessor.min", "accessor %q min has %d values, %s needs %d", acc.ID, len(acc.Min), acc.Type, n)
	}
	if acc.Max != nil && uint64(len(acc.Max)) != n {
		return dataErr("accessor.max", "accessor %q max has %d values, %s needs %d", acc.ID, len(acc.Max), acc.Type, n)
	}
	return nil
}

// ValidateAccessor checks that acc, its sparse sub-regions and every
// bufferView and buffer they reference are in range and aligned.
func ValidateAccessor(doc *Document, acc Accessor) error {
	if err := ValidateAccessorTypes(acc); err != nil {
		return err
	}
	if acc.Count == 0 {
		return dataErr("accessor.count", "accessor %q has count 0", acc.ID)
	}
	if acc.HasBufferView() {
		if err := validateRegion(doc, acc.ID, acc.BufferViewID, acc.ByteOffset, acc.Count, acc.Type, acc.ComponentType); err != nil {
			return err
		}
	}
	if s := acc.Sparse; s != nil {
		if s.Count == 0 || s.Count > acc.Count {
			return dataErr("sparse.count", "accessor %q sparse count %d not in [1, %d]", acc.ID, s.Count, acc.Count)
		}
		switch s.IndicesComponentType {
		case UNSIGNED_BYTE, UNSIGNED_SHORT, UNSIGNED_INT:
		default:
			return dataErr("sparse.indices_component_type", "accessor %q sparse indices have componentType %s", acc.ID, s.IndicesComponentType)
		}
		if err := validateRegion(doc, acc.ID, s.IndicesBufferViewID, s.IndicesByteOffset, s.Count, SCALAR, s.IndicesComponentType); err != nil {
			return err
		}
		if err := validateRegion(doc, acc.ID, s.ValuesBufferViewID, s.ValuesByteOffset, s.Count, acc.Type, acc.ComponentType); err != nil {
			return err
		}
	}
	return nil
}

// validateRegion checks count elements of typ/ct at offset inside bufferView
// viewID.
func validateRegion(doc *Document, accID, viewID string, offset, count uint64, typ AccessorType, ct ComponentType) error {
	bv, err := doc.BufferViews.Get(viewID)
	if err != nil {
		return err
	}
	if offset > bv.ByteLength {
		return dataErr("accessor.offset", "accessor %q offset %d past bufferView %q length %d", accID, offset, bv.ID, bv.ByteLength)
	}
	length, err := regionByteLength(bv, count, typ, ct)
	if err != nil {
		return err
	}
	end, ok := SafeAddition(offset, length)
	if !ok {
		return dataErr("accessor.overflow", "accessor %q end offset overflows", accID)
	}
	if end > bv.ByteLength {
		return dataErr("accessor.range", "accessor %q needs %d bytes at offset %d, bufferView %q has %d", accID, length, offset, bv.ID, bv.ByteLength)
	}
	abs, ok := SafeAddition(offset, bv.ByteOffset)
	if !ok {
		return dataErr("accessor.overflow", "accessor %q absolute offset overflows", accID)
	}
	if abs%ct.Size() != 0 {
		return dataErr("accessor.alignment", "accessor %q offset %d is not a multiple of %s size %d", accID, abs, ct, ct.Size())
	}
	return ValidateBufferView(doc, bv)
}

// regionByteLength is the number of bytes spanned by count elements,
// honoring the bufferView stride.
func regionByteLength(bv BufferView, count uint64, typ AccessorType, ct ComponentType) (uint64, error) {
	elem, ok := SafeMultiplication(ct.Size(), typ.ComponentCount())
	if !ok {
		return 0, dataErr("accessor.overflow", "element size overflows")
	}
	stride := uint64(bv.ByteStride)
	if stride == 0 || stride == elem {
		n, ok := SafeMultiplication(count, elem)
		if !ok {
			return 0, dataErr("accessor.overflow", "%d elements of %d bytes overflow", count, elem)
		}
		return n, nil
	}
	if stride < elem {
		return 0, dataErr("bufferview.stride", "bufferView %q stride %d is smaller than element size %d", bv.ID, stride, elem)
	}
	if count == 0 {
		return 0, nil
	}
	// stride * (count-1) + elem
	n, ok := SafeMultiplication(stride, count-1)
	if ok {
		n, ok = SafeAddition(n, elem)
	}
	if !ok {
		return 0, dataErr("accessor.overflow", "%d strided elements overflow", count)
	}
	return n, nil
}

// ValidateResources runs every range, alignment and mesh check over doc.
func ValidateResources(doc *Document) error {
	for _, bv := range doc.BufferViews.Elements() {
		if err := ValidateBufferView(doc, bv); err != nil {
			return err
		}
	}
	for _, acc := range doc.Accessors.Elements() {
		if err := ValidateAccessor(doc, acc); err != nil {
			return err
		}
	}
	for _, img := range doc.Images.Elements() {
		if err := validateImage(doc, img); err != nil {
			return err
		}
	}
	for _, m := range doc.Meshes.Elements() {
		for _, prim := range m.Primitives {
			if err := ValidateMeshPrimitive(doc, prim); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateImage(doc *Document, img Image) error {
	switch {
	case img.URI == "" && img.BufferViewID == "":
		return dataErr("image.source", "image %q has neither uri nor bufferView", img.ID)
	case img.URI != "" && img.BufferViewID != "":
		return dataErr("image.source", "image %q has both uri and bufferView", img.ID)
	case img.BufferViewID != "":
		if img.MimeType == "" {
			return dataErr("image.mime_type", "image %q stored in a bufferView needs a mimeType", img.ID)
		}
		bv, err := doc.BufferViews.Get(img.BufferViewID)
		if err != nil {
			return err
		}
		return ValidateBufferView(doc, bv)
	}
	return nil
}
