package gltfio

import (
	"encoding/binary"
	"io"
	"math"
)

const (
	glbMagic           = 0x46546C67 // "glTF"
	glbVersion         = 2
	glbHeaderSize      = 12
	glbChunkHeaderSize = 8
)

// glbLayout is the parsed framing of a GLB stream.
type glbLayout struct {
	length    uint64
	jsonStart uint64
	jsonLen   uint64
	binStart  uint64 // payload offset of the BIN chunk, 0 if absent
	binLen    uint64
	hasBIN    bool
}

// parseGLB validates the GLB framing of s, which must be positioned at the
// start of the container. Checks run in a fixed order and the first
// failure wins.
func parseGLB(s io.ReadSeeker) (l glbLayout, err error) {
	size, err := streamSize(s)
	if err != nil {
		return l, wrapDataErr("glb.header", err, "cannot measure stream")
	}
	var header [3]uint32
	if err = binary.Read(s, binary.LittleEndian, header[:]); err != nil {
		return l, wrapDataErr("glb.header", err, "short GLB header")
	}
	if header[0] != glbMagic {
		return l, dataErr("glb.magic", "not a glTF file")
	}
	if header[1] != glbVersion {
		return l, dataErr("glb.version", "unsupported glTF version %d", header[1])
	}
	l.length = uint64(header[2])
	if l.length != uint64(size) {
		return l, dataErr("glb.length", "header declares %d bytes, stream has %d", l.length, size)
	}

	var chunk [2]uint32
	if err = binary.Read(s, binary.LittleEndian, chunk[:]); err != nil {
		return l, wrapDataErr("glb.json_length", err, "missing JSON chunk header")
	}
	l.jsonLen = uint64(chunk[0])
	l.jsonStart = glbHeaderSize + glbChunkHeaderSize
	jsonEnd := l.jsonStart + l.jsonLen
	if jsonEnd > l.length {
		return l, dataErr("glb.json_length", "JSON chunk of %d bytes exceeds total length %d", l.jsonLen, l.length)
	}
	if chunk[1] != ChunkJSON {
		return l, dataErr("glb.json_type", "first chunk is %08X, not JSON", chunk[1])
	}
	if jsonEnd == l.length {
		return l, nil
	}

	if l.length-jsonEnd < glbChunkHeaderSize {
		return l, dataErr("glb.total", "%d trailing bytes after JSON chunk", l.length-jsonEnd)
	}
	if _, err = s.Seek(int64(jsonEnd), io.SeekStart); err != nil {
		return l, wrapDataErr("glb.bin_type", err, "cannot seek to BIN chunk")
	}
	if err = binary.Read(s, binary.LittleEndian, chunk[:]); err != nil {
		return l, wrapDataErr("glb.bin_type", err, "short BIN chunk header")
	}
	if chunk[1] != ChunkBIN {
		return l, dataErr("glb.bin_type", "second chunk is %08X, not BIN", chunk[1])
	}
	l.binLen = uint64(chunk[0])
	l.binStart = jsonEnd + glbChunkHeaderSize
	if l.binStart+l.binLen != l.length {
		return l, dataErr("glb.total", "chunks add up to %d bytes, header declares %d", l.binStart+l.binLen, l.length)
	}
	l.hasBIN = true
	return l, nil
}

// GLBResourceReader is a ResourceReader over an open GLB stream. Buffers
// with an empty uri resolve to the BIN chunk; others go through the cache.
type GLBResourceReader struct {
	*ResourceReader
	json   string
	layout glbLayout
}

// glbSource serves empty-uri buffers from the BIN chunk of the open GLB
// stream.
type glbSource struct {
	r        io.ReadSeeker
	layout   glbLayout
	fallback binarySource
}

func (s glbSource) stream(buf Buffer) (io.ReadSeeker, int64, int64, error) {
	if buf.URI != "" {
		return s.fallback.stream(buf)
	}
	if !s.layout.hasBIN {
		return nil, 0, 0, dataErr("glb.bin_missing", "buffer %q refers to the BIN chunk, which is absent", buf.ID)
	}
	if buf.ByteLength > s.layout.binLen {
		return nil, 0, 0, dataErr("glb.bin_length", "buffer %q is %d bytes, BIN chunk has %d", buf.ID, buf.ByteLength, s.layout.binLen)
	}
	return s.r, int64(s.layout.binStart), int64(s.layout.binLen), nil
}

// NewGLBResourceReader parses the GLB framing of stream. The stream stays
// owned by the caller and must outlive the reader.
func NewGLBResourceReader(provider StreamProvider, stream io.ReadSeeker, opts ...Option) (*GLBResourceReader, error) {
	r, err := NewResourceReader(provider, opts...)
	if err != nil {
		return nil, err
	}
	if _, err = stream.Seek(0, io.SeekStart); err != nil {
		return nil, wrapDataErr("glb.header", err, "cannot rewind stream")
	}
	layout, err := parseGLB(stream)
	if err != nil {
		return nil, err
	}
	jsonBytes := make([]byte, layout.jsonLen)
	if _, err = stream.Seek(int64(layout.jsonStart), io.SeekStart); err != nil {
		return nil, wrapDataErr("glb.json_length", err, "cannot seek to JSON chunk")
	}
	if _, err = io.ReadFull(stream, jsonBytes); err != nil {
		return nil, wrapDataErr("glb.json_length", err, "short JSON chunk")
	}
	r.source = glbSource{r: stream, layout: layout, fallback: r.source}
	r.logger.Debug("glb parsed", "length", layout.length, "json", layout.jsonLen, "bin", layout.binLen)
	return &GLBResourceReader{
		ResourceReader: r,
		json:           string(jsonBytes),
		layout:         layout,
	}, nil
}

// JSON returns the manifest stored in the JSON chunk, padding included.
func (r *GLBResourceReader) JSON() string {
	return r.json
}

// BinaryChunk returns the payload offset and length of the BIN chunk.
// ok is false when the container has no BIN chunk.
func (r *GLBResourceReader) BinaryChunk() (offset, length int64, ok bool) {
	return int64(r.layout.binStart), int64(r.layout.binLen), r.layout.hasBIN
}

// ReadGLB 把GLB格式解码为JSON和BIN两个块. 没有BIN块时bin为空.
func ReadGLB(s io.ReadSeeker) (json, bin []byte, err error) {
	layout, err := parseGLB(s)
	if err != nil {
		return nil, nil, err
	}
	json = make([]byte, layout.jsonLen)
	if _, err = s.Seek(int64(layout.jsonStart), io.SeekStart); err != nil {
		return nil, nil, wrapDataErr("glb.json_length", err, "cannot seek to JSON chunk")
	}
	if _, err = io.ReadFull(s, json); err != nil {
		return nil, nil, wrapDataErr("glb.json_length", err, "short JSON chunk")
	}
	if !layout.hasBIN {
		return json, nil, nil
	}
	bin = make([]byte, layout.binLen)
	if _, err = s.Seek(int64(layout.binStart), io.SeekStart); err != nil {
		return nil, nil, wrapDataErr("glb.total", err, "cannot seek to BIN chunk")
	}
	if _, err = io.ReadFull(s, bin); err != nil {
		return nil, nil, wrapDataErr("glb.total", err, "short BIN chunk")
	}
	return json, bin, nil
}

func pad4(n uint64) uint64 {
	return (4 - n%4) % 4
}

// WriteGLB 把JSON和BIN两个块组合成GLB格式写入w. JSON块用空格补齐4字节, BIN块用0补齐.
// bin为空时不输出BIN块.
func WriteGLB(w io.Writer, json, bin []byte) (err error) {
	padJSON := pad4(uint64(len(json)))
	padBIN := pad4(uint64(len(bin)))

	length := uint64(glbHeaderSize+glbChunkHeaderSize+len(json)) + padJSON
	if len(bin) != 0 {
		length += glbChunkHeaderSize + uint64(len(bin)) + padBIN
	}
	if length > math.MaxUint32 {
		return contractErr("glb.overflow", "GLB of %d bytes exceeds 4GiB", length)
	}

	head := make([]byte, 0, glbHeaderSize+glbChunkHeaderSize)
	head = binary.LittleEndian.AppendUint32(head, glbMagic)
	head = binary.LittleEndian.AppendUint32(head, glbVersion)
	head = binary.LittleEndian.AppendUint32(head, uint32(length))
	head = binary.LittleEndian.AppendUint32(head, uint32(uint64(len(json))+padJSON))
	head = binary.LittleEndian.AppendUint32(head, ChunkJSON)
	if _, err = w.Write(head); err != nil {
		return
	}
	if _, err = w.Write(json); err != nil {
		return
	}
	if padJSON != 0 {
		pad := [3]byte{' ', ' ', ' '}
		if _, err = w.Write(pad[:padJSON]); err != nil {
			return
		}
	}

	if len(bin) == 0 {
		return // 无BIN可以不输出
	}
	head = binary.LittleEndian.AppendUint32(head[:0], uint32(uint64(len(bin))+padBIN))
	head = binary.LittleEndian.AppendUint32(head, ChunkBIN)
	if _, err = w.Write(head); err != nil {
		return
	}
	if _, err = w.Write(bin); err != nil {
		return
	}
	if padBIN != 0 {
		pad := [3]byte{0, 0, 0}
		if _, err = w.Write(pad[:padBIN]); err != nil {
			return
		}
	}
	return
}
