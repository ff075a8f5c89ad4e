package gltfio

import (
	"encoding/base64"
	"strings"
)

// IsDataURI reports whether uri is an inline "data:" URI.
func IsDataURI(uri string) bool {
	return strings.HasPrefix(uri, "data:")
}

// dataURI is a parsed data:[<mediatype>][;base64],<data> literal.
type dataURI struct {
	mime    string
	base64  bool
	payload string
}

func parseDataURI(uri string) (d dataURI, err error) {
	// example "data:application/octet-stream;base64,AACAvwAA....
	if !IsDataURI(uri) {
		return d, dataErr("datauri.scheme", "not a data URI")
	}
	uri = uri[5:] // trim "data:"
	pos := strings.IndexByte(uri, ',')
	if pos == -1 {
		return d, dataErr("datauri.syntax", "invalid data URI")
	}
	d.mime = uri[:pos]
	d.payload = uri[pos+1:]
	if strings.HasSuffix(d.mime, ";base64") {
		d.base64 = true
		d.mime = strings.TrimSuffix(d.mime, ";base64")
	}
	if d.mime == "" {
		if d.base64 {
			d.mime = `application/octet-stream`
		} else {
			d.mime = `text/plain;charset=US-ASCII`
		}
	}
	return
}

// DecodeDataURI decodes the whole payload of a data URI.
func DecodeDataURI(uri string) (data []byte, mime string, err error) {
	d, err := parseDataURI(uri)
	if err != nil {
		return nil, "", err
	}
	if !d.base64 {
		return []byte(d.payload), d.mime, nil
	}
	data, err = base64.StdEncoding.DecodeString(d.payload)
	if err != nil {
		return nil, "", wrapDataErr("base64.decode", err, "invalid base64 payload")
	}
	return data, d.mime, nil
}

// decodeDataURIRange extracts length bytes at offset from the decoded
// payload of a data URI.
func decodeDataURIRange(uri string, offset, length uint64) ([]byte, error) {
	d, err := parseDataURI(uri)
	if err != nil {
		return nil, err
	}
	if d.base64 {
		return DecodeBase64Range(d.payload, offset, length)
	}
	end, ok := SafeAddition(offset, length)
	if !ok || end > uint64(len(d.payload)) {
		return nil, dataErr("datauri.range", "range [%d, +%d) exceeds payload of %d bytes", offset, length, len(d.payload))
	}
	return []byte(d.payload[offset:end]), nil
}

// EncodeDataURI builds a base64 data URI for data.
func EncodeDataURI(mime string, data []byte) string {
	if mime == "" {
		mime = `application/octet-stream`
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// base64CharOffset maps a decoded byte offset to the number of base64
// characters needed to produce that many bytes.
func base64CharOffset(byteOffset uint64) uint64 {
	extra := [3]uint64{0, 2, 3}
	return byteOffset/3*4 + extra[byteOffset%3]
}

// base64DecodedLen validates the padding of a standard base64 string and
// returns the number of bytes it decodes to.
func base64DecodedLen(encoded string) (uint64, error) {
	body := strings.TrimRight(encoded, "=")
	pad := len(encoded) - len(body)
	if pad > 2 || (pad > 0 && len(encoded)%4 != 0) {
		return 0, dataErr("base64.padding", "malformed base64 padding")
	}
	if strings.IndexByte(body, '=') != -1 {
		return 0, dataErr("base64.padding", "padding inside base64 payload")
	}
	if len(body)%4 == 1 {
		return 0, dataErr("base64.length", "truncated base64 payload")
	}
	return uint64(len(body)) * 6 / 8, nil
}

// DecodeBase64Range decodes only the characters of encoded that cover the
// byte range [offset, offset+length) of its decoded form.
func DecodeBase64Range(encoded string, offset, length uint64) ([]byte, error) {
	total, err := base64DecodedLen(encoded)
	if err != nil {
		return nil, err
	}
	end, ok := SafeAddition(offset, length)
	if !ok || end > total {
		return nil, dataErr("base64.range", "range [%d, +%d) exceeds decoded length %d", offset, length, total)
	}
	if length == 0 {
		return []byte{}, nil
	}

	// Decoding starts on a 4-character block boundary, so up to two
	// leading bytes come out that the caller did not ask for.
	charBegin := offset / 3 * 4
	charEnd := base64CharOffset(end)
	if charEnd > uint64(len(encoded)) {
		return nil, dataErr("base64.range", "character range [%d, %d) exceeds encoded length %d", charBegin, charEnd, len(encoded))
	}
	decoded, err := base64.RawStdEncoding.DecodeString(encoded[charBegin:charEnd])
	if err != nil {
		return nil, wrapDataErr("base64.decode", err, "invalid base64 characters")
	}
	skip := offset % 3
	if uint64(len(decoded)) < skip+length {
		return nil, dataErr("base64.range", "decoded %d bytes, need %d", len(decoded), skip+length)
	}
	return decoded[skip : skip+length], nil
}
