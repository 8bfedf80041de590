// Binary encoding for pattern-set blobs.
//
// The pattern list (the dominant blob) uses a compact length-prefixed binary
// format; the set header is gob-encoded.
//
// Binary pattern list format (little-endian):
//
//	version:      uint8 (1)
//	patternCount: uint32
//	per pattern:
//	  textLen: uint32
//	  text:    [textLen]byte
//	  value:   int64
package bbolt

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"

	"github.com/corey/acsearch/internal/ports"
)

const patternsVersion = 1

// encodePatterns encodes a pattern list to compact binary format, preserving
// order. A single buffer is pre-allocated to avoid repeated growth.
func encodePatterns(patterns []ports.PatternEntry) []byte {
	totalSize := 1 + 4
	for _, p := range patterns {
		totalSize += 4 + len(p.Text) + 8
	}

	buf := make([]byte, totalSize)
	buf[0] = patternsVersion
	offset := 1
	binary.LittleEndian.PutUint32(buf[offset:], uint32(len(patterns)))
	offset += 4

	for _, p := range patterns {
		binary.LittleEndian.PutUint32(buf[offset:], uint32(len(p.Text)))
		offset += 4
		copy(buf[offset:], p.Text)
		offset += len(p.Text)
		binary.LittleEndian.PutUint64(buf[offset:], uint64(int64(p.Value)))
		offset += 8
	}
	return buf
}

// decodePatterns decodes a binary pattern list. Every read is bounds-checked
// to avoid panics on corrupt data.
func decodePatterns(data []byte) ([]ports.PatternEntry, error) {
	if len(data) < 5 {
		return nil, fmt.Errorf("pattern list too short: %d bytes", len(data))
	}
	if data[0] != patternsVersion {
		return nil, fmt.Errorf("unsupported pattern list version %d", data[0])
	}
	offset := 1
	count := binary.LittleEndian.Uint32(data[offset:])
	offset += 4

	// Each pattern needs at least 12 bytes; reject counts the data can't hold
	// before allocating for them.
	if uint64(count)*12 > uint64(len(data)-offset) {
		return nil, fmt.Errorf("pattern count %d exceeds data size %d", count, len(data))
	}

	patterns := make([]ports.PatternEntry, count)
	for i := uint32(0); i < count; i++ {
		if offset+4 > len(data) {
			return nil, fmt.Errorf("truncated at pattern %d length (offset %d)", i, offset)
		}
		textLen := int(binary.LittleEndian.Uint32(data[offset:]))
		offset += 4

		if textLen < 0 || offset+textLen+8 > len(data) {
			return nil, fmt.Errorf("truncated at pattern %d text (offset %d, need %d)", i, offset, textLen+8)
		}
		patterns[i].Text = string(data[offset : offset+textLen])
		offset += textLen
		patterns[i].Value = int(int64(binary.LittleEndian.Uint64(data[offset:])))
		offset += 8
	}

	if offset != len(data) {
		return nil, fmt.Errorf("%d trailing bytes after pattern list", len(data)-offset)
	}
	return patterns, nil
}

// setHeader is the gob form of a stored set, without its patterns.
type setHeader struct {
	Name         string
	Kind         string
	IgnoreCase   bool
	Source       string
	UpdatedAt    int64
	PatternCount int
}

// encodeGob encodes a value using gob.
func encodeGob(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeGob decodes gob-encoded data into target. Target must be a pointer.
func decodeGob(data []byte, target any) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(target)
}
