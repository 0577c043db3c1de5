package container

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/ulikunitz/xz"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/diagkit/mddc/core/errors"
)

// Structure is the decoded envelope of a container file. It exposes the
// file's layout without decoding any chunk payload; payloads decompress
// on demand through ChunkPayload.
type Structure struct {
	env Envelope
}

// ChunkInfo describes one chunk without touching its payload.
type ChunkInfo struct {
	Kind uint8
	Name string

	Compression      string
	PayloadLength    int
	UncompressedSize uint64
}

// ReadStructure decodes the container envelope from a complete file image.
func ReadStructure(data []byte) (*Structure, error) {
	if len(data) < len(Magic) || string(data[:len(Magic)]) != Magic {
		return nil, errors.NewParse("mdd", "", "missing or corrupt magic header")
	}

	var env Envelope
	if err := msgpack.Unmarshal(data[len(Magic):], &env); err != nil {
		return nil, errors.NewParse("mdd", "", fmt.Sprintf("decode envelope: %v", err))
	}
	return &Structure{env: env}, nil
}

// FormatVersion returns the envelope format version.
func (s *Structure) FormatVersion() uint32 { return s.env.FormatVersion }

// EcuName returns the ECU name recorded in the envelope.
func (s *Structure) EcuName() string { return s.env.EcuName }

// Revision returns the revision recorded in the envelope.
func (s *Structure) Revision() string { return s.env.Revision }

// Metadata returns the envelope metadata entries in stored (sorted) order.
func (s *Structure) Metadata() []MetadataEntry { return s.env.Metadata }

// MetadataValue returns the value for a metadata key.
func (s *Structure) MetadataValue(key string) (string, bool) {
	for _, e := range s.env.Metadata {
		if e.Key == key {
			return e.Value, true
		}
	}
	return "", false
}

// ChunkCount returns the number of chunks in the envelope.
func (s *Structure) ChunkCount() int { return len(s.env.Chunks) }

// Chunk returns layout information for chunk i.
func (s *Structure) Chunk(i int) (ChunkInfo, error) {
	if i < 0 || i >= len(s.env.Chunks) {
		return ChunkInfo{}, errors.NewNotFound("chunk", fmt.Sprintf("index %d of %d", i, len(s.env.Chunks)))
	}
	c := &s.env.Chunks[i]
	return ChunkInfo{
		Kind:             c.Kind,
		Name:             c.Name,
		Compression:      c.Compression,
		PayloadLength:    len(c.Data),
		UncompressedSize: c.UncompressedSize,
	}, nil
}

// Signatures returns the envelope's digest entries.
func (s *Structure) Signatures() []Signature { return s.env.Signatures }

// ChunkPayload decompresses and returns the payload of chunk i.
func (s *Structure) ChunkPayload(i int) ([]byte, error) {
	if i < 0 || i >= len(s.env.Chunks) {
		return nil, errors.NewNotFound("chunk", fmt.Sprintf("index %d of %d", i, len(s.env.Chunks)))
	}
	c := &s.env.Chunks[i]
	return decompress(c.Data, c.Compression)
}

func decompress(data []byte, algorithm string) ([]byte, error) {
	switch algorithm {
	case CompressionNone, "":
		return data, nil
	case CompressionGzip:
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, errors.Wrap(err, "gzip decompress")
		}
		defer zr.Close()
		out, err := io.ReadAll(zr)
		if err != nil {
			return nil, errors.Wrap(err, "gzip decompress")
		}
		return out, nil
	case CompressionXZ:
		xr, err := xz.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, errors.Wrap(err, "xz decompress")
		}
		out, err := io.ReadAll(xr)
		if err != nil {
			return nil, errors.Wrap(err, "xz decompress")
		}
		return out, nil
	default:
		return nil, errors.NewUnsupported("compression", algorithm)
	}
}
