package container

import (
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"github.com/ulikunitz/xz"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeebo/blake3"

	"github.com/diagkit/mddc/core/errors"
	"github.com/diagkit/mddc/core/ir"
	"github.com/diagkit/mddc/core/payload"
)

// Writer produces container files from a database.
type Writer struct {
	compression string
}

// NewWriter creates a writer with the given compression tag
// (none, gzip, or xz).
func NewWriter(compression string) (*Writer, error) {
	switch compression {
	case CompressionNone, CompressionGzip, CompressionXZ:
		return &Writer{compression: compression}, nil
	default:
		return nil, errors.NewUnsupported("compression", compression)
	}
}

// WriteBytes converts the database and returns the complete file content.
func (w *Writer) WriteBytes(db *ir.Database) ([]byte, error) {
	raw, err := payload.Convert(db)
	if err != nil {
		return nil, err
	}

	data, err := compress(raw, w.compression)
	if err != nil {
		return nil, err
	}

	digest := blake3.Sum256(raw)
	env := &Envelope{
		FormatVersion: FormatVersion,
		EcuName:       db.EcuName(),
		Revision:      db.Revision(),
		Metadata:      buildMetadata(db),
		Chunks: []Chunk{{
			Kind:             KindDiagnosticDescription,
			Name:             ChunkName,
			Compression:      w.compression,
			UncompressedSize: uint64(len(raw)),
			Data:             data,
		}},
		Signatures: []Signature{{
			ChunkIndex: 0,
			Algorithm:  DigestBlake3,
			Digest:     digest[:],
		}},
	}

	body, err := msgpack.Marshal(env)
	if err != nil {
		return nil, errors.Wrap(err, "encode envelope")
	}

	out := make([]byte, 0, len(Magic)+len(body))
	out = append(out, Magic...)
	out = append(out, body...)
	return out, nil
}

// Write converts the database and commits the file at path atomically:
// the content lands in a temp file in the target directory and is renamed
// into place, so a failure leaves no partial output. Returns the number
// of bytes written.
func (w *Writer) Write(db *ir.Database, path string) (int64, error) {
	content, err := w.WriteBytes(db)
	if err != nil {
		return 0, err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, errors.NewIO("mkdir", dir, err)
	}

	tempFile, err := os.CreateTemp(dir, ".mdd-*")
	if err != nil {
		return 0, errors.NewIO("create temp file", dir, err)
	}
	tempPath := tempFile.Name()

	if _, err := tempFile.Write(content); err != nil {
		tempFile.Close()
		os.Remove(tempPath)
		return 0, errors.NewIO("write", tempPath, err)
	}
	if err := tempFile.Close(); err != nil {
		os.Remove(tempPath)
		return 0, errors.NewIO("close", tempPath, err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return 0, errors.NewIO("rename", path, err)
	}

	return int64(len(content)), nil
}

func buildMetadata(db *ir.Database) []MetadataEntry {
	entries := []MetadataEntry{
		{Key: "build_id", Value: uuid.NewString()},
		{Key: "schema_version", Value: db.SchemaVersion()},
	}
	if db.Author() != "" {
		entries = append(entries, MetadataEntry{Key: "author", Value: db.Author()})
	}
	if db.Description() != "" {
		entries = append(entries, MetadataEntry{Key: "description", Value: db.Description()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries
}

func compress(data []byte, algorithm string) ([]byte, error) {
	switch algorithm {
	case CompressionNone:
		return data, nil
	case CompressionGzip:
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(data); err != nil {
			return nil, errors.Wrap(err, "gzip compress")
		}
		if err := zw.Close(); err != nil {
			return nil, errors.Wrap(err, "gzip compress")
		}
		return buf.Bytes(), nil
	case CompressionXZ:
		var buf bytes.Buffer
		xw, err := xz.NewWriter(&buf)
		if err != nil {
			return nil, errors.Wrap(err, "xz compress")
		}
		if _, err := xw.Write(data); err != nil {
			return nil, errors.Wrap(err, "xz compress")
		}
		if err := xw.Close(); err != nil {
			return nil, errors.Wrap(err, "xz compress")
		}
		return buf.Bytes(), nil
	default:
		return nil, errors.NewUnsupported("compression", algorithm)
	}
}
