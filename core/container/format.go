package container

// format.go - The two-layer file format: a fixed magic header followed by a
// msgpack envelope whose chunks carry compressed payloads.

// Magic is the 20-byte file header. It must match the diagnostic adapters
// that consume these files byte for byte.
const Magic = "MDD version 0      \x00"

// FormatVersion is the envelope format version written by this package.
const FormatVersion = 0

// Compression tags. A chunk's tag names how its Data bytes are encoded.
const (
	CompressionNone = "none"
	CompressionGzip = "gzip"
	CompressionXZ   = "xz"
)

// Chunk kinds.
const (
	KindDiagnosticDescription uint8 = 0
)

// ChunkName is the name of the diagnostic description chunk.
const ChunkName = "diagnostic_description"

// DigestBlake3 is the digest algorithm tag written into signature entries.
const DigestBlake3 = "blake3"

// MetadataEntry is one envelope metadata pair. Entries are sorted by key.
type MetadataEntry struct {
	Key   string
	Value string
}

// Chunk is one payload section of the envelope.
type Chunk struct {
	Kind uint8
	Name string

	// Compression names how Data is encoded; UncompressedSize is the
	// payload length before compression.
	Compression      string
	UncompressedSize uint64

	Data []byte
}

// Signature is a per-chunk digest entry. The digest covers the uncompressed
// payload. KeyID and Signature are reserved for external signing and stay
// empty here.
type Signature struct {
	ChunkIndex uint32
	Algorithm  string
	Digest     []byte

	KeyID     string
	Signature []byte
}

// Encryption describes envelope-level encryption. Reserved; writers in this
// package never set it.
type Encryption struct {
	Algorithm string
	KeyID     string
}

// Envelope is the outer msgpack record following the magic header.
type Envelope struct {
	FormatVersion uint32
	EcuName       string
	Revision      string

	Metadata []MetadataEntry

	Chunks []Chunk

	Signatures []Signature
	Encryption *Encryption
}
