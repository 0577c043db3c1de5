package ir

// records.go - Flat diagnostic records: DTCs, memory, variants.

// SnapshotDataItem is one captured DID inside a snapshot record.
type SnapshotDataItem struct {
	DID          uint16
	Name         string
	BytePosition uint32
	ByteSize     uint32
}

// SnapshotRecord is a freeze-frame record captured when a DTC is stored.
type SnapshotRecord struct {
	RecordNumber uint8
	Description  string
	DataItems    []SnapshotDataItem
	TotalSize    uint32
}

// ExtendedDataRecord holds additional per-DTC data such as occurrence
// counters.
type ExtendedDataRecord struct {
	RecordNumber uint8
	Name         string
	TypeRef      string
	ByteSize     uint32
}

// DTC is a Diagnostic Trouble Code record.
type DTC struct {
	// Code is the 24-bit trouble code.
	Code uint32
	Name string

	Description string

	// Severity is the ISO 14229 severity byte (0x00/0x20/0x40/0x80).
	Severity       uint8
	FunctionalUnit uint8

	Snapshots    []SnapshotRecord
	ExtendedData []ExtendedDataRecord

	AgingThreshold *uint8
	AgedThreshold  *uint8
	Priority       *uint8
}

// MemoryRegion is an addressable region of ECU memory.
type MemoryRegion struct {
	Name         string
	StartAddress uint32
	Size         uint32
	Access       string

	// AddressBytes/LengthBytes are the ISO 14229 address-and-length
	// format widths (1-5 each).
	AddressBytes uint8
	LengthBytes  uint8

	SecurityLevel string
	Sessions      []string
}

// FormatIdentifier returns the addressAndLengthFormatIdentifier byte:
// high nibble length bytes, low nibble address bytes.
func (r *MemoryRegion) FormatIdentifier() uint8 {
	return r.LengthBytes<<4 | r.AddressBytes
}

// DataBlock is a transferable block of data for download/upload services.
type DataBlock struct {
	Name string
	// BlockType is "download" or "upload".
	BlockType string

	MemoryAddress uint32
	MemorySize    uint32

	// DataFormat is the dataFormatIdentifier byte: high nibble compression,
	// low nibble encryption.
	DataFormat uint8

	MaxBlockLength *uint32
	SecurityLevel  string
	Session        string
}

// MatchingParameter identifies a variant by a diagnostic response value.
type MatchingParameter struct {
	ExpectedValue string
	// ServiceRef names the diagnostic service to call.
	ServiceRef string
	// OutParamRef is the path of the output parameter to match.
	OutParamRef string

	UsePhysicalAddressing bool
}

// Variant is an ECU configuration profile.
type Variant struct {
	ShortName     string
	IsBaseVariant bool

	MatchingParameters []MatchingParameter

	// ServiceRefs names variant-private services (present only in this
	// variant, not the base).
	ServiceRefs []string

	// ParentRef names the parent variant for inheritance.
	ParentRef string
}
