package payload

// records.go - The msgpack record layout of the payload. Field order is
// part of the format; append new fields at the end of a record, never
// reorder.

// NoHandle marks a DOP reference that names no converted DOP (base types
// and unresolved fallbacks). The reference name is kept in that case.
const NoHandle = ^uint32(0)

// Root is the top-level payload record.
type Root struct {
	EcuName       string
	Revision      string
	Author        string
	Description   string
	SchemaVersion string

	// DOPs ordered by short name; a DOP's position is its handle.
	DOPs []DOPRecord

	// Services ordered by short name.
	Services []ServiceRecord

	Sessions       []SessionRecord
	SecurityLevels []SecurityRecord

	DIDReads  []DIDBindingRecord
	DIDWrites []DIDBindingRecord
	Routines  []RoutineBindingRecord

	MemoryRegions []MemoryRegionRecord
	DataBlocks    []DataBlockRecord
	DTCs          []DTCRecord
	Variants      []VariantRecord
}

// DOPRef is a resolved reference to a DOP: the handle when the name maps
// to a converted DOP, NoHandle plus the name otherwise.
type DOPRef struct {
	Handle uint32
	Name   string
}

// LimitRecord is a compu scale bound.
type LimitRecord struct {
	Value    float64
	Interval string
}

// ScaleRecord is one compu method scale.
type ScaleRecord struct {
	Lower *LimitRecord
	Upper *LimitRecord

	Factor *float64
	Offset *float64

	InternalValue *int64
	TextValue     string
	ShortLabel    string
}

// CompuRecord is a raw-to-physical conversion.
type CompuRecord struct {
	Category uint8
	Scales   []ScaleRecord
	Unit     string
}

// CodedTypeRecord is the wire format of a value.
type CodedTypeRecord struct {
	TypeName         uint8
	BaseDataType     uint8
	BitLength        uint32
	HighLowByteOrder bool
	MinLength        *uint32
	MaxLength        *uint32
	Termination      string
}

// DOPRecord is one converted DOP. Leaf DOPs carry Coded/Compu/PhysicalType;
// composite DOPs carry Members.
type DOPRecord struct {
	ShortName string
	LongName  string

	Coded        *CodedTypeRecord
	Compu        *CompuRecord
	PhysicalType *uint8
	Unit         string

	Members []ParamRecord
}

// Variant records populated according to ParamRecord.Kind. Exactly one is
// non-nil per kind, except DYNAMIC which carries no data.
type (
	CodedConstRecord struct {
		CodedValue int64
		DiagType   CodedTypeRecord
	}

	MatchingRequestRecord struct {
		RequestBytePos uint32
		ByteLength     uint32
	}

	NRCConstRecord struct {
		CodedValues []int64
		DiagType    CodedTypeRecord
	}

	PhysConstRecord struct {
		PhysicalValue string
		DOP           DOPRef
	}

	ReservedRecord struct {
		BitLength uint32
	}

	ValueRecord struct {
		DOP             DOPRef
		PhysicalDefault string
	}

	TableEntryRecord struct {
		Target      string
		TableRowRef string
	}

	TableKeyRecord struct {
		TableRef string
	}

	TableStructRecord struct {
		TableKeyRef string
	}

	SystemRecord struct {
		SysParam string
	}

	LengthKeyRecord struct {
		DOP DOPRef
	}
)

// ParamRecord is one positioned message parameter.
type ParamRecord struct {
	ShortName    string
	LongName     string
	BytePosition uint32
	BitPosition  *uint32
	Semantic     string

	Kind uint8

	CodedConst      *CodedConstRecord
	MatchingRequest *MatchingRequestRecord
	NRCConst        *NRCConstRecord
	PhysConst       *PhysConstRecord
	Reserved        *ReservedRecord
	Value           *ValueRecord
	TableEntry      *TableEntryRecord
	TableKey        *TableKeyRecord
	TableStruct     *TableStructRecord
	System          *SystemRecord
	LengthKey       *LengthKeyRecord
}

// MessageRecord is a request or response.
type MessageRecord struct {
	ShortName      string
	Params         []ParamRecord
	ConstantPrefix []byte
}

// ServiceRecord is one diagnostic service.
type ServiceRecord struct {
	ShortName string
	LongName  string

	ServiceID uint8
	// Subfunction is -1 for services without one.
	Subfunction int16

	ResponseType uint8

	Request          *MessageRecord
	PositiveResponse *MessageRecord
	NegativeResponse *MessageRecord

	RequiredSessions []string
	RequiredSecurity []string

	Addressing string

	AudienceInclude []string
	AudienceExclude []string

	VariantRef string
}

// SessionRecord maps a session name to its subfunction id.
type SessionRecord struct {
	Name string
	ID   uint8
}

// SecurityRecord maps a security level name to its level number.
type SecurityRecord struct {
	Name  string
	Level uint8
}

// DIDBindingRecord maps a DID to the service that reads or writes it.
type DIDBindingRecord struct {
	DID     uint16
	Service string
}

// RoutineBindingRecord maps a routine id to its services.
type RoutineBindingRecord struct {
	RoutineID uint16
	Services  []string
}

// MemoryRegionRecord is one addressable memory region.
type MemoryRegionRecord struct {
	Name         string
	StartAddress uint32
	Size         uint32
	Access       string

	AddressBytes uint8
	LengthBytes  uint8

	SecurityLevel string
	Sessions      []string
}

// DataBlockRecord is one transferable data block.
type DataBlockRecord struct {
	Name      string
	BlockType string

	MemoryAddress uint32
	MemorySize    uint32
	DataFormat    uint8

	MaxBlockLength *uint32
	SecurityLevel  string
	Session        string
}

// SnapshotItemRecord is one captured DID inside a snapshot.
type SnapshotItemRecord struct {
	DID          uint16
	Name         string
	BytePosition uint32
	ByteSize     uint32
}

// SnapshotRecord is one freeze-frame record.
type SnapshotRecord struct {
	RecordNumber uint8
	Description  string
	Items        []SnapshotItemRecord
	TotalSize    uint32
}

// ExtendedDataRecord is one extended data record.
type ExtendedDataRecord struct {
	RecordNumber uint8
	Name         string
	TypeRef      string
	ByteSize     uint32
}

// DTCRecord is one trouble code.
type DTCRecord struct {
	Code uint32
	Name string

	Description    string
	Severity       uint8
	FunctionalUnit uint8

	Snapshots    []SnapshotRecord
	ExtendedData []ExtendedDataRecord

	AgingThreshold *uint8
	AgedThreshold  *uint8
	Priority       *uint8
}

// MatchingParameterRecord identifies a variant by a response value.
type MatchingParameterRecord struct {
	ExpectedValue         string
	ServiceRef            string
	OutParamRef           string
	UsePhysicalAddressing bool
}

// VariantRecord is one ECU variant.
type VariantRecord struct {
	ShortName     string
	IsBaseVariant bool

	MatchingParameters []MatchingParameterRecord
	ServiceRefs        []string
	ParentRef          string
}
