package ir

// params.go - Request/response parameters and the parameter-kind sum type.

// ParamKind identifies the concrete variant of a ParamSpec. The numeric
// values are part of the payload encoding and must not be reordered.
type ParamKind uint8

// Parameter kinds. KindNone marks an unset spec and must never survive
// lowering; the converter treats it as a defect.
const (
	KindNone ParamKind = iota
	KindCodedConst
	KindDynamic
	KindMatchingRequest
	KindNRCConst
	KindPhysConst
	KindReserved
	KindValue
	KindTableEntry
	KindTableKey
	KindTableStruct
	KindSystem
	KindLengthKeyRef
)

var paramKindNames = map[ParamKind]string{
	KindNone:            "NONE",
	KindCodedConst:      "CODED_CONST",
	KindDynamic:         "DYNAMIC",
	KindMatchingRequest: "MATCHING_REQUEST_PARAM",
	KindNRCConst:        "NRC_CONST",
	KindPhysConst:       "PHYS_CONST",
	KindReserved:        "RESERVED",
	KindValue:           "VALUE",
	KindTableEntry:      "TABLE_ENTRY",
	KindTableKey:        "TABLE_KEY",
	KindTableStruct:     "TABLE_STRUCT",
	KindSystem:          "SYSTEM",
	KindLengthKeyRef:    "LENGTH_KEY_REF",
}

func (k ParamKind) String() string {
	if s, ok := paramKindNames[k]; ok {
		return s
	}
	return "UNKNOWN"
}

// ParamSpec is the sealed sum type of parameter kinds. Exactly one concrete
// spec type exists per kind; fields meaningful only for one kind live on
// that kind's type, never as optional fields on Param itself.
type ParamSpec interface {
	Kind() ParamKind
}

// CodedConst is a parameter with a fixed coded value (SIDs, subfunctions,
// DID/RID constants).
type CodedConst struct {
	CodedValue int64
	DiagType   DiagCodedType
}

// Kind implements ParamSpec.
func (CodedConst) Kind() ParamKind { return KindCodedConst }

// Dynamic is a parameter whose content is determined at runtime.
type Dynamic struct{}

// Kind implements ParamSpec.
func (Dynamic) Kind() ParamKind { return KindDynamic }

// MatchingRequest echoes bytes of the request back in the response.
type MatchingRequest struct {
	// RequestBytePos is the byte position in the request to copy from.
	RequestBytePos uint32
	// ByteLength is the number of bytes to copy.
	ByteLength uint32
}

// Kind implements ParamSpec.
func (MatchingRequest) Kind() ParamKind { return KindMatchingRequest }

// NRCConst is a negative-response-code constant.
type NRCConst struct {
	CodedValues []int64
	DiagType    DiagCodedType
}

// Kind implements ParamSpec.
func (NRCConst) Kind() ParamKind { return KindNRCConst }

// PhysConst is a constant expressed as a physical value through a DOP.
type PhysConst struct {
	PhysicalValue string
	DOPRef        string
}

// Kind implements ParamSpec.
func (PhysConst) Kind() ParamKind { return KindPhysConst }

// Reserved is padding that carries no data.
type Reserved struct {
	BitLength uint32
}

// Kind implements ParamSpec.
func (Reserved) Kind() ParamKind { return KindReserved }

// Value is a data-carrying parameter encoded/decoded through a DOP,
// referenced by name.
type Value struct {
	DOPRef string
	// PhysicalDefault is an optional default physical value.
	PhysicalDefault string
}

// Kind implements ParamSpec.
func (Value) Kind() ParamKind { return KindValue }

// TableEntry references one row of a table.
type TableEntry struct {
	Target      string
	TableRowRef string
}

// Kind implements ParamSpec.
func (TableEntry) Kind() ParamKind { return KindTableEntry }

// TableKey selects a table row by key.
type TableKey struct {
	TableRef string
}

// Kind implements ParamSpec.
func (TableKey) Kind() ParamKind { return KindTableKey }

// TableStruct carries the structure selected by a table key.
type TableStruct struct {
	TableKeyRef string
}

// Kind implements ParamSpec.
func (TableStruct) Kind() ParamKind { return KindTableStruct }

// System is a parameter filled in by the runtime system.
type System struct {
	SysParam string
}

// Kind implements ParamSpec.
func (System) Kind() ParamKind { return KindSystem }

// LengthKeyRef carries the length of another parameter.
type LengthKeyRef struct {
	DOPRef string
}

// Kind implements ParamSpec.
func (LengthKeyRef) Kind() ParamKind { return KindLengthKeyRef }

// Param is a positioned parameter in a request or response message.
// Byte and bit positions are always explicit; ordering within a message
// never implies position.
type Param struct {
	ShortName string
	LongName  string

	BytePosition uint32
	// BitPosition is set for bit-level params only.
	BitPosition *uint32

	// Semantic is a hint such as SERVICE_ID, SUBFUNCTION, DID, DATA.
	Semantic string

	// Spec selects the parameter kind. A nil Spec is a lowering defect.
	Spec ParamSpec
}

// Kind returns the parameter kind, or KindNone if the spec is unset.
func (p *Param) Kind() ParamKind {
	if p.Spec == nil {
		return KindNone
	}
	return p.Spec.Kind()
}
