package ir

// types.go - DOP schema: wire encoding, conversion rules, physical types.
// All pipeline stages import these types from core/ir rather than defining
// their own.

// DataType is the physical or coded base data type of a value.
type DataType uint8

// Data type constants. The numeric values are part of the payload encoding
// and must not be reordered.
const (
	DataInt32 DataType = iota
	DataUInt32
	DataFloat32
	DataAsciiString
	DataUtf8String
	DataUnicode2String
	DataByteField
	DataFloat64
)

var dataTypeNames = map[DataType]string{
	DataInt32:          "A_INT32",
	DataUInt32:         "A_UINT32",
	DataFloat32:        "A_FLOAT32",
	DataAsciiString:    "A_ASCIISTRING",
	DataUtf8String:     "A_UTF8STRING",
	DataUnicode2String: "A_UNICODE2STRING",
	DataByteField:      "A_BYTEFIELD",
	DataFloat64:        "A_FLOAT64",
}

func (d DataType) String() string {
	if s, ok := dataTypeNames[d]; ok {
		return s
	}
	return "A_UNKNOWN"
}

// IsValid returns true if the data type is one of the defined constants.
func (d DataType) IsValid() bool {
	_, ok := dataTypeNames[d]
	return ok
}

// CompuCategory classifies how raw values convert to physical values.
type CompuCategory uint8

// Computation method categories.
const (
	CompuIdentical    CompuCategory = iota // raw = physical
	CompuLinear                            // physical = factor*raw + offset
	CompuScaleLinear                       // multiple linear ranges
	CompuTextTable                         // enum mapping
	CompuCode                              // custom code
	CompuTabIntp                           // table interpolation
	CompuRatFunc                           // rational function
	CompuScaleRatFunc                      // multiple rational ranges
)

var compuCategoryNames = map[CompuCategory]string{
	CompuIdentical:    "IDENTICAL",
	CompuLinear:       "LINEAR",
	CompuScaleLinear:  "SCALE_LINEAR",
	CompuTextTable:    "TEXTTABLE",
	CompuCode:         "COMPUCODE",
	CompuTabIntp:      "TAB_INTP",
	CompuRatFunc:      "RAT_FUNC",
	CompuScaleRatFunc: "SCALE_RAT_FUNC",
}

func (c CompuCategory) String() string {
	if s, ok := compuCategoryNames[c]; ok {
		return s
	}
	return "UNKNOWN"
}

// CodedTypeName classifies how a value's length is encoded on the wire.
type CodedTypeName uint8

// Coded type name constants.
const (
	CodedLeadingLengthInfo CodedTypeName = iota
	CodedMinMaxLength
	CodedParamLengthInfo
	CodedStandardLength
)

var codedTypeNames = map[CodedTypeName]string{
	CodedLeadingLengthInfo: "LEADING_LENGTH_INFO_TYPE",
	CodedMinMaxLength:      "MIN_MAX_LENGTH_TYPE",
	CodedParamLengthInfo:   "PARAM_LENGTH_INFO_TYPE",
	CodedStandardLength:    "STANDARD_LENGTH_TYPE",
}

func (c CodedTypeName) String() string {
	if s, ok := codedTypeNames[c]; ok {
		return s
	}
	return "UNKNOWN"
}

// Termination constants for variable-length coded types.
const (
	TerminationEndOfPDU = "END_OF_PDU"
	TerminationZero     = "ZERO"
	TerminationHexFF    = "HEX_FF"
)

// IntervalType classifies a compu scale limit.
type IntervalType string

// Interval type constants.
const (
	IntervalClosed   IntervalType = "CLOSED"
	IntervalOpen     IntervalType = "OPEN"
	IntervalInfinite IntervalType = "INFINITE"
)

// Limit is a bound on a compu scale range.
type Limit struct {
	Value    float64
	Interval IntervalType
}

// ClosedLimit returns a closed limit at the given value.
func ClosedLimit(v float64) *Limit {
	return &Limit{Value: v, Interval: IntervalClosed}
}

// CompuScale is one scale of a computation method: a linear segment
// (factor/offset over a limit range) or a single text-table entry.
type CompuScale struct {
	LowerLimit *Limit
	UpperLimit *Limit

	// Linear coefficients: physical = Factor*raw + Offset.
	Factor *float64
	Offset *float64

	// Text table entry: raw InternalValue maps to TextValue.
	InternalValue *int64
	TextValue     string

	ShortLabel string
}

// CompuMethod converts between raw (coded) and physical values.
type CompuMethod struct {
	Category CompuCategory
	Scales   []CompuScale
	Unit     string
}

// DiagCodedType defines the wire format of a value.
type DiagCodedType struct {
	TypeName     CodedTypeName
	BaseDataType DataType

	// BitLength is the coded length in bits for standard-length types.
	BitLength uint32

	// HighLowByteOrder is true for big-endian encoding.
	HighLowByteOrder bool

	// MinLength/MaxLength bound variable-length types.
	MinLength *uint32
	MaxLength *uint32

	// Termination names how a variable-length value ends
	// (END_OF_PDU, ZERO, HEX_FF).
	Termination string
}

// DOP is a Data Object Property: the unit of encoding/decoding knowledge.
// Leaf DOPs carry a coded type plus a conversion; composite DOPs carry
// StructMembers whose Value specs reference other DOPs by name.
type DOP struct {
	// ShortName is the unique key of the DOP in the database.
	ShortName string
	LongName  string

	Coded        *DiagCodedType
	Compu        *CompuMethod
	PhysicalType *DataType

	Unit string

	// StructMembers holds the ordered member params of a composite DOP.
	// Members reference their DOPs by name, never by embedded value.
	StructMembers []Param
}

// IsStructure returns true if the DOP is a composite of member params.
func (d *DOP) IsStructure() bool {
	return len(d.StructMembers) > 0
}
