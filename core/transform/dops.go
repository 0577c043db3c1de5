package transform

import "github.com/diagkit/mddc/core/ir"

func stdUintCoded(bits uint32) *ir.DiagCodedType {
	return &ir.DiagCodedType{
		TypeName:         ir.CodedStandardLength,
		BaseDataType:     ir.DataUInt32,
		BitLength:        bits,
		HighLowByteOrder: true,
	}
}

func minMaxBytesCoded(termination string) *ir.DiagCodedType {
	minLen := uint32(1)
	maxLen := uint32(255)
	return &ir.DiagCodedType{
		TypeName:         ir.CodedMinMaxLength,
		BaseDataType:     ir.DataByteField,
		HighLowByteOrder: true,
		MinLength:        &minLen,
		MaxLength:        &maxLen,
		Termination:      termination,
	}
}

// standardDOPs returns the DOPs shared by the generated UDS services:
// identifier encodings, fixed-size integers, and the variable-length byte
// arrays used by security, transfer, and memory services.
func standardDOPs() []*ir.DOP {
	return []*ir.DOP{
		{
			ShortName: "DOP_DID",
			LongName:  "Data Identifier",
			Coded:     stdUintCoded(16),
		},
		{
			ShortName: "DOP_RID",
			LongName:  "Routine Identifier",
			Coded:     stdUintCoded(16),
		},
		{
			ShortName: "DOP_EndOfPDU_ByteArray",
			LongName:  "End of PDU Byte Array",
			Coded:     minMaxBytesCoded(ir.TerminationEndOfPDU),
		},
		{
			ShortName: "DOP_UINT8",
			LongName:  "8-bit Unsigned Integer",
			Coded:     stdUintCoded(8),
		},
		{
			ShortName: "DOP_UINT32",
			LongName:  "32-bit Unsigned Integer",
			Coded:     stdUintCoded(32),
		},
		{
			ShortName: "DOP_INT32",
			LongName:  "32-bit Signed Integer",
			Coded: &ir.DiagCodedType{
				TypeName:         ir.CodedStandardLength,
				BaseDataType:     ir.DataInt32,
				BitLength:        32,
				HighLowByteOrder: true,
			},
		},
		{
			ShortName: "DOP_ByteArray",
			LongName:  "Byte Array",
			Coded:     minMaxBytesCoded(""),
		},
		{
			ShortName: "DOP_AuthReturnParam",
			LongName:  "Authentication Return Parameter",
			Coded:     minMaxBytesCoded(ir.TerminationEndOfPDU),
		},
	}
}

// Parameter semantics attached to generated params.
const (
	semanticServiceID   = "SERVICE_ID"
	semanticSubfunction = "SUBFUNCTION"
	semanticDID         = "DID"
	semanticData        = "DATA"
	semanticServiceIDRQ = "SERVICEIDRQ"
)

// codedConst builds a constant parameter with a standard-length unsigned
// coded type. SIDs, subfunctions, and DID/RID constants all use this shape.
func codedConst(name string, value int64, bytePos, bitLen uint32, semantic string) ir.Param {
	return ir.Param{
		ShortName:    name,
		BytePosition: bytePos,
		Semantic:     semantic,
		Spec: ir.CodedConst{
			CodedValue: value,
			DiagType:   *stdUintCoded(bitLen),
		},
	}
}

func matchingRequest(name string, bytePos, reqBytePos, byteLen uint32, semantic string) ir.Param {
	return ir.Param{
		ShortName:    name,
		BytePosition: bytePos,
		Semantic:     semantic,
		Spec: ir.MatchingRequest{
			RequestBytePos: reqBytePos,
			ByteLength:     byteLen,
		},
	}
}

func valueParam(name string, bytePos uint32, dopRef, semantic string) ir.Param {
	return ir.Param{
		ShortName:    name,
		BytePosition: bytePos,
		Semantic:     semantic,
		Spec:         ir.Value{DOPRef: dopRef},
	}
}
