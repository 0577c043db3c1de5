package transform

import (
	"testing"

	"github.com/diagkit/mddc/core/document"
	"github.com/diagkit/mddc/core/errors"
	"github.com/diagkit/mddc/core/ir"
)

func f64ptr(v float64) *float64 { return &v }

func TestLowerTypeScalars(t *testing.T) {
	tests := []struct {
		name      string
		def       document.TypeDefinition
		dataType  ir.DataType
		bitLength uint32
		physical  ir.DataType
		bigEndian bool
	}{
		{
			name:      "u8 default",
			def:       document.TypeDefinition{Base: "u8"},
			dataType:  ir.DataUInt32,
			bitLength: 8,
			physical:  ir.DataUInt32,
			bigEndian: true,
		},
		{
			name:      "u16 little endian",
			def:       document.TypeDefinition{Base: "u16", Endian: "little"},
			dataType:  ir.DataUInt32,
			bitLength: 16,
			physical:  ir.DataUInt32,
			bigEndian: false,
		},
		{
			name:      "i16 signed",
			def:       document.TypeDefinition{Base: "i16"},
			dataType:  ir.DataInt32,
			bitLength: 16,
			physical:  ir.DataInt32,
			bigEndian: true,
		},
		{
			name:      "u24",
			def:       document.TypeDefinition{Base: "u24"},
			dataType:  ir.DataUInt32,
			bitLength: 24,
			physical:  ir.DataUInt32,
			bigEndian: true,
		},
		{
			name:      "i24",
			def:       document.TypeDefinition{Base: "i24"},
			dataType:  ir.DataInt32,
			bitLength: 24,
			physical:  ir.DataInt32,
			bigEndian: true,
		},
		{
			name:      "f32",
			def:       document.TypeDefinition{Base: "f32"},
			dataType:  ir.DataFloat32,
			bitLength: 32,
			physical:  ir.DataFloat32,
			bigEndian: true,
		},
		{
			name:      "bool is a byte",
			def:       document.TypeDefinition{Base: "bool"},
			dataType:  ir.DataUInt32,
			bitLength: 8,
			physical:  ir.DataUInt32,
			bigEndian: true,
		},
		{
			name:      "ascii length in bytes",
			def:       document.TypeDefinition{Base: "ascii", Length: 17},
			dataType:  ir.DataAsciiString,
			bitLength: 136,
			physical:  ir.DataAsciiString,
			bigEndian: true,
		},
		{
			name:      "utf16 length in code units",
			def:       document.TypeDefinition{Base: "utf16", Length: 4},
			dataType:  ir.DataUnicode2String,
			bitLength: 64,
			physical:  ir.DataUnicode2String,
			bigEndian: true,
		},
		{
			name:      "explicit bit length override",
			def:       document.TypeDefinition{Base: "u32", BitLength: 24},
			dataType:  ir.DataUInt32,
			bitLength: 24,
			physical:  ir.DataUInt32,
			bigEndian: true,
		},
		{
			name:      "unknown base falls back to byte field",
			def:       document.TypeDefinition{Base: "blob"},
			dataType:  ir.DataByteField,
			bitLength: 0,
			physical:  ir.DataUInt32,
			bigEndian: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dop := LowerType("test_type", &tt.def)
			if dop.ShortName != "test_type" {
				t.Errorf("short name = %q", dop.ShortName)
			}
			if dop.Coded == nil {
				t.Fatal("coded type missing")
			}
			if dop.Coded.TypeName != ir.CodedStandardLength {
				t.Errorf("type name = %v", dop.Coded.TypeName)
			}
			if dop.Coded.BaseDataType != tt.dataType {
				t.Errorf("base data type = %v, want %v", dop.Coded.BaseDataType, tt.dataType)
			}
			if dop.Coded.BitLength != tt.bitLength {
				t.Errorf("bit length = %d, want %d", dop.Coded.BitLength, tt.bitLength)
			}
			if dop.Coded.HighLowByteOrder != tt.bigEndian {
				t.Errorf("byte order = %v, want %v", dop.Coded.HighLowByteOrder, tt.bigEndian)
			}
			if dop.PhysicalType == nil || *dop.PhysicalType != tt.physical {
				t.Errorf("physical type = %v, want %v", dop.PhysicalType, tt.physical)
			}
		})
	}
}

func TestLowerTypeLinearConversion(t *testing.T) {
	def := &document.TypeDefinition{
		Base:   "u16",
		Scale:  f64ptr(0.1),
		Offset: f64ptr(-40),
		Unit:   "degC",
	}
	dop := LowerType("coolant_temp", def)

	if dop.Compu == nil {
		t.Fatal("compu method missing")
	}
	if dop.Compu.Category != ir.CompuLinear {
		t.Fatalf("category = %v", dop.Compu.Category)
	}
	if len(dop.Compu.Scales) != 1 {
		t.Fatalf("scales = %d", len(dop.Compu.Scales))
	}
	s := dop.Compu.Scales[0]
	if s.Factor == nil || *s.Factor != 0.1 {
		t.Errorf("factor = %v", s.Factor)
	}
	if s.Offset == nil || *s.Offset != -40 {
		t.Errorf("offset = %v", s.Offset)
	}
	if dop.Compu.Unit != "degC" {
		t.Errorf("unit = %q", dop.Compu.Unit)
	}
}

func TestLowerTypeScaleOnlyDefaultsOffset(t *testing.T) {
	dop := LowerType("rpm", &document.TypeDefinition{Base: "u16", Scale: f64ptr(0.25)})
	s := dop.Compu.Scales[0]
	if *s.Factor != 0.25 || *s.Offset != 0 {
		t.Errorf("factor=%v offset=%v", *s.Factor, *s.Offset)
	}
}

func TestLowerTypeEnum(t *testing.T) {
	def := &document.TypeDefinition{
		Base: "u8",
		Enum: document.EnumMap{2: "Running", 0: "Off", 1: "Init"},
	}
	dop := LowerType("engine_state", def)

	if dop.Compu == nil || dop.Compu.Category != ir.CompuTextTable {
		t.Fatalf("compu = %+v", dop.Compu)
	}
	if dop.PhysicalType == nil || *dop.PhysicalType != ir.DataAsciiString {
		t.Errorf("physical type = %v", dop.PhysicalType)
	}

	// Scales come out ordered by internal value regardless of map order.
	wantText := []string{"Off", "Init", "Running"}
	if len(dop.Compu.Scales) != len(wantText) {
		t.Fatalf("scales = %d", len(dop.Compu.Scales))
	}
	for i, s := range dop.Compu.Scales {
		if s.InternalValue == nil || *s.InternalValue != int64(i) {
			t.Errorf("scale %d internal = %v", i, s.InternalValue)
		}
		if s.TextValue != wantText[i] {
			t.Errorf("scale %d text = %q, want %q", i, s.TextValue, wantText[i])
		}
	}
}

func TestLowerTypeStruct(t *testing.T) {
	def := &document.TypeDefinition{
		Base: "struct",
		Fields: []document.StructField{
			{Name: "voltage", Type: "u16"},
			{Name: "state", Type: "u8"},
			{Name: "counter", Type: "u32"},
		},
	}
	dop := LowerType("sensor_block", def)

	if !dop.IsStructure() {
		t.Fatal("expected composite DOP")
	}
	wantPos := []uint32{0, 2, 3}
	wantRef := []string{"u16", "u8", "u32"}
	for i, m := range dop.StructMembers {
		if m.BytePosition != wantPos[i] {
			t.Errorf("member %d position = %d, want %d", i, m.BytePosition, wantPos[i])
		}
		v, ok := m.Spec.(ir.Value)
		if !ok {
			t.Fatalf("member %d spec kind = %v", i, m.Kind())
		}
		if v.DOPRef != wantRef[i] {
			t.Errorf("member %d dop ref = %q, want %q", i, v.DOPRef, wantRef[i])
		}
	}
}

func TestCheckStructCycles(t *testing.T) {
	a := &ir.DOP{ShortName: "a", StructMembers: []ir.Param{
		{ShortName: "x", Spec: ir.Value{DOPRef: "b"}},
	}}
	b := &ir.DOP{ShortName: "b", StructMembers: []ir.Param{
		{ShortName: "y", Spec: ir.Value{DOPRef: "a"}},
	}}

	err := CheckStructCycles(map[string]*ir.DOP{"a": a, "b": b})
	if err == nil {
		t.Fatal("expected cycle error")
	}
	if !errors.Is(err, errors.ErrDefect) {
		t.Errorf("error = %v, want defect", err)
	}

	// Break the cycle: b now references a leaf base type.
	b.StructMembers[0].Spec = ir.Value{DOPRef: "u8"}
	if err := CheckStructCycles(map[string]*ir.DOP{"a": a, "b": b}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestStandardDOPs(t *testing.T) {
	dops := standardDOPs()
	byName := make(map[string]*ir.DOP, len(dops))
	for _, d := range dops {
		byName[d.ShortName] = d
	}

	did, ok := byName["DOP_DID"]
	if !ok {
		t.Fatal("DOP_DID missing")
	}
	if did.Coded.BitLength != 16 || did.Coded.BaseDataType != ir.DataUInt32 {
		t.Errorf("DOP_DID coded = %+v", did.Coded)
	}

	eop, ok := byName["DOP_EndOfPDU_ByteArray"]
	if !ok {
		t.Fatal("DOP_EndOfPDU_ByteArray missing")
	}
	if eop.Coded.TypeName != ir.CodedMinMaxLength {
		t.Errorf("type name = %v", eop.Coded.TypeName)
	}
	if eop.Coded.MinLength == nil || *eop.Coded.MinLength != 1 {
		t.Errorf("min length = %v", eop.Coded.MinLength)
	}
	if eop.Coded.MaxLength == nil || *eop.Coded.MaxLength != 255 {
		t.Errorf("max length = %v", eop.Coded.MaxLength)
	}
	if eop.Coded.Termination != ir.TerminationEndOfPDU {
		t.Errorf("termination = %q", eop.Coded.Termination)
	}

	if _, ok := byName["DOP_ByteArray"]; !ok {
		t.Error("DOP_ByteArray missing")
	}
	if d := byName["DOP_INT32"]; d == nil || d.Coded.BaseDataType != ir.DataInt32 {
		t.Error("DOP_INT32 missing or wrong base type")
	}
	if len(dops) != 8 {
		t.Errorf("standard DOP count = %d", len(dops))
	}
}
