package transform

import (
	"sort"
	"strings"

	"github.com/diagkit/mddc/core/document"
	"github.com/diagkit/mddc/core/errors"
	"github.com/diagkit/mddc/core/ir"
)

// baseInfo maps a document base type to its coded data type and default
// bit length. A zero bit length means the length comes from the type's
// length field.
type baseInfo struct {
	dataType  ir.DataType
	bitLength uint32
}

var baseTypeInfo = map[string]baseInfo{
	"u8":    {ir.DataUInt32, 8},
	"u16":   {ir.DataUInt32, 16},
	"u24":   {ir.DataUInt32, 24},
	"u32":   {ir.DataUInt32, 32},
	"u64":   {ir.DataUInt32, 64},
	"i8":    {ir.DataInt32, 8},
	"i16":   {ir.DataInt32, 16},
	"i24":   {ir.DataInt32, 24},
	"i32":   {ir.DataInt32, 32},
	"i64":   {ir.DataInt32, 64},
	"f32":   {ir.DataFloat32, 32},
	"f64":   {ir.DataFloat64, 64},
	"ascii": {ir.DataAsciiString, 0},
	"utf8":  {ir.DataUtf8String, 0},
	"utf16": {ir.DataUnicode2String, 0},
	"bytes": {ir.DataByteField, 0},
	"bool":  {ir.DataUInt32, 8},
}

// typeByteSizes gives the byte width of fixed-size base types, used for
// struct member layout and DTC extended data records. Unknown types default
// to 2 bytes.
var typeByteSizes = map[string]uint32{
	"u8": 1, "i8": 1,
	"u16": 2, "i16": 2,
	"u24": 3, "i24": 3,
	"u32": 4, "i32": 4, "f32": 4,
	"f64": 8,
}

func typeByteSize(name string) uint32 {
	if name == "" {
		return 1
	}
	if n, ok := typeByteSizes[name]; ok {
		return n
	}
	return 2
}

// LowerType converts one type definition into a DOP named after it.
// Struct types become composite DOPs whose members reference their field
// types by name; everything else becomes a leaf DOP with a coded type,
// an optional computation method, and a physical type.
func LowerType(name string, def *document.TypeDefinition) *ir.DOP {
	if def.Base == "struct" {
		return lowerStruct(name, def)
	}

	coded := lowerCodedType(def)
	compu := lowerCompuMethod(def)
	phys := physicalType(def, compu)

	return &ir.DOP{
		ShortName:    name,
		LongName:     def.Description,
		Coded:        coded,
		Compu:        compu,
		PhysicalType: &phys,
		Unit:         def.Unit,
	}
}

func lowerCodedType(def *document.TypeDefinition) *ir.DiagCodedType {
	info, ok := baseTypeInfo[def.Base]
	if !ok {
		info = baseInfo{ir.DataByteField, 0}
	}

	var bitLength uint32
	switch def.Base {
	case "ascii", "utf8", "bytes":
		n := def.Length
		if n == 0 {
			n = 1
		}
		bitLength = uint32(n) * 8
	case "utf16":
		n := def.Length
		if n == 0 {
			n = 1
		}
		bitLength = uint32(n) * 16
	default:
		if def.BitLength > 0 {
			bitLength = uint32(def.BitLength)
		} else {
			bitLength = info.bitLength
		}
	}

	return &ir.DiagCodedType{
		TypeName:         ir.CodedStandardLength,
		BaseDataType:     info.dataType,
		BitLength:        bitLength,
		HighLowByteOrder: def.Endian != "little",
	}
}

// lowerCompuMethod builds the raw-to-physical conversion for a type.
// Enums become text tables, scale/offset becomes a single linear scale,
// and a nil return means the identity conversion.
func lowerCompuMethod(def *document.TypeDefinition) *ir.CompuMethod {
	if len(def.Enum) > 0 {
		keys := make([]int64, 0, len(def.Enum))
		for k := range def.Enum {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

		scales := make([]ir.CompuScale, 0, len(keys))
		for _, k := range keys {
			iv := k
			scales = append(scales, ir.CompuScale{
				InternalValue: &iv,
				TextValue:     def.Enum[k],
			})
		}
		return &ir.CompuMethod{
			Category: ir.CompuTextTable,
			Scales:   scales,
		}
	}

	if def.Scale != nil || def.Offset != nil {
		factor := 1.0
		if def.Scale != nil {
			factor = *def.Scale
		}
		offset := 0.0
		if def.Offset != nil {
			offset = *def.Offset
		}
		return &ir.CompuMethod{
			Category: ir.CompuLinear,
			Scales:   []ir.CompuScale{{Factor: &factor, Offset: &offset}},
			Unit:     def.Unit,
		}
	}

	return nil
}

func physicalType(def *document.TypeDefinition, compu *ir.CompuMethod) ir.DataType {
	if compu != nil && compu.Category == ir.CompuTextTable {
		return ir.DataAsciiString
	}
	switch def.Base {
	case "f32":
		return ir.DataFloat32
	case "f64":
		return ir.DataFloat64
	case "ascii", "utf8":
		return ir.DataAsciiString
	case "utf16":
		return ir.DataUnicode2String
	case "bytes":
		return ir.DataByteField
	case "i8", "i16", "i24", "i32", "i64":
		return ir.DataInt32
	}
	return ir.DataUInt32
}

func lowerStruct(name string, def *document.TypeDefinition) *ir.DOP {
	members := make([]ir.Param, 0, len(def.Fields))
	var pos uint32
	for _, field := range def.Fields {
		p := ir.Param{
			ShortName:    field.Name,
			BytePosition: pos,
			Semantic:     "DATA",
			Spec:         ir.Value{DOPRef: field.Type},
		}
		if field.BitPosition != nil {
			bp := uint32(*field.BitPosition)
			p.BitPosition = &bp
		}
		members = append(members, p)
		pos += typeByteSize(field.Type)
	}
	return &ir.DOP{
		ShortName:     name,
		LongName:      def.Description,
		StructMembers: members,
	}
}

// CheckStructCycles rejects DOP sets where struct members reference each
// other in a cycle. Member references to types without a DOP (base types)
// are leaves and always fine.
func CheckStructCycles(dops map[string]*ir.DOP) error {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(dops))

	var visit func(name string, path []string) error
	visit = func(name string, path []string) error {
		dop, ok := dops[name]
		if !ok || state[name] == done {
			return nil
		}
		if state[name] == visiting {
			cycle := append(path, name)
			return errors.NewDefectf("transform", "struct type cycle: %s", strings.Join(cycle, " -> "))
		}
		state[name] = visiting
		for _, m := range dop.StructMembers {
			v, ok := m.Spec.(ir.Value)
			if !ok {
				continue
			}
			if err := visit(v.DOPRef, append(path, name)); err != nil {
				return err
			}
		}
		state[name] = done
		return nil
	}

	names := make([]string, 0, len(dops))
	for name := range dops {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := visit(name, nil); err != nil {
			return err
		}
	}
	return nil
}
