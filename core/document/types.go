package document

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Base type names accepted by TypeDefinition.Base. The 24-bit widths are
// declarable like any other integer; "string" is usable only as a bare
// type reference, not as a base.
var baseTypes = map[string]bool{
	"u8": true, "u16": true, "u24": true, "u32": true, "u64": true,
	"i8": true, "i16": true, "i24": true, "i32": true, "i64": true,
	"f32": true, "f64": true,
	"ascii": true, "utf8": true, "utf16": true,
	"bytes": true, "struct": true, "bool": true,
}

// IsBaseType reports whether name is a recognized base type.
func IsBaseType(name string) bool { return baseTypes[name] }

// TypeDefinition describes how a raw parameter value is decoded and
// converted to a physical value. Only the fields relevant to the chosen
// base type are meaningful; the loader rejects contradictory combinations.
type TypeDefinition struct {
	Base        string        `yaml:"base"`
	Description string        `yaml:"description"`
	Endian      string        `yaml:"endian"`
	Scale       *float64      `yaml:"scale"`
	Offset      *float64      `yaml:"offset"`
	Min         *float64      `yaml:"min"`
	Max         *float64      `yaml:"max"`
	Unit        string        `yaml:"unit"`
	Enum        EnumMap       `yaml:"enum"`
	Length      int           `yaml:"length"`
	MinLength   int           `yaml:"min_length"`
	MaxLength   int           `yaml:"max_length"`
	Encoding    string        `yaml:"encoding"`
	Fields      []StructField `yaml:"fields"`
	BitLength   int           `yaml:"bit_length"`
	Constraints *Constraints  `yaml:"constraints"`
	Pattern     string        `yaml:"pattern"`
	Validation  string        `yaml:"validation"`
	Termination string        `yaml:"termination"`
	Bitmask     *HexInt       `yaml:"bitmask"`
	Conversion  *Conversion   `yaml:"conversion"`
	Size        int           `yaml:"size"`
	Entries     []TextEntry   `yaml:"entries"`
	DefaultText string        `yaml:"default_text"`
}

// StructField is one member of a struct type definition.
type StructField struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Description string `yaml:"description"`
	BitPosition *int   `yaml:"bit_position"`
	BitLength   *int   `yaml:"bit_length"`
}

// Constraints bounds the internal or physical value range as [min, max].
type Constraints struct {
	Internal []float64 `yaml:"internal"`
	Physical []float64 `yaml:"physical"`
}

// Conversion is the extended linear conversion block.
type Conversion struct {
	Scale       float64      `yaml:"scale"`
	Offset      float64      `yaml:"offset"`
	Divisor     float64      `yaml:"divisor"`
	Shift       int          `yaml:"shift"`
	Unit        string       `yaml:"unit"`
	Constraints *Constraints `yaml:"constraints"`
}

func (c *Conversion) UnmarshalYAML(node *yaml.Node) error {
	type raw Conversion
	r := raw{Scale: 1, Divisor: 1}
	if err := node.Decode(&r); err != nil {
		return err
	}
	*c = Conversion(r)
	return nil
}

// TextEntry maps one value or value range to a text label.
type TextEntry struct {
	Value       *HexInt  `yaml:"value"`
	Range       []HexInt `yaml:"range"`
	Text        string   `yaml:"text"`
	Description string   `yaml:"description"`
}

// EnumMap maps integer values to text labels. Keys may be decimal or
// 0x-prefixed hex scalars.
type EnumMap map[int64]string

func (e *EnumMap) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: enum must be a mapping", node.Line)
	}
	m := make(EnumMap, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		k, err := parseEnumKey(key)
		if err != nil {
			return err
		}
		m[k] = val.Value
	}
	*e = m
	return nil
}

func parseEnumKey(node *yaml.Node) (int64, error) {
	s := strings.TrimSpace(node.Value)
	var (
		v   int64
		err error
	)
	if len(s) > 2 && (s[0:2] == "0x" || s[0:2] == "0X") {
		v, err = strconv.ParseInt(s[2:], 16, 64)
	} else {
		v, err = strconv.ParseInt(s, 10, 64)
	}
	if err != nil {
		return 0, fmt.Errorf("line %d: enum key %q is not an integer", node.Line, s)
	}
	return v, nil
}
