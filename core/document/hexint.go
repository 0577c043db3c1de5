package document

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// HexInt is an integer scalar that accepts decimal ("4660") or hex
// ("0x1234") notation. The hex prefix is case-insensitive.
type HexInt int64

// HexInt8 is a HexInt restricted to 0..0xFF.
type HexInt8 uint8

// HexInt16 is a HexInt restricted to 0..0xFFFF.
type HexInt16 uint16

// HexInt24 is a HexInt restricted to 0..0xFFFFFF.
type HexInt24 uint32

// HexInt32 is a HexInt restricted to 0..0xFFFFFFFF.
type HexInt32 uint32

// parseHexScalar decodes a scalar node as decimal or 0x-prefixed hex.
// YAML's own integer parsing is bypassed so that leading zeros never
// trigger octal interpretation.
func parseHexScalar(node *yaml.Node) (int64, error) {
	if node.Kind != yaml.ScalarNode {
		return 0, fmt.Errorf("line %d: expected integer scalar", node.Line)
	}
	s := strings.TrimSpace(node.Value)
	if s == "" {
		return 0, fmt.Errorf("line %d: empty integer value", node.Line)
	}
	var (
		v   uint64
		err error
	)
	if len(s) > 2 && (s[0:2] == "0x" || s[0:2] == "0X") {
		v, err = strconv.ParseUint(s[2:], 16, 64)
	} else {
		v, err = strconv.ParseUint(s, 10, 64)
	}
	if err != nil {
		return 0, fmt.Errorf("line %d: invalid integer %q", node.Line, s)
	}
	if v > 1<<62 {
		return 0, fmt.Errorf("line %d: integer %q overflows", node.Line, s)
	}
	return int64(v), nil
}

// parseHexRange decodes a scalar and enforces an inclusive upper bound.
func parseHexRange(node *yaml.Node, max int64, width int) (int64, error) {
	v, err := parseHexScalar(node)
	if err != nil {
		return 0, err
	}
	if v < 0 || v > max {
		return 0, fmt.Errorf("line %d: value %#x out of %d-bit range", node.Line, v, width)
	}
	return v, nil
}

func (h *HexInt) UnmarshalYAML(node *yaml.Node) error {
	v, err := parseHexScalar(node)
	if err != nil {
		return err
	}
	*h = HexInt(v)
	return nil
}

func (h *HexInt8) UnmarshalYAML(node *yaml.Node) error {
	v, err := parseHexRange(node, 0xFF, 8)
	if err != nil {
		return err
	}
	*h = HexInt8(v)
	return nil
}

func (h *HexInt16) UnmarshalYAML(node *yaml.Node) error {
	v, err := parseHexRange(node, 0xFFFF, 16)
	if err != nil {
		return err
	}
	*h = HexInt16(v)
	return nil
}

func (h *HexInt24) UnmarshalYAML(node *yaml.Node) error {
	v, err := parseHexRange(node, 0xFFFFFF, 24)
	if err != nil {
		return err
	}
	*h = HexInt24(v)
	return nil
}

func (h *HexInt32) UnmarshalYAML(node *yaml.Node) error {
	v, err := parseHexRange(node, 0xFFFFFFFF, 32)
	if err != nil {
		return err
	}
	*h = HexInt32(v)
	return nil
}

// The String methods zero-pad the digits only; the 0x prefix never counts
// toward the width ("0x10", not "0x0010").
func (h HexInt) String() string   { return fmt.Sprintf("0x%x", int64(h)) }
func (h HexInt8) String() string  { return fmt.Sprintf("0x%02x", uint8(h)) }
func (h HexInt16) String() string { return fmt.Sprintf("0x%04x", uint16(h)) }
func (h HexInt24) String() string { return fmt.Sprintf("0x%06x", uint32(h)) }
func (h HexInt32) String() string { return fmt.Sprintf("0x%08x", uint32(h)) }
