package document

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// TypeRef is either the name of an entry in the types section or an inline
// type definition.
type TypeRef struct {
	Name   string
	Inline *TypeDefinition
}

func (t *TypeRef) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		t.Name = node.Value
		return nil
	case yaml.MappingNode:
		t.Inline = new(TypeDefinition)
		return node.Decode(t.Inline)
	default:
		return fmt.Errorf("line %d: type must be a name or an inline definition", node.Line)
	}
}

// IsZero reports whether the reference is entirely absent.
func (t TypeRef) IsZero() bool { return t.Name == "" && t.Inline == nil }

// AccessCondition is one entry of a DID's read or write condition list.
type AccessCondition struct {
	Session        string `yaml:"session"`
	Security       string `yaml:"security"`
	Authentication string `yaml:"authentication"`
}

// DIDDefinition describes one data identifier.
type DIDDefinition struct {
	Name            string            `yaml:"name"`
	Description     string            `yaml:"description"`
	Type            TypeRef           `yaml:"type"`
	Access          string            `yaml:"access"`
	Readable        *bool             `yaml:"readable"`
	Writable        *bool             `yaml:"writable"`
	Snapshot        *bool             `yaml:"snapshot"`
	IOControl       bool              `yaml:"io_control"`
	Annotations     map[string]string `yaml:"annotations"`
	AccessPattern   string            `yaml:"access_pattern"`
	ReadConditions  []AccessCondition `yaml:"read_conditions"`
	WriteConditions []AccessCondition `yaml:"write_conditions"`
	Scale           *float64          `yaml:"scale"`
	Offset          *float64          `yaml:"offset"`
	Unit            string            `yaml:"unit"`
	Audience        *AudienceSet      `yaml:"audience"`
}

// AccessRef returns the access pattern name, preferring the access field
// over the legacy access_pattern spelling.
func (d *DIDDefinition) AccessRef() string {
	if d.Access != "" {
		return d.Access
	}
	return d.AccessPattern
}

// IsReadable applies the default: DIDs are readable unless disabled. The
// legacy access string is honored only when neither flag is set.
func (d *DIDDefinition) IsReadable() bool {
	if d.Readable != nil {
		return *d.Readable
	}
	if d.Writable == nil {
		if mode, ok := legacyAccessMode(d.Access); ok {
			return mode == "read" || mode == "read_write"
		}
	}
	return true
}

// IsWritable applies the default: DIDs are read-only unless enabled.
func (d *DIDDefinition) IsWritable() bool {
	if d.Writable != nil {
		return *d.Writable
	}
	if d.Readable == nil {
		if mode, ok := legacyAccessMode(d.Access); ok {
			return mode == "write" || mode == "read_write"
		}
	}
	return false
}

// IsLegacyAccessMode reports whether the access field carries a read/write
// mode string instead of an access pattern reference.
func IsLegacyAccessMode(access string) bool {
	_, ok := legacyAccessMode(access)
	return ok
}

// legacyAccessMode interprets the access field as a read/write mode string,
// the pre-pattern form still accepted for compatibility.
func legacyAccessMode(access string) (string, bool) {
	switch strings.ToLower(access) {
	case "read":
		return "read", true
	case "write":
		return "write", true
	case "read_write", "readwrite":
		return "read_write", true
	default:
		return "", false
	}
}

// DIDMap maps 16-bit DID addresses to definitions. YAML keys may be
// decimal or 0x-prefixed hex.
type DIDMap map[uint16]*DIDDefinition

func (m *DIDMap) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: dids must be a mapping", node.Line)
	}
	out := make(DIDMap, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		addr, err := parseMapKey(key, 0xFFFF, "DID address")
		if err != nil {
			return err
		}
		def := new(DIDDefinition)
		if err := val.Decode(def); err != nil {
			return err
		}
		if _, dup := out[uint16(addr)]; dup {
			return fmt.Errorf("line %d: duplicate DID address 0x%04x", key.Line, addr)
		}
		out[uint16(addr)] = def
	}
	*m = out
	return nil
}

// parseMapKey decodes a mapping key as a bounded decimal or hex integer.
func parseMapKey(node *yaml.Node, max uint64, what string) (uint64, error) {
	s := strings.TrimSpace(node.Value)
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
		return 0, fmt.Errorf("line %d: %s %q is not an integer", node.Line, what, s)
	}
	if v > max {
		return 0, fmt.Errorf("line %d: %s %#x exceeds %#x", node.Line, what, v, max)
	}
	return v, nil
}
