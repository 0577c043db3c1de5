package document

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// DTCConfig is the global trouble code configuration.
type DTCConfig struct {
	StatusAvailabilityMask HexInt8 `yaml:"status_availability_mask"`

	// Preferred spellings.
	DefaultSnapshots    map[string]*SnapshotDefinition `yaml:"default_snapshots"`
	DefaultExtendedData map[string]*ExtendedDataDef    `yaml:"default_extended_data"`

	// Legacy spellings, honored when the preferred maps are absent.
	Snapshots    map[string]*SnapshotDefinition `yaml:"snapshots"`
	ExtendedData map[string]*ExtendedDataDef    `yaml:"extended_data"`
}

// SnapshotDefaults returns the shared snapshot records, preferring
// default_snapshots over the legacy snapshots key.
func (c *DTCConfig) SnapshotDefaults() map[string]*SnapshotDefinition {
	if c == nil {
		return nil
	}
	if c.DefaultSnapshots != nil {
		return c.DefaultSnapshots
	}
	return c.Snapshots
}

// ExtendedDataDefaults returns the shared extended data records, preferring
// default_extended_data over the legacy extended_data key.
func (c *DTCConfig) ExtendedDataDefaults() map[string]*ExtendedDataDef {
	if c == nil {
		return nil
	}
	if c.DefaultExtendedData != nil {
		return c.DefaultExtendedData
	}
	return c.ExtendedData
}

// SnapshotDataRef names one DID captured in a snapshot record.
type SnapshotDataRef struct {
	DID         HexInt16 `yaml:"did"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
}

// SnapshotDefinition describes one freeze frame record.
type SnapshotDefinition struct {
	RecordNumber HexInt8           `yaml:"record_number"`
	Description  string            `yaml:"description"`
	DIDs         []HexInt16        `yaml:"dids"`
	Data         []SnapshotDataRef `yaml:"data"`
	Trigger      string            `yaml:"trigger"`
	Update       string            `yaml:"update"`
}

// CapturedDIDs returns the snapshot's DIDs from whichever form the
// document used.
func (s *SnapshotDefinition) CapturedDIDs() []uint16 {
	if len(s.Data) > 0 {
		out := make([]uint16, len(s.Data))
		for i, d := range s.Data {
			out[i] = uint16(d.DID)
		}
		return out
	}
	out := make([]uint16, len(s.DIDs))
	for i, d := range s.DIDs {
		out[i] = uint16(d)
	}
	return out
}

// ExtendedDataDef describes one extended data record.
type ExtendedDataDef struct {
	RecordNumber HexInt8 `yaml:"record_number"`
	Name         string  `yaml:"name"`
	Type         TypeRef `yaml:"type"`
	Unit         string  `yaml:"unit"`
	Trigger      string  `yaml:"trigger"`
}

// SnapshotRef is a snapshot list entry on a DTC: either the name of a
// shared record or an inline definition.
type SnapshotRef struct {
	Name   string
	Inline *SnapshotDefinition
}

func (r *SnapshotRef) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		r.Name = node.Value
		return nil
	case yaml.MappingNode:
		r.Inline = new(SnapshotDefinition)
		return node.Decode(r.Inline)
	default:
		return fmt.Errorf("line %d: snapshot must be a name or an inline record", node.Line)
	}
}

// ExtendedDataRef is an extended data list entry on a DTC: shared record
// name or inline definition.
type ExtendedDataRef struct {
	Name   string
	Inline *ExtendedDataDef
}

func (r *ExtendedDataRef) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		r.Name = node.Value
		return nil
	case yaml.MappingNode:
		r.Inline = new(ExtendedDataDef)
		return node.Decode(r.Inline)
	default:
		return fmt.Errorf("line %d: extended_data must be a name or an inline record", node.Line)
	}
}

// DTCDefinition describes one diagnostic trouble code.
type DTCDefinition struct {
	Name                  string            `yaml:"name"`
	SAE                   string            `yaml:"sae"`
	Description           string            `yaml:"description"`
	Severity              int               `yaml:"severity"`
	FunctionalUnit        HexInt8           `yaml:"functional_unit"`
	Snapshots             []SnapshotRef     `yaml:"snapshots"`
	ExtendedData          []ExtendedDataRef `yaml:"extended_data"`
	AgingCounterThreshold *int              `yaml:"aging_counter_threshold"`
	AgedCounterThreshold  *int              `yaml:"aged_counter_threshold"`
	Priority              *int              `yaml:"priority"`
	Audience              *AudienceSet      `yaml:"audience"`
}

// DTCMap maps 24-bit trouble codes to definitions. YAML keys may be
// decimal or 0x-prefixed hex.
type DTCMap map[uint32]*DTCDefinition

func (m *DTCMap) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: dtcs must be a mapping", node.Line)
	}
	out := make(DTCMap, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		code, err := parseMapKey(key, 0xFFFFFF, "DTC code")
		if err != nil {
			return err
		}
		def := new(DTCDefinition)
		if err := val.Decode(def); err != nil {
			return err
		}
		if _, dup := out[uint32(code)]; dup {
			return fmt.Errorf("line %d: duplicate DTC code 0x%06x", key.Line, code)
		}
		out[uint32(code)] = def
	}
	*m = out
	return nil
}
