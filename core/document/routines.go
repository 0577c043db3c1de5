package document

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Routine operation names accepted in RoutineDefinition.Operations.
const (
	RoutineStart  = "start"
	RoutineStop   = "stop"
	RoutineResult = "result"
)

// RoutineParam is one input or output parameter of a routine operation.
type RoutineParam struct {
	Name        string  `yaml:"name"`
	Type        TypeRef `yaml:"type"`
	Description string  `yaml:"description"`
	Optional    bool    `yaml:"optional"`
}

// RoutineOperationParams groups the parameters of one routine operation.
type RoutineOperationParams struct {
	Input  []RoutineParam `yaml:"input"`
	Output []RoutineParam `yaml:"output"`
}

// RoutineParams holds the per-operation parameter lists.
type RoutineParams struct {
	Start  *RoutineOperationParams `yaml:"start"`
	Stop   *RoutineOperationParams `yaml:"stop"`
	Result *RoutineOperationParams `yaml:"result"`
}

// RoutineDefinition describes one control routine.
type RoutineDefinition struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Access      string         `yaml:"access"`
	Operations  []string       `yaml:"operations"`
	Parameters  *RoutineParams `yaml:"parameters"`
	Audience    *AudienceSet   `yaml:"audience"`
}

// HasOperation reports whether the routine declares the given operation.
func (r *RoutineDefinition) HasOperation(op string) bool {
	for _, o := range r.Operations {
		if o == op {
			return true
		}
	}
	return false
}

// RoutineMap maps 16-bit routine identifiers to definitions. YAML keys may
// be decimal or 0x-prefixed hex.
type RoutineMap map[uint16]*RoutineDefinition

func (m *RoutineMap) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: routines must be a mapping", node.Line)
	}
	out := make(RoutineMap, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		id, err := parseMapKey(key, 0xFFFF, "routine identifier")
		if err != nil {
			return err
		}
		def := new(RoutineDefinition)
		if err := val.Decode(def); err != nil {
			return err
		}
		if _, dup := out[uint16(id)]; dup {
			return fmt.Errorf("line %d: duplicate routine identifier 0x%04x", key.Line, id)
		}
		out[uint16(id)] = def
	}
	*m = out
	return nil
}
