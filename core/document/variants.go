package document

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ScalarString captures any YAML scalar as its literal text, so numeric
// and string spellings of a value compare equally downstream.
type ScalarString string

func (s *ScalarString) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected scalar value", node.Line)
	}
	*s = ScalarString(node.Value)
	return nil
}

// ResponseParamMatch detects a variant by comparing a response parameter
// of a diagnostic service against an expected value.
type ResponseParamMatch struct {
	Service       string       `yaml:"service"`
	ExpectedValue ScalarString `yaml:"expected_value"`
	ParamPath     string       `yaml:"param_path"`
}

// VariantDetect holds the detection rules for one variant.
type VariantDetect struct {
	ResponseParamMatch *ResponseParamMatch `yaml:"response_param_match"`
}

// VariantDefinition describes one ECU variant beyond the implicit base.
type VariantDefinition struct {
	Description string         `yaml:"description"`
	Detect      *VariantDetect `yaml:"detect"`
}

// VariantsSection is the variants block of the document.
type VariantsSection struct {
	Definitions map[string]*VariantDefinition `yaml:"definitions"`
}
