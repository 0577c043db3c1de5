package document

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// SubfunctionSet is a service's subfunctions entry: either a mapping of
// names to subfunction values or a bare list of values.
type SubfunctionSet struct {
	Named  map[string]HexInt8
	Values []HexInt8
}

func (s *SubfunctionSet) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		return node.Decode(&s.Named)
	case yaml.SequenceNode:
		return node.Decode(&s.Values)
	default:
		return fmt.Errorf("line %d: subfunctions must be a mapping or a list", node.Line)
	}
}

// IsEmpty reports whether no subfunctions were declared.
func (s *SubfunctionSet) IsEmpty() bool {
	return s == nil || (len(s.Named) == 0 && len(s.Values) == 0)
}

// ServiceConfig is the shared shape of one UDS service entry.
type ServiceConfig struct {
	Enabled        bool            `yaml:"enabled"`
	Description    string          `yaml:"description"`
	AddressingMode string          `yaml:"addressing_mode"`
	Subfunctions   *SubfunctionSet `yaml:"subfunctions"`
	NRCOnFail      HexInt8         `yaml:"nrc_on_fail"`
	Audience       *AudienceSet    `yaml:"audience"`

	// Service-specific knobs, decoded but not all consumed.
	StateEffects       map[string]any `yaml:"state_effects"`
	RequestLayout      map[string]any `yaml:"request_layout"`
	ResponseOutputs    []any          `yaml:"response_outputs"`
	CommunicationTypes []string       `yaml:"communication_types"`
	MaxLength          int            `yaml:"max_length"`
	ALFID              *HexInt8       `yaml:"alfid"`
	DIDs               []HexInt16     `yaml:"dids"`
}

// IsEnabled is nil-safe: an absent entry is not enabled.
func (c *ServiceConfig) IsEnabled() bool { return c != nil && c.Enabled }

// ServicesConfig is the services section. Every key is optional; an absent
// entry leaves the service at its built-in default behavior.
type ServicesConfig struct {
	DiagnosticSessionControl   *ServiceConfig `yaml:"diagnosticSessionControl"`
	EcuReset                   *ServiceConfig `yaml:"ecuReset"`
	SecurityAccess             *ServiceConfig `yaml:"securityAccess"`
	CommunicationControl       *ServiceConfig `yaml:"communicationControl"`
	Authentication             *ServiceConfig `yaml:"authentication"`
	TesterPresent              *ServiceConfig `yaml:"testerPresent"`
	ReadDataByIdentifier       *ServiceConfig `yaml:"readDataByIdentifier"`
	WriteDataByIdentifier      *ServiceConfig `yaml:"writeDataByIdentifier"`
	RoutineControl             *ServiceConfig `yaml:"routineControl"`
	RequestDownload            *ServiceConfig `yaml:"requestDownload"`
	RequestUpload              *ServiceConfig `yaml:"requestUpload"`
	TransferData               *ServiceConfig `yaml:"transferData"`
	RequestTransferExit        *ServiceConfig `yaml:"requestTransferExit"`
	ClearDiagnosticInformation *ServiceConfig `yaml:"clearDiagnosticInformation"`
	ReadDTCInformation         *ServiceConfig `yaml:"readDTCInformation"`
	ControlDTCSetting          *ServiceConfig `yaml:"controlDTCSetting"`
	ReadMemoryByAddress        *ServiceConfig `yaml:"readMemoryByAddress"`
	WriteMemoryByAddress       *ServiceConfig `yaml:"writeMemoryByAddress"`
	LinkControl                *ServiceConfig `yaml:"linkControl"`
	ResponseOnEvent            *ServiceConfig `yaml:"responseOnEvent"`

	// Custom holds OEM-specific services keyed by name.
	Custom map[string]*ServiceConfig `yaml:"custom"`
}
