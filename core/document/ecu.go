package document

// Ecu identifies the ECU and carries its transport addressing.
type Ecu struct {
	ID                    string               `yaml:"id"`
	Name                  string               `yaml:"name"`
	Description           string               `yaml:"description"`
	Protocols             map[string]*Protocol `yaml:"protocols"`
	DefaultAddressingMode string               `yaml:"default_addressing_mode"`
	Addressing            *Addressing          `yaml:"addressing"`
}

// Protocol is one entry of the ECU protocol map.
type Protocol struct {
	ProtocolShortName string `yaml:"protocol_short_name"`
	Description       string `yaml:"description"`
	IsDefault         bool   `yaml:"is_default"`
}

// Addressing groups the transport-specific address blocks.
type Addressing struct {
	DoIP   *DoIPAddressing `yaml:"doip"`
	CAN    *CANAddressing  `yaml:"can"`
	Timing *Timing         `yaml:"timing"`
}

// DoIPAddressing configures diagnostics over IP.
type DoIPAddressing struct {
	IP                string   `yaml:"ip"`
	Port              int      `yaml:"port"`
	LogicalAddress    HexInt16 `yaml:"logical_address"`
	TesterAddress     HexInt16 `yaml:"tester_address"`
	FunctionalAddress HexInt16 `yaml:"functional_address"`
	RoutingActivation HexInt8  `yaml:"routing_activation"`
}

// CANAddressing configures diagnostics over CAN.
type CANAddressing struct {
	PhysicalRequest   HexInt32 `yaml:"physical_request"`
	PhysicalResponse  HexInt32 `yaml:"physical_response"`
	FunctionalRequest HexInt32 `yaml:"functional_request"`
}

// Timing holds the ISO 14229 session timing parameters in milliseconds.
type Timing struct {
	P2Ms     int `yaml:"p2_ms"`
	P2StarMs int `yaml:"p2_star_ms"`
	S3Ms     int `yaml:"s3_ms"`
}
