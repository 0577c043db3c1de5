package document

// SchemaVersion is the only document schema this loader understands.
const SchemaVersion = "opensovd.cda.diagdesc/v1"

// Document is the root of a diagnostic description file.
//
// Schema, Meta, Ecu, Sessions and Services are required; everything else
// is optional and nil or empty when absent.
type Document struct {
	Schema         string                     `yaml:"schema"`
	Meta           Meta                       `yaml:"meta"`
	Ecu            Ecu                        `yaml:"ecu"`
	Sessions       map[string]*Session        `yaml:"sessions"`
	Services       *ServicesConfig            `yaml:"services"`
	AccessPatterns map[string]*AccessPattern  `yaml:"access_patterns"`
	Security       map[string]*SecurityLevel  `yaml:"security"`
	Types          map[string]*TypeDefinition `yaml:"types"`
	DIDs           DIDMap                     `yaml:"dids"`
	Routines       RoutineMap                 `yaml:"routines"`
	DTCConfig      *DTCConfig                 `yaml:"dtc_config"`
	DTCs           DTCMap                     `yaml:"dtcs"`
	Memory         *MemoryConfig              `yaml:"memory"`
	Variants       *VariantsSection           `yaml:"variants"`
	Audience       *AudienceConfig            `yaml:"audience"`

	// Pass-through sections. Decoded so documents that carry them still
	// load, but nothing downstream consumes them yet.
	Authentication map[string]any `yaml:"authentication"`
	StateModel     map[string]any `yaml:"state_model"`
	Identification map[string]any `yaml:"identification"`
	Annotations    map[string]any `yaml:"annotations"`
	SDGs           map[string]any `yaml:"sdgs"`
	Comparams      map[string]any `yaml:"comparams"`
	EcuJobs        map[string]any `yaml:"ecu_jobs"`
	OEM            map[string]any `yaml:"x-oem"`

	// Source is the path the document was loaded from, or the name given
	// to Parse. Not part of the YAML model.
	Source string `yaml:"-"`
}

// Meta is the document metadata block.
type Meta struct {
	Author      string     `yaml:"author"`
	Domain      string     `yaml:"domain"`
	Created     string     `yaml:"created"`
	Revision    string     `yaml:"revision"`
	Description string     `yaml:"description"`
	Tags        []string   `yaml:"tags"`
	Revisions   []Revision `yaml:"revisions"`
}

// Revision is one entry of the revision history.
type Revision struct {
	Version string `yaml:"version"`
	Date    string `yaml:"date"`
	Author  string `yaml:"author"`
	Changes string `yaml:"changes"`
}

// Session defines one diagnostic session.
type Session struct {
	ID             HexInt8        `yaml:"id"`
	Alias          string         `yaml:"alias"`
	Description    string         `yaml:"description"`
	RequiresUnlock bool           `yaml:"requires_unlock"`
	Timing         *SessionTiming `yaml:"timing"`
}

// SessionTiming overrides the ECU default timing for one session.
type SessionTiming struct {
	P2Ms     int `yaml:"p2_ms"`
	P2StarMs int `yaml:"p2_star_ms"`
}

// SecurityLevel defines one SecurityAccess (0x27) level. SeedRequest must
// be odd and KeySend even; the validator reports violations.
type SecurityLevel struct {
	Level           int      `yaml:"level"`
	Description     string   `yaml:"description"`
	SeedRequest     HexInt8  `yaml:"seed_request"`
	KeySend         HexInt8  `yaml:"key_send"`
	SeedSize        int      `yaml:"seed_size"`
	KeySize         int      `yaml:"key_size"`
	Algorithm       string   `yaml:"algorithm"`
	MaxAttempts     int      `yaml:"max_attempts"`
	DelayOnFailMs   int      `yaml:"delay_on_fail_ms"`
	AllowedSessions []string `yaml:"allowed_sessions"`
	DelayOnLockout  int      `yaml:"delay_on_lockout_ms"`
	PowerCycleReset bool     `yaml:"power_cycle_resets"`
}
