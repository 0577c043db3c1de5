package document

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// SessionsValue is the sessions field of an access pattern: the literal
// "any", a single session name, or a list of session names.
type SessionsValue struct {
	Any   bool
	Names []string
}

func (s *SessionsValue) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Value == "any" {
			s.Any = true
			return nil
		}
		s.Names = []string{node.Value}
		return nil
	case yaml.SequenceNode:
		return node.Decode(&s.Names)
	default:
		return fmt.Errorf("line %d: sessions must be \"any\", a name, or a list", node.Line)
	}
}

// SecurityValue is the security field of an access pattern: the literal
// "none", a single level name, or a list of level names.
type SecurityValue struct {
	None  bool
	Names []string
}

func (s *SecurityValue) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Value == "none" {
			s.None = true
			return nil
		}
		s.Names = []string{node.Value}
		return nil
	case yaml.SequenceNode:
		return node.Decode(&s.Names)
	default:
		return fmt.Errorf("line %d: security must be \"none\", a name, or a list", node.Line)
	}
}

// AuthValue is the authentication field of an access pattern: the literal
// "none", a single role, or a list of roles.
type AuthValue struct {
	None  bool
	Roles []string
}

func (a *AuthValue) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Value == "none" {
			a.None = true
			return nil
		}
		a.Roles = []string{node.Value}
		return nil
	case yaml.SequenceNode:
		return node.Decode(&a.Roles)
	default:
		return fmt.Errorf("line %d: authentication must be \"none\", a role, or a list", node.Line)
	}
}

// AccessPattern is a reusable access control rule referenced by DIDs and
// routines.
type AccessPattern struct {
	Description    string        `yaml:"description"`
	Sessions       SessionsValue `yaml:"sessions"`
	Security       SecurityValue `yaml:"security"`
	Authentication AuthValue     `yaml:"authentication"`
	NRCOnFail      HexInt8       `yaml:"nrc_on_fail"`
}

// SessionNames returns the referenced session names, or nil when the
// pattern applies to any session.
func (p *AccessPattern) SessionNames() []string {
	if p == nil || p.Sessions.Any {
		return nil
	}
	return p.Sessions.Names
}

// SecurityNames returns the referenced security level names, or nil when
// no unlock is required.
func (p *AccessPattern) SecurityNames() []string {
	if p == nil || p.Security.None {
		return nil
	}
	return p.Security.Names
}
