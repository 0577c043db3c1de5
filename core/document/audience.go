package document

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Standard audience identifiers. Custom names are also accepted.
const (
	AudienceDevelopment = "development"
	AudienceProduction  = "production"
	AudienceAftermarket = "aftermarket"
	AudienceOEM         = "oem"
	AudienceInternal    = "internal"
	AudienceSupplier    = "supplier"
)

// AudienceSet restricts an item to some audiences. An empty set means the
// item is visible to all. YAML accepts a mapping with include/exclude
// lists, a bare list (treated as include), or a single name.
type AudienceSet struct {
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
}

func (a *AudienceSet) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		type raw AudienceSet
		var r raw
		if err := node.Decode(&r); err != nil {
			return err
		}
		*a = AudienceSet(r)
		return nil
	case yaml.SequenceNode:
		return node.Decode(&a.Include)
	case yaml.ScalarNode:
		a.Include = []string{node.Value}
		return nil
	default:
		return fmt.Errorf("line %d: audience must be a mapping, list, or name", node.Line)
	}
}

// Accessible reports whether the target audience may see the item, given
// the full set of audiences the target inherits.
func (a *AudienceSet) Accessible(target string, effective map[string]bool) bool {
	if a == nil || target == "" {
		return true
	}
	for _, e := range a.Exclude {
		if e == target {
			return false
		}
	}
	if len(a.Include) == 0 {
		return true
	}
	for _, in := range a.Include {
		if in == target || effective[in] {
			return true
		}
	}
	return false
}

// AudienceConfig declares the audiences a document targets and an optional
// inheritance hierarchy between them.
type AudienceConfig struct {
	Default   string              `yaml:"default"`
	Available []string            `yaml:"available"`
	Hierarchy map[string][]string `yaml:"hierarchy"`
}

// DefaultAudience returns the configured default, or production.
func (c *AudienceConfig) DefaultAudience() string {
	if c == nil || c.Default == "" {
		return AudienceProduction
	}
	return c.Default
}

// EffectiveAudiences returns the audience itself plus everything it
// inherits through the hierarchy, sorted. Cycles terminate.
func (c *AudienceConfig) EffectiveAudiences(audience string) []string {
	visited := map[string]bool{audience: true}
	if c != nil {
		c.walkHierarchy(audience, visited)
	}
	out := make([]string, 0, len(visited))
	for a := range visited {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

func (c *AudienceConfig) walkHierarchy(audience string, visited map[string]bool) {
	for _, parent := range c.Hierarchy[audience] {
		if visited[parent] {
			continue
		}
		visited[parent] = true
		c.walkHierarchy(parent, visited)
	}
}
