package document

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/diagkit/mddc/core/errors"
)

// Load reads and decodes a diagnostic description file. The extension must
// be .yaml, .yml or .json (YAML is a superset of JSON, so one decoder
// covers both).
func Load(path string) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewLoad(path, "file not found", err)
		}
		return nil, errors.NewLoad(path, "cannot stat file", err)
	}
	if info.IsDir() {
		return nil, errors.NewLoad(path, "not a file", nil)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
	default:
		return nil, errors.NewLoad(path,
			fmt.Sprintf("unsupported file extension %q, use .yaml, .yml, or .json", filepath.Ext(path)), nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewLoad(path, "file read error", err)
	}
	return Parse(data, path)
}

// Parse decodes a diagnostic description from raw bytes. The source name
// appears in error messages and in Document.Source.
func Parse(data []byte, source string) (*Document, error) {
	// Structural pass: catch syntax errors, empty documents, and
	// non-mapping roots before field decoding.
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, errors.NewLoad(source, "YAML parsing error", err)
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return nil, errors.NewLoad(source, "document is empty", nil)
	}
	if root.Content[0].Kind != yaml.MappingNode {
		return nil, errors.NewLoad(source,
			fmt.Sprintf("expected mapping at root level, got %s", nodeKindName(root.Content[0])), nil)
	}

	doc := new(Document)
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(doc); err != nil {
		if te, ok := err.(*yaml.TypeError); ok {
			fields := make([]errors.FieldError, 0, len(te.Errors))
			for _, msg := range te.Errors {
				fields = append(fields, errors.FieldError{Path: source, Message: msg})
			}
			return nil, errors.NewSchema(source, fields)
		}
		return nil, errors.NewSchema(source, []errors.FieldError{
			{Path: source, Message: err.Error()},
		})
	}
	doc.Source = source

	if fields := checkSchema(doc); len(fields) > 0 {
		return nil, errors.NewSchema(source, fields)
	}
	return doc, nil
}

func nodeKindName(n *yaml.Node) string {
	switch n.Kind {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.MappingNode:
		return "mapping"
	default:
		return "document"
	}
}

// checkSchema enforces the cross-field constraints the decoder cannot
// express. All violations are collected so one pass reports everything.
func checkSchema(doc *Document) []errors.FieldError {
	var out []errors.FieldError
	add := func(path, format string, args ...any) {
		out = append(out, errors.FieldError{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if doc.Schema == "" {
		add("schema", "required field is missing")
	} else if doc.Schema != SchemaVersion {
		add("schema", "unsupported schema %q, expected %q", doc.Schema, SchemaVersion)
	}
	if doc.Meta.Revision == "" {
		add("meta.revision", "required field is missing")
	}
	if doc.Ecu.ID == "" {
		add("ecu.id", "required field is missing")
	}
	if len(doc.Sessions) == 0 {
		add("sessions", "at least one session is required")
	}
	if doc.Services == nil {
		add("services", "required section is missing")
	}

	checkSecuritySchema(doc, add)
	checkTypesSchema(doc, add)
	checkRoutinesSchema(doc, add)
	checkDTCSchema(doc, add)
	checkMemorySchema(doc, add)

	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Message < out[j].Message
	})
	return out
}

func checkSecuritySchema(doc *Document, add func(string, string, ...any)) {
	for _, name := range sortedNames(doc.Security) {
		lvl := doc.Security[name]
		base := "security." + name
		if lvl.Level < 0 || lvl.Level > 255 {
			add(base+".level", "level %d out of range 0-255", lvl.Level)
		}
		if lvl.SeedSize != 0 && (lvl.SeedSize < 1 || lvl.SeedSize > 255) {
			add(base+".seed_size", "seed_size %d out of range 1-255", lvl.SeedSize)
		}
		if lvl.KeySize != 0 && (lvl.KeySize < 1 || lvl.KeySize > 255) {
			add(base+".key_size", "key_size %d out of range 1-255", lvl.KeySize)
		}
		if lvl.MaxAttempts < 0 || lvl.MaxAttempts > 255 {
			add(base+".max_attempts", "max_attempts %d out of range 0-255", lvl.MaxAttempts)
		}
		if len(lvl.AllowedSessions) == 0 {
			add(base+".allowed_sessions", "at least one session is required")
		}
	}
}

func checkTypesSchema(doc *Document, add func(string, string, ...any)) {
	for _, name := range sortedNames(doc.Types) {
		td := doc.Types[name]
		base := "types." + name
		checkTypeDefinition(td, base, add)
	}
	for _, addr := range sortedDIDs(doc.DIDs) {
		did := doc.DIDs[addr]
		base := fmt.Sprintf("dids.0x%04x", addr)
		if did.Name == "" {
			add(base+".name", "required field is missing")
		}
		if did.Type.IsZero() {
			add(base+".type", "required field is missing")
		}
		if did.Type.Inline != nil {
			checkTypeDefinition(did.Type.Inline, base+".type", add)
		}
	}
}

func sortedDIDs(m DIDMap) []uint16 {
	out := make([]uint16, 0, len(m))
	for addr := range m {
		out = append(out, addr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// checkTypeDefinition validates one definition; shared with inline types.
func checkTypeDefinition(td *TypeDefinition, base string, add func(string, string, ...any)) {
	if td.Base == "" {
		add(base+".base", "required field is missing")
	} else if !IsBaseType(td.Base) {
		add(base+".base", "unknown base type %q", td.Base)
	}
	if td.Endian != "" && td.Endian != "big" && td.Endian != "little" {
		add(base+".endian", "endian must be big or little, got %q", td.Endian)
	}
	if td.MinLength > 0 && td.MaxLength > 0 && td.MinLength > td.MaxLength {
		add(base+".min_length", "min_length %d exceeds max_length %d", td.MinLength, td.MaxLength)
	}
	if td.Base == "struct" {
		if len(td.Fields) == 0 {
			add(base+".fields", "struct type requires at least one field")
		}
		if td.Scale != nil || td.Offset != nil || len(td.Enum) > 0 {
			add(base, "struct type cannot carry scale, offset, or enum")
		}
	} else if len(td.Fields) > 0 {
		add(base+".fields", "fields are only valid on struct types")
	}
	switch td.Termination {
	case "", "zero", "length_field", "end_of_pdu", "none":
	default:
		add(base+".termination", "unknown termination %q", td.Termination)
	}
}

func checkRoutinesSchema(doc *Document, add func(string, string, ...any)) {
	for _, id := range sortedRoutineIDs(doc.Routines) {
		rt := doc.Routines[id]
		base := fmt.Sprintf("routines.0x%04x", id)
		if rt.Name == "" {
			add(base+".name", "required field is missing")
		}
		if len(rt.Operations) == 0 {
			add(base+".operations", "at least one operation is required")
		}
		for _, op := range rt.Operations {
			switch op {
			case RoutineStart, RoutineStop, RoutineResult:
			default:
				add(base+".operations", "unknown operation %q", op)
			}
		}
	}
}

func checkDTCSchema(doc *Document, add func(string, string, ...any)) {
	codes := make([]uint32, 0, len(doc.DTCs))
	for code := range doc.DTCs {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	for _, code := range codes {
		dtc := doc.DTCs[code]
		base := fmt.Sprintf("dtcs.0x%06x", code)
		if dtc.Name == "" {
			add(base+".name", "required field is missing")
		}
		if dtc.Severity != 0 && (dtc.Severity < 1 || dtc.Severity > 4) {
			add(base+".severity", "severity %d out of range 1-4", dtc.Severity)
		}
		for _, p := range []struct {
			name string
			v    *int
		}{
			{"aging_counter_threshold", dtc.AgingCounterThreshold},
			{"aged_counter_threshold", dtc.AgedCounterThreshold},
			{"priority", dtc.Priority},
		} {
			if p.v != nil && (*p.v < 0 || *p.v > 255) {
				add(base+"."+p.name, "%s %d out of range 0-255", p.name, *p.v)
			}
		}
	}
}

func checkMemorySchema(doc *Document, add func(string, string, ...any)) {
	if doc.Memory == nil {
		return
	}
	if f := doc.Memory.DefaultAddressFormat; f != nil {
		checkAddressFormat(f, "memory.default_address_format", add)
	}

	type span struct {
		name       string
		start, end uint64
	}
	spans := make([]span, 0, len(doc.Memory.Regions))
	for _, name := range sortedNames(doc.Memory.Regions) {
		region := doc.Memory.Regions[name]
		base := "memory.regions." + name
		if region.AddressFormat != nil {
			checkAddressFormat(region.AddressFormat, base+".address_format", add)
		}
		switch region.Access {
		case "", "read", "write", "read_write", "execute":
		default:
			add(base+".access", "unknown access mode %q", region.Access)
		}
		if region.Size == 0 {
			add(base+".size", "region size must be positive")
			continue
		}
		start := uint64(region.StartAddress)
		end := start + uint64(region.Size) - 1
		if end > 0xFFFFFFFF {
			add(base, "region end %#x exceeds 32-bit address space", end)
			continue
		}
		spans = append(spans, span{name: name, start: start, end: end})
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	for i := 1; i < len(spans); i++ {
		prev, cur := spans[i-1], spans[i]
		if cur.start <= prev.end {
			add("memory.regions."+cur.name,
				"region overlaps %q (%#x-%#x vs %#x-%#x)",
				prev.name, prev.start, prev.end, cur.start, cur.end)
		}
	}

	for _, name := range sortedNames(doc.Memory.DataBlocks) {
		block := doc.Memory.DataBlocks[name]
		base := "memory.data_blocks." + name
		switch block.Type {
		case "", "download", "upload":
		default:
			add(base+".type", "block type must be download or upload, got %q", block.Type)
		}
		if _, err := block.FormatByte(); err != nil {
			add(base+".format", "%v", err)
		}
	}
}

func checkAddressFormat(f *AddressFormat, base string, add func(string, string, ...any)) {
	if f.AddressBytes < 1 || f.AddressBytes > 5 {
		add(base+".address_bytes", "address_bytes %d out of range 1-5", f.AddressBytes)
	}
	if f.LengthBytes < 1 || f.LengthBytes > 5 {
		add(base+".length_bytes", "length_bytes %d out of range 1-5", f.LengthBytes)
	}
}

// sortedNames returns the keys of a string-keyed map in sorted order, so
// collected errors are stable across runs.
func sortedNames[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedRoutineIDs(m RoutineMap) []uint16 {
	out := make([]uint16, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
