package validate

import (
	"fmt"
	"sort"

	"github.com/diagkit/mddc/core/document"
)

// builtinTypes are the type names usable without a declaration in the
// types section. "string" resolves as a bare reference but is not a
// declarable base; every other entry may also head a type definition.
var builtinTypes = map[string]bool{
	"u8": true, "u16": true, "u24": true, "u32": true, "u64": true,
	"i8": true, "i16": true, "i24": true, "i32": true, "i64": true,
	"f32": true, "f64": true,
	"bool": true, "string": true, "bytes": true,
	"ascii": true, "utf8": true, "utf16": true,
}

// typeReferences verifies that every named type reference resolves against
// the types section or a built-in.
type typeReferences struct{}

func (typeReferences) check(doc *document.Document, r *Result) {
	resolve := func(name, path string) {
		if name == "" || builtinTypes[name] {
			return
		}
		if _, ok := doc.Types[name]; ok {
			return
		}
		r.AddError(CodeUndefinedType,
			fmt.Sprintf("Type '%s' is not defined", name), path,
			"Define the type in the types section or use a built-in type")
	}

	for _, name := range sortedKeys(doc.Types) {
		td := doc.Types[name]
		for i, f := range td.Fields {
			resolve(f.Type, fmt.Sprintf("types.%s.fields[%d].type", name, i))
		}
	}

	for _, addr := range sortedDIDAddrs(doc.DIDs) {
		did := doc.DIDs[addr]
		resolve(did.Type.Name, fmt.Sprintf("dids.0x%04x.type", addr))
	}

	for _, id := range sortedRoutineIDs(doc.Routines) {
		rt := doc.Routines[id]
		if rt.Parameters == nil {
			continue
		}
		ops := []struct {
			name   string
			params *document.RoutineOperationParams
		}{
			{"start", rt.Parameters.Start},
			{"stop", rt.Parameters.Stop},
			{"result", rt.Parameters.Result},
		}
		for _, op := range ops {
			if op.params == nil {
				continue
			}
			for i, p := range op.params.Input {
				resolve(p.Type.Name, fmt.Sprintf("routines.0x%04x.parameters.%s.input[%d].type", id, op.name, i))
			}
			for i, p := range op.params.Output {
				resolve(p.Type.Name, fmt.Sprintf("routines.0x%04x.parameters.%s.output[%d].type", id, op.name, i))
			}
		}
	}

	if doc.DTCConfig != nil {
		defaults := doc.DTCConfig.ExtendedDataDefaults()
		for _, name := range sortedKeys(defaults) {
			resolve(defaults[name].Type.Name, "dtc_config.default_extended_data."+name+".type")
		}
	}
	for _, code := range sortedDTCCodes(doc.DTCs) {
		dtc := doc.DTCs[code]
		for i, ext := range dtc.ExtendedData {
			if ext.Inline != nil {
				resolve(ext.Inline.Type.Name, fmt.Sprintf("dtcs.0x%06x.extended_data[%d].type", code, i))
			}
		}
	}
}

// sessionReferences verifies that session names in access patterns,
// security levels and memory gating are declared.
type sessionReferences struct{}

func (sessionReferences) check(doc *document.Document, r *Result) {
	resolve := func(name, path string) {
		if _, ok := doc.Sessions[name]; ok {
			return
		}
		r.AddError(CodeUndefinedSession,
			fmt.Sprintf("Session '%s' is not defined", name), path,
			"Define the session in the sessions section")
	}

	for _, name := range sortedKeys(doc.AccessPatterns) {
		for _, s := range doc.AccessPatterns[name].SessionNames() {
			resolve(s, "access_patterns."+name+".sessions")
		}
	}
	for _, name := range sortedKeys(doc.Security) {
		for _, s := range doc.Security[name].AllowedSessions {
			resolve(s, "security."+name+".allowed_sessions")
		}
	}
	if doc.Memory != nil {
		for _, name := range sortedKeys(doc.Memory.Regions) {
			region := doc.Memory.Regions[name]
			if region.Session.Any {
				continue
			}
			for _, s := range region.Session.Names {
				resolve(s, "memory.regions."+name+".session")
			}
		}
	}
}

// securityReferences verifies that security level names resolve.
type securityReferences struct{}

func (securityReferences) check(doc *document.Document, r *Result) {
	resolve := func(name, path string) {
		if name == "" {
			return
		}
		if _, ok := doc.Security[name]; ok {
			return
		}
		r.AddError(CodeUndefinedSecurity,
			fmt.Sprintf("Security level '%s' is not defined", name), path,
			"Define the level in the security section")
	}

	for _, name := range sortedKeys(doc.AccessPatterns) {
		for _, s := range doc.AccessPatterns[name].SecurityNames() {
			resolve(s, "access_patterns."+name+".security")
		}
	}
	if doc.Memory != nil {
		for _, name := range sortedKeys(doc.Memory.Regions) {
			resolve(doc.Memory.Regions[name].SecurityLevel, "memory.regions."+name+".security_level")
		}
		for _, name := range sortedKeys(doc.Memory.DataBlocks) {
			resolve(doc.Memory.DataBlocks[name].SecurityLevel, "memory.data_blocks."+name+".security_level")
		}
	}
}

// accessPatternReferences verifies that DID and routine access fields name
// a declared pattern. Legacy read/write mode strings are not references.
type accessPatternReferences struct{}

func (accessPatternReferences) check(doc *document.Document, r *Result) {
	resolve := func(name, path string) {
		if name == "" || document.IsLegacyAccessMode(name) {
			return
		}
		if _, ok := doc.AccessPatterns[name]; ok {
			return
		}
		r.AddError(CodeUndefinedAccessPattern,
			fmt.Sprintf("Access pattern '%s' is not defined", name), path,
			"Define the pattern in the access_patterns section")
	}

	for _, addr := range sortedDIDAddrs(doc.DIDs) {
		resolve(doc.DIDs[addr].AccessRef(), fmt.Sprintf("dids.0x%04x.access", addr))
	}
	for _, id := range sortedRoutineIDs(doc.Routines) {
		resolve(doc.Routines[id].Access, fmt.Sprintf("routines.0x%04x.access", id))
	}
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedDIDAddrs(m document.DIDMap) []uint16 {
	out := make([]uint16, 0, len(m))
	for a := range m {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sortedRoutineIDs(m document.RoutineMap) []uint16 {
	out := make([]uint16, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sortedDTCCodes(m document.DTCMap) []uint32 {
	out := make([]uint32, 0, len(m))
	for c := range m {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
