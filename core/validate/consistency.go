package validate

import (
	"fmt"

	"github.com/diagkit/mddc/core/document"
)

// uniqueSessionIDs reports duplicated session ids: exactly one error per
// conflicting pair, naming both sessions.
type uniqueSessionIDs struct{}

func (uniqueSessionIDs) check(doc *document.Document, r *Result) {
	seen := make(map[document.HexInt8]string)
	for _, name := range sortedKeys(doc.Sessions) {
		id := doc.Sessions[name].ID
		if prev, dup := seen[id]; dup {
			r.AddError(CodeDuplicateID,
				fmt.Sprintf("Session '%s' has duplicate ID 0x%02x, already used by '%s'", name, uint8(id), prev),
				"sessions."+name+".id",
				"Each session must have a unique ID")
			continue
		}
		seen[id] = name
	}
}

// securityConsistency checks SecurityAccess subfunction pairing: the seed
// request must be odd and the key send even per ISO 14229; a pairing other
// than seed+1 is suspicious but legal, so it only warns. Duplicate seed or
// key subfunctions across levels are errors.
type securityConsistency struct{}

func (securityConsistency) check(doc *document.Document, r *Result) {
	seenSeeds := make(map[document.HexInt8]string)
	seenKeys := make(map[document.HexInt8]string)

	for _, name := range sortedKeys(doc.Security) {
		lvl := doc.Security[name]
		seed, key := lvl.SeedRequest, lvl.KeySend

		if seed%2 == 0 {
			r.AddError(CodeInvalidFormat,
				fmt.Sprintf("Security level '%s' seed_request (0x%02x) must be odd", name, uint8(seed)),
				"security."+name+".seed_request",
				"Seed request subfunctions are odd, key send subfunctions even")
		}
		if key%2 != 0 {
			r.AddError(CodeInvalidFormat,
				fmt.Sprintf("Security level '%s' key_send (0x%02x) must be even", name, uint8(key)),
				"security."+name+".key_send",
				"Seed request subfunctions are odd, key send subfunctions even")
		} else if key != seed+1 {
			r.AddWarning(CodeMismatchedSecurityPair,
				fmt.Sprintf("Security level '%s' key_send (0x%02x) doesn't match expected value (0x%02x)",
					name, uint8(key), uint8(seed+1)),
				"security."+name+".key_send",
				"Usually key_send = seed_request + 1")
		}

		if prev, dup := seenSeeds[seed]; dup {
			r.AddError(CodeDuplicateID,
				fmt.Sprintf("Security level '%s' has duplicate seed_request 0x%02x, already used by '%s'",
					name, uint8(seed), prev),
				"security."+name+".seed_request", "")
		} else {
			seenSeeds[seed] = name
		}
		if prev, dup := seenKeys[key]; dup {
			r.AddError(CodeDuplicateID,
				fmt.Sprintf("Security level '%s' has duplicate key_send 0x%02x, already used by '%s'",
					name, uint8(key), prev),
				"security."+name+".key_send", "")
		} else {
			seenKeys[key] = name
		}
	}
}

// dtcFormat checks the SAE J2012 code convention: P/B/C/U prefix followed
// by four decimal digits.
type dtcFormat struct{}

func (dtcFormat) check(doc *document.Document, r *Result) {
	for _, code := range sortedDTCCodes(doc.DTCs) {
		sae := doc.DTCs[code].SAE
		if sae == "" {
			continue
		}
		path := fmt.Sprintf("dtcs.0x%06x.sae", code)
		if len(sae) != 5 {
			r.AddError(CodeInvalidDTCFormat,
				fmt.Sprintf("DTC 0x%06x SAE code '%s' must be 5 characters (prefix + 4 digits)", code, sae),
				path, "")
			continue
		}
		switch sae[0] {
		case 'P', 'B', 'C', 'U', 'p', 'b', 'c', 'u':
		default:
			r.AddError(CodeInvalidDTCFormat,
				fmt.Sprintf("DTC 0x%06x SAE code '%s' has invalid prefix '%c', must be P/B/C/U", code, sae, sae[0]),
				path,
				"Use P for Powertrain, B for Body, C for Chassis, U for Network")
		}
		for _, c := range sae[1:] {
			if c < '0' || c > '9' {
				r.AddError(CodeInvalidDTCFormat,
					fmt.Sprintf("DTC 0x%06x SAE code '%s' has invalid numeric part, must be 4 decimal digits", code, sae),
					path, "")
				break
			}
		}
	}
}

// unusedDefinitions warns about declared types and sessions nothing
// references.
type unusedDefinitions struct{}

func (unusedDefinitions) check(doc *document.Document, r *Result) {
	checkUnusedTypes(doc, r)
	checkUnusedSessions(doc, r)
}

func checkUnusedTypes(doc *document.Document, r *Result) {
	if len(doc.Types) == 0 {
		return
	}
	used := make(map[string]bool)
	for _, did := range doc.DIDs {
		used[did.Type.Name] = true
	}
	for _, rt := range doc.Routines {
		if rt.Parameters == nil {
			continue
		}
		for _, op := range []*document.RoutineOperationParams{rt.Parameters.Start, rt.Parameters.Stop, rt.Parameters.Result} {
			if op == nil {
				continue
			}
			for _, p := range op.Input {
				used[p.Type.Name] = true
			}
			for _, p := range op.Output {
				used[p.Type.Name] = true
			}
		}
	}
	for _, td := range doc.Types {
		for _, f := range td.Fields {
			used[f.Type] = true
		}
	}

	for _, name := range sortedKeys(doc.Types) {
		if !used[name] {
			r.AddWarning(CodeUnusedType,
				fmt.Sprintf("Type '%s' is defined but never used", name),
				"types."+name,
				"Remove unused type or reference it in DIDs/routines")
		}
	}
}

func checkUnusedSessions(doc *document.Document, r *Result) {
	if len(doc.Sessions) == 0 {
		return
	}
	used := make(map[string]bool)
	for _, pattern := range doc.AccessPatterns {
		if pattern.Sessions.Any {
			// "any" references every session.
			return
		}
		for _, s := range pattern.Sessions.Names {
			used[s] = true
		}
	}
	for _, lvl := range doc.Security {
		for _, s := range lvl.AllowedSessions {
			used[s] = true
		}
	}

	for _, name := range sortedKeys(doc.Sessions) {
		if !used[name] {
			r.AddWarning(CodeUnusedSession,
				fmt.Sprintf("Session '%s' is defined but never used", name),
				"sessions."+name,
				"Remove unused session or reference it in access_patterns")
		}
	}
}
