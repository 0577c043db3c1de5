package document

// AudienceFilter narrows a document to the items one target audience may
// see. The hierarchy declared in the document's audience section is
// honored, so a custom audience inherits the visibility of its parents.
type AudienceFilter struct {
	Target    string
	effective map[string]bool
}

// NewAudienceFilter builds a filter for target against the document's
// audience configuration. cfg may be nil.
func NewAudienceFilter(target string, cfg *AudienceConfig) *AudienceFilter {
	effective := make(map[string]bool)
	for _, a := range cfg.EffectiveAudiences(target) {
		effective[a] = true
	}
	return &AudienceFilter{Target: target, effective: effective}
}

// FilterSummary counts the items a filter pass removed per section.
type FilterSummary struct {
	DIDs     int
	Routines int
	DTCs     int
	Services int
	Types    int
}

// Total returns the number of removed items across all sections.
func (s FilterSummary) Total() int {
	return s.DIDs + s.Routines + s.DTCs + s.Services + s.Types
}

// Apply returns a copy of doc containing only the items accessible to the
// target audience. The original document is not modified. Named types no
// longer referenced by any surviving DID or routine are pruned along with
// the restricted items.
func (f *AudienceFilter) Apply(doc *Document) (*Document, FilterSummary) {
	out := *doc
	var sum FilterSummary

	if len(doc.DIDs) > 0 {
		kept := make(DIDMap, len(doc.DIDs))
		for did, def := range doc.DIDs {
			if f.accessible(def.Audience) {
				kept[did] = def
			}
		}
		sum.DIDs = len(doc.DIDs) - len(kept)
		out.DIDs = kept
	}

	if len(doc.Routines) > 0 {
		kept := make(RoutineMap, len(doc.Routines))
		for id, def := range doc.Routines {
			if f.accessible(def.Audience) {
				kept[id] = def
			}
		}
		sum.Routines = len(doc.Routines) - len(kept)
		out.Routines = kept
	}

	if len(doc.DTCs) > 0 {
		kept := make(DTCMap, len(doc.DTCs))
		for code, def := range doc.DTCs {
			if f.accessible(def.Audience) {
				kept[code] = def
			}
		}
		sum.DTCs = len(doc.DTCs) - len(kept)
		out.DTCs = kept
	}

	if doc.Services != nil {
		out.Services, sum.Services = f.filterServices(doc.Services)
	}

	if len(doc.Types) > 0 {
		out.Types = referencedTypes(&out)
		sum.Types = len(doc.Types) - len(out.Types)
	}

	return &out, sum
}

func (f *AudienceFilter) accessible(set *AudienceSet) bool {
	return set.Accessible(f.Target, f.effective)
}

func (f *AudienceFilter) filterServices(sc *ServicesConfig) (*ServicesConfig, int) {
	out := *sc
	removed := 0

	for _, slot := range []**ServiceConfig{
		&out.DiagnosticSessionControl,
		&out.EcuReset,
		&out.SecurityAccess,
		&out.CommunicationControl,
		&out.Authentication,
		&out.TesterPresent,
		&out.ReadDataByIdentifier,
		&out.WriteDataByIdentifier,
		&out.RoutineControl,
		&out.RequestDownload,
		&out.RequestUpload,
		&out.TransferData,
		&out.RequestTransferExit,
		&out.ClearDiagnosticInformation,
		&out.ReadDTCInformation,
		&out.ControlDTCSetting,
		&out.ReadMemoryByAddress,
		&out.WriteMemoryByAddress,
		&out.LinkControl,
		&out.ResponseOnEvent,
	} {
		if *slot != nil && !f.accessible((*slot).Audience) {
			*slot = nil
			removed++
		}
	}

	if len(sc.Custom) > 0 {
		kept := make(map[string]*ServiceConfig, len(sc.Custom))
		for name, cfg := range sc.Custom {
			if f.accessible(cfg.Audience) {
				kept[name] = cfg
			} else {
				removed++
			}
		}
		out.Custom = kept
	}

	return &out, removed
}

// referencedTypes keeps the named types still reachable from the document's
// DIDs and routine parameters, following struct field references and inline
// base references transitively.
func referencedTypes(doc *Document) map[string]*TypeDefinition {
	pending := make([]string, 0, len(doc.Types))

	collect := func(ref TypeRef) {
		if ref.Name != "" {
			pending = append(pending, ref.Name)
		}
		if ref.Inline != nil && ref.Inline.Base != "" {
			pending = append(pending, ref.Inline.Base)
		}
	}

	for _, def := range doc.DIDs {
		collect(def.Type)
	}
	for _, def := range doc.Routines {
		if def.Parameters == nil {
			continue
		}
		for _, op := range []*RoutineOperationParams{
			def.Parameters.Start, def.Parameters.Stop, def.Parameters.Result,
		} {
			if op == nil {
				continue
			}
			for _, p := range op.Input {
				collect(p.Type)
			}
			for _, p := range op.Output {
				collect(p.Type)
			}
		}
	}

	kept := make(map[string]*TypeDefinition)
	for len(pending) > 0 {
		name := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		if _, done := kept[name]; done {
			continue
		}
		def, ok := doc.Types[name]
		if !ok {
			continue
		}
		kept[name] = def
		if def.Base != "" {
			pending = append(pending, def.Base)
		}
		for _, field := range def.Fields {
			pending = append(pending, field.Type)
		}
	}
	return kept
}
