package transform

import (
	"sort"
	"strings"
	"unicode"

	"fortio.org/safecast"

	"github.com/diagkit/mddc/core/document"
	"github.com/diagkit/mddc/core/errors"
	"github.com/diagkit/mddc/core/ir"
)

// Transform lowers a loaded document into a frozen IR database. The
// document is expected to have passed schema checks; reference problems
// that validation would have reported surface here as defects at worst,
// never as panics.
func Transform(doc *document.Document) (*ir.Database, error) {
	t := &transformer{
		typeCache:       make(map[string]*ir.DOP),
		variantServices: make(map[string][]string),
	}
	return t.run(doc)
}

type transformer struct {
	typeCache map[string]*ir.DOP

	// variantServices maps a variant name pattern (e.g. "Boot") to the
	// services that belong only to variants matching it.
	variantServices map[string][]string
}

func (t *transformer) run(doc *document.Document) (*ir.Database, error) {
	b := ir.NewBuilder(doc.Ecu.ID, doc.Meta.Revision)
	b.SetMetadata(doc.Meta.Author, doc.Meta.Description, doc.Schema)

	for _, name := range sortedKeys(doc.Sessions) {
		b.AddSession(name, uint8(doc.Sessions[name].ID))
	}
	for _, name := range sortedKeys(doc.Security) {
		level, err := safecast.Conv[uint8](doc.Security[name].Level)
		if err != nil {
			return nil, errors.NewDefectf("transform", "security level %s out of range: %v", name, err)
		}
		b.AddSecurityLevel(name, level)
	}

	if err := t.lowerTypes(doc, b); err != nil {
		return nil, err
	}
	for _, dop := range standardDOPs() {
		b.AddDOP(dop)
	}

	if err := t.processDIDs(doc, b); err != nil {
		return nil, err
	}
	if err := t.processRoutines(doc, b); err != nil {
		return nil, err
	}
	if err := t.processSessionServices(doc, b); err != nil {
		return nil, err
	}
	if err := t.processSecurityServices(doc, b); err != nil {
		return nil, err
	}
	if err := t.processResetServices(doc, b); err != nil {
		return nil, err
	}
	if err := t.processAuthenticationServices(doc, b); err != nil {
		return nil, err
	}
	if err := t.processCommunicationControlServices(doc, b); err != nil {
		return nil, err
	}
	if err := t.processTransferServices(doc, b); err != nil {
		return nil, err
	}
	if err := t.processMemory(doc, b); err != nil {
		return nil, err
	}
	if err := t.processDTCs(doc, b); err != nil {
		return nil, err
	}
	t.processVariants(doc, b)

	return b.Build(), nil
}

func (t *transformer) lowerTypes(doc *document.Document, b *ir.Builder) error {
	for _, name := range sortedKeys(doc.Types) {
		dop := LowerType(name, doc.Types[name])
		b.AddDOP(dop)
		t.typeCache[name] = dop
	}
	return CheckStructCycles(t.typeCache)
}

func (t *transformer) processDIDs(doc *document.Document, b *ir.Builder) error {
	for _, did := range sortedDIDs(doc.DIDs) {
		def := doc.DIDs[did]
		sessions, security := resolveAccess(doc, def.AccessRef())
		dopName := t.dopForDID(b, def)

		if def.IsReadable() {
			svc := readDIDService(did, def.Name, dopName, sessions, security)
			applyAudience(def.Audience, svc)
			if err := b.AddService(svc); err != nil {
				return errors.Wrap(err, "transform")
			}
			b.RegisterDIDRead(did, svc.ShortName)
		}

		if def.IsWritable() {
			writeSessions, writeSecurity := sessions, security
			for _, cond := range def.WriteConditions {
				if cond.Session != "" {
					writeSessions = append(writeSessions[:len(writeSessions):len(writeSessions)], cond.Session)
				}
				if cond.Security != "" {
					writeSecurity = append(writeSecurity[:len(writeSecurity):len(writeSecurity)], cond.Security)
				}
			}
			svc := writeDIDService(did, def.Name, dopName, writeSessions, writeSecurity)
			applyAudience(def.Audience, svc)
			if err := b.AddService(svc); err != nil {
				return errors.Wrap(err, "transform")
			}
			b.RegisterDIDWrite(did, svc.ShortName)
		}
	}
	return nil
}

// dopForDID resolves the DOP for a DID's data. Named references resolve
// to the lowered types; inline definitions get a dedicated DOP named after
// the DID.
func (t *transformer) dopForDID(b *ir.Builder, def *document.DIDDefinition) string {
	if def.Type.Inline == nil {
		if _, ok := t.typeCache[def.Type.Name]; ok {
			return def.Type.Name
		}
		return "DOP_" + def.Name
	}

	dopName := "DOP_" + def.Name
	if _, ok := t.typeCache[dopName]; !ok {
		dop := LowerType(dopName, def.Type.Inline)
		b.AddDOP(dop)
		t.typeCache[dopName] = dop
	}
	return dopName
}

func (t *transformer) processRoutines(doc *document.Document, b *ir.Builder) error {
	for _, id := range sortedRoutineIDs(doc.Routines) {
		def := doc.Routines[id]
		sessions, security := resolveAccess(doc, def.Access)

		services := routineServices(id, def, sessions, security)
		applyAudience(def.Audience, services...)
		names := make([]string, 0, len(services))
		for _, svc := range services {
			if err := b.AddService(svc); err != nil {
				return errors.Wrap(err, "transform")
			}
			names = append(names, svc.ShortName)
		}
		b.RegisterRoutine(id, names)
	}
	return nil
}

func (t *transformer) processSessionServices(doc *document.Document, b *ir.Builder) error {
	if len(doc.Sessions) == 0 {
		return nil
	}
	if doc.Services != nil && doc.Services.DiagnosticSessionControl != nil &&
		!doc.Services.DiagnosticSessionControl.IsEnabled() {
		return nil
	}

	entries := make([]subfunctionEntry, 0, len(doc.Sessions))
	for _, name := range sortedKeys(doc.Sessions) {
		sess := doc.Sessions[name]
		display := sess.Alias
		if display == "" {
			display = capitalize(name)
		}
		entries = append(entries, subfunctionEntry{Name: display, Value: uint8(sess.ID)})
	}

	var aud *document.AudienceSet
	if doc.Services != nil && doc.Services.DiagnosticSessionControl != nil {
		aud = doc.Services.DiagnosticSessionControl.Audience
	}
	for _, svc := range sessionControlServices(entries) {
		applyAudience(aud, svc)
		if err := b.AddService(svc); err != nil {
			return errors.Wrap(err, "transform")
		}
	}
	return nil
}

// processSecurityServices generates the SecurityAccess pair per level.
// The services are assigned to the Boot variant rather than the base
// variant, matching how ODX databases usually scope seed/key exchange
// to the bootloader.
func (t *transformer) processSecurityServices(doc *document.Document, b *ir.Builder) error {
	if len(doc.Security) == 0 {
		return nil
	}
	if doc.Services != nil && doc.Services.SecurityAccess != nil &&
		!doc.Services.SecurityAccess.IsEnabled() {
		return nil
	}

	levels := make([]uint8, 0, len(doc.Security))
	for _, name := range sortedKeys(doc.Security) {
		level, err := safecast.Conv[uint8](doc.Security[name].Level)
		if err != nil {
			return errors.NewDefectf("transform", "security level %s out of range: %v", name, err)
		}
		levels = append(levels, level)
	}

	var aud *document.AudienceSet
	if doc.Services != nil && doc.Services.SecurityAccess != nil {
		aud = doc.Services.SecurityAccess.Audience
	}
	var bootServices []string
	for _, svc := range securityAccessServices(levels, "Boot") {
		applyAudience(aud, svc)
		if err := b.AddService(svc); err != nil {
			return errors.Wrap(err, "transform")
		}
		bootServices = append(bootServices, svc.ShortName)
	}
	t.variantServices["Boot"] = bootServices
	return nil
}

// odxResetNames maps services-section subfunction keys to their ODX-style
// service names.
var odxResetNames = map[string]string{
	"hardReset":                 "HardReset",
	"softReset":                 "SoftReset",
	"keyOffOnReset":             "KeyOffOnReset",
	"rapidPowerShutDown":        "RapidPowerShutDown",
	"enableRapidPowerShutDown":  "EnableRapidPowerShutDown",
	"disableRapidPowerShutDown": "DisableRapidPowerShutDown",
}

func defaultResetTypes() []subfunctionEntry {
	return []subfunctionEntry{
		{Name: "HardReset", Value: 0x01},
		{Name: "SoftReset", Value: 0x03},
	}
}

func (t *transformer) processResetServices(doc *document.Document, b *ir.Builder) error {
	entries := defaultResetTypes()
	var aud *document.AudienceSet

	if doc.Services != nil && doc.Services.EcuReset != nil {
		cfg := doc.Services.EcuReset
		aud = cfg.Audience
		if !cfg.IsEnabled() {
			return nil
		}
		if cfg.Subfunctions != nil && len(cfg.Subfunctions.Named) > 0 {
			entries = entries[:0]
			for _, name := range sortedKeys(cfg.Subfunctions.Named) {
				odxName, ok := odxResetNames[name]
				if !ok {
					odxName = strings.ReplaceAll(titleCase(name), "_", "")
				}
				entries = append(entries, subfunctionEntry{Name: odxName, Value: uint8(cfg.Subfunctions.Named[name])})
			}
		}
	}

	for _, svc := range ecuResetServices(entries) {
		applyAudience(aud, svc)
		if err := b.AddService(svc); err != nil {
			return errors.Wrap(err, "transform")
		}
	}
	return nil
}

func (t *transformer) processAuthenticationServices(doc *document.Document, b *ir.Builder) error {
	if doc.Services == nil || doc.Services.Authentication == nil {
		return nil
	}
	cfg := doc.Services.Authentication
	if !cfg.IsEnabled() {
		return nil
	}

	entries := []subfunctionEntry{
		{Name: "Deauthenticate", Value: 0x00},
		{Name: "Configuration", Value: 0x08},
	}
	if cfg.Subfunctions != nil && !cfg.Subfunctions.IsEmpty() {
		switch {
		case len(cfg.Subfunctions.Named) > 0:
			entries = entries[:0]
			for _, name := range sortedKeys(cfg.Subfunctions.Named) {
				entries = append(entries, subfunctionEntry{
					Name:  strings.ReplaceAll(titleCase(name), "_", ""),
					Value: uint8(cfg.Subfunctions.Named[name]),
				})
			}
		case len(cfg.Subfunctions.Values) > 0:
			entries = []subfunctionEntry{{Name: "Deauthenticate", Value: uint8(cfg.Subfunctions.Values[0])}}
		}
	}

	for _, svc := range authenticationServices(entries) {
		applyAudience(cfg.Audience, svc)
		if err := b.AddService(svc); err != nil {
			return errors.Wrap(err, "transform")
		}
	}
	return nil
}

func (t *transformer) processCommunicationControlServices(doc *document.Document, b *ir.Builder) error {
	if doc.Services == nil || doc.Services.CommunicationControl == nil {
		return nil
	}
	cfg := doc.Services.CommunicationControl
	if !cfg.IsEnabled() {
		return nil
	}

	entries := []subfunctionEntry{
		{Name: "EnableRxAndEnableTx", Value: 0x00},
		{Name: "EnableRxAndDisableTx", Value: 0x01},
		{Name: "DisableRxAndEnableTx", Value: 0x02},
		{Name: "DisableRxAndDisableTx", Value: 0x03},
		{Name: "EnableRxAndDisableTxWithEnhancedAddressInformation", Value: 0x04},
		{Name: "EnableRxAndTxWithEnhancedAddressInformation", Value: 0x05},
		{Name: "TemporalSync", Value: 0x88},
	}
	if cfg.Subfunctions != nil && len(cfg.Subfunctions.Named) > 0 {
		entries = entries[:0]
		for _, name := range sortedKeys(cfg.Subfunctions.Named) {
			entries = append(entries, subfunctionEntry{Name: name, Value: uint8(cfg.Subfunctions.Named[name])})
		}
	}

	for _, svc := range communicationControlServices(entries) {
		applyAudience(cfg.Audience, svc)
		if err := b.AddService(svc); err != nil {
			return errors.Wrap(err, "transform")
		}
	}
	return nil
}

func (t *transformer) processTransferServices(doc *document.Document, b *ir.Builder) error {
	if doc.Services == nil {
		return nil
	}
	hasDownload := doc.Services.RequestDownload.IsEnabled()
	hasTransfer := doc.Services.TransferData.IsEnabled()
	hasExit := doc.Services.RequestTransferExit.IsEnabled()
	if !hasDownload && !hasTransfer && !hasExit {
		return nil
	}

	for _, svc := range transferServices() {
		var cfg *document.ServiceConfig
		switch svc.ShortName {
		case "RequestDownload":
			if !hasDownload {
				continue
			}
			cfg = doc.Services.RequestDownload
		case "TransferData":
			if !hasTransfer {
				continue
			}
			cfg = doc.Services.TransferData
		case "TransferExit":
			if !hasExit {
				continue
			}
			cfg = doc.Services.RequestTransferExit
		default:
			continue
		}
		if cfg != nil {
			applyAudience(cfg.Audience, svc)
		}
		if err := b.AddService(svc); err != nil {
			return errors.Wrap(err, "transform")
		}
	}
	return nil
}

// applyAudience stamps an item's audience restriction onto the services
// generated from it. A nil set leaves the services unrestricted.
func applyAudience(set *document.AudienceSet, services ...*ir.DiagService) {
	if set == nil {
		return
	}
	for _, svc := range services {
		svc.AudienceInclude = set.Include
		svc.AudienceExclude = set.Exclude
	}
}

// resolveAccess resolves an access pattern name to the sessions and
// security levels it requires. Unknown or empty names resolve to
// unrestricted access.
func resolveAccess(doc *document.Document, patternName string) (sessions, security []string) {
	if patternName == "" || len(doc.AccessPatterns) == 0 {
		return nil, nil
	}
	pattern, ok := doc.AccessPatterns[patternName]
	if !ok {
		return nil, nil
	}
	return pattern.SessionNames(), pattern.SecurityNames()
}

func (t *transformer) processMemory(doc *document.Document, b *ir.Builder) error {
	if doc.Memory == nil {
		return nil
	}

	for _, name := range sortedKeys(doc.Memory.Regions) {
		region := doc.Memory.Regions[name]
		format := doc.Memory.Format(region)

		addrBytes, err := safecast.Conv[uint8](format.AddressBytes)
		if err != nil {
			return errors.NewDefectf("transform", "memory region %s address bytes: %v", name, err)
		}
		lenBytes, err := safecast.Conv[uint8](format.LengthBytes)
		if err != nil {
			return errors.NewDefectf("transform", "memory region %s length bytes: %v", name, err)
		}

		var sessions []string
		if !region.Session.Any {
			sessions = region.Session.Names
		}

		b.AddMemoryRegion(ir.MemoryRegion{
			Name:          name,
			StartAddress:  uint32(region.StartAddress),
			Size:          uint32(region.Size),
			Access:        region.Access,
			AddressBytes:  addrBytes,
			LengthBytes:   lenBytes,
			SecurityLevel: region.SecurityLevel,
			Sessions:      sessions,
		})
	}

	for _, name := range sortedKeys(doc.Memory.DataBlocks) {
		block := doc.Memory.DataBlocks[name]
		formatByte, err := block.FormatByte()
		if err != nil {
			return errors.NewDefectf("transform", "data block %s: %v", name, err)
		}

		var maxBlockLength *uint32
		if block.MaxBlockLength != nil {
			v := uint32(*block.MaxBlockLength)
			maxBlockLength = &v
		}

		b.AddDataBlock(ir.DataBlock{
			Name:           name,
			BlockType:      block.Type,
			MemoryAddress:  uint32(block.MemoryAddress),
			MemorySize:     uint32(block.MemorySize),
			DataFormat:     formatByte,
			MaxBlockLength: maxBlockLength,
			SecurityLevel:  block.SecurityLevel,
			Session:        block.Session,
		})
	}
	return nil
}

// severityBytes maps the document severity level (1-4) to the ISO 14229
// severity byte.
var severityBytes = map[int]uint8{
	1: 0x00,
	2: 0x20,
	3: 0x40,
	4: 0x80,
}

func (t *transformer) processDTCs(doc *document.Document, b *ir.Builder) error {
	if len(doc.DTCs) == 0 {
		return nil
	}

	defaultSnapshots := doc.DTCConfig.SnapshotDefaults()
	defaultExtended := doc.DTCConfig.ExtendedDataDefaults()

	for _, code := range sortedDTCCodes(doc.DTCs) {
		def := doc.DTCs[code]
		dtc, err := t.lowerDTC(code, def, defaultSnapshots, defaultExtended)
		if err != nil {
			return err
		}
		b.AddDTC(*dtc)
	}
	return nil
}

func (t *transformer) lowerDTC(
	code uint32,
	def *document.DTCDefinition,
	defaultSnapshots map[string]*document.SnapshotDefinition,
	defaultExtended map[string]*document.ExtendedDataDef,
) (*ir.DTC, error) {
	snapshots := collectSnapshots(def, defaultSnapshots)
	irSnapshots := make([]ir.SnapshotRecord, 0, len(snapshots))
	for _, s := range snapshots {
		irSnapshots = append(irSnapshots, lowerSnapshot(s))
	}

	extended := collectExtendedData(def, defaultExtended)
	irExtended := make([]ir.ExtendedDataRecord, 0, len(extended))
	for _, e := range extended {
		irExtended = append(irExtended, lowerExtendedData(e))
	}

	dtc := &ir.DTC{
		Code:           code,
		Name:           def.Name,
		Description:    def.Description,
		Severity:       severityBytes[def.Severity],
		FunctionalUnit: uint8(def.FunctionalUnit),
		Snapshots:      irSnapshots,
		ExtendedData:   irExtended,
	}

	var err error
	if dtc.AgingThreshold, err = optionalByte(def.AgingCounterThreshold); err != nil {
		return nil, errors.NewDefectf("transform", "dtc 0x%06x aging threshold: %v", code, err)
	}
	if dtc.AgedThreshold, err = optionalByte(def.AgedCounterThreshold); err != nil {
		return nil, errors.NewDefectf("transform", "dtc 0x%06x aged threshold: %v", code, err)
	}
	if dtc.Priority, err = optionalByte(def.Priority); err != nil {
		return nil, errors.NewDefectf("transform", "dtc 0x%06x priority: %v", code, err)
	}
	return dtc, nil
}

func optionalByte(v *int) (*uint8, error) {
	if v == nil {
		return nil, nil
	}
	b, err := safecast.Conv[uint8](*v)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// collectSnapshots merges the shared default snapshots with the DTC's own
// inline definitions. Name references into the defaults are already covered
// by the defaults themselves.
func collectSnapshots(def *document.DTCDefinition, defaults map[string]*document.SnapshotDefinition) []*document.SnapshotDefinition {
	var result []*document.SnapshotDefinition
	for _, name := range sortedKeys(defaults) {
		result = append(result, defaults[name])
	}
	for _, ref := range def.Snapshots {
		if ref.Inline != nil {
			result = append(result, ref.Inline)
		}
	}
	return result
}

func collectExtendedData(def *document.DTCDefinition, defaults map[string]*document.ExtendedDataDef) []*document.ExtendedDataDef {
	var result []*document.ExtendedDataDef
	for _, name := range sortedKeys(defaults) {
		result = append(result, defaults[name])
	}
	for _, ref := range def.ExtendedData {
		if ref.Inline != nil {
			result = append(result, ref.Inline)
		}
	}
	return result
}

// lowerSnapshot flattens a snapshot definition into a record with running
// byte positions. Each captured DID is laid out as a two-byte slot.
func lowerSnapshot(s *document.SnapshotDefinition) ir.SnapshotRecord {
	const itemSize = 2

	var items []ir.SnapshotDataItem
	var pos uint32

	if len(s.Data) > 0 {
		for _, d := range s.Data {
			name := d.Name
			if name == "" {
				name = didItemName(uint16(d.DID))
			}
			items = append(items, ir.SnapshotDataItem{
				DID:          uint16(d.DID),
				Name:         name,
				BytePosition: pos,
				ByteSize:     itemSize,
			})
			pos += itemSize
		}
	} else {
		for _, did := range s.CapturedDIDs() {
			items = append(items, ir.SnapshotDataItem{
				DID:          did,
				Name:         didItemName(did),
				BytePosition: pos,
				ByteSize:     itemSize,
			})
			pos += itemSize
		}
	}

	return ir.SnapshotRecord{
		RecordNumber: uint8(s.RecordNumber),
		Description:  s.Description,
		DataItems:    items,
		TotalSize:    pos,
	}
}

func didItemName(did uint16) string {
	return "DID_" + document.HexInt16(did).String()
}

func lowerExtendedData(e *document.ExtendedDataDef) ir.ExtendedDataRecord {
	typeRef := "u8"
	size := uint32(1)
	switch {
	case e.Type.Inline != nil:
		typeRef = e.Type.Inline.Base
		size = typeByteSize(typeRef)
	case e.Type.Name != "":
		typeRef = e.Type.Name
		size = typeByteSize(typeRef)
	}

	name := e.Name
	if name == "" {
		name = "ExtData_" + document.HexInt8(e.RecordNumber).String()
	}

	return ir.ExtendedDataRecord{
		RecordNumber: uint8(e.RecordNumber),
		Name:         name,
		TypeRef:      typeRef,
		ByteSize:     size,
	}
}

// processVariants emits the implicit base variant plus one variant per
// definition. Variant-scoped services (the Boot security set) attach to
// variants whose name contains the pattern.
func (t *transformer) processVariants(doc *document.Document, b *ir.Builder) {
	b.AddVariant(ir.Variant{
		ShortName:     doc.Ecu.ID,
		IsBaseVariant: true,
	})

	if doc.Variants == nil || len(doc.Variants.Definitions) == 0 {
		return
	}

	for _, name := range sortedKeys(doc.Variants.Definitions) {
		def := doc.Variants.Definitions[name]
		fullName := doc.Ecu.ID + "_" + name

		var matching []ir.MatchingParameter
		if def.Detect != nil && def.Detect.ResponseParamMatch != nil {
			m := def.Detect.ResponseParamMatch
			matching = append(matching, ir.MatchingParameter{
				ExpectedValue:         string(m.ExpectedValue),
				ServiceRef:            m.Service,
				OutParamRef:           m.ParamPath,
				UsePhysicalAddressing: true,
			})
		}

		var serviceRefs []string
		for _, pattern := range sortedKeys(t.variantServices) {
			if strings.Contains(strings.ToLower(name), strings.ToLower(pattern)) {
				serviceRefs = t.variantServices[pattern]
				break
			}
		}

		b.AddVariant(ir.Variant{
			ShortName:          fullName,
			IsBaseVariant:      false,
			MatchingParameters: matching,
			ServiceRefs:        serviceRefs,
			ParentRef:          doc.Ecu.ID,
		})
	}
}

// titleCase upper-cases the first letter of every alphabetic run and
// lower-cases the rest, so "custom_reset" becomes "Custom_Reset" before
// underscore removal.
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
		} else {
			b.WriteRune(r)
			prevLetter = false
		}
	}
	return b.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedDIDs(m document.DIDMap) []uint16 {
	ids := make([]uint16, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func sortedRoutineIDs(m document.RoutineMap) []uint16 {
	ids := make([]uint16, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func sortedDTCCodes(m document.DTCMap) []uint32 {
	codes := make([]uint32, 0, len(m))
	for code := range m {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}
