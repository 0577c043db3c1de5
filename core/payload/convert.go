package payload

import (
	"fortio.org/safecast"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/diagkit/mddc/core/errors"
	"github.com/diagkit/mddc/core/ir"
)

// Convert encodes the database as a payload. Identical databases produce
// byte-identical output.
func Convert(db *ir.Database) ([]byte, error) {
	root, err := buildRoot(db)
	if err != nil {
		return nil, err
	}
	data, err := msgpack.Marshal(root)
	if err != nil {
		return nil, errors.Wrap(err, "encode payload")
	}
	return data, nil
}

func buildRoot(db *ir.Database) (*Root, error) {
	c := &converter{handles: make(map[string]uint32)}

	root := &Root{
		EcuName:       db.EcuName(),
		Revision:      db.Revision(),
		Author:        db.Author(),
		Description:   db.Description(),
		SchemaVersion: db.SchemaVersion(),
	}

	dopNames := db.DOPNames()
	for i, name := range dopNames {
		handle, err := safecast.Conv[uint32](i)
		if err != nil {
			return nil, errors.NewDefectf("payload", "dop handle overflow at %d", i)
		}
		c.handles[name] = handle
	}
	for _, name := range dopNames {
		rec, err := c.convertDOP(db.DOP(name))
		if err != nil {
			return nil, err
		}
		root.DOPs = append(root.DOPs, *rec)
	}

	for _, name := range db.ServiceNames() {
		rec, err := c.convertService(db.Service(name))
		if err != nil {
			return nil, err
		}
		root.Services = append(root.Services, *rec)
	}

	for _, s := range db.Sessions() {
		root.Sessions = append(root.Sessions, SessionRecord{Name: s.Name, ID: s.ID})
	}
	for _, s := range db.SecurityLevels() {
		root.SecurityLevels = append(root.SecurityLevels, SecurityRecord{Name: s.Name, Level: s.Level})
	}
	for _, b := range db.DIDReads() {
		root.DIDReads = append(root.DIDReads, DIDBindingRecord{DID: b.DID, Service: b.ServiceName})
	}
	for _, b := range db.DIDWrites() {
		root.DIDWrites = append(root.DIDWrites, DIDBindingRecord{DID: b.DID, Service: b.ServiceName})
	}
	for _, b := range db.Routines() {
		root.Routines = append(root.Routines, RoutineBindingRecord{RoutineID: b.RoutineID, Services: b.ServiceNames})
	}

	for _, r := range db.MemoryRegions() {
		root.MemoryRegions = append(root.MemoryRegions, MemoryRegionRecord{
			Name:          r.Name,
			StartAddress:  r.StartAddress,
			Size:          r.Size,
			Access:        r.Access,
			AddressBytes:  r.AddressBytes,
			LengthBytes:   r.LengthBytes,
			SecurityLevel: r.SecurityLevel,
			Sessions:      r.Sessions,
		})
	}
	for _, blk := range db.DataBlocks() {
		root.DataBlocks = append(root.DataBlocks, DataBlockRecord{
			Name:           blk.Name,
			BlockType:      blk.BlockType,
			MemoryAddress:  blk.MemoryAddress,
			MemorySize:     blk.MemorySize,
			DataFormat:     blk.DataFormat,
			MaxBlockLength: blk.MaxBlockLength,
			SecurityLevel:  blk.SecurityLevel,
			Session:        blk.Session,
		})
	}
	for _, d := range db.DTCs() {
		root.DTCs = append(root.DTCs, convertDTC(d))
	}
	for _, v := range db.Variants() {
		root.Variants = append(root.Variants, convertVariant(v))
	}

	return root, nil
}

type converter struct {
	handles map[string]uint32
}

func (c *converter) ref(name string) DOPRef {
	if handle, ok := c.handles[name]; ok {
		return DOPRef{Handle: handle}
	}
	return DOPRef{Handle: NoHandle, Name: name}
}

func (c *converter) convertDOP(d *ir.DOP) (*DOPRecord, error) {
	rec := &DOPRecord{
		ShortName: d.ShortName,
		LongName:  d.LongName,
		Unit:      d.Unit,
	}
	if d.Coded != nil {
		ct := convertCodedType(*d.Coded)
		rec.Coded = &ct
	}
	if d.Compu != nil {
		rec.Compu = convertCompu(d.Compu)
	}
	if d.PhysicalType != nil {
		pt := uint8(*d.PhysicalType)
		rec.PhysicalType = &pt
	}
	for _, m := range d.StructMembers {
		p, err := c.convertParam(m, d.ShortName)
		if err != nil {
			return nil, err
		}
		rec.Members = append(rec.Members, *p)
	}
	return rec, nil
}

func convertCodedType(t ir.DiagCodedType) CodedTypeRecord {
	return CodedTypeRecord{
		TypeName:         uint8(t.TypeName),
		BaseDataType:     uint8(t.BaseDataType),
		BitLength:        t.BitLength,
		HighLowByteOrder: t.HighLowByteOrder,
		MinLength:        t.MinLength,
		MaxLength:        t.MaxLength,
		Termination:      t.Termination,
	}
}

func convertCompu(m *ir.CompuMethod) *CompuRecord {
	rec := &CompuRecord{Category: uint8(m.Category), Unit: m.Unit}
	for _, s := range m.Scales {
		sr := ScaleRecord{
			Factor:        s.Factor,
			Offset:        s.Offset,
			InternalValue: s.InternalValue,
			TextValue:     s.TextValue,
			ShortLabel:    s.ShortLabel,
		}
		if s.LowerLimit != nil {
			sr.Lower = &LimitRecord{Value: s.LowerLimit.Value, Interval: string(s.LowerLimit.Interval)}
		}
		if s.UpperLimit != nil {
			sr.Upper = &LimitRecord{Value: s.UpperLimit.Value, Interval: string(s.UpperLimit.Interval)}
		}
		rec.Scales = append(rec.Scales, sr)
	}
	return rec
}

// convertParam maps a parameter onto its kind-tagged record. A spec-less
// or unknown-kind parameter is a lowering defect.
func (c *converter) convertParam(p ir.Param, owner string) (*ParamRecord, error) {
	rec := &ParamRecord{
		ShortName:    p.ShortName,
		LongName:     p.LongName,
		BytePosition: p.BytePosition,
		BitPosition:  p.BitPosition,
		Semantic:     p.Semantic,
		Kind:         uint8(p.Kind()),
	}

	switch spec := p.Spec.(type) {
	case ir.CodedConst:
		rec.CodedConst = &CodedConstRecord{
			CodedValue: spec.CodedValue,
			DiagType:   convertCodedType(spec.DiagType),
		}
	case ir.Dynamic:
		// Kind tag alone.
	case ir.MatchingRequest:
		rec.MatchingRequest = &MatchingRequestRecord{
			RequestBytePos: spec.RequestBytePos,
			ByteLength:     spec.ByteLength,
		}
	case ir.NRCConst:
		rec.NRCConst = &NRCConstRecord{
			CodedValues: spec.CodedValues,
			DiagType:    convertCodedType(spec.DiagType),
		}
	case ir.PhysConst:
		rec.PhysConst = &PhysConstRecord{
			PhysicalValue: spec.PhysicalValue,
			DOP:           c.ref(spec.DOPRef),
		}
	case ir.Reserved:
		rec.Reserved = &ReservedRecord{BitLength: spec.BitLength}
	case ir.Value:
		rec.Value = &ValueRecord{
			DOP:             c.ref(spec.DOPRef),
			PhysicalDefault: spec.PhysicalDefault,
		}
	case ir.TableEntry:
		rec.TableEntry = &TableEntryRecord{Target: spec.Target, TableRowRef: spec.TableRowRef}
	case ir.TableKey:
		rec.TableKey = &TableKeyRecord{TableRef: spec.TableRef}
	case ir.TableStruct:
		rec.TableStruct = &TableStructRecord{TableKeyRef: spec.TableKeyRef}
	case ir.System:
		rec.System = &SystemRecord{SysParam: spec.SysParam}
	case ir.LengthKeyRef:
		rec.LengthKey = &LengthKeyRecord{DOP: c.ref(spec.DOPRef)}
	default:
		return nil, errors.NewDefectf("payload", "param %s of %s has no kind", p.ShortName, owner)
	}

	return rec, nil
}

func (c *converter) convertMessage(m *ir.Message) (*MessageRecord, error) {
	if m == nil {
		return nil, nil
	}
	rec := &MessageRecord{
		ShortName:      m.ShortName,
		ConstantPrefix: m.ConstantPrefix,
	}
	for _, p := range m.Params {
		pr, err := c.convertParam(p, m.ShortName)
		if err != nil {
			return nil, err
		}
		rec.Params = append(rec.Params, *pr)
	}
	return rec, nil
}

func (c *converter) convertService(s *ir.DiagService) (*ServiceRecord, error) {
	rec := &ServiceRecord{
		ShortName:        s.ShortName,
		LongName:         s.LongName,
		ServiceID:        s.ServiceID,
		Subfunction:      s.Key().Subfunction,
		ResponseType:     uint8(s.ResponseType),
		RequiredSessions: s.RequiredSessions,
		RequiredSecurity: s.RequiredSecurity,
		Addressing:       string(s.Addressing),
		AudienceInclude:  s.AudienceInclude,
		AudienceExclude:  s.AudienceExclude,
		VariantRef:       s.VariantRef,
	}

	var err error
	if rec.Request, err = c.convertMessage(s.Request); err != nil {
		return nil, err
	}
	if rec.PositiveResponse, err = c.convertMessage(s.PositiveResponse); err != nil {
		return nil, err
	}
	if rec.NegativeResponse, err = c.convertMessage(s.NegativeResponse); err != nil {
		return nil, err
	}
	return rec, nil
}

func convertDTC(d ir.DTC) DTCRecord {
	rec := DTCRecord{
		Code:           d.Code,
		Name:           d.Name,
		Description:    d.Description,
		Severity:       d.Severity,
		FunctionalUnit: d.FunctionalUnit,
		AgingThreshold: d.AgingThreshold,
		AgedThreshold:  d.AgedThreshold,
		Priority:       d.Priority,
	}
	for _, s := range d.Snapshots {
		sr := SnapshotRecord{
			RecordNumber: s.RecordNumber,
			Description:  s.Description,
			TotalSize:    s.TotalSize,
		}
		for _, item := range s.DataItems {
			sr.Items = append(sr.Items, SnapshotItemRecord{
				DID:          item.DID,
				Name:         item.Name,
				BytePosition: item.BytePosition,
				ByteSize:     item.ByteSize,
			})
		}
		rec.Snapshots = append(rec.Snapshots, sr)
	}
	for _, e := range d.ExtendedData {
		rec.ExtendedData = append(rec.ExtendedData, ExtendedDataRecord{
			RecordNumber: e.RecordNumber,
			Name:         e.Name,
			TypeRef:      e.TypeRef,
			ByteSize:     e.ByteSize,
		})
	}
	return rec
}

func convertVariant(v ir.Variant) VariantRecord {
	rec := VariantRecord{
		ShortName:     v.ShortName,
		IsBaseVariant: v.IsBaseVariant,
		ServiceRefs:   v.ServiceRefs,
		ParentRef:     v.ParentRef,
	}
	for _, m := range v.MatchingParameters {
		rec.MatchingParameters = append(rec.MatchingParameters, MatchingParameterRecord{
			ExpectedValue:         m.ExpectedValue,
			ServiceRef:            m.ServiceRef,
			OutParamRef:           m.OutParamRef,
			UsePhysicalAddressing: m.UsePhysicalAddressing,
		})
	}
	return rec
}
