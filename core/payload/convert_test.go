package payload

import (
	"bytes"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/diagkit/mddc/core/errors"
	"github.com/diagkit/mddc/core/ir"
)

func u32(v uint32) *uint32 { return &v }

func uintCoded(bits uint32) *ir.DiagCodedType {
	return &ir.DiagCodedType{
		TypeName:         ir.CodedStandardLength,
		BaseDataType:     ir.DataUInt32,
		BitLength:        bits,
		HighLowByteOrder: true,
	}
}

func testDatabase(t *testing.T) *ir.Database {
	t.Helper()
	b := ir.NewBuilder("EMS24", "1.0.0")
	b.SetMetadata("test", "engine controller", "opensovd.cda.diagdesc/v1")

	phys := ir.DataUInt32
	b.AddDOP(&ir.DOP{
		ShortName:    "DOP_DID",
		LongName:     "Data Identifier",
		Coded:        uintCoded(16),
		PhysicalType: &phys,
	})
	physAscii := ir.DataAsciiString
	b.AddDOP(&ir.DOP{
		ShortName: "vin_string",
		LongName:  "Vehicle Identification Number",
		Coded: &ir.DiagCodedType{
			TypeName:         ir.CodedStandardLength,
			BaseDataType:     ir.DataAsciiString,
			BitLength:        136,
			HighLowByteOrder: true,
		},
		PhysicalType: &physAscii,
	})

	sf := uint8(0x01)
	svc := &ir.DiagService{
		ShortName:    "Default_Start",
		LongName:     "Start Default Session",
		ServiceID:    0x10,
		Subfunction:  &sf,
		ResponseType: ir.PosResponse,
		Request: &ir.Message{
			ShortName:      "Default_Start_Request",
			ConstantPrefix: []byte{0x10, 0x01},
			Params: []ir.Param{
				{
					ShortName:    "SID",
					BytePosition: 0,
					Semantic:     "SERVICE_ID",
					Spec:         ir.CodedConst{CodedValue: 0x10, DiagType: *uintCoded(8)},
				},
				{
					ShortName:    "Subfunction",
					BytePosition: 1,
					Semantic:     "SUBFUNCTION",
					Spec:         ir.CodedConst{CodedValue: 0x01, DiagType: *uintCoded(8)},
				},
			},
		},
		PositiveResponse: &ir.Message{
			ShortName:      "Default_Start_Response",
			ConstantPrefix: []byte{0x50, 0x01},
			Params: []ir.Param{
				{
					ShortName:    "SID",
					BytePosition: 0,
					Semantic:     "SERVICE_ID",
					Spec:         ir.CodedConst{CodedValue: 0x50, DiagType: *uintCoded(8)},
				},
				{
					ShortName:    "Session",
					BytePosition: 1,
					Semantic:     "SUBFUNCTION",
					Spec:         ir.MatchingRequest{RequestBytePos: 1, ByteLength: 1},
				},
			},
		},
		RequiredSessions: []string{"default"},
	}
	if err := b.AddService(svc); err != nil {
		t.Fatalf("AddService: %v", err)
	}

	read := &ir.DiagService{
		ShortName:    "Read_VIN",
		LongName:     "Read VIN",
		ServiceID:    0x22,
		ResponseType: ir.PosResponse,
		Request: &ir.Message{
			ShortName:      "Read_VIN_Request",
			ConstantPrefix: []byte{0x22, 0xF1, 0x90},
			Params: []ir.Param{
				{
					ShortName:    "SID",
					BytePosition: 0,
					Semantic:     "SERVICE_ID",
					Spec:         ir.CodedConst{CodedValue: 0x22, DiagType: *uintCoded(8)},
				},
				{
					ShortName:    "DID",
					BytePosition: 1,
					Semantic:     "DID",
					Spec:         ir.CodedConst{CodedValue: 0xF190, DiagType: *uintCoded(16)},
				},
			},
		},
		PositiveResponse: &ir.Message{
			ShortName:      "Read_VIN_Response",
			ConstantPrefix: []byte{0x62, 0xF1, 0x90},
			Params: []ir.Param{
				{
					ShortName:    "SID",
					BytePosition: 0,
					Semantic:     "SERVICE_ID",
					Spec:         ir.CodedConst{CodedValue: 0x62, DiagType: *uintCoded(8)},
				},
				{
					ShortName:    "DID",
					BytePosition: 1,
					Semantic:     "DID",
					Spec:         ir.CodedConst{CodedValue: 0xF190, DiagType: *uintCoded(16)},
				},
				{
					ShortName:    "VIN",
					BytePosition: 3,
					Semantic:     "DATA",
					Spec:         ir.Value{DOPRef: "vin_string"},
				},
			},
		},
	}
	if err := b.AddService(read); err != nil {
		t.Fatalf("AddService: %v", err)
	}

	b.AddSession("default", 0x01)
	b.AddSession("extended", 0x03)
	b.AddSecurityLevel("level_1", 0x03)
	b.RegisterDIDRead(0xF190, "Read_VIN")
	b.RegisterRoutine(0x0203, []string{"Start_SelfTest", "Result_SelfTest"})

	b.AddMemoryRegion(ir.MemoryRegion{
		Name:         "calibration",
		StartAddress: 0x08000000,
		Size:         0x20000,
		Access:       "read_write",
		AddressBytes: 4,
		LengthBytes:  4,
		Sessions:     []string{"extended"},
	})
	b.AddDataBlock(ir.DataBlock{
		Name:           "application",
		BlockType:      "download",
		MemoryAddress:  0x08020000,
		MemorySize:     0xC0000,
		DataFormat:     0x10,
		MaxBlockLength: u32(0x0F02),
	})
	b.AddDTC(ir.DTC{
		Code:     0x123456,
		Name:     "OverTemp",
		Severity: 0x40,
		Snapshots: []ir.SnapshotRecord{
			{
				RecordNumber: 1,
				DataItems: []ir.SnapshotDataItem{
					{DID: 0xF190, Name: "DID_0xf190", BytePosition: 0, ByteSize: 2},
				},
				TotalSize: 2,
			},
		},
	})
	b.AddVariant(ir.Variant{ShortName: "EMS24", IsBaseVariant: true})
	b.AddVariant(ir.Variant{
		ShortName: "EMS24_boot",
		ParentRef: "EMS24",
		MatchingParameters: []ir.MatchingParameter{
			{ExpectedValue: "BOOT", ServiceRef: "Read_VIN", OutParamRef: "VIN", UsePhysicalAddressing: true},
		},
		ServiceRefs: []string{"RequestSeed_Level_3"},
	})

	return b.Build()
}

func decodeRoot(t *testing.T, data []byte) *Root {
	t.Helper()
	var root Root
	if err := msgpack.Unmarshal(data, &root); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	return &root
}

func TestConvertDeterministic(t *testing.T) {
	db := testDatabase(t)
	first, err := Convert(db)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	second, err := Convert(db)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatal("repeated conversion produced different bytes")
	}
}

func TestConvertMetadata(t *testing.T) {
	root := decodeRoot(t, mustConvert(t))
	if root.EcuName != "EMS24" {
		t.Errorf("EcuName = %q, want EMS24", root.EcuName)
	}
	if root.Revision != "1.0.0" {
		t.Errorf("Revision = %q, want 1.0.0", root.Revision)
	}
	if root.SchemaVersion != "opensovd.cda.diagdesc/v1" {
		t.Errorf("SchemaVersion = %q", root.SchemaVersion)
	}
}

func mustConvert(t *testing.T) []byte {
	t.Helper()
	data, err := Convert(testDatabase(t))
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	return data
}

func TestConvertDOPHandles(t *testing.T) {
	root := decodeRoot(t, mustConvert(t))

	// Sorted by short name: DOP_DID before vin_string.
	if len(root.DOPs) != 2 {
		t.Fatalf("DOPs = %d, want 2", len(root.DOPs))
	}
	if root.DOPs[0].ShortName != "DOP_DID" || root.DOPs[1].ShortName != "vin_string" {
		t.Fatalf("DOP order = %q, %q", root.DOPs[0].ShortName, root.DOPs[1].ShortName)
	}

	var read *ServiceRecord
	for i := range root.Services {
		if root.Services[i].ShortName == "Read_VIN" {
			read = &root.Services[i]
		}
	}
	if read == nil {
		t.Fatal("Read_VIN service missing")
	}
	vin := read.PositiveResponse.Params[2]
	if vin.Value == nil {
		t.Fatal("VIN param has no value record")
	}
	if vin.Value.DOP.Handle != 1 {
		t.Errorf("VIN handle = %d, want 1 (vin_string)", vin.Value.DOP.Handle)
	}
	if vin.Value.DOP.Name != "" {
		t.Errorf("resolved reference kept name %q", vin.Value.DOP.Name)
	}
}

func TestConvertUnresolvedReferenceKeepsName(t *testing.T) {
	b := ir.NewBuilder("X", "1")
	b.AddDOP(&ir.DOP{
		ShortName: "pair",
		StructMembers: []ir.Param{
			{ShortName: "low", BytePosition: 0, Spec: ir.Value{DOPRef: "u16"}},
		},
	})
	data, err := Convert(b.Build())
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	root := decodeRoot(t, data)
	ref := root.DOPs[0].Members[0].Value.DOP
	if ref.Handle != NoHandle {
		t.Errorf("Handle = %d, want NoHandle", ref.Handle)
	}
	if ref.Name != "u16" {
		t.Errorf("Name = %q, want u16", ref.Name)
	}
}

func TestConvertParamKinds(t *testing.T) {
	root := decodeRoot(t, mustConvert(t))

	var def *ServiceRecord
	for i := range root.Services {
		if root.Services[i].ShortName == "Default_Start" {
			def = &root.Services[i]
		}
	}
	if def == nil {
		t.Fatal("Default_Start service missing")
	}

	sid := def.Request.Params[0]
	if sid.Kind != uint8(ir.KindCodedConst) {
		t.Errorf("SID kind = %d, want coded const", sid.Kind)
	}
	if sid.CodedConst == nil || sid.CodedConst.CodedValue != 0x10 {
		t.Error("SID coded const not carried")
	}

	echo := def.PositiveResponse.Params[1]
	if echo.Kind != uint8(ir.KindMatchingRequest) {
		t.Errorf("echo kind = %d, want matching request", echo.Kind)
	}
	if echo.MatchingRequest == nil || echo.MatchingRequest.RequestBytePos != 1 {
		t.Error("matching request position not carried")
	}
}

func TestConvertUnsetParamSpec(t *testing.T) {
	b := ir.NewBuilder("X", "1")
	svc := &ir.DiagService{
		ShortName: "Broken",
		ServiceID: 0x22,
		Request: &ir.Message{
			ShortName: "Broken_Request",
			Params:    []ir.Param{{ShortName: "Gap", BytePosition: 0}},
		},
	}
	if err := b.AddService(svc); err != nil {
		t.Fatalf("AddService: %v", err)
	}
	_, err := Convert(b.Build())
	if !errors.Is(err, errors.ErrDefect) {
		t.Fatalf("err = %v, want defect", err)
	}
}

func TestConvertSubfunctionSentinel(t *testing.T) {
	root := decodeRoot(t, mustConvert(t))
	for i := range root.Services {
		s := &root.Services[i]
		switch s.ShortName {
		case "Default_Start":
			if s.Subfunction != 0x01 {
				t.Errorf("Default_Start subfunction = %d, want 1", s.Subfunction)
			}
		case "Read_VIN":
			if s.Subfunction != -1 {
				t.Errorf("Read_VIN subfunction = %d, want -1", s.Subfunction)
			}
		}
	}
}

func TestConvertCollections(t *testing.T) {
	root := decodeRoot(t, mustConvert(t))

	if len(root.Sessions) != 2 || root.Sessions[0].Name != "default" || root.Sessions[1].Name != "extended" {
		t.Errorf("Sessions = %+v", root.Sessions)
	}
	if len(root.SecurityLevels) != 1 || root.SecurityLevels[0].Level != 0x03 {
		t.Errorf("SecurityLevels = %+v", root.SecurityLevels)
	}
	if len(root.DIDReads) != 1 || root.DIDReads[0].DID != 0xF190 || root.DIDReads[0].Service != "Read_VIN" {
		t.Errorf("DIDReads = %+v", root.DIDReads)
	}
	if len(root.Routines) != 1 || root.Routines[0].RoutineID != 0x0203 || len(root.Routines[0].Services) != 2 {
		t.Errorf("Routines = %+v", root.Routines)
	}
	if len(root.MemoryRegions) != 1 || root.MemoryRegions[0].AddressBytes != 4 {
		t.Errorf("MemoryRegions = %+v", root.MemoryRegions)
	}
	if len(root.DataBlocks) != 1 || root.DataBlocks[0].DataFormat != 0x10 {
		t.Errorf("DataBlocks = %+v", root.DataBlocks)
	}
	if root.DataBlocks[0].MaxBlockLength == nil || *root.DataBlocks[0].MaxBlockLength != 0x0F02 {
		t.Error("MaxBlockLength not carried")
	}
}

func TestConvertDTCs(t *testing.T) {
	root := decodeRoot(t, mustConvert(t))
	if len(root.DTCs) != 1 {
		t.Fatalf("DTCs = %d, want 1", len(root.DTCs))
	}
	d := root.DTCs[0]
	if d.Code != 0x123456 || d.Severity != 0x40 {
		t.Errorf("DTC = %+v", d)
	}
	if len(d.Snapshots) != 1 || len(d.Snapshots[0].Items) != 1 {
		t.Fatalf("Snapshots = %+v", d.Snapshots)
	}
	item := d.Snapshots[0].Items[0]
	if item.DID != 0xF190 || item.Name != "DID_0xf190" || item.ByteSize != 2 {
		t.Errorf("snapshot item = %+v", item)
	}
}

func TestConvertVariants(t *testing.T) {
	root := decodeRoot(t, mustConvert(t))
	if len(root.Variants) != 2 {
		t.Fatalf("Variants = %d, want 2", len(root.Variants))
	}
	if !root.Variants[0].IsBaseVariant || root.Variants[0].ShortName != "EMS24" {
		t.Errorf("base variant = %+v", root.Variants[0])
	}
	boot := root.Variants[1]
	if boot.ParentRef != "EMS24" {
		t.Errorf("ParentRef = %q", boot.ParentRef)
	}
	if len(boot.MatchingParameters) != 1 || !boot.MatchingParameters[0].UsePhysicalAddressing {
		t.Errorf("MatchingParameters = %+v", boot.MatchingParameters)
	}
	if len(boot.ServiceRefs) != 1 {
		t.Errorf("ServiceRefs = %+v", boot.ServiceRefs)
	}
}
