package document

import "testing"

const audienceDoc = `
schema: opensovd.cda.diagdesc/v1
meta:
  revision: 1.0.0
ecu:
  id: ECM
  name: Engine Control Module
audience:
  default: production
  available: [development, production, aftermarket, dealer]
  hierarchy:
    dealer: [aftermarket]
sessions:
  default:
    id: 0x01
services:
  readDataByIdentifier:
    enabled: true
  ecuReset:
    enabled: true
    audience:
      include: [development]
types:
  vin_string:
    base: ascii
    length: 17
  dev_counter:
    base: u16
dids:
  0xF190:
    name: VIN
    type: vin_string
  0xF1A0:
    name: Dev_Counter
    type: dev_counter
    audience:
      include: [development]
  0xF1A1:
    name: Service_Record
    type: u8
    audience:
      include: [aftermarket]
routines:
  0x0203:
    name: Self_Test
    operations: [start]
  0x0204:
    name: Calibrate
    operations: [start]
    audience:
      exclude: [aftermarket]
dtcs:
  0x123456:
    name: DTC_Public
    sae: P1234
  0x123457:
    name: DTC_Internal
    sae: P1235
    audience:
      include: [development]
`

func parseAudienceDoc(t *testing.T) *Document {
	t.Helper()
	doc, err := Parse([]byte(audienceDoc), "audience.yaml")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return doc
}

func TestAudienceFilterDIDs(t *testing.T) {
	doc := parseAudienceDoc(t)
	filter := NewAudienceFilter(AudienceAftermarket, doc.Audience)
	filtered, sum := filter.Apply(doc)

	if _, ok := filtered.DIDs[0xF190]; !ok {
		t.Error("unrestricted DID was removed")
	}
	if _, ok := filtered.DIDs[0xF1A0]; ok {
		t.Error("development-only DID survived aftermarket filter")
	}
	if _, ok := filtered.DIDs[0xF1A1]; !ok {
		t.Error("aftermarket DID was removed")
	}
	if sum.DIDs != 1 {
		t.Errorf("removed DIDs = %d, want 1", sum.DIDs)
	}
}

func TestAudienceFilterRoutinesAndDTCs(t *testing.T) {
	doc := parseAudienceDoc(t)
	filter := NewAudienceFilter(AudienceAftermarket, doc.Audience)
	filtered, sum := filter.Apply(doc)

	if _, ok := filtered.Routines[0x0203]; !ok {
		t.Error("unrestricted routine was removed")
	}
	if _, ok := filtered.Routines[0x0204]; ok {
		t.Error("excluded routine survived aftermarket filter")
	}
	if _, ok := filtered.DTCs[0x123456]; !ok {
		t.Error("unrestricted DTC was removed")
	}
	if _, ok := filtered.DTCs[0x123457]; ok {
		t.Error("development-only DTC survived aftermarket filter")
	}
	if sum.Routines != 1 || sum.DTCs != 1 {
		t.Errorf("removed routines/dtcs = %d/%d, want 1/1", sum.Routines, sum.DTCs)
	}
}

func TestAudienceFilterServices(t *testing.T) {
	doc := parseAudienceDoc(t)
	filter := NewAudienceFilter(AudienceAftermarket, doc.Audience)
	filtered, sum := filter.Apply(doc)

	if filtered.Services.ReadDataByIdentifier == nil {
		t.Error("unrestricted service entry was removed")
	}
	if filtered.Services.EcuReset != nil {
		t.Error("development-only service entry survived aftermarket filter")
	}
	if sum.Services != 1 {
		t.Errorf("removed services = %d, want 1", sum.Services)
	}
	if doc.Services.EcuReset == nil {
		t.Error("filter modified the original document")
	}
}

func TestAudienceFilterPrunesTypes(t *testing.T) {
	doc := parseAudienceDoc(t)
	filter := NewAudienceFilter(AudienceAftermarket, doc.Audience)
	filtered, sum := filter.Apply(doc)

	if _, ok := filtered.Types["vin_string"]; !ok {
		t.Error("type referenced by a kept DID was pruned")
	}
	if _, ok := filtered.Types["dev_counter"]; ok {
		t.Error("type referenced only by a removed DID survived")
	}
	if sum.Types != 1 {
		t.Errorf("removed types = %d, want 1", sum.Types)
	}
}

func TestAudienceFilterHierarchy(t *testing.T) {
	doc := parseAudienceDoc(t)

	// dealer inherits aftermarket, so aftermarket-only items stay visible.
	filter := NewAudienceFilter("dealer", doc.Audience)
	filtered, _ := filter.Apply(doc)
	if _, ok := filtered.DIDs[0xF1A1]; !ok {
		t.Error("dealer lost access to an aftermarket item it inherits")
	}
	if _, ok := filtered.DIDs[0xF1A0]; ok {
		t.Error("dealer gained access to a development-only item")
	}

	// The excluded routine names aftermarket directly, not dealer, so the
	// exclusion does not cascade to the child audience.
	if _, ok := filtered.Routines[0x0204]; !ok {
		t.Error("exclusion of the parent audience removed the child's item")
	}
}

func TestAudienceFilterDevelopmentSeesEverything(t *testing.T) {
	doc := parseAudienceDoc(t)
	filter := NewAudienceFilter(AudienceDevelopment, doc.Audience)
	filtered, sum := filter.Apply(doc)

	if len(filtered.DIDs) != 2 {
		t.Errorf("development DIDs = %d, want 2", len(filtered.DIDs))
	}
	if _, ok := filtered.DIDs[0xF1A1]; ok {
		t.Error("development saw an aftermarket-only item without inheriting it")
	}
	if sum.DTCs != 0 {
		t.Errorf("removed DTCs = %d, want 0", sum.DTCs)
	}
}
