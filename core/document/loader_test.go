package document

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/diagkit/mddc/core/errors"
)

const minimalDoc = `
schema: opensovd.cda.diagdesc/v1
meta:
  author: diag-team
  revision: 1.0.0
ecu:
  id: ECM
  name: Engine Control Module
sessions:
  default:
    id: 0x01
  extended:
    id: 0x03
services:
  readDataByIdentifier:
    enabled: true
`

func TestParseMinimal(t *testing.T) {
	doc, err := Parse([]byte(minimalDoc), "test.yaml")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Schema != SchemaVersion {
		t.Errorf("schema = %q, want %q", doc.Schema, SchemaVersion)
	}
	if doc.Ecu.ID != "ECM" {
		t.Errorf("ecu.id = %q, want ECM", doc.Ecu.ID)
	}
	if got := doc.Sessions["default"].ID; got != 0x01 {
		t.Errorf("default session id = %v, want 0x01", got)
	}
	if got := doc.Sessions["extended"].ID; got != 0x03 {
		t.Errorf("extended session id = %v, want 0x03", got)
	}
	if !doc.Services.ReadDataByIdentifier.IsEnabled() {
		t.Error("readDataByIdentifier should be enabled")
	}
	if doc.Source != "test.yaml" {
		t.Errorf("source = %q", doc.Source)
	}
}

func TestParseLoadErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"whitespace only", "   \n  \n"},
		{"sequence root", "- a\n- b\n"},
		{"scalar root", "just text"},
		{"malformed", "a: [unclosed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input), "bad.yaml")
			if !stderrors.Is(err, errors.ErrLoad) {
				t.Errorf("expected load error, got %v", err)
			}
		})
	}
}

func TestLoadFileErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !stderrors.Is(err, errors.ErrLoad) {
		t.Errorf("missing file: expected load error, got %v", err)
	}

	dir := t.TempDir()
	bad := filepath.Join(dir, "doc.txt")
	if err := os.WriteFile(bad, []byte(minimalDoc), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); !stderrors.Is(err, errors.ErrLoad) {
		t.Errorf("bad extension: expected load error, got %v", err)
	}

	good := filepath.Join(dir, "doc.yaml")
	if err := os.WriteFile(good, []byte(minimalDoc), 0o644); err != nil {
		t.Fatal(err)
	}
	doc, err := Load(good)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Ecu.ID != "ECM" {
		t.Errorf("ecu.id = %q", doc.Ecu.ID)
	}
}

func TestParseSchemaErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			"unknown top-level key",
			minimalDoc + "bogus_section: {}\n",
			"bogus_section",
		},
		{
			"wrong schema literal",
			strings.Replace(minimalDoc, SchemaVersion, "other/v9", 1),
			"unsupported schema",
		},
		{
			"missing revision",
			strings.Replace(minimalDoc, "  revision: 1.0.0\n", "", 1),
			"meta.revision",
		},
		{
			"missing services",
			strings.Replace(minimalDoc, "services:\n  readDataByIdentifier:\n    enabled: true\n", "", 1),
			"services",
		},
		{
			"severity out of range",
			minimalDoc + "dtcs:\n  0x123456:\n    name: DTC_Test\n    severity: 5\n",
			"severity",
		},
		{
			"struct without fields",
			minimalDoc + "types:\n  broken:\n    base: struct\n",
			"at least one field",
		},
		{
			"min exceeds max length",
			minimalDoc + "types:\n  vin:\n    base: ascii\n    min_length: 20\n    max_length: 17\n",
			"min_length",
		},
		{
			"string as declared base",
			minimalDoc + "types:\n  label:\n    base: string\n",
			"unknown base type",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input), "bad.yaml")
			if !stderrors.Is(err, errors.ErrSchema) {
				t.Fatalf("expected schema error, got %v", err)
			}
			var se *errors.SchemaError
			if !stderrors.As(err, &se) {
				t.Fatalf("expected *SchemaError, got %T", err)
			}
			if !strings.Contains(se.Detail(), tt.want) {
				t.Errorf("detail %q does not mention %q", se.Detail(), tt.want)
			}
		})
	}
}

func TestParse24BitBases(t *testing.T) {
	input := minimalDoc + "types:\n  odometer:\n    base: u24\n  trim_offset:\n    base: i24\n"
	doc, err := Parse([]byte(input), "widths.yaml")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Types["odometer"].Base != "u24" {
		t.Errorf("odometer base = %q", doc.Types["odometer"].Base)
	}
	if doc.Types["trim_offset"].Base != "i24" {
		t.Errorf("trim_offset base = %q", doc.Types["trim_offset"].Base)
	}
}

func TestParseMemoryOverlap(t *testing.T) {
	input := minimalDoc + `
memory:
  regions:
    app:
      start_address: 0x08000000
      size: 0x1000
    calib:
      start_address: 0x08000800
      size: 0x1000
`
	_, err := Parse([]byte(input), "mem.yaml")
	if !stderrors.Is(err, errors.ErrSchema) {
		t.Fatalf("expected schema error, got %v", err)
	}
	if !strings.Contains(err.Error(), "schema") && !strings.Contains(err.Error(), "field") {
		t.Errorf("unexpected message %q", err.Error())
	}
	var se *errors.SchemaError
	if !stderrors.As(err, &se) {
		t.Fatalf("expected *SchemaError, got %T", err)
	}
	if !strings.Contains(se.Detail(), "overlaps") {
		t.Errorf("detail %q does not mention overlap", se.Detail())
	}
}

func TestAccessPatternForms(t *testing.T) {
	input := minimalDoc + `
access_patterns:
  open:
    sessions: any
    security: none
  single:
    sessions: extended
    security: level1
  listed:
    sessions: [default, extended]
    security: [level1, level2]
`
	doc, err := Parse([]byte(input), "ap.yaml")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	open := doc.AccessPatterns["open"]
	if !open.Sessions.Any || !open.Security.None {
		t.Errorf("open pattern: Any=%v None=%v", open.Sessions.Any, open.Security.None)
	}
	if open.SessionNames() != nil || open.SecurityNames() != nil {
		t.Error("open pattern should resolve to no requirements")
	}

	single := doc.AccessPatterns["single"]
	if got := single.SessionNames(); len(got) != 1 || got[0] != "extended" {
		t.Errorf("single sessions = %v", got)
	}
	if got := single.SecurityNames(); len(got) != 1 || got[0] != "level1" {
		t.Errorf("single security = %v", got)
	}

	listed := doc.AccessPatterns["listed"]
	if got := listed.SessionNames(); len(got) != 2 {
		t.Errorf("listed sessions = %v", got)
	}
}

func TestDIDMapKeys(t *testing.T) {
	input := minimalDoc + `
dids:
  0xF190:
    name: VIN
    type: ascii
  61841:
    name: HW_Version
    type: u16
`
	doc, err := Parse([]byte(input), "dids.yaml")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.DIDs[0xF190] == nil || doc.DIDs[0xF190].Name != "VIN" {
		t.Errorf("hex key DID missing: %+v", doc.DIDs)
	}
	if doc.DIDs[0xF191] == nil || doc.DIDs[0xF191].Name != "HW_Version" {
		t.Errorf("decimal key DID missing: %+v", doc.DIDs)
	}

	if _, err := Parse([]byte(minimalDoc+"dids:\n  0x10000:\n    name: X\n    type: u8\n"), "dids.yaml"); err == nil {
		t.Error("DID address beyond 16 bits should be rejected")
	}
}

func TestDIDAccessDefaults(t *testing.T) {
	readable := true
	writable := true
	tests := []struct {
		name         string
		did          DIDDefinition
		wantReadable bool
		wantWritable bool
	}{
		{"defaults", DIDDefinition{}, true, false},
		{"explicit read-only", DIDDefinition{Readable: &readable}, true, false},
		{"explicit writable", DIDDefinition{Writable: &writable}, true, true},
		{"legacy read_write", DIDDefinition{Access: "read_write"}, true, true},
		{"legacy readwrite case", DIDDefinition{Access: "ReadWrite"}, true, true},
		{"legacy write", DIDDefinition{Access: "write"}, false, true},
		{"pattern ref untouched", DIDDefinition{Access: "engineering_only"}, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.did.IsReadable(); got != tt.wantReadable {
				t.Errorf("IsReadable() = %v, want %v", got, tt.wantReadable)
			}
			if got := tt.did.IsWritable(); got != tt.wantWritable {
				t.Errorf("IsWritable() = %v, want %v", got, tt.wantWritable)
			}
		})
	}
}

func TestEffectiveAudiencesCycle(t *testing.T) {
	cfg := &AudienceConfig{
		Hierarchy: map[string][]string{
			"a": {"b"},
			"b": {"c"},
			"c": {"a"},
		},
	}
	got := cfg.EffectiveAudiences("a")
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
			break
		}
	}

	if got := (*AudienceConfig)(nil).EffectiveAudiences("solo"); len(got) != 1 || got[0] != "solo" {
		t.Errorf("nil config: got %v", got)
	}
}

func TestEnumMapKeys(t *testing.T) {
	input := minimalDoc + `
types:
  gear:
    base: u8
    enum:
      0: park
      0x01: reverse
      2: neutral
`
	doc, err := Parse([]byte(input), "enum.yaml")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	e := doc.Types["gear"].Enum
	want := map[int64]string{0: "park", 1: "reverse", 2: "neutral"}
	for k, v := range want {
		if e[k] != v {
			t.Errorf("enum[%d] = %q, want %q", k, e[k], v)
		}
	}
}
