package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestLoadError(t *testing.T) {
	tests := []struct {
		name string
		err  *LoadError
		want string
	}{
		{
			name: "with path",
			err:  NewLoad("ecu.yaml", "empty document", nil),
			want: "ecu.yaml: empty document",
		},
		{
			name: "without path",
			err:  NewLoad("", "document root must be a mapping", nil),
			want: "document root must be a mapping",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
			if !errors.Is(tt.err, ErrLoad) {
				t.Error("LoadError should match ErrLoad")
			}
		})
	}
}

func TestLoadErrorUnwrapsUnderlying(t *testing.T) {
	inner := errors.New("yaml: line 3: mapping values are not allowed")
	err := NewLoad("ecu.yaml", "parse failure", inner)
	if !errors.Is(err, inner) {
		t.Error("LoadError with underlying error should unwrap to it")
	}
}

func TestSchemaError(t *testing.T) {
	single := NewSchema("ecu.yaml", []FieldError{
		{Path: "sessions.default.id", Message: "value out of 8-bit range"},
	})
	if !strings.Contains(single.Error(), "sessions.default.id") {
		t.Errorf("single-field Error() should name the field, got %q", single.Error())
	}

	multi := NewSchema("ecu.yaml", []FieldError{
		{Path: "sessions.default.id", Message: "value out of 8-bit range"},
		{Path: "dids[0].id", Message: "missing required field"},
	})
	if !strings.Contains(multi.Error(), "2 schema errors") {
		t.Errorf("multi-field Error() should report count, got %q", multi.Error())
	}
	detail := multi.Detail()
	if !strings.Contains(detail, "sessions.default.id") || !strings.Contains(detail, "dids[0].id") {
		t.Errorf("Detail() should list every field, got %q", detail)
	}
	if len(strings.Split(detail, "\n")) != 2 {
		t.Errorf("Detail() should be one line per field, got %q", detail)
	}
	if !errors.Is(multi, ErrSchema) {
		t.Error("SchemaError should match ErrSchema")
	}
}

func TestNotFoundError(t *testing.T) {
	err := NewNotFound("DOP", "VehicleSpeed_DOP")
	want := "DOP not found: VehicleSpeed_DOP"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, ErrNotFound) {
		t.Error("NotFoundError should match ErrNotFound")
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidation("dids[2].read_sessions", "unknown session 'Bootloader'")
	if !strings.Contains(err.Error(), "dids[2].read_sessions") {
		t.Errorf("Error() should include field, got %q", err.Error())
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("ValidationError should match ErrInvalidInput")
	}
}

func TestDefectError(t *testing.T) {
	err := NewDefectf("transform", "DOP %q resolved to nil after validation", "DOP_DID")
	if !strings.HasPrefix(err.Error(), "transform defect:") {
		t.Errorf("Error() = %q, want transform defect prefix", err.Error())
	}
	if !errors.Is(err, ErrDefect) {
		t.Error("DefectError should match ErrDefect")
	}
}

func TestIOError(t *testing.T) {
	inner := errors.New("permission denied")
	err := NewIO("write", "/out/ecu.mdd", inner)
	want := "failed to write /out/ecu.mdd: permission denied"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, inner) {
		t.Error("IOError should unwrap to underlying error")
	}
}

func TestParseError(t *testing.T) {
	err := NewParse("envelope", "ecu.mdd", "bad magic")
	if !strings.Contains(err.Error(), "envelope") || !strings.Contains(err.Error(), "ecu.mdd") {
		t.Errorf("Error() should include format and path, got %q", err.Error())
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("ParseError should match ErrInvalidInput")
	}
}

func TestUnsupportedError(t *testing.T) {
	err := NewUnsupported("compression tag", "zstd not compiled in")
	if !strings.Contains(err.Error(), "compression tag") {
		t.Errorf("Error() should include feature, got %q", err.Error())
	}
	if !errors.Is(err, ErrUnsupported) {
		t.Error("UnsupportedError should match ErrUnsupported")
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "context") != nil {
		t.Error("Wrap(nil) should return nil")
	}
	base := NewNotFound("service", "Session_Start")
	wrapped := Wrap(base, "building variant")
	if !errors.Is(wrapped, ErrNotFound) {
		t.Error("wrapped error should still match ErrNotFound")
	}
	if !strings.HasPrefix(wrapped.Error(), "building variant: ") {
		t.Errorf("Wrap should prefix context, got %q", wrapped.Error())
	}
}

func TestWrapf(t *testing.T) {
	if Wrapf(nil, "chunk %d", 3) != nil {
		t.Error("Wrapf(nil) should return nil")
	}
	base := errors.New("short read")
	wrapped := Wrapf(base, "chunk %d", 3)
	if wrapped.Error() != "chunk 3: short read" {
		t.Errorf("Wrapf output = %q", wrapped.Error())
	}
}

func TestAs(t *testing.T) {
	err := Wrap(NewDefect("convert", "unset param kind"), "payload")
	var defect *DefectError
	if !As(err, &defect) {
		t.Fatal("As should find the DefectError through wrapping")
	}
	if defect.Stage != "convert" {
		t.Errorf("Stage = %q, want convert", defect.Stage)
	}
}
