package document

import (
	"testing"

	"gopkg.in/yaml.v3"
)

func TestHexIntNotations(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int64
	}{
		{"decimal", "61840", 61840},
		{"lower hex", "0xf190", 0xF190},
		{"upper hex", "0xF190", 0xF190},
		{"upper prefix", "0XF190", 0xF190},
		{"zero", "0", 0},
		{"leading zeros decimal", "0010", 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var h HexInt
			if err := yaml.Unmarshal([]byte(tt.input), &h); err != nil {
				t.Fatalf("unmarshal %q: %v", tt.input, err)
			}
			if int64(h) != tt.want {
				t.Errorf("got %d, want %d", int64(h), tt.want)
			}
		})
	}
}

func TestHexIntInvalid(t *testing.T) {
	tests := []string{"abc", "0x", "\"\"", "1.5", "-1", "[1, 2]"}
	for _, input := range tests {
		var h HexInt
		if err := yaml.Unmarshal([]byte(input), &h); err == nil {
			t.Errorf("unmarshal %q: expected error, got %d", input, int64(h))
		}
	}
}

func TestHexIntWidths(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"8-bit max", "255", false},
		{"8-bit hex max", "0xFF", false},
		{"8-bit zero", "0", false},
		{"8-bit overflow", "256", true},
		{"8-bit hex overflow", "0x100", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var h HexInt8
			err := yaml.Unmarshal([]byte(tt.input), &h)
			if (err != nil) != tt.wantErr {
				t.Errorf("unmarshal %q: err = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}

	var h16 HexInt16
	if err := yaml.Unmarshal([]byte("0x10000"), &h16); err == nil {
		t.Error("HexInt16 accepted 0x10000")
	}
	if err := yaml.Unmarshal([]byte("0xFFFF"), &h16); err != nil || h16 != 0xFFFF {
		t.Errorf("HexInt16 0xFFFF: got %v, err %v", h16, err)
	}
	var h24 HexInt24
	if err := yaml.Unmarshal([]byte("0x1000000"), &h24); err == nil {
		t.Error("HexInt24 accepted 0x1000000")
	}
	var h32 HexInt32
	if err := yaml.Unmarshal([]byte("0xFFFFFFFF"), &h32); err != nil || h32 != 0xFFFFFFFF {
		t.Errorf("HexInt32 0xFFFFFFFF: got %v, err %v", h32, err)
	}
}

func TestHexIntString(t *testing.T) {
	tests := []struct {
		got  string
		want string
	}{
		{HexInt8(0x10).String(), "0x10"},
		{HexInt8(0x5).String(), "0x05"},
		{HexInt16(0xF190).String(), "0xf190"},
		{HexInt16(0x10).String(), "0x0010"},
		{HexInt24(0x800).String(), "0x000800"},
		{HexInt32(0x08000000).String(), "0x08000000"},
		{HexInt(0x10).String(), "0x10"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}
