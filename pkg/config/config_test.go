package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/battpipe/battpipe/pkg/utils/ptr"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    os.FileMode
		wantErr bool
	}{
		{name: "with leading zero", in: "0666", want: 0666},
		{name: "without leading zero", in: "666", want: 0666},
		{name: "world writable", in: "777", want: 0777},
		{name: "restrictive", in: "0600", want: 0600},
		{name: "whitespace tolerated", in: " 0666 ", want: 0666},
		{name: "non-octal digit", in: "0678", wantErr: true},
		{name: "not a number", in: "rw-rw-rw-", wantErr: true},
		{name: "beyond permission bits", in: "1777", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMode(%q) error = %v, wantErr %t", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseMode(%q) = %04o, want %04o", tt.in, got, tt.want)
			}
		})
	}
}

func TestMaterializeDefaults(t *testing.T) {
	c, err := (&RawConfig{}).Materialize()
	if err != nil {
		t.Fatalf("Materialize() of empty raw config failed: %v", err)
	}

	if c.PipePath != "/var/run/battpipe.pipe" {
		t.Errorf("PipePath = %q, want default", c.PipePath)
	}
	if c.PipeMode != 0666 {
		t.Errorf("PipeMode = %04o, want 0666", c.PipeMode)
	}
	if c.PipeUID != -1 || c.PipeGID != -1 {
		t.Errorf("PipeUID/PipeGID = %d/%d, want -1/-1", c.PipeUID, c.PipeGID)
	}
	if c.DefaultStart != 75 || c.DefaultEnd != 80 {
		t.Errorf("defaults = %d..%d, want 75..80", c.DefaultStart, c.DefaultEnd)
	}
}

func TestMaterializeValidation(t *testing.T) {
	tests := []struct {
		name string
		raw  *RawConfig
	}{
		{
			name: "inverted defaults",
			raw:  &RawConfig{DefaultStart: ptr.To(90), DefaultEnd: ptr.To(40)},
		},
		{
			name: "default start out of range",
			raw:  &RawConfig{DefaultStart: ptr.To(150), DefaultEnd: ptr.To(160)},
		},
		{
			name: "bad pipe mode",
			raw:  &RawConfig{PipeMode: ptr.To("abc")},
		},
		{
			name: "empty pipe path",
			raw:  &RawConfig{PipePath: ptr.To("")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.raw.Materialize(); err == nil {
				t.Error("Materialize() accepted an invalid config")
			}
		})
	}
}

func TestLoadRaw(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file yields empty raw config", func(t *testing.T) {
		raw, err := LoadRaw(filepath.Join(dir, "nope.json"))
		if err != nil {
			t.Fatalf("LoadRaw() failed: %v", err)
		}
		if raw.PipePath != nil {
			t.Error("missing file should not set any field")
		}
	})

	t.Run("populated file", func(t *testing.T) {
		path := filepath.Join(dir, "battpipe.json")
		content := `{"pipePath": "/tmp/test.pipe", "defaultStart": 40, "defaultEnd": 60, "pipeMode": "0660"}`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		raw, err := LoadRaw(path)
		if err != nil {
			t.Fatalf("LoadRaw() failed: %v", err)
		}
		c, err := raw.Materialize()
		if err != nil {
			t.Fatalf("Materialize() failed: %v", err)
		}

		if c.PipePath != "/tmp/test.pipe" {
			t.Errorf("PipePath = %q", c.PipePath)
		}
		if c.DefaultStart != 40 || c.DefaultEnd != 60 {
			t.Errorf("defaults = %d..%d, want 40..60", c.DefaultStart, c.DefaultEnd)
		}
		if c.PipeMode != 0660 {
			t.Errorf("PipeMode = %04o, want 0660", c.PipeMode)
		}
		// Unset fields still come from defaults.
		if c.SocketPath != "/var/run/battpipe.sock" {
			t.Errorf("SocketPath = %q, want default", c.SocketPath)
		}
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadRaw(path); err == nil {
			t.Error("LoadRaw() accepted malformed JSON")
		}
	})
}
