package pipe

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestEnsureCreatesFIFO(t *testing.T) {
	path := filepath.Join(t.TempDir(), "battpipe.pipe")
	m := NewManager(path, -1, -1, 0666)

	if err := m.Ensure(); err != nil {
		t.Fatalf("Ensure() failed: %v", err)
	}

	fi, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat after Ensure() failed: %v", err)
	}
	if fi.Mode()&os.ModeNamedPipe == 0 {
		t.Errorf("created file mode = %v, want a named pipe", fi.Mode())
	}
	if perm := fi.Mode().Perm(); perm != 0666 {
		t.Errorf("created pipe permissions = %04o, want 0666", perm)
	}
}

func TestEnsureConvergesPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "battpipe.pipe")

	// First startup with restrictive bits, second with the declared policy.
	if err := NewManager(path, -1, -1, 0600).Ensure(); err != nil {
		t.Fatalf("first Ensure() failed: %v", err)
	}
	if err := NewManager(path, -1, -1, 0666).Ensure(); err != nil {
		t.Fatalf("second Ensure() failed: %v", err)
	}

	fi, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if perm := fi.Mode().Perm(); perm != 0666 {
		t.Errorf("pipe permissions = %04o, want 0666 after restart", perm)
	}
}

func TestEnsureRefusesRegularFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "battpipe.pipe")
	if err := os.WriteFile(path, []byte("not a pipe"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := NewManager(path, -1, -1, 0666).Ensure(); err == nil {
		t.Fatal("Ensure() accepted a regular file occupying the pipe path")
	}
}

func TestNextLineAcrossWriterDisconnects(t *testing.T) {
	path := filepath.Join(t.TempDir(), "battpipe.pipe")
	m := NewManager(path, -1, -1, 0666)
	if err := m.Ensure(); err != nil {
		t.Fatalf("Ensure() failed: %v", err)
	}
	defer m.Close()

	// Each write is a separate writer, like repeated echo invocations. The
	// manager must survive every disconnect in between.
	writes := []string{"20..80\n", "start=30\n", "55\n"}
	go func() {
		for _, w := range writes {
			f, err := os.OpenFile(path, os.O_WRONLY, 0)
			if err != nil {
				return
			}
			_, _ = f.WriteString(w)
			_ = f.Close()
			time.Sleep(10 * time.Millisecond)
		}
	}()

	want := []string{"20..80", "start=30", "55"}
	for i, w := range want {
		got, err := m.NextLine()
		if err != nil {
			t.Fatalf("NextLine() #%d failed: %v", i, err)
		}
		if got != w {
			t.Errorf("NextLine() #%d = %q, want %q", i, got, w)
		}
	}
}

func TestNextLineDeliversUnterminatedLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "battpipe.pipe")
	m := NewManager(path, -1, -1, 0666)
	if err := m.Ensure(); err != nil {
		t.Fatalf("Ensure() failed: %v", err)
	}
	defer m.Close()

	go func() {
		f, err := os.OpenFile(path, os.O_WRONLY, 0)
		if err != nil {
			return
		}
		// No trailing newline; the disconnect terminates the line.
		_, _ = f.WriteString("end=85")
		_ = f.Close()
	}()

	got, err := m.NextLine()
	if err != nil {
		t.Fatalf("NextLine() failed: %v", err)
	}
	if got != "end=85" {
		t.Errorf("NextLine() = %q, want %q", got, "end=85")
	}
}
