package clipboard

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeCommand writes a shell script that stores stdin in out.
func fakeCommand(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-wl-copy")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCopyEmptyText(t *testing.T) {
	w := NewWlCopy()
	for _, text := range []string{"", "  \n"} {
		if err := w.Copy(context.Background(), text); !errors.Is(err, ErrEmptyText) {
			t.Errorf("Copy(%q) = %v, want ErrEmptyText", text, err)
		}
	}
}

func TestCopyPipesText(t *testing.T) {
	out := filepath.Join(t.TempDir(), "clip")
	w := &WlCopy{command: fakeCommand(t, "cat > "+out)}

	if err := w.Copy(context.Background(), "El paciente tiene fiebre"); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "El paciente tiene fiebre" {
		t.Errorf("clipboard got %q", data)
	}
}

func TestCopyCommandFailure(t *testing.T) {
	w := &WlCopy{command: fakeCommand(t, "exit 1")}
	err := w.Copy(context.Background(), "text")
	if err == nil || !strings.Contains(err.Error(), "failed") {
		t.Errorf("Copy() = %v, want failure", err)
	}
}
