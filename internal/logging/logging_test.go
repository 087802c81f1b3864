package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDisabledWritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rain.log")
	logger, closer, err := New(false, path)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Debug("hidden")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("log file created while disabled: %v", err)
	}
}

func TestEnabledAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rain.log")
	for _, msg := range []string{"first", "second"} {
		logger, closer, err := New(true, path)
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		logger.Debug(msg, "frame", 1)
		closer.Close()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if !strings.Contains(out, "first") || !strings.Contains(out, "second") {
		t.Errorf("log missing records:\n%s", out)
	}
	if !strings.Contains(out, "frame=1") {
		t.Errorf("log missing key/value pair:\n%s", out)
	}
}

func TestBadPath(t *testing.T) {
	if _, _, err := New(true, filepath.Join(t.TempDir(), "missing", "rain.log")); err == nil {
		t.Error("expected error for missing directory")
	}
}
