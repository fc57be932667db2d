package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func reset() {
	SetVerbose(false)
	SetOutput(os.Stderr)
}

func TestSetVerbose(t *testing.T) {
	defer reset()

	SetVerbose(false)
	if IsVerbose() {
		t.Error("expected verbose to be false initially")
	}

	SetVerbose(true)
	if !IsVerbose() {
		t.Error("expected verbose to be true after SetVerbose(true)")
	}

	SetVerbose(false)
	if IsVerbose() {
		t.Error("expected verbose to be false after SetVerbose(false)")
	}
}

func TestVerboseOnlyLevels(t *testing.T) {
	defer reset()

	tests := []struct {
		name   string
		log    func()
		prefix string
	}{
		{"debug", func() { Debug("value %d", 7) }, "[DEBUG] value 7"},
		{"info", func() { Info("value %d", 7) }, "[INFO] value 7"},
		{"section", func() { Section("Reconcile") }, "=== Reconcile ==="},
	}

	for _, tt := range tests {
		t.Run(tt.name+" quiet", func(t *testing.T) {
			var buf bytes.Buffer
			SetOutput(&buf)
			SetVerbose(false)

			tt.log()
			if buf.Len() != 0 {
				t.Errorf("expected no output, got %q", buf.String())
			}
		})

		t.Run(tt.name+" verbose", func(t *testing.T) {
			var buf bytes.Buffer
			SetOutput(&buf)
			SetVerbose(true)

			tt.log()
			if !strings.Contains(buf.String(), tt.prefix) {
				t.Errorf("expected %q in output, got %q", tt.prefix, buf.String())
			}
		})
	}
}

func TestAlwaysOnLevels(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(false)

	Warn("skipping %s", "a.xml")
	Error("store: %v", "closed")

	out := buf.String()
	if !strings.Contains(out, "[WARN] skipping a.xml\n") {
		t.Errorf("missing warning in %q", out)
	}
	if !strings.Contains(out, "[ERROR] store: closed\n") {
		t.Errorf("missing error in %q", out)
	}
}

func TestOutput(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	if Output() != &buf {
		t.Error("expected Output to return the writer passed to SetOutput")
	}
}
