package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestForRecord(t *testing.T) {
	var buf bytes.Buffer
	old := defaultLog
	defer func() { defaultLog = old }()
	defaultLog = newLogger(&buf)

	ForRecord("run-1", "rate-2.json").Warn("skipping")
	out := buf.String()
	for _, want := range []string{"run=run-1", "file=rate-2.json", "skipping"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log line missing %q: %s", want, out)
		}
	}
}

func TestSetError(t *testing.T) {
	var buf bytes.Buffer
	old := defaultLog
	defer func() { defaultLog = old }()
	defaultLog = newLogger(&buf)

	SetError()
	Info("hidden")
	Debug("hidden")
	Error("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("unexpected output at error level: %s", buf.String())
	}
}
