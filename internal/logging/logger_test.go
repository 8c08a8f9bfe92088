package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "synth")

	l.Warn("word skipped", "page", 3, "word", 2, "dangling")
	out := buf.String()
	for _, want := range []string{"[synth] ", "[WARN] word skipped", " page=3", " word=2"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q lacks %q", out, want)
		}
	}
	if strings.Contains(out, "dangling") {
		t.Errorf("output %q contains an unpaired key", out)
	}

	buf.Reset()
	l.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("Debug wrote %q with debug disabled", buf.String())
	}
	l.SetDebug(true)
	l.Debug("shown")
	if !strings.Contains(buf.String(), "[DEBUG] shown") {
		t.Errorf("Debug output = %q", buf.String())
	}
}

func TestNilLogger(t *testing.T) {
	var l *Logger
	l.SetDebug(true)
	l.Info("ignored")
	l.Warn("ignored")
	l.Error("ignored")
	l.Debug("ignored")
}
