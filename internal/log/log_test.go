package log

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(LevelWarn)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(LevelInfo)
	})

	Info("hidden")
	Warn("shown", "id", "abc")
	Error("failed", errors.New("boom"), "op", "save")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("INFO line written below WARN threshold: %s", out)
	}
	if !strings.Contains(out, "[WARN] shown id=abc") {
		t.Errorf("missing WARN line: %s", out)
	}
	if !strings.Contains(out, "[ERROR] failed err=boom op=save") {
		t.Errorf("missing ERROR line: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{" Warning ", LevelWarn},
		{"ERROR", LevelError},
		{"", LevelInfo},
		{"verbose", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestValueQuoting(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(os.Stderr) })

	Info("saved", "title", "팀 회의")
	if !strings.Contains(buf.String(), `title="팀 회의"`) {
		t.Errorf("value with space not quoted: %s", buf.String())
	}
}
