package logger

import (
	"bytes"
	"log"
	"os"
	"strings"
	"testing"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	flags := log.Flags()
	log.SetFlags(0)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		log.SetFlags(flags)
		SetLevel(LevelInfo)
	})
	return &buf
}

func TestLevels(t *testing.T) {
	var tests = []struct {
		name  string
		level Level
		want  []string
		skip  []string
	}{
		{"info hides debug", LevelInfo, []string{"[INFO ] i", "[WARN ] w", "[ERROR] e"}, []string{"[DEBUG]"}},
		{"debug shows all", LevelDebug, []string{"[DEBUG] d", "[INFO ] i"}, nil},
		{"error only", LevelError, []string{"[ERROR] e"}, []string{"[INFO ]", "[WARN ]"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := capture(t)
			SetLevel(tt.level)
			Debug("d")
			Info("i")
			Warn("w")
			Error("e")
			out := buf.String()
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("\noutput %q missing %q", out, w)
				}
			}
			for _, s := range tt.skip {
				if strings.Contains(out, s) {
					t.Errorf("\noutput %q should not contain %q", out, s)
				}
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	var tests = []struct {
		in       string
		level    Level
		errIsNil bool
	}{
		{"debug", LevelDebug, true},
		{"INFO", LevelInfo, true},
		{"", LevelInfo, true},
		{"warning", LevelWarn, true},
		{"error", LevelError, true},
		{"loud", LevelInfo, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			l, err := ParseLevel(tt.in)
			if l != tt.level {
				t.Errorf("\ngot level %v, wanted %v", l, tt.level)
			} else if (err == nil) != tt.errIsNil {
				t.Errorf("\nunexpected error state: %v", err)
			}
		})
	}
}
