package shared

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

func TestLogger(t *testing.T) {
	t.Run("WithLogger adds prefix fields", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := WithLogger(NewLogger(buf), "pair", "gym")
		logger.Info("hello")

		if !strings.Contains(buf.String(), "pair=gym") {
			t.Errorf("expected pair field in output, got %q", buf.String())
		}
	})

	t.Run("SetLogLevel filters debug", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := NewLogger(buf)
		SetLogLevel(logger, VerboseLevel(false))
		logger.Debug("hidden")

		if buf.Len() != 0 {
			t.Errorf("expected debug output to be suppressed, got %q", buf.String())
		}

		SetLogLevel(logger, VerboseLevel(true))
		logger.Debug("shown")
		if !strings.Contains(buf.String(), "shown") {
			t.Errorf("expected debug output in verbose mode, got %q", buf.String())
		}
	})

	t.Run("VerboseLevel", func(t *testing.T) {
		if VerboseLevel(true) != log.DebugLevel {
			t.Error("expected debug level when verbose")
		}
		if VerboseLevel(false) != log.InfoLevel {
			t.Error("expected info level by default")
		}
	})
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == b {
		t.Fatal("expected unique IDs")
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Errorf("expected valid uuid, got %q: %v", a, err)
	}
}

func TestBrowserCommand(t *testing.T) {
	t.Setenv("BROWSER", "")

	tests := []struct {
		goos    string
		want    string
		wantErr bool
	}{
		{"darwin", "open", false},
		{"linux", "xdg-open", false},
		{"windows", "rundll32", false},
		{"plan9", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			name, args, err := browserCommand(tt.goos, "https://example.com")
			if (err != nil) != tt.wantErr {
				t.Fatalf("browserCommand() error = %v, wantErr %v", err, tt.wantErr)
			}
			if name != tt.want {
				t.Errorf("browserCommand() = %q, want %q", name, tt.want)
			}
			if !tt.wantErr && args[len(args)-1] != "https://example.com" {
				t.Errorf("URL should be the last argument, got %v", args)
			}
		})
	}

	t.Run("BROWSER override", func(t *testing.T) {
		t.Setenv("BROWSER", "firefox")
		name, _, err := browserCommand("plan9", "https://example.com")
		if err != nil || name != "firefox" {
			t.Errorf("expected firefox, got %q (%v)", name, err)
		}
	})
}
