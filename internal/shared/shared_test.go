package shared

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoggers(t *testing.T) {
	t.Run("NewLogger writes to provided writer", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		logger.Info("hello", "key", "value")

		if !strings.Contains(buf.String(), "hello") {
			t.Errorf("expected log output to contain message, got %q", buf.String())
		}
	})

	t.Run("WithLogger adds fields", func(t *testing.T) {
		var buf bytes.Buffer
		logger := WithLogger(NewLogger(&buf), "component", "favorites")
		logger.Info("loaded")

		if !strings.Contains(buf.String(), "component=favorites") {
			t.Errorf("expected component field, got %q", buf.String())
		}
	})

	t.Run("NewFileLogger creates directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "dir", "app.log")

		logger, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("failed to create file logger: %v", err)
		}
		logger.Info("written to file")

		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("expected log file to exist: %v", err)
		}
		if !strings.Contains(string(content), "written to file") {
			t.Errorf("expected log file to contain message, got %q", content)
		}
	})
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == "" || a == b {
		t.Errorf("expected unique non-empty ids, got %q and %q", a, b)
	}
}

func TestMarshalJSON(t *testing.T) {
	tc := []struct {
		name   string
		pretty bool
		want   string
	}{
		{name: "compact", pretty: false, want: `{"mode":"dark"}`},
		{name: "pretty", pretty: true, want: "{\n  \"mode\": \"dark\"\n}"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalJSON(map[string]string{"mode": "dark"}, tt.pretty)
			if err != nil {
				t.Fatalf("MarshalJSON() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("MarshalJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}
