package shared

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestTruncate(t *testing.T) {
	tc := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{name: "shorter than limit", in: "부산 불꽃축제", n: 20, want: "부산 불꽃축제"},
		{name: "cut with ellipsis", in: "Seoul Lantern Festival", n: 6, want: "Seoul…"},
		{name: "multibyte runes", in: "진해군항제 벚꽃", n: 3, want: "진해…"},
		{name: "trims whitespace", in: "  spaced  ", n: 10, want: "spaced"},
		{name: "zero limit keeps input", in: "anything", n: 0, want: "anything"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.in, tt.n); got != tt.want {
				t.Errorf("Truncate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatDateRange(t *testing.T) {
	tc := []struct {
		name       string
		start, end string
		want       string
	}{
		{name: "both empty", want: "-"},
		{name: "single day", start: "2025-10-01", end: "2025-10-01", want: "2025-10-01"},
		{name: "range", start: "2025-10-01", end: "2025-10-03", want: "2025-10-01 ~ 2025-10-03"},
		{name: "missing end", start: "2025-10-01", want: "2025-10-01"},
		{name: "missing start", end: "2025-10-03", want: "2025-10-03"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatDateRange(tt.start, tt.end); got != tt.want {
				t.Errorf("FormatDateRange() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoggers(t *testing.T) {
	t.Run("ParseLogLevel", func(t *testing.T) {
		if got := ParseLogLevel("DEBUG"); got != log.DebugLevel {
			t.Errorf("expected debug level, got %v", got)
		}
		if got := ParseLogLevel("nonsense"); got != log.InfoLevel {
			t.Errorf("expected info fallback, got %v", got)
		}
	})

	t.Run("WithLogger adds fields", func(t *testing.T) {
		var buf bytes.Buffer
		logger := WithLogger(NewLogger(&buf), "component", "test")
		logger.Info("hello")

		if !strings.Contains(buf.String(), "component=test") {
			t.Errorf("expected component field in output, got %q", buf.String())
		}
	})

	t.Run("NewFileLogger creates parent directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "festa.log")
		logger, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("failed to create file logger: %v", err)
		}
		logger.Info("written")
	})

	t.Run("GenerateID is unique", func(t *testing.T) {
		if GenerateID() == GenerateID() {
			t.Error("expected distinct IDs")
		}
	})
}

func TestMarshalJSON(t *testing.T) {
	v := map[string]int{"a": 1}

	compact, err := MarshalJSON(v, false)
	if err != nil || string(compact) != `{"a":1}` {
		t.Errorf("expected compact JSON, got %s (%v)", compact, err)
	}

	pretty, _ := MarshalJSON(v, true)
	if string(pretty) != "{\n  \"a\": 1\n}" {
		t.Errorf("expected indented JSON, got %s", pretty)
	}
}
