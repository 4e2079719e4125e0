package shared

import (
	"strings"
	"testing"
)

func TestBrowserCommand(t *testing.T) {
	tc := []struct {
		goos    string
		program string
		wantErr bool
	}{
		{goos: "darwin", program: "open"},
		{goos: "linux", program: "xdg-open"},
		{goos: "windows", program: "cmd"},
		{goos: "plan9", wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.goos, func(t *testing.T) {
			cmd, err := browserCommand(tt.goos, "https://example.com")
			if tt.wantErr {
				if err == nil {
					t.Error("expected unsupported platform error")
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !strings.HasSuffix(cmd.Path, tt.program) && cmd.Args[0] != tt.program {
				t.Errorf("expected program %s, got %v", tt.program, cmd.Args)
			}
			if cmd.Args[len(cmd.Args)-1] != "https://example.com" {
				t.Errorf("expected URL as last argument, got %v", cmd.Args)
			}
		})
	}

	t.Run("OpenBrowser rejects unknown runtime", func(t *testing.T) {
		orig := getRuntime
		getRuntime = func() string { return "plan9" }
		defer func() { getRuntime = orig }()

		if err := OpenBrowser("https://example.com"); err == nil {
			t.Error("expected error for unsupported platform")
		}
	})
}
