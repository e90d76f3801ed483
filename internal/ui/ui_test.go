package ui

import (
	"os"
	"testing"
)

func TestRender_NoColor(t *testing.T) {
	SetColor(false)
	defer SetColor(true)

	for name, fn := range map[string]func(string) string{
		"accent":  RenderAccent,
		"muted":   RenderMuted,
		"command": RenderCommand,
		"ok":      RenderOK,
		"fail":    RenderFail,
	} {
		if got := fn("x"); got != "x" {
			t.Errorf("%s: expected plain text, got %q", name, got)
		}
	}
	if got := Swatch(0x3b82f6); got != "■" {
		t.Errorf("expected plain swatch, got %q", got)
	}
}

func TestRenderRGB(t *testing.T) {
	SetColor(true)
	got := RenderRGB(0x3b82f6, "epic")
	want := "\x1b[38;2;59;130;246mepic\x1b[0m"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestShouldUseColor(t *testing.T) {
	tests := []struct {
		name    string
		noColor string
		force   string
		cli     string
		want    bool
	}{
		{"no color wins", "1", "1", "", false},
		{"forced", "", "1", "", true},
		{"clicolor off", "", "", "0", false},
		{"not a tty", "", "", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("NO_COLOR", tc.noColor)
			t.Setenv("CLICOLOR_FORCE", tc.force)
			t.Setenv("CLICOLOR", tc.cli)

			f, err := os.CreateTemp(t.TempDir(), "out")
			if err != nil {
				t.Fatal(err)
			}
			defer f.Close()
			if got := ShouldUseColor(f); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
