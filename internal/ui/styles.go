// Package ui renders terminal styling for the bg command.
package ui

import "fmt"

// ANSI256 codes for chrome; node swatches use 24-bit color.
const (
	colorAccent = 74  // blue
	colorCmd    = 250 // light gray
	colorMuted  = 245 // medium gray
	colorOK     = 114 // green
	colorFail   = 203 // red
)

var noColor bool

func render256(code int, s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, s)
}

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string { return render256(colorAccent, s) }

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string { return render256(colorMuted, s) }

// RenderCommand returns s styled as a command name (light gray).
func RenderCommand(s string) string { return render256(colorCmd, s) }

// RenderOK returns s in green.
func RenderOK(s string) string { return render256(colorOK, s) }

// RenderFail returns s in red.
func RenderFail(s string) string { return render256(colorFail, s) }

// RenderRGB returns s in the 0xRRGGBB color rgb, the same value the scene
// uses for a node material.
func RenderRGB(rgb uint32, s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;2;%d;%d;%dm%s\x1b[0m", rgb>>16&0xff, rgb>>8&0xff, rgb&0xff, s)
}

// Swatch is a filled block in color rgb.
func Swatch(rgb uint32) string { return RenderRGB(rgb, "■") }

// SetColor enables or disables color output globally.
func SetColor(on bool) {
	noColor = !on
}
