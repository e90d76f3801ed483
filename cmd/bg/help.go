package main

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/alfredjeanlab/beadgraph/internal/ui"
	"github.com/spf13/cobra"
)

// helpRule styles one capture group of every match of re.
type helpRule struct {
	re    *regexp.Regexp
	group int
	style func(string) string
}

var helpRules = []helpRule{
	// "Viewer:", "Flags:"
	{regexp.MustCompile(`(?m)^()([A-Z][^\n]*:)[ \t]*$`), 2, ui.RenderAccent},
	// command names in the group listings
	{regexp.MustCompile(`(?m)^(  )(\S+)(  +)`), 2, ui.RenderCommand},
	// "--url string"
	{regexp.MustCompile(`(--?\S+\s+)(string|int|uint64|duration)()`), 2, ui.RenderMuted},
	// (default "http://localhost:8080")
	{regexp.MustCompile(`()(\(default [^)]*\))()`), 2, ui.RenderMuted},
}

// colorizedHelpFunc renders cobra's usage text through colorizeHelpOutput.
func colorizedHelpFunc() func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, _ []string) {
		ui.SetColor(!noColor && ui.ShouldUseColor(os.Stdout))

		out := cmd.OutOrStdout()
		var buf bytes.Buffer
		cmd.SetOut(&buf)
		_ = cmd.Usage()
		cmd.SetOut(out)

		fmt.Fprint(out, colorizeHelpOutput(buf.String()))
	}
}

// colorizeHelpOutput applies helpRules. With color disabled the styles are
// identity functions and s is returned unchanged.
func colorizeHelpOutput(s string) string {
	for _, r := range helpRules {
		s = r.re.ReplaceAllStringFunc(s, func(match string) string {
			parts := r.re.FindStringSubmatch(match)
			var b strings.Builder
			for i := 1; i < len(parts); i++ {
				if i == r.group {
					b.WriteString(r.style(parts[i]))
				} else {
					b.WriteString(parts[i])
				}
			}
			return b.String()
		})
	}
	return s
}
