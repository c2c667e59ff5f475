package ui

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// ShouldUseColor reports whether stdout should receive ANSI colors. The
// conventions checked, in order: NO_COLOR (https://no-color.org, any non-empty
// value disables), CLICOLOR_FORCE=1 (forces color without a TTY), CLICOLOR=0
// (explicit disable), then TTY detection.
func ShouldUseColor() bool {
	switch {
	case os.Getenv("NO_COLOR") != "":
		return false
	case strings.TrimSpace(os.Getenv("CLICOLOR_FORCE")) == "1":
		return true
	case strings.TrimSpace(os.Getenv("CLICOLOR")) == "0":
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}
