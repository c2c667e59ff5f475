// Package ui provides ANSI styling helpers for CLI output.
package ui

import (
	"fmt"
	"time"

	"github.com/alderkin/trellis/internal/model"
)

// ANSI256 color codes.
const (
	colorAccent  = 74  // blue
	colorMuted   = 245 // medium gray
	colorUrgent  = 203 // red
	colorWarning = 214 // orange
	colorDone    = 114 // green
)

var noColor bool

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}

func render(code int, s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, s)
}

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string {
	return render(colorAccent, s)
}

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string {
	return render(colorMuted, s)
}

// RenderStatus returns the status styled by its lifecycle stage.
func RenderStatus(status model.Status) string {
	switch status {
	case model.StatusDone:
		return render(colorDone, string(status))
	case model.StatusInProgress:
		return render(colorWarning, string(status))
	case model.StatusCancelled:
		return render(colorMuted, string(status))
	default:
		return string(status)
	}
}

// RenderPriority returns "p1".."p5" with the top two levels highlighted.
func RenderPriority(priority int) string {
	label := fmt.Sprintf("p%d", priority)
	switch priority {
	case 1:
		return render(colorUrgent, label)
	case 2:
		return render(colorWarning, label)
	default:
		return render(colorMuted, label)
	}
}

// RenderDue formats a due date relative to now; overdue dates render red,
// dates within 48 hours orange.
func RenderDue(due *time.Time, now time.Time) string {
	if due == nil {
		return ""
	}
	label := due.Local().Format("2006-01-02 15:04")
	switch {
	case due.Before(now):
		return render(colorUrgent, label)
	case due.Sub(now) < 48*time.Hour:
		return render(colorWarning, label)
	default:
		return label
	}
}
