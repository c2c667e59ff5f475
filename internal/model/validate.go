package model

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// ValidateNode checks a Node for constraint violations. Invalid input is
// rejected here, at the mutation boundary, before the propagation engine runs.
// It returns a *ValidationError if any rules fail, or nil if the node is valid.
func ValidateNode(n *Node) error {
	var ve ValidationError

	// Title: required and at most 500 characters.
	title := strings.TrimSpace(n.Title)
	if title == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "title", Message: "is required"})
	} else if len([]rune(title)) > 500 {
		ve.Errors = append(ve.Errors, FieldError{Field: "title", Message: "must be 500 characters or fewer"})
	}

	// Kind: must be a valid enum value (closed set).
	if !n.Kind.IsValid() {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "kind",
			Message: fmt.Sprintf("invalid value %q", n.Kind),
		})
	}

	// Status: must be a valid enum value (closed set).
	if !n.Status.IsValid() {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "status",
			Message: fmt.Sprintf("invalid value %q", n.Status),
		})
	}

	// Priority: must be 1 (highest) through 5 (lowest).
	if n.Priority < PriorityHighest || n.Priority > PriorityLowest {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "priority",
			Message: fmt.Sprintf("must be between %d and %d, got %d", PriorityHighest, PriorityLowest, n.Priority),
		})
	}

	// Estimate: never negative.
	if n.EstimatedMinutes < 0 {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "estimated_minutes",
			Message: fmt.Sprintf("must not be negative, got %d", n.EstimatedMinutes),
		})
	}

	// A node cannot be its own parent.
	if n.ParentID != "" && n.ParentID == n.ID {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "parent_id",
			Message: "node cannot be its own parent",
		})
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}

// ValidateEdge checks an Edge for constraint violations.
func ValidateEdge(e *Edge) error {
	var ve ValidationError

	if e.SourceID == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "source_id", Message: "is required"})
	}
	if e.TargetID == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "target_id", Message: "is required"})
	}
	if e.SourceID != "" && e.SourceID == e.TargetID {
		ve.Errors = append(ve.Errors, FieldError{Field: "target_id", Message: "edge cannot link a node to itself"})
	}
	if !e.Kind.IsValid() {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "kind",
			Message: fmt.Sprintf("invalid value %q", e.Kind),
		})
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}

// MergeTags returns the sorted union of two tag sets. The result is a new
// slice; neither input is modified. Tags only ever grow under propagation, so
// union is the sole merge operation.
func MergeTags(a, b []string) []string {
	if len(b) == 0 {
		return a
	}
	seen := make(map[string]bool, len(a)+len(b))
	merged := make([]string, 0, len(a)+len(b))
	for _, set := range [][]string{a, b} {
		for _, t := range set {
			if t == "" || seen[t] {
				continue
			}
			seen[t] = true
			merged = append(merged, t)
		}
	}
	sort.Strings(merged)
	return merged
}
