package model

import "time"

// Kind distinguishes the two node flavors. Tasks carry status and scheduling
// semantics; notes are free-form and ignore status.
type Kind string

const (
	KindTask Kind = "task"
	KindNote Kind = "note"
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	return string(k)
}

// IsValid checks whether the kind is a known value.
func (k Kind) IsValid() bool {
	switch k {
	case KindTask, KindNote:
		return true
	}
	return false
}

// Status represents the current state of a task node.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	StatusCancelled  Status = "cancelled"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// IsValid checks whether the status is a known value.
func (s Status) IsValid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether the status ends a task's life. Terminal nodes
// always carry a computed priority of zero and are skipped by the boost walk.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusCancelled
}

// Priority bounds. 1 is the most important, 5 the least.
const (
	PriorityHighest = 1
	PriorityLowest  = 5
)

// Node is a single task or note in the outline graph.
//
// DueAt and Tags are user intent; ComputedDue, ComputedPriority and any tags
// merged in by propagation are derived. ComputedDue, when set, is the resolved
// due date and takes precedence over DueAt (see EffectiveDue).
type Node struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Content          string     `json:"content,omitempty"`
	Kind             Kind       `json:"kind"`
	Status           Status     `json:"status"`
	Priority         int        `json:"priority"`
	DueAt            *time.Time `json:"due_at,omitempty"`
	EstimatedMinutes int        `json:"estimated_minutes,omitempty"`
	Tags             []string   `json:"tags,omitempty"`
	ParentID         string     `json:"parent_id,omitempty"`
	Position         int        `json:"position"`

	// Derived fields, written only by the propagation engine.
	ComputedPriority float64    `json:"computed_priority"`
	ComputedDue      *time.Time `json:"computed_due,omitempty"`

	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	MDFilename string    `json:"md_filename,omitempty"`
}

// EffectiveDue returns the resolved due date: the engine's computed value when
// present, otherwise the user-set one. Nil when neither is set.
func (n *Node) EffectiveDue() *time.Time {
	if n.ComputedDue != nil {
		return n.ComputedDue
	}
	return n.DueAt
}

// HasTag reports whether the node carries the given tag.
func (n *Node) HasTag(tag string) bool {
	for _, t := range n.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
