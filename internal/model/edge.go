package model

import "time"

// EdgeKind categorizes a cross-link between two nodes.
type EdgeKind string

const (
	// EdgeDependency points from the blocked (dependent) node to the
	// blocking (preceding) node. All scheduling propagation follows this
	// direction; it must not be inverted.
	EdgeDependency EdgeKind = "dependency"
	// EdgeReference is a plain cross-link with no scheduling semantics.
	EdgeReference EdgeKind = "reference"
	// EdgeWiki is a reference created from [[wiki links]] in node content.
	EdgeWiki EdgeKind = "wiki"
)

// String returns the string representation of the edge kind.
func (k EdgeKind) String() string {
	return string(k)
}

// IsValid checks whether the edge kind is a known value.
func (k EdgeKind) IsValid() bool {
	switch k {
	case EdgeDependency, EdgeReference, EdgeWiki:
		return true
	}
	return false
}

// EdgeRole selects which endpoint of an edge a query matches.
type EdgeRole string

const (
	RoleSource EdgeRole = "source"
	RoleTarget EdgeRole = "target"
)

// Edge is a directed cross-link between two nodes, independent of the
// parent/child hierarchy. Source and target are weak references by id; the
// store owns both rows.
type Edge struct {
	ID        string    `json:"id"`
	SourceID  string    `json:"source_id"`
	TargetID  string    `json:"target_id"`
	Kind      EdgeKind  `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}
