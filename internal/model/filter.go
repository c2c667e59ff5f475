package model

// NodeFilter holds criteria for querying nodes.
type NodeFilter struct {
	Kind     []Kind   `json:"kind,omitempty"`
	Status   []Status `json:"status,omitempty"`
	Priority *int     `json:"priority,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	HasDue   *bool    `json:"has_due,omitempty"`

	// Parent scoping: RootsOnly selects nodes without a parent; ParentID
	// selects direct children of the given node. At most one applies.
	RootsOnly bool   `json:"roots_only,omitempty"`
	ParentID  string `json:"parent_id,omitempty"`

	Search string `json:"search,omitempty"` // substring match on title/content
	Sort   string `json:"sort,omitempty"`   // e.g. "-computed_priority", "position"; prefix "-" = descending
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}
