package model

// TreeNode is a node with its children resolved, for the tree endpoint.
type TreeNode struct {
	*Node
	Children []*TreeNode `json:"children"`
}

// GraphEdge represents a cross-link as a graph edge for visualization.
type GraphEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Kind   string `json:"kind"`
}

// GraphStats holds aggregate node counts by status.
type GraphStats struct {
	TotalTodo       int `json:"total_todo"`
	TotalInProgress int `json:"total_in_progress"`
	TotalDone       int `json:"total_done"`
	TotalCancelled  int `json:"total_cancelled"`
	TotalNotes      int `json:"total_notes"`
}

// GraphResponse is the response for the graph visualization endpoint.
type GraphResponse struct {
	Nodes []*Node      `json:"nodes"`
	Edges []*GraphEdge `json:"edges"`
	Stats *GraphStats  `json:"stats"`
}
