package postgres

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/lib/pq"

	"github.com/alderkin/trellis/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanNode scans a single row into a model.Node.
// The row must contain columns in the order defined by nodeColumns.
func scanNode(row scannable) (*model.Node, error) {
	var n model.Node
	var (
		dueAt       sql.NullTime
		tags        pq.StringArray
		parentID    sql.NullString
		computedDue sql.NullTime
		mdFilename  sql.NullString
	)

	err := row.Scan(
		&n.ID,
		&n.Title,
		&n.Content,
		&n.Kind,
		&n.Status,
		&n.Priority,
		&dueAt,
		&n.EstimatedMinutes,
		&tags,
		&parentID,
		&n.Position,
		&n.ComputedPriority,
		&computedDue,
		&n.CreatedAt,
		&n.UpdatedAt,
		&mdFilename,
	)
	if err != nil {
		return nil, err
	}

	applyNodeNullables(&n, dueAt, tags, parentID, computedDue, mdFilename)
	return &n, nil
}

// scanNodeWithTotal scans a row that has a leading total_count column
// followed by the standard node columns. Used by queryListNodes with
// COUNT(*) OVER().
func scanNodeWithTotal(row scannable) (*model.Node, int, error) {
	var total int
	var n model.Node
	var (
		dueAt       sql.NullTime
		tags        pq.StringArray
		parentID    sql.NullString
		computedDue sql.NullTime
		mdFilename  sql.NullString
	)

	err := row.Scan(
		&total,
		&n.ID,
		&n.Title,
		&n.Content,
		&n.Kind,
		&n.Status,
		&n.Priority,
		&dueAt,
		&n.EstimatedMinutes,
		&tags,
		&parentID,
		&n.Position,
		&n.ComputedPriority,
		&computedDue,
		&n.CreatedAt,
		&n.UpdatedAt,
		&mdFilename,
	)
	if err != nil {
		return nil, 0, err
	}

	applyNodeNullables(&n, dueAt, tags, parentID, computedDue, mdFilename)
	return &n, total, nil
}

func applyNodeNullables(n *model.Node, dueAt sql.NullTime, tags pq.StringArray, parentID sql.NullString, computedDue sql.NullTime, mdFilename sql.NullString) {
	if dueAt.Valid {
		t := dueAt.Time
		n.DueAt = &t
	}
	n.Tags = []string(tags)
	n.ParentID = parentID.String
	if computedDue.Valid {
		t := computedDue.Time
		n.ComputedDue = &t
	}
	n.MDFilename = mdFilename.String
}

// scanNodes scans multiple rows into a slice of model.Node pointers.
func scanNodes(rows *sql.Rows) ([]*model.Node, error) {
	var nodes []*model.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return nodes, nil
}

// scanEdge scans a single row into a model.Edge.
func scanEdge(row scannable) (*model.Edge, error) {
	var e model.Edge
	err := row.Scan(&e.ID, &e.SourceID, &e.TargetID, &e.Kind, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// scanEdges scans multiple rows into a slice of model.Edge pointers.
func scanEdges(rows *sql.Rows) ([]*model.Edge, error) {
	var edges []*model.Edge
	for rows.Next() {
		e, err := scanEdge(rows)
		if err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return edges, nil
}

// scanEvent scans a single row into a model.Event.
func scanEvent(row scannable) (*model.Event, error) {
	var e model.Event
	var (
		actor   sql.NullString
		payload []byte
	)
	err := row.Scan(&e.ID, &e.Topic, &e.NodeID, &actor, &payload, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	e.Actor = actor.String
	if len(payload) > 0 {
		e.Payload = json.RawMessage(payload)
	}
	return &e, nil
}

// scanEvents scans multiple rows into a slice of model.Event pointers.
func scanEvents(rows *sql.Rows) ([]*model.Event, error) {
	var events []*model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// nullTimePtr converts a *time.Time to a sql.NullTime.
func nullTimePtr(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// nullString converts a string to sql.NullString; empty string is null.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// jsonbBytes converts json.RawMessage to a []byte suitable for JSONB columns.
func jsonbBytes(m json.RawMessage) []byte {
	if len(m) == 0 {
		return nil
	}
	return []byte(m)
}
