package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/alderkin/trellis/internal/model"
	"github.com/alderkin/trellis/internal/store"
)

// nodeColumns is the column list used for SELECT statements on the nodes table.
const nodeColumns = `id, title, content, kind, status, priority, due_at,
	estimated_minutes, tags, parent_id, position,
	computed_priority, computed_due, created_at, updated_at, md_filename`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func queryCreateNode(ctx context.Context, db executor, n *model.Node) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO nodes (
			id, title, content, kind, status, priority, due_at,
			estimated_minutes, tags, parent_id, position,
			computed_priority, computed_due, created_at, updated_at, md_filename
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10,
			COALESCE((SELECT MAX(position) + 1 FROM nodes WHERE parent_id IS NOT DISTINCT FROM $10), 0),
			$11, $12, $13, $14, $15
		)`,
		n.ID,
		n.Title,
		n.Content,
		string(n.Kind),
		string(n.Status),
		n.Priority,
		nullTimePtr(n.DueAt),
		n.EstimatedMinutes,
		pq.Array(n.Tags),
		nullString(n.ParentID),
		n.ComputedPriority,
		nullTimePtr(n.ComputedDue),
		n.CreatedAt,
		n.UpdatedAt,
		nullString(n.MDFilename),
	)
	return err
}

func queryGetNode(ctx context.Context, db executor, id string) (*model.Node, error) {
	row := db.QueryRowContext(ctx, `SELECT `+nodeColumns+` FROM nodes WHERE id = $1`, id)
	n, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return n, err
}

func queryFindNodeByTitle(ctx context.Context, db executor, title string) (*model.Node, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+nodeColumns+` FROM nodes WHERE LOWER(title) = LOWER($1) ORDER BY created_at LIMIT 1`, title)
	n, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return n, err
}

func queryListNodes(ctx context.Context, db executor, filter model.NodeFilter) ([]*model.Node, int, error) {
	var (
		whereClauses []string
		args         []any
		argIdx       int
	)

	nextArg := func() string {
		argIdx++
		return fmt.Sprintf("$%d", argIdx)
	}

	if len(filter.Kind) > 0 {
		placeholders := make([]string, len(filter.Kind))
		for i, k := range filter.Kind {
			placeholders[i] = nextArg()
			args = append(args, string(k))
		}
		whereClauses = append(whereClauses, "kind IN ("+strings.Join(placeholders, ", ")+")")
	}

	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, s := range filter.Status {
			placeholders[i] = nextArg()
			args = append(args, string(s))
		}
		whereClauses = append(whereClauses, "status IN ("+strings.Join(placeholders, ", ")+")")
	}

	if filter.Priority != nil {
		whereClauses = append(whereClauses, "priority = "+nextArg())
		args = append(args, *filter.Priority)
	}

	for _, tag := range filter.Tags {
		p := nextArg()
		whereClauses = append(whereClauses, p+" = ANY(tags)")
		args = append(args, tag)
	}

	if filter.HasDue != nil {
		if *filter.HasDue {
			whereClauses = append(whereClauses, "(due_at IS NOT NULL OR computed_due IS NOT NULL)")
		} else {
			whereClauses = append(whereClauses, "due_at IS NULL AND computed_due IS NULL")
		}
	}

	if filter.RootsOnly {
		whereClauses = append(whereClauses, "parent_id IS NULL")
	} else if filter.ParentID != "" {
		whereClauses = append(whereClauses, "parent_id = "+nextArg())
		args = append(args, filter.ParentID)
	}

	if filter.Search != "" {
		p := nextArg()
		whereClauses = append(whereClauses,
			fmt.Sprintf("(title ILIKE '%%' || %s || '%%' OR content ILIKE '%%' || %s || '%%')", p, p))
		args = append(args, filter.Search)
	}

	whereSQL := ""
	if len(whereClauses) > 0 {
		whereSQL = " WHERE " + strings.Join(whereClauses, " AND ")
	}

	// Single query with COUNT(*) OVER() to get total and rows atomically.
	dataQuery := "SELECT COUNT(*) OVER() AS total_count, " + nodeColumns + " FROM nodes" + whereSQL + " ORDER BY " + parseSortClause(filter.Sort)

	if filter.Limit > 0 {
		dataQuery += " LIMIT " + nextArg()
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		dataQuery += " OFFSET " + nextArg()
		args = append(args, filter.Offset)
	}

	rows, err := db.QueryContext(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list nodes: %w", err)
	}
	defer rows.Close()

	var nodes []*model.Node
	var total int
	for rows.Next() {
		n, t, err := scanNodeWithTotal(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan nodes: %w", err)
		}
		total = t
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("scan nodes: %w", err)
	}

	return nodes, total, nil
}

func queryGetChildren(ctx context.Context, db executor, parentID string) ([]*model.Node, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+nodeColumns+` FROM nodes WHERE parent_id = $1 ORDER BY position`, parentID)
	if err != nil {
		return nil, fmt.Errorf("get children: %w", err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

func queryUpdateNode(ctx context.Context, db executor, n *model.Node) error {
	res, err := db.ExecContext(ctx, `
		UPDATE nodes SET
			title = $2,
			content = $3,
			kind = $4,
			status = $5,
			priority = $6,
			due_at = $7,
			estimated_minutes = $8,
			tags = $9,
			computed_due = $10,
			md_filename = $11,
			updated_at = NOW()
		WHERE id = $1`,
		n.ID,
		n.Title,
		n.Content,
		string(n.Kind),
		string(n.Status),
		n.Priority,
		nullTimePtr(n.DueAt),
		n.EstimatedMinutes,
		pq.Array(n.Tags),
		nullTimePtr(n.ComputedDue),
		nullString(n.MDFilename),
	)
	if err != nil {
		return err
	}
	return requireRows(res)
}

// queryMoveNode reparents a node and renumbers siblings at both the old and
// new location so positions stay dense.
func queryMoveNode(ctx context.Context, db executor, id, parentID string, position int) error {
	var oldParent sql.NullString
	if err := db.QueryRowContext(ctx, `SELECT parent_id FROM nodes WHERE id = $1`, id).Scan(&oldParent); err != nil {
		return err
	}

	// Open a slot among the new siblings.
	if _, err := db.ExecContext(ctx, `
		UPDATE nodes SET position = position + 1
		WHERE parent_id IS NOT DISTINCT FROM $1 AND position >= $2 AND id <> $3`,
		nullString(parentID), position, id); err != nil {
		return fmt.Errorf("shift siblings: %w", err)
	}

	if _, err := db.ExecContext(ctx, `
		UPDATE nodes SET parent_id = $2, position = $3, updated_at = NOW() WHERE id = $1`,
		id, nullString(parentID), position); err != nil {
		return fmt.Errorf("move node: %w", err)
	}

	// Close the gap left among the old siblings.
	if oldParent.String != parentID {
		if _, err := db.ExecContext(ctx, `
			WITH ranked AS (
				SELECT id, ROW_NUMBER() OVER (ORDER BY position) - 1 AS new_pos
				FROM nodes WHERE parent_id IS NOT DISTINCT FROM $1
			)
			UPDATE nodes SET position = ranked.new_pos
			FROM ranked WHERE nodes.id = ranked.id`,
			oldParent); err != nil {
			return fmt.Errorf("renumber old siblings: %w", err)
		}
	}

	return nil
}

// queryDeleteNode removes a node and its whole subtree. Edges touching any
// deleted node go with it via ON DELETE CASCADE.
func queryDeleteNode(ctx context.Context, db executor, id string) error {
	res, err := db.ExecContext(ctx, `
		WITH RECURSIVE subtree AS (
			SELECT id FROM nodes WHERE id = $1
			UNION ALL
			SELECT n.id FROM nodes n JOIN subtree s ON n.parent_id = s.id
		)
		DELETE FROM nodes WHERE id IN (SELECT id FROM subtree)`, id)
	if err != nil {
		return err
	}
	return requireRows(res)
}

// queryUpdateDerived batch-writes the engine-owned fields: computed priority,
// computed due date, and the (union-grown) tag set.
func queryUpdateDerived(ctx context.Context, db executor, nodes []*model.Node) error {
	for _, n := range nodes {
		_, err := db.ExecContext(ctx, `
			UPDATE nodes SET
				computed_priority = $2,
				computed_due = $3,
				tags = $4
			WHERE id = $1`,
			n.ID,
			n.ComputedPriority,
			nullTimePtr(n.ComputedDue),
			pq.Array(n.Tags),
		)
		if err != nil {
			return fmt.Errorf("update derived for %s: %w", n.ID, err)
		}
	}
	return nil
}

func queryCreateEdge(ctx context.Context, db executor, e *model.Edge) error {
	// A duplicate link upgrades its kind instead of erroring.
	_, err := db.ExecContext(ctx, `
		INSERT INTO edges (id, source_id, target_id, kind, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (source_id, target_id) DO UPDATE SET kind = EXCLUDED.kind`,
		e.ID,
		e.SourceID,
		e.TargetID,
		string(e.Kind),
		e.CreatedAt,
	)
	return err
}

func queryGetEdge(ctx context.Context, db executor, id string) (*model.Edge, error) {
	row := db.QueryRowContext(ctx,
		`SELECT id, source_id, target_id, kind, created_at FROM edges WHERE id = $1`, id)
	e, err := scanEdge(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return e, err
}

func queryGetEdges(ctx context.Context, db executor, kind model.EdgeKind, role model.EdgeRole, nodeID string) ([]*model.Edge, error) {
	col := "source_id"
	if role == model.RoleTarget {
		col = "target_id"
	}
	query := `SELECT id, source_id, target_id, kind, created_at FROM edges WHERE ` + col + ` = $1`
	args := []any{nodeID}
	if kind != "" {
		query += ` AND kind = $2`
		args = append(args, string(kind))
	}
	query += ` ORDER BY created_at`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get edges: %w", err)
	}
	defer rows.Close()
	return scanEdges(rows)
}

func queryListEdges(ctx context.Context, db executor) ([]*model.Edge, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, source_id, target_id, kind, created_at FROM edges ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list edges: %w", err)
	}
	defer rows.Close()
	return scanEdges(rows)
}

func queryDeleteEdge(ctx context.Context, db executor, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM edges WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRows(res)
}

func queryRecordEvent(ctx context.Context, db executor, e *model.Event) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO events (topic, node_id, actor, payload, created_at)
		VALUES ($1, $2, $3, $4, NOW())`,
		e.Topic,
		e.NodeID,
		nullString(e.Actor),
		jsonbBytes(e.Payload),
	)
	return err
}

func queryGetEvents(ctx context.Context, db executor, nodeID string) ([]*model.Event, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, topic, node_id, actor, payload, created_at
		FROM events WHERE node_id = $1 ORDER BY created_at`, nodeID)
	if err != nil {
		return nil, fmt.Errorf("get events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// requireRows converts a zero-row result into store.ErrNotFound.
func requireRows(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// parseSortClause converts a filter sort value into a safe ORDER BY clause.
// Unknown columns fall back to the default ordering.
func parseSortClause(sort string) string {
	desc := strings.HasPrefix(sort, "-")
	col := strings.TrimPrefix(sort, "-")

	switch col {
	case "position", "priority", "computed_priority", "due_at", "created_at", "updated_at", "title", "status":
	default:
		return "position ASC, created_at ASC"
	}

	if desc {
		return col + " DESC"
	}
	return col + " ASC"
}
