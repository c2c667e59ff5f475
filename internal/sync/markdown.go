package sync

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/alderkin/trellis/internal/idgen"
	"github.com/alderkin/trellis/internal/model"
	"github.com/alderkin/trellis/internal/store"
)

// frontmatterDelim separates TOML frontmatter from the markdown body.
const frontmatterDelim = "+++"

// frontmatter is the TOML header carried by every mirrored markdown file.
type frontmatter struct {
	ID               string     `toml:"id"`
	Title            string     `toml:"title"`
	Kind             string     `toml:"kind"`
	Status           string     `toml:"status"`
	Priority         int        `toml:"priority"`
	DueAt            *time.Time `toml:"due_at,omitempty"`
	EstimatedMinutes int        `toml:"estimated_minutes,omitempty"`
	Tags             []string   `toml:"tags,omitempty"`
	ParentID         string     `toml:"parent_id,omitempty"`
	Position         int        `toml:"position"`
}

// MarshalNode renders a node as a markdown document with TOML frontmatter.
func MarshalNode(n *model.Node) ([]byte, error) {
	fm := frontmatter{
		ID:               n.ID,
		Title:            n.Title,
		Kind:             string(n.Kind),
		Status:           string(n.Status),
		Priority:         n.Priority,
		DueAt:            n.DueAt,
		EstimatedMinutes: n.EstimatedMinutes,
		Tags:             n.Tags,
		ParentID:         n.ParentID,
		Position:         n.Position,
	}

	var buf bytes.Buffer
	buf.WriteString(frontmatterDelim + "\n")
	if err := toml.NewEncoder(&buf).Encode(fm); err != nil {
		return nil, fmt.Errorf("encode frontmatter for %s: %w", n.ID, err)
	}
	buf.WriteString(frontmatterDelim + "\n\n")
	buf.WriteString(n.Content)
	if n.Content != "" && !strings.HasSuffix(n.Content, "\n") {
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// UnmarshalNode parses a markdown document with TOML frontmatter back into
// a node. Documents without a frontmatter block become untitled notes with
// the whole document as content.
func UnmarshalNode(data []byte) (*model.Node, error) {
	text := string(data)
	n := &model.Node{
		Kind:     model.KindNote,
		Status:   model.StatusTodo,
		Priority: model.PriorityLowest,
	}

	rest, ok := strings.CutPrefix(text, frontmatterDelim+"\n")
	if !ok {
		n.Content = strings.TrimSpace(text)
		return n, nil
	}
	head, body, ok := strings.Cut(rest, "\n"+frontmatterDelim)
	if !ok {
		return nil, fmt.Errorf("unterminated frontmatter")
	}

	var fm frontmatter
	if err := toml.Unmarshal([]byte(head), &fm); err != nil {
		return nil, fmt.Errorf("decode frontmatter: %w", err)
	}

	n.ID = fm.ID
	n.Title = fm.Title
	if fm.Kind != "" {
		n.Kind = model.Kind(fm.Kind)
	}
	if fm.Status != "" {
		n.Status = model.Status(fm.Status)
	}
	if fm.Priority != 0 {
		n.Priority = fm.Priority
	}
	n.DueAt = fm.DueAt
	n.EstimatedMinutes = fm.EstimatedMinutes
	n.Tags = fm.Tags
	n.ParentID = fm.ParentID
	n.Position = fm.Position
	n.Content = strings.TrimSpace(body)
	return n, nil
}

// ExportMarkdown mirrors every node in the store into dir, one markdown
// file per node. Filenames stick once assigned (stored on the node), so
// renaming a node does not orphan its file.
func ExportMarkdown(ctx context.Context, s store.Store, dir string) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("mkdir %s: %w", dir, err)
	}

	nodes, _, err := s.ListNodes(ctx, model.NodeFilter{Sort: "created_at"})
	if err != nil {
		return 0, fmt.Errorf("list nodes: %w", err)
	}

	written := 0
	for _, n := range nodes {
		if n.MDFilename == "" {
			n.MDFilename = Filename(n)
			if err := s.UpdateNode(ctx, n); err != nil {
				return written, fmt.Errorf("record filename for %s: %w", n.ID, err)
			}
		}
		data, err := MarshalNode(n)
		if err != nil {
			return written, err
		}
		path := filepath.Join(dir, n.MDFilename)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", path, err)
		}
		written++
	}
	return written, nil
}

// ImportMarkdown reads every .md file in dir and upserts the parsed nodes
// into the store. Files without an id get a fresh one. Returns the number
// of nodes imported.
func ImportMarkdown(ctx context.Context, s store.Store, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read dir %s: %w", dir, err)
	}

	imported := 0
	err = s.RunInTransaction(ctx, func(tx store.Store) error {
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			n, err := UnmarshalNode(data)
			if err != nil {
				return fmt.Errorf("parse %s: %w", path, err)
			}
			if n.ID == "" {
				id, err := idgen.Generate()
				if err != nil {
					return err
				}
				n.ID = id
			}
			if n.Title == "" {
				n.Title = strings.TrimSuffix(entry.Name(), ".md")
			}
			n.MDFilename = entry.Name()
			now := time.Now().UTC()
			if n.CreatedAt.IsZero() {
				n.CreatedAt = now
			}
			n.UpdatedAt = now
			if err := upsertNode(ctx, tx, n); err != nil {
				return err
			}
			imported++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return imported, nil
}

// Filename derives a stable markdown filename from a node's title and ID.
func Filename(n *model.Node) string {
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r == ' ', r == '-', r == '_':
			return '-'
		}
		return -1
	}, n.Title)
	slug = strings.Trim(slug, "-")
	if len(slug) > 60 {
		slug = slug[:60]
	}
	if slug == "" {
		return n.ID + ".md"
	}
	return slug + "-" + strings.TrimPrefix(n.ID, idgen.DefaultPrefix) + ".md"
}
