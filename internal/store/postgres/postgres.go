// Package postgres implements the store.Store interface backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/alderkin/trellis/internal/model"
	"github.com/alderkin/trellis/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements store.Store backed by a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

// Compile-time check that PostgresStore implements store.Store.
var _ store.Store = (*PostgresStore)(nil)

// New opens a connection to the PostgreSQL database at the given URL,
// configures the connection pool, and runs any pending migrations.
func New(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) CreateNode(ctx context.Context, node *model.Node) error {
	return queryCreateNode(ctx, s.db, node)
}

func (s *PostgresStore) GetNode(ctx context.Context, id string) (*model.Node, error) {
	return queryGetNode(ctx, s.db, id)
}

func (s *PostgresStore) FindNodeByTitle(ctx context.Context, title string) (*model.Node, error) {
	return queryFindNodeByTitle(ctx, s.db, title)
}

func (s *PostgresStore) ListNodes(ctx context.Context, filter model.NodeFilter) ([]*model.Node, int, error) {
	return queryListNodes(ctx, s.db, filter)
}

func (s *PostgresStore) GetChildren(ctx context.Context, parentID string) ([]*model.Node, error) {
	return queryGetChildren(ctx, s.db, parentID)
}

func (s *PostgresStore) UpdateNode(ctx context.Context, node *model.Node) error {
	return queryUpdateNode(ctx, s.db, node)
}

func (s *PostgresStore) MoveNode(ctx context.Context, id, parentID string, position int) error {
	return queryMoveNode(ctx, s.db, id, parentID, position)
}

func (s *PostgresStore) DeleteNode(ctx context.Context, id string) error {
	return queryDeleteNode(ctx, s.db, id)
}

func (s *PostgresStore) UpdateDerived(ctx context.Context, nodes []*model.Node) error {
	return queryUpdateDerived(ctx, s.db, nodes)
}

func (s *PostgresStore) CreateEdge(ctx context.Context, edge *model.Edge) error {
	return queryCreateEdge(ctx, s.db, edge)
}

func (s *PostgresStore) GetEdge(ctx context.Context, id string) (*model.Edge, error) {
	return queryGetEdge(ctx, s.db, id)
}

func (s *PostgresStore) GetEdges(ctx context.Context, kind model.EdgeKind, role model.EdgeRole, nodeID string) ([]*model.Edge, error) {
	return queryGetEdges(ctx, s.db, kind, role, nodeID)
}

func (s *PostgresStore) ListEdges(ctx context.Context) ([]*model.Edge, error) {
	return queryListEdges(ctx, s.db)
}

func (s *PostgresStore) DeleteEdge(ctx context.Context, id string) error {
	return queryDeleteEdge(ctx, s.db, id)
}

func (s *PostgresStore) RecordEvent(ctx context.Context, event *model.Event) error {
	return queryRecordEvent(ctx, s.db, event)
}

func (s *PostgresStore) GetEvents(ctx context.Context, nodeID string) ([]*model.Event, error) {
	return queryGetEvents(ctx, s.db, nodeID)
}

// RunInTransaction begins a database transaction, creates a txStore that
// delegates to it, calls fn, and commits on success or rolls back on error.
func (s *PostgresStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txS := &txStore{tx: tx}
	if err := fn(txS); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// txStore implements store.Store using a *sql.Tx.
type txStore struct {
	tx *sql.Tx
}

// Compile-time check that txStore implements store.Store.
var _ store.Store = (*txStore)(nil)

func (s *txStore) CreateNode(ctx context.Context, node *model.Node) error {
	return queryCreateNode(ctx, s.tx, node)
}

func (s *txStore) GetNode(ctx context.Context, id string) (*model.Node, error) {
	return queryGetNode(ctx, s.tx, id)
}

func (s *txStore) FindNodeByTitle(ctx context.Context, title string) (*model.Node, error) {
	return queryFindNodeByTitle(ctx, s.tx, title)
}

func (s *txStore) ListNodes(ctx context.Context, filter model.NodeFilter) ([]*model.Node, int, error) {
	return queryListNodes(ctx, s.tx, filter)
}

func (s *txStore) GetChildren(ctx context.Context, parentID string) ([]*model.Node, error) {
	return queryGetChildren(ctx, s.tx, parentID)
}

func (s *txStore) UpdateNode(ctx context.Context, node *model.Node) error {
	return queryUpdateNode(ctx, s.tx, node)
}

func (s *txStore) MoveNode(ctx context.Context, id, parentID string, position int) error {
	return queryMoveNode(ctx, s.tx, id, parentID, position)
}

func (s *txStore) DeleteNode(ctx context.Context, id string) error {
	return queryDeleteNode(ctx, s.tx, id)
}

func (s *txStore) UpdateDerived(ctx context.Context, nodes []*model.Node) error {
	return queryUpdateDerived(ctx, s.tx, nodes)
}

func (s *txStore) CreateEdge(ctx context.Context, edge *model.Edge) error {
	return queryCreateEdge(ctx, s.tx, edge)
}

func (s *txStore) GetEdge(ctx context.Context, id string) (*model.Edge, error) {
	return queryGetEdge(ctx, s.tx, id)
}

func (s *txStore) GetEdges(ctx context.Context, kind model.EdgeKind, role model.EdgeRole, nodeID string) ([]*model.Edge, error) {
	return queryGetEdges(ctx, s.tx, kind, role, nodeID)
}

func (s *txStore) ListEdges(ctx context.Context) ([]*model.Edge, error) {
	return queryListEdges(ctx, s.tx)
}

func (s *txStore) DeleteEdge(ctx context.Context, id string) error {
	return queryDeleteEdge(ctx, s.tx, id)
}

func (s *txStore) RecordEvent(ctx context.Context, event *model.Event) error {
	return queryRecordEvent(ctx, s.tx, event)
}

func (s *txStore) GetEvents(ctx context.Context, nodeID string) ([]*model.Event, error) {
	return queryGetEvents(ctx, s.tx, nodeID)
}

// RunInTransaction on a txStore reuses the existing transaction (no nesting).
func (s *txStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(s)
}

// Close is a no-op for a transaction store; the parent store owns the connection.
func (s *txStore) Close() error {
	return nil
}
