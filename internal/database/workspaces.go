package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/7flash/argilla/internal/models"
	"github.com/google/uuid"
)

// WorkspaceRepository handles workspace and membership operations
type WorkspaceRepository struct {
	db *DB
}

// NewWorkspaceRepository creates a new workspace repository
func NewWorkspaceRepository(db *DB) *WorkspaceRepository {
	return &WorkspaceRepository{db: db}
}

// Create inserts a new workspace
func (r *WorkspaceRepository) Create(ctx context.Context, workspace *models.Workspace) error {
	query := `
		INSERT INTO workspaces (id, name, inserted_at, updated_at)
		VALUES ($1, $2, $3, $3)
		RETURNING inserted_at, updated_at
	`

	if workspace.ID == uuid.Nil {
		workspace.ID = uuid.New()
	}
	err := r.db.QueryRowContext(ctx, query, workspace.ID, workspace.Name, time.Now()).
		Scan(&workspace.InsertedAt, &workspace.UpdatedAt)
	if err != nil {
		return wrapInsertErr("workspace", err)
	}
	return nil
}

// GetByName retrieves a workspace by name
func (r *WorkspaceRepository) GetByName(ctx context.Context, name string) (*models.Workspace, error) {
	workspace := &models.Workspace{}
	query := `SELECT id, name, inserted_at, updated_at FROM workspaces WHERE name = $1`

	err := r.db.QueryRowContext(ctx, query, name).
		Scan(&workspace.ID, &workspace.Name, &workspace.InsertedAt, &workspace.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("workspace not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get workspace: %w", err)
	}
	return workspace, nil
}

// List returns every workspace ordered by name
func (r *WorkspaceRepository) List(ctx context.Context) ([]*models.Workspace, error) {
	query := `SELECT id, name, inserted_at, updated_at FROM workspaces ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var workspaces []*models.Workspace
	for rows.Next() {
		w := &models.Workspace{}
		if err := rows.Scan(&w.ID, &w.Name, &w.InsertedAt, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan workspace: %w", err)
		}
		workspaces = append(workspaces, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate workspaces: %w", err)
	}
	return workspaces, nil
}

// AddUser makes userID a member of workspaceID. Adding an existing member is a no-op.
func (r *WorkspaceRepository) AddUser(ctx context.Context, workspaceID, userID uuid.UUID) error {
	query := `
		INSERT INTO workspaces_users (id, workspace_id, user_id, inserted_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (workspace_id, user_id) DO NOTHING
	`

	if _, err := r.db.ExecContext(ctx, query, uuid.New(), workspaceID, userID, time.Now()); err != nil {
		return fmt.Errorf("failed to add user to workspace: %w", err)
	}
	return nil
}
