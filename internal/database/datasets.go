package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/7flash/argilla/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// DatasetRepository handles dataset database operations
type DatasetRepository struct {
	db *DB
}

// NewDatasetRepository creates a new dataset repository
func NewDatasetRepository(db *DB) *DatasetRepository {
	return &DatasetRepository{db: db}
}

const datasetColumns = `id, name, guidelines, status, workspace_id, inserted_at, updated_at`

func scanDataset(row rowScanner) (*models.Dataset, error) {
	dataset := &models.Dataset{}
	var guidelines sql.NullString
	err := row.Scan(
		&dataset.ID,
		&dataset.Name,
		&guidelines,
		&dataset.Status,
		&dataset.WorkspaceID,
		&dataset.InsertedAt,
		&dataset.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if guidelines.Valid {
		dataset.Guidelines = &guidelines.String
	}
	return dataset, nil
}

func (r *DatasetRepository) list(ctx context.Context, query string, args ...any) ([]*models.Dataset, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	datasets := make([]*models.Dataset, 0)
	for rows.Next() {
		dataset, err := scanDataset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dataset: %w", err)
		}
		datasets = append(datasets, dataset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate datasets: %w", err)
	}
	return datasets, nil
}

// List returns every dataset ordered by creation time
func (r *DatasetRepository) List(ctx context.Context) ([]*models.Dataset, error) {
	return r.list(ctx, `SELECT `+datasetColumns+` FROM datasets ORDER BY inserted_at ASC`)
}

// ListByWorkspaceIDs returns the datasets belonging to any of the given workspaces
func (r *DatasetRepository) ListByWorkspaceIDs(ctx context.Context, workspaceIDs []uuid.UUID) ([]*models.Dataset, error) {
	if len(workspaceIDs) == 0 {
		return []*models.Dataset{}, nil
	}
	ids := make([]string, len(workspaceIDs))
	for i, id := range workspaceIDs {
		ids[i] = id.String()
	}
	return r.list(ctx,
		`SELECT `+datasetColumns+` FROM datasets WHERE workspace_id = ANY($1::uuid[]) ORDER BY inserted_at ASC`,
		pq.Array(ids),
	)
}

// GetByID retrieves a dataset by ID
func (r *DatasetRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Dataset, error) {
	dataset, err := scanDataset(r.db.QueryRowContext(ctx,
		`SELECT `+datasetColumns+` FROM datasets WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("dataset not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dataset: %w", err)
	}
	return dataset, nil
}

// GetByNameAndWorkspaceID retrieves a dataset by its name within a workspace
func (r *DatasetRepository) GetByNameAndWorkspaceID(ctx context.Context, name string, workspaceID uuid.UUID) (*models.Dataset, error) {
	dataset, err := scanDataset(r.db.QueryRowContext(ctx,
		`SELECT `+datasetColumns+` FROM datasets WHERE name = $1 AND workspace_id = $2`, name, workspaceID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("dataset not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dataset by name: %w", err)
	}
	return dataset, nil
}

// Create inserts a new dataset
func (r *DatasetRepository) Create(ctx context.Context, dataset *models.Dataset) error {
	query := `
		INSERT INTO datasets (id, name, guidelines, status, workspace_id, inserted_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING inserted_at, updated_at
	`

	if dataset.ID == uuid.Nil {
		dataset.ID = uuid.New()
	}
	if dataset.Status == "" {
		dataset.Status = models.DatasetStatusDraft
	}
	err := r.db.QueryRowContext(ctx, query,
		dataset.ID,
		dataset.Name,
		dataset.Guidelines,
		dataset.Status,
		dataset.WorkspaceID,
		time.Now(),
	).Scan(&dataset.InsertedAt, &dataset.UpdatedAt)
	if err != nil {
		return wrapInsertErr("dataset", err)
	}
	return nil
}

// UpdateStatus sets the status of a dataset and refreshes its timestamps
func (r *DatasetRepository) UpdateStatus(ctx context.Context, dataset *models.Dataset, status models.DatasetStatus) error {
	query := `UPDATE datasets SET status = $2, updated_at = $3 WHERE id = $1 RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query, dataset.ID, status, time.Now()).Scan(&dataset.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("dataset not found: %w", err)
	}
	if err != nil {
		return fmt.Errorf("failed to update dataset status: %w", err)
	}
	dataset.Status = status
	return nil
}

// Delete removes a dataset. Fields, questions, records, responses and vector
// settings go with it through ON DELETE CASCADE.
func (r *DatasetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM datasets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete dataset: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("dataset not found: %w", sql.ErrNoRows)
	}
	return nil
}
