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

// VectorSettingsRepository handles vector settings operations
type VectorSettingsRepository struct {
	db *DB
}

// NewVectorSettingsRepository creates a new vector settings repository
func NewVectorSettingsRepository(db *DB) *VectorSettingsRepository {
	return &VectorSettingsRepository{db: db}
}

const vectorSettingsColumns = `id, name, title, dimensions, dataset_id, inserted_at, updated_at`

func scanVectorSettings(row rowScanner) (*models.VectorSettings, error) {
	vs := &models.VectorSettings{}
	err := row.Scan(&vs.ID, &vs.Name, &vs.Title, &vs.Dimensions, &vs.DatasetID, &vs.InsertedAt, &vs.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return vs, nil
}

// ListByDatasetID returns the vector settings of a dataset in creation order
func (r *VectorSettingsRepository) ListByDatasetID(ctx context.Context, datasetID uuid.UUID) ([]*models.VectorSettings, error) {
	query := `SELECT ` + vectorSettingsColumns + ` FROM vectors_settings WHERE dataset_id = $1 ORDER BY inserted_at ASC`

	rows, err := r.db.QueryContext(ctx, query, datasetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list vector settings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := make([]*models.VectorSettings, 0)
	for rows.Next() {
		vs, err := scanVectorSettings(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vector settings: %w", err)
		}
		items = append(items, vs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate vector settings: %w", err)
	}
	return items, nil
}

// GetByID retrieves vector settings by ID
func (r *VectorSettingsRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.VectorSettings, error) {
	vs, err := scanVectorSettings(r.db.QueryRowContext(ctx,
		`SELECT `+vectorSettingsColumns+` FROM vectors_settings WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("vector settings not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vector settings: %w", err)
	}
	return vs, nil
}

// GetByNameAndDatasetID retrieves vector settings by name within a dataset
func (r *VectorSettingsRepository) GetByNameAndDatasetID(ctx context.Context, name string, datasetID uuid.UUID) (*models.VectorSettings, error) {
	vs, err := scanVectorSettings(r.db.QueryRowContext(ctx,
		`SELECT `+vectorSettingsColumns+` FROM vectors_settings WHERE name = $1 AND dataset_id = $2`, name, datasetID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("vector settings not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vector settings by name: %w", err)
	}
	return vs, nil
}

// Create inserts new vector settings
func (r *VectorSettingsRepository) Create(ctx context.Context, vs *models.VectorSettings) error {
	query := `
		INSERT INTO vectors_settings (id, name, title, dimensions, dataset_id, inserted_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING inserted_at, updated_at
	`

	if vs.ID == uuid.Nil {
		vs.ID = uuid.New()
	}
	err := r.db.QueryRowContext(ctx, query, vs.ID, vs.Name, vs.Title, vs.Dimensions, vs.DatasetID, time.Now()).
		Scan(&vs.InsertedAt, &vs.UpdatedAt)
	if err != nil {
		return wrapInsertErr("vector settings", err)
	}
	return nil
}

// UpdateTitle renames vector settings
func (r *VectorSettingsRepository) UpdateTitle(ctx context.Context, vs *models.VectorSettings, title string) error {
	query := `UPDATE vectors_settings SET title = $2, updated_at = $3 WHERE id = $1 RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query, vs.ID, title, time.Now()).Scan(&vs.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("vector settings not found: %w", err)
	}
	if err != nil {
		return fmt.Errorf("failed to update vector settings: %w", err)
	}
	vs.Title = title
	return nil
}

// Delete removes vector settings
func (r *VectorSettingsRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM vectors_settings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete vector settings: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("vector settings not found: %w", sql.ErrNoRows)
	}
	return nil
}
