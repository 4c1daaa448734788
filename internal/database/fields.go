package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/7flash/argilla/internal/models"
	"github.com/google/uuid"
)

// FieldRepository handles dataset field operations
type FieldRepository struct {
	db *DB
}

// NewFieldRepository creates a new field repository
func NewFieldRepository(db *DB) *FieldRepository {
	return &FieldRepository{db: db}
}

const fieldColumns = `id, name, title, required, settings, dataset_id, inserted_at, updated_at`

func scanField(row rowScanner) (*models.Field, error) {
	field := &models.Field{}
	var settingsJSON []byte
	err := row.Scan(
		&field.ID,
		&field.Name,
		&field.Title,
		&field.Required,
		&settingsJSON,
		&field.DatasetID,
		&field.InsertedAt,
		&field.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(settingsJSON, &field.Settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal field settings: %w", err)
	}
	return field, nil
}

// ListByDatasetID returns the fields of a dataset in creation order
func (r *FieldRepository) ListByDatasetID(ctx context.Context, datasetID uuid.UUID) ([]*models.Field, error) {
	query := `SELECT ` + fieldColumns + ` FROM fields WHERE dataset_id = $1 ORDER BY inserted_at ASC`

	rows, err := r.db.QueryContext(ctx, query, datasetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list fields: %w", err)
	}
	defer func() { _ = rows.Close() }()

	fields := make([]*models.Field, 0)
	for rows.Next() {
		field, err := scanField(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan field: %w", err)
		}
		fields = append(fields, field)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate fields: %w", err)
	}
	return fields, nil
}

// GetByNameAndDatasetID retrieves a field by its name within a dataset
func (r *FieldRepository) GetByNameAndDatasetID(ctx context.Context, name string, datasetID uuid.UUID) (*models.Field, error) {
	query := `SELECT ` + fieldColumns + ` FROM fields WHERE name = $1 AND dataset_id = $2`

	field, err := scanField(r.db.QueryRowContext(ctx, query, name, datasetID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("field not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get field: %w", err)
	}
	return field, nil
}

// Create inserts a new field
func (r *FieldRepository) Create(ctx context.Context, field *models.Field) error {
	query := `
		INSERT INTO fields (id, name, title, required, settings, dataset_id, inserted_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING inserted_at, updated_at
	`

	settingsJSON, err := json.Marshal(field.Settings)
	if err != nil {
		return fmt.Errorf("failed to marshal field settings: %w", err)
	}
	if field.ID == uuid.Nil {
		field.ID = uuid.New()
	}
	err = r.db.QueryRowContext(ctx, query,
		field.ID,
		field.Name,
		field.Title,
		field.Required,
		settingsJSON,
		field.DatasetID,
		time.Now(),
	).Scan(&field.InsertedAt, &field.UpdatedAt)
	if err != nil {
		return wrapInsertErr("field", err)
	}
	return nil
}
