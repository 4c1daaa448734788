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

// RecordRepository handles record database operations
type RecordRepository struct {
	db *DB
}

// NewRecordRepository creates a new record repository
func NewRecordRepository(db *DB) *RecordRepository {
	return &RecordRepository{db: db}
}

const recordColumns = `id, fields, external_id, dataset_id, inserted_at, updated_at`

func scanRecord(row rowScanner) (*models.Record, error) {
	record := &models.Record{}
	var fieldsJSON []byte
	var externalID sql.NullString
	err := row.Scan(
		&record.ID,
		&fieldsJSON,
		&externalID,
		&record.DatasetID,
		&record.InsertedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if externalID.Valid {
		record.ExternalID = &externalID.String
	}
	if err := json.Unmarshal(fieldsJSON, &record.Fields); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record fields: %w", err)
	}
	return record, nil
}

// CreateMany inserts records and the responses attached to them in one transaction
func (r *RecordRepository) CreateMany(ctx context.Context, records []*models.Record) error {
	recordQuery := `
		INSERT INTO records (id, fields, external_id, dataset_id, inserted_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
	`

	now := time.Now()
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		recordStmt, err := tx.PrepareContext(ctx, recordQuery)
		if err != nil {
			return fmt.Errorf("failed to prepare record insert: %w", err)
		}
		defer func() { _ = recordStmt.Close() }()

		responseStmt, err := tx.PrepareContext(ctx, responseInsertQuery)
		if err != nil {
			return fmt.Errorf("failed to prepare response insert: %w", err)
		}
		defer func() { _ = responseStmt.Close() }()

		for _, record := range records {
			fieldsJSON, err := json.Marshal(record.Fields)
			if err != nil {
				return fmt.Errorf("failed to marshal record fields: %w", err)
			}
			if record.ID == uuid.Nil {
				record.ID = uuid.New()
			}
			if _, err := recordStmt.ExecContext(ctx, record.ID, fieldsJSON, record.ExternalID, record.DatasetID, now); err != nil {
				return wrapInsertErr("record", err)
			}
			record.InsertedAt, record.UpdatedAt = now, now

			for _, response := range record.Responses {
				response.RecordID = record.ID
				if err := insertResponse(ctx, responseStmt, response, now); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// ListByDatasetID returns a page of records of a dataset in creation order
func (r *RecordRepository) ListByDatasetID(ctx context.Context, datasetID uuid.UUID, offset, limit int) ([]*models.Record, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM records
		WHERE dataset_id = $1
		ORDER BY inserted_at ASC, id ASC
		OFFSET $2 LIMIT $3
	`

	rows, err := r.db.QueryContext(ctx, query, datasetID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := make([]*models.Record, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}
	return records, nil
}

// CountByDatasetID returns the number of records in a dataset
func (r *RecordRepository) CountByDatasetID(ctx context.Context, datasetID uuid.UUID) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records WHERE dataset_id = $1`, datasetID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

// GetByID retrieves a record by ID
func (r *RecordRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Record, error) {
	record, err := scanRecord(r.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM records WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("record not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return record, nil
}
