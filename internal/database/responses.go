package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/7flash/argilla/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ResponseRepository handles annotator response operations
type ResponseRepository struct {
	db *DB
}

// NewResponseRepository creates a new response repository
func NewResponseRepository(db *DB) *ResponseRepository {
	return &ResponseRepository{db: db}
}

const responseInsertQuery = `
	INSERT INTO responses (id, "values", status, record_id, user_id, inserted_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $6)
`

type execer interface {
	ExecContext(ctx context.Context, args ...any) (sql.Result, error)
}

func insertResponse(ctx context.Context, stmt execer, response *models.Response, now time.Time) error {
	var values any
	if response.Values != nil {
		valuesJSON, err := json.Marshal(response.Values)
		if err != nil {
			return fmt.Errorf("failed to marshal response values: %w", err)
		}
		values = valuesJSON
	}
	if response.ID == uuid.Nil {
		response.ID = uuid.New()
	}
	if _, err := stmt.ExecContext(ctx, response.ID, values, response.Status, response.RecordID, response.UserID, now); err != nil {
		return wrapInsertErr("response", err)
	}
	response.InsertedAt, response.UpdatedAt = now, now
	return nil
}

// Create inserts a response. A second response by the same user for the same
// record fails with ErrDuplicate.
func (r *ResponseRepository) Create(ctx context.Context, response *models.Response) error {
	stmt, err := r.db.PrepareContext(ctx, responseInsertQuery)
	if err != nil {
		return fmt.Errorf("failed to prepare response insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	return insertResponse(ctx, stmt, response, time.Now())
}

// ListByRecordIDsAndUserID returns the responses a user gave to the listed records
func (r *ResponseRepository) ListByRecordIDsAndUserID(ctx context.Context, recordIDs []uuid.UUID, userID uuid.UUID) ([]*models.Response, error) {
	if len(recordIDs) == 0 {
		return []*models.Response{}, nil
	}
	ids := make([]string, len(recordIDs))
	for i, id := range recordIDs {
		ids[i] = id.String()
	}

	query := `
		SELECT id, "values", status, record_id, user_id, inserted_at, updated_at
		FROM responses
		WHERE record_id = ANY($1::uuid[]) AND user_id = $2
	`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	responses := make([]*models.Response, 0)
	for rows.Next() {
		response := &models.Response{}
		var valuesJSON []byte
		if err := rows.Scan(
			&response.ID,
			&valuesJSON,
			&response.Status,
			&response.RecordID,
			&response.UserID,
			&response.InsertedAt,
			&response.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan response: %w", err)
		}
		if len(valuesJSON) > 0 {
			if err := json.Unmarshal(valuesJSON, &response.Values); err != nil {
				return nil, fmt.Errorf("failed to unmarshal response values: %w", err)
			}
		}
		responses = append(responses, response)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate responses: %w", err)
	}
	return responses, nil
}

// CountByDatasetIDAndUserID counts a user's responses in a dataset, optionally
// restricted to one status
func (r *ResponseRepository) CountByDatasetIDAndUserID(ctx context.Context, datasetID, userID uuid.UUID, status *models.ResponseStatus) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM responses r
		JOIN records rec ON rec.id = r.record_id
		WHERE rec.dataset_id = $1 AND r.user_id = $2 AND ($3::text IS NULL OR r.status = $3)
	`

	var statusArg sql.NullString
	if status != nil {
		statusArg = sql.NullString{String: string(*status), Valid: true}
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, datasetID, userID, statusArg).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count responses: %w", err)
	}
	return count, nil
}
