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

// QuestionRepository handles dataset question operations
type QuestionRepository struct {
	db *DB
}

// NewQuestionRepository creates a new question repository
func NewQuestionRepository(db *DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

const questionColumns = `id, name, title, description, required, settings, dataset_id, inserted_at, updated_at`

func scanQuestion(row rowScanner) (*models.Question, error) {
	question := &models.Question{}
	var description sql.NullString
	var settingsJSON []byte
	err := row.Scan(
		&question.ID,
		&question.Name,
		&question.Title,
		&description,
		&question.Required,
		&settingsJSON,
		&question.DatasetID,
		&question.InsertedAt,
		&question.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if description.Valid {
		question.Description = &description.String
	}
	if err := json.Unmarshal(settingsJSON, &question.Settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal question settings: %w", err)
	}
	return question, nil
}

// ListByDatasetID returns the questions of a dataset in creation order
func (r *QuestionRepository) ListByDatasetID(ctx context.Context, datasetID uuid.UUID) ([]*models.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions WHERE dataset_id = $1 ORDER BY inserted_at ASC`

	rows, err := r.db.QueryContext(ctx, query, datasetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	questions := make([]*models.Question, 0)
	for rows.Next() {
		question, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		questions = append(questions, question)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate questions: %w", err)
	}
	return questions, nil
}

// GetByNameAndDatasetID retrieves a question by its name within a dataset
func (r *QuestionRepository) GetByNameAndDatasetID(ctx context.Context, name string, datasetID uuid.UUID) (*models.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions WHERE name = $1 AND dataset_id = $2`

	question, err := scanQuestion(r.db.QueryRowContext(ctx, query, name, datasetID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("question not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return question, nil
}

// Create inserts a new question
func (r *QuestionRepository) Create(ctx context.Context, question *models.Question) error {
	query := `
		INSERT INTO questions (id, name, title, description, required, settings, dataset_id, inserted_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING inserted_at, updated_at
	`

	settingsJSON, err := json.Marshal(question.Settings)
	if err != nil {
		return fmt.Errorf("failed to marshal question settings: %w", err)
	}
	if question.ID == uuid.Nil {
		question.ID = uuid.New()
	}
	err = r.db.QueryRowContext(ctx, query,
		question.ID,
		question.Name,
		question.Title,
		question.Description,
		question.Required,
		settingsJSON,
		question.DatasetID,
		time.Now(),
	).Scan(&question.InsertedAt, &question.UpdatedAt)
	if err != nil {
		return wrapInsertErr("question", err)
	}
	return nil
}
