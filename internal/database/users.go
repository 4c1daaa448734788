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

// UserRepository handles user database operations. It is also the credential
// store behind authentication.
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `
	u.id, u.first_name, u.last_name, u.username, u.role, u.api_key, u.password_hash,
	u.inserted_at, u.updated_at,
	COALESCE(ARRAY_AGG(wu.workspace_id::text) FILTER (WHERE wu.workspace_id IS NOT NULL), '{}')
`

const userFrom = `
	FROM users u
	LEFT JOIN workspaces_users wu ON wu.user_id = u.id
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	var lastName sql.NullString
	var workspaceIDs []string
	err := row.Scan(
		&user.ID,
		&user.FirstName,
		&lastName,
		&user.Username,
		&user.Role,
		&user.APIKey,
		&user.PasswordHash,
		&user.InsertedAt,
		&user.UpdatedAt,
		pq.Array(&workspaceIDs),
	)
	if err != nil {
		return nil, err
	}
	if lastName.Valid {
		user.LastName = &lastName.String
	}
	user.WorkspaceIDs = make([]uuid.UUID, 0, len(workspaceIDs))
	for _, raw := range workspaceIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid workspace id %q: %w", raw, err)
		}
		user.WorkspaceIDs = append(user.WorkspaceIDs, id)
	}
	return user, nil
}

func (r *UserRepository) getOne(ctx context.Context, where string, arg any) (*models.User, error) {
	query := `SELECT ` + userColumns + userFrom + ` WHERE ` + where + ` GROUP BY u.id`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, first_name, last_name, username, role, api_key, password_hash, inserted_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING inserted_at, updated_at
	`

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		user.ID,
		user.FirstName,
		user.LastName,
		user.Username,
		user.Role,
		user.APIKey,
		user.PasswordHash,
		now,
		now,
	).Scan(&user.InsertedAt, &user.UpdatedAt)
	if err != nil {
		return wrapInsertErr("user", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.getOne(ctx, `u.id = $1`, id)
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, `u.username = $1`, username)
}

// GetByAPIKey retrieves a user by API key
func (r *UserRepository) GetByAPIKey(ctx context.Context, apiKey string) (*models.User, error) {
	return r.getOne(ctx, `u.api_key = $1`, apiKey)
}

// List returns every user ordered by username
func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + userFrom + ` GROUP BY u.id ORDER BY u.username`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// UpdateAPIKey replaces the API key of a user
func (r *UserRepository) UpdateAPIKey(ctx context.Context, id uuid.UUID, apiKey string) error {
	query := `UPDATE users SET api_key = $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, apiKey, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update api key: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user not found: %w", sql.ErrNoRows)
	}
	return nil
}
