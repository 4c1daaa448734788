package database

import (
	"context"

	"github.com/7flash/argilla/internal/models"
	"github.com/google/uuid"
)

// Repository interfaces let the service layer run against the in-memory
// implementations in databasetest. Lookups that find nothing return an error
// wrapping sql.ErrNoRows; unique collisions return an error wrapping ErrDuplicate.

// UserRepositoryInterface defines user lookups used by authentication and the CLI
type UserRepositoryInterface interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByAPIKey(ctx context.Context, apiKey string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	UpdateAPIKey(ctx context.Context, id uuid.UUID, apiKey string) error
}

// DatasetRepositoryInterface defines dataset operations
type DatasetRepositoryInterface interface {
	List(ctx context.Context) ([]*models.Dataset, error)
	ListByWorkspaceIDs(ctx context.Context, workspaceIDs []uuid.UUID) ([]*models.Dataset, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Dataset, error)
	GetByNameAndWorkspaceID(ctx context.Context, name string, workspaceID uuid.UUID) (*models.Dataset, error)
	Create(ctx context.Context, dataset *models.Dataset) error
	UpdateStatus(ctx context.Context, dataset *models.Dataset, status models.DatasetStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// FieldRepositoryInterface defines field operations
type FieldRepositoryInterface interface {
	ListByDatasetID(ctx context.Context, datasetID uuid.UUID) ([]*models.Field, error)
	GetByNameAndDatasetID(ctx context.Context, name string, datasetID uuid.UUID) (*models.Field, error)
	Create(ctx context.Context, field *models.Field) error
}

// QuestionRepositoryInterface defines question operations
type QuestionRepositoryInterface interface {
	ListByDatasetID(ctx context.Context, datasetID uuid.UUID) ([]*models.Question, error)
	GetByNameAndDatasetID(ctx context.Context, name string, datasetID uuid.UUID) (*models.Question, error)
	Create(ctx context.Context, question *models.Question) error
}

// RecordRepositoryInterface defines record operations
type RecordRepositoryInterface interface {
	CreateMany(ctx context.Context, records []*models.Record) error
	ListByDatasetID(ctx context.Context, datasetID uuid.UUID, offset, limit int) ([]*models.Record, error)
	CountByDatasetID(ctx context.Context, datasetID uuid.UUID) (int, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Record, error)
}

// ResponseRepositoryInterface defines response operations
type ResponseRepositoryInterface interface {
	Create(ctx context.Context, response *models.Response) error
	ListByRecordIDsAndUserID(ctx context.Context, recordIDs []uuid.UUID, userID uuid.UUID) ([]*models.Response, error)
	CountByDatasetIDAndUserID(ctx context.Context, datasetID, userID uuid.UUID, status *models.ResponseStatus) (int, error)
}

// VectorSettingsRepositoryInterface defines vector settings operations
type VectorSettingsRepositoryInterface interface {
	ListByDatasetID(ctx context.Context, datasetID uuid.UUID) ([]*models.VectorSettings, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.VectorSettings, error)
	GetByNameAndDatasetID(ctx context.Context, name string, datasetID uuid.UUID) (*models.VectorSettings, error)
	Create(ctx context.Context, vs *models.VectorSettings) error
	UpdateTitle(ctx context.Context, vs *models.VectorSettings, title string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Ensure concrete types implement the interfaces
var (
	_ UserRepositoryInterface           = (*UserRepository)(nil)
	_ DatasetRepositoryInterface        = (*DatasetRepository)(nil)
	_ FieldRepositoryInterface          = (*FieldRepository)(nil)
	_ QuestionRepositoryInterface       = (*QuestionRepository)(nil)
	_ RecordRepositoryInterface         = (*RecordRepository)(nil)
	_ ResponseRepositoryInterface       = (*ResponseRepository)(nil)
	_ VectorSettingsRepositoryInterface = (*VectorSettingsRepository)(nil)
)
