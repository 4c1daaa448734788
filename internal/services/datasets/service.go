// Package datasets holds the business rules for datasets, their schema,
// records, responses and vector settings.
package datasets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/7flash/argilla/internal/database"
	"github.com/7flash/argilla/internal/models"
	"github.com/7flash/argilla/internal/search"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Record listing limits
const (
	ListRecordsLimitDefault = 50
	ListRecordsLimitMax     = 1000
)

// Repositories groups the stores the service works against
type Repositories struct {
	Datasets       database.DatasetRepositoryInterface
	Fields         database.FieldRepositoryInterface
	Questions      database.QuestionRepositoryInterface
	Records        database.RecordRepositoryInterface
	Responses      database.ResponseRepositoryInterface
	VectorSettings database.VectorSettingsRepositoryInterface
}

// Service implements dataset operations
type Service struct {
	repos   Repositories
	indexer search.Indexer
	logger  *zap.Logger
}

// NewService creates a dataset service
func NewService(repos Repositories, indexer search.Indexer, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repos: repos, indexer: indexer, logger: log}
}

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// ListDatasets returns every dataset for admins and the datasets of the user's
// workspaces for everyone else
func (s *Service) ListDatasets(ctx context.Context, user *models.User) ([]*models.Dataset, error) {
	if user.IsAdmin() {
		return s.repos.Datasets.List(ctx)
	}
	return s.repos.Datasets.ListByWorkspaceIDs(ctx, user.WorkspaceIDs)
}

// GetDataset retrieves a dataset or returns ErrNotFound
func (s *Service) GetDataset(ctx context.Context, id uuid.UUID) (*models.Dataset, error) {
	dataset, err := s.repos.Datasets.GetByID(ctx, id)
	if isNotFound(err) {
		return nil, newError(ErrNotFound, "Dataset with id `%s` not found", id)
	}
	if err != nil {
		return nil, err
	}
	return dataset, nil
}

// ListFields returns the fields of a dataset
func (s *Service) ListFields(ctx context.Context, dataset *models.Dataset) ([]*models.Field, error) {
	return s.repos.Fields.ListByDatasetID(ctx, dataset.ID)
}

// ListQuestions returns the questions of a dataset
func (s *Service) ListQuestions(ctx context.Context, dataset *models.Dataset) ([]*models.Question, error) {
	return s.repos.Questions.ListByDatasetID(ctx, dataset.ID)
}

// CreateDataset creates a draft dataset
func (s *Service) CreateDataset(ctx context.Context, input models.DatasetCreate) (*models.Dataset, error) {
	_, err := s.repos.Datasets.GetByNameAndWorkspaceID(ctx, input.Name, input.WorkspaceID)
	if err == nil {
		return nil, newError(ErrAlreadyExists, "Dataset with name `%s` already exists for workspace with id `%s`", input.Name, input.WorkspaceID)
	}
	if !isNotFound(err) {
		return nil, err
	}

	dataset := &models.Dataset{
		Name:        input.Name,
		Guidelines:  input.Guidelines,
		Status:      models.DatasetStatusDraft,
		WorkspaceID: input.WorkspaceID,
	}
	if err := s.repos.Datasets.Create(ctx, dataset); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, newError(ErrAlreadyExists, "Dataset with name `%s` already exists for workspace with id `%s`", input.Name, input.WorkspaceID)
		}
		return nil, err
	}

	s.logger.Info("dataset_created", zap.String("dataset_id", dataset.ID.String()), zap.String("workspace_id", dataset.WorkspaceID.String()))
	return dataset, nil
}

// CreateField adds a field to a draft dataset
func (s *Service) CreateField(ctx context.Context, dataset *models.Dataset, input models.FieldCreate) (*models.Field, error) {
	_, err := s.repos.Fields.GetByNameAndDatasetID(ctx, input.Name, dataset.ID)
	if err == nil {
		return nil, newError(ErrAlreadyExists, "Field with name `%s` already exists for dataset with id `%s`", input.Name, dataset.ID)
	}
	if !isNotFound(err) {
		return nil, err
	}
	if !dataset.IsDraft() {
		return nil, newError(ErrInvalid, "Field cannot be created for a published dataset")
	}

	field := &models.Field{
		Name:      input.Name,
		Title:     input.Title,
		Required:  input.Required,
		Settings:  input.Settings,
		DatasetID: dataset.ID,
	}
	if err := s.repos.Fields.Create(ctx, field); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, newError(ErrAlreadyExists, "Field with name `%s` already exists for dataset with id `%s`", input.Name, dataset.ID)
		}
		return nil, err
	}
	return field, nil
}

// CreateQuestion adds a question to a draft dataset
func (s *Service) CreateQuestion(ctx context.Context, dataset *models.Dataset, input models.QuestionCreate) (*models.Question, error) {
	_, err := s.repos.Questions.GetByNameAndDatasetID(ctx, input.Name, dataset.ID)
	if err == nil {
		return nil, newError(ErrAlreadyExists, "Question with name `%s` already exists for dataset with id `%s`", input.Name, dataset.ID)
	}
	if !isNotFound(err) {
		return nil, err
	}
	if !dataset.IsDraft() {
		return nil, newError(ErrInvalid, "Question cannot be created for a published dataset")
	}
	if err := validateQuestionSettings(input.Settings); err != nil {
		return nil, err
	}

	question := &models.Question{
		Name:        input.Name,
		Title:       input.Title,
		Description: input.Description,
		Required:    input.Required,
		Settings:    input.Settings,
		DatasetID:   dataset.ID,
	}
	if err := s.repos.Questions.Create(ctx, question); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, newError(ErrAlreadyExists, "Question with name `%s` already exists for dataset with id `%s`", input.Name, dataset.ID)
		}
		return nil, err
	}
	return question, nil
}

// CreateRecords validates and stores a batch of records for a published
// dataset. A record's optional response is stored as the caller's.
func (s *Service) CreateRecords(ctx context.Context, dataset *models.Dataset, user *models.User, input models.RecordsCreate) error {
	if !dataset.IsReady() {
		return newError(ErrInvalid, "Records cannot be created for a non published dataset")
	}
	if n := len(input.Items); n < models.RecordsCreateMinItems || n > models.RecordsCreateMaxItems {
		return newError(ErrInvalid, "between %d and %d records can be created at once, got %d", models.RecordsCreateMinItems, models.RecordsCreateMaxItems, n)
	}

	fields, err := s.repos.Fields.ListByDatasetID(ctx, dataset.ID)
	if err != nil {
		return err
	}
	var questions []*models.Question

	records := make([]*models.Record, 0, len(input.Items))
	for i, item := range input.Items {
		if err := validateRecordFields(fields, item.Fields); err != nil {
			return newError(ErrInvalid, "record at position %d is not valid: %s", i, err.Error())
		}

		record := &models.Record{
			ID:         uuid.New(),
			Fields:     item.Fields,
			ExternalID: item.ExternalID,
			DatasetID:  dataset.ID,
		}
		if item.Response != nil {
			if questions == nil {
				if questions, err = s.repos.Questions.ListByDatasetID(ctx, dataset.ID); err != nil {
					return err
				}
			}
			if err := validateResponse(questions, *item.Response); err != nil {
				return newError(ErrInvalid, "response for record at position %d is not valid: %s", i, err.Error())
			}
			record.Responses = []*models.Response{{
				Values: item.Response.Values,
				Status: item.Response.Status,
				UserID: user.ID,
			}}
		}
		records = append(records, record)
	}

	if err := s.repos.Records.CreateMany(ctx, records); err != nil {
		return fmt.Errorf("failed to create records: %w", err)
	}

	s.logger.Info("records_created", zap.String("dataset_id", dataset.ID.String()), zap.Int("count", len(records)))
	return nil
}

// PublishDataset moves a draft dataset with fields and a required question to
// ready and asks the indexer to build its index. The status is rolled back
// when the indexer refuses.
func (s *Service) PublishDataset(ctx context.Context, dataset *models.Dataset) (*models.Dataset, error) {
	if dataset.IsReady() {
		return nil, newError(ErrInvalid, "Dataset is already published")
	}

	fields, err := s.repos.Fields.ListByDatasetID(ctx, dataset.ID)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, newError(ErrInvalid, "Dataset cannot be published without fields")
	}

	questions, err := s.repos.Questions.ListByDatasetID(ctx, dataset.ID)
	if err != nil {
		return nil, err
	}
	hasRequired := false
	for _, q := range questions {
		if q.Required {
			hasRequired = true
			break
		}
	}
	if !hasRequired {
		return nil, newError(ErrInvalid, "Dataset cannot be published without required questions")
	}

	if err := s.repos.Datasets.UpdateStatus(ctx, dataset, models.DatasetStatusReady); err != nil {
		return nil, err
	}

	if err := s.indexer.CreateIndex(ctx, dataset); err != nil {
		s.logger.Error("dataset_index_request_failed", zap.String("dataset_id", dataset.ID.String()), zap.Error(err))
		if rbErr := s.repos.Datasets.UpdateStatus(ctx, dataset, models.DatasetStatusDraft); rbErr != nil {
			s.logger.Error("dataset_publish_rollback_failed", zap.String("dataset_id", dataset.ID.String()), zap.Error(rbErr))
		}
		return nil, fmt.Errorf("failed to publish dataset: %w", err)
	}

	s.logger.Info("dataset_published", zap.String("dataset_id", dataset.ID.String()))
	return dataset, nil
}

// DeleteDataset removes a dataset with everything attached to it. Published
// datasets also get their index removal requested; a failed request is
// logged and does not undo the deletion.
func (s *Service) DeleteDataset(ctx context.Context, dataset *models.Dataset) error {
	if err := s.repos.Datasets.Delete(ctx, dataset.ID); err != nil {
		if isNotFound(err) {
			return newError(ErrNotFound, "Dataset with id `%s` not found", dataset.ID)
		}
		return err
	}

	if dataset.IsReady() {
		if err := s.indexer.DeleteIndex(ctx, dataset); err != nil {
			s.logger.Warn("dataset_index_delete_request_failed", zap.String("dataset_id", dataset.ID.String()), zap.Error(err))
		}
	}

	s.logger.Info("dataset_deleted", zap.String("dataset_id", dataset.ID.String()))
	return nil
}

// RecordsPage is one page of records plus the dataset total
type RecordsPage struct {
	Items []*models.Record `json:"items"`
	Total int              `json:"total"`
}

// ListUserRecords pages through a dataset's records. With include responses,
// each record carries only the responses of user.
func (s *Service) ListUserRecords(ctx context.Context, dataset *models.Dataset, user *models.User, include []models.RecordInclude, offset, limit int) (*RecordsPage, error) {
	if offset < 0 {
		return nil, newError(ErrInvalid, "offset must not be negative")
	}
	if limit <= 0 || limit > ListRecordsLimitMax {
		return nil, newError(ErrInvalid, "limit must be between 1 and %d", ListRecordsLimitMax)
	}

	records, err := s.repos.Records.ListByDatasetID(ctx, dataset.ID, offset, limit)
	if err != nil {
		return nil, err
	}

	if includes(include, models.RecordIncludeResponses) && len(records) > 0 {
		ids := make([]uuid.UUID, len(records))
		byID := make(map[uuid.UUID]*models.Record, len(records))
		for i, r := range records {
			ids[i] = r.ID
			byID[r.ID] = r
			r.Responses = []*models.Response{}
		}
		responses, err := s.repos.Responses.ListByRecordIDsAndUserID(ctx, ids, user.ID)
		if err != nil {
			return nil, err
		}
		for _, resp := range responses {
			if r, ok := byID[resp.RecordID]; ok {
				r.Responses = append(r.Responses, resp)
			}
		}
	}

	total, err := s.repos.Records.CountByDatasetID(ctx, dataset.ID)
	if err != nil {
		return nil, err
	}
	return &RecordsPage{Items: records, Total: total}, nil
}

func includes(include []models.RecordInclude, want models.RecordInclude) bool {
	for _, inc := range include {
		if inc == want {
			return true
		}
	}
	return false
}

// Metrics counts a dataset's records and the responses user gave to them
func (s *Service) Metrics(ctx context.Context, dataset *models.Dataset, user *models.User) (*models.DatasetMetrics, error) {
	records, err := s.repos.Records.CountByDatasetID(ctx, dataset.ID)
	if err != nil {
		return nil, err
	}

	count := func(status *models.ResponseStatus) (int, error) {
		return s.repos.Responses.CountByDatasetIDAndUserID(ctx, dataset.ID, user.ID, status)
	}
	submittedStatus, discardedStatus := models.ResponseStatusSubmitted, models.ResponseStatusDiscarded

	total, err := count(nil)
	if err != nil {
		return nil, err
	}
	submitted, err := count(&submittedStatus)
	if err != nil {
		return nil, err
	}
	discarded, err := count(&discardedStatus)
	if err != nil {
		return nil, err
	}

	return &models.DatasetMetrics{
		Records:   models.RecordMetrics{Count: records},
		Responses: models.ResponseMetrics{Count: total, Submitted: submitted, Discarded: discarded},
	}, nil
}

// GetRecord retrieves a record or returns ErrNotFound
func (s *Service) GetRecord(ctx context.Context, id uuid.UUID) (*models.Record, error) {
	record, err := s.repos.Records.GetByID(ctx, id)
	if isNotFound(err) {
		return nil, newError(ErrNotFound, "Record with id `%s` not found", id)
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// CreateResponse stores user's answer to a record. Each user answers a record once.
func (s *Service) CreateResponse(ctx context.Context, record *models.Record, user *models.User, input models.ResponseCreate) (*models.Response, error) {
	questions, err := s.repos.Questions.ListByDatasetID(ctx, record.DatasetID)
	if err != nil {
		return nil, err
	}
	if err := validateResponse(questions, input); err != nil {
		return nil, err
	}

	response := &models.Response{
		Values:   input.Values,
		Status:   input.Status,
		RecordID: record.ID,
		UserID:   user.ID,
	}
	if err := s.repos.Responses.Create(ctx, response); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, newError(ErrAlreadyExists, "Response already exists for record with id `%s` and by user with id `%s`", record.ID, user.ID)
		}
		return nil, err
	}
	return response, nil
}

// ListVectorSettings returns the vector settings of a dataset
func (s *Service) ListVectorSettings(ctx context.Context, dataset *models.Dataset) ([]*models.VectorSettings, error) {
	return s.repos.VectorSettings.ListByDatasetID(ctx, dataset.ID)
}

// CreateVectorSettings declares a vector space on a draft dataset
func (s *Service) CreateVectorSettings(ctx context.Context, dataset *models.Dataset, input models.VectorSettingsCreate) (*models.VectorSettings, error) {
	if !dataset.IsDraft() {
		return nil, newError(ErrInvalid, "Vector settings cannot be created for a published dataset")
	}
	_, err := s.repos.VectorSettings.GetByNameAndDatasetID(ctx, input.Name, dataset.ID)
	if err == nil {
		return nil, newError(ErrAlreadyExists, "Vector settings with name `%s` already exists for dataset with id `%s`", input.Name, dataset.ID)
	}
	if !isNotFound(err) {
		return nil, err
	}

	vs := &models.VectorSettings{
		Name:       input.Name,
		Title:      input.Title,
		Dimensions: input.Dimensions,
		DatasetID:  dataset.ID,
	}
	if err := s.repos.VectorSettings.Create(ctx, vs); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, newError(ErrAlreadyExists, "Vector settings with name `%s` already exists for dataset with id `%s`", input.Name, dataset.ID)
		}
		return nil, err
	}
	return vs, nil
}

// GetVectorSettings retrieves vector settings or returns ErrNotFound
func (s *Service) GetVectorSettings(ctx context.Context, id uuid.UUID) (*models.VectorSettings, error) {
	vs, err := s.repos.VectorSettings.GetByID(ctx, id)
	if isNotFound(err) {
		return nil, newError(ErrNotFound, "Vector settings with id `%s` not found", id)
	}
	if err != nil {
		return nil, err
	}
	return vs, nil
}

// UpdateVectorSettings changes the title of vector settings; nothing else is mutable
func (s *Service) UpdateVectorSettings(ctx context.Context, vs *models.VectorSettings, input models.VectorSettingsUpdate) (*models.VectorSettings, error) {
	if input.Title == nil || *input.Title == "" {
		return nil, newError(ErrInvalid, "title must not be empty")
	}
	if err := s.repos.VectorSettings.UpdateTitle(ctx, vs, *input.Title); err != nil {
		if isNotFound(err) {
			return nil, newError(ErrNotFound, "Vector settings with id `%s` not found", vs.ID)
		}
		return nil, err
	}
	return vs, nil
}

// DeleteVectorSettings removes vector settings
func (s *Service) DeleteVectorSettings(ctx context.Context, vs *models.VectorSettings) error {
	if err := s.repos.VectorSettings.Delete(ctx, vs.ID); err != nil {
		if isNotFound(err) {
			return newError(ErrNotFound, "Vector settings with id `%s` not found", vs.ID)
		}
		return err
	}
	return nil
}
