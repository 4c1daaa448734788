package queue

import (
	"time"

	"github.com/google/uuid"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypeCreateIndex asks the search indexer to build the index of a published dataset
	JobTypeCreateIndex JobType = "dataset_index_create"
	// JobTypeDeleteIndex asks the search indexer to drop the index of a deleted dataset
	JobTypeDeleteIndex JobType = "dataset_index_delete"
)

// DefaultMaxRetries is how many times a consumer may retry a job
const DefaultMaxRetries = 3

// Job represents a job in the queue
type Job struct {
	ID         uuid.UUID      `json:"id"`
	Type       JobType        `json:"type"`
	DatasetID  uuid.UUID      `json:"dataset_id"`
	NotAfter   *time.Time     `json:"not_after,omitempty"` // consumers drop the job after this instant
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	RetryCount int            `json:"retry_count"`
	MaxRetries int            `json:"max_retries"`
}

// NewJob creates a new job for a dataset
func NewJob(jobType JobType, datasetID uuid.UUID) *Job {
	return &Job{
		ID:         uuid.New(),
		Type:       jobType,
		DatasetID:  datasetID,
		Metadata:   make(map[string]any),
		CreatedAt:  time.Now(),
		MaxRetries: DefaultMaxRetries,
	}
}

// IsExpired checks if the job has expired
func (j *Job) IsExpired() bool {
	return j.NotAfter != nil && time.Now().After(*j.NotAfter)
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}
