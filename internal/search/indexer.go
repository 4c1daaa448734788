// Package search hands dataset index maintenance to the external search engine.
package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/7flash/argilla/internal/models"
	"github.com/7flash/argilla/internal/queue"
	"go.uber.org/zap"
)

// Indexer maintains the search index of datasets
type Indexer interface {
	CreateIndex(ctx context.Context, dataset *models.Dataset) error
	DeleteIndex(ctx context.Context, dataset *models.Dataset) error
}

// QueueIndexer publishes index jobs for the search service to consume
type QueueIndexer struct {
	queue  queue.JobQueue
	logger *zap.Logger
}

// NewQueueIndexer creates an indexer backed by a job queue
func NewQueueIndexer(q queue.JobQueue, log *zap.Logger) (*QueueIndexer, error) {
	if q == nil {
		return nil, errors.New("job queue is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &QueueIndexer{queue: q, logger: log}, nil
}

func (i *QueueIndexer) enqueue(ctx context.Context, jobType queue.JobType, dataset *models.Dataset) error {
	job := queue.NewJob(jobType, dataset.ID)
	job.Metadata["dataset_name"] = dataset.Name
	job.Metadata["workspace_id"] = dataset.WorkspaceID.String()

	if err := i.queue.Enqueue(ctx, job); err != nil {
		return fmt.Errorf("failed to enqueue %s job: %w", jobType, err)
	}
	i.logger.Info("index_job_enqueued",
		zap.String("job_id", job.ID.String()),
		zap.String("type", string(jobType)),
		zap.String("dataset_id", dataset.ID.String()),
	)
	return nil
}

// CreateIndex requests the index of a freshly published dataset
func (i *QueueIndexer) CreateIndex(ctx context.Context, dataset *models.Dataset) error {
	return i.enqueue(ctx, queue.JobTypeCreateIndex, dataset)
}

// DeleteIndex requests removal of the index of a deleted dataset
func (i *QueueIndexer) DeleteIndex(ctx context.Context, dataset *models.Dataset) error {
	return i.enqueue(ctx, queue.JobTypeDeleteIndex, dataset)
}

// LogIndexer only logs index requests. It is used when no queue is configured.
type LogIndexer struct {
	logger *zap.Logger
}

// NewLogIndexer creates a logging-only indexer
func NewLogIndexer(log *zap.Logger) *LogIndexer {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogIndexer{logger: log}
}

func (i *LogIndexer) CreateIndex(_ context.Context, dataset *models.Dataset) error {
	i.logger.Warn("index_job_skipped_no_queue", zap.String("type", string(queue.JobTypeCreateIndex)), zap.String("dataset_id", dataset.ID.String()))
	return nil
}

func (i *LogIndexer) DeleteIndex(_ context.Context, dataset *models.Dataset) error {
	i.logger.Warn("index_job_skipped_no_queue", zap.String("type", string(queue.JobTypeDeleteIndex)), zap.String("dataset_id", dataset.ID.String()))
	return nil
}
