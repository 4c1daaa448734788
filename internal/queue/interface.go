package queue

import (
	"context"
)

// JobQueue publishes jobs for out-of-process consumers
type JobQueue interface {
	// Enqueue publishes a job
	Enqueue(ctx context.Context, job *Job) error

	// Close closes the queue connection
	Close() error

	// HealthCheck verifies the queue connection is healthy
	HealthCheck(ctx context.Context) error
}
