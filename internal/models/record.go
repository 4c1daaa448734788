package models

import (
	"time"

	"github.com/google/uuid"
)

// ResponseStatus tells whether an annotator submitted or discarded a record
type ResponseStatus string

const (
	ResponseStatusSubmitted ResponseStatus = "submitted"
	ResponseStatusDiscarded ResponseStatus = "discarded"
)

// Record is one item to annotate; its fields are keyed by field name
type Record struct {
	ID         uuid.UUID         `json:"id"`
	Fields     map[string]string `json:"fields"`
	ExternalID *string           `json:"external_id,omitempty"`
	DatasetID  uuid.UUID         `json:"dataset_id"`
	Responses  []*Response       `json:"responses,omitempty"`
	InsertedAt time.Time         `json:"inserted_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// ResponseValue wraps the answer given to one question
type ResponseValue struct {
	Value any `json:"value"`
}

// Response is the answer set of one user for one record
type Response struct {
	ID         uuid.UUID                `json:"id"`
	Values     map[string]ResponseValue `json:"values,omitempty"`
	Status     ResponseStatus           `json:"status"`
	RecordID   uuid.UUID                `json:"record_id"`
	UserID     uuid.UUID                `json:"user_id"`
	InsertedAt time.Time                `json:"inserted_at"`
	UpdatedAt  time.Time                `json:"updated_at"`
}

// RecordInclude names an optional relation returned with records
type RecordInclude string

const (
	RecordIncludeResponses RecordInclude = "responses"
)
