package models

import (
	"time"

	"github.com/google/uuid"
)

// DatasetStatus represents the lifecycle stage of a dataset
type DatasetStatus string

const (
	DatasetStatusDraft DatasetStatus = "draft"
	DatasetStatusReady DatasetStatus = "ready"
)

// Dataset is a collection of records annotated against a set of questions
type Dataset struct {
	ID          uuid.UUID     `json:"id"`
	Name        string        `json:"name"`
	Guidelines  *string       `json:"guidelines,omitempty"`
	Status      DatasetStatus `json:"status"`
	WorkspaceID uuid.UUID     `json:"workspace_id"`
	InsertedAt  time.Time     `json:"inserted_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// IsDraft reports whether the dataset can still change its schema
func (d *Dataset) IsDraft() bool {
	return d.Status == DatasetStatusDraft
}

// IsReady reports whether the dataset has been published
func (d *Dataset) IsReady() bool {
	return d.Status == DatasetStatusReady
}

// FieldType is the kind of content a field holds
type FieldType string

const (
	FieldTypeText FieldType = "text"
)

// FieldSettings holds the type-specific configuration of a field
type FieldSettings struct {
	Type        FieldType `json:"type" validate:"required,oneof=text"`
	UseMarkdown bool      `json:"use_markdown"`
}

// Field describes one named piece of content every record carries
type Field struct {
	ID         uuid.UUID     `json:"id"`
	Name       string        `json:"name"`
	Title      string        `json:"title"`
	Required   bool          `json:"required"`
	Settings   FieldSettings `json:"settings"`
	DatasetID  uuid.UUID     `json:"dataset_id"`
	InsertedAt time.Time     `json:"inserted_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// QuestionType is the kind of answer a question expects
type QuestionType string

const (
	QuestionTypeText                QuestionType = "text"
	QuestionTypeRating              QuestionType = "rating"
	QuestionTypeLabelSelection      QuestionType = "label_selection"
	QuestionTypeMultiLabelSelection QuestionType = "multi_label_selection"
)

// QuestionOption is one selectable answer of a rating or label question.
// Rating options carry an integer value, label options a string value and
// an optional display text.
type QuestionOption struct {
	Value       any     `json:"value"`
	Text        *string `json:"text,omitempty"`
	Description *string `json:"description,omitempty"`
}

// QuestionSettings holds the type-specific configuration of a question
type QuestionSettings struct {
	Type           QuestionType     `json:"type" validate:"required,oneof=text rating label_selection multi_label_selection"`
	UseMarkdown    bool             `json:"use_markdown,omitempty"`
	Options        []QuestionOption `json:"options,omitempty"`
	VisibleOptions *int             `json:"visible_options,omitempty" validate:"omitempty,gte=3"`
}

// Question is something annotators answer for every record
type Question struct {
	ID          uuid.UUID        `json:"id"`
	Name        string           `json:"name"`
	Title       string           `json:"title"`
	Description *string          `json:"description,omitempty"`
	Required    bool             `json:"required"`
	Settings    QuestionSettings `json:"settings"`
	DatasetID   uuid.UUID        `json:"dataset_id"`
	InsertedAt  time.Time        `json:"inserted_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// VectorSettings declares an embedding space records of a dataset can carry
type VectorSettings struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Title      string    `json:"title"`
	Dimensions int       `json:"dimensions"`
	DatasetID  uuid.UUID `json:"dataset_id"`
	InsertedAt time.Time `json:"inserted_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// DatasetMetrics summarises the progress of one user on a dataset
type DatasetMetrics struct {
	Records   RecordMetrics   `json:"records"`
	Responses ResponseMetrics `json:"responses"`
}

// RecordMetrics counts records of a dataset
type RecordMetrics struct {
	Count int `json:"count"`
}

// ResponseMetrics counts responses of a user by status
type ResponseMetrics struct {
	Count     int `json:"count"`
	Submitted int `json:"submitted"`
	Discarded int `json:"discarded"`
}
