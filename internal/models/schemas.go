package models

import "github.com/google/uuid"

// Limits on request payloads
const (
	RecordsCreateMinItems = 1
	RecordsCreateMaxItems = 1000
)

// LoginRequest carries the credentials posted to the token endpoint
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=200"`
	Password string `json:"password" validate:"required,max=200"`
}

// DatasetCreate is the payload for creating a dataset
type DatasetCreate struct {
	Name        string    `json:"name" validate:"required,min=1,max=200,dataset_name"`
	Guidelines  *string   `json:"guidelines,omitempty" validate:"omitempty,min=1,max=10000"`
	WorkspaceID uuid.UUID `json:"workspace_id" validate:"required"`
}

// FieldCreate is the payload for adding a field to a draft dataset
type FieldCreate struct {
	Name     string        `json:"name" validate:"required,min=1,max=200,resource_name"`
	Title    string        `json:"title" validate:"required,min=1,max=500"`
	Required bool          `json:"required"`
	Settings FieldSettings `json:"settings"`
}

// QuestionCreate is the payload for adding a question to a draft dataset
type QuestionCreate struct {
	Name        string           `json:"name" validate:"required,min=1,max=200,resource_name"`
	Title       string           `json:"title" validate:"required,min=1,max=500"`
	Description *string          `json:"description,omitempty" validate:"omitempty,min=1,max=1000"`
	Required    bool             `json:"required"`
	Settings    QuestionSettings `json:"settings"`
}

// ResponseCreate is the payload for answering a record
type ResponseCreate struct {
	Values map[string]ResponseValue `json:"values,omitempty"`
	Status ResponseStatus           `json:"status" validate:"required,oneof=submitted discarded"`
}

// RecordCreate is one record of a bulk records payload
type RecordCreate struct {
	Fields     map[string]string `json:"fields" validate:"required"`
	ExternalID *string           `json:"external_id,omitempty" validate:"omitempty,max=200"`
	Response   *ResponseCreate   `json:"response,omitempty"`
}

// RecordsCreate is the bulk records payload
type RecordsCreate struct {
	Items []RecordCreate `json:"items" validate:"required,min=1,max=1000,dive"`
}

// VectorSettingsCreate is the payload for declaring a vector space on a dataset
type VectorSettingsCreate struct {
	Name       string `json:"name" validate:"required,min=1,max=200,resource_name"`
	Title      string `json:"title" validate:"required,min=1,max=500"`
	Dimensions int    `json:"dimensions" validate:"required,gt=0"`
}

// VectorSettingsUpdate is the payload for renaming a vector space.
// Title is a pointer so an explicit null can be told apart from a missing key.
type VectorSettingsUpdate struct {
	Title *string `json:"title" validate:"required,min=1,max=500"`
}
