// Package policy decides which authenticated users may perform which actions.
package policy

import (
	"errors"

	"github.com/7flash/argilla/internal/models"
	"github.com/google/uuid"
)

// ErrForbidden is returned when a user is not allowed to perform an action
var ErrForbidden = errors.New("forbidden")

// Action reports whether user may perform it
type Action func(user *models.User) bool

// Authorize returns ErrForbidden unless action allows user
func Authorize(user *models.User, action Action) error {
	if user == nil || action == nil || !action(user) {
		return ErrForbidden
	}
	return nil
}

func anyUser(*models.User) bool { return true }

func adminOnly(user *models.User) bool { return user.IsAdmin() }

func adminOrMemberOf(workspaceID uuid.UUID) Action {
	return func(user *models.User) bool {
		return user.IsAdmin() || user.IsMemberOf(workspaceID)
	}
}

type datasetPolicy struct{}

// Dataset holds the actions on datasets and their schema
var Dataset datasetPolicy

func (datasetPolicy) List() Action { return anyUser }

func (datasetPolicy) Get(dataset *models.Dataset) Action {
	if dataset == nil {
		return adminOnly
	}
	return adminOrMemberOf(dataset.WorkspaceID)
}

func (datasetPolicy) Create() Action         { return adminOnly }
func (datasetPolicy) CreateField() Action    { return adminOnly }
func (datasetPolicy) CreateQuestion() Action { return adminOnly }
func (datasetPolicy) CreateRecords() Action  { return adminOnly }
func (datasetPolicy) Publish() Action        { return adminOnly }
func (datasetPolicy) Delete() Action         { return adminOnly }

type vectorSettingsPolicy struct{}

// VectorSettings holds the actions on vector settings
var VectorSettings vectorSettingsPolicy

func (vectorSettingsPolicy) List(dataset *models.Dataset) Action { return Dataset.Get(dataset) }
func (vectorSettingsPolicy) Create() Action                      { return adminOnly }
func (vectorSettingsPolicy) Update() Action                      { return adminOnly }
func (vectorSettingsPolicy) Delete() Action                      { return adminOnly }

type recordPolicy struct{}

// Record holds the actions on records
var Record recordPolicy

// CreateResponse allows admins and members of the workspace owning the
// record's dataset to answer it.
func (recordPolicy) CreateResponse(dataset *models.Dataset) Action { return Dataset.Get(dataset) }
