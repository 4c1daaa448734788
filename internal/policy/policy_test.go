package policy

import (
	"errors"
	"testing"

	"github.com/7flash/argilla/internal/models"
	"github.com/google/uuid"
)

func TestDatasetPolicy(t *testing.T) {
	t.Parallel()

	workspaceID := uuid.New()
	dataset := &models.Dataset{ID: uuid.New(), WorkspaceID: workspaceID}

	admin := &models.User{ID: uuid.New(), Role: models.UserRoleAdmin}
	member := &models.User{ID: uuid.New(), Role: models.UserRoleAnnotator, WorkspaceIDs: []uuid.UUID{workspaceID}}
	outsider := &models.User{ID: uuid.New(), Role: models.UserRoleAnnotator, WorkspaceIDs: []uuid.UUID{uuid.New()}}

	tests := []struct {
		name    string
		action  Action
		allowed map[*models.User]bool
	}{
		{name: "list", action: Dataset.List(), allowed: map[*models.User]bool{admin: true, member: true, outsider: true}},
		{name: "get", action: Dataset.Get(dataset), allowed: map[*models.User]bool{admin: true, member: true, outsider: false}},
		{name: "create", action: Dataset.Create(), allowed: map[*models.User]bool{admin: true, member: false, outsider: false}},
		{name: "create field", action: Dataset.CreateField(), allowed: map[*models.User]bool{admin: true, member: false, outsider: false}},
		{name: "create question", action: Dataset.CreateQuestion(), allowed: map[*models.User]bool{admin: true, member: false, outsider: false}},
		{name: "create records", action: Dataset.CreateRecords(), allowed: map[*models.User]bool{admin: true, member: false, outsider: false}},
		{name: "publish", action: Dataset.Publish(), allowed: map[*models.User]bool{admin: true, member: false, outsider: false}},
		{name: "delete", action: Dataset.Delete(), allowed: map[*models.User]bool{admin: true, member: false, outsider: false}},
		{name: "list vector settings", action: VectorSettings.List(dataset), allowed: map[*models.User]bool{admin: true, member: true, outsider: false}},
		{name: "update vector settings", action: VectorSettings.Update(), allowed: map[*models.User]bool{admin: true, member: false, outsider: false}},
		{name: "create response", action: Record.CreateResponse(dataset), allowed: map[*models.User]bool{admin: true, member: true, outsider: false}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			for user, want := range tt.allowed {
				err := Authorize(user, tt.action)
				if want && err != nil {
					t.Errorf("Expected %s role to be allowed, got %v", user.Role, err)
				}
				if !want && !errors.Is(err, ErrForbidden) {
					t.Errorf("Expected %s role to be forbidden, got %v", user.Role, err)
				}
			}
		})
	}
}

func TestAuthorize_NilUser(t *testing.T) {
	t.Parallel()

	if err := Authorize(nil, Dataset.List()); !errors.Is(err, ErrForbidden) {
		t.Errorf("Expected ErrForbidden for nil user, got %v", err)
	}
}

func TestDatasetPolicy_GetNilDataset(t *testing.T) {
	t.Parallel()

	annotator := &models.User{Role: models.UserRoleAnnotator}
	if err := Authorize(annotator, Dataset.Get(nil)); !errors.Is(err, ErrForbidden) {
		t.Errorf("Expected ErrForbidden, got %v", err)
	}
}
