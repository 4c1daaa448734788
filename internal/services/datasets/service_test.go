package datasets

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/7flash/argilla/internal/database/databasetest"
	"github.com/7flash/argilla/internal/models"
	"github.com/google/uuid"
)

type fakeIndexer struct {
	created   []uuid.UUID
	deleted   []uuid.UUID
	createErr error
}

func (f *fakeIndexer) CreateIndex(_ context.Context, dataset *models.Dataset) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, dataset.ID)
	return nil
}

func (f *fakeIndexer) DeleteIndex(_ context.Context, dataset *models.Dataset) error {
	f.deleted = append(f.deleted, dataset.ID)
	return nil
}

func newTestService(t *testing.T) (*Service, *databasetest.Store, *fakeIndexer) {
	t.Helper()
	store := databasetest.NewStore()
	indexer := &fakeIndexer{}
	svc := NewService(Repositories{
		Datasets:       store.Datasets(),
		Fields:         store.Fields(),
		Questions:      store.Questions(),
		Records:        store.Records(),
		Responses:      store.Responses(),
		VectorSettings: store.VectorSettings(),
	}, indexer, nil)
	return svc, store, indexer
}

func intPtr(i int) *int { return &i }

func createDataset(t *testing.T, svc *Service, name string, workspaceID uuid.UUID) *models.Dataset {
	t.Helper()
	ds, err := svc.CreateDataset(context.Background(), models.DatasetCreate{Name: name, WorkspaceID: workspaceID})
	if err != nil {
		t.Fatalf("CreateDataset() error = %v", err)
	}
	return ds
}

// publishedDataset builds a dataset with a required text field and a required
// rating question and publishes it
func publishedDataset(t *testing.T, svc *Service) *models.Dataset {
	t.Helper()
	ctx := context.Background()
	ds := createDataset(t, svc, "reviews", uuid.New())
	if _, err := svc.CreateField(ctx, ds, models.FieldCreate{
		Name: "text", Title: "Text", Required: true,
		Settings: models.FieldSettings{Type: models.FieldTypeText},
	}); err != nil {
		t.Fatalf("CreateField() error = %v", err)
	}
	if _, err := svc.CreateQuestion(ctx, ds, models.QuestionCreate{
		Name: "quality", Title: "Quality", Required: true,
		Settings: models.QuestionSettings{
			Type:    models.QuestionTypeRating,
			Options: []models.QuestionOption{{Value: 1}, {Value: 2}, {Value: 3}},
		},
	}); err != nil {
		t.Fatalf("CreateQuestion() error = %v", err)
	}
	published, err := svc.PublishDataset(ctx, ds)
	if err != nil {
		t.Fatalf("PublishDataset() error = %v", err)
	}
	return published
}

func TestCreateDataset(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	ws := uuid.New()

	ds := createDataset(t, svc, "my dataset", ws)
	if ds.Status != models.DatasetStatusDraft {
		t.Errorf("Expected status draft, got %s", ds.Status)
	}
	if ds.ID == uuid.Nil {
		t.Error("Expected dataset ID to be set")
	}

	_, err := svc.CreateDataset(ctx, models.DatasetCreate{Name: "my dataset", WorkspaceID: ws})
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("Expected ErrAlreadyExists, got %v", err)
	}
	want := "Dataset with name `my dataset` already exists for workspace with id `" + ws.String() + "`"
	if err.Error() != want {
		t.Errorf("Expected message %q, got %q", want, err.Error())
	}

	if _, err := svc.CreateDataset(ctx, models.DatasetCreate{Name: "my dataset", WorkspaceID: uuid.New()}); err != nil {
		t.Errorf("Expected same name in another workspace to succeed, got %v", err)
	}
}

func TestGetDatasetNotFound(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)
	id := uuid.New()

	_, err := svc.GetDataset(context.Background(), id)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), id.String()) {
		t.Errorf("Expected message to name the dataset id, got %q", err.Error())
	}
}

func TestListDatasets(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)
	ws1, ws2 := uuid.New(), uuid.New()
	createDataset(t, svc, "one", ws1)
	createDataset(t, svc, "two", ws2)

	tests := []struct {
		name string
		user *models.User
		want int
	}{
		{"admin sees all", &models.User{Role: models.UserRoleAdmin}, 2},
		{"annotator sees own workspace", &models.User{Role: models.UserRoleAnnotator, WorkspaceIDs: []uuid.UUID{ws1}}, 1},
		{"annotator without workspaces", &models.User{Role: models.UserRoleAnnotator}, 0},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ListDatasets(context.Background(), tt.user)
			if err != nil {
				t.Fatalf("ListDatasets() error = %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("Expected %d datasets, got %d", tt.want, len(got))
			}
		})
	}
}

func TestCreateFieldRules(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	ds := createDataset(t, svc, "fields", uuid.New())
	input := models.FieldCreate{Name: "text", Title: "Text", Settings: models.FieldSettings{Type: models.FieldTypeText}}

	if _, err := svc.CreateField(ctx, ds, input); err != nil {
		t.Fatalf("CreateField() error = %v", err)
	}
	if _, err := svc.CreateField(ctx, ds, input); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("Expected ErrAlreadyExists for duplicate field, got %v", err)
	}

	ready := *ds
	ready.Status = models.DatasetStatusReady
	input.Name = "other"
	_, err := svc.CreateField(ctx, &ready, input)
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("Expected ErrInvalid for published dataset, got %v", err)
	}
	if err.Error() != "Field cannot be created for a published dataset" {
		t.Errorf("Unexpected message %q", err.Error())
	}
}

func TestCreateQuestionSettings(t *testing.T) {
	t.Parallel()

	labels := func(values ...any) []models.QuestionOption {
		opts := make([]models.QuestionOption, len(values))
		for i, v := range values {
			opts[i] = models.QuestionOption{Value: v}
		}
		return opts
	}

	tests := []struct {
		name     string
		settings models.QuestionSettings
		wantErr  bool
	}{
		{"text", models.QuestionSettings{Type: models.QuestionTypeText}, false},
		{"text with options", models.QuestionSettings{Type: models.QuestionTypeText, Options: labels("a", "b")}, true},
		{"rating", models.QuestionSettings{Type: models.QuestionTypeRating, Options: labels(1, 2, 3)}, false},
		{"rating json numbers", models.QuestionSettings{Type: models.QuestionTypeRating, Options: labels(1.0, 2.0)}, false},
		{"rating one option", models.QuestionSettings{Type: models.QuestionTypeRating, Options: labels(1)}, true},
		{"rating repeated", models.QuestionSettings{Type: models.QuestionTypeRating, Options: labels(1, 1)}, true},
		{"rating fractional", models.QuestionSettings{Type: models.QuestionTypeRating, Options: labels(1, 2.5)}, true},
		{"label", models.QuestionSettings{Type: models.QuestionTypeLabelSelection, Options: labels("pos", "neg")}, false},
		{"label empty value", models.QuestionSettings{Type: models.QuestionTypeLabelSelection, Options: labels("pos", "")}, true},
		{"label repeated", models.QuestionSettings{Type: models.QuestionTypeMultiLabelSelection, Options: labels("a", "a")}, true},
		{"visible options within range", models.QuestionSettings{Type: models.QuestionTypeLabelSelection, Options: labels("a", "b", "c"), VisibleOptions: intPtr(3)}, false},
		{"visible options above range", models.QuestionSettings{Type: models.QuestionTypeLabelSelection, Options: labels("a", "b", "c"), VisibleOptions: intPtr(4)}, true},
		{"unknown type", models.QuestionSettings{Type: "span"}, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc, _, _ := newTestService(t)
			ds := createDataset(t, svc, "questions", uuid.New())
			_, err := svc.CreateQuestion(context.Background(), ds, models.QuestionCreate{
				Name: "q", Title: "Q", Settings: tt.settings,
			})
			if tt.wantErr {
				if !errors.Is(err, ErrInvalid) {
					t.Errorf("Expected ErrInvalid, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}

func TestPublishDataset(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("without fields", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newTestService(t)
		ds := createDataset(t, svc, "empty", uuid.New())
		_, err := svc.PublishDataset(ctx, ds)
		if err == nil || err.Error() != "Dataset cannot be published without fields" {
			t.Errorf("Unexpected error %v", err)
		}
	})

	t.Run("without required questions", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newTestService(t)
		ds := createDataset(t, svc, "noq", uuid.New())
		if _, err := svc.CreateField(ctx, ds, models.FieldCreate{Name: "text", Title: "Text", Settings: models.FieldSettings{Type: models.FieldTypeText}}); err != nil {
			t.Fatal(err)
		}
		if _, err := svc.CreateQuestion(ctx, ds, models.QuestionCreate{Name: "note", Title: "Note", Settings: models.QuestionSettings{Type: models.QuestionTypeText}}); err != nil {
			t.Fatal(err)
		}
		_, err := svc.PublishDataset(ctx, ds)
		if err == nil || err.Error() != "Dataset cannot be published without required questions" {
			t.Errorf("Unexpected error %v", err)
		}
	})

	t.Run("publishes and requests index", func(t *testing.T) {
		t.Parallel()
		svc, _, indexer := newTestService(t)
		ds := publishedDataset(t, svc)
		if ds.Status != models.DatasetStatusReady {
			t.Errorf("Expected status ready, got %s", ds.Status)
		}
		if len(indexer.created) != 1 || indexer.created[0] != ds.ID {
			t.Errorf("Expected one index request for %s, got %v", ds.ID, indexer.created)
		}
		if _, err := svc.PublishDataset(ctx, ds); !errors.Is(err, ErrInvalid) {
			t.Errorf("Expected ErrInvalid when publishing twice, got %v", err)
		}
	})

	t.Run("rolls back when indexing fails", func(t *testing.T) {
		t.Parallel()
		svc, _, indexer := newTestService(t)
		indexer.createErr = errors.New("broker down")
		ds := createDataset(t, svc, "rollback", uuid.New())
		if _, err := svc.CreateField(ctx, ds, models.FieldCreate{Name: "text", Title: "Text", Settings: models.FieldSettings{Type: models.FieldTypeText}}); err != nil {
			t.Fatal(err)
		}
		if _, err := svc.CreateQuestion(ctx, ds, models.QuestionCreate{Name: "note", Title: "Note", Required: true, Settings: models.QuestionSettings{Type: models.QuestionTypeText}}); err != nil {
			t.Fatal(err)
		}
		if _, err := svc.PublishDataset(ctx, ds); err == nil {
			t.Fatal("Expected publish to fail")
		}
		stored, err := svc.GetDataset(ctx, ds.ID)
		if err != nil {
			t.Fatal(err)
		}
		if stored.Status != models.DatasetStatusDraft {
			t.Errorf("Expected status draft after rollback, got %s", stored.Status)
		}
	})
}

func TestCreateRecords(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	user := &models.User{ID: uuid.New(), Role: models.UserRoleAdmin}

	t.Run("draft dataset", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newTestService(t)
		ds := createDataset(t, svc, "draft", uuid.New())
		err := svc.CreateRecords(ctx, ds, user, models.RecordsCreate{Items: []models.RecordCreate{{Fields: map[string]string{"text": "a"}}}})
		if err == nil || err.Error() != "Records cannot be created for a non published dataset" {
			t.Errorf("Unexpected error %v", err)
		}
	})

	tests := []struct {
		name    string
		items   []models.RecordCreate
		wantErr string
	}{
		{
			name:  "valid batch",
			items: []models.RecordCreate{{Fields: map[string]string{"text": "a"}}, {Fields: map[string]string{"text": "b"}}},
		},
		{
			name:    "missing required field",
			items:   []models.RecordCreate{{Fields: map[string]string{}}},
			wantErr: "missing required value for field: `text`",
		},
		{
			name:    "unknown field",
			items:   []models.RecordCreate{{Fields: map[string]string{"text": "a", "zz": "b", "extra": "c"}}},
			wantErr: "found fields values for non configured fields: [`extra`, `zz`]",
		},
		{
			name: "with response",
			items: []models.RecordCreate{{
				Fields: map[string]string{"text": "a"},
				Response: &models.ResponseCreate{
					Status: models.ResponseStatusSubmitted,
					Values: map[string]models.ResponseValue{"quality": {Value: 2.0}},
				},
			}},
		},
		{
			name: "with invalid response",
			items: []models.RecordCreate{{
				Fields: map[string]string{"text": "a"},
				Response: &models.ResponseCreate{
					Status: models.ResponseStatusSubmitted,
					Values: map[string]models.ResponseValue{"quality": {Value: 7.0}},
				},
			}},
			wantErr: "is not a valid rating",
		},
		{
			name:    "empty batch",
			items:   nil,
			wantErr: "between 1 and 1000",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc, _, _ := newTestService(t)
			ds := publishedDataset(t, svc)
			err := svc.CreateRecords(ctx, ds, user, models.RecordsCreate{Items: tt.items})
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Expected no error, got %v", err)
				}
				page, err := svc.ListUserRecords(ctx, ds, user, nil, 0, ListRecordsLimitDefault)
				if err != nil {
					t.Fatal(err)
				}
				if page.Total != len(tt.items) {
					t.Errorf("Expected %d records, got %d", len(tt.items), page.Total)
				}
				return
			}
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("Expected ErrInvalid, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected message containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestListUserRecordsAndMetrics(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	ds := publishedDataset(t, svc)
	owner := &models.User{ID: uuid.New(), Role: models.UserRoleAdmin}
	other := &models.User{ID: uuid.New(), Role: models.UserRoleAnnotator, WorkspaceIDs: []uuid.UUID{ds.WorkspaceID}}

	items := []models.RecordCreate{
		{Fields: map[string]string{"text": "a"}, Response: &models.ResponseCreate{Status: models.ResponseStatusSubmitted, Values: map[string]models.ResponseValue{"quality": {Value: 1}}}},
		{Fields: map[string]string{"text": "b"}, Response: &models.ResponseCreate{Status: models.ResponseStatusDiscarded}},
		{Fields: map[string]string{"text": "c"}},
	}
	if err := svc.CreateRecords(ctx, ds, owner, models.RecordsCreate{Items: items}); err != nil {
		t.Fatalf("CreateRecords() error = %v", err)
	}

	page, err := svc.ListUserRecords(ctx, ds, owner, []models.RecordInclude{models.RecordIncludeResponses}, 1, 1)
	if err != nil {
		t.Fatalf("ListUserRecords() error = %v", err)
	}
	if page.Total != 3 || len(page.Items) != 1 {
		t.Fatalf("Expected 1 of 3 records, got %d of %d", len(page.Items), page.Total)
	}
	if page.Items[0].Fields["text"] != "b" {
		t.Errorf("Expected second record, got %v", page.Items[0].Fields)
	}
	if len(page.Items[0].Responses) != 1 || page.Items[0].Responses[0].Status != models.ResponseStatusDiscarded {
		t.Errorf("Expected the owner's discarded response, got %v", page.Items[0].Responses)
	}

	page, err = svc.ListUserRecords(ctx, ds, other, []models.RecordInclude{models.RecordIncludeResponses}, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range page.Items {
		if len(r.Responses) != 0 {
			t.Errorf("Expected no responses for another user, got %d", len(r.Responses))
		}
	}

	if _, err := svc.ListUserRecords(ctx, ds, owner, nil, 0, ListRecordsLimitMax+1); !errors.Is(err, ErrInvalid) {
		t.Errorf("Expected ErrInvalid for limit above max, got %v", err)
	}

	metrics, err := svc.Metrics(ctx, ds, owner)
	if err != nil {
		t.Fatalf("Metrics() error = %v", err)
	}
	if metrics.Records.Count != 3 {
		t.Errorf("Expected 3 records, got %d", metrics.Records.Count)
	}
	if metrics.Responses.Count != 2 || metrics.Responses.Submitted != 1 || metrics.Responses.Discarded != 1 {
		t.Errorf("Unexpected response metrics %+v", metrics.Responses)
	}
}

func TestCreateResponse(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	ds := publishedDataset(t, svc)
	user := &models.User{ID: uuid.New(), Role: models.UserRoleAdmin}
	if err := svc.CreateRecords(ctx, ds, user, models.RecordsCreate{Items: []models.RecordCreate{{Fields: map[string]string{"text": "a"}}}}); err != nil {
		t.Fatal(err)
	}
	page, err := svc.ListUserRecords(ctx, ds, user, nil, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	record, err := svc.GetRecord(ctx, page.Items[0].ID)
	if err != nil {
		t.Fatalf("GetRecord() error = %v", err)
	}

	if _, err := svc.CreateResponse(ctx, record, user, models.ResponseCreate{Status: models.ResponseStatusSubmitted}); !errors.Is(err, ErrInvalid) {
		t.Errorf("Expected ErrInvalid for submitted response without required answers, got %v", err)
	}

	input := models.ResponseCreate{Status: models.ResponseStatusSubmitted, Values: map[string]models.ResponseValue{"quality": {Value: 3.0}}}
	resp, err := svc.CreateResponse(ctx, record, user, input)
	if err != nil {
		t.Fatalf("CreateResponse() error = %v", err)
	}
	if resp.RecordID != record.ID || resp.UserID != user.ID {
		t.Errorf("Response not linked to record and user: %+v", resp)
	}
	if _, err := svc.CreateResponse(ctx, record, user, input); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("Expected ErrAlreadyExists for second response, got %v", err)
	}

	if _, err := svc.GetRecord(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown record, got %v", err)
	}
}

func TestDeleteDataset(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, indexer := newTestService(t)
	ds := publishedDataset(t, svc)

	if err := svc.DeleteDataset(ctx, ds); err != nil {
		t.Fatalf("DeleteDataset() error = %v", err)
	}
	if len(indexer.deleted) != 1 {
		t.Errorf("Expected one index delete request, got %d", len(indexer.deleted))
	}
	if _, err := svc.GetDataset(ctx, ds.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected dataset to be gone, got %v", err)
	}
	fields, err := svc.ListFields(ctx, ds)
	if err != nil {
		t.Fatal(err)
	}
	if len(fields) != 0 {
		t.Errorf("Expected fields to be removed with the dataset, got %d", len(fields))
	}
	if err := svc.DeleteDataset(ctx, ds); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}

func TestVectorSettingsLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	ds := createDataset(t, svc, "vectors", uuid.New())
	input := models.VectorSettingsCreate{Name: "sentence-embedding", Title: "Sentence", Dimensions: 384}

	vs, err := svc.CreateVectorSettings(ctx, ds, input)
	if err != nil {
		t.Fatalf("CreateVectorSettings() error = %v", err)
	}
	if _, err := svc.CreateVectorSettings(ctx, ds, input); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("Expected ErrAlreadyExists, got %v", err)
	}

	title := "Renamed"
	updated, err := svc.UpdateVectorSettings(ctx, vs, models.VectorSettingsUpdate{Title: &title})
	if err != nil {
		t.Fatalf("UpdateVectorSettings() error = %v", err)
	}
	if updated.Title != title || updated.Dimensions != 384 || updated.Name != input.Name {
		t.Errorf("Expected only the title to change, got %+v", updated)
	}
	if _, err := svc.UpdateVectorSettings(ctx, vs, models.VectorSettingsUpdate{}); !errors.Is(err, ErrInvalid) {
		t.Errorf("Expected ErrInvalid for null title, got %v", err)
	}

	list, err := svc.ListVectorSettings(ctx, ds)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Title != title {
		t.Errorf("Unexpected vector settings list %+v", list)
	}

	if err := svc.DeleteVectorSettings(ctx, vs); err != nil {
		t.Fatalf("DeleteVectorSettings() error = %v", err)
	}
	if _, err := svc.GetVectorSettings(ctx, vs.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}

	ready := *ds
	ready.Status = models.DatasetStatusReady
	if _, err := svc.CreateVectorSettings(ctx, &ready, models.VectorSettingsCreate{Name: "other", Title: "Other", Dimensions: 2}); !errors.Is(err, ErrInvalid) {
		t.Errorf("Expected ErrInvalid for published dataset, got %v", err)
	}
}
