package databasetest

import (
	"context"
	"sort"

	"github.com/7flash/argilla/internal/models"
	"github.com/google/uuid"
)

// Fields is an in-memory FieldRepositoryInterface
type Fields struct{ s *Store }

func (r *Fields) ListByDatasetID(_ context.Context, datasetID uuid.UUID) ([]*models.Field, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	out := make([]*models.Field, 0)
	for _, f := range r.s.fields {
		if f.DatasetID == datasetID {
			c := *f
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InsertedAt.Before(out[j].InsertedAt) })
	return out, nil
}

func (r *Fields) GetByNameAndDatasetID(_ context.Context, name string, datasetID uuid.UUID) (*models.Field, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	for _, f := range r.s.fields {
		if f.Name == name && f.DatasetID == datasetID {
			c := *f
			return &c, nil
		}
	}
	return nil, notFound("field")
}

func (r *Fields) Create(_ context.Context, field *models.Field) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	for _, f := range r.s.fields {
		if f.Name == field.Name && f.DatasetID == field.DatasetID {
			return duplicate("field")
		}
	}
	if field.ID == uuid.Nil {
		field.ID = uuid.New()
	}
	now := r.s.tick()
	field.InsertedAt, field.UpdatedAt = now, now
	c := *field
	r.s.fields[field.ID] = &c
	return nil
}

// Questions is an in-memory QuestionRepositoryInterface
type Questions struct{ s *Store }

func (r *Questions) ListByDatasetID(_ context.Context, datasetID uuid.UUID) ([]*models.Question, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	out := make([]*models.Question, 0)
	for _, q := range r.s.questions {
		if q.DatasetID == datasetID {
			c := *q
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InsertedAt.Before(out[j].InsertedAt) })
	return out, nil
}

func (r *Questions) GetByNameAndDatasetID(_ context.Context, name string, datasetID uuid.UUID) (*models.Question, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	for _, q := range r.s.questions {
		if q.Name == name && q.DatasetID == datasetID {
			c := *q
			return &c, nil
		}
	}
	return nil, notFound("question")
}

func (r *Questions) Create(_ context.Context, question *models.Question) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	for _, q := range r.s.questions {
		if q.Name == question.Name && q.DatasetID == question.DatasetID {
			return duplicate("question")
		}
	}
	if question.ID == uuid.Nil {
		question.ID = uuid.New()
	}
	now := r.s.tick()
	question.InsertedAt, question.UpdatedAt = now, now
	c := *question
	r.s.questions[question.ID] = &c
	return nil
}

// VectorSettings is an in-memory VectorSettingsRepositoryInterface
type VectorSettings struct{ s *Store }

func (r *VectorSettings) ListByDatasetID(_ context.Context, datasetID uuid.UUID) ([]*models.VectorSettings, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	out := make([]*models.VectorSettings, 0)
	for _, v := range r.s.vectorSettings {
		if v.DatasetID == datasetID {
			c := *v
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InsertedAt.Before(out[j].InsertedAt) })
	return out, nil
}

func (r *VectorSettings) GetByID(_ context.Context, id uuid.UUID) (*models.VectorSettings, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	v, ok := r.s.vectorSettings[id]
	if !ok {
		return nil, notFound("vector settings")
	}
	c := *v
	return &c, nil
}

func (r *VectorSettings) GetByNameAndDatasetID(_ context.Context, name string, datasetID uuid.UUID) (*models.VectorSettings, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	for _, v := range r.s.vectorSettings {
		if v.Name == name && v.DatasetID == datasetID {
			c := *v
			return &c, nil
		}
	}
	return nil, notFound("vector settings")
}

func (r *VectorSettings) Create(_ context.Context, vs *models.VectorSettings) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	for _, v := range r.s.vectorSettings {
		if v.Name == vs.Name && v.DatasetID == vs.DatasetID {
			return duplicate("vector settings")
		}
	}
	if vs.ID == uuid.Nil {
		vs.ID = uuid.New()
	}
	now := r.s.tick()
	vs.InsertedAt, vs.UpdatedAt = now, now
	c := *vs
	r.s.vectorSettings[vs.ID] = &c
	return nil
}

func (r *VectorSettings) UpdateTitle(_ context.Context, vs *models.VectorSettings, title string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	v, ok := r.s.vectorSettings[vs.ID]
	if !ok {
		return notFound("vector settings")
	}
	v.Title = title
	v.UpdatedAt = r.s.tick()
	vs.Title, vs.UpdatedAt = v.Title, v.UpdatedAt
	return nil
}

func (r *VectorSettings) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	if _, ok := r.s.vectorSettings[id]; !ok {
		return notFound("vector settings")
	}
	delete(r.s.vectorSettings, id)
	return nil
}
