package databasetest

import (
	"context"
	"sort"

	"github.com/7flash/argilla/internal/models"
	"github.com/google/uuid"
)

// Records is an in-memory RecordRepositoryInterface
type Records struct{ s *Store }

func copyRecord(r *models.Record) *models.Record {
	c := *r
	c.Fields = make(map[string]string, len(r.Fields))
	for k, v := range r.Fields {
		c.Fields[k] = v
	}
	c.Responses = nil
	return &c
}

// CreateMany stores all records and their responses, or nothing when any
// response collides
func (r *Records) CreateMany(_ context.Context, records []*models.Record) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}

	seen := make(map[[2]uuid.UUID]bool)
	for _, resp := range r.s.responses {
		seen[[2]uuid.UUID{resp.RecordID, resp.UserID}] = true
	}
	for _, record := range records {
		if record.ID == uuid.Nil {
			record.ID = uuid.New()
		}
		for _, resp := range record.Responses {
			key := [2]uuid.UUID{record.ID, resp.UserID}
			if seen[key] {
				return duplicate("response")
			}
			seen[key] = true
		}
	}

	for _, record := range records {
		now := r.s.tick()
		record.InsertedAt, record.UpdatedAt = now, now
		r.s.records[record.ID] = copyRecord(record)
		for _, resp := range record.Responses {
			resp.RecordID = record.ID
			if resp.ID == uuid.Nil {
				resp.ID = uuid.New()
			}
			resp.InsertedAt, resp.UpdatedAt = now, now
			c := *resp
			r.s.responses[resp.ID] = &c
		}
	}
	return nil
}

func (r *Records) ListByDatasetID(_ context.Context, datasetID uuid.UUID, offset, limit int) ([]*models.Record, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	all := make([]*models.Record, 0)
	for _, rec := range r.s.records {
		if rec.DatasetID == datasetID {
			all = append(all, copyRecord(rec))
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].InsertedAt.Before(all[j].InsertedAt) })
	if offset >= len(all) {
		return []*models.Record{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *Records) CountByDatasetID(_ context.Context, datasetID uuid.UUID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return 0, r.s.Err
	}
	count := 0
	for _, rec := range r.s.records {
		if rec.DatasetID == datasetID {
			count++
		}
	}
	return count, nil
}

func (r *Records) GetByID(_ context.Context, id uuid.UUID) (*models.Record, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	rec, ok := r.s.records[id]
	if !ok {
		return nil, notFound("record")
	}
	return copyRecord(rec), nil
}

// Responses is an in-memory ResponseRepositoryInterface
type Responses struct{ s *Store }

func (r *Responses) Create(_ context.Context, response *models.Response) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	for _, existing := range r.s.responses {
		if existing.RecordID == response.RecordID && existing.UserID == response.UserID {
			return duplicate("response")
		}
	}
	if response.ID == uuid.Nil {
		response.ID = uuid.New()
	}
	now := r.s.tick()
	response.InsertedAt, response.UpdatedAt = now, now
	c := *response
	r.s.responses[response.ID] = &c
	return nil
}

func (r *Responses) ListByRecordIDsAndUserID(_ context.Context, recordIDs []uuid.UUID, userID uuid.UUID) ([]*models.Response, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	wanted := make(map[uuid.UUID]bool, len(recordIDs))
	for _, id := range recordIDs {
		wanted[id] = true
	}
	out := make([]*models.Response, 0)
	for _, resp := range r.s.responses {
		if wanted[resp.RecordID] && resp.UserID == userID {
			c := *resp
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *Responses) CountByDatasetIDAndUserID(_ context.Context, datasetID, userID uuid.UUID, status *models.ResponseStatus) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return 0, r.s.Err
	}
	count := 0
	for _, resp := range r.s.responses {
		rec, ok := r.s.records[resp.RecordID]
		if !ok || rec.DatasetID != datasetID || resp.UserID != userID {
			continue
		}
		if status != nil && resp.Status != *status {
			continue
		}
		count++
	}
	return count, nil
}
