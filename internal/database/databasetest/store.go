// Package databasetest provides in-memory repositories with the same contracts
// as the Postgres ones, for tests of the layers above the database.
package databasetest

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/7flash/argilla/internal/database"
	"github.com/7flash/argilla/internal/models"
	"github.com/google/uuid"
)

// Store holds every table in memory behind one lock
type Store struct {
	mu             sync.Mutex
	users          map[uuid.UUID]*models.User
	datasets       map[uuid.UUID]*models.Dataset
	fields         map[uuid.UUID]*models.Field
	questions      map[uuid.UUID]*models.Question
	records        map[uuid.UUID]*models.Record
	responses      map[uuid.UUID]*models.Response
	vectorSettings map[uuid.UUID]*models.VectorSettings
	seq            int64

	// Err, when set, is returned by every repository call
	Err error
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		users:          make(map[uuid.UUID]*models.User),
		datasets:       make(map[uuid.UUID]*models.Dataset),
		fields:         make(map[uuid.UUID]*models.Field),
		questions:      make(map[uuid.UUID]*models.Question),
		records:        make(map[uuid.UUID]*models.Record),
		responses:      make(map[uuid.UUID]*models.Response),
		vectorSettings: make(map[uuid.UUID]*models.VectorSettings),
	}
}

// SetErr makes every subsequent call fail with err; nil restores normal behaviour
func (s *Store) SetErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Err = err
}

// tick returns strictly increasing timestamps so creation order is stable
func (s *Store) tick() time.Time {
	s.seq++
	return time.Unix(1_700_000_000, 0).Add(time.Duration(s.seq) * time.Millisecond)
}

func notFound(what string) error {
	return fmt.Errorf("%s not found: %w", what, sql.ErrNoRows)
}

func duplicate(what string) error {
	return fmt.Errorf("failed to create %s: %w", what, database.ErrDuplicate)
}

// Users returns the user repository view
func (s *Store) Users() *Users { return &Users{s} }

// Datasets returns the dataset repository view
func (s *Store) Datasets() *Datasets { return &Datasets{s} }

// Fields returns the field repository view
func (s *Store) Fields() *Fields { return &Fields{s} }

// Questions returns the question repository view
func (s *Store) Questions() *Questions { return &Questions{s} }

// Records returns the record repository view
func (s *Store) Records() *Records { return &Records{s} }

// Responses returns the response repository view
func (s *Store) Responses() *Responses { return &Responses{s} }

// VectorSettings returns the vector settings repository view
func (s *Store) VectorSettings() *VectorSettings { return &VectorSettings{s} }

var (
	_ database.UserRepositoryInterface           = (*Users)(nil)
	_ database.DatasetRepositoryInterface        = (*Datasets)(nil)
	_ database.FieldRepositoryInterface          = (*Fields)(nil)
	_ database.QuestionRepositoryInterface       = (*Questions)(nil)
	_ database.RecordRepositoryInterface         = (*Records)(nil)
	_ database.ResponseRepositoryInterface       = (*Responses)(nil)
	_ database.VectorSettingsRepositoryInterface = (*VectorSettings)(nil)
)

// Users is an in-memory UserRepositoryInterface
type Users struct{ s *Store }

func copyUser(u *models.User) *models.User {
	c := *u
	c.WorkspaceIDs = append([]uuid.UUID(nil), u.WorkspaceIDs...)
	return &c
}

func (r *Users) Create(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	for _, u := range r.s.users {
		if u.Username == user.Username || u.APIKey == user.APIKey {
			return duplicate("user")
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := r.s.tick()
	user.InsertedAt, user.UpdatedAt = now, now
	r.s.users[user.ID] = copyUser(user)
	return nil
}

func (r *Users) find(match func(*models.User) bool) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	for _, u := range r.s.users {
		if match(u) {
			return copyUser(u), nil
		}
	}
	return nil, notFound("user")
}

func (r *Users) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.ID == id })
}

func (r *Users) GetByUsername(_ context.Context, username string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Username == username })
}

func (r *Users) GetByAPIKey(_ context.Context, apiKey string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.APIKey == apiKey })
}

func (r *Users) List(_ context.Context) ([]*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	users := make([]*models.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		users = append(users, copyUser(u))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (r *Users) UpdateAPIKey(_ context.Context, id uuid.UUID, apiKey string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	u, ok := r.s.users[id]
	if !ok {
		return notFound("user")
	}
	u.APIKey = apiKey
	u.UpdatedAt = r.s.tick()
	return nil
}

// AddToWorkspace makes the user a member of workspaceID
func (r *Users) AddToWorkspace(userID, workspaceID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return notFound("user")
	}
	if !u.IsMemberOf(workspaceID) {
		u.WorkspaceIDs = append(u.WorkspaceIDs, workspaceID)
	}
	return nil
}

// Datasets is an in-memory DatasetRepositoryInterface
type Datasets struct{ s *Store }

func (r *Datasets) sorted(match func(*models.Dataset) bool) []*models.Dataset {
	out := make([]*models.Dataset, 0)
	for _, d := range r.s.datasets {
		if match(d) {
			c := *d
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InsertedAt.Before(out[j].InsertedAt) })
	return out
}

func (r *Datasets) List(_ context.Context) ([]*models.Dataset, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	return r.sorted(func(*models.Dataset) bool { return true }), nil
}

func (r *Datasets) ListByWorkspaceIDs(_ context.Context, workspaceIDs []uuid.UUID) ([]*models.Dataset, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	member := make(map[uuid.UUID]bool, len(workspaceIDs))
	for _, id := range workspaceIDs {
		member[id] = true
	}
	return r.sorted(func(d *models.Dataset) bool { return member[d.WorkspaceID] }), nil
}

func (r *Datasets) GetByID(_ context.Context, id uuid.UUID) (*models.Dataset, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	d, ok := r.s.datasets[id]
	if !ok {
		return nil, notFound("dataset")
	}
	c := *d
	return &c, nil
}

func (r *Datasets) GetByNameAndWorkspaceID(_ context.Context, name string, workspaceID uuid.UUID) (*models.Dataset, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	for _, d := range r.s.datasets {
		if d.Name == name && d.WorkspaceID == workspaceID {
			c := *d
			return &c, nil
		}
	}
	return nil, notFound("dataset")
}

func (r *Datasets) Create(_ context.Context, dataset *models.Dataset) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	for _, d := range r.s.datasets {
		if d.Name == dataset.Name && d.WorkspaceID == dataset.WorkspaceID {
			return duplicate("dataset")
		}
	}
	if dataset.ID == uuid.Nil {
		dataset.ID = uuid.New()
	}
	if dataset.Status == "" {
		dataset.Status = models.DatasetStatusDraft
	}
	now := r.s.tick()
	dataset.InsertedAt, dataset.UpdatedAt = now, now
	c := *dataset
	r.s.datasets[dataset.ID] = &c
	return nil
}

func (r *Datasets) UpdateStatus(_ context.Context, dataset *models.Dataset, status models.DatasetStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	d, ok := r.s.datasets[dataset.ID]
	if !ok {
		return notFound("dataset")
	}
	d.Status = status
	d.UpdatedAt = r.s.tick()
	dataset.Status, dataset.UpdatedAt = d.Status, d.UpdatedAt
	return nil
}

func (r *Datasets) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	if _, ok := r.s.datasets[id]; !ok {
		return notFound("dataset")
	}
	delete(r.s.datasets, id)
	for fid, f := range r.s.fields {
		if f.DatasetID == id {
			delete(r.s.fields, fid)
		}
	}
	for qid, q := range r.s.questions {
		if q.DatasetID == id {
			delete(r.s.questions, qid)
		}
	}
	for vid, v := range r.s.vectorSettings {
		if v.DatasetID == id {
			delete(r.s.vectorSettings, vid)
		}
	}
	for rid, rec := range r.s.records {
		if rec.DatasetID != id {
			continue
		}
		delete(r.s.records, rid)
		for respID, resp := range r.s.responses {
			if resp.RecordID == rid {
				delete(r.s.responses, respID)
			}
		}
	}
	return nil
}
