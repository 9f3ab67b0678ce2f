package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"grantapp/internal/application/models"
	"grantapp/pkg/platform/sentinel"
)

// InMemoryStore keeps applications in process memory. It backs tests and
// local runs without a database.
type InMemoryStore struct {
	mu          sync.RWMutex
	nextID      int64
	byID        map[int64]*models.Application
	byReference map[string]int64
	now         func() time.Time
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		byID:        make(map[int64]*models.Application),
		byReference: make(map[string]int64),
		now:         time.Now,
	}
}

func (s *InMemoryStore) Create(_ context.Context, fields *models.Fields) (*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byReference[fields.Reference]; exists {
		return nil, fmt.Errorf("reference %s: %w", fields.Reference, sentinel.ErrConflict)
	}

	s.nextID++
	now := s.now()
	app := &models.Application{
		ID:        s.nextID,
		Fields:    *cloneFields(fields),
		Status:    models.StatusSubmitted,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.byID[app.ID] = app
	s.byReference[app.Reference] = app.ID
	return cloneApplication(app), nil
}

func (s *InMemoryStore) FindByReference(_ context.Context, reference string) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byReference[reference]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneApplication(s.byID[id]), nil
}

func (s *InMemoryStore) MarkAdminNotified(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.byID[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	app.AdminNotifiedAt = &at
	app.UpdatedAt = at
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.byID[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byReference, app.Reference)
	delete(s.byID, id)
	return nil
}

func (s *InMemoryStore) Ping(context.Context) error {
	return nil
}

// Count returns the number of stored applications.
func (s *InMemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

func cloneFields(f *models.Fields) *models.Fields {
	out := *f
	if f.NoOfCards != nil {
		n := *f.NoOfCards
		out.NoOfCards = &n
	}
	return &out
}

func cloneApplication(a *models.Application) *models.Application {
	out := *a
	out.Fields = *cloneFields(&a.Fields)
	if a.AdminNotifiedAt != nil {
		t := *a.AdminNotifiedAt
		out.AdminNotifiedAt = &t
	}
	return &out
}
