package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tolkbridge/dispatch/internal/db/models"
	"github.com/tolkbridge/dispatch/internal/db/repos"
	"github.com/tolkbridge/dispatch/internal/matching"
	"github.com/tolkbridge/dispatch/internal/notify"
)

// memStore is an in-memory JobStore with the same compare-and-set
// semantics as the gorm repository. It lets the lifecycle tests drive
// real races without a database.
type memStore struct {
	mu     sync.Mutex
	jobs   map[uint]models.Job
	nextID uint
}

func newMemStore() *memStore {
	return &memStore{jobs: make(map[uint]models.Job)}
}

func (m *memStore) Create(_ context.Context, job *models.Job) error {
	if err := job.CheckInvariants(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	job.ID = m.nextID
	job.CreatedAt = time.Now()
	m.jobs[job.ID] = *job
	return nil
}

func (m *memStore) GetByID(_ context.Context, id uint) (*models.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job %d: %w", id, repos.ErrJobNotFound)
	}
	copied := job
	return &copied, nil
}

func (m *memStore) CompareAndSet(_ context.Context, job *models.Job) error {
	if err := job.CheckInvariants(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.jobs[job.ID]
	if !ok {
		return fmt.Errorf("job %d: %w", job.ID, repos.ErrJobNotFound)
	}
	if current.Version != job.Version {
		return fmt.Errorf("job %d at version %d: %w", job.ID, job.Version, repos.ErrVersionConflict)
	}
	job.Version++
	job.UpdatedAt = time.Now()
	m.jobs[job.ID] = *job
	return nil
}

func (m *memStore) ListByCustomer(_ context.Context, customerID uint, _ *models.ListOptions) ([]models.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Job
	for _, job := range m.jobs {
		if job.CustomerID == customerID && !job.Status.IsTerminal() {
			out = append(out, job)
		}
	}
	return out, nil
}

func (m *memStore) ListHistory(_ context.Context, customerID uint, _ *models.ListOptions) ([]models.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Job
	for _, job := range m.jobs {
		if job.CustomerID == customerID && job.Status.IsTerminal() {
			out = append(out, job)
		}
	}
	return out, nil
}

func (m *memStore) ListByStatus(_ context.Context, status models.JobStatus, _ *models.ListOptions) ([]models.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Job
	for _, job := range m.jobs {
		if status == models.JobStatusUnknown || job.Status == status {
			out = append(out, job)
		}
	}
	return out, nil
}

// stubMatcher returns a fixed candidate set
type stubMatcher struct {
	candidates []matching.Candidate
	err        error
}

func (s *stubMatcher) FindCandidates(_ context.Context, _ *models.Job) ([]matching.Candidate, error) {
	return s.candidates, s.err
}

func candidates(ids ...uint) []matching.Candidate {
	out := make([]matching.Candidate, len(ids))
	for i, id := range ids {
		out[i] = matching.Candidate{TranslatorID: id, Rank: i + 1}
	}
	return out
}

// stubDirectory resolves translator users by id
type stubDirectory struct {
	users map[uint]*models.User
}

func (s *stubDirectory) GetUserByID(_ context.Context, id uint) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("user %d: %w", id, repos.ErrUserNotFound)
}

// recordingSender records every delivery, keyed by recipient and event
type recordingSender struct {
	mu      sync.Mutex
	sent    []sentMessage
	failFor map[uint]error
}

type sentMessage struct {
	RecipientID uint
	Event       notify.Event
}

func (r *recordingSender) Send(_ context.Context, recipientID uint, payload notify.Payload) error {
	if err, ok := r.failFor[recipientID]; ok {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentMessage{RecipientID: recipientID, Event: payload.Event})
	return nil
}

func (r *recordingSender) recipients(event notify.Event) []uint {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []uint
	for _, msg := range r.sent {
		if msg.Event == event {
			out = append(out, msg.RecipientID)
		}
	}
	return out
}

// newTestService wires a booking service over in-memory collaborators
func newTestService(matcher matching.Engine) (*BookingService, *memStore, *recordingSender, *recordingSender) {
	store := newMemStore()
	push := &recordingSender{}
	sms := &recordingSender{}
	dispatcher := notify.NewDispatcher(push, sms, time.Second)
	svc := NewBookingService(store, &stubDirectory{users: map[uint]*models.User{}}, matcher, dispatcher)
	return svc, store, push, sms
}
