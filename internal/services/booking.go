package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tolkbridge/dispatch/internal/db/models"
	"github.com/tolkbridge/dispatch/internal/db/repos"
	"github.com/tolkbridge/dispatch/internal/logger"
	"github.com/tolkbridge/dispatch/internal/matching"
	"github.com/tolkbridge/dispatch/internal/notify"
	"github.com/tolkbridge/dispatch/internal/types"
)

// JobStore is the transactional persistence contract the engine commits
// through. Implemented by repos.JobRepository; test doubles implement it
// in memory.
type JobStore interface {
	Create(ctx context.Context, job *models.Job) error
	GetByID(ctx context.Context, id uint) (*models.Job, error)
	CompareAndSet(ctx context.Context, job *models.Job) error
	ListByCustomer(ctx context.Context, customerID uint, opts *models.ListOptions) ([]models.Job, error)
	ListHistory(ctx context.Context, customerID uint, opts *models.ListOptions) ([]models.Job, error)
	ListByStatus(ctx context.Context, status models.JobStatus, opts *models.ListOptions) ([]models.Job, error)
}

// Notifier dispatches a booking event to a set of translators and
// reports one attempt per recipient
type Notifier interface {
	Notify(ctx context.Context, jobID uint, recipients []uint, event notify.Event, channel notify.Channel, message string) []notify.Attempt
}

// TranslatorDirectory supplies translator identities for read-side
// queries. Implemented by repos.UserRepository.
type TranslatorDirectory interface {
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
}

// OfferResult reports the outcome of an offer fan-out. An empty
// candidate set is a reportable condition, not an error: the booking
// stays in created and NoEligibleTranslators is set.
type OfferResult struct {
	Job                   *models.Job      `json:"job"`
	Attempts              []notify.Attempt `json:"attempts,omitempty"`
	NoEligibleTranslators bool             `json:"no_eligible_translators,omitempty"`
}

// BookingService is the lifecycle controller: it validates and applies
// booking transitions, enforcing the at-most-one-acceptor invariant, and
// orchestrates matching and notification around each transition. All
// commits go through the store's compare-and-set; no locks are held
// across a dispatch.
type BookingService struct {
	jobs     JobStore
	users    TranslatorDirectory
	matcher  matching.Engine
	notifier Notifier
}

// NewBookingService creates a new booking service instance
func NewBookingService(jobs JobStore, users TranslatorDirectory, matcher matching.Engine, notifier Notifier) *BookingService {
	return &BookingService{jobs: jobs, users: users, matcher: matcher, notifier: notifier}
}

// CreateJob inserts a new booking in created state. Immediate bookings
// are offered in the same call.
func (s *BookingService) CreateJob(ctx context.Context, customerID uint, req *types.CreateJobRequest) (*OfferResult, error) {
	job := &models.Job{
		CustomerID:        customerID,
		Status:            models.JobStatusCreated,
		LanguageFrom:      req.LanguageFrom,
		LanguageTo:        req.LanguageTo,
		CertifiedRequired: req.CertifiedRequired,
		Immediate:         req.Immediate,
		DueAt:             req.DueAt,
		CustomerEmail:     req.CustomerEmail,
		Reference:         req.Reference,
	}
	if job.Immediate && job.DueAt.IsZero() {
		job.DueAt = time.Now().UTC()
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	logger.InfoWithFields("booking created", map[string]interface{}{
		"job_id":      job.ID,
		"customer_id": customerID,
		"immediate":   job.Immediate,
	})

	if job.Immediate {
		return s.OfferJob(ctx, job.ID)
	}
	return &OfferResult{Job: job}, nil
}

// OfferJob presents a created booking to its candidate translators and
// transitions it to offered. With zero candidates the booking remains
// created and the result reports the condition.
func (s *BookingService) OfferJob(ctx context.Context, jobID uint) (*OfferResult, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}

	to, err := nextStatus(job.Status, eventOffer)
	if err != nil {
		return nil, err
	}

	candidates, err := s.matcher.FindCandidates(ctx, job)
	if err != nil {
		return nil, fmt.Errorf("matching failed: %w", err)
	}
	if len(candidates) == 0 {
		logger.InfoWithFields("no eligible translators", map[string]interface{}{"job_id": job.ID})
		return &OfferResult{Job: job, NoEligibleTranslators: true}, nil
	}

	attempts := s.notifier.Notify(ctx, job.ID, candidateIDs(candidates),
		notify.EventJobOffered, notify.ChannelPush, offerMessage(job))

	job.Status = to
	if err := s.commit(ctx, job); err != nil {
		return nil, err
	}
	return &OfferResult{Job: job, Attempts: attempts}, nil
}

// AcceptJob claims the acceptance slot for a translator. The race
// between concurrent acceptors is resolved by the store's
// compare-and-set: exactly one caller wins, the rest get ErrAlreadyTaken
// and must not retry. The winner triggers a best-effort "job taken"
// notice to the remaining candidates.
func (s *BookingService) AcceptJob(ctx context.Context, jobID, translatorID uint) (*models.Job, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}

	to, err := nextStatus(job.Status, eventAccept)
	if err != nil {
		if job.Status == models.JobStatusAccepted || job.Status == models.JobStatusInProgress ||
			job.Status == models.JobStatusCompleted {
			return nil, ErrAlreadyTaken
		}
		return nil, err
	}

	job.Status = to
	job.AcceptedTranslatorID = &translatorID
	if err := s.jobs.CompareAndSet(ctx, job); err != nil {
		if !errors.Is(err, repos.ErrVersionConflict) {
			return nil, fmt.Errorf("failed to commit acceptance: %w", err)
		}
		// Lost the commit. If the slot is gone the race is over for
		// this caller; otherwise it was an unrelated write and a retry
		// with fresh state is fine.
		fresh, ferr := s.jobs.GetByID(ctx, jobID)
		if ferr == nil && fresh.Status != models.JobStatusOffered {
			return nil, ErrAlreadyTaken
		}
		return nil, ErrConcurrentModification
	}

	logger.InfoWithFields("booking accepted", map[string]interface{}{
		"job_id":        job.ID,
		"translator_id": translatorID,
	})

	s.notifyJobTaken(ctx, job, translatorID)
	return job, nil
}

// notifyJobTaken tells the losing candidates to stop trying. Best
// effort: outcomes are logged, never surfaced.
func (s *BookingService) notifyJobTaken(ctx context.Context, job *models.Job, winnerID uint) {
	candidates, err := s.matcher.FindCandidates(ctx, job)
	if err != nil {
		logger.Warnf("could not resolve candidates for job-taken notice on job %d: %v", job.ID, err)
		return
	}
	var remaining []uint
	for _, c := range candidates {
		if c.TranslatorID != winnerID {
			remaining = append(remaining, c.TranslatorID)
		}
	}
	s.notifier.Notify(ctx, job.ID, remaining, notify.EventJobTaken, notify.ChannelPush,
		fmt.Sprintf("Booking #%d is no longer available", job.ID))
}

// StartJob begins the translation session for the accepted translator
func (s *BookingService) StartJob(ctx context.Context, jobID, translatorID uint) (*models.Job, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}

	to, err := nextStatus(job.Status, eventStart)
	if err != nil {
		return nil, err
	}
	if job.AcceptedTranslatorID == nil || *job.AcceptedTranslatorID != translatorID {
		return nil, ErrNotAssignedTranslator
	}

	now := time.Now().UTC()
	job.Status = to
	job.StartedAt = &now
	if err := s.commit(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// CancelJob cancels a booking from any non-terminal state. An accepted
// translator is notified after the commit; the acceptance slot is
// released.
func (s *BookingService) CancelJob(ctx context.Context, jobID uint, actor types.Actor) (*models.Job, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}

	to, err := nextStatus(job.Status, eventCancel)
	if err != nil {
		return nil, err
	}

	var acceptedID *uint
	if job.AcceptedTranslatorID != nil {
		id := *job.AcceptedTranslatorID
		acceptedID = &id
	}

	job.Status = to
	job.AcceptedTranslatorID = nil
	job.ByAdmin = actor.IsAdmin()
	if err := s.commit(ctx, job); err != nil {
		return nil, err
	}

	logger.InfoWithFields("booking cancelled", map[string]interface{}{
		"job_id":   job.ID,
		"actor_id": actor.ID,
		"by_admin": job.ByAdmin,
	})

	if acceptedID != nil {
		s.notifier.Notify(ctx, job.ID, []uint{*acceptedID}, notify.EventJobCancelled,
			notify.ChannelPush, fmt.Sprintf("Booking #%d was cancelled", job.ID))
	}
	return job, nil
}

// EndJob completes an accepted or in-progress booking. When the session
// was started and no session time was fed in, the elapsed time is
// recorded.
func (s *BookingService) EndJob(ctx context.Context, jobID uint) (*models.Job, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}

	to, err := nextStatus(job.Status, eventEnd)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	job.Status = to
	job.CompletedAt = &now
	if job.SessionTime == nil && job.StartedAt != nil {
		minutes := int64(now.Sub(*job.StartedAt).Minutes())
		job.SessionTime = &minutes
	}
	if err := s.commit(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// ReopenJob returns a cancelled or no-show booking to created, clearing
// the acceptance slot and session timestamps. The booking is then
// eligible for a fresh offer.
func (s *BookingService) ReopenJob(ctx context.Context, jobID uint) (*models.Job, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}

	to, err := nextStatus(job.Status, eventReopen)
	if err != nil {
		return nil, err
	}

	job.Status = to
	job.AcceptedTranslatorID = nil
	job.StartedAt = nil
	job.CompletedAt = nil
	if err := s.commit(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// MarkCustomerNoShow records that the translator was present but the
// customer was not. Only valid for accepted bookings.
func (s *BookingService) MarkCustomerNoShow(ctx context.Context, jobID uint) (*models.Job, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}

	to, err := nextStatus(job.Status, eventNoShow)
	if err != nil {
		return nil, err
	}

	job.Status = to
	job.AcceptedTranslatorID = nil
	if err := s.commit(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// ResendNotifications re-broadcasts the offer to every currently
// eligible translator over push (the admin "resend" action, wildcard
// recipient set).
func (s *BookingService) ResendNotifications(ctx context.Context, jobID uint) ([]notify.Attempt, error) {
	return s.broadcast(ctx, jobID, notify.ChannelPush)
}

// ResendSMSNotifications re-broadcasts the offer over SMS. Transport
// errors are surfaced per recipient in the attempts, unclassified.
func (s *BookingService) ResendSMSNotifications(ctx context.Context, jobID uint) ([]notify.Attempt, error) {
	return s.broadcast(ctx, jobID, notify.ChannelSMS)
}

func (s *BookingService) broadcast(ctx context.Context, jobID uint, channel notify.Channel) ([]notify.Attempt, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	candidates, err := s.matcher.FindCandidates(ctx, job)
	if err != nil {
		return nil, fmt.Errorf("matching failed: %w", err)
	}
	return s.notifier.Notify(ctx, job.ID, candidateIDs(candidates),
		notify.EventJobOffered, channel, offerMessage(job)), nil
}

// UpdateJobEmail corrects the contact details on a booking without
// touching its lifecycle state
func (s *BookingService) UpdateJobEmail(ctx context.Context, jobID uint, req *types.EmailRequest) (*models.Job, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if req.CustomerEmail != "" {
		job.CustomerEmail = req.CustomerEmail
	}
	if req.Reference != "" {
		job.Reference = req.Reference
	}
	if err := s.commit(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// GetJob retrieves a booking snapshot by its ID
func (s *BookingService) GetJob(ctx context.Context, jobID uint) (*models.Job, error) {
	return s.jobs.GetByID(ctx, jobID)
}

// ListCustomerJobs returns a customer's active bookings
func (s *BookingService) ListCustomerJobs(ctx context.Context, customerID uint, opts *models.ListOptions) ([]models.Job, error) {
	return s.jobs.ListByCustomer(ctx, customerID, opts)
}

// ListCustomerHistory returns a customer's completed, cancelled and
// no-show bookings
func (s *BookingService) ListCustomerHistory(ctx context.Context, customerID uint, opts *models.ListOptions) ([]models.Job, error) {
	return s.jobs.ListHistory(ctx, customerID, opts)
}

// ListJobsByStatus returns bookings across all customers, optionally
// filtered by status. Admin reporting only.
func (s *BookingService) ListJobsByStatus(ctx context.Context, status models.JobStatus, opts *models.ListOptions) ([]models.Job, error) {
	return s.jobs.ListByStatus(ctx, status, opts)
}

// ListPotentialJobs returns the offered bookings a translator is
// eligible for, applying the same rules as the offer fan-out
func (s *BookingService) ListPotentialJobs(ctx context.Context, translatorID uint, opts *models.ListOptions) ([]models.Job, error) {
	translator, err := s.users.GetUserByID(ctx, translatorID)
	if err != nil {
		return nil, err
	}

	offered, err := s.jobs.ListByStatus(ctx, models.JobStatusOffered, opts)
	if err != nil {
		return nil, err
	}

	var potential []models.Job
	for _, job := range offered {
		if matching.Eligible(translator, &job) {
			potential = append(potential, job)
		}
	}
	return potential, nil
}

// commit wraps CompareAndSet, mapping a lost optimistic-lock write to
// the retryable taxonomy error
func (s *BookingService) commit(ctx context.Context, job *models.Job) error {
	return commitJob(ctx, s.jobs, job)
}

func commitJob(ctx context.Context, store JobStore, job *models.Job) error {
	if err := store.CompareAndSet(ctx, job); err != nil {
		if errors.Is(err, repos.ErrVersionConflict) {
			return ErrConcurrentModification
		}
		return fmt.Errorf("failed to commit job %d: %w", job.ID, err)
	}
	return nil
}

func candidateIDs(candidates []matching.Candidate) []uint {
	ids := make([]uint, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.TranslatorID)
	}
	return ids
}

func offerMessage(job *models.Job) string {
	due := "as soon as possible"
	if !job.Immediate {
		due = job.DueAt.Format("2006-01-02 15:04")
	}
	return fmt.Sprintf("New %s to %s booking #%d, due %s", job.LanguageFrom, job.LanguageTo, job.ID, due)
}
