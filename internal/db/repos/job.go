package repos

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/tolkbridge/dispatch/internal/db/models"
)

// Sentinel errors surfaced by the job repository
var (
	// ErrJobNotFound is returned when no booking exists for the given id
	ErrJobNotFound = errors.New("job not found")
	// ErrVersionConflict is returned by CompareAndSet when the stored
	// version no longer matches the loaded one
	ErrVersionConflict = errors.New("job version conflict")
)

// JobRepository provides access to booking persistence. All lifecycle
// mutation goes through CompareAndSet so concurrent writers are
// serialized on the version column.
type JobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new job repository instance
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create inserts a new booking
func (r *JobRepository) Create(ctx context.Context, job *models.Job) error {
	if err := job.CheckInvariants(); err != nil {
		return fmt.Errorf("invalid job: %w", err)
	}
	return r.db.WithContext(ctx).Create(job).Error
}

// GetByID retrieves a booking by its ID, including its current version
func (r *JobRepository) GetByID(ctx context.Context, id uint) (*models.Job, error) {
	var job models.Job
	err := r.db.WithContext(ctx).First(&job, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("job %d: %w", id, ErrJobNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

// CompareAndSet commits the mutated booking if and only if the stored
// version still matches job.Version. On success job.Version is bumped to
// the committed value; if another writer got there first
// ErrVersionConflict is returned and nothing is written.
func (r *JobRepository) CompareAndSet(ctx context.Context, job *models.Job) error {
	if err := job.CheckInvariants(); err != nil {
		return fmt.Errorf("invalid job: %w", err)
	}

	res := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ? AND version = ?", job.ID, job.Version).
		Updates(map[string]interface{}{
			"version":                job.Version + 1,
			"status":                 job.Status,
			"accepted_translator_id": job.AcceptedTranslatorID,
			"started_at":             job.StartedAt,
			"completed_at":           job.CompletedAt,
			"customer_email":         job.CustomerEmail,
			"reference":              job.Reference,
			"distance":               job.Distance,
			"travel_time":            job.TravelTime,
			"session_time":           job.SessionTime,
			"admin_comments":         job.AdminComments,
			"flagged":                job.Flagged,
			"manually_handled":       job.ManuallyHandled,
			"by_admin":               job.ByAdmin,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update job: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("job %d at version %d: %w", job.ID, job.Version, ErrVersionConflict)
	}
	job.Version++
	return nil
}

// ListByCustomer returns the customer's non-terminal bookings, newest first
func (r *JobRepository) ListByCustomer(ctx context.Context, customerID uint, opts *models.ListOptions) ([]models.Job, error) {
	opts.Normalize()
	var jobs []models.Job
	err := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("customer_id = ?", customerID).
		Where("status NOT IN ?", terminalStatuses()).
		Limit(opts.Limit).Offset(opts.Offset).
		Order(models.JobCreatedAtField + " DESC").
		Find(&jobs).Error
	return jobs, err
}

// ListHistory returns the customer's bookings in terminal states, newest first
func (r *JobRepository) ListHistory(ctx context.Context, customerID uint, opts *models.ListOptions) ([]models.Job, error) {
	opts.Normalize()
	var jobs []models.Job
	err := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("customer_id = ?", customerID).
		Where("status IN ?", terminalStatuses()).
		Limit(opts.Limit).Offset(opts.Offset).
		Order(models.JobUpdatedAtField + " DESC").
		Find(&jobs).Error
	return jobs, err
}

// ListByStatus returns bookings in the given status across all customers.
// JobStatusUnknown lists every booking regardless of status.
func (r *JobRepository) ListByStatus(ctx context.Context, status models.JobStatus, opts *models.ListOptions) ([]models.Job, error) {
	opts.Normalize()
	var jobs []models.Job
	q := r.db.WithContext(ctx).Model(&models.Job{})
	if status != models.JobStatusUnknown {
		q = q.Where("status = ?", status)
	}
	err := q.Limit(opts.Limit).Offset(opts.Offset).
		Order(models.JobCreatedAtField + " DESC").
		Find(&jobs).Error
	return jobs, err
}

func terminalStatuses() []models.JobStatus {
	return []models.JobStatus{
		models.JobStatusCompleted,
		models.JobStatusCancelled,
		models.JobStatusNoShow,
	}
}
