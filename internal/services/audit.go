package services

import (
	"context"
	"strings"

	"github.com/tolkbridge/dispatch/internal/db/models"
	"github.com/tolkbridge/dispatch/internal/logger"
	"github.com/tolkbridge/dispatch/internal/types"
)

// AuditService applies admin-supplied overrides to the reporting fields
// of a booking: distance, travel time, session time, comments and the
// provenance flags. Overrides never change lifecycle state and are legal
// in every state, terminal ones included. Admin comments are append-only.
type AuditService struct {
	jobs JobStore
}

// NewAuditService creates a new audit service instance
func NewAuditService(jobs JobStore) *AuditService {
	return &AuditService{jobs: jobs}
}

// ApplyOverride applies the supplied fields to the booking. Absent
// fields are left untouched. Flagging without a comment in the same call
// fails with ErrMissingFlagComment and writes nothing.
func (s *AuditService) ApplyOverride(ctx context.Context, jobID uint, req *types.OverrideRequest) (*models.Job, error) {
	if req.Flagged != nil && *req.Flagged {
		if req.AdminComment == nil || strings.TrimSpace(*req.AdminComment) == "" {
			return nil, ErrMissingFlagComment
		}
	}

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if req.Distance != nil {
		job.Distance = req.Distance
	}
	if req.TravelTime != nil {
		job.TravelTime = req.TravelTime
	}
	if req.SessionTime != nil {
		job.SessionTime = req.SessionTime
	}
	if req.AdminComment != nil && strings.TrimSpace(*req.AdminComment) != "" {
		job.AdminComments = appendComment(job.AdminComments, *req.AdminComment)
	}
	if req.Flagged != nil {
		job.Flagged = *req.Flagged
	}
	if req.ManuallyHandled != nil {
		job.ManuallyHandled = *req.ManuallyHandled
	}
	if req.ByAdmin != nil {
		job.ByAdmin = *req.ByAdmin
	}

	if err := commitJob(ctx, s.jobs, job); err != nil {
		return nil, err
	}

	logger.InfoWithFields("booking override applied", map[string]interface{}{
		"job_id":  job.ID,
		"flagged": job.Flagged,
	})
	return job, nil
}

func appendComment(existing, comment string) string {
	comment = strings.TrimSpace(comment)
	if existing == "" {
		return comment
	}
	return existing + "\n" + comment
}
