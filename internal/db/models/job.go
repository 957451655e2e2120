package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Database field name constants used by list queries
const (
	// JobCreatedAtField is the database field name for the job creation timestamp
	JobCreatedAtField = "created_at"
	// JobUpdatedAtField is the database field name for the job update timestamp
	JobUpdatedAtField = "updated_at"
)

// JobStatus represents the current state of a booking in its lifecycle
type JobStatus int

// Job status constants
const (
	// JobStatusUnknown represents an unknown or invalid job status
	JobStatusUnknown JobStatus = iota
	// JobStatusCreated indicates the booking exists but has not been offered yet
	JobStatusCreated
	// JobStatusOffered indicates the booking has been presented to candidate translators
	JobStatusOffered
	// JobStatusAccepted indicates a translator holds the acceptance slot
	JobStatusAccepted
	// JobStatusInProgress indicates the translation session has started
	JobStatusInProgress
	// JobStatusCompleted indicates the session finished successfully
	JobStatusCompleted
	// JobStatusCancelled indicates the booking was cancelled before completion
	JobStatusCancelled
	// JobStatusNoShow indicates the customer did not show up for an accepted booking
	JobStatusNoShow
	// JobStatusReopened is accepted on the wire for historical records; the
	// engine normalizes reopened bookings back to JobStatusCreated
	JobStatusReopened
)

var jobStatusNames = []string{
	"unknown",
	"created",
	"offered",
	"accepted",
	"in_progress",
	"completed",
	"cancelled",
	"no_show",
	"reopened",
}

// Job represents a single translation-service booking moving through its
// lifecycle. Status and the acceptance slot are mutated only through
// JobRepository.CompareAndSet; the Version column carries the optimistic
// lock.
type Job struct {
	gorm.Model
	Version              int        `json:"version" gorm:"not null;default:0"`
	CustomerID           uint       `json:"customer_id" gorm:"not null;index"`
	AcceptedTranslatorID *uint      `json:"accepted_translator_id,omitempty" gorm:"index"`
	Status               JobStatus  `json:"status" gorm:"index"`
	LanguageFrom         string     `json:"language_from" gorm:"not null;index"`
	LanguageTo           string     `json:"language_to" gorm:"not null;index"`
	CertifiedRequired    bool       `json:"certified_required"`
	Immediate            bool       `json:"immediate"`
	DueAt                time.Time  `json:"due_at"`
	StartedAt            *time.Time `json:"started_at,omitempty"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`
	CustomerEmail        string     `json:"customer_email,omitempty"`
	Reference            string     `json:"reference,omitempty"`

	// Audit / reporting fields, owned by the audit manager and the
	// distance feed. They never influence lifecycle validity.
	Distance        *float64 `json:"distance,omitempty"`
	TravelTime      *float64 `json:"travel_time,omitempty"`
	SessionTime     *int64   `json:"session_time,omitempty"`
	AdminComments   string   `json:"admin_comments,omitempty" gorm:"type:text"`
	Flagged         bool     `json:"flagged"`
	ManuallyHandled bool     `json:"manually_handled"`
	ByAdmin         bool     `json:"by_admin"`
}

// IsTerminal reports whether the status is one of the retained end states
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusCancelled, JobStatusNoShow:
		return true
	}
	return false
}

// holdsAcceptanceSlot reports whether a booking in this status must carry
// an accepted translator
func (s JobStatus) holdsAcceptanceSlot() bool {
	switch s {
	case JobStatusAccepted, JobStatusInProgress, JobStatusCompleted:
		return true
	}
	return false
}

// CheckInvariants validates the cross-field invariants that must hold at
// every commit: the acceptance slot is set exactly in the accepted,
// in-progress and completed states, and a flagged booking always carries
// an admin comment.
func (j *Job) CheckInvariants() error {
	if j.Status.holdsAcceptanceSlot() != (j.AcceptedTranslatorID != nil) {
		return fmt.Errorf("acceptance slot mismatch: status %s with accepted_translator_id=%v",
			j.Status, j.AcceptedTranslatorID)
	}
	if j.Flagged && strings.TrimSpace(j.AdminComments) == "" {
		return fmt.Errorf("flagged booking requires a non-empty admin comment")
	}
	return nil
}

// ParseJobStatus converts a string representation of a job status to JobStatus type
func ParseJobStatus(str string) (JobStatus, error) {
	for i, status := range jobStatusNames {
		if status == str {
			return JobStatus(i), nil
		}
	}
	return JobStatusUnknown, fmt.Errorf("invalid job status: %s", str)
}

// MarshalJSON implements the json.Marshaler interface for JobStatus
func (s JobStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for JobStatus
func (s *JobStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	status, err := ParseJobStatus(str)
	if err != nil {
		return err
	}

	*s = status
	return nil
}

func (s JobStatus) String() string {
	if int(s) < 0 || int(s) >= len(jobStatusNames) {
		return jobStatusNames[JobStatusUnknown]
	}
	return jobStatusNames[s]
}
