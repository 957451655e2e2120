// Package notify fans booking events out to translators over push and
// SMS. Delivery is best-effort: each recipient is attempted
// independently under its own timeout and failures are reported per
// recipient, never escalated to the caller's transition.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tolkbridge/dispatch/internal/logger"
)

// Channel identifies the transport used for an attempt
type Channel string

// Notification channels
const (
	// ChannelPush delivers through the push-notification gateway
	ChannelPush Channel = "push"
	// ChannelSMS delivers through the SMS gateway
	ChannelSMS Channel = "sms"
)

// Event identifies what happened to the booking
type Event string

// Booking events dispatched to translators
const (
	// EventJobOffered announces a booking open for acceptance
	EventJobOffered Event = "job_offered"
	// EventJobTaken tells remaining candidates the booking is gone
	EventJobTaken Event = "job_taken"
	// EventJobCancelled tells the accepted translator the booking was cancelled
	EventJobCancelled Event = "job_cancelled"
)

// Outcome of a single delivery attempt
type Outcome string

// Attempt outcomes
const (
	// OutcomeSent indicates the transport accepted the message
	OutcomeSent Outcome = "sent"
	// OutcomeFailed indicates delivery failed; Reason carries the
	// transport error verbatim
	OutcomeFailed Outcome = "failed"
)

// Payload is the message handed to a sender
type Payload struct {
	JobID   uint   `json:"job_id"`
	Event   Event  `json:"event"`
	Message string `json:"message"`
}

// Attempt is the receipt for one delivery to one recipient. Attempts are
// ephemeral: they are returned to the caller and logged, not persisted.
type Attempt struct {
	ID          string    `json:"id"`
	JobID       uint      `json:"job_id"`
	RecipientID uint      `json:"recipient_id"`
	Channel     Channel   `json:"channel"`
	Event       Event     `json:"event"`
	Outcome     Outcome   `json:"outcome"`
	Reason      string    `json:"reason,omitempty"`
	SentAt      time.Time `json:"sent_at"`
}

// Failed reports whether the attempt did not reach the transport
func (a Attempt) Failed() bool {
	return a.Outcome == OutcomeFailed
}

// Sender delivers a payload to a single recipient over one transport
type Sender interface {
	Send(ctx context.Context, recipientID uint, payload Payload) error
}

// Dispatcher fans a booking event out to many recipients concurrently.
// One recipient's failure never blocks or aborts the others.
type Dispatcher struct {
	push    Sender
	sms     Sender
	timeout time.Duration
}

// DefaultTimeout bounds each delivery attempt
const DefaultTimeout = 10 * time.Second

// NewDispatcher creates a dispatcher over the given transports. A zero
// timeout falls back to DefaultTimeout.
func NewDispatcher(push, sms Sender, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Dispatcher{push: push, sms: sms, timeout: timeout}
}

// Notify delivers the event to every recipient on the given channel and
// returns one attempt per recipient. The call returns once all attempts
// completed or timed out; attempts cut off by the timeout are reported
// as failed.
func (d *Dispatcher) Notify(ctx context.Context, jobID uint, recipients []uint, event Event, channel Channel, message string) []Attempt {
	if len(recipients) == 0 {
		return nil
	}

	sender := d.push
	if channel == ChannelSMS {
		sender = d.sms
	}
	payload := Payload{JobID: jobID, Event: event, Message: message}

	results := make(chan Attempt, len(recipients))
	for _, recipientID := range recipients {
		go func(recipientID uint) {
			results <- d.attempt(ctx, sender, jobID, recipientID, channel, payload)
		}(recipientID)
	}

	attempts := make([]Attempt, 0, len(recipients))
	for range recipients {
		attempts = append(attempts, <-results)
	}
	return attempts
}

func (d *Dispatcher) attempt(ctx context.Context, sender Sender, jobID, recipientID uint, channel Channel, payload Payload) Attempt {
	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	attempt := Attempt{
		ID:          uuid.NewString(),
		JobID:       jobID,
		RecipientID: recipientID,
		Channel:     channel,
		Event:       payload.Event,
		Outcome:     OutcomeSent,
		SentAt:      time.Now().UTC(),
	}

	if err := sender.Send(sendCtx, recipientID, payload); err != nil {
		attempt.Outcome = OutcomeFailed
		attempt.Reason = err.Error()
		logger.WarnWithFields("notification delivery failed", map[string]interface{}{
			"job_id":       jobID,
			"recipient_id": recipientID,
			"channel":      channel,
			"event":        payload.Event,
			"error":        err.Error(),
		})
		return attempt
	}

	logger.DebugWithFields("notification sent", map[string]interface{}{
		"job_id":       jobID,
		"recipient_id": recipientID,
		"channel":      channel,
		"event":        payload.Event,
	})
	return attempt
}
