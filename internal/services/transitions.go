package services

import "github.com/tolkbridge/dispatch/internal/db/models"

// lifecycleEvent names a state-machine command for transition checks and
// error messages
type lifecycleEvent string

const (
	eventOffer  lifecycleEvent = "offer"
	eventAccept lifecycleEvent = "accept"
	eventStart  lifecycleEvent = "start"
	eventCancel lifecycleEvent = "cancel"
	eventEnd    lifecycleEvent = "end"
	eventReopen lifecycleEvent = "reopen"
	eventNoShow lifecycleEvent = "no_show"
)

// transitions is the full state machine. A missing entry means the
// combination is illegal. Terminal states only admit reopen (and
// completed admits nothing).
var transitions = map[models.JobStatus]map[lifecycleEvent]models.JobStatus{
	models.JobStatusCreated: {
		eventOffer:  models.JobStatusOffered,
		eventCancel: models.JobStatusCancelled,
	},
	models.JobStatusOffered: {
		eventAccept: models.JobStatusAccepted,
		eventCancel: models.JobStatusCancelled,
	},
	models.JobStatusAccepted: {
		eventStart:  models.JobStatusInProgress,
		eventCancel: models.JobStatusCancelled,
		eventEnd:    models.JobStatusCompleted,
		eventNoShow: models.JobStatusNoShow,
	},
	models.JobStatusInProgress: {
		eventCancel: models.JobStatusCancelled,
		eventEnd:    models.JobStatusCompleted,
	},
	models.JobStatusCancelled: {
		eventReopen: models.JobStatusCreated,
	},
	models.JobStatusNoShow: {
		eventReopen: models.JobStatusCreated,
	},
}

// nextStatus resolves the target state for an event, or an
// *InvalidTransitionError naming the current state and the command.
func nextStatus(from models.JobStatus, event lifecycleEvent) (models.JobStatus, error) {
	if to, ok := transitions[from][event]; ok {
		return to, nil
	}
	return models.JobStatusUnknown, &InvalidTransitionError{From: from, Event: string(event)}
}
