package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJobStatus(t *testing.T) {
	status, err := ParseJobStatus("offered")
	require.NoError(t, err)
	assert.Equal(t, JobStatusOffered, status)

	status, err = ParseJobStatus("no_show")
	require.NoError(t, err)
	assert.Equal(t, JobStatusNoShow, status)

	_, err = ParseJobStatus("bogus")
	assert.Error(t, err)
}

func TestJobStatusString(t *testing.T) {
	assert.Equal(t, "in_progress", JobStatusInProgress.String())
	assert.Equal(t, "unknown", JobStatus(99).String())
}

func TestJobStatusIsTerminal(t *testing.T) {
	assert.True(t, JobStatusCompleted.IsTerminal())
	assert.True(t, JobStatusCancelled.IsTerminal())
	assert.True(t, JobStatusNoShow.IsTerminal())
	assert.False(t, JobStatusOffered.IsTerminal())
	assert.False(t, JobStatusCreated.IsTerminal())
}

func TestCheckInvariantsAcceptanceSlot(t *testing.T) {
	translatorID := uint(7)

	// Accepted without a translator violates the slot invariant
	job := &Job{Status: JobStatusAccepted}
	assert.Error(t, job.CheckInvariants())

	job.AcceptedTranslatorID = &translatorID
	assert.NoError(t, job.CheckInvariants())

	// Created with a translator violates it the other way around
	job = &Job{Status: JobStatusCreated, AcceptedTranslatorID: &translatorID}
	assert.Error(t, job.CheckInvariants())
}

func TestCheckInvariantsFlagComment(t *testing.T) {
	job := &Job{Status: JobStatusCreated, Flagged: true}
	assert.Error(t, job.CheckInvariants())

	job.AdminComments = "customer complained about delay"
	assert.NoError(t, job.CheckInvariants())
}
