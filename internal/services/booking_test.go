package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tolkbridge/dispatch/internal/db/models"
	"github.com/tolkbridge/dispatch/internal/notify"
	"github.com/tolkbridge/dispatch/internal/types"
)

func scheduledRequest() *types.CreateJobRequest {
	return &types.CreateJobRequest{
		LanguageFrom: "sv",
		LanguageTo:   "en",
		DueAt:        time.Now().Add(24 * time.Hour),
	}
}

// seedJob creates a booking and walks it to the wanted status through
// the public operations
func seedJob(t *testing.T, svc *BookingService, status models.JobStatus, translatorID uint) *models.Job {
	t.Helper()
	ctx := context.Background()

	result, err := svc.CreateJob(ctx, 1, scheduledRequest())
	require.NoError(t, err)
	job := result.Job

	if status == models.JobStatusCreated {
		return job
	}

	offered, err := svc.OfferJob(ctx, job.ID)
	require.NoError(t, err)
	require.False(t, offered.NoEligibleTranslators)
	if status == models.JobStatusOffered {
		return offered.Job
	}

	job, err = svc.AcceptJob(ctx, job.ID, translatorID)
	require.NoError(t, err)
	if status == models.JobStatusAccepted {
		return job
	}

	switch status {
	case models.JobStatusInProgress:
		job, err = svc.StartJob(ctx, job.ID, translatorID)
	case models.JobStatusCompleted:
		job, err = svc.EndJob(ctx, job.ID)
	case models.JobStatusCancelled:
		job, err = svc.CancelJob(ctx, job.ID, types.Actor{ID: 1, Role: models.UserRoleCustomer})
	case models.JobStatusNoShow:
		job, err = svc.MarkCustomerNoShow(ctx, job.ID)
	default:
		t.Fatalf("cannot seed status %s", status)
	}
	require.NoError(t, err)
	return job
}

func TestCreateJobScheduled(t *testing.T) {
	svc, _, push, _ := newTestService(&stubMatcher{candidates: candidates(7, 8)})

	result, err := svc.CreateJob(context.Background(), 1, scheduledRequest())
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCreated, result.Job.Status)
	assert.Empty(t, result.Attempts)
	assert.Empty(t, push.recipients(notify.EventJobOffered))
}

func TestCreateJobImmediateOffers(t *testing.T) {
	svc, _, push, _ := newTestService(&stubMatcher{candidates: candidates(7, 8)})

	req := scheduledRequest()
	req.Immediate = true
	result, err := svc.CreateJob(context.Background(), 1, req)
	require.NoError(t, err)

	assert.Equal(t, models.JobStatusOffered, result.Job.Status)
	assert.Len(t, result.Attempts, 2)
	assert.ElementsMatch(t, []uint{7, 8}, push.recipients(notify.EventJobOffered))
}

func TestOfferJobNoEligibleTranslators(t *testing.T) {
	svc, _, push, _ := newTestService(&stubMatcher{})

	result, err := svc.CreateJob(context.Background(), 1, scheduledRequest())
	require.NoError(t, err)

	offered, err := svc.OfferJob(context.Background(), result.Job.ID)
	require.NoError(t, err)
	assert.True(t, offered.NoEligibleTranslators)
	assert.Equal(t, models.JobStatusCreated, offered.Job.Status)
	assert.Empty(t, push.recipients(notify.EventJobOffered))

	// The booking is still offerable once translators show up
	current, err := svc.GetJob(context.Background(), result.Job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCreated, current.Status)
}

func TestOfferJobWrongState(t *testing.T) {
	svc, _, _, _ := newTestService(&stubMatcher{candidates: candidates(7)})
	job := seedJob(t, svc, models.JobStatusAccepted, 7)

	_, err := svc.OfferJob(context.Background(), job.ID)
	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, models.JobStatusAccepted, invalid.From)
	assert.Equal(t, "offer", invalid.Event)
}

func TestAcceptJob(t *testing.T) {
	svc, _, push, _ := newTestService(&stubMatcher{candidates: candidates(7, 8, 9)})
	job := seedJob(t, svc, models.JobStatusOffered, 0)

	accepted, err := svc.AcceptJob(context.Background(), job.ID, 8)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusAccepted, accepted.Status)
	require.NotNil(t, accepted.AcceptedTranslatorID)
	assert.Equal(t, uint(8), *accepted.AcceptedTranslatorID)

	// Remaining candidates get the job-taken notice, the winner does not
	assert.ElementsMatch(t, []uint{7, 9}, push.recipients(notify.EventJobTaken))
}

func TestAcceptJobAlreadyTaken(t *testing.T) {
	svc, _, _, _ := newTestService(&stubMatcher{candidates: candidates(7, 8)})
	job := seedJob(t, svc, models.JobStatusAccepted, 7)

	_, err := svc.AcceptJob(context.Background(), job.ID, 8)
	assert.ErrorIs(t, err, ErrAlreadyTaken)
}

func TestAcceptJobRace(t *testing.T) {
	const contenders = 8

	svc, _, _, _ := newTestService(&stubMatcher{candidates: candidates(7)})
	job := seedJob(t, svc, models.JobStatusOffered, 0)

	var wg sync.WaitGroup
	errs := make([]error, contenders)
	winners := make([]*models.Job, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			winners[i], errs[i] = svc.AcceptJob(context.Background(), job.ID, uint(100+i))
		}(i)
	}
	wg.Wait()

	var won int
	var winningTranslator uint
	for i := 0; i < contenders; i++ {
		if errs[i] == nil {
			won++
			winningTranslator = uint(100 + i)
		} else {
			assert.ErrorIs(t, errs[i], ErrAlreadyTaken)
		}
	}
	require.Equal(t, 1, won, "exactly one translator must win the race")

	current, err := svc.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusAccepted, current.Status)
	require.NotNil(t, current.AcceptedTranslatorID)
	assert.Equal(t, winningTranslator, *current.AcceptedTranslatorID)
}

func TestStartJob(t *testing.T) {
	svc, _, _, _ := newTestService(&stubMatcher{candidates: candidates(7)})
	job := seedJob(t, svc, models.JobStatusAccepted, 7)

	_, err := svc.StartJob(context.Background(), job.ID, 99)
	assert.ErrorIs(t, err, ErrNotAssignedTranslator)

	started, err := svc.StartJob(context.Background(), job.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusInProgress, started.Status)
	assert.NotNil(t, started.StartedAt)
}

func TestCancelJobNotifiesAcceptedTranslator(t *testing.T) {
	svc, _, push, _ := newTestService(&stubMatcher{candidates: candidates(7)})
	job := seedJob(t, svc, models.JobStatusAccepted, 7)

	cancelled, err := svc.CancelJob(context.Background(), job.ID, types.Actor{ID: 1, Role: models.UserRoleCustomer})
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCancelled, cancelled.Status)
	assert.Nil(t, cancelled.AcceptedTranslatorID)
	assert.False(t, cancelled.ByAdmin)
	assert.Equal(t, []uint{7}, push.recipients(notify.EventJobCancelled))
}

func TestCancelJobByAdmin(t *testing.T) {
	svc, _, _, _ := newTestService(&stubMatcher{candidates: candidates(7)})
	job := seedJob(t, svc, models.JobStatusCreated, 0)

	cancelled, err := svc.CancelJob(context.Background(), job.ID, types.Actor{ID: 50, Role: models.UserRoleAdmin})
	require.NoError(t, err)
	assert.True(t, cancelled.ByAdmin)
}

func TestCancelJobTerminalRejected(t *testing.T) {
	svc, _, _, _ := newTestService(&stubMatcher{candidates: candidates(7)})
	job := seedJob(t, svc, models.JobStatusCompleted, 7)

	_, err := svc.CancelJob(context.Background(), job.ID, types.Actor{ID: 1, Role: models.UserRoleCustomer})
	var invalid *InvalidTransitionError
	assert.ErrorAs(t, err, &invalid)
}

func TestEndJobFromCreatedRejected(t *testing.T) {
	svc, _, _, _ := newTestService(&stubMatcher{candidates: candidates(7)})
	job := seedJob(t, svc, models.JobStatusCreated, 0)

	_, err := svc.EndJob(context.Background(), job.ID)
	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, models.JobStatusCreated, invalid.From)
	assert.Equal(t, "end", invalid.Event)
}

func TestEndJobRecordsSessionTime(t *testing.T) {
	svc, _, _, _ := newTestService(&stubMatcher{candidates: candidates(7)})
	job := seedJob(t, svc, models.JobStatusInProgress, 7)

	done, err := svc.EndJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, done.Status)
	assert.NotNil(t, done.CompletedAt)
	require.NotNil(t, done.SessionTime)
	// The accepted translator stays on the completed booking
	require.NotNil(t, done.AcceptedTranslatorID)
	assert.Equal(t, uint(7), *done.AcceptedTranslatorID)
}

func TestMarkCustomerNoShow(t *testing.T) {
	svc, _, _, _ := newTestService(&stubMatcher{candidates: candidates(7)})
	job := seedJob(t, svc, models.JobStatusAccepted, 7)

	noShow, err := svc.MarkCustomerNoShow(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusNoShow, noShow.Status)
	assert.Nil(t, noShow.AcceptedTranslatorID)
}

func TestMarkCustomerNoShowRequiresAccepted(t *testing.T) {
	svc, _, _, _ := newTestService(&stubMatcher{candidates: candidates(7)})
	job := seedJob(t, svc, models.JobStatusOffered, 0)

	_, err := svc.MarkCustomerNoShow(context.Background(), job.ID)
	var invalid *InvalidTransitionError
	assert.ErrorAs(t, err, &invalid)
}

func TestReopenThenOffer(t *testing.T) {
	svc, _, _, _ := newTestService(&stubMatcher{candidates: candidates(7)})
	job := seedJob(t, svc, models.JobStatusCancelled, 7)

	reopened, err := svc.ReopenJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCreated, reopened.Status)
	assert.Nil(t, reopened.AcceptedTranslatorID)

	offered, err := svc.OfferJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusOffered, offered.Job.Status)
	assert.Nil(t, offered.Job.AcceptedTranslatorID)
}

func TestReopenFromActiveRejected(t *testing.T) {
	svc, _, _, _ := newTestService(&stubMatcher{candidates: candidates(7)})
	job := seedJob(t, svc, models.JobStatusOffered, 0)

	_, err := svc.ReopenJob(context.Background(), job.ID)
	var invalid *InvalidTransitionError
	assert.ErrorAs(t, err, &invalid)
}

func TestResendNotifications(t *testing.T) {
	svc, _, push, sms := newTestService(&stubMatcher{candidates: candidates(7, 8)})
	job := seedJob(t, svc, models.JobStatusOffered, 0)

	attempts, err := svc.ResendNotifications(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Len(t, attempts, 2)

	smsAttempts, err := svc.ResendSMSNotifications(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Len(t, smsAttempts, 2)

	assert.ElementsMatch(t, []uint{7, 8}, sms.recipients(notify.EventJobOffered))
	assert.NotEmpty(t, push.recipients(notify.EventJobOffered))
}

func TestResendSMSSurfacesTransportError(t *testing.T) {
	store := newMemStore()
	push := &recordingSender{}
	sms := &recordingSender{failFor: map[uint]error{8: assert.AnError}}
	dispatcher := notify.NewDispatcher(push, sms, time.Second)
	svc := NewBookingService(store, &stubDirectory{}, &stubMatcher{candidates: candidates(7, 8)}, dispatcher)

	result, err := svc.CreateJob(context.Background(), 1, scheduledRequest())
	require.NoError(t, err)

	attempts, err := svc.ResendSMSNotifications(context.Background(), result.Job.ID)
	require.NoError(t, err)
	require.Len(t, attempts, 2)

	var failed, sent int
	for _, a := range attempts {
		if a.Failed() {
			failed++
			assert.Equal(t, uint(8), a.RecipientID)
			assert.NotEmpty(t, a.Reason)
		} else {
			sent++
		}
	}
	assert.Equal(t, 1, failed)
	assert.Equal(t, 1, sent)
}

func TestUpdateJobEmail(t *testing.T) {
	svc, _, _, _ := newTestService(&stubMatcher{candidates: candidates(7)})
	job := seedJob(t, svc, models.JobStatusCreated, 0)

	updated, err := svc.UpdateJobEmail(context.Background(), job.ID,
		&types.EmailRequest{CustomerEmail: "new@example.com", Reference: "PO-1234"})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", updated.CustomerEmail)
	assert.Equal(t, "PO-1234", updated.Reference)
	assert.Equal(t, models.JobStatusCreated, updated.Status)
}

func TestListPotentialJobs(t *testing.T) {
	store := newMemStore()
	translator := &models.User{
		Role:         models.UserRoleTranslator,
		LanguageFrom: "sv",
		LanguageTo:   "en",
		Available:    true,
	}
	translator.ID = 7
	directory := &stubDirectory{users: map[uint]*models.User{7: translator}}
	dispatcher := notify.NewDispatcher(&recordingSender{}, &recordingSender{}, time.Second)
	svc := NewBookingService(store, directory, &stubMatcher{candidates: candidates(7)}, dispatcher)

	// One matching offered booking, one with the wrong pair, one not offered
	wanted, err := svc.CreateJob(context.Background(), 1, scheduledRequest())
	require.NoError(t, err)
	_, err = svc.OfferJob(context.Background(), wanted.Job.ID)
	require.NoError(t, err)

	otherPair := scheduledRequest()
	otherPair.LanguageTo = "de"
	other, err := svc.CreateJob(context.Background(), 1, otherPair)
	require.NoError(t, err)
	_, err = svc.OfferJob(context.Background(), other.Job.ID)
	require.NoError(t, err)

	_, err = svc.CreateJob(context.Background(), 1, scheduledRequest())
	require.NoError(t, err)

	potential, err := svc.ListPotentialJobs(context.Background(), 7, &models.ListOptions{Limit: 10})
	require.NoError(t, err)
	require.Len(t, potential, 1)
	assert.Equal(t, wanted.Job.ID, potential[0].ID)
}

// invariant check across a full lifecycle walk: the acceptance slot is
// held exactly in accepted, in-progress and completed states
func TestAcceptanceSlotInvariant(t *testing.T) {
	svc, store, _, _ := newTestService(&stubMatcher{candidates: candidates(7)})

	for _, target := range []models.JobStatus{
		models.JobStatusCreated,
		models.JobStatusOffered,
		models.JobStatusAccepted,
		models.JobStatusInProgress,
		models.JobStatusCompleted,
		models.JobStatusCancelled,
		models.JobStatusNoShow,
	} {
		job := seedJob(t, svc, target, 7)
		current, err := store.GetByID(context.Background(), job.ID)
		require.NoError(t, err)
		assert.NoError(t, current.CheckInvariants(), "status %s", target)
	}
}
