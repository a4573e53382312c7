package usecase

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/frontdeskhq/receptionist-core/internal/apperrors"
	"github.com/frontdeskhq/receptionist-core/internal/model"
)

func testJob(id string) *model.ScheduledJob {
	return &model.ScheduledJob{
		ID:             id,
		OrganizationID: "org-svc-test",
		ContactID:      "contact-1",
		Type:           model.JobTypeMissedCallText,
		ScheduledFor:   time.Now().UTC().Add(time.Minute),
		Status:         model.JobStatusPending,
	}
}

func TestScheduleJobDispatchesNewJob(t *testing.T) {
	repo := new(mockRepo)
	dispatcher := new(mockDispatcher)
	svc := NewDataService(repo, testPricing(), dispatcher)

	job := testJob("job-1")
	repo.On("ScheduleJob", mock.Anything, job).Return(job, true, nil)
	dispatcher.On("PublishJob", mock.Anything, job).Return("JOBS:42", nil)
	repo.On("SetJobQueueRef", mock.Anything, "job-1", "JOBS:42").Return(nil)

	out, created, err := svc.ScheduleJob(serviceCtx(), job)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "JOBS:42", out.BullmqJobID)
	repo.AssertExpectations(t)
	dispatcher.AssertExpectations(t)
}

func TestScheduleJobDuplicateSkipsDispatch(t *testing.T) {
	repo := new(mockRepo)
	dispatcher := new(mockDispatcher)
	svc := NewDataService(repo, testPricing(), dispatcher)

	job := testJob("job-new")
	existing := testJob("job-existing")
	repo.On("ScheduleJob", mock.Anything, job).Return(existing, false, nil)

	out, created, err := svc.ScheduleJob(serviceCtx(), job)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "job-existing", out.ID)
	dispatcher.AssertNotCalled(t, "PublishJob", mock.Anything, mock.Anything)
}

func TestScheduleJobPublishFailureDoesNotFailCaller(t *testing.T) {
	repo := new(mockRepo)
	dispatcher := new(mockDispatcher)
	svc := NewDataService(repo, testPricing(), dispatcher)

	job := testJob("job-1")
	repo.On("ScheduleJob", mock.Anything, job).Return(job, true, nil)
	dispatcher.On("PublishJob", mock.Anything, job).Return("", errors.New("nats: connection closed"))

	// The row is the source of truth; the sweep re-dispatches later.
	out, created, err := svc.ScheduleJob(serviceCtx(), job)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Empty(t, out.BullmqJobID)
	repo.AssertNotCalled(t, "SetJobQueueRef", mock.Anything, mock.Anything, mock.Anything)
}

func TestScheduleJobRejectsUnknownType(t *testing.T) {
	repo := new(mockRepo)
	svc := NewDataService(repo, testPricing(), nil)

	job := testJob("job-1")
	job.Type = "send_newsletter"

	_, _, err := svc.ScheduleJob(serviceCtx(), job)
	assert.Error(t, err)
	assert.True(t, apperrors.IsFatal(err))
	repo.AssertNotCalled(t, "ScheduleJob", mock.Anything, mock.Anything)
}

func TestDispatchSweepPublishesPerTenant(t *testing.T) {
	repo := new(mockRepo)
	dispatcher := new(mockDispatcher)
	svc := NewDataService(repo, testPricing(), dispatcher)

	jobA := *testJob("job-a")
	jobA.OrganizationID = "org-a"
	jobB := *testJob("job-b")
	jobB.OrganizationID = "org-b"

	repo.On("ListDueJobsAllOrgs", mock.Anything, mock.Anything, 500).
		Return([]model.ScheduledJob{jobA, jobB}, nil)
	dispatcher.On("PublishJob", mock.Anything, mock.Anything).Return("JOBS:1", nil).Twice()
	repo.On("SetJobQueueRef", mock.Anything, "job-a", "JOBS:1").Return(nil)
	repo.On("SetJobQueueRef", mock.Anything, "job-b", "JOBS:1").Return(nil)

	n, err := svc.DispatchSweep(serviceCtx(), 0)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	repo.AssertExpectations(t)
	dispatcher.AssertExpectations(t)
}

func TestDispatchSweepContinuesPastPublishFailure(t *testing.T) {
	repo := new(mockRepo)
	dispatcher := new(mockDispatcher)
	svc := NewDataService(repo, testPricing(), dispatcher)

	jobA := *testJob("job-a")
	jobB := *testJob("job-b")

	repo.On("ListDueJobsAllOrgs", mock.Anything, mock.Anything, 500).
		Return([]model.ScheduledJob{jobA, jobB}, nil)
	dispatcher.On("PublishJob", mock.Anything, mock.MatchedBy(func(j *model.ScheduledJob) bool { return j.ID == "job-a" })).
		Return("", errors.New("nats: timeout"))
	dispatcher.On("PublishJob", mock.Anything, mock.MatchedBy(func(j *model.ScheduledJob) bool { return j.ID == "job-b" })).
		Return("JOBS:2", nil)
	repo.On("SetJobQueueRef", mock.Anything, "job-b", "JOBS:2").Return(nil)

	n, err := svc.DispatchSweep(serviceCtx(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDispatchSweepNoDispatcher(t *testing.T) {
	repo := new(mockRepo)
	svc := NewDataService(repo, testPricing(), nil)

	n, err := svc.DispatchSweep(serviceCtx(), 100)
	require.NoError(t, err)
	assert.Zero(t, n)
	repo.AssertNotCalled(t, "ListDueJobsAllOrgs", mock.Anything, mock.Anything, mock.Anything)
}

func TestScheduleDripCampaignQueuesFullSequence(t *testing.T) {
	repo := new(mockRepo)
	svc := NewDataService(repo, testPricing(), nil)

	org := model.NewOrganization()
	org.DripEnabled = true
	contact := &model.Contact{ID: "contact-1", OptedOut: false}

	repo.On("FindOrganizationByID", mock.Anything).Return(org, nil)
	repo.On("FindContactByID", mock.Anything, "contact-1").Return(contact, nil)
	repo.On("ScheduleJob", mock.Anything, mock.MatchedBy(func(j *model.ScheduledJob) bool {
		return j.Type == model.JobTypeDripCampaign && j.ContactID == "contact-1"
	})).Return(testJob("job-drip"), true, nil).Times(4)

	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	jobs, err := svc.ScheduleDripCampaign(serviceCtx(), "contact-1", start)
	require.NoError(t, err)
	assert.Len(t, jobs, 4)
	repo.AssertExpectations(t)
}

func TestScheduleDripCampaignOptedOutContact(t *testing.T) {
	repo := new(mockRepo)
	svc := NewDataService(repo, testPricing(), nil)

	org := model.NewOrganization()
	org.DripEnabled = true
	contact := &model.Contact{ID: "contact-1", OptedOut: true}

	repo.On("FindOrganizationByID", mock.Anything).Return(org, nil)
	repo.On("FindContactByID", mock.Anything, "contact-1").Return(contact, nil)

	_, err := svc.ScheduleDripCampaign(serviceCtx(), "contact-1", time.Now().UTC())
	assert.ErrorIs(t, err, apperrors.ErrConsentViolation)
	repo.AssertNotCalled(t, "ScheduleJob", mock.Anything, mock.Anything)
}

func TestScheduleDripCampaignDisabledOrg(t *testing.T) {
	repo := new(mockRepo)
	svc := NewDataService(repo, testPricing(), nil)

	org := model.NewOrganization()
	org.DripEnabled = false
	repo.On("FindOrganizationByID", mock.Anything).Return(org, nil)

	jobs, err := svc.ScheduleDripCampaign(serviceCtx(), "contact-1", time.Now().UTC())
	require.NoError(t, err)
	assert.Nil(t, jobs)
	repo.AssertNotCalled(t, "FindContactByID", mock.Anything, mock.Anything)
}
