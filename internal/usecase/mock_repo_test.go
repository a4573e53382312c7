package usecase

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/frontdeskhq/receptionist-core/internal/model"
	"github.com/frontdeskhq/receptionist-core/internal/storage"
)

// mockRepo implements the storage methods the service tests exercise.
// The embedded interface panics on anything a test forgot to stub.
type mockRepo struct {
	storage.Repo
	mock.Mock
}

func (m *mockRepo) CreateMessage(ctx context.Context, msg *model.Message, charge *model.UsageCharge) error {
	args := m.Called(ctx, msg, charge)
	return args.Error(0)
}

func (m *mockRepo) FindOrCreateContactByPhone(ctx context.Context, phone, source string) (*model.Contact, bool, error) {
	args := m.Called(ctx, phone, source)
	var contact *model.Contact
	if v := args.Get(0); v != nil {
		contact = v.(*model.Contact)
	}
	return contact, args.Bool(1), args.Error(2)
}

func (m *mockRepo) FindContactByID(ctx context.Context, id string) (*model.Contact, error) {
	args := m.Called(ctx, id)
	var contact *model.Contact
	if v := args.Get(0); v != nil {
		contact = v.(*model.Contact)
	}
	return contact, args.Error(1)
}

func (m *mockRepo) FindOrCreateConversation(ctx context.Context, contactID, channel string) (*model.Conversation, bool, error) {
	args := m.Called(ctx, contactID, channel)
	var conv *model.Conversation
	if v := args.Get(0); v != nil {
		conv = v.(*model.Conversation)
	}
	return conv, args.Bool(1), args.Error(2)
}

func (m *mockRepo) CreateCall(ctx context.Context, call *model.Call) error {
	args := m.Called(ctx, call)
	return args.Error(0)
}

func (m *mockRepo) FinalizeCall(ctx context.Context, callID string, result *model.CallResult, charge *model.UsageCharge, appointment *model.Appointment) (*model.Call, error) {
	args := m.Called(ctx, callID, result, charge, appointment)
	var call *model.Call
	if v := args.Get(0); v != nil {
		call = v.(*model.Call)
	}
	return call, args.Error(1)
}

func (m *mockRepo) FindOrganizationByID(ctx context.Context) (*model.Organization, error) {
	args := m.Called(ctx)
	var org *model.Organization
	if v := args.Get(0); v != nil {
		org = v.(*model.Organization)
	}
	return org, args.Error(1)
}

func (m *mockRepo) ScheduleJob(ctx context.Context, job *model.ScheduledJob) (*model.ScheduledJob, bool, error) {
	args := m.Called(ctx, job)
	var out *model.ScheduledJob
	if v := args.Get(0); v != nil {
		out = v.(*model.ScheduledJob)
	}
	return out, args.Bool(1), args.Error(2)
}

func (m *mockRepo) SetJobQueueRef(ctx context.Context, jobID, queueJobID string) error {
	args := m.Called(ctx, jobID, queueJobID)
	return args.Error(0)
}

func (m *mockRepo) ListDueJobsAllOrgs(ctx context.Context, before time.Time, limit int) ([]model.ScheduledJob, error) {
	args := m.Called(ctx, before, limit)
	var jobs []model.ScheduledJob
	if v := args.Get(0); v != nil {
		jobs = v.([]model.ScheduledJob)
	}
	return jobs, args.Error(1)
}

func (m *mockRepo) ApplyBalanceTransaction(ctx context.Context, txnType string, amount float64, description, paymentRef string) (*model.BalanceTransaction, error) {
	args := m.Called(ctx, txnType, amount, description, paymentRef)
	var entry *model.BalanceTransaction
	if v := args.Get(0); v != nil {
		entry = v.(*model.BalanceTransaction)
	}
	return entry, args.Error(1)
}

func (m *mockRepo) UpdateScriptContent(ctx context.Context, scriptType, content string, aiGenerated bool, meterColumn string, charge *model.UsageCharge) (bool, error) {
	args := m.Called(ctx, scriptType, content, aiGenerated, meterColumn, charge)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepo) RecordOptOut(ctx context.Context, contactID string) (int64, error) {
	args := m.Called(ctx, contactID)
	return args.Get(0).(int64), args.Error(1)
}

// mockDispatcher records published jobs.
type mockDispatcher struct {
	mock.Mock
}

func (m *mockDispatcher) PublishJob(ctx context.Context, job *model.ScheduledJob) (string, error) {
	args := m.Called(ctx, job)
	return args.String(0), args.Error(1)
}
