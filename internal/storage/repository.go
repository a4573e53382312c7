package storage

import (
	"context"
	"time"

	"github.com/frontdeskhq/receptionist-core/internal/model"
)

// Meter columns consumed by UpdateScriptContent's free-tier decrement.
const (
	MeterFreeEdits  = "free_edits_remaining"
	MeterFreeRegens = "free_regens_remaining"
)

// DashboardCounts aggregates activity for the dashboard read model.
type DashboardCounts struct {
	Messages     int64   `json:"messages"`
	Calls        int64   `json:"calls"`
	Appointments int64   `json:"appointments"`
	UsageCost    float64 `json:"usage_cost"`
}

// OrganizationRepo manages tenant root rows.
type OrganizationRepo interface {
	CreateOrganization(ctx context.Context, org *model.Organization) error
	FindOrganizationByID(ctx context.Context) (*model.Organization, error)
	UpdateOrganizationSettings(ctx context.Context, updates map[string]interface{}) error
}

// ContactRepo manages contacts and the opt-out flag.
type ContactRepo interface {
	CreateContact(ctx context.Context, contact *model.Contact) error
	FindOrCreateContactByPhone(ctx context.Context, phone, source string) (*model.Contact, bool, error)
	FindContactByID(ctx context.Context, id string) (*model.Contact, error)
	ListContacts(ctx context.Context, limit, offset int) ([]model.Contact, error)
	// RecordOptOut sets the sticky opt-out flag and cancels the contact's
	// pending jobs, returning how many jobs were failed.
	RecordOptOut(ctx context.Context, contactID string) (int64, error)
}

// ConversationRepo manages conversation threads.
type ConversationRepo interface {
	FindOrCreateConversation(ctx context.Context, contactID, channel string) (*model.Conversation, bool, error)
	FindConversationByID(ctx context.Context, id string) (*model.Conversation, error)
	ListConversations(ctx context.Context, status string, limit, offset int) ([]model.Conversation, error)
	ArchiveConversation(ctx context.Context, id string) error
}

// MessageRepo manages messages. CreateMessage is the transactional write path
// for both directions and carries the usage charge for the send/receive.
type MessageRepo interface {
	CreateMessage(ctx context.Context, msg *model.Message, charge *model.UsageCharge) error
	FindMessageByID(ctx context.Context, id string) (*model.Message, error)
	UpdateMessageStatus(ctx context.Context, id, status, providerMessageID string) error
	ListMessagesByConversation(ctx context.Context, conversationID string, limit, offset int) ([]model.Message, error)
}

// CallRepo manages call lifecycle rows.
type CallRepo interface {
	CreateCall(ctx context.Context, call *model.Call) error
	// FinalizeCall closes out an in-progress call exactly once, recording the
	// voice-minute charge and, for booked outcomes, the appointment, in one
	// transaction. A booked outcome without an appointment payload requires
	// one already booked for the call's contact. A second finalize returns
	// ErrInvalidState.
	FinalizeCall(ctx context.Context, callID string, result *model.CallResult, charge *model.UsageCharge, appointment *model.Appointment) (*model.Call, error)
	FindCallByID(ctx context.Context, id string) (*model.Call, error)
	ListRecentCalls(ctx context.Context, limit int) ([]model.Call, error)
}

// AccountRepo manages telecom accounts and the prepaid ledger.
type AccountRepo interface {
	CreateAccount(ctx context.Context, account *model.TelecomAccount) error
	FindAccountByOrg(ctx context.Context) (*model.TelecomAccount, error)
	// ApplyBalanceTransaction appends a ledger row and moves the balance
	// projection atomically under a row lock.
	ApplyBalanceTransaction(ctx context.Context, txnType string, amount float64, description, paymentRef string) (*model.BalanceTransaction, error)
	ListBalanceTransactions(ctx context.Context, limit, offset int) ([]model.BalanceTransaction, error)
}

// UsageRepo reads metered usage.
type UsageRepo interface {
	ListUsageRecords(ctx context.Context, since time.Time, limit, offset int) ([]model.UsageRecord, error)
	UsageTotals(ctx context.Context, since time.Time) (map[string]float64, error)
}

// JobRepo manages scheduled jobs. Scheduling is idempotent on the job's
// natural identity; claiming is a conditional pending->processing flip.
type JobRepo interface {
	ScheduleJob(ctx context.Context, job *model.ScheduledJob) (*model.ScheduledJob, bool, error)
	ClaimJob(ctx context.Context, jobID string) (*model.ScheduledJob, error)
	CompleteJob(ctx context.Context, jobID string) error
	FailJob(ctx context.Context, jobID, reason string) error
	SetJobQueueRef(ctx context.Context, jobID, queueJobID string) error
	ListDueJobs(ctx context.Context, before time.Time, limit int) ([]model.ScheduledJob, error)
	// ListDueJobsAllOrgs is the cross-tenant variant used by the background
	// dispatch sweep; it is the only read that ignores the context org.
	ListDueJobsAllOrgs(ctx context.Context, before time.Time, limit int) ([]model.ScheduledJob, error)
}

// ScriptRepo manages automation scripts and the free-tier edit/regen meters.
type ScriptRepo interface {
	UpsertScript(ctx context.Context, script *model.Script) error
	FindScriptByType(ctx context.Context, scriptType string) (*model.Script, error)
	ListScripts(ctx context.Context) ([]model.Script, error)
	// UpdateScriptContent rewrites a script's content, consuming a free meter
	// unit or recording the charge when the meter is exhausted. Returns true
	// when the update was billed.
	UpdateScriptContent(ctx context.Context, scriptType, content string, aiGenerated bool, meterColumn string, charge *model.UsageCharge) (bool, error)
}

// SubscriptionRepo manages the billing relationship.
type SubscriptionRepo interface {
	UpsertSubscription(ctx context.Context, sub *model.Subscription) error
	FindSubscription(ctx context.Context) (*model.Subscription, error)
	TransitionSubscriptionStatus(ctx context.Context, newStatus string, periodStart, periodEnd *time.Time) (*model.Subscription, error)
}

// AppointmentRepo manages booked appointments.
type AppointmentRepo interface {
	CreateAppointment(ctx context.Context, appt *model.Appointment) error
	FindAppointmentByID(ctx context.Context, id string) (*model.Appointment, error)
	TransitionAppointmentStatus(ctx context.Context, id, newStatus string) (*model.Appointment, error)
	ListUpcomingAppointments(ctx context.Context, from time.Time, limit int) ([]model.Appointment, error)
}

// KnowledgeRepo manages knowledge sources and their ingestion results.
type KnowledgeRepo interface {
	CreateKnowledgeSource(ctx context.Context, ks *model.KnowledgeSource) error
	SetKnowledgeSourceResult(ctx context.Context, id, status, extractedText string) error
	FindKnowledgeSourceByID(ctx context.Context, id string) (*model.KnowledgeSource, error)
	ListKnowledgeSources(ctx context.Context) ([]model.KnowledgeSource, error)
}

// StatsRepo serves dashboard aggregates.
type StatsRepo interface {
	DashboardCounts(ctx context.Context, since time.Time) (*DashboardCounts, error)
}

// Repo is the full persistence surface.
type Repo interface {
	OrganizationRepo
	ContactRepo
	ConversationRepo
	MessageRepo
	CallRepo
	AccountRepo
	UsageRepo
	JobRepo
	ScriptRepo
	SubscriptionRepo
	AppointmentRepo
	KnowledgeRepo
	StatsRepo

	Close(ctx context.Context) error
}
