package model

// Enumerations below are part of the persisted data contract and must match
// existing rows byte for byte.

// Plan tiers.
const (
	PlanTierText  = "text"
	PlanTierVoice = "voice"
	PlanTierFull  = "full"
)

// Subscription statuses.
const (
	SubscriptionStatusTrialing = "trialing"
	SubscriptionStatusActive   = "active"
	SubscriptionStatusPastDue  = "past_due"
	SubscriptionStatusCanceled = "canceled"
)

// Conversation channels.
const (
	ChannelSMS   = "sms"
	ChannelVoice = "voice"
)

// Message/call directions.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// Contact sources.
const (
	ContactSourceManual      = "manual"
	ContactSourceImport      = "import"
	ContactSourceInboundCall = "inbound_call"
	ContactSourceInboundText = "inbound_text"
)

// Contact statuses.
const (
	ContactStatusLead     = "lead"
	ContactStatusCustomer = "customer"
	ContactStatusInactive = "inactive"
)

// Call outcomes.
const (
	CallOutcomeAnswered    = "answered"
	CallOutcomeVoicemail   = "voicemail"
	CallOutcomeMissed      = "missed"
	CallOutcomeTransferred = "transferred"
	CallOutcomeBooked      = "booked"
)

// Call statuses.
const (
	CallStatusInProgress = "in_progress"
	CallStatusCompleted  = "completed"
	CallStatusFailed     = "failed"
)

// Message delivery statuses.
const (
	MessageStatusQueued    = "queued"
	MessageStatusSent      = "sent"
	MessageStatusDelivered = "delivered"
	MessageStatusFailed    = "failed"
	MessageStatusReceived  = "received"
)

// Script types.
const (
	ScriptTypeVoiceGreeting  = "voice_greeting"
	ScriptTypeVoiceBooking   = "voice_booking"
	ScriptTypeVoiceTransfer  = "voice_transfer"
	ScriptTypeMissedCallText = "missed_call_text"
	ScriptTypeDripDay1       = "drip_day_1"
	ScriptTypeDripDay7       = "drip_day_7"
	ScriptTypeDripDay21      = "drip_day_21"
	ScriptTypeDripDay30      = "drip_day_30"
)

// Knowledge source types.
const (
	KnowledgeSourceTypePDF  = "pdf"
	KnowledgeSourceTypeURL  = "url"
	KnowledgeSourceTypeText = "text"
)

// Knowledge source processing statuses.
const (
	KnowledgeStatusPending   = "pending"
	KnowledgeStatusProcessed = "processed"
	KnowledgeStatusFailed    = "failed"
)

// Appointment statuses.
const (
	AppointmentStatusScheduled = "scheduled"
	AppointmentStatusConfirmed = "confirmed"
	AppointmentStatusCompleted = "completed"
	AppointmentStatusCanceled  = "canceled"
)

// Usage record types.
const (
	UsageTypeSMSOutbound = "sms_outbound"
	UsageTypeSMSInbound  = "sms_inbound"
	UsageTypeVoiceMinute = "voice_minute"
	UsageTypePhoneNumber = "phone_number"
	UsageTypeAIEdit      = "ai_edit"
	UsageTypeAIRegen     = "ai_regen"
)

// Balance transaction types.
const (
	BalanceTransactionCredit = "credit"
	BalanceTransactionDebit  = "debit"
)

// Scheduled job types.
const (
	JobTypeMissedCallText  = "missed_call_text"
	JobTypeDripCampaign    = "drip_campaign"
	JobTypeLowBalanceAlert = "low_balance_alert"
)

// Scheduled job statuses.
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// JobFailureOptedOut is recorded on jobs canceled because their target
// contact opted out.
const JobFailureOptedOut = "recipient_opted_out"

// ValidSubscriptionTransition reports whether a subscription may move from
// one status to another. Canceled is terminal.
func ValidSubscriptionTransition(from, to string) bool {
	switch from {
	case SubscriptionStatusTrialing:
		return to == SubscriptionStatusActive || to == SubscriptionStatusCanceled
	case SubscriptionStatusActive:
		return to == SubscriptionStatusPastDue || to == SubscriptionStatusCanceled
	case SubscriptionStatusPastDue:
		return to == SubscriptionStatusActive || to == SubscriptionStatusCanceled
	default:
		return false
	}
}

// ValidAppointmentTransition reports whether an appointment may move from one
// status to another. Completed and canceled are terminal.
func ValidAppointmentTransition(from, to string) bool {
	switch from {
	case AppointmentStatusScheduled:
		return to == AppointmentStatusConfirmed || to == AppointmentStatusCanceled
	case AppointmentStatusConfirmed:
		return to == AppointmentStatusCompleted || to == AppointmentStatusCanceled
	default:
		return false
	}
}
