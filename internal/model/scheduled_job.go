package model

import "time"

// ScheduledJob is a deferred automation task produced by this core and
// consumed by an external worker. Rows are idempotent on
// (organization_id, type, contact_id, scheduled_for): a duplicate trigger for
// the same logical job never creates a second row.
type ScheduledJob struct {
	ID             string    `json:"id" gorm:"primaryKey;type:text"`
	OrganizationID string    `json:"organization_id" gorm:"column:organization_id;index:idx_jobs_identity,unique;type:text" validate:"required"`
	ContactID      string    `json:"contact_id,omitempty" gorm:"column:contact_id;index:idx_jobs_identity,unique;type:text"`
	Type           string    `json:"type" gorm:"index:idx_jobs_identity,unique;type:text" validate:"required,oneof=missed_call_text drip_campaign low_balance_alert"`
	ScheduledFor   time.Time `json:"scheduled_for" gorm:"column:scheduled_for;index:idx_jobs_identity,unique" validate:"required"`
	Status         string    `json:"status" gorm:"type:text;default:pending"`
	FailureReason  string    `json:"failure_reason,omitempty" gorm:"column:failure_reason;type:text"`
	BullmqJobID    string    `json:"bullmq_job_id,omitempty" gorm:"column:bullmq_job_id;type:text"`
	CreatedAt      time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (ScheduledJob) TableName() string {
	return "scheduled_jobs"
}
