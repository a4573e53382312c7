package model

import "time"

// Conversation statuses.
const (
	ConversationStatusActive   = "active"
	ConversationStatusArchived = "archived"
)

// Conversation is a thread of interaction with one contact on one channel.
// LastActivityAt is monotonically non-decreasing and updated transactionally
// with each new child message or call.
type Conversation struct {
	ID             string     `json:"id" gorm:"primaryKey;type:text"`
	OrganizationID string     `json:"organization_id" gorm:"column:organization_id;index;type:text" validate:"required"`
	ContactID      string     `json:"contact_id" gorm:"column:contact_id;index;type:text" validate:"required"`
	Channel        string     `json:"channel" gorm:"type:text" validate:"required,oneof=sms voice"`
	Status         string     `json:"status" gorm:"type:text;default:active"`
	LastActivityAt *time.Time `json:"last_activity_at,omitempty" gorm:"column:last_activity_at;index"`
	CreatedAt      time.Time  `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (Conversation) TableName() string {
	return "conversations"
}
