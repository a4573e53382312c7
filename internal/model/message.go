package model

import "time"

// Message is one SMS exchanged in a conversation. AutomationType records
// which automation produced it, if any (missed_call_text, drip_day_N).
type Message struct {
	ID              string    `json:"id" gorm:"primaryKey;type:text"`
	ConversationID  string    `json:"conversation_id" gorm:"column:conversation_id;index;type:text" validate:"required"`
	OrganizationID  string    `json:"organization_id" gorm:"column:organization_id;index;type:text" validate:"required"`
	Direction       string    `json:"direction" gorm:"type:text" validate:"required,oneof=inbound outbound"`
	Content         string    `json:"content" gorm:"type:text" validate:"required"`
	TelnyxMessageID string    `json:"telnyx_message_id,omitempty" gorm:"column:telnyx_message_id;type:text"`
	Status          string    `json:"status" gorm:"type:text;default:queued"`
	AutomationType  string    `json:"automation_type,omitempty" gorm:"column:automation_type;type:text"`
	CreatedAt       time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (Message) TableName() string {
	return "messages"
}
