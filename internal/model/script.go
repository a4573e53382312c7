package model

import "time"

// Script is an editable automation template for voice/SMS flows.
type Script struct {
	ID             string    `json:"id" gorm:"primaryKey;type:text"`
	OrganizationID string    `json:"organization_id" gorm:"column:organization_id;index:idx_scripts_org_type,unique;type:text" validate:"required"`
	Type           string    `json:"type" gorm:"index:idx_scripts_org_type,unique;type:text" validate:"required,oneof=voice_greeting voice_booking voice_transfer missed_call_text drip_day_1 drip_day_7 drip_day_21 drip_day_30"`
	Content        string    `json:"content" gorm:"type:text" validate:"required"`
	AIGenerated    bool      `json:"ai_generated" gorm:"column:ai_generated;default:false"`
	CreatedAt      time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (Script) TableName() string {
	return "scripts"
}
