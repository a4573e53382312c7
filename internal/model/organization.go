package model

import (
	"time"

	"gorm.io/datatypes"
)

// Organization is the tenant isolation root. Every other entity carries an
// organization_id referencing a row of this table.
type Organization struct {
	ID                     string         `json:"id" gorm:"primaryKey;type:text"`
	Name                   string         `json:"name" gorm:"type:text" validate:"required"`
	Industry               string         `json:"industry,omitempty" gorm:"type:text"`
	Timezone               string         `json:"timezone" gorm:"type:text;default:America/New_York"`
	PlanTier               string         `json:"plan_tier" gorm:"column:plan_tier;type:text" validate:"required,oneof=text voice full"`
	TextEnabled            bool           `json:"text_enabled" gorm:"column:text_enabled;default:true"`
	VoiceEnabled           bool           `json:"voice_enabled" gorm:"column:voice_enabled;default:false"`
	FreeEditsRemaining     int            `json:"free_edits_remaining" gorm:"column:free_edits_remaining;default:3"`
	FreeRegensRemaining    int            `json:"free_regens_remaining" gorm:"column:free_regens_remaining;default:1"`
	BusinessHours          datatypes.JSON `json:"business_hours,omitempty" gorm:"type:jsonb;column:business_hours"`
	AfterHoursAction       string         `json:"after_hours_action" gorm:"column:after_hours_action;type:text;default:voicemail"`
	TransferPhone          string         `json:"transfer_phone,omitempty" gorm:"column:transfer_phone;type:text"`
	MissedCallTextEnabled  bool           `json:"missed_call_text_enabled" gorm:"column:missed_call_text_enabled;default:true"`
	MissedCallTextDelaySec int            `json:"missed_call_text_delay_sec" gorm:"column:missed_call_text_delay_sec;default:60"`
	DripEnabled            bool           `json:"drip_enabled" gorm:"column:drip_enabled;default:false"`
	OnboardingStep         int            `json:"onboarding_step" gorm:"column:onboarding_step;default:0"`
	OnboardingCompletedAt  *time.Time     `json:"onboarding_completed_at,omitempty" gorm:"column:onboarding_completed_at"`
	CreatedAt              time.Time      `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time      `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for the Organization model.
func (Organization) TableName() string {
	return "organizations"
}
