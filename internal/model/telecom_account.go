package model

import "time"

// TelecomAccount holds an organization's phone/voice provisioning and its
// prepaid balance. The balance column is a projection: it must always equal
// the sum of the account's balance transaction deltas, and is only ever
// mutated together with a ledger insert under a row lock.
type TelecomAccount struct {
	ID                  string    `json:"id" gorm:"primaryKey;type:text"`
	OrganizationID      string    `json:"organization_id" gorm:"column:organization_id;uniqueIndex;type:text" validate:"required"`
	TelnyxConnectionID  string    `json:"telnyx_connection_id,omitempty" gorm:"column:telnyx_connection_id;type:text"`
	PhoneNumber         string    `json:"phone_number,omitempty" gorm:"column:phone_number;type:text"`
	PhoneNumberID       string    `json:"phone_number_id,omitempty" gorm:"column:phone_number_id;type:text"`
	VapiAssistantID     string    `json:"vapi_assistant_id,omitempty" gorm:"column:vapi_assistant_id;type:text"`
	SelectedVoiceID     string    `json:"selected_voice_id" gorm:"column:selected_voice_id;type:text;default:default"`
	PrepaidBalance      float64   `json:"prepaid_balance" gorm:"column:prepaid_balance;type:numeric(12,4);default:0"`
	AutoReloadEnabled   bool      `json:"auto_reload_enabled" gorm:"column:auto_reload_enabled;default:false"`
	AutoReloadThreshold float64   `json:"auto_reload_threshold" gorm:"column:auto_reload_threshold;type:numeric(12,4);default:5"`
	AutoReloadAmount    float64   `json:"auto_reload_amount" gorm:"column:auto_reload_amount;type:numeric(12,4);default:20"`
	CreatedAt           time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (TelecomAccount) TableName() string {
	return "telecom_accounts"
}
