package model

import "time"

// Call is one voice call. A call is created at call start and finalized
// (duration, transcript, outcome, ended_at) exactly once at call end.
// ConversationID is set for every call created through StartCall; it is left
// empty only for failed-dial attempts recorded before any thread exists.
type Call struct {
	ID              string     `json:"id" gorm:"primaryKey;type:text"`
	ConversationID  string     `json:"conversation_id,omitempty" gorm:"column:conversation_id;index;type:text"`
	OrganizationID  string     `json:"organization_id" gorm:"column:organization_id;index;type:text" validate:"required"`
	ContactID       string     `json:"contact_id" gorm:"column:contact_id;index;type:text" validate:"required"`
	Direction       string     `json:"direction" gorm:"type:text" validate:"required,oneof=inbound outbound"`
	Status          string     `json:"status" gorm:"type:text" validate:"required"`
	VapiCallID      string     `json:"vapi_call_id,omitempty" gorm:"column:vapi_call_id;type:text"`
	DurationSeconds int        `json:"duration_seconds,omitempty" gorm:"column:duration_seconds"`
	RecordingURL    string     `json:"recording_url,omitempty" gorm:"column:recording_url;type:text"`
	Transcript      string     `json:"transcript,omitempty" gorm:"type:text"`
	Summary         string     `json:"summary,omitempty" gorm:"type:text"`
	Outcome         string     `json:"outcome,omitempty" gorm:"type:text" validate:"omitempty,oneof=answered voicemail missed transferred booked"`
	TransferredTo   string     `json:"transferred_to,omitempty" gorm:"column:transferred_to;type:text"`
	StartedAt       *time.Time `json:"started_at,omitempty" gorm:"column:started_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty" gorm:"column:ended_at"`
	CreatedAt       time.Time  `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (Call) TableName() string {
	return "calls"
}

// Finalized reports whether the call has already been closed out.
func (c *Call) Finalized() bool {
	return c.EndedAt != nil
}

// CallResult carries the fields set when a call ends.
type CallResult struct {
	DurationSeconds int    `json:"duration_seconds" validate:"gte=0"`
	RecordingURL    string `json:"recording_url,omitempty"`
	Transcript      string `json:"transcript,omitempty"`
	Summary         string `json:"summary,omitempty"`
	Outcome         string `json:"outcome" validate:"required,oneof=answered voicemail missed transferred booked"`
	TransferredTo   string `json:"transferred_to,omitempty"`
}
