package model

import "time"

// Appointment is a booked calendar slot created by the booking flow (call or
// text). GoogleEventID references the synced external calendar event.
type Appointment struct {
	ID              string    `json:"id" gorm:"primaryKey;type:text"`
	OrganizationID  string    `json:"organization_id" gorm:"column:organization_id;index;type:text" validate:"required"`
	ContactID       string    `json:"contact_id" gorm:"column:contact_id;index;type:text" validate:"required"`
	Title           string    `json:"title" gorm:"type:text" validate:"required"`
	ScheduledAt     time.Time `json:"scheduled_at" gorm:"column:scheduled_at;index" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" gorm:"column:duration_minutes;default:30"`
	GoogleEventID   string    `json:"google_event_id,omitempty" gorm:"column:google_event_id;type:text"`
	Status          string    `json:"status" gorm:"type:text;default:scheduled" validate:"omitempty,oneof=scheduled confirmed completed canceled"`
	CreatedAt       time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (Appointment) TableName() string {
	return "appointments"
}
