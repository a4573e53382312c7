package model

import "time"

// Contact represents a person the organization communicates with. Phone is
// unique per organization. The opt-out flag is one-way and sticky: once set it
// is never cleared, and no outbound message may ever target the contact again.
type Contact struct {
	ID              string     `json:"id" gorm:"primaryKey;type:text"`
	OrganizationID  string     `json:"organization_id" gorm:"column:organization_id;index:idx_contacts_org_phone,unique;type:text" validate:"required"`
	Phone           string     `json:"phone" gorm:"index:idx_contacts_org_phone,unique;type:text" validate:"required"`
	Email           string     `json:"email,omitempty" gorm:"type:text"`
	FirstName       string     `json:"first_name,omitempty" gorm:"column:first_name;type:text"`
	LastName        string     `json:"last_name,omitempty" gorm:"column:last_name;type:text"`
	Source          string     `json:"source" gorm:"type:text;default:manual" validate:"omitempty,oneof=manual import inbound_call inbound_text"`
	Status          string     `json:"status" gorm:"type:text;default:lead" validate:"omitempty,oneof=lead customer inactive"`
	OptedOut        bool       `json:"opted_out" gorm:"column:opted_out;default:false"`
	OptedOutAt      *time.Time `json:"opted_out_at,omitempty" gorm:"column:opted_out_at"`
	LastContactedAt *time.Time `json:"last_contacted_at,omitempty" gorm:"column:last_contacted_at"`
	CreatedAt       time.Time  `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (Contact) TableName() string {
	return "contacts"
}
