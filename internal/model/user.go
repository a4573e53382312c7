package model

import "time"

// User is a human operator linked to an organization. Auth identity and
// calendar OAuth tokens are opaque references to external providers.
type User struct {
	ID                   string     `json:"id" gorm:"primaryKey;type:text"`
	OrganizationID       string     `json:"organization_id,omitempty" gorm:"column:organization_id;index;type:text"`
	ClerkUserID          string     `json:"clerk_user_id" gorm:"column:clerk_user_id;uniqueIndex;type:text" validate:"required"`
	Email                string     `json:"email" gorm:"type:text" validate:"required,email"`
	Name                 string     `json:"name,omitempty" gorm:"type:text"`
	GoogleAccessToken    string     `json:"-" gorm:"column:google_access_token;type:text"`
	GoogleRefreshToken   string     `json:"-" gorm:"column:google_refresh_token;type:text"`
	GoogleTokenExpiresAt *time.Time `json:"google_token_expires_at,omitempty" gorm:"column:google_token_expires_at"`
	CreatedAt            time.Time  `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (User) TableName() string {
	return "users"
}
