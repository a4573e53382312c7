package model

import (
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"

	"github.com/frontdeskhq/receptionist-core/pkg/utils"
)

// init ensures gofakeit is seeded.
func init() {
	gofakeit.Seed(time.Now().UnixNano())
}

// NewOrganization creates an Organization with default fake data, applying an
// optional override.
func NewOrganization(overrideDefaults ...*Organization) *Organization {
	base := &Organization{
		ID:                  uuid.NewString(),
		Name:                gofakeit.Company(),
		Industry:            gofakeit.BuzzWord(),
		Timezone:            "America/New_York",
		PlanTier:            gofakeit.RandomString([]string{PlanTierText, PlanTierVoice, PlanTierFull}),
		TextEnabled:         true,
		VoiceEnabled:        gofakeit.Bool(),
		FreeEditsRemaining:  3,
		FreeRegensRemaining: 1,
		AfterHoursAction:    "voicemail",
		CreatedAt:           utils.Now().Add(-time.Duration(gofakeit.Number(1, 100)) * time.Hour),
		UpdatedAt:           utils.Now(),
	}
	if len(overrideDefaults) > 0 && overrideDefaults[0] != nil {
		ovr := overrideDefaults[0]
		if ovr.ID != "" {
			base.ID = ovr.ID
		}
		if ovr.Name != "" {
			base.Name = ovr.Name
		}
		if ovr.PlanTier != "" {
			base.PlanTier = ovr.PlanTier
		}
		base.FreeEditsRemaining = ovr.FreeEditsRemaining
		base.FreeRegensRemaining = ovr.FreeRegensRemaining
		base.VoiceEnabled = ovr.VoiceEnabled
	}
	return base
}

// NewContact creates a Contact with default fake data for an organization.
func NewContact(orgID string, overrideDefaults ...*Contact) *Contact {
	base := &Contact{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		Phone:          gofakeit.Phone(),
		FirstName:      gofakeit.FirstName(),
		LastName:       gofakeit.LastName(),
		Source:         ContactSourceManual,
		Status:         ContactStatusLead,
		CreatedAt:      utils.Now(),
	}
	if len(overrideDefaults) > 0 && overrideDefaults[0] != nil {
		ovr := overrideDefaults[0]
		if ovr.ID != "" {
			base.ID = ovr.ID
		}
		if ovr.Phone != "" {
			base.Phone = ovr.Phone
		}
		if ovr.Source != "" {
			base.Source = ovr.Source
		}
		if ovr.Status != "" {
			base.Status = ovr.Status
		}
		base.OptedOut = ovr.OptedOut
		base.OptedOutAt = ovr.OptedOutAt
	}
	return base
}

// NewConversation creates a Conversation for a contact.
func NewConversation(orgID, contactID, channel string) *Conversation {
	now := utils.Now()
	return &Conversation{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		ContactID:      contactID,
		Channel:        channel,
		Status:         ConversationStatusActive,
		LastActivityAt: &now,
		CreatedAt:      now,
	}
}

// NewTelecomAccount creates a TelecomAccount with a given balance.
func NewTelecomAccount(orgID string, balance float64) *TelecomAccount {
	return &TelecomAccount{
		ID:                  uuid.NewString(),
		OrganizationID:      orgID,
		PhoneNumber:         gofakeit.Phone(),
		SelectedVoiceID:     "default",
		PrepaidBalance:      balance,
		AutoReloadThreshold: 5,
		AutoReloadAmount:    20,
		CreatedAt:           utils.Now(),
		UpdatedAt:           utils.Now(),
	}
}

// NewScheduledJob creates a pending ScheduledJob.
func NewScheduledJob(orgID, contactID, jobType string, scheduledFor time.Time) *ScheduledJob {
	return &ScheduledJob{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		ContactID:      contactID,
		Type:           jobType,
		ScheduledFor:   scheduledFor.UTC(),
		Status:         JobStatusPending,
		CreatedAt:      utils.Now(),
	}
}
