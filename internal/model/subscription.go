package model

import "time"

// Subscription is the billing relationship for an organization. Status
// transitions are driven exclusively by billing-provider webhooks.
type Subscription struct {
	ID                   string     `json:"id" gorm:"primaryKey;type:text"`
	OrganizationID       string     `json:"organization_id" gorm:"column:organization_id;uniqueIndex;type:text" validate:"required"`
	StripeCustomerID     string     `json:"stripe_customer_id,omitempty" gorm:"column:stripe_customer_id;type:text"`
	StripeSubscriptionID string     `json:"stripe_subscription_id,omitempty" gorm:"column:stripe_subscription_id;type:text"`
	PlanTier             string     `json:"plan_tier" gorm:"column:plan_tier;type:text" validate:"required,oneof=text voice full"`
	Status               string     `json:"status" gorm:"type:text" validate:"required,oneof=trialing active past_due canceled"`
	TrialEndsAt          *time.Time `json:"trial_ends_at,omitempty" gorm:"column:trial_ends_at"`
	CurrentPeriodStart   *time.Time `json:"current_period_start,omitempty" gorm:"column:current_period_start"`
	CurrentPeriodEnd     *time.Time `json:"current_period_end,omitempty" gorm:"column:current_period_end"`
	CancelAtPeriodEnd    bool       `json:"cancel_at_period_end" gorm:"column:cancel_at_period_end;default:false"`
	CreatedAt            time.Time  `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time  `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}
