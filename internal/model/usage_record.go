package model

import "time"

// Reference kinds for the polymorphic usage reference. Constrained to known
// entity kinds instead of free text so the link stays type-checkable at the
// data-access boundary.
const (
	ReferenceKindMessage = "message"
	ReferenceKindCall    = "call"
	ReferenceKindScript  = "script"
	ReferenceKindAccount = "telecom_account"
)

// EntityRef is a typed reference to the entity that originated a usage
// record.
type EntityRef struct {
	Kind string `json:"kind" validate:"required,oneof=message call script telecom_account"`
	ID   string `json:"id" validate:"required"`
}

// UsageRecord is a billable consumption event. Immutable once created; every
// debit-bearing usage record is paired with exactly one balance transaction
// in the same unit of work.
type UsageRecord struct {
	ID             string    `json:"id" gorm:"primaryKey;type:text"`
	OrganizationID string    `json:"organization_id" gorm:"column:organization_id;index;type:text" validate:"required"`
	Type           string    `json:"type" gorm:"type:text" validate:"required,oneof=sms_outbound sms_inbound voice_minute phone_number ai_edit ai_regen"`
	Quantity       int       `json:"quantity" gorm:"default:1" validate:"gt=0"`
	UnitCost       float64   `json:"unit_cost" gorm:"column:unit_cost;type:numeric(12,4)"`
	TotalCost      float64   `json:"total_cost" gorm:"column:total_cost;type:numeric(12,4)"`
	ReferenceType  string    `json:"reference_type,omitempty" gorm:"column:reference_type;type:text"`
	ReferenceID    string    `json:"reference_id,omitempty" gorm:"column:reference_id;type:text"`
	CreatedAt      time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (UsageRecord) TableName() string {
	return "usage_records"
}

// UsageCharge describes a metered event to be recorded atomically with the
// mutation that caused it. A zero TotalCost records usage without touching
// the ledger.
type UsageCharge struct {
	Type      string
	Quantity  int
	UnitCost  float64
	TotalCost float64
	Reference EntityRef
}

// NewUsageCharge builds a charge with TotalCost derived from quantity and
// unit cost.
func NewUsageCharge(usageType string, quantity int, unitCost float64, ref EntityRef) *UsageCharge {
	return &UsageCharge{
		Type:      usageType,
		Quantity:  quantity,
		UnitCost:  unitCost,
		TotalCost: float64(quantity) * unitCost,
		Reference: ref,
	}
}
