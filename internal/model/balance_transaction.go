package model

import "time"

// BalanceTransaction is one row of the append-only prepaid ledger. Amount is
// always positive; the type determines the sign of the delta (credits add,
// debits subtract). BalanceAfter snapshots the projected balance at the time
// the row was written.
type BalanceTransaction struct {
	ID                    string    `json:"id" gorm:"primaryKey;type:text"`
	OrganizationID        string    `json:"organization_id" gorm:"column:organization_id;index;type:text" validate:"required"`
	Type                  string    `json:"type" gorm:"type:text" validate:"required,oneof=credit debit"`
	Amount                float64   `json:"amount" gorm:"type:numeric(12,4)" validate:"gt=0"`
	BalanceAfter          float64   `json:"balance_after" gorm:"column:balance_after;type:numeric(12,4)"`
	Description           string    `json:"description,omitempty" gorm:"type:text"`
	StripePaymentIntentID string    `json:"stripe_payment_intent_id,omitempty" gorm:"column:stripe_payment_intent_id;type:text"`
	CreatedAt             time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (BalanceTransaction) TableName() string {
	return "balance_transactions"
}

// Delta returns the signed effect of the transaction on the balance.
func (t *BalanceTransaction) Delta() float64 {
	if t.Type == BalanceTransactionDebit {
		return -t.Amount
	}
	return t.Amount
}
