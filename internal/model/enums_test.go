package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidSubscriptionTransition(t *testing.T) {
	testCases := []struct {
		from, to string
		valid    bool
	}{
		{SubscriptionStatusTrialing, SubscriptionStatusActive, true},
		{SubscriptionStatusTrialing, SubscriptionStatusCanceled, true},
		{SubscriptionStatusTrialing, SubscriptionStatusPastDue, false},
		{SubscriptionStatusActive, SubscriptionStatusPastDue, true},
		{SubscriptionStatusActive, SubscriptionStatusCanceled, true},
		{SubscriptionStatusActive, SubscriptionStatusTrialing, false},
		{SubscriptionStatusPastDue, SubscriptionStatusActive, true},
		{SubscriptionStatusPastDue, SubscriptionStatusCanceled, true},
		{SubscriptionStatusCanceled, SubscriptionStatusActive, false},
		{SubscriptionStatusCanceled, SubscriptionStatusTrialing, false},
	}

	for _, tc := range testCases {
		assert.Equalf(t, tc.valid, ValidSubscriptionTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestValidAppointmentTransition(t *testing.T) {
	testCases := []struct {
		from, to string
		valid    bool
	}{
		{AppointmentStatusScheduled, AppointmentStatusConfirmed, true},
		{AppointmentStatusScheduled, AppointmentStatusCanceled, true},
		{AppointmentStatusScheduled, AppointmentStatusCompleted, false},
		{AppointmentStatusConfirmed, AppointmentStatusCompleted, true},
		{AppointmentStatusConfirmed, AppointmentStatusCanceled, true},
		{AppointmentStatusConfirmed, AppointmentStatusScheduled, false},
		{AppointmentStatusCompleted, AppointmentStatusCanceled, false},
		{AppointmentStatusCanceled, AppointmentStatusScheduled, false},
	}

	for _, tc := range testCases {
		assert.Equalf(t, tc.valid, ValidAppointmentTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestBalanceTransactionDelta(t *testing.T) {
	credit := BalanceTransaction{Type: BalanceTransactionCredit, Amount: 20}
	debit := BalanceTransaction{Type: BalanceTransactionDebit, Amount: 5}
	assert.Equal(t, 20.0, credit.Delta())
	assert.Equal(t, -5.0, debit.Delta())
}

func TestNewUsageCharge(t *testing.T) {
	charge := NewUsageCharge(UsageTypeVoiceMinute, 3, 0.10, EntityRef{Kind: ReferenceKindCall, ID: "call-1"})
	assert.Equal(t, UsageTypeVoiceMinute, charge.Type)
	assert.Equal(t, 3, charge.Quantity)
	assert.InDelta(t, 0.30, charge.TotalCost, 1e-9)
	assert.Equal(t, "call-1", charge.Reference.ID)
}

func TestCallFinalized(t *testing.T) {
	call := Call{}
	assert.False(t, call.Finalized())

	now := time.Now().UTC()
	call.EndedAt = &now
	assert.True(t, call.Finalized())
}
