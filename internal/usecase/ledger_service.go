package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/frontdeskhq/receptionist-core/internal/apperrors"
	"github.com/frontdeskhq/receptionist-core/internal/model"
	"github.com/frontdeskhq/receptionist-core/internal/validator"
	"github.com/frontdeskhq/receptionist-core/pkg/logger"
)

// CreditBalance records a top-up on the organization's prepaid balance,
// typically driven by a payment-provider webhook carrying the payment intent.
func (s *DataService) CreditBalance(ctx context.Context, amount float64, description, paymentRef string) (*model.BalanceTransaction, error) {
	if err := validator.ValidateVar(amount, "required,gt=0"); err != nil {
		return nil, apperrors.NewFatal(apperrors.ErrBadRequest, "credit amount must be positive, got %.4f", amount)
	}

	entry, err := s.repo.ApplyBalanceTransaction(ctx, model.BalanceTransactionCredit, amount, description, paymentRef)
	if err != nil {
		if apperrors.IsNotFoundError(err) {
			return nil, err
		}
		return nil, apperrors.NewRetryable(err, "failed to credit balance")
	}

	logger.FromContext(ctx).Info("Balance credited",
		zap.Float64("amount", entry.Amount),
		zap.Float64("balance_after", entry.BalanceAfter),
	)
	return entry, nil
}

// DebitBalance records a manual debit, e.g. the monthly phone-number fee.
// Overdrawing fails with ErrInsufficientBalance unless auto-reload covers it.
func (s *DataService) DebitBalance(ctx context.Context, amount float64, description string) (*model.BalanceTransaction, error) {
	if err := validator.ValidateVar(amount, "required,gt=0"); err != nil {
		return nil, apperrors.NewFatal(apperrors.ErrBadRequest, "debit amount must be positive, got %.4f", amount)
	}

	entry, err := s.repo.ApplyBalanceTransaction(ctx, model.BalanceTransactionDebit, amount, description, "")
	if err != nil {
		if apperrors.IsInsufficientBalanceError(err) || apperrors.IsNotFoundError(err) {
			return nil, err
		}
		return nil, apperrors.NewRetryable(err, "failed to debit balance")
	}
	return entry, nil
}

// ChargeMonthlyPhoneNumber debits the phone-number fee at the configured rate.
func (s *DataService) ChargeMonthlyPhoneNumber(ctx context.Context) (*model.BalanceTransaction, error) {
	return s.DebitBalance(ctx, s.pricing.PhoneNumber, "monthly phone number fee")
}

// GetBalance returns the organization's current prepaid balance.
func (s *DataService) GetBalance(ctx context.Context) (float64, error) {
	account, err := s.repo.FindAccountByOrg(ctx)
	if err != nil {
		if apperrors.IsNotFoundError(err) {
			return 0, err
		}
		return 0, apperrors.NewRetryable(err, "failed to load telecom account")
	}
	return account.PrepaidBalance, nil
}

// GetBalanceHistory returns a page of ledger rows, newest first.
func (s *DataService) GetBalanceHistory(ctx context.Context, limit, offset int) ([]model.BalanceTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	entries, err := s.repo.ListBalanceTransactions(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.NewRetryable(err, "failed to list balance transactions")
	}
	return entries, nil
}

// GetUsage returns usage rows since a point in time (defaulting to the
// trailing 30 days).
func (s *DataService) GetUsage(ctx context.Context, since time.Time, limit, offset int) ([]model.UsageRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	records, err := s.repo.ListUsageRecords(ctx, sinceOrDefault(since), limit, offset)
	if err != nil {
		return nil, apperrors.NewRetryable(err, "failed to list usage records")
	}
	return records, nil
}

// GetUsageTotals returns per-type usage cost totals since a point in time.
func (s *DataService) GetUsageTotals(ctx context.Context, since time.Time) (map[string]float64, error) {
	totals, err := s.repo.UsageTotals(ctx, sinceOrDefault(since))
	if err != nil {
		return nil, apperrors.NewRetryable(err, "failed to aggregate usage")
	}
	return totals, nil
}
