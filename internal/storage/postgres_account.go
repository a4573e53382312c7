package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/frontdeskhq/receptionist-core/internal/apperrors"
	"github.com/frontdeskhq/receptionist-core/internal/model"
	"github.com/frontdeskhq/receptionist-core/internal/observer"
)

// CreateAccount provisions the organization's telecom account. One per
// organization; a second insert fails with ErrDuplicate.
func (r *PostgresRepo) CreateAccount(ctx context.Context, account *model.TelecomAccount) error {
	orgID, err := orgFromContext(ctx)
	if err != nil {
		return err
	}
	account.OrganizationID = orgID
	if account.ID == "" {
		account.ID = uuid.NewString()
	}

	startTime := time.Now()
	opErr := retryableOperation(ctx, newRetryPolicy(ctx, commitRetryMaxElapsedTime), "CreateAccount", func() error {
		if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
			return checkConstraintViolation(err)
		}
		return nil
	})
	observer.ObserveDbOperationDuration("create", "telecom_account", orgID, time.Since(startTime), opErr)
	return opErr
}

// FindAccountByOrg loads the organization's telecom account.
func (r *PostgresRepo) FindAccountByOrg(ctx context.Context) (*model.TelecomAccount, error) {
	orgID, err := orgFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var account model.TelecomAccount
	startTime := time.Now()
	opErr := retryableOperation(ctx, newRetryPolicy(ctx, readRetryMaxElapsedTime), "FindAccountByOrg", func() error {
		if err := r.db.WithContext(ctx).
			Where("organization_id = ?", orgID).
			First(&account).Error; err != nil {
			return checkConstraintViolation(err)
		}
		return nil
	})
	observer.ObserveDbOperationDuration("find", "telecom_account", orgID, time.Since(startTime), opErr)
	if opErr != nil {
		return nil, opErr
	}
	return &account, nil
}

// ApplyBalanceTransaction appends a ledger row for the organization's account
// and moves the balance projection under a row lock. Debits that would
// overdraw fail with ErrInsufficientBalance unless auto-reload covers them.
func (r *PostgresRepo) ApplyBalanceTransaction(ctx context.Context, txnType string, amount float64, description, paymentRef string) (*model.BalanceTransaction, error) {
	orgID, err := orgFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var entry *model.BalanceTransaction

	startTime := time.Now()
	opErr := retryableOperation(ctx, newRetryPolicy(ctx, commitRetryMaxElapsedTime), "ApplyBalanceTransaction", func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var account model.TelecomAccount
			if err := tx.Where("organization_id = ?", orgID).First(&account).Error; err != nil {
				return checkConstraintViolation(err)
			}
			e, err := applyLedgerTx(tx, orgID, account.ID, txnType, amount, description, paymentRef)
			if err != nil {
				return err
			}
			entry = e
			return nil
		})
	})
	observer.ObserveDbOperationDuration("apply_transaction", "balance_transaction", orgID, time.Since(startTime), opErr)
	if opErr != nil {
		if apperrors.IsInsufficientBalanceError(opErr) {
			observer.IncInsufficientBalance(orgID)
		}
		return nil, opErr
	}
	observer.IncBalanceTransaction(orgID, txnType)
	return entry, nil
}

// ListBalanceTransactions returns ledger rows newest first.
func (r *PostgresRepo) ListBalanceTransactions(ctx context.Context, limit, offset int) ([]model.BalanceTransaction, error) {
	orgID, err := orgFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var entries []model.BalanceTransaction
	startTime := time.Now()
	opErr := retryableOperation(ctx, newRetryPolicy(ctx, readRetryMaxElapsedTime), "ListBalanceTransactions", func() error {
		return checkConstraintViolation(r.db.WithContext(ctx).
			Where("organization_id = ?", orgID).
			Order("created_at DESC").
			Limit(limit).Offset(offset).
			Find(&entries).Error)
	})
	observer.ObserveDbOperationDuration("list", "balance_transaction", orgID, time.Since(startTime), opErr)
	if opErr != nil {
		return nil, opErr
	}
	return entries, nil
}
