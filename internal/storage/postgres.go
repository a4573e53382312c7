package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/frontdeskhq/receptionist-core/internal/apperrors"
	"github.com/frontdeskhq/receptionist-core/internal/model"
	"github.com/frontdeskhq/receptionist-core/internal/tenant"
	"github.com/frontdeskhq/receptionist-core/pkg/logger"
	"github.com/frontdeskhq/receptionist-core/pkg/utils"
)

// --- Retry Logic Configuration ---
const (
	defaultRetryInitialInterval = 50 * time.Millisecond
	defaultRetryMaxInterval     = 2 * time.Second
	readRetryMaxElapsedTime     = 5 * time.Second  // More aggressive for reads
	commitRetryMaxElapsedTime   = 15 * time.Second // More tolerant for commits
)

// PostgresRepo implements the repository interfaces over a single GORM
// connection. Tenant isolation is enforced by deriving the organization ID
// from the context and scoping every query with it.
type PostgresRepo struct {
	db *gorm.DB
}

// NewPostgresRepo connects to Postgres with retry and optionally runs
// auto-migration for the full table set.
func NewPostgresRepo(dsn string, autoMigrate bool) (*PostgresRepo, error) {
	operationConnect := func() (*gorm.DB, error) {
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			if isTransientError(err) {
				logger.Log.Warn("Failed to connect to postgres (transient), retrying...", zap.Error(err))
				return nil, err
			}
			return nil, backoff.Permanent(fmt.Errorf("failed to connect to postgres: %w", err))
		}
		return db, nil
	}

	notify := func(err error, d time.Duration) {
		logger.Log.Warn("Retrying DB connection", zap.Error(err), zap.Duration("after", d))
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 1 * time.Second
	b.MaxInterval = 15 * time.Second
	b.MaxElapsedTime = 1 * time.Minute

	db, err := backoff.RetryNotifyWithData(operationConnect, b, notify)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres after retries: %w", err)
	}

	repo := &PostgresRepo{db: db}

	if autoMigrate {
		logger.Log.Info("Running auto-migration")
		err = db.AutoMigrate(
			&model.Organization{},
			&model.User{},
			&model.Subscription{},
			&model.TelecomAccount{},
			&model.Contact{},
			&model.Conversation{},
			&model.Message{},
			&model.Call{},
			&model.Script{},
			&model.KnowledgeSource{},
			&model.Appointment{},
			&model.UsageRecord{},
			&model.BalanceTransaction{},
			&model.ScheduledJob{},
		)
		if err != nil {
			logger.Log.Error("Auto-migration failed or produced errors", zap.Error(err))
		}
	} else {
		logger.Log.Info("Auto-migration disabled")
	}

	return repo, nil
}

// Ping verifies database connectivity, used by readiness probes.
func (r *PostgresRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection.
func (r *PostgresRepo) Close(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		logger.FromContext(ctx).Warn("Failed to get underlying SQL DB for closing", zap.Error(err))
		return nil
	}

	if closeErr := sqlDB.Close(); closeErr != nil {
		logger.FromContext(ctx).Error("Failed to close database connection", zap.Error(closeErr))
		return fmt.Errorf("failed to close SQL DB: %w", closeErr)
	}

	logger.FromContext(ctx).Info("Database connection closed successfully")
	return nil
}

// orgFromContext extracts the tenant organization ID, mapping a missing ID to
// a tenant error so callers never issue unscoped queries.
func orgFromContext(ctx context.Context) (string, error) {
	orgID, err := tenant.FromContext(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: no organization in context: %w", apperrors.ErrTenantMismatch, err)
	}
	return orgID, nil
}

// newRetryPolicy creates a new exponential backoff policy with context awareness.
func newRetryPolicy(ctx context.Context, maxElapsedTime time.Duration) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = defaultRetryInitialInterval
	b.MaxInterval = defaultRetryMaxInterval
	b.MaxElapsedTime = maxElapsedTime
	b.Reset()
	return backoff.WithContext(b, ctx)
}

// retryableOperation wraps a database operation with retry logic. Domain
// sentinel errors are never retried; only transient storage failures are.
func retryableOperation(ctx context.Context, policy backoff.BackOffContext, opName string, operation func() error) error {
	notify := func(err error, d time.Duration) {
		logger.FromContext(ctx).Warn("Retrying DB operation",
			zap.String("operation", opName),
			zap.Error(err),
			zap.Duration("after", d),
		)
	}

	err := backoff.RetryNotify(func() error {
		err := operation()
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) ||
				errors.Is(err, gorm.ErrInvalidTransaction) ||
				errors.Is(err, gorm.ErrDuplicatedKey) ||
				errors.Is(err, gorm.ErrForeignKeyViolated) {
				return backoff.Permanent(err)
			}
			if isDomainError(err) {
				return backoff.Permanent(err)
			}
			if isTransientError(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		return nil
	}, policy, notify)

	return err
}

// isDomainError reports whether the error carries a domain-rule sentinel.
// Retrying these can never succeed.
func isDomainError(err error) bool {
	return errors.Is(err, apperrors.ErrConsentViolation) ||
		errors.Is(err, apperrors.ErrInvalidState) ||
		errors.Is(err, apperrors.ErrInsufficientBalance) ||
		errors.Is(err, apperrors.ErrTenantMismatch) ||
		errors.Is(err, apperrors.ErrAlreadyClaimed) ||
		errors.Is(err, apperrors.ErrNotFound) ||
		errors.Is(err, apperrors.ErrDuplicate) ||
		errors.Is(err, apperrors.ErrBadRequest)
}

// isTransientError checks if the error suggests a temporary issue like a
// network problem.
func isTransientError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 08 - Connection Exception
		// Class 53 - Insufficient Resources
		// 40001/40P01 - serialization failure / deadlock
		if strings.HasPrefix(pgErr.Code, "08") ||
			strings.HasPrefix(pgErr.Code, "53") ||
			pgErr.Code == "40P01" ||
			pgErr.Code == "40001" {
			return true
		}
	}

	errStr := strings.ToLower(err.Error())
	transientIndicators := []string{
		"connection refused",
		"network is unreachable",
		"i/o timeout",
		"broken pipe",
		"connection reset by peer",
		"could not translate host name",
		"no route to host",
		"database system is starting up",
		"connection timed out",
		"connection reset",
	}
	for _, indicator := range transientIndicators {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}

	return false
}

// checkConstraintViolation inspects database errors and maps them to standard
// apperrors.
func checkConstraintViolation(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %w", apperrors.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		// Class 23 - Integrity Constraint Violation
		case "23505": // unique_violation
			return fmt.Errorf("%w: constraint %s: %w", apperrors.ErrDuplicate, pgErr.ConstraintName, err)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%w: constraint %s: %w", apperrors.ErrBadRequest, pgErr.ConstraintName, err)
		case "23502": // not_null_violation
			return fmt.Errorf("%w: null value in column %s: %w", apperrors.ErrBadRequest, pgErr.ColumnName, err)
		case "23514": // check_violation
			return fmt.Errorf("%w: constraint %s: %w", apperrors.ErrBadRequest, pgErr.ConstraintName, err)

		// Class 22 - Data Exception
		case "22001": // string_data_right_truncation
			return fmt.Errorf("%w: value too long for column %s: %w", apperrors.ErrBadRequest, pgErr.ColumnName, err)
		case "22P02": // invalid_text_representation
			return fmt.Errorf("%w: invalid input syntax for type %s: %w", apperrors.ErrBadRequest, pgErr.DataTypeName, err)

		// Class 40 - Transaction Rollback
		case "40001": // serialization_failure
			fallthrough
		case "40P01": // deadlock_detected
			return fmt.Errorf("%w: transaction rollback (%s): %w", apperrors.ErrDatabase, pgErr.Code, err)

		default:
			if strings.HasPrefix(pgErr.Code, "53") { // Class 53 - Insufficient Resources
				return fmt.Errorf("%w: insufficient resources (%s): %w", apperrors.ErrDatabase, pgErr.Code, err)
			}
			if strings.HasPrefix(pgErr.Code, "08") { // Class 08 - Connection Exception
				return fmt.Errorf("%w: connection error (%s): %w", apperrors.ErrDatabase, pgErr.Code, err)
			}
			return fmt.Errorf("%w: unhandled pgcode %s: %w", apperrors.ErrDatabase, pgErr.Code, err)
		}
	}

	return fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
}

// notFoundf wraps ErrNotFound with a formatted detail message.
func notFoundf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{apperrors.ErrNotFound}, args...)...)
}

// invalidStatef wraps ErrInvalidState with a formatted detail message.
func invalidStatef(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{apperrors.ErrInvalidState}, args...)...)
}

// --- Shared transactional helpers ---
//
// The helpers below run inside an already-open transaction and implement the
// pieces shared by several operations: the prepaid ledger, the free-tier
// meter, and the conversation activity clock.

// applyLedgerTx appends a ledger row and moves the balance projection under
// the account row lock the caller must already hold (or acquires here).
// Debits exceeding the balance synthesize an auto-reload credit first when
// the account allows it; otherwise the whole transaction fails with
// ErrInsufficientBalance.
func applyLedgerTx(tx *gorm.DB, orgID, accountID, txnType string, amount float64, description, paymentRef string) (*model.BalanceTransaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: transaction amount must be positive", apperrors.ErrBadRequest)
	}

	var account model.TelecomAccount
	err := tx.Clauses(lockForUpdate()).
		Where("id = ? AND organization_id = ?", accountID, orgID).
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: telecom account %s", apperrors.ErrNotFound, accountID)
		}
		return nil, fmt.Errorf("%w: failed to lock account row: %w", apperrors.ErrDatabase, err)
	}

	balance := account.PrepaidBalance

	if txnType == model.BalanceTransactionDebit && amount > balance {
		if !account.AutoReloadEnabled {
			return nil, fmt.Errorf("%w: debit %.4f exceeds balance %.4f", apperrors.ErrInsufficientBalance, amount, balance)
		}
		// Synthesize the top-up in the same atomic unit as the debit so the
		// balance is never observed transiently negative or double-topped-up.
		topUp := account.AutoReloadAmount
		if balance+topUp < amount {
			return nil, fmt.Errorf("%w: debit %.4f exceeds balance %.4f after auto-reload of %.4f", apperrors.ErrInsufficientBalance, amount, balance, topUp)
		}
		balance += topUp
		credit := model.BalanceTransaction{
			ID:             uuid.NewString(),
			OrganizationID: orgID,
			Type:           model.BalanceTransactionCredit,
			Amount:         topUp,
			BalanceAfter:   balance,
			Description:    "auto-reload",
			CreatedAt:      utils.Now(),
		}
		if err := tx.Create(&credit).Error; err != nil {
			return nil, checkConstraintViolation(err)
		}
	}

	entry := model.BalanceTransaction{
		ID:                    uuid.NewString(),
		OrganizationID:        orgID,
		Type:                  txnType,
		Amount:                amount,
		Description:           description,
		StripePaymentIntentID: paymentRef,
		CreatedAt:             utils.Now(),
	}
	if txnType == model.BalanceTransactionDebit {
		balance -= amount
	} else {
		balance += amount
	}
	entry.BalanceAfter = balance

	if err := tx.Create(&entry).Error; err != nil {
		return nil, checkConstraintViolation(err)
	}

	updates := map[string]interface{}{
		"prepaid_balance": balance,
		"updated_at":      utils.Now(),
	}
	if err := tx.Model(&model.TelecomAccount{}).Where("id = ?", account.ID).Updates(updates).Error; err != nil {
		return nil, checkConstraintViolation(err)
	}

	// A debit that leaves the balance under the threshold with auto-reload
	// off schedules a low-balance alert, at most once per day.
	if txnType == model.BalanceTransactionDebit && !account.AutoReloadEnabled && balance < account.AutoReloadThreshold {
		alert := model.ScheduledJob{
			ID:             uuid.NewString(),
			OrganizationID: orgID,
			Type:           model.JobTypeLowBalanceAlert,
			ScheduledFor:   utils.StartOfDay(utils.Now()),
			Status:         model.JobStatusPending,
			CreatedAt:      utils.Now(),
		}
		if err := tx.Clauses(onConflictDoNothing()).Create(&alert).Error; err != nil {
			return nil, checkConstraintViolation(err)
		}
	}

	return &entry, nil
}

// chargeUsageTx records a usage row and, when the charge carries a cost,
// debits the organization's telecom account in the same transaction.
func chargeUsageTx(tx *gorm.DB, orgID string, charge *model.UsageCharge, description string) (*model.UsageRecord, error) {
	if charge == nil {
		return nil, nil
	}

	record := model.UsageRecord{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		Type:           charge.Type,
		Quantity:       charge.Quantity,
		UnitCost:       charge.UnitCost,
		TotalCost:      charge.TotalCost,
		ReferenceType:  charge.Reference.Kind,
		ReferenceID:    charge.Reference.ID,
		CreatedAt:      utils.Now(),
	}
	if err := tx.Create(&record).Error; err != nil {
		return nil, checkConstraintViolation(err)
	}

	if charge.TotalCost > 0 {
		var account model.TelecomAccount
		err := tx.Where("organization_id = ?", orgID).First(&account).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: no telecom account for organization %s", apperrors.ErrNotFound, orgID)
			}
			return nil, fmt.Errorf("%w: failed to resolve telecom account: %w", apperrors.ErrDatabase, err)
		}
		if _, err := applyLedgerTx(tx, orgID, account.ID, model.BalanceTransactionDebit, charge.TotalCost, description, ""); err != nil {
			return nil, err
		}
	}

	return &record, nil
}

// touchConversationTx advances the conversation's activity clock. The update
// is conditional so last_activity_at never moves backwards.
func touchConversationTx(tx *gorm.DB, orgID, conversationID string, at time.Time) error {
	err := tx.Model(&model.Conversation{}).
		Where("id = ? AND organization_id = ? AND (last_activity_at IS NULL OR last_activity_at <= ?)", conversationID, orgID, at).
		Update("last_activity_at", at).Error
	if err != nil {
		return checkConstraintViolation(err)
	}
	return nil
}

// consumeMeterTx atomically decrements a free-tier counter, floored at zero.
// Returns true when a free unit was consumed; false means the counter is
// exhausted and the caller must bill the event instead.
func consumeMeterTx(tx *gorm.DB, orgID, column string) (bool, error) {
	result := tx.Model(&model.Organization{}).
		Where(fmt.Sprintf("id = ? AND %s > 0", column), orgID).
		Update(column, gorm.Expr(fmt.Sprintf("%s - 1", column)))
	if result.Error != nil {
		return false, checkConstraintViolation(result.Error)
	}
	return result.RowsAffected > 0, nil
}
