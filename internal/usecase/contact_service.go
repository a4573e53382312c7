package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/frontdeskhq/receptionist-core/internal/apperrors"
	"github.com/frontdeskhq/receptionist-core/internal/model"
	"github.com/frontdeskhq/receptionist-core/internal/validator"
	"github.com/frontdeskhq/receptionist-core/pkg/logger"
)

// CreateContactRequest is a manual or imported contact submission.
type CreateContactRequest struct {
	Phone     string `json:"phone" validate:"required"`
	Email     string `json:"email,omitempty" validate:"omitempty,email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Source    string `json:"source,omitempty" validate:"omitempty,oneof=manual import inbound_call inbound_text"`
}

// CreateContact creates a contact. A duplicate phone in the organization
// fails with ErrDuplicate.
func (s *DataService) CreateContact(ctx context.Context, req CreateContactRequest) (*model.Contact, error) {
	if err := validator.Validate(req); err != nil {
		return nil, apperrors.NewFatal(err, "invalid contact")
	}

	source := req.Source
	if source == "" {
		source = model.ContactSourceManual
	}
	contact := &model.Contact{
		Phone:     req.Phone,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Source:    source,
		Status:    model.ContactStatusLead,
	}
	if err := s.repo.CreateContact(ctx, contact); err != nil {
		if apperrors.IsDuplicateError(err) {
			return nil, err
		}
		return nil, apperrors.NewRetryable(err, "failed to create contact")
	}
	return contact, nil
}

// GetContact loads a single contact.
func (s *DataService) GetContact(ctx context.Context, contactID string) (*model.Contact, error) {
	contact, err := s.repo.FindContactByID(ctx, contactID)
	if err != nil {
		if apperrors.IsNotFoundError(err) {
			return nil, err
		}
		return nil, apperrors.NewRetryable(err, "failed to load contact")
	}
	return contact, nil
}

// GetContacts returns a page of contacts.
func (s *DataService) GetContacts(ctx context.Context, limit, offset int) ([]model.Contact, error) {
	if limit <= 0 {
		limit = 50
	}
	contacts, err := s.repo.ListContacts(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.NewRetryable(err, "failed to list contacts")
	}
	return contacts, nil
}

// RecordOptOut marks a contact as opted out and cancels their pending
// automation jobs. The flag is sticky; a repeated opt-out is a no-op.
func (s *DataService) RecordOptOut(ctx context.Context, contactID string) error {
	jobsCanceled, err := s.repo.RecordOptOut(ctx, contactID)
	if err != nil {
		if apperrors.IsNotFoundError(err) {
			return err
		}
		return apperrors.NewRetryable(err, "failed to record opt-out")
	}

	logger.FromContext(ctx).Info("Contact opted out",
		zap.String("contact_id", contactID),
		zap.Int64("jobs_canceled", jobsCanceled),
	)
	return nil
}
