package storage

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frontdeskhq/receptionist-core/internal/apperrors"
	"github.com/frontdeskhq/receptionist-core/internal/model"
)

func TestCreateMessageOutboundConsentViolation(t *testing.T) {
	repo, mock, teardown := newMockRepo(t)
	defer teardown()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "conversations" WHERE id = .+ AND organization_id = .+`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "contact_id", "channel", "status"}).
			AddRow("conv-1", testOrgID, testContactID, model.ChannelSMS, model.ConversationStatusActive))
	mock.ExpectQuery(`SELECT \* FROM "contacts" WHERE id = .+ AND organization_id = .+ FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "phone", "opted_out"}).
			AddRow(testContactID, testOrgID, "+15550001111", true))
	mock.ExpectRollback()

	msg := &model.Message{
		ConversationID: "conv-1",
		Direction:      model.DirectionOutbound,
		Content:        "hello",
	}
	err := repo.CreateMessage(testCtx(), msg, nil)
	assert.ErrorIs(t, err, apperrors.ErrConsentViolation)
}

func TestCreateMessageInboundSkipsConsentCheck(t *testing.T) {
	repo, mock, teardown := newMockRepo(t)
	defer teardown()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "conversations" WHERE id = .+ AND organization_id = .+`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "contact_id", "channel", "status"}).
			AddRow("conv-1", testOrgID, testContactID, model.ChannelSMS, model.ConversationStatusActive))
	mock.ExpectExec(`INSERT INTO "messages"`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`UPDATE "conversations" SET "last_activity_at"=.+`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	msg := &model.Message{
		ConversationID: "conv-1",
		Direction:      model.DirectionInbound,
		Content:        "hi there",
	}
	err := repo.CreateMessage(testCtx(), msg, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, testOrgID, msg.OrganizationID)
	assert.Equal(t, model.MessageStatusReceived, msg.Status)
}

func TestCreateMessageRoundTrip(t *testing.T) {
	repo, mock, teardown := newMockRepo(t)
	defer teardown()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "conversations" WHERE id = .+ AND organization_id = .+`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "contact_id", "channel", "status"}).
			AddRow("conv-1", testOrgID, testContactID, model.ChannelSMS, model.ConversationStatusActive))
	mock.ExpectExec(`INSERT INTO "messages"`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`UPDATE "conversations" SET "last_activity_at"=.+`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	msg := &model.Message{
		ConversationID: "conv-1",
		Direction:      model.DirectionInbound,
		Content:        "are you open saturday?",
	}
	require.NoError(t, repo.CreateMessage(testCtx(), msg, nil))

	mock.ExpectQuery(`SELECT \* FROM "messages" WHERE id = .+ AND organization_id = .+`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "conversation_id", "direction", "content", "status"}).
			AddRow(msg.ID, msg.OrganizationID, msg.ConversationID, msg.Direction, msg.Content, msg.Status))

	found, err := repo.FindMessageByID(testCtx(), msg.ID)
	require.NoError(t, err)
	assert.Equal(t, msg.ID, found.ID)
	assert.Equal(t, msg.Direction, found.Direction)
	assert.Equal(t, msg.Content, found.Content)
	assert.Equal(t, testOrgID, found.OrganizationID)
}

func TestCreateMessageMissingConversation(t *testing.T) {
	repo, mock, teardown := newMockRepo(t)
	defer teardown()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "conversations" WHERE id = .+ AND organization_id = .+`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	msg := &model.Message{
		ConversationID: "conv-missing",
		Direction:      model.DirectionInbound,
		Content:        "hi",
	}
	err := repo.CreateMessage(testCtx(), msg, nil)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCreateMessageNoOrgInContext(t *testing.T) {
	repo, _, teardown := newMockRepo(t)
	defer teardown()

	msg := &model.Message{ConversationID: "conv-1", Direction: model.DirectionInbound, Content: "hi"}
	err := repo.CreateMessage(context.Background(), msg, nil)
	assert.ErrorIs(t, err, apperrors.ErrTenantMismatch)
}

func TestUpdateMessageStatusNotFound(t *testing.T) {
	repo, mock, teardown := newMockRepo(t)
	defer teardown()

	mock.ExpectExec(`UPDATE "messages" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateMessageStatus(testCtx(), "msg-missing", model.MessageStatusDelivered, "")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
