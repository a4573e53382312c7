package tenant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrgIDRoundTrip(t *testing.T) {
	ctx := WithOrgID(context.Background(), "org-123")
	orgID, err := FromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "org-123", orgID)
}

func TestFromContextMissing(t *testing.T) {
	_, err := FromContext(context.Background())
	assert.ErrorIs(t, err, ErrOrgIDNotFound)

	_, err = FromContext(WithOrgID(context.Background(), ""))
	assert.ErrorIs(t, err, ErrOrgIDNotFound)
}

func TestWithOrgIDOverwrites(t *testing.T) {
	ctx := WithOrgID(context.Background(), "org-a")
	ctx = WithOrgID(ctx, "org-b")
	orgID, err := FromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "org-b", orgID)
}

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	requestID, err := FromRequestIDContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "req-1", requestID)
}
