package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndValidateToken(t *testing.T) {
	tm := NewTokenManager("test-secret", 12)

	token, err := tm.IssueTicketToken("t-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	ticketID, err := tm.TicketIDFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, "t-1", ticketID)
}

func TestTokenFromDifferentSecretRejected(t *testing.T) {
	token, err := NewTokenManager("secret-a", 12).IssueTicketToken("t-1")
	require.NoError(t, err)

	_, err = NewTokenManager("secret-b", 12).TicketIDFromToken(token)
	assert.Error(t, err)
}

func TestGarbageTokenRejected(t *testing.T) {
	tm := NewTokenManager("test-secret", 12)

	_, err := tm.TicketIDFromToken("not.a.token")
	assert.Error(t, err)

	_, err = tm.TicketIDFromToken("")
	assert.Error(t, err)
}

func TestZeroTTLFallsBackToDefault(t *testing.T) {
	tm := NewTokenManager("test-secret", 0)

	token, err := tm.IssueTicketToken("t-2")
	require.NoError(t, err)

	ticketID, err := tm.TicketIDFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, "t-2", ticketID)
}
