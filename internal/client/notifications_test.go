package client

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pacific-support/ticketing/internal/domain"
)

func newTestCenter(store Store, cache Cache, scope Scope) *Center {
	return NewCenter(CenterDependencies{
		Store:        store,
		Cache:        cache,
		Logger:       zap.NewNop(),
		Scope:        scope,
		PollInterval: 50 * time.Millisecond,
	})
}

func seedTicketCache(t *testing.T, cache Cache, scope Scope, tickets ...domain.Ticket) {
	t.Helper()
	require.NoError(t, writeJSON(cache, scope.cacheKey(), tickets))
}

func ticketWithResponses(id string, responses ...domain.AdminResponse) domain.Ticket {
	ticket := reporterTicket(id, "dana@example.com", time.Now())
	ticket.Responses = responses
	return ticket
}

func unreadResponse(id, ticketID string) domain.AdminResponse {
	return domain.AdminResponse{
		ID:        id,
		TicketID:  ticketID,
		AdminName: "Sam",
		Body:      "We are looking into it.",
		CreatedAt: time.Now(),
	}
}

func TestPollIngestsUnreadResponsesOnce(t *testing.T) {
	scope := Scope{ReporterEmail: "dana@example.com"}
	ticket := ticketWithResponses("t-1", unreadResponse("r-1", "t-1"), unreadResponse("r-2", "t-1"))
	store := newFakeStore(ticket)
	cache := NewMemoryCache()
	seedTicketCache(t, cache, scope, ticket)

	center := newTestCenter(store, cache, scope)
	center.Poll(context.Background())

	require.Len(t, center.Notifications(), 2)
	assert.Equal(t, 2, center.UnreadCount())

	// a second poll observing the same responses adds nothing
	center.Poll(context.Background())
	assert.Len(t, center.Notifications(), 2)
	assert.Equal(t, 2, center.UnreadCount())
}

func TestPollSkipsReadResponses(t *testing.T) {
	scope := Scope{ReporterEmail: "dana@example.com"}
	read := unreadResponse("r-1", "t-1")
	read.Read = true
	ticket := ticketWithResponses("t-1", read, unreadResponse("r-2", "t-1"))
	store := newFakeStore(ticket)
	cache := NewMemoryCache()
	seedTicketCache(t, cache, scope, ticket)

	center := newTestCenter(store, cache, scope)
	center.Poll(context.Background())

	notifications := center.Notifications()
	require.Len(t, notifications, 1)
	assert.Equal(t, "r-2", notifications[0].ResponseID)
}

func TestPollContinuesPastFailingTicket(t *testing.T) {
	scope := Scope{ReporterEmail: "dana@example.com"}
	broken := ticketWithResponses("t-1", unreadResponse("r-1", "t-1"))
	healthy := ticketWithResponses("t-2", unreadResponse("r-2", "t-2"))
	store := newFakeStore(broken, healthy)
	store.failGet["t-1"] = true
	cache := NewMemoryCache()
	seedTicketCache(t, cache, scope, broken, healthy)

	center := newTestCenter(store, cache, scope)
	center.Poll(context.Background())

	notifications := center.Notifications()
	require.Len(t, notifications, 1)
	assert.Equal(t, "r-2", notifications[0].ResponseID)
}

func TestMarkAsReadFloorsCounterAtZero(t *testing.T) {
	scope := Scope{ReporterEmail: "dana@example.com"}
	ticket := ticketWithResponses("t-1", unreadResponse("r-1", "t-1"))
	store := newFakeStore(ticket)
	cache := NewMemoryCache()
	seedTicketCache(t, cache, scope, ticket)

	center := newTestCenter(store, cache, scope)
	center.Poll(context.Background())
	require.Equal(t, 1, center.UnreadCount())

	center.MarkAsRead("r-1")
	assert.Equal(t, 0, center.UnreadCount())
	center.MarkAsRead("r-1")
	center.MarkAsRead("missing")
	assert.Equal(t, 0, center.UnreadCount())
}

func TestDeleteSuppressesAcrossPolls(t *testing.T) {
	scope := Scope{ReporterEmail: "dana@example.com"}
	ticket := ticketWithResponses("t-1", unreadResponse("r-1", "t-1"))
	store := newFakeStore(ticket)
	cache := NewMemoryCache()
	seedTicketCache(t, cache, scope, ticket)

	center := newTestCenter(store, cache, scope)
	center.Poll(context.Background())
	require.Len(t, center.Notifications(), 1)

	center.Delete(context.Background(), "r-1")
	assert.Empty(t, center.Notifications())
	assert.Equal(t, 0, center.UnreadCount())

	// the store still reports the response; suppression keeps it out
	store.failGet = map[string]bool{}
	store.put(ticket)
	center.Poll(context.Background())
	assert.Empty(t, center.Notifications())
}

func TestDeleteMarksResponseReadOnServer(t *testing.T) {
	scope := Scope{ReporterEmail: "dana@example.com"}
	ticket := ticketWithResponses("t-1", unreadResponse("r-1", "t-1"))
	store := newFakeStore(ticket)
	cache := NewMemoryCache()
	seedTicketCache(t, cache, scope, ticket)

	center := newTestCenter(store, cache, scope)
	center.Poll(context.Background())
	center.Delete(context.Background(), "r-1")

	stored, err := store.Get(context.Background(), "t-1")
	require.NoError(t, err)
	require.Len(t, stored.Responses, 1)
	assert.True(t, stored.Responses[0].Read)
}

func TestSuppressionSurvivesRestart(t *testing.T) {
	scope := Scope{ReporterEmail: "dana@example.com"}
	ticket := ticketWithResponses("t-1", unreadResponse("r-1", "t-1"))
	store := newFakeStore(ticket)
	cache := NewMemoryCache()
	seedTicketCache(t, cache, scope, ticket)

	center := newTestCenter(store, cache, scope)
	center.Poll(context.Background())
	center.Delete(context.Background(), "r-1")

	// keep the response unread server-side to simulate the mark-read
	// call having been lost
	fresh := ticket
	fresh.Responses = []domain.AdminResponse{unreadResponse("r-1", "t-1")}
	store.put(fresh)

	restarted := newTestCenter(store, cache, scope)
	restarted.Poll(context.Background())
	assert.Empty(t, restarted.Notifications())
	assert.Equal(t, 0, restarted.UnreadCount())
}

func TestClearAllEmptiesInbox(t *testing.T) {
	scope := Scope{ReporterEmail: "dana@example.com"}
	ticket := ticketWithResponses("t-1",
		unreadResponse("r-1", "t-1"),
		unreadResponse("r-2", "t-1"),
	)
	store := newFakeStore(ticket)
	cache := NewMemoryCache()
	seedTicketCache(t, cache, scope, ticket)

	center := newTestCenter(store, cache, scope)
	center.Poll(context.Background())
	require.Len(t, center.Notifications(), 2)

	center.ClearAll(context.Background())
	assert.Empty(t, center.Notifications())
	assert.Equal(t, 0, center.UnreadCount())

	center.Poll(context.Background())
	assert.Empty(t, center.Notifications())
}
