package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pacific-support/ticketing/internal/domain"
	"github.com/pacific-support/ticketing/internal/events"
	"github.com/pacific-support/ticketing/internal/observability"
)

type publishedEvent struct {
	Channel string
	Event   events.Event
}

// recordingBus captures publishes; with fail set every publish errors.
type recordingBus struct {
	mu        sync.Mutex
	published []publishedEvent
	fail      bool
}

func (b *recordingBus) Publish(ctx context.Context, channel string, event events.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail {
		return errors.New("transport down")
	}
	b.published = append(b.published, publishedEvent{Channel: channel, Event: event})
	return nil
}

func (b *recordingBus) Subscribe(ctx context.Context, channel string) (events.Subscription, error) {
	return nil, errors.New("recordingBus does not subscribe")
}

func (b *recordingBus) events() []publishedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]publishedEvent{}, b.published...)
}

func testTicket(id string) domain.Ticket {
	return domain.Ticket{
		ID:            id,
		ReporterName:  "Dana Reyes",
		ReporterEmail: "dana@example.com",
		Title:         "Flickering light",
		Description:   "Third floor hallway",
		Category:      domain.CategoryUtilities,
		Priority:      domain.TicketPriorityLow,
		Status:        domain.TicketStatusOpen,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
}

func TestNotifierTicketCreatedReachesAdminsOnly(t *testing.T) {
	bus := &recordingBus{}
	notifier := NewNotifier(bus, zap.NewNop(), observability.NewMetrics())

	notifier.TicketCreated(testTicket("t-1"))
	notifier.Close()

	published := bus.events()
	require.Len(t, published, 1)
	assert.Equal(t, events.ChannelAdmin, published[0].Channel)
	assert.Equal(t, events.EventTicketCreated, published[0].Event.Type)
	assert.NotEmpty(t, published[0].Event.ID)
	assert.False(t, published[0].Event.Timestamp.IsZero())
}

func TestNotifierStatusChangeReachesReporter(t *testing.T) {
	bus := &recordingBus{}
	notifier := NewNotifier(bus, zap.NewNop(), observability.NewMetrics())

	ticket := testTicket("t-2")
	ticket.Status = domain.TicketStatusInProgress
	notifier.TicketUpdated(ticket, events.UpdateKindStatus)
	notifier.Close()

	published := bus.events()
	require.Len(t, published, 2)
	channels := []string{published[0].Channel, published[1].Channel}
	assert.Contains(t, channels, events.ChannelAdmin)
	assert.Contains(t, channels, events.UserChannel("dana@example.com"))
}

func TestNotifierDetailEditStaysAdminOnly(t *testing.T) {
	bus := &recordingBus{}
	notifier := NewNotifier(bus, zap.NewNop(), observability.NewMetrics())

	notifier.TicketUpdated(testTicket("t-3"), events.UpdateKindDetails)
	notifier.Close()

	published := bus.events()
	require.Len(t, published, 1)
	assert.Equal(t, events.ChannelAdmin, published[0].Channel)
}

func TestNotifierResponseAddedReachesBothChannels(t *testing.T) {
	bus := &recordingBus{}
	notifier := NewNotifier(bus, zap.NewNop(), observability.NewMetrics())

	ticket := testTicket("t-4")
	response := domain.AdminResponse{ID: "r-1", TicketID: ticket.ID, AdminName: "Sam", Body: "On it"}
	notifier.ResponseAdded(ticket, response)
	notifier.Close()

	published := bus.events()
	require.Len(t, published, 2)
	for _, p := range published {
		assert.Equal(t, events.EventResponseAdded, p.Event.Type)
		require.NotNil(t, p.Event.ResponseAdded)
		assert.Equal(t, "r-1", p.Event.ResponseAdded.Response.ID)
	}
}

func TestNotifierDropsEventsAfterClose(t *testing.T) {
	bus := &recordingBus{}
	notifier := NewNotifier(bus, zap.NewNop(), observability.NewMetrics())
	notifier.Close()

	// must not panic; Close stays idempotent
	notifier.TicketCreated(testTicket("t-7"))
	notifier.Close()

	assert.Empty(t, bus.events())
}

func TestNotifierSwallowsTransportFailure(t *testing.T) {
	bus := &recordingBus{fail: true}
	notifier := NewNotifier(bus, zap.NewNop(), observability.NewMetrics())

	// must not panic or block the caller
	notifier.TicketCreated(testTicket("t-5"))
	notifier.Close()

	assert.Empty(t, bus.events())
}
