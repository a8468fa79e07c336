package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pacific-support/ticketing/internal/domain"
)

func sampleTicket(id string) domain.Ticket {
	return domain.Ticket{
		ID:            id,
		ReporterName:  "Dana Reyes",
		ReporterEmail: "dana@example.com",
		Title:         "Broken chair",
		Description:   "Left armrest came off",
		Category:      domain.CategoryFurniture,
		Priority:      domain.TicketPriorityMedium,
		Status:        domain.TicketStatusOpen,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
}

func TestMemoryBusDeliversToChannelSubscribers(t *testing.T) {
	bus := NewMemoryBus()
	ctx := context.Background()

	adminSub, err := bus.Subscribe(ctx, ChannelAdmin)
	require.NoError(t, err)
	userSub, err := bus.Subscribe(ctx, UserChannel("dana@example.com"))
	require.NoError(t, err)

	event := NewTicketCreated(sampleTicket("t-1"))
	event.ID = "e-1"
	event.Timestamp = time.Now()
	require.NoError(t, bus.Publish(ctx, ChannelAdmin, event))

	select {
	case got := <-adminSub.Events():
		assert.Equal(t, "e-1", got.ID)
		assert.Equal(t, EventTicketCreated, got.Type)
	case <-time.After(time.Second):
		t.Fatal("admin subscriber did not receive event")
	}

	select {
	case got := <-userSub.Events():
		t.Fatalf("user subscriber received event from admin channel: %v", got)
	default:
	}
}

func TestMemoryBusRejectsMalformedEvent(t *testing.T) {
	bus := NewMemoryBus()
	err := bus.Publish(context.Background(), ChannelAdmin, Event{Type: EventTicketCreated})
	assert.Error(t, err)
}

func TestMemoryBusCloseEndsStream(t *testing.T) {
	bus := NewMemoryBus()
	sub, err := bus.Subscribe(context.Background(), ChannelAdmin)
	require.NoError(t, err)
	require.NoError(t, sub.Close())

	_, open := <-sub.Events()
	assert.False(t, open)

	// publishing after close must not panic or block
	event := NewTicketCreated(sampleTicket("t-2"))
	assert.NoError(t, bus.Publish(context.Background(), ChannelAdmin, event))
}

func TestMemoryBusCloseRacesPublishSafely(t *testing.T) {
	bus := NewMemoryBus()
	ctx := context.Background()
	event := NewTicketCreated(sampleTicket("t-9"))

	for i := 0; i < 200; i++ {
		subs := make([]Subscription, 4)
		for j := range subs {
			sub, err := bus.Subscribe(ctx, ChannelAdmin)
			require.NoError(t, err)
			subs[j] = sub
		}

		var wg sync.WaitGroup
		for j := 0; j < 4; j++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for k := 0; k < 10; k++ {
					assert.NoError(t, bus.Publish(ctx, ChannelAdmin, event))
				}
			}()
		}
		for _, sub := range subs {
			wg.Add(1)
			go func(sub Subscription) {
				defer wg.Done()
				assert.NoError(t, sub.Close())
			}(sub)
		}
		wg.Wait()
	}
}
