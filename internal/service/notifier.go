package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pacific-support/ticketing/internal/domain"
	"github.com/pacific-support/ticketing/internal/events"
	"github.com/pacific-support/ticketing/internal/observability"
)

const (
	notifierQueueSize     = 256
	notifierPublishWindow = 2 * time.Second
)

// Notifier fans ticket mutations out to the event bus. Publication is
// asynchronous and best-effort: a full queue or a failing transport is
// logged and never propagated to the mutation path.
type Notifier struct {
	bus     events.Bus
	logger  *zap.Logger
	metrics *observability.Metrics

	mu     sync.Mutex
	closed bool
	jobs   chan publishJob
	wg     sync.WaitGroup
	once   sync.Once
}

type publishJob struct {
	channels []string
	event    events.Event
}

// NewNotifier starts the publish worker.
func NewNotifier(bus events.Bus, logger *zap.Logger, metrics *observability.Metrics) *Notifier {
	n := &Notifier{
		bus:     bus,
		logger:  logger,
		metrics: metrics,
		jobs:    make(chan publishJob, notifierQueueSize),
	}
	n.wg.Add(1)
	go n.run()
	return n
}

// TicketCreated announces a new ticket to admins. The reporter already
// holds the authoritative ticket from their own create call, so no
// reporter-channel publish happens here.
func (n *Notifier) TicketCreated(ticket domain.Ticket) {
	n.enqueue([]string{events.ChannelAdmin}, events.NewTicketCreated(ticket))
}

// TicketUpdated announces a ticket mutation. Status changes also reach
// the reporter's channel; detail and feedback edits stay admin-only.
func (n *Notifier) TicketUpdated(ticket domain.Ticket, kind events.UpdateKind) {
	channels := []string{events.ChannelAdmin}
	if kind == events.UpdateKindStatus {
		channels = append(channels, events.UserChannel(ticket.ReporterEmail))
	}
	n.enqueue(channels, events.NewTicketUpdated(ticket, kind))
}

// ResponseAdded announces a new admin response to admins and the reporter.
func (n *Notifier) ResponseAdded(ticket domain.Ticket, response domain.AdminResponse) {
	channels := []string{events.ChannelAdmin, events.UserChannel(ticket.ReporterEmail)}
	n.enqueue(channels, events.NewResponseAdded(ticket, response))
}

// Close drains pending publishes and stops the worker. Events enqueued
// after Close are dropped.
func (n *Notifier) Close() {
	n.once.Do(func() {
		n.mu.Lock()
		n.closed = true
		n.mu.Unlock()
		close(n.jobs)
	})
	n.wg.Wait()
}

func (n *Notifier) enqueue(channels []string, event events.Event) {
	if n == nil || n.bus == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = time.Now()

	// the send happens under the same lock Close uses to flip closed,
	// so it can never hit the closed jobs channel
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	select {
	case n.jobs <- publishJob{channels: channels, event: event}:
	default:
		for _, channel := range channels {
			n.metrics.RecordEventDropped(channel)
		}
		n.logger.Warn("notifier queue full; dropping event",
			zap.String("event_type", string(event.Type)), zap.String("event_id", event.ID))
	}
}

func (n *Notifier) run() {
	defer n.wg.Done()
	for job := range n.jobs {
		for _, channel := range job.channels {
			ctx, cancel := context.WithTimeout(context.Background(), notifierPublishWindow)
			err := n.bus.Publish(ctx, channel, job.event)
			cancel()
			if err != nil {
				n.metrics.RecordEventDropped(channel)
				n.logger.Warn("event publish failed",
					zap.String("channel", channel),
					zap.String("event_type", string(job.event.Type)),
					zap.Error(err))
				continue
			}
			n.metrics.RecordEventPublished(channel)
		}
	}
}
