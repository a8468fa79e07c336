package client

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pacific-support/ticketing/internal/config"
	"github.com/pacific-support/ticketing/internal/domain"
	"github.com/pacific-support/ticketing/internal/events"
)

// Scope identifies which bus channel and ticket set a client follows.
type Scope struct {
	Admin         bool
	ReporterEmail string
}

// Channel returns the bus channel for the scope.
func (s Scope) Channel() string {
	if s.Admin {
		return events.ChannelAdmin
	}
	return events.UserChannel(s.ReporterEmail)
}

func (s Scope) cacheKey() string {
	if s.Admin {
		return "tickets_admin"
	}
	return "tickets_user_" + s.ReporterEmail
}

// EngineDependencies bundles collaborators for the sync engine.
type EngineDependencies struct {
	Store  Store
	Bus    events.Bus
	Cache  Cache
	Logger *zap.Logger
	Scope  Scope
	Sync   config.SyncConfig
}

// Engine maintains a client-local ordered ticket list reconciled from
// the durable cache, periodic full refreshes, and incremental bus
// events. The three sources race; every mutation funnels through the
// same lock and merge so no interleaving loses updates or duplicates a
// ticket id.
type Engine struct {
	store  Store
	bus    events.Bus
	cache  Cache
	logger *zap.Logger
	scope  Scope
	cfg    config.SyncConfig

	mu      sync.Mutex
	tickets []domain.Ticket

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// NewEngine builds an engine primed from the durable cache. Call Start
// to begin background synchronization.
func NewEngine(deps EngineDependencies) *Engine {
	e := &Engine{
		store:  deps.Store,
		bus:    deps.Bus,
		cache:  deps.Cache,
		logger: deps.Logger,
		scope:  deps.Scope,
		cfg:    deps.Sync,
	}
	e.ctx, e.cancel = context.WithCancel(context.Background())
	e.LoadLocal()
	return e
}

// LoadLocal reloads the durable cache into memory and returns it.
// Absent or corrupt cache data is treated as an empty list.
func (e *Engine) LoadLocal() []domain.Ticket {
	var cached []domain.Ticket
	readJSON(e.cache, e.scope.cacheKey(), &cached)
	e.mu.Lock()
	e.tickets = cached
	out := snapshot(e.tickets)
	e.mu.Unlock()
	return out
}

// RefreshFromStore fetches the authoritative list and reconciles it
// into the local one. The fetch is always full and identity-scoped, so
// a locally cached id missing from it means the ticket was deleted
// server-side and it is evicted. On conflicting copies the payload
// with the later updated_at wins, which protects an event applied
// while the fetch was in flight.
func (e *Engine) RefreshFromStore(ctx context.Context) error {
	authoritative, err := e.store.List(ctx)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	local := make(map[string]domain.Ticket, len(e.tickets))
	for _, ticket := range e.tickets {
		local[ticket.ID] = ticket
	}
	merged := make([]domain.Ticket, 0, len(authoritative))
	for _, incoming := range authoritative {
		if cached, ok := local[incoming.ID]; ok {
			merged = append(merged, mergeTicket(cached, incoming))
		} else {
			merged = append(merged, incoming)
		}
	}
	e.tickets = merged
	e.persistLocked()
	return nil
}

// ApplyEvent folds one bus event into the local list. Updates to
// tickets this client is not tracking are ignored, never inserted.
func (e *Engine) ApplyEvent(event events.Event) {
	switch event.Type {
	case events.EventTicketCreated:
		// Reporters receive their own tickets through the create call
		// and the subsequent refresh, not through this path.
		if !e.scope.Admin || event.TicketCreated == nil {
			return
		}
		e.prependOrMerge(event.TicketCreated.Ticket)
	case events.EventTicketUpdated:
		if event.TicketUpdated == nil {
			return
		}
		e.mergeExisting(event.TicketUpdated.Ticket)
	case events.EventResponseAdded:
		if event.ResponseAdded == nil {
			return
		}
		e.mergeExisting(event.ResponseAdded.Ticket)
	}
}

// Tickets returns a snapshot of the reconciled list.
func (e *Engine) Tickets() []domain.Ticket {
	e.mu.Lock()
	defer e.mu.Unlock()
	return snapshot(e.tickets)
}

// Ticket returns a copy of one cached ticket.
func (e *Engine) Ticket(id string) (domain.Ticket, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.tickets {
		if e.tickets[i].ID == id {
			return e.tickets[i], true
		}
	}
	return domain.Ticket{}, false
}

// UpdateLocal mutates one cached ticket under the engine lock and
// persists the result. Used by the optimistic controller so its writes
// go through the same merge path as refreshes and events.
func (e *Engine) UpdateLocal(id string, mutate func(*domain.Ticket)) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.tickets {
		if e.tickets[i].ID == id {
			mutate(&e.tickets[i])
			e.persistLocked()
			return true
		}
	}
	return false
}

// ApplyAuthoritative merges a server-returned ticket snapshot.
func (e *Engine) ApplyAuthoritative(ticket domain.Ticket) {
	e.mergeExisting(ticket)
}

// Start launches the subscription and polling loops.
func (e *Engine) Start() {
	e.wg.Add(2)
	go e.runSubscription()
	go e.runPolling()
}

// Close stops timers and the bus subscription and waits for teardown.
func (e *Engine) Close() {
	e.once.Do(e.cancel)
	e.wg.Wait()
}

func (e *Engine) prependOrMerge(incoming domain.Ticket) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.tickets {
		if e.tickets[i].ID == incoming.ID {
			e.tickets[i] = mergeTicket(e.tickets[i], incoming)
			e.persistLocked()
			return
		}
	}
	e.tickets = append([]domain.Ticket{incoming}, e.tickets...)
	e.persistLocked()
}

func (e *Engine) mergeExisting(incoming domain.Ticket) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.tickets {
		if e.tickets[i].ID == incoming.ID {
			e.tickets[i] = mergeTicket(e.tickets[i], incoming)
			e.persistLocked()
			return
		}
	}
}

func (e *Engine) persistLocked() {
	if err := writeJSON(e.cache, e.scope.cacheKey(), e.tickets); err != nil {
		e.logger.Warn("persisting ticket cache failed", zap.Error(err))
	}
}

func (e *Engine) runPolling() {
	defer e.wg.Done()
	ticker := time.NewTicker(e.cfg.PollInterval())
	defer ticker.Stop()
	for {
		select {
		case <-e.ctx.Done():
			return
		case <-ticker.C:
			e.refreshOnce()
		}
	}
}

func (e *Engine) runSubscription() {
	defer e.wg.Done()
	attempts := 0
	backoff := e.cfg.BackoffInitial()
	for {
		if e.ctx.Err() != nil {
			return
		}
		sub, err := e.bus.Subscribe(e.ctx, e.scope.Channel())
		if err != nil {
			attempts++
			if e.cfg.MaxReconnectAttempts > 0 && attempts >= e.cfg.MaxReconnectAttempts {
				e.logger.Warn("event subscription unavailable; relying on polling only",
					zap.String("channel", e.scope.Channel()), zap.Error(err))
				return
			}
			if !e.sleep(backoff) {
				return
			}
			backoff = nextBackoff(backoff, e.cfg.BackoffCap())
			continue
		}
		attempts = 0
		backoff = e.cfg.BackoffInitial()

		// close the gap of events missed while disconnected
		e.refreshOnce()

		e.consume(sub)
		_ = sub.Close()
	}
}

func (e *Engine) consume(sub events.Subscription) {
	for {
		select {
		case <-e.ctx.Done():
			return
		case event, ok := <-sub.Events():
			if !ok {
				e.logger.Debug("event stream closed; reconnecting",
					zap.String("channel", e.scope.Channel()))
				return
			}
			e.ApplyEvent(event)
		}
	}
}

func (e *Engine) refreshOnce() {
	ctx, cancel := context.WithTimeout(e.ctx, e.cfg.PollInterval())
	defer cancel()
	if err := e.RefreshFromStore(ctx); err != nil {
		e.logger.Debug("refresh from store failed", zap.Error(err))
	}
}

func (e *Engine) sleep(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-e.ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// mergeTicket resolves two copies of the same ticket: the payload with
// the later updated_at wins outright (payloads are full snapshots, so
// object freshness implements per-field last-writer-wins). Ties go to
// the incoming payload.
func mergeTicket(cached, incoming domain.Ticket) domain.Ticket {
	if incoming.UpdatedAt.Before(cached.UpdatedAt) {
		return cached
	}
	return incoming
}

func nextBackoff(current, limit time.Duration) time.Duration {
	next := current * 2
	if next > limit {
		return limit
	}
	return next
}

func snapshot(tickets []domain.Ticket) []domain.Ticket {
	out := make([]domain.Ticket, len(tickets))
	copy(out, tickets)
	return out
}
