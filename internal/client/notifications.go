package client

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pacific-support/ticketing/internal/domain"
)

// Center surfaces unread admin responses as a dismissible inbox,
// independent of whichever ticket view is rendered. It polls the store
// for every ticket in the durable local cache and folds unseen unread
// responses into a durable notification list keyed by response id.
type Center struct {
	store    Store
	cache    Cache
	scope    Scope
	logger   *zap.Logger
	interval time.Duration

	mu            sync.Mutex
	notifications []domain.ClientNotification
	suppressed    map[string]bool
	unread        int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// CenterDependencies bundles collaborators for the notification center.
type CenterDependencies struct {
	Store        Store
	Cache        Cache
	Logger       *zap.Logger
	Scope        Scope
	PollInterval time.Duration
}

// NewCenter builds a center primed from the durable cache. Call Start
// to begin polling.
func NewCenter(deps CenterDependencies) *Center {
	c := &Center{
		store:      deps.Store,
		cache:      deps.Cache,
		scope:      deps.Scope,
		logger:     deps.Logger,
		interval:   deps.PollInterval,
		suppressed: make(map[string]bool),
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())

	readJSON(c.cache, c.listKey(), &c.notifications)
	var suppressed []string
	readJSON(c.cache, c.suppressedKey(), &suppressed)
	for _, id := range suppressed {
		c.suppressed[id] = true
	}
	for _, n := range c.notifications {
		if !n.Read {
			c.unread++
		}
	}
	return c
}

// Start polls once immediately, then on the fixed interval.
func (c *Center) Start() {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.pollOnce()
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-c.ctx.Done():
				return
			case <-ticker.C:
				c.pollOnce()
			}
		}
	}()
}

// Close stops the poll timer and waits for teardown.
func (c *Center) Close() {
	c.once.Do(c.cancel)
	c.wg.Wait()
}

// Poll scans every cached ticket for unread admin responses and adds
// unseen ones to the inbox. One ticket's fetch failure is logged and
// skipped; the rest of the loop continues.
func (c *Center) Poll(ctx context.Context) {
	var cached []domain.Ticket
	readJSON(c.cache, c.scope.cacheKey(), &cached)

	for _, ticket := range cached {
		detail, err := c.store.Get(ctx, ticket.ID)
		if err != nil {
			c.logger.Debug("notification poll: ticket fetch failed",
				zap.String("ticket_id", ticket.ID), zap.Error(err))
			continue
		}
		for _, response := range detail.Responses {
			if response.Read {
				continue
			}
			c.ingest(*detail, response)
		}
	}
}

// ingest adds one unread response to the inbox unless its id was
// already seen or suppressed. Repeated delivery of the same response
// id is silently absorbed.
func (c *Center) ingest(ticket domain.Ticket, response domain.AdminResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.suppressed[response.ID] {
		return
	}
	for _, n := range c.notifications {
		if n.ResponseID == response.ID {
			return
		}
	}
	notification := domain.ClientNotification{
		ResponseID:   response.ID,
		TicketID:     ticket.ID,
		TicketTitle:  ticket.Title,
		AdminName:    response.AdminName,
		ResponseText: response.Body,
		CreatedAt:    response.CreatedAt,
		Read:         false,
	}
	c.notifications = append([]domain.ClientNotification{notification}, c.notifications...)
	c.unread++
	c.persistLocked()
}

// Notifications returns a snapshot of the inbox, newest first.
func (c *Center) Notifications() []domain.ClientNotification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.ClientNotification, len(c.notifications))
	copy(out, c.notifications)
	return out
}

// UnreadCount reports the number of unread inbox entries.
func (c *Center) UnreadCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unread
}

// MarkAsRead flips the local read flag. Repeated calls on an already
// read notification never drive the unread counter below zero.
func (c *Center) MarkAsRead(responseID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.notifications {
		if c.notifications[i].ResponseID == responseID {
			if !c.notifications[i].Read {
				c.notifications[i].Read = true
				if c.unread > 0 {
					c.unread--
				}
				c.persistLocked()
			}
			return
		}
	}
}

// Delete removes an entry and permanently suppresses its response id
// so a later poll cannot re-add it. For unread entries it also issues
// a best-effort server mark-read; the suppression set covers the case
// where that call fails or races the next poll.
func (c *Center) Delete(ctx context.Context, responseID string) {
	c.mu.Lock()
	var removed *domain.ClientNotification
	for i := range c.notifications {
		if c.notifications[i].ResponseID == responseID {
			n := c.notifications[i]
			removed = &n
			c.notifications = append(c.notifications[:i], c.notifications[i+1:]...)
			break
		}
	}
	if removed == nil {
		c.mu.Unlock()
		return
	}
	if !removed.Read && c.unread > 0 {
		c.unread--
	}
	c.suppressed[responseID] = true
	c.persistLocked()
	c.persistSuppressedLocked()
	c.mu.Unlock()

	if !removed.Read {
		if err := c.store.MarkResponseRead(ctx, removed.TicketID, removed.ResponseID); err != nil {
			c.logger.Debug("server mark-read failed; suppression covers it",
				zap.String("response_id", responseID), zap.Error(err))
		}
	}
}

// ClearAll applies Delete semantics to every entry.
func (c *Center) ClearAll(ctx context.Context) {
	for _, n := range c.Notifications() {
		c.Delete(ctx, n.ResponseID)
	}
}

func (c *Center) pollOnce() {
	ctx, cancel := context.WithTimeout(c.ctx, c.interval)
	defer cancel()
	c.Poll(ctx)
}

func (c *Center) persistLocked() {
	if err := writeJSON(c.cache, c.listKey(), c.notifications); err != nil {
		c.logger.Warn("persisting notification list failed", zap.Error(err))
	}
}

func (c *Center) persistSuppressedLocked() {
	ids := make([]string, 0, len(c.suppressed))
	for id := range c.suppressed {
		ids = append(ids, id)
	}
	if err := writeJSON(c.cache, c.suppressedKey(), ids); err != nil {
		c.logger.Warn("persisting suppression set failed", zap.Error(err))
	}
}

func (c *Center) listKey() string {
	return "notifications_" + c.scope.cacheKey()
}

func (c *Center) suppressedKey() string {
	return "notifications_suppressed_" + c.scope.cacheKey()
}
