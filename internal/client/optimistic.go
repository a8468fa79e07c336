package client

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/pacific-support/ticketing/internal/domain"
	apperrors "github.com/pacific-support/ticketing/pkg/util/errorutil"
)

// FeedbackController applies reporter feedback actions optimistically:
// the expected value lands in the local view before the network round
// trip, then the server's authoritative value overwrites it on success
// or the exact prior value is restored on failure. Mutations on the
// same (ticket, dimension) pair are serialized so rapid repeated
// clicks cannot interleave and lose updates.
type FeedbackController struct {
	store  Store
	engine *Engine
	logger *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewFeedbackController builds a controller over the engine's local view.
func NewFeedbackController(store Store, engine *Engine, logger *zap.Logger) *FeedbackController {
	return &FeedbackController{
		store:  store,
		engine: engine,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}
}

// Like optimistically increments the like counter.
func (c *FeedbackController) Like(ctx context.Context, ticketID string) error {
	unlock := c.lock(ticketID, domain.DimensionLike)
	defer unlock()

	prev, err := c.feedbackSnapshot(ticketID)
	if err != nil {
		return err
	}
	before := prev.Likes
	c.engine.UpdateLocal(ticketID, func(t *domain.Ticket) {
		if t.Feedback != nil {
			t.Feedback.Likes = before + 1
		}
	})

	updated, err := c.store.Like(ctx, ticketID)
	if err != nil {
		c.engine.UpdateLocal(ticketID, func(t *domain.Ticket) {
			if t.Feedback != nil {
				t.Feedback.Likes = before
			}
		})
		c.logger.Warn("like rejected; rolled back", zap.String("ticket_id", ticketID), zap.Error(err))
		return err
	}
	c.engine.ApplyAuthoritative(*updated)
	return nil
}

// Dislike optimistically increments the dislike counter.
func (c *FeedbackController) Dislike(ctx context.Context, ticketID string) error {
	unlock := c.lock(ticketID, domain.DimensionDislike)
	defer unlock()

	prev, err := c.feedbackSnapshot(ticketID)
	if err != nil {
		return err
	}
	before := prev.Dislikes
	c.engine.UpdateLocal(ticketID, func(t *domain.Ticket) {
		if t.Feedback != nil {
			t.Feedback.Dislikes = before + 1
		}
	})

	updated, err := c.store.Dislike(ctx, ticketID)
	if err != nil {
		c.engine.UpdateLocal(ticketID, func(t *domain.Ticket) {
			if t.Feedback != nil {
				t.Feedback.Dislikes = before
			}
		})
		c.logger.Warn("dislike rejected; rolled back", zap.String("ticket_id", ticketID), zap.Error(err))
		return err
	}
	c.engine.ApplyAuthoritative(*updated)
	return nil
}

// Rate optimistically sets the star rating.
func (c *FeedbackController) Rate(ctx context.Context, ticketID string, rating int) error {
	if rating < 1 || rating > 5 {
		return apperrors.NewValidationError("rating must be between 1 and 5", nil)
	}
	unlock := c.lock(ticketID, domain.DimensionRating)
	defer unlock()

	prev, err := c.feedbackSnapshot(ticketID)
	if err != nil {
		return err
	}
	before := prev.Rating
	c.engine.UpdateLocal(ticketID, func(t *domain.Ticket) {
		if t.Feedback != nil {
			value := rating
			t.Feedback.Rating = &value
		}
	})

	updated, err := c.store.Rate(ctx, ticketID, rating)
	if err != nil {
		c.engine.UpdateLocal(ticketID, func(t *domain.Ticket) {
			if t.Feedback != nil {
				t.Feedback.Rating = before
			}
		})
		c.logger.Warn("rating rejected; rolled back", zap.String("ticket_id", ticketID), zap.Error(err))
		return err
	}
	c.engine.ApplyAuthoritative(*updated)
	return nil
}

// feedbackSnapshot returns a copy of the ticket's current feedback, or
// a validation error when the ticket is unknown or not yet accepting
// feedback.
func (c *FeedbackController) feedbackSnapshot(ticketID string) (domain.UserFeedback, error) {
	ticket, ok := c.engine.Ticket(ticketID)
	if !ok {
		return domain.UserFeedback{}, apperrors.NewNotFound("ticket", nil)
	}
	if ticket.Feedback == nil {
		return domain.UserFeedback{}, apperrors.NewValidationError("feedback requires a resolved or closed ticket", nil)
	}
	return *ticket.Feedback, nil
}

// lock serializes access per (ticket, dimension).
func (c *FeedbackController) lock(ticketID string, dimension domain.FeedbackDimension) func() {
	key := ticketID + "|" + string(dimension)
	c.mu.Lock()
	m, ok := c.locks[key]
	if !ok {
		m = &sync.Mutex{}
		c.locks[key] = m
	}
	c.mu.Unlock()
	m.Lock()
	return m.Unlock
}
