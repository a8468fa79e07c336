package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pacific-support/ticketing/internal/domain"
	"github.com/pacific-support/ticketing/internal/events"
	"github.com/pacific-support/ticketing/internal/observability"
	"github.com/pacific-support/ticketing/internal/repository"
	apperrors "github.com/pacific-support/ticketing/pkg/util/errorutil"
)

// memoryTicketRepo is an in-memory TicketRepository for service tests.
type memoryTicketRepo struct {
	mu      sync.Mutex
	tickets map[string]*domain.Ticket
}

func newMemoryTicketRepo() *memoryTicketRepo {
	return &memoryTicketRepo{tickets: make(map[string]*domain.Ticket)}
}

func (r *memoryTicketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket.ID = uuid.NewString()
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	stored := *ticket
	r.tickets[ticket.ID] = &stored
	return nil
}

func (r *memoryTicketRepo) Update(ctx context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[ticket.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	responses := stored.Responses
	feedback := stored.Feedback
	updated := *ticket
	updated.Responses = responses
	updated.Feedback = feedback
	updated.UpdatedAt = time.Now()
	r.tickets[ticket.ID] = &updated
	return nil
}

func (r *memoryTicketRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.tickets, id)
	return nil
}

func (r *memoryTicketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := *stored
	if out.AcceptsFeedback() && out.Feedback == nil {
		out.Feedback = &domain.UserFeedback{Comments: []domain.Comment{}}
	}
	return &out, nil
}

func (r *memoryTicketRepo) ListWithFilter(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Ticket
	for _, stored := range r.tickets {
		if filter.ReporterEmail != nil && stored.ReporterEmail != *filter.ReporterEmail {
			continue
		}
		out = append(out, *stored)
	}
	return out, nil
}

func (r *memoryTicketRepo) AddResponse(ctx context.Context, response *domain.AdminResponse) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[response.TicketID]
	if !ok {
		return pgx.ErrNoRows
	}
	response.ID = uuid.NewString()
	response.CreatedAt = time.Now()
	stored.Responses = append(stored.Responses, *response)
	stored.UpdatedAt = time.Now()
	return nil
}

func (r *memoryTicketRepo) MarkResponseRead(ctx context.Context, ticketID, responseID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[ticketID]
	if !ok {
		return pgx.ErrNoRows
	}
	for i := range stored.Responses {
		if stored.Responses[i].ID == responseID {
			stored.Responses[i].Read = true
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *memoryTicketRepo) SetRating(ctx context.Context, ticketID string, rating int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[ticketID]
	if !ok {
		return pgx.ErrNoRows
	}
	if stored.Feedback == nil {
		stored.Feedback = &domain.UserFeedback{}
	}
	stored.Feedback.Rating = &rating
	stored.UpdatedAt = time.Now()
	return nil
}

func (r *memoryTicketRepo) IncrementLikes(ctx context.Context, ticketID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[ticketID]
	if !ok {
		return 0, pgx.ErrNoRows
	}
	if stored.Feedback == nil {
		stored.Feedback = &domain.UserFeedback{}
	}
	stored.Feedback.Likes++
	stored.UpdatedAt = time.Now()
	return stored.Feedback.Likes, nil
}

func (r *memoryTicketRepo) IncrementDislikes(ctx context.Context, ticketID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[ticketID]
	if !ok {
		return 0, pgx.ErrNoRows
	}
	if stored.Feedback == nil {
		stored.Feedback = &domain.UserFeedback{}
	}
	stored.Feedback.Dislikes++
	stored.UpdatedAt = time.Now()
	return stored.Feedback.Dislikes, nil
}

func (r *memoryTicketRepo) AddComment(ctx context.Context, ticketID string, comment *domain.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[ticketID]
	if !ok {
		return pgx.ErrNoRows
	}
	comment.ID = uuid.NewString()
	comment.CreatedAt = time.Now()
	if stored.Feedback == nil {
		stored.Feedback = &domain.UserFeedback{}
	}
	stored.Feedback.Comments = append(stored.Feedback.Comments, *comment)
	stored.UpdatedAt = time.Now()
	return nil
}

func newTestService(bus events.Bus) (*TicketService, *memoryTicketRepo, *Notifier) {
	repo := newMemoryTicketRepo()
	notifier := NewNotifier(bus, zap.NewNop(), observability.NewMetrics())
	svc := NewTicketService(TicketDependencies{TicketRepo: repo, Notifier: notifier})
	return svc, repo, notifier
}

func createInput() TicketCreateInput {
	return TicketCreateInput{
		ReporterName:  "Dana Reyes",
		ReporterEmail: "Dana@Example.com",
		Title:         "Broken chair",
		Description:   "Left armrest came off",
		Category:      domain.CategoryFurniture,
		Location:      "Desk 14B",
	}
}

func TestCreateTicketDefaultsAndEvent(t *testing.T) {
	bus := &recordingBus{}
	svc, _, notifier := newTestService(bus)

	ticket, _, err := svc.CreateTicket(context.Background(), createInput())
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Equal(t, domain.TicketPriorityMedium, ticket.Priority)
	assert.Equal(t, "dana@example.com", ticket.ReporterEmail)

	notifier.Close()
	published := bus.events()
	require.Len(t, published, 1)
	assert.Equal(t, events.ChannelAdmin, published[0].Channel)
	assert.Equal(t, events.EventTicketCreated, published[0].Event.Type)
}

func TestCreateTicketValidation(t *testing.T) {
	bus := &recordingBus{}
	svc, _, notifier := newTestService(bus)
	defer notifier.Close()

	input := createInput()
	input.Title = "  "
	_, _, err := svc.CreateTicket(context.Background(), input)
	assert.True(t, apperrors.IsValidation(err))

	input = createInput()
	input.Category = "spaceship"
	_, _, err = svc.CreateTicket(context.Background(), input)
	assert.True(t, apperrors.IsValidation(err))
}

func TestCreateTicketSucceedsWhenBusIsDown(t *testing.T) {
	bus := &recordingBus{fail: true}
	svc, repo, notifier := newTestService(bus)
	defer notifier.Close()

	ticket, _, err := svc.CreateTicket(context.Background(), createInput())
	require.NoError(t, err)

	stored, err := repo.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, ticket.ID, stored.ID)
}

func TestUpdateTicketStatusEmitsStatusKind(t *testing.T) {
	bus := &recordingBus{}
	svc, _, notifier := newTestService(bus)

	ticket, _, err := svc.CreateTicket(context.Background(), createInput())
	require.NoError(t, err)

	status := domain.TicketStatusInProgress
	updated, err := svc.UpdateTicket(context.Background(), ticket.ID, TicketUpdateInput{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, updated.Status)

	notifier.Close()
	published := bus.events()
	require.Len(t, published, 3) // create to admin, status change to admin and reporter
	last := published[len(published)-1]
	require.NotNil(t, last.Event.TicketUpdated)
	assert.Equal(t, events.UpdateKindStatus, last.Event.TicketUpdated.Kind)
}

func TestFeedbackRequiresResolvedTicket(t *testing.T) {
	bus := &recordingBus{}
	svc, _, notifier := newTestService(bus)
	defer notifier.Close()

	ticket, _, err := svc.CreateTicket(context.Background(), createInput())
	require.NoError(t, err)

	_, err = svc.Like(context.Background(), ticket.ID)
	assert.True(t, apperrors.IsValidation(err))

	status := domain.TicketStatusResolved
	_, err = svc.UpdateTicket(context.Background(), ticket.ID, TicketUpdateInput{Status: &status})
	require.NoError(t, err)

	updated, err := svc.Like(context.Background(), ticket.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.Feedback)
	assert.Equal(t, 1, updated.Feedback.Likes)
}

func TestSetRatingBounds(t *testing.T) {
	bus := &recordingBus{}
	svc, _, notifier := newTestService(bus)
	defer notifier.Close()

	ticket, _, err := svc.CreateTicket(context.Background(), createInput())
	require.NoError(t, err)
	status := domain.TicketStatusClosed
	_, err = svc.UpdateTicket(context.Background(), ticket.ID, TicketUpdateInput{Status: &status})
	require.NoError(t, err)

	_, err = svc.SetRating(context.Background(), ticket.ID, 0)
	assert.True(t, apperrors.IsValidation(err))
	_, err = svc.SetRating(context.Background(), ticket.ID, 6)
	assert.True(t, apperrors.IsValidation(err))

	updated, err := svc.SetRating(context.Background(), ticket.ID, 4)
	require.NoError(t, err)
	require.NotNil(t, updated.Feedback)
	require.NotNil(t, updated.Feedback.Rating)
	assert.Equal(t, 4, *updated.Feedback.Rating)
}

func TestAddResponseEmitsSnapshot(t *testing.T) {
	bus := &recordingBus{}
	svc, _, notifier := newTestService(bus)

	ticket, _, err := svc.CreateTicket(context.Background(), createInput())
	require.NoError(t, err)

	response, err := svc.AddResponse(context.Background(), ticket.ID, ResponseInput{
		AdminName: "Sam",
		Body:      "Replacement ordered.",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, response.ID)
	assert.False(t, response.Read)

	notifier.Close()
	published := bus.events()
	require.Len(t, published, 3) // create, then response to admin and reporter
	last := published[len(published)-1]
	require.NotNil(t, last.Event.ResponseAdded)
	assert.Equal(t, response.ID, last.Event.ResponseAdded.Response.ID)
	assert.Len(t, last.Event.ResponseAdded.Ticket.Responses, 1)
}
