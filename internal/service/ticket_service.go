package service

import (
	"context"
	"strings"

	"github.com/pacific-support/ticketing/internal/auth"
	"github.com/pacific-support/ticketing/internal/domain"
	"github.com/pacific-support/ticketing/internal/events"
	"github.com/pacific-support/ticketing/internal/repository"
	apperrors "github.com/pacific-support/ticketing/pkg/util/errorutil"
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets  repository.TicketRepository
	tokens   *auth.TokenManager
	notifier *Notifier
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Tokens     *auth.TokenManager
	Notifier   *Notifier
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	ReporterName       string
	ReporterEmail      string
	ReporterDepartment string
	Title              string
	Description        string
	Category           domain.TicketCategory
	Priority           domain.TicketPriority
	Location           string
	ImageData          []byte
}

// TicketUpdateInput describes a partial admin-side update. Nil fields
// are left untouched.
type TicketUpdateInput struct {
	Title       *string
	Description *string
	Category    *domain.TicketCategory
	Priority    *domain.TicketPriority
	Location    *string
	Status      *domain.TicketStatus
}

// ResponseInput describes an admin response payload.
type ResponseInput struct {
	AdminName string
	Body      string
	ImageData []byte
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:  deps.TicketRepo,
		tokens:   deps.Tokens,
		notifier: deps.Notifier,
	}
}

// CreateTicket stores a new ticket and returns it with its access token.
func (s *TicketService) CreateTicket(ctx context.Context, input TicketCreateInput) (*domain.Ticket, string, error) {
	if err := validateCreate(input); err != nil {
		return nil, "", err
	}

	ticket := &domain.Ticket{
		ReporterName:       strings.TrimSpace(input.ReporterName),
		ReporterEmail:      strings.ToLower(strings.TrimSpace(input.ReporterEmail)),
		ReporterDepartment: strings.TrimSpace(input.ReporterDepartment),
		Title:              strings.TrimSpace(input.Title),
		Description:        strings.TrimSpace(input.Description),
		Category:           input.Category,
		Priority:           input.Priority,
		Location:           strings.TrimSpace(input.Location),
		ImageData:          input.ImageData,
		Status:             domain.TicketStatusOpen,
	}
	if ticket.Priority == "" {
		ticket.Priority = domain.TicketPriorityMedium
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, "", err
	}

	token := ""
	if s.tokens != nil {
		issued, err := s.tokens.IssueTicketToken(ticket.ID)
		if err == nil {
			token = issued
		}
	}

	ticket.Responses = []domain.AdminResponse{}
	s.notifier.TicketCreated(*ticket)
	return ticket, token, nil
}

// ListTickets returns tickets for the admin dashboard, newest first.
func (s *TicketService) ListTickets(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	return s.tickets.ListWithFilter(ctx, filter)
}

// ListReporterTickets returns all tickets filed under a reporter email.
func (s *TicketService) ListReporterTickets(ctx context.Context, reporterEmail string) ([]domain.Ticket, error) {
	email := strings.ToLower(strings.TrimSpace(reporterEmail))
	if email == "" {
		return nil, apperrors.NewValidationError("reporter email required", nil)
	}
	return s.tickets.ListWithFilter(ctx, repository.TicketFilter{ReporterEmail: &email})
}

// GetTicket fetches a single ticket.
func (s *TicketService) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	return s.tickets.GetByID(ctx, id)
}

// LookupByToken resolves an access token to its ticket.
func (s *TicketService) LookupByToken(ctx context.Context, token string) (*domain.Ticket, error) {
	if s.tokens == nil {
		return nil, apperrors.NewUnauthorized("ticket lookup disabled")
	}
	ticketID, err := s.tokens.TicketIDFromToken(token)
	if err != nil {
		return nil, apperrors.NewUnauthorized("invalid access token")
	}
	return s.tickets.GetByID(ctx, ticketID)
}

// UpdateTicket applies a partial admin update and emits one event.
func (s *TicketService) UpdateTicket(ctx context.Context, id string, input TicketUpdateInput) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	kind := events.UpdateKindDetails
	if input.Title != nil {
		ticket.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		ticket.Description = strings.TrimSpace(*input.Description)
	}
	if input.Category != nil {
		if !input.Category.IsValid() {
			return nil, apperrors.NewValidationError("unknown category", nil)
		}
		ticket.Category = *input.Category
	}
	if input.Priority != nil {
		if !input.Priority.IsValid() {
			return nil, apperrors.NewValidationError("unknown priority", nil)
		}
		ticket.Priority = *input.Priority
	}
	if input.Location != nil {
		ticket.Location = strings.TrimSpace(*input.Location)
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, apperrors.NewValidationError("unknown status", nil)
		}
		if ticket.Status != *input.Status {
			kind = events.UpdateKindStatus
		}
		ticket.Status = *input.Status
	}
	if ticket.Title == "" || ticket.Description == "" {
		return nil, apperrors.NewValidationError("title and description required", nil)
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	// re-read so the event snapshot carries feedback visible in the new status
	updated, err := s.tickets.GetByID(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	s.notifier.TicketUpdated(*updated, kind)
	return updated, nil
}

// DeleteTicket removes a ticket. Connected clients learn of the
// deletion on their next full refresh; no event variant exists for it.
func (s *TicketService) DeleteTicket(ctx context.Context, id string) error {
	return s.tickets.Delete(ctx, id)
}

// AddResponse appends an admin response and emits response_added.
func (s *TicketService) AddResponse(ctx context.Context, ticketID string, input ResponseInput) (*domain.AdminResponse, error) {
	if strings.TrimSpace(input.AdminName) == "" || strings.TrimSpace(input.Body) == "" {
		return nil, apperrors.NewValidationError("admin name and body required", nil)
	}
	if len(input.ImageData) > domain.MaxImageBytes {
		return nil, apperrors.NewValidationError("image too large", nil)
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	response := &domain.AdminResponse{
		TicketID:  ticket.ID,
		AdminName: strings.TrimSpace(input.AdminName),
		Body:      strings.TrimSpace(input.Body),
		ImageData: input.ImageData,
	}
	if err := s.tickets.AddResponse(ctx, response); err != nil {
		return nil, err
	}

	snapshot, err := s.tickets.GetByID(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	s.notifier.ResponseAdded(*snapshot, *response)
	return response, nil
}

// MarkResponseRead flips the server-side read flag on a response.
func (s *TicketService) MarkResponseRead(ctx context.Context, ticketID, responseID string) error {
	return s.tickets.MarkResponseRead(ctx, ticketID, responseID)
}

// SetRating records a 1-5 rating on a resolved or closed ticket.
func (s *TicketService) SetRating(ctx context.Context, ticketID string, rating int) (*domain.Ticket, error) {
	if rating < 1 || rating > 5 {
		return nil, apperrors.NewValidationError("rating must be between 1 and 5", nil)
	}
	ticket, err := s.feedbackTarget(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := s.tickets.SetRating(ctx, ticket.ID, rating); err != nil {
		return nil, err
	}
	return s.emitFeedbackChange(ctx, ticket.ID)
}

// Like increments the like counter and returns the updated ticket.
func (s *TicketService) Like(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.feedbackTarget(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if _, err := s.tickets.IncrementLikes(ctx, ticket.ID); err != nil {
		return nil, err
	}
	return s.emitFeedbackChange(ctx, ticket.ID)
}

// Dislike increments the dislike counter and returns the updated ticket.
func (s *TicketService) Dislike(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.feedbackTarget(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if _, err := s.tickets.IncrementDislikes(ctx, ticket.ID); err != nil {
		return nil, err
	}
	return s.emitFeedbackChange(ctx, ticket.ID)
}

// AddComment appends a feedback comment on a resolved or closed ticket.
func (s *TicketService) AddComment(ctx context.Context, ticketID, authorName, body string) (*domain.Ticket, error) {
	if strings.TrimSpace(authorName) == "" || strings.TrimSpace(body) == "" {
		return nil, apperrors.NewValidationError("author name and body required", nil)
	}
	ticket, err := s.feedbackTarget(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	comment := &domain.Comment{
		AuthorName: strings.TrimSpace(authorName),
		Body:       strings.TrimSpace(body),
	}
	if err := s.tickets.AddComment(ctx, ticket.ID, comment); err != nil {
		return nil, err
	}
	return s.emitFeedbackChange(ctx, ticket.ID)
}

func (s *TicketService) feedbackTarget(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !ticket.AcceptsFeedback() {
		return nil, apperrors.NewValidationError("feedback requires a resolved or closed ticket", nil)
	}
	return ticket, nil
}

func (s *TicketService) emitFeedbackChange(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	updated, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	s.notifier.TicketUpdated(*updated, events.UpdateKindFeedback)
	return updated, nil
}

func validateCreate(input TicketCreateInput) error {
	if strings.TrimSpace(input.ReporterName) == "" || strings.TrimSpace(input.ReporterEmail) == "" {
		return apperrors.NewValidationError("reporter name and email required", nil)
	}
	if strings.TrimSpace(input.Title) == "" || strings.TrimSpace(input.Description) == "" {
		return apperrors.NewValidationError("title and description required", nil)
	}
	if !input.Category.IsValid() {
		return apperrors.NewValidationError("unknown category", nil)
	}
	if input.Priority != "" && !input.Priority.IsValid() {
		return apperrors.NewValidationError("unknown priority", nil)
	}
	if len(input.ImageData) > domain.MaxImageBytes {
		return apperrors.NewValidationError("image too large", nil)
	}
	return nil
}
