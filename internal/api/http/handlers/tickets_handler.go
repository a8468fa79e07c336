package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/pacific-support/ticketing/internal/api/dto"
	"github.com/pacific-support/ticketing/internal/domain"
	"github.com/pacific-support/ticketing/internal/repository"
	"github.com/pacific-support/ticketing/internal/service"
	apperrors "github.com/pacific-support/ticketing/pkg/util/errorutil"
)

// TicketsHandler manages reporter-facing ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.TicketCreateInput{
		ReporterName:       req.ReporterName,
		ReporterEmail:      req.ReporterEmail,
		ReporterDepartment: req.ReporterDepartment,
		Title:              req.Title,
		Description:        req.Description,
		Category:           req.Category,
		Priority:           req.Priority,
		Location:           req.Location,
		ImageData:          req.ImageData,
	}
	ticket, token, err := h.service.CreateTicket(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.CreatedTicketResponse{
		Ticket:      *ticket,
		AccessToken: token,
	}})
}

// ListTickets GET /tickets. With reporter_email set this is the
// identity-scoped unfiltered list the client sync engine refreshes from.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	if email := strings.TrimSpace(c.Query("reporter_email")); email != "" {
		tickets, err := h.service.ListReporterTickets(c.UserContext(), email)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": tickets})
	}

	filter := repository.TicketFilter{
		Statuses:   parseStatuses(c.Query("status")),
		Categories: parseCategories(c.Query("category")),
		Priorities: parsePriorities(c.Query("priority")),
		Limit:      c.QueryInt("limit"),
		Offset:     c.QueryInt("offset"),
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		filter.SearchTerm = &search
	}
	tickets, err := h.service.ListTickets(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": tickets})
}

// LookupTicket GET /tickets/lookup?token=.
func (h *TicketsHandler) LookupTicket(c *fiber.Ctx) error {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		return apperrors.NewValidationError("token required", nil)
	}
	ticket, err := h.service.LookupByToken(c.UserContext(), token)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticket})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.service.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticket})
}

// MarkResponseRead POST /tickets/:id/responses/:responseId/read.
func (h *TicketsHandler) MarkResponseRead(c *fiber.Ctx) error {
	if err := h.service.MarkResponseRead(c.UserContext(), c.Params("id"), c.Params("responseId")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// SetRating POST /tickets/:id/feedback/rating.
func (h *TicketsHandler) SetRating(c *fiber.Ctx) error {
	var req dto.RatingRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.SetRating(c.UserContext(), c.Params("id"), req.Rating)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticket})
}

// Like POST /tickets/:id/feedback/like.
func (h *TicketsHandler) Like(c *fiber.Ctx) error {
	ticket, err := h.service.Like(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticket})
}

// Dislike POST /tickets/:id/feedback/dislike.
func (h *TicketsHandler) Dislike(c *fiber.Ctx) error {
	ticket, err := h.service.Dislike(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticket})
}

// AddComment POST /tickets/:id/feedback/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	var req dto.CommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.AddComment(c.UserContext(), c.Params("id"), req.AuthorName, req.Body)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticket})
}

func parseStatuses(raw string) []domain.TicketStatus {
	var out []domain.TicketStatus
	for _, part := range splitCSV(raw) {
		status := domain.TicketStatus(part)
		if status.IsValid() {
			out = append(out, status)
		}
	}
	return out
}

func parseCategories(raw string) []domain.TicketCategory {
	var out []domain.TicketCategory
	for _, part := range splitCSV(raw) {
		category := domain.TicketCategory(part)
		if category.IsValid() {
			out = append(out, category)
		}
	}
	return out
}

func parsePriorities(raw string) []domain.TicketPriority {
	var out []domain.TicketPriority
	for _, part := range splitCSV(raw) {
		priority := domain.TicketPriority(part)
		if priority.IsValid() {
			out = append(out, priority)
		}
	}
	return out
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(strings.ToLower(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
