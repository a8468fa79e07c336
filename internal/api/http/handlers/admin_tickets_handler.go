package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/pacific-support/ticketing/internal/api/dto"
	"github.com/pacific-support/ticketing/internal/service"
	apperrors "github.com/pacific-support/ticketing/pkg/util/errorutil"
)

// AdminTicketsHandler manages dashboard-side ticket mutations.
type AdminTicketsHandler struct {
	service *service.TicketService
}

// NewAdminTicketsHandler constructs handler.
func NewAdminTicketsHandler(ticketService *service.TicketService) *AdminTicketsHandler {
	return &AdminTicketsHandler{service: ticketService}
}

// UpdateTicket PATCH /tickets/:id.
func (h *AdminTicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	input := service.TicketUpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
		Location:    req.Location,
		Status:      req.Status,
	}
	ticket, err := h.service.UpdateTicket(c.UserContext(), c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticket})
}

// DeleteTicket DELETE /tickets/:id.
func (h *AdminTicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	if err := h.service.DeleteTicket(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// AddResponse POST /tickets/:id/responses.
func (h *AdminTicketsHandler) AddResponse(c *fiber.Ctx) error {
	var req dto.CreateResponseRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	response, err := h.service.AddResponse(c.UserContext(), c.Params("id"), service.ResponseInput{
		AdminName: req.AdminName,
		Body:      req.Body,
		ImageData: req.ImageData,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": response})
}
