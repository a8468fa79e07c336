package dto

import (
	"github.com/pacific-support/ticketing/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	ReporterName       string                `json:"reporter_name"`
	ReporterEmail      string                `json:"reporter_email"`
	ReporterDepartment string                `json:"reporter_department"`
	Title              string                `json:"title"`
	Description        string                `json:"description"`
	Category           domain.TicketCategory `json:"category"`
	Priority           domain.TicketPriority `json:"priority"`
	Location           string                `json:"location"`
	ImageData          []byte                `json:"image_data,omitempty"`
}

// CreatedTicketResponse returns the stored ticket plus its access token.
type CreatedTicketResponse struct {
	Ticket      domain.Ticket `json:"ticket"`
	AccessToken string        `json:"access_token"`
}

// UpdateTicketRequest is a partial admin update; nil fields are ignored.
type UpdateTicketRequest struct {
	Title       *string                `json:"title"`
	Description *string                `json:"description"`
	Category    *domain.TicketCategory `json:"category"`
	Priority    *domain.TicketPriority `json:"priority"`
	Location    *string                `json:"location"`
	Status      *domain.TicketStatus   `json:"status"`
}

// CreateResponseRequest payload for admin responses.
type CreateResponseRequest struct {
	AdminName string `json:"admin_name"`
	Body      string `json:"body"`
	ImageData []byte `json:"image_data,omitempty"`
}

// RatingRequest payload.
type RatingRequest struct {
	Rating int `json:"rating"`
}

// CommentRequest payload.
type CommentRequest struct {
	AuthorName string `json:"author_name"`
	Body       string `json:"body"`
}
