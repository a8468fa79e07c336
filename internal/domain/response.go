package domain

import "time"

// AdminResponse is an append-only staff reply on a ticket.
type AdminResponse struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	AdminName string    `json:"admin_name"`
	Body      string    `json:"body"`
	ImageData []byte    `json:"image_data,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
