package domain

import "time"

// ClientNotification is a client-local inbox entry derived from an
// admin response. Uniquely keyed by ResponseID: the notification list
// never holds two entries for the same response.
type ClientNotification struct {
	ResponseID   string    `json:"response_id"`
	TicketID     string    `json:"ticket_id"`
	TicketTitle  string    `json:"ticket_title"`
	AdminName    string    `json:"admin_name"`
	ResponseText string    `json:"response_text"`
	CreatedAt    time.Time `json:"created_at"`
	Read         bool      `json:"read"`
}
