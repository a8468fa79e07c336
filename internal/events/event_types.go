package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/pacific-support/ticketing/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated EventType = "ticket_created"
	EventTicketUpdated EventType = "ticket_updated"
	EventResponseAdded EventType = "response_added"
)

// UpdateKind qualifies a ticket_updated event.
type UpdateKind string

const (
	UpdateKindStatus   UpdateKind = "status_change"
	UpdateKindDetails  UpdateKind = "details_change"
	UpdateKindFeedback UpdateKind = "feedback_change"
)

// ChannelAdmin is the bus channel every event is published to.
const ChannelAdmin = "admin"

// UserChannel returns the reporter-scoped bus channel.
func UserChannel(reporterEmail string) string {
	return "user:" + reporterEmail
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Ticket domain.Ticket `json:"ticket"`
}

// TicketUpdatedPayload payload. Ticket is the full post-update snapshot.
type TicketUpdatedPayload struct {
	TicketID string        `json:"ticket_id"`
	Ticket   domain.Ticket `json:"ticket"`
	Kind     UpdateKind    `json:"update_kind"`
}

// ResponseAddedPayload payload. Ticket is the full post-append snapshot.
type ResponseAddedPayload struct {
	TicketID  string               `json:"ticket_id"`
	AdminName string               `json:"admin_name"`
	Response  domain.AdminResponse `json:"response"`
	Ticket    domain.Ticket        `json:"ticket"`
}

// Event is a closed tagged variant: exactly one payload pointer is set,
// matching Type. Construct through the New* helpers so handling can
// switch exhaustively on Type.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	TicketCreated *TicketCreatedPayload `json:"ticket_created,omitempty"`
	TicketUpdated *TicketUpdatedPayload `json:"ticket_updated,omitempty"`
	ResponseAdded *ResponseAddedPayload `json:"response_added,omitempty"`
}

// NewTicketCreated builds a ticket_created event.
func NewTicketCreated(ticket domain.Ticket) Event {
	return Event{
		Type:          EventTicketCreated,
		TicketCreated: &TicketCreatedPayload{Ticket: ticket},
	}
}

// NewTicketUpdated builds a ticket_updated event.
func NewTicketUpdated(ticket domain.Ticket, kind UpdateKind) Event {
	return Event{
		Type: EventTicketUpdated,
		TicketUpdated: &TicketUpdatedPayload{
			TicketID: ticket.ID,
			Ticket:   ticket,
			Kind:     kind,
		},
	}
}

// NewResponseAdded builds a response_added event.
func NewResponseAdded(ticket domain.Ticket, response domain.AdminResponse) Event {
	return Event{
		Type: EventResponseAdded,
		ResponseAdded: &ResponseAddedPayload{
			TicketID:  ticket.ID,
			AdminName: response.AdminName,
			Response:  response,
			Ticket:    ticket,
		},
	}
}

// Validate checks that exactly the payload named by Type is present.
func (e Event) Validate() error {
	switch e.Type {
	case EventTicketCreated:
		if e.TicketCreated == nil || e.TicketUpdated != nil || e.ResponseAdded != nil {
			return fmt.Errorf("event %s: payload mismatch", e.Type)
		}
	case EventTicketUpdated:
		if e.TicketUpdated == nil || e.TicketCreated != nil || e.ResponseAdded != nil {
			return fmt.Errorf("event %s: payload mismatch", e.Type)
		}
	case EventResponseAdded:
		if e.ResponseAdded == nil || e.TicketCreated != nil || e.TicketUpdated != nil {
			return fmt.Errorf("event %s: payload mismatch", e.Type)
		}
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	return nil
}

// Encode serializes the event for the wire.
func Encode(event Event) ([]byte, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(event)
}

// Decode parses a wire payload, rejecting unknown or malformed variants.
func Decode(data []byte) (Event, error) {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return Event{}, err
	}
	if err := event.Validate(); err != nil {
		return Event{}, err
	}
	return event, nil
}
