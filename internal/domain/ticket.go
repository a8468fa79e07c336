package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets. Transitions are
// admin-driven and unordered: any status may move to any other status.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// IsHistory reports whether list views file the ticket under history.
func (s TicketStatus) IsHistory() bool {
	return s == TicketStatusResolved || s == TicketStatusClosed
}

// IsValid reports whether the value is a known status.
func (s TicketStatus) IsValid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// TicketCategory enumerates reportable issue categories.
type TicketCategory string

const (
	CategoryFurniture   TicketCategory = "furniture"
	CategoryITEquipment TicketCategory = "it_equipment"
	CategoryFacility    TicketCategory = "facility"
	CategoryUtilities   TicketCategory = "utilities"
	CategorySafety      TicketCategory = "safety"
	CategoryOther       TicketCategory = "other"
)

// IsValid reports whether the value is a known category.
func (c TicketCategory) IsValid() bool {
	switch c {
	case CategoryFurniture, CategoryITEquipment, CategoryFacility, CategoryUtilities, CategorySafety, CategoryOther:
		return true
	}
	return false
}

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

// IsValid reports whether the value is a known priority.
func (p TicketPriority) IsValid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// MaxImageBytes caps inline image attachments on tickets and responses.
const MaxImageBytes = 5 * 1024 * 1024

// Ticket is the aggregate for reported workplace issues.
type Ticket struct {
	ID                 string          `json:"id"`
	ReporterName       string          `json:"reporter_name"`
	ReporterEmail      string          `json:"reporter_email"`
	ReporterDepartment string          `json:"reporter_department"`
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	Category           TicketCategory  `json:"category"`
	Priority           TicketPriority  `json:"priority"`
	Location           string          `json:"location"`
	ImageData          []byte          `json:"image_data,omitempty"`
	Status             TicketStatus    `json:"status"`
	Responses          []AdminResponse `json:"responses"`
	Feedback           *UserFeedback   `json:"feedback,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// AcceptsFeedback reports whether reporter feedback is allowed in the
// ticket's current status.
func (t *Ticket) AcceptsFeedback() bool {
	return t.Status.IsHistory()
}

// ResponseByID returns the admin response with the given id, or nil.
func (t *Ticket) ResponseByID(responseID string) *AdminResponse {
	for i := range t.Responses {
		if t.Responses[i].ID == responseID {
			return &t.Responses[i]
		}
	}
	return nil
}
