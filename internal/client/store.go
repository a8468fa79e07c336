package client

import (
	"context"

	"github.com/pacific-support/ticketing/internal/api/dto"
	"github.com/pacific-support/ticketing/internal/domain"
)

// Store is the authoritative ticket backend as seen by a client. List
// returns the full, unfiltered ticket set for this client's identity;
// the sync engine treats ids missing from it as deleted.
type Store interface {
	List(ctx context.Context) ([]domain.Ticket, error)
	Get(ctx context.Context, id string) (*domain.Ticket, error)
	Create(ctx context.Context, req dto.CreateTicketRequest) (*domain.Ticket, string, error)
	Update(ctx context.Context, id string, req dto.UpdateTicketRequest) (*domain.Ticket, error)
	Delete(ctx context.Context, id string) error
	MarkResponseRead(ctx context.Context, ticketID, responseID string) error

	Rate(ctx context.Context, id string, rating int) (*domain.Ticket, error)
	Like(ctx context.Context, id string) (*domain.Ticket, error)
	Dislike(ctx context.Context, id string) (*domain.Ticket, error)
	AddComment(ctx context.Context, id, authorName, body string) (*domain.Ticket, error)
}
