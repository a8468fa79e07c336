package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/pacific-support/ticketing/internal/api/dto"
	"github.com/pacific-support/ticketing/internal/domain"
	apperrors "github.com/pacific-support/ticketing/pkg/util/errorutil"
)

// HTTPStore talks to the ticket service REST API using the fiber agent.
// ReporterEmail, when set, scopes List to that reporter's tickets;
// admin clients leave it empty and receive the full set.
type HTTPStore struct {
	BaseURL       string
	ReporterEmail string
}

// NewHTTPStore builds a store client for the given base URL.
func NewHTTPStore(baseURL, reporterEmail string) *HTTPStore {
	return &HTTPStore{
		BaseURL:       strings.TrimRight(baseURL, "/"),
		ReporterEmail: reporterEmail,
	}
}

type ticketEnvelope struct {
	Data domain.Ticket `json:"data"`
}

type ticketListEnvelope struct {
	Data []domain.Ticket `json:"data"`
}

type createdEnvelope struct {
	Data dto.CreatedTicketResponse `json:"data"`
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// List fetches the full ticket list for this client's identity.
func (s *HTTPStore) List(ctx context.Context) ([]domain.Ticket, error) {
	path := "/tickets"
	if s.ReporterEmail != "" {
		path += "?reporter_email=" + url.QueryEscape(s.ReporterEmail)
	}
	var out ticketListEnvelope
	if err := s.do(ctx, fiber.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// Get fetches one ticket by id.
func (s *HTTPStore) Get(ctx context.Context, id string) (*domain.Ticket, error) {
	var out ticketEnvelope
	if err := s.do(ctx, fiber.MethodGet, "/tickets/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// Create files a new ticket and returns it with its access token.
func (s *HTTPStore) Create(ctx context.Context, req dto.CreateTicketRequest) (*domain.Ticket, string, error) {
	var out createdEnvelope
	if err := s.do(ctx, fiber.MethodPost, "/tickets", req, &out); err != nil {
		return nil, "", err
	}
	return &out.Data.Ticket, out.Data.AccessToken, nil
}

// Update applies a partial update to a ticket.
func (s *HTTPStore) Update(ctx context.Context, id string, req dto.UpdateTicketRequest) (*domain.Ticket, error) {
	var out ticketEnvelope
	if err := s.do(ctx, fiber.MethodPatch, "/tickets/"+id, req, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// Delete removes a ticket.
func (s *HTTPStore) Delete(ctx context.Context, id string) error {
	return s.do(ctx, fiber.MethodDelete, "/tickets/"+id, nil, nil)
}

// MarkResponseRead flips the server-side read flag on a response.
func (s *HTTPStore) MarkResponseRead(ctx context.Context, ticketID, responseID string) error {
	path := fmt.Sprintf("/tickets/%s/responses/%s/read", ticketID, responseID)
	return s.do(ctx, fiber.MethodPost, path, nil, nil)
}

// Rate records a rating and returns the authoritative ticket.
func (s *HTTPStore) Rate(ctx context.Context, id string, rating int) (*domain.Ticket, error) {
	var out ticketEnvelope
	if err := s.do(ctx, fiber.MethodPost, "/tickets/"+id+"/feedback/rating", dto.RatingRequest{Rating: rating}, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// Like increments the like counter and returns the authoritative ticket.
func (s *HTTPStore) Like(ctx context.Context, id string) (*domain.Ticket, error) {
	var out ticketEnvelope
	if err := s.do(ctx, fiber.MethodPost, "/tickets/"+id+"/feedback/like", nil, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// Dislike increments the dislike counter and returns the authoritative ticket.
func (s *HTTPStore) Dislike(ctx context.Context, id string) (*domain.Ticket, error) {
	var out ticketEnvelope
	if err := s.do(ctx, fiber.MethodPost, "/tickets/"+id+"/feedback/dislike", nil, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// AddComment appends a feedback comment and returns the authoritative ticket.
func (s *HTTPStore) AddComment(ctx context.Context, id, authorName, body string) (*domain.Ticket, error) {
	var out ticketEnvelope
	req := dto.CommentRequest{AuthorName: authorName, Body: body}
	if err := s.do(ctx, fiber.MethodPost, "/tickets/"+id+"/feedback/comments", req, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (s *HTTPStore) do(ctx context.Context, method, path string, body any, out any) error {
	agent := fiber.AcquireAgent()
	defer fiber.ReleaseAgent(agent)

	req := agent.Request()
	req.Header.SetMethod(method)
	req.SetRequestURI(s.BaseURL + path)
	if body != nil {
		agent.JSON(body)
	}
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining > 0 {
			agent.Timeout(remaining)
		}
	}

	if err := agent.Parse(); err != nil {
		return apperrors.NewInternalError(err)
	}

	var code int
	var raw []byte
	var errs []error
	if out != nil {
		code, raw, errs = agent.Struct(out)
	} else {
		code, raw, errs = agent.Bytes()
	}
	if len(errs) > 0 {
		return apperrors.NewInternalError(errs[0])
	}
	if code >= 400 {
		return decodeError(code, raw)
	}
	return nil
}

func decodeError(code int, raw []byte) error {
	message := "request failed"
	var envelope errorEnvelope
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error.Message != "" {
		message = envelope.Error.Message
	}
	switch code {
	case fiber.StatusNotFound:
		return apperrors.NewNotFound("ticket", nil)
	case fiber.StatusBadRequest:
		return apperrors.NewValidationError(message, nil)
	case fiber.StatusUnauthorized:
		return apperrors.NewUnauthorized(message)
	default:
		return apperrors.NewInternalError(fmt.Errorf("status %d: %s", code, message))
	}
}
