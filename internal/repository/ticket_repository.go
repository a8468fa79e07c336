package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pacific-support/ticketing/internal/domain"
)

// TicketFilter captures listing parameters for the admin dashboard.
type TicketFilter struct {
	ReporterEmail *string
	Statuses      []domain.TicketStatus
	Categories    []domain.TicketCategory
	Priorities    []domain.TicketPriority
	SearchTerm    *string
	Limit         int
	Offset        int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	AddResponse(ctx context.Context, response *domain.AdminResponse) error
	MarkResponseRead(ctx context.Context, ticketID, responseID string) error
	SetRating(ctx context.Context, ticketID string, rating int) error
	IncrementLikes(ctx context.Context, ticketID string) (int, error)
	IncrementDislikes(ctx context.Context, ticketID string) (int, error)
	AddComment(ctx context.Context, ticketID string, comment *domain.Comment) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, reporter_name, reporter_email, reporter_department, title, description,
               category, priority, location, image_data, status, rating, likes, dislikes,
               created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (reporter_name, reporter_email, reporter_department, title, description,
                             category, priority, location, image_data, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.ReporterName,
		ticket.ReporterEmail,
		ticket.ReporterDepartment,
		ticket.Title,
		ticket.Description,
		ticket.Category,
		ticket.Priority,
		ticket.Location,
		ticket.ImageData,
		ticket.Status,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, category=$3, priority=$4, location=$5,
            status=$6, updated_at=NOW()
        WHERE id=$7`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Category,
		ticket.Priority,
		ticket.Location,
		ticket.Status,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	row := r.pool.QueryRow(ctx, query, id)
	ticket, err := scanTicket(row)
	if err != nil {
		return nil, err
	}
	if err := r.hydrate(ctx, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ReporterEmail != nil {
		args = append(args, *filter.ReporterEmail)
		clauses = append(clauses, fmt.Sprintf("reporter_email=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Categories) > 0 {
		placeholders := make([]string, len(filter.Categories))
		for i, category := range filter.Categories {
			args = append(args, category)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("category IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(description) LIKE %s)", placeholder, placeholder))
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY created_at DESC`,
		ticketColumns, strings.Join(clauses, " AND "))
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range result {
		if err := r.hydrate(ctx, &result[i]); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (r *ticketRepository) AddResponse(ctx context.Context, response *domain.AdminResponse) error {
	const query = `
        INSERT INTO admin_responses (ticket_id, admin_name, body, image_data)
        VALUES ($1,$2,$3,$4)
        RETURNING id, read, created_at`
	if err := r.pool.QueryRow(ctx, query,
		response.TicketID,
		response.AdminName,
		response.Body,
		response.ImageData,
	).Scan(&response.ID, &response.Read, &response.CreatedAt); err != nil {
		return err
	}
	_, err := r.pool.Exec(ctx, `UPDATE tickets SET updated_at=NOW() WHERE id=$1`, response.TicketID)
	return err
}

func (r *ticketRepository) MarkResponseRead(ctx context.Context, ticketID, responseID string) error {
	cmd, err := r.pool.Exec(ctx,
		`UPDATE admin_responses SET read=TRUE WHERE id=$1 AND ticket_id=$2`, responseID, ticketID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) SetRating(ctx context.Context, ticketID string, rating int) error {
	cmd, err := r.pool.Exec(ctx,
		`UPDATE tickets SET rating=$1, updated_at=NOW() WHERE id=$2`, rating, ticketID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) IncrementLikes(ctx context.Context, ticketID string) (int, error) {
	var likes int
	err := r.pool.QueryRow(ctx,
		`UPDATE tickets SET likes=likes+1, updated_at=NOW() WHERE id=$1 RETURNING likes`, ticketID).
		Scan(&likes)
	return likes, err
}

func (r *ticketRepository) IncrementDislikes(ctx context.Context, ticketID string) (int, error) {
	var dislikes int
	err := r.pool.QueryRow(ctx,
		`UPDATE tickets SET dislikes=dislikes+1, updated_at=NOW() WHERE id=$1 RETURNING dislikes`, ticketID).
		Scan(&dislikes)
	return dislikes, err
}

func (r *ticketRepository) AddComment(ctx context.Context, ticketID string, comment *domain.Comment) error {
	const query = `
        INSERT INTO feedback_comments (ticket_id, author_name, body)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	if err := r.pool.QueryRow(ctx, query,
		ticketID,
		comment.AuthorName,
		comment.Body,
	).Scan(&comment.ID, &comment.CreatedAt); err != nil {
		return err
	}
	_, err := r.pool.Exec(ctx, `UPDATE tickets SET updated_at=NOW() WHERE id=$1`, ticketID)
	return err
}

func (r *ticketRepository) hydrate(ctx context.Context, ticket *domain.Ticket) error {
	responses, err := r.listResponses(ctx, ticket.ID)
	if err != nil {
		return err
	}
	ticket.Responses = responses

	if !ticket.AcceptsFeedback() {
		return nil
	}
	comments, err := r.listComments(ctx, ticket.ID)
	if err != nil {
		return err
	}
	if ticket.Feedback == nil {
		ticket.Feedback = &domain.UserFeedback{}
	}
	ticket.Feedback.Comments = comments
	return nil
}

func (r *ticketRepository) listResponses(ctx context.Context, ticketID string) ([]domain.AdminResponse, error) {
	const query = `
        SELECT id, ticket_id, admin_name, body, image_data, read, created_at
        FROM admin_responses WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	responses := []domain.AdminResponse{}
	for rows.Next() {
		var resp domain.AdminResponse
		if err := rows.Scan(&resp.ID, &resp.TicketID, &resp.AdminName, &resp.Body,
			&resp.ImageData, &resp.Read, &resp.CreatedAt); err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}
	return responses, rows.Err()
}

func (r *ticketRepository) listComments(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	const query = `
        SELECT id, author_name, body, created_at
        FROM feedback_comments WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []domain.Comment{}
	for rows.Next() {
		var comment domain.Comment
		if err := rows.Scan(&comment.ID, &comment.AuthorName, &comment.Body, &comment.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}
	return comments, rows.Err()
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	var rating *int
	var likes, dislikes int
	if err := row.Scan(
		&ticket.ID,
		&ticket.ReporterName,
		&ticket.ReporterEmail,
		&ticket.ReporterDepartment,
		&ticket.Title,
		&ticket.Description,
		&ticket.Category,
		&ticket.Priority,
		&ticket.Location,
		&ticket.ImageData,
		&ticket.Status,
		&rating,
		&likes,
		&dislikes,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if ticket.AcceptsFeedback() {
		ticket.Feedback = &domain.UserFeedback{
			Rating:   rating,
			Likes:    likes,
			Dislikes: dislikes,
			Comments: []domain.Comment{},
		}
	}
	return &ticket, nil
}
