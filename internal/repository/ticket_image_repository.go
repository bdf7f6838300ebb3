package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sigetic/helpdesk/internal/domain"
)

// TicketImageRepository persists image rows owned by tickets.
type TicketImageRepository interface {
	Create(ctx context.Context, image *domain.TicketImage) error
	ListByTicket(ctx context.Context, ticketID int64) ([]domain.TicketImage, error)
}

type ticketImageRepository struct {
	pool *pgxpool.Pool
}

// NewTicketImageRepository constructs repository.
func NewTicketImageRepository(pool *pgxpool.Pool) TicketImageRepository {
	return &ticketImageRepository{pool: pool}
}

func (r *ticketImageRepository) Create(ctx context.Context, image *domain.TicketImage) error {
	const query = `
        INSERT INTO ticket_images (ticket_id, path)
        VALUES ($1,$2)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query, image.TicketID, image.Path).Scan(&image.ID, &image.CreatedAt)
}

// ListByTicket returns images in insertion order.
func (r *ticketImageRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.TicketImage, error) {
	const query = `
        SELECT id, ticket_id, path, created_at
        FROM ticket_images WHERE ticket_id=$1 ORDER BY id ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketImage
	for rows.Next() {
		var image domain.TicketImage
		if err := rows.Scan(&image.ID, &image.TicketID, &image.Path, &image.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, image)
	}
	return result, rows.Err()
}
