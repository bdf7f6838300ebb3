package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sigetic/helpdesk/internal/domain"
)

// TicketHistoryRepository stores audit entries.
type TicketHistoryRepository interface {
	Create(ctx context.Context, history *domain.TicketHistory) error
	ListByTicket(ctx context.Context, ticketID int64) ([]domain.TicketHistory, error)
	ListFlagged(ctx context.Context, limit int) ([]domain.TicketHistory, error)
}

type ticketHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewTicketHistoryRepository builds repository.
func NewTicketHistoryRepository(pool *pgxpool.Pool) TicketHistoryRepository {
	return &ticketHistoryRepository{pool: pool}
}

const historyColumns = `id, ticket_id, changed_by, change_type, old_value, new_value, flagged, created_at`

func (r *ticketHistoryRepository) Create(ctx context.Context, history *domain.TicketHistory) error {
	const query = `
        INSERT INTO ticket_history (ticket_id, changed_by, change_type, old_value, new_value, flagged)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		history.TicketID,
		history.ChangedBy,
		history.ChangeType,
		nonNilValues(history.OldValue),
		nonNilValues(history.NewValue),
		history.Flagged,
	).Scan(&history.ID, &history.CreatedAt)
}

func (r *ticketHistoryRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.TicketHistory, error) {
	query := `SELECT ` + historyColumns + ` FROM ticket_history WHERE ticket_id=$1 ORDER BY created_at ASC, id ASC`
	return r.list(ctx, query, ticketID)
}

// ListFlagged returns the most recent off-workflow status writes.
func (r *ticketHistoryRepository) ListFlagged(ctx context.Context, limit int) ([]domain.TicketHistory, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT ` + historyColumns + ` FROM ticket_history WHERE flagged ORDER BY created_at DESC, id DESC LIMIT $1`
	return r.list(ctx, query, limit)
}

func (r *ticketHistoryRepository) list(ctx context.Context, query string, args ...any) ([]domain.TicketHistory, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketHistory
	for rows.Next() {
		var history domain.TicketHistory
		if err := rows.Scan(
			&history.ID,
			&history.TicketID,
			&history.ChangedBy,
			&history.ChangeType,
			&history.OldValue,
			&history.NewValue,
			&history.Flagged,
			&history.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, history)
	}
	return result, rows.Err()
}

func nonNilValues(values map[string]any) map[string]any {
	if values == nil {
		return map[string]any{}
	}
	return values
}
