package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sigetic/helpdesk/internal/domain"
)

// TicketOrder selects the ordering of a ticket listing.
type TicketOrder int

const (
	// OrderNewestFirst sorts by creation time, newest first.
	OrderNewestFirst TicketOrder = iota
	// OrderAssignmentQueue sorts by effective assignment time, oldest first.
	OrderAssignmentQueue
)

// TicketScope is the ownership filter of a view. Statistics are computed on
// the scope alone.
type TicketScope struct {
	RequesterID  *int64
	TechnicianID *int64
}

// TicketFilter narrows a scoped listing.
type TicketFilter struct {
	Scope TicketScope
	// AnchorOnAssignment measures the date window against assigned_at,
	// falling back to created_at for tickets without one.
	AnchorOnAssignment bool
	From               *time.Time
	To                 *time.Time
	Status             *domain.TicketStatus
	Priority           *domain.TicketPriority
	Order              TicketOrder
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	GetViewByID(ctx context.Context, id int64) (*domain.TicketView, error)
	UpdateAssignment(ctx context.Context, ticket *domain.Ticket) error
	UpdateStatus(ctx context.Context, ticket *domain.Ticket) error
	UpdateImageURLs(ctx context.Context, id int64, urls []string) error
	ListViews(ctx context.Context, filter TicketFilter) ([]domain.TicketView, error)
	CountByStatus(ctx context.Context, scope TicketScope) (domain.StatusCounts, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `t.id, t.title, t.description, t.status, t.priority, t.category_id, t.subcategory_id,
        t.site_id, t.department_id, t.requester_id, t.technician_id, t.assigned_at, t.resolved_at,
        t.closed_at, t.image_urls, t.created_at, t.updated_at, t.deleted_at`

const ticketViewSelect = `SELECT ` + ticketColumns + `,
        COALESCE(rq.username, ''), COALESCE(rq.first_name, ''), COALESCE(rq.last_name, ''),
        COALESCE(rq.given_names, ''), COALESCE(rq.paternal_surname, ''),
        COALESCE(tc.username, ''), COALESCE(tc.first_name, ''), COALESCE(tc.last_name, ''),
        COALESCE(tc.given_names, ''), COALESCE(tc.paternal_surname, ''),
        COALESCE(s.name, ''), COALESCE(d.name, ''), COALESCE(c.name, ''), COALESCE(sc.name, '')
    FROM tickets t
    LEFT JOIN users rq ON rq.id = t.requester_id
    LEFT JOIN users tc ON tc.id = t.technician_id
    LEFT JOIN sites s ON s.id = t.site_id
    LEFT JOIN departments d ON d.id = t.department_id
    LEFT JOIN categories c ON c.id = t.category_id
    LEFT JOIN subcategories sc ON sc.id = t.subcategory_id`

const effectiveAssignment = "COALESCE(t.assigned_at, t.created_at)"

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, status, priority, category_id, subcategory_id,
            site_id, department_id, requester_id, technician_id, assigned_at, image_urls)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.CategoryID,
		ticket.SubcategoryID,
		ticket.SiteID,
		ticket.DepartmentID,
		ticket.RequesterID,
		ticket.TechnicianID,
		ticket.AssignedAt,
		nonNilURLs(ticket.ImageURLs),
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets t WHERE t.id=$1`
	var ticket domain.Ticket
	if err := scanTicket(r.pool.QueryRow(ctx, query, id), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) GetViewByID(ctx context.Context, id int64) (*domain.TicketView, error) {
	query := ticketViewSelect + ` WHERE t.id=$1`
	var view domain.TicketView
	if err := scanTicketView(r.pool.QueryRow(ctx, query, id), &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// UpdateAssignment writes technician, assignment time and status in one statement.
func (r *ticketRepository) UpdateAssignment(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET technician_id=$1, assigned_at=$2, status=$3, updated_at=NOW()
        WHERE id=$4
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.TechnicianID,
		ticket.AssignedAt,
		ticket.Status,
		ticket.ID,
	).Scan(&ticket.UpdatedAt)
}

func (r *ticketRepository) UpdateStatus(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET status=$1, resolved_at=$2, closed_at=$3, updated_at=NOW()
        WHERE id=$4
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Status,
		ticket.ResolvedAt,
		ticket.ClosedAt,
		ticket.ID,
	).Scan(&ticket.UpdatedAt)
}

func (r *ticketRepository) UpdateImageURLs(ctx context.Context, id int64, urls []string) error {
	const query = `UPDATE tickets SET image_urls=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, nonNilURLs(urls), id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) ListViews(ctx context.Context, filter TicketFilter) ([]domain.TicketView, error) {
	query, args := buildListQuery(filter)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketView
	for rows.Next() {
		var view domain.TicketView
		if err := scanTicketView(rows, &view); err != nil {
			return nil, err
		}
		result = append(result, view)
	}
	return result, rows.Err()
}

func (r *ticketRepository) CountByStatus(ctx context.Context, scope TicketScope) (domain.StatusCounts, error) {
	query, args := buildCountQuery(scope)
	var counts domain.StatusCounts
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return counts, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status domain.TicketStatus
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return counts, err
		}
		counts.Add(status, n)
	}
	return counts, rows.Err()
}

func scopeClauses(scope TicketScope, clauses []string, args []any) ([]string, []any) {
	if scope.RequesterID != nil {
		args = append(args, *scope.RequesterID)
		clauses = append(clauses, fmt.Sprintf("t.requester_id=$%d", len(args)))
	}
	if scope.TechnicianID != nil {
		args = append(args, *scope.TechnicianID)
		clauses = append(clauses, fmt.Sprintf("t.technician_id=$%d", len(args)))
	}
	return clauses, args
}

func buildListQuery(filter TicketFilter) (string, []any) {
	clauses, args := scopeClauses(filter.Scope, []string{"1=1"}, nil)

	anchor := "t.created_at"
	if filter.AnchorOnAssignment {
		anchor = effectiveAssignment
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		clauses = append(clauses, fmt.Sprintf("%s >= $%d", anchor, len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		clauses = append(clauses, fmt.Sprintf("%s < $%d", anchor, len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("t.status=$%d", len(args)))
	}
	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		clauses = append(clauses, fmt.Sprintf("t.priority=$%d", len(args)))
	}

	order := "t.created_at DESC, t.id DESC"
	if filter.Order == OrderAssignmentQueue {
		order = effectiveAssignment + " ASC, t.created_at ASC, t.id ASC"
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY %s`, ticketViewSelect, strings.Join(clauses, " AND "), order)
	return query, args
}

func buildCountQuery(scope TicketScope) (string, []any) {
	clauses, args := scopeClauses(scope, []string{"1=1"}, nil)
	query := fmt.Sprintf(`SELECT t.status, COUNT(*) FROM tickets t WHERE %s GROUP BY t.status`,
		strings.Join(clauses, " AND "))
	return query, args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func ticketDest(ticket *domain.Ticket) []any {
	return []any{
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.Priority,
		&ticket.CategoryID,
		&ticket.SubcategoryID,
		&ticket.SiteID,
		&ticket.DepartmentID,
		&ticket.RequesterID,
		&ticket.TechnicianID,
		&ticket.AssignedAt,
		&ticket.ResolvedAt,
		&ticket.ClosedAt,
		&ticket.ImageURLs,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.DeletedAt,
	}
}

func scanTicket(row rowScanner, ticket *domain.Ticket) error {
	return row.Scan(ticketDest(ticket)...)
}

func scanTicketView(row rowScanner, view *domain.TicketView) error {
	var requester, technician domain.User
	dest := append(ticketDest(&view.Ticket),
		&requester.Username,
		&requester.FirstName,
		&requester.LastName,
		&requester.GivenNames,
		&requester.PaternalSurname,
		&technician.Username,
		&technician.FirstName,
		&technician.LastName,
		&technician.GivenNames,
		&technician.PaternalSurname,
		&view.SiteName,
		&view.DepartmentName,
		&view.CategoryName,
		&view.SubcategoryName,
	)
	if err := row.Scan(dest...); err != nil {
		return err
	}

	requester.Normalize()
	view.RequesterName = requester.DisplayName()
	if view.TechnicianID != nil {
		technician.Normalize()
		view.TechnicianName = technician.DisplayName()
	}
	return nil
}

func nonNilURLs(urls []string) []string {
	if urls == nil {
		return []string{}
	}
	return urls
}
