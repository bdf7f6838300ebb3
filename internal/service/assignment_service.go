package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sigetic/helpdesk/internal/domain"
	"github.com/sigetic/helpdesk/internal/events"
	"github.com/sigetic/helpdesk/internal/repository"
	apperrors "github.com/sigetic/helpdesk/pkg/util/errorutil"
)

// AssignmentService binds technicians to tickets and writes status changes.
type AssignmentService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	history    repository.TicketHistoryRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// AssignmentDependencies bundles repositories.
type AssignmentDependencies struct {
	TicketRepo  repository.TicketRepository
	UserRepo    repository.UserRepository
	HistoryRepo repository.TicketHistoryRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	Clock       func() time.Time
}

// AssignmentResult describes the outcome of an assignment. Technician is nil
// after an unassignment.
type AssignmentResult struct {
	Ticket         *domain.Ticket
	Technician     *domain.User
	TechnicianName string
}

// StatusChangeResult describes a status write. FlaggedForReview is set when
// the write left the documented workflow.
type StatusChangeResult struct {
	Ticket           *domain.Ticket
	PreviousStatus   domain.TicketStatus
	FlaggedForReview bool
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &AssignmentService{
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		history:    deps.HistoryRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		now:        clock,
	}
}

// Assign binds technicianID to the ticket, or clears the binding when
// technicianID is nil. A pending ticket advances to in progress; any other
// status is kept. Callers must already hold the dispatcher role.
func (s *AssignmentService) Assign(ctx context.Context, actor *domain.User, ticketID int64, technicianID *int64) (*AssignmentResult, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, notFoundOr(err, "ticket", map[string]any{"ticket_id": ticketID})
	}

	var technician *domain.User
	if technicianID != nil {
		technician, err = s.users.GetEligibleTechnician(ctx, *technicianID)
		if err != nil {
			return nil, notFoundOr(err, "technician", map[string]any{"technician_id": *technicianID})
		}
	}

	oldTechnician, oldStatus := ticket.TechnicianID, ticket.Status
	if technician != nil {
		ticket.AssignTo(technician.ID, s.now())
	} else {
		ticket.Unassign()
	}

	if err := s.tickets.UpdateAssignment(ctx, ticket); err != nil {
		return nil, notFoundOr(err, "ticket", map[string]any{"ticket_id": ticketID})
	}

	result := &AssignmentResult{Ticket: ticket, Technician: technician}
	if technician != nil {
		result.TechnicianName = technician.DisplayName()
	}

	s.logger.Info("ticket assignment updated",
		zap.Int64("ticket_id", ticket.ID),
		zap.Any("technician_id", ticket.TechnicianID),
		zap.String("status", string(ticket.Status)))

	s.record(ctx, &domain.TicketHistory{
		TicketID:   ticket.ID,
		ChangedBy:  actorID(actor),
		ChangeType: domain.ChangeTypeAssignee,
		OldValue:   map[string]any{"technician_id": oldTechnician, "status": oldStatus},
		NewValue:   map[string]any{"technician_id": ticket.TechnicianID, "status": ticket.Status},
	})

	publish(ctx, s.dispatcher, events.NewEvent(events.EventTicketAssigned, ticket.ID, events.ActorOf(actor),
		events.TicketAssignedPayload{
			TechnicianID:   ticket.TechnicianID,
			TechnicianName: result.TechnicianName,
			Status:         ticket.Status,
		}))
	return result, nil
}

// ChangeStatus writes next on the ticket. Writes outside the documented
// workflow are still applied but flagged for review. Allowed for dispatchers
// and the assigned technician.
func (s *AssignmentService) ChangeStatus(ctx context.Context, actor *domain.User, ticketID int64, next domain.TicketStatus) (*StatusChangeResult, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if !next.Valid() {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"field": "status", "value": next})
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, notFoundOr(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	if !canChangeStatus(actor, ticket) {
		return nil, apperrors.NewForbidden("not allowed to change this ticket")
	}

	previous := ticket.Status
	if previous == next {
		return &StatusChangeResult{Ticket: ticket, PreviousStatus: previous}, nil
	}

	flagged := !domain.IsWorkflowTransition(previous, next)
	ticket.SetStatus(next, s.now())
	if err := s.tickets.UpdateStatus(ctx, ticket); err != nil {
		return nil, notFoundOr(err, "ticket", map[string]any{"ticket_id": ticketID})
	}

	if flagged {
		s.logger.Warn("status change outside workflow flagged for review",
			zap.Int64("ticket_id", ticket.ID),
			zap.Int64("actor_id", actor.ID),
			zap.String("from", string(previous)),
			zap.String("to", string(next)))
	}

	s.record(ctx, &domain.TicketHistory{
		TicketID:   ticket.ID,
		ChangedBy:  actorID(actor),
		ChangeType: domain.ChangeTypeStatus,
		OldValue:   map[string]any{"status": previous},
		NewValue:   map[string]any{"status": next},
		Flagged:    flagged,
	})

	publish(ctx, s.dispatcher, events.NewEvent(events.EventTicketStatusChanged, ticket.ID, events.ActorOf(actor),
		events.TicketStatusChangedPayload{OldStatus: previous, NewStatus: next, Flagged: flagged}))

	return &StatusChangeResult{Ticket: ticket, PreviousStatus: previous, FlaggedForReview: flagged}, nil
}

// History lists the audit trail of a ticket for dispatchers.
func (s *AssignmentService) History(ctx context.Context, actor *domain.User, ticketID int64) ([]domain.TicketHistory, error) {
	if err := requireDispatcher(actor); err != nil {
		return nil, err
	}
	if _, err := s.tickets.GetByID(ctx, ticketID); err != nil {
		return nil, notFoundOr(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	entries, err := s.history.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

// ListFlaggedTransitions returns the off-workflow status writes awaiting review.
func (s *AssignmentService) ListFlaggedTransitions(ctx context.Context, actor *domain.User, limit int) ([]domain.TicketHistory, error) {
	if err := requireDispatcher(actor); err != nil {
		return nil, err
	}
	entries, err := s.history.ListFlagged(ctx, limit)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

func (s *AssignmentService) record(ctx context.Context, entry *domain.TicketHistory) {
	if s.history == nil {
		return
	}
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Warn("history write failed",
			zap.Int64("ticket_id", entry.TicketID),
			zap.String("change_type", string(entry.ChangeType)),
			zap.Error(err))
	}
}

func canChangeStatus(actor *domain.User, ticket *domain.Ticket) bool {
	if actor.Role.IsDispatcher() {
		return true
	}
	return actor.Role.IsTechnician() && ticket.TechnicianID != nil && *ticket.TechnicianID == actor.ID
}

func requireDispatcher(actor *domain.User) error {
	if actor == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if !actor.Role.IsDispatcher() {
		return apperrors.NewForbidden("dispatcher role required")
	}
	return nil
}

func requireTechnician(actor *domain.User) error {
	if actor == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if !actor.Role.IsTechnician() {
		return apperrors.NewForbidden("technician role required")
	}
	return nil
}

func actorID(actor *domain.User) *int64 {
	if actor == nil {
		return nil
	}
	id := actor.ID
	return &id
}
