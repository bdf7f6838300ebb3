package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/sigetic/helpdesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketStatusChanged EventType = "ticket_status_changed"
)

// Actor identifies who caused an event.
type Actor struct {
	UserID *int64      `json:"user_id,omitempty"`
	Role   domain.Role `json:"role,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  int64       `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// NewEvent stamps a fresh event for ticketID.
func NewEvent(eventType EventType, ticketID int64, actor Actor, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticketID,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// ActorOf builds the actor of user; nil yields an anonymous actor.
func ActorOf(user *domain.User) Actor {
	if user == nil {
		return Actor{}
	}
	id := user.ID
	return Actor{UserID: &id, Role: user.Role}
}

// TicketCreatedPayload carries the committed ticket.
type TicketCreatedPayload struct {
	Ticket domain.Ticket `json:"ticket"`
}

// TicketAssignedPayload payload. A nil TechnicianID means the ticket was unassigned.
type TicketAssignedPayload struct {
	TechnicianID   *int64              `json:"technician_id,omitempty"`
	TechnicianName string              `json:"technician_name,omitempty"`
	Status         domain.TicketStatus `json:"status"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Flagged   bool                `json:"flagged"`
}
