package domain

import "time"

// TicketChangeType captures what changed in a history entry.
type TicketChangeType string

const (
	ChangeTypeStatus   TicketChangeType = "STATUS_CHANGE"
	ChangeTypeAssignee TicketChangeType = "ASSIGNEE_CHANGE"
)

// TicketHistory is an immutable audit trail entry. Flagged entries record
// status writes that left the documented workflow and await review.
type TicketHistory struct {
	ID         int64
	TicketID   int64
	ChangedBy  *int64
	ChangeType TicketChangeType
	OldValue   map[string]any
	NewValue   map[string]any
	Flagged    bool
	CreatedAt  time.Time
}
