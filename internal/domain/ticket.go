package domain

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusPending    TicketStatus = "pending"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// TicketStatuses lists every status in workflow order.
var TicketStatuses = []TicketStatus{
	TicketStatusPending,
	TicketStatusInProgress,
	TicketStatusResolved,
	TicketStatusClosed,
}

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

// TicketPriorities lists every priority from lowest to highest.
var TicketPriorities = []TicketPriority{
	TicketPriorityLow,
	TicketPriorityMedium,
	TicketPriorityHigh,
	TicketPriorityUrgent,
}

// TitleMaxLength is the number of description characters copied into the title.
const TitleMaxLength = 100

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID            int64
	Title         string
	Description   string
	Status        TicketStatus
	Priority      TicketPriority
	CategoryID    *int64
	SubcategoryID *int64
	SiteID        *int64
	DepartmentID  *int64
	RequesterID   *int64
	TechnicianID  *int64
	AssignedAt    *time.Time
	ResolvedAt    *time.Time
	ClosedAt      *time.Time
	ImageURLs     []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     *time.Time
}

// TicketImage is an image owned by exactly one ticket.
type TicketImage struct {
	ID        int64
	TicketID  int64
	Path      string
	CreatedAt time.Time
}

// TicketView is a ticket enriched with the display names of its references.
type TicketView struct {
	Ticket
	RequesterName   string
	SiteName        string
	DepartmentName  string
	CategoryName    string
	SubcategoryName string
	TechnicianName  string
}

// StatusCounts holds the five dashboard buckets.
type StatusCounts struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Resolved   int `json:"resolved"`
	Closed     int `json:"closed"`
}

// Add increments the bucket for status by n.
func (c *StatusCounts) Add(status TicketStatus, n int) {
	c.Total += n
	switch status {
	case TicketStatusPending:
		c.Pending += n
	case TicketStatusInProgress:
		c.InProgress += n
	case TicketStatusResolved:
		c.Resolved += n
	case TicketStatusClosed:
		c.Closed += n
	}
}

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	for _, candidate := range TicketStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	for _, candidate := range TicketPriorities {
		if candidate == p {
			return true
		}
	}
	return false
}

// Label returns a human readable status, e.g. "In Progress".
func (s TicketStatus) Label() string {
	return humanize(string(s))
}

// Label returns a human readable priority, e.g. "Urgent".
func (p TicketPriority) Label() string {
	return humanize(string(p))
}

func humanize(value string) string {
	return cases.Title(language.Und).String(strings.ReplaceAll(value, "_", " "))
}

// DeriveTitle copies the first TitleMaxLength characters of description.
func DeriveTitle(description string) string {
	return Truncate(description, TitleMaxLength)
}

// Truncate returns the first max characters of s without adding a marker.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == max {
			return s[:i]
		}
		count++
	}
	return s
}

// HasTechnician reports whether a technician is bound.
func (t *Ticket) HasTechnician() bool {
	return t.TechnicianID != nil
}

// AssignTo binds technicianID and advances a pending ticket to in progress.
// Tickets in any other status keep it.
func (t *Ticket) AssignTo(technicianID int64, at time.Time) {
	id := technicianID
	assignedAt := at
	t.TechnicianID = &id
	t.AssignedAt = &assignedAt
	if t.Status == TicketStatusPending {
		t.Status = TicketStatusInProgress
	}
}

// Unassign clears the technician and assignment time. Status is left untouched.
func (t *Ticket) Unassign() {
	t.TechnicianID = nil
	t.AssignedAt = nil
}

// workflowTransitions is the documented lifecycle. Writes outside it are
// permitted but flagged.
var workflowTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusPending:    {TicketStatusInProgress},
	TicketStatusInProgress: {TicketStatusResolved},
	TicketStatusResolved:   {TicketStatusClosed},
	TicketStatusClosed:     {},
}

// IsWorkflowTransition reports whether current -> next follows the documented workflow.
func IsWorkflowTransition(current, next TicketStatus) bool {
	for _, candidate := range workflowTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// SetStatus writes next and stamps resolved/closed times when entering those states.
func (t *Ticket) SetStatus(next TicketStatus, at time.Time) {
	stamp := at
	switch next {
	case TicketStatusResolved:
		t.ResolvedAt = &stamp
	case TicketStatusClosed:
		t.ClosedAt = &stamp
	}
	t.Status = next
}
