package dto

import (
	"strconv"
	"strings"
	"time"

	"github.com/sigetic/helpdesk/internal/domain"
)

// CreateTicketForm is the multipart form of a new ticket. Images arrive
// as repeated "images" file parts.
type CreateTicketForm struct {
	Category    string `form:"category" validate:"required,numeric"`
	Subcategory string `form:"subcategory" validate:"omitempty,numeric"`
	Site        string `form:"site" validate:"omitempty,numeric"`
	Department  string `form:"department" validate:"omitempty,numeric"`
	Description string `form:"description" validate:"required,max=10000"`
	Priority    string `form:"priority" validate:"omitempty,oneof=low medium high urgent"`
}

// IDs returns the numeric references of the form. Validation already
// guaranteed they parse.
func (f CreateTicketForm) IDs() (category int64, subcategory, site, department *int64) {
	category, _ = strconv.ParseInt(f.Category, 10, 64)
	return category, optionalID(f.Subcategory), optionalID(f.Site), optionalID(f.Department)
}

func optionalID(raw string) *int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &id
}

// ListQuery captures dashboard filters.
type ListQuery struct {
	DateScope string `query:"date_scope" validate:"omitempty,oneof=today week month all"`
	Status    string `query:"status" validate:"omitempty,oneof=pending in_progress resolved closed"`
	Priority  string `query:"priority" validate:"omitempty,oneof=low medium high urgent"`
}

// AssignRequest binds or clears the technician of a ticket.
type AssignRequest struct {
	TechnicianID *int64 `json:"technician_id" validate:"omitempty,gt=0"`
}

// StatusRequest writes a new status.
type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending in_progress resolved closed"`
}

// TicketResponse is the public view of a ticket.
type TicketResponse struct {
	ID              int64                 `json:"id"`
	Title           string                `json:"title"`
	Description     string                `json:"description"`
	Status          domain.TicketStatus   `json:"status"`
	StatusLabel     string                `json:"status_label"`
	Priority        domain.TicketPriority `json:"priority"`
	PriorityLabel   string                `json:"priority_label"`
	CategoryID      *int64                `json:"category_id"`
	CategoryName    string                `json:"category_name,omitempty"`
	SubcategoryID   *int64                `json:"subcategory_id"`
	SubcategoryName string                `json:"subcategory_name,omitempty"`
	SiteID          *int64                `json:"site_id"`
	SiteName        string                `json:"site_name,omitempty"`
	DepartmentID    *int64                `json:"department_id"`
	DepartmentName  string                `json:"department_name,omitempty"`
	RequesterID     *int64                `json:"requester_id"`
	RequesterName   string                `json:"requester_name,omitempty"`
	TechnicianID    *int64                `json:"technician_id"`
	TechnicianName  string                `json:"technician_name,omitempty"`
	ImageURLs       []string              `json:"image_urls"`
	AssignedAt      *time.Time            `json:"assigned_at"`
	ResolvedAt      *time.Time            `json:"resolved_at"`
	ClosedAt        *time.Time            `json:"closed_at"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// NewTicketResponse converts a ticket view.
func NewTicketResponse(v *domain.TicketView) TicketResponse {
	urls := v.ImageURLs
	if urls == nil {
		urls = []string{}
	}
	return TicketResponse{
		ID:              v.ID,
		Title:           v.Title,
		Description:     v.Description,
		Status:          v.Status,
		StatusLabel:     v.Status.Label(),
		Priority:        v.Priority,
		PriorityLabel:   v.Priority.Label(),
		CategoryID:      v.CategoryID,
		CategoryName:    v.CategoryName,
		SubcategoryID:   v.SubcategoryID,
		SubcategoryName: v.SubcategoryName,
		SiteID:          v.SiteID,
		SiteName:        v.SiteName,
		DepartmentID:    v.DepartmentID,
		DepartmentName:  v.DepartmentName,
		RequesterID:     v.RequesterID,
		RequesterName:   v.RequesterName,
		TechnicianID:    v.TechnicianID,
		TechnicianName:  v.TechnicianName,
		ImageURLs:       urls,
		AssignedAt:      v.AssignedAt,
		ResolvedAt:      v.ResolvedAt,
		ClosedAt:        v.ClosedAt,
		CreatedAt:       v.CreatedAt,
		UpdatedAt:       v.UpdatedAt,
	}
}

// NewTicketResponseFromTicket converts a bare ticket.
func NewTicketResponseFromTicket(t *domain.Ticket) TicketResponse {
	return NewTicketResponse(&domain.TicketView{Ticket: *t})
}

// TicketResponses converts a listing.
func TicketResponses(views []domain.TicketView) []TicketResponse {
	out := make([]TicketResponse, 0, len(views))
	for i := range views {
		out = append(out, NewTicketResponse(&views[i]))
	}
	return out
}

// HistoryResponse is one audit entry.
type HistoryResponse struct {
	ID         int64                   `json:"id"`
	TicketID   int64                   `json:"ticket_id"`
	ChangedBy  *int64                  `json:"changed_by"`
	ChangeType domain.TicketChangeType `json:"change_type"`
	OldValue   map[string]any          `json:"old_value"`
	NewValue   map[string]any          `json:"new_value"`
	Flagged    bool                    `json:"flagged"`
	CreatedAt  time.Time               `json:"created_at"`
}

// HistoryResponses converts audit entries.
func HistoryResponses(entries []domain.TicketHistory) []HistoryResponse {
	out := make([]HistoryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, HistoryResponse{
			ID:         e.ID,
			TicketID:   e.TicketID,
			ChangedBy:  e.ChangedBy,
			ChangeType: e.ChangeType,
			OldValue:   e.OldValue,
			NewValue:   e.NewValue,
			Flagged:    e.Flagged,
			CreatedAt:  e.CreatedAt,
		})
	}
	return out
}

// ReferenceItem is an id/name pair for form dropdowns.
type ReferenceItem struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
