package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/sigetic/helpdesk/internal/api/dto"
	"github.com/sigetic/helpdesk/internal/domain"
	apperrors "github.com/sigetic/helpdesk/pkg/util/errorutil"
)

// TechnicianLister returns assignable technicians.
type TechnicianLister interface {
	ListTechnicians(ctx context.Context) ([]domain.User, error)
}

// AdminTicketsHandler serves the dispatcher endpoints.
type AdminTicketsHandler struct {
	queries   TicketQueries
	workflow  TicketWorkflow
	directory TechnicianLister
}

// NewAdminTicketsHandler constructs handler.
func NewAdminTicketsHandler(queries TicketQueries, workflow TicketWorkflow, directory TechnicianLister) *AdminTicketsHandler {
	return &AdminTicketsHandler{queries: queries, workflow: workflow, directory: directory}
}

// List GET /admin/tickets.
func (h *AdminTicketsHandler) List(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	filter, err := parseListQuery(c)
	if err != nil {
		return err
	}
	listing, err := h.queries.DispatcherView(c.UserContext(), user, filter)
	if err != nil {
		return err
	}
	return c.JSON(listingResponse(listing))
}

// Assign PUT /admin/tickets/:id/technician. A null technician_id unassigns.
func (h *AdminTicketsHandler) Assign(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	result, err := h.workflow.Assign(c.UserContext(), user, id, req.TechnicianID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"ticket":          dto.NewTicketResponseFromTicket(result.Ticket),
		"technician_name": result.TechnicianName,
	}})
}

// History GET /admin/tickets/:id/history.
func (h *AdminTicketsHandler) History(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	entries, err := h.workflow.History(c.UserContext(), user, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.HistoryResponses(entries)})
}

// Flagged GET /admin/tickets/flagged.
func (h *AdminTicketsHandler) Flagged(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	entries, err := h.workflow.ListFlaggedTransitions(c.UserContext(), user, c.QueryInt("limit", 100))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.HistoryResponses(entries)})
}

// Technicians GET /admin/technicians.
func (h *AdminTicketsHandler) Technicians(c *fiber.Ctx) error {
	users, err := h.directory.ListTechnicians(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.UserSummaries(users)})
}
