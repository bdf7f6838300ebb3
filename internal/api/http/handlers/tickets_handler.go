package handlers

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/sigetic/helpdesk/internal/api/dto"
	"github.com/sigetic/helpdesk/internal/auth"
	"github.com/sigetic/helpdesk/internal/domain"
	"github.com/sigetic/helpdesk/internal/service"
	apperrors "github.com/sigetic/helpdesk/pkg/util/errorutil"
)

// maxImagesPerTicket bounds the number of files read from one request.
const maxImagesPerTicket = 10

// TicketCommands creates and reads single tickets.
type TicketCommands interface {
	CreateTicket(ctx context.Context, requester *domain.User, input service.TicketCreateInput, uploads []service.ImageUpload) (*domain.Ticket, error)
	GetTicket(ctx context.Context, user *domain.User, ticketID int64) (*service.TicketDetail, error)
	TicketImageURLs(ctx context.Context, user *domain.User, ticketID int64) ([]string, error)
}

// TicketQueries produces the dashboard listings.
type TicketQueries interface {
	RequesterView(ctx context.Context, user *domain.User, filter service.ViewFilter) (*service.TicketListing, error)
	TechnicianView(ctx context.Context, user *domain.User, filter service.ViewFilter) (*service.TicketListing, error)
	DispatcherView(ctx context.Context, user *domain.User, filter service.ViewFilter) (*service.TicketListing, error)
}

// TicketWorkflow changes assignment and status.
type TicketWorkflow interface {
	Assign(ctx context.Context, actor *domain.User, ticketID int64, technicianID *int64) (*service.AssignmentResult, error)
	ChangeStatus(ctx context.Context, actor *domain.User, ticketID int64, next domain.TicketStatus) (*service.StatusChangeResult, error)
	History(ctx context.Context, actor *domain.User, ticketID int64) ([]domain.TicketHistory, error)
	ListFlaggedTransitions(ctx context.Context, actor *domain.User, limit int) ([]domain.TicketHistory, error)
}

// TicketsHandler manages requester and technician ticket endpoints.
type TicketsHandler struct {
	commands TicketCommands
	queries  TicketQueries
	workflow TicketWorkflow
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(commands TicketCommands, queries TicketQueries, workflow TicketWorkflow) *TicketsHandler {
	return &TicketsHandler{commands: commands, queries: queries, workflow: workflow}
}

// CreateTicket POST /tickets (multipart).
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var form dto.CreateTicketForm
	if err := c.BodyParser(&form); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(form); err != nil {
		return err
	}

	uploads, err := readImages(c)
	if err != nil {
		return err
	}

	category, subcategory, site, department := form.IDs()
	ticket, err := h.commands.CreateTicket(c.UserContext(), user, service.TicketCreateInput{
		CategoryID:    category,
		SubcategoryID: subcategory,
		SiteID:        site,
		DepartmentID:  department,
		Description:   form.Description,
		Priority:      domain.TicketPriority(form.Priority),
	}, uploads)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketResponseFromTicket(ticket)})
}

// ListMine GET /tickets.
func (h *TicketsHandler) ListMine(c *fiber.Ctx) error {
	return h.listing(c, h.queries.RequesterView)
}

// ListAssigned GET /tickets/assigned.
func (h *TicketsHandler) ListAssigned(c *fiber.Ctx) error {
	return h.listing(c, h.queries.TechnicianView)
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := ticketID(c)
	if err != nil {
		return err
	}

	detail, err := h.commands.GetTicket(c.UserContext(), user, id)
	if err != nil {
		return err
	}
	resp := dto.NewTicketResponse(&detail.Ticket)
	resp.ImageURLs = detail.ImageURLs
	return c.JSON(fiber.Map{"data": resp})
}

// ImageURLs GET /tickets/:id/images.
func (h *TicketsHandler) ImageURLs(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	urls, err := h.commands.TicketImageURLs(c.UserContext(), user, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": urls})
}

// ChangeStatus PATCH /tickets/:id/status.
func (h *TicketsHandler) ChangeStatus(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	var req dto.StatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	result, err := h.workflow.ChangeStatus(c.UserContext(), user, id, domain.TicketStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"ticket":             dto.NewTicketResponseFromTicket(result.Ticket),
		"previous_status":    result.PreviousStatus,
		"flagged_for_review": result.FlaggedForReview,
	}})
}

type viewFunc func(ctx context.Context, user *domain.User, filter service.ViewFilter) (*service.TicketListing, error)

func (h *TicketsHandler) listing(c *fiber.Ctx, view viewFunc) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	filter, err := parseListQuery(c)
	if err != nil {
		return err
	}
	listing, err := view(c.UserContext(), user, filter)
	if err != nil {
		return err
	}
	return c.JSON(listingResponse(listing))
}

// listingResponse renders a view. "lookup" mirrors "data" keyed by ticket id
// so clients can open a ticket without fetching it again.
func listingResponse(listing *service.TicketListing) fiber.Map {
	lookup := make(map[string]dto.TicketResponse, len(listing.Lookup))
	for id, view := range listing.Lookup {
		lookup[strconv.FormatInt(id, 10)] = dto.NewTicketResponse(&view)
	}

	resp := fiber.Map{
		"data":    dto.TicketResponses(listing.Tickets),
		"lookup":  lookup,
		"stats":   listing.Stats,
		"filters": listing.Filters,
	}
	if listing.Technicians != nil {
		resp["technicians"] = dto.UserSummaries(listing.Technicians)
	}
	return resp
}

func parseListQuery(c *fiber.Ctx) (service.ViewFilter, error) {
	var q dto.ListQuery
	if err := c.QueryParser(&q); err != nil {
		return service.ViewFilter{}, apperrors.NewValidationError("invalid query", nil)
	}
	if err := dto.Validate(q); err != nil {
		return service.ViewFilter{}, err
	}

	filter := service.ViewFilter{DateScope: service.ParseDateScope(q.DateScope)}
	if q.Status != "" {
		status := domain.TicketStatus(q.Status)
		filter.Status = &status
	}
	if q.Priority != "" {
		priority := domain.TicketPriority(q.Priority)
		filter.Priority = &priority
	}
	return filter, nil
}

func readImages(c *fiber.Ctx) ([]service.ImageUpload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		// plain form posts carry no files
		return nil, nil
	}
	files := form.File["images"]
	if len(files) > maxImagesPerTicket {
		return nil, apperrors.NewValidationError("too many images", map[string]any{"field": "images", "max": maxImagesPerTicket})
	}

	uploads := make([]service.ImageUpload, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, apperrors.NewValidationError("unreadable image", map[string]any{"field": "images", "filename": fh.Filename})
		}
		content, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, apperrors.NewValidationError("unreadable image", map[string]any{"field": "images", "filename": fh.Filename})
		}
		uploads = append(uploads, service.ImageUpload{Filename: fh.Filename, Content: content})
	}
	return uploads, nil
}

func currentUser(c *fiber.Ctx) (*domain.User, error) {
	user, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return user, nil
}

func ticketID(c *fiber.Ctx) (int64, error) {
	return pathID(c, "id")
}

func pathID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid id", map[string]any{"field": name})
	}
	return id, nil
}
