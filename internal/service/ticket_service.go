package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/sigetic/helpdesk/internal/domain"
	"github.com/sigetic/helpdesk/internal/events"
	"github.com/sigetic/helpdesk/internal/repository"
	"github.com/sigetic/helpdesk/internal/storage"
	apperrors "github.com/sigetic/helpdesk/pkg/util/errorutil"
)

// TicketService coordinates ticket creation and image handling.
type TicketService struct {
	tickets     repository.TicketRepository
	images      repository.TicketImageRepository
	categories  repository.CategoryRepository
	sites       repository.SiteRepository
	departments repository.DepartmentRepository
	store       storage.ImageStore
	dispatcher  events.Dispatcher
	logger      *zap.Logger
}

// TicketDependencies bundles collaborators for ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	ImageRepo      repository.TicketImageRepository
	CategoryRepo   repository.CategoryRepository
	SiteRepo       repository.SiteRepository
	DepartmentRepo repository.DepartmentRepository
	ImageStore     storage.ImageStore
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	CategoryID    int64
	SubcategoryID *int64
	SiteID        *int64
	DepartmentID  *int64
	Description   string
	Priority      domain.TicketPriority
}

// ImageUpload is one uploaded file.
type ImageUpload struct {
	Filename string
	Content  []byte
}

// TicketDetail is a single ticket with its image URLs.
type TicketDetail struct {
	Ticket    domain.TicketView
	ImageURLs []string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:     deps.TicketRepo,
		images:      deps.ImageRepo,
		categories:  deps.CategoryRepo,
		sites:       deps.SiteRepo,
		departments: deps.DepartmentRepo,
		store:       deps.ImageStore,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
	}
}

// CreateTicket validates and stores a new pending ticket, attaches uploaded
// images and announces it. Site and department default to the requester's.
func (s *TicketService) CreateTicket(ctx context.Context, requester *domain.User, input TicketCreateInput, uploads []ImageUpload) (*domain.Ticket, error) {
	if requester == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}

	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, apperrors.NewValidationError("description is required", map[string]any{"field": "description"})
	}

	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	if !priority.Valid() {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"field": "priority", "value": priority})
	}

	if input.SiteID == nil {
		input.SiteID = requester.SiteID
	}
	if input.DepartmentID == nil {
		input.DepartmentID = requester.DepartmentID
	}

	if err := s.validateReferences(ctx, input); err != nil {
		return nil, err
	}

	requesterID := requester.ID
	categoryID := input.CategoryID
	ticket := &domain.Ticket{
		Title:         domain.DeriveTitle(description),
		Description:   description,
		Status:        domain.TicketStatusPending,
		Priority:      priority,
		CategoryID:    &categoryID,
		SubcategoryID: input.SubcategoryID,
		SiteID:        input.SiteID,
		DepartmentID:  input.DepartmentID,
		RequesterID:   &requesterID,
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("ticket created", zap.Int64("ticket_id", ticket.ID), zap.Int64("requester_id", requesterID))

	if len(uploads) > 0 {
		s.AttachImages(ctx, ticket, uploads)
	}

	publish(ctx, s.dispatcher, events.NewEvent(events.EventTicketCreated, ticket.ID, events.ActorOf(requester),
		events.TicketCreatedPayload{Ticket: *ticket}))
	return ticket, nil
}

func (s *TicketService) validateReferences(ctx context.Context, input TicketCreateInput) error {
	if input.CategoryID <= 0 {
		return apperrors.NewValidationError("category is required", map[string]any{"field": "category"})
	}
	category, err := s.categories.GetCategory(ctx, input.CategoryID)
	if err != nil {
		return referenceError(err, "category", "category does not exist")
	}
	if !category.Active {
		return apperrors.NewValidationError("category is inactive", map[string]any{"field": "category"})
	}

	if input.SubcategoryID != nil {
		sub, err := s.categories.GetSubcategory(ctx, *input.SubcategoryID)
		if err != nil {
			return referenceError(err, "subcategory", "subcategory does not exist")
		}
		if sub.CategoryID != category.ID {
			return apperrors.NewValidationError("subcategory does not belong to category", map[string]any{"field": "subcategory"})
		}
		if !sub.Active {
			return apperrors.NewValidationError("subcategory is inactive", map[string]any{"field": "subcategory"})
		}
	}

	if input.SiteID != nil {
		site, err := s.sites.GetByID(ctx, *input.SiteID)
		if err != nil {
			return referenceError(err, "site", "site does not exist")
		}
		if !site.Active {
			return apperrors.NewValidationError("site is inactive", map[string]any{"field": "site"})
		}
	}

	if input.DepartmentID != nil {
		dept, err := s.departments.GetByID(ctx, *input.DepartmentID)
		if err != nil {
			return referenceError(err, "department", "department does not exist")
		}
		if !dept.Active {
			return apperrors.NewValidationError("department is inactive", map[string]any{"field": "department"})
		}
	}
	return nil
}

// AttachImages stores each upload under the ticket and records it. A file
// that fails is logged and skipped. The ticket's image_urls cache is then
// overwritten with the URLs collected in one update.
func (s *TicketService) AttachImages(ctx context.Context, ticket *domain.Ticket, uploads []ImageUpload) []string {
	urls := make([]string, 0, len(uploads))
	if len(uploads) == 0 {
		return urls
	}

	for i, upload := range uploads {
		key := storage.TicketImageKey(ticket.ID, upload.Filename)
		if err := s.store.Save(ctx, key, upload.Content); err != nil {
			s.logger.Warn("image write failed",
				zap.Int64("ticket_id", ticket.ID), zap.Int("index", i), zap.String("filename", upload.Filename), zap.Error(err))
			continue
		}

		image := &domain.TicketImage{TicketID: ticket.ID, Path: key}
		if err := s.images.Create(ctx, image); err != nil {
			s.logger.Warn("image record failed",
				zap.Int64("ticket_id", ticket.ID), zap.Int("index", i), zap.String("path", key), zap.Error(err))
			if delErr := s.store.Delete(ctx, key); delErr != nil {
				s.logger.Warn("orphaned image left behind", zap.String("path", key), zap.Error(delErr))
			}
			continue
		}
		urls = append(urls, s.store.URL(key))
	}

	ticket.ImageURLs = urls
	if err := s.tickets.UpdateImageURLs(ctx, ticket.ID, urls); err != nil {
		s.logger.Error("image url cache update failed", zap.Int64("ticket_id", ticket.ID), zap.Error(err))
	}
	return urls
}

// GetImageURLs returns the cached URLs, recomputing and persisting them from
// the owned images when the cache is empty. Images whose file is missing are skipped.
func (s *TicketService) GetImageURLs(ctx context.Context, ticket *domain.Ticket) ([]string, error) {
	if len(ticket.ImageURLs) > 0 {
		return ticket.ImageURLs, nil
	}

	images, err := s.images.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	urls := make([]string, 0, len(images))
	for _, image := range images {
		ok, err := s.store.Exists(ctx, image.Path)
		if err != nil {
			s.logger.Warn("image lookup failed", zap.Int64("ticket_id", ticket.ID), zap.String("path", image.Path), zap.Error(err))
			continue
		}
		if !ok {
			s.logger.Warn("image file missing", zap.Int64("ticket_id", ticket.ID), zap.String("path", image.Path))
			continue
		}
		urls = append(urls, s.store.URL(image.Path))
	}

	if len(urls) > 0 {
		if err := s.tickets.UpdateImageURLs(ctx, ticket.ID, urls); err != nil {
			s.logger.Warn("image url cache refresh failed", zap.Int64("ticket_id", ticket.ID), zap.Error(err))
		}
	}
	ticket.ImageURLs = urls
	return urls, nil
}

// GetTicket returns a ticket visible to user: its requester, its technician or a dispatcher.
func (s *TicketService) GetTicket(ctx context.Context, user *domain.User, ticketID int64) (*TicketDetail, error) {
	view, err := s.tickets.GetViewByID(ctx, ticketID)
	if err != nil {
		return nil, notFoundOr(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	if !CanViewTicket(user, &view.Ticket) {
		return nil, apperrors.NewForbidden("ticket not accessible")
	}

	urls, err := s.GetImageURLs(ctx, &view.Ticket)
	if err != nil {
		return nil, err
	}
	return &TicketDetail{Ticket: *view, ImageURLs: urls}, nil
}

// TicketImageURLs returns the image URLs of a ticket visible to user.
func (s *TicketService) TicketImageURLs(ctx context.Context, user *domain.User, ticketID int64) ([]string, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, notFoundOr(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	if !CanViewTicket(user, ticket) {
		return nil, apperrors.NewForbidden("ticket not accessible")
	}
	return s.GetImageURLs(ctx, ticket)
}

// CanViewTicket reports whether user may read ticket.
func CanViewTicket(user *domain.User, ticket *domain.Ticket) bool {
	if user == nil || ticket == nil {
		return false
	}
	if user.Role.IsDispatcher() {
		return true
	}
	if ticket.RequesterID != nil && *ticket.RequesterID == user.ID {
		return true
	}
	return ticket.TechnicianID != nil && *ticket.TechnicianID == user.ID
}

func publish(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	_ = dispatcher.Publish(ctx, event)
}

// notFoundOr maps a missing row to a NotFound for resource and anything else to a DomainError.
func notFoundOr(err error, resource string, details map[string]any) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound(resource, details)
	}
	return apperrors.MapError(err)
}

// referenceError turns a missing reference into a field validation error.
func referenceError(err error, field, message string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewValidationError(message, map[string]any{"field": field})
	}
	return apperrors.MapError(err)
}
