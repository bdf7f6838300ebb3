package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sigetic/helpdesk/internal/domain"
	"github.com/sigetic/helpdesk/internal/repository"
	apperrors "github.com/sigetic/helpdesk/pkg/util/errorutil"
)

// DateScope is a relative window applied to dashboard listings.
type DateScope string

const (
	DateScopeToday DateScope = "today"
	DateScopeWeek  DateScope = "week"
	DateScopeMonth DateScope = "month"
	DateScopeAll   DateScope = "all"
)

// ParseDateScope normalises raw input; anything unknown means all.
func ParseDateScope(raw string) DateScope {
	switch scope := DateScope(strings.ToLower(strings.TrimSpace(raw))); scope {
	case DateScopeToday, DateScopeWeek, DateScopeMonth:
		return scope
	}
	return DateScopeAll
}

// Window returns the [from, to) bounds of the scope relative to now in loc.
// Week starts on Monday and month on its first day; neither has an upper bound.
func (d DateScope) Window(now time.Time, loc *time.Location) (from, to *time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	switch d {
	case DateScopeToday:
		end := midnight.AddDate(0, 0, 1)
		return &midnight, &end
	case DateScopeWeek:
		offset := (int(midnight.Weekday()) + 6) % 7
		start := midnight.AddDate(0, 0, -offset)
		return &start, nil
	case DateScopeMonth:
		start := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
		return &start, nil
	}
	return nil, nil
}

// ViewFilter holds the shared listing parameters.
type ViewFilter struct {
	DateScope DateScope
	Status    *domain.TicketStatus
	Priority  *domain.TicketPriority
}

// AppliedFilters echoes the parameters a listing was produced with.
type AppliedFilters struct {
	DateScope DateScope              `json:"date_scope"`
	Status    *domain.TicketStatus   `json:"status,omitempty"`
	Priority  *domain.TicketPriority `json:"priority,omitempty"`
}

// TicketListing is a dashboard view: the ordered list, a lookup by id,
// statistics over the unfiltered scope and the filters in effect.
type TicketListing struct {
	Tickets     []domain.TicketView
	Lookup      map[int64]domain.TicketView
	Stats       domain.StatusCounts
	Filters     AppliedFilters
	Technicians []domain.User
}

// TechnicianDirectory lists assignable technicians.
type TechnicianDirectory interface {
	ListTechnicians(ctx context.Context) ([]domain.User, error)
}

// QueryService produces requester, technician and dispatcher views.
type QueryService struct {
	tickets   repository.TicketRepository
	directory TechnicianDirectory
	location  *time.Location
	now       func() time.Time
	logger    *zap.Logger
}

// QueryDependencies bundles collaborators for the query service.
type QueryDependencies struct {
	TicketRepo repository.TicketRepository
	Directory  TechnicianDirectory
	Location   *time.Location
	Clock      func() time.Time
	Logger     *zap.Logger
}

// NewQueryService constructs the service.
func NewQueryService(deps QueryDependencies) *QueryService {
	svc := &QueryService{
		tickets:   deps.TicketRepo,
		directory: deps.Directory,
		location:  deps.Location,
		now:       deps.Clock,
		logger:    deps.Logger,
	}
	if svc.location == nil {
		svc.location = time.UTC
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc
}

// RequesterView lists the caller's own tickets, newest first, with date
// scopes measured on creation time.
func (s *QueryService) RequesterView(ctx context.Context, user *domain.User, filter ViewFilter) (*TicketListing, error) {
	if user == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	id := user.ID
	return s.list(ctx, repository.TicketScope{RequesterID: &id}, filter, false, repository.OrderNewestFirst)
}

// TechnicianView lists tickets assigned to the caller, oldest assignment
// first. Date scopes use the assignment time, or creation time when unset.
func (s *QueryService) TechnicianView(ctx context.Context, user *domain.User, filter ViewFilter) (*TicketListing, error) {
	if err := requireTechnician(user); err != nil {
		return nil, err
	}
	id := user.ID
	return s.list(ctx, repository.TicketScope{TechnicianID: &id}, filter, true, repository.OrderAssignmentQueue)
}

// DispatcherView lists every ticket, newest first. No date scope applies.
func (s *QueryService) DispatcherView(ctx context.Context, user *domain.User, filter ViewFilter) (*TicketListing, error) {
	if err := requireDispatcher(user); err != nil {
		return nil, err
	}
	filter.DateScope = DateScopeAll
	listing, err := s.list(ctx, repository.TicketScope{}, filter, false, repository.OrderNewestFirst)
	if err != nil {
		return nil, err
	}

	if s.directory != nil {
		technicians, err := s.directory.ListTechnicians(ctx)
		if err != nil {
			s.logger.Warn("technician directory unavailable", zap.Error(err))
		}
		listing.Technicians = technicians
	}
	if listing.Technicians == nil {
		listing.Technicians = []domain.User{}
	}
	return listing, nil
}

func (s *QueryService) list(ctx context.Context, scope repository.TicketScope, filter ViewFilter, anchorOnAssignment bool, order repository.TicketOrder) (*TicketListing, error) {
	dateScope := ParseDateScope(string(filter.DateScope))
	from, to := dateScope.Window(s.now(), s.location)

	views, err := s.tickets.ListViews(ctx, repository.TicketFilter{
		Scope:              scope,
		AnchorOnAssignment: anchorOnAssignment,
		From:               from,
		To:                 to,
		Status:             filter.Status,
		Priority:           filter.Priority,
		Order:              order,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	stats, err := s.tickets.CountByStatus(ctx, scope)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	if views == nil {
		views = []domain.TicketView{}
	}
	lookup := make(map[int64]domain.TicketView, len(views))
	for _, view := range views {
		lookup[view.ID] = view
	}

	return &TicketListing{
		Tickets: views,
		Lookup:  lookup,
		Stats:   stats,
		Filters: AppliedFilters{DateScope: dateScope, Status: filter.Status, Priority: filter.Priority},
	}, nil
}
