package service

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/sigetic/helpdesk/internal/domain"
	"github.com/sigetic/helpdesk/internal/email"
	"github.com/sigetic/helpdesk/internal/repository"
)

type mockTicketRepo struct {
	CreateFunc           func(ctx context.Context, ticket *domain.Ticket) error
	GetByIDFunc          func(ctx context.Context, id int64) (*domain.Ticket, error)
	GetViewByIDFunc      func(ctx context.Context, id int64) (*domain.TicketView, error)
	UpdateAssignmentFunc func(ctx context.Context, ticket *domain.Ticket) error
	UpdateStatusFunc     func(ctx context.Context, ticket *domain.Ticket) error
	UpdateImageURLsFunc  func(ctx context.Context, id int64, urls []string) error
	ListViewsFunc        func(ctx context.Context, filter repository.TicketFilter) ([]domain.TicketView, error)
	CountByStatusFunc    func(ctx context.Context, scope repository.TicketScope) (domain.StatusCounts, error)
}

func (m *mockTicketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, ticket)
	}
	return nil
}

func (m *mockTicketRepo) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, pgx.ErrNoRows
}

func (m *mockTicketRepo) GetViewByID(ctx context.Context, id int64) (*domain.TicketView, error) {
	if m.GetViewByIDFunc != nil {
		return m.GetViewByIDFunc(ctx, id)
	}
	return nil, pgx.ErrNoRows
}

func (m *mockTicketRepo) UpdateAssignment(ctx context.Context, ticket *domain.Ticket) error {
	if m.UpdateAssignmentFunc != nil {
		return m.UpdateAssignmentFunc(ctx, ticket)
	}
	return nil
}

func (m *mockTicketRepo) UpdateStatus(ctx context.Context, ticket *domain.Ticket) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, ticket)
	}
	return nil
}

func (m *mockTicketRepo) UpdateImageURLs(ctx context.Context, id int64, urls []string) error {
	if m.UpdateImageURLsFunc != nil {
		return m.UpdateImageURLsFunc(ctx, id, urls)
	}
	return nil
}

func (m *mockTicketRepo) ListViews(ctx context.Context, filter repository.TicketFilter) ([]domain.TicketView, error) {
	if m.ListViewsFunc != nil {
		return m.ListViewsFunc(ctx, filter)
	}
	return nil, nil
}

func (m *mockTicketRepo) CountByStatus(ctx context.Context, scope repository.TicketScope) (domain.StatusCounts, error) {
	if m.CountByStatusFunc != nil {
		return m.CountByStatusFunc(ctx, scope)
	}
	return domain.StatusCounts{}, nil
}

type mockImageRepo struct {
	CreateFunc       func(ctx context.Context, image *domain.TicketImage) error
	ListByTicketFunc func(ctx context.Context, ticketID int64) ([]domain.TicketImage, error)
}

func (m *mockImageRepo) Create(ctx context.Context, image *domain.TicketImage) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, image)
	}
	return nil
}

func (m *mockImageRepo) ListByTicket(ctx context.Context, ticketID int64) ([]domain.TicketImage, error) {
	if m.ListByTicketFunc != nil {
		return m.ListByTicketFunc(ctx, ticketID)
	}
	return nil, nil
}

type mockCategoryRepo struct {
	GetCategoryFunc             func(ctx context.Context, id int64) (*domain.Category, error)
	GetSubcategoryFunc          func(ctx context.Context, id int64) (*domain.Subcategory, error)
	ListActiveSubcategoriesFunc func(ctx context.Context, categoryID int64) ([]domain.Subcategory, error)
}

func (m *mockCategoryRepo) GetCategory(ctx context.Context, id int64) (*domain.Category, error) {
	if m.GetCategoryFunc != nil {
		return m.GetCategoryFunc(ctx, id)
	}
	return &domain.Category{ID: id, Name: "Hardware", Active: true}, nil
}

func (m *mockCategoryRepo) GetSubcategory(ctx context.Context, id int64) (*domain.Subcategory, error) {
	if m.GetSubcategoryFunc != nil {
		return m.GetSubcategoryFunc(ctx, id)
	}
	return nil, pgx.ErrNoRows
}

func (m *mockCategoryRepo) ListActiveSubcategories(ctx context.Context, categoryID int64) ([]domain.Subcategory, error) {
	if m.ListActiveSubcategoriesFunc != nil {
		return m.ListActiveSubcategoriesFunc(ctx, categoryID)
	}
	return nil, nil
}

type mockSiteRepo struct {
	GetByIDFunc             func(ctx context.Context, id int64) (*domain.Site, error)
	GetActiveChannelFunc    func(ctx context.Context, siteID int64) (*domain.SiteChannel, error)
	UpdateChannelChatIDFunc func(ctx context.Context, channelID int64, chatID string) error
}

func (m *mockSiteRepo) GetByID(ctx context.Context, id int64) (*domain.Site, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return &domain.Site{ID: id, Name: "Central", Active: true}, nil
}

func (m *mockSiteRepo) GetActiveChannel(ctx context.Context, siteID int64) (*domain.SiteChannel, error) {
	if m.GetActiveChannelFunc != nil {
		return m.GetActiveChannelFunc(ctx, siteID)
	}
	return nil, pgx.ErrNoRows
}

func (m *mockSiteRepo) UpdateChannelChatID(ctx context.Context, channelID int64, chatID string) error {
	if m.UpdateChannelChatIDFunc != nil {
		return m.UpdateChannelChatIDFunc(ctx, channelID, chatID)
	}
	return nil
}

type mockDepartmentRepo struct {
	GetByIDFunc          func(ctx context.Context, id int64) (*domain.Department, error)
	ListActiveBySiteFunc func(ctx context.Context, siteID int64) ([]domain.Department, error)
}

func (m *mockDepartmentRepo) GetByID(ctx context.Context, id int64) (*domain.Department, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return &domain.Department{ID: id, Name: "Finance", Active: true}, nil
}

func (m *mockDepartmentRepo) ListActiveBySite(ctx context.Context, siteID int64) ([]domain.Department, error) {
	if m.ListActiveBySiteFunc != nil {
		return m.ListActiveBySiteFunc(ctx, siteID)
	}
	return nil, nil
}

type mockUserRepo struct {
	GetByIDFunc               func(ctx context.Context, id int64) (*domain.User, error)
	GetByUsernameFunc         func(ctx context.Context, username string) (*domain.User, error)
	GetEligibleTechnicianFunc func(ctx context.Context, id int64) (*domain.User, error)
	ListTechniciansFunc       func(ctx context.Context) ([]domain.User, error)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, pgx.ErrNoRows
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if m.GetByUsernameFunc != nil {
		return m.GetByUsernameFunc(ctx, username)
	}
	return nil, pgx.ErrNoRows
}

func (m *mockUserRepo) GetEligibleTechnician(ctx context.Context, id int64) (*domain.User, error) {
	if m.GetEligibleTechnicianFunc != nil {
		return m.GetEligibleTechnicianFunc(ctx, id)
	}
	return nil, pgx.ErrNoRows
}

func (m *mockUserRepo) ListTechnicians(ctx context.Context) ([]domain.User, error) {
	if m.ListTechniciansFunc != nil {
		return m.ListTechniciansFunc(ctx)
	}
	return nil, nil
}

type mockHistoryRepo struct {
	entries         []domain.TicketHistory
	CreateFunc      func(ctx context.Context, history *domain.TicketHistory) error
	ListFlaggedFunc func(ctx context.Context, limit int) ([]domain.TicketHistory, error)
}

func (m *mockHistoryRepo) Create(ctx context.Context, history *domain.TicketHistory) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, history)
	}
	m.entries = append(m.entries, *history)
	return nil
}

func (m *mockHistoryRepo) ListByTicket(_ context.Context, ticketID int64) ([]domain.TicketHistory, error) {
	var out []domain.TicketHistory
	for _, e := range m.entries {
		if e.TicketID == ticketID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockHistoryRepo) ListFlagged(ctx context.Context, limit int) ([]domain.TicketHistory, error) {
	if m.ListFlaggedFunc != nil {
		return m.ListFlaggedFunc(ctx, limit)
	}
	var out []domain.TicketHistory
	for _, e := range m.entries {
		if e.Flagged {
			out = append(out, e)
		}
	}
	return out, nil
}

// memoryStore keeps blobs in a map; SaveFunc can fail selected keys.
type memoryStore struct {
	blobs    map[string][]byte
	SaveFunc func(key string, content []byte) error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{blobs: map[string][]byte{}}
}

func (m *memoryStore) Save(_ context.Context, key string, content []byte) error {
	if m.SaveFunc != nil {
		if err := m.SaveFunc(key, content); err != nil {
			return err
		}
	}
	m.blobs[key] = content
	return nil
}

func (m *memoryStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.blobs[key]
	return ok, nil
}

func (m *memoryStore) Delete(_ context.Context, key string) error {
	delete(m.blobs, key)
	return nil
}

func (m *memoryStore) URL(key string) string {
	return "/media/" + key
}

type sentMessage struct {
	ChatID string
	Text   string
}

type mockSender struct {
	sent            []sentMessage
	SendMessageFunc func(ctx context.Context, chatID, text string) error
}

func (m *mockSender) SendMessage(ctx context.Context, chatID, text string) error {
	m.sent = append(m.sent, sentMessage{ChatID: chatID, Text: text})
	if m.SendMessageFunc != nil {
		return m.SendMessageFunc(ctx, chatID, text)
	}
	return nil
}

type mockMailer struct {
	to      []string
	notices []email.AssignmentNotice
	err     error
}

func (m *mockMailer) SendAssignment(to string, notice email.AssignmentNotice) error {
	m.to = append(m.to, to)
	m.notices = append(m.notices, notice)
	return m.err
}

func int64Ptr(v int64) *int64 { return &v }

func errNoRows() error { return pgx.ErrNoRows }
