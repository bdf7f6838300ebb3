package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigetic/helpdesk/internal/domain"
	"github.com/sigetic/helpdesk/internal/events"
	apperrors "github.com/sigetic/helpdesk/pkg/util/errorutil"
)

type ticketFixture struct {
	tickets    *mockTicketRepo
	images     *mockImageRepo
	categories *mockCategoryRepo
	sites      *mockSiteRepo
	depts      *mockDepartmentRepo
	store      *memoryStore
	dispatcher events.Dispatcher
	published  []events.Event
	svc        *TicketService
	requester  *domain.User
}

func newTicketFixture() *ticketFixture {
	f := &ticketFixture{
		tickets:    &mockTicketRepo{},
		images:     &mockImageRepo{},
		categories: &mockCategoryRepo{},
		sites:      &mockSiteRepo{},
		depts:      &mockDepartmentRepo{},
		store:      newMemoryStore(),
		requester:  &domain.User{ID: 7, Username: "req", Role: domain.RoleUser, SiteID: int64Ptr(1), DepartmentID: int64Ptr(2), Active: true, Enabled: true},
	}
	f.tickets.CreateFunc = func(_ context.Context, ticket *domain.Ticket) error {
		ticket.ID = 100
		return nil
	}
	dispatcher := events.NewInMemoryDispatcher(nil)
	dispatcher.Subscribe(events.EventTicketCreated, func(_ context.Context, e events.Event) error {
		f.published = append(f.published, e)
		return nil
	})
	f.dispatcher = dispatcher
	f.svc = NewTicketService(TicketDependencies{
		TicketRepo:     f.tickets,
		ImageRepo:      f.images,
		CategoryRepo:   f.categories,
		SiteRepo:       f.sites,
		DepartmentRepo: f.depts,
		ImageStore:     f.store,
		Dispatcher:     f.dispatcher,
	})
	return f
}

func TestCreateTicket_DerivesTitleAndDefaults(t *testing.T) {
	f := newTicketFixture()
	description := strings.Repeat("a", 150)

	var created *domain.Ticket
	f.tickets.CreateFunc = func(_ context.Context, ticket *domain.Ticket) error {
		ticket.ID = 100
		created = ticket
		return nil
	}

	ticket, err := f.svc.CreateTicket(context.Background(), f.requester, TicketCreateInput{CategoryID: 3, Description: "  " + description + "  "}, nil)
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.Equal(t, strings.Repeat("a", 100), ticket.Title)
	assert.Equal(t, description, ticket.Description)
	assert.Equal(t, domain.TicketStatusPending, ticket.Status)
	assert.Equal(t, domain.TicketPriorityMedium, ticket.Priority)
	assert.Equal(t, int64(1), *ticket.SiteID)
	assert.Equal(t, int64(2), *ticket.DepartmentID)
	assert.Equal(t, int64(7), *ticket.RequesterID)
	assert.Nil(t, ticket.TechnicianID)

	require.Len(t, f.published, 1)
	assert.Equal(t, int64(100), f.published[0].TicketID)
}

func TestCreateTicket_ShortDescriptionIsTitle(t *testing.T) {
	f := newTicketFixture()
	ticket, err := f.svc.CreateTicket(context.Background(), f.requester, TicketCreateInput{CategoryID: 3, Description: "Mouse broken", Priority: domain.TicketPriorityUrgent}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Mouse broken", ticket.Title)
	assert.Equal(t, domain.TicketPriorityUrgent, ticket.Priority)
}

func TestCreateTicket_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input TicketCreateInput
		setup func(f *ticketFixture)
		field string
	}{
		{name: "blank description", input: TicketCreateInput{CategoryID: 3, Description: "   "}, field: "description"},
		{name: "unknown priority", input: TicketCreateInput{CategoryID: 3, Description: "x", Priority: "someday"}, field: "priority"},
		{name: "missing category", input: TicketCreateInput{Description: "x"}, field: "category"},
		{
			name:  "category does not exist",
			input: TicketCreateInput{CategoryID: 3, Description: "x"},
			setup: func(f *ticketFixture) {
				f.categories.GetCategoryFunc = func(context.Context, int64) (*domain.Category, error) { return nil, pgx.ErrNoRows }
			},
			field: "category",
		},
		{
			name:  "subcategory of another category",
			input: TicketCreateInput{CategoryID: 3, SubcategoryID: int64Ptr(9), Description: "x"},
			setup: func(f *ticketFixture) {
				f.categories.GetSubcategoryFunc = func(_ context.Context, id int64) (*domain.Subcategory, error) {
					return &domain.Subcategory{ID: id, CategoryID: 4, Active: true}, nil
				}
			},
			field: "subcategory",
		},
		{
			name:  "inactive site",
			input: TicketCreateInput{CategoryID: 3, Description: "x"},
			setup: func(f *ticketFixture) {
				f.sites.GetByIDFunc = func(_ context.Context, id int64) (*domain.Site, error) {
					return &domain.Site{ID: id, Active: false}, nil
				}
			},
			field: "site",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTicketFixture()
			if tt.setup != nil {
				tt.setup(f)
			}
			created := false
			f.tickets.CreateFunc = func(context.Context, *domain.Ticket) error {
				created = true
				return nil
			}

			_, err := f.svc.CreateTicket(context.Background(), f.requester, tt.input, nil)
			require.Error(t, err)
			assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
			assert.Equal(t, tt.field, apperrors.ToDomainError(err).Details["field"])
			assert.False(t, created)
			assert.Empty(t, f.published)
		})
	}
}

func TestCreateTicket_RequiresRequester(t *testing.T) {
	f := newTicketFixture()
	_, err := f.svc.CreateTicket(context.Background(), nil, TicketCreateInput{CategoryID: 3, Description: "x"}, nil)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))
}

func TestCreateTicket_WithImages(t *testing.T) {
	f := newTicketFixture()
	var cached []string
	f.tickets.UpdateImageURLsFunc = func(_ context.Context, id int64, urls []string) error {
		assert.Equal(t, int64(100), id)
		cached = urls
		return nil
	}

	ticket, err := f.svc.CreateTicket(context.Background(), f.requester, TicketCreateInput{CategoryID: 3, Description: "Screen flickers"},
		[]ImageUpload{{Filename: "a.png", Content: []byte("a")}, {Filename: "b.JPG", Content: []byte("b")}})
	require.NoError(t, err)

	require.Len(t, ticket.ImageURLs, 2)
	assert.Equal(t, ticket.ImageURLs, cached)
	assert.True(t, strings.HasPrefix(ticket.ImageURLs[0], "/media/tickets/100/"))
	assert.True(t, strings.HasSuffix(ticket.ImageURLs[0], ".png"))
	assert.True(t, strings.HasSuffix(ticket.ImageURLs[1], ".jpg"))
}

func TestAttachImages_PartialFailure(t *testing.T) {
	f := newTicketFixture()
	f.store.SaveFunc = func(_ string, content []byte) error {
		if string(content) == "unwritable" {
			return errors.New("disk full")
		}
		return nil
	}
	var recorded []string
	f.images.CreateFunc = func(_ context.Context, image *domain.TicketImage) error {
		if len(recorded) == 1 {
			recorded = append(recorded, "")
			return errors.New("insert failed")
		}
		recorded = append(recorded, image.Path)
		return nil
	}
	updates := 0
	f.tickets.UpdateImageURLsFunc = func(context.Context, int64, []string) error {
		updates++
		return nil
	}

	ticket := &domain.Ticket{ID: 5}
	urls := f.svc.AttachImages(context.Background(), ticket, []ImageUpload{
		{Filename: "ok.png", Content: []byte("first")},
		{Filename: "bad.png", Content: []byte("unwritable")},
		{Filename: "norecord.png", Content: []byte("second")},
		{Filename: "last.gif", Content: []byte("third")},
	})

	require.Len(t, urls, 2)
	assert.Equal(t, "/media/"+recorded[0], urls[0])
	assert.True(t, strings.HasSuffix(urls[1], ".gif"))
	assert.Equal(t, urls, ticket.ImageURLs)
	assert.Equal(t, 1, updates)
	// the blob whose record failed is removed again
	assert.Len(t, f.store.blobs, 2)
}

func TestAttachImages_NoUploads(t *testing.T) {
	f := newTicketFixture()
	f.tickets.UpdateImageURLsFunc = func(context.Context, int64, []string) error {
		t.Fatal("no update expected")
		return nil
	}
	urls := f.svc.AttachImages(context.Background(), &domain.Ticket{ID: 5}, nil)
	assert.Empty(t, urls)
}

func TestGetImageURLs_CacheRoundTrip(t *testing.T) {
	f := newTicketFixture()
	f.store.blobs["tickets/5/a.png"] = []byte("a")
	f.store.blobs["tickets/5/c.png"] = []byte("c")

	listCalls := 0
	f.images.ListByTicketFunc = func(_ context.Context, ticketID int64) ([]domain.TicketImage, error) {
		listCalls++
		return []domain.TicketImage{
			{ID: 1, TicketID: ticketID, Path: "tickets/5/a.png"},
			{ID: 2, TicketID: ticketID, Path: "tickets/5/missing.png"},
			{ID: 3, TicketID: ticketID, Path: "tickets/5/c.png"},
		}, nil
	}
	var persisted []string
	f.tickets.UpdateImageURLsFunc = func(_ context.Context, _ int64, urls []string) error {
		persisted = urls
		return nil
	}

	ticket := &domain.Ticket{ID: 5}
	urls, err := f.svc.GetImageURLs(context.Background(), ticket)
	require.NoError(t, err)
	want := []string{"/media/tickets/5/a.png", "/media/tickets/5/c.png"}
	assert.Equal(t, want, urls)
	assert.Equal(t, want, persisted)

	again, err := f.svc.GetImageURLs(context.Background(), ticket)
	require.NoError(t, err)
	assert.Equal(t, want, again)
	assert.Equal(t, 1, listCalls)
}

func TestGetImageURLs_NoImagesSkipsPersist(t *testing.T) {
	f := newTicketFixture()
	f.tickets.UpdateImageURLsFunc = func(context.Context, int64, []string) error {
		t.Fatal("no update expected")
		return nil
	}
	urls, err := f.svc.GetImageURLs(context.Background(), &domain.Ticket{ID: 5})
	require.NoError(t, err)
	assert.Empty(t, urls)
}

func TestGetTicket_Visibility(t *testing.T) {
	f := newTicketFixture()
	f.tickets.GetViewByIDFunc = func(_ context.Context, id int64) (*domain.TicketView, error) {
		return &domain.TicketView{Ticket: domain.Ticket{ID: id, RequesterID: int64Ptr(7), TechnicianID: int64Ptr(8), ImageURLs: []string{"/media/x.png"}}}, nil
	}

	detail, err := f.svc.GetTicket(context.Background(), f.requester, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"/media/x.png"}, detail.ImageURLs)

	_, err = f.svc.GetTicket(context.Background(), &domain.User{ID: 8, Role: domain.RoleTechnician}, 1)
	assert.NoError(t, err)

	_, err = f.svc.GetTicket(context.Background(), &domain.User{ID: 1, Role: domain.RoleAdmin}, 1)
	assert.NoError(t, err)

	_, err = f.svc.GetTicket(context.Background(), &domain.User{ID: 99, Role: domain.RoleUser}, 1)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))

	f.tickets.GetViewByIDFunc = nil
	_, err = f.svc.GetTicket(context.Background(), f.requester, 2)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
	assert.Equal(t, "ticket", apperrors.ResourceOf(err))
}
