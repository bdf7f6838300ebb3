package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/sigetic/helpdesk/internal/domain"
	"github.com/sigetic/helpdesk/internal/email"
	"github.com/sigetic/helpdesk/internal/events"
	"github.com/sigetic/helpdesk/internal/repository"
	"github.com/sigetic/helpdesk/internal/telegram"
)

const (
	summaryTitleLength       = 100
	summaryDescriptionLength = 300
	summarySeparator         = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"
)

var priorityIcons = map[domain.TicketPriority]string{
	domain.TicketPriorityLow:    "🟢",
	domain.TicketPriorityMedium: "🟡",
	domain.TicketPriorityHigh:   "🟠",
	domain.TicketPriorityUrgent: "🔴",
}

var statusIcons = map[domain.TicketStatus]string{
	domain.TicketStatusPending:    "⏳",
	domain.TicketStatusInProgress: "🔄",
	domain.TicketStatusResolved:   "✅",
	domain.TicketStatusClosed:     "🔒",
}

// plainText strips markup from user supplied text and escapes it for HTML messages.
var plainText = bluemonday.StrictPolicy()

// MessageSender delivers a formatted message to a chat.
type MessageSender interface {
	SendMessage(ctx context.Context, chatID, text string) error
}

// AssignmentMailer e-mails technicians about new assignments.
type AssignmentMailer interface {
	SendAssignment(to string, notice email.AssignmentNotice) error
}

// NotificationService delivers ticket events to site channels and technicians.
type NotificationService struct {
	dispatcher events.Dispatcher
	tickets    repository.TicketRepository
	sites      repository.SiteRepository
	users      repository.UserRepository
	sender     MessageSender
	mailer     AssignmentMailer
	location   *time.Location
	logger     *zap.Logger
}

// NotificationDependencies bundles collaborators. A nil Sender or Mailer
// disables that channel.
type NotificationDependencies struct {
	Dispatcher events.Dispatcher
	TicketRepo repository.TicketRepository
	SiteRepo   repository.SiteRepository
	UserRepo   repository.UserRepository
	Sender     MessageSender
	Mailer     AssignmentMailer
	Location   *time.Location
	Logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	n := &NotificationService{
		dispatcher: deps.Dispatcher,
		tickets:    deps.TicketRepo,
		sites:      deps.SiteRepo,
		users:      deps.UserRepo,
		sender:     deps.Sender,
		mailer:     deps.Mailer,
		location:   deps.Location,
		logger:     deps.Logger,
	}
	if n.location == nil {
		n.location = time.UTC
	}
	if n.logger == nil {
		n.logger = zap.NewNop()
	}
	return n
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleTicketAssigned)
}

// EnabledChannels names the configured delivery channels.
func (n *NotificationService) EnabledChannels() []string {
	var channels []string
	if n.sender != nil {
		channels = append(channels, "telegram")
	}
	if n.mailer != nil {
		channels = append(channels, "email")
	}
	return channels
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	if n.NotifyTicketCreated(ctx, &payload.Ticket) {
		n.logger.Info("ticket notification sent", zap.Int64("ticket_id", event.TicketID))
	}
	return nil
}

// NotifyTicketCreated posts the ticket summary to its site's channel. It
// reports false, after logging, on any failure. When the channel moved to a
// new identifier the mapping is updated and delivery is retried once there.
func (n *NotificationService) NotifyTicketCreated(ctx context.Context, ticket *domain.Ticket) bool {
	log := n.logger.With(zap.Int64("ticket_id", ticket.ID))

	if n.sender == nil {
		log.Debug("telegram notifications disabled")
		return false
	}
	if ticket.SiteID == nil {
		log.Warn("ticket has no site; notification skipped")
		return false
	}

	channel, err := n.sites.GetActiveChannel(ctx, *ticket.SiteID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Warn("no channel configured for site", zap.Int64("site_id", *ticket.SiteID))
		} else {
			log.Error("site channel lookup failed", zap.Error(err))
		}
		return false
	}

	view, err := n.tickets.GetViewByID(ctx, ticket.ID)
	if err != nil {
		log.Error("ticket lookup for notification failed", zap.Error(err))
		return false
	}
	message := FormatTicketSummary(view, n.location)

	err = n.sender.SendMessage(ctx, channel.ChatID, message)
	if err == nil {
		return true
	}

	newChatID, migrated := telegram.MigratedChatID(err)
	if !migrated {
		if telegram.IsBotBlocked(err) {
			log.Warn("bot cannot post to site channel", zap.Int64("channel_id", channel.ID), zap.Error(err))
			return false
		}
		log.Warn("ticket notification failed", zap.String("chat_id", channel.ChatID), zap.Error(err))
		return false
	}

	log.Info("site channel migrated", zap.String("old_chat_id", channel.ChatID), zap.String("new_chat_id", newChatID))
	if err := n.sites.UpdateChannelChatID(ctx, channel.ID, newChatID); err != nil {
		log.Error("site channel update failed", zap.Int64("channel_id", channel.ID), zap.Error(err))
	}

	if err := n.sender.SendMessage(ctx, newChatID, message); err != nil {
		log.Warn("ticket notification retry failed", zap.String("chat_id", newChatID), zap.Error(err))
		return false
	}
	return true
}

func (n *NotificationService) handleTicketAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketAssignedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	if n.mailer == nil || payload.TechnicianID == nil {
		return nil
	}

	technician, err := n.users.GetByID(ctx, *payload.TechnicianID)
	if err != nil {
		return fmt.Errorf("load technician: %w", err)
	}
	if strings.TrimSpace(technician.Email) == "" {
		n.logger.Debug("technician has no e-mail", zap.Int64("technician_id", technician.ID))
		return nil
	}

	view, err := n.tickets.GetViewByID(ctx, event.TicketID)
	if err != nil {
		return fmt.Errorf("load ticket: %w", err)
	}

	if err := n.mailer.SendAssignment(technician.Email, email.AssignmentNotice{
		TicketID:       view.ID,
		Title:          view.Title,
		Priority:       view.Priority.Label(),
		SiteName:       orDefault(view.SiteName, "No site"),
		RequesterName:  orDefault(view.RequesterName, "No requester"),
		TechnicianName: technician.DisplayName(),
	}); err != nil {
		return err
	}
	n.logger.Info("assignment e-mail sent", zap.Int64("ticket_id", view.ID), zap.Int64("technician_id", technician.ID))
	return nil
}

// FormatTicketSummary renders the HTML message announcing a new ticket.
func FormatTicketSummary(view *domain.TicketView, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}

	category := "No category"
	if view.CategoryName != "" {
		category = view.CategoryName
		if view.SubcategoryName != "" {
			category += " - " + view.SubcategoryName
		}
	}

	priorityIcon, ok := priorityIcons[view.Priority]
	if !ok {
		priorityIcon = "⚪"
	}
	statusIcon, ok := statusIcons[view.Status]
	if !ok {
		statusIcon = "📋"
	}

	var b strings.Builder
	b.WriteString("🎫 <b>NEW TICKET CREATED</b>\n\n")
	b.WriteString(summarySeparator + "\n\n")
	fmt.Fprintf(&b, "📋 <b>Ticket #%d</b>\n\n", view.ID)
	fmt.Fprintf(&b, "👤 <b>Requester:</b> %s\n", escape(orDefault(view.RequesterName, "No requester")))
	fmt.Fprintf(&b, "🏢 <b>Site:</b> %s\n", escape(orDefault(view.SiteName, "No site")))
	fmt.Fprintf(&b, "📁 <b>Department:</b> %s\n\n", escape(orDefault(view.DepartmentName, "No department")))
	fmt.Fprintf(&b, "📂 <b>Category:</b> %s\n\n", escape(category))
	fmt.Fprintf(&b, "📝 <b>Title:</b>\n%s\n\n", escape(ellipsize(orDefault(view.Title, "Untitled"), summaryTitleLength)))
	fmt.Fprintf(&b, "📄 <b>Description:</b>\n%s\n\n", escape(ellipsize(orDefault(view.Description, "No description"), summaryDescriptionLength)))
	fmt.Fprintf(&b, "%s <b>Priority:</b> %s\n", priorityIcon, view.Priority.Label())
	fmt.Fprintf(&b, "%s <b>Status:</b> %s\n\n", statusIcon, view.Status.Label())
	fmt.Fprintf(&b, "👷 <b>Technician:</b> %s\n\n", escape(orDefault(view.TechnicianName, "Unassigned")))
	fmt.Fprintf(&b, "⏰ <b>Created:</b> %s\n\n", view.CreatedAt.In(loc).Format("02/01/2006 15:04"))
	b.WriteString(summarySeparator)
	return b.String()
}

// ellipsize keeps the first max characters of s and marks a cut with "...".
func ellipsize(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return domain.Truncate(s, max) + "..."
}

func escape(s string) string {
	return plainText.Sanitize(s)
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
