package email

import (
	"fmt"
	"html"

	"gopkg.in/gomail.v2"

	"github.com/sigetic/helpdesk/internal/config"
)

// Sender delivers composed messages. *gomail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// AssignmentNotice describes a ticket handed to a technician.
type AssignmentNotice struct {
	TicketID       int64
	Title          string
	Priority       string
	SiteName       string
	RequesterName  string
	TechnicianName string
}

// Mailer sends helpdesk e-mails over SMTP.
type Mailer struct {
	from   string
	sender Sender
}

// NewMailer builds a mailer for the configured SMTP server.
func NewMailer(cfg config.SMTPConfig) *Mailer {
	return NewMailerWithSender(cfg.From, gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password))
}

// NewMailerWithSender builds a mailer on top of an arbitrary sender.
func NewMailerWithSender(from string, sender Sender) *Mailer {
	return &Mailer{from: from, sender: sender}
}

// SendAssignment tells a technician a ticket was assigned to them.
func (m *Mailer) SendAssignment(to string, notice AssignmentNotice) error {
	msg := m.assignmentMessage(to, notice)
	if err := m.sender.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (m *Mailer) assignmentMessage(to string, n AssignmentNotice) *gomail.Message {
	subject := fmt.Sprintf("Ticket #%d assigned to you", n.TicketID)

	plainBody := fmt.Sprintf(`Hello %s,

Ticket #%d has been assigned to you.

Title: %s
Priority: %s
Site: %s
Requested by: %s
`, n.TechnicianName, n.TicketID, n.Title, n.Priority, n.SiteName, n.RequesterName)

	htmlBody := fmt.Sprintf(`
		<html>
		<body>
			<p>Hello %s,</p>
			<p>Ticket <b>#%d</b> has been assigned to you.</p>
			<ul>
				<li>Title: %s</li>
				<li>Priority: %s</li>
				<li>Site: %s</li>
				<li>Requested by: %s</li>
			</ul>
		</body>
		</html>
	`, html.EscapeString(n.TechnicianName), n.TicketID, html.EscapeString(n.Title),
		html.EscapeString(n.Priority), html.EscapeString(n.SiteName), html.EscapeString(n.RequesterName))

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", plainBody)
	msg.AddAlternative("text/html", htmlBody)
	return msg
}
