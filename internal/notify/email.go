// Package notify sends customer-facing booking notifications.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/walid-afk/salon-scheduler/pkg/logging"
)

// EmailSender sends one email. Implementations can be swapped without
// changing callers.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage is an email to be sent.
type EmailMessage struct {
	To      string
	ToName  string
	Subject string
	Body    string
}

// SendGridSender sends emails via the SendGrid API.
type SendGridSender struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	logger    *logging.Logger
}

// SendGridConfig holds SendGrid settings.
type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// NewSendGridSender creates a SendGrid email sender, or nil when no API
// key is configured (callers treat a nil sender as "email disabled").
func NewSendGridSender(cfg SendGridConfig, logger *logging.Logger) *SendGridSender {
	if cfg.APIKey == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = "Salon Booking"
	}
	return &SendGridSender{
		client:    sendgrid.NewSendClient(cfg.APIKey),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		logger:    logger,
	}
}

// Send sends an email via SendGrid.
func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("notify: sendgrid client not configured")
	}

	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(msg.ToName, msg.To)
	message := mail.NewSingleEmail(from, msg.Subject, to, msg.Body, msg.Body)

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		s.logger.Error("sendgrid send failed", "error", err, "to", msg.To)
		return fmt.Errorf("notify: sendgrid send failed: %w", err)
	}
	if response.StatusCode >= 400 {
		s.logger.Error("sendgrid returned error status", "status", response.StatusCode, "to", msg.To)
		return fmt.Errorf("notify: sendgrid returned status %d", response.StatusCode)
	}

	s.logger.Info("confirmation email sent", "to", msg.To, "subject", msg.Subject)
	return nil
}

// BookingConfirmation composes the confirmation email for a booked
// appointment. Times are rendered in the salon's timezone.
func BookingConfirmation(customerName, customerEmail, salonName string, start, end time.Time, loc *time.Location, services []string) EmailMessage {
	local := start.In(loc)

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", customerName)
	fmt.Fprintf(&b, "Your appointment at %s is confirmed:\n\n", salonName)
	fmt.Fprintf(&b, "  Date: %s\n", local.Format("Monday, January 2 2006"))
	fmt.Fprintf(&b, "  Time: %s - %s\n", local.Format("15:04"), end.In(loc).Format("15:04"))
	if len(services) > 0 {
		fmt.Fprintf(&b, "  Services: %s\n", strings.Join(services, ", "))
	}
	b.WriteString("\nSee you soon!\n")

	return EmailMessage{
		To:      customerEmail,
		ToName:  customerName,
		Subject: fmt.Sprintf("Appointment confirmed - %s", local.Format("Jan 2, 15:04")),
		Body:    b.String(),
	}
}
