package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/walid-afk/salon-scheduler/pkg/logging"
)

func TestNewSendGridSenderRequiresKey(t *testing.T) {
	if s := NewSendGridSender(SendGridConfig{}, logging.Default()); s != nil {
		t.Fatal("missing API key should yield a nil (disabled) sender")
	}
	if s := NewSendGridSender(SendGridConfig{APIKey: "SG.test", FromEmail: "salon@example.com"}, nil); s == nil {
		t.Fatal("expected a sender with an API key")
	}
}

func TestBookingConfirmation(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		t.Fatal(err)
	}
	// 09:00 UTC is 10:00 in Paris (CET).
	start := time.Date(2026, 2, 3, 9, 0, 0, 0, time.UTC)
	end := start.Add(45 * time.Minute)

	msg := BookingConfirmation("Lea", "lea@example.com", "Studio Walid", start, end, loc, []string{"Haircut", "Brushing"})

	if msg.To != "lea@example.com" {
		t.Fatalf("to = %q", msg.To)
	}
	if !strings.Contains(msg.Body, "10:00 - 10:45") {
		t.Fatalf("body must render salon-local times, got:\n%s", msg.Body)
	}
	if !strings.Contains(msg.Body, "Haircut, Brushing") {
		t.Fatalf("body must list services, got:\n%s", msg.Body)
	}
	if !strings.Contains(msg.Subject, "10:00") {
		t.Fatalf("subject = %q", msg.Subject)
	}
}
