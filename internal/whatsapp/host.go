package whatsapp

import (
	"context"
	"fmt"
	"strings"

	"wedding-rsvp/internal/models"
)

// Sender sends a text message to a phone number
type Sender interface {
	SendMessage(ctx context.Context, phoneNumber, message string) error
}

// HostNotifier tells the couple about each attending guest
type HostNotifier struct {
	sender Sender
	phone  string
}

func NewHostNotifier(sender Sender, phone string) *HostNotifier {
	return &HostNotifier{sender: sender, phone: NormalizePhoneNumber(phone)}
}

func (n *HostNotifier) Send(ctx context.Context, c models.Confirmation) error {
	return n.sender.SendMessage(ctx, n.phone, HostMessage(c))
}

// HostMessage formats the alert text for one RSVP
func HostMessage(c models.Confirmation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎉 *New RSVP*\n\n")
	fmt.Fprintf(&b, "%s is coming", c.GuestName)
	if c.NumberAttending != "" {
		fmt.Fprintf(&b, " (%s guests)", c.NumberAttending)
	}
	fmt.Fprintf(&b, "\n📅 Arrival: %s\n", c.ArrivalDate)
	fmt.Fprintf(&b, "🎊 Events: %s\n", c.EventsAttending)
	fmt.Fprintf(&b, "✉️ %s", c.GuestEmail)
	if c.Message != "" && c.Message != models.NoMessage {
		fmt.Fprintf(&b, "\n\n💌 %s", c.Message)
	}
	return b.String()
}
