package notifier

import (
	"bytes"
	"fmt"
	"text/template"

	"wedding-rsvp/internal/models"
)

// Wedding describes the event a confirmation refers to
type Wedding struct {
	BrideName string
	GroomName string
	Date      string
	Location  string
}

var bodyTemplate = template.Must(template.New("confirmation").Parse(`Dear {{.C.GuestName}},

Thank you for your RSVP! We're thrilled that you'll be joining us for our special day.

RSVP Details:
- Name: {{.C.GuestName}}
- Attending: {{.C.Attendance}}
- Number of guests: {{.C.NumberAttending}}
- Arrival date: {{.C.ArrivalDate}}
- Events attending: {{.C.EventsAttending}}
- Email: {{.C.GuestEmail}}
- Message: {{.C.Message}}
{{if .W.Date}}
Date: {{.W.Date}}{{end}}{{if .W.Location}}
Location: {{.W.Location}}{{end}}

We can't wait to celebrate with you!

With love,
{{.W.BrideName}} & {{.W.GroomName}}
`))

// Render returns the subject and plain-text body of a confirmation email
func Render(c models.Confirmation, w Wedding) (string, string, error) {
	var buf bytes.Buffer
	if err := bodyTemplate.Execute(&buf, struct {
		C models.Confirmation
		W Wedding
	}{c, w}); err != nil {
		return "", "", fmt.Errorf("failed to render confirmation: %w", err)
	}

	subject := fmt.Sprintf("RSVP Confirmation - %s & %s Wedding", w.BrideName, w.GroomName)
	return subject, buf.String(), nil
}
