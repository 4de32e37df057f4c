package models

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Attendance is the guest's yes/no answer
type Attendance string

const (
	AttendanceYes Attendance = "Yes"
	AttendanceNo  Attendance = "No"
)

// DateLayout is the wire format of the arrival date
const DateLayout = "2006-01-02"

// DefaultEvents is the event list offered when none is configured
var DefaultEvents = []string{"Haldi Function", "Mehndi", "Ceremony", "Reception"}

// SheetHeader names the columns of the RSVP sheet, in order
var SheetHeader = []string{
	"Timestamp",
	"Name",
	"Attendance",
	"Number Attending",
	"Arrival Date",
	"Events Attending",
	"Email",
	"Message",
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether s has the local@domain.tld shape
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// Record is one guest's validated RSVP
type Record struct {
	FullName        string
	Attendance      Attendance
	NumberAttending int
	ArrivalDate     time.Time
	Events          []string
	Email           string
	Message         string
}

// Attending reports whether the guest said yes
func (r Record) Attending() bool {
	return r.Attendance == AttendanceYes
}

// ArrivalDateString returns the arrival date in wire format, or "" when unset
func (r Record) ArrivalDateString() string {
	if r.ArrivalDate.IsZero() {
		return ""
	}
	return r.ArrivalDate.Format(DateLayout)
}

// Submission flattens the record into its wire payload
func (r Record) Submission() Submission {
	return Submission{
		FullName:        r.FullName,
		Attendance:      string(r.Attendance),
		NumberAttending: strconv.Itoa(r.NumberAttending),
		ArrivalDate:     r.ArrivalDateString(),
		Events:          JoinEvents(r.Events),
		Email:           r.Email,
		Message:         r.Message,
	}
}

// Submission is the flat key/value payload exchanged between the form and
// the endpoint. All fields are strings; Events is comma-joined.
type Submission struct {
	FullName        string `json:"fullName" form:"fullName"`
	Attendance      string `json:"attendance" form:"attendance"`
	NumberAttending string `json:"numberAttending" form:"numberAttending"`
	ArrivalDate     string `json:"arrivalDate" form:"arrivalDate"`
	Events          string `json:"events" form:"events"`
	Email           string `json:"email" form:"email"`
	Message         string `json:"message" form:"message"`
}

// Values encodes the submission as URL-encoded form data
func (s Submission) Values() url.Values {
	v := url.Values{}
	v.Set("fullName", s.FullName)
	v.Set("attendance", s.Attendance)
	v.Set("numberAttending", s.NumberAttending)
	v.Set("arrivalDate", s.ArrivalDate)
	v.Set("events", s.Events)
	v.Set("email", s.Email)
	v.Set("message", s.Message)
	return v
}

// Row lays the submission out in SheetHeader order. Declined guests get
// their conditional columns cleared; a missing count becomes "0".
func (s Submission) Row(ts time.Time) []string {
	count := strings.TrimSpace(s.NumberAttending)
	arrival := strings.TrimSpace(s.ArrivalDate)
	events := JoinEvents(SplitEvents(s.Events))

	if Attendance(strings.TrimSpace(s.Attendance)) == AttendanceNo {
		count, arrival, events = "", "", ""
	}
	if count == "" {
		count = "0"
	}

	return []string{
		ts.Format(time.RFC3339),
		strings.TrimSpace(s.FullName),
		strings.TrimSpace(s.Attendance),
		count,
		arrival,
		events,
		strings.TrimSpace(s.Email),
		s.Message,
	}
}

// JoinEvents renders an event set as a single comma-joined column
func JoinEvents(events []string) string {
	return strings.Join(events, ", ")
}

// SplitEvents parses a comma-joined event list, dropping blanks
func SplitEvents(s string) []string {
	var events []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			events = append(events, part)
		}
	}
	return events
}

// Confirmation carries the parameters of a confirmation message
type Confirmation struct {
	GuestName       string `json:"guest_name"`
	GuestEmail      string `json:"guest_email"`
	Attendance      string `json:"attendance"`
	NumberAttending string `json:"number_attending"`
	ArrivalDate     string `json:"arrival_date"`
	EventsAttending string `json:"events_attending"`
	Message         string `json:"message"`
}

// NoMessage stands in for an empty guest message
const NoMessage = "No message provided"

// NewConfirmation builds confirmation parameters from a submission,
// filling placeholders for the optional fields
func NewConfirmation(s Submission) Confirmation {
	c := Confirmation{
		GuestName:       s.FullName,
		GuestEmail:      s.Email,
		Attendance:      s.Attendance,
		NumberAttending: s.NumberAttending,
		ArrivalDate:     s.ArrivalDate,
		EventsAttending: s.Events,
		Message:         s.Message,
	}
	if c.ArrivalDate == "" {
		c.ArrivalDate = "Not specified"
	}
	if c.EventsAttending == "" {
		c.EventsAttending = "None selected"
	}
	if c.Message == "" {
		c.Message = NoMessage
	}
	return c
}
