package form

import (
	"strconv"
	"strings"
	"time"

	"wedding-rsvp/internal/models"
)

// Fields is the raw state of the form inputs
type Fields struct {
	FullName        string
	Attendance      string
	NumberAttending string
	ArrivalDate     string
	Events          []string
	Email           string
	Message         string
}

// BuildRecord validates fields and returns the normalized record. For a
// declined invitation the conditional fields are dropped whatever the inputs
// still hold. catalog lists the events a guest may pick; a nil catalog
// accepts any event name.
func BuildRecord(f Fields, catalog []string) (models.Record, error) {
	rec := models.Record{
		FullName:   strings.TrimSpace(f.FullName),
		Attendance: models.Attendance(strings.TrimSpace(f.Attendance)),
		Email:      strings.TrimSpace(f.Email),
		Message:    strings.TrimSpace(f.Message),
	}

	if rec.FullName == "" {
		return models.Record{}, models.Invalid("fullName", models.ErrMissingField)
	}
	if rec.Attendance == "" {
		return models.Record{}, models.Invalid("attendance", models.ErrMissingField)
	}
	if rec.Email == "" {
		return models.Record{}, models.Invalid("email", models.ErrMissingField)
	}

	switch rec.Attendance {
	case models.AttendanceNo:
		// count 0, no date, no events
	case models.AttendanceYes:
		if err := fillAttending(&rec, f, catalog); err != nil {
			return models.Record{}, err
		}
	default:
		return models.Record{}, models.Invalid("attendance", models.ErrInvalidAttendance)
	}

	if !models.ValidEmail(rec.Email) {
		return models.Record{}, models.Invalid("email", models.ErrInvalidEmailFormat)
	}

	return rec, nil
}

func fillAttending(rec *models.Record, f Fields, catalog []string) error {
	count := strings.TrimSpace(f.NumberAttending)
	if count == "" {
		return models.Invalid("numberAttending", models.ErrMissingAttendeeCount)
	}
	n, err := strconv.Atoi(count)
	if err != nil || n <= 0 {
		return models.Invalid("numberAttending", models.ErrInvalidAttendeeCount)
	}
	rec.NumberAttending = n

	date := strings.TrimSpace(f.ArrivalDate)
	if date == "" {
		return models.Invalid("arrivalDate", models.ErrMissingArrivalDate)
	}
	arrival, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return models.Invalid("arrivalDate", models.ErrInvalidArrivalDate)
	}
	rec.ArrivalDate = arrival

	events := selectedEvents(f.Events)
	if len(events) == 0 {
		return models.Invalid("events", models.ErrMissingEvents)
	}
	if catalog != nil {
		for _, e := range events {
			if !contains(catalog, e) {
				return models.Invalid("events", models.ErrUnknownEvent)
			}
		}
	}
	rec.Events = events
	return nil
}

// selectedEvents trims names and drops blanks and repeats, keeping order
func selectedEvents(in []string) []string {
	var out []string
	for _, e := range in {
		e = strings.TrimSpace(e)
		if e != "" && !contains(out, e) {
			out = append(out, e)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
