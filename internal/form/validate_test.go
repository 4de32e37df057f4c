package form

import (
	"errors"
	"reflect"
	"testing"

	"wedding-rsvp/internal/models"
)

var catalog = []string{"Haldi Function", "Ceremony", "Reception"}

func attending() Fields {
	return Fields{
		FullName:        "Test Guest",
		Attendance:      "Yes",
		NumberAttending: "2",
		ArrivalDate:     "2024-06-15",
		Events:          []string{"Ceremony", "Reception"},
		Email:           "test@example.com",
		Message:         "Can't wait",
	}
}

func TestBuildRecordAttending(t *testing.T) {
	rec, err := BuildRecord(attending(), catalog)
	if err != nil {
		t.Fatalf("BuildRecord: %v", err)
	}
	if rec.NumberAttending != 2 || rec.ArrivalDateString() != "2024-06-15" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if !reflect.DeepEqual(rec.Events, []string{"Ceremony", "Reception"}) {
		t.Fatalf("events = %v", rec.Events)
	}
}

func TestBuildRecordDeclinedClearsConditionalFields(t *testing.T) {
	inputs := []Fields{
		{FullName: "A", Attendance: "No", Email: "a@b.co"},
		{FullName: "A", Attendance: "No", Email: "a@b.co", NumberAttending: "5", ArrivalDate: "2024-06-15", Events: []string{"Reception"}},
		{FullName: "A", Attendance: "No", Email: "a@b.co", NumberAttending: "garbage", ArrivalDate: "not a date", Events: []string{"Unknown"}},
	}

	for _, in := range inputs {
		rec, err := BuildRecord(in, catalog)
		if err != nil {
			t.Fatalf("BuildRecord(%+v): %v", in, err)
		}
		if rec.NumberAttending != 0 || !rec.ArrivalDate.IsZero() || len(rec.Events) != 0 {
			t.Fatalf("declined record kept conditional data: %+v", rec)
		}
	}
}

func TestBuildRecordErrors(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*Fields)
		want  error
		field string
	}{
		{"missing name", func(f *Fields) { f.FullName = "  " }, models.ErrMissingField, "fullName"},
		{"missing attendance", func(f *Fields) { f.Attendance = "" }, models.ErrMissingField, "attendance"},
		{"missing email", func(f *Fields) { f.Email = "" }, models.ErrMissingField, "email"},
		{"bad attendance", func(f *Fields) { f.Attendance = "Maybe" }, models.ErrInvalidAttendance, "attendance"},
		{"missing count", func(f *Fields) { f.NumberAttending = "" }, models.ErrMissingAttendeeCount, "numberAttending"},
		{"zero count", func(f *Fields) { f.NumberAttending = "0" }, models.ErrInvalidAttendeeCount, "numberAttending"},
		{"missing date", func(f *Fields) { f.ArrivalDate = "" }, models.ErrMissingArrivalDate, "arrivalDate"},
		{"bad date", func(f *Fields) { f.ArrivalDate = "15/06/2024" }, models.ErrInvalidArrivalDate, "arrivalDate"},
		{"no events", func(f *Fields) { f.Events = nil }, models.ErrMissingEvents, "events"},
		{"blank events", func(f *Fields) { f.Events = []string{" ", ""} }, models.ErrMissingEvents, "events"},
		{"unknown event", func(f *Fields) { f.Events = []string{"Afterparty"} }, models.ErrUnknownEvent, "events"},
		{"invalid email", func(f *Fields) { f.Email = "not-an-email" }, models.ErrInvalidEmailFormat, "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := attending()
			tt.edit(&f)

			_, err := BuildRecord(f, catalog)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			var ve *models.ValidationError
			if !errors.As(err, &ve) || ve.Field != tt.field {
				t.Fatalf("err = %v, want field %q", err, tt.field)
			}
		})
	}
}

func TestBuildRecordDeclinedStillRequiresEmail(t *testing.T) {
	_, err := BuildRecord(Fields{FullName: "A", Attendance: "No", Email: "nope"}, catalog)
	if !errors.Is(err, models.ErrInvalidEmailFormat) {
		t.Fatalf("err = %v, want invalid email", err)
	}
}

func TestBuildRecordEmailShapes(t *testing.T) {
	for email, want := range map[string]error{
		"a@b.co":       nil,
		"not-an-email": models.ErrInvalidEmailFormat,
	} {
		f := attending()
		f.Email = email
		if _, err := BuildRecord(f, catalog); !errors.Is(err, want) {
			t.Errorf("email %q: err = %v, want %v", email, err, want)
		}
	}
}

func TestBuildRecordDropsRepeatedEvents(t *testing.T) {
	f := attending()
	f.Events = []string{"Reception", " Reception", "Ceremony"}

	rec, err := BuildRecord(f, nil)
	if err != nil {
		t.Fatalf("BuildRecord: %v", err)
	}
	if !reflect.DeepEqual(rec.Events, []string{"Reception", "Ceremony"}) {
		t.Fatalf("events = %v", rec.Events)
	}
}
