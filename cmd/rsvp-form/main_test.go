package main

import (
	"bufio"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"wedding-rsvp/internal/form"
	"wedding-rsvp/internal/models"
)

func runPrompt(t *testing.T, f *form.Form, input string) bool {
	t.Helper()
	done := make(chan bool, 1)
	go func() {
		done <- prompt(f, bufio.NewScanner(strings.NewReader(input)), models.DefaultEvents)
	}()
	select {
	case ok := <-done:
		return ok
	case <-time.After(3 * time.Second):
		t.Fatal("prompt did not return")
		return false
	}
}

func TestPromptAttending(t *testing.T) {
	f := form.New(nil, models.DefaultEvents, zerolog.Nop())

	if !runPrompt(t, f, "Ann\ny\n2\n2024-06-15\n1,Reception\nann@example.com\nhi\n") {
		t.Fatal("prompt reported end of input")
	}

	want := form.Fields{
		FullName:        "Ann",
		Attendance:      "Yes",
		NumberAttending: "2",
		ArrivalDate:     "2024-06-15",
		Events:          []string{"Haldi Function", "Reception"},
		Email:           "ann@example.com",
		Message:         "hi",
	}
	if got := f.Fields(); !reflect.DeepEqual(got, want) {
		t.Fatalf("fields = %+v, want %+v", got, want)
	}
	if _, err := form.BuildRecord(f.Fields(), models.DefaultEvents); err != nil {
		t.Fatalf("BuildRecord: %v", err)
	}
}

func TestPromptDeclined(t *testing.T) {
	f := form.New(nil, models.DefaultEvents, zerolog.Nop())

	if !runPrompt(t, f, "Bob\nno\nbob@example.com\n\n") {
		t.Fatal("prompt reported end of input")
	}

	got := f.Fields()
	if got.Attendance != "No" || got.NumberAttending != "0" || got.ArrivalDate != "" || len(got.Events) != 0 {
		t.Fatalf("unexpected fields: %+v", got)
	}
	if f.Sections().NumberAttending {
		t.Fatal("attending sections still shown")
	}
}

func TestPromptEndOfInput(t *testing.T) {
	f := form.New(nil, models.DefaultEvents, zerolog.Nop())

	if runPrompt(t, f, "Ann\nYes\n") {
		t.Fatal("prompt should stop when input ends")
	}
}

func TestPickEvents(t *testing.T) {
	got := pickEvents("2, Ceremony, 9", models.DefaultEvents)
	want := []string{"Mehndi", "Ceremony", "9"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("pickEvents = %v, want %v", got, want)
	}
}

func TestNormalizeAnswer(t *testing.T) {
	tests := map[string]string{
		"y":     "Yes",
		" YES ": "Yes",
		"n":     "No",
		"No":    "No",
		"maybe": "maybe",
	}
	for in, want := range tests {
		if got := normalizeAnswer(in); got != want {
			t.Errorf("normalizeAnswer(%q) = %q, want %q", in, got, want)
		}
	}
}
