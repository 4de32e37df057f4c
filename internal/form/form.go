package form

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"wedding-rsvp/internal/dispatcher"
	"wedding-rsvp/internal/models"
)

// ErrSubmissionInProgress is returned while a previous submission is still
// being dispatched
var ErrSubmissionInProgress = errors.New("a submission is already in progress")

// State is the submission state of the form
type State int

const (
	StateIdle State = iota
	StateValidating
	StateDispatching
	StateSuccess
	StateError
)

func (s State) String() string {
	switch s {
	case StateValidating:
		return "validating"
	case StateDispatching:
		return "dispatching"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	default:
		return "idle"
	}
}

// Sections tracks which conditional parts of the form are shown
type Sections struct {
	NumberAttending bool
	ArrivalDate     bool
	Events          bool
}

func attendingSections() Sections {
	return Sections{NumberAttending: true, ArrivalDate: true, Events: true}
}

// Submitter delivers a validated record
type Submitter interface {
	Dispatch(ctx context.Context, rec models.Record) dispatcher.Outcome
}

// Form holds the guest's inputs and drives a submission through
// validation and dispatch
type Form struct {
	mu        sync.Mutex
	state     State
	fields    Fields
	sections  Sections
	submitter Submitter
	catalog   []string
	log       zerolog.Logger
}

// New creates an empty form with the attending sections shown
func New(submitter Submitter, catalog []string, log zerolog.Logger) *Form {
	return &Form{
		sections:  attendingSections(),
		submitter: submitter,
		catalog:   catalog,
		log:       log,
	}
}

// SetAttendance records the yes/no answer and toggles the conditional
// sections. Declining hides them and clears what they held.
func (f *Form) SetAttendance(value string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.fields.Attendance = value
	if models.Attendance(value) == models.AttendanceNo {
		f.sections = Sections{}
		f.fields.NumberAttending = "0"
		f.fields.ArrivalDate = ""
		f.fields.Events = nil
		return
	}
	f.sections = attendingSections()
	f.fields.NumberAttending = ""
	f.fields.ArrivalDate = ""
}

// Update edits the fields in place. Attendance changes should go through
// SetAttendance so the sections follow.
func (f *Form) Update(edit func(*Fields)) {
	f.mu.Lock()
	defer f.mu.Unlock()

	edit(&f.fields)
}

// Fields returns a copy of the current inputs
func (f *Form) Fields() Fields {
	f.mu.Lock()
	defer f.mu.Unlock()

	fields := f.fields
	fields.Events = append([]string(nil), f.fields.Events...)
	return fields
}

func (f *Form) Sections() Sections {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sections
}

func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Submitting reports whether the submit action is currently disabled
func (f *Form) Submitting() bool {
	return f.State() == StateDispatching
}

// Submit validates the inputs and dispatches them. A validation error
// returns the form to idle without any network call. After dispatch the
// form is cleared on success and left populated on failure.
func (f *Form) Submit(ctx context.Context) (dispatcher.Outcome, error) {
	f.mu.Lock()
	if f.state == StateDispatching || f.state == StateValidating {
		f.mu.Unlock()
		return dispatcher.Outcome{}, ErrSubmissionInProgress
	}

	f.state = StateValidating
	rec, err := BuildRecord(f.fields, f.catalog)
	if err != nil {
		f.state = StateIdle
		f.mu.Unlock()
		f.log.Debug().Err(err).Msg("RSVP failed validation")
		return dispatcher.Outcome{}, err
	}

	f.state = StateDispatching
	f.mu.Unlock()

	outcome := f.submitter.Dispatch(ctx, rec)

	f.mu.Lock()
	defer f.mu.Unlock()

	if outcome.Succeeded() {
		f.state = StateSuccess
		f.fields = Fields{}
		f.sections = attendingSections()
	} else {
		f.state = StateError
	}
	return outcome, nil
}
