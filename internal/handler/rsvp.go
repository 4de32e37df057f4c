package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/notifier"
	"wedding-rsvp/internal/storage"
)

// ResultKind classifies what happened to a submission
type ResultKind int

const (
	Saved ResultKind = iota
	Rejected
	StoreError
)

// Result is the endpoint's answer to one submission. It is also the JSON
// body sent back to the form.
type Result struct {
	Kind    ResultKind `json:"-"`
	Err     error      `json:"-"`
	Success bool       `json:"success"`
	Message string     `json:"message,omitempty"`
	Error   string     `json:"error,omitempty"`
}

// StatusCode maps the result onto an HTTP status
func (r Result) StatusCode() int {
	switch r.Kind {
	case Saved:
		return http.StatusOK
	case Rejected:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// StatusResponse is the liveness payload
type StatusResponse struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type RSVPHandler struct {
	store storage.Store
	// host is told about attending guests; may be nil
	host notifier.Notifier
	log  zerolog.Logger
	now  func() time.Time
	wg   sync.WaitGroup
}

// NewRSVPHandler creates a new RSVP handler
func NewRSVPHandler(store storage.Store, host notifier.Notifier, log zerolog.Logger) *RSVPHandler {
	return &RSVPHandler{
		store: store,
		host:  host,
		log:   log,
		now:   time.Now,
	}
}

// Register mounts the endpoint on e
func (h *RSVPHandler) Register(e *echo.Echo) {
	for _, path := range []string{"/", "/rsvp"} {
		e.POST(path, h.HandleSubmit)
		e.GET(path, h.HandleStatus)
	}
}

// Submit validates sub independently of the form and appends it to the
// sheet. The header row is written on first use.
func (h *RSVPHandler) Submit(ctx context.Context, sub models.Submission) Result {
	id := uuid.NewString()
	log := h.log.With().Str("submission_id", id).Logger()

	if err := validate(sub); err != nil {
		log.Warn().Err(err).Msg("Rejected RSVP")
		msg := "Missing required fields"
		if errors.Is(err, models.ErrInvalidEmailFormat) {
			msg = "Invalid email format"
		} else if errors.Is(err, models.ErrInvalidAttendance) {
			msg = "Attendance must be Yes or No"
		}
		return Result{Kind: Rejected, Err: err, Error: msg}
	}

	ts := h.now()
	if err := h.save(ctx, sub.Row(ts)); err != nil {
		log.Error().Err(err).Msg("Error saving to sheet")
		return Result{
			Kind:  StoreError,
			Err:   fmt.Errorf("%w: %v", models.ErrStore, err),
			Error: "Failed to save data: " + err.Error(),
		}
	}

	log.Info().
		Str("name", sub.FullName).
		Str("attendance", sub.Attendance).
		Str("email", sub.Email).
		Time("timestamp", ts).
		Msg("RSVP saved")

	if models.Attendance(strings.TrimSpace(sub.Attendance)) == models.AttendanceYes {
		h.alertHost(sub)
	}

	return Result{Kind: Saved, Success: true, Message: "RSVP saved successfully"}
}

func (h *RSVPHandler) save(ctx context.Context, row []string) error {
	if err := h.store.EnsureHeader(ctx, models.SheetHeader); err != nil {
		return err
	}
	return h.store.AppendRow(ctx, row)
}

func validate(sub models.Submission) error {
	if strings.TrimSpace(sub.FullName) == "" {
		return models.Invalid("fullName", models.ErrMissingField)
	}
	if strings.TrimSpace(sub.Attendance) == "" {
		return models.Invalid("attendance", models.ErrMissingField)
	}
	if strings.TrimSpace(sub.Email) == "" {
		return models.Invalid("email", models.ErrMissingField)
	}
	switch models.Attendance(strings.TrimSpace(sub.Attendance)) {
	case models.AttendanceYes, models.AttendanceNo:
	default:
		return models.Invalid("attendance", models.ErrInvalidAttendance)
	}
	if !models.ValidEmail(strings.TrimSpace(sub.Email)) {
		return models.Invalid("email", models.ErrInvalidEmailFormat)
	}
	return nil
}

func (h *RSVPHandler) alertHost(sub models.Submission) {
	if h.host == nil {
		return
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := h.host.Send(ctx, models.NewConfirmation(sub)); err != nil {
			h.log.Error().Err(err).Str("name", sub.FullName).Msg("Failed to alert host")
		}
	}()
}

// Wait blocks until pending host alerts finish
func (h *RSVPHandler) Wait() {
	h.wg.Wait()
}

// HandleSubmit handles POST with either URL-encoded or JSON bodies
func (h *RSVPHandler) HandleSubmit(c echo.Context) error {
	var sub models.Submission
	if err := c.Bind(&sub); err != nil {
		h.log.Warn().Err(err).Msg("Failed to bind RSVP payload")
		return c.JSON(http.StatusBadRequest, Result{Error: "Invalid request body"})
	}

	result := h.Submit(c.Request().Context(), sub)
	return c.JSON(result.StatusCode(), result)
}

// HandleStatus answers manual health checks
func (h *RSVPHandler) HandleStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, StatusResponse{
		Message:   "Wedding RSVP API is running!",
		Timestamp: h.now().UTC().Format(time.RFC3339),
	})
}
