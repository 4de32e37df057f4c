package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"wedding-rsvp/internal/config"
	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/notifier"
)

// Kind classifies the result of a dispatch
type Kind int

const (
	Failed Kind = iota
	Confirmed
	// AssumedConfirmed means the endpoint could not be shown to have saved
	// the record, but the request plausibly reached it.
	AssumedConfirmed
)

func (k Kind) String() string {
	switch k {
	case Confirmed:
		return "confirmed"
	case AssumedConfirmed:
		return "assumed-confirmed"
	default:
		return "failed"
	}
}

// Outcome is the dispatcher's verdict on one submission
type Outcome struct {
	Kind Kind
	// Reason explains Failed and AssumedConfirmed outcomes
	Reason string
	Err    error
}

// Succeeded reports whether the guest should see the success state
func (o Outcome) Succeeded() bool {
	return o.Kind == Confirmed || o.Kind == AssumedConfirmed
}

// Config controls where and how long a dispatch runs. Zero values fall back
// to defaults in New.
type Config struct {
	EndpointURL   string
	Timeout       time.Duration
	Policy        config.AmbiguityPolicy
	NotifyTimeout time.Duration
}

// Dispatcher sends records to the append endpoint
type Dispatcher struct {
	client   *http.Client
	cfg      Config
	notifier notifier.Notifier
	log      zerolog.Logger
	wg       sync.WaitGroup
}

// New creates a dispatcher. n may be nil, in which case no confirmation
// is sent.
func New(cfg Config, n notifier.Notifier, log zerolog.Logger) *Dispatcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = 30 * time.Second
	}
	if cfg.Policy == "" {
		cfg.Policy = config.AssumeConfirmed
	}
	return &Dispatcher{
		client:   &http.Client{},
		cfg:      cfg,
		notifier: n,
		log:      log,
	}
}

// endpointResponse mirrors the endpoint's JSON body
type endpointResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Dispatch posts rec once and interprets the reply. A confirmation is
// scheduled for attending guests once the outcome counts as success; it runs
// detached and never changes the returned Outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, rec models.Record) Outcome {
	sub := rec.Submission()

	d.log.Debug().Str("url", d.cfg.EndpointURL).Str("attendance", sub.Attendance).Msg("Submitting RSVP")
	outcome := d.send(ctx, sub)

	evt := d.log.Info()
	if !outcome.Succeeded() {
		evt = d.log.Error().Err(outcome.Err)
	}
	evt.Str("outcome", outcome.Kind.String()).Str("reason", outcome.Reason).Msg("RSVP dispatched")

	if outcome.Succeeded() && rec.Attending() {
		d.notify(sub)
	}
	return outcome
}

// Wait blocks until all scheduled confirmations have finished
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) send(ctx context.Context, sub models.Submission) Outcome {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.cfg.EndpointURL, strings.NewReader(sub.Values().Encode()))
	if err != nil {
		return failed(fmt.Errorf("%w: %v", models.ErrTransport, err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := d.client.Do(req)
	if err != nil {
		return d.transportOutcome(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return failed(fmt.Errorf("%w: HTTP error status %d", models.ErrUnknownServer, resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return d.transportOutcome(err)
	}

	var result endpointResponse
	if err := json.Unmarshal(body, &result); err != nil {
		d.log.Warn().Str("body", truncate(string(body), 200)).Msg("Failed to parse JSON response")
		return d.ambiguous("response body is not JSON", err)
	}

	if result.Success {
		return Outcome{Kind: Confirmed, Reason: result.Message}
	}

	msg := result.Error
	if msg == "" {
		msg = "Unknown error occurred"
	}
	return failed(fmt.Errorf("%w: %s", models.ErrUnknownServer, msg))
}

// transportOutcome separates failures where the request certainly did not
// complete from network failures where it may still have reached the
// endpoint. Timeouts and cancellation always fail.
func (d *Dispatcher) transportOutcome(err error) Outcome {
	if errors.Is(err, context.DeadlineExceeded) {
		return failed(fmt.Errorf("%w: request timed out: %v", models.ErrTransport, err))
	}
	if errors.Is(err, context.Canceled) {
		return failed(fmt.Errorf("%w: request canceled: %v", models.ErrTransport, err))
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return failed(fmt.Errorf("%w: request timed out: %v", models.ErrTransport, err))
	}

	if connectionBroken(err) {
		return d.ambiguous("connection broke after the request was sent", err)
	}
	var dnsErr *net.DNSError
	var opErr *net.OpError
	if errors.As(err, &dnsErr) || errors.As(err, &opErr) {
		return d.ambiguous("network failure", err)
	}
	return failed(fmt.Errorf("%w: %v", models.ErrTransport, err))
}

var brokenSignatures = []string{
	"EOF",
	"connection reset",
	"broken pipe",
	"transport connection broken",
	"server closed",
}

func connectionBroken(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return true
	}
	msg := err.Error()
	for _, sig := range brokenSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}

func (d *Dispatcher) ambiguous(reason string, err error) Outcome {
	if d.cfg.Policy == config.TreatAsFailed {
		return failed(fmt.Errorf("%w: %s: %v", models.ErrTransport, reason, err))
	}
	d.log.Warn().Err(err).Str("reason", reason).Msg("Delivery unverified, assuming the RSVP was saved")
	return Outcome{Kind: AssumedConfirmed, Reason: reason, Err: err}
}

func (d *Dispatcher) notify(sub models.Submission) {
	if d.notifier == nil {
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), d.cfg.NotifyTimeout)
		defer cancel()

		if err := d.notifier.Send(ctx, models.NewConfirmation(sub)); err != nil {
			d.log.Error().Err(err).Str("email", sub.Email).Msg("Failed to send confirmation email")
			return
		}
		d.log.Info().Str("email", sub.Email).Msg("Confirmation email sent")
	}()
}

func failed(err error) Outcome {
	return Outcome{Kind: Failed, Reason: err.Error(), Err: err}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
