package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"wedding-rsvp/internal/dispatcher"
	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/storage"
)

func newStore(t *testing.T) storage.Store {
	t.Helper()
	s, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "rsvp.db"), "RSVP Responses")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

type failingStore struct{}

func (failingStore) EnsureHeader(ctx context.Context, header []string) error {
	return errors.New("permission denied")
}
func (failingStore) AppendRow(ctx context.Context, row []string) error { return nil }
func (failingStore) Rows(ctx context.Context) ([][]string, error)     { return nil, nil }
func (failingStore) Close() error                                     { return nil }

func post(t *testing.T, e *echo.Echo, form url.Values) (*httptest.ResponseRecorder, Result) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/rsvp", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	req.Header.Set(echo.HeaderOrigin, "https://wedding.example.com")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var res Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("response is not JSON: %q", rec.Body.String())
	}
	return rec, res
}

func validForm() url.Values {
	return models.Submission{
		FullName:        "Test Guest",
		Attendance:      "Yes",
		NumberAttending: "2",
		ArrivalDate:     "2024-06-15",
		Events:          "Ceremony, Reception",
		Email:           "test@example.com",
		Message:         "This is a test submission",
	}.Values()
}

func TestRoundTripFromDispatcher(t *testing.T) {
	store := newStore(t)
	h := NewRSVPHandler(store, nil, zerolog.Nop())
	srv := httptest.NewServer(NewServer(h, zerolog.Nop()))
	defer srv.Close()

	d := dispatcher.New(dispatcher.Config{EndpointURL: srv.URL + "/rsvp"}, nil, zerolog.Nop())
	rec := models.Record{
		FullName:        "Test Guest",
		Attendance:      models.AttendanceYes,
		NumberAttending: 2,
		ArrivalDate:     time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
		Events:          []string{"Ceremony", "Reception"},
		Email:           "test@example.com",
	}

	if out := d.Dispatch(context.Background(), rec); out.Kind != dispatcher.Confirmed {
		t.Fatalf("outcome = %s (%s), want confirmed", out.Kind, out.Reason)
	}

	rows, err := store.Rows(context.Background())
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want header + 1", len(rows))
	}
	if !reflect.DeepEqual(rows[0], models.SheetHeader) {
		t.Fatalf("header = %q", rows[0])
	}

	row := rows[1]
	if row[0] == "" {
		t.Fatal("timestamp column is empty")
	}
	if _, err := time.Parse(time.RFC3339, row[0]); err != nil {
		t.Fatalf("timestamp %q: %v", row[0], err)
	}
	want := []string{"Test Guest", "Yes", "2", "2024-06-15", "Ceremony, Reception", "test@example.com", ""}
	if !reflect.DeepEqual(row[1:], want) {
		t.Fatalf("row = %q, want %q", row[1:], want)
	}
}

func TestSubmitWritesHeaderOnce(t *testing.T) {
	store := newStore(t)
	e := NewServer(NewRSVPHandler(store, nil, zerolog.Nop()), zerolog.Nop())

	for i := 0; i < 3; i++ {
		if rec, res := post(t, e, validForm()); rec.Code != http.StatusOK || !res.Success {
			t.Fatalf("submission %d: %d %+v", i, rec.Code, res)
		}
	}

	rows, err := store.Rows(context.Background())
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want header + 3", len(rows))
	}
	for _, row := range rows[1:] {
		if row[1] == "Name" {
			t.Fatal("header duplicated")
		}
	}
}

func TestSubmitSuccessBody(t *testing.T) {
	e := NewServer(NewRSVPHandler(newStore(t), nil, zerolog.Nop()), zerolog.Nop())

	rec, res := post(t, e, validForm())
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !res.Success || res.Message != "RSVP saved successfully" || res.Error != "" {
		t.Fatalf("unexpected body: %+v", res)
	}
	if got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); got != "*" {
		t.Fatalf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

func TestSubmitValidation(t *testing.T) {
	tests := []struct {
		name  string
		field string
		value string
		want  string
	}{
		{"missing name", "fullName", "", "Missing required fields"},
		{"missing attendance", "attendance", "", "Missing required fields"},
		{"missing email", "email", "", "Missing required fields"},
		{"invalid email", "email", "not-an-email", "Invalid email format"},
		{"invalid attendance", "attendance", "Maybe", "Attendance must be Yes or No"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore(t)
			e := NewServer(NewRSVPHandler(store, nil, zerolog.Nop()), zerolog.Nop())

			form := validForm()
			form.Set(tt.field, tt.value)
			rec, res := post(t, e, form)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if res.Success || res.Error != tt.want {
				t.Fatalf("body = %+v, want error %q", res, tt.want)
			}
			if rows, _ := store.Rows(context.Background()); len(rows) != 0 {
				t.Fatalf("rejected submission touched the store: %q", rows)
			}
		})
	}
}

func TestSubmitStoreError(t *testing.T) {
	e := NewServer(NewRSVPHandler(failingStore{}, nil, zerolog.Nop()), zerolog.Nop())

	rec, res := post(t, e, validForm())
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if res.Success || !strings.HasPrefix(res.Error, "Failed to save data: ") || !strings.Contains(res.Error, "permission denied") {
		t.Fatalf("unexpected body: %+v", res)
	}
}

func TestSubmitStoreErrorKind(t *testing.T) {
	h := NewRSVPHandler(failingStore{}, nil, zerolog.Nop())

	res := h.Submit(context.Background(), models.Submission{FullName: "A", Attendance: "No", Email: "a@b.co"})
	if res.Kind != StoreError || !errors.Is(res.Err, models.ErrStore) {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestSubmitJSONBody(t *testing.T) {
	store := newStore(t)
	e := NewServer(NewRSVPHandler(store, nil, zerolog.Nop()), zerolog.Nop())

	body := `{"fullName":"Json Guest","attendance":"No","numberAttending":"3","email":"json@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	rows, err := store.Rows(context.Background())
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	want := []string{"Json Guest", "No", "0", "", "", "json@example.com", ""}
	if !reflect.DeepEqual(rows[1][1:], want) {
		t.Fatalf("row = %q, want %q", rows[1][1:], want)
	}
}

func TestHandleStatus(t *testing.T) {
	e := NewServer(NewRSVPHandler(newStore(t), nil, zerolog.Nop()), zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/rsvp", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var res StatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Message != "Wedding RSVP API is running!" {
		t.Fatalf("message = %q", res.Message)
	}
	if _, err := time.Parse(time.RFC3339, res.Timestamp); err != nil {
		t.Fatalf("timestamp %q: %v", res.Timestamp, err)
	}
}

func TestCORSPreflight(t *testing.T) {
	e := NewServer(NewRSVPHandler(newStore(t), nil, zerolog.Nop()), zerolog.Nop())

	req := httptest.NewRequest(http.MethodOptions, "/rsvp", nil)
	req.Header.Set(echo.HeaderOrigin, "https://wedding.example.com")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); got != "*" {
		t.Fatalf("Access-Control-Allow-Origin = %q", got)
	}
	if got := rec.Header().Get(echo.HeaderAccessControlAllowMethods); !strings.Contains(got, http.MethodPost) {
		t.Fatalf("Access-Control-Allow-Methods = %q", got)
	}
}

func TestPanicBecomesStructuredError(t *testing.T) {
	e := NewServer(NewRSVPHandler(newStore(t), nil, zerolog.Nop()), zerolog.Nop())
	e.GET("/boom", func(c echo.Context) error { panic("sheet exploded") })

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var res Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Success || res.Error != "Internal server error" {
		t.Fatalf("unexpected body: %+v", res)
	}
}

type hostRecorder struct {
	mu    sync.Mutex
	names []string
}

func (r *hostRecorder) Send(ctx context.Context, c models.Confirmation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, c.GuestName)
	return nil
}

func TestHostAlertedForAttendingGuestsOnly(t *testing.T) {
	host := &hostRecorder{}
	h := NewRSVPHandler(newStore(t), host, zerolog.Nop())

	h.Submit(context.Background(), models.Submission{FullName: "Declined", Attendance: "No", Email: "a@b.co"})
	h.Submit(context.Background(), models.Submission{FullName: "Coming", Attendance: "Yes", NumberAttending: "1", Email: "c@b.co"})
	h.Submit(context.Background(), models.Submission{FullName: "", Attendance: "Yes", Email: "c@b.co"})
	h.Wait()

	if !reflect.DeepEqual(host.names, []string{"Coming"}) {
		t.Fatalf("host alerted for %v, want [Coming]", host.names)
	}
}
