package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"wedding-rsvp/internal/config"
	"wedding-rsvp/internal/models"
)

const emailJSSendURL = "https://api.emailjs.com/api/v1.0/email/send"

// EmailJS sends confirmations through an EmailJS template. The template
// receives the Confirmation fields as its parameters.
type EmailJS struct {
	cfg    config.EmailJSConfig
	url    string
	client *http.Client
}

// NewEmailJS creates an EmailJS notifier. url overrides the API endpoint
// when non-empty.
func NewEmailJS(cfg config.EmailJSConfig, url string) (*EmailJS, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("emailjs: service id, template id and public key are required")
	}
	if url == "" {
		url = emailJSSendURL
	}
	return &EmailJS{cfg: cfg, url: url, client: &http.Client{}}, nil
}

type emailJSRequest struct {
	ServiceID      string              `json:"service_id"`
	TemplateID     string              `json:"template_id"`
	UserID         string              `json:"user_id"`
	TemplateParams models.Confirmation `json:"template_params"`
}

func (e *EmailJS) Send(ctx context.Context, c models.Confirmation) error {
	payload, err := json.Marshal(emailJSRequest{
		ServiceID:      e.cfg.ServiceID,
		TemplateID:     e.cfg.TemplateID,
		UserID:         e.cfg.PublicKey,
		TemplateParams: c,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal email params: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("emailjs returned status %d: %s", resp.StatusCode, body)
	}
	return nil
}
