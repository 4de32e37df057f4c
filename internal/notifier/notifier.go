package notifier

import (
	"context"

	"github.com/rs/zerolog"

	"wedding-rsvp/internal/models"
)

// Notifier delivers a confirmation for a saved RSVP
type Notifier interface {
	Send(ctx context.Context, c models.Confirmation) error
}

// Func adapts a function to Notifier
type Func func(ctx context.Context, c models.Confirmation) error

func (f Func) Send(ctx context.Context, c models.Confirmation) error {
	return f(ctx, c)
}

// Skip is used when no email service is configured; it only logs
type Skip struct {
	Log zerolog.Logger
}

func (s Skip) Send(ctx context.Context, c models.Confirmation) error {
	s.Log.Info().Str("email", c.GuestEmail).Msg("Email service not configured, skipping confirmation")
	return nil
}
