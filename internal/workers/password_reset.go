package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/farahmhedhbi/fleet-management-sub000/internal/tasks"
)

// Mailer delivers a rendered message
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogMailer writes messages to the log instead of sending them. It is the
// development mail transport: the reset link shows up in the worker output.
type LogMailer struct {
	log zerolog.Logger
}

// NewLogMailer creates a LogMailer
func NewLogMailer(log zerolog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(ctx context.Context, to, subject, body string) error {
	m.log.Info().
		Str("to", to).
		Str("subject", subject).
		Str("body", body).
		Msg("Mail delivered")
	return nil
}

// DeliverPasswordReset renders and sends a reset mail
func DeliverPasswordReset(ctx context.Context, payload tasks.PasswordResetPayload, mailer Mailer, logger zerolog.Logger) error {
	if time.Now().After(payload.ExpiresAt) {
		logger.Warn().
			Int64("user_id", payload.UserID).
			Time("expires_at", payload.ExpiresAt).
			Msg("Skipping reset mail for expired token")
		return nil
	}

	name := payload.FirstName
	if name == "" {
		name = "there"
	}
	body := fmt.Sprintf(
		"Hello %s,\n\nUse the link below to choose a new password. It expires at %s.\n\n%s\n\nIf you did not ask for this, ignore this message.",
		name, payload.ExpiresAt.UTC().Format(time.RFC1123), payload.ResetLink,
	)

	if err := mailer.Send(ctx, payload.Email, "Reset your Fleet password", body); err != nil {
		return fmt.Errorf("failed to send reset mail: %w", err)
	}

	logger.Info().Int64("user_id", payload.UserID).Msg("Password reset mail sent")
	return nil
}

// HandlePasswordResetEmail is the Asynq handler for tasks.TypePasswordResetEmail
func HandlePasswordResetEmail(ctx context.Context, t *asynq.Task, mailer Mailer, logger zerolog.Logger) error {
	payload, err := tasks.ParsePasswordResetPayload(t)
	if err != nil {
		// A payload that does not parse will never parse
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	return DeliverPasswordReset(ctx, payload, mailer, logger)
}
