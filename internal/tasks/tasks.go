package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// Task type constants
const (
	TypePasswordResetEmail = "email:password_reset"
)

// Queue names, weighted by the worker
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
)

// PasswordResetPayload carries what the mail worker needs to send a reset link
type PasswordResetPayload struct {
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	ResetLink string    `json:"reset_link"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewPasswordResetEmailTask creates a task that mails a password reset link
func NewPasswordResetEmailTask(payload PasswordResetPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypePasswordResetEmail, data), nil
}

// ParsePasswordResetPayload parses task payload from Asynq task
func ParsePasswordResetPayload(task *asynq.Task) (PasswordResetPayload, error) {
	var payload PasswordResetPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return payload, nil
}

// Dispatcher hands a password reset mail off for delivery
type Dispatcher interface {
	DispatchPasswordReset(ctx context.Context, payload PasswordResetPayload) error
}

// AsynqDispatcher enqueues reset mails for the worker
type AsynqDispatcher struct {
	client *asynq.Client
}

// NewAsynqDispatcher creates a dispatcher over an Asynq client
func NewAsynqDispatcher(client *asynq.Client) *AsynqDispatcher {
	return &AsynqDispatcher{client: client}
}

func (d *AsynqDispatcher) DispatchPasswordReset(ctx context.Context, payload PasswordResetPayload) error {
	task, err := NewPasswordResetEmailTask(payload)
	if err != nil {
		return err
	}

	// The link dies with the token, so a late delivery is useless
	deadline := time.Until(payload.ExpiresAt)
	if deadline <= 0 {
		return fmt.Errorf("reset token for %s already expired", payload.Email)
	}

	if _, err := d.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueCritical),
		asynq.MaxRetry(5),
		asynq.Timeout(time.Minute),
		asynq.Deadline(payload.ExpiresAt),
	); err != nil {
		return fmt.Errorf("failed to enqueue password reset email: %w", err)
	}
	return nil
}

// InlineDispatcher delivers immediately in the calling goroutine. Used
// when no Redis is configured.
type InlineDispatcher struct {
	deliver func(ctx context.Context, payload PasswordResetPayload) error
}

// NewInlineDispatcher creates a dispatcher that calls deliver directly
func NewInlineDispatcher(deliver func(ctx context.Context, payload PasswordResetPayload) error) *InlineDispatcher {
	return &InlineDispatcher{deliver: deliver}
}

func (d *InlineDispatcher) DispatchPasswordReset(ctx context.Context, payload PasswordResetPayload) error {
	return d.deliver(ctx, payload)
}
