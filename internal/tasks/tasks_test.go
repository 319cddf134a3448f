package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordResetTask(t *testing.T) {
	payload := PasswordResetPayload{
		UserID:    4,
		Email:     "driver@fleet.com",
		FirstName: "Dana",
		ResetLink: "http://portal.test/reset-password?token=abc",
		ExpiresAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	task, err := NewPasswordResetEmailTask(payload)
	require.NoError(t, err)
	assert.Equal(t, TypePasswordResetEmail, task.Type())

	got, err := ParsePasswordResetPayload(task)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	_, err = ParsePasswordResetPayload(asynq.NewTask(TypePasswordResetEmail, []byte("{")))
	assert.Error(t, err)
}

func TestAsynqDispatcher_RejectsExpiredToken(t *testing.T) {
	d := NewAsynqDispatcher(nil)

	err := d.DispatchPasswordReset(context.Background(), PasswordResetPayload{
		Email:     "late@fleet.com",
		ExpiresAt: time.Now().Add(-time.Minute),
	})
	assert.ErrorContains(t, err, "already expired")
}

func TestInlineDispatcher(t *testing.T) {
	var delivered []string
	d := NewInlineDispatcher(func(ctx context.Context, p PasswordResetPayload) error {
		delivered = append(delivered, p.Email)
		return nil
	})

	require.NoError(t, d.DispatchPasswordReset(context.Background(), PasswordResetPayload{Email: "a@fleet.com"}))
	assert.Equal(t, []string{"a@fleet.com"}, delivered)
}
