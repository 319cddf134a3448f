package workers

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/farahmhedhbi/fleet-management-sub000/internal/models"
	"github.com/farahmhedhbi/fleet-management-sub000/internal/tasks"
)

type sentMail struct {
	to, subject, body string
}

type captureMailer struct {
	sent []sentMail
}

func (m *captureMailer) Send(ctx context.Context, to, subject, body string) error {
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func TestDeliverPasswordReset(t *testing.T) {
	mailer := &captureMailer{}
	payload := tasks.PasswordResetPayload{
		UserID:    3,
		Email:     "driver@fleet.com",
		FirstName: "Dana",
		ResetLink: "http://localhost:3000/reset-password?token=abc",
		ExpiresAt: time.Now().Add(15 * time.Minute),
	}

	require.NoError(t, DeliverPasswordReset(context.Background(), payload, mailer, zerolog.Nop()))
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "driver@fleet.com", mailer.sent[0].to)
	assert.Contains(t, mailer.sent[0].body, payload.ResetLink)
	assert.Contains(t, mailer.sent[0].body, "Hello Dana")
}

func TestDeliverPasswordReset_SkipsExpired(t *testing.T) {
	mailer := &captureMailer{}
	payload := tasks.PasswordResetPayload{
		Email:     "driver@fleet.com",
		ExpiresAt: time.Now().Add(-time.Minute),
	}

	require.NoError(t, DeliverPasswordReset(context.Background(), payload, mailer, zerolog.Nop()))
	assert.Empty(t, mailer.sent)
}

func TestHandlePasswordResetEmail(t *testing.T) {
	t.Run("valid payload", func(t *testing.T) {
		mailer := &captureMailer{}
		task, err := tasks.NewPasswordResetEmailTask(tasks.PasswordResetPayload{
			Email:     "owner@fleet.com",
			ResetLink: "http://portal/reset-password?token=x",
			ExpiresAt: time.Now().Add(time.Minute),
		})
		require.NoError(t, err)

		require.NoError(t, HandlePasswordResetEmail(context.Background(), task, mailer, zerolog.Nop()))
		assert.Len(t, mailer.sent, 1)
	})

	t.Run("corrupt payload is not retried", func(t *testing.T) {
		task := asynq.NewTask(tasks.TypePasswordResetEmail, []byte("{"))
		err := HandlePasswordResetEmail(context.Background(), task, &captureMailer{}, zerolog.Nop())
		assert.ErrorIs(t, err, asynq.SkipRetry)
	})
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "fleet.sqlite")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrateAPI(db))
	return db
}

func TestPurgeResetTokens(t *testing.T) {
	db := openTestDB(t)
	now := time.Now()

	user := models.User{FirstName: "A", LastName: "B", Email: "a@fleet.com", PasswordHash: "x", Role: "ROLE_OWNER"}
	require.NoError(t, db.Create(&user).Error)

	fresh := models.PasswordResetToken{Token: "fresh", UserID: user.ID, ExpiresAt: now.Add(time.Minute)}
	expired := models.PasswordResetToken{Token: "expired", UserID: user.ID, ExpiresAt: now.Add(-time.Minute)}
	used := models.PasswordResetToken{Token: "used", UserID: user.ID, ExpiresAt: now.Add(time.Minute), Used: true}
	for _, tok := range []*models.PasswordResetToken{&fresh, &expired, &used} {
		require.NoError(t, db.Create(tok).Error)
	}

	assert.Equal(t, int64(2), PurgeResetTokens(db, now, zerolog.Nop()))

	var remaining []models.PasswordResetToken
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, "fresh", remaining[0].Token)
}

func TestStartResetTokenPurge_RejectsBadSchedule(t *testing.T) {
	_, err := StartResetTokenPurge(openTestDB(t), "every now and then", zerolog.Nop())
	assert.Error(t, err)
}
