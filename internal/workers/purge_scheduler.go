package workers

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/farahmhedhbi/fleet-management-sub000/internal/models"
)

// DefaultPurgeSchedule runs the reset token purge every ten minutes
const DefaultPurgeSchedule = "*/10 * * * *"

// StartResetTokenPurge schedules PurgeResetTokens on a cron expression and
// runs it once immediately. Stop the returned cron to end the schedule.
func StartResetTokenPurge(db *gorm.DB, schedule string, logger zerolog.Logger) (*cron.Cron, error) {
	if schedule == "" {
		schedule = DefaultPurgeSchedule
	}

	c := cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)))
	if _, err := c.AddFunc(schedule, func() {
		PurgeResetTokens(db, time.Now(), logger)
	}); err != nil {
		return nil, err
	}

	PurgeResetTokens(db, time.Now(), logger)
	c.Start()

	logger.Info().Str("schedule", schedule).Msg("Reset token purge scheduled")
	return c, nil
}

// PurgeResetTokens deletes reset tokens that are used or expired at now
func PurgeResetTokens(db *gorm.DB, now time.Time, logger zerolog.Logger) int64 {
	result := db.Where("used = ? OR expires_at < ?", true, now).Delete(&models.PasswordResetToken{})
	if result.Error != nil {
		logger.Error().Err(result.Error).Msg("Failed to purge reset tokens")
		return 0
	}

	if result.RowsAffected > 0 {
		logger.Info().Int64("purged", result.RowsAffected).Msg("Purged stale reset tokens")
	} else {
		logger.Debug().Msg("No stale reset tokens")
	}
	return result.RowsAffected
}
