package cron

import (
	"fmt"
	"time"

	"github.com/skillforest/lms-api/model"
)

// PendingPurchaseTTL is how long a purchase may sit in pending before the
// gateway session is considered abandoned.
const PendingPurchaseTTL = 24 * time.Hour

// ExpireStalePurchases fails pending purchases whose checkout session was
// abandoned. Runs every 15 minutes. The status guard in the UPDATE keeps it
// from touching purchases a webhook settles concurrently.
func (m *CronManager) ExpireStalePurchases() {
	jobName := "expire_stale_purchases"

	cutoff := time.Now().Add(-PendingPurchaseTTL)

	res := m.db.Model(&model.Purchase{}).
		Where("status = ? AND created_at < ?", model.PurchaseStatusPending, cutoff).
		Update("status", model.PurchaseStatusFailed)
	if res.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to expire purchases: %w", res.Error))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Expired %d stale purchases", res.RowsAffected))
}

// LogCatalogStatistics records hourly catalog counts. Runs every hour.
func (m *CronManager) LogCatalogStatistics() {
	jobName := "catalog_statistics"

	var courses, enrollments, completedPurchases int64

	if err := m.db.Model(&model.Course{}).Where("is_published = ?", true).Count(&courses).Error; err != nil {
		m.logJobError(jobName, fmt.Errorf("failed to count courses: %w", err))
		return
	}
	if err := m.db.Model(&model.UserCourse{}).Count(&enrollments).Error; err != nil {
		m.logJobError(jobName, fmt.Errorf("failed to count enrollments: %w", err))
		return
	}
	if err := m.db.Model(&model.Purchase{}).
		Where("status = ?", model.PurchaseStatusCompleted).
		Count(&completedPurchases).Error; err != nil {
		m.logJobError(jobName, fmt.Errorf("failed to count purchases: %w", err))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf(
		"courses=%d enrollments=%d completed_purchases=%d",
		courses, enrollments, completedPurchases,
	))
}

// CleanupOldData removes expired blacklisted tokens, used or expired password
// reset tokens, and cron logs older than 30 days. Runs daily at 2 AM.
func (m *CronManager) CleanupOldData() {
	jobName := "cleanup_old_data"

	now := time.Now()
	removed := int64(0)

	res := m.db.Unscoped().
		Where("expires_at < ?", now).
		Delete(&model.JWTTokenBlacklist{})
	if res.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to clean token blacklist: %w", res.Error))
		return
	}
	removed += res.RowsAffected

	res = m.db.Unscoped().
		Where("used_at IS NOT NULL OR expires_at < ?", now).
		Delete(&model.PasswordResetToken{})
	if res.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to clean reset tokens: %w", res.Error))
		return
	}
	removed += res.RowsAffected

	res = m.db.Unscoped().
		Where("started_at < ?", now.AddDate(0, 0, -30)).
		Delete(&model.CronJobLog{})
	if res.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to clean cron logs: %w", res.Error))
		return
	}
	removed += res.RowsAffected

	m.logJobComplete(jobName, fmt.Sprintf("Removed %d old rows", removed))
}
