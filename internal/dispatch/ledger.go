package dispatch

import (
	"carelog/internal/models"
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StaleClaimAge is how long a pending row may sit before another
// invocation is allowed to take it over. A claimant that crashed between
// claim and resolve leaves its row pending forever otherwise.
const StaleClaimAge = 5 * time.Minute

// OccurrenceLedger is the idempotency guard for reminder occurrences.
// Claim is an atomic insert-if-absent: whoever gets the row in owns the
// occurrence, everyone else backs off. That single property is what
// keeps overlapping scheduler ticks from double-sending.
type OccurrenceLedger interface {
	// SentInWindow reports whether a sent row exists for the reminder
	// with sent_at inside [from, to].
	SentInWindow(ctx context.Context, reminderID uint, from, to time.Time) (bool, error)
	// Claim inserts the pending row. Returns false when another
	// invocation already owns this occurrence key.
	Claim(ctx context.Context, row *models.OccurrenceLog) (bool, error)
	MarkSent(ctx context.Context, key string, channel models.Channel, payload []byte, at time.Time) error
	MarkError(ctx context.Context, key string, channel models.Channel, message string) error
}

// AlertLedger plays the same role for missed-activity alerts, scoped to
// one alert per patient per calendar day.
type AlertLedger interface {
	Claim(ctx context.Context, row *models.MissedActivityAlert) (bool, error)
	MarkSent(ctx context.Context, key string, channel models.Channel, at time.Time) error
	MarkError(ctx context.Context, key string, channel models.Channel, message string) error
}

// GormOccurrenceLedger implements OccurrenceLedger on the occurrence_log
// table; the unique index on occurrence_key enforces the claim.
type GormOccurrenceLedger struct {
	db *gorm.DB
}

func NewGormOccurrenceLedger(db *gorm.DB) *GormOccurrenceLedger {
	return &GormOccurrenceLedger{db: db}
}

func (l *GormOccurrenceLedger) SentInWindow(ctx context.Context, reminderID uint, from, to time.Time) (bool, error) {
	var count int64
	err := l.db.WithContext(ctx).Model(&models.OccurrenceLog{}).
		Where("reminder_id = ? AND status = ? AND sent_at >= ? AND sent_at <= ?",
			reminderID, models.StatusSent, from, to).
		Count(&count).Error
	return count > 0, err
}

func (l *GormOccurrenceLedger) Claim(ctx context.Context, row *models.OccurrenceLog) (bool, error) {
	result := l.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "occurrence_key"}},
		DoNothing: true,
	}).Create(row)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		return true, nil
	}

	// A row already exists for this key. Error rows stay eligible for a
	// retry on a later tick, and pending rows older than StaleClaimAge
	// are treated as abandoned. The guarded update keeps the takeover
	// atomic: only one caller's UPDATE matches.
	result = l.db.WithContext(ctx).Model(&models.OccurrenceLog{}).
		Where("occurrence_key = ? AND (status = ? OR (status = ? AND claimed_at < ?))",
			row.OccurrenceKey, models.StatusError, models.StatusPending,
			row.ClaimedAt.Add(-StaleClaimAge)).
		Updates(map[string]interface{}{
			"status":        models.StatusPending,
			"claimed_at":    row.ClaimedAt,
			"error_message": "",
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (l *GormOccurrenceLedger) MarkSent(ctx context.Context, key string, channel models.Channel, payload []byte, at time.Time) error {
	return l.db.WithContext(ctx).Model(&models.OccurrenceLog{}).
		Where("occurrence_key = ?", key).
		Updates(map[string]interface{}{
			"status":  models.StatusSent,
			"channel": channel,
			"payload": payload,
			"sent_at": at,
		}).Error
}

func (l *GormOccurrenceLedger) MarkError(ctx context.Context, key string, channel models.Channel, message string) error {
	return l.db.WithContext(ctx).Model(&models.OccurrenceLog{}).
		Where("occurrence_key = ?", key).
		Updates(map[string]interface{}{
			"status":        models.StatusError,
			"channel":       channel,
			"error_message": message,
		}).Error
}

// GormAlertLedger implements AlertLedger on the missed_activity_alert
// table with the same insert-to-lock pattern.
type GormAlertLedger struct {
	db *gorm.DB
}

func NewGormAlertLedger(db *gorm.DB) *GormAlertLedger {
	return &GormAlertLedger{db: db}
}

func (l *GormAlertLedger) Claim(ctx context.Context, row *models.MissedActivityAlert) (bool, error) {
	result := l.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "alert_key"}},
		DoNothing: true,
	}).Create(row)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		return true, nil
	}

	result = l.db.WithContext(ctx).Model(&models.MissedActivityAlert{}).
		Where("alert_key = ? AND (status = ? OR (status = ? AND claimed_at < ?))",
			row.AlertKey, models.StatusError, models.StatusPending,
			row.ClaimedAt.Add(-StaleClaimAge)).
		Updates(map[string]interface{}{
			"status":        models.StatusPending,
			"claimed_at":    row.ClaimedAt,
			"error_message": "",
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (l *GormAlertLedger) MarkSent(ctx context.Context, key string, channel models.Channel, at time.Time) error {
	return l.db.WithContext(ctx).Model(&models.MissedActivityAlert{}).
		Where("alert_key = ?", key).
		Updates(map[string]interface{}{
			"status":  models.StatusSent,
			"channel": channel,
			"sent_at": at,
		}).Error
}

func (l *GormAlertLedger) MarkError(ctx context.Context, key string, channel models.Channel, message string) error {
	return l.db.WithContext(ctx).Model(&models.MissedActivityAlert{}).
		Where("alert_key = ?", key).
		Updates(map[string]interface{}{
			"status":        models.StatusError,
			"channel":       channel,
			"error_message": message,
		}).Error
}
