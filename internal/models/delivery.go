package models

import (
	"time"

	"gorm.io/datatypes"
)

// DeliveryStatus is the lifecycle state of a ledger row
type DeliveryStatus string

const (
	StatusPending DeliveryStatus = "pending"
	StatusSent    DeliveryStatus = "sent"
	StatusError   DeliveryStatus = "error"
)

// Channel is the delivery channel a notification went out on
type Channel string

const (
	ChannelGroup  Channel = "group"
	ChannelDirect Channel = "direct"
	ChannelEmail  Channel = "email" // caregiver fallback, missed-activity alerts only
)

// OccurrenceLog tracks one delivery attempt for one reminder occurrence.
// The unique index on occurrence_key is what makes the claim atomic: the
// first invocation to insert the row owns the occurrence, concurrent
// invocations see a conflict and back off. Rows are never deleted.
type OccurrenceLog struct {
	ID            uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	OccurrenceKey string         `gorm:"size:100;not null;uniqueIndex" json:"occurrence_key"`
	ReminderID    uint           `gorm:"not null;index" json:"reminder_id"`
	PatientID     uint           `gorm:"not null;index" json:"patient_id"`
	Status        DeliveryStatus `gorm:"size:10;not null" json:"status"`
	Channel       Channel        `gorm:"size:10" json:"channel"`
	Payload       datatypes.JSON `gorm:"type:json" json:"payload"`
	ErrorMessage  string         `gorm:"size:500" json:"error_message"`
	ClaimedAt     time.Time      `gorm:"not null;index" json:"claimed_at"`
	SentAt        *time.Time     `gorm:"index" json:"sent_at"`
}

// MissedActivityAlert plays the same ledger role as OccurrenceLog but is
// scoped to one alert per patient per local calendar day (the alert_key
// embeds the date, not a time window).
type MissedActivityAlert struct {
	ID             uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	AlertKey       string         `gorm:"size:100;not null;uniqueIndex" json:"alert_key"`
	PatientID      uint           `gorm:"not null;index" json:"patient_id"`
	Status         DeliveryStatus `gorm:"size:10;not null" json:"status"`
	Channel        Channel        `gorm:"size:10" json:"channel"`
	LastActivityAt *time.Time     `json:"last_activity_at"`
	ErrorMessage   string         `gorm:"size:500" json:"error_message"`
	ClaimedAt      time.Time      `gorm:"not null;index" json:"claimed_at"`
	SentAt         *time.Time     `json:"sent_at"`
}

// TableName specifies the table name for the OccurrenceLog model
func (OccurrenceLog) TableName() string {
	return "occurrence_log"
}

// TableName specifies the table name for the MissedActivityAlert model
func (MissedActivityAlert) TableName() string {
	return "missed_activity_alert"
}
