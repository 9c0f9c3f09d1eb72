package models

import "time"

// Patient represents the subject of reminders and activity tracking.
// Account management and profile editing live in the main app backend;
// the dispatcher only needs the display name and caregiver contact.
type Patient struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	DisplayName    string    `gorm:"size:100;not null" json:"display_name"`
	CaregiverEmail string    `gorm:"size:255" json:"caregiver_email"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null" json:"updated_at"`
}

// GroupMembership links a patient to a care group and that group's
// channel on the external messaging platform. A patient can belong to
// several groups at once; every active membership receives a copy.
type GroupMembership struct {
	ID                uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PatientID         uint      `gorm:"not null;index" json:"patient_id"`
	GroupID           string    `gorm:"size:50;not null;index" json:"group_id"`
	ExternalChannelID string    `gorm:"size:100;not null" json:"external_channel_id"`
	IsActive          bool      `gorm:"not null;default:true" json:"is_active"`
	JoinedAt          time.Time `gorm:"not null" json:"joined_at"`
}

// PersonalIdentity maps a patient to their own user id on the external
// messaging platform, used only when no group membership resolves.
type PersonalIdentity struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PatientID      uint      `gorm:"uniqueIndex;not null" json:"patient_id"`
	ExternalUserID string    `gorm:"size:100;not null" json:"external_user_id"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
}

// ActivityRecord is one health-logging action (vitals entry, glucose
// reading, water log, ...) written by the app backend. The dispatcher
// reads only the most recent timestamp per patient.
type ActivityRecord struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PatientID  uint      `gorm:"not null;index" json:"patient_id"`
	Kind       string    `gorm:"size:30;not null" json:"kind"`
	RecordedAt time.Time `gorm:"not null;index" json:"recorded_at"`
}

// TableName specifies the table name for the Patient model
func (Patient) TableName() string {
	return "patient"
}

// TableName specifies the table name for the GroupMembership model
func (GroupMembership) TableName() string {
	return "group_membership"
}

// TableName specifies the table name for the PersonalIdentity model
func (PersonalIdentity) TableName() string {
	return "personal_identity"
}

// TableName specifies the table name for the ActivityRecord model
func (ActivityRecord) TableName() string {
	return "activity_record"
}
