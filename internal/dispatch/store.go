package dispatch

import (
	"carelog/internal/models"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// The dispatcher only ever reads these tables; the patient-facing app
// backend owns all writes to them.

// ReminderStore fetches active reminders configured for a given minute.
type ReminderStore interface {
	ActiveAt(ctx context.Context, timeOfDay string) ([]models.Reminder, error)
}

// PatientStore fetches patient records.
type PatientStore interface {
	Get(ctx context.Context, id uint) (*models.Patient, error)
	All(ctx context.Context) ([]models.Patient, error)
}

// MembershipStore resolves a patient's messaging destinations.
type MembershipStore interface {
	GroupChannels(ctx context.Context, patientID uint) ([]string, error)
	DirectChannel(ctx context.Context, patientID uint) (string, error)
}

// ActivityStore fetches the most recent health-logging action per
// patient. A nil time means the patient never logged anything.
type ActivityStore interface {
	LastActivity(ctx context.Context, patientID uint) (*time.Time, error)
}

// GormStore implements the read-side stores against the shared database.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) ActiveAt(ctx context.Context, timeOfDay string) ([]models.Reminder, error) {
	var reminders []models.Reminder
	err := s.db.WithContext(ctx).
		Where("is_active = ? AND time_of_day = ?", true, timeOfDay).
		Find(&reminders).Error
	return reminders, err
}

func (s *GormStore) Get(ctx context.Context, id uint) (*models.Patient, error) {
	var patient models.Patient
	if err := s.db.WithContext(ctx).First(&patient, id).Error; err != nil {
		return nil, err
	}
	return &patient, nil
}

func (s *GormStore) All(ctx context.Context) ([]models.Patient, error) {
	var patients []models.Patient
	err := s.db.WithContext(ctx).Find(&patients).Error
	return patients, err
}

func (s *GormStore) GroupChannels(ctx context.Context, patientID uint) ([]string, error) {
	var memberships []models.GroupMembership
	err := s.db.WithContext(ctx).
		Where("patient_id = ? AND is_active = ?", patientID, true).
		Find(&memberships).Error
	if err != nil {
		return nil, err
	}

	channels := make([]string, 0, len(memberships))
	for _, m := range memberships {
		if m.ExternalChannelID != "" {
			channels = append(channels, m.ExternalChannelID)
		}
	}
	return channels, nil
}

func (s *GormStore) DirectChannel(ctx context.Context, patientID uint) (string, error) {
	var identity models.PersonalIdentity
	err := s.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		First(&identity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return identity.ExternalUserID, nil
}

func (s *GormStore) LastActivity(ctx context.Context, patientID uint) (*time.Time, error) {
	var record models.ActivityRecord
	err := s.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("recorded_at DESC").
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record.RecordedAt, nil
}
