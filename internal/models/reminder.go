package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ReminderType represents the kind of health activity a reminder is for
type ReminderType string

const (
	MedicationReminder ReminderType = "medication"
	VitalsReminder     ReminderType = "vitals"
	WaterReminder      ReminderType = "water"
	ExerciseReminder   ReminderType = "exercise"
	MealReminder       ReminderType = "meal"
	GlucoseReminder    ReminderType = "glucose"
)

// Valid reports whether t is one of the known reminder types
func (t ReminderType) Valid() bool {
	switch t {
	case MedicationReminder, VitalsReminder, WaterReminder,
		ExerciseReminder, MealReminder, GlucoseReminder:
		return true
	}
	return false
}

func (t ReminderType) Value() (driver.Value, error) {
	return string(t), nil
}

func (t *ReminderType) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		*t = ReminderType(v)
	case string:
		*t = ReminderType(v)
	default:
		return fmt.Errorf("unsupported type for ReminderType: %T", value)
	}
	return nil
}

// Frequency represents how often a reminder recurs
type Frequency string

const (
	DailyFrequency        Frequency = "daily"
	SpecificDaysFrequency Frequency = "specific_days"
)

// StringList represents a list of strings stored as a JSON column
type StringList []string

func (s *StringList) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	return json.Marshal(s)
}

func (s *StringList) Scan(value interface{}) error {
	if value == nil {
		*s = make([]string, 0)
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("unsupported type for StringList: %T", value)
	}
}

// Reminder represents a scheduled health-activity reminder for a patient.
// Rows are created and edited by the patient-facing app; the dispatcher
// only reads them.
type Reminder struct {
	ID          uint         `gorm:"primaryKey;autoIncrement" json:"id"`
	PatientID   uint         `gorm:"not null;index" json:"patient_id"`
	Type        ReminderType `gorm:"size:20;not null" json:"type"`
	Title       string       `gorm:"size:100;not null" json:"title"`
	Description string       `gorm:"size:500" json:"description"`
	TimeOfDay   string       `gorm:"size:5;not null;index" json:"time_of_day"` // "HH:MM", 24-hour
	Frequency   Frequency    `gorm:"size:20;not null" json:"frequency"`
	Days        StringList   `gorm:"type:json" json:"days"` // lowercase weekday names, specific_days only
	IsActive    bool         `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt   time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null" json:"updated_at"`
}

// TableName specifies the table name for the Reminder model
func (Reminder) TableName() string {
	return "reminder"
}
