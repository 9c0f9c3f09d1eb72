package dispatch

import (
	"carelog/internal/models"
	"fmt"
	"time"
)

// Payload is the structured message body sent alongside the summary
// string, for clients that render richer cards than plain text.
type Payload struct {
	Kind        string `json:"kind"` // "reminder" or "missed_activity"
	Title       string `json:"title"`
	Body        string `json:"body"`
	Icon        string `json:"icon"`
	Label       string `json:"label"`
	ConfirmText string `json:"confirm_text,omitempty"`
	PatientName string `json:"patient_name"`
	ReminderID  uint   `json:"reminder_id,omitempty"`
	Type        string `json:"type,omitempty"`
}

type presentation struct {
	icon    string
	label   string
	confirm string
}

// presentationFor maps every reminder type to its display treatment.
// The switch is exhaustive over the ReminderType constants; a new type
// that is not handled here falls through to ok=false and is surfaced as
// a composition error rather than sent half-rendered.
func presentationFor(t models.ReminderType) (presentation, bool) {
	switch t {
	case models.MedicationReminder:
		return presentation{icon: "💊", label: "Medication", confirm: "Mark as taken"}, true
	case models.VitalsReminder:
		return presentation{icon: "🩺", label: "Vitals check", confirm: "Log vitals"}, true
	case models.WaterReminder:
		return presentation{icon: "💧", label: "Water intake", confirm: "Log a glass"}, true
	case models.ExerciseReminder:
		return presentation{icon: "🏃", label: "Exercise", confirm: "Mark as done"}, true
	case models.MealReminder:
		return presentation{icon: "🍽️", label: "Meal", confirm: "Log meal"}, true
	case models.GlucoseReminder:
		return presentation{icon: "🩸", label: "Glucose reading", confirm: "Log reading"}, true
	}
	return presentation{}, false
}

// ComposeReminder builds the human-readable summary and the structured
// payload for one reminder occurrence. Pure function, no side effects.
func ComposeReminder(reminder models.Reminder, patientName string) (string, Payload, error) {
	p, ok := presentationFor(reminder.Type)
	if !ok {
		return "", Payload{}, fmt.Errorf("no presentation for reminder type %q", reminder.Type)
	}

	body := reminder.Description
	if body == "" {
		body = fmt.Sprintf("It's time for %s's %s.", patientName, reminder.Title)
	}

	summary := fmt.Sprintf("%s %s reminder for %s: %s (%s)",
		p.icon, p.label, patientName, reminder.Title, reminder.TimeOfDay)

	return summary, Payload{
		Kind:        "reminder",
		Title:       reminder.Title,
		Body:        body,
		Icon:        p.icon,
		Label:       p.label,
		ConfirmText: p.confirm,
		PatientName: patientName,
		ReminderID:  reminder.ID,
		Type:        string(reminder.Type),
	}, nil
}

// ComposeMissedActivity builds the alert for a patient with no recent
// health-logging activity. Single fixed template, parameterized only by
// the patient's name and how long they have been quiet.
func ComposeMissedActivity(patientName string, lastActivity *time.Time, now time.Time) (string, Payload) {
	var body string
	if lastActivity == nil {
		body = fmt.Sprintf("%s has not logged any health activity yet today.", patientName)
	} else {
		hours := int(now.Sub(*lastActivity).Hours())
		body = fmt.Sprintf("%s has not logged any health activity for %d hours.", patientName, hours)
	}

	summary := fmt.Sprintf("⚠️ Activity alert for %s: %s", patientName, body)

	return summary, Payload{
		Kind:        "missed_activity",
		Title:       "Missed activity",
		Body:        body,
		Icon:        "⚠️",
		Label:       "Activity alert",
		PatientName: patientName,
	}
}
