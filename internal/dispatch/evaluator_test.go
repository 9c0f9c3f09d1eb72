package dispatch

import (
	"carelog/internal/models"
	"context"
	"testing"
	"time"
)

// 2026-08-24 is a Monday.
var (
	monday0800  = time.Date(2026, time.August, 24, 8, 0, 0, 0, time.UTC)
	tuesday0800 = time.Date(2026, time.August, 25, 8, 0, 0, 0, time.UTC)
)

func dailyReminder(id, patientID uint, timeOfDay string) models.Reminder {
	return models.Reminder{
		ID:        id,
		PatientID: patientID,
		Type:      models.MedicationReminder,
		Title:     "Morning medication",
		TimeOfDay: timeOfDay,
		Frequency: models.DailyFrequency,
		IsActive:  true,
	}
}

func TestEvaluateDailyDue(t *testing.T) {
	store := &fakeReminderStore{reminders: []models.Reminder{dailyReminder(1, 10, "08:00")}}
	evaluator := NewEvaluator(store, newFakeOccurrenceLedger(), &fakeClock{now: monday0800})

	candidates, err := evaluator.Evaluate(context.Background())
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	cand := candidates[0]
	if cand.SkipReason != "" {
		t.Errorf("expected actionable candidate, got skip reason %q", cand.SkipReason)
	}
	if cand.Key != "reminder:1:2026-08-24:08:00" {
		t.Errorf("unexpected occurrence key %q", cand.Key)
	}
}

func TestEvaluateInactiveNeverDue(t *testing.T) {
	inactive := dailyReminder(1, 10, "08:00")
	inactive.IsActive = false
	store := &fakeReminderStore{reminders: []models.Reminder{inactive}}
	evaluator := NewEvaluator(store, newFakeOccurrenceLedger(), &fakeClock{now: monday0800})

	candidates, err := evaluator.Evaluate(context.Background())
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("inactive reminder must never be evaluated, got %d candidates", len(candidates))
	}
}

func TestEvaluateTimeMismatch(t *testing.T) {
	store := &fakeReminderStore{reminders: []models.Reminder{dailyReminder(1, 10, "08:01")}}
	evaluator := NewEvaluator(store, newFakeOccurrenceLedger(), &fakeClock{now: monday0800})

	candidates, err := evaluator.Evaluate(context.Background())
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("matching is minute-exact, got %d candidates", len(candidates))
	}
}

func TestEvaluateSpecificDays(t *testing.T) {
	reminder := dailyReminder(1, 10, "08:00")
	reminder.Frequency = models.SpecificDaysFrequency
	reminder.Days = models.StringList{"monday"}

	tests := []struct {
		name       string
		now        time.Time
		skipReason string
	}{
		{name: "scheduled day", now: monday0800, skipReason: ""},
		{name: "wrong day", now: tuesday0800, skipReason: "not scheduled day"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeReminderStore{reminders: []models.Reminder{reminder}}
			evaluator := NewEvaluator(store, newFakeOccurrenceLedger(), &fakeClock{now: tt.now})

			candidates, err := evaluator.Evaluate(context.Background())
			if err != nil {
				t.Fatalf("Evaluate returned error: %v", err)
			}
			if len(candidates) != 1 {
				t.Fatalf("expected 1 candidate, got %d", len(candidates))
			}
			if candidates[0].SkipReason != tt.skipReason {
				t.Errorf("skip reason = %q, want %q", candidates[0].SkipReason, tt.skipReason)
			}
		})
	}
}

func TestEvaluateMalformedReminders(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*models.Reminder)
		expected string
	}{
		{
			name:     "unknown type",
			mutate:   func(r *models.Reminder) { r.Type = "massage" },
			expected: `invalid reminder type "massage"`,
		},
		{
			name:     "unknown frequency",
			mutate:   func(r *models.Reminder) { r.Frequency = "weekly" },
			expected: `invalid frequency "weekly"`,
		},
		{
			name: "specific days without days",
			mutate: func(r *models.Reminder) {
				r.Frequency = models.SpecificDaysFrequency
				r.Days = nil
			},
			expected: "specific_days reminder has no days configured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reminder := dailyReminder(1, 10, "08:00")
			tt.mutate(&reminder)
			store := &fakeReminderStore{reminders: []models.Reminder{reminder}}
			evaluator := NewEvaluator(store, newFakeOccurrenceLedger(), &fakeClock{now: monday0800})

			candidates, err := evaluator.Evaluate(context.Background())
			if err != nil {
				t.Fatalf("Evaluate returned error: %v", err)
			}
			if len(candidates) != 1 {
				t.Fatalf("expected 1 candidate, got %d", len(candidates))
			}
			if candidates[0].SkipReason != tt.expected {
				t.Errorf("skip reason = %q, want %q", candidates[0].SkipReason, tt.expected)
			}
		})
	}
}

func TestEvaluateSuppressedBySentRowInWindow(t *testing.T) {
	reminder := dailyReminder(1, 10, "08:00")
	ledger := newFakeOccurrenceLedger()
	sentAt := monday0800.Add(-10 * time.Minute)
	ledger.rows["earlier"] = &models.OccurrenceLog{
		OccurrenceKey: "earlier",
		ReminderID:    1,
		Status:        models.StatusSent,
		SentAt:        &sentAt,
	}

	store := &fakeReminderStore{reminders: []models.Reminder{reminder}}
	evaluator := NewEvaluator(store, ledger, &fakeClock{now: monday0800})

	candidates, err := evaluator.Evaluate(context.Background())
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if candidates[0].SkipReason != "already sent in window" {
		t.Errorf("skip reason = %q, want %q", candidates[0].SkipReason, "already sent in window")
	}
}

// A reminder edited from 21:00 to 23:10 mid-day must fire at 23:10: the
// dedup window is anchored on the configured time, so the 21:00 sent
// row falls outside it.
func TestWindowFollowsEdit(t *testing.T) {
	reminder := dailyReminder(1, 10, "23:10")
	ledger := newFakeOccurrenceLedger()
	oldSent := time.Date(2026, time.August, 24, 21, 0, 5, 0, time.UTC)
	ledger.rows["old"] = &models.OccurrenceLog{
		OccurrenceKey: "old",
		ReminderID:    1,
		Status:        models.StatusSent,
		SentAt:        &oldSent,
	}

	now := time.Date(2026, time.August, 24, 23, 10, 0, 0, time.UTC)
	store := &fakeReminderStore{reminders: []models.Reminder{reminder}}
	evaluator := NewEvaluator(store, ledger, &fakeClock{now: now})

	candidates, err := evaluator.Evaluate(context.Background())
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].SkipReason != "" {
		t.Errorf("edited reminder should be actionable, got skip reason %q", candidates[0].SkipReason)
	}
}

func TestOccurrenceWindowClampedToDay(t *testing.T) {
	tests := []struct {
		name      string
		timeOfDay string
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "mid-day window untouched",
			timeOfDay: "08:00",
			wantStart: time.Date(2026, time.August, 24, 7, 30, 0, 0, time.UTC),
			wantEnd:   time.Date(2026, time.August, 24, 8, 30, 0, 0, time.UTC),
		},
		{
			name:      "early morning clamped at midnight",
			timeOfDay: "00:10",
			wantStart: time.Date(2026, time.August, 24, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2026, time.August, 24, 0, 40, 0, 0, time.UTC),
		},
		{
			name:      "late night clamped at end of day",
			timeOfDay: "23:50",
			wantStart: time.Date(2026, time.August, 24, 23, 20, 0, 0, time.UTC),
			wantEnd:   time.Date(2026, time.August, 24, 23, 59, 59, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := occurrenceWindow(monday0800, tt.timeOfDay)
			if err != nil {
				t.Fatalf("occurrenceWindow returned error: %v", err)
			}
			if !start.Equal(tt.wantStart) {
				t.Errorf("start = %v, want %v", start, tt.wantStart)
			}
			if !end.Equal(tt.wantEnd) {
				t.Errorf("end = %v, want %v", end, tt.wantEnd)
			}
		})
	}
}

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{input: "08:00", wantErr: false},
		{input: "23:59", wantErr: false},
		{input: "24:00", wantErr: true},
		{input: "08:60", wantErr: true},
		{input: "8am", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		_, _, err := parseTimeOfDay(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseTimeOfDay(%q) error = %v, wantErr = %v", tt.input, err, tt.wantErr)
		}
	}
}
