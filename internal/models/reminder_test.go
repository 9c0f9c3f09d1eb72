package models

import "testing"

func TestReminderTypeValid(t *testing.T) {
	valid := []ReminderType{
		MedicationReminder, VitalsReminder, WaterReminder,
		ExerciseReminder, MealReminder, GlucoseReminder,
	}
	for _, typ := range valid {
		if !typ.Valid() {
			t.Errorf("%q should be a valid reminder type", typ)
		}
	}

	for _, typ := range []ReminderType{"", "massage", "MEDICATION"} {
		if typ.Valid() {
			t.Errorf("%q should not be a valid reminder type", typ)
		}
	}
}

func TestStringListScan(t *testing.T) {
	var days StringList
	if err := days.Scan([]byte(`["monday","friday"]`)); err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if len(days) != 2 || days[0] != "monday" || days[1] != "friday" {
		t.Errorf("scanned days = %v", days)
	}

	var empty StringList
	if err := empty.Scan(nil); err != nil {
		t.Fatalf("Scan(nil) returned error: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("Scan(nil) should produce an empty list, got %v", empty)
	}
}
