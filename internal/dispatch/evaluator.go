package dispatch

import (
	"carelog/internal/models"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DedupWindow is the half-width of the interval, anchored on a
// reminder's configured time-of-day, within which a previous sent row
// suppresses re-delivery. Anchoring on the configured time (not on
// "now") means the window moves when a user edits the reminder mid-day,
// so the old send does not suppress the new time.
const DedupWindow = 30 * time.Minute

// Occurrence is one reminder falling due at a specific instant.
type Occurrence struct {
	Reminder    models.Reminder
	Key         string
	WindowStart time.Time
	WindowEnd   time.Time
}

// Candidate is an evaluated reminder: either an actionable occurrence,
// or one excluded with a reason before any claim is attempted.
type Candidate struct {
	Occurrence
	SkipReason string // set when the match is not actionable
	FailReason string // set when evaluation itself failed for this reminder
}

// Evaluator decides which reminders are due at the current instant.
type Evaluator struct {
	reminders ReminderStore
	ledger    OccurrenceLedger
	clock     Clock
}

func NewEvaluator(reminders ReminderStore, ledger OccurrenceLedger, clock Clock) *Evaluator {
	return &Evaluator{reminders: reminders, ledger: ledger, clock: clock}
}

// Evaluate returns one candidate per active reminder configured for the
// current minute. Inactive reminders never come back from the store, and
// a reminder whose time-of-day never parses can never match the
// minute-exact query, so both are excluded at the source.
func (e *Evaluator) Evaluate(ctx context.Context) ([]Candidate, error) {
	now := e.clock.Now()

	reminders, err := e.reminders.ActiveAt(ctx, now.Format("15:04"))
	if err != nil {
		return nil, fmt.Errorf("failed to load reminders: %w", err)
	}

	candidates := make([]Candidate, 0, len(reminders))
	for _, reminder := range reminders {
		candidates = append(candidates, e.evaluateOne(ctx, reminder, now))
	}
	return candidates, nil
}

func (e *Evaluator) evaluateOne(ctx context.Context, reminder models.Reminder, now time.Time) Candidate {
	cand := Candidate{Occurrence: Occurrence{Reminder: reminder}}

	if !reminder.Type.Valid() {
		cand.SkipReason = fmt.Sprintf("invalid reminder type %q", reminder.Type)
		return cand
	}

	switch reminder.Frequency {
	case models.DailyFrequency:
		// always due at the configured minute
	case models.SpecificDaysFrequency:
		if len(reminder.Days) == 0 {
			cand.SkipReason = "specific_days reminder has no days configured"
			return cand
		}
		if !matchesWeekday(reminder.Days, now) {
			cand.SkipReason = "not scheduled day"
			return cand
		}
	default:
		cand.SkipReason = fmt.Sprintf("invalid frequency %q", reminder.Frequency)
		return cand
	}

	start, end, err := occurrenceWindow(now, reminder.TimeOfDay)
	if err != nil {
		cand.SkipReason = fmt.Sprintf("invalid time of day %q", reminder.TimeOfDay)
		return cand
	}
	cand.WindowStart = start
	cand.WindowEnd = end
	cand.Key = occurrenceKey(reminder, now)

	alreadySent, err := e.ledger.SentInWindow(ctx, reminder.ID, start, end)
	if err != nil {
		cand.FailReason = fmt.Sprintf("ledger window check failed: %v", err)
		return cand
	}
	if alreadySent {
		cand.SkipReason = "already sent in window"
	}
	return cand
}

// occurrenceKey identifies one occurrence of one reminder. The
// configured time is part of the key, so editing a reminder's time
// mid-day produces a fresh key and a fresh claim.
func occurrenceKey(reminder models.Reminder, now time.Time) string {
	return fmt.Sprintf("reminder:%d:%s:%s", reminder.ID, now.Format("2006-01-02"), reminder.TimeOfDay)
}

// occurrenceWindow computes [t-DedupWindow, t+DedupWindow] around the
// configured time on the current local day, clamped to that day. A
// window near midnight is truncated rather than wrapped, so yesterday's
// late send can never suppress an early-morning occurrence.
func occurrenceWindow(now time.Time, timeOfDay string) (time.Time, time.Time, error) {
	hour, minute, err := parseTimeOfDay(timeOfDay)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	anchor := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	start := anchor.Add(-DedupWindow)
	end := anchor.Add(DedupWindow)

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.Add(24*time.Hour - time.Second)
	if start.Before(dayStart) {
		start = dayStart
	}
	if end.After(dayEnd) {
		end = dayEnd
	}
	return start, end, nil
}

func parseTimeOfDay(s string) (int, int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("time of day %q is not HH:MM", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("time of day %q has invalid hour", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("time of day %q has invalid minute", s)
	}
	return hour, minute, nil
}

func matchesWeekday(days models.StringList, now time.Time) bool {
	today := strings.ToLower(now.Weekday().String())
	for _, day := range days {
		if strings.ToLower(strings.TrimSpace(day)) == today {
			return true
		}
	}
	return false
}
