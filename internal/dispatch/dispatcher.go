package dispatch

import (
	"carelog/internal/models"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const defaultWorkers = 4

// Detail is the per-occurrence line item in a dispatch summary.
type Detail struct {
	ID     string `json:"id"`
	Status string `json:"status"` // "sent", "skipped" or "error"
	Reason string `json:"reason,omitempty"`
}

// Summary aggregates one dispatch invocation. Occurrences are processed
// concurrently, so the add methods are safe for parallel use.
type Summary struct {
	InvocationID string   `json:"invocation_id"`
	Checked      int      `json:"checked"`
	Sent         int      `json:"sent"`
	Skipped      int      `json:"skipped"`
	Errors       int      `json:"errors"`
	Details      []Detail `json:"details"`

	mu sync.Mutex
}

func newSummary() *Summary {
	return &Summary{
		InvocationID: uuid.NewString(),
		Details:      []Detail{},
	}
}

func (s *Summary) addSent(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Sent++
	s.Details = append(s.Details, Detail{ID: id, Status: "sent"})
}

func (s *Summary) addSkipped(id, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Skipped++
	s.Details = append(s.Details, Detail{ID: id, Status: "skipped", Reason: reason})
}

func (s *Summary) addError(id, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Errors++
	s.Details = append(s.Details, Detail{ID: id, Status: "error", Reason: reason})
}

// DispatcherConfig wires the dispatcher's collaborators. Workers bounds
// how many occurrences are processed in parallel within one invocation.
type DispatcherConfig struct {
	Clock            Clock
	Reminders        ReminderStore
	Patients         PatientStore
	Memberships      MembershipStore
	Activity         ActivityStore
	OccurrenceLedger OccurrenceLedger
	AlertLedger      AlertLedger
	Pusher           Pusher
	Mailer           FallbackMailer // optional caregiver email fallback
	Workers          int
}

// Dispatcher runs one evaluation pass per invocation: evaluate, claim,
// resolve recipients, compose, send, record. It holds no state between
// invocations; the ledger is the only cross-invocation coordination.
type Dispatcher struct {
	clock       Clock
	evaluator   *Evaluator
	resolver    *Resolver
	patients    PatientStore
	activity    ActivityStore
	occLedger   OccurrenceLedger
	alertLedger AlertLedger
	pusher      Pusher
	mailer      FallbackMailer
	workers     int
}

func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Dispatcher{
		clock:       cfg.Clock,
		evaluator:   NewEvaluator(cfg.Reminders, cfg.OccurrenceLedger, cfg.Clock),
		resolver:    NewResolver(cfg.Memberships),
		patients:    cfg.Patients,
		activity:    cfg.Activity,
		occLedger:   cfg.OccurrenceLedger,
		alertLedger: cfg.AlertLedger,
		pusher:      cfg.Pusher,
		mailer:      cfg.Mailer,
		workers:     workers,
	}
}

// DispatchReminders runs one reminder evaluation pass. A single
// occurrence failing never aborts the batch; the summary always comes
// back with one detail per evaluated reminder.
func (d *Dispatcher) DispatchReminders(ctx context.Context) *Summary {
	summary := newSummary()

	candidates, err := d.evaluator.Evaluate(ctx)
	if err != nil {
		log.Printf("Reminder dispatch %s: evaluation failed: %v", summary.InvocationID, err)
		summary.addError("evaluate", err.Error())
		return summary
	}
	summary.Checked = len(candidates)

	group := new(errgroup.Group)
	group.SetLimit(d.poolSize())

	for _, candidate := range candidates {
		candidate := candidate
		if candidate.SkipReason != "" {
			summary.addSkipped(candidateID(candidate), candidate.SkipReason)
			continue
		}
		if candidate.FailReason != "" {
			summary.addError(candidateID(candidate), candidate.FailReason)
			continue
		}
		group.Go(func() error {
			d.processOccurrence(ctx, candidate.Occurrence, summary)
			return nil
		})
	}
	group.Wait()

	log.Printf("Reminder dispatch %s: checked=%d sent=%d skipped=%d errors=%d",
		summary.InvocationID, summary.Checked, summary.Sent, summary.Skipped, summary.Errors)
	return summary
}

func (d *Dispatcher) poolSize() int {
	if d.workers <= 0 {
		return defaultWorkers
	}
	return d.workers
}

func candidateID(c Candidate) string {
	if c.Key != "" {
		return c.Key
	}
	// Skipped before a window was computed (wrong day, malformed input).
	return fmt.Sprintf("reminder:%d", c.Reminder.ID)
}

// processOccurrence handles one claimed occurrence end to end. The
// order claim → compose → send → resolve is fixed; only different
// occurrences run in parallel.
func (d *Dispatcher) processOccurrence(ctx context.Context, occ Occurrence, summary *Summary) {
	row := &models.OccurrenceLog{
		OccurrenceKey: occ.Key,
		ReminderID:    occ.Reminder.ID,
		PatientID:     occ.Reminder.PatientID,
		Status:        models.StatusPending,
		ClaimedAt:     d.clock.Now(),
	}

	owned, err := d.occLedger.Claim(ctx, row)
	if err != nil {
		summary.addError(occ.Key, "claim failed: "+err.Error())
		return
	}
	if !owned {
		summary.addSkipped(occ.Key, "already processing or sent")
		return
	}

	// From here on the claim must be resolved to sent or error.
	patient, err := d.patients.Get(ctx, occ.Reminder.PatientID)
	if err != nil {
		d.resolveError(ctx, occ.Key, "", "patient lookup failed: "+err.Error(), summary)
		return
	}

	recipients, err := d.resolver.Resolve(ctx, patient.ID)
	if errors.Is(err, ErrRecipientUnresolved) {
		d.resolveError(ctx, occ.Key, "", ErrRecipientUnresolved.Error(), summary)
		return
	}
	if err != nil {
		d.resolveError(ctx, occ.Key, "", "recipient lookup failed: "+err.Error(), summary)
		return
	}

	summaryText, payload, err := ComposeReminder(occ.Reminder, patient.DisplayName)
	if err != nil {
		d.resolveError(ctx, occ.Key, recipients.Channel, err.Error(), summary)
		return
	}

	// Fan-out: every resolved destination gets a copy. The first
	// failure is recorded; the next tick retries through the ledger.
	var sendErr error
	for _, destination := range recipients.Destinations {
		if err := d.pusher.Push(ctx, destination, summaryText, payload); err != nil {
			sendErr = err
			break
		}
	}
	if sendErr != nil {
		d.resolveError(ctx, occ.Key, recipients.Channel, sendErr.Error(), summary)
		return
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		payloadJSON = nil
	}
	if err := d.occLedger.MarkSent(ctx, occ.Key, recipients.Channel, payloadJSON, d.clock.Now()); err != nil {
		log.Printf("Failed to mark occurrence %s as sent: %v", occ.Key, err)
	}
	summary.addSent(occ.Key)
}

func (d *Dispatcher) resolveError(ctx context.Context, key string, channel models.Channel, reason string, summary *Summary) {
	if err := d.occLedger.MarkError(ctx, key, channel, reason); err != nil {
		log.Printf("Failed to mark occurrence %s as error: %v", key, err)
	}
	summary.addError(key, reason)
}
