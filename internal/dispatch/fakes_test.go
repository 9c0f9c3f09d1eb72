package dispatch

import (
	"carelog/internal/models"
	"context"
	"sync"
	"time"
)

// Shared in-memory fakes for the dispatcher tests. The ledger fakes
// reproduce the insert-if-absent semantics of the real tables so the
// concurrency properties can be exercised without a database.

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

type fakeReminderStore struct {
	reminders []models.Reminder
	err       error
}

func (s *fakeReminderStore) ActiveAt(_ context.Context, timeOfDay string) ([]models.Reminder, error) {
	if s.err != nil {
		return nil, s.err
	}
	var matched []models.Reminder
	for _, r := range s.reminders {
		if r.IsActive && r.TimeOfDay == timeOfDay {
			matched = append(matched, r)
		}
	}
	return matched, nil
}

type fakePatientStore struct {
	patients map[uint]models.Patient
}

func (s *fakePatientStore) Get(_ context.Context, id uint) (*models.Patient, error) {
	p, ok := s.patients[id]
	if !ok {
		return nil, context.Canceled // any error will do for the tests
	}
	return &p, nil
}

func (s *fakePatientStore) All(_ context.Context) ([]models.Patient, error) {
	var all []models.Patient
	for _, p := range s.patients {
		all = append(all, p)
	}
	return all, nil
}

type fakeMembershipStore struct {
	groups map[uint][]string
	direct map[uint]string
}

func (s *fakeMembershipStore) GroupChannels(_ context.Context, patientID uint) ([]string, error) {
	return s.groups[patientID], nil
}

func (s *fakeMembershipStore) DirectChannel(_ context.Context, patientID uint) (string, error) {
	return s.direct[patientID], nil
}

type fakeActivityStore struct {
	last map[uint]*time.Time
}

func (s *fakeActivityStore) LastActivity(_ context.Context, patientID uint) (*time.Time, error) {
	return s.last[patientID], nil
}

type fakeOccurrenceLedger struct {
	mu   sync.Mutex
	rows map[string]*models.OccurrenceLog
}

func newFakeOccurrenceLedger() *fakeOccurrenceLedger {
	return &fakeOccurrenceLedger{rows: make(map[string]*models.OccurrenceLog)}
}

func (l *fakeOccurrenceLedger) SentInWindow(_ context.Context, reminderID uint, from, to time.Time) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, row := range l.rows {
		if row.ReminderID != reminderID || row.Status != models.StatusSent || row.SentAt == nil {
			continue
		}
		if !row.SentAt.Before(from) && !row.SentAt.After(to) {
			return true, nil
		}
	}
	return false, nil
}

func (l *fakeOccurrenceLedger) Claim(_ context.Context, row *models.OccurrenceLog) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	existing, ok := l.rows[row.OccurrenceKey]
	if !ok {
		copied := *row
		l.rows[row.OccurrenceKey] = &copied
		return true, nil
	}
	if existing.Status == models.StatusError ||
		(existing.Status == models.StatusPending && existing.ClaimedAt.Before(row.ClaimedAt.Add(-StaleClaimAge))) {
		existing.Status = models.StatusPending
		existing.ClaimedAt = row.ClaimedAt
		existing.ErrorMessage = ""
		return true, nil
	}
	return false, nil
}

func (l *fakeOccurrenceLedger) MarkSent(_ context.Context, key string, channel models.Channel, payload []byte, at time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if row, ok := l.rows[key]; ok {
		row.Status = models.StatusSent
		row.Channel = channel
		row.Payload = payload
		sentAt := at
		row.SentAt = &sentAt
	}
	return nil
}

func (l *fakeOccurrenceLedger) MarkError(_ context.Context, key string, channel models.Channel, message string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if row, ok := l.rows[key]; ok {
		row.Status = models.StatusError
		row.Channel = channel
		row.ErrorMessage = message
	}
	return nil
}

func (l *fakeOccurrenceLedger) row(key string) *models.OccurrenceLog {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rows[key]
}

type fakeAlertLedger struct {
	mu   sync.Mutex
	rows map[string]*models.MissedActivityAlert
}

func newFakeAlertLedger() *fakeAlertLedger {
	return &fakeAlertLedger{rows: make(map[string]*models.MissedActivityAlert)}
}

func (l *fakeAlertLedger) Claim(_ context.Context, row *models.MissedActivityAlert) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	existing, ok := l.rows[row.AlertKey]
	if !ok {
		copied := *row
		l.rows[row.AlertKey] = &copied
		return true, nil
	}
	if existing.Status == models.StatusError ||
		(existing.Status == models.StatusPending && existing.ClaimedAt.Before(row.ClaimedAt.Add(-StaleClaimAge))) {
		existing.Status = models.StatusPending
		existing.ClaimedAt = row.ClaimedAt
		existing.ErrorMessage = ""
		return true, nil
	}
	return false, nil
}

func (l *fakeAlertLedger) MarkSent(_ context.Context, key string, channel models.Channel, at time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if row, ok := l.rows[key]; ok {
		row.Status = models.StatusSent
		row.Channel = channel
		sentAt := at
		row.SentAt = &sentAt
	}
	return nil
}

func (l *fakeAlertLedger) MarkError(_ context.Context, key string, channel models.Channel, message string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if row, ok := l.rows[key]; ok {
		row.Status = models.StatusError
		row.Channel = channel
		row.ErrorMessage = message
	}
	return nil
}

func (l *fakeAlertLedger) row(key string) *models.MissedActivityAlert {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rows[key]
}

type pushCall struct {
	destination string
	summary     string
	payload     Payload
}

type fakePusher struct {
	mu    sync.Mutex
	calls []pushCall
	err   error
}

func (p *fakePusher) Push(_ context.Context, destinationID, summary string, payload Payload) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.calls = append(p.calls, pushCall{destination: destinationID, summary: summary, payload: payload})
	return nil
}

func (p *fakePusher) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func (p *fakePusher) setErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

type mailCall struct {
	patient models.Patient
}

type fakeMailer struct {
	mu    sync.Mutex
	calls []mailCall
	err   error
}

func (m *fakeMailer) SendMissedActivityEmail(patient models.Patient, _ *time.Time, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.calls = append(m.calls, mailCall{patient: patient})
	return nil
}
