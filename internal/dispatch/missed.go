package dispatch

import (
	"carelog/internal/models"
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"
)

// InactivityThreshold is how long a patient can go without logging any
// health activity before the care group gets an alert.
const InactivityThreshold = 4 * time.Hour

// DispatchMissedActivity runs one inactivity pass over all patients.
// The dedup scope is one alert per patient per local calendar day,
// enforced by the alert ledger's key.
func (d *Dispatcher) DispatchMissedActivity(ctx context.Context) *Summary {
	summary := newSummary()

	patients, err := d.patients.All(ctx)
	if err != nil {
		log.Printf("Missed-activity dispatch %s: patient listing failed: %v", summary.InvocationID, err)
		summary.addError("patients", err.Error())
		return summary
	}
	summary.Checked = len(patients)

	now := d.clock.Now()
	group := new(errgroup.Group)
	group.SetLimit(d.poolSize())

	for _, patient := range patients {
		patient := patient
		group.Go(func() error {
			d.processPatientInactivity(ctx, patient, now, summary)
			return nil
		})
	}
	group.Wait()

	log.Printf("Missed-activity dispatch %s: checked=%d sent=%d skipped=%d errors=%d",
		summary.InvocationID, summary.Checked, summary.Sent, summary.Skipped, summary.Errors)
	return summary
}

func alertKey(patientID uint, now time.Time) string {
	return fmt.Sprintf("missed:%d:%s", patientID, now.Format("2006-01-02"))
}

func (d *Dispatcher) processPatientInactivity(ctx context.Context, patient models.Patient, now time.Time, summary *Summary) {
	key := alertKey(patient.ID, now)

	lastActivity, err := d.activity.LastActivity(ctx, patient.ID)
	if err != nil {
		summary.addError(key, "activity lookup failed: "+err.Error())
		return
	}
	if lastActivity != nil && now.Sub(*lastActivity) < InactivityThreshold {
		summary.addSkipped(key, "recent activity")
		return
	}

	row := &models.MissedActivityAlert{
		AlertKey:       key,
		PatientID:      patient.ID,
		Status:         models.StatusPending,
		LastActivityAt: lastActivity,
		ClaimedAt:      d.clock.Now(),
	}
	owned, err := d.alertLedger.Claim(ctx, row)
	if err != nil {
		summary.addError(key, "claim failed: "+err.Error())
		return
	}
	if !owned {
		summary.addSkipped(key, "already sent today")
		return
	}

	summaryText, payload := ComposeMissedActivity(patient.DisplayName, lastActivity, now)

	// Alerts go to the care group only; pushing to the inactive
	// patient's own device would tell the wrong person.
	recipients, err := d.resolver.ResolveGroups(ctx, patient.ID)
	if errors.Is(err, ErrRecipientUnresolved) {
		d.alertFallbackEmail(ctx, key, patient, lastActivity, now, summary)
		return
	}
	if err != nil {
		d.resolveAlertError(ctx, key, "", "recipient lookup failed: "+err.Error(), summary)
		return
	}

	var sendErr error
	for _, destination := range recipients.Destinations {
		if err := d.pusher.Push(ctx, destination, summaryText, payload); err != nil {
			sendErr = err
			break
		}
	}
	if sendErr != nil {
		d.resolveAlertError(ctx, key, recipients.Channel, sendErr.Error(), summary)
		return
	}

	if err := d.alertLedger.MarkSent(ctx, key, recipients.Channel, d.clock.Now()); err != nil {
		log.Printf("Failed to mark alert %s as sent: %v", key, err)
	}
	summary.addSent(key)
}

// alertFallbackEmail handles the no-group-channel case: email the
// caregiver when a mailer is configured and an address exists,
// otherwise record the alert as undeliverable.
func (d *Dispatcher) alertFallbackEmail(ctx context.Context, key string, patient models.Patient, lastActivity *time.Time, now time.Time, summary *Summary) {
	if d.mailer == nil || patient.CaregiverEmail == "" {
		d.resolveAlertError(ctx, key, "", "no group channel for patient", summary)
		return
	}

	if err := d.mailer.SendMissedActivityEmail(patient, lastActivity, now); err != nil {
		d.resolveAlertError(ctx, key, models.ChannelEmail, err.Error(), summary)
		return
	}
	if err := d.alertLedger.MarkSent(ctx, key, models.ChannelEmail, d.clock.Now()); err != nil {
		log.Printf("Failed to mark alert %s as sent: %v", key, err)
	}
	summary.addSent(key)
}

func (d *Dispatcher) resolveAlertError(ctx context.Context, key string, channel models.Channel, reason string, summary *Summary) {
	if err := d.alertLedger.MarkError(ctx, key, channel, reason); err != nil {
		log.Printf("Failed to mark alert %s as error: %v", key, err)
	}
	summary.addError(key, reason)
}
