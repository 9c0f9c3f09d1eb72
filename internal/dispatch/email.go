package dispatch

import (
	"carelog/internal/models"
	"fmt"
	"os"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// FallbackMailer emails a caregiver when a missed-activity alert has no
// group channel to go to. Email is a last resort, not a second push, so
// channel exclusivity on the messaging platform is unaffected.
type FallbackMailer interface {
	SendMissedActivityEmail(patient models.Patient, lastActivity *time.Time, now time.Time) error
}

type EmailService struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

func NewEmailService() *EmailService {
	apiKey := os.Getenv("SENDGRID_API_KEY")
	fromEmail := os.Getenv("SENDGRID_NOTIFICATIONS_FROM_EMAIL")
	fromName := os.Getenv("SENDGRID_FROM_NAME")

	client := sendgrid.NewSendClient(apiKey)

	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

// SendMissedActivityEmail notifies the caregiver that the patient has
// gone quiet
func (s *EmailService) SendMissedActivityEmail(patient models.Patient, lastActivity *time.Time, now time.Time) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail("", patient.CaregiverEmail)
	subject := fmt.Sprintf("Activity alert for %s", patient.DisplayName)

	var plainContent string
	if lastActivity == nil {
		plainContent = fmt.Sprintf("%s has not logged any health activity yet today.", patient.DisplayName)
	} else {
		plainContent = fmt.Sprintf("%s has not logged any health activity since %s.",
			patient.DisplayName, lastActivity.Format("Mon Jan 2, 3:04 PM"))
	}
	htmlContent := fmt.Sprintf("<p>%s</p><p>You may want to check in with them.</p>", plainContent)

	message := mail.NewSingleEmail(from, subject, to, plainContent, htmlContent)

	response, err := s.client.Send(message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("failed to send alert email to %s: %d", patient.CaregiverEmail, response.StatusCode)
	}
	return nil
}
