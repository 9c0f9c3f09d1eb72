package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sendgrid/rest"
)

// pushTimeout bounds each transport call. A timeout surfaces as an
// error on the claimed occurrence; the next scheduler tick retries it
// through the ledger, never this client.
const pushTimeout = 10 * time.Second

// Pusher delivers one composed payload to one destination on the
// external messaging platform. It must not retry internally.
type Pusher interface {
	Push(ctx context.Context, destinationID, summary string, payload Payload) error
}

// PushClient talks to the messaging platform's REST API.
type PushClient struct {
	baseURL string
	token   string
}

func NewPushClient(baseURL, token string) *PushClient {
	return &PushClient{baseURL: baseURL, token: token}
}

type pushMessage struct {
	DestinationID string  `json:"destination_id"`
	Summary       string  `json:"summary"`
	Payload       Payload `json:"payload"`
}

func (c *PushClient) Push(ctx context.Context, destinationID, summary string, payload Payload) error {
	body, err := json.Marshal(pushMessage{
		DestinationID: destinationID,
		Summary:       summary,
		Payload:       payload,
	})
	if err != nil {
		return fmt.Errorf("failed to encode push message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, pushTimeout)
	defer cancel()

	response, err := rest.SendWithContext(ctx, rest.Request{
		Method:  rest.Post,
		BaseURL: c.baseURL + "/v1/messages",
		Headers: map[string]string{
			"Authorization": "Bearer " + c.token,
			"Content-Type":  "application/json",
		},
		Body: body,
	})
	if err != nil {
		return fmt.Errorf("push request failed: %w", err)
	}
	if response.StatusCode >= 300 {
		return &TransportError{StatusCode: response.StatusCode, Body: response.Body}
	}
	return nil
}
