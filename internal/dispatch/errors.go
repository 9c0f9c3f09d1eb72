package dispatch

import (
	"errors"
	"fmt"
)

var (
	// ErrRecipientUnresolved means a patient has neither an active group
	// membership with a channel id nor a personal messaging identity.
	ErrRecipientUnresolved = errors.New("no deliverable channel for patient")
)

// TransportError carries the status code and body of a failed push call
// so the ledger can record what the messaging platform actually said.
type TransportError struct {
	StatusCode int
	Body       string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("push transport returned %d: %s", e.StatusCode, e.Body)
}
