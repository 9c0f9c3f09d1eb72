package dispatch

import (
	"fmt"
	"time"
)

// Clock supplies the dispatcher's notion of "now". Schedule matching is
// timezone-sensitive, so the clock owns the location and tests can plug
// in fixed instants.
type Clock interface {
	Now() time.Time
}

type systemClock struct {
	loc *time.Location
}

// NewSystemClock returns a Clock reporting wall time in the named
// timezone. An empty name means UTC.
func NewSystemClock(timezone string) (Clock, error) {
	if timezone == "" {
		timezone = "UTC"
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid dispatch timezone %q: %w", timezone, err)
	}
	return &systemClock{loc: loc}, nil
}

func (c *systemClock) Now() time.Time {
	return time.Now().In(c.loc)
}
