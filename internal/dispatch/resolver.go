package dispatch

import (
	"carelog/internal/models"
	"context"
)

// Recipients is the resolved destination set for one occurrence. All
// destinations share a single channel: group fan-out and the direct
// channel are mutually exclusive, so a patient who is both a group
// member and individually reachable gets the notification once.
type Recipients struct {
	Channel      models.Channel
	Destinations []string
}

// Resolver picks delivery targets for a patient. Group memberships take
// priority; the direct channel is only used when no group resolves.
type Resolver struct {
	memberships MembershipStore
}

func NewResolver(memberships MembershipStore) *Resolver {
	return &Resolver{memberships: memberships}
}

// Resolve returns every resolvable group channel, or the direct channel
// as a fallback, or ErrRecipientUnresolved when the patient is
// unreachable on the messaging platform.
func (r *Resolver) Resolve(ctx context.Context, patientID uint) (*Recipients, error) {
	channels, err := r.memberships.GroupChannels(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if len(channels) > 0 {
		return &Recipients{Channel: models.ChannelGroup, Destinations: channels}, nil
	}

	direct, err := r.memberships.DirectChannel(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if direct != "" {
		return &Recipients{Channel: models.ChannelDirect, Destinations: []string{direct}}, nil
	}

	return nil, ErrRecipientUnresolved
}

// ResolveGroups resolves group channels only, with no direct fallback.
// Missed-activity alerts are addressed to the care group, not to the
// inactive patient's own device.
func (r *Resolver) ResolveGroups(ctx context.Context, patientID uint) (*Recipients, error) {
	channels, err := r.memberships.GroupChannels(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if len(channels) == 0 {
		return nil, ErrRecipientUnresolved
	}
	return &Recipients{Channel: models.ChannelGroup, Destinations: channels}, nil
}
