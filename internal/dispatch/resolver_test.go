package dispatch

import (
	"carelog/internal/models"
	"context"
	"errors"
	"testing"
)

func TestResolverGroupTakesPriority(t *testing.T) {
	memberships := &fakeMembershipStore{
		groups: map[uint][]string{10: {"channel-a", "channel-b"}},
		direct: map[uint]string{10: "direct-10"},
	}
	resolver := NewResolver(memberships)

	recipients, err := resolver.Resolve(context.Background(), 10)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if recipients.Channel != models.ChannelGroup {
		t.Errorf("channel = %q, want group", recipients.Channel)
	}
	if len(recipients.Destinations) != 2 {
		t.Errorf("destinations = %v, want both group channels", recipients.Destinations)
	}
}

func TestResolverDirectFallback(t *testing.T) {
	memberships := &fakeMembershipStore{
		groups: map[uint][]string{},
		direct: map[uint]string{10: "direct-10"},
	}
	resolver := NewResolver(memberships)

	recipients, err := resolver.Resolve(context.Background(), 10)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if recipients.Channel != models.ChannelDirect {
		t.Errorf("channel = %q, want direct", recipients.Channel)
	}
	if len(recipients.Destinations) != 1 || recipients.Destinations[0] != "direct-10" {
		t.Errorf("destinations = %v, want [direct-10]", recipients.Destinations)
	}
}

func TestResolverUnresolved(t *testing.T) {
	resolver := NewResolver(&fakeMembershipStore{groups: map[uint][]string{}, direct: map[uint]string{}})

	_, err := resolver.Resolve(context.Background(), 10)
	if !errors.Is(err, ErrRecipientUnresolved) {
		t.Errorf("error = %v, want ErrRecipientUnresolved", err)
	}
}

func TestResolveGroupsHasNoDirectFallback(t *testing.T) {
	memberships := &fakeMembershipStore{
		groups: map[uint][]string{},
		direct: map[uint]string{10: "direct-10"},
	}
	resolver := NewResolver(memberships)

	_, err := resolver.ResolveGroups(context.Background(), 10)
	if !errors.Is(err, ErrRecipientUnresolved) {
		t.Errorf("error = %v, want ErrRecipientUnresolved (no direct fallback for alerts)", err)
	}
}
