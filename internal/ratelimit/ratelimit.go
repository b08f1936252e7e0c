package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// Tier is one independent window. A request must satisfy every tier.
type Tier struct {
	Name  string
	Limit int
	TTL   time.Duration
}

// Window is the state of one tier right after a hit.
type Window struct {
	Count   int
	ResetIn time.Duration
}

// Store counts hits. Hit increments every tier for key atomically and
// returns the windows in tier order.
type Store interface {
	Hit(ctx context.Context, key string, tiers []Tier) ([]Window, error)
}

type Decision struct {
	Allowed bool
	// Tier names the first exceeded tier when Allowed is false.
	Tier       string
	RetryAfter time.Duration
}

type Limiter struct {
	store Store
	tiers []Tier
}

func New(store Store, tiers ...Tier) *Limiter {
	return &Limiter{store: store, tiers: tiers}
}

func (l *Limiter) Tiers() []Tier {
	return l.tiers
}

// Allow records a hit for key. When the store fails the request is allowed
// and the error is returned so the caller can log it.
func (l *Limiter) Allow(ctx context.Context, key string) (Decision, error) {
	if len(l.tiers) == 0 {
		return Decision{Allowed: true}, nil
	}

	windows, err := l.store.Hit(ctx, key, l.tiers)
	if err != nil {
		return Decision{Allowed: true}, fmt.Errorf("rate limit store: %w", err)
	}
	if len(windows) != len(l.tiers) {
		return Decision{Allowed: true}, fmt.Errorf("rate limit store returned %d windows for %d tiers", len(windows), len(l.tiers))
	}

	decision := Decision{Allowed: true}
	for i, tier := range l.tiers {
		if windows[i].Count <= tier.Limit {
			continue
		}
		if decision.Allowed {
			decision.Allowed = false
			decision.Tier = tier.Name
		}
		if windows[i].ResetIn > decision.RetryAfter {
			decision.RetryAfter = windows[i].ResetIn
		}
	}

	return decision, nil
}

// Key builds the limiter key for one client, principal and endpoint.
// userID 0 means the request is anonymous.
func Key(ip string, userID int64, endpoint string) string {
	user := "anonymous"
	if userID != 0 {
		user = strconv.FormatInt(userID, 10)
	}
	return ip + ":" + user + ":" + endpoint
}
