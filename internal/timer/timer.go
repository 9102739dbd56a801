// Package timer implements the countdown authority: clients count down on
// their own, and exactly one of them, named by ManagedBy, may report expiry
// for the current generation.
package timer

import (
	"math"
	"time"

	"github.com/dom/trivia-night/internal/domain"
)

// ServerAuthority is the ManagedBy value for timers fired by the server's
// Scheduler instead of a client.
const ServerAuthority = "server"

// Reset re-arms the countdown. Player actions are revoked and the generation
// moves on, so expiry reports for earlier countdowns become stale.
func Reset(t *domain.TimerState, durationSeconds int, managedBy string, now time.Time) {
	t.Status = domain.TimerStatusReset
	t.DurationSeconds = durationSeconds
	t.Direction = domain.TimerBackward
	t.Authorized = false
	t.ManagedBy = managedBy
	t.Timestamp = now
	t.Generation++
}

// Start begins the countdown and authorizes player actions.
func Start(t *domain.TimerState, now time.Time) {
	t.Status = domain.TimerStatusStart
	t.Authorized = true
	t.Timestamp = now
}

// Stop pauses the countdown and revokes player actions. The duration keeps
// the seconds that were left so a later Start resumes from there.
func Stop(t *domain.TimerState, now time.Time) {
	if t.Status == domain.TimerStatusStart {
		t.DurationSeconds = int(math.Ceil(Remaining(*t, now).Seconds()))
	}
	t.Status = domain.TimerStatusStop
	t.Authorized = false
	t.Timestamp = now
}

// End marks the countdown as consumed.
func End(t *domain.TimerState, now time.Time) {
	t.Status = domain.TimerStatusEnd
	t.Authorized = false
	t.Timestamp = now
}

// CheckExpiry decides whether an expiry report applies. A caller other than
// ManagedBy gets an InvalidActionError. A report for another generation, or
// for a countdown that is not running, is a duplicate and returns false.
func CheckExpiry(t *domain.TimerState, callerID string, generation int64) (bool, error) {
	if callerID != t.ManagedBy {
		return false, domain.InvalidAction("countdown is managed by %q", t.ManagedBy)
	}
	if generation != t.Generation || t.Status != domain.TimerStatusStart {
		return false, nil
	}
	return true, nil
}

// Remaining is the time left on a running countdown as seen at now.
func Remaining(t domain.TimerState, now time.Time) time.Duration {
	if t.Status != domain.TimerStatusStart {
		return time.Duration(t.DurationSeconds) * time.Second
	}
	left := t.Timestamp.Add(time.Duration(t.DurationSeconds) * time.Second).Sub(now)
	if left < 0 {
		return 0
	}
	return left
}
