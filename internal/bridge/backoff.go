package bridge

import "time"

// Default reconnect pacing, matching the backend bridge contract:
// 2s after the first failure, doubling to a 30s ceiling.
const (
	DefaultInitialDelay = 2 * time.Second
	DefaultMaxDelay     = 30 * time.Second
	DefaultMultiplier   = 2
)

// Backoff computes retry delays for the reconnect loop. Delays grow by
// the multiplier after every failure, capped at Max, and reset to
// Initial after a successful connection. Not safe for concurrent use;
// the supervisor is the sole owner.
type Backoff struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier int

	current time.Duration
}

// NewBackoff returns a Backoff with the default 2s/30s/x2 policy.
func NewBackoff() *Backoff {
	return &Backoff{
		Initial:    DefaultInitialDelay,
		Max:        DefaultMaxDelay,
		Multiplier: DefaultMultiplier,
	}
}

// Next returns the delay to wait before the next attempt and advances
// the policy for the attempt after that.
func (b *Backoff) Next() time.Duration {
	d := b.Delay()
	b.current = min(d*time.Duration(b.Multiplier), b.Max)
	return d
}

// Delay returns the current delay without advancing.
func (b *Backoff) Delay() time.Duration {
	if b.current == 0 {
		b.current = b.Initial
	}
	return b.current
}

// Reset restores the initial delay. Called after every successful
// connection so a later disconnect retries promptly.
func (b *Backoff) Reset() {
	b.current = b.Initial
}
