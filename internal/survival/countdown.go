// Package survival implements the empty-garden countdown: once the grid has
// no living plants the player has a shrinking window to replant before the
// run ends.
package survival

import (
	"errors"
	"log/slog"
	"math"
	"time"
)

// Config shapes the countdown window.
type Config struct {
	Base      time.Duration `yaml:"base"`
	Step      time.Duration `yaml:"step"`       // removed per ScoreStep
	ScoreStep float64       `yaml:"score_step"` // score per step
	Floor     time.Duration `yaml:"floor"`
}

// DefaultConfig returns a 10s window that loses 1s per 100000 score, never
// shorter than 100ms.
func DefaultConfig() Config {
	return Config{
		Base:      10 * time.Second,
		Step:      time.Second,
		ScoreStep: 100000,
		Floor:     100 * time.Millisecond,
	}
}

// Validate checks the floor is positive and below the base window.
func (c Config) Validate() error {
	if c.Floor <= 0 {
		return errors.New("survival floor must be positive")
	}
	if c.Base < c.Floor {
		return errors.New("survival base must be at least the floor")
	}
	if c.Step < 0 || c.ScoreStep <= 0 {
		return errors.New("survival step and score_step must be positive")
	}
	return nil
}

// BaseDuration is the full window granted at score. Non-increasing in score
// and never below Floor.
func (c Config) BaseDuration(score float64) time.Duration {
	n := 0.0
	if score > 0 {
		n = math.Floor(score / c.ScoreStep)
	}
	// Clamp before converting so huge scores cannot overflow.
	cut := float64(c.Step) * n
	if cut >= float64(c.Base-c.Floor) {
		return c.Floor
	}
	return max(c.Base-time.Duration(cut), c.Floor)
}

// Status is the countdown as seen by a caller.
type Status struct {
	Active    bool          `json:"active"`
	Remaining time.Duration `json:"remaining"`
	Base      time.Duration `json:"base"`
	Expired   bool          `json:"expired"`
	Started   bool          `json:"started"` // became active on this observation
}

// Countdown is the Inactive/Active(remaining) state machine.
type Countdown struct {
	cfg       Config
	active    bool
	expired   bool
	remaining time.Duration
	base      time.Duration
}

// New creates an inactive countdown.
func New(cfg Config) *Countdown {
	return &Countdown{cfg: cfg}
}

// Config returns the settings in use.
func (c *Countdown) Config() Config { return c.cfg }

// Observe feeds one tick. An empty grid activates the countdown with the full
// window for score; the activation tick is not charged. While active the
// window shrinks by elapsed, and reaching zero expires the run for good.
// A replanted grid found here also ends the countdown.
func (c *Countdown) Observe(occupied int, score float64, elapsed time.Duration) Status {
	if c.expired {
		return c.Status()
	}
	if occupied > 0 {
		if c.active {
			c.Cancel()
		}
		return c.Status()
	}
	if !c.active {
		c.active = true
		c.base = c.cfg.BaseDuration(score)
		c.remaining = c.base
		slog.Info("survival countdown started", "window", c.base, "score", score)
		st := c.Status()
		st.Started = true
		return st
	}
	c.remaining -= elapsed
	if c.remaining <= 0 {
		c.remaining = 0
		c.expired = true
		slog.Info("survival countdown expired", "score", score)
	}
	return c.Status()
}

// Cancel stops an active countdown. Expiry is final and cannot be cancelled.
func (c *Countdown) Cancel() {
	if c.expired || !c.active {
		return
	}
	c.active = false
	c.remaining = 0
	slog.Info("survival countdown cancelled")
}

// Status reports the current state.
func (c *Countdown) Status() Status {
	return Status{
		Active:    c.active,
		Remaining: c.remaining,
		Base:      c.base,
		Expired:   c.expired,
	}
}

// Expired reports whether the run has ended.
func (c *Countdown) Expired() bool { return c.expired }
