// Package engine provides the garden simulation aggregate and the tick loop
// that drives it.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/talgya/terraform-garden/internal/garden"
	"github.com/talgya/terraform-garden/internal/survival"
	"github.com/talgya/terraform-garden/internal/weather"
)

// TickReport is what one Tick did.
type TickReport struct {
	Tick         uint64             `json:"tick"`
	Clock        time.Duration      `json:"clock"`
	Yield        float64            `json:"yield"`
	Weather      weather.Transition `json:"weather"`
	Withered     int                `json:"withered"`
	Destroyed    int                `json:"destroyed"`
	Craters      int                `json:"craters"`
	Cleared      int                `json:"cleared"` // expired craters
	TierUnlocked int                `json:"tier_unlocked"`
	Tier         int                `json:"tier"`
	Refreshed    bool               `json:"refreshed"` // shop auto-refreshed
	Countdown    survival.Status    `json:"countdown"`
	Events       []Event            `json:"events"`
	GameOver     bool               `json:"game_over"`
}

// Tick advances the run by elapsed. The order is fixed: weather, plants,
// one-shot weather effects and crater expiry, credit, tier and shop,
// survival. After game over Tick changes nothing.
func (s *Simulation) Tick(elapsed time.Duration) TickReport {
	if s.gameOver {
		return TickReport{
			Tick:      s.ticks,
			Clock:     s.clock,
			Tier:      s.economy.Tier(),
			Countdown: s.countdown.Status(),
			GameOver:  true,
		}
	}
	if elapsed < 0 {
		elapsed = 0
	}
	s.ticks++
	s.clock += elapsed
	rep := TickReport{Tick: s.ticks, Clock: s.clock}

	// 1. Weather.
	score := s.economy.Score()
	rep.Weather = s.weather.Advance(elapsed, score)
	switch rep.Weather.Change {
	case weather.Warned:
		s.record(CategoryWeather, "%s incoming", rep.Weather.Kind)
	case weather.Started:
		s.stats.Weather++
		s.record(CategoryWeather, "%s started", rep.Weather.Kind)
	case weather.Ended:
		s.record(CategoryWeather, "%s ended", rep.Weather.Kind)
	}

	// 2. Plants.
	mods := s.weather.Modifiers(score)
	for _, pos := range s.grid.Planted() {
		cell, err := s.grid.Get(pos)
		if err != nil || cell.Plant == nil {
			continue
		}
		rep.Yield += cell.Plant.Advance(elapsed, mods)
		if cell.Plant.Withered() {
			_, _ = s.grid.RemoveAt(pos)
			rep.Withered++
			s.record(CategoryPlant, "%s withered at %s", cell.Plant.Name, pos)
		}
	}

	// 3. One-shot effects of an event that just started, then crater expiry.
	if rep.Weather.Change == weather.Started {
		imp := s.weather.Strike(rep.Weather.Kind, s.grid, s.clock)
		rep.Destroyed = imp.Destroyed
		rep.Craters = len(imp.Craters)
		if imp.Destroyed > 0 || len(imp.Craters) > 0 {
			s.record(CategoryWeather, "%s destroyed %d plants and left %d craters",
				imp.Kind, imp.Destroyed, len(imp.Craters))
		}
		if imp.Extended > 0 {
			s.record(CategoryWeather, "rain extended %d plants", imp.Extended)
		}
	}
	rep.Cleared = s.expireCraters()

	// 4. Credit.
	s.economy.Credit(rep.Yield)
	s.stats.Harvested += rep.Yield
	s.stats.Withered += rep.Withered
	s.stats.Destroyed += rep.Destroyed

	// 5. Tier, inflation and shop.
	rep.TierUnlocked = s.economy.UpdateTier()
	rep.Tier = s.economy.Tier()
	if rep.TierUnlocked > 0 {
		s.record(CategoryEconomy, "tier %d unlocked", rep.Tier)
	}
	rep.Refreshed = s.economy.Advance(elapsed)

	// 6. Survival.
	rep.Countdown = s.countdown.Observe(s.grid.Occupied(), s.economy.Score(), elapsed)
	if rep.Countdown.Started {
		s.record(CategorySurvival, "garden is empty: %s to replant", rep.Countdown.Remaining)
	}

	// 7. Terminal state.
	if rep.Countdown.Expired {
		s.gameOver = true
		s.record(CategorySurvival, "the garden died")
		slog.Info("game over",
			"score", s.economy.Score(),
			"tier", s.economy.Tier(),
			"clock", s.clock,
			"ticks", s.ticks,
		)
	}
	rep.GameOver = s.gameOver

	rep.Events = s.pending
	s.pending = nil

	slog.Debug("tick",
		"tick", s.ticks,
		"yield", rep.Yield,
		"occupied", s.grid.Occupied(),
		"weather", s.weather.State().Phase,
	)
	return rep
}

// expireCraters clears craters older than the configured lifetime.
func (s *Simulation) expireCraters() int {
	life := s.cfg.Garden.CraterLifetime
	if life <= 0 {
		return 0
	}
	cleared := 0
	for _, pos := range s.grid.Positions(garden.CellDented) {
		cell, err := s.grid.Get(pos)
		if err != nil || s.clock-cell.DentedAt < life {
			continue
		}
		if s.grid.ClearCrater(pos) == nil {
			cleared++
		}
	}
	if cleared > 0 {
		s.record(CategoryPlant, "%d craters filled in", cleared)
	}
	return cleared
}

// Engine drives a simulation forward at a fixed timestep.
type Engine struct {
	Tick     uint64        // Current tick counter (monotonic, never resets)
	Speed    float64       // Multiplier: 1.0 = real-time, 0 = paused
	Interval time.Duration // Simulated time per tick (default 100ms)
	MaxTicks uint64        // Stop after this many ticks; 0 runs until stopped

	// Unthrottled skips the wall-clock sleep; headless runs go as fast as
	// the CPU allows.
	Unthrottled bool

	// OnTick is called every tick with the simulated time to advance.
	OnTick func(tick uint64, elapsed time.Duration)

	running atomic.Bool
}

// NewEngine creates an engine with default settings.
func NewEngine() *Engine {
	return &Engine{
		Speed:    1.0,
		Interval: 100 * time.Millisecond,
	}
}

// Running reports whether Run is active.
func (e *Engine) Running() bool { return e.running.Load() }

// Run starts the loop. Blocks until Stop is called, ctx is done, or
// MaxTicks is reached. Returns ctx.Err() when cancelled.
func (e *Engine) Run(ctx context.Context) error {
	if e.Interval <= 0 {
		return fmt.Errorf("engine interval must be positive, got %s", e.Interval)
	}
	e.running.Store(true)
	defer e.running.Store(false)
	slog.Info("simulation engine started", "tick", e.Tick, "speed", e.Speed, "interval", e.Interval)

	for e.running.Load() {
		if err := ctx.Err(); err != nil {
			slog.Info("simulation engine cancelled", "tick", e.Tick)
			return err
		}
		if e.MaxTicks > 0 && e.Tick >= e.MaxTicks {
			break
		}
		if e.Speed <= 0 && !e.Unthrottled {
			// Paused; check again shortly.
			if err := sleep(ctx, 100*time.Millisecond); err != nil {
				return err
			}
			continue
		}

		start := time.Now()
		e.Step()
		if e.Unthrottled {
			continue
		}

		elapsed := time.Since(start)
		target := time.Duration(float64(e.Interval) / e.Speed)
		if elapsed < target {
			if err := sleep(ctx, target-elapsed); err != nil {
				return err
			}
		}
	}

	slog.Info("simulation engine stopped", "tick", e.Tick)
	return nil
}

// Stop halts the loop after the current tick. Safe to call from OnTick or
// another goroutine.
func (e *Engine) Stop() {
	e.running.Store(false)
}

// Step advances one tick without any pacing.
func (e *Engine) Step() {
	e.Tick++
	if e.OnTick != nil {
		e.OnTick(e.Tick, e.Interval)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// FormatClock renders simulated time as m:ss.
func FormatClock(d time.Duration) string {
	d = d.Round(time.Second)
	m := d / time.Minute
	sec := (d % time.Minute) / time.Second
	return fmt.Sprintf("%d:%02d", m, sec)
}
