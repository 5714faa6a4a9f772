package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/terraform-garden/internal/economy"
	"github.com/talgya/terraform-garden/internal/engine"
	"github.com/talgya/terraform-garden/internal/weather"
)

// Session runs console commands against one simulation.
type Session struct {
	sim  *engine.Simulation
	out  io.Writer
	step time.Duration // simulated time per tick while waiting
}

// NewSession creates a session. step is the tick size used by "wait".
func NewSession(sim *engine.Simulation, out io.Writer, step time.Duration) *Session {
	if step <= 0 {
		step = 100 * time.Millisecond
	}
	return &Session{sim: sim, out: out, step: step}
}

// Run reads commands from in until quit, EOF, game over or ctx is done.
// Command errors are printed and the session continues.
func (s *Session) Run(ctx context.Context, in io.Reader) error {
	sc := bufio.NewScanner(in)
	s.printf("Type 'help' for commands.\n")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.printf("> ")
		if !sc.Scan() {
			return sc.Err()
		}
		cmd, err := Parse(sc.Text())
		if errors.Is(err, ErrEmpty) {
			continue
		}
		if err != nil {
			s.printf("%v\n", err)
			continue
		}
		quit, err := s.Execute(cmd)
		if err != nil {
			s.printf("error: %v\n", err)
		}
		if quit || s.sim.GameOver() {
			return nil
		}
	}
}

// Execute runs one command. It reports whether the session should end.
func (s *Session) Execute(cmd Command) (quit bool, err error) {
	switch cmd.Verb {
	case VerbPlant:
		name := s.seedName(cmd.Seed)
		if err := s.sim.Sow(cmd.Row, cmd.Col, name); err != nil {
			if errors.Is(err, economy.ErrNoSeed) {
				if alt := s.suggestSeed(cmd.Seed); alt != "" {
					return false, fmt.Errorf("%w, did you mean %q?", err, alt)
				}
			}
			return false, err
		}
		s.printf("planted %s at (%d,%d)\n", name, cmd.Row, cmd.Col)
	case VerbBuy:
		p, err := s.sim.Purchase(cmd.Slot)
		if err != nil {
			return false, err
		}
		if cmd.Row < 0 {
			s.sim.Stash(p)
			s.printf("bought %s, seed added to pouch\n", p.Name)
			return false, nil
		}
		if err := s.sim.PlantAt(cmd.Row, cmd.Col, p); err != nil {
			// A bought plant that can't be placed goes to the pouch.
			s.sim.Stash(p)
			return false, fmt.Errorf("%w (seed kept in pouch)", err)
		}
		s.printf("bought and planted %s at (%d,%d)\n", p.Name, cmd.Row, cmd.Col)
	case VerbRefresh:
		cost := s.sim.RefreshCost()
		if err := s.sim.RefreshOffers(); err != nil {
			return false, err
		}
		s.printf("shop refreshed for %s fruit\n", fruit(cost))
		s.shop()
	case VerbUproot:
		if err := s.sim.Remove(cmd.Row, cmd.Col); err != nil {
			return false, err
		}
		s.printf("cleared (%d,%d)\n", cmd.Row, cmd.Col)
	case VerbWait:
		s.wait(cmd.Duration)
	case VerbStatus:
		s.status()
	case VerbGrid:
		s.printf("%s", s.sim.Grid())
	case VerbShop:
		s.shop()
	case VerbPouch:
		s.pouch()
	case VerbEvents:
		s.events(cmd.Count)
	case VerbHelp:
		s.printf("%s", Help())
	case VerbQuit:
		return true, nil
	default:
		return false, fmt.Errorf("%w %q", ErrUnknownCommand, cmd.Verb)
	}
	return false, nil
}

// seedName resolves a typed seed name against the pouch, ignoring case.
func (s *Session) seedName(typed string) string {
	for _, sp := range s.sim.Pouch() {
		if strings.EqualFold(sp.Name, typed) {
			return sp.Name
		}
	}
	return typed
}

// suggestSeed offers the nearest pouch seed name for a typo.
func (s *Session) suggestSeed(typed string) string {
	var names []string
	for _, sp := range s.sim.Pouch() {
		names = append(names, sp.Name)
	}
	return Closest(typed, names, 3)
}

func (s *Session) wait(d time.Duration) {
	for elapsed := time.Duration(0); elapsed < d && !s.sim.GameOver(); {
		step := min(s.step, d-elapsed)
		rep := s.sim.Tick(step)
		elapsed += step
		for _, e := range rep.Events {
			s.printf("[%s] %s\n", engine.FormatClock(e.At), e.Description)
		}
	}
	if s.sim.GameOver() {
		s.printf("GAME OVER: final score %s\n", fruit(s.sim.Score()))
	}
}

func (s *Session) status() {
	sum := s.sim.Summary()
	s.printf("clock %s  score %s  fruit %s  tier %d  inflation x%.1f\n",
		engine.FormatClock(sum.Clock), fruit(sum.Score), fruit(sum.Fruit), sum.Tier, sum.Inflation)
	if next, ok := s.sim.NextTierScore(); ok {
		s.printf("next tier at %s\n", fruit(next))
	}
	w := sum.Weather
	switch w.Phase {
	case weather.Calm:
		s.printf("weather calm, forecast %s\n", sum.Forecast)
	default:
		s.printf("weather %s %s, %s left\n", w.Kind, w.Phase, w.Remaining.Round(time.Second))
	}
	if sum.Countdown.Active {
		s.printf("GARDEN EMPTY: %s to replant\n", sum.Countdown.Remaining.Round(100*time.Millisecond))
	}
	s.printf("%d planted, %d cratered\n", sum.Occupied, sum.Dented)
}

func (s *Session) shop() {
	for _, o := range s.sim.Offers() {
		sp := o.Species
		s.printf("  [%d] %-20s tier %-2d %s/s for %s  price %s\n",
			o.Slot, sp.Name, sp.Tier, humanize.Ftoa(sp.Rate), sp.Lifespan.Round(time.Second), fruit(o.Price))
	}
	s.printf("  refresh costs %s\n", fruit(s.sim.RefreshCost()))
}

func (s *Session) pouch() {
	seeds := s.sim.Pouch()
	if len(seeds) == 0 {
		s.printf("pouch is empty\n")
		return
	}
	for _, sp := range seeds {
		s.printf("  %s (tier %d)\n", sp.Name, sp.Tier)
	}
}

func (s *Session) events(n int) {
	events := s.sim.Events()
	if len(events) > n {
		events = events[len(events)-n:]
	}
	for _, e := range events {
		s.printf("[%s] %-8s %s\n", engine.FormatClock(e.At), e.Category, e.Description)
	}
}

func (s *Session) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

// fruit renders an amount as a whole number with thousands separators.
func fruit(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return "-"
	}
	return humanize.Comma(int64(math.Floor(v)))
}
