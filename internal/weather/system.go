package weather

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/terraform-garden/internal/entropy"
	"github.com/talgya/terraform-garden/internal/plants"
)

// Change describes what a single Advance did.
type Change uint8

const (
	NoChange Change = iota
	Quiet           // a check resolved to no event
	Warned          // an event was announced
	Started         // an event became active
	Ended           // an active event finished
)

func (c Change) String() string {
	switch c {
	case Quiet:
		return "quiet"
	case Warned:
		return "warned"
	case Started:
		return "started"
	case Ended:
		return "ended"
	default:
		return "none"
	}
}

// Transition reports the phase change, if any, made by Advance.
type Transition struct {
	Change Change
	Kind   Kind
}

// Forecast is the displayed guess about the next event.
type Forecast struct {
	Kind  Kind `json:"kind"`
	Known bool `json:"known"`
}

func (f Forecast) String() string {
	if !f.Known {
		return "unknown"
	}
	return f.Kind.String()
}

// State is a read-only view of the machine.
type State struct {
	Phase     Phase         `json:"phase"`
	Kind      Kind          `json:"kind"`      // warned or active kind
	Remaining time.Duration `json:"remaining"` // until the next phase change
}

// Streams are the independent random sources the system draws from.
// Forecast draws never advance Events, so forecast accuracy stays
// uncorrelated with the event actually chosen.
type Streams struct {
	Events   *entropy.Stream
	Forecast *entropy.Stream
	Strike   *entropy.Stream
}

// System is the event state machine. It is not safe for concurrent use.
type System struct {
	cfg     Config
	streams Streams
	noise   opensimplex.Noise

	phase    Phase
	kind     Kind
	timer    time.Duration
	upcoming Kind
	forecast Forecast
	strikes  int
}

// New creates a calm system whose first check fires after FirstCheck.
func New(cfg Config, streams Streams, noiseSeed int64) (*System, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("weather config: %w", err)
	}
	if streams.Events == nil || streams.Forecast == nil || streams.Strike == nil {
		return nil, fmt.Errorf("weather: all random streams are required")
	}
	s := &System{
		cfg:     cfg,
		streams: streams,
		noise:   opensimplex.NewNormalized(noiseSeed),
		phase:   Calm,
		timer:   cfg.FirstCheck,
	}
	s.roll(0)
	return s, nil
}

// Config returns the balance table in use.
func (s *System) Config() Config { return s.cfg }

// Weights returns the score-scaled outcome weights, None first.
func (s *System) Weights(score float64) []entropy.Weighted[Kind, float64] {
	return s.cfg.Weights.Scaled(score, s.cfg)
}

// Scaled applies score scaling to the base table. Drought and locust weights
// grow with each score step; meteor is zero below MeteorMinScore and never
// heavier than the lightest other event.
func (w Weights) Scaled(score float64, cfg Config) []entropy.Weighted[Kind, float64] {
	growth := 1 + cfg.WeightGrowthPerStep*steps(score, cfg.ScoreStep)

	out := make([]entropy.Weighted[Kind, float64], 0, len(Kinds)+1)
	out = append(out, entropy.Weighted[Kind, float64]{Outcome: None, Weight: w.None})

	lightest := math.Inf(1)
	for _, k := range Kinds {
		if k == Meteor {
			continue
		}
		weight := w.Of(k)
		if k == Drought || k == Locusts {
			weight *= growth
		}
		if weight > 0 {
			lightest = math.Min(lightest, weight)
		}
		out = append(out, entropy.Weighted[Kind, float64]{Outcome: k, Weight: weight})
	}

	meteor := w.Meteor
	if score < cfg.MeteorMinScore {
		meteor = 0
	} else if !math.IsInf(lightest, 1) {
		meteor = math.Min(meteor, lightest)
	}
	return append(out, entropy.Weighted[Kind, float64]{Outcome: Meteor, Weight: meteor})
}

// NextEventDelay is the calm period after an event ends.
func (s *System) NextEventDelay(score float64) time.Duration {
	d := s.cfg.CooldownBase - time.Duration(steps(score, s.cfg.ScoreStep))*s.cfg.CooldownStep
	return max(d, s.cfg.CooldownFloor)
}

// DroughtFactor is the aging multiplier a drought applies at score.
func (s *System) DroughtFactor(score float64) float64 { return s.cfg.DroughtFactor(score) }

// LocustMultiplier is the yield multiplier locusts apply at score.
func (s *System) LocustMultiplier(score float64) float64 { return s.cfg.LocustMultiplier(score) }

// Modifiers returns the plant modifiers for the current state.
// Warnings are harmless; only an active event applies.
func (s *System) Modifiers(score float64) plants.Modifiers {
	if s.phase != Active {
		return plants.Neutral()
	}
	return s.cfg.modifiersFor(s.kind, score)
}

// State returns the current phase, kind and time to the next change.
func (s *System) State() State {
	return State{Phase: s.phase, Kind: s.kind, Remaining: max(s.timer, 0)}
}

// Forecast returns the prediction for the upcoming event.
func (s *System) Forecast() Forecast { return s.forecast }

// Active reports the active event, or None.
func (s *System) Active() Kind {
	if s.phase == Active {
		return s.kind
	}
	return None
}

// Advance moves the machine forward by elapsed. At most one phase change
// happens per call; overshoot past a boundary is dropped.
func (s *System) Advance(elapsed time.Duration, score float64) Transition {
	if elapsed < 0 {
		elapsed = 0
	}
	s.timer -= elapsed
	if s.timer > 0 {
		return Transition{}
	}

	switch s.phase {
	case Calm:
		if s.upcoming == None {
			s.timer = s.cfg.QuietRecheck
			s.roll(score)
			return Transition{Change: Quiet}
		}
		s.kind = s.upcoming
		if s.cfg.WarningLead > 0 {
			s.phase = Warning
			s.timer = s.cfg.WarningLead
			slog.Debug("weather warning", "kind", s.kind, "lead", s.cfg.WarningLead)
			return Transition{Change: Warned, Kind: s.kind}
		}
		return s.start()
	case Warning:
		return s.start()
	case Active:
		ended := s.kind
		s.phase = Calm
		s.kind = None
		s.timer = s.NextEventDelay(score)
		s.roll(score)
		slog.Debug("weather event ended", "kind", ended, "next_check", s.timer)
		return Transition{Change: Ended, Kind: ended}
	}
	return Transition{}
}

func (s *System) start() Transition {
	s.phase = Active
	s.timer = s.streams.Events.Duration(s.cfg.DurationMin, s.cfg.DurationMax)
	slog.Debug("weather event started", "kind", s.kind, "duration", s.timer)
	return Transition{Change: Started, Kind: s.kind}
}

// roll pre-selects the next outcome from the event stream and the matching
// forecast from the forecast stream.
func (s *System) roll(score float64) {
	next, ok := entropy.Pick(s.streams.Events, s.Weights(score))
	if !ok {
		next = None
	}
	s.upcoming = next
	s.forecast = s.predict(next)
}

// predict guesses actual: unknown, the truth, or a wrong kind.
func (s *System) predict(actual Kind) Forecast {
	u := s.streams.Forecast.Float64()
	switch {
	case u < s.cfg.ForecastUnknown:
		return Forecast{}
	case u < s.cfg.ForecastUnknown+s.cfg.ForecastTrue:
		return Forecast{Kind: actual, Known: true}
	}
	wrong := make([]Kind, 0, len(Kinds))
	for _, k := range append([]Kind{None}, Kinds...) {
		if k != actual {
			wrong = append(wrong, k)
		}
	}
	k, _ := entropy.Pick(s.streams.Forecast, entropy.Uniform(wrong))
	return Forecast{Kind: k, Known: true}
}
