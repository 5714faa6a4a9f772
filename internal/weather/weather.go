// Package weather drives the garden's event engine: a calm/warning/active
// state machine over weighted random events, the score-scaled modifiers those
// events impose on plants, and an intentionally unreliable forecast.
package weather

import (
	"fmt"
	"math"
	"strings"

	"github.com/talgya/terraform-garden/internal/plants"
)

// Kind identifies a weather event. None is the "nothing happens" outcome.
type Kind uint8

const (
	None Kind = iota
	Drought
	Rain
	Hailstorm
	Locusts
	Eclipse
	Meteor
)

// Kinds lists every real event in weight-table order.
var Kinds = []Kind{Drought, Rain, Hailstorm, Locusts, Eclipse, Meteor}

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Drought:
		return "drought"
	case Rain:
		return "rain"
	case Hailstorm:
		return "hailstorm"
	case Locusts:
		return "locusts"
	case Eclipse:
		return "eclipse"
	case Meteor:
		return "meteor"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ParseKind is the inverse of String, case-insensitive.
func ParseKind(s string) (Kind, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for _, k := range append([]Kind{None}, Kinds...) {
		if k.String() == want {
			return k, nil
		}
	}
	return None, fmt.Errorf("unknown weather kind %q", s)
}

// ParseKinds splits a comma-separated list of kind names. Empty input
// yields no kinds.
func ParseKinds(s string) ([]Kind, error) {
	var kinds []Kind
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		k, err := ParseKind(part)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// Destructive reports whether the event craters cells when it starts.
func (k Kind) Destructive() bool {
	return k == Hailstorm || k == Meteor
}

// Phase is the state of the event machine.
type Phase uint8

const (
	Calm Phase = iota
	Warning
	Active
)

func (p Phase) String() string {
	switch p {
	case Calm:
		return "calm"
	case Warning:
		return "warning"
	case Active:
		return "active"
	default:
		return "unknown"
	}
}

// steps returns how many whole score steps have been reached.
func steps(score, step float64) float64 {
	if step <= 0 || score <= 0 {
		return 0
	}
	return math.Floor(score / step)
}

// DroughtFactor is the aging multiplier while a drought is active.
func (c Config) DroughtFactor(score float64) float64 {
	s := math.Min(math.Max(score, 0), c.DroughtScoreCap)
	return c.DroughtBase * (1 + c.DroughtStepBonus*steps(s, c.DroughtScoreStep))
}

// LocustMultiplier is the yield multiplier while locusts are active.
func (c Config) LocustMultiplier(score float64) float64 {
	m := c.LocustBase
	if c.LocustScoreDivisor > 0 {
		m -= math.Max(score, 0) / c.LocustScoreDivisor
	}
	return math.Max(c.LocustFloor, m)
}

// modifiersFor maps an active event onto plant modifiers.
// Rain and the destructive events act through Strike instead.
func (c Config) modifiersFor(k Kind, score float64) plants.Modifiers {
	m := plants.Neutral()
	switch k {
	case Drought:
		m.Aging = c.DroughtFactor(score)
	case Locusts:
		m.Yield = c.LocustMultiplier(score)
	case Eclipse:
		m.Yield = 0
	}
	return m
}
