// Package economy tracks a run's score, spendable fruit and tier ladder, and
// runs the seed shop whose prices inflate with score.
package economy

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/talgya/terraform-garden/internal/entropy"
	"github.com/talgya/terraform-garden/internal/plants"
)

var (
	ErrInsufficientFunds = errors.New("insufficient fruit")
	ErrInvalidOffer      = errors.New("invalid offer")
	ErrTierLocked        = errors.New("tier locked")
	ErrNoSeed            = errors.New("no such seed in pouch")
	ErrEmptyCatalog      = errors.New("catalog has no tier-1 species")
)

// Tier and inflation curves.
const (
	TierBase   = 100.0
	TierGrowth = 2.918

	InflationStep      = 0.10
	InflationScoreStep = 50000.0
)

// RequiredScore is the score needed to advance past tier.
// RequiredScore(1) is 100, the threshold for tier 2.
func RequiredScore(tier int) float64 {
	if tier < plants.MinTier {
		tier = plants.MinTier
	}
	return TierBase * math.Pow(TierGrowth, float64(tier-1))
}

// InflationMultiplier scales shop prices by 10% for every 50000 score.
func InflationMultiplier(score float64) float64 {
	if score <= 0 {
		return 1
	}
	return 1 + math.Floor(score/InflationScoreStep)*InflationStep
}

// Config holds the economy's starting balance and shop policy.
type Config struct {
	StartingFruit float64       `yaml:"starting_fruit"`
	StarterSeeds  int           `yaml:"starter_seeds"` // tier-1 seeds in the pouch at start
	OfferSlots    int           `yaml:"offer_slots"`
	Refresh       RefreshPolicy `yaml:"refresh"`
}

// RefreshPolicy decides what re-rolling the shop costs and when it happens
// on its own.
type RefreshPolicy struct {
	Cost     float64 `yaml:"cost"`   // first paid refresh; 0 makes refresh free
	Growth   float64 `yaml:"growth"` // cost multiplier per paid refresh
	OnUnlock bool    `yaml:"on_unlock"`

	Auto      bool          `yaml:"auto"`
	AutoBase  time.Duration `yaml:"auto_base"`
	AutoStep  time.Duration `yaml:"auto_step"` // shortened per inflation step
	AutoFloor time.Duration `yaml:"auto_floor"`
}

// DefaultConfig returns the stock economy.
func DefaultConfig() Config {
	return Config{
		StartingFruit: 150,
		StarterSeeds:  2,
		OfferSlots:    3,
		Refresh: RefreshPolicy{
			Cost:      50,
			Growth:    1.2,
			OnUnlock:  true,
			Auto:      false,
			AutoBase:  60 * time.Second,
			AutoStep:  5 * time.Second,
			AutoFloor: 10 * time.Second,
		},
	}
}

// Validate rejects unusable economy settings.
func (c Config) Validate() error {
	var errs []error
	if c.StartingFruit < 0 {
		errs = append(errs, errors.New("starting_fruit is negative"))
	}
	if c.StarterSeeds < 0 {
		errs = append(errs, errors.New("starter_seeds is negative"))
	}
	if c.OfferSlots < 1 {
		errs = append(errs, errors.New("offer_slots must be at least 1"))
	}
	if c.Refresh.Cost < 0 {
		errs = append(errs, errors.New("refresh cost is negative"))
	}
	if c.Refresh.Growth < 1 {
		errs = append(errs, errors.New("refresh growth must be at least 1"))
	}
	if c.Refresh.Auto && (c.Refresh.AutoFloor <= 0 || c.Refresh.AutoBase < c.Refresh.AutoFloor) {
		errs = append(errs, errors.New("auto refresh interval must be positive"))
	}
	return errors.Join(errs...)
}

// AutoInterval is the time between automatic refreshes at score.
func (p RefreshPolicy) AutoInterval(score float64) time.Duration {
	n := 0.0
	if score > 0 {
		n = math.Floor(score / InflationScoreStep)
	}
	return max(p.AutoBase-time.Duration(n)*p.AutoStep, p.AutoFloor)
}

// Economy owns score, fruit, tier, the shop and the seed pouch.
// Score only grows; purchases and refreshes spend fruit.
type Economy struct {
	cfg     Config
	catalog []plants.Species
	rng     *entropy.Stream

	score float64
	fruit float64
	tier  int

	offers       []plants.Species
	refreshes    int
	sinceRefresh time.Duration

	pouch []plants.Species
}

// New opens a run's economy: tier 1, starting fruit, starter seeds, and a
// freshly rolled shop.
func New(cfg Config, catalog []plants.Species, rng *entropy.Stream) (*Economy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("economy config: %w", err)
	}
	if rng == nil {
		return nil, errors.New("economy: nil random stream")
	}
	e := &Economy{
		cfg:     cfg,
		catalog: append([]plants.Species(nil), catalog...),
		rng:     rng,
		fruit:   cfg.StartingFruit,
		tier:    plants.MinTier,
		offers:  make([]plants.Species, cfg.OfferSlots),
	}

	starters := e.speciesAt(plants.MinTier)
	if len(starters) == 0 {
		return nil, ErrEmptyCatalog
	}
	for i := 0; i < cfg.StarterSeeds; i++ {
		sp, _ := entropy.Pick(e.rng, entropy.Uniform(starters))
		e.pouch = append(e.pouch, sp)
	}
	e.rollOffers()
	return e, nil
}

// Score is the monotonic run score.
func (e *Economy) Score() float64 { return e.score }

// Fruit is the spendable balance.
func (e *Economy) Fruit() float64 { return e.fruit }

// Tier is the highest unlocked tier.
func (e *Economy) Tier() int { return e.tier }

// Inflation is the current price multiplier.
func (e *Economy) Inflation() float64 { return InflationMultiplier(e.score) }

// Catalog returns the run's species list.
func (e *Economy) Catalog() []plants.Species {
	return append([]plants.Species(nil), e.catalog...)
}

// NextTierScore is the score that unlocks the next tier, or false at the top.
func (e *Economy) NextTierScore() (float64, bool) {
	if e.tier >= plants.MaxTier {
		return 0, false
	}
	return RequiredScore(e.tier), true
}

// Credit adds a harvest to score and fruit. Non-positive amounts are ignored.
func (e *Economy) Credit(amount float64) {
	if !(amount > 0) || math.IsInf(amount, 0) {
		return
	}
	e.score += amount
	e.fruit += amount
}

// UpdateTier advances the tier while the score clears each threshold and
// returns how many tiers were unlocked.
func (e *Economy) UpdateTier() int {
	unlocked := 0
	for e.tier < plants.MaxTier && e.score >= RequiredScore(e.tier) {
		e.tier++
		unlocked++
	}
	if unlocked > 0 {
		slog.Info("tier unlocked", "tier", e.tier, "score", e.score)
		if e.cfg.Refresh.OnUnlock {
			e.rollOffers()
		}
	}
	return unlocked
}

// Advance runs the auto-refresh timer and reports whether the shop re-rolled.
func (e *Economy) Advance(elapsed time.Duration) bool {
	if !e.cfg.Refresh.Auto || elapsed <= 0 {
		return false
	}
	e.sinceRefresh += elapsed
	if e.sinceRefresh < e.cfg.Refresh.AutoInterval(e.score) {
		return false
	}
	e.rollOffers()
	slog.Debug("shop auto refreshed", "tier", e.tier)
	return true
}

// Pouch returns the seeds held in reserve.
func (e *Economy) Pouch() []plants.Species {
	return append([]plants.Species(nil), e.pouch...)
}

// TakeSeed removes the named seed from the pouch.
func (e *Economy) TakeSeed(name string) (plants.Species, error) {
	for i, sp := range e.pouch {
		if sp.Name == name {
			e.pouch = append(e.pouch[:i], e.pouch[i+1:]...)
			return sp, nil
		}
	}
	return plants.Species{}, fmt.Errorf("take %q: %w", name, ErrNoSeed)
}

// ReturnSeed puts a seed back in the pouch, e.g. after a failed planting.
func (e *Economy) ReturnSeed(sp plants.Species) {
	e.pouch = append(e.pouch, sp)
}

// speciesAt returns catalog entries of exactly tier.
func (e *Economy) speciesAt(tier int) []plants.Species {
	var out []plants.Species
	for _, sp := range e.catalog {
		if sp.Tier == tier {
			out = append(out, sp)
		}
	}
	return out
}

// unlocked returns catalog entries at or below the current tier.
func (e *Economy) unlocked() []plants.Species {
	var out []plants.Species
	for _, sp := range e.catalog {
		if sp.Tier <= e.tier {
			out = append(out, sp)
		}
	}
	return out
}
