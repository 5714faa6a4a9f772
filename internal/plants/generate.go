package plants

import (
	"fmt"
	"math"
	"time"

	"github.com/talgya/terraform-garden/internal/entropy"
)

// Config holds the procedural generation curve for species stats.
type Config struct {
	RateBase   float64 `yaml:"rate_base"`   // tier-1 mean fruit/s
	RateGrowth float64 `yaml:"rate_growth"` // per-tier multiplier
	CostBase   float64 `yaml:"cost_base"`
	CostGrowth float64 `yaml:"cost_growth"`
	Variance   float64 `yaml:"variance"` // ± fraction around the tier mean

	MinRate float64 `yaml:"min_rate"`
	MinCost float64 `yaml:"min_cost"`

	LifespanMin           time.Duration `yaml:"lifespan_min"`
	LifespanMax           time.Duration `yaml:"lifespan_max"`
	LifespanSpreadPerTier time.Duration `yaml:"lifespan_spread_per_tier"` // range widens by this on both sides per tier
	LifespanFloor         time.Duration `yaml:"lifespan_floor"`

	SpeciesPerTier int `yaml:"species_per_tier"`

	// Capstone is the single tier-10 species: enormous output, brief life.
	Capstone Capstone `yaml:"capstone"`
}

// Capstone fixes the stats of the top-tier species.
type Capstone struct {
	Rate     float64       `yaml:"rate"`
	Cost     float64       `yaml:"cost"`
	Lifespan time.Duration `yaml:"lifespan"`
}

// DefaultConfig returns the stock stat curve.
func DefaultConfig() Config {
	return Config{
		RateBase:              5,
		RateGrowth:            3.129,
		CostBase:              50,
		CostGrowth:            2.783,
		Variance:              0.15,
		MinRate:               1,
		MinCost:               5,
		LifespanMin:           10 * time.Second,
		LifespanMax:           40 * time.Second,
		LifespanSpreadPerTier: time.Second,
		LifespanFloor:         3 * time.Second,
		SpeciesPerTier:        3,
		Capstone: Capstone{
			Rate:     100000,
			Cost:     500000,
			Lifespan: 5 * time.Second,
		},
	}
}

// Validate rejects curves that could produce non-positive stats.
func (c Config) Validate() error {
	switch {
	case c.RateBase <= 0 || c.CostBase <= 0:
		return fmt.Errorf("plants: rate_base and cost_base must be positive")
	case c.RateGrowth < 1 || c.CostGrowth < 1:
		return fmt.Errorf("plants: growth factors must be >= 1")
	case c.Variance < 0 || c.Variance >= 1:
		return fmt.Errorf("plants: variance must be in [0, 1)")
	case c.MinRate <= 0 || c.MinCost <= 0:
		return fmt.Errorf("plants: min_rate and min_cost must be positive")
	case c.LifespanFloor <= 0:
		return fmt.Errorf("plants: lifespan_floor must be positive")
	case c.LifespanMin > c.LifespanMax:
		return fmt.Errorf("plants: lifespan_min exceeds lifespan_max")
	case c.LifespanSpreadPerTier < 0:
		return fmt.Errorf("plants: lifespan_spread_per_tier must not be negative")
	case c.SpeciesPerTier < 1:
		return fmt.Errorf("plants: species_per_tier must be at least 1")
	case c.Capstone.Rate <= 0 || c.Capstone.Cost <= 0 || c.Capstone.Lifespan <= 0:
		return fmt.Errorf("plants: capstone stats must be positive")
	}
	return nil
}

// MeanRate is the expected production rate of a tier (before flooring).
func (c Config) MeanRate(tier int) float64 {
	if tier == MaxTier {
		return c.Capstone.Rate
	}
	return c.RateBase * math.Pow(c.RateGrowth, float64(tier-1))
}

// MeanCost is the expected base cost of a tier (before flooring).
func (c Config) MeanCost(tier int) float64 {
	if tier == MaxTier {
		return c.Capstone.Cost
	}
	return c.CostBase * math.Pow(c.CostGrowth, float64(tier-1))
}

// LifespanRange returns the lifespan bounds for a tier.
func (c Config) LifespanRange(tier int) (lo, hi time.Duration) {
	spread := c.LifespanSpreadPerTier * time.Duration(tier-1)
	lo = c.LifespanMin - spread
	hi = c.LifespanMax + spread
	if lo < c.LifespanFloor {
		lo = c.LifespanFloor
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

// Generator draws species stats from a seeded stream.
type Generator struct {
	cfg Config
	rng *entropy.Stream
}

// NewGenerator creates a generator for the given curve.
func NewGenerator(cfg Config, rng *entropy.Stream) *Generator {
	return &Generator{cfg: cfg, rng: rng}
}

// Species generates an unnamed species of the given tier.
func (g *Generator) Species(tier int) (Species, error) {
	if tier < MinTier || tier > MaxTier {
		return Species{}, fmt.Errorf("generate tier %d: %w", tier, ErrInvalidTier)
	}

	if tier == MaxTier {
		return Species{
			Tier:     tier,
			Rate:     g.cfg.Capstone.Rate,
			Lifespan: g.cfg.Capstone.Lifespan,
			Cost:     g.cfg.Capstone.Cost,
		}, nil
	}

	rate := g.vary(g.cfg.MeanRate(tier))
	cost := g.vary(g.cfg.MeanCost(tier))
	lo, hi := g.cfg.LifespanRange(tier)
	life := time.Duration(g.draw(float64(lo), float64(hi))).Truncate(time.Millisecond)

	return Species{
		Tier:     tier,
		Rate:     math.Max(g.cfg.MinRate, math.Floor(rate)),
		Lifespan: life,
		Cost:     math.Max(g.cfg.MinCost, math.Floor(cost)),
	}, nil
}

func (g *Generator) vary(mean float64) float64 {
	return g.draw(mean*(1-g.cfg.Variance), mean*(1+g.cfg.Variance))
}

// statSlices splits every stat range into equal slices for the weighted pick.
const statSlices = 8

var sliceChoices = func() []entropy.Weighted[int, int] {
	idx := make([]int, statSlices)
	for i := range idx {
		idx[i] = i
	}
	return entropy.Uniform(idx)
}()

// draw returns a value uniform in [lo, hi]: a weighted pick chooses the
// slice, then a second draw places the value inside it.
func (g *Generator) draw(lo, hi float64) float64 {
	slice, _ := entropy.Pick(g.rng, sliceChoices)
	width := (hi - lo) / statSlices
	start := lo + float64(slice)*width
	return g.rng.Range(start, start+width)
}

// Catalog generates the run's species list: SpeciesPerTier species for each
// tier below the capstone and one capstone. Names come from the shuffled
// manifest; missing names fall back to "plantN".
func (g *Generator) Catalog(manifest []ManifestEntry) ([]Species, error) {
	names := make([]ManifestEntry, len(manifest))
	copy(names, manifest)
	g.rng.Shuffle(len(names), func(i, j int) { names[i], names[j] = names[j], names[i] })

	var catalog []Species
	idx := 0
	for tier := MinTier; tier <= MaxTier; tier++ {
		count := g.cfg.SpeciesPerTier
		if tier == MaxTier {
			count = 1
		}
		for i := 0; i < count; i++ {
			sp, err := g.Species(tier)
			if err != nil {
				return nil, err
			}
			if idx < len(names) {
				sp.Name = names[idx].Name
				sp.Sprite = names[idx].Sprite
			} else {
				sp.Name = fmt.Sprintf("plant%d", idx)
			}
			idx++
			catalog = append(catalog, sp)
		}
	}
	return catalog, nil
}
