package weather

import (
	"errors"
	"fmt"
	"time"
)

// Weights is the base weight table, one entry per outcome.
type Weights struct {
	None      float64 `yaml:"none"`
	Drought   float64 `yaml:"drought"`
	Rain      float64 `yaml:"rain"`
	Hailstorm float64 `yaml:"hailstorm"`
	Locusts   float64 `yaml:"locusts"`
	Eclipse   float64 `yaml:"eclipse"`
	Meteor    float64 `yaml:"meteor"`
}

// Of returns the base weight for k.
func (w Weights) Of(k Kind) float64 {
	switch k {
	case None:
		return w.None
	case Drought:
		return w.Drought
	case Rain:
		return w.Rain
	case Hailstorm:
		return w.Hailstorm
	case Locusts:
		return w.Locusts
	case Eclipse:
		return w.Eclipse
	case Meteor:
		return w.Meteor
	}
	return 0
}

// Config holds the event engine's balance table.
type Config struct {
	Weights Weights `yaml:"weights"`

	ScoreStep           float64 `yaml:"score_step"`             // score per difficulty step
	WeightGrowthPerStep float64 `yaml:"weight_growth_per_step"` // drought/locust weight growth
	MeteorMinScore      float64 `yaml:"meteor_min_score"`

	FirstCheck    time.Duration `yaml:"first_check"`
	QuietRecheck  time.Duration `yaml:"quiet_recheck"`
	CooldownBase  time.Duration `yaml:"cooldown_base"`
	CooldownStep  time.Duration `yaml:"cooldown_step"`
	CooldownFloor time.Duration `yaml:"cooldown_floor"`
	WarningLead   time.Duration `yaml:"warning_lead"`
	DurationMin   time.Duration `yaml:"duration_min"`
	DurationMax   time.Duration `yaml:"duration_max"`

	DroughtBase      float64 `yaml:"drought_base"`
	DroughtStepBonus float64 `yaml:"drought_step_bonus"`
	DroughtScoreStep float64 `yaml:"drought_score_step"`
	DroughtScoreCap  float64 `yaml:"drought_score_cap"`

	LocustBase         float64 `yaml:"locust_base"`
	LocustScoreDivisor float64 `yaml:"locust_score_divisor"`
	LocustFloor        float64 `yaml:"locust_floor"`

	RainBonus       time.Duration `yaml:"rain_bonus"`
	RainLifespanCap float64       `yaml:"rain_lifespan_cap"` // × BaseLifespan

	HailKills   int `yaml:"hail_kills"`
	HailScatter int `yaml:"hail_scatter"`

	MeteorRingRadius    int     `yaml:"meteor_ring_radius"`
	MeteorRingThreshold float64 `yaml:"meteor_ring_threshold"` // normalized noise cutoff

	ForecastUnknown float64 `yaml:"forecast_unknown"`
	ForecastTrue    float64 `yaml:"forecast_true"`
}

// DefaultConfig returns the stock balance.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			None:      20,
			Drought:   60,
			Rain:      50,
			Hailstorm: 40,
			Locusts:   30,
			Eclipse:   20,
			Meteor:    10,
		},
		ScoreStep:           50000,
		WeightGrowthPerStep: 0.25,
		MeteorMinScore:      5000,

		FirstCheck:    10 * time.Second,
		QuietRecheck:  10 * time.Second,
		CooldownBase:  60 * time.Second,
		CooldownStep:  5 * time.Second,
		CooldownFloor: 15 * time.Second,
		WarningLead:   5 * time.Second,
		DurationMin:   5 * time.Second,
		DurationMax:   10 * time.Second,

		DroughtBase:      3,
		DroughtStepBonus: 0.5,
		DroughtScoreStep: 100000,
		DroughtScoreCap:  500000,

		LocustBase:         0.6,
		LocustScoreDivisor: 500000,
		LocustFloor:        0.05,

		RainBonus:       5 * time.Second,
		RainLifespanCap: 2,

		HailKills:   3,
		HailScatter: 6,

		MeteorRingRadius:    2,
		MeteorRingThreshold: 0.55,

		ForecastUnknown: 0.5,
		ForecastTrue:    0.4,
	}
}

// Validate rejects configurations the state machine cannot run with.
func (c Config) Validate() error {
	var errs []error
	for _, k := range append([]Kind{None}, Kinds...) {
		if c.Weights.Of(k) < 0 {
			errs = append(errs, fmt.Errorf("weight for %s is negative", k))
		}
	}
	if c.FirstCheck <= 0 || c.QuietRecheck <= 0 {
		errs = append(errs, errors.New("first_check and quiet_recheck must be positive"))
	}
	if c.CooldownFloor <= 0 || c.CooldownBase < c.CooldownFloor {
		errs = append(errs, errors.New("cooldown_base must be at least cooldown_floor > 0"))
	}
	if c.WarningLead < 0 {
		errs = append(errs, errors.New("warning_lead is negative"))
	}
	if c.DurationMin <= 0 || c.DurationMax < c.DurationMin {
		errs = append(errs, errors.New("event duration range is invalid"))
	}
	if c.DroughtBase <= 1 {
		errs = append(errs, errors.New("drought_base must exceed 1"))
	}
	if c.LocustBase >= 1 || c.LocustFloor < 0 || c.LocustFloor > c.LocustBase {
		errs = append(errs, errors.New("locust multiplier must stay in [floor, base] below 1"))
	}
	if c.RainLifespanCap < 1 {
		errs = append(errs, errors.New("rain_lifespan_cap must be at least 1"))
	}
	if c.HailKills < 0 || c.HailScatter < 0 || c.MeteorRingRadius < 0 {
		errs = append(errs, errors.New("strike footprints must be non-negative"))
	}
	if c.ForecastUnknown < 0 || c.ForecastTrue < 0 || c.ForecastUnknown+c.ForecastTrue > 1 {
		errs = append(errs, errors.New("forecast probabilities must sum to at most 1"))
	}
	return errors.Join(errs...)
}
