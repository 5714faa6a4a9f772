// Simulation ties together the garden systems and runs them each tick.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/terraform-garden/internal/config"
	"github.com/talgya/terraform-garden/internal/economy"
	"github.com/talgya/terraform-garden/internal/entropy"
	"github.com/talgya/terraform-garden/internal/garden"
	"github.com/talgya/terraform-garden/internal/plants"
	"github.com/talgya/terraform-garden/internal/survival"
	"github.com/talgya/terraform-garden/internal/weather"
)

// ErrGameOver is returned by every command once the survival countdown has
// expired. Restarting means building a new Simulation.
var ErrGameOver = errors.New("game over")

// maxEvents bounds the event log.
const maxEvents = 1000

// Event categories.
const (
	CategoryWeather  = "weather"
	CategoryPlant    = "plant"
	CategoryEconomy  = "economy"
	CategorySurvival = "survival"
)

// Event is a notable occurrence in the run.
type Event struct {
	Tick        uint64        `json:"tick"`
	At          time.Duration `json:"at"` // simulation clock
	Category    string        `json:"category"`
	Description string        `json:"description"`
}

// Stats are running totals for the run.
type Stats struct {
	Harvested float64 `json:"harvested"`
	Planted   int     `json:"planted"`
	Withered  int     `json:"withered"`
	Destroyed int     `json:"destroyed"`
	Uprooted  int     `json:"uprooted"`
	Purchases int     `json:"purchases"`
	Refreshes int     `json:"refreshes"`
	Weather   int     `json:"weather_events"`
}

// Simulation owns all mutable state of one run. It is single-threaded:
// commands and Tick must not run concurrently.
type Simulation struct {
	cfg  config.Config
	seed int64

	ticks uint64
	clock time.Duration

	grid      *garden.Grid
	weather   *weather.System
	economy   *economy.Economy
	countdown *survival.Countdown
	ids       *entropy.Stream // plant IDs

	gameOver bool
	events   []Event
	pending  []Event // recorded since the last tick report
	stats    Stats
}

// NewSimulation builds a run from a validated config and a plant manifest.
// Every random concern draws from its own stream derived from cfg.Seed,
// including the IDs of plants the simulation hands out, so a seed reproduces
// a run given the same commands.
func NewSimulation(cfg config.Config, manifest []plants.ManifestEntry) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	seed := cfg.Seed

	gen := plants.NewGenerator(cfg.Plants, entropy.NewStream(seed, "plants"))
	catalog, err := gen.Catalog(manifest)
	if err != nil {
		return nil, fmt.Errorf("generate catalog: %w", err)
	}

	grid, err := garden.New(cfg.Garden.Rows, cfg.Garden.Cols)
	if err != nil {
		return nil, err
	}

	ws, err := weather.New(cfg.Weather, weather.Streams{
		Events:   entropy.NewStream(seed, "events"),
		Forecast: entropy.NewStream(seed, "forecast"),
		Strike:   entropy.NewStream(seed, "strike"),
	}, seed)
	if err != nil {
		return nil, err
	}

	econ, err := economy.New(cfg.Economy, catalog, entropy.NewStream(seed, "shop"))
	if err != nil {
		return nil, err
	}

	sim := &Simulation{
		cfg:       cfg,
		seed:      seed,
		grid:      grid,
		weather:   ws,
		economy:   econ,
		countdown: survival.New(cfg.Survival),
		ids:       entropy.NewStream(seed, "ids"),
	}
	slog.Info("simulation created",
		"seed", seed,
		"grid", fmt.Sprintf("%dx%d", grid.Rows(), grid.Cols()),
		"species", len(catalog),
		"fruit", econ.Fruit(),
	)
	return sim, nil
}

// newPlant creates a plant whose ID comes from the run's seeded stream.
func (s *Simulation) newPlant(sp plants.Species) *plants.Plant {
	p := plants.New(sp)
	if id, err := uuid.NewRandomFromReader(s.ids); err == nil {
		p.ID = id
	}
	return p
}

// record appends to the event log, keeping the last maxEvents.
func (s *Simulation) record(category, format string, args ...any) {
	e := Event{
		Tick:        s.ticks,
		At:          s.clock,
		Category:    category,
		Description: fmt.Sprintf(format, args...),
	}
	s.events = append(s.events, e)
	if len(s.events) > maxEvents {
		s.events = s.events[len(s.events)-maxEvents:]
	}
	s.pending = append(s.pending, e)
}

// Seed returns the run seed.
func (s *Simulation) Seed() int64 { return s.seed }

// Config returns the run configuration.
func (s *Simulation) Config() config.Config { return s.cfg }

// Clock returns total simulated time.
func (s *Simulation) Clock() time.Duration { return s.clock }

// Ticks returns how many ticks have run.
func (s *Simulation) Ticks() uint64 { return s.ticks }

// GameOver reports whether the run has ended.
func (s *Simulation) GameOver() bool { return s.gameOver }

// Grid returns a copy of the garden.
func (s *Simulation) Grid() garden.Snapshot { return s.grid.Snapshot() }

// Score returns the run score.
func (s *Simulation) Score() float64 { return s.economy.Score() }

// Fruit returns the spendable balance.
func (s *Simulation) Fruit() float64 { return s.economy.Fruit() }

// Tier returns the highest unlocked tier.
func (s *Simulation) Tier() int { return s.economy.Tier() }

// Inflation returns the current shop price multiplier.
func (s *Simulation) Inflation() float64 { return s.economy.Inflation() }

// NextTierScore returns the score that unlocks the next tier.
func (s *Simulation) NextTierScore() (float64, bool) { return s.economy.NextTierScore() }

// Offers returns the shop with current prices.
func (s *Simulation) Offers() []economy.Offer { return s.economy.Offers() }

// RefreshCost returns what the next manual refresh costs.
func (s *Simulation) RefreshCost() float64 { return s.economy.RefreshCost() }

// Pouch returns held seeds.
func (s *Simulation) Pouch() []plants.Species { return s.economy.Pouch() }

// Catalog returns every species of the run.
func (s *Simulation) Catalog() []plants.Species { return s.economy.Catalog() }

// Weather returns the event machine state.
func (s *Simulation) Weather() weather.State { return s.weather.State() }

// Forecast returns the displayed prediction for the next event.
func (s *Simulation) Forecast() weather.Forecast { return s.weather.Forecast() }

// Countdown returns the survival countdown.
func (s *Simulation) Countdown() survival.Status { return s.countdown.Status() }

// Stats returns running totals.
func (s *Simulation) Stats() Stats { return s.stats }

// Events returns a copy of the event log, oldest first.
func (s *Simulation) Events() []Event {
	return append([]Event(nil), s.events...)
}

// Summary is a one-shot view of the run for hosts and reports.
type Summary struct {
	Seed      int64            `json:"seed"`
	Ticks     uint64           `json:"ticks"`
	Clock     time.Duration    `json:"clock"`
	Score     float64          `json:"score"`
	Fruit     float64          `json:"fruit"`
	Tier      int              `json:"tier"`
	Inflation float64          `json:"inflation"`
	Occupied  int              `json:"occupied"`
	Dented    int              `json:"dented"`
	Weather   weather.State    `json:"weather"`
	Forecast  weather.Forecast `json:"forecast"`
	Countdown survival.Status  `json:"countdown"`
	GameOver  bool             `json:"game_over"`
	Stats     Stats            `json:"stats"`
}

// Summary collects the current state.
func (s *Simulation) Summary() Summary {
	return Summary{
		Seed:      s.seed,
		Ticks:     s.ticks,
		Clock:     s.clock,
		Score:     s.economy.Score(),
		Fruit:     s.economy.Fruit(),
		Tier:      s.economy.Tier(),
		Inflation: s.economy.Inflation(),
		Occupied:  s.grid.Occupied(),
		Dented:    s.grid.Dented(),
		Weather:   s.weather.State(),
		Forecast:  s.weather.Forecast(),
		Countdown: s.countdown.Status(),
		GameOver:  s.gameOver,
		Stats:     s.stats,
	}
}
