// Package gardener implements the autopilot player.
// Each cycle it observes the garden through the engine's query API, triages
// the situation, decides on a few actions by rule, and applies them through
// the command API.
package gardener

import (
	"github.com/talgya/terraform-garden/internal/economy"
	"github.com/talgya/terraform-garden/internal/garden"
	"github.com/talgya/terraform-garden/internal/plants"
	"github.com/talgya/terraform-garden/internal/survival"
	"github.com/talgya/terraform-garden/internal/weather"
)

// Garden is the part of a simulation the autopilot can see and touch.
// *engine.Simulation satisfies it.
type Garden interface {
	Grid() garden.Snapshot
	Score() float64
	Fruit() float64
	Tier() int
	Offers() []economy.Offer
	RefreshCost() float64
	Pouch() []plants.Species
	Weather() weather.State
	Forecast() weather.Forecast
	Countdown() survival.Status
	GameOver() bool

	Sow(row, col int, name string) error
	Purchase(i int) (*plants.Plant, error)
	PlantAt(row, col int, p *plants.Plant) error
	Stash(p *plants.Plant)
	RefreshOffers() error
}

// Snapshot holds everything collected during an observation.
type Snapshot struct {
	Grid        garden.Snapshot
	Score       float64
	Fruit       float64
	Tier        int
	Offers      []economy.Offer
	RefreshCost float64
	Pouch       []plants.Species
	Weather     weather.State
	Forecast    weather.Forecast
	Countdown   survival.Status
	GameOver    bool
}

// Observe reads the garden's current state.
func Observe(g Garden) *Snapshot {
	return &Snapshot{
		Grid:        g.Grid(),
		Score:       g.Score(),
		Fruit:       g.Fruit(),
		Tier:        g.Tier(),
		Offers:      g.Offers(),
		RefreshCost: g.RefreshCost(),
		Pouch:       g.Pouch(),
		Weather:     g.Weather(),
		Forecast:    g.Forecast(),
		Countdown:   g.Countdown(),
		GameOver:    g.GameOver(),
	}
}

// EmptyCells lists plantable cells in row-major order.
func (s *Snapshot) EmptyCells() []garden.Pos {
	var out []garden.Pos
	for _, c := range s.Grid.Cells {
		if c.State == garden.CellEmpty {
			out = append(out, c.Pos)
		}
	}
	return out
}
