package engine

import (
	"fmt"

	"github.com/talgya/terraform-garden/internal/garden"
	"github.com/talgya/terraform-garden/internal/plants"
)

// PlantAt places p in the cell at row, col and cancels any running survival
// countdown.
func (s *Simulation) PlantAt(row, col int, p *plants.Plant) error {
	if s.gameOver {
		return ErrGameOver
	}
	pos := garden.Pos{Row: row, Col: col}
	if err := s.grid.PlantAt(pos, p); err != nil {
		return err
	}
	p.PlantedAt = s.clock
	s.countdown.Cancel()
	s.stats.Planted++
	s.record(CategoryPlant, "planted %s at %s", p.Name, pos)
	return nil
}

// Purchase buys the offer in slot i and returns a plant ready to place.
func (s *Simulation) Purchase(i int) (*plants.Plant, error) {
	if s.gameOver {
		return nil, ErrGameOver
	}
	sp, err := s.economy.Purchase(i)
	if err != nil {
		return nil, err
	}
	s.stats.Purchases++
	s.record(CategoryEconomy, "bought %s (tier %d)", sp.Name, sp.Tier)
	return s.newPlant(sp), nil
}

// RefreshOffers re-rolls the shop, paying the refresh cost.
func (s *Simulation) RefreshOffers() error {
	if s.gameOver {
		return ErrGameOver
	}
	cost := s.economy.RefreshCost()
	if err := s.economy.Refresh(); err != nil {
		return err
	}
	s.stats.Refreshes++
	s.record(CategoryEconomy, "shop refreshed for %.0f", cost)
	return nil
}

// TakeSeed removes a seed from the pouch and returns it as a plant.
func (s *Simulation) TakeSeed(name string) (*plants.Plant, error) {
	if s.gameOver {
		return nil, ErrGameOver
	}
	sp, err := s.economy.TakeSeed(name)
	if err != nil {
		return nil, err
	}
	return s.newPlant(sp), nil
}

// Sow plants the named pouch seed at row, col. The seed stays in the pouch
// when the cell cannot take it.
func (s *Simulation) Sow(row, col int, name string) error {
	p, err := s.TakeSeed(name)
	if err != nil {
		return err
	}
	if err := s.PlantAt(row, col, p); err != nil {
		s.economy.ReturnSeed(p.Species)
		return fmt.Errorf("sow %s: %w", name, err)
	}
	return nil
}

// Remove uproots the plant at row, col without credit. Empty and cratered
// cells are left as they are.
func (s *Simulation) Remove(row, col int) error {
	if s.gameOver {
		return ErrGameOver
	}
	pos := garden.Pos{Row: row, Col: col}
	p, err := s.grid.RemoveAt(pos)
	if err != nil {
		return err
	}
	if p != nil {
		s.stats.Uprooted++
		s.record(CategoryPlant, "uprooted %s at %s", p.Name, pos)
	}
	return nil
}

// Stash puts an unplaced plant's seed into the pouch, e.g. when a purchase
// could not be placed.
func (s *Simulation) Stash(p *plants.Plant) {
	if p == nil || s.gameOver {
		return
	}
	s.economy.ReturnSeed(p.Species)
}
