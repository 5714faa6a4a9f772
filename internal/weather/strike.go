package weather

import (
	"log/slog"
	"time"

	"github.com/talgya/terraform-garden/internal/garden"
)

// Impact summarizes what a one-shot event did to the grid.
type Impact struct {
	Kind      Kind
	Destroyed int          // plants evicted by craters
	Craters   []garden.Pos // cells newly dented
	Extended  int          // plants whose lifespan rain extended
}

// Strike applies the one-shot effect of an event that just started: rain
// extends lifespans, hail and meteors crater cells. Other kinds are no-ops.
// at is the engine clock recorded on new craters.
func (s *System) Strike(kind Kind, g *garden.Grid, at time.Duration) Impact {
	imp := Impact{Kind: kind}
	switch kind {
	case Rain:
		s.rain(g, &imp)
	case Hailstorm:
		s.hail(g, at, &imp)
	case Meteor:
		s.meteor(g, at, &imp)
	default:
		return imp
	}
	slog.Info("weather strike",
		"kind", kind,
		"destroyed", imp.Destroyed,
		"craters", len(imp.Craters),
		"extended", imp.Extended,
	)
	return imp
}

func (s *System) rain(g *garden.Grid, imp *Impact) {
	for _, pos := range g.Planted() {
		cell, err := g.Get(pos)
		if err != nil || cell.Plant == nil {
			continue
		}
		if cell.Plant.ExtendLife(s.cfg.RainBonus, s.cfg.RainLifespanCap) > 0 {
			imp.Extended++
		}
	}
}

// hail craters up to HailKills planted cells, then HailScatter random cells.
func (s *System) hail(g *garden.Grid, at time.Duration, imp *Impact) {
	planted := g.Planted()
	kills := min(s.cfg.HailKills, len(planted))
	for _, i := range s.streams.Strike.Sample(len(planted), kills) {
		crater(g, planted[i], at, imp)
	}
	for i := 0; i < s.cfg.HailScatter; i++ {
		pos := garden.Pos{
			Row: s.streams.Strike.IntN(g.Rows()),
			Col: s.streams.Strike.IntN(g.Cols()),
		}
		crater(g, pos, at, imp)
	}
}

// meteor craters every planted cell, a 3×3 block around a random impact
// point, and a noise-shaped ring around the block.
func (s *System) meteor(g *garden.Grid, at time.Duration, imp *Impact) {
	for _, pos := range g.Planted() {
		crater(g, pos, at, imp)
	}

	center := garden.Pos{
		Row: s.impactCoord(g.Rows()),
		Col: s.impactCoord(g.Cols()),
	}
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			crater(g, garden.Pos{Row: center.Row + dr, Col: center.Col + dc}, at, imp)
		}
	}

	radius := s.cfg.MeteorRingRadius
	z := float64(s.strikes)
	for dr := -radius; dr <= radius; dr++ {
		for dc := -radius; dc <= radius; dc++ {
			if max(abs(dr), abs(dc)) != radius || radius <= 1 {
				continue
			}
			pos := garden.Pos{Row: center.Row + dr, Col: center.Col + dc}
			if !g.InBounds(pos) {
				continue
			}
			if s.noise.Eval3(float64(pos.Row), float64(pos.Col), z) >= s.cfg.MeteorRingThreshold {
				crater(g, pos, at, imp)
			}
		}
	}
	s.strikes++
}

// impactCoord keeps the 3×3 block inside the grid when it fits.
func (s *System) impactCoord(n int) int {
	if n >= 3 {
		return 1 + s.streams.Strike.IntN(n-2)
	}
	return s.streams.Strike.IntN(n)
}

func crater(g *garden.Grid, pos garden.Pos, at time.Duration, imp *Impact) {
	cell, err := g.Get(pos)
	if err != nil || cell.State == garden.CellDented {
		return
	}
	evicted, err := g.ApplyCrater(pos, at)
	if err != nil {
		return
	}
	if evicted != nil {
		imp.Destroyed++
	}
	imp.Craters = append(imp.Craters, pos)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
