// Package plants models the growable entities of a garden run: species
// generation per tier and the aging/yield lifecycle of a planted instance.
package plants

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// MinTier and MaxTier bound the tier ladder.
const (
	MinTier = 1
	MaxTier = 10
)

// ErrInvalidTier is returned for tiers outside MinTier..MaxTier.
var ErrInvalidTier = errors.New("tier out of range")

// Species is a purchasable plant template. A run's catalog is generated once
// and every planted instance copies its stats.
type Species struct {
	Name     string        `json:"name"`
	Sprite   string        `json:"sprite,omitempty"`
	Tier     int           `json:"tier"`
	Rate     float64       `json:"rate"`     // fruit per second
	Lifespan time.Duration `json:"lifespan"` // before weather effects
	Cost     float64       `json:"cost"`     // base price before inflation
}

// Plant is one growing instance owned by a garden cell.
type Plant struct {
	ID uuid.UUID `json:"id"`
	Species

	BaseLifespan time.Duration `json:"base_lifespan"` // lifespan at creation; rain is capped against it
	Age          time.Duration `json:"age"`           // accumulated, scaled by drought
	PlantedAt    time.Duration `json:"planted_at"`    // engine clock at placement

	placed bool
}

// Modifiers are the weather factors applied while a plant advances.
// Aging scales how fast age accumulates; Yield scales production.
type Modifiers struct {
	Aging float64 `json:"aging"`
	Yield float64 `json:"yield"`
}

// Neutral returns modifiers that leave aging and yield untouched.
func Neutral() Modifiers {
	return Modifiers{Aging: 1, Yield: 1}
}

// New creates an unplanted instance of a species.
func New(sp Species) *Plant {
	return &Plant{
		ID:           uuid.New(),
		Species:      sp,
		BaseLifespan: sp.Lifespan,
	}
}

// Advance ages the plant by elapsed (scaled by m.Aging) and returns the fruit
// produced. Production only counts the wall time the plant was still alive,
// so a plant that withers mid-tick yields for the part it lived.
func (p *Plant) Advance(elapsed time.Duration, m Modifiers) float64 {
	if elapsed <= 0 || p.Withered() {
		return 0
	}

	aging := m.Aging
	if aging < 0 {
		aging = 0
	}

	alive := elapsed
	if aging > 0 {
		left := time.Duration(float64(p.Lifespan-p.Age) / aging)
		if left < alive {
			alive = left
		}
	}
	p.Age += time.Duration(float64(elapsed) * aging)

	yieldMod := m.Yield
	if yieldMod <= 0 {
		return 0
	}
	return p.Rate * alive.Seconds() * yieldMod
}

// Placed reports whether a garden cell has ever taken this plant. A plant
// belongs to one cell for its whole life; once evicted it is gone.
func (p *Plant) Placed() bool { return p.placed }

// MarkPlaced records that a cell has taken the plant.
func (p *Plant) MarkPlaced() { p.placed = true }

// Withered reports whether the plant has reached the end of its life.
func (p *Plant) Withered() bool {
	return p.Age >= p.Lifespan
}

// LifeRatio returns the fraction of life consumed: 0 new, 1 dead.
func (p *Plant) LifeRatio() float64 {
	if p.Lifespan <= 0 {
		return 1
	}
	r := float64(p.Age) / float64(p.Lifespan)
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}

// Remaining returns the age left before withering (0 when withered).
func (p *Plant) Remaining() time.Duration {
	if p.Withered() {
		return 0
	}
	return p.Lifespan - p.Age
}

// ExtendLife adds d to the lifespan, never past BaseLifespan × capFactor.
// Returns the amount actually added.
func (p *Plant) ExtendLife(d time.Duration, capFactor float64) time.Duration {
	if d <= 0 || p.Withered() {
		return 0
	}
	limit := time.Duration(float64(p.BaseLifespan) * capFactor)
	next := p.Lifespan + d
	if next > limit {
		next = limit
	}
	if next <= p.Lifespan {
		return 0
	}
	added := next - p.Lifespan
	p.Lifespan = next
	return added
}
