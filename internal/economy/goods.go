package economy

import (
	"fmt"
	"math"

	"github.com/talgya/terraform-garden/internal/entropy"
	"github.com/talgya/terraform-garden/internal/plants"
)

// Offer is one shop slot with its inflated price.
type Offer struct {
	Slot    int            `json:"slot"`
	Species plants.Species `json:"species"`
	Price   float64        `json:"price"`
}

// Price inflates a base cost at score. Prices are whole fruit.
func Price(base, score float64) float64 {
	return math.Floor(base * InflationMultiplier(score))
}

// Offers lists the shop with prices at the current score.
func (e *Economy) Offers() []Offer {
	out := make([]Offer, len(e.offers))
	for i, sp := range e.offers {
		out[i] = Offer{Slot: i, Species: sp, Price: Price(sp.Cost, e.score)}
	}
	return out
}

// RefreshCost is the fruit the next manual refresh will cost.
func (e *Economy) RefreshCost() float64 {
	p := e.cfg.Refresh
	if p.Cost <= 0 {
		return 0
	}
	return math.Round(p.Cost * math.Pow(p.Growth, float64(e.refreshes)))
}

// Refresh re-rolls every slot for the refresh cost.
func (e *Economy) Refresh() error {
	cost := e.RefreshCost()
	if e.fruit < cost {
		return fmt.Errorf("refresh costs %.0f, have %.0f: %w", cost, e.fruit, ErrInsufficientFunds)
	}
	if cost > 0 {
		e.fruit -= cost
		e.refreshes++
	}
	e.rollOffers()
	return nil
}

// Purchase buys the offer in slot i, debiting fruit (never score), and
// re-rolls that slot.
func (e *Economy) Purchase(i int) (plants.Species, error) {
	if i < 0 || i >= len(e.offers) {
		return plants.Species{}, fmt.Errorf("slot %d of %d: %w", i, len(e.offers), ErrInvalidOffer)
	}
	sp := e.offers[i]
	if sp.Tier > e.tier {
		return plants.Species{}, fmt.Errorf("%s is tier %d, unlocked %d: %w", sp.Name, sp.Tier, e.tier, ErrTierLocked)
	}
	price := Price(sp.Cost, e.score)
	if e.fruit < price {
		return plants.Species{}, fmt.Errorf("%s costs %.0f, have %.0f: %w", sp.Name, price, e.fruit, ErrInsufficientFunds)
	}
	e.fruit -= price
	e.offers[i] = e.rollUnlocked()
	return sp, nil
}

// rollOffers fills every slot. The first slot always shows the highest
// unlocked tier so progress is visible right after an unlock.
func (e *Economy) rollOffers() {
	e.sinceRefresh = 0
	for i := range e.offers {
		if i == 0 {
			e.offers[i] = e.rollTop()
			continue
		}
		e.offers[i] = e.rollUnlocked()
	}
}

func (e *Economy) rollTop() plants.Species {
	for tier := e.tier; tier >= plants.MinTier; tier-- {
		if top := e.speciesAt(tier); len(top) > 0 {
			sp, _ := entropy.Pick(e.rng, entropy.Uniform(top))
			return sp
		}
	}
	return e.rollUnlocked()
}

func (e *Economy) rollUnlocked() plants.Species {
	sp, _ := entropy.Pick(e.rng, entropy.Uniform(e.unlocked()))
	return sp
}
