package gardener

import (
	"fmt"
	"math"

	"github.com/talgya/terraform-garden/internal/economy"
	"github.com/talgya/terraform-garden/internal/garden"
	"github.com/talgya/terraform-garden/internal/weather"
)

// Action types.
const (
	ActionNone    = "none"
	ActionSow     = "sow"     // plant a pouch seed
	ActionBuy     = "buy"     // purchase an offer and plant it
	ActionRefresh = "refresh" // re-roll the shop
)

// Action is one command the autopilot wants to issue.
type Action struct {
	Type      string     `json:"type"`
	Pos       garden.Pos `json:"pos"`
	Seed      string     `json:"seed,omitempty"`
	Slot      int        `json:"slot"`
	Rationale string     `json:"rationale"`
}

func (a Action) String() string {
	switch a.Type {
	case ActionSow:
		return fmt.Sprintf("sow %s at %s", a.Seed, a.Pos)
	case ActionBuy:
		return fmt.Sprintf("buy slot %d for %s", a.Slot, a.Pos)
	default:
		return a.Type
	}
}

// Policy tunes the rule set.
type Policy struct {
	// RefreshBudget is the largest share of fruit a refresh may cost.
	RefreshBudget float64
	// HoldFor lists threats that pause purchases while announced or
	// forecast, unless the garden is empty.
	HoldFor []weather.Kind
	// MaxBuys caps purchases per cycle. Offers re-roll after each purchase
	// so later prices are unknown until the next observation.
	MaxBuys int
}

// DefaultPolicy returns the stock autopilot policy.
func DefaultPolicy() Policy {
	return Policy{
		RefreshBudget: 0.25,
		HoldFor:       []weather.Kind{weather.Meteor},
		MaxBuys:       1,
	}
}

func (p Policy) holds(k weather.Kind) bool {
	if k == weather.None {
		return false
	}
	for _, h := range p.HoldFor {
		if h == k {
			return true
		}
	}
	return false
}

// Value is an offer's expected lifetime fruit per fruit spent.
func Value(o economy.Offer) float64 {
	total := o.Species.Rate * o.Species.Lifespan.Seconds()
	if o.Price <= 0 {
		return math.Inf(1)
	}
	return total / o.Price
}

// Decide turns a snapshot into an ordered list of actions. It never returns
// nil; a cycle with nothing to do yields a single ActionNone.
func Decide(snap *Snapshot, h *Health, pol Policy) []Action {
	if snap.GameOver {
		return []Action{{Type: ActionNone, Rationale: "game over"}}
	}

	free := snap.EmptyCells()
	var actions []Action

	// Pouch seeds are free; always sow them first.
	for _, sp := range snap.Pouch {
		if len(free) == 0 {
			break
		}
		actions = append(actions, Action{
			Type:      ActionSow,
			Pos:       free[0],
			Seed:      sp.Name,
			Rationale: "seed in pouch",
		})
		free = free[1:]
	}

	if len(free) == 0 {
		return orNone(actions, "garden full")
	}

	if pol.holds(h.Threat) && h.CrisisLevel != Critical {
		return orNone(actions, "holding fruit for "+h.Threat.String())
	}

	fruit := snap.Fruit
	offers := snap.Offers
	for buys := 0; buys < pol.MaxBuys && len(free) > 0; buys++ {
		slot, ok := bestOffer(offers, fruit)
		if !ok {
			break
		}
		o := offers[slot]
		actions = append(actions, Action{
			Type:      ActionBuy,
			Pos:       free[0],
			Slot:      slot,
			Rationale: fmt.Sprintf("%s returns %.1fx its price", o.Species.Name, Value(o)),
		})
		free = free[1:]
		fruit -= o.Price
		// The slot re-rolls after purchase; don't buy from it again this cycle.
		offers = withoutSlot(offers, slot)
	}

	if !hasType(actions, ActionBuy) && len(snap.Pouch) == 0 {
		budget := fruit * pol.RefreshBudget
		if h.CrisisLevel == Critical {
			budget = fruit
		}
		if snap.RefreshCost <= budget && snap.RefreshCost < fruit {
			actions = append(actions, Action{
				Type:      ActionRefresh,
				Rationale: fmt.Sprintf("no affordable offer, refresh costs %.0f", snap.RefreshCost),
			})
		}
	}

	return orNone(actions, "nothing affordable")
}

// bestOffer returns the index of the affordable offer with the highest value.
// Ties go to the lower slot.
func bestOffer(offers []economy.Offer, fruit float64) (int, bool) {
	best, bestValue := -1, 0.0
	for i, o := range offers {
		if o.Price > fruit {
			continue
		}
		if v := Value(o); best < 0 || v > bestValue {
			best, bestValue = i, v
		}
	}
	return best, best >= 0
}

func withoutSlot(offers []economy.Offer, i int) []economy.Offer {
	out := make([]economy.Offer, len(offers))
	copy(out, offers)
	// Price above any purchasable amount keeps indexes stable.
	out[i].Price = math.Inf(1)
	return out
}

func hasType(actions []Action, t string) bool {
	for _, a := range actions {
		if a.Type == t {
			return true
		}
	}
	return false
}

func orNone(actions []Action, reason string) []Action {
	if len(actions) == 0 {
		return []Action{{Type: ActionNone, Rationale: reason}}
	}
	return actions
}
