package gardener

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/talgya/terraform-garden/internal/engine"
)

// Outcome is the result of applying one Action.
type Outcome struct {
	Action Action `json:"action"`
	Err    string `json:"error,omitempty"`
}

// Act applies actions in order. A failed action is logged and skipped; the
// rest still run. Act stops early and returns engine.ErrGameOver once the
// run has ended.
func Act(g Garden, actions []Action) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(actions))
	for _, a := range actions {
		err := apply(g, a)
		if errors.Is(err, engine.ErrGameOver) {
			return outcomes, err
		}
		o := Outcome{Action: a}
		if err != nil {
			o.Err = err.Error()
			slog.Warn("gardener action failed", "action", a.String(), "error", err)
		} else if a.Type != ActionNone {
			slog.Debug("gardener action applied", "action", a.String(), "rationale", a.Rationale)
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, nil
}

func apply(g Garden, a Action) error {
	switch a.Type {
	case ActionNone:
		return nil
	case ActionSow:
		return g.Sow(a.Pos.Row, a.Pos.Col, a.Seed)
	case ActionBuy:
		p, err := g.Purchase(a.Slot)
		if err != nil {
			return fmt.Errorf("buy slot %d: %w", a.Slot, err)
		}
		if err := g.PlantAt(a.Pos.Row, a.Pos.Col, p); err != nil {
			g.Stash(p)
			return fmt.Errorf("plant %s at %s: %w", p.Name, a.Pos, err)
		}
		return nil
	case ActionRefresh:
		return g.RefreshOffers()
	default:
		return fmt.Errorf("unknown action %q", a.Type)
	}
}
