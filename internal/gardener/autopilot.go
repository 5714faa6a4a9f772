package gardener

import (
	"log/slog"
	"time"

	"github.com/talgya/terraform-garden/internal/engine"
)

// Autopilot plays a run by observing, deciding and acting once per cycle.
type Autopilot struct {
	Policy Policy
	Memory *CycleMemory
}

// New creates an autopilot with the given policy and empty memory.
func New(pol Policy) *Autopilot {
	return &Autopilot{Policy: pol, Memory: &CycleMemory{}}
}

// Cycle runs one observe, triage, decide, act pass. tick and clock label the
// record. It returns engine.ErrGameOver once the run has ended.
func (a *Autopilot) Cycle(g Garden, tick uint64, clock time.Duration) (CycleRecord, error) {
	snap := Observe(g)
	health := Triage(snap)
	actions := Decide(snap, health, a.Policy)

	outcomes, err := Act(g, actions)

	rec := CycleRecord{
		Tick:        tick,
		Clock:       clock,
		Score:       g.Score(),
		Fruit:       g.Fruit(),
		Tier:        g.Tier(),
		Occupied:    g.Grid().Occupied,
		CrisisLevel: health.CrisisLevel,
	}
	for _, o := range outcomes {
		if o.Action.Type == ActionNone {
			continue
		}
		rec.Actions = append(rec.Actions, o.Action.String())
		if o.Err != "" {
			rec.Failed++
		}
	}
	a.Memory.Record(rec)

	if len(rec.Actions) > 0 || health.CrisisLevel == Critical {
		slog.Info("gardener cycle",
			"tick", tick,
			"crisis", health.CrisisLevel,
			"actions", len(rec.Actions),
			"failed", rec.Failed,
			"fruit", rec.Fruit,
		)
	}
	return rec, err
}

// Attach makes eng play sim: before every tick the autopilot takes a cycle,
// and the engine stops once the garden dies.
func (a *Autopilot) Attach(eng *engine.Engine, sim *engine.Simulation) {
	eng.OnTick = func(tick uint64, elapsed time.Duration) {
		if _, err := a.Cycle(sim, tick, sim.Clock()); err != nil {
			eng.Stop()
			return
		}
		if rep := sim.Tick(elapsed); rep.GameOver {
			eng.Stop()
		}
	}
}
