package gardener

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/terraform-garden/internal/config"
	"github.com/talgya/terraform-garden/internal/economy"
	"github.com/talgya/terraform-garden/internal/engine"
	"github.com/talgya/terraform-garden/internal/garden"
	"github.com/talgya/terraform-garden/internal/plants"
	"github.com/talgya/terraform-garden/internal/survival"
	"github.com/talgya/terraform-garden/internal/weather"
)

func species(name string, rate float64, life time.Duration) plants.Species {
	return plants.Species{Name: name, Tier: 1, Rate: rate, Lifespan: life, Cost: 10}
}

// snapshot builds a 2x2 garden view with the first `planted` cells filled.
func snapshot(t *testing.T, planted int) *Snapshot {
	t.Helper()
	g, err := garden.New(2, 2)
	require.NoError(t, err)
	for i := 0; i < planted; i++ {
		require.NoError(t, g.PlantAt(garden.Pos{Row: i / 2, Col: i % 2}, plants.New(species("fern", 1, time.Minute))))
	}
	return &Snapshot{Grid: g.Snapshot(), Fruit: 100, RefreshCost: 20}
}

func TestTriageLevels(t *testing.T) {
	snap := snapshot(t, 0)
	assert.Equal(t, Watch, Triage(snap).CrisisLevel)

	snap = snapshot(t, 3)
	h := Triage(snap)
	assert.Equal(t, Healthy, h.CrisisLevel)
	assert.Equal(t, 1, h.Free)
	assert.InDelta(t, 0.75, h.Coverage, 1e-9)

	snap.Forecast = weather.Forecast{Kind: weather.Hailstorm, Known: true}
	h = Triage(snap)
	assert.Equal(t, Warning, h.CrisisLevel)
	assert.Equal(t, weather.Hailstorm, h.Threat)

	snap.Forecast = weather.Forecast{}
	snap.Weather = weather.State{Phase: weather.Warning, Kind: weather.Meteor}
	assert.Equal(t, weather.Meteor, Triage(snap).Threat)

	snap.Weather = weather.State{Phase: weather.Warning, Kind: weather.Eclipse}
	assert.Equal(t, weather.None, Triage(snap).Threat, "eclipse destroys nothing")

	snap.Countdown = survival.Status{Active: true}
	assert.Equal(t, Critical, Triage(snap).CrisisLevel)
}

func TestDecideSowsPouchFirst(t *testing.T) {
	snap := snapshot(t, 2)
	snap.Pouch = []plants.Species{species("sprout", 1, time.Minute), species("sprout", 1, time.Minute), species("extra", 1, time.Minute)}

	actions := Decide(snap, Triage(snap), DefaultPolicy())

	require.Len(t, actions, 2, "only two cells are free")
	assert.Equal(t, ActionSow, actions[0].Type)
	assert.Equal(t, garden.Pos{Row: 1, Col: 0}, actions[0].Pos)
	assert.Equal(t, garden.Pos{Row: 1, Col: 1}, actions[1].Pos)
}

func TestDecideBuysBestAffordableValue(t *testing.T) {
	snap := snapshot(t, 1)
	snap.Offers = []economy.Offer{
		{Slot: 0, Species: species("cheap", 1, 10*time.Second), Price: 5},  // 2x
		{Slot: 1, Species: species("great", 10, time.Minute), Price: 200},  // too expensive
		{Slot: 2, Species: species("solid", 2, 30*time.Second), Price: 20}, // 3x
	}

	actions := Decide(snap, Triage(snap), DefaultPolicy())

	require.Len(t, actions, 1)
	assert.Equal(t, ActionBuy, actions[0].Type)
	assert.Equal(t, 2, actions[0].Slot)
	assert.Equal(t, garden.Pos{Row: 0, Col: 1}, actions[0].Pos)
}

func TestDecideMaxBuysSkipsBoughtSlot(t *testing.T) {
	snap := snapshot(t, 0)
	snap.Offers = []economy.Offer{
		{Slot: 0, Species: species("a", 1, 10*time.Second), Price: 5},
		{Slot: 1, Species: species("b", 2, 30*time.Second), Price: 20},
	}
	pol := DefaultPolicy()
	pol.MaxBuys = 3

	actions := Decide(snap, Triage(snap), pol)

	require.Len(t, actions, 2)
	assert.Equal(t, 1, actions[0].Slot)
	assert.Equal(t, 0, actions[1].Slot)
	assert.NotEqual(t, actions[0].Pos, actions[1].Pos)
}

func TestDecideHoldsForMeteor(t *testing.T) {
	snap := snapshot(t, 1)
	snap.Offers = []economy.Offer{{Slot: 0, Species: species("a", 1, 10*time.Second), Price: 5}}
	snap.Weather = weather.State{Phase: weather.Warning, Kind: weather.Meteor}

	actions := Decide(snap, Triage(snap), DefaultPolicy())
	require.Len(t, actions, 1)
	assert.Equal(t, ActionNone, actions[0].Type)

	snap.Countdown = survival.Status{Active: true}
	actions = Decide(snap, Triage(snap), DefaultPolicy())
	assert.Equal(t, ActionBuy, actions[0].Type, "an empty garden can't wait")
}

func TestDecideHoldsForConfiguredThreats(t *testing.T) {
	snap := snapshot(t, 1)
	snap.Offers = []economy.Offer{{Slot: 0, Species: species("a", 1, 10*time.Second), Price: 5}}
	snap.Forecast = weather.Forecast{Kind: weather.Hailstorm, Known: true}

	actions := Decide(snap, Triage(snap), DefaultPolicy())
	assert.Equal(t, ActionBuy, actions[0].Type, "hail is not held for by default")

	pol := DefaultPolicy()
	pol.HoldFor, _ = weather.ParseKinds("meteor,hailstorm")
	actions = Decide(snap, Triage(snap), pol)
	require.Len(t, actions, 1)
	assert.Equal(t, ActionNone, actions[0].Type)
	assert.Equal(t, "holding fruit for hailstorm", actions[0].Rationale)
}

func TestDecideRefreshesWithinBudget(t *testing.T) {
	snap := snapshot(t, 1)
	snap.Offers = []economy.Offer{{Slot: 0, Species: species("a", 1, 10*time.Second), Price: 500}}

	actions := Decide(snap, Triage(snap), DefaultPolicy())
	require.Len(t, actions, 1)
	assert.Equal(t, ActionRefresh, actions[0].Type)

	snap.RefreshCost = 40 // over a quarter of 100 fruit
	actions = Decide(snap, Triage(snap), DefaultPolicy())
	assert.Equal(t, ActionNone, actions[0].Type)
}

func TestDecideFullGarden(t *testing.T) {
	snap := snapshot(t, 4)
	snap.Offers = []economy.Offer{{Slot: 0, Species: species("a", 1, 10*time.Second), Price: 5}}

	actions := Decide(snap, Triage(snap), DefaultPolicy())
	require.Len(t, actions, 1)
	assert.Equal(t, ActionNone, actions[0].Type)
	assert.Equal(t, "garden full", actions[0].Rationale)
}

func newSim(t *testing.T) *engine.Simulation {
	t.Helper()
	cfg := config.Default()
	cfg.Seed = 7
	cfg.Weather.FirstCheck = time.Hour
	sim, err := engine.NewSimulation(cfg, plants.FallbackManifest())
	require.NoError(t, err)
	return sim
}

func TestAutopilotCycleSowsStarterSeeds(t *testing.T) {
	sim := newSim(t)
	pilot := New(DefaultPolicy())

	rec, err := pilot.Cycle(sim, 0, 0)
	require.NoError(t, err)

	assert.Empty(t, sim.Pouch())
	assert.GreaterOrEqual(t, sim.Grid().Occupied, 2)
	assert.Equal(t, sim.Grid().Occupied, rec.Occupied)
	assert.Zero(t, rec.Failed)
	assert.Equal(t, Watch, rec.CrisisLevel)
	assert.Len(t, pilot.Memory.Records, 1)
}

func TestAutopilotKeepsGardenAlive(t *testing.T) {
	sim := newSim(t)
	pilot := New(DefaultPolicy())

	for i := uint64(1); i <= 300; i++ {
		_, err := pilot.Cycle(sim, i, sim.Clock())
		require.NoError(t, err)
		sim.Tick(500 * time.Millisecond)
	}
	assert.False(t, sim.GameOver())
	assert.Positive(t, sim.Score())
}

func TestAttachDrivesEngine(t *testing.T) {
	sim := newSim(t)
	pilot := New(DefaultPolicy())
	eng := engine.NewEngine()
	eng.Unthrottled = true
	eng.MaxTicks = 50
	pilot.Attach(eng, sim)

	require.NoError(t, eng.Run(context.Background()))
	assert.Equal(t, uint64(50), sim.Ticks())
	assert.Equal(t, 50, pilot.Memory.Cycles)
	assert.Equal(t, 5*time.Second, sim.Clock())
	assert.False(t, sim.GameOver())
}

func TestAttachStopsAtGameOver(t *testing.T) {
	sim := newSim(t)
	pol := DefaultPolicy()
	pol.MaxBuys = 0
	pilot := New(pol)
	eng := engine.NewEngine()
	eng.Unthrottled = true
	eng.MaxTicks = 1000
	pilot.Attach(eng, sim)

	// No seeds and no purchases: the garden stays empty until the countdown ends.
	for _, sp := range sim.Pouch() {
		_, err := sim.TakeSeed(sp.Name)
		require.NoError(t, err)
	}
	require.NoError(t, eng.Run(context.Background()))
	assert.True(t, sim.GameOver())
	assert.Less(t, eng.Tick, uint64(1000))
}

func TestActStopsOnGameOver(t *testing.T) {
	sim := newSim(t)
	sim.Tick(time.Millisecond)
	sim.Tick(time.Minute)
	require.True(t, sim.GameOver())

	outcomes, err := Act(sim, []Action{{Type: ActionRefresh}, {Type: ActionNone}})
	require.ErrorIs(t, err, engine.ErrGameOver)
	assert.Empty(t, outcomes)

	_, err = New(DefaultPolicy()).Cycle(sim, 1, sim.Clock())
	assert.NoError(t, err, "a finished run decides nothing")
}

func TestActSkipsFailures(t *testing.T) {
	sim := newSim(t)
	actions := []Action{
		{Type: ActionSow, Pos: garden.Pos{Row: 99, Col: 0}, Seed: "nope"},
		{Type: "dance"},
		{Type: ActionNone},
	}

	outcomes, err := Act(sim, actions)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)
	assert.NotEmpty(t, outcomes[0].Err)
	assert.Contains(t, outcomes[1].Err, "unknown action")
	assert.Empty(t, outcomes[2].Err)
}

func TestMemoryRingAndPersistence(t *testing.T) {
	mem := &CycleMemory{}
	for i := 0; i < maxRecords+3; i++ {
		mem.Record(CycleRecord{Tick: uint64(i), CrisisLevel: Healthy, Actions: []string{"refresh"}})
	}
	require.Len(t, mem.Records, maxRecords)
	assert.Equal(t, uint64(3), mem.Records[0].Tick)
	assert.Equal(t, maxRecords+3, mem.Cycles)

	last, ok := mem.Last()
	require.True(t, ok)
	assert.Equal(t, uint64(maxRecords+2), last.Tick)
	assert.Contains(t, mem.Format(), "actions=[refresh]")

	path := filepath.Join(t.TempDir(), "memory.json")
	require.NoError(t, mem.Save(path))
	assert.Equal(t, mem, LoadMemory(path))

	assert.Empty(t, LoadMemory(filepath.Join(t.TempDir(), "missing.json")).Records)
}
