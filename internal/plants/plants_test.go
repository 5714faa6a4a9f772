package plants

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/terraform-garden/internal/entropy"
)

func testSpecies(rate float64, life time.Duration) Species {
	return Species{Name: "test", Tier: 1, Rate: rate, Lifespan: life, Cost: 10}
}

func TestSpeciesPositiveForAllTiers(t *testing.T) {
	cfg := DefaultConfig()
	g := NewGenerator(cfg, entropy.NewStream(42, "plants"))

	for tier := MinTier; tier <= MaxTier; tier++ {
		for i := 0; i < 50; i++ {
			sp, err := g.Species(tier)
			require.NoError(t, err)
			require.Equal(t, tier, sp.Tier)
			require.Greater(t, sp.Rate, 0.0, "tier %d rate", tier)
			require.Greater(t, sp.Lifespan, time.Duration(0), "tier %d lifespan", tier)
			require.Greater(t, sp.Cost, 0.0, "tier %d cost", tier)
		}
	}
}

func TestMeanRateAndCostNonDecreasing(t *testing.T) {
	cfg := DefaultConfig()
	for tier := MinTier + 1; tier <= MaxTier; tier++ {
		assert.GreaterOrEqual(t, cfg.MeanRate(tier), cfg.MeanRate(tier-1), "rate tier %d", tier)
		assert.GreaterOrEqual(t, cfg.MeanCost(tier), cfg.MeanCost(tier-1), "cost tier %d", tier)
	}
}

func TestSampledRangesDoNotOverlapAcrossTiers(t *testing.T) {
	// The ±15% band is narrower than one growth step, so every sample of a
	// higher tier beats every sample of the tier below.
	cfg := DefaultConfig()
	g := NewGenerator(cfg, entropy.NewStream(5, "plants"))

	prevMaxRate, prevMaxCost := 0.0, 0.0
	for tier := MinTier; tier <= MaxTier; tier++ {
		minRate, minCost := 1e18, 1e18
		maxRate, maxCost := 0.0, 0.0
		for i := 0; i < 100; i++ {
			sp, err := g.Species(tier)
			require.NoError(t, err)
			minRate = min(minRate, sp.Rate)
			maxRate = max(maxRate, sp.Rate)
			minCost = min(minCost, sp.Cost)
			maxCost = max(maxCost, sp.Cost)
		}
		require.GreaterOrEqual(t, minRate, prevMaxRate, "tier %d rate", tier)
		require.GreaterOrEqual(t, minCost, prevMaxCost, "tier %d cost", tier)
		prevMaxRate, prevMaxCost = maxRate, maxCost
	}
}

func TestStatDrawsCoverEverySlice(t *testing.T) {
	cfg := DefaultConfig()
	g := NewGenerator(cfg, entropy.NewStream(11, "plants"))
	lo, hi := cfg.LifespanRange(1)
	width := (hi - lo) / statSlices

	counts := make([]int, statSlices)
	const n = 4000
	for i := 0; i < n; i++ {
		sp, err := g.Species(1)
		require.NoError(t, err)
		require.GreaterOrEqual(t, sp.Lifespan, lo)
		require.LessOrEqual(t, sp.Lifespan, hi)
		slot := min(int((sp.Lifespan-lo)/width), statSlices-1)
		counts[slot]++
	}
	for i, c := range counts {
		assert.InDelta(t, n/statSlices, c, n/statSlices*0.3, "slice %d", i)
	}
}

func TestStatDrawIsReproducible(t *testing.T) {
	a := NewGenerator(DefaultConfig(), entropy.NewStream(3, "plants"))
	b := NewGenerator(DefaultConfig(), entropy.NewStream(3, "plants"))
	for tier := MinTier; tier < MaxTier; tier++ {
		x, err := a.Species(tier)
		require.NoError(t, err)
		y, err := b.Species(tier)
		require.NoError(t, err)
		assert.Equal(t, x, y)
	}
}

func TestLifespanRangeWidensWithTier(t *testing.T) {
	cfg := DefaultConfig()
	lo1, hi1 := cfg.LifespanRange(1)
	lo5, hi5 := cfg.LifespanRange(5)

	assert.Equal(t, 10*time.Second, lo1)
	assert.Equal(t, 40*time.Second, hi1)
	assert.Greater(t, hi5-lo5, hi1-lo1)

	lo9, _ := cfg.LifespanRange(9)
	assert.GreaterOrEqual(t, lo9, cfg.LifespanFloor)
}

func TestSpeciesRejectsInvalidTier(t *testing.T) {
	g := NewGenerator(DefaultConfig(), entropy.NewStream(1, "plants"))
	for _, tier := range []int{0, -1, 11} {
		_, err := g.Species(tier)
		require.ErrorIs(t, err, ErrInvalidTier)
	}
}

func TestCapstoneIsFixed(t *testing.T) {
	cfg := DefaultConfig()
	g := NewGenerator(cfg, entropy.NewStream(1, "plants"))
	sp, err := g.Species(MaxTier)
	require.NoError(t, err)
	assert.Equal(t, cfg.Capstone.Rate, sp.Rate)
	assert.Equal(t, cfg.Capstone.Cost, sp.Cost)
	assert.Equal(t, cfg.Capstone.Lifespan, sp.Lifespan)
}

func TestCatalogLayout(t *testing.T) {
	g := NewGenerator(DefaultConfig(), entropy.NewStream(9, "plants"))
	manifest := []ManifestEntry{{Name: "Fern"}, {Name: "Moss"}}

	catalog, err := g.Catalog(manifest)
	require.NoError(t, err)
	require.Len(t, catalog, 28)

	perTier := map[int]int{}
	names := map[string]bool{}
	for _, sp := range catalog {
		perTier[sp.Tier]++
		require.False(t, names[sp.Name], "duplicate name %s", sp.Name)
		names[sp.Name] = true
	}
	for tier := 1; tier < MaxTier; tier++ {
		assert.Equal(t, 3, perTier[tier], "tier %d", tier)
	}
	assert.Equal(t, 1, perTier[MaxTier])
	assert.True(t, names["Fern"])
	assert.True(t, names["Moss"])
}

func TestAdvanceYieldScenario(t *testing.T) {
	p := New(testSpecies(1.0, 30*time.Second))

	got := p.Advance(10*time.Second, Neutral())
	assert.InDelta(t, 10.0, got, 1e-9)
	assert.Equal(t, 10*time.Second, p.Age)
	assert.False(t, p.Withered())
}

func TestAdvanceEclipseYieldsNothing(t *testing.T) {
	eclipse := Modifiers{Aging: 1, Yield: 0}
	for _, rate := range []float64{1, 50, 100000} {
		for _, elapsed := range []time.Duration{time.Millisecond, time.Second, 7 * time.Second} {
			p := New(testSpecies(rate, time.Minute))
			assert.Zero(t, p.Advance(elapsed, eclipse))
			assert.Equal(t, elapsed, p.Age, "eclipse must not pause aging")
		}
	}
}

func TestAdvanceDroughtAcceleratesAging(t *testing.T) {
	p := New(testSpecies(2, 30*time.Second))
	got := p.Advance(5*time.Second, Modifiers{Aging: 3, Yield: 1})

	assert.Equal(t, 15*time.Second, p.Age)
	assert.InDelta(t, 10.0, got, 1e-9)
}

func TestAdvanceClipsYieldToRemainingLife(t *testing.T) {
	p := New(testSpecies(1, 4*time.Second))
	got := p.Advance(10*time.Second, Neutral())

	assert.InDelta(t, 4.0, got, 1e-9)
	assert.True(t, p.Withered())
	assert.Zero(t, p.Advance(time.Second, Neutral()), "withered plants stop producing")
}

func TestAdvanceLocustPenalty(t *testing.T) {
	p := New(testSpecies(10, time.Minute))
	got := p.Advance(2*time.Second, Modifiers{Aging: 1, Yield: 0.5})
	assert.InDelta(t, 10.0, got, 1e-9)
}

func TestExtendLifeIsCapped(t *testing.T) {
	p := New(testSpecies(1, 10*time.Second))

	assert.Equal(t, 5*time.Second, p.ExtendLife(5*time.Second, 2))
	assert.Equal(t, 5*time.Second, p.ExtendLife(5*time.Second, 2))
	assert.Zero(t, p.ExtendLife(5*time.Second, 2))
	assert.Equal(t, 20*time.Second, p.Lifespan)
}

func TestLifeRatio(t *testing.T) {
	p := New(testSpecies(1, 10*time.Second))
	assert.Zero(t, p.LifeRatio())
	p.Advance(5*time.Second, Neutral())
	assert.InDelta(t, 0.5, p.LifeRatio(), 1e-9)
	p.Advance(50*time.Second, Neutral())
	assert.Equal(t, 1.0, p.LifeRatio())
	assert.Zero(t, p.Remaining())
}

func TestNewAssignsDistinctIDs(t *testing.T) {
	sp := testSpecies(1, time.Second)
	assert.NotEqual(t, New(sp).ID, New(sp).ID)
}

func TestParseManifest(t *testing.T) {
	data := "Plant Name,Sprite Path\nSunflower,/assets/sun.png\n  ,x.png\nCactus,assets\\cactus.png\n"
	entries, err := ParseManifest(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Sunflower", entries[0].Name)
	assert.Equal(t, filepath.Join("assets", "sun.png"), entries[0].Sprite)
	assert.Equal(t, filepath.Join("assets", "cactus.png"), entries[1].Sprite)
}

func TestParseManifestRequiresNameColumn(t *testing.T) {
	_, err := ParseManifest(strings.NewReader("Name,Sprite\nx,y\n"))
	require.Error(t, err)
}

func TestLoadManifestFallsBackWhenMissing(t *testing.T) {
	entries, err := LoadManifest(filepath.Join(t.TempDir(), "nope.csv"))
	require.NoError(t, err)
	assert.Len(t, entries, 28)
	assert.Equal(t, "plant0", entries[0].Name)
}

func TestLoadManifestFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plants.csv")
	require.NoError(t, os.WriteFile(path, []byte("Plant Name,Sprite Path\nRose,rose.png\n"), 0o644))

	entries, err := LoadManifest(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Rose", entries[0].Name)
}

func TestDefaultConfigValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	bad := DefaultConfig()
	bad.LifespanFloor = 0
	require.Error(t, bad.Validate())
}
