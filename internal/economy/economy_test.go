package economy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/terraform-garden/internal/entropy"
	"github.com/talgya/terraform-garden/internal/plants"
)

func testCatalog(t *testing.T) []plants.Species {
	t.Helper()
	gen := plants.NewGenerator(plants.DefaultConfig(), entropy.NewStream(7, "plants"))
	catalog, err := gen.Catalog(plants.FallbackManifest())
	require.NoError(t, err)
	return catalog
}

func newEconomy(t *testing.T, cfg Config) *Economy {
	t.Helper()
	e, err := New(cfg, testCatalog(t), entropy.NewStream(7, "shop"))
	require.NoError(t, err)
	return e
}

func TestRequiredScoreCurve(t *testing.T) {
	assert.Equal(t, 100.0, RequiredScore(1))
	assert.InDelta(t, 291.8, RequiredScore(2), 1e-9)
	for tier := 2; tier <= plants.MaxTier; tier++ {
		assert.Greater(t, RequiredScore(tier), RequiredScore(tier-1))
	}
}

func TestTierScenario(t *testing.T) {
	e := newEconomy(t, DefaultConfig())
	assert.Equal(t, 1, e.Tier())

	e.Credit(99)
	assert.Zero(t, e.UpdateTier())
	assert.Equal(t, 1, e.Tier())

	e.Credit(1)
	assert.Equal(t, 1, e.UpdateTier())
	assert.Equal(t, 2, e.Tier())

	e.score = RequiredScore(2)
	assert.Equal(t, 1, e.UpdateTier())
	assert.Equal(t, 3, e.Tier())
}

func TestTierCapsAtTen(t *testing.T) {
	e := newEconomy(t, DefaultConfig())
	e.Credit(1e30)
	assert.Equal(t, 9, e.UpdateTier())
	assert.Equal(t, plants.MaxTier, e.Tier())
	assert.Zero(t, e.UpdateTier())

	_, ok := e.NextTierScore()
	assert.False(t, ok)
}

func TestCreditIgnoresNonPositive(t *testing.T) {
	e := newEconomy(t, DefaultConfig())
	e.Credit(-50)
	e.Credit(0)
	assert.Zero(t, e.Score())
	assert.Equal(t, 150.0, e.Fruit())

	e.Credit(25)
	assert.Equal(t, 25.0, e.Score())
	assert.Equal(t, 175.0, e.Fruit())
}

func TestInflationStepsAtFiftyThousand(t *testing.T) {
	assert.Equal(t, 1.0, InflationMultiplier(0))
	assert.Equal(t, 1.0, InflationMultiplier(49999))
	assert.Greater(t, InflationMultiplier(50000), InflationMultiplier(49999))
	assert.InDelta(t, 1.1, InflationMultiplier(50000), 1e-9)

	prev := InflationMultiplier(0)
	for s := 0.0; s < 1e6; s += 7919 {
		cur := InflationMultiplier(s)
		assert.GreaterOrEqual(t, cur, prev)
		prev = cur
	}
}

func TestOfferPricesFollowInflation(t *testing.T) {
	e := newEconomy(t, DefaultConfig())
	e.Credit(49999)
	before := e.Offers()

	e.Credit(1)
	after := e.Offers()
	require.Len(t, after, len(before))
	for i := range after {
		assert.Equal(t, before[i].Species, after[i].Species)
		assert.Equal(t, Price(after[i].Species.Cost, 50000), after[i].Price)
		assert.Greater(t, after[i].Price, before[i].Price)
	}
}

func TestShopOffersUnlockedTiersOnly(t *testing.T) {
	e := newEconomy(t, DefaultConfig())
	offers := e.Offers()
	require.Len(t, offers, 3)
	for _, o := range offers {
		assert.Equal(t, 1, o.Species.Tier)
	}

	e.Credit(RequiredScore(1))
	e.UpdateTier()
	offers = e.Offers()
	assert.Equal(t, 2, offers[0].Species.Tier, "first slot shows the newest tier")
	for _, o := range offers {
		assert.LessOrEqual(t, o.Species.Tier, 2)
	}
}

func TestPurchaseDebitsFruitNotScore(t *testing.T) {
	e := newEconomy(t, DefaultConfig())
	e.Credit(1000)
	offer := e.Offers()[1]

	sp, err := e.Purchase(1)
	require.NoError(t, err)
	assert.Equal(t, offer.Species, sp)
	assert.Equal(t, 1000.0, e.Score())
	assert.Equal(t, 1150-offer.Price, e.Fruit())
	assert.Len(t, e.Offers(), 3)
}

func TestPurchaseErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StartingFruit = 0
	e := newEconomy(t, cfg)

	_, err := e.Purchase(3)
	require.ErrorIs(t, err, ErrInvalidOffer)
	_, err = e.Purchase(-1)
	require.ErrorIs(t, err, ErrInvalidOffer)

	_, err = e.Purchase(0)
	require.ErrorIs(t, err, ErrInsufficientFunds)

	e.offers[2] = e.speciesAt(5)[0]
	e.Credit(1e9)
	e.tier = 1
	_, err = e.Purchase(2)
	require.ErrorIs(t, err, ErrTierLocked)
}

func TestRefreshCostGrows(t *testing.T) {
	e := newEconomy(t, DefaultConfig())
	assert.Equal(t, 50.0, e.RefreshCost())

	require.NoError(t, e.Refresh())
	assert.Equal(t, 100.0, e.Fruit())
	assert.Equal(t, 60.0, e.RefreshCost())

	require.NoError(t, e.Refresh())
	assert.Equal(t, 40.0, e.Fruit())
	assert.Equal(t, 72.0, e.RefreshCost())

	err := e.Refresh()
	require.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, 40.0, e.Fruit())
}

func TestFreeRefresh(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Refresh.Cost = 0
	cfg.StartingFruit = 0
	e := newEconomy(t, cfg)

	for i := 0; i < 5; i++ {
		require.NoError(t, e.Refresh())
	}
	assert.Zero(t, e.RefreshCost())
}

func TestAutoRefresh(t *testing.T) {
	cfg := DefaultConfig()
	e := newEconomy(t, cfg)
	assert.False(t, e.Advance(time.Hour), "auto refresh is off by default")

	cfg.Refresh.Auto = true
	e = newEconomy(t, cfg)
	assert.False(t, e.Advance(59*time.Second))
	assert.True(t, e.Advance(time.Second))
	assert.False(t, e.Advance(time.Second))

	assert.Equal(t, 60*time.Second, cfg.Refresh.AutoInterval(0))
	assert.Equal(t, 55*time.Second, cfg.Refresh.AutoInterval(50000))
	assert.Equal(t, 10*time.Second, cfg.Refresh.AutoInterval(1e8))
}

func TestStarterPouch(t *testing.T) {
	e := newEconomy(t, DefaultConfig())
	pouch := e.Pouch()
	require.Len(t, pouch, 2)
	for _, sp := range pouch {
		assert.Equal(t, 1, sp.Tier)
	}

	sp, err := e.TakeSeed(pouch[0].Name)
	require.NoError(t, err)
	assert.Equal(t, pouch[0], sp)
	assert.Len(t, e.Pouch(), 1)

	_, err = e.TakeSeed("no such plant")
	require.ErrorIs(t, err, ErrNoSeed)

	e.ReturnSeed(sp)
	assert.Len(t, e.Pouch(), 2)
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New(DefaultConfig(), nil, entropy.NewStream(1, "shop"))
	require.ErrorIs(t, err, ErrEmptyCatalog)

	bad := DefaultConfig()
	bad.OfferSlots = 0
	_, err = New(bad, testCatalog(t), entropy.NewStream(1, "shop"))
	require.Error(t, err)
}
