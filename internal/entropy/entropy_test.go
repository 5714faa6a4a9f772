package entropy

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedSource []float64

func (f *fixedSource) Float64() float64 {
	v := (*f)[0]
	*f = (*f)[1:]
	return v
}

func TestStreamDeterministic(t *testing.T) {
	a := NewStream(12345, "events")
	b := NewStream(12345, "events")

	for i := 0; i < 50; i++ {
		require.Equal(t, a.IntN(100000), b.IntN(100000), "mismatch at draw %d", i)
	}
}

func TestStreamSaltsAreIndependent(t *testing.T) {
	a := NewStream(99, "events")
	b := NewStream(99, "forecast")

	same := 0
	for i := 0; i < 20; i++ {
		if a.IntN(1_000_000) == b.IntN(1_000_000) {
			same++
		}
	}
	assert.Less(t, same, 3)
}

func TestStreamRangeAndDuration(t *testing.T) {
	s := NewStream(7, "range")
	for i := 0; i < 200; i++ {
		v := s.Range(5, 2)
		require.GreaterOrEqual(t, v, 2.0)
		require.LessOrEqual(t, v, 5.0)

		d := s.Duration(5*time.Second, 10*time.Second)
		require.GreaterOrEqual(t, d, 5*time.Second)
		require.LessOrEqual(t, d, 10*time.Second)
	}
}

func TestStreamSampleDistinct(t *testing.T) {
	s := NewStream(3, "sample")

	got := s.Sample(10, 4)
	require.Len(t, got, 4)
	seen := map[int]bool{}
	for _, i := range got {
		require.False(t, seen[i], "duplicate index %d", i)
		require.True(t, i >= 0 && i < 10)
		seen[i] = true
	}

	assert.Len(t, s.Sample(3, 9), 3)
	assert.Empty(t, s.Sample(3, 0))
}

func TestPickFollowsCumulativeWeights(t *testing.T) {
	choices := []Weighted[string, float64]{
		{Outcome: "a", Weight: 1},
		{Outcome: "skip", Weight: 0},
		{Outcome: "b", Weight: 3},
	}

	src := fixedSource{0.0, 0.24, 0.26, 0.99}
	for _, want := range []string{"a", "a", "b", "b"} {
		got, ok := Pick[string, float64](&src, choices)
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
}

func TestPickNeverReturnsZeroOrNegativeWeight(t *testing.T) {
	choices := []Weighted[int, int]{
		{Outcome: 1, Weight: -5},
		{Outcome: 2, Weight: 0},
		{Outcome: 3, Weight: 2},
	}
	s := NewStream(1, "pick")
	for i := 0; i < 500; i++ {
		got, ok := Pick[int, int](s, choices)
		require.True(t, ok)
		require.Equal(t, 3, got)
	}
}

func TestPickEmpty(t *testing.T) {
	_, ok := Pick[string, int](NewStream(1, "x"), nil)
	assert.False(t, ok)

	_, ok = Pick[string, float64](NewStream(1, "x"), []Weighted[string, float64]{{Outcome: "a", Weight: 0}})
	assert.False(t, ok)
}

func TestPickDistributionRoughlyProportional(t *testing.T) {
	choices := []Weighted[string, int]{
		{Outcome: "common", Weight: 9},
		{Outcome: "rare", Weight: 1},
	}
	s := NewStream(2024, "dist")
	counts := map[string]int{}
	for i := 0; i < 10000; i++ {
		got, _ := Pick[string, int](s, choices)
		counts[got]++
	}
	assert.InDelta(t, 9000, counts["common"], 400)
	assert.InDelta(t, 1000, counts["rare"], 400)
}

func TestUniformAndTotal(t *testing.T) {
	choices := Uniform([]string{"x", "y", "z"})
	require.Len(t, choices, 3)
	assert.Equal(t, 3.0, Total(choices))
}

func TestStreamReadIsSeeded(t *testing.T) {
	a, b := make([]byte, 21), make([]byte, 21)
	n, err := NewStream(4, "ids").Read(a)
	require.NoError(t, err)
	assert.Equal(t, 21, n)
	_, _ = NewStream(4, "ids").Read(b)
	assert.Equal(t, a, b)

	_, _ = NewStream(5, "ids").Read(b)
	assert.NotEqual(t, a, b)
}

func TestNilClientFallsBackToCrypto(t *testing.T) {
	var c *Client
	assert.False(t, c.Enabled())
	assert.Nil(t, NewClient(""))

	for i := 0; i < 10; i++ {
		assert.NotZero(t, NewSeed(context.Background(), c))
	}
}
