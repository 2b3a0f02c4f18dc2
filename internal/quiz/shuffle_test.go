package quiz

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShuffleIsPermutation(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	items := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	original := slices.Clone(items)

	for i := 0; i < 100; i++ {
		shuffled := Shuffle(items, rng)
		require.Len(t, shuffled, len(items))
		assert.ElementsMatch(t, items, shuffled)
	}
	assert.Equal(t, original, items, "input not mutated")
}

func TestShuffleEdgeCases(t *testing.T) {
	assert.Empty(t, Shuffle([]string{}, nil))
	assert.Empty(t, Shuffle[string](nil, nil))
	assert.Equal(t, []string{"seul"}, Shuffle([]string{"seul"}, nil))
}

func TestShuffleReturnsNewSlice(t *testing.T) {
	items := []int{1, 2, 3}
	shuffled := Shuffle(items, rand.New(rand.NewPCG(7, 7)))
	shuffled[0] = 99
	assert.Equal(t, []int{1, 2, 3}, items)
}

func TestShuffleIsDeterministicForSeed(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}
	first := Shuffle(items, rand.New(rand.NewPCG(42, 0)))
	second := Shuffle(items, rand.New(rand.NewPCG(42, 0)))
	assert.Equal(t, first, second)
}

func TestShuffleIsUniform(t *testing.T) {
	// Every one of the 3! orderings should appear close to 1/6 of the time.
	const trials = 60000
	rng := rand.New(rand.NewPCG(2026, 6))
	counts := make(map[[3]int]int)

	for i := 0; i < trials; i++ {
		s := Shuffle([]int{0, 1, 2}, rng)
		counts[[3]int{s[0], s[1], s[2]}]++
	}

	require.Len(t, counts, 6)
	expected := float64(trials) / 6
	for perm, n := range counts {
		assert.InDelta(t, expected, float64(n), expected*0.05, "ordering %v", perm)
	}
}

func TestShufflePositionFrequency(t *testing.T) {
	// Each element lands in each position with probability 1/n.
	const (
		n      = 5
		trials = 50000
	)
	rng := rand.New(rand.NewPCG(3, 14))
	var hits [n][n]int

	items := []int{0, 1, 2, 3, 4}
	for i := 0; i < trials; i++ {
		for pos, v := range Shuffle(items, rng) {
			hits[v][pos]++
		}
	}

	expected := float64(trials) / n
	for v := 0; v < n; v++ {
		for pos := 0; pos < n; pos++ {
			assert.InDelta(t, expected, float64(hits[v][pos]), expected*0.05, "element %d at %d", v, pos)
		}
	}
}
