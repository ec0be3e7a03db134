package random_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/towerduel/internal/dependencies/mocks"
	"github.com/mcoot/towerduel/internal/dependencies/random"
)

func TestCryptoRandomIntnStaysInRange(t *testing.T) {
	rnd := random.New()
	for i := 0; i < 200; i++ {
		v := rnd.Intn(7)
		require.GreaterOrEqual(t, v, 0)
		require.Less(t, v, 7)
	}
	assert.Equal(t, 0, rnd.Intn(0))
}

func TestCryptoRandomUUIDIsUnique(t *testing.T) {
	rnd := random.New()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := rnd.UUID()
		require.Len(t, id, 36)
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestShuffleIsPermutation(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6}
	random.Shuffle(random.New(), items)
	assert.ElementsMatch(t, []int{1, 2, 3, 4, 5, 6}, items)
}

func TestShuffleWithScriptedRandom(t *testing.T) {
	rnd := mocks.NewMockRandom()
	// i=3 -> j=3, i=2 -> j=0, i=1 -> j=1
	rnd.QueueIntn(3, 0, 1)
	items := []string{"a", "b", "c", "d"}

	random.Shuffle(rnd, items)

	assert.Equal(t, []string{"c", "b", "a", "d"}, items)
}
