package pattern

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/pojntfx/test-tlb/pkg/arena"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSequential(t *testing.T, size, stride uint64) *arena.Arena {
	t.Helper()

	a, err := arena.New(make([]byte, size), size, stride)
	require.NoError(t, err)
	a.LinkSequential()

	return a
}

func cycleFrom0(a *arena.Arena) []uint32 {
	order := make([]uint32, 0, a.Cells())

	c := arena.Cursor(0)
	for i := 0; i < a.Cells(); i++ {
		order = append(order, uint32(c))
		c = a.Next(c)
	}

	return order
}

func TestRandomize_SingleCycle(t *testing.T) {
	for _, g := range []struct{ size, stride uint64 }{
		{4096, 64},
		{4096, 4},
		{64 * 1024, 4096},
		{100, 24},
		{16, 16},
	} {
		a := newSequential(t, g.size, g.stride)

		require.NoError(t, Randomize(a, rand.New(rand.NewPCG(1, 2))))
		require.NoError(t, a.Verify(), "size %v stride %v", g.size, g.stride)
	}
}

func TestRandomize_IsPermutationOfSequential(t *testing.T) {
	seq := newSequential(t, 16*1024, 64)
	want := cycleFrom0(seq)

	rnd := newSequential(t, 16*1024, 64)
	require.NoError(t, Randomize(rnd, rand.New(rand.NewPCG(42, 7))))
	got := cycleFrom0(rnd)

	assert.NotEqual(t, want, got)

	slices.Sort(got)
	assert.Equal(t, want, got)
}

func TestRandomize_FollowsShuffleOfSeed(t *testing.T) {
	a := newSequential(t, 1024, 32)
	require.NoError(t, Randomize(a, rand.New(rand.NewPCG(3, 4))))

	expected := make([]uint32, a.Cells())
	for i := range expected {
		expected[i] = uint32(a.Offset(i))
	}
	Shuffle(expected, rand.New(rand.NewPCG(3, 4)))

	for i, off := range expected {
		next := expected[(i+1)%len(expected)]
		assert.Equal(t, arena.Cursor(next), a.Next(arena.Cursor(off)), "cell %v", off)
	}
}

func TestRandomize_Deterministic(t *testing.T) {
	a := newSequential(t, 8192, 16)
	b := newSequential(t, 8192, 16)

	require.NoError(t, Randomize(a, rand.New(rand.NewPCG(9, 9))))
	require.NoError(t, Randomize(b, rand.New(rand.NewPCG(9, 9))))

	assert.Equal(t, cycleFrom0(a), cycleFrom0(b))
}

func TestShuffle_KnownOutcome(t *testing.T) {
	order := []uint32{0, 1, 2, 3, 4, 5, 6, 7}
	want := slices.Clone(order)
	rand.New(rand.NewPCG(5, 5)).Shuffle(len(want), func(i, j int) {
		want[i], want[j] = want[j], want[i]
	})

	Shuffle(order, rand.New(rand.NewPCG(5, 5)))

	assert.Equal(t, want, order)
	assert.ElementsMatch(t, []uint32{0, 1, 2, 3, 4, 5, 6, 7}, order)
}

func TestNewSource(t *testing.T) {
	assert.NotNil(t, NewSource())
}
