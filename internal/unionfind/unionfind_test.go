package unionfind

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindInsertsSingleton(t *testing.T) {
	s := New[string]()
	assert.Equal(t, "a", s.Find("a"))
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 1, s.Sets())
	assert.Equal(t, 1, s.Size("a"))
}

func TestUnion(t *testing.T) {
	s := New[int]()
	assert.True(t, s.Union(1, 2))
	assert.False(t, s.Union(2, 1), "already merged")
	assert.True(t, s.Connected(1, 2))
	assert.False(t, s.Connected(1, 3))
	assert.Equal(t, 2, s.Size(1))
	assert.Equal(t, 2, s.Sets(), "{1,2} and {3}")
}

func TestEqualSizeTieBreakPicksSmallerKey(t *testing.T) {
	s := New[string]()
	s.Union("b", "a")
	assert.Equal(t, "a", s.Find("b"))

	s2 := New[int]()
	s2.Union(9, 3)
	assert.Equal(t, 3, s2.Find(9))
	s2.Union(7, 8)
	s2.Union(8, 9)
	assert.Equal(t, 3, s2.Find(7), "equal sizes: root 3 < root 7")
}

func TestUnionBySize(t *testing.T) {
	s := New[int]()
	s.Union(5, 6)
	s.Union(5, 7)
	// {5,6,7} is larger than {1}, so 5 stays root even though 1 < 5
	s.Union(1, 7)
	assert.Equal(t, 5, s.Find(1))
	assert.Equal(t, 4, s.Size(1))
}

func TestPathCompression(t *testing.T) {
	s := New[int]()
	s.parent = map[int]int{0: 0, 1: 0, 2: 1, 3: 2, 4: 3}
	s.size = map[int]int{0: 5}

	require.Equal(t, 0, s.Find(4))
	for i := 1; i <= 4; i++ {
		assert.Equal(t, 0, s.parent[i], "node %d should point to root", i)
	}
}

func TestTransitivity(t *testing.T) {
	s := New[string]()
	s.Union("A", "B")
	s.Union("B", "C")
	assert.True(t, s.Connected("A", "C"))
}

func TestDeterministicAcrossRuns(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	pairs := make([][2]int, 200)
	for i := range pairs {
		pairs[i] = [2]int{rnd.Intn(100), rnd.Intn(100)}
	}
	roots := func() []int {
		s := New[int]()
		for _, p := range pairs {
			s.Union(p[0], p[1])
		}
		out := make([]int, 100)
		for i := range out {
			out[i] = s.Find(i)
		}
		return out
	}
	assert.Equal(t, roots(), roots())
}

func TestPartitionMatchesNaive(t *testing.T) {
	rnd := rand.New(rand.NewSource(11))
	const n = 60
	s := New[int]()
	label := make([]int, n)
	for i := range label {
		label[i] = i
	}
	for k := 0; k < 80; k++ {
		a, b := rnd.Intn(n), rnd.Intn(n)
		s.Union(a, b)
		la, lb := label[a], label[b]
		for i := range label {
			if label[i] == lb {
				label[i] = la
			}
		}
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			assert.Equal(t, label[i] == label[j], s.Connected(i, j), "%d,%d", i, j)
		}
	}
}
