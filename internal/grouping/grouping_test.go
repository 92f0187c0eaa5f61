package grouping

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/artyom/imagedups/internal/fingerprint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fps(t *testing.T, kv ...string) []fingerprint.Fingerprint {
	t.Helper()
	require.Zero(t, len(kv)%2)
	out := make([]fingerprint.Fingerprint, 0, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		f, err := fingerprint.FromBits(kv[i], kv[i+1])
		require.NoError(t, err)
		out = append(out, f)
	}
	return out
}

func TestScenarios(t *testing.T) {
	tests := []struct {
		name      string
		input     []string
		threshold int
		want      []DuplicateGroup
	}{
		{
			name:      "one near pair and an outlier",
			input:     []string{"A", "00000000", "B", "00000001", "C", "11111111"},
			threshold: 1,
			want: []DuplicateGroup{
				{Representative: "A", Duplicates: []string{"B"}, RepresentativeIndex: 0, DuplicateIndexes: []int{1}},
			},
		},
		{
			name:      "chained similarity merges transitively",
			input:     []string{"A", "0000", "B", "0001", "C", "0011"},
			threshold: 1,
			want: []DuplicateGroup{
				{Representative: "A", Duplicates: []string{"B", "C"}, RepresentativeIndex: 0, DuplicateIndexes: []int{1, 2}},
			},
		},
		{
			name:      "zero threshold matches identical fingerprints only",
			input:     []string{"x", "1010", "y", "0101", "z", "1010"},
			threshold: 0,
			want: []DuplicateGroup{
				{Representative: "x", Duplicates: []string{"z"}, RepresentativeIndex: 0, DuplicateIndexes: []int{2}},
			},
		},
		{
			name:      "groups ordered by representative position",
			input:     []string{"p", "1111", "q", "0000", "r", "0001", "s", "1110"},
			threshold: 1,
			want: []DuplicateGroup{
				{Representative: "p", Duplicates: []string{"s"}, RepresentativeIndex: 0, DuplicateIndexes: []int{3}},
				{Representative: "q", Duplicates: []string{"r"}, RepresentativeIndex: 1, DuplicateIndexes: []int{2}},
			},
		},
		{
			name:      "single item",
			input:     []string{"only", "0101"},
			threshold: 4,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Group(fps(t, tt.input...), tt.threshold)
			require.NoError(t, err)
			assert.Equal(t, len(tt.want), res.Len())
			if len(tt.want) > 0 {
				assert.Equal(t, tt.want, res.Groups())
			}
		})
	}
}

func TestScenarioChainedDistances(t *testing.T) {
	in := fps(t, "A", "0000", "B", "0001", "C", "0011")
	ab, _ := fingerprint.Distance(in[0], in[1])
	bc, _ := fingerprint.Distance(in[1], in[2])
	ac, _ := fingerprint.Distance(in[0], in[2])
	assert.Equal(t, []int{1, 1, 2}, []int{ab, bc, ac})
}

func TestEmptyInput(t *testing.T) {
	res, err := Group(nil, 3)
	require.NoError(t, err)
	assert.Zero(t, res.Len())
	assert.Empty(t, res.Groups())

	res, err = (&Engine{}).Group(context.Background(), nil, 3)
	require.NoError(t, err)
	assert.Zero(t, res.Len())
}

func TestLengthMismatch(t *testing.T) {
	a, err := fingerprint.New("A", make([]uint64, 1), 64)
	require.NoError(t, err)
	b, err := fingerprint.New("B", make([]uint64, 4), 256)
	require.NoError(t, err)

	res, err := Group([]fingerprint.Fingerprint{a, b}, 5)
	assert.Nil(t, res)
	require.Error(t, err)
	assert.True(t, errors.Is(err, fingerprint.ErrLengthMismatch))

	_, err = (&Engine{Workers: 2}).Group(context.Background(), []fingerprint.Fingerprint{a, b}, 5)
	assert.ErrorIs(t, err, fingerprint.ErrLengthMismatch)
}

func TestEmptyFingerprintRejected(t *testing.T) {
	items := fps(t, "a", "0101", "b", "0100")
	for _, in := range [][]fingerprint.Fingerprint{
		{{ID: "zero"}},
		{items[0], {ID: "zero"}, items[1]},
	} {
		_, err := Group(in, 1)
		assert.ErrorIs(t, err, ErrEmptyFingerprint)
		_, err = (&Engine{Workers: 2}).Group(context.Background(), in, 1)
		assert.ErrorIs(t, err, ErrEmptyFingerprint)
	}
}

func TestInvalidThreshold(t *testing.T) {
	_, err := Group(fps(t, "a", "0", "b", "1"), -1)
	assert.ErrorIs(t, err, ErrInvalidThreshold)

	_, err = (&Engine{}).Group(context.Background(), nil, -1)
	assert.ErrorIs(t, err, ErrInvalidThreshold, "checked even for empty input")
}

func TestStatistics(t *testing.T) {
	res, err := Group(fps(t, "A", "0000", "B", "0001", "C", "0011", "D", "1111"), 1)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Items)
	assert.Equal(t, 6, res.Comparisons)
	assert.Equal(t, 2, res.Matches)
}

func TestResultAccessors(t *testing.T) {
	res, err := Group(fps(t, "A", "00", "B", "01", "C", "11"), 0)
	require.NoError(t, err)
	assert.Zero(t, res.Len())

	res, err = Group(fps(t, "A", "00", "B", "00", "C", "11", "D", "11"), 0)
	require.NoError(t, err)
	require.Equal(t, 2, res.Len())

	groups := res.Groups()
	groups[0].Duplicates[0] = "mutated"
	assert.Equal(t, "B", res.Groups()[0].Duplicates[0], "Groups returns a copy")

	var seen []string
	res.Each(func(i int, g DuplicateGroup) bool {
		seen = append(seen, g.Representative)
		return false
	})
	assert.Equal(t, []string{"A"}, seen, "Each stops when fn returns false")

	assert.Equal(t, []string{"C", "D"}, res.Groups()[1].Members())
	assert.Len(t, res.Members(), 4)

	var nilResult *Result
	assert.Zero(t, nilResult.Len())
	assert.Nil(t, nilResult.Groups())
}

func randomFingerprints(t *testing.T, seed int64, n, nbits int) []fingerprint.Fingerprint {
	t.Helper()
	rnd := rand.New(rand.NewSource(seed))
	// a few base patterns with small perturbations, so that clusters form
	bases := make([][]uint64, 5)
	for i := range bases {
		bases[i] = []uint64{rnd.Uint64()}
	}
	out := make([]fingerprint.Fingerprint, n)
	for i := range out {
		w := []uint64{bases[rnd.Intn(len(bases))][0]}
		for k := rnd.Intn(6); k > 0; k-- {
			w[0] ^= 1 << uint(rnd.Intn(nbits))
		}
		f, err := fingerprint.New(fmt.Sprintf("img%03d", i), w, nbits)
		require.NoError(t, err)
		out[i] = f
	}
	return out
}

func TestPartitionCompleteness(t *testing.T) {
	in := randomFingerprints(t, 5, 80, 64)
	const threshold = 4
	res, err := Group(in, threshold)
	require.NoError(t, err)

	matched := make(map[string]struct{})
	for i := range in {
		for j := i + 1; j < len(in); j++ {
			d, err := fingerprint.Distance(in[i], in[j])
			require.NoError(t, err)
			if d <= threshold {
				matched[in[i].ID] = struct{}{}
				matched[in[j].ID] = struct{}{}
			}
		}
	}

	seen := make(map[string]int)
	res.Each(func(_ int, g DuplicateGroup) bool {
		assert.NotEmpty(t, g.Duplicates, "no singleton groups")
		for _, id := range g.Members() {
			seen[id]++
		}
		for _, idx := range g.DuplicateIndexes {
			assert.Greater(t, idx, g.RepresentativeIndex, "representative comes first in input order")
		}
		return true
	})
	for id, n := range seen {
		assert.Equal(t, 1, n, "item %s appears in more than one group", id)
	}
	assert.Equal(t, matched, res.Members())
}

func TestThresholdMonotonicity(t *testing.T) {
	in := randomFingerprints(t, 9, 60, 64)
	groupOf := func(res *Result) map[string]int {
		m := make(map[string]int)
		res.Each(func(i int, g DuplicateGroup) bool {
			for _, id := range g.Members() {
				m[id] = i
			}
			return true
		})
		return m
	}
	for threshold := 0; threshold < 8; threshold++ {
		lo, err := Group(in, threshold)
		require.NoError(t, err)
		hi, err := Group(in, threshold+1)
		require.NoError(t, err)
		glo, ghi := groupOf(lo), groupOf(hi)
		lo.Each(func(_ int, g DuplicateGroup) bool {
			want := ghi[g.Representative]
			for _, id := range g.Members() {
				got, ok := ghi[id]
				require.True(t, ok, "%s grouped at %d but not at %d", id, threshold, threshold+1)
				assert.Equal(t, want, got)
			}
			return true
		})
		assert.GreaterOrEqual(t, len(ghi), len(glo))
	}
}

func TestDeterminism(t *testing.T) {
	in := randomFingerprints(t, 13, 100, 64)
	first, err := Group(in, 3)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		again, err := Group(in, 3)
		require.NoError(t, err)
		assert.Equal(t, first.Groups(), again.Groups())
	}
}

func TestEngineMatchesSequential(t *testing.T) {
	in := randomFingerprints(t, 21, 150, 64)
	for _, workers := range []int{0, 1, 3, 16} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			want, err := Group(in, 3)
			require.NoError(t, err)
			got, err := (&Engine{Workers: workers}).Group(context.Background(), in, 3)
			require.NoError(t, err)
			assert.Equal(t, want.Groups(), got.Groups())
			assert.Equal(t, want.Comparisons, got.Comparisons)
			assert.Equal(t, want.Matches, got.Matches)
		})
	}
}

func TestEngineCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := (&Engine{Workers: 2}).Group(ctx, randomFingerprints(t, 1, 20, 64), 2)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, context.Canceled)
}
