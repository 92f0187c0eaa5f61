// Package grouping clusters fingerprints into groups of near-duplicates.
//
// Every pair of fingerprints within threshold Hamming distance is merged into
// the same cluster, and merging is transitive: if A is close to B and B is
// close to C, all three end up in one group even when A and C are far apart.
package grouping

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/artyom/imagedups/internal/fingerprint"
	"github.com/artyom/imagedups/internal/unionfind"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrInvalidThreshold is returned for negative thresholds.
	ErrInvalidThreshold = errors.New("invalid threshold")
	// ErrEmptyFingerprint is returned when an item carries no bits, e.g. a
	// zero Fingerprint value.
	ErrEmptyFingerprint = errors.New("empty fingerprint")
)

// Group clusters fps into duplicate groups. Items are grouped together when
// their fingerprints are within threshold bits of each other, directly or
// through a chain of such pairs.
//
// All fingerprints must have the same bit length; otherwise an error matching
// fingerprint.ErrLengthMismatch is returned and no groups are produced.
func Group(fps []fingerprint.Fingerprint, threshold int) (*Result, error) {
	if err := validate(fps, threshold); err != nil {
		return nil, err
	}
	matches := make([][]int, len(fps))
	comparisons := 0
	for i := range fps {
		row, n, err := compareRow(fps, i, threshold)
		if err != nil {
			return nil, err
		}
		matches[i] = row
		comparisons += n
	}
	return materialize(fps, matches, comparisons), nil
}

// Engine runs the pairwise comparison phase on several goroutines. Its output
// is identical to Group.
type Engine struct {
	// Workers is the number of goroutines comparing pairs. Zero means
	// GOMAXPROCS.
	Workers int
}

// Group is like the package-level Group, but distributes pair evaluation
// across e.Workers goroutines. If ctx is cancelled, no further rows are
// scheduled and ctx.Err() is returned.
func (e *Engine) Group(ctx context.Context, fps []fingerprint.Fingerprint, threshold int) (*Result, error) {
	if err := validate(fps, threshold); err != nil {
		return nil, err
	}
	workers := e.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	matches := make([][]int, len(fps))
	counts := make([]int, len(fps))
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(workers)
	for i := range fps {
		if gctx.Err() != nil {
			break
		}
		group.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			row, n, err := compareRow(fps, i, threshold)
			if err != nil {
				return err
			}
			matches[i], counts[i] = row, n
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	comparisons := 0
	for _, n := range counts {
		comparisons += n
	}
	return materialize(fps, matches, comparisons), nil
}

func validate(fps []fingerprint.Fingerprint, threshold int) error {
	if threshold < 0 {
		return fmt.Errorf("%w: %d, must not be negative", ErrInvalidThreshold, threshold)
	}
	if len(fps) == 0 {
		return nil
	}
	first := fps[0]
	for i, f := range fps {
		if f.IsZero() {
			return fmt.Errorf("%w: item %d (%q)", ErrEmptyFingerprint, i, f.ID)
		}
		if f.Len() != first.Len() {
			return &fingerprint.LengthMismatchError{A: first.ID, B: f.ID, LenA: first.Len(), LenB: f.Len()}
		}
	}
	return nil
}

// compareRow returns indexes j > i whose fingerprints are within threshold
// of fps[i], and the number of pairs evaluated.
func compareRow(fps []fingerprint.Fingerprint, i, threshold int) ([]int, int, error) {
	var row []int
	for j := i + 1; j < len(fps); j++ {
		ok, err := fingerprint.WithinDistance(fps[i], fps[j], threshold)
		if err != nil {
			return nil, 0, err
		}
		if ok {
			row = append(row, j)
		}
	}
	return row, len(fps) - i - 1, nil
}

// materialize merges matched pairs and builds groups. The first member of a
// cluster met in input order becomes its representative.
func materialize(fps []fingerprint.Fingerprint, matches [][]int, comparisons int) *Result {
	res := &Result{Items: len(fps), Comparisons: comparisons}
	set := unionfind.New[int]()
	for i, row := range matches {
		for _, j := range row {
			set.Union(i, j)
			res.Matches++
		}
	}
	if res.Matches == 0 {
		return res
	}
	byRoot := make(map[int]int) // cluster root -> index into res.groups
	for i := range fps {
		if set.Size(i) < 2 {
			continue
		}
		root := set.Find(i)
		k, ok := byRoot[root]
		if !ok {
			byRoot[root] = len(res.groups)
			res.groups = append(res.groups, DuplicateGroup{
				Representative:      fps[i].ID,
				RepresentativeIndex: i,
			})
			continue
		}
		g := &res.groups[k]
		g.Duplicates = append(g.Duplicates, fps[i].ID)
		g.DuplicateIndexes = append(g.DuplicateIndexes, i)
	}
	return res
}
