// Package actions decides which file of each duplicate group survives and
// moves or deletes the rest.
package actions

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/artyom/imagedups/internal/grouping"
	"github.com/rwcarlsen/goexif/exif"
)

// KeepStrategy selects the file kept from each group.
type KeepStrategy string

const (
	// KeepFirst keeps the group representative, the earliest file in input
	// order.
	KeepFirst KeepStrategy = "first"
	// KeepLargest keeps the largest file.
	KeepLargest KeepStrategy = "largest"
	// KeepOldest keeps the file taken first according to its EXIF
	// DateTime tag, or modification time when the tag is absent.
	KeepOldest KeepStrategy = "oldest"
)

// KeepStrategies lists supported strategies.
var KeepStrategies = []KeepStrategy{KeepFirst, KeepLargest, KeepOldest}

var ErrUnknownStrategy = errors.New("unknown keep strategy")

// ParseKeepStrategy parses case-insensitive strategy name.
func ParseKeepStrategy(s string) (KeepStrategy, error) {
	k := KeepStrategy(strings.ToLower(strings.TrimSpace(s)))
	for _, v := range KeepStrategies {
		if k == v {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

// FileInfo is what strategies need to know about a file.
type FileInfo struct {
	Size  int64
	Taken time.Time
}

// StatFunc reports FileInfo for path.
type StatFunc func(path string) (FileInfo, error)

// Stat reports file size, with modification time as Taken.
func Stat(path string) (FileInfo, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return FileInfo{}, err
	}
	return FileInfo{Size: fi.Size(), Taken: fi.ModTime()}, nil
}

// StatExif is Stat with Taken read from EXIF DateTime when the file carries
// one.
func StatExif(path string) (FileInfo, error) {
	info, err := Stat(path)
	if err != nil {
		return info, err
	}
	if t, ok := exifTime(path); ok {
		info.Taken = t
	}
	return info, nil
}

func exifTime(path string) (time.Time, bool) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, false
	}
	defer f.Close()
	x, err := exif.Decode(f)
	if err != nil {
		return time.Time{}, false
	}
	t, err := x.DateTime()
	if err != nil || t.IsZero() {
		return time.Time{}, false
	}
	return t, true
}

// Decision names the file to keep and the files to act upon.
type Decision struct {
	Keep   string
	Remove []string
}

// Plan makes one decision per group. Stat defaults to Stat for KeepLargest
// and StatExif for KeepOldest. Files that cannot be inspected are never
// chosen; if no member can be inspected the representative is kept. Ties go
// to the earlier file in input order.
func Plan(groups []grouping.DuplicateGroup, strategy KeepStrategy, stat StatFunc) ([]Decision, error) {
	var better func(a, b FileInfo) bool
	switch strategy {
	case KeepFirst:
	case KeepLargest:
		better = func(a, b FileInfo) bool { return a.Size > b.Size }
		if stat == nil {
			stat = Stat
		}
	case KeepOldest:
		better = func(a, b FileInfo) bool { return a.Taken.Before(b.Taken) }
		if stat == nil {
			stat = StatExif
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
	out := make([]Decision, 0, len(groups))
	for _, g := range groups {
		members := g.Members()
		keep := 0
		if better != nil {
			keep = pick(members, stat, better)
		}
		d := Decision{Keep: members[keep], Remove: make([]string, 0, len(members)-1)}
		for i, m := range members {
			if i != keep {
				d.Remove = append(d.Remove, m)
			}
		}
		out = append(out, d)
	}
	return out, nil
}

func pick(members []string, stat StatFunc, better func(a, b FileInfo) bool) int {
	best := -1
	var bestInfo FileInfo
	for i, m := range members {
		info, err := stat(m)
		if err != nil {
			continue
		}
		if best < 0 || better(info, bestInfo) {
			best, bestInfo = i, info
		}
	}
	if best < 0 {
		return 0
	}
	return best
}
