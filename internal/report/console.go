// Package report renders duplicate groups for people and for other programs.
package report

import (
	"fmt"
	"io"

	"github.com/artyom/imagedups/internal/actions"
	"github.com/artyom/imagedups/internal/grouping"
	"github.com/fatih/color"
)

// Console writes a human readable listing of groups.
type Console struct {
	Out io.Writer
	// Color enables ANSI colors regardless of whether Out is a terminal.
	Color bool
}

func (c Console) palette() (head, ref, dup func(a ...interface{}) string) {
	h := color.New(color.FgCyan, color.Bold)
	r := color.New(color.FgGreen)
	d := color.New(color.FgYellow)
	for _, x := range []*color.Color{h, r, d} {
		if c.Color {
			x.EnableColor()
		} else {
			x.DisableColor()
		}
	}
	return h.SprintFunc(), r.SprintFunc(), d.SprintFunc()
}

// Write prints every group of res. When plan is given, one decision per group
// in the same order, the kept file of each group is printed as its reference
// and the files to be removed as similar ones.
func (c Console) Write(res *grouping.Result, plan []actions.Decision) error {
	head, ref, dup := c.palette()
	if res.Len() == 0 {
		_, err := fmt.Fprintln(c.Out, "No duplicate or near-duplicate images found.")
		return err
	}
	if _, err := fmt.Fprintf(c.Out, "Found %d duplicate/near-duplicate group(s):\n", res.Len()); err != nil {
		return err
	}
	var err error
	res.Each(func(i int, g grouping.DuplicateGroup) bool {
		if _, err = fmt.Fprintf(c.Out, "\n%s\n", head(fmt.Sprintf("Group %d (%d images):", i+1, g.Len()))); err != nil {
			return false
		}
		keep, others := anchor(i, g, plan)
		if _, err = fmt.Fprintf(c.Out, "  Reference: %s\n", ref(keep)); err != nil {
			return false
		}
		for _, d := range others {
			if _, err = fmt.Fprintf(c.Out, "    Similar: %s\n", dup(d)); err != nil {
				return false
			}
		}
		return true
	})
	return err
}

// anchor returns the file reported as reference of group i and the rest of
// its members.
func anchor(i int, g grouping.DuplicateGroup, plan []actions.Decision) (string, []string) {
	if i < len(plan) && plan[i].Keep != "" {
		return plan[i].Keep, plan[i].Remove
	}
	return g.Representative, g.Duplicates
}

// Summary prints run statistics on a single line.
func (c Console) Summary(res *grouping.Result, failures, cacheHits int) error {
	if res == nil {
		res = new(grouping.Result)
	}
	var dups int
	res.Each(func(_ int, g grouping.DuplicateGroup) bool {
		dups += len(g.Duplicates)
		return true
	})
	_, err := fmt.Fprintf(c.Out, "\n%d images, %d comparisons, %d groups, %d duplicates, %d unreadable, %d cached\n",
		res.Items, res.Comparisons, res.Len(), dups, failures, cacheHits)
	return err
}
