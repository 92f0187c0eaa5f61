package grouping

// DuplicateGroup is a cluster of visually similar items. Representative is the
// item a consumer must preserve; Duplicates are the others, in input order.
type DuplicateGroup struct {
	Representative      string   `json:"representative"`
	Duplicates          []string `json:"duplicates"`
	RepresentativeIndex int      `json:"representative_index"`
	DuplicateIndexes    []int    `json:"duplicate_indexes"`
}

// Members returns representative followed by duplicates.
func (g DuplicateGroup) Members() []string {
	out := make([]string, 0, len(g.Duplicates)+1)
	out = append(out, g.Representative)
	return append(out, g.Duplicates...)
}

// Len returns the number of items in the group.
func (g DuplicateGroup) Len() int { return len(g.Duplicates) + 1 }

// Result is an ordered collection of duplicate groups. Groups are ordered by
// the input position of their representative.
type Result struct {
	groups []DuplicateGroup

	// Items is the number of fingerprints grouped.
	Items int
	// Comparisons is the number of pairs evaluated.
	Comparisons int
	// Matches is the number of pairs found within threshold.
	Matches int
}

// Groups returns a copy of the groups.
func (r *Result) Groups() []DuplicateGroup {
	if r == nil {
		return nil
	}
	out := make([]DuplicateGroup, len(r.groups))
	for i, g := range r.groups {
		out[i] = DuplicateGroup{
			Representative:      g.Representative,
			Duplicates:          append([]string(nil), g.Duplicates...),
			RepresentativeIndex: g.RepresentativeIndex,
			DuplicateIndexes:    append([]int(nil), g.DuplicateIndexes...),
		}
	}
	return out
}

// Len returns number of groups.
func (r *Result) Len() int {
	if r == nil {
		return 0
	}
	return len(r.groups)
}

// Each calls fn for every group in order until fn returns false.
func (r *Result) Each(fn func(i int, g DuplicateGroup) bool) {
	if r == nil {
		return
	}
	for i, g := range r.groups {
		if !fn(i, g) {
			return
		}
	}
}

// Members returns the set of item ids that belong to some group.
func (r *Result) Members() map[string]struct{} {
	out := make(map[string]struct{})
	r.Each(func(_ int, g DuplicateGroup) bool {
		out[g.Representative] = struct{}{}
		for _, d := range g.Duplicates {
			out[d] = struct{}{}
		}
		return true
	})
	return out
}
