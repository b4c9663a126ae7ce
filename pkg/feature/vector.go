package feature

import (
	"cmp"
	"slices"
)

// Key identifies one feature dimension.
type Key struct {
	Change          string `json:"change" yaml:"change"`
	ParentKind      string `json:"parent_kind" yaml:"parent_kind"`
	GrandparentKind string `json:"grandparent_kind" yaml:"grandparent_kind"`
}

func keyOf(r Record) Key {
	return Key{Change: r.Change, ParentKind: r.ParentKind, GrandparentKind: r.GrandparentKind}
}

func compareKeys(a, b Key) int {
	return cmp.Or(
		cmp.Compare(a.Change, b.Change),
		cmp.Compare(a.ParentKind, b.ParentKind),
		cmp.Compare(a.GrandparentKind, b.GrandparentKind),
	)
}

// Vector is the dense count vector of one revision.
type Vector struct {
	Repo     string `json:"repo" yaml:"repo"`
	Revision string `json:"revision" yaml:"revision"`
	Counts   []int  `json:"counts" yaml:"counts,flow"`
}

// VectorSet holds the vectors of all revisions over a shared key index.
type VectorSet struct {
	Keys    []Key    `json:"keys" yaml:"keys"`
	Vectors []Vector `json:"vectors" yaml:"vectors"`
}

// BuildVectors counts records per (repo, revision) over every distinct
// (change, parent, grandparent) key. Keys are sorted; revisions keep their
// first-seen order.
func BuildVectors(records []Record) VectorSet {
	index := make(map[Key]int)

	for _, r := range records {
		index[keyOf(r)] = 0
	}

	keys := make([]Key, 0, len(index))
	for k := range index {
		keys = append(keys, k)
	}

	slices.SortFunc(keys, compareKeys)

	for i, k := range keys {
		index[k] = i
	}

	type revision struct{ repo, rev string }

	order := make(map[revision]int)

	var vectors []Vector

	for _, r := range records {
		id := revision{r.Repo, r.Revision}

		pos, ok := order[id]
		if !ok {
			pos = len(vectors)
			order[id] = pos
			vectors = append(vectors, Vector{Repo: r.Repo, Revision: r.Revision, Counts: make([]int, len(keys))})
		}

		vectors[pos].Counts[index[keyOf(r)]]++
	}

	return VectorSet{Keys: keys, Vectors: vectors}
}

// Tally is a label with its number of occurrences.
type Tally struct {
	Label string
	Count int
}

// Stats summarizes a record set.
type Stats struct {
	ByChange     []Tally
	ByParent     []Tally
	Records      int
	Revisions    int
	Repositories int
}

// Summarize computes per-category and per-parent-kind tallies, sorted by
// descending count then label.
func Summarize(records []Record) Stats {
	byChange := make(map[string]int)
	byParent := make(map[string]int)
	revisions := make(map[[2]string]struct{})
	repos := make(map[string]struct{})

	for _, r := range records {
		byChange[r.Change]++
		byParent[r.ParentKind]++
		revisions[[2]string{r.Repo, r.Revision}] = struct{}{}
		repos[r.Repo] = struct{}{}
	}

	return Stats{
		Records:      len(records),
		Revisions:    len(revisions),
		Repositories: len(repos),
		ByChange:     tallies(byChange),
		ByParent:     tallies(byParent),
	}
}

func tallies(counts map[string]int) []Tally {
	out := make([]Tally, 0, len(counts))
	for label, n := range counts {
		out = append(out, Tally{Label: label, Count: n})
	}

	slices.SortFunc(out, func(a, b Tally) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), cmp.Compare(a.Label, b.Label))
	})

	return out
}
