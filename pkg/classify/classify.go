// Package classify labels changed nodes and extracts their structural
// context.
package classify

import (
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/editvec/pkg/cst"
	"github.com/Sumatoshi-tech/editvec/pkg/treediff"
)

// Sentinel errors.
var (
	ErrNoAncestor        = errors.New("node has fewer than two ancestors")
	ErrUnknownChangeType = errors.New("unknown change type")
	ErrUnknownLabels     = errors.New("unknown label set")
)

// ChangeType is the change category of one node.
type ChangeType int

// Change categories.
const (
	// Added nodes exist only on the right.
	Added ChangeType = iota
	// Deleted nodes exist only on the left.
	Deleted
	// MaybeUpdated nodes were matched by kind and differ in content.
	MaybeUpdated
	// DeletedThenAdded nodes had no structural counterpart and were
	// replaced by an unrelated node.
	DeletedThenAdded
)

// LegacyDeletedThenAdded is the spelling written by earlier feature files.
const LegacyDeletedThenAdded = "DeltedThenAdded"

// String returns the canonical name.
func (ct ChangeType) String() string {
	switch ct {
	case Added:
		return "Added"
	case Deleted:
		return "Deleted"
	case MaybeUpdated:
		return "MaybeUpdated"
	case DeletedThenAdded:
		return "DeletedThenAdded"
	default:
		return "Unknown"
	}
}

// ParseChangeType accepts canonical names and the legacy spelling.
func ParseChangeType(name string) (ChangeType, error) {
	switch name {
	case "Added":
		return Added, nil
	case "Deleted":
		return Deleted, nil
	case "MaybeUpdated":
		return MaybeUpdated, nil
	case "DeletedThenAdded", LegacyDeletedThenAdded:
		return DeletedThenAdded, nil
	default:
		return Added, fmt.Errorf("%w: %q", ErrUnknownChangeType, name)
	}
}

// Labels selects how change types are spelled in feature files.
type Labels int

// Label sets.
const (
	// LegacyLabels keeps "DeltedThenAdded" so existing feature files and
	// their consumers stay comparable.
	LegacyLabels Labels = iota
	// CanonicalLabels writes "DeletedThenAdded".
	CanonicalLabels
)

// ParseLabels parses "legacy" or "canonical".
func ParseLabels(name string) (Labels, error) {
	switch name {
	case "legacy", "":
		return LegacyLabels, nil
	case "canonical":
		return CanonicalLabels, nil
	default:
		return LegacyLabels, fmt.Errorf("%w: %q", ErrUnknownLabels, name)
	}
}

func (l Labels) String() string {
	if l == CanonicalLabels {
		return "canonical"
	}

	return "legacy"
}

// Name spells ct in this label set.
func (l Labels) Name(ct ChangeType) string {
	if ct == DeletedThenAdded && l == LegacyLabels {
		return LegacyDeletedThenAdded
	}

	return ct.String()
}

// Tagged is a node with its change category.
type Tagged struct {
	Node   cst.Cursor
	Change ChangeType
}

type tagger struct {
	seen map[cst.Cursor]struct{}
	out  []Tagged
}

func (tg *tagger) add(n cst.Cursor, ct ChangeType) {
	if _, ok := tg.seen[n]; ok {
		return
	}

	tg.seen[n] = struct{}{}
	tg.out = append(tg.out, Tagged{Node: n, Change: ct})
}

// Tag labels the novel nodes of one hunk by side: left nodes are Deleted,
// right nodes are Added. A node keeps its first label and appears once.
// No pairwise alignment is done, so MaybeUpdated and DeletedThenAdded never
// come out of this path.
func Tag(lhs, rhs []cst.Cursor) []Tagged {
	tg := tagger{seen: make(map[cst.Cursor]struct{}, len(lhs)+len(rhs))}

	for _, n := range lhs {
		tg.add(n, Deleted)
	}

	for _, n := range rhs {
		tg.add(n, Added)
	}

	return tg.out
}

// FromDiff labels the result of a tree diff. Nodes of replaced pairs are
// DeletedThenAdded; updated pairs yield their right node as MaybeUpdated.
func FromDiff(res treediff.Result) []Tagged {
	replaced := make(map[cst.Cursor]struct{}, 2*len(res.Replaced))
	for _, p := range res.Replaced {
		replaced[p.Left] = struct{}{}
		replaced[p.Right] = struct{}{}
	}

	tg := tagger{seen: make(map[cst.Cursor]struct{})}

	label := func(n cst.Cursor, plain ChangeType) {
		if _, ok := replaced[n]; ok {
			tg.add(n, DeletedThenAdded)

			return
		}

		tg.add(n, plain)
	}

	for _, n := range res.Deleted {
		label(n, Deleted)
	}

	for _, n := range res.Added {
		label(n, Added)
	}

	for _, p := range res.Updated {
		tg.add(p.Right, MaybeUpdated)
	}

	return tg.out
}

// Count returns the number of tagged nodes per category.
func Count(tagged []Tagged) map[ChangeType]int {
	counts := make(map[ChangeType]int, 4) //nolint:mnd // four categories

	for _, t := range tagged {
		counts[t.Change]++
	}

	return counts
}
