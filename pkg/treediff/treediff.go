// Package treediff compares two concrete trees top-down by aligning sibling
// sequences level by level.
package treediff

import (
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/editvec/pkg/align"
	"github.com/Sumatoshi-tech/editvec/pkg/cst"
)

// ErrUnknownLeafPolicy is returned by ParseLeafPolicy for unknown names.
var ErrUnknownLeafPolicy = errors.New("unknown leaf policy")

// LeafPolicy decides what is reported when a leaf faces a subtree.
type LeafPolicy int

// Leaf policies.
const (
	// ReplaceSubtree reports only the non-leaf side as wholly added or
	// deleted. The leaf itself produces no record.
	ReplaceSubtree LeafPolicy = iota
	// ReportBoth also reports the leaf side as deleted or added.
	ReportBoth
)

func (p LeafPolicy) String() string {
	if p == ReportBoth {
		return "report-both"
	}

	return "replace-subtree"
}

// ParseLeafPolicy parses "replace-subtree" or "report-both".
func ParseLeafPolicy(name string) (LeafPolicy, error) {
	switch name {
	case "replace-subtree", "":
		return ReplaceSubtree, nil
	case "report-both":
		return ReportBoth, nil
	default:
		return ReplaceSubtree, fmt.Errorf("%w: %q", ErrUnknownLeafPolicy, name)
	}
}

// Options configures Diff.
type Options struct {
	// Literal reports kinds compared by text without descending.
	Literal cst.KindFunc
	Policy  LeafPolicy
}

// Pair is a left node and its right counterpart.
type Pair = align.Pair[cst.Cursor]

// Result collects the changes found by Diff. Nodes of Replaced pairs are
// also listed in Added and Deleted.
type Result struct {
	Added    []cst.Cursor
	Deleted  []cst.Cursor
	Updated  []Pair
	Replaced []Pair
}

// Empty reports whether no change was found.
func (r Result) Empty() bool {
	return len(r.Added) == 0 && len(r.Deleted) == 0 && len(r.Updated) == 0
}

func (r *Result) merge(other Result) {
	r.Added = append(r.Added, other.Added...)
	r.Deleted = append(r.Deleted, other.Deleted...)
	r.Updated = append(r.Updated, other.Updated...)
	r.Replaced = append(r.Replaced, other.Replaced...)
}

// Diff compares the subtrees rooted at lhs and rhs. Recursion always
// descends into children, so it terminates at leaves.
func Diff(lhs, rhs cst.Cursor, opts Options) Result {
	var res Result

	lhsLeaf, rhsLeaf := lhs.IsLeaf(), rhs.IsLeaf()

	switch {
	case lhsLeaf && rhsLeaf:
		if !cst.SameText(lhs, rhs) {
			res.Updated = append(res.Updated, Pair{Left: lhs, Right: rhs})
		}

		return res
	case lhsLeaf:
		res.Added = append(res.Added, rhs)
		if opts.Policy == ReportBoth {
			res.Deleted = append(res.Deleted, lhs)
		}

		return res
	case rhsLeaf:
		res.Deleted = append(res.Deleted, lhs)
		if opts.Policy == ReportBoth {
			res.Added = append(res.Added, rhs)
		}

		return res
	}

	if opts.Literal != nil && opts.Literal(lhs.Kind()) && opts.Literal(rhs.Kind()) {
		if !cst.SameText(lhs, rhs) {
			res.Updated = append(res.Updated, Pair{Left: lhs, Right: rhs})
		}

		return res
	}

	if SameTree(lhs, rhs) && cst.SameText(lhs, rhs) {
		return res
	}

	script := align.Sequences(lhs.Children(), rhs.Children())

	res.Added = append(res.Added, script.Added...)
	res.Deleted = append(res.Deleted, script.Deleted...)
	res.Replaced = append(res.Replaced, script.Replaced...)

	for _, pair := range script.MaybeUpdated {
		res.merge(Diff(pair.Left, pair.Right, opts))
	}

	return res
}

// SameTree reports whether two subtrees have the same shape and kinds.
func SameTree(a, b cst.Cursor) bool {
	if a.Kind() != b.Kind() || a.ChildCount() != b.ChildCount() {
		return false
	}

	for i := range a.ChildCount() {
		if !SameTree(a.Child(i), b.Child(i)) {
			return false
		}
	}

	return true
}
