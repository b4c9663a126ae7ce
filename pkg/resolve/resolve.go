// Package resolve maps single-line match positions onto nodes of the
// abstract and the concrete tree. All lookups are pure reads.
package resolve

import (
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/editvec/pkg/cst"
	"github.com/Sumatoshi-tech/editvec/pkg/span"
	"github.com/Sumatoshi-tech/editvec/pkg/syntax"
)

// ErrUnresolved is returned when a match position maps to no node.
var ErrUnresolved = errors.New("position resolves to no node")

// ErrUnknownMissPolicy is returned by ParseMissPolicy for unknown names.
var ErrUnknownMissPolicy = errors.New("unknown miss policy")

// MissPolicy decides what a caller does with an unresolved position.
type MissPolicy int

// Miss policies.
const (
	// MissAbort fails the whole file pair.
	MissAbort MissPolicy = iota
	// MissSkip drops the position and continues.
	MissSkip
)

func (p MissPolicy) String() string {
	if p == MissSkip {
		return "skip"
	}

	return "abort"
}

// ParseMissPolicy parses "abort" or "skip".
func ParseMissPolicy(name string) (MissPolicy, error) {
	switch name {
	case "abort", "":
		return MissAbort, nil
	case "skip":
		return MissSkip, nil
	default:
		return MissAbort, fmt.Errorf("%w: %q", ErrUnknownMissPolicy, name)
	}
}

// Atom finds the first atom, in pre-order, whose spans contain pos. Absence
// is a legitimate state for positions outside the forest.
func Atom(pos span.LineSpan, forest []*syntax.Node) (*syntax.Node, bool) {
	for _, n := range forest {
		if !n.IsAtom() {
			if found, ok := Atom(pos, n.Children); ok {
				return found, true
			}

			continue
		}

		if insideSpans(pos, n.Pos) {
			return n, true
		}
	}

	return nil, false
}

// insideSpans: a single-line atom must equal pos, a multi-line atom must
// have pos as one of its line spans.
func insideSpans(pos span.LineSpan, spans []span.LineSpan) bool {
	if len(spans) == 1 {
		return pos == spans[0]
	}

	for _, s := range spans {
		if s == pos {
			return true
		}
	}

	return false
}

// Node finds the concrete node containing pos. Literal kinds are tested
// before descending; leaves are tested and end the search on their branch.
func Node(pos span.LineSpan, root cst.Cursor, literal cst.KindFunc) (cst.Cursor, bool) {
	if !root.Valid() {
		return cst.Cursor{}, false
	}

	if literal != nil && literal(root.Kind()) && InsideNode(pos, root) {
		return root, true
	}

	if root.IsLeaf() {
		if InsideNode(pos, root) {
			return root, true
		}

		return cst.Cursor{}, false
	}

	for _, child := range root.Children() {
		if found, ok := Node(pos, child, literal); ok {
			return found, true
		}
	}

	return cst.Cursor{}, false
}

// MustNode is Node with the miss reported as ErrUnresolved.
func MustNode(pos span.LineSpan, root cst.Cursor, literal cst.KindFunc) (cst.Cursor, error) {
	found, ok := Node(pos, root, literal)
	if !ok {
		return cst.Cursor{}, fmt.Errorf("%w: %s", ErrUnresolved, pos)
	}

	return found, nil
}

// InsideNode reports whether the single-line pos lies within the node. On a
// multi-line node only the start column bounds the first row and only the
// end column bounds the last row; interior rows always contain.
func InsideNode(pos span.LineSpan, n cst.Cursor) bool {
	start, end := n.Start(), n.End()

	if pos.Line < start.Row || pos.Line > end.Row {
		return false
	}

	if start.Row == end.Row {
		return start.Column <= pos.StartCol && end.Column >= pos.EndCol
	}

	if pos.Line == start.Row {
		return start.Column <= pos.StartCol
	}

	if pos.Line == end.Row {
		return end.Column >= pos.EndCol
	}

	return true
}

// SamePosition reports whether a concrete node and an atom denote the same
// source span: the node starts at the atom's first span start and ends at
// its last span end.
func SamePosition(n cst.Cursor, atom *syntax.Node) bool {
	if atom == nil || !atom.IsAtom() {
		return false
	}

	first, ok := atom.FirstPos()
	if !ok {
		return false
	}

	last, _ := atom.LastPos()
	start, end := n.Start(), n.End()

	return start.Row == first.Line && start.Column == first.StartCol &&
		end.Row == last.Line && end.Column == last.EndCol
}

// AtomToNode finds the concrete node, in pre-order, with the same position
// and kind as the atom. Matching the kind skips wrapper ancestors that span
// exactly the atom's text.
func AtomToNode(atom *syntax.Node, root cst.Cursor) (cst.Cursor, bool) {
	if atom == nil || !atom.IsAtom() || !root.Valid() {
		return cst.Cursor{}, false
	}

	var found cst.Cursor

	ok := false

	root.Walk(func(c cst.Cursor) bool {
		if ok {
			return false
		}

		if c.Kind() == atom.Kind && SamePosition(c, atom) {
			found, ok = c, true

			return false
		}

		return true
	})

	return found, ok
}

// AtomNode resolves pos through the abstract forest: the atom containing
// pos, then the concrete node it was built from.
func AtomNode(pos span.LineSpan, forest []*syntax.Node, root cst.Cursor) (cst.Cursor, bool) {
	atom, ok := Atom(pos, forest)
	if !ok {
		return cst.Cursor{}, false
	}

	n, ok := AtomToNode(atom, root)
	if !ok || !SamePosition(n, atom) {
		return cst.Cursor{}, false
	}

	return n, true
}
