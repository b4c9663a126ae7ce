// Package linediff computes the line-level view of a change: which lines of
// each side are novel, how unchanged lines correspond, the match position
// of every token, and the hunks grouping novel lines.
package linediff

import (
	"time"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/Sumatoshi-tech/editvec/pkg/cst"
	"github.com/Sumatoshi-tech/editvec/pkg/span"
)

// DefaultTimeout bounds a single line diff.
const DefaultTimeout = time.Second

// Options configures Compute.
type Options struct {
	// ContextLines merges change blocks whose context windows overlap.
	ContextLines int
	// Timeout bounds the diff; zero uses DefaultTimeout.
	Timeout time.Duration
}

// Result is the line-level diff of two trees.
type Result struct {
	// Opposite maps unchanged lhs lines to rhs lines.
	Opposite map[int]int
	LHS      []span.MatchedPos
	RHS      []span.MatchedPos
	Hunks    []span.Hunk
}

// block is a run of consecutive deleted and inserted lines.
type block struct {
	lhs      []int
	rhs      []int
	lhsStart int
	lhsEnd   int
	rhsStart int
	rhsEnd   int
}

// Compute diffs the sources of lhs and rhs line by line.
func Compute(lhs, rhs *cst.Tree, opts Options) Result {
	dmp := diffmatchpatch.New()

	dmp.DiffTimeout = opts.Timeout
	if dmp.DiffTimeout <= 0 {
		dmp.DiffTimeout = DefaultTimeout
	}

	src, dst, _ := dmp.DiffLinesToRunes(string(lhs.Source), string(rhs.Source))
	diffs := dmp.DiffMainRunes(src, dst, false)

	opposite := make(map[int]int)
	lhsNovel := make(map[int]struct{})
	rhsNovel := make(map[int]struct{})

	var (
		blocks  []block
		current *block
	)

	lhsLine, rhsLine := 0, 0

	for _, d := range diffs {
		n := utf8.RuneCountInString(d.Text)

		if d.Type == diffmatchpatch.DiffEqual {
			for k := range n {
				opposite[lhsLine+k] = rhsLine + k
			}

			lhsLine += n
			rhsLine += n
			current = nil

			continue
		}

		if current == nil {
			blocks = append(blocks, block{lhsStart: lhsLine, rhsStart: rhsLine})
			current = &blocks[len(blocks)-1]
		}

		if d.Type == diffmatchpatch.DiffDelete {
			for k := range n {
				current.lhs = append(current.lhs, lhsLine+k)
				lhsNovel[lhsLine+k] = struct{}{}
			}

			lhsLine += n
		} else {
			for k := range n {
				current.rhs = append(current.rhs, rhsLine+k)
				rhsNovel[rhsLine+k] = struct{}{}
			}

			rhsLine += n
		}

		current.lhsEnd, current.rhsEnd = lhsLine, rhsLine
	}

	reverse := make(map[int]int, len(opposite))
	for l, r := range opposite {
		reverse[r] = l
	}

	return Result{
		Opposite: opposite,
		LHS:      positions(lhs, lhsNovel, opposite),
		RHS:      positions(rhs, rhsNovel, reverse),
		Hunks:    mergeBlocks(blocks, opts.ContextLines),
	}
}

// mergeBlocks joins consecutive blocks separated by at most twice the
// context width.
func mergeBlocks(blocks []block, contextLines int) []span.Hunk {
	var hunks []span.Hunk

	for i, b := range blocks {
		if i > 0 && contextLines > 0 {
			prev := blocks[i-1]
			gap := b.lhsStart - prev.lhsEnd

			if gap <= 2*contextLines {
				last := &hunks[len(hunks)-1]
				last.NovelLHS = append(last.NovelLHS, b.lhs...)
				last.NovelRHS = append(last.NovelRHS, b.rhs...)

				continue
			}
		}

		hunks = append(hunks, span.Hunk{NovelLHS: b.lhs, NovelRHS: b.rhs})
	}

	return hunks
}

// positions emits one match position per line covered by every token.
func positions(tree *cst.Tree, novel map[int]struct{}, opposite map[int]int) []span.MatchedPos {
	root := tree.Root()
	if !root.Valid() {
		return nil
	}

	var out []span.MatchedPos

	for _, leaf := range root.Leaves() {
		for _, ls := range leaf.LineSpans() {
			if ls.StartCol == ls.EndCol {
				continue
			}

			if _, ok := novel[ls.Line]; ok {
				out = append(out, span.MatchedPos{Kind: span.Novel, Pos: ls})

				continue
			}

			mp := span.MatchedPos{Kind: span.Unchanged, Pos: ls}
			if other, ok := opposite[ls.Line]; ok {
				mp.Opposite = []span.LineSpan{{Line: other, StartCol: ls.StartCol, EndCol: ls.EndCol}}
			}

			out = append(out, mp)
		}
	}

	return out
}
