// Package span holds the position types shared by the line diff and the
// structural core: single-line spans, match positions and hunks.
package span

import (
	"fmt"
	"slices"
)

// LineSpan is a span of text on a single line. Line and columns are 0-based,
// EndCol is exclusive.
type LineSpan struct {
	Line     int `json:"line"`
	StartCol int `json:"start_col"`
	EndCol   int `json:"end_col"`
}

func (s LineSpan) String() string {
	return fmt.Sprintf("%d:%d-%d", s.Line, s.StartCol, s.EndCol)
}

// Less orders spans by line, then start column, then end column.
func (s LineSpan) Less(other LineSpan) bool {
	if s.Line != other.Line {
		return s.Line < other.Line
	}

	if s.StartCol != other.StartCol {
		return s.StartCol < other.StartCol
	}

	return s.EndCol < other.EndCol
}

// MatchKind tells whether a position is novel on its side or unchanged.
type MatchKind int

// Match kinds.
const (
	Novel MatchKind = iota
	Unchanged
)

func (k MatchKind) String() string {
	switch k {
	case Novel:
		return "novel"
	case Unchanged:
		return "unchanged"
	default:
		return "unknown"
	}
}

// MatchedPos is a line span tagged with its match kind. Unchanged positions
// carry the corresponding spans on the other side.
type MatchedPos struct {
	Opposite []LineSpan `json:"opposite,omitempty"`
	Pos      LineSpan   `json:"pos"`
	Kind     MatchKind  `json:"kind"`
}

// IsNovel reports whether the position has no counterpart on the other side.
func (mp MatchedPos) IsNovel() bool {
	return mp.Kind == Novel
}

// Hunk groups the novel lines of one contiguous change region.
type Hunk struct {
	NovelLHS []int `json:"novel_lhs"`
	NovelRHS []int `json:"novel_rhs"`
}

// Empty reports whether the hunk has no novel lines on either side.
func (h Hunk) Empty() bool {
	return len(h.NovelLHS) == 0 && len(h.NovelRHS) == 0
}

// LineGroup is the novel positions found on one line.
type LineGroup struct {
	Positions []MatchedPos
	Line      int
}

// LineIndex holds novel positions by line, each line in input order.
type LineIndex map[int][]MatchedPos

// IndexNovel indexes the novel positions in one pass.
func IndexNovel(positions []MatchedPos) LineIndex {
	ix := make(LineIndex)

	for _, mp := range positions {
		if mp.IsNovel() {
			ix[mp.Pos.Line] = append(ix[mp.Pos.Line], mp)
		}
	}

	return ix
}

// Groups returns the novel positions of the given lines. Groups follow the
// order of lines; duplicate lines are collapsed.
func (ix LineIndex) Groups(lines []int) []LineGroup {
	seen := make(map[int]struct{}, len(lines))
	groups := make([]LineGroup, 0, len(lines))

	for _, line := range lines {
		if _, ok := seen[line]; ok {
			continue
		}

		seen[line] = struct{}{}
		groups = append(groups, LineGroup{Line: line, Positions: ix[line]})
	}

	return groups
}

// NovelByLine groups the novel positions of the given lines.
func NovelByLine(positions []MatchedPos, lines []int) []LineGroup {
	return IndexNovel(positions).Groups(lines)
}

// Flatten concatenates the positions of all groups.
func Flatten(groups []LineGroup) []MatchedPos {
	var out []MatchedPos

	for _, g := range groups {
		out = append(out, g.Positions...)
	}

	return out
}

// SortSpans sorts spans in place by position.
func SortSpans(spans []LineSpan) {
	slices.SortFunc(spans, func(a, b LineSpan) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		default:
			return 0
		}
	})
}
