// Package cst stores a concrete parse tree as a flat arena. Every node keeps a
// stable index and the index of its parent, so walking up, down and sideways
// never needs a live parser cursor.
package cst

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/editvec/pkg/span"
)

// NoParent is the parent index of the root node.
const NoParent = -1

// ErrBadRange is returned when a node's byte range does not fit the source.
var ErrBadRange = errors.New("node range outside source")

// Point is a 0-based row and byte column.
type Point struct {
	Row    int `json:"row"`
	Column int `json:"column"`
}

// Less reports whether p comes before other.
func (p Point) Less(other Point) bool {
	return p.Row < other.Row || (p.Row == other.Row && p.Column < other.Column)
}

// Node is one entry of the arena.
type Node struct {
	Kind      string
	Children  []int
	Start     Point
	End       Point
	StartByte int
	EndByte   int
	Parent    int
	// Sibling is the position of the node in its parent's Children.
	Sibling int
	Named   bool
}

// Tree is a concrete parse tree over a source buffer. The first node added
// is the root.
type Tree struct {
	Source    []byte
	Nodes     []Node
	lineStart []int
}

// NewTree returns an empty tree over src.
func NewTree(src []byte) *Tree {
	lineStart := []int{0}

	for i, b := range src {
		if b == '\n' {
			lineStart = append(lineStart, i+1)
		}
	}

	return &Tree{Source: src, lineStart: lineStart}
}

// PointAt converts a byte offset into a row/column point.
func (t *Tree) PointAt(offset int) Point {
	lo, hi := 0, len(t.lineStart)-1

	for lo < hi {
		mid := (lo + hi + 1) / 2
		if t.lineStart[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}

	return Point{Row: lo, Column: offset - t.lineStart[lo]}
}

// Add appends a node spanning [startByte, endByte) under parent and returns
// its index. Points are derived from the source. Children must be added in
// source order.
func (t *Tree) Add(parent int, kind string, startByte, endByte int, named bool) (int, error) {
	if startByte < 0 || endByte < startByte || endByte > len(t.Source) {
		return 0, fmt.Errorf("%w: %s [%d,%d) in %d bytes", ErrBadRange, kind, startByte, endByte, len(t.Source))
	}

	return t.AddWithPoints(parent, Node{
		Kind:      kind,
		StartByte: startByte,
		EndByte:   endByte,
		Start:     t.PointAt(startByte),
		End:       t.PointAt(endByte),
		Named:     named,
	}), nil
}

// AddWithPoints appends a node whose points are already known. Parent,
// Sibling and Children of n are overwritten.
func (t *Tree) AddWithPoints(parent int, n Node) int {
	idx := len(t.Nodes)
	n.Parent = parent
	n.Children = nil
	n.Sibling = 0

	if parent != NoParent {
		n.Sibling = len(t.Nodes[parent].Children)
		t.Nodes[parent].Children = append(t.Nodes[parent].Children, idx)
	}

	t.Nodes = append(t.Nodes, n)

	return idx
}

// Len returns the number of nodes.
func (t *Tree) Len() int {
	return len(t.Nodes)
}

// Root returns a cursor on the root node. It is invalid for an empty tree.
func (t *Tree) Root() Cursor {
	if len(t.Nodes) == 0 {
		return Cursor{}
	}

	return Cursor{tree: t, idx: 0}
}

// At returns a cursor on the node with the given index.
func (t *Tree) At(idx int) Cursor {
	return Cursor{tree: t, idx: idx}
}

// Cursor is a read-only handle on one node. Cursors are comparable and two
// cursors are equal iff they denote the same node of the same tree.
type Cursor struct {
	tree *Tree
	idx  int
}

// Valid reports whether the cursor points at a node.
func (c Cursor) Valid() bool {
	return c.tree != nil && c.idx >= 0 && c.idx < len(c.tree.Nodes)
}

func (c Cursor) node() *Node {
	return &c.tree.Nodes[c.idx]
}

// Tree returns the tree the cursor belongs to.
func (c Cursor) Tree() *Tree {
	return c.tree
}

// ID returns the stable arena index of the node.
func (c Cursor) ID() int {
	return c.idx
}

// Kind returns the grammar category of the node.
func (c Cursor) Kind() string {
	return c.node().Kind
}

// Named reports whether the grammar names the node.
func (c Cursor) Named() bool {
	return c.node().Named
}

// ChildCount returns the number of children.
func (c Cursor) ChildCount() int {
	return len(c.node().Children)
}

// IsLeaf reports whether the node has no children.
func (c Cursor) IsLeaf() bool {
	return c.ChildCount() == 0
}

// Child returns the i-th child.
func (c Cursor) Child(i int) Cursor {
	return Cursor{tree: c.tree, idx: c.node().Children[i]}
}

// Children returns cursors on all children in order.
func (c Cursor) Children() []Cursor {
	kids := c.node().Children
	out := make([]Cursor, len(kids))

	for i, k := range kids {
		out[i] = Cursor{tree: c.tree, idx: k}
	}

	return out
}

// FirstChild returns the first child, if any.
func (c Cursor) FirstChild() (Cursor, bool) {
	if c.IsLeaf() {
		return Cursor{}, false
	}

	return c.Child(0), true
}

// NextSibling returns the following sibling, if any.
func (c Cursor) NextSibling() (Cursor, bool) {
	n := c.node()
	if n.Parent == NoParent {
		return Cursor{}, false
	}

	siblings := c.tree.Nodes[n.Parent].Children
	if n.Sibling+1 >= len(siblings) {
		return Cursor{}, false
	}

	return Cursor{tree: c.tree, idx: siblings[n.Sibling+1]}, true
}

// Parent returns the parent node, if any.
func (c Cursor) Parent() (Cursor, bool) {
	p := c.node().Parent
	if p == NoParent {
		return Cursor{}, false
	}

	return Cursor{tree: c.tree, idx: p}, true
}

// Start returns the start point.
func (c Cursor) Start() Point {
	return c.node().Start
}

// End returns the end point (exclusive).
func (c Cursor) End() Point {
	return c.node().End
}

// StartByte returns the start byte offset.
func (c Cursor) StartByte() int {
	return c.node().StartByte
}

// EndByte returns the end byte offset (exclusive).
func (c Cursor) EndByte() int {
	return c.node().EndByte
}

// Text returns the source bytes covered by the node.
func (c Cursor) Text() []byte {
	n := c.node()

	return c.tree.Source[n.StartByte:n.EndByte]
}

// SameText reports whether two nodes cover byte-identical source text.
func SameText(a, b Cursor) bool {
	return bytes.Equal(a.Text(), b.Text())
}

// LineSpans splits the node's text into one span per covered line. Empty
// trailing segments produced by a final newline are dropped.
func (c Cursor) LineSpans() []span.LineSpan {
	n := c.node()
	text := c.Text()

	var spans []span.LineSpan

	row, col := n.Start.Row, n.Start.Column
	startCol := col

	for _, b := range text {
		if b == '\n' {
			spans = append(spans, span.LineSpan{Line: row, StartCol: startCol, EndCol: col})
			row++
			col, startCol = 0, 0

			continue
		}

		col++
	}

	if col > startCol || len(spans) == 0 {
		spans = append(spans, span.LineSpan{Line: row, StartCol: startCol, EndCol: col})
	}

	return spans
}

// Walk visits the subtree rooted at c in pre-order. Returning false from fn
// skips the node's children.
func (c Cursor) Walk(fn func(Cursor) bool) {
	if !fn(c) {
		return
	}

	for _, child := range c.node().Children {
		Cursor{tree: c.tree, idx: child}.Walk(fn)
	}
}

// Leaves returns the leaves of the subtree rooted at c, left to right.
func (c Cursor) Leaves() []Cursor {
	var out []Cursor

	c.Walk(func(n Cursor) bool {
		if n.IsLeaf() {
			out = append(out, n)
		}

		return true
	})

	return out
}

func (c Cursor) String() string {
	if !c.Valid() {
		return "<nil>"
	}

	n := c.node()

	return fmt.Sprintf("%s [%d:%d - %d:%d]", n.Kind, n.Start.Row, n.Start.Column, n.End.Row, n.End.Column)
}
