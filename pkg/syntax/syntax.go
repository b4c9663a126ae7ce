// Package syntax is the abstract view of a parsed file: a forest of List
// and Atom nodes annotated with per-line spans. Structurally identical
// subtrees share a content id.
package syntax

import (
	"strconv"
	"strings"

	"github.com/Sumatoshi-tech/editvec/pkg/cst"
	"github.com/Sumatoshi-tech/editvec/pkg/span"
)

// Variant distinguishes lists from atoms.
type Variant int

// Node variants.
const (
	List Variant = iota
	Atom
)

func (v Variant) String() string {
	if v == Atom {
		return "atom"
	}

	return "list"
}

// Node is one abstract syntax node. Lists own their children; atoms carry
// content. Both carry the spans of the text they cover, one per line.
type Node struct {
	Kind         string
	Content      string
	OpenContent  string
	CloseContent string
	Children     []*Node
	Pos          []span.LineSpan
	OpenPos      []span.LineSpan
	ClosePos     []span.LineSpan
	ID           int
	ContentID    int
	Variant      Variant
}

// IsAtom reports whether n is an atom.
func (n *Node) IsAtom() bool {
	return n.Variant == Atom
}

// FirstPos returns the first recorded line span.
func (n *Node) FirstPos() (span.LineSpan, bool) {
	if len(n.Pos) == 0 {
		return span.LineSpan{}, false
	}

	return n.Pos[0], true
}

// LastPos returns the last recorded line span.
func (n *Node) LastPos() (span.LineSpan, bool) {
	if len(n.Pos) == 0 {
		return span.LineSpan{}, false
	}

	return n.Pos[len(n.Pos)-1], true
}

// Walk visits the forest in pre-order.
func Walk(forest []*Node, fn func(*Node)) {
	for _, n := range forest {
		fn(n)
		Walk(n.Children, fn)
	}
}

// Atoms returns every atom of the forest in pre-order.
func Atoms(forest []*Node) []*Node {
	var out []*Node

	Walk(forest, func(n *Node) {
		if n.IsAtom() {
			out = append(out, n)
		}
	})

	return out
}

var delimiterPairs = map[string]string{
	"(": ")",
	"[": "]",
	"{": "}",
	"<": ">",
}

// Builder converts concrete trees into abstract forests.
type Builder struct {
	// Literal reports kinds whose whole text becomes a single atom.
	Literal  func(kind string) bool
	contents map[string]int
	nextID   int
}

// NewBuilder returns a builder using literal to detect atomic kinds. A nil
// literal treats only leaves as atoms.
func NewBuilder(literal func(kind string) bool) *Builder {
	return &Builder{Literal: literal, contents: make(map[string]int)}
}

// Build converts the children of the tree root into a forest. The root
// itself is the file and is not represented.
func (b *Builder) Build(tree *cst.Tree) []*Node {
	root := tree.Root()
	if !root.Valid() {
		return nil
	}

	forest := make([]*Node, 0, root.ChildCount())

	for _, child := range root.Children() {
		forest = append(forest, b.convert(child))
	}

	return forest
}

func (b *Builder) convert(c cst.Cursor) *Node {
	b.nextID++
	id := b.nextID

	if c.IsLeaf() || (b.Literal != nil && b.Literal(c.Kind())) {
		n := &Node{
			ID:      id,
			Kind:    c.Kind(),
			Variant: Atom,
			Content: string(c.Text()),
			Pos:     c.LineSpans(),
		}
		n.ContentID = b.intern("a|" + n.Kind + "|" + n.Content)

		return n
	}

	n := &Node{ID: id, Kind: c.Kind(), Variant: List, Pos: c.LineSpans()}
	children := c.Children()

	if len(children) >= 2 {
		first, last := children[0], children[len(children)-1]
		closer, ok := delimiterPairs[string(first.Text())]

		if ok && first.IsLeaf() && last.IsLeaf() && string(last.Text()) == closer {
			n.OpenContent, n.OpenPos = string(first.Text()), first.LineSpans()
			n.CloseContent, n.ClosePos = closer, last.LineSpans()
			children = children[1 : len(children)-1]
		}
	}

	var key strings.Builder

	key.WriteString("l|" + n.Kind + "|" + n.OpenContent + "|" + n.CloseContent)

	for _, child := range children {
		converted := b.convert(child)
		n.Children = append(n.Children, converted)

		key.WriteString("|" + strconv.Itoa(converted.ContentID))
	}

	n.ContentID = b.intern(key.String())

	return n
}

func (b *Builder) intern(key string) int {
	if id, ok := b.contents[key]; ok {
		return id
	}

	id := len(b.contents) + 1
	b.contents[key] = id

	return id
}
