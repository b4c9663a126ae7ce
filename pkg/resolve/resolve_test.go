package resolve_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/editvec/pkg/cst"
	"github.com/Sumatoshi-tech/editvec/pkg/resolve"
	"github.com/Sumatoshi-tech/editvec/pkg/span"
	"github.com/Sumatoshi-tech/editvec/pkg/syntax"
)

func pos(line, start, end int) span.LineSpan {
	return span.LineSpan{Line: line, StartCol: start, EndCol: end}
}

// stringTree is `s = "x` / `mid` / `y"` with a three-line string literal.
func stringTree(t *testing.T) *cst.Tree {
	t.Helper()

	tree := cst.NewTree([]byte("s = \"x\nmid\ny\"\n"))

	add := func(parent int, kind string, start, end int) int {
		idx, err := tree.Add(parent, kind, start, end, true)
		require.NoError(t, err)

		return idx
	}

	root := add(cst.NoParent, "source", 0, 14)
	stmt := add(root, "assignment", 0, 13)
	add(stmt, "identifier", 0, 1)
	add(stmt, "=", 2, 3)
	lit := add(stmt, "string_literal", 4, 13)
	add(lit, "\"", 4, 5)
	add(lit, "string_content", 5, 12)
	add(lit, "\"", 12, 13)

	return tree
}

func TestAtom(t *testing.T) {
	t.Parallel()

	tree := stringTree(t)
	forest := syntax.NewBuilder(cst.IsLiteralKind).Build(tree)

	tests := []struct {
		name    string
		pos     span.LineSpan
		content string
		found   bool
	}{
		{"single-line atom", pos(0, 0, 1), "s", true},
		{"operator", pos(0, 2, 3), "=", true},
		{"first line of literal", pos(0, 4, 6), "\"x\nmid\ny\"", true},
		{"interior line of literal", pos(1, 0, 3), "\"x\nmid\ny\"", true},
		{"partial line is not contained", pos(1, 0, 2), "", false},
		{"outside", pos(5, 0, 1), "", false},
	}

	for _, tt := range tests {
		atom, ok := resolve.Atom(tt.pos, forest)
		require.Equal(t, tt.found, ok, tt.name)

		if ok {
			assert.Equal(t, tt.content, atom.Content, tt.name)
		}
	}
}

func TestNode_LiteralShadowsInnerLeaves(t *testing.T) {
	t.Parallel()

	root := stringTree(t).Root()

	n, ok := resolve.Node(pos(0, 5, 6), root, cst.IsLiteralKind)
	require.True(t, ok)
	assert.Equal(t, "string_literal", n.Kind())

	n, ok = resolve.Node(pos(0, 5, 6), root, nil)
	require.True(t, ok)
	assert.Equal(t, "string_content", n.Kind())

	n, ok = resolve.Node(pos(0, 0, 1), root, cst.IsLiteralKind)
	require.True(t, ok)
	assert.Equal(t, "identifier", n.Kind())
}

func TestNode_Deterministic(t *testing.T) {
	t.Parallel()

	root := stringTree(t).Root()

	first, ok := resolve.Node(pos(0, 2, 3), root, cst.IsLiteralKind)
	require.True(t, ok)

	second, ok := resolve.Node(pos(0, 2, 3), root, cst.IsLiteralKind)
	require.True(t, ok)

	assert.Equal(t, first, second)
	assert.Equal(t, first.ID(), second.ID())
}

func TestMustNode(t *testing.T) {
	t.Parallel()

	root := stringTree(t).Root()

	_, err := resolve.MustNode(pos(9, 0, 1), root, cst.IsLiteralKind)
	require.ErrorIs(t, err, resolve.ErrUnresolved)

	_, err = resolve.MustNode(pos(0, 0, 1), cst.Cursor{}, nil)
	require.ErrorIs(t, err, resolve.ErrUnresolved)

	n, err := resolve.MustNode(pos(2, 0, 1), root, nil)
	require.NoError(t, err)
	assert.Equal(t, "string_content", n.Kind())
}

func TestInsideNode(t *testing.T) {
	t.Parallel()

	tree := stringTree(t)
	lit := tree.Root().Child(0).Child(2)
	require.Equal(t, "string_literal", lit.Kind())

	tests := []struct {
		name string
		pos  span.LineSpan
		want bool
	}{
		{"before start column", pos(0, 3, 4), false},
		{"start row only checks start", pos(0, 4, 99), true},
		{"interior row", pos(1, 50, 60), true},
		{"end row within", pos(2, 0, 2), true},
		{"end row past end", pos(2, 0, 3), false},
		{"row after", pos(3, 0, 1), false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, resolve.InsideNode(tt.pos, lit), tt.name)
	}

	ident := tree.Root().Child(0).Child(0)
	assert.True(t, resolve.InsideNode(pos(0, 0, 1), ident))
	assert.False(t, resolve.InsideNode(pos(0, 0, 2), ident))
}

func TestSamePositionAndAtomToNode(t *testing.T) {
	t.Parallel()

	tree := stringTree(t)
	root := tree.Root()
	forest := syntax.NewBuilder(cst.IsLiteralKind).Build(tree)

	atom, ok := resolve.Atom(pos(2, 0, 2), forest)
	require.True(t, ok)

	lit := root.Child(0).Child(2)
	assert.True(t, resolve.SamePosition(lit, atom))
	assert.False(t, resolve.SamePosition(root, atom))
	assert.False(t, resolve.SamePosition(lit, forest[0]))
	assert.False(t, resolve.SamePosition(lit, nil))

	n, ok := resolve.AtomToNode(atom, root)
	require.True(t, ok)
	assert.Equal(t, lit, n)

	_, ok = resolve.AtomToNode(forest[0], root)
	assert.False(t, ok)
}

func TestAtomNode_SkipsWrapperWithSameSpan(t *testing.T) {
	t.Parallel()

	tree := cst.NewTree([]byte("return 1\n"))

	add := func(parent int, kind string, start, end int) int {
		idx, err := tree.Add(parent, kind, start, end, true)
		require.NoError(t, err)

		return idx
	}

	root := add(cst.NoParent, "block", 0, 9)
	ret := add(root, "return_statement", 0, 8)
	add(ret, "return", 0, 6)
	list := add(ret, "expression_list", 7, 8)
	add(list, "int_literal", 7, 8)

	forest := syntax.NewBuilder(cst.IsLiteralKind).Build(tree)

	n, ok := resolve.AtomNode(pos(0, 7, 8), forest, tree.Root())
	require.True(t, ok)
	assert.Equal(t, "int_literal", n.Kind())

	parent, ok := n.Parent()
	require.True(t, ok)
	assert.Equal(t, "expression_list", parent.Kind())

	_, ok = resolve.AtomNode(pos(0, 7, 9), forest, tree.Root())
	assert.False(t, ok)
}

func TestParseMissPolicy(t *testing.T) {
	t.Parallel()

	p, err := resolve.ParseMissPolicy("skip")
	require.NoError(t, err)
	assert.Equal(t, resolve.MissSkip, p)
	assert.Equal(t, "skip", p.String())

	p, err = resolve.ParseMissPolicy("")
	require.NoError(t, err)
	assert.Equal(t, resolve.MissAbort, p)

	_, err = resolve.ParseMissPolicy("retry")
	require.ErrorIs(t, err, resolve.ErrUnknownMissPolicy)
}
