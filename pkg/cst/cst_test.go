package cst_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/editvec/pkg/cst"
	"github.com/Sumatoshi-tech/editvec/pkg/span"
)

// callTree builds "f(a,\n  b)\n" as call > (ident, args > ( a , b )).
func callTree(t *testing.T) *cst.Tree {
	t.Helper()

	tree := cst.NewTree([]byte("f(a,\n  b)\n"))

	add := func(parent int, kind string, start, end int) int {
		idx, err := tree.Add(parent, kind, start, end, true)
		require.NoError(t, err)

		return idx
	}

	root := add(cst.NoParent, "source", 0, 10)
	call := add(root, "call", 0, 9)
	add(call, "identifier", 0, 1)
	args := add(call, "arguments", 1, 9)
	add(args, "(", 1, 2)
	add(args, "identifier", 2, 3)
	add(args, ",", 3, 4)
	add(args, "identifier", 7, 8)
	add(args, ")", 8, 9)

	return tree
}

func TestTree_PointAt(t *testing.T) {
	t.Parallel()

	tree := cst.NewTree([]byte("ab\ncd\n\nx"))

	tests := []struct {
		offset int
		want   cst.Point
	}{
		{0, cst.Point{Row: 0, Column: 0}},
		{2, cst.Point{Row: 0, Column: 2}},
		{3, cst.Point{Row: 1, Column: 0}},
		{6, cst.Point{Row: 2, Column: 0}},
		{7, cst.Point{Row: 3, Column: 0}},
		{8, cst.Point{Row: 3, Column: 1}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tree.PointAt(tt.offset), tt.offset)
	}
}

func TestTree_AddRejectsBadRange(t *testing.T) {
	t.Parallel()

	tree := cst.NewTree([]byte("abc"))

	_, err := tree.Add(cst.NoParent, "x", 2, 1, true)
	require.ErrorIs(t, err, cst.ErrBadRange)

	_, err = tree.Add(cst.NoParent, "x", 0, 4, true)
	require.ErrorIs(t, err, cst.ErrBadRange)

	assert.Zero(t, tree.Len())
	assert.False(t, tree.Root().Valid())
}

func TestCursor_Navigation(t *testing.T) {
	t.Parallel()

	tree := callTree(t)
	root := tree.Root()

	require.True(t, root.Valid())
	assert.Equal(t, "source", root.Kind())
	assert.Equal(t, 9, tree.Len())

	_, ok := root.Parent()
	assert.False(t, ok)

	call, ok := root.FirstChild()
	require.True(t, ok)
	assert.Equal(t, "call", call.Kind())

	_, ok = call.NextSibling()
	assert.False(t, ok)

	ident := call.Child(0)
	args, ok := ident.NextSibling()
	require.True(t, ok)
	assert.Equal(t, "arguments", args.Kind())
	assert.Equal(t, 5, args.ChildCount())

	parent, ok := args.Parent()
	require.True(t, ok)
	assert.Equal(t, call, parent)

	b := args.Child(3)
	assert.Equal(t, "b", string(b.Text()))
	assert.Equal(t, cst.Point{Row: 1, Column: 2}, b.Start())
	assert.Equal(t, cst.Point{Row: 1, Column: 3}, b.End())
	assert.True(t, b.IsLeaf())

	_, ok = b.FirstChild()
	assert.False(t, ok)

	assert.Equal(t, tree.At(b.ID()), b)
	assert.Equal(t, "identifier [1:2 - 1:3]", b.String())
	assert.Equal(t, "<nil>", cst.Cursor{}.String())
}

func TestCursor_LeavesAndWalk(t *testing.T) {
	t.Parallel()

	root := callTree(t).Root()

	var texts []string
	for _, leaf := range root.Leaves() {
		texts = append(texts, string(leaf.Text()))
	}

	assert.Equal(t, []string{"f", "(", "a", ",", "b", ")"}, texts)

	var kinds []string

	root.Walk(func(c cst.Cursor) bool {
		kinds = append(kinds, c.Kind())

		return c.Kind() != "arguments"
	})

	assert.Equal(t, []string{"source", "call", "identifier", "arguments"}, kinds)
}

func TestCursor_LineSpans(t *testing.T) {
	t.Parallel()

	tree := callTree(t)
	root := tree.Root()
	call := root.Child(0)

	assert.Equal(t, []span.LineSpan{
		{Line: 0, StartCol: 0, EndCol: 4},
		{Line: 1, StartCol: 0, EndCol: 4},
	}, call.LineSpans())

	// the root ends with a newline; the empty trailing line is dropped.
	assert.Equal(t, []span.LineSpan{
		{Line: 0, StartCol: 0, EndCol: 4},
		{Line: 1, StartCol: 0, EndCol: 4},
	}, root.LineSpans())
}

func TestSameText(t *testing.T) {
	t.Parallel()

	tree := callTree(t)
	args := tree.Root().Child(0).Child(1)

	assert.True(t, cst.SameText(args.Child(1), args.Child(1)))
	assert.False(t, cst.SameText(args.Child(1), args.Child(3)))
	assert.True(t, cst.SameText(tree.Root().Child(0).Child(0), callTree(t).Root().Child(0).Child(0)))
}

func TestLiteralKinds(t *testing.T) {
	t.Parallel()

	assert.True(t, cst.IsLiteralKind("interpreted_string_literal"))
	assert.False(t, cst.IsLiteralKind("identifier"))

	literal := cst.LiteralKinds("string", "heredoc_body")
	assert.True(t, literal("string"))
	assert.True(t, literal("heredoc_body"))
	assert.True(t, literal("int_literal"))
	assert.False(t, literal("call"))
}

func TestIsLiteralKind_Composite(t *testing.T) {
	t.Parallel()

	for _, kind := range []string{"func_literal", "composite_literal", "literal_value", "compound_literal_expression"} {
		assert.False(t, cst.IsLiteralKind(kind), kind)
		assert.False(t, cst.LiteralKinds("string")(kind), kind)
	}

	assert.True(t, cst.IsLiteralKind("raw_string_literal"))
	assert.True(t, cst.IsLiteralKind("rune_literal"))
}
