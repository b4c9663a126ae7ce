package syntax_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/editvec/pkg/cst"
	"github.com/Sumatoshi-tech/editvec/pkg/span"
	"github.com/Sumatoshi-tech/editvec/pkg/syntax"
)

type spec struct {
	kind     string
	start    int
	end      int
	children []spec
}

func build(t *testing.T, src string, root spec) *cst.Tree {
	t.Helper()

	tree := cst.NewTree([]byte(src))

	var add func(parent int, s spec)

	add = func(parent int, s spec) {
		idx, err := tree.Add(parent, s.kind, s.start, s.end, true)
		require.NoError(t, err)

		for _, c := range s.children {
			add(idx, c)
		}
	}

	add(cst.NoParent, root)

	return tree
}

// "g(x, x)\n"
func callTree(t *testing.T) *cst.Tree {
	t.Helper()

	return build(t, "g(x, x)\n", spec{"source", 0, 8, []spec{
		{"call", 0, 7, []spec{
			{"identifier", 0, 1, nil},
			{"arguments", 1, 7, []spec{
				{"(", 1, 2, nil},
				{"identifier", 2, 3, nil},
				{",", 3, 4, nil},
				{"identifier", 5, 6, nil},
				{")", 6, 7, nil},
			}},
		}},
	}})
}

func TestBuild_ListsAndAtoms(t *testing.T) {
	t.Parallel()

	forest := syntax.NewBuilder(nil).Build(callTree(t))
	require.Len(t, forest, 1)

	call := forest[0]
	assert.Equal(t, syntax.List, call.Variant)
	assert.Equal(t, "call", call.Kind)
	assert.Equal(t, []span.LineSpan{{Line: 0, StartCol: 0, EndCol: 7}}, call.Pos)
	require.Len(t, call.Children, 2)

	args := call.Children[1]
	assert.Equal(t, "(", args.OpenContent)
	assert.Equal(t, ")", args.CloseContent)
	assert.Equal(t, []span.LineSpan{{Line: 0, StartCol: 1, EndCol: 2}}, args.OpenPos)
	assert.Equal(t, []span.LineSpan{{Line: 0, StartCol: 6, EndCol: 7}}, args.ClosePos)
	require.Len(t, args.Children, 3)

	first, second := args.Children[0], args.Children[2]
	assert.True(t, first.IsAtom())
	assert.Equal(t, "x", first.Content)
	assert.Equal(t, first.ContentID, second.ContentID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.NotEqual(t, first.ContentID, args.Children[1].ContentID)

	var contents []string
	for _, a := range syntax.Atoms(forest) {
		contents = append(contents, a.Content)
	}

	assert.Equal(t, []string{"g", "x", ",", "x"}, contents)
}

func TestBuild_LiteralBecomesAtom(t *testing.T) {
	t.Parallel()

	tree := build(t, "\"a\nb\"\n", spec{"source", 0, 6, []spec{
		{"string_literal", 0, 5, []spec{
			{"\"", 0, 1, nil},
			{"string_content", 1, 4, nil},
			{"\"", 4, 5, nil},
		}},
	}})

	forest := syntax.NewBuilder(cst.IsLiteralKind).Build(tree)
	require.Len(t, forest, 1)

	lit := forest[0]
	assert.True(t, lit.IsAtom())
	assert.Equal(t, "\"a\nb\"", lit.Content)

	first, ok := lit.FirstPos()
	require.True(t, ok)
	assert.Equal(t, span.LineSpan{Line: 0, StartCol: 0, EndCol: 2}, first)

	last, ok := lit.LastPos()
	require.True(t, ok)
	assert.Equal(t, span.LineSpan{Line: 1, StartCol: 0, EndCol: 2}, last)

	forest = syntax.NewBuilder(nil).Build(tree)
	assert.False(t, forest[0].IsAtom())
	assert.Len(t, syntax.Atoms(forest), 3)
}

func TestBuild_SharedContentAcrossTrees(t *testing.T) {
	t.Parallel()

	b := syntax.NewBuilder(nil)
	lhs := b.Build(callTree(t))
	rhs := b.Build(callTree(t))

	assert.Equal(t, lhs[0].ContentID, rhs[0].ContentID)
	assert.NotEqual(t, lhs[0].ID, rhs[0].ID)
}

func TestBuild_EmptyTree(t *testing.T) {
	t.Parallel()

	assert.Nil(t, syntax.NewBuilder(nil).Build(cst.NewTree(nil)))

	_, ok := (&syntax.Node{}).FirstPos()
	assert.False(t, ok)
	assert.Equal(t, "atom", syntax.Atom.String())
	assert.Equal(t, "list", syntax.List.String())
}
