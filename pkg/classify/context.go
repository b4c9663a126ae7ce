package classify

import (
	"fmt"

	"github.com/Sumatoshi-tech/editvec/pkg/cst"
)

// Context is the kind of a node's parent and grandparent.
type Context struct {
	Parent      string
	Grandparent string
}

// ContextOf returns the parent and grandparent kinds of n. Nodes closer
// than two levels to the root have no context and yield ErrNoAncestor.
func ContextOf(n cst.Cursor) (Context, error) {
	parent, ok := n.Parent()
	if !ok {
		return Context{}, fmt.Errorf("%w: %s has no parent", ErrNoAncestor, n)
	}

	grandparent, ok := parent.Parent()
	if !ok {
		return Context{}, fmt.Errorf("%w: %s has no grandparent", ErrNoAncestor, n)
	}

	return Context{Parent: parent.Kind(), Grandparent: grandparent.Kind()}, nil
}
