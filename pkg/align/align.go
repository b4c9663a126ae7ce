// Package align computes a minimum-cost alignment between two ordered
// sequences of sibling nodes. Equal kinds match at no cost; everything else
// is paid for with add, delete or delete-then-add steps.
package align

import "slices"

// Op is one edit operation of the alignment table.
type Op int

// Edit operations.
const (
	// Add consumes one right-hand node.
	Add Op = iota
	// Delete consumes one left-hand node.
	Delete
	// MaybeUpdated consumes one node of each side with the same kind. Whether
	// the pair really differs is decided by comparing contents later.
	MaybeUpdated
	// DeletedThenAdded consumes one node of each side with different kinds,
	// treated as an unrelated delete plus add.
	DeletedThenAdded
)

func (op Op) String() string {
	switch op {
	case Add:
		return "Add"
	case Delete:
		return "Delete"
	case MaybeUpdated:
		return "MaybeUpdated"
	case DeletedThenAdded:
		return "DeletedThenAdded"
	default:
		return "Unknown"
	}
}

// TieBreak is the preference order among equally cheap non-matching steps.
var TieBreak = [3]Op{Add, Delete, DeletedThenAdded} //nolint:gochecknoglobals // fixed policy table

// Kinded is anything with a grammar kind.
type Kinded interface {
	Kind() string
}

// Table holds the operation and cost matrices, both (n+1)×(m+1).
type Table struct {
	Ops  [][]Op
	Cost [][]int
}

// Rows returns n, the length of the left sequence.
func (t *Table) Rows() int {
	return len(t.Ops) - 1
}

// Cols returns m, the length of the right sequence.
func (t *Table) Cols() int {
	return len(t.Ops[0]) - 1
}

// Total returns the minimal number of add and delete steps.
func (t *Table) Total() int {
	return t.Cost[t.Rows()][t.Cols()]
}

// Align fills the alignment table for left and right.
func Align[T Kinded](left, right []T) *Table {
	n, m := len(left), len(right)

	ops := make([][]Op, n+1)
	cost := make([][]int, n+1)

	for i := range ops {
		ops[i] = make([]Op, m+1)
		cost[i] = make([]int, m+1)
	}

	for j := 1; j <= m; j++ {
		ops[0][j] = Add
		cost[0][j] = j
	}

	for i := 1; i <= n; i++ {
		ops[i][0] = Delete
		cost[i][0] = i
	}

	ops[0][0] = Delete

	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			if left[i-1].Kind() == right[j-1].Kind() {
				ops[i][j] = MaybeUpdated
				cost[i][j] = cost[i-1][j-1]

				continue
			}

			ops[i][j], cost[i][j] = cheapest(cost, i, j)
		}
	}

	return &Table{Ops: ops, Cost: cost}
}

// cheapest picks the first op in TieBreak order with minimal cost.
func cheapest(cost [][]int, i, j int) (Op, int) {
	best, bestCost := TieBreak[0], stepCost(cost, TieBreak[0], i, j)

	for _, op := range TieBreak[1:] {
		if c := stepCost(cost, op, i, j); c < bestCost {
			best, bestCost = op, c
		}
	}

	return best, bestCost
}

func stepCost(cost [][]int, op Op, i, j int) int {
	switch op {
	case Add:
		return cost[i][j-1] + 1
	case Delete:
		return cost[i-1][j] + 1
	default:
		return cost[i-1][j-1] + 1
	}
}

// Pair is a left and a right node consumed by one step.
type Pair[T any] struct {
	Left  T
	Right T
}

// Script is the edit script read back from a table, in source order.
// Replaced pairs also appear in Added and Deleted.
type Script[T any] struct {
	Added        []T
	Deleted      []T
	MaybeUpdated []Pair[T]
	Replaced     []Pair[T]
}

// Edits returns the number of added plus deleted nodes.
func (s Script[T]) Edits() int {
	return len(s.Added) + len(s.Deleted)
}

// Backtrack walks the table from (n,m) to (0,0) and collects the script.
func Backtrack[T any](t *Table, left, right []T) Script[T] {
	var s Script[T]

	i, j := len(left), len(right)

	for i > 0 || j > 0 {
		switch t.Ops[i][j] {
		case Add:
			j--
			s.Added = append(s.Added, right[j])
		case Delete:
			i--
			s.Deleted = append(s.Deleted, left[i])
		case DeletedThenAdded:
			i--
			j--
			s.Added = append(s.Added, right[j])
			s.Deleted = append(s.Deleted, left[i])
			s.Replaced = append(s.Replaced, Pair[T]{Left: left[i], Right: right[j]})
		case MaybeUpdated:
			i--
			j--
			s.MaybeUpdated = append(s.MaybeUpdated, Pair[T]{Left: left[i], Right: right[j]})
		}
	}

	slices.Reverse(s.Added)
	slices.Reverse(s.Deleted)
	slices.Reverse(s.MaybeUpdated)
	slices.Reverse(s.Replaced)

	return s
}

// Sequences aligns left and right and returns the script.
func Sequences[T Kinded](left, right []T) Script[T] {
	return Backtrack(Align(left, right), left, right)
}
