package extract

import (
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/editvec/pkg/classify"
	"github.com/Sumatoshi-tech/editvec/pkg/resolve"
	"github.com/Sumatoshi-tech/editvec/pkg/treediff"
)

// ErrUnknownMode is returned for an unrecognized diff mode name.
var ErrUnknownMode = errors.New("unknown diff mode")

// Mode selects how novel nodes are classified.
type Mode int

const (
	// Flat resolves each hunk's novel positions and labels them by side.
	Flat Mode = iota
	// Aligned diffs the whole trees with sibling alignment.
	Aligned
)

func (m Mode) String() string {
	if m == Aligned {
		return "aligned"
	}

	return "flat"
}

// ParseMode parses "flat" or "aligned".
func ParseMode(name string) (Mode, error) {
	switch name {
	case "flat", "":
		return Flat, nil
	case "aligned":
		return Aligned, nil
	default:
		return Flat, fmt.Errorf("%w: %q", ErrUnknownMode, name)
	}
}

// ErrUnknownShallowPolicy is returned for an unrecognized shallow policy name.
var ErrUnknownShallowPolicy = errors.New("unknown shallow policy")

// ShallowPolicy decides what flat mode does with a novel node that has no
// grandparent, such as a top-level comment.
type ShallowPolicy int

// Shallow policies.
const (
	// ShallowAbort fails the whole file pair.
	ShallowAbort ShallowPolicy = iota
	// ShallowSkip drops the node and counts it in Report.Shallow.
	ShallowSkip
)

func (p ShallowPolicy) String() string {
	if p == ShallowSkip {
		return "skip"
	}

	return "abort"
}

// ParseShallowPolicy parses "abort" or "skip".
func ParseShallowPolicy(name string) (ShallowPolicy, error) {
	switch name {
	case "abort", "":
		return ShallowAbort, nil
	case "skip":
		return ShallowSkip, nil
	default:
		return ShallowAbort, fmt.Errorf("%w: %q", ErrUnknownShallowPolicy, name)
	}
}

// Options configures an Extractor.
type Options struct {
	Mode    Mode
	Leaf    treediff.LeafPolicy
	Miss    resolve.MissPolicy
	Shallow ShallowPolicy
	Labels  classify.Labels
	// ContextLines widens flat-mode hunks; 0 keeps only changed lines.
	ContextLines int
}
