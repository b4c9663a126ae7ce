package feature

import (
	"context"
	"fmt"

	"github.com/Sumatoshi-tech/editvec/pkg/classify"
)

// Emitter turns classified nodes into records of one revision.
type Emitter struct {
	Store    Store
	Repo     string
	Revision string
	Labels   classify.Labels
}

// Emit appends one record per tagged node, in order. It stops at the first
// node without context or the first failed append and returns how many
// records were written before that.
func (e *Emitter) Emit(ctx context.Context, tagged []classify.Tagged) (int, error) {
	written := 0

	for _, t := range tagged {
		nodeCtx, err := classify.ContextOf(t.Node)
		if err != nil {
			return written, fmt.Errorf("emit %s: %w", e.Labels.Name(t.Change), err)
		}

		rec := Record{
			Repo:            e.Repo,
			Revision:        e.Revision,
			Change:          e.Labels.Name(t.Change),
			ParentKind:      nodeCtx.Parent,
			GrandparentKind: nodeCtx.Grandparent,
		}

		appendErr := e.Store.Append(ctx, rec)
		if appendErr != nil {
			return written, appendErr
		}

		written++
	}

	return written, nil
}
