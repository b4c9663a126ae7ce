// Package extract runs the change-feature pipeline on one pair of file
// versions: line diff, position resolution, classification and emission.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"lukechampine.com/blake3"

	"github.com/Sumatoshi-tech/editvec/pkg/cache"
	"github.com/Sumatoshi-tech/editvec/pkg/classify"
	"github.com/Sumatoshi-tech/editvec/pkg/cst"
	"github.com/Sumatoshi-tech/editvec/pkg/feature"
	"github.com/Sumatoshi-tech/editvec/pkg/linediff"
	"github.com/Sumatoshi-tech/editvec/pkg/observability"
	"github.com/Sumatoshi-tech/editvec/pkg/parse"
	"github.com/Sumatoshi-tech/editvec/pkg/resolve"
	"github.com/Sumatoshi-tech/editvec/pkg/span"
	"github.com/Sumatoshi-tech/editvec/pkg/treediff"
)

// ErrEmptyTree is returned when a side parsed to no nodes.
var ErrEmptyTree = errors.New("empty syntax tree")

// Pair is one file at two revisions.
type Pair struct {
	Repo     string
	Revision string
	Path     string
	Before   []byte
	After    []byte
}

// Report summarizes one extraction.
type Report struct {
	Counts  map[classify.ChangeType]int
	Path    string
	Hunks   int
	Records int
	// Misses are novel positions no concrete node contains.
	Misses int
	// Shallow are nodes too close to the root to have context.
	Shallow int
	// Fallbacks are positions no atom covered, resolved on the concrete tree.
	Fallbacks int
}

// Extractor is safe for concurrent use when its store is.
type Extractor struct {
	parser  *parse.Parser
	store   feature.Store
	logger  *slog.Logger
	metrics *observability.FeatureMetrics
	tracer  trace.Tracer
	parsed  *ParseCache
	opts    Options
}

// ParseCache holds parsed files keyed by language and content hash.
type ParseCache = cache.LRU[[32]byte, *parse.File]

// NewParseCache returns a cache holding up to maxBytes of parsed source.
func NewParseCache(maxBytes int64) *ParseCache {
	return cache.NewLRU[[32]byte, *parse.File](maxBytes)
}

// Option customizes an Extractor.
type Option func(*Extractor)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) { e.logger = l }
}

// WithMetrics sets the metric instruments.
func WithMetrics(m *observability.FeatureMetrics) Option {
	return func(e *Extractor) { e.metrics = m }
}

// WithTracer sets the tracer.
func WithTracer(t trace.Tracer) Option {
	return func(e *Extractor) { e.tracer = t }
}

// WithParseCache reuses parsed files across pairs. A file version that is
// the after side of one commit is often the before side of the next.
func WithParseCache(c *ParseCache) Option {
	return func(e *Extractor) { e.parsed = c }
}

// New returns an extractor writing to store.
func New(parser *parse.Parser, store feature.Store, opts Options, options ...Option) *Extractor {
	e := &Extractor{
		parser: parser,
		store:  store,
		opts:   opts,
		logger: slog.Default(),
		tracer: noop.NewTracerProvider().Tracer(""),
	}

	for _, o := range options {
		o(e)
	}

	return e
}

// Run parses both versions of the pair and extracts its features.
func (e *Extractor) Run(ctx context.Context, pair Pair) (Report, error) {
	lang, ok := e.parser.Registry().Detect(pair.Path, pair.After)
	if !ok {
		return Report{Path: pair.Path}, fmt.Errorf("%w: %s", parse.ErrUnsupported, pair.Path)
	}

	before, err := e.parse(ctx, lang, pair.Before)
	if err != nil {
		return Report{Path: pair.Path}, fmt.Errorf("parse before %s: %w", pair.Path, err)
	}

	after, err := e.parse(ctx, lang, pair.After)
	if err != nil {
		return Report{Path: pair.Path}, fmt.Errorf("parse after %s: %w", pair.Path, err)
	}

	return e.RunFiles(ctx, pair, before, after)
}

func (e *Extractor) parse(ctx context.Context, lang *parse.Language, content []byte) (*parse.File, error) {
	if e.parsed == nil {
		return e.parser.Parse(ctx, lang, content)
	}

	hasher := blake3.New(32, nil) //nolint:mnd // 256-bit digest
	_, _ = hasher.Write([]byte(lang.Name))
	_, _ = hasher.Write([]byte{0})
	_, _ = hasher.Write(content)

	var key [32]byte

	copy(key[:], hasher.Sum(nil))

	if file, ok := e.parsed.Get(key); ok {
		return file, nil
	}

	file, err := e.parser.Parse(ctx, lang, content)
	if err != nil {
		return nil, err
	}

	e.parsed.Put(key, file, int64(len(content)))

	return file, nil
}

// RunFiles extracts features from already parsed versions. The pair's
// Before and After contents are not read.
func (e *Extractor) RunFiles(ctx context.Context, pair Pair, before, after *parse.File) (Report, error) {
	langName := "unknown"
	literal := cst.LiteralKinds()

	if before.Language != nil {
		langName = before.Language.Name
		literal = e.parser.Literal(before.Language)
	}

	ctx, sp := e.tracer.Start(ctx, "editvec.extract.pair", trace.WithAttributes(
		attribute.String("file.path", pair.Path),
		attribute.String("file.language", langName),
		attribute.String("editvec.mode", e.opts.Mode.String()),
	))
	defer sp.End()

	started := time.Now()

	report, err := e.extract(ctx, pair, before, after, literal)
	report.Path = pair.Path

	sp.SetAttributes(
		attribute.Int("hunk.count", report.Hunks),
		attribute.Int("editvec.records", report.Records),
	)

	if err != nil {
		sp.RecordError(err)
		sp.SetStatus(codes.Error, err.Error())
		e.metrics.RecordFailure(ctx, langName)

		return report, err
	}

	e.metrics.RecordPair(ctx, langName, report.Hunks, report.Misses, time.Since(started))
	e.metrics.RecordChanges(ctx, countsByName(report.Counts, e.opts.Labels))

	e.logger.DebugContext(ctx, "pair extracted",
		"path", pair.Path, "hunks", report.Hunks, "records", report.Records,
		"misses", report.Misses, "shallow", report.Shallow, "fallbacks", report.Fallbacks)

	return report, nil
}

func (e *Extractor) extract(
	ctx context.Context, pair Pair, before, after *parse.File, literal cst.KindFunc,
) (Report, error) {
	lhsRoot, rhsRoot := before.Tree.Root(), after.Tree.Root()
	if !lhsRoot.Valid() || !rhsRoot.Valid() {
		return Report{}, fmt.Errorf("%w: %s", ErrEmptyTree, pair.Path)
	}

	emitter := &feature.Emitter{
		Store:    e.store,
		Repo:     pair.Repo,
		Revision: pair.Revision,
		Labels:   e.opts.Labels,
	}

	report := Report{Counts: make(map[classify.ChangeType]int)}

	if e.opts.Mode == Aligned {
		err := e.aligned(ctx, emitter, lhsRoot, rhsRoot, literal, &report)

		return report, err
	}

	lines := linediff.Compute(before.Tree, after.Tree, linediff.Options{ContextLines: e.opts.ContextLines})
	lhsIndex, rhsIndex := span.IndexNovel(lines.LHS), span.IndexNovel(lines.RHS)

	for _, hunk := range lines.Hunks {
		if hunk.Empty() {
			continue
		}

		report.Hunks++

		err := e.flatHunk(ctx, emitter, hunk, lhsIndex, rhsIndex, before, after, literal, &report)
		if err != nil {
			return report, err
		}
	}

	return report, nil
}

// flatHunk resolves the novel positions of one hunk on both sides and
// labels them by side.
func (e *Extractor) flatHunk(
	ctx context.Context, emitter *feature.Emitter, hunk span.Hunk, lhsIndex, rhsIndex span.LineIndex,
	before, after *parse.File, literal cst.KindFunc, report *Report,
) error {
	lhsGroups, rhsGroups := lhsIndex.Groups(hunk.NovelLHS), rhsIndex.Groups(hunk.NovelRHS)

	lhsNodes, err := e.resolveAll(ctx, span.Flatten(lhsGroups), before, literal, report)
	if err != nil {
		return err
	}

	rhsNodes, err := e.resolveAll(ctx, span.Flatten(rhsGroups), after, literal, report)
	if err != nil {
		return err
	}

	tagged := classify.Tag(lhsNodes, rhsNodes)
	if e.opts.Shallow == ShallowSkip {
		tagged = dropShallow(tagged, report)
	}

	return e.emit(ctx, emitter, tagged, report)
}

func (e *Extractor) resolveAll(
	ctx context.Context, positions []span.MatchedPos, file *parse.File, literal cst.KindFunc, report *Report,
) ([]cst.Cursor, error) {
	root := file.Tree.Root()
	nodes := make([]cst.Cursor, 0, len(positions))

	for _, mp := range positions {
		if n, ok := resolve.AtomNode(mp.Pos, file.Syntax, root); ok {
			nodes = append(nodes, n)

			continue
		}

		report.Fallbacks++

		n, err := resolve.MustNode(mp.Pos, root, literal)
		if err != nil {
			if e.opts.Miss == resolve.MissSkip {
				report.Misses++

				e.logger.DebugContext(ctx, "skipping unresolved position", "pos", mp.Pos.String())

				continue
			}

			return nil, err
		}

		nodes = append(nodes, n)
	}

	return nodes, nil
}

// aligned diffs the two trees and emits every node deep enough to carry
// context.
func (e *Extractor) aligned(
	ctx context.Context, emitter *feature.Emitter, lhs, rhs cst.Cursor, literal cst.KindFunc, report *Report,
) error {
	res := treediff.Diff(lhs, rhs, treediff.Options{Literal: literal, Policy: e.opts.Leaf})
	if res.Empty() {
		return nil
	}

	report.Hunks = 1

	return e.emit(ctx, emitter, dropShallow(classify.FromDiff(res), report), report)
}

// dropShallow removes nodes without a grandparent.
func dropShallow(tagged []classify.Tagged, report *Report) []classify.Tagged {
	kept := tagged[:0]

	for _, t := range tagged {
		if depth(t.Node) < 2 { //nolint:mnd // parent and grandparent
			report.Shallow++

			continue
		}

		kept = append(kept, t)
	}

	return kept
}

func (e *Extractor) emit(ctx context.Context, emitter *feature.Emitter, tagged []classify.Tagged, report *Report) error {
	written, err := emitter.Emit(ctx, tagged)
	report.Records += written

	for _, t := range tagged[:written] {
		report.Counts[t.Change]++
	}

	return err
}

func depth(n cst.Cursor) int {
	d := 0

	for {
		parent, ok := n.Parent()
		if !ok {
			return d
		}

		n = parent
		d++
	}
}

func countsByName(counts map[classify.ChangeType]int, labels classify.Labels) map[string]int {
	out := make(map[string]int, len(counts))
	for ct, n := range counts {
		out[labels.Name(ct)] += n
	}

	return out
}
