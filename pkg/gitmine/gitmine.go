// Package gitmine walks a git history and yields the before/after contents
// of every source file touched by a matching commit.
package gitmine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/utils/merkletrie"
	"github.com/src-d/enry/v2"
	"lukechampine.com/blake3"

	"github.com/Sumatoshi-tech/editvec/pkg/extract"
	"github.com/Sumatoshi-tech/editvec/pkg/safeconv"
	"github.com/Sumatoshi-tech/editvec/pkg/textutil"
)

// Sentinel errors.
var (
	ErrOpen       = errors.New("cannot open repository")
	ErrUnknownRef = errors.New("not a branch, tag or commit")
	ErrBadGlob    = errors.New("invalid include glob")
)

// Options filters the walk.
type Options struct {
	// Ref is a branch, tag or commit hash. Empty means HEAD.
	Ref string
	// Keywords select commits whose message contains one of them as a
	// word. Empty selects every commit.
	Keywords []string
	// Include globs are matched against slash-separated paths. Empty
	// includes everything.
	Include []string
	// MaxCommits stops the walk after this many selected commits; zero is
	// unlimited.
	MaxCommits int
	// MaxFileSize skips files larger than this on either side; zero is
	// unlimited.
	MaxFileSize uint64
	// SkipVendored drops vendored and third-party paths (enry.IsVendor).
	SkipVendored bool
}

// Stats counts what a walk saw.
type Stats struct {
	Commits    int
	Selected   int
	Pairs      int
	Duplicates int
	Oversize   int
	Binary     int
	Filtered   int
	Vendored   int
}

// Supported reports whether a file can be parsed. content is nil when only
// the path is known.
type Supported func(path string, content []byte) bool

// Miner walks one repository.
type Miner struct {
	repo      *git.Repository
	supported Supported
	seen      map[[32]byte]struct{}
	name      string
	opts      Options
}

// Open opens the repository at path. A nil supported accepts every file.
func Open(path string, opts Options, supported Supported) (*Miner, error) {
	for _, glob := range opts.Include {
		if !doublestar.ValidatePattern(glob) {
			return nil, fmt.Errorf("%w: %q", ErrBadGlob, glob)
		}
	}

	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrOpen, path, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	return &Miner{
		repo:      repo,
		supported: supported,
		seen:      make(map[[32]byte]struct{}),
		name:      filepath.Base(abs),
		opts:      opts,
	}, nil
}

// Name is the repository directory name, used as the record repo id.
func (m *Miner) Name() string {
	return m.name
}

// Walk visits selected commits from the starting ref, newest first, and
// calls fn with each modified file pair against the first parent.
// Identical pairs are reported once. An error from fn stops the walk.
func (m *Miner) Walk(ctx context.Context, fn func(extract.Pair) error) (Stats, error) {
	var stats Stats

	start, err := m.resolve(m.opts.Ref)
	if err != nil {
		return stats, err
	}

	iter, err := m.repo.Log(&git.LogOptions{From: start})
	if err != nil {
		return stats, fmt.Errorf("log from %s: %w", start, err)
	}
	defer iter.Close()

	err = iter.ForEach(func(c *object.Commit) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		stats.Commits++

		if !MatchesKeywords(c.Message, m.opts.Keywords) || c.NumParents() == 0 {
			return nil
		}

		if m.opts.MaxCommits > 0 && stats.Selected >= m.opts.MaxCommits {
			return storer.ErrStop
		}

		stats.Selected++

		return m.commit(ctx, c, &stats, fn)
	})

	return stats, err
}

func (m *Miner) commit(ctx context.Context, c *object.Commit, stats *Stats, fn func(extract.Pair) error) error {
	parent, err := c.Parent(0)
	if err != nil {
		return fmt.Errorf("parent of %s: %w", c.Hash, err)
	}

	from, err := parent.Tree()
	if err != nil {
		return fmt.Errorf("tree of %s: %w", parent.Hash, err)
	}

	to, err := c.Tree()
	if err != nil {
		return fmt.Errorf("tree of %s: %w", c.Hash, err)
	}

	changes, err := from.DiffContext(ctx, to)
	if err != nil {
		return fmt.Errorf("diff %s: %w", c.Hash, err)
	}

	for _, change := range changes {
		action, actionErr := change.Action()
		if actionErr != nil || action != merkletrie.Modify {
			continue
		}

		path := change.To.Name
		if m.opts.SkipVendored && enry.IsVendor(path) {
			stats.Vendored++

			continue
		}

		if !m.wanted(path) {
			stats.Filtered++

			continue
		}

		before, after, filesErr := change.Files()
		if filesErr != nil {
			return fmt.Errorf("files of %s in %s: %w", path, c.Hash, filesErr)
		}

		if m.tooLarge(before) || m.tooLarge(after) {
			stats.Oversize++

			continue
		}

		pair, pairErr := m.pair(c, path, before, after)
		if pairErr != nil {
			return pairErr
		}

		if textutil.IsBinary(pair.Before) || textutil.IsBinary(pair.After) {
			stats.Binary++

			continue
		}

		if m.supported != nil && !m.supported(path, pair.After) {
			stats.Filtered++

			continue
		}

		if !m.firstSeen(pair) {
			stats.Duplicates++

			continue
		}

		stats.Pairs++

		if fnErr := fn(pair); fnErr != nil {
			return fnErr
		}
	}

	return nil
}

func (m *Miner) pair(c *object.Commit, path string, before, after *object.File) (extract.Pair, error) {
	lhs, err := before.Contents()
	if err != nil {
		return extract.Pair{}, fmt.Errorf("read %s at %s: %w", path, c.Hash, err)
	}

	rhs, err := after.Contents()
	if err != nil {
		return extract.Pair{}, fmt.Errorf("read %s at %s: %w", path, c.Hash, err)
	}

	return extract.Pair{
		Repo:     m.name,
		Revision: c.Hash.String(),
		Path:     path,
		Before:   []byte(lhs),
		After:    []byte(rhs),
	}, nil
}

// wanted filters by path alone. Files without an extension pass the
// language check here; their content decides after it is read.
func (m *Miner) wanted(path string) bool {
	if m.supported != nil && filepath.Ext(path) != "" && !m.supported(path, nil) {
		return false
	}

	if len(m.opts.Include) == 0 {
		return true
	}

	for _, glob := range m.opts.Include {
		if ok, _ := doublestar.Match(glob, path); ok {
			return true
		}
	}

	return false
}

func (m *Miner) tooLarge(f *object.File) bool {
	return m.opts.MaxFileSize > 0 && f != nil && safeconv.Size(f.Size) > m.opts.MaxFileSize
}

// firstSeen records the content digest of the pair.
func (m *Miner) firstSeen(p extract.Pair) bool {
	h := blake3.New(32, nil) //nolint:mnd // 256-bit digest
	lhs := blake3.Sum256(p.Before)
	rhs := blake3.Sum256(p.After)

	_, _ = h.Write(lhs[:])
	_, _ = h.Write(rhs[:])

	var key [32]byte

	copy(key[:], h.Sum(nil))

	if _, ok := m.seen[key]; ok {
		return false
	}

	m.seen[key] = struct{}{}

	return true
}

// resolve turns a ref name into a commit hash: HEAD when empty, then
// branch, tag, and finally a raw hash.
func (m *Miner) resolve(ref string) (plumbing.Hash, error) {
	if ref == "" || ref == "HEAD" {
		head, err := m.repo.Head()
		if err != nil {
			return plumbing.ZeroHash, fmt.Errorf("resolve HEAD: %w", err)
		}

		return head.Hash(), nil
	}

	for _, name := range []plumbing.ReferenceName{
		plumbing.NewBranchReferenceName(ref),
		plumbing.NewTagReferenceName(ref),
	} {
		r, err := m.repo.Reference(name, true)
		if err != nil {
			continue
		}

		if tag, tagErr := m.repo.TagObject(r.Hash()); tagErr == nil {
			return tag.Target, nil
		}

		return r.Hash(), nil
	}

	if !plumbing.IsHash(ref) {
		return plumbing.ZeroHash, fmt.Errorf("%w: %q", ErrUnknownRef, ref)
	}

	hash := plumbing.NewHash(ref)
	if _, err := m.repo.CommitObject(hash); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("%w: %q", ErrUnknownRef, ref)
	}

	return hash, nil
}

// MatchesKeywords reports whether msg contains one of keywords as a whole
// word, ignoring case and surrounding punctuation. No keywords matches all.
func MatchesKeywords(msg string, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}

	for word := range strings.FieldsSeq(msg) {
		word = strings.ToLower(strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		}))

		for _, k := range keywords {
			if word == strings.ToLower(k) {
				return true
			}
		}
	}

	return false
}
