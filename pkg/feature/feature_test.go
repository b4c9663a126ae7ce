package feature_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/editvec/pkg/classify"
	"github.com/Sumatoshi-tech/editvec/pkg/cst"
	"github.com/Sumatoshi-tech/editvec/pkg/feature"
)

var errFull = errors.New("disk full")

type failingStore struct {
	after int
	calls int
}

func (s *failingStore) Append(context.Context, feature.Record) error {
	s.calls++
	if s.calls > s.after {
		return errFull
	}

	return nil
}

// tree builds program > stmt > (identifier, number) over "a 1".
func tree(t *testing.T) cst.Cursor {
	t.Helper()

	tr := cst.NewTree([]byte("a 1"))

	root, err := tr.Add(cst.NoParent, "program", 0, 3, true)
	require.NoError(t, err)

	stmt, err := tr.Add(root, "stmt", 0, 3, true)
	require.NoError(t, err)

	_, err = tr.Add(stmt, "identifier", 0, 1, true)
	require.NoError(t, err)

	_, err = tr.Add(stmt, "number", 2, 3, true)
	require.NoError(t, err)

	return tr.Root()
}

func TestCSVStore_AppendAndRead(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "features.csv")
	store := feature.NewCSVStore(path)
	assert.Equal(t, path, store.Path())

	recs := []feature.Record{
		{Repo: "r", Revision: "abc", Change: "Added", ParentKind: "call", GrandparentKind: "block"},
		{Repo: "r", Revision: "abc", Change: "DeltedThenAdded", ParentKind: "if, else", GrandparentKind: "block"},
	}

	for _, rec := range recs {
		require.NoError(t, store.Append(context.Background(), rec))
	}

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "r,abc,Added,call,block\n"))

	file, err := os.Open(path)
	require.NoError(t, err)

	defer file.Close()

	got, err := feature.ReadRecords(file)
	require.NoError(t, err)
	assert.Equal(t, recs, got)
}

func TestCSVStore_ConcurrentAppend(t *testing.T) {
	t.Parallel()

	const writers, rows = 8, 25

	path := filepath.Join(t.TempDir(), "features.csv")
	store := feature.NewCSVStore(path)

	want := make([]feature.Record, 0, writers*rows)

	for w := range writers {
		for i := range rows {
			want = append(want, feature.Record{
				Repo:            fmt.Sprintf("repo-%d", w),
				Revision:        fmt.Sprintf("rev-%d", i),
				Change:          "Added",
				ParentKind:      "if, else",
				GrandparentKind: "block\n",
			})
		}
	}

	var g errgroup.Group

	for w := range writers {
		g.Go(func() error {
			for _, rec := range want[w*rows : (w+1)*rows] {
				if err := store.Append(context.Background(), rec); err != nil {
					return err
				}
			}

			return nil
		})
	}

	require.NoError(t, g.Wait())

	file, err := os.Open(path)
	require.NoError(t, err)

	defer file.Close()

	got, err := feature.ReadRecords(file)
	require.NoError(t, err)
	require.Len(t, got, writers*rows)
	assert.ElementsMatch(t, want, got)
}

func TestCSVStore_Errors(t *testing.T) {
	t.Parallel()

	missing := feature.NewCSVStore(filepath.Join(t.TempDir(), "no", "such", "dir.csv"))
	err := missing.Append(context.Background(), feature.Record{})
	require.ErrorIs(t, err, feature.ErrStoreWrite)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := feature.NewCSVStore(filepath.Join(t.TempDir(), "f.csv"))
	err = store.Append(ctx, feature.Record{})
	require.ErrorIs(t, err, feature.ErrStoreWrite)
	require.ErrorIs(t, err, context.Canceled)
}

func TestReadRecords_BadRow(t *testing.T) {
	t.Parallel()

	_, err := feature.ReadRecords(strings.NewReader("a,b,c\n"))
	require.ErrorIs(t, err, feature.ErrBadRecord)

	recs, err := feature.ReadRecords(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestEmitter(t *testing.T) {
	t.Parallel()

	root := tree(t)
	leaves := root.Leaves()

	tagged := []classify.Tagged{
		{Node: leaves[0], Change: classify.Deleted},
		{Node: leaves[1], Change: classify.DeletedThenAdded},
	}

	store := &feature.MemoryStore{}
	em := feature.Emitter{Store: store, Repo: "r", Revision: "v1", Labels: classify.LegacyLabels}

	n, err := em.Emit(context.Background(), tagged)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []feature.Record{
		{Repo: "r", Revision: "v1", Change: "Deleted", ParentKind: "stmt", GrandparentKind: "program"},
		{Repo: "r", Revision: "v1", Change: "DeltedThenAdded", ParentKind: "stmt", GrandparentKind: "program"},
	}, store.Records())
}

func TestEmitter_StopsAtFirstError(t *testing.T) {
	t.Parallel()

	root := tree(t)
	leaves := root.Leaves()

	failing := &failingStore{after: 1}
	em := feature.Emitter{Store: failing}

	n, err := em.Emit(context.Background(), []classify.Tagged{
		{Node: leaves[0]}, {Node: leaves[1]}, {Node: leaves[0]},
	})
	require.ErrorIs(t, err, errFull)
	assert.Equal(t, 1, n)
	assert.Equal(t, 2, failing.calls)

	store := &feature.MemoryStore{}
	em = feature.Emitter{Store: store}

	n, err = em.Emit(context.Background(), []classify.Tagged{{Node: leaves[0]}, {Node: root.Child(0)}})
	require.ErrorIs(t, err, classify.ErrNoAncestor)
	assert.Equal(t, 1, n)
	assert.Len(t, store.Records(), 1)
}

func TestBuildVectors(t *testing.T) {
	t.Parallel()

	recs := []feature.Record{
		{Repo: "r", Revision: "b", Change: "Added", ParentKind: "call", GrandparentKind: "block"},
		{Repo: "r", Revision: "a", Change: "Added", ParentKind: "call", GrandparentKind: "block"},
		{Repo: "r", Revision: "b", Change: "Added", ParentKind: "call", GrandparentKind: "block"},
		{Repo: "r", Revision: "b", Change: "Deleted", ParentKind: "args", GrandparentKind: "call"},
	}

	set := feature.BuildVectors(recs)

	assert.Equal(t, []feature.Key{
		{Change: "Added", ParentKind: "call", GrandparentKind: "block"},
		{Change: "Deleted", ParentKind: "args", GrandparentKind: "call"},
	}, set.Keys)
	require.Len(t, set.Vectors, 2)
	assert.Equal(t, feature.Vector{Repo: "r", Revision: "b", Counts: []int{2, 1}}, set.Vectors[0])
	assert.Equal(t, feature.Vector{Repo: "r", Revision: "a", Counts: []int{1, 0}}, set.Vectors[1])

	empty := feature.BuildVectors(nil)
	assert.Empty(t, empty.Keys)
	assert.Empty(t, empty.Vectors)
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	stats := feature.Summarize([]feature.Record{
		{Repo: "r", Revision: "a", Change: "Added", ParentKind: "call"},
		{Repo: "r", Revision: "a", Change: "Deleted", ParentKind: "call"},
		{Repo: "q", Revision: "b", Change: "Added", ParentKind: "args"},
	})

	assert.Equal(t, 3, stats.Records)
	assert.Equal(t, 2, stats.Revisions)
	assert.Equal(t, 2, stats.Repositories)
	assert.Equal(t, []feature.Tally{{Label: "Added", Count: 2}, {Label: "Deleted", Count: 1}}, stats.ByChange)
	assert.Equal(t, []feature.Tally{{Label: "call", Count: 2}, {Label: "args", Count: 1}}, stats.ByParent)
}
