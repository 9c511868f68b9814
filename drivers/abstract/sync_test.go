package abstract

import (
	"context"
	"errors"
	"testing"

	"github.com/datazip-inc/olake-monday/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func page(records ...map[string]any) fakePage {
	return fakePage{records: records}
}

func TestIncrementalFiltering(t *testing.T) {
	requester := newFakeRequester()
	requester.serve("boards", "",
		page(rec("1", "2024-01-01T00:00:00Z"), rec("2", "2024-03-01T00:00:00Z")),
		page(rec("3", "2024-02-01T00:00:00Z")),
	)
	state := types.NewState()
	state.SetBookmark("boards", "updated_at", "2024-02-01T00:00:00Z")

	sink := &memorySink{}
	syncer := NewSyncer(requester, sink, fakeCatalog{"boards": true}, NewBookmarks(state, "2023-01-01T00:00:00Z"))
	count, err := syncer.Sync(context.Background(), &Node{
		Stream: &fakeStream{def: incrementalDef("boards", "")},
		Policy: BookmarkPolicy{Key: "updated_at", CompositeKey: "boards_updated_at"},
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, 2, count)
	// records equal to the floor pass
	assert.Equal(t, []any{"2", "3"}, sink.ids("boards"))
	assert.Equal(t, "2024-03-01T00:00:00Z", state.GetBookmark("boards", "updated_at"))
}

func TestIncrementalIdempotence(t *testing.T) {
	requester := newFakeRequester()
	requester.serve("boards", "", page(rec("1", "2024-01-01T00:00:00Z"), rec("2", "2023-12-01T00:00:00Z")))
	state := types.NewState()
	state.SetBookmark("boards", "updated_at", "2024-06-01T00:00:00Z")

	sink := &memorySink{}
	syncer := NewSyncer(requester, sink, fakeCatalog{"boards": true}, NewBookmarks(state, "2023-01-01T00:00:00Z"))
	count, err := syncer.Sync(context.Background(), &Node{
		Stream: &fakeStream{def: incrementalDef("boards", "")},
		Policy: BookmarkPolicy{Key: "updated_at", CompositeKey: "boards_updated_at"},
	}, nil)

	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, sink.records)
	assert.Equal(t, "2024-06-01T00:00:00Z", state.GetBookmark("boards", "updated_at"))
}

// The floor is inclusive, so a rerun whose bookmark equals the newest record
// already emitted sends that record again. Reruns are idempotent per key,
// not per message.
func TestRerunAtBookmarkReemitsBoundaryRecord(t *testing.T) {
	requester := newFakeRequester()
	requester.serve("boards", "", page(rec("1", "2024-01-01T00:00:00Z"), rec("2", "2023-12-01T00:00:00Z")))
	state := types.NewState()
	state.SetBookmark("boards", "updated_at", "2024-01-01T00:00:00Z")

	sink := &memorySink{}
	syncer := NewSyncer(requester, sink, fakeCatalog{"boards": true}, NewBookmarks(state, "2023-01-01T00:00:00Z"))
	count, err := syncer.Sync(context.Background(), &Node{
		Stream: &fakeStream{def: incrementalDef("boards", "")},
		Policy: BookmarkPolicy{Key: "updated_at", CompositeKey: "boards_updated_at"},
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, []any{"1"}, sink.ids("boards"))
	assert.Equal(t, "2024-01-01T00:00:00Z", state.GetBookmark("boards", "updated_at"))
}

func TestRunStopsWhenStateCannotBeWritten(t *testing.T) {
	requester := newFakeRequester()
	requester.serve("boards", "", page(rec("1", "2024-05-01T00:00:00Z")))

	catalog := fakeCatalog{"boards": true}
	roots, err := ResolveTree([]Stream{&fakeStream{def: incrementalDef("boards", "")}}, catalog)
	require.NoError(t, err)

	sink := &memorySink{stateErr: errors.New("read-only file system")}
	syncer := NewSyncer(requester, sink, catalog, NewBookmarks(types.NewState(), "2024-01-01T00:00:00Z"))
	err = syncer.Run(context.Background(), roots)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write state")
	assert.Empty(t, sink.records)
}

func TestChildrenFollowParentFloorNotSelection(t *testing.T) {
	requester := newFakeRequester()
	requester.serve("boards", "", page(rec("b1", "2024-05-01T00:00:00Z"), rec("b2", "2023-01-01T00:00:00Z")))
	requester.serve("board_items", "b1", page(rec("i1", "2024-05-02T00:00:00Z")))
	requester.serve("board_items", "b2", page(rec("i2", "2024-05-03T00:00:00Z")))

	catalog := fakeCatalog{"board_items": true}
	roots, err := ResolveTree([]Stream{
		&fakeStream{def: incrementalDef("boards", "", "board_items")},
		&fakeStream{def: incrementalDef("board_items", "boards")},
	}, catalog)
	require.NoError(t, err)

	state := types.NewState()
	sink := &memorySink{}
	syncer := NewSyncer(requester, sink, catalog, NewBookmarks(state, "2024-01-01T00:00:00Z"))
	require.NoError(t, syncer.Run(context.Background(), roots))

	// b2 is older than the floor so its items are never requested
	assert.Empty(t, sink.ids("boards"))
	assert.Equal(t, []any{"i1"}, sink.ids("board_items"))
	assert.Equal(t, 1, requester.requests["board_items"])
	assert.Equal(t, "b1", sink.records[0].record["parent_id"])

	// unselected parent propagates only into the tracked child
	assert.Nil(t, state.GetBookmark("boards", "updated_at"))
	assert.Equal(t, "2024-05-01T00:00:00Z", state.GetBookmark("board_items", "boards_updated_at"))
	assert.Equal(t, "2024-05-02T00:00:00Z", state.GetBookmark("board_items", "updated_at"))
}

func TestChildFloorFixedAcrossInvocations(t *testing.T) {
	requester := newFakeRequester()
	requester.serve("boards", "", page(rec("b1", "2024-05-01T00:00:00Z"), rec("b2", "2024-05-01T00:00:00Z")))
	// b1's item moves the child bookmark past b2's item, which must still be emitted
	requester.serve("board_items", "b1", page(rec("i1", "2024-09-01T00:00:00Z")))
	requester.serve("board_items", "b2", page(rec("i2", "2024-03-01T00:00:00Z")))

	catalog := fakeCatalog{"boards": true, "board_items": true}
	roots, err := ResolveTree([]Stream{
		&fakeStream{def: incrementalDef("boards", "", "board_items")},
		&fakeStream{def: incrementalDef("board_items", "boards")},
	}, catalog)
	require.NoError(t, err)

	state := types.NewState()
	sink := &memorySink{}
	syncer := NewSyncer(requester, sink, catalog, NewBookmarks(state, "2024-01-01T00:00:00Z"))
	require.NoError(t, syncer.Run(context.Background(), roots))

	assert.Equal(t, []any{"i1", "i2"}, sink.ids("board_items"))
	assert.Equal(t, "2024-09-01T00:00:00Z", state.GetBookmark("board_items", "updated_at"))
	assert.Equal(t, "2024-05-01T00:00:00Z", state.GetBookmark("boards", "updated_at"))
	assert.Equal(t, map[string]int{"boards": 2, "board_items": 2}, syncer.Counts())
}

func TestFullTableChildIndependence(t *testing.T) {
	requester := newFakeRequester()
	requester.serve("boards", "", page(rec("b1", "2024-05-01T00:00:00Z")))
	requester.serve("board_columns", "b1", page(rec("c1", ""), rec("c2", "")))

	catalog := fakeCatalog{"boards": true, "board_columns": true}
	roots, err := ResolveTree([]Stream{
		&fakeStream{def: incrementalDef("boards", "", "board_columns")},
		&fakeStream{def: fullTableDef("board_columns", "boards")},
	}, catalog)
	require.NoError(t, err)

	state := types.NewState()
	state.SetBookmark("boards", "updated_at", "2024-04-01T00:00:00Z")
	sink := &memorySink{}
	syncer := NewSyncer(requester, sink, catalog, NewBookmarks(state, "2020-01-01T00:00:00Z"))
	require.NoError(t, syncer.Run(context.Background(), roots))

	// the floor comes from the parent alone
	assert.Empty(t, roots[0].Policy.Tracked)
	assert.Equal(t, []any{"c1", "c2"}, sink.ids("board_columns"))
	assert.Equal(t, map[string]any{"updated_at": "2024-05-01T00:00:00Z"}, state.Bookmarks["boards"])
	assert.NotContains(t, state.Bookmarks, "board_columns")
}

func TestEmbeddedChild(t *testing.T) {
	requester := newFakeRequester()
	requester.serve("updates", "", page(map[string]any{
		"id":         "u1",
		"updated_at": "2024-05-01T00:00:00Z",
		"children":   []any{rec("r1", "2024-05-01T00:00:00Z"), rec("r2", "2023-01-01T00:00:00Z")},
	}))

	catalog := fakeCatalog{"reply": true}
	reply := &fakeEmbeddedStream{fakeStream{def: incrementalDef("reply", "updates")}}
	roots, err := ResolveTree([]Stream{
		&fakeStream{def: incrementalDef("updates", "", "reply")},
		reply,
	}, catalog)
	require.NoError(t, err)

	sink := &memorySink{}
	syncer := NewSyncer(requester, sink, catalog, NewBookmarks(types.NewState(), "2024-01-01T00:00:00Z"))
	require.NoError(t, syncer.Run(context.Background(), roots))

	assert.Equal(t, []any{"r1"}, sink.ids("reply"))
	assert.Equal(t, "u1", sink.records[0].record["parent_id"])
	assert.Zero(t, requester.requests["reply"])
	assert.Equal(t, 1, requester.requests["updates"])
}

func TestRunMessageOrderAndResume(t *testing.T) {
	requester := newFakeRequester()
	requester.serve("boards", "", page(rec("b1", "2024-05-01T00:00:00Z")))
	requester.serve("users", "", page(rec("u1", "")))

	catalog := fakeCatalog{"boards": true, "users": true}
	roots, err := ResolveTree([]Stream{
		&fakeStream{def: incrementalDef("boards", "")},
		&fakeStream{def: fullTableDef("users", "")},
	}, catalog)
	require.NoError(t, err)

	state := types.NewState()
	state.SetCurrentlySyncing("users")
	sink := &memorySink{}
	syncer := NewSyncer(requester, sink, catalog, NewBookmarks(state, ""))
	require.NoError(t, syncer.Run(context.Background(), roots))

	assert.Equal(t, []string{
		"schema:boards", "schema:users",
		"state", "record:users", "state",
		"state", "record:boards", "state",
		"state",
	}, sink.order)
	assert.Equal(t, []string{"users", "users", "boards", "boards", ""}, sink.states)
	assert.Nil(t, state.CurrentlySyncing)
}

func TestSyncErrors(t *testing.T) {
	t.Run("requester failure aborts", func(t *testing.T) {
		requester := newFakeRequester()
		requester.fail = errors.New("HTTP-error-code: 401, Error: unauthorized")
		roots, err := ResolveTree([]Stream{&fakeStream{def: fullTableDef("users", "")}}, fakeCatalog{"users": true})
		require.NoError(t, err)

		syncer := NewSyncer(requester, &memorySink{}, fakeCatalog{"users": true}, NewBookmarks(nil, ""))
		err = syncer.Run(context.Background(), roots)
		assert.ErrorContains(t, err, "failed to sync stream[users]")
		assert.ErrorContains(t, err, "401")
	})

	t.Run("missing replication key aborts", func(t *testing.T) {
		requester := newFakeRequester()
		requester.serve("boards", "", page(map[string]any{"id": "1"}))
		syncer := NewSyncer(requester, &memorySink{}, fakeCatalog{"boards": true}, NewBookmarks(nil, ""))
		_, err := syncer.Sync(context.Background(), &Node{Stream: &fakeStream{def: incrementalDef("boards", "")}}, nil)

		var missing *MissingFieldError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, "updated_at", missing.Field)
	})

	t.Run("child without parent id aborts", func(t *testing.T) {
		requester := newFakeRequester()
		requester.serve("boards", "", page(map[string]any{"name": "no id", "updated_at": "2024-01-01T00:00:00Z"}))
		catalog := fakeCatalog{"boards": true, "board_columns": true}
		roots, err := ResolveTree([]Stream{
			&fakeStream{def: incrementalDef("boards", "", "board_columns")},
			&fakeStream{def: fullTableDef("board_columns", "boards")},
		}, catalog)
		require.NoError(t, err)

		syncer := NewSyncer(requester, &memorySink{}, catalog, NewBookmarks(nil, ""))
		err = syncer.Run(context.Background(), roots)
		var missing *MissingFieldError
		assert.ErrorAs(t, err, &missing)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		syncer := NewSyncer(newFakeRequester(), &memorySink{}, fakeCatalog{"users": true}, NewBookmarks(nil, ""))
		_, err := syncer.Sync(ctx, &Node{Stream: &fakeStream{def: fullTableDef("users", "")}}, nil)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
