package driver

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datazip-inc/olake-monday/drivers/abstract"
	"github.com/datazip-inc/olake-monday/types"
)

// fakeMonday answers graphql queries by matching a fragment of the query text
type fakeMonday struct {
	mu      sync.Mutex
	routes  []route
	queries []string
}

type route struct {
	fragment string
	body     string
}

func (f *fakeMonday) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var payload map[string]string
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.queries = append(f.queries, payload["query"])
	f.mu.Unlock()

	for _, route := range f.routes {
		if strings.Contains(payload["query"], route.fragment) {
			_, _ = io.WriteString(w, route.body)
			return
		}
	}
	w.WriteHeader(http.StatusBadRequest)
	_, _ = io.WriteString(w, `{"errors":[{"message":"unexpected query","extensions":{"code":"TEST"}}]}`)
}

type memorySink struct {
	schemas []string
	records map[string][]types.Record
	states  []string
}

func (m *memorySink) WriteSchema(_ context.Context, def *abstract.StreamDefinition) error {
	m.schemas = append(m.schemas, def.ID)
	return nil
}

func (m *memorySink) WriteRecord(_ context.Context, streamID string, record types.Record) error {
	if m.records == nil {
		m.records = map[string][]types.Record{}
	}
	m.records[streamID] = append(m.records[streamID], record)
	return nil
}

func (m *memorySink) WriteState(_ context.Context, state *types.State) error {
	encoded, err := json.Marshal(state)
	if err != nil {
		return err
	}
	m.states = append(m.states, string(encoded))
	return nil
}

func newTestDriver(t *testing.T, handler http.Handler) *Monday {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	driver := &Monday{}
	config := driver.GetConfigRef().(*Config)
	config.APIToken = "token"
	config.StartDate = "2024-01-01T00:00:00Z"
	config.BaseURL = server.URL
	config.RateLimit = 1000
	config.MaxRetries = 1
	require.NoError(t, driver.Setup(context.Background()))
	return driver
}

func selectStreams(catalog *types.Catalog, ids ...string) {
	selected := true
	for _, id := range ids {
		if stream, found := catalog.GetStream(id); found {
			stream.StreamMetadata().Selected = &selected
		}
	}
}

func TestCheck(t *testing.T) {
	driver := newTestDriver(t, &fakeMonday{routes: []route{{"me {", `{"data":{"me":{"id":"1"}}}`}}})
	assert.NoError(t, driver.Check(context.Background()))

	driver = newTestDriver(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	err := driver.Check(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP-error-code: 401")
}

func TestSetupRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{"missing token", Config{StartDate: "2024-01-01T00:00:00Z"}},
		{"missing start date", Config{APIToken: "token"}},
		{"malformed start date", Config{APIToken: "token", StartDate: "01/02/2024"}},
		{"non positive page size", Config{APIToken: "token", StartDate: "2024-01-01", PageSize: map[string]int{"boards": 0}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			driver := &Monday{}
			config := driver.GetConfigRef().(*Config)
			*config = tc.config
			assert.Error(t, driver.Setup(context.Background()))
		})
	}
}

func TestDiscoverCatalog(t *testing.T) {
	driver := newTestDriver(t, &fakeMonday{})

	catalog, err := abstract.NewAbstractDriver(context.Background(), driver).Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, catalog.Streams, 19)

	items, found := catalog.GetStream("board_items")
	require.True(t, found)
	meta := items.StreamMetadata()
	assert.Equal(t, types.Incremental, meta.ForcedReplicationMethod)
	assert.Equal(t, []string{"updated_at"}, meta.ValidReplicationKeys)
	assert.Equal(t, "boards", meta.ParentTapStreamID)
	assert.Equal(t, []string{"id", "board_id"}, items.KeyProperties)
}

func TestSyncEndToEnd(t *testing.T) {
	fake := &fakeMonday{routes: []route{
		{"boards(limit: 100, page: 1)", `{"data":{"boards":[
			{"id":"1","name":"Roadmap","updated_at":"2024-03-01T00:00:00Z","creator":{"id":"9"},"top_group":{"id":"topics"}},
			{"id":"2","name":"Archive","updated_at":"2023-06-01T00:00:00Z","creator":null,"top_group":null}
		]}}`},
		{"boards(ids: 1) { items_page(limit: 20)", `{"data":{"boards":[{"items_page":{"cursor":"c1","items":[
			{"id":"101","name":"Launch","updated_at":"2024-02-01T00:00:00Z","creator":{"id":"9"},"group":{"id":"topics"},"parent_item":null}
		]}}]}}`},
		{`next_items_page(limit: 20, cursor: "c1")`, `{"data":{"next_items_page":{"cursor":null,"items":[
			{"id":"102","name":"Old","updated_at":"2023-01-01T00:00:00Z","creator":null,"group":null,"parent_item":null}
		]}}}`},
		{"items(ids: 101) { column_values", `{"data":{"items":[{"column_values":[
			{"id":"status","text":"Done","type":"status","value":"{\"index\":1}"}
		]}]}}`},
		{"updates(limit: 100, page: 1)", `{"data":{"updates":[
			{"id":"500","body":"hello","updated_at":"2024-04-01T00:00:00Z","assets":[],
			 "replies":[{"id":"600","body":"hi","updated_at":"2024-04-02T00:00:00Z","creator":{"id":"9","name":"Ann"},"assets":[]}]}
		]}}`},
	}}
	driver := newTestDriver(t, fake)

	abstractDriver := abstract.NewAbstractDriver(context.Background(), driver)
	catalog, err := abstractDriver.Discover(context.Background())
	require.NoError(t, err)
	selectStreams(catalog, "boards", "board_items", "column_values", "updates", "reply")

	state := types.NewState()
	sink := &memorySink{}
	counts, err := abstractDriver.Read(context.Background(), catalog, state, sink)
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"boards": 1, "board_items": 1, "column_values": 1, "updates": 1, "reply": 1}, counts)
	assert.ElementsMatch(t, []string{"boards", "board_items", "column_values", "updates", "reply"}, sink.schemas)

	board := sink.records["boards"][0]
	assert.Equal(t, "9", board["creator_id"])
	assert.Equal(t, "topics", board["top_group_id"])
	assert.NotContains(t, board, "creator")

	value := sink.records["column_values"][0]
	assert.Equal(t, "101", value["item_id"])
	assert.Equal(t, "1", value["board_id"])

	replyRecord := sink.records["reply"][0]
	assert.Equal(t, "500", replyRecord["update_id"])
	assert.Equal(t, "9", replyRecord["creator_id"])

	assert.Equal(t, "2024-03-01T00:00:00Z", state.GetBookmark("boards", "updated_at"))
	assert.Equal(t, "2024-02-01T00:00:00Z", state.GetBookmark("board_items", "updated_at"))
	assert.Equal(t, "2024-03-01T00:00:00Z", state.GetBookmark("board_items", "boards_updated_at"))
	assert.Equal(t, "2024-04-01T00:00:00Z", state.GetBookmark("updates", "updated_at"))
	assert.Equal(t, "2024-04-01T00:00:00Z", state.GetBookmark("reply", "updates_updated_at"))
	assert.Equal(t, "2024-04-02T00:00:00Z", state.GetBookmark("reply", "updated_at"))
	assert.Nil(t, state.CurrentlySyncing)

	// the archived board is below the floor, so its items are never requested
	for _, q := range fake.queries {
		assert.NotContains(t, q, "boards(ids: 2)")
	}
}
