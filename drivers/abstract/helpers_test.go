package abstract

import (
	"context"
	"fmt"

	"github.com/datazip-inc/olake-monday/types"
)

type fakePage struct {
	records []map[string]any
	cursor  string
}

// fakeStream serves pages keyed by parent id ("" for roots) through fakeRequester
type fakeStream struct {
	def *StreamDefinition
}

func (f *fakeStream) Definition() *StreamDefinition {
	return f.def
}

func (f *fakeStream) BuildRequest(parent types.Record, page *PageState) (*Request, error) {
	parentID := ""
	if parent != nil {
		id, err := ParentID(f.def.ID, parent)
		if err != nil {
			return nil, err
		}
		parentID = fmt.Sprint(id)
	}
	return &Request{
		Method: "POST",
		Body:   map[string]any{"parent": parentID, "page": page.Page, "cursor": page.Cursor},
	}, nil
}

func (f *fakeStream) ExtractPage(response map[string]any, page *PageState) ([]map[string]any, error) {
	page.Cursor, _ = response["cursor"].(string)
	return ExtractPath(response, "data"), nil
}

func (f *fakeStream) NormalizeRecord(raw map[string]any, parent types.Record) (types.Record, error) {
	record := NewRecord(raw)
	if parent != nil {
		id, err := ParentID(f.def.ID, parent)
		if err != nil {
			return nil, err
		}
		record["parent_id"] = id
	}
	return record, nil
}

// fakeEmbeddedStream reads its records out of the parent's "children" field
type fakeEmbeddedStream struct {
	fakeStream
}

func (f *fakeEmbeddedStream) ExtractEmbedded(parent types.Record) ([]map[string]any, error) {
	return ExtractPath(parent, "children"), nil
}

type fakeRequester struct {
	// stream -> parent id -> pages
	pages    map[string]map[string][]fakePage
	requests map[string]int
	fail     error
}

func newFakeRequester() *fakeRequester {
	return &fakeRequester{pages: map[string]map[string][]fakePage{}, requests: map[string]int{}}
}

func (f *fakeRequester) serve(stream, parent string, pages ...fakePage) {
	if f.pages[stream] == nil {
		f.pages[stream] = map[string][]fakePage{}
	}
	f.pages[stream][parent] = pages
}

func (f *fakeRequester) Request(_ context.Context, req *Request) (map[string]any, error) {
	f.requests[req.Stream]++
	if f.fail != nil {
		return nil, f.fail
	}

	body := req.Body.(map[string]any)
	pages := f.pages[req.Stream][body["parent"].(string)]
	idx := body["page"].(int) - 1
	if idx >= len(pages) {
		return map[string]any{"data": []any{}}, nil
	}

	data := make([]any, 0, len(pages[idx].records))
	for _, record := range pages[idx].records {
		data = append(data, record)
	}
	return map[string]any{"data": data, "cursor": pages[idx].cursor}, nil
}

type fakeCatalog map[string]bool

func (f fakeCatalog) IsSelected(streamID string) bool {
	return f[streamID]
}

func (f fakeCatalog) Transform(_ string, record types.Record) types.Record {
	return record
}

type emitted struct {
	stream string
	record types.Record
}

type memorySink struct {
	schemas []string
	records []emitted
	states  []string
	// order keeps the sequence of message kinds: schema:<id>, record:<id>, state
	order []string
	// stateErr fails every state write
	stateErr error
}

func (m *memorySink) WriteSchema(_ context.Context, def *StreamDefinition) error {
	m.schemas = append(m.schemas, def.ID)
	m.order = append(m.order, "schema:"+def.ID)
	return nil
}

func (m *memorySink) WriteRecord(_ context.Context, streamID string, record types.Record) error {
	m.records = append(m.records, emitted{stream: streamID, record: record})
	m.order = append(m.order, "record:"+streamID)
	return nil
}

func (m *memorySink) WriteState(_ context.Context, state *types.State) error {
	if m.stateErr != nil {
		return m.stateErr
	}
	current := ""
	if state.CurrentlySyncing != nil {
		current = *state.CurrentlySyncing
	}
	m.states = append(m.states, current)
	m.order = append(m.order, "state")
	return nil
}

func (m *memorySink) ids(stream string) []any {
	var ids []any
	for _, one := range m.records {
		if one.stream == stream {
			ids = append(ids, one.record["id"])
		}
	}
	return ids
}

func rec(id, updatedAt string) map[string]any {
	return map[string]any{"id": id, "updated_at": updatedAt}
}

func incrementalDef(id, parent string, children ...string) *StreamDefinition {
	return &StreamDefinition{
		ID:                id,
		ReplicationMethod: types.Incremental,
		KeyProperties:     []string{"id"},
		ReplicationKey:    "updated_at",
		Parent:            parent,
		Children:          children,
		Pagination:        Pagination{Style: PageCounter, PageSize: 2},
	}
}

func fullTableDef(id, parent string, children ...string) *StreamDefinition {
	return &StreamDefinition{
		ID:                id,
		ReplicationMethod: types.FullTable,
		KeyProperties:     []string{"id"},
		Parent:            parent,
		Children:          children,
	}
}
